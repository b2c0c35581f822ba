// Package messages holds the user-facing message catalog. Every message is
// addressed by a stable ID; the core only ever refers to the IDs and their
// positional arguments.
package messages

import (
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message IDs.
const (
	UnmatchedBrackets      = "unmatched_brackets"
	BackendNotImplemented  = "backend_not_implemented"
	BackendMissingTemplate = "backend_missing_template"
	BackendBadKey          = "backend_bad_key"
	BackendMissingLabel    = "backend_missing_label"
	GeneratedAsm           = "generated_asm"
	ChangingLangTo         = "changing_lang_to"
	Usage                  = "usage"
	OrKeyword              = "or_keyword"
	UnsupportedLang        = "unsupported_lang"
	CacheDisabled          = "cache_disabled"
)

var dictionaries = map[language.Tag]map[string]string{
	language.English: {
		UnmatchedBrackets:      "syntax error: unmatched %s at line %d, column %d",
		BackendNotImplemented:  "backend for %s/%s is not implemented",
		BackendMissingTemplate: "backend %s/%s is missing required template %q",
		BackendBadKey:          "invalid backend key %q: expected <arch>_<os>",
		BackendMissingLabel:    "backend %s/%s template %q does not contain %s",
		GeneratedAsm:           "generated %s (cache: %s)",
		ChangingLangTo:         "changing language to %s",
		Usage:                  "usage",
		OrKeyword:              "or",
		UnsupportedLang:        "no translations for %s; messages will be shown in English",
		CacheDisabled:          "disabled",
	},
	language.Spanish: {
		UnmatchedBrackets:      "error de sintaxis: %s sin pareja en la línea %d, columna %d",
		BackendNotImplemented:  "el backend para %s/%s no está implementado",
		BackendMissingTemplate: "al backend %s/%s le falta la plantilla obligatoria %q",
		BackendBadKey:          "clave de backend no válida %q: se esperaba <arch>_<os>",
		BackendMissingLabel:    "backend %s/%s: la plantilla %q no contiene %s",
		GeneratedAsm:           "generado %s (caché: %s)",
		ChangingLangTo:         "cambiando el idioma a %s",
		Usage:                  "uso",
		OrKeyword:              "o",
		UnsupportedLang:        "no hay traducciones para %s; los mensajes se mostrarán en inglés",
		CacheDisabled:          "desactivada",
	},
	language.German: {
		UnmatchedBrackets:      "Syntaxfehler: %s ohne Gegenstück in Zeile %d, Spalte %d",
		BackendNotImplemented:  "Backend für %s/%s ist nicht implementiert",
		BackendMissingTemplate: "Backend %s/%s fehlt die erforderliche Vorlage %q",
		BackendBadKey:          "ungültiger Backend-Schlüssel %q: erwartet <arch>_<os>",
		BackendMissingLabel:    "Backend %s/%s: Vorlage %q enthält kein %s",
		GeneratedAsm:           "%s erzeugt (Cache: %s)",
		ChangingLangTo:         "Sprache wird auf %s umgestellt",
		Usage:                  "Verwendung",
		OrKeyword:              "oder",
		UnsupportedLang:        "keine Übersetzungen für %s; Meldungen werden auf Englisch angezeigt",
		CacheDisabled:          "deaktiviert",
	},
}

var cat = mustBuild()

func mustBuild() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, dict := range dictionaries {
		for id, msg := range dict {
			if err := b.SetString(tag, id, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Printer renders message IDs in one language.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// English is the printer used when no language has been configured.
var English = NewPrinter("en")

// NewPrinter returns a printer for the closest supported match of lang.
// Unknown or malformed codes fall back to English.
func NewPrinter(lang string) *Printer {
	tag := language.English
	if t, err := language.Parse(lang); err == nil {
		_, idx, conf := cat.Matcher().Match(t)
		if conf != language.No {
			tag = cat.Languages()[idx]
		}
	}
	return &Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(cat))}
}

// Supported reports whether lang matches one of the catalog languages.
func Supported(lang string) bool {
	t, err := language.Parse(lang)
	if err != nil {
		return false
	}
	_, _, conf := cat.Matcher().Match(t)
	return conf != language.No
}

// Language returns the language the printer renders in.
func (p *Printer) Language() language.Tag {
	return p.tag
}

// Render formats the message identified by id with positional args.
func (p *Printer) Render(id string, args ...interface{}) string {
	return p.p.Sprintf(id, args...)
}

// Languages lists the supported language codes.
func Languages() []string {
	var langs []string
	for tag := range dictionaries {
		langs = append(langs, tag.String())
	}
	sort.Strings(langs)
	return langs
}
