package backend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/lhaig/bf2asm/internal/diagnostic"
	"github.com/lhaig/bf2asm/internal/messages"
)

// Template keys as they appear in external definition documents.
const (
	KeyPtrInit       = "ptr_init"
	KeyIncPtr        = "inc_ptr"
	KeyDecPtr        = "dec_ptr"
	KeyIncVal        = "inc_val"
	KeyDecVal        = "dec_val"
	KeyOutput        = "output"
	KeyInput         = "input"
	KeyExit          = "exit"
	KeyHeader        = "header"
	KeyLoopTest      = "loop_test"
	KeyBranchZero    = "branch_zero"
	KeyBranchNonZero = "branch_nonzero"
	KeyComment       = "comment"

	// legacy spelling of loop_test
	keyCmpByteForLoop = "cmp_byte_for_loop"
)

// RequiredKeys lists the templates every backend definition must provide.
var RequiredKeys = []string{
	KeyPtrInit, KeyIncPtr, KeyDecPtr, KeyIncVal, KeyDecVal,
	KeyOutput, KeyInput, KeyExit, KeyHeader,
}

// LabelPlaceholder is replaced by a label name in branch templates.
const LabelPlaceholder = "{label}"

// Key identifies a backend by architecture and platform.
type Key struct {
	Arch     string
	Platform string
}

// NewKey returns a key with the architecture alias resolved and the
// platform lower-cased.
func NewKey(arch, platform string) Key {
	return Key{Arch: NormalizeArch(arch), Platform: strings.ToLower(strings.TrimSpace(platform))}
}

// String returns the key as "arch/platform"
func (k Key) String() string {
	return k.Arch + "/" + k.Platform
}

// NormalizeArch maps common architecture aliases onto one spelling
func NormalizeArch(arch string) string {
	a := strings.ToLower(strings.TrimSpace(arch))
	switch a {
	case "x86_64", "amd64", "x86-64", "x64":
		return "x86_64"
	case "arm64", "aarch64":
		return "arm64"
	case "riscv64", "riscv", "rv64":
		return "riscv64"
	default:
		return a
	}
}

// Template is the set of instruction templates for one target. A Template is
// never modified after it has been registered.
type Template struct {
	PtrInit       string
	IncPtr        string
	DecPtr        string
	IncVal        string
	DecVal        string
	Output        string
	Input         string
	Exit          string
	Header        string
	LoopTest      string // sets the condition flags from the current cell
	BranchZero    string // jump to {label} when the cell is zero
	BranchNonZero string // jump to {label} when the cell is not zero
	Comment       string // line comment prefix
}

// fallback holds the per-architecture defaults for optional templates.
type fallback struct {
	loopTest      string
	branchZero    string
	branchNonZero string
	comment       string
}

var x86Fallback = fallback{
	loopTest:      "cmp byte [rsi], 0",
	branchZero:    "je {label}",
	branchNonZero: "jne {label}",
	comment:       ";",
}

var fallbacks = map[string]fallback{
	"x86_64": x86Fallback,
	"arm64": {
		loopTest:      "ldrb w0, [x19]\ncmp w0, #0",
		branchZero:    "b.eq {label}",
		branchNonZero: "b.ne {label}",
		comment:       "//",
	},
	"riscv64": {
		loopTest:      "lbu t0, 0(s1)",
		branchZero:    "beqz t0, {label}",
		branchNonZero: "bnez t0, {label}",
		comment:       "#",
	},
}

func fallbackFor(arch string) fallback {
	if fb, ok := fallbacks[arch]; ok {
		return fb
	}
	return x86Fallback
}

// withFallbacks returns a copy of t with the empty optional templates filled
// in for the given architecture.
func (t Template) withFallbacks(arch string) Template {
	fb := fallbackFor(arch)
	if t.LoopTest == "" {
		t.LoopTest = fb.loopTest
	}
	if t.BranchZero == "" {
		t.BranchZero = fb.branchZero
	}
	if t.BranchNonZero == "" {
		t.BranchNonZero = fb.branchNonZero
	}
	if t.Comment == "" {
		t.Comment = fb.comment
	}
	return t
}

// Fingerprint returns a digest of every template. Generated code cached
// under one fingerprint is only valid for templates with the same one.
func (t *Template) Fingerprint() string {
	h := xxhash.New()
	for _, s := range []string{
		t.PtrInit, t.IncPtr, t.DecPtr, t.IncVal, t.DecVal, t.Output, t.Input,
		t.Exit, t.Header, t.LoopTest, t.BranchZero, t.BranchNonZero, t.Comment,
	} {
		// length-prefixed so that field boundaries are unambiguous
		_, _ = h.WriteString(strconv.Itoa(len(s)))
		_, _ = h.WriteString(":")
		_, _ = h.WriteString(s)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// FromMap builds a template for key from a definition document entry. It
// fails with a configuration error when a required template is missing or
// a supplied branch template has no {label} to jump to.
func FromMap(key Key, def map[string]string) (*Template, error) {
	for _, k := range RequiredKeys {
		if strings.TrimSpace(def[k]) == "" {
			return nil, diagnostic.Configf(messages.BackendMissingTemplate, key.Arch, key.Platform, k)
		}
	}
	for _, k := range []string{KeyBranchZero, KeyBranchNonZero} {
		if v, ok := def[k]; ok && v != "" && !strings.Contains(v, LabelPlaceholder) {
			return nil, diagnostic.Configf(messages.BackendMissingLabel, key.Arch, key.Platform, k, LabelPlaceholder)
		}
	}
	t := Template{
		PtrInit:       def[KeyPtrInit],
		IncPtr:        def[KeyIncPtr],
		DecPtr:        def[KeyDecPtr],
		IncVal:        def[KeyIncVal],
		DecVal:        def[KeyDecVal],
		Output:        def[KeyOutput],
		Input:         def[KeyInput],
		Exit:          def[KeyExit],
		Header:        def[KeyHeader],
		LoopTest:      def[KeyLoopTest],
		BranchZero:    def[KeyBranchZero],
		BranchNonZero: def[KeyBranchNonZero],
		Comment:       def[KeyComment],
	}
	if t.LoopTest == "" {
		t.LoopTest = def[keyCmpByteForLoop]
	}
	t = t.withFallbacks(key.Arch)
	return &t, nil
}
