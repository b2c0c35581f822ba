package codegen

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lhaig/bf2asm/internal/backend"
	"github.com/lhaig/bf2asm/internal/diagnostic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// placeholder returns a backend whose templates are easy to recognize.
func placeholder() *backend.Template {
	return &backend.Template{
		PtrInit:       "PTR",
		IncPtr:        "RIGHT",
		DecPtr:        "LEFT",
		IncVal:        "INC",
		DecVal:        "DEC",
		Output:        "OUT",
		Input:         "IN",
		Exit:          "EXIT",
		Header:        "HEADER",
		LoopTest:      "TEST",
		BranchZero:    "JZ {label}",
		BranchNonZero: "JNZ {label}",
		Comment:       ";",
	}
}

func lines(s ...string) string {
	return strings.Join(s, "\n") + "\n"
}

func TestGenerate_SimpleLoop(t *testing.T) {
	got, err := Generate("++++[-]", placeholder())
	require.NoError(t, err)

	want := lines(
		"    INC",
		"    INC",
		"    INC",
		"    INC",
		"loop_start_0:",
		"    TEST",
		"    JZ loop_end_0",
		"    DEC",
		"    TEST",
		"    JNZ loop_start_0",
		"loop_end_0:",
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected output (-want +got):\n%s", diff)
	}
}

func TestGenerate_Operators(t *testing.T) {
	got, err := Generate("><+-.,", placeholder())
	require.NoError(t, err)
	assert.Equal(t, lines("    RIGHT", "    LEFT", "    INC", "    DEC", "    OUT", "    IN"), got)
}

func TestGenerate_Comment(t *testing.T) {
	got, err := Generate("#hello\n+", placeholder())
	require.NoError(t, err)
	assert.Equal(t, lines("    ;hello", "    INC"), got)
}

func TestGenerate_CommentBracketsIgnored(t *testing.T) {
	got, err := Generate("# [loop] here\n[-]", placeholder())
	require.NoError(t, err)
	assert.Contains(t, got, "loop_start_0:")
	assert.NotContains(t, got, "loop_start_1")
}

func TestGenerate_SkipsOtherCharacters(t *testing.T) {
	a, err := Generate("+ +\n\tx[-]", placeholder())
	require.NoError(t, err)
	b, err := Generate("++[-]", placeholder())
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestGenerate_MultiLineTemplatesIndented(t *testing.T) {
	tmpl := placeholder()
	tmpl.Output = "A\nB"
	tmpl.LoopTest = "LOAD\nCMP"

	got, err := Generate(".[]", tmpl)
	require.NoError(t, err)
	for _, line := range strings.Split(strings.TrimSuffix(got, "\n"), "\n") {
		if strings.HasPrefix(line, "loop_") {
			continue
		}
		assert.True(t, strings.HasPrefix(line, Indent), "line %q not indented", line)
	}
	assert.Contains(t, got, "    A\n    B\n")
	assert.Contains(t, got, "    LOAD\n    CMP\n    JZ loop_end_0\n")
}

func TestGenerate_NestedLabelsUnique(t *testing.T) {
	src := "+[>+[>+[-]<-]<-]>[-]"
	got, err := Generate(src, placeholder())
	require.NoError(t, err)

	opens := strings.Count(src, "[")
	for id := 0; id < opens; id++ {
		start := NewLoopContext(id)
		assert.Equal(t, 1, strings.Count(got, start.Start+":\n"), "definition of %s", start.Start)
		assert.Equal(t, 1, strings.Count(got, "JNZ "+start.Start+"\n"), "branch to %s", start.Start)
		assert.Equal(t, 1, strings.Count(got, start.End+":\n"), "definition of %s", start.End)
		assert.Equal(t, 1, strings.Count(got, "JZ "+start.End+"\n"), "branch to %s", start.End)
	}
	assert.NotContains(t, got, NewLoopContext(opens).Start)

	// the innermost loop closes first
	inner := strings.Index(got, "loop_end_2:")
	outer := strings.Index(got, "loop_end_0:")
	assert.Less(t, inner, outer)
}

func TestGenerate_UnmatchedClose(t *testing.T) {
	_, err := Generate("+]", placeholder())
	require.Error(t, err)
	assert.True(t, diagnostic.IsKind(err, diagnostic.SyntaxError))
}

func TestGenerate_Idempotent(t *testing.T) {
	src := "++[>+++[>++<-]<-]>>.#done\n"
	a, err := Generate(src, placeholder())
	require.NoError(t, err)
	b, err := Generate(src, placeholder())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerate_RealBackends(t *testing.T) {
	r := backend.Default()
	for _, key := range r.Keys() {
		t.Run(key.String(), func(t *testing.T) {
			tmpl, err := r.Lookup(key.Arch, key.Platform)
			require.NoError(t, err)
			got, err := Generate("[-]", tmpl)
			require.NoError(t, err)
			assert.NotContains(t, got, backend.LabelPlaceholder)
			assert.Contains(t, got, "loop_end_0\n")
		})
	}
}

func TestBranchWithRepeatedPlaceholder(t *testing.T) {
	tmpl := placeholder()
	tmpl.BranchZero = "JZ {label} ; to {label}"

	got, err := Generate("[]", tmpl)
	require.NoError(t, err)
	assert.Contains(t, got, "    JZ loop_end_0 ; to loop_end_0\n")
}

func TestPrologueEpilogue(t *testing.T) {
	tmpl := placeholder()
	tmpl.Exit = "MOV\nSYSCALL"
	assert.Equal(t, "HEADER\n    PTR\n", Prologue(tmpl))
	assert.Equal(t, "    MOV\n    SYSCALL\n", Epilogue(tmpl))
}
