package checker

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/lhaig/bf2asm/internal/diagnostic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireUnmatched(t *testing.T, err error, bracket string) *diagnostic.Diagnostic {
	t.Helper()
	require.Error(t, err)
	d, ok := diagnostic.As(err)
	require.True(t, ok, "expected a diagnostic, got %T", err)
	assert.Equal(t, diagnostic.SyntaxError, d.Kind)
	require.NotEmpty(t, d.Args)
	assert.Equal(t, bracket, d.Args[0])
	return d
}

func TestCheck_Balanced(t *testing.T) {
	tests := []string{
		"",
		"+-<>.,",
		"[]",
		"[[]][]",
		"++++[>++++[>+<-]<-]>>.",
		"# a comment with ] and [ in it\n+[-]",
		"not brainfuck at all",
		"#]",
		"[# ]\n]",
	}
	for _, src := range tests {
		assert.NoError(t, Check(src), "source %q", src)
	}
}

func TestCheck_LoneOpen(t *testing.T) {
	d := requireUnmatched(t, Check("["), "'['")
	assert.Equal(t, 1, d.Line)
	assert.Equal(t, 1, d.Column)
}

func TestCheck_LoneClose(t *testing.T) {
	d := requireUnmatched(t, Check("]"), "']'")
	assert.Equal(t, 1, d.Line)
	assert.Equal(t, 1, d.Column)
}

func TestCheck_CloseReportedAtFirstOccurrence(t *testing.T) {
	d := requireUnmatched(t, Check("+[]\n ]]["), "']'")
	assert.Equal(t, 2, d.Line)
	assert.Equal(t, 2, d.Column)
}

func TestCheck_InnermostUnclosedOpen(t *testing.T) {
	d := requireUnmatched(t, Check("[[]\n  [+"), "'['")
	assert.Equal(t, 2, d.Line)
	assert.Equal(t, 3, d.Column)
}

func TestCheck_ErrorMessage(t *testing.T) {
	err := Check("+]")
	require.Error(t, err)
	assert.Equal(t, "syntax error: unmatched ']' at line 1, column 2", err.Error())
}

// randomBalanced builds a random balanced bracket program.
func randomBalanced(r *rand.Rand, n int) string {
	var sb strings.Builder
	depth := 0
	ops := "+-<>.,"
	for i := 0; i < n; i++ {
		switch r.Intn(4) {
		case 0:
			sb.WriteByte('[')
			depth++
		case 1:
			if depth > 0 {
				sb.WriteByte(']')
				depth--
			}
		default:
			sb.WriteByte(ops[r.Intn(len(ops))])
		}
	}
	sb.WriteString(strings.Repeat("]", depth))
	return sb.String()
}

func TestCheck_RandomPrograms(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		src := randomBalanced(r, 1+r.Intn(80))
		require.NoError(t, Check(src), "balanced source %q", src)

		requireUnmatched(t, Check("]"+src), "']'")
		requireUnmatched(t, Check(src+"["), "'['")
		requireUnmatched(t, Check("["+src), "'['")
	}
}
