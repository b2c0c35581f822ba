package compiler

import "unicode/utf8"

// DefaultChunkSize is the number of characters per cache chunk. Larger
// chunks mean fewer lookups; smaller ones are more likely to recur
// verbatim, within one file and across edits of it.
const DefaultChunkSize = 50

// Chunks splits source into consecutive pieces of size characters. A
// boundary that would fall inside a '#' comment is moved to just after the
// newline ending that comment, so no comment is ever split between two
// chunks. Boundaries always fall between whole UTF-8 sequences.
func Chunks(source string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	var chunks []string
	start, n := 0, 0
	inComment := false
	for i := 0; i < len(source); {
		r, w := utf8.DecodeRuneInString(source[i:])
		i += w
		n++

		switch r {
		case '#':
			inComment = true
		case '\n':
			inComment = false
		}

		if n >= size && !inComment {
			chunks = append(chunks, source[start:i])
			start, n = i, 0
		}
	}
	if start < len(source) {
		chunks = append(chunks, source[start:])
	}
	return chunks
}
