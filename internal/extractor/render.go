package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// render produces the canonical text of an expression node
func render(node *sitter.Node, source []byte) string {
	return Canonical(node.Content(source))
}

// Canonical normalizes the source text of a Python expression so that
// two spellings of the same expression compare equal: comments are
// stripped, runs of whitespace (including backslash continuations)
// collapse to a single space, and simple double-quoted string literals
// are rewritten with single quotes. String contents are never touched.
func Canonical(text string) string {
	var out strings.Builder
	out.Grow(len(text))

	pendingSpace := false
	i := 0
	for i < len(text) {
		c := text[i]

		if c == '#' {
			for i < len(text) && text[i] != '\n' {
				i++
			}
			continue
		}

		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			i++
			if out.Len() > 0 {
				pendingSpace = true
			}
			continue
		}
		if c == '\\' && i+1 < len(text) && (text[i+1] == '\n' || text[i+1] == '\r') {
			i += 2
			if out.Len() > 0 {
				pendingSpace = true
			}
			continue
		}

		if pendingSpace {
			out.WriteByte(' ')
			pendingSpace = false
		}

		if c == '\'' || c == '"' {
			i = writeString(&out, text, i)
			continue
		}

		out.WriteByte(c)
		i++
	}

	return out.String()
}

// writeString copies a string literal starting at its opening quote and
// returns the index just past the closing quote. One-line double-quoted
// literals whose body contains neither a backslash nor a single quote
// are rewritten with single quotes; everything else is copied verbatim.
func writeString(out *strings.Builder, text string, i int) int {
	quote := text[i]
	if i+2 < len(text) && text[i+1] == quote && text[i+2] == quote {
		return writeTripleString(out, text, i)
	}

	j := i + 1
	simple := true
	for j < len(text) {
		c := text[j]
		if c == '\\' {
			simple = false
			if j+2 > len(text) {
				j = len(text)
				break
			}
			j += 2
			continue
		}
		if c == quote || c == '\n' {
			break
		}
		if c == '\'' {
			simple = false
		}
		j++
	}

	if j >= len(text) || text[j] != quote {
		// Unterminated literal; keep what was there.
		out.WriteString(text[i:j])
		return j
	}

	if quote == '"' && simple {
		out.WriteByte('\'')
		out.WriteString(text[i+1 : j])
		out.WriteByte('\'')
	} else {
		out.WriteString(text[i : j+1])
	}
	return j + 1
}

// writeTripleString copies a triple-quoted literal verbatim
func writeTripleString(out *strings.Builder, text string, i int) int {
	quote := text[i]
	j := i + 3
	for j < len(text) {
		if text[j] == '\\' {
			j += 2
			continue
		}
		if text[j] == quote && j+2 < len(text) && text[j+1] == quote && text[j+2] == quote {
			j += 3
			out.WriteString(text[i:j])
			return j
		}
		j++
	}
	out.WriteString(text[i:])
	return len(text)
}
