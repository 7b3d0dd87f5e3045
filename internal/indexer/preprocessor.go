package indexer

import (
	"strings"
	"unicode"
)

// CleanChunkText normalizes chunk text exported from theses before it is embedded and stored.
// Words hyphenated across a line break are rejoined and invisible format or control runes
// are dropped. Whitespace runs collapse to one space.
func CleanChunkText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	runes := []rune(text)
	pendingSpace := false
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '-' && i > 0 && unicode.IsLetter(runes[i-1]) {
			if j := skipLineBreak(runes, i+1); j > i+1 && j < len(runes) && unicode.IsLower(runes[j]) {
				i = j - 1
				continue
			}
		}
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
			continue
		case r == '\u00ad', unicode.Is(unicode.Cf, r), unicode.IsControl(r):
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// skipLineBreak returns the index after horizontal space, one newline and any indentation
// starting at i, or i when there is no newline.
func skipLineBreak(runes []rune, i int) int {
	j := i
	for j < len(runes) && (runes[j] == ' ' || runes[j] == '\t' || runes[j] == '\r') {
		j++
	}
	if j >= len(runes) || runes[j] != '\n' {
		return i
	}
	j++
	for j < len(runes) && (runes[j] == ' ' || runes[j] == '\t') {
		j++
	}
	return j
}
