// Package generation assembles cited context from ranked chunks and synthesizes answers.
package generation

import (
	"fmt"
	"strings"

	"github.com/hyperjump/pustaka/internal/models"
)

// Partition splits ranked results into the cited prefix sent to the model and the
// remaining additional references. It never reorders; cited followed by additional
// reconstructs results. A negative maxContext cites nothing.
func Partition(results []models.ScoredChunk, maxContext int) (cited, additional []models.ScoredChunk) {
	n := maxContext
	if n < 0 {
		n = 0
	}
	if n > len(results) {
		n = len(results)
	}
	cited = make([]models.ScoredChunk, n)
	copy(cited, results[:n])
	additional = make([]models.ScoredChunk, len(results)-n)
	copy(additional, results[n:])
	return cited, additional
}

// Render formats cited chunks as numbered source blocks, numbered from 1 in list order and
// separated by blank lines. The numbers are the citation markers the model is told to use.
func Render(cited []models.ScoredChunk, lang Language) string {
	t := templatesFor(lang)
	blocks := make([]string, len(cited))
	for i, c := range cited {
		blocks[i] = fmt.Sprintf("[%s %d] %s (%s)\n%s: %s\n%s: %s\n%s",
			t.source, i+1, c.Title, c.Year,
			t.author, c.Author,
			t.section, c.Section,
			c.Text)
	}
	return strings.Join(blocks, "\n\n")
}
