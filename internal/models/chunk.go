// Package models defines core data structures for chunks, queries, and answers.
package models

import "strings"

// Fallback values for chunk metadata missing from the source record.
const (
	DefaultTitle   = "untitled"
	DefaultAuthor  = "unknown"
	DefaultYear    = "N/A"
	DefaultURL     = "#"
	DefaultSection = "unknown"
)

// Chunk is one unit of corpus text with its bibliographic metadata.
// Position is the row index in the chunk store and the label used in the vector index.
type Chunk struct {
	Position int    `json:"position" db:"position"`
	Title    string `json:"title" db:"title"`
	Author   string `json:"author" db:"author"`
	Year     string `json:"year" db:"year"`
	URL      string `json:"url" db:"url"`
	Section  string `json:"section" db:"section"`
	Text     string `json:"text" db:"text"`
}

// ApplyDefaults fills empty metadata fields with their fallback values.
// Called once when chunks are loaded so readers never repeat the fallback logic.
func (c *Chunk) ApplyDefaults() {
	c.Title = orDefault(c.Title, DefaultTitle)
	c.Author = orDefault(c.Author, DefaultAuthor)
	c.Year = orDefault(c.Year, DefaultYear)
	c.URL = orDefault(c.URL, DefaultURL)
	c.Section = orDefault(c.Section, DefaultSection)
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

// ScoredChunk is a chunk ranked for a single query.
// Similarity is bounded, higher is more relevant; Rank is 0-based within the result list.
type ScoredChunk struct {
	Chunk
	Similarity float64 `json:"similarity"`
	Rank       int     `json:"rank"`
}
