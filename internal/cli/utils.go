// Package cli provides output formatting for the Pustaka command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/pustaka/internal/models"
	"github.com/hyperjump/pustaka/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one line per result.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat returns the format named by s. Unknown names are an error.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText, "":
		return OutputText, nil
	case OutputCompact:
		return OutputCompact, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: text, compact, json)", s)
	}
}

const snippetLen = 200

// WriteQueryResults writes a query response to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteQueryResults(w io.Writer, resp *models.QueryResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputCompact:
		writeQueryCompact(w, resp)
		return nil
	default:
		writeQueryText(w, resp)
		return nil
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeQueryText(w io.Writer, resp *models.QueryResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms\n\n", resp.NumResults, resp.QueryTime)
	if resp.AnswerPackage != nil {
		fmt.Fprintln(w, "--- Answer ---")
		fmt.Fprintf(w, "%s\n\n", resp.Answer)
		if resp.ErrorDetail != "" {
			fmt.Fprintf(w, "(generation failed: %s)\n\n", resp.ErrorDetail)
		}
		fmt.Fprintf(w, "Model: %s | Context chunks used: %d\n\n", resp.Model, resp.ChunksUsed)
		if len(resp.Cited) > 0 {
			fmt.Fprintln(w, "--- Cited references ---")
			for i, c := range resp.Cited {
				fmt.Fprintf(w, "[%d] %s (%s), %s\n", i+1, c.Title, c.Year, c.URL)
			}
			fmt.Fprintln(w)
		}
	}
	if len(resp.Results) > 0 {
		fmt.Fprintln(w, "--- Results ---")
		for _, r := range resp.Results {
			writeOneResult(w, r)
		}
	}
}

func writeOneResult(w io.Writer, r models.ScoredChunk) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Similarity: %.4f | Position: %d\n", r.Rank+1, r.Similarity, r.Position)
	fmt.Fprintf(w, "Title: %s (%s)\n", r.Title, r.Year)
	fmt.Fprintf(w, "Author: %s | Section: %s\n", r.Author, r.Section)
	if r.URL != models.DefaultURL {
		fmt.Fprintf(w, "URL: %s\n", r.URL)
	}
	fmt.Fprintf(w, "\n%s\n", utils.Truncate(r.Text, snippetLen))
	fmt.Fprintln(w)
}

func writeQueryCompact(w io.Writer, resp *models.QueryResponse) {
	for _, r := range resp.Results {
		fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\n", r.Rank+1, r.Similarity, r.Title, TruncateWords(r.Text, 12))
	}
	if resp.AnswerPackage != nil {
		fmt.Fprintf(w, "answer\t%s\n", strings.Join(strings.Fields(resp.Answer), " "))
	}
}

// WriteStats writes corpus statistics to w in the given format.
func WriteStats(w io.Writer, stats *models.Stats, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, stats)
	}
	disk := "unknown"
	if stats.DiskUsageBytes != nil {
		disk = FormatBytes(*stats.DiskUsageBytes)
	}
	if format == OutputCompact {
		fmt.Fprintf(w, "chunks=%d documents=%d vectors=%d dims=%d metric=%s index=%s disk=%s\n",
			stats.TotalChunks, stats.TotalDocuments, stats.IndexVectors, stats.EmbeddingDimensions,
			stats.Metric, stats.IndexType, disk)
		return nil
	}
	fmt.Fprintf(w, "Chunks:     %d\n", stats.TotalChunks)
	fmt.Fprintf(w, "Documents:  %d\n", stats.TotalDocuments)
	fmt.Fprintf(w, "Vectors:    %d\n", stats.IndexVectors)
	fmt.Fprintf(w, "Dimensions: %d\n", stats.EmbeddingDimensions)
	fmt.Fprintf(w, "Metric:     %s\n", stats.Metric)
	fmt.Fprintf(w, "Index:      %s\n", stats.IndexType)
	fmt.Fprintf(w, "Disk usage: %s\n", disk)
	return nil
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
