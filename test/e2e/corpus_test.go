package e2e

import (
	"path/filepath"
	"testing"

	"github.com/hyperjump/pustaka/internal/storage"
)

func TestBuildCorpus_Returns100Chunks(t *testing.T) {
	c := BuildCorpus()
	if c.TotalChunks != 100 || len(c.Chunks) != 100 {
		t.Errorf("expected 100 chunks, got %d", c.TotalChunks)
	}
	if c.TotalTheses != 20 {
		t.Errorf("expected 20 theses, got %d", c.TotalTheses)
	}
	for i, ch := range c.Chunks {
		if ch.Position != i {
			t.Fatalf("chunk %d has position %d", i, ch.Position)
		}
	}
}

func TestBuildCorpus_TextsAreUnique(t *testing.T) {
	seen := make(map[string]int)
	for _, ch := range BuildCorpus().Chunks {
		if prev, ok := seen[ch.Text]; ok {
			t.Errorf("chunks %d and %d share text %q", prev, ch.Position, ch.Text)
		}
		seen[ch.Text] = ch.Position
	}
}

func TestCorpus_SourcesRoundTrip(t *testing.T) {
	c := BuildCorpus()
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "data_chunk.csv")
	if err := c.WriteCSV(csvPath); err != nil {
		t.Fatal(err)
	}
	xlsxPath := filepath.Join(dir, "data_chunk.xlsx")
	if err := c.WriteXLSX(xlsxPath); err != nil {
		t.Fatal(err)
	}

	fromCSV, err := storage.LoadCSV(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	fromXLSX, err := storage.LoadXLSX(xlsxPath, "")
	if err != nil {
		t.Fatal(err)
	}
	for name, got := range map[string]int{"csv": len(fromCSV), "xlsx": len(fromXLSX)} {
		if got != c.TotalChunks {
			t.Errorf("%s: loaded %d chunks, want %d", name, got, c.TotalChunks)
		}
	}
	for i, want := range c.Chunks {
		if fromCSV[i] != want {
			t.Errorf("csv chunk %d = %+v, want %+v", i, fromCSV[i], want)
		}
		if fromXLSX[i] != want {
			t.Errorf("xlsx chunk %d = %+v, want %+v", i, fromXLSX[i], want)
		}
	}
}
