package storage

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lib/pq"
	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/pustaka/internal/config"
	"github.com/hyperjump/pustaka/internal/models"
)

// Header aliases accepted for each chunk field. The Indonesian names match the corpus
// exports the system was first built for (judul, tahun, chunk_text).
var columnAliases = map[string][]string{
	"title":   {"title", "judul"},
	"author":  {"author", "authors", "penulis"},
	"year":    {"year", "tahun"},
	"url":     {"url", "link"},
	"section": {"section", "bagian"},
	"text":    {"text", "chunk_text", "content", "isi"},
}

// LoadSource reads the tabular corpus named by cfg. Chunks are positioned by row order
// and have metadata defaults applied.
func LoadSource(ctx context.Context, cfg config.SourceConfig) ([]models.Chunk, error) {
	switch cfg.Format {
	case "csv", "":
		return LoadCSV(cfg.Path)
	case "xlsx":
		return LoadXLSX(cfg.Path, cfg.Sheet)
	case "sql":
		return LoadSQL(ctx, cfg.Driver, cfg.DSN, cfg.Table)
	default:
		return nil, fmt.Errorf("unknown source format: %s (supported: csv, xlsx, sql)", cfg.Format)
	}
}

// LoadCSV reads chunks from a CSV file with a header row.
func LoadCSV(path string) ([]models.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("CSV %s is empty", path)
		}
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	return rowsToChunks(header, records)
}

// LoadXLSX reads chunks from a worksheet; an empty sheet name selects the first sheet.
func LoadXLSX(path, sheet string) ([]models.Chunk, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}
	return rowsToChunks(rows[0], rows[1:])
}

// LoadSQL reads chunks from a database table through database/sql. The postgres (lib/pq)
// and sqlite3 drivers are registered. Rows are read in the order the database returns them;
// prepare persists that order, so positions are stable afterwards.
func LoadSQL(ctx context.Context, driver, dsn, table string) ([]models.Chunk, error) {
	if table == "" {
		return nil, fmt.Errorf("source table is required")
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+pq.QuoteIdentifier(table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var records [][]string
	for rows.Next() {
		values := make([]sql.NullString, len(header))
		dest := make([]any, len(header))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		record := make([]string, len(header))
		for i, v := range values {
			record[i] = v.String
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rowsToChunks(header, records)
}

func rowsToChunks(header []string, records [][]string) ([]models.Chunk, error) {
	cols := resolveColumns(header)
	if _, ok := cols["text"]; !ok {
		return nil, fmt.Errorf("no text column found (expected one of %s)", strings.Join(columnAliases["text"], ", "))
	}

	chunks := make([]models.Chunk, len(records))
	for i, rec := range records {
		field := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}
		chunks[i] = models.Chunk{
			Position: i,
			Title:    field("title"),
			Author:   field("author"),
			Year:     field("year"),
			URL:      field("url"),
			Section:  field("section"),
			Text:     field("text"),
		}
		chunks[i].ApplyDefaults()
	}
	return chunks, nil
}

// resolveColumns maps field names to header indexes. The first matching column wins.
func resolveColumns(header []string) map[string]int {
	cols := make(map[string]int)
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for field, aliases := range columnAliases {
			if _, seen := cols[field]; seen {
				continue
			}
			for _, a := range aliases {
				if name == a {
					cols[field] = i
				}
			}
		}
	}
	return cols
}
