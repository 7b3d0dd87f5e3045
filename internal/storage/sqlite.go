package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/pustaka/internal/models"
)

// SQLiteStorage persists the prepared chunk table. The prepare command writes it once;
// serving reads it whole into a MemoryChunkStore.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		position INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		year TEXT NOT NULL,
		url TEXT NOT NULL,
		section TEXT NOT NULL,
		text TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_title ON chunks(title);
	`
	_, err := db.Exec(schema)
	return err
}

// ReplaceChunks deletes all stored chunks and inserts chunks in one transaction.
func (s *SQLiteStorage) ReplaceChunks(ctx context.Context, chunks []models.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (position, title, author, year, url, section, text)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.Position, c.Title, c.Author, c.Year, c.URL, c.Section, c.Text); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Position, err)
		}
	}
	return tx.Commit()
}

// LoadChunks returns all chunks ordered by position.
func (s *SQLiteStorage) LoadChunks(ctx context.Context) ([]models.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, title, author, year, url, section, text FROM chunks ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.Position, &c.Title, &c.Author, &c.Year, &c.URL, &c.Section, &c.Text); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// CountDocuments returns the number of distinct titles.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT title) FROM chunks`).Scan(&count)
	return count, err
}

// CountChunks returns the total number of chunks.
func (s *SQLiteStorage) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// OpenChunkStore reads the prepared chunk table at dbPath into memory.
// A missing database is an error; run the prepare command first.
func OpenChunkStore(ctx context.Context, dbPath string) (*MemoryChunkStore, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("chunk database %s: %w", dbPath, err)
	}
	s, err := NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	chunks, err := s.LoadChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	return NewMemoryChunkStore(chunks)
}
