package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/pustaka/internal/config"
	"github.com/hyperjump/pustaka/internal/models"
)

func TestSearchArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"dampak banjir", "-top-k", "5"},
			expected: []string{"-top-k", "5", "dampak banjir"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-top-k", "5", "dampak banjir"},
			expected: []string{"-top-k", "5", "dampak banjir"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"dampak banjir"},
			expected: []string{"dampak banjir"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"kualitas", "air", "-answer"},
			expected: []string{"-answer", "kualitas", "air"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := searchArgsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("searchArgsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"banjir"}, "banjir"},
		{"multiple words", []string{"banjir", "rob"}, "banjir rob"},
		{"single quoted phrase", []string{"banjir rob"}, "banjir rob"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSearchQuery(tt.args)
			if got != tt.expected {
				t.Errorf("buildSearchQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "./chunks.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolvedCanon, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func TestApplyPrepareOverrides(t *testing.T) {
	cfg := &config.Config{Source: config.SourceConfig{Format: "sql", DSN: "postgres://x"}}
	applyPrepareOverrides(cfg, "", "")
	if cfg.Source.Format != "sql" {
		t.Errorf("no overrides should keep format, got %s", cfg.Source.Format)
	}

	applyPrepareOverrides(cfg, "data/skripsi.xlsx", "")
	if cfg.Source.Format != "xlsx" || !filepath.IsAbs(cfg.Source.Path) {
		t.Errorf("xlsx source: %+v", cfg.Source)
	}

	applyPrepareOverrides(cfg, "chunks.txt", "csv")
	if cfg.Source.Format != "csv" || !strings.HasSuffix(cfg.Source.Path, "chunks.txt") {
		t.Errorf("explicit format: %+v", cfg.Source)
	}
}

func TestSearchViaHTTP(t *testing.T) {
	var got models.QueryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/search" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		if got.Query == "gagal" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"retriever initialization failed: no index"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(models.QueryResponse{Query: got.Query, NumResults: 0, Results: []models.ScoredChunk{}})
	}))
	defer srv.Close()

	k := 7
	resp, err := searchViaHTTP(srv.URL+"/", &models.QueryRequest{Query: "banjir", TopK: &k, GenerateAnswer: true})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Query != "banjir" || got.Limit() != 7 || !got.GenerateAnswer {
		t.Errorf("round trip: resp=%+v req=%+v", resp, got)
	}

	_, err = searchViaHTTP(srv.URL, &models.QueryRequest{Query: "gagal"})
	if err == nil || !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "no index") {
		t.Errorf("expected server error message, got %v", err)
	}
}

func TestStatsViaHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.Stats{TotalChunks: 12, Metric: "l2"})
	}))
	defer srv.Close()

	stats, err := statsViaHTTP(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalChunks != 12 || stats.Metric != "l2" {
		t.Errorf("stats: %+v", stats)
	}
}
