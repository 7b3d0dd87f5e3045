// Package main is the Pustaka CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/pustaka/internal/cli"
	"github.com/hyperjump/pustaka/internal/config"
	"github.com/hyperjump/pustaka/internal/indexer"
	"github.com/hyperjump/pustaka/internal/models"
	"github.com/hyperjump/pustaka/internal/server"
	"github.com/hyperjump/pustaka/internal/service"
	"github.com/hyperjump/pustaka/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/pustaka/config.yaml"
	defaultServerURL  = "http://localhost:5000"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// API keys may live in a .env file next to the config; a missing file is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "prepare":
		runPrepare()
	case "stats":
		runStats()
	case "version", "--version", "-v":
		fmt.Printf("pustaka version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (per-stage retrieval timings, prompts)")
	warm := fs.Bool("warm", false, "load the retriever and the synthesizer before accepting requests")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("metric", cfg.Vector.Metric),
	)

	svc := service.New(cfg, logger)
	defer svc.Close()

	if *warm {
		status := svc.Health(context.Background())
		if !status.Healthy {
			logger.Warn("warm-up incomplete", zap.String("message", status.Message))
		}
	}

	srv := server.NewServer(svc, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: pustaka search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  pustaka search dampak banjir rob
  pustaka search "dampak banjir rob"              # same as above
  pustaka search --answer --top-k 10 kualitas air sungai
  pustaka search --server "" --output json banjir  # direct mode, no server
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = load the corpus in this process)")
	topK := fs.Int("top-k", 0, "number of results (0 = server default)")
	answer := fs.Bool("answer", false, "generate an answer from the top results")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one result per line), or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}

	req := &models.QueryRequest{Query: queryStr, GenerateAnswer: *answer}
	if *topK != 0 {
		req.TopK = topK
	}

	var response *models.QueryResponse
	if *serverURL != "" {
		response, err = searchViaHTTP(*serverURL, req)
	} else {
		response, err = searchDirect(*configPath, req)
	}
	if err != nil {
		fatalf("Search failed: %v", err)
	}
	if err := cli.WriteQueryResults(os.Stdout, response, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func searchDirect(configPath string, req *models.QueryRequest) (*models.QueryResponse, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := cliLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()
	svc := service.New(cfg, logger)
	defer svc.Close()
	return svc.Query(context.Background(), req)
}

func searchViaHTTP(serverURL string, req *models.QueryRequest) (*models.QueryResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/api/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var response models.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

// checkStatus turns a non-200 response into an error carrying the server's message.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	b, _ := io.ReadAll(resp.Body)
	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read the corpus directly)")
	outputFormat := fs.String("output", "text", "output format: text, compact or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}

	var stats *models.Stats
	if *serverURL != "" {
		stats, err = statsViaHTTP(*serverURL)
	} else {
		stats, err = statsDirect(*configPath)
	}
	if err != nil {
		fatalf("Stats failed: %v", err)
	}
	if err := cli.WriteStats(os.Stdout, stats, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func statsDirect(configPath string) (*models.Stats, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := cliLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()
	svc := service.New(cfg, logger)
	defer svc.Close()
	return svc.Stats(context.Background())
}

func statsViaHTTP(serverURL string) (*models.Stats, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/stats")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var s models.Stats
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func runPrepare() {
	fs := flag.NewFlagSet("prepare", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	source := fs.String("source", "", "source file (overrides source.path)")
	format := fs.String("format", "", "source format: csv, xlsx or sql (overrides source.format)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	applyPrepareOverrides(cfg, *source, *format)

	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("config loaded", zap.String("config_path", resolvedConfigPath))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := indexer.Prepare(ctx, cfg, logger)
	if err != nil {
		logger.Error("prepare failed", zap.Error(err))
		os.Exit(1)
	}
	fmt.Printf("Prepared %d chunks from %d documents (%d dims, %s) in %s\n",
		report.Chunks, report.Documents, report.Dimensions, report.Metric, report.Elapsed.Round(time.Millisecond))
	fmt.Printf("  chunks: %s\n  index:  %s\n", cfg.Storage.DatabasePath, cfg.Storage.VectorIndexPath)
}

// applyPrepareOverrides applies command-line source overrides. A source path with a known
// extension implies its format when no format is given.
func applyPrepareOverrides(cfg *config.Config, source, format string) {
	if source != "" {
		abs, err := filepath.Abs(source)
		if err == nil {
			source = abs
		}
		cfg.Source.Path = source
		if format == "" {
			switch strings.ToLower(filepath.Ext(source)) {
			case ".csv":
				format = "csv"
			case ".xlsx":
				format = "xlsx"
			}
		}
	}
	if format != "" {
		cfg.Source.Format = format
	}
}

// cliLogger keeps stdout clean for piping; debug mode logs everything to stderr.
func cliLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return utils.NewLogger(true)
	}
	return utils.NewQuietLogger()
}

func printUsage() {
	fmt.Println(`pustaka - Retrieval and answer generation over a thesis and paper corpus

Usage:
  pustaka server [flags]           Start the HTTP server
  pustaka search [flags] <query>   Search the corpus, optionally with a generated answer
  pustaka prepare [flags]          Embed the chunk source and build the index
  pustaka stats [flags]            Show corpus and index statistics
  pustaka version                  Show version
  pustaka help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/pustaka/config.yaml, or ./config.yaml if present)
  --debug            Enable debug logging
  --warm             Load the retriever and the synthesizer before serving

Search Flags:
  --config string    Config file path (direct mode)
  --server string    Server URL (default: http://localhost:5000). Use --server "" to search without a server.
  --top-k int        Number of results (default from config)
  --answer           Generate an answer with citations
  --output string    Output format: text, compact or json (default: text)

Prepare Flags:
  --config string    Config file path
  --source string    Source file (overrides source.path)
  --format string    Source format: csv, xlsx or sql (overrides source.format)

Stats Flags:
  --config string    Config file path (direct mode)
  --server string    Server URL (default: http://localhost:5000). Use --server "" for direct mode.
  --output string    Output format: text, compact or json (default: text)

Environment:
  API keys are read from the variables named by embedding.api_key_env and llm.api_key_env.
  A .env file in the working directory is loaded first.

Examples:
  pustaka prepare --source data_chunk.csv
  pustaka server
  pustaka search "dampak banjir rob di pesisir"
  pustaka search --answer --top-k 10 kualitas air sungai
  pustaka search --output json "query"   # structured JSON for other apps
  pustaka stats --output json`)
}
