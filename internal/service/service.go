// Package service wires the retriever and the answer synthesizer behind lazily loaded
// handles and serves query, stats and health requests.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/pustaka/internal/config"
	"github.com/hyperjump/pustaka/internal/embedding"
	"github.com/hyperjump/pustaka/internal/generation"
	"github.com/hyperjump/pustaka/internal/llm"
	"github.com/hyperjump/pustaka/internal/models"
	"github.com/hyperjump/pustaka/internal/retrieval"
	"github.com/hyperjump/pustaka/internal/storage"
	"github.com/hyperjump/pustaka/internal/vector"
)

// Component names reported in InitializationError.
const (
	ComponentRetriever   = "retriever"
	ComponentSynthesizer = "synthesizer"
)

// Corpus is the read-only retrieval state shared by all requests once loaded.
type Corpus struct {
	Store     storage.ChunkStore
	Embedder  embedding.Embedder
	Index     vector.VectorIndex
	Retriever *retrieval.Retriever
}

// Close releases the embedder and the index.
func (c *Corpus) Close() error {
	var errs []error
	if c.Embedder != nil {
		errs = append(errs, c.Embedder.Close())
	}
	if c.Index != nil {
		errs = append(errs, c.Index.Close())
	}
	return errors.Join(errs...)
}

// Generator is the loaded completion backend and the synthesizer that uses it.
type Generator struct {
	Completion  llm.Completion
	Synthesizer *generation.Synthesizer
}

// CorpusLoader loads the retrieval state.
type CorpusLoader func(ctx context.Context) (*Corpus, error)

// CompletionLoader connects to the completion backend.
type CompletionLoader func(ctx context.Context) (llm.Completion, error)

// HealthStatus is the outcome of a health check.
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Service answers queries. It owns the lazy handles; nothing else holds global state.
type Service struct {
	cfg       *config.Config
	logger    *zap.Logger
	lang      generation.Language
	corpus    *Lazy[*Corpus]
	generator *Lazy[*Generator]
	loadCorp  CorpusLoader
	loadComp  CompletionLoader
}

// Option configures a Service.
type Option func(*Service)

// WithCorpusLoader replaces the config-driven corpus loader.
func WithCorpusLoader(l CorpusLoader) Option {
	return func(s *Service) { s.loadCorp = l }
}

// WithCompletionLoader replaces the config-driven completion loader.
func WithCompletionLoader(l CompletionLoader) Option {
	return func(s *Service) { s.loadComp = l }
}

// New creates a service. Nothing is loaded until the first request needs it.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	lang, err := generation.ParseLanguage(cfg.LLM.Language)
	if err != nil {
		lang = generation.English
	}
	s := &Service{cfg: cfg, logger: logger, lang: lang}
	s.loadCorp = s.loadCorpusFromConfig
	s.loadComp = func(ctx context.Context) (llm.Completion, error) {
		return llm.NewCompletion(ctx, cfg.LLM)
	}
	for _, opt := range opts {
		opt(s)
	}

	s.corpus = NewLazy(func(ctx context.Context) (*Corpus, error) {
		start := time.Now()
		c, err := s.loadCorp(ctx)
		if err != nil {
			s.logger.Error("retriever initialization failed", zap.Error(err))
			return nil, &models.InitializationError{Component: ComponentRetriever, Err: err}
		}
		s.logger.Info("retriever initialized",
			zap.Int("chunks", c.Store.Len()),
			zap.Int("vectors", c.Index.Size()),
			zap.String("metric", string(c.Index.Metric())),
			zap.Duration("elapsed", time.Since(start)))
		return c, nil
	})
	s.generator = NewLazy(func(ctx context.Context) (*Generator, error) {
		comp, err := s.loadComp(ctx)
		if err == nil {
			err = ping(ctx, comp)
		}
		if err != nil {
			s.logger.Error("synthesizer initialization failed", zap.Error(err))
			return nil, &models.InitializationError{Component: ComponentSynthesizer, Err: err}
		}
		synth := generation.NewSynthesizer(comp,
			llm.Options{Temperature: cfg.LLM.Temperature, MaxOutputTokens: cfg.LLM.MaxTokens},
			generation.WithLanguage(s.lang),
			generation.WithLogger(s.logger))
		s.logger.Info("synthesizer initialized", zap.String("model", comp.Model()))
		return &Generator{Completion: comp, Synthesizer: synth}, nil
	})
	return s
}

func ping(ctx context.Context, c llm.Completion) error {
	if p, ok := c.(llm.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// loadCorpusFromConfig opens the chunk database, the embedder and the vector index and
// checks that they describe the same corpus.
func (s *Service) loadCorpusFromConfig(ctx context.Context) (*Corpus, error) {
	store, err := storage.OpenChunkStore(ctx, s.cfg.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}
	metric, err := vector.ParseMetric(s.cfg.Vector.Metric)
	if err != nil {
		return nil, err
	}
	index, err := vector.NewVectorIndex(s.cfg.Vector.IndexType, s.cfg.Embedding.Dimensions, metric)
	if err != nil {
		return nil, err
	}
	if err := index.Load(s.cfg.Storage.VectorIndexPath); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("load vector index: %w", err)
	}
	emb, err := embedding.NewEmbedder(ctx, s.cfg.Embedding)
	if err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	corpus := &Corpus{Store: store, Embedder: emb, Index: index}
	if err := CheckParity(corpus); err != nil {
		_ = corpus.Close()
		return nil, err
	}
	corpus.Retriever = retrieval.NewRetriever(store, emb, index, retrieval.WithLogger(s.logger))
	return corpus, nil
}

// CheckParity fails when the chunk store and the vector index disagree on row count, or the
// embedder and the index disagree on dimension.
func CheckParity(c *Corpus) error {
	if c.Store.Len() != c.Index.Size() {
		return fmt.Errorf("chunk store has %d chunks but vector index has %d vectors; rebuild with prepare",
			c.Store.Len(), c.Index.Size())
	}
	if c.Embedder.Dimensions() != c.Index.Dimensions() {
		return fmt.Errorf("embedder produces %d dimensions but vector index expects %d",
			c.Embedder.Dimensions(), c.Index.Dimensions())
	}
	return nil
}

// Query validates req, ranks chunks and, when asked, synthesizes an answer. Validation
// failures wrap models.ErrInvalidArgument; a retriever that cannot load is a
// *models.InitializationError; ranking failures are *models.RetrievalError. A synthesizer
// that cannot load degrades the answer instead of failing the request.
func (s *Service) Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	start := time.Now()
	if err := req.Validate(s.cfg.Retrieval.DefaultTopK, s.cfg.Retrieval.MaxTopK); err != nil {
		return nil, err
	}
	corpus, err := s.corpus.Get(ctx)
	if err != nil {
		return nil, err
	}
	results, err := corpus.Retriever.Search(ctx, req.Query, req.Limit())
	if err != nil {
		s.logger.Error("search failed", zap.String("query", req.Query), zap.Error(err))
		return nil, err
	}

	resp := &models.QueryResponse{
		QueryID:    uuid.New().String(),
		Query:      req.Query,
		NumResults: len(results),
		Results:    results,
	}
	if req.GenerateAnswer {
		resp.AnswerPackage = s.answer(ctx, req.Query, results)
	}
	resp.QueryTime = time.Since(start).Milliseconds()

	s.logger.Info("query served",
		zap.String("query_id", resp.QueryID),
		zap.Int("top_k", req.Limit()),
		zap.Int("results", resp.NumResults),
		zap.Bool("answer", req.GenerateAnswer),
		zap.Int64("query_time_ms", resp.QueryTime))
	return resp, nil
}

func (s *Service) answer(ctx context.Context, query string, results []models.ScoredChunk) *models.AnswerPackage {
	gen, err := s.generator.Get(ctx)
	if err != nil {
		cited, additional := generation.Partition(results, s.cfg.Retrieval.MaxContextChunks)
		pkg := &models.AnswerPackage{Cited: cited, Additional: additional, Model: s.cfg.LLM.Model}
		return generation.Degraded(pkg, err, s.lang)
	}
	return gen.Synthesizer.Generate(ctx, query, results, s.cfg.Retrieval.MaxContextChunks)
}

// Stats loads the corpus if needed and describes it.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	corpus, err := s.corpus.Get(ctx)
	if err != nil {
		return nil, err
	}
	stats := &models.Stats{
		TotalChunks:         corpus.Store.Len(),
		TotalDocuments:      corpus.Store.DocumentCount(),
		IndexVectors:        corpus.Index.Size(),
		EmbeddingDimensions: corpus.Index.Dimensions(),
		Metric:              string(corpus.Index.Metric()),
		IndexType:           corpus.Index.Type(),
	}
	if n, err := storage.DiskUsageBytes(storage.CorpusFiles(s.cfg.Storage.DatabasePath, s.cfg.Storage.VectorIndexPath)...); err == nil {
		stats.DiskUsageBytes = &n
	} else {
		s.logger.Warn("disk usage unavailable", zap.Error(err))
	}
	return stats, nil
}

// Health loads both capabilities. It is healthy only when retrieval and generation are ready.
func (s *Service) Health(ctx context.Context) HealthStatus {
	if _, err := s.corpus.Get(ctx); err != nil {
		return HealthStatus{Status: "unhealthy", Message: err.Error()}
	}
	if _, err := s.generator.Get(ctx); err != nil {
		return HealthStatus{Status: "unhealthy", Message: err.Error()}
	}
	return HealthStatus{Healthy: true, Status: "healthy"}
}

// Close releases the corpus resources if they were loaded.
func (s *Service) Close() error {
	if c, ok := s.corpus.Peek(); ok {
		return c.Close()
	}
	return nil
}
