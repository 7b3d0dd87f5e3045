package generation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/pustaka/internal/llm"
	"github.com/hyperjump/pustaka/internal/models"
)

// Synthesizer turns ranked chunks into a cited answer through a Completion backend.
// It is stateless per call and safe for concurrent use.
type Synthesizer struct {
	completion llm.Completion
	options    llm.Options
	lang       Language
	logger     *zap.Logger
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithLogger sets a logger for generation timings and failures.
func WithLogger(l *zap.Logger) SynthesizerOption {
	return func(s *Synthesizer) { s.logger = l }
}

// WithLanguage sets the prompt and apology language. Unknown values fall back to English.
func WithLanguage(lang Language) SynthesizerOption {
	return func(s *Synthesizer) { s.lang = lang }
}

// NewSynthesizer creates a synthesizer that calls completion with fixed decoding options.
func NewSynthesizer(completion llm.Completion, opts llm.Options, options ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		completion: completion,
		options:    opts,
		lang:       English,
		logger:     zap.NewNop(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Generate answers query from the first maxContext results. It never returns an error:
// a completion failure, or a panic inside the backend, yields a degraded package carrying
// the apology text and the cause, with ChunksUsed 0. The partition is returned either way.
func (s *Synthesizer) Generate(ctx context.Context, query string, results []models.ScoredChunk, maxContext int) (pkg *models.AnswerPackage) {
	cited, additional := Partition(results, maxContext)
	pkg = &models.AnswerPackage{
		Cited:      cited,
		Additional: additional,
	}
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("completion panicked: %v", r)
			s.logger.Error("answer generation panicked", zap.String("model", pkg.Model), zap.Error(err))
			pkg = Degraded(pkg, err, s.lang)
		}
	}()
	pkg.Model = s.completion.Model()

	prompt := BuildPrompt(query, Render(cited, s.lang), s.lang)
	start := time.Now()
	answer, err := s.completion.Complete(ctx, prompt, s.options)
	if err != nil {
		s.logger.Warn("answer generation failed", zap.String("model", pkg.Model), zap.Error(err))
		return Degraded(pkg, err, s.lang)
	}
	s.logger.Debug("answer generated",
		zap.String("model", pkg.Model),
		zap.Int("chunks_used", len(cited)),
		zap.Duration("elapsed", time.Since(start)))

	pkg.Answer = answer
	pkg.ChunksUsed = len(cited)
	return pkg
}

// Degraded marks pkg as failed by err: apology text, no chunks used, cause recorded.
func Degraded(pkg *models.AnswerPackage, err error, lang Language) *models.AnswerPackage {
	pkg.Answer = Apology(err, lang)
	pkg.ChunksUsed = 0
	pkg.ErrorDetail = err.Error()
	pkg.Cause = err
	return pkg
}
