// Package pipeline implements the prospect enrichment stages: discovery,
// website audit, deep analysis, email drafting and refinement, plus the
// free-form assistant. Every stage is total: it returns a usable value even
// when the backend fails, and reports the failure next to it.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/prospect-cli/internal/ai"
	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/pkg/google"
	"github.com/sells-group/prospect-cli/pkg/jina"
	"github.com/sells-group/prospect-cli/pkg/perplexity"
)

// Stage names used for logging and cost attribution.
const (
	StageDiscovery        = "discovery"
	StageDiscoveryExtract = "discovery_extract"
	StageAudit            = "audit"
	StageAnalysis         = "analysis"
	StageDraft            = "email_draft"
	StageRefine           = "email_refine"
	StageAssist           = "assist"
)

// Outcome is the result of a stage. Value is always usable: when Err is set
// it holds the stage's safe default.
type Outcome[T any] struct {
	Value T
	Err   error
}

// OK reports whether the stage produced a real result.
func (o Outcome[T]) OK() bool { return o.Err == nil }

func succeeded[T any](v T) Outcome[T] { return Outcome[T]{Value: v} }

func defaulted[T any](def T, err error) Outcome[T] { return Outcome[T]{Value: def, Err: err} }

// Config holds stage settings.
type Config struct {
	// FastModel serves extraction passes, ReasoningModel research and
	// analysis, WritingModel the first email draft.
	FastModel      string
	ReasoningModel string
	WritingModel   string

	Language       string
	StageTimeout   time.Duration
	AuditPageChars int
	DiscoveryMin   int
	DiscoveryMax   int
}

// NewConfig derives stage settings from the application config.
func NewConfig(cfg *config.Config) Config {
	return Config{
		FastModel:      cfg.Anthropic.HaikuModel,
		ReasoningModel: cfg.Anthropic.SonnetModel,
		WritingModel:   cfg.Anthropic.OpusModel,
		Language:       cfg.Pipeline.Language,
		StageTimeout:   cfg.Pipeline.StageTimeout(),
		AuditPageChars: cfg.Pipeline.AuditPageChars,
		DiscoveryMin:   cfg.Pipeline.DiscoveryMin,
		DiscoveryMax:   cfg.Pipeline.DiscoveryMax,
	}
}

// Stages runs pipeline stages against a generator. The generator is expected
// to be an *ai.Invoker so every call goes through the retry envelope.
type Stages struct {
	gen      ai.Generator
	places   google.Client
	reader   jina.Client
	research perplexity.Client
	cfg      Config

	now   func() time.Time
	newID func() string
}

// Option configures Stages.
type Option func(*Stages)

// WithPlaces grounds discovery on Google Places text search.
func WithPlaces(c google.Client) Option {
	return func(s *Stages) { s.places = c }
}

// WithReader grounds website audits on page content fetched by Jina Reader.
func WithReader(c jina.Client) Option {
	return func(s *Stages) { s.reader = c }
}

// WithResearch adds Perplexity web research notes to deep analysis.
func WithResearch(c perplexity.Client) Option {
	return func(s *Stages) { s.research = c }
}

// WithClock overrides the time source used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Stages) { s.now = now }
}

// WithIDs overrides the id generator for leads and messages.
func WithIDs(fn func() string) Option {
	return func(s *Stages) { s.newID = fn }
}

// New creates Stages. Grounding clients are optional.
func New(gen ai.Generator, cfg Config, opts ...Option) *Stages {
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = 120 * time.Second
	}
	if cfg.AuditPageChars <= 0 {
		cfg.AuditPageChars = 12000
	}
	if cfg.DiscoveryMin <= 0 {
		cfg.DiscoveryMin = 5
	}
	if cfg.DiscoveryMax < cfg.DiscoveryMin {
		cfg.DiscoveryMax = cfg.DiscoveryMin + 3
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}

	s := &Stages{
		gen:   gen,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// language returns lang, or the configured default when it is empty.
func (s *Stages) language(lang string) string {
	if lang == "" {
		return s.cfg.Language
	}
	return lang
}

func (s *Stages) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StageTimeout)
}
