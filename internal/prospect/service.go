// Package prospect is the application layer: it runs pipeline stages against
// the workspace, one stage per lead at a time, and persists every result.
package prospect

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/outreach"
	"github.com/sells-group/prospect-cli/internal/pipeline"
	"github.com/sells-group/prospect-cli/internal/workspace"
)

var (
	ErrNoDraft          = eris.New("prospect: lead has no email draft")
	ErrEmptyInstruction = eris.New("prospect: refinement instruction is empty")
	ErrEmptyEmail       = eris.New("prospect: email text is empty")
	ErrNoWebsite        = eris.New("prospect: lead has no website")
	ErrNoTransport      = eris.New("prospect: no mail transport configured")
	ErrSearchTerms      = eris.New("prospect: sector and location are required")
)

// Service wires the stages, the workspace and the outreach dispatcher.
type Service struct {
	stages     *pipeline.Stages
	ws         *workspace.Workspace
	dispatcher *outreach.Dispatcher

	concurrency int
	now         func() time.Time
	newID       func() string
}

// Option configures a Service.
type Option func(*Service)

// WithDispatcher enables sending.
func WithDispatcher(d *outreach.Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

// WithConcurrency bounds how many leads AnalyzeAll enriches at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClock overrides the time source for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs overrides the id generator for audit leads and messages.
func WithIDs(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// New creates a Service.
func New(stages *pipeline.Stages, ws *workspace.Workspace, opts ...Option) *Service {
	s := &Service{
		stages:      stages,
		ws:          ws,
		concurrency: 3,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Workspace returns the workspace the service writes to.
func (s *Service) Workspace() *workspace.Workspace {
	return s.ws
}

func (s *Service) businessContext() string {
	return s.ws.Session().BusinessDescription
}
