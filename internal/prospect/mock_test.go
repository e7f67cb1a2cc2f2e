package prospect

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/ai"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/outreach"
	"github.com/sells-group/prospect-cli/internal/pipeline"
	"github.com/sells-group/prospect-cli/internal/store"
	"github.com/sells-group/prospect-cli/internal/workspace"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var now = time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)

// scriptedGenerator answers every call of a stage with the same reply, or
// fails it. Unscripted stages fail.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	calls   map[string]int
}

func newScriptedGenerator() *scriptedGenerator {
	return &scriptedGenerator{
		replies: make(map[string]string),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (g *scriptedGenerator) on(stage, text string) *scriptedGenerator {
	g.replies[stage] = text
	return g
}

func (g *scriptedGenerator) fail(stage string, err error) *scriptedGenerator {
	g.errs[stage] = err
	return g
}

func (g *scriptedGenerator) Generate(_ context.Context, req ai.Request) (*ai.Response, error) {
	g.mu.Lock()
	g.calls[req.Stage]++
	text, ok := g.replies[req.Stage]
	err := g.errs[req.Stage]
	g.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no reply scripted for stage %s", req.Stage)
	}
	return &ai.Response{Text: text}, nil
}

func (g *scriptedGenerator) count(stage string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[stage]
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Deliver(ctx context.Context, credential string, msg outreach.Message) (outreach.Receipt, error) {
	args := m.Called(ctx, credential, msg)
	return args.Get(0).(outreach.Receipt), args.Error(1)
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

type fixture struct {
	gen *scriptedGenerator
	ws  *workspace.Workspace
	svc *Service
}

// gatedGenerator holds calls of one stage until open is closed. entered
// receives once per held call.
type gatedGenerator struct {
	ai.Generator
	stage   string
	entered chan struct{}
	open    chan struct{}
}

func newGate(next ai.Generator, stage string) *gatedGenerator {
	return &gatedGenerator{Generator: next, stage: stage, entered: make(chan struct{}, 1), open: make(chan struct{})}
}

func (g *gatedGenerator) Generate(ctx context.Context, req ai.Request) (*ai.Response, error) {
	if req.Stage == g.stage {
		g.entered <- struct{}{}
		select {
		case <-g.open:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.Generator.Generate(ctx, req)
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	return newWrappedFixture(t, nil, opts...)
}

// newWrappedFixture builds a fixture whose stages call wrap(gen) instead of
// the scripted generator directly.
func newWrappedFixture(t *testing.T, wrap func(ai.Generator) ai.Generator, opts ...Option) *fixture {
	t.Helper()
	gen := newScriptedGenerator()
	var backend ai.Generator = gen
	if wrap != nil {
		backend = wrap(gen)
	}
	stages := pipeline.New(backend, pipeline.Config{
		FastModel:      "fast",
		ReasoningModel: "reasoning",
		WritingModel:   "writing",
		Language:       "fr",
		StageTimeout:   5 * time.Second,
	}, pipeline.WithClock(func() time.Time { return now }), pipeline.WithIDs(sequentialIDs()))

	ws, err := workspace.Open(context.Background(), store.NewMemory(), workspace.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	opts = append([]Option{WithClock(func() time.Time { return now }), WithIDs(sequentialIDs())}, opts...)
	return &fixture{gen: gen, ws: ws, svc: New(stages, ws, opts...)}
}

func (f *fixture) seed(t *testing.T, leads ...model.Lead) {
	t.Helper()
	_, err := f.ws.CreateProject(context.Background(), "Test", leads)
	require.NoError(t, err)
}

const (
	discoveryText = "1. Atelier Martin, 12 rue de la Paix, Lyon. Website atelier-martin.fr"
	leadsJSON     = `{"leads":[{"name":"Atelier Martin","address":"12 rue de la Paix, Lyon","rating":4.5,"website":"https://atelier-martin.fr","phone":"+33 4 00 00 00 00","businessType":"Carpenter","notes":"Family business"},{"name":"Boulangerie Roche","address":"3 place Bellecour, Lyon","rating":null,"website":"","phone":"","businessType":"Bakery","notes":""}]}`
	auditJSON     = `{"seoScore":40,"designScore":55,"mobileScore":30,"criticalIssues":["No meta description"],"positivePoints":["Fast"],"summary":"Dated site."}`
	analysisJSON  = `{"leadScore":82,"fitReasoning":"Weak site.","keyPainPoints":["Few bookings"],"techStack":["WordPress"],"verificationStatus":"Verified Active","decisionMaker":"Claire Martin","contactEmail":"contact@atelier-martin.fr"}`
	draftText     = "Bonjour Claire,\nVotre site mérite mieux."
)

func newLead(id, website string) model.Lead {
	return model.Lead{ID: id, Name: "Lead " + id, Address: "Lyon", Website: website, Status: model.LeadStatusNew}
}
