package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/ai"
	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/outreach"
	"github.com/sells-group/prospect-cli/internal/pipeline"
	"github.com/sells-group/prospect-cli/internal/prospect"
	"github.com/sells-group/prospect-cli/internal/store"
	"github.com/sells-group/prospect-cli/internal/workspace"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var now = time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)

const (
	discoveryText = "1. Atelier Martin, 12 rue de la Paix, Lyon. Website atelier-martin.fr"
	leadsJSON     = `{"leads":[{"name":"Atelier Martin","address":"12 rue de la Paix, Lyon","rating":4.5,"website":"https://atelier-martin.fr","phone":"","businessType":"Carpenter","notes":""}]}`
	auditJSON     = `{"seoScore":40,"designScore":55,"mobileScore":30,"criticalIssues":["No meta description"],"positivePoints":["Fast"],"summary":"Dated site."}`
	analysisJSON  = `{"leadScore":82,"fitReasoning":"Weak site.","keyPainPoints":["Few bookings"],"techStack":["WordPress"],"verificationStatus":"Verified Active","decisionMaker":"Claire Martin","contactEmail":"contact@atelier-martin.fr"}`
	draftText     = "Bonjour Claire,\nVotre site mérite mieux."
)

// scriptedGenerator answers every call of a stage with the same reply.
// Unscripted stages fail.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies map[string]string
}

func (g *scriptedGenerator) on(stage, text string) *scriptedGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies[stage] = text
	return g
}

func (g *scriptedGenerator) Generate(_ context.Context, req ai.Request) (*ai.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	text, ok := g.replies[req.Stage]
	if !ok {
		return nil, fmt.Errorf("backend unavailable for %s", req.Stage)
	}
	return &ai.Response{Text: text}, nil
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Deliver(ctx context.Context, credential string, msg outreach.Message) (outreach.Receipt, error) {
	args := m.Called(ctx, credential, msg)
	return args.Get(0).(outreach.Receipt), args.Error(1)
}

type fixture struct {
	gen    *scriptedGenerator
	ws     *workspace.Workspace
	mailer *mockMailer
	srv    *Server
	h      http.Handler
}

type fixtureOpts struct {
	cfg          config.ServerConfig
	noDispatcher bool
}

func newFixture(t *testing.T, fo fixtureOpts) *fixture {
	t.Helper()
	var mu sync.Mutex
	n := 0
	ids := func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}

	gen := &scriptedGenerator{replies: make(map[string]string)}
	stages := pipeline.New(gen, pipeline.Config{
		FastModel:      "fast",
		ReasoningModel: "reasoning",
		WritingModel:   "writing",
		Language:       "fr",
		StageTimeout:   5 * time.Second,
	}, pipeline.WithClock(func() time.Time { return now }), pipeline.WithIDs(ids))

	ws, err := workspace.Open(context.Background(), store.NewMemory(), workspace.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	mailer := &mockMailer{}
	opts := []prospect.Option{
		prospect.WithClock(func() time.Time { return now }),
		prospect.WithIDs(ids),
	}
	if !fo.noDispatcher {
		opts = append(opts, prospect.WithDispatcher(outreach.NewDispatcher(mailer, ws)))
	}
	svc := prospect.New(stages, ws, opts...)

	srv := NewServer(svc, fo.cfg, WithLanguage("fr"))
	return &fixture{gen: gen, ws: ws, mailer: mailer, srv: srv, h: srv.Handler()}
}

func (f *fixture) seed(t *testing.T, leads ...model.Lead) model.Project {
	t.Helper()
	p, err := f.ws.CreateProject(context.Background(), "Test", leads)
	require.NoError(t, err)
	return p
}

func (f *fixture) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) doRaw(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func draftedLead(id string) model.Lead {
	return model.Lead{
		ID:             id,
		Name:           "Atelier Martin",
		Website:        "https://atelier-martin.fr",
		Status:         model.LeadStatusAnalyzed,
		DeepAnalysis:   &model.DeepAnalysis{LeadScore: 82, ContactEmail: "contact@atelier-martin.fr"},
		GeneratedEmail: draftText,
		EmailRefinementHistory: []model.Message{
			{ID: model.InitMessageID, Role: model.RoleModel, Text: draftText, Timestamp: now},
		},
	}
}
