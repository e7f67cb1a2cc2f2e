package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/ai"
	"github.com/sells-group/prospect-cli/pkg/jina"
	"github.com/sells-group/prospect-cli/pkg/perplexity"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// --- Generator fake ---

type reply struct {
	text string
	err  error
}

// stageGenerator answers each stage from its own queue of replies and records
// every request. A stage with an empty queue fails.
type stageGenerator struct {
	mu      sync.Mutex
	replies map[string][]reply
	calls   []ai.Request
}

func newStageGenerator() *stageGenerator {
	return &stageGenerator{replies: make(map[string][]reply)}
}

func (g *stageGenerator) on(stage, text string) *stageGenerator {
	g.replies[stage] = append(g.replies[stage], reply{text: text})
	return g
}

func (g *stageGenerator) fail(stage string, err error) *stageGenerator {
	g.replies[stage] = append(g.replies[stage], reply{err: err})
	return g
}

func (g *stageGenerator) Generate(_ context.Context, req ai.Request) (*ai.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)

	queue := g.replies[req.Stage]
	if len(queue) == 0 {
		return nil, fmt.Errorf("no reply scripted for stage %s", req.Stage)
	}
	r := queue[0]
	g.replies[req.Stage] = queue[1:]
	if r.err != nil {
		return nil, r.err
	}
	return &ai.Response{Text: r.text}, nil
}

func (g *stageGenerator) count(stage string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c.Stage == stage {
			n++
		}
	}
	return n
}

func (g *stageGenerator) last(stage string) ai.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.calls) - 1; i >= 0; i-- {
		if g.calls[i].Stage == stage {
			return g.calls[i]
		}
	}
	return ai.Request{}
}

// --- Jina Mock ---

type mockJinaClient struct {
	mock.Mock
}

func (m *mockJinaClient) Read(ctx context.Context, targetURL string) (*jina.ReadResponse, error) {
	args := m.Called(ctx, targetURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jina.ReadResponse), args.Error(1)
}

// --- Perplexity Mock ---

type mockPerplexityClient struct {
	mock.Mock
}

func (m *mockPerplexityClient) ChatCompletion(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*perplexity.ChatCompletionResponse), args.Error(1)
}

// --- Helpers ---

var fixedNow = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

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

func testConfig() Config {
	return Config{
		FastModel:      "fast",
		ReasoningModel: "reasoning",
		WritingModel:   "writing",
		Language:       "fr",
		StageTimeout:   5 * time.Second,
		AuditPageChars: 40,
		DiscoveryMin:   5,
		DiscoveryMax:   8,
	}
}

func newTestStages(gen ai.Generator, opts ...Option) *Stages {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow }), WithIDs(sequentialIDs())}, opts...)
	return New(gen, testConfig(), opts...)
}

const auditJSON = `{"seoScore":40,"designScore":55,"mobileScore":30,"criticalIssues":["No meta description"],"positivePoints":["Fast"],"summary":"Dated site."}`

const analysisJSON = `{"leadScore":82,"fitReasoning":"Growing team, weak site.","keyPainPoints":["Few online bookings"],"techStack":["WordPress"],"verificationStatus":"Verified Active","decisionMaker":"Claire Martin","contactEmail":" contact@atelier.fr "}`
