package ai

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/pkg/anthropic"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// --- Anthropic Mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// --- Generator Mock ---

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Response), args.Error(1)
}

// scriptedGenerator returns queued results in order and records requests.
type scriptedGenerator struct {
	results []scripted
	calls   []Request
}

type scripted struct {
	text string
	err  error
}

func (g *scriptedGenerator) Generate(_ context.Context, req Request) (*Response, error) {
	g.calls = append(g.calls, req)
	if len(g.results) == 0 {
		return &Response{}, nil
	}
	r := g.results[0]
	g.results = g.results[1:]
	if r.err != nil {
		return nil, r.err
	}
	return &Response{Text: r.text}, nil
}
