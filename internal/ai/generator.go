// Package ai is the boundary to the generative backend: a provider-neutral
// request shape, the retry envelope every call goes through, and structured
// extraction against a JSON schema.
package ai

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/pkg/anthropic"
)

// Turn is one conversational turn sent to the backend.
type Turn struct {
	Role model.Role
	Text string
}

// UserTurn is shorthand for a single user turn.
func UserTurn(text string) Turn {
	return Turn{Role: model.RoleUser, Text: text}
}

// Request is a single completion request.
type Request struct {
	Model       string
	System      string
	CacheSystem bool
	Turns       []Turn
	MaxTokens   int64
	Temperature *float64

	// Stage names the pipeline stage for logging and cost attribution.
	Stage string
}

// Response is the text reply of a completion.
type Response struct {
	Text  string
	Usage anthropic.TokenUsage
}

// Generator produces one completion.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// AnthropicGenerator implements Generator on the Anthropic Messages API.
type AnthropicGenerator struct {
	client    anthropic.Client
	maxTokens int64
}

// NewAnthropicGenerator wraps client. maxTokens applies when a request sets none.
func NewAnthropicGenerator(client anthropic.Client, maxTokens int64) *AnthropicGenerator {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicGenerator{client: client, maxTokens: maxTokens}
}

// Generate sends req and returns the joined text of the reply.
func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	msgs := toMessages(req.Turns)
	if len(msgs) == 0 {
		return nil, eris.New("ai: request has no user content")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = g.maxTokens
	}

	mr := anthropic.MessageRequest{
		Model:       req.Model,
		MaxTokens:   maxTokens,
		Messages:    msgs,
		Temperature: req.Temperature,
	}
	if req.System != "" {
		if req.CacheSystem {
			mr.System = anthropic.BuildCachedSystemBlocks(req.System, "5m")
		} else {
			mr.System = []anthropic.SystemBlock{{Text: req.System}}
		}
	}

	resp, err := g.client.CreateMessage(ctx, mr)
	if err != nil {
		return nil, eris.Wrapf(err, "ai: generate %s", req.Stage)
	}
	resp.Usage.LogCost(req.Model, req.Stage)

	return &Response{Text: resp.Text(), Usage: resp.Usage}, nil
}

// toMessages maps turns to Messages API roles, drops blank turns, merges
// consecutive turns of the same role and skips leading assistant turns.
func toMessages(turns []Turn) []anthropic.Message {
	var out []anthropic.Message
	for _, t := range turns {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		role := "user"
		if t.Role == model.RoleModel {
			role = "assistant"
		}
		if len(out) == 0 && role == "assistant" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content += "\n\n" + text
			continue
		}
		out = append(out, anthropic.Message{Role: role, Content: text})
	}
	return out
}
