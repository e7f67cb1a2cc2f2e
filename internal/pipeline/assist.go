package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/ai"
	"github.com/sells-group/prospect-cli/internal/model"
)

// AssistFallback is the assistant reply when the backend fails.
const AssistFallback = "System overloaded. Try again."

// AssistRequest is one assistant chat turn.
type AssistRequest struct {
	History        []model.Message
	Message        string
	FileContents   []string
	Language       string
	ContextSummary string
}

// Assist answers a free-form strategy question. Attached file contents are
// appended to the message.
func (s *Stages) Assist(ctx context.Context, req AssistRequest) Outcome[string] {
	ctx, cancel := s.stageContext(ctx)
	defer cancel()

	prompt := req.Message
	if len(req.FileContents) > 0 {
		prompt += "\n\n[Attached File Contents]:\n" + strings.Join(req.FileContents, "\n---\n")
	}

	turns := make([]ai.Turn, 0, len(req.History)+1)
	for _, m := range req.History {
		turns = append(turns, ai.Turn{Role: m.Role, Text: m.Text})
	}
	turns = append(turns, ai.UserTurn(prompt))

	lang := s.language(req.Language)
	resp, err := s.gen.Generate(ctx, ai.Request{
		Model:  s.cfg.ReasoningModel,
		System: fmt.Sprintf(assistSystem, ai.LanguageName(lang), req.ContextSummary),
		Turns:  turns,
		Stage:  StageAssist,
	})
	if err != nil {
		zap.L().Warn("pipeline: assistant failed", zap.Error(err))
		return defaulted(AssistFallback, eris.Wrap(err, "pipeline: assist"))
	}
	if strings.TrimSpace(resp.Text) == "" {
		return defaulted(AssistFallback, eris.New("pipeline: assistant reply is empty"))
	}
	return succeeded(resp.Text)
}
