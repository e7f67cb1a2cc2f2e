package prospect

import (
	"context"
	"slices"
	"strings"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/pipeline"
)

// AssistInput is one assistant turn.
type AssistInput struct {
	History  []model.Message
	Message  string
	Files    []string
	Language string

	// UpdateContext replaces the business description with the transcript
	// after the reply, so later stages see the conversation.
	UpdateContext bool
}

// AssistResult is the assistant reply and the transcript including it.
type AssistResult struct {
	Reply      pipeline.Outcome[string]
	Transcript []model.Message
}

// Assist answers a strategy question with the business description as
// context. A failed reply still yields the fallback text in the transcript.
func (s *Service) Assist(ctx context.Context, in AssistInput) (AssistResult, error) {
	reply := s.stages.Assist(ctx, pipeline.AssistRequest{
		History:        in.History,
		Message:        in.Message,
		FileContents:   in.Files,
		Language:       in.Language,
		ContextSummary: s.businessContext(),
	})

	userText := in.Message
	if len(in.Files) > 0 {
		userText += "\n\n" + strings.Join(in.Files, "\n\n")
	}
	at := s.now()
	transcript := append(slices.Clone(in.History),
		model.Message{ID: s.newID(), Role: model.RoleUser, Text: userText, Timestamp: at},
		model.Message{ID: s.newID(), Role: model.RoleModel, Text: reply.Value, Timestamp: at},
	)

	res := AssistResult{Reply: reply, Transcript: transcript}
	if in.UpdateContext {
		if err := s.ws.SetBusinessContext(ctx, Transcript(transcript)); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Transcript flattens a conversation into "ROLE: text" blocks separated by
// "\n---\n".
func Transcript(msgs []model.Message) string {
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = strings.ToUpper(string(m.Role)) + ": " + m.Text
	}
	return strings.Join(parts, "\n---\n")
}
