package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/ai"
	"github.com/sells-group/prospect-cli/internal/model"
)

// Draft writes the first outreach email for a lead. On failure the value is
// the empty string, which callers must not seed as a draft.
func (s *Stages) Draft(ctx context.Context, businessContext string, lead model.Lead, lang string) Outcome[string] {
	ctx, cancel := s.stageContext(ctx)
	defer cancel()

	analysis := "{}"
	if lead.DeepAnalysis != nil {
		if b, err := json.Marshal(lead.DeepAnalysis); err == nil {
			analysis = string(b)
		}
	}
	lang = s.language(lang)
	prompt := fmt.Sprintf(draftPrompt, businessContext, lead.Name, lead.BusinessType, analysis, ai.LanguageName(lang))

	resp, err := s.gen.Generate(ctx, ai.Request{
		Model:       s.cfg.WritingModel,
		System:      draftSystem,
		CacheSystem: true,
		Turns:       []ai.Turn{ai.UserTurn(prompt)},
		Stage:       StageDraft,
	})
	if err != nil {
		zap.L().Warn("pipeline: email draft failed", zap.String("lead_id", lead.ID), zap.Error(err))
		return defaulted("", eris.Wrap(err, "pipeline: email draft"))
	}

	draft := strings.TrimSpace(resp.Text)
	if draft == "" {
		return defaulted("", eris.New("pipeline: email draft is empty"))
	}
	return succeeded(draft)
}

// Refine rewrites the lead's current draft following instruction. Earlier
// refinement rounds are replayed as conversation; the init entry is not.
// On success the returned lead has the new draft and two more history
// entries, the instruction and the new draft. On failure the lead is
// returned unchanged and the value is the current draft.
func (s *Stages) Refine(ctx context.Context, lead model.Lead, instruction, businessContext string) (model.Lead, Outcome[string]) {
	out := lead.Clone()
	current := out.GeneratedEmail

	ctx, cancel := s.stageContext(ctx)
	defer cancel()

	turns := make([]ai.Turn, 0, len(out.EmailRefinementHistory)+1)
	for _, m := range out.RefinementTurns() {
		turns = append(turns, ai.Turn{Role: m.Role, Text: m.Text})
	}
	turns = append(turns, ai.UserTurn(fmt.Sprintf(refinePrompt, current, instruction, businessContext, out.Name)))

	resp, err := s.gen.Generate(ctx, ai.Request{
		Model:       s.cfg.ReasoningModel,
		System:      refineSystem,
		CacheSystem: true,
		Turns:       turns,
		Stage:       StageRefine,
	})
	if err != nil {
		zap.L().Warn("pipeline: email refine failed", zap.String("lead_id", out.ID), zap.Error(err))
		return out, defaulted(current, eris.Wrap(err, "pipeline: email refine"))
	}
	revised := strings.TrimSpace(resp.Text)
	if revised == "" {
		return out, defaulted(current, eris.New("pipeline: email refine reply is empty"))
	}

	at := s.now()
	out.EmailRefinementHistory = append(out.EmailRefinementHistory,
		model.Message{ID: s.newID(), Role: model.RoleUser, Text: instruction, Timestamp: at},
		model.Message{ID: s.newID(), Role: model.RoleModel, Text: revised, Timestamp: at},
	)
	out.GeneratedEmail = revised
	return out, succeeded(revised)
}
