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
	"github.com/sells-group/prospect-cli/pkg/perplexity"
)

const maxResearchChars = 4000

// DefaultDeepAnalysis is returned when deep analysis fails.
func DefaultDeepAnalysis() model.DeepAnalysis {
	return model.DeepAnalysis{
		FitReasoning:       "Analysis failed.",
		KeyPainPoints:      []string{},
		TechStack:          []string{},
		VerificationStatus: model.VerificationUncertain,
	}
}

// Analysis is the result of Analyze.
type Analysis struct {
	// Audit is set when the website had to be audited first.
	Audit *Outcome[model.AuditReport]
	Deep  Outcome[model.DeepAnalysis]
}

// Analyze scores a lead's fit against the sender's business. A lead with a
// website and no audit report is audited first, exactly once. The returned
// lead carries the new audit report (when one succeeded) and the analysis,
// which is the safe default on failure.
func (s *Stages) Analyze(ctx context.Context, lead model.Lead, businessContext, lang string) (model.Lead, Analysis) {
	out := lead.Clone()
	var res Analysis

	if out.Website != "" && out.AuditReport == nil {
		audit := s.Audit(ctx, out.Website, lang)
		res.Audit = &audit
		if audit.OK() {
			report := audit.Value
			out.AuditReport = &report
		}
	}

	res.Deep = s.deepAnalysis(ctx, out, businessContext, lang)
	deep := res.Deep.Value
	out.DeepAnalysis = &deep
	return out, res
}

func (s *Stages) deepAnalysis(ctx context.Context, lead model.Lead, businessContext, lang string) Outcome[model.DeepAnalysis] {
	ctx, cancel := s.stageContext(ctx)
	defer cancel()

	log := zap.L().With(zap.String("lead_id", lead.ID), zap.String("lead", lead.Name))
	lang = s.language(lang)

	website := lead.Website
	if website == "" {
		website = "no website"
	}
	prompt := fmt.Sprintf(analysisPrompt, lead.Name, website, lead.Address, lead.BusinessType,
		businessContext, ai.LanguageName(lang))
	if lead.AuditReport != nil {
		if b, err := json.Marshal(lead.AuditReport); err == nil {
			prompt += fmt.Sprintf(analysisAuditSection, b)
		}
	}
	if notes := s.researchLead(ctx, lead); notes != "" {
		prompt += fmt.Sprintf(analysisResearchSection, notes)
	}

	deep, err := ai.Extract(ctx, s.gen, ai.Request{
		Model:       s.cfg.ReasoningModel,
		System:      analysisSystem,
		CacheSystem: true,
		Turns:       []ai.Turn{ai.UserTurn(prompt)},
		Stage:       StageAnalysis,
	}, analysisSchema, DefaultDeepAnalysis())
	if err != nil {
		log.Warn("pipeline: deep analysis failed, using default", zap.Error(err))
		return defaulted(DefaultDeepAnalysis(), eris.Wrap(err, "pipeline: deep analysis"))
	}

	if deep.KeyPainPoints == nil {
		deep.KeyPainPoints = []string{}
	}
	if deep.TechStack == nil {
		deep.TechStack = []string{}
	}
	deep.ContactEmail = strings.TrimSpace(deep.ContactEmail)
	log.Info("pipeline: deep analysis complete", zap.Int("lead_score", deep.LeadScore))
	return succeeded(deep)
}

// researchLead asks Perplexity for public facts about the lead. It is best
// effort and returns "" when research is not configured or fails.
func (s *Stages) researchLead(ctx context.Context, lead model.Lead) string {
	if s.research == nil {
		return ""
	}
	resp, err := s.research.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages:            perplexity.UserMessage(fmt.Sprintf(researchPrompt, lead.Name, lead.Address, lead.Website)),
		SearchRecencyFilter: perplexity.RecencyYear,
	})
	if err != nil {
		zap.L().Warn("pipeline: lead research failed", zap.String("lead_id", lead.ID), zap.Error(err))
		return ""
	}
	return truncateRunes(resp.Text(), maxResearchChars)
}
