package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Enrichment reports what Enrich did to a lead.
type Enrichment struct {
	Analysis
	// Draft is set when a first draft was attempted.
	Draft *Outcome[string]
}

// Err returns the first stage failure, if any.
func (e Enrichment) Err() error {
	if e.Audit != nil && e.Audit.Err != nil {
		return e.Audit.Err
	}
	if e.Deep.Err != nil {
		return e.Deep.Err
	}
	if e.Draft != nil && e.Draft.Err != nil {
		return e.Draft.Err
	}
	return nil
}

// Enrich runs the per-lead flow: audit when needed, deep analysis, then a
// first email draft when the lead has none. The draft is seeded at most once
// per lead; running Enrich again never overwrites it. The lead ends analyzed.
func (s *Stages) Enrich(ctx context.Context, lead model.Lead, businessContext, lang string) (model.Lead, Enrichment) {
	out, analysis := s.Analyze(ctx, lead, businessContext, lang)
	res := Enrichment{Analysis: analysis}

	if !out.HasDraft() {
		draft := s.Draft(ctx, businessContext, out, lang)
		res.Draft = &draft
		if draft.OK() {
			out.SeedDraft(draft.Value, s.now())
		}
	}

	if out.Status == model.LeadStatusNew || out.Status == "" {
		out.Status = model.LeadStatusAnalyzed
	}
	zap.L().Info("pipeline: lead enriched",
		zap.String("lead_id", out.ID),
		zap.Bool("audited", res.Audit != nil),
		zap.Bool("drafted", res.Draft != nil && res.Draft.OK()),
		zap.Error(res.Err()),
	)
	return out, res
}
