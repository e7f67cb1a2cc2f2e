package prospect

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/pipeline"
)

// AnalyzeOptions tunes one enrichment run.
type AnalyzeOptions struct {
	Language string
	// ReAudit discards the cached audit report and audits the website again.
	// A failed re-audit keeps the previous report.
	ReAudit bool
}

// Analyze enriches one lead: audit when needed, deep analysis, first draft.
// Stage failures are not errors: the lead is saved with the stage defaults
// and the failures are reported in the Enrichment. The returned error is set
// only when the lead could not be run or saved.
func (s *Service) Analyze(ctx context.Context, leadID string, opts AnalyzeOptions) (model.Lead, pipeline.Enrichment, error) {
	release, err := s.ws.Acquire(leadID)
	if err != nil {
		return model.Lead{}, pipeline.Enrichment{}, err
	}
	defer release()

	lead, projectID, err := s.ws.ActiveLead(leadID)
	if err != nil {
		return model.Lead{}, pipeline.Enrichment{}, err
	}

	previous := lead.AuditReport
	if opts.ReAudit {
		lead.AuditReport = nil
	}

	out, res := s.stages.Enrich(ctx, lead, s.businessContext(), opts.Language)
	if opts.ReAudit && out.AuditReport == nil {
		out.AuditReport = previous
	}

	if err := ctx.Err(); err != nil {
		return lead, res, eris.Wrapf(err, "prospect: analyze %s", leadID)
	}
	if err := s.ws.UpdateLead(ctx, projectID, out); err != nil {
		return lead, res, err
	}
	return out, res, nil
}

// LeadResult is the outcome of one lead in a batch.
type LeadResult struct {
	LeadID     string
	Lead       model.Lead
	Enrichment pipeline.Enrichment
	Err        error
}

// AnalyzeAll enriches every active lead, or only those still new when
// onlyNew is set, with bounded concurrency. Leads busy with another stage
// are skipped and reported. Results follow the workspace order.
func (s *Service) AnalyzeAll(ctx context.Context, onlyNew bool, opts AnalyzeOptions) ([]LeadResult, error) {
	var ids []string
	for _, l := range s.ws.Leads() {
		if onlyNew && l.Status != model.LeadStatusNew {
			continue
		}
		ids = append(ids, l.ID)
	}

	results := make([]LeadResult, len(ids))
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			lead, res, err := s.Analyze(ctx, id, opts)
			results[i] = LeadResult{LeadID: id, Lead: lead, Enrichment: res, Err: err}
			if err != nil && !errors.Is(err, context.Canceled) {
				zap.L().Warn("prospect: lead not analyzed", zap.String("lead_id", id), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, eris.Wrap(ctx.Err(), "prospect: analyze all")
}

// ReAudit re-runs the website audit for a lead and replaces its report
// wholesale. On failure the lead keeps its previous report.
func (s *Service) ReAudit(ctx context.Context, leadID, lang string) (model.Lead, error) {
	release, err := s.ws.Acquire(leadID)
	if err != nil {
		return model.Lead{}, err
	}
	defer release()

	lead, projectID, err := s.ws.ActiveLead(leadID)
	if err != nil {
		return model.Lead{}, err
	}
	if lead.Website == "" {
		return lead, eris.Wrapf(ErrNoWebsite, "prospect: lead %s", leadID)
	}

	out := s.stages.Audit(ctx, lead.Website, lang)
	if !out.OK() {
		return lead, out.Err
	}
	report := out.Value
	lead.AuditReport = &report
	if err := s.ws.UpdateLead(ctx, projectID, lead); err != nil {
		return model.Lead{}, err
	}
	return lead, nil
}
