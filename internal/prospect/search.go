package prospect

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/pipeline"
)

// DiscoverInput is a lead search.
type DiscoverInput struct {
	Sector     string
	Location   string
	Strategy   string
	HiringOnly bool
	Language   string
}

// SearchResult is what a search committed. Project is nil when nothing was
// found and nothing was committed.
type SearchResult struct {
	Leads   []model.Lead
	Project *model.Project
}

// Discover searches for leads and commits them: into the active project
// when there is one, otherwise into a new project. An empty result is
// reported without touching the workspace.
func (s *Service) Discover(ctx context.Context, in DiscoverInput) (SearchResult, error) {
	if in.Sector == "" || in.Location == "" {
		return SearchResult{}, ErrSearchTerms
	}

	out := s.stages.Discover(ctx, pipeline.DiscoveryRequest{
		Sector:          in.Sector,
		Location:        in.Location,
		Language:        in.Language,
		StrategyContext: pipeline.StrategyContext(in.Strategy, in.HiringOnly, s.businessContext()),
	})
	if !out.OK() {
		return SearchResult{Leads: out.Value}, out.Err
	}
	if len(out.Value) == 0 {
		zap.L().Info("prospect: discovery found no leads",
			zap.String("sector", in.Sector),
			zap.String("location", in.Location),
		)
		return SearchResult{Leads: out.Value}, nil
	}
	return s.commit(ctx, out.Value)
}

// Audit audits a website and commits it as a single lead named after its
// host.
func (s *Service) Audit(ctx context.Context, rawURL, lang string) (SearchResult, error) {
	siteURL, err := pipeline.NormalizeURL(rawURL)
	if err != nil {
		return SearchResult{}, err
	}

	out := s.stages.Audit(ctx, siteURL, lang)
	if !out.OK() {
		return SearchResult{}, out.Err
	}

	report := out.Value
	lead := model.Lead{
		ID:          "audit-" + s.newID(),
		Name:        pipeline.HostName(siteURL),
		Address:     "Web Prospect",
		Website:     siteURL,
		Status:      model.LeadStatusNew,
		AuditReport: &report,
		Notes:       report.Summary,
	}
	return s.commit(ctx, []model.Lead{lead})
}

func (s *Service) commit(ctx context.Context, leads []model.Lead) (SearchResult, error) {
	p, err := s.ws.CommitLeads(ctx, leads)
	if err != nil {
		return SearchResult{Leads: leads}, err
	}
	return SearchResult{Leads: leads, Project: &p}, nil
}
