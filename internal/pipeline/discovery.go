package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/ai"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/pkg/google"
)

// DiscoveryRequest describes a lead search.
type DiscoveryRequest struct {
	Sector   string
	Location string
	Language string

	// StrategyContext is free text steering the search, usually built
	// with StrategyContext.
	StrategyContext string
}

// StrategyContext combines the user's search strategy, the hiring filter and
// the business context into the text handed to discovery.
func StrategyContext(strategy string, hiringOnly bool, businessContext string) string {
	hiring := "NO"
	if hiringOnly {
		hiring = "YES - PRIORITIZE GROWING COMPANIES"
	}
	return fmt.Sprintf("User Input Strategy: %s\nOnly Companies Hiring: %s\nGlobal Chat Context & Business Info: %s",
		strings.TrimSpace(strategy), hiring, strings.TrimSpace(businessContext))
}

type extractedLead struct {
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	Rating       float64 `json:"rating"`
	Website      string  `json:"website"`
	Phone        string  `json:"phone"`
	BusinessType string  `json:"businessType"`
	Notes        string  `json:"notes"`
}

type extractedLeads struct {
	Leads []extractedLead `json:"leads"`
}

// Discover finds candidate leads in two passes: a free-form search reply,
// then a structured extraction of that reply. An empty list with a nil
// error is a valid result. On failure the value is an empty list.
func (s *Stages) Discover(ctx context.Context, req DiscoveryRequest) Outcome[[]model.Lead] {
	ctx, cancel := s.stageContext(ctx)
	defer cancel()

	log := zap.L().With(zap.String("sector", req.Sector), zap.String("location", req.Location))
	lang := s.language(req.Language)

	prompt := fmt.Sprintf(discoveryPrompt, req.Sector, req.Location, req.StrategyContext,
		s.cfg.DiscoveryMin, s.cfg.DiscoveryMax, ai.LanguageName(lang))

	places := s.searchPlaces(ctx, req, lang)
	if len(places) > 0 {
		prompt += fmt.Sprintf(discoveryGrounding, formatPlaces(places))
	}

	resp, err := s.gen.Generate(ctx, ai.Request{
		Model:  s.cfg.ReasoningModel,
		System: discoverySystem,
		Turns:  []ai.Turn{ai.UserTurn(prompt)},
		Stage:  StageDiscovery,
	})
	if err != nil {
		log.Warn("pipeline: discovery search failed", zap.Error(err))
		return defaulted([]model.Lead{}, eris.Wrap(err, "pipeline: discovery search"))
	}
	if strings.TrimSpace(resp.Text) == "" {
		return succeeded([]model.Lead{})
	}

	extracted, err := ai.Extract(ctx, s.gen, ai.Request{
		Model: s.cfg.FastModel,
		Turns: []ai.Turn{ai.UserTurn(fmt.Sprintf(discoveryExtractPrompt, resp.Text))},
		Stage: StageDiscoveryExtract,
	}, discoverySchema, extractedLeads{})
	if err != nil {
		log.Warn("pipeline: discovery extraction failed", zap.Error(err))
		return defaulted([]model.Lead{}, eris.Wrap(err, "pipeline: discovery extract"))
	}

	leads := s.toLeads(extracted.Leads, places)
	log.Info("pipeline: discovery complete", zap.Int("leads", len(leads)))
	return succeeded(leads)
}

// searchPlaces returns operating businesses from Places, or nil when Places
// is not configured or fails. Grounding is best effort.
func (s *Stages) searchPlaces(ctx context.Context, req DiscoveryRequest, lang string) []google.Place {
	if s.places == nil {
		return nil
	}
	resp, err := s.places.TextSearch(ctx, google.TextSearchRequest{
		TextQuery:      strings.TrimSpace(req.Sector + " in " + req.Location),
		LanguageCode:   lang,
		MaxResultCount: s.cfg.DiscoveryMax * 2,
	})
	if err != nil {
		zap.L().Warn("pipeline: places search failed, continuing ungrounded", zap.Error(err))
		return nil
	}

	var out []google.Place
	for _, p := range resp.Places {
		if p.Operational() && p.DisplayName.Text != "" {
			out = append(out, p)
		}
	}
	return out
}

func formatPlaces(places []google.Place) string {
	var b strings.Builder
	for _, p := range places {
		fmt.Fprintf(&b, "- %s | %s", p.DisplayName.Text, p.FormattedAddress)
		if p.PrimaryTypeDisplayName.Text != "" {
			fmt.Fprintf(&b, " | %s", p.PrimaryTypeDisplayName.Text)
		}
		if p.Rating > 0 {
			fmt.Fprintf(&b, " | rating %.1f", p.Rating)
		}
		if p.WebsiteURI != "" {
			fmt.Fprintf(&b, " | %s", p.WebsiteURI)
		}
		if p.NationalPhoneNumber != "" {
			fmt.Fprintf(&b, " | %s", p.NationalPhoneNumber)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// toLeads assigns ids and status, drops unnamed records and fills gaps from
// the matching Places entry.
func (s *Stages) toLeads(records []extractedLead, places []google.Place) []model.Lead {
	byName := make(map[string]google.Place, len(places))
	for _, p := range places {
		byName[strings.ToLower(strings.TrimSpace(p.DisplayName.Text))] = p
	}

	leads := make([]model.Lead, 0, len(records))
	for _, r := range records {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		lead := model.Lead{
			ID:           s.newID(),
			Name:         name,
			Address:      strings.TrimSpace(r.Address),
			Rating:       r.Rating,
			Website:      strings.TrimSpace(r.Website),
			Phone:        strings.TrimSpace(r.Phone),
			BusinessType: strings.TrimSpace(r.BusinessType),
			Notes:        strings.TrimSpace(r.Notes),
			Status:       model.LeadStatusNew,
		}
		if p, ok := byName[strings.ToLower(name)]; ok {
			fillFromPlace(&lead, p)
		}
		leads = append(leads, lead)
	}
	return leads
}

func fillFromPlace(l *model.Lead, p google.Place) {
	if l.Address == "" {
		l.Address = p.FormattedAddress
	}
	if l.Rating == 0 {
		l.Rating = p.Rating
	}
	if l.Website == "" {
		l.Website = p.WebsiteURI
	}
	if l.Phone == "" {
		l.Phone = p.NationalPhoneNumber
	}
	if l.BusinessType == "" {
		l.BusinessType = p.PrimaryTypeDisplayName.Text
	}
	l.OpeningHours = p.Hours()
}
