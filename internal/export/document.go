package export

import (
	"time"

	"github.com/sells-group/prospect-cli/internal/model"
)

// document is the yaml shape of an exported project. Drafts and refinement
// transcripts are flattened to keep the file readable.
type document struct {
	ID              string         `yaml:"id"`
	Name            string         `yaml:"name"`
	Date            time.Time      `yaml:"date"`
	BusinessContext string         `yaml:"business_context,omitempty"`
	Leads           []leadDocument `yaml:"leads"`
}

type leadDocument struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	Address      string  `yaml:"address,omitempty"`
	Website      string  `yaml:"website,omitempty"`
	Phone        string  `yaml:"phone,omitempty"`
	BusinessType string  `yaml:"business_type,omitempty"`
	Rating       float64 `yaml:"rating,omitempty"`
	Status       string  `yaml:"status"`
	Notes        string  `yaml:"notes,omitempty"`

	Audit    *auditDocument    `yaml:"audit,omitempty"`
	Analysis *analysisDocument `yaml:"analysis,omitempty"`

	Email       string     `yaml:"email,omitempty"`
	Refinements int        `yaml:"refinements,omitempty"`
	SentAt      *time.Time `yaml:"sent_at,omitempty"`
	ThreadID    string     `yaml:"thread_id,omitempty"`
	Compliance  string     `yaml:"compliance,omitempty"`
}

type auditDocument struct {
	SEO            int      `yaml:"seo"`
	Design         int      `yaml:"design"`
	Mobile         int      `yaml:"mobile"`
	CriticalIssues []string `yaml:"critical_issues,omitempty"`
	PositivePoints []string `yaml:"positive_points,omitempty"`
	Summary        string   `yaml:"summary,omitempty"`
}

type analysisDocument struct {
	Score         int      `yaml:"score"`
	Reasoning     string   `yaml:"reasoning,omitempty"`
	PainPoints    []string `yaml:"pain_points,omitempty"`
	TechStack     []string `yaml:"tech_stack,omitempty"`
	DecisionMaker string   `yaml:"decision_maker,omitempty"`
	Verification  string   `yaml:"verification,omitempty"`
	ContactEmail  string   `yaml:"contact_email,omitempty"`
}

func toDocument(p model.Project) document {
	doc := document{
		ID:              p.ID,
		Name:            p.Name,
		Date:            p.Date.UTC(),
		BusinessContext: p.BusinessContext,
		Leads:           make([]leadDocument, 0, len(p.Leads)),
	}
	for _, l := range p.Leads {
		ld := leadDocument{
			ID:           l.ID,
			Name:         l.Name,
			Address:      l.Address,
			Website:      l.Website,
			Phone:        l.Phone,
			BusinessType: l.BusinessType,
			Rating:       l.Rating,
			Status:       string(l.Status),
			Notes:        l.Notes,
			Email:        l.GeneratedEmail,
			Refinements:  l.RefinementRounds(),
			SentAt:       l.LastEmailSentAt,
			ThreadID:     l.GmailThreadID,
			Compliance:   l.ComplianceStatus,
		}
		if a := l.AuditReport; a != nil {
			ld.Audit = &auditDocument{
				SEO:            a.SEOScore,
				Design:         a.DesignScore,
				Mobile:         a.MobileScore,
				CriticalIssues: a.CriticalIssues,
				PositivePoints: a.PositivePoints,
				Summary:        a.Summary,
			}
		}
		if d := l.DeepAnalysis; d != nil {
			ld.Analysis = &analysisDocument{
				Score:         d.LeadScore,
				Reasoning:     d.FitReasoning,
				PainPoints:    d.KeyPainPoints,
				TechStack:     d.TechStack,
				DecisionMaker: d.DecisionMaker,
				Verification:  d.VerificationStatus,
				ContactEmail:  d.ContactEmail,
			}
		}
		doc.Leads = append(doc.Leads, ld)
	}
	return doc
}
