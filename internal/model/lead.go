package model

import (
	"slices"
	"time"
)

// LeadStatus is the outreach progress of a lead. Progression is expected to
// move forward only but is not enforced.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusAnalyzed  LeadStatus = "analyzed"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusConverted LeadStatus = "converted"
)

// Verification statuses reported by deep analysis.
const (
	VerificationActive    = "Verified Active"
	VerificationUncertain = "Uncertain"
	VerificationClosed    = "Likely Closed"
)

// Compliance hints recorded at send time.
const (
	ComplianceSafe     = "Safe (B2B)"
	CompliancePersonal = "Warning (Personal Email)"
)

// AuditReport is the structured result of a website audit. Scores are 0-100.
type AuditReport struct {
	SEOScore       int      `json:"seoScore"`
	DesignScore    int      `json:"designScore"`
	MobileScore    int      `json:"mobileScore"`
	CriticalIssues []string `json:"criticalIssues"`
	PositivePoints []string `json:"positivePoints"`
	Summary        string   `json:"summary"`
}

// DeepAnalysis is the structured fit assessment of a lead.
type DeepAnalysis struct {
	LeadScore          int      `json:"leadScore"`
	FitReasoning       string   `json:"fitReasoning"`
	KeyPainPoints      []string `json:"keyPainPoints"`
	TechStack          []string `json:"techStack"`
	DecisionMaker      string   `json:"decisionMaker,omitempty"`
	VerificationStatus string   `json:"verificationStatus,omitempty"`
	ContactEmail       string   `json:"contactEmail,omitempty"`
}

// Lead is a prospect tracked from discovery through outreach.
type Lead struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Address      string     `json:"address"`
	Rating       float64    `json:"rating,omitempty"`
	Website      string     `json:"website,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	BusinessType string     `json:"businessType,omitempty"`
	OpeningHours string     `json:"openingHours,omitempty"`
	Status       LeadStatus `json:"status"`
	Notes        string     `json:"notes,omitempty"`

	AuditReport  *AuditReport  `json:"auditReport,omitempty"`
	DeepAnalysis *DeepAnalysis `json:"deepAnalysis,omitempty"`

	GeneratedEmail         string    `json:"generatedEmail,omitempty"`
	EmailRefinementHistory []Message `json:"emailRefinementHistory,omitempty"`

	GmailMessageID   string     `json:"gmailMessageId,omitempty"`
	GmailThreadID    string     `json:"gmailThreadId,omitempty"`
	LastEmailSentAt  *time.Time `json:"lastEmailSentAt,omitempty"`
	ComplianceStatus string     `json:"complianceStatus,omitempty"`
}

// HasDraft reports whether an email draft has been seeded.
func (l *Lead) HasDraft() bool {
	return l.GeneratedEmail != ""
}

// SeedDraft sets the first draft and starts the refinement history with a
// single init entry. It is a no-op returning false when a draft exists.
func (l *Lead) SeedDraft(draft string, at time.Time) bool {
	if l.HasDraft() || draft == "" {
		return false
	}
	l.GeneratedEmail = draft
	l.EmailRefinementHistory = []Message{{
		ID:        InitMessageID,
		Role:      RoleModel,
		Text:      draft,
		Timestamp: at,
	}}
	return true
}

// RefinementTurns returns the refinement history without the init entry.
func (l *Lead) RefinementTurns() []Message {
	out := make([]Message, 0, len(l.EmailRefinementHistory))
	for _, m := range l.EmailRefinementHistory {
		if m.ID == InitMessageID {
			continue
		}
		out = append(out, m)
	}
	return out
}

// RefinementRounds counts completed refinement rounds. Each round adds a
// user instruction and a model draft; only the instructions are counted.
func (l *Lead) RefinementRounds() int {
	n := 0
	for _, m := range l.EmailRefinementHistory {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

// ContactEmail returns the email discovered by deep analysis, if any.
func (l *Lead) ContactEmail() string {
	if l.DeepAnalysis == nil {
		return ""
	}
	return l.DeepAnalysis.ContactEmail
}

// Clone returns a deep copy sharing no mutable state with l.
func (l Lead) Clone() Lead {
	out := l
	if l.AuditReport != nil {
		a := *l.AuditReport
		a.CriticalIssues = slices.Clone(a.CriticalIssues)
		a.PositivePoints = slices.Clone(a.PositivePoints)
		out.AuditReport = &a
	}
	if l.DeepAnalysis != nil {
		d := *l.DeepAnalysis
		d.KeyPainPoints = slices.Clone(d.KeyPainPoints)
		d.TechStack = slices.Clone(d.TechStack)
		out.DeepAnalysis = &d
	}
	out.EmailRefinementHistory = slices.Clone(l.EmailRefinementHistory)
	if l.LastEmailSentAt != nil {
		ts := *l.LastEmailSentAt
		out.LastEmailSentAt = &ts
	}
	return out
}

// CloneLeads deep-copies a lead list. A nil input yields an empty list.
func CloneLeads(leads []Lead) []Lead {
	out := make([]Lead, len(leads))
	for i, l := range leads {
		out[i] = l.Clone()
	}
	return out
}
