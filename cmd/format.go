package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/pipeline"
)

// formatLeads writes a tabular list of leads to out.
func formatLeads(out io.Writer, leads []model.Lead) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSTATUS\tSCORE\tSEO\tWEBSITE\tEMAIL")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t-----\t---\t-------\t-----")

	for _, l := range leads {
		score, seo := "-", "-"
		if l.DeepAnalysis != nil {
			score = fmt.Sprintf("%d", l.DeepAnalysis.LeadScore)
		}
		if l.AuditReport != nil {
			seo = fmt.Sprintf("%d", l.AuditReport.SEOScore)
		}
		draft := ""
		if l.HasDraft() {
			draft = "drafted"
		}
		if l.LastEmailSentAt != nil {
			draft = "sent " + l.LastEmailSentAt.Format("2006-01-02")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(l.ID, 14),
			truncate(l.Name, 30),
			l.Status,
			score,
			seo,
			truncate(l.Website, 35),
			draft,
		)
	}
	_ = w.Flush()
}

// formatLead writes a lead's details to out.
func formatLead(out io.Writer, l model.Lead) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "ID:\t%s\n", l.ID)
	_, _ = fmt.Fprintf(w, "Name:\t%s\n", l.Name)
	_, _ = fmt.Fprintf(w, "Address:\t%s\n", l.Address)
	if l.Website != "" {
		_, _ = fmt.Fprintf(w, "Website:\t%s\n", l.Website)
	}
	if l.Phone != "" {
		_, _ = fmt.Fprintf(w, "Phone:\t%s\n", l.Phone)
	}
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", l.Status)
	if a := l.AuditReport; a != nil {
		_, _ = fmt.Fprintf(w, "Audit:\tSEO %d, design %d, mobile %d\n", a.SEOScore, a.DesignScore, a.MobileScore)
		if a.Summary != "" {
			_, _ = fmt.Fprintf(w, "\t%s\n", a.Summary)
		}
		for _, issue := range a.CriticalIssues {
			_, _ = fmt.Fprintf(w, "\t- %s\n", issue)
		}
	}
	if d := l.DeepAnalysis; d != nil {
		_, _ = fmt.Fprintf(w, "Lead score:\t%d\n", d.LeadScore)
		if d.FitReasoning != "" {
			_, _ = fmt.Fprintf(w, "Fit:\t%s\n", d.FitReasoning)
		}
		if len(d.KeyPainPoints) > 0 {
			_, _ = fmt.Fprintf(w, "Pain points:\t%s\n", strings.Join(d.KeyPainPoints, "; "))
		}
		if d.DecisionMaker != "" {
			_, _ = fmt.Fprintf(w, "Decision maker:\t%s\n", d.DecisionMaker)
		}
		if d.ContactEmail != "" {
			_, _ = fmt.Fprintf(w, "Contact:\t%s\n", d.ContactEmail)
		}
		if d.VerificationStatus != "" {
			_, _ = fmt.Fprintf(w, "Verification:\t%s\n", d.VerificationStatus)
		}
	}
	if l.LastEmailSentAt != nil {
		_, _ = fmt.Fprintf(w, "Sent:\t%s (%s)\n", l.LastEmailSentAt.Format("2006-01-02 15:04"), l.ComplianceStatus)
	}
	_ = w.Flush()
}

// formatProjects writes a tabular list of projects to out, marking the
// active one.
func formatProjects(out io.Writer, projects []model.Project, activeID string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "\tID\tNAME\tDATE\tLEADS")
	_, _ = fmt.Fprintln(w, "\t--\t----\t----\t-----")
	for _, p := range projects {
		mark := ""
		if p.ID == activeID {
			mark = "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			mark,
			p.ID,
			truncate(p.Name, 40),
			p.Date.Format("2006-01-02 15:04"),
			len(p.Leads),
		)
	}
	_ = w.Flush()
}

// formatSession writes the working state summary to out.
func formatSession(out io.Writer, s model.Session) {
	counts := make(map[model.LeadStatus]int)
	for _, l := range s.Leads {
		counts[l.Status]++
	}

	project := s.CurrentProjectID
	if project == "" {
		project = "(none)"
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Step:\t%s\n", s.CurrentStep)
	_, _ = fmt.Fprintf(w, "Project:\t%s\n", project)
	_, _ = fmt.Fprintf(w, "Leads:\t%d\n", len(s.Leads))
	for _, st := range []model.LeadStatus{model.LeadStatusNew, model.LeadStatusAnalyzed, model.LeadStatusContacted, model.LeadStatusConverted} {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", st, counts[st])
	}
	_, _ = fmt.Fprintf(w, "Context:\t%s\n", truncate(strings.ReplaceAll(s.BusinessDescription, "\n", " "), 60))
	_ = w.Flush()
}

// formatEnrichment writes the stages that fell back to defaults.
func formatEnrichment(out io.Writer, leadID string, res pipeline.Enrichment) {
	if res.Audit != nil && res.Audit.Err != nil {
		_, _ = fmt.Fprintf(out, "%s: audit fell back to defaults: %v\n", leadID, res.Audit.Err)
	}
	if res.Deep.Err != nil {
		_, _ = fmt.Fprintf(out, "%s: analysis fell back to defaults: %v\n", leadID, res.Deep.Err)
	}
	if res.Draft != nil && res.Draft.Err != nil {
		_, _ = fmt.Fprintf(out, "%s: no draft: %v\n", leadID, res.Draft.Err)
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
