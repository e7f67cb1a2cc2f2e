package workspace

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/model"
)

// ReplaceAll replaces the active leads wholesale. When a project is active
// its leads are replaced with the same list. Both writes are persisted.
func (w *Workspace) ReplaceAll(ctx context.Context, leads []model.Lead) error {
	return w.update(ctx, func(s *state) (bool, error) {
		s.session.Leads = model.CloneLeads(leads)
		return syncActive(s), nil
	})
}

// ActiveLead returns a copy of an active lead together with the id of the
// project that owns it, read in one step. The project id is what UpdateLead
// and MarkContacted need to write a stage result back to its owner.
func (w *Workspace) ActiveLead(id string) (model.Lead, string, error) {
	var (
		out       model.Lead
		projectID string
		err       error
	)
	w.read(func(s state) {
		i := indexLead(s.session.Leads, id)
		if i < 0 {
			err = eris.Wrapf(ErrLeadNotFound, "workspace: lead %s", id)
			return
		}
		out = s.session.Leads[i].Clone()
		projectID = s.session.CurrentProjectID
	})
	return out, projectID, err
}

// UpdateLead replaces an existing lead owned by projectID. While projectID
// is active the active leads are updated and synced; once another project
// has been loaded the result goes to projectID's stored copy instead. A
// lead is never appended: ErrLeadNotFound when its owner no longer holds
// it, ErrProjectNotFound when the owner was discarded, ErrProjectChanged
// when unsaved leads were replaced by a project.
func (w *Workspace) UpdateLead(ctx context.Context, projectID string, lead model.Lead) error {
	return w.update(ctx, func(s *state) (bool, error) {
		_, changed, err := writeLead(s, projectID, lead.ID, func(l *model.Lead) { *l = lead.Clone() })
		return changed, err
	})
}

// Contact records a confirmed send. ProjectID is the project owning the
// lead when the send started, as returned by ActiveLead.
type Contact struct {
	ProjectID  string
	MessageID  string
	ThreadID   string
	SentAt     time.Time
	Compliance string
}

// MarkContacted moves a lead to contacted and records the send metadata on
// the project that owns it, following the same rules as UpdateLead.
func (w *Workspace) MarkContacted(ctx context.Context, leadID string, c Contact) (model.Lead, error) {
	var out model.Lead
	err := w.update(ctx, func(s *state) (bool, error) {
		var (
			changed bool
			err     error
		)
		out, changed, err = writeLead(s, c.ProjectID, leadID, func(l *model.Lead) {
			sentAt := c.SentAt
			l.Status = model.LeadStatusContacted
			l.GmailMessageID = c.MessageID
			l.GmailThreadID = c.ThreadID
			l.LastEmailSentAt = &sentAt
			l.ComplianceStatus = c.Compliance
		})
		return changed, err
	})
	return out, err
}

// SetStatus sets a lead's status. Progression is not enforced.
func (w *Workspace) SetStatus(ctx context.Context, leadID string, status model.LeadStatus) (model.Lead, error) {
	var out model.Lead
	err := w.update(ctx, func(s *state) (bool, error) {
		i := indexLead(s.session.Leads, leadID)
		if i < 0 {
			return false, eris.Wrapf(ErrLeadNotFound, "workspace: lead %s", leadID)
		}
		s.session.Leads[i].Status = status
		out = s.session.Leads[i].Clone()
		return syncActive(s), nil
	})
	return out, err
}

// writeLead applies fn to the lead owned by projectID and reports whether
// the project list changed.
func writeLead(s *state, projectID, leadID string, fn func(l *model.Lead)) (model.Lead, bool, error) {
	leads := s.session.Leads
	active := s.session.CurrentProjectID == projectID
	if !active {
		if projectID == "" {
			return model.Lead{}, false, eris.Wrapf(ErrProjectChanged, "workspace: lead %s", leadID)
		}
		p := indexProject(s.projects, projectID)
		if p < 0 {
			return model.Lead{}, false, eris.Wrapf(ErrProjectNotFound, "workspace: project %s", projectID)
		}
		leads = s.projects[p].Leads
	}

	i := indexLead(leads, leadID)
	if i < 0 {
		return model.Lead{}, false, eris.Wrapf(ErrLeadNotFound, "workspace: lead %s", leadID)
	}
	fn(&leads[i])
	out := leads[i].Clone()

	if active {
		return out, syncActive(s), nil
	}
	return out, true, nil
}

// syncActive copies the active leads into the active project, if any.
func syncActive(s *state) bool {
	if s.session.CurrentProjectID == "" {
		return false
	}
	i := indexProject(s.projects, s.session.CurrentProjectID)
	if i < 0 {
		return false
	}
	s.projects[i].Leads = model.CloneLeads(s.session.Leads)
	return true
}
