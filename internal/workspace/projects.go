package workspace

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/model"
)

// ProjectName returns name, or a dated campaign name when it is blank.
func ProjectName(name string, at time.Time) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return "Campaign " + at.Format("2006-01-02")
}

// CreateProject prepends a new project owning leads, makes it active and
// seeds the active leads with it. The business context is snapshotted.
func (w *Workspace) CreateProject(ctx context.Context, name string, leads []model.Lead) (model.Project, error) {
	var out model.Project
	err := w.update(ctx, func(s *state) (bool, error) {
		out = newProject(w, s, name, leads)
		return true, nil
	})
	return out, err
}

func newProject(w *Workspace, s *state, name string, leads []model.Lead) model.Project {
	now := w.now()
	p := model.Project{
		ID:              w.projectID(s.projects),
		Name:            ProjectName(name, now),
		Date:            now,
		Leads:           model.CloneLeads(leads),
		BusinessContext: s.session.BusinessDescription,
	}
	s.projects = slices.Insert(s.projects, 0, p)
	s.session.CurrentProjectID = p.ID
	s.session.Leads = model.CloneLeads(leads)
	return p.Clone()
}

// LoadProject makes a project active: its leads and business context replace
// the working copies by value and the step moves to outreach.
func (w *Workspace) LoadProject(ctx context.Context, id string) (model.Project, error) {
	var out model.Project
	err := w.update(ctx, func(s *state) (bool, error) {
		i := indexProject(s.projects, id)
		if i < 0 {
			return false, eris.Wrapf(ErrProjectNotFound, "workspace: project %s", id)
		}
		p := s.projects[i]
		s.session.CurrentProjectID = p.ID
		s.session.Leads = model.CloneLeads(p.Leads)
		s.session.BusinessDescription = p.BusinessContext
		s.session.CurrentStep = model.StepOutreach
		out = p.Clone()
		return false, nil
	})
	return out, err
}

// CommitLeads stores search or audit results. With an active project they
// replace its leads; otherwise a project named DefaultSearchProjectName is
// created for them. The step moves to outreach.
func (w *Workspace) CommitLeads(ctx context.Context, leads []model.Lead) (model.Project, error) {
	var out model.Project
	err := w.update(ctx, func(s *state) (bool, error) {
		i := -1
		if s.session.CurrentProjectID != "" {
			i = indexProject(s.projects, s.session.CurrentProjectID)
		}
		if i >= 0 {
			s.session.Leads = model.CloneLeads(leads)
			syncActive(s)
			out = s.projects[i].Clone()
		} else {
			out = newProject(w, s, DefaultSearchProjectName, leads)
		}
		s.session.CurrentStep = model.StepOutreach
		return true, nil
	})
	return out, err
}

// DiscardProject deletes a project and its leads. Discarding the active
// project also clears the active leads.
func (w *Workspace) DiscardProject(ctx context.Context, id string) error {
	return w.update(ctx, func(s *state) (bool, error) {
		i := indexProject(s.projects, id)
		if i < 0 {
			return false, eris.Wrapf(ErrProjectNotFound, "workspace: project %s", id)
		}
		s.projects = slices.Delete(s.projects, i, i+1)
		if s.session.CurrentProjectID == id {
			s.session.CurrentProjectID = ""
			s.session.Leads = []model.Lead{}
		}
		return true, nil
	})
}

// CloseProject detaches the active project, keeping the leads as unsaved
// working state. The next commit creates a new project.
func (w *Workspace) CloseProject(ctx context.Context) error {
	return w.update(ctx, func(s *state) (bool, error) {
		s.session.CurrentProjectID = ""
		return false, nil
	})
}
