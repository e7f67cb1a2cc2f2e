// Package workspace holds the working set of leads, the project list and the
// session mirror, and writes both through to the store on every change.
package workspace

import (
	"context"
	"encoding/json"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/store"
)

var (
	ErrLeadNotFound    = eris.New("workspace: lead not found")
	ErrProjectNotFound = eris.New("workspace: project not found")
	ErrLeadBusy        = eris.New("workspace: lead has a stage in progress")
	ErrProjectChanged  = eris.New("workspace: unsaved leads were replaced")
)

// DefaultSearchProjectName names projects created by committing search
// results with no active project.
const DefaultSearchProjectName = "New Search"

type state struct {
	session  model.Session
	projects []model.Project
}

func (s state) clone() state {
	out := state{session: s.session.Clone(), projects: make([]model.Project, len(s.projects))}
	for i, p := range s.projects {
		out.projects[i] = p.Clone()
	}
	return out
}

// Workspace is the single writer of leads, projects and session. All reads
// return deep copies. Writes are serialised and persisted before they become
// visible; a failed write leaves the previous state in place.
type Workspace struct {
	mu    sync.Mutex
	store store.Store
	state state

	busyMu sync.Mutex
	busy   map[string]struct{}

	now func() time.Time
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithClock overrides the time source for project ids and dates.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.now = now }
}

// Open loads the project list and session from st. Missing blobs start
// empty; corrupt blobs are logged and ignored.
func Open(ctx context.Context, st store.Store, opts ...Option) (*Workspace, error) {
	w := &Workspace{
		store: st,
		busy:  make(map[string]struct{}),
		now:   func() time.Time { return time.Now().UTC() },
		state: state{session: model.NewSession(), projects: []model.Project{}},
	}
	for _, o := range opts {
		o(w)
	}

	if err := w.load(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Workspace) load(ctx context.Context) error {
	projects, err := w.store.Get(ctx, store.KeyProjects)
	if err != nil {
		return eris.Wrap(err, "workspace: load projects")
	}
	if projects != nil {
		var list []model.Project
		if err := json.Unmarshal(projects, &list); err != nil {
			zap.L().Error("workspace: stored projects are corrupt, starting empty", zap.Error(err))
		} else if list != nil {
			w.state.projects = list
		}
	}

	session, err := w.store.Get(ctx, store.KeySession)
	if err != nil {
		return eris.Wrap(err, "workspace: load session")
	}
	if session != nil {
		w.state.session = decodeSession(session)
	}
	return nil
}

// decodeSession restores a session, keeping defaults for missing fields and
// for the whole session when the blob is corrupt.
func decodeSession(data []byte) model.Session {
	s := model.NewSession()
	if err := json.Unmarshal(data, &s); err != nil {
		zap.L().Error("workspace: stored session is corrupt, using defaults", zap.Error(err))
		return model.NewSession()
	}
	if s.Leads == nil {
		s.Leads = []model.Lead{}
	}
	if _, err := model.ParseStep(string(s.CurrentStep)); err != nil {
		zap.L().Warn("workspace: stored step is unknown, using default", zap.String("step", string(s.CurrentStep)))
		s.CurrentStep = model.StepModeSelect
	}
	return s
}

// update applies fn to a copy of the state, persists the result and then
// makes it current. fn reports whether the project list changed; the session
// is always rewritten.
func (w *Workspace) update(ctx context.Context, fn func(s *state) (projectsChanged bool, err error)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := w.state.clone()
	projectsChanged, err := fn(&next)
	if err != nil {
		return err
	}

	if projectsChanged {
		if err := w.put(ctx, store.KeyProjects, next.projects); err != nil {
			return err
		}
	}
	if err := w.put(ctx, store.KeySession, next.session); err != nil {
		return err
	}
	w.state = next
	return nil
}

func (w *Workspace) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "workspace: marshal %s", key)
	}
	return eris.Wrapf(w.store.Put(ctx, key, data), "workspace: save %s", key)
}

func (w *Workspace) read(fn func(s state)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(w.state)
}

// Session returns a copy of the working state.
func (w *Workspace) Session() model.Session {
	var out model.Session
	w.read(func(s state) { out = s.session.Clone() })
	return out
}

// Leads returns a copy of the active leads.
func (w *Workspace) Leads() []model.Lead {
	var out []model.Lead
	w.read(func(s state) { out = model.CloneLeads(s.session.Leads) })
	return out
}

// Lead returns a copy of one active lead.
func (w *Workspace) Lead(id string) (model.Lead, error) {
	var (
		out model.Lead
		err error
	)
	w.read(func(s state) {
		i := indexLead(s.session.Leads, id)
		if i < 0 {
			err = eris.Wrapf(ErrLeadNotFound, "workspace: lead %s", id)
			return
		}
		out = s.session.Leads[i].Clone()
	})
	return out, err
}

// Projects returns a copy of the project list, most recent first.
func (w *Workspace) Projects() []model.Project {
	var out []model.Project
	w.read(func(s state) {
		out = make([]model.Project, len(s.projects))
		for i, p := range s.projects {
			out[i] = p.Clone()
		}
	})
	return out
}

// Project returns a copy of one project.
func (w *Workspace) Project(id string) (model.Project, error) {
	var (
		out model.Project
		err error
	)
	w.read(func(s state) {
		i := indexProject(s.projects, id)
		if i < 0 {
			err = eris.Wrapf(ErrProjectNotFound, "workspace: project %s", id)
			return
		}
		out = s.projects[i].Clone()
	})
	return out, err
}

func indexLead(leads []model.Lead, id string) int {
	return slices.IndexFunc(leads, func(l model.Lead) bool { return l.ID == id })
}

func indexProject(projects []model.Project, id string) int {
	return slices.IndexFunc(projects, func(p model.Project) bool { return p.ID == id })
}

// Acquire marks a lead busy for the duration of a stage. It fails with
// ErrLeadBusy while another stage holds the lead. Release is idempotent.
func (w *Workspace) Acquire(leadID string) (release func(), err error) {
	w.busyMu.Lock()
	defer w.busyMu.Unlock()
	if _, ok := w.busy[leadID]; ok {
		return nil, eris.Wrapf(ErrLeadBusy, "workspace: lead %s", leadID)
	}
	w.busy[leadID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			w.busyMu.Lock()
			delete(w.busy, leadID)
			w.busyMu.Unlock()
		})
	}, nil
}

func (w *Workspace) projectID(projects []model.Project) string {
	n := w.now().UnixMilli()
	for {
		id := strconv.FormatInt(n, 10)
		if indexProject(projects, id) < 0 {
			return id
		}
		n++
	}
}
