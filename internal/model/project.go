package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Role identifies the author of a Message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// InitMessageID tags the refinement history entry holding the first draft.
// It is never replayed to the backend.
const InitMessageID = "init"

// Message is one turn of an assistant conversation or email refinement.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Project is a named, dated campaign owning its leads.
type Project struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Date            time.Time `json:"date"`
	Leads           []Lead    `json:"leads"`
	BusinessContext string    `json:"businessContext"`
}

// Clone returns a deep copy of p.
func (p Project) Clone() Project {
	out := p
	out.Leads = CloneLeads(p.Leads)
	return out
}

// Step is the workflow position exposed to the surrounding UI.
type Step string

const (
	StepModeSelect Step = "MODE_SELECT"
	StepContext    Step = "CONTEXT"
	StepDiscovery  Step = "DISCOVERY"
	StepWebAudit   Step = "WEB_AUDIT"
	StepOutreach   Step = "OUTREACH"
)

// Steps lists every workflow step in navigation order.
var Steps = []Step{StepModeSelect, StepContext, StepDiscovery, StepWebAudit, StepOutreach}

// ParseStep validates a step name.
func ParseStep(s string) (Step, error) {
	for _, st := range Steps {
		if string(st) == s {
			return st, nil
		}
	}
	return "", eris.Errorf("model: unknown step %q", s)
}

// Session is the continuously persisted working state.
type Session struct {
	Leads               []Lead `json:"leads"`
	BusinessDescription string `json:"businessDescription"`
	CurrentStep         Step   `json:"currentStep"`
	CurrentProjectID    string `json:"currentProjectId,omitempty"`
}

// NewSession returns the state of a fresh install.
func NewSession() Session {
	return Session{Leads: []Lead{}, CurrentStep: StepModeSelect}
}

// Clone returns a deep copy of s.
func (s Session) Clone() Session {
	out := s
	out.Leads = CloneLeads(s.Leads)
	return out
}
