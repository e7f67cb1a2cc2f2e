package prospect

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/outreach"
)

// Refine runs one refinement round on a lead's draft. A failed round leaves
// the lead as it was and returns the stage error.
func (s *Service) Refine(ctx context.Context, leadID, instruction string) (model.Lead, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return model.Lead{}, ErrEmptyInstruction
	}

	release, err := s.ws.Acquire(leadID)
	if err != nil {
		return model.Lead{}, err
	}
	defer release()

	lead, projectID, err := s.ws.ActiveLead(leadID)
	if err != nil {
		return model.Lead{}, err
	}
	if !lead.HasDraft() {
		return lead, eris.Wrapf(ErrNoDraft, "prospect: lead %s", leadID)
	}

	out, res := s.stages.Refine(ctx, lead, instruction, s.businessContext())
	if !res.OK() {
		return lead, res.Err
	}
	if err := s.ws.UpdateLead(ctx, projectID, out); err != nil {
		return lead, err
	}
	return out, nil
}

// EditEmail replaces the current draft with hand-edited text. The
// refinement history is left alone.
func (s *Service) EditEmail(ctx context.Context, leadID, text string) (model.Lead, error) {
	if strings.TrimSpace(text) == "" {
		return model.Lead{}, ErrEmptyEmail
	}

	release, err := s.ws.Acquire(leadID)
	if err != nil {
		return model.Lead{}, err
	}
	defer release()

	lead, projectID, err := s.ws.ActiveLead(leadID)
	if err != nil {
		return model.Lead{}, err
	}
	if !lead.HasDraft() {
		return lead, eris.Wrapf(ErrNoDraft, "prospect: lead %s", leadID)
	}

	lead.GeneratedEmail = text
	if err := s.ws.UpdateLead(ctx, projectID, lead); err != nil {
		return model.Lead{}, err
	}
	return lead, nil
}

// Send emails a lead through the configured transport and marks it
// contacted on success.
func (s *Service) Send(ctx context.Context, leadID string, req outreach.Request) (model.Lead, error) {
	if s.dispatcher == nil {
		return model.Lead{}, ErrNoTransport
	}

	release, err := s.ws.Acquire(leadID)
	if err != nil {
		return model.Lead{}, err
	}
	defer release()

	lead, projectID, err := s.ws.ActiveLead(leadID)
	if err != nil {
		return model.Lead{}, err
	}
	req.ProjectID = projectID
	return s.dispatcher.Send(ctx, lead, req)
}

// Draft is the refinement view of a lead: the current draft and the rounds
// that produced it.
type Draft struct {
	Email   string
	History []model.Message
}

// EmailDraft returns a lead's draft.
func (s *Service) EmailDraft(leadID string) (Draft, error) {
	lead, err := s.ws.Lead(leadID)
	if err != nil {
		return Draft{}, err
	}
	if !lead.HasDraft() {
		return Draft{}, eris.Wrapf(ErrNoDraft, "prospect: lead %s", leadID)
	}
	return Draft{Email: lead.GeneratedEmail, History: lead.EmailRefinementHistory}, nil
}
