package outreach

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/workspace"
)

// DefaultSubjectFormat builds the subject from the lead name.
const DefaultSubjectFormat = "Proposal for %s"

// Recorder persists a confirmed send on the lead.
type Recorder interface {
	MarkContacted(ctx context.Context, leadID string, c workspace.Contact) (model.Lead, error)
}

// Request is one send. Blank fields fall back to the lead: To to the contact
// email found by analysis, Body to the current draft, Subject to the
// default subject. ProjectID names the project owning the lead; the send is
// recorded there.
type Request struct {
	ProjectID  string
	Credential string
	To         string
	Subject    string
	Body       string
}

// Dispatcher sends drafts and records the outcome.
type Dispatcher struct {
	mailer        Mailer
	recorder      Recorder
	subjectFormat string
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSubjectFormat overrides DefaultSubjectFormat. The format takes the
// lead name as its only argument.
func WithSubjectFormat(format string) DispatcherOption {
	return func(d *Dispatcher) {
		if format != "" {
			d.subjectFormat = format
		}
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(mailer Mailer, recorder Recorder, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{mailer: mailer, recorder: recorder, subjectFormat: DefaultSubjectFormat}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Send delivers the lead's email and marks it contacted. On any failure the
// lead is left unchanged: ErrNeedsAuthorization when no usable credential
// exists, a *SendError carrying the provider's message when the transport
// refuses the message.
func (d *Dispatcher) Send(ctx context.Context, lead model.Lead, req Request) (model.Lead, error) {
	msg, err := d.message(lead, req)
	if err != nil {
		return lead, err
	}

	log := zap.L().With(zap.String("lead_id", lead.ID), zap.String("to", msg.To))

	receipt, err := d.mailer.Deliver(ctx, req.Credential, msg)
	if err != nil {
		if errors.Is(err, ErrNeedsAuthorization) {
			log.Warn("outreach: authorization required")
			return lead, err
		}
		log.Error("outreach: send failed", zap.Error(err))
		return lead, err
	}

	updated, err := d.recorder.MarkContacted(ctx, lead.ID, workspace.Contact{
		ProjectID:  req.ProjectID,
		MessageID:  receipt.MessageID,
		ThreadID:   receipt.ThreadID,
		SentAt:     receipt.SentAt,
		Compliance: Classify(msg.To),
	})
	if err != nil {
		log.Error("outreach: email sent but not recorded",
			zap.String("message_id", receipt.MessageID),
			zap.Error(err),
		)
		return lead, eris.Wrapf(err, "outreach: record send %s", receipt.MessageID)
	}

	log.Info("outreach: email sent", zap.String("message_id", receipt.MessageID))
	return updated, nil
}

func (d *Dispatcher) message(lead model.Lead, req Request) (Message, error) {
	body := req.Body
	if strings.TrimSpace(body) == "" {
		body = lead.GeneratedEmail
	}
	if strings.TrimSpace(body) == "" {
		return Message{}, eris.Wrapf(ErrNoDraft, "outreach: lead %s", lead.ID)
	}

	to := strings.TrimSpace(req.To)
	if to == "" {
		to = strings.TrimSpace(lead.ContactEmail())
	}
	if to == "" {
		return Message{}, eris.Wrapf(ErrNoRecipient, "outreach: lead %s", lead.ID)
	}
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return Message{}, eris.Wrapf(ErrNoRecipient, "outreach: invalid address %q", to)
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = fmt.Sprintf(d.subjectFormat, lead.Name)
	}

	return Message{To: addr.Address, Subject: subject, Body: body}, nil
}
