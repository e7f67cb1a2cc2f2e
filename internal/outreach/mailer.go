package outreach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/gomail.v2"

	"github.com/sells-group/prospect-cli/pkg/gmail"
)

var (
	ErrNeedsAuthorization = eris.New("outreach: mail credential missing or expired, authorization required")
	ErrNoDraft            = eris.New("outreach: lead has no email draft")
	ErrNoRecipient        = eris.New("outreach: no recipient address")
)

// SendError is a transport failure. Message is the provider's own text.
type SendError struct {
	Message string
	Err     error
}

func (e *SendError) Error() string {
	return "outreach: send failed: " + e.Message
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Receipt identifies a delivered message.
type Receipt struct {
	MessageID string
	ThreadID  string
	SentAt    time.Time
}

// Mailer delivers one message. An empty credential falls back to the
// mailer's configured one; when neither is usable Deliver returns
// ErrNeedsAuthorization without contacting the provider.
type Mailer interface {
	Deliver(ctx context.Context, credential string, msg Message) (Receipt, error)
}

// GmailMailer sends through the Gmail API with an OAuth access token.
type GmailMailer struct {
	client gmail.Client
	token  string
	now    func() time.Time
}

// NewGmailMailer creates a GmailMailer. token may be empty when every call
// supplies its own credential.
func NewGmailMailer(client gmail.Client, token string) *GmailMailer {
	return &GmailMailer{client: client, token: token, now: func() time.Time { return time.Now().UTC() }}
}

func (g *GmailMailer) Deliver(ctx context.Context, credential string, msg Message) (Receipt, error) {
	token := credential
	if token == "" {
		token = g.token
	}
	if token == "" {
		return Receipt{}, ErrNeedsAuthorization
	}

	raw, err := BuildRaw(msg)
	if err != nil {
		return Receipt{}, err
	}

	resp, err := g.client.Send(ctx, token, raw)
	if err != nil {
		var apiErr *gmail.APIError
		if errors.As(err, &apiErr) {
			if apiErr.Unauthorized() {
				return Receipt{}, eris.Wrap(ErrNeedsAuthorization, apiErr.Message)
			}
			return Receipt{}, &SendError{Message: apiErr.Message, Err: err}
		}
		return Receipt{}, &SendError{Message: err.Error(), Err: err}
	}

	return Receipt{MessageID: resp.ID, ThreadID: resp.ThreadID, SentAt: g.now()}, nil
}

// SMTPConfig holds relay settings for SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends through an SMTP relay. The credential, when given,
// replaces the configured password.
type SMTPMailer struct {
	cfg  SMTPConfig
	dial func(host string, port int, username, password string) smtpSender
	now  func() time.Time
}

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg: cfg,
		dial: func(host string, port int, username, password string) smtpSender {
			return gomail.NewDialer(host, port, username, password)
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *SMTPMailer) Deliver(ctx context.Context, credential string, msg Message) (Receipt, error) {
	password := credential
	if password == "" {
		password = s.cfg.Password
	}
	if s.cfg.Username != "" && password == "" {
		return Receipt{}, ErrNeedsAuthorization
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, eris.Wrap(err, "outreach: smtp send")
	}

	if msg.From == "" {
		msg.From = s.cfg.From
	}
	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), messageIDHost(msg.From, s.cfg.Host))
	m := compose(msg)
	m.SetHeader("Message-ID", id)

	if err := s.dial(s.cfg.Host, s.cfg.Port, s.cfg.Username, password).DialAndSend(m); err != nil {
		if strings.Contains(err.Error(), "535") {
			return Receipt{}, eris.Wrap(ErrNeedsAuthorization, err.Error())
		}
		return Receipt{}, &SendError{Message: err.Error(), Err: err}
	}
	return Receipt{MessageID: id, SentAt: s.now()}, nil
}

// messageIDHost picks the sender's domain for Message-ID, falling back to
// the relay host.
func messageIDHost(from, relay string) string {
	if at := strings.LastIndex(from, "@"); at >= 0 {
		return strings.TrimSuffix(from[at+1:], ">")
	}
	return relay
}
