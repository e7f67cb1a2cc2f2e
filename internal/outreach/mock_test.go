package outreach

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/workspace"
	"github.com/sells-group/prospect-cli/pkg/gmail"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var sentAt = time.Date(2024, 1, 2, 14, 0, 0, 0, time.UTC)

type mockGmailClient struct {
	mock.Mock
}

func (m *mockGmailClient) Send(ctx context.Context, accessToken, raw string) (*gmail.SendResponse, error) {
	args := m.Called(ctx, accessToken, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gmail.SendResponse), args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Deliver(ctx context.Context, credential string, msg Message) (Receipt, error) {
	args := m.Called(ctx, credential, msg)
	return args.Get(0).(Receipt), args.Error(1)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) MarkContacted(ctx context.Context, leadID string, c workspace.Contact) (model.Lead, error) {
	args := m.Called(ctx, leadID, c)
	return args.Get(0).(model.Lead), args.Error(1)
}

// fakeSMTP records what the SMTP mailer would dial and send.
type fakeSMTP struct {
	host     string
	port     int
	username string
	password string
	sent     []*gomail.Message
	err      error
}

func (f *fakeSMTP) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func newTestSMTP(cfg SMTPConfig, f *fakeSMTP) *SMTPMailer {
	s := NewSMTPMailer(cfg)
	s.dial = func(host string, port int, username, password string) smtpSender {
		f.host, f.port, f.username, f.password = host, port, username, password
		return f
	}
	s.now = func() time.Time { return sentAt }
	return s
}

func newTestGmail(client gmail.Client, token string) *GmailMailer {
	g := NewGmailMailer(client, token)
	g.now = func() time.Time { return sentAt }
	return g
}

func draftedLead() model.Lead {
	l := model.Lead{
		ID:           "l1",
		Name:         "Atelier Martin",
		Status:       model.LeadStatusAnalyzed,
		DeepAnalysis: &model.DeepAnalysis{LeadScore: 80, ContactEmail: "contact@atelier-martin.fr"},
	}
	l.SeedDraft("Bonjour,\nNous aimerions vous aider.", sentAt.Add(-time.Hour))
	return l
}
