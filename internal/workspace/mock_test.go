package workspace

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockStore) Put(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

var day = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() func() time.Time {
	return func() time.Time { return day }
}

func sampleLeads() []model.Lead {
	sent := day.Add(-48 * time.Hour)
	return []model.Lead{
		{
			ID:                     "l1",
			Name:                   "Atelier Martin",
			Address:                "12 rue de la Paix, Lyon",
			Website:                "https://atelier-martin.fr",
			Status:                 model.LeadStatusAnalyzed,
			AuditReport:            &model.AuditReport{SEOScore: 40, CriticalIssues: []string{"slow"}, PositivePoints: []string{}},
			DeepAnalysis:           &model.DeepAnalysis{LeadScore: 80, KeyPainPoints: []string{"bookings"}, TechStack: []string{"WordPress"}},
			GeneratedEmail:         "Bonjour",
			EmailRefinementHistory: []model.Message{
				{ID: model.InitMessageID, Role: model.RoleModel, Text: "Bonjour", Timestamp: day},
			},
		},
		{
			ID:              "l2",
			Name:            "Boulangerie Roche",
			Address:         "3 place Bellecour, Lyon",
			Status:          model.LeadStatusContacted,
			GmailMessageID:  "msg-1",
			LastEmailSentAt: &sent,
		},
	}
}
