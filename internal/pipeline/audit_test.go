package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/pkg/jina"
)

func TestAudit_Success(t *testing.T) {
	gen := newStageGenerator().on(StageAudit, auditJSON)
	s := newTestStages(gen)

	out := s.Audit(context.Background(), "https://atelier-martin.fr", "")

	require.True(t, out.OK())
	assert.Equal(t, model.AuditReport{
		SEOScore:       40,
		DesignScore:    55,
		MobileScore:    30,
		CriticalIssues: []string{"No meta description"},
		PositivePoints: []string{"Fast"},
		Summary:        "Dated site.",
	}, out.Value)

	req := gen.last(StageAudit)
	assert.True(t, req.CacheSystem)
	assert.Contains(t, req.Turns[0].Text, "https://atelier-martin.fr")
	assert.Contains(t, req.Turns[0].Text, "Language: Français")
}

func TestAudit_FailuresYieldDefault(t *testing.T) {
	tests := []struct {
		name string
		gen  *stageGenerator
	}{
		{"backend error", newStageGenerator().fail(StageAudit, errors.New("boom"))},
		{"prose reply", newStageGenerator().on(StageAudit, "The site looks fine to me.")},
		{"score out of range", newStageGenerator().on(StageAudit, `{"seoScore":140,"designScore":1,"mobileScore":1,"summary":"x"}`)},
		{"missing summary", newStageGenerator().on(StageAudit, `{"seoScore":40,"designScore":1,"mobileScore":1}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := newTestStages(tt.gen).Audit(context.Background(), "https://x.fr", "en")
			require.Error(t, out.Err)
			assert.Equal(t, DefaultAuditReport(), out.Value)
			assert.Equal(t, "Error", out.Value.Summary)
			assert.NotNil(t, out.Value.CriticalIssues)
		})
	}
}

func TestAudit_MissingListsAreEmpty(t *testing.T) {
	gen := newStageGenerator().on(StageAudit, `{"seoScore":10,"designScore":20,"mobileScore":30,"summary":"Bare."}`)

	out := newTestStages(gen).Audit(context.Background(), "https://x.fr", "")

	require.True(t, out.OK())
	assert.Equal(t, []string{}, out.Value.CriticalIssues)
	assert.Equal(t, []string{}, out.Value.PositivePoints)
}

func TestAudit_GroundedOnPageContent(t *testing.T) {
	reader := &mockJinaClient{}
	reader.On("Read", mock.Anything, "https://x.fr").Return(&jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{Content: "# Welcome\n" + strings.Repeat("é", 100)},
	}, nil)
	gen := newStageGenerator().on(StageAudit, auditJSON)

	out := newTestStages(gen, WithReader(reader)).Audit(context.Background(), "https://x.fr", "")

	require.True(t, out.OK())
	prompt := gen.last(StageAudit).Turns[0].Text
	assert.Contains(t, prompt, "Page content")
	assert.Contains(t, prompt, "# Welcome\n"+strings.Repeat("é", 30)+"\n")
	assert.NotContains(t, prompt, strings.Repeat("é", 31))
	reader.AssertExpectations(t)
}

func TestAudit_ReaderFailureAuditsUngrounded(t *testing.T) {
	reader := &mockJinaClient{}
	reader.On("Read", mock.Anything, "https://x.fr").Return(nil, errors.New("jina: 451"))
	gen := newStageGenerator().on(StageAudit, auditJSON)

	out := newTestStages(gen, WithReader(reader)).Audit(context.Background(), "https://x.fr", "")

	require.True(t, out.OK())
	assert.NotContains(t, gen.last(StageAudit).Turns[0].Text, "Page content")
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"atelier-martin.fr", "https://atelier-martin.fr", false},
		{"  www.roche.fr/contact ", "https://www.roche.fr/contact", false},
		{"http://old.example.com", "http://old.example.com", false},
		{"HTTPS://Upper.example", "HTTPS://Upper.example", false},
		{"", "", true},
		{"https://", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHostName(t *testing.T) {
	assert.Equal(t, "roche.fr", HostName("https://www.roche.fr/contact"))
	assert.Equal(t, "atelier-martin.fr", HostName("https://atelier-martin.fr"))
	assert.Equal(t, "not a url", HostName("not a url"))
}
