package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/pkg/perplexity"
)

func websiteLead() model.Lead {
	return model.Lead{
		ID:           "lead-1",
		Name:         "Atelier Martin",
		Address:      "12 rue de la Paix, Lyon",
		Website:      "https://atelier-martin.fr",
		BusinessType: "Carpentry",
		Status:       model.LeadStatusNew,
	}
}

func TestAnalyze_AuditsFirstWhenWebsiteHasNoReport(t *testing.T) {
	gen := newStageGenerator().on(StageAudit, auditJSON).on(StageAnalysis, analysisJSON)
	s := newTestStages(gen)

	lead, res := s.Analyze(context.Background(), websiteLead(), "We build websites.", "")

	assert.Equal(t, 1, gen.count(StageAudit))
	require.NotNil(t, res.Audit)
	require.True(t, res.Audit.OK())
	require.True(t, res.Deep.OK())

	require.NotNil(t, lead.AuditReport)
	assert.Equal(t, 40, lead.AuditReport.SEOScore)
	require.NotNil(t, lead.DeepAnalysis)
	assert.Equal(t, 82, lead.DeepAnalysis.LeadScore)
	assert.Equal(t, "contact@atelier.fr", lead.DeepAnalysis.ContactEmail)
	assert.Equal(t, "Claire Martin", lead.DeepAnalysis.DecisionMaker)
	assert.Equal(t, model.VerificationActive, lead.DeepAnalysis.VerificationStatus)

	// The audit precedes the analysis and feeds it.
	assert.Equal(t, StageAudit, gen.calls[0].Stage)
	assert.Equal(t, StageAnalysis, gen.calls[1].Stage)
	prompt := gen.last(StageAnalysis).Turns[0].Text
	assert.Contains(t, prompt, "Website audit:")
	assert.Contains(t, prompt, `"seoScore":40`)
	assert.Contains(t, prompt, "My Business: We build websites.")
}

func TestAnalyze_ReusesExistingAudit(t *testing.T) {
	gen := newStageGenerator().on(StageAnalysis, analysisJSON)
	s := newTestStages(gen)

	in := websiteLead()
	in.AuditReport = &model.AuditReport{SEOScore: 12, Summary: "cached"}

	lead, res := s.Analyze(context.Background(), in, "ctx", "")

	assert.Equal(t, 0, gen.count(StageAudit))
	assert.Nil(t, res.Audit)
	assert.Equal(t, "cached", lead.AuditReport.Summary)
	assert.Contains(t, gen.last(StageAnalysis).Turns[0].Text, `"summary":"cached"`)
}

func TestAnalyze_NoWebsiteSkipsAudit(t *testing.T) {
	gen := newStageGenerator().on(StageAnalysis, analysisJSON)
	in := websiteLead()
	in.Website = ""

	lead, res := newTestStages(gen).Analyze(context.Background(), in, "ctx", "")

	assert.Equal(t, 0, gen.count(StageAudit))
	assert.Nil(t, res.Audit)
	assert.Nil(t, lead.AuditReport)
	assert.Contains(t, gen.last(StageAnalysis).Turns[0].Text, "(no website)")
}

func TestAnalyze_FailedAuditIsNotCached(t *testing.T) {
	gen := newStageGenerator().fail(StageAudit, errors.New("boom")).on(StageAnalysis, analysisJSON)

	lead, res := newTestStages(gen).Analyze(context.Background(), websiteLead(), "ctx", "")

	require.NotNil(t, res.Audit)
	assert.Error(t, res.Audit.Err)
	assert.Nil(t, lead.AuditReport)
	assert.True(t, res.Deep.OK())
}

func TestAnalyze_FailureYieldsDefault(t *testing.T) {
	tests := []struct {
		name  string
		reply reply
	}{
		{"backend error", reply{err: errors.New("401 unauthorized")}},
		{"malformed", reply{text: `{"leadScore": "high"}`}},
		{"bad enum", reply{text: `{"leadScore":50,"fitReasoning":"ok","verificationStatus":"Maybe"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := newStageGenerator()
			gen.replies[StageAnalysis] = []reply{tt.reply}
			in := websiteLead()
			in.Website = ""

			lead, res := newTestStages(gen).Analyze(context.Background(), in, "ctx", "")

			require.Error(t, res.Deep.Err)
			want := model.DeepAnalysis{
				LeadScore:          0,
				FitReasoning:       "Analysis failed.",
				KeyPainPoints:      []string{},
				TechStack:          []string{},
				VerificationStatus: "Uncertain",
			}
			assert.Equal(t, want, res.Deep.Value)
			assert.Equal(t, &want, lead.DeepAnalysis)
		})
	}
}

func TestAnalyze_DoesNotMutateInput(t *testing.T) {
	gen := newStageGenerator().on(StageAudit, auditJSON).on(StageAnalysis, analysisJSON)
	in := websiteLead()

	_, _ = newTestStages(gen).Analyze(context.Background(), in, "ctx", "")

	assert.Nil(t, in.AuditReport)
	assert.Nil(t, in.DeepAnalysis)
}

func TestAnalyze_IncludesResearchNotes(t *testing.T) {
	research := &mockPerplexityClient{}
	research.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(req perplexity.ChatCompletionRequest) bool {
		return len(req.Messages) == 1 && req.Messages[0].Role == "user"
	})).Return(&perplexity.ChatCompletionResponse{
		Choices:   []perplexity.Choice{{Message: perplexity.Message{Content: "Family business since 1998."}}},
		Citations: []string{"https://societe.example/atelier"},
	}, nil)

	gen := newStageGenerator().on(StageAnalysis, analysisJSON)
	in := websiteLead()
	in.AuditReport = &model.AuditReport{Summary: "cached"}

	_, res := newTestStages(gen, WithResearch(research)).Analyze(context.Background(), in, "ctx", "")

	require.True(t, res.Deep.OK())
	prompt := gen.last(StageAnalysis).Turns[0].Text
	assert.Contains(t, prompt, "Web research notes:\nFamily business since 1998.")
	assert.Contains(t, prompt, "https://societe.example/atelier")
	research.AssertExpectations(t)
}

func TestAnalyze_ResearchFailureIsIgnored(t *testing.T) {
	research := &mockPerplexityClient{}
	research.On("ChatCompletion", mock.Anything, mock.Anything).Return(nil, errors.New("perplexity: 500"))

	gen := newStageGenerator().on(StageAnalysis, analysisJSON)
	in := websiteLead()
	in.Website = ""

	_, res := newTestStages(gen, WithResearch(research)).Analyze(context.Background(), in, "ctx", "")

	require.True(t, res.Deep.OK())
	assert.NotContains(t, gen.last(StageAnalysis).Turns[0].Text, "Web research notes")
}
