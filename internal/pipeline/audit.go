package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/ai"
	"github.com/sells-group/prospect-cli/internal/model"
)

// DefaultAuditReport is returned when an audit fails.
func DefaultAuditReport() model.AuditReport {
	return model.AuditReport{
		CriticalIssues: []string{},
		PositivePoints: []string{},
		Summary:        "Error",
	}
}

// NormalizeURL trims raw and prefixes https:// when it has no scheme.
func NormalizeURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", eris.New("pipeline: empty url")
	}
	if !strings.HasPrefix(strings.ToLower(u), "http") {
		u = "https://" + u
	}
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "", eris.Errorf("pipeline: invalid url %q", raw)
	}
	return u, nil
}

// HostName returns the host of a normalized URL without a leading www.
func HostName(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return u
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

// Audit scores a website. It depends only on the URL and language, so callers
// cache the report on the lead and re-run it only when asked to.
func (s *Stages) Audit(ctx context.Context, siteURL, lang string) Outcome[model.AuditReport] {
	ctx, cancel := s.stageContext(ctx)
	defer cancel()

	lang = s.language(lang)
	prompt := fmt.Sprintf(auditPrompt, siteURL, ai.LanguageName(lang))
	if page := s.readPage(ctx, siteURL); page != "" {
		prompt += fmt.Sprintf(auditPageSection, page)
	}

	report, err := ai.Extract(ctx, s.gen, ai.Request{
		Model:       s.cfg.ReasoningModel,
		System:      auditSystem,
		CacheSystem: true,
		Turns:       []ai.Turn{ai.UserTurn(prompt)},
		Stage:       StageAudit,
	}, auditSchema, DefaultAuditReport())
	if err != nil {
		zap.L().Warn("pipeline: audit failed, using default", zap.String("url", siteURL), zap.Error(err))
		return defaulted(DefaultAuditReport(), eris.Wrap(err, "pipeline: audit"))
	}

	if report.CriticalIssues == nil {
		report.CriticalIssues = []string{}
	}
	if report.PositivePoints == nil {
		report.PositivePoints = []string{}
	}
	return succeeded(report)
}

// readPage fetches page markdown through the reader, truncated to the
// configured size. Failures leave the audit ungrounded.
func (s *Stages) readPage(ctx context.Context, siteURL string) string {
	if s.reader == nil {
		return ""
	}
	resp, err := s.reader.Read(ctx, siteURL)
	if err != nil {
		zap.L().Warn("pipeline: page read failed, auditing ungrounded", zap.String("url", siteURL), zap.Error(err))
		return ""
	}
	return truncateRunes(strings.TrimSpace(resp.Data.Content), s.cfg.AuditPageChars)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
