package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/ai"
	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/outreach"
	"github.com/sells-group/prospect-cli/internal/pipeline"
	"github.com/sells-group/prospect-cli/internal/prospect"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/internal/store"
	"github.com/sells-group/prospect-cli/internal/workspace"
	anthropicpkg "github.com/sells-group/prospect-cli/pkg/anthropic"
	"github.com/sells-group/prospect-cli/pkg/gmail"
	"github.com/sells-group/prospect-cli/pkg/google"
	"github.com/sells-group/prospect-cli/pkg/jina"
	"github.com/sells-group/prospect-cli/pkg/perplexity"
)

// appEnv holds the store, workspace and service used by every command.
type appEnv struct {
	Store     store.Store
	Workspace *workspace.Workspace
	Service   *prospect.Service
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates the config for mode, opens the store and workspace and
// wires the stages and outreach transport. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	ws, err := workspace.Open(ctx, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	svc := prospect.New(newStages(cfg), ws,
		prospect.WithConcurrency(cfg.Batch.MaxConcurrentLeads),
		prospect.WithDispatcher(newDispatcher(cfg, ws)),
	)

	return &appEnv{Store: st, Workspace: ws, Service: svc}, nil
}

// newStages builds the pipeline stages on the Anthropic backend behind the
// retry envelope. Grounding providers are enabled when their keys are set.
func newStages(c *config.Config) *pipeline.Stages {
	retry := resilience.FromRetryConfig(c.Retry.MaxRetries, c.Retry.InitialBackoffMs, c.Retry.MaxBackoffMs, c.Retry.Multiplier)

	gen := ai.NewInvoker(
		ai.NewAnthropicGenerator(anthropicpkg.NewClient(c.Anthropic.Key), c.Anthropic.MaxTokens),
		ai.WithRetry(retry),
		ai.WithRequestsPerMinute(c.Retry.RequestsPerMinute),
	)

	var opts []pipeline.Option
	if c.Google.PlacesKey != "" {
		opts = append(opts, pipeline.WithPlaces(google.NewClient(c.Google.PlacesKey, google.WithBaseURL(c.Google.PlacesBaseURL))))
		zap.L().Debug("google places grounding enabled")
	}
	if c.Jina.Key != "" {
		opts = append(opts, pipeline.WithReader(jina.NewClient(c.Jina.Key, jina.WithBaseURL(c.Jina.BaseURL))))
		zap.L().Debug("jina reader grounding enabled")
	}
	if c.Perplexity.Key != "" {
		opts = append(opts, pipeline.WithResearch(perplexity.NewClient(c.Perplexity.Key,
			perplexity.WithBaseURL(c.Perplexity.BaseURL),
			perplexity.WithModel(c.Perplexity.Model),
		)))
		zap.L().Debug("perplexity research enabled")
	}

	return pipeline.New(gen, pipeline.NewConfig(c), opts...)
}

// newDispatcher returns the dispatcher for the configured transport, or nil
// when the transport cannot be built.
func newDispatcher(c *config.Config, ws *workspace.Workspace) *outreach.Dispatcher {
	var mailer outreach.Mailer
	switch c.Outreach.Transport {
	case "gmail":
		client := gmail.NewClient(gmail.WithBaseURL(c.Gmail.BaseURL))
		mailer = outreach.NewGmailMailer(client, c.Gmail.AccessToken)
	case "smtp":
		if c.SMTP.Host == "" {
			zap.L().Debug("smtp transport selected without host, sending disabled")
			return nil
		}
		mailer = outreach.NewSMTPMailer(outreach.SMTPConfig{
			Host:     c.SMTP.Host,
			Port:     c.SMTP.Port,
			Username: c.SMTP.Username,
			Password: c.SMTP.Password,
			From:     c.SMTP.From,
		})
	default:
		zap.L().Debug("unknown mail transport, sending disabled", zap.String("transport", c.Outreach.Transport))
		return nil
	}
	return outreach.NewDispatcher(mailer, ws, outreach.WithSubjectFormat(c.Outreach.DefaultSubject))
}
