package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/antoniostano/hearth/internal/calendar"
	"github.com/antoniostano/hearth/internal/config"
	"github.com/antoniostano/hearth/internal/httpapi"
	"github.com/antoniostano/hearth/internal/imagegen"
	"github.com/antoniostano/hearth/internal/live"
	"github.com/antoniostano/hearth/internal/observability"
	"github.com/antoniostano/hearth/internal/session"
	"github.com/antoniostano/hearth/internal/store"
	"github.com/antoniostano/hearth/internal/webhook"
)

type BuildResult struct {
	Config       config.Config
	API          *httpapi.Server
	Sessions     *session.Manager
	Orchestrator *live.Orchestrator
	Metrics      *observability.Metrics
	Backend      string

	// Cleanup should be called on shutdown to release external resources (DB, HTTP clients, etc).
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	st, err := store.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("store init failed: %w", err)
	}

	var (
		transport live.Transport
		generator imagegen.Generator
		backend   string
	)
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		t, err := live.NewGenAITransport(ctx, cfg.GeminiAPIKey)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("live transport init failed: %w", err)
		}
		g, err := imagegen.NewGenAIGenerator(ctx, cfg.GeminiAPIKey, imagegen.Models{
			Image:    cfg.ImageModel,
			Advanced: cfg.AdvancedModel,
			Fast:     cfg.FastModel,
			TTS:      cfg.TTSModel,
		})
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("generator init failed: %w", err)
		}
		transport, generator, backend = t, g, "gemini"
	} else {
		transport, generator, backend = live.NewMockTransport(), imagegen.NewMockGenerator(), "mock"
	}

	var endpoints []webhook.Endpoint
	if strings.TrimSpace(cfg.WebhookURL) != "" {
		endpoints = append(endpoints, webhook.Endpoint{
			ID:            "primary",
			URL:           cfg.WebhookURL,
			SigningSecret: cfg.WebhookSigningSecret,
		})
	}
	webhooks := webhook.NewDispatcher(endpoints, cfg.WebhookTimeout)
	webhooks.SetOnDone(func(kind webhook.EventKind, _ string, err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.WebhookDeliveries.WithLabelValues(string(kind), outcome).Inc()
	})

	cal := calendar.NewRelay(cfg.CalendarRelayURL, cfg.WebhookTimeout)

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	orchestrator := live.NewOrchestrator(
		cfg,
		transport,
		generator,
		sessions,
		st,
		webhooks,
		cal,
		metrics,
	)

	api := httpapi.New(cfg, sessions, orchestrator, metrics)

	cleanup := func() error {
		var errs []string
		if err := st.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:       cfg,
		API:          api,
		Sessions:     sessions,
		Orchestrator: orchestrator,
		Metrics:      metrics,
		Backend:      backend,
		Cleanup:      cleanup,
	}, nil
}
