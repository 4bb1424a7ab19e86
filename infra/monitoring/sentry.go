package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/outages/config"
	coremon "github.com/kilianp07/outages/core/monitoring"
)

// NewSentryMonitor returns a Sentry backed Monitor, or a NopMonitor when no
// DSN is configured. Every captured event carries the configured group.
func NewSentryMonitor(cfg config.SentryConfig, group string) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}
	if group != "" {
		sentry.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag("group", group)
		})
	}
	return &sentryMonitor{flushTimeout: 2 * time.Second}, nil
}

type sentryMonitor struct {
	flushTimeout time.Duration
}

func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

func (s *sentryMonitor) Recover() {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(s.flushTimeout)
		panic(r)
	}
}

func (s *sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }
