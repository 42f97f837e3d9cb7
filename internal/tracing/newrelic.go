package tracing

import (
	"context"
	"time"

	"example.com/backstage/services/commerce/config"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Tracer defines the interface for tracing
type Tracer interface {
	Application() *newrelic.Application
	StartTransaction(ctx context.Context, name string) (context.Context, *newrelic.Transaction)
	RecordError(ctx context.Context, err error)
	AddAttribute(ctx context.Context, key string, value interface{})
	Close()
}

// NewRelicTracer implements Tracer using New Relic
type NewRelicTracer struct {
	app     *newrelic.Application
	enabled bool
	log     *logrus.Logger
}

// NewTracer creates a new tracer. A missing license key or a disabled
// config returns a tracer whose methods do nothing.
func NewTracer(cfg config.NewRelicConfig, log *logrus.Logger) (*NewRelicTracer, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		log.Warn("New Relic license key not provided or disabled, tracing will be disabled")
		return &NewRelicTracer{log: log}, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize New Relic")
	}

	return &NewRelicTracer{app: app, enabled: true, log: log}, nil
}

// Application returns the agent application, nil when disabled.
func (t *NewRelicTracer) Application() *newrelic.Application {
	return t.app
}

// StartTransaction starts a background transaction and attaches it to ctx
func (t *NewRelicTracer) StartTransaction(ctx context.Context, name string) (context.Context, *newrelic.Transaction) {
	if !t.enabled || t.app == nil {
		return ctx, nil
	}
	txn := t.app.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), txn
}

// RecordError records an error on the transaction in ctx
func (t *NewRelicTracer) RecordError(ctx context.Context, err error) {
	if !t.enabled || err == nil {
		return
	}
	if txn := newrelic.FromContext(ctx); txn != nil {
		txn.NoticeError(err)
	}
}

// AddAttribute adds an attribute to the transaction in ctx
func (t *NewRelicTracer) AddAttribute(ctx context.Context, key string, value interface{}) {
	if !t.enabled {
		return
	}
	if txn := newrelic.FromContext(ctx); txn != nil {
		txn.AddAttribute(key, value)
	}
}

// Close flushes pending data to New Relic
func (t *NewRelicTracer) Close() {
	if !t.enabled || t.app == nil {
		return
	}
	t.app.Shutdown(10 * time.Second)
	t.log.Info("New Relic tracer shutdown")
}

// StartSegment opens a segment on the transaction carried by ctx, if any.
// The returned func ends it.
func StartSegment(ctx context.Context, name string) func() {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return func() {}
	}
	seg := txn.StartSegment(name)
	return seg.End
}
