package payment

import (
	"context"
	"errors"
	"time"

	"example.com/backstage/services/commerce/config"
	"example.com/backstage/services/commerce/internal/metrics"

	"github.com/sirupsen/logrus"
)

// Poller waits for a pushed mobile-money charge to settle by checking its
// status at a fixed interval for a fixed number of attempts.
type Poller struct {
	gateway  Gateway
	interval time.Duration
	attempts int
	metrics  *metrics.Metrics
	log      *logrus.Logger
}

// NewPoller creates a poller. attempts below one are treated as one.
func NewPoller(gateway Gateway, interval time.Duration, attempts int, m *metrics.Metrics, log *logrus.Logger) *Poller {
	if attempts < 1 {
		attempts = 1
	}
	return &Poller{
		gateway:  gateway,
		interval: interval,
		attempts: attempts,
		metrics:  m,
		log:      log,
	}
}

// Waiting reports whether a charge in status may still succeed.
func Waiting(status string) bool {
	switch status {
	case StatusPending, StatusSendOTP, StatusPayOffline:
		return true
	}
	return false
}

// AwaitSuccess returns once the charge reports success. Any other settled
// status, or running out of attempts, yields a NotConfirmedError. A failed
// status check counts as an attempt; a ConfigurationError or a cancelled ctx
// stops polling at once.
func (p *Poller) AwaitSuccess(ctx context.Context, reference string) (*ChargeResult, error) {
	lastStatus := StatusPending
	var lastErr error

	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err := sleep(ctx, p.interval); err != nil {
			return nil, err
		}

		result, err := p.gateway.CheckCharge(ctx, reference)
		if err != nil {
			if errors.Is(err, config.ErrMissingSetting) || ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			p.metrics.RecordPaymentPoll("error")
			p.log.WithFields(logrus.Fields{
				"reference": reference,
				"attempt":   attempt,
				"error":     err.Error(),
			}).Warn("Charge status check failed")
			continue
		}

		lastStatus = result.Status
		p.metrics.RecordPaymentPoll(result.Status)
		p.log.WithFields(logrus.Fields{
			"reference": reference,
			"attempt":   attempt,
			"status":    result.Status,
		}).Debug("Polled charge status")

		switch {
		case result.Status == StatusSuccess:
			return result, nil
		case Waiting(result.Status):
			continue
		default:
			return nil, &NotConfirmedError{
				Reference: reference,
				Status:    result.Status,
				Attempts:  attempt,
				Reason:    firstNonEmpty(result.DisplayText, result.Message),
			}
		}
	}

	notConfirmed := &NotConfirmedError{
		Reference: reference,
		Status:    lastStatus,
		Attempts:  p.attempts,
		Reason:    "timed out waiting for confirmation",
	}
	if lastErr != nil {
		notConfirmed.Reason = "last status check failed: " + lastErr.Error()
	}
	return nil, notConfirmed
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
