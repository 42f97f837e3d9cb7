package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LocalPublisher delivers events to an in-process handler on its own
// goroutine. It is used when no Service Bus is configured.
type LocalPublisher struct {
	mu      sync.RWMutex
	handler Handler
	timeout time.Duration
	wg      sync.WaitGroup
	log     *logrus.Logger
}

// NewLocalPublisher creates a publisher; events published before Subscribe are logged and dropped.
// A non-positive timeout means 30s per handler call.
func NewLocalPublisher(timeout time.Duration, log *logrus.Logger) *LocalPublisher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LocalPublisher{timeout: timeout, log: log}
}

// Subscribe sets the handler that receives every event.
func (p *LocalPublisher) Subscribe(handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = handler
}

// Publish returns immediately; the handler runs detached from ctx.
func (p *LocalPublisher) Publish(_ context.Context, event Event) error {
	p.mu.RLock()
	handler := p.handler
	p.mu.RUnlock()

	entry := p.log.WithFields(logrus.Fields{"event_type": event.Type, "aggregate_id": event.AggregateID})
	if handler == nil {
		entry.Warn("No local event handler subscribed, dropping event")
		return nil
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := handler(ctx, event); err != nil {
			entry.WithError(err).Warn("Local event handler failed")
		}
	}()
	return nil
}

// Close waits for in-flight handlers.
func (p *LocalPublisher) Close() error {
	p.wg.Wait()
	return nil
}
