package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestLocalPublisherDeliversAsynchronously(t *testing.T) {
	log, _ := test.NewNullLogger()
	p := NewLocalPublisher(time.Second, log)

	received := make(chan Event, 1)
	p.Subscribe(func(ctx context.Context, e Event) error {
		received <- e
		return nil
	})

	event := NewEvent(EventOrderPaid, "order-1")
	require.NoError(t, p.Publish(context.Background(), event))

	select {
	case got := <-received:
		require.Equal(t, event.ID, got.ID)
		require.Equal(t, EventOrderPaid, got.Type)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	require.NoError(t, p.Close())
}

func TestLocalPublisherSwallowsHandlerErrors(t *testing.T) {
	log, hook := test.NewNullLogger()
	p := NewLocalPublisher(time.Second, log)

	var calls int32
	p.Subscribe(func(ctx context.Context, e Event) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("smtp down")
	})

	require.NoError(t, p.Publish(context.Background(), NewEvent(EventProductionLogged, "run-1")))
	require.NoError(t, p.Close())
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.NotNil(t, hook.LastEntry())
	require.Equal(t, "Local event handler failed", hook.LastEntry().Message)
}

func TestLocalPublisherWithoutHandler(t *testing.T) {
	log, _ := test.NewNullLogger()
	p := NewLocalPublisher(time.Second, log)
	require.NoError(t, p.Publish(context.Background(), NewEvent(EventOrderPaid, "x")))
	require.NoError(t, p.Close())
}
