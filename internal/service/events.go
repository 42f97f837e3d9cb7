package service

import (
	"context"
	"fmt"

	"example.com/backstage/services/commerce/internal/messaging"
	"example.com/backstage/services/commerce/internal/notify"

	"github.com/sirupsen/logrus"
)

// HandleEvent runs the side effects of a committed transaction. Only a
// failure to load the aggregate is returned, so the event can be
// redelivered; email and indexing failures are logged.
func (s *service) HandleEvent(ctx context.Context, event messaging.Event) error {
	entry := s.log.WithFields(logrus.Fields{
		"event_id":     event.ID,
		"event_type":   event.Type,
		"aggregate_id": event.AggregateID,
	})

	switch event.Type {
	case messaging.EventOrderPaid:
		order, err := s.repo.FindOrderByID(ctx, event.AggregateID)
		if err != nil {
			return fmt.Errorf("load order %s: %w", event.AggregateID, err)
		}

		if s.indexer != nil {
			if err := s.indexer.IndexOrder(ctx, order); err != nil {
				entry.WithError(err).Warn("Order not indexed")
			}
		}
		if s.mailer == nil {
			return nil
		}

		if s.app.AdminEmail != "" {
			alert, err := notify.AdminOrderAlert(order, s.app.AdminEmail)
			if err == nil {
				err = s.mailer.Send(ctx, alert)
			}
			if err != nil {
				entry.WithError(err).Warn("Admin order alert not sent")
			}
		}
		if order.CustomerEmail != "" {
			receipt, err := notify.OrderReceipt(order)
			if err == nil {
				err = s.mailer.Send(ctx, receipt)
			}
			if err != nil {
				entry.WithError(err).Warn("Order receipt not sent")
			}
		}

	case messaging.EventProductionLogged:
		run, err := s.repo.FindProductionRun(ctx, event.AggregateID)
		if err != nil {
			return fmt.Errorf("load production run %s: %w", event.AggregateID, err)
		}
		if s.indexer != nil {
			if err := s.indexer.IndexProductionRun(ctx, run); err != nil {
				entry.WithError(err).Warn("Production run not indexed")
			}
		}

	default:
		entry.Warn("Ignoring unknown event type")
		return nil
	}

	entry.Debug("Event handled")
	return nil
}
