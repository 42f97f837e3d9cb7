package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"example.com/backstage/services/commerce/config"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/sirupsen/logrus"
)

// ServiceBusPublisher sends events to an Azure Service Bus queue.
type ServiceBusPublisher struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	queueName string
	source    string
}

// NewServiceBusPublisher creates a publisher for the configured queue
func NewServiceBusPublisher(cfg config.ServiceBusConfig, source string) (*ServiceBusPublisher, error) {
	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus sender: %w", err)
	}

	return &ServiceBusPublisher{
		client:    client,
		sender:    sender,
		queueName: cfg.QueueName,
		source:    source,
	}, nil
}

// Publish sends the event as a JSON message
func (p *ServiceBusPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	messageID := event.ID
	contentType := "application/json"
	subject := string(event.Type)
	msg := &azservicebus.Message{
		MessageID:   &messageID,
		ContentType: &contentType,
		Subject:     &subject,
		Body:        data,
		ApplicationProperties: map[string]interface{}{
			"source": p.source,
			"time":   time.Now().UTC().Format(time.RFC3339),
		},
	}

	return p.sender.SendMessage(ctx, msg, nil)
}

// Close closes the sender and the client
func (p *ServiceBusPublisher) Close() error {
	if p.sender != nil {
		if err := p.sender.Close(context.Background()); err != nil {
			return err
		}
	}
	if p.client != nil {
		return p.client.Close(context.Background())
	}
	return nil
}

// ServiceBusConsumer receives events from an Azure Service Bus queue.
type ServiceBusConsumer struct {
	client    *azservicebus.Client
	queueName string
	batchSize int
	log       *logrus.Logger
}

// NewServiceBusConsumer creates a consumer for the configured queue
func NewServiceBusConsumer(cfg config.ServiceBusConfig, log *logrus.Logger) (*ServiceBusConsumer, error) {
	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("Azure Service Bus connection string is empty")
	}
	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
	}
	return &ServiceBusConsumer{
		client:    client,
		queueName: cfg.QueueName,
		batchSize: 10,
		log:       log,
	}, nil
}

// Run receives messages until ctx is cancelled. Messages the handler fails
// on are abandoned for redelivery; undecodable messages are dead-lettered.
func (c *ServiceBusConsumer) Run(ctx context.Context, handler Handler) error {
	receiver, err := c.client.NewReceiverForQueue(c.queueName, nil)
	if err != nil {
		return fmt.Errorf("failed to create Service Bus receiver: %w", err)
	}
	defer receiver.Close(context.Background())

	c.log.WithField("queue", c.queueName).Info("Consuming events")

	for {
		messages, err := receiver.ReceiveMessages(ctx, c.batchSize, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var sbErr *azservicebus.Error
			if errors.As(err, &sbErr) && sbErr.Code == azservicebus.CodeTimeout {
				continue
			}
			return fmt.Errorf("failed to receive messages: %w", err)
		}

		for _, msg := range messages {
			c.handle(ctx, receiver, msg, handler)
		}
	}
}

func (c *ServiceBusConsumer) handle(ctx context.Context, receiver *azservicebus.Receiver, msg *azservicebus.ReceivedMessage, handler Handler) {
	entry := c.log.WithField("message_id", msg.MessageID)

	var event Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		entry.WithError(err).Error("Undecodable event, dead-lettering")
		if err := receiver.DeadLetterMessage(ctx, msg, nil); err != nil {
			entry.WithError(err).Error("Failed to dead-letter message")
		}
		return
	}

	entry = entry.WithFields(logrus.Fields{"event_type": event.Type, "aggregate_id": event.AggregateID})
	if err := handler(ctx, event); err != nil {
		entry.WithError(err).Warn("Event handler failed, abandoning message")
		if err := receiver.AbandonMessage(ctx, msg, nil); err != nil {
			entry.WithError(err).Error("Failed to abandon message")
		}
		return
	}

	if err := receiver.CompleteMessage(ctx, msg, nil); err != nil {
		entry.WithError(err).Error("Failed to complete message")
	}
}

// Close closes the underlying client
func (c *ServiceBusConsumer) Close() error {
	return c.client.Close(context.Background())
}
