package services

import (
	"context"
	"encoding/json"
	"fmt"

	"annex-backend/models"
	"annex-backend/repository"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// NotificationConsumer turns settlement events into notification rows. It
// lives off the critical path: settlement never waits on it, and a consumer
// failure only delays notifications.
type NotificationConsumer struct {
	reader        *kafkago.Reader
	notifications repository.NotificationRepository
	logger        *zap.Logger
	topic         string
}

func NewNotificationConsumer(brokers []string, topic, groupID string, notifications repository.NotificationRepository, logger *zap.Logger) *NotificationConsumer {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	logger.Info("notification consumer initialized",
		zap.String("topic", topic),
		zap.Strings("brokers", brokers),
		zap.String("group_id", groupID),
	)
	return &NotificationConsumer{reader: r, notifications: notifications, logger: logger, topic: topic}
}

// Start blocks reading messages until ctx is cancelled.
func (c *NotificationConsumer) Start(ctx context.Context) {
	c.logger.Info("notification consumer started", zap.String("topic", c.topic))
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("notification consumer stopped")
				return
			}
			c.logger.Warn("error reading settlement event", zap.Error(err))
			continue
		}

		var event models.PaymentEvent
		if err := json.Unmarshal(m.Value, &event); err != nil {
			c.logger.Warn("invalid settlement event JSON",
				zap.Error(err),
				zap.String("payload", string(m.Value)),
			)
			continue
		}

		if err := c.handleEvent(ctx, event); err != nil {
			c.logger.Error("failed to store notification",
				zap.String("charge_id", event.ChargeID),
				zap.Error(err),
			)
		}
	}
}

func (c *NotificationConsumer) handleEvent(ctx context.Context, event models.PaymentEvent) error {
	studentID, err := uuid.Parse(event.StudentID)
	if err != nil {
		return fmt.Errorf("invalid student id %q: %w", event.StudentID, err)
	}

	notification := &models.Notification{
		UserID: studentID,
		Type:   event.Type,
	}

	switch event.Type {
	case "purchase_completed":
		notification.Title = "Purchase confirmed"
		notification.Description = fmt.Sprintf("Your payment of MWK %.2f was received. The lesson is now unlocked.", event.Amount)
	case "purchase_failed":
		notification.Title = "Payment failed"
		notification.Description = "Your payment could not be completed. Please try again."
	default:
		c.logger.Info("ignoring settlement event type", zap.String("type", event.Type))
		return nil
	}

	return c.notifications.Create(ctx, notification)
}

func (c *NotificationConsumer) Close() {
	_ = c.reader.Close()
}
