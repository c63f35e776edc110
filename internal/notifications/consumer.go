package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/bloodbank-backend/pkg/db"
	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	"github.com/angelmondragon/bloodbank-backend/pkg/logger"
	"github.com/angelmondragon/bloodbank-backend/pkg/outbox"
	"github.com/angelmondragon/bloodbank-backend/pkg/outbox/payloads"
)

const stockAlertConsumer = "stock-alerts"

type repository interface {
	Create(ctx context.Context, alert *models.StockAlert) error
}

type idempotencyGuard interface {
	CheckAndMarkProcessed(ctx context.Context, scope string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, scope string, eventID uuid.UUID) error
}

// Consumer turns stock_low domain events into persisted stock alerts.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  idempotencyGuard
	logg         *logger.Logger
}

// NewConsumer builds a stock alert consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, guard idempotencyGuard, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("alerts repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("alerts subscription required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  guard,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg.ID, msg.Attributes, msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, messageID string, attrs map[string]string, data []byte) processResult {
	eventType := attrs["event_type"]
	fields := map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if eventType != string(enums.EventStockLow) {
		c.logg.Debug(logCtx, "skipping non-alert event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, stockAlertConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload payloads.StockLowEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	if !payload.BloodGroup.IsValid() {
		c.logg.Warn(logCtx, "stock low event without a known blood group")
		return processResult{ack: true}
	}
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"blood_group": payload.BloodGroup,
		"status":      payload.Status,
	})

	raisedAt := envelope.OccurredAt.UTC()
	if raisedAt.IsZero() {
		raisedAt = time.Now().UTC()
	}
	alert := &models.StockAlert{
		EventID:           eventID,
		BloodGroup:        payload.BloodGroup,
		Status:            payload.Status,
		UnitsAvailable:    payload.UnitsAvailable,
		LowStockThreshold: payload.LowStockThreshold,
		CreatedAt:         raisedAt,
	}
	if err := c.repo.Create(ctx, alert); err != nil {
		if db.IsUniqueViolation(err, "stock_alerts_event_id_key") {
			c.logg.Info(logCtx, "alert already stored")
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "alert insert failed", err)
		_ = c.idempotency.Delete(ctx, stockAlertConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "stock alert raised")
	return processResult{ack: true}
}
