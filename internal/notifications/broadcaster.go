package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/bloodbank-backend/internal/inventory"
	"github.com/angelmondragon/bloodbank-backend/pkg/logger"
	"github.com/angelmondragon/bloodbank-backend/pkg/redis"
)

const stockChangedMessageType = "stock_balance_changed"

// StockChangeMessage is the JSON published on the live stock channel.
type StockChangeMessage struct {
	Type        string                  `json:"type"`
	Data        inventory.BalanceChange `json:"data"`
	PublishedAt time.Time               `json:"published_at"`
}

// Broadcaster pushes committed balance changes to Redis subscribers.
type Broadcaster struct {
	pub     redis.Publisher
	channel string
	logg    *logger.Logger
	now     func() time.Time
}

// NewBroadcaster returns a live change publisher for channel.
func NewBroadcaster(pub redis.Publisher, channel string, logg *logger.Logger) (*Broadcaster, error) {
	if pub == nil {
		return nil, fmt.Errorf("redis publisher required")
	}
	if strings.TrimSpace(channel) == "" {
		return nil, fmt.Errorf("notify channel required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Broadcaster{
		pub:     pub,
		channel: channel,
		logg:    logg,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Publish implements inventory.ChangeNotifier.
func (b *Broadcaster) Publish(ctx context.Context, change inventory.BalanceChange) error {
	payload, err := json.Marshal(StockChangeMessage{
		Type:        stockChangedMessageType,
		Data:        change,
		PublishedAt: b.now(),
	})
	if err != nil {
		return fmt.Errorf("marshal stock change: %w", err)
	}
	receivers, err := b.pub.Publish(ctx, b.channel, payload)
	if err != nil {
		return fmt.Errorf("publish stock change: %w", err)
	}
	b.logg.Debug(b.logg.WithFields(ctx, map[string]any{
		"channel":   b.channel,
		"receivers": receivers,
	}), "stock change broadcast")
	return nil
}
