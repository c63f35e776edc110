package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/angelmondragon/bloodbank-backend/internal/inventory"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
)

type fakePublisher struct {
	channel string
	payload []byte
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, payload []byte) (int64, error) {
	f.channel = channel
	f.payload = payload
	return 1, f.err
}

func TestBroadcasterPublishesChange(t *testing.T) {
	pub := &fakePublisher{}
	b, err := NewBroadcaster(pub, "bb:stock:changes", nil)
	if err != nil {
		t.Fatalf("new broadcaster: %v", err)
	}

	change := inventory.BalanceChange{
		Balance: inventory.Balance{
			BloodGroup:        enums.BloodGroupONeg,
			UnitsAvailable:    4,
			LowStockThreshold: 10,
			Status:            enums.StockStatusLow,
		},
		Delta:          -2,
		Reason:         enums.StockReasonIssuance,
		PreviousStatus: enums.StockStatusLow,
	}
	if err := b.Publish(context.Background(), change); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if pub.channel != "bb:stock:changes" {
		t.Fatalf("unexpected channel %q", pub.channel)
	}

	var msg map[string]any
	if err := json.Unmarshal(pub.payload, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg["type"] != "stock_balance_changed" {
		t.Fatalf("unexpected type %v", msg["type"])
	}
	data := msg["data"].(map[string]any)
	if data["blood_group"] != "O-" || data["units_available"].(float64) != 4 || data["delta"].(float64) != -2 {
		t.Fatalf("unexpected data %v", data)
	}
}

func TestBroadcasterSurfacesPublishError(t *testing.T) {
	b, _ := NewBroadcaster(&fakePublisher{err: errors.New("down")}, "chan", nil)
	if err := b.Publish(context.Background(), inventory.BalanceChange{}); err == nil {
		t.Fatalf("expected publish error")
	}
}

func TestNewBroadcasterValidates(t *testing.T) {
	if _, err := NewBroadcaster(nil, "chan", nil); err == nil {
		t.Fatalf("expected error for nil publisher")
	}
	if _, err := NewBroadcaster(&fakePublisher{}, " ", nil); err == nil {
		t.Fatalf("expected error for empty channel")
	}
}
