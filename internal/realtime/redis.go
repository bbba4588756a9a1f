package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ChangeEvent is the payload pushed to realtime subscribers after a
// committed reservation or payment transition.
type ChangeEvent struct {
	Kind      string `json:"kind"`
	BookingID int64  `json:"booking_id"`
	PaymentID int64  `json:"payment_id,omitempty"`
	FieldID   int64  `json:"field_id"`
	Date      string `json:"date"`
	Status    string `json:"status,omitempty"`
}

// Publisher fans a change event out over Redis pub/sub channels.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) PublishBranch(ctx context.Context, branchID int64, event ChangeEvent) error {
	return p.publish(ctx, fmt.Sprintf("branch:%d", branchID), event)
}

func (p *Publisher) PublishUser(ctx context.Context, userID int64, event ChangeEvent) error {
	return p.publish(ctx, fmt.Sprintf("user:%d", userID), event)
}

func (p *Publisher) PublishAvailability(ctx context.Context, fieldID int64, date string, event ChangeEvent) error {
	return p.publish(ctx, fmt.Sprintf("availability:%d:%s", fieldID, date), event)
}

func (p *Publisher) publish(ctx context.Context, channel string, event ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, channel, payload).Err()
}
