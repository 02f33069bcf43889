package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sma-appointments-api/internal/dto"
)

// SnapshotRepository fans appointment snapshots out over a Redis pub/sub channel
// so every API instance can feed its live dashboards.
type SnapshotRepository struct {
	client  *redis.Client
	channel string
}

// NewSnapshotRepository constructs the repository for the given channel.
func NewSnapshotRepository(client *redis.Client, channel string) *SnapshotRepository {
	return &SnapshotRepository{client: client, channel: channel}
}

// Publish sends the snapshot to all subscribers.
func (r *SnapshotRepository) Publish(ctx context.Context, snapshot dto.AppointmentSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish snapshot on %s: %w", r.channel, err)
	}
	return nil
}

// Subscribe returns a channel of snapshots and a function releasing the
// subscription. The channel is closed once the subscription ends.
func (r *SnapshotRepository) Subscribe(ctx context.Context) (<-chan dto.AppointmentSnapshot, func() error, error) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	out := make(chan dto.AppointmentSnapshot, 1)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var snapshot dto.AppointmentSnapshot
			if err := json.Unmarshal([]byte(msg.Payload), &snapshot); err != nil {
				continue
			}
			select {
			case out <- snapshot:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, pubsub.Close, nil
}
