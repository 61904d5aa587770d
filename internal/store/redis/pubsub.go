// Package redis carries the cross-instance fan-out for the activity feed.
// Each API instance publishes audit events to a per-organization channel;
// websocket hubs on every instance subscribe and forward to their clients.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/jpd-dfo/spacos/internal/domain"
)

// activityBuffer bounds the per-subscriber queue. A websocket client that
// stops reading loses events instead of stalling the forwarder.
const activityBuffer = 64

type PubSub struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &PubSub{client: client}, nil
}

// Client exposes the underlying connection so other components (the lookup
// cache) can share it.
func (ps *PubSub) Client() *redis.Client {
	return ps.client
}

func (ps *PubSub) Close() error {
	if err := ps.client.Close(); err != nil {
		return fmt.Errorf("redis.PubSub.Close: %w", err)
	}
	return nil
}

// PublishActivity serializes an audit entry onto the organization's
// activity channel. Delivery is best effort: a publish failure is logged,
// never surfaced to the mutation that produced the entry.
func (ps *PubSub) PublishActivity(ctx context.Context, organizationID uuid.UUID, entry *domain.AuditEntry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Msg("redis: encoding activity event")
		return
	}

	err = ps.client.Publish(ctx, ActivityChannel(organizationID), payload).Err()
	if err != nil {
		log.Error().Err(err).Str("organization_id", organizationID.String()).Msg("redis: publishing activity event")
	}
}

// SubscribeActivity streams an organization's activity events until the
// context is cancelled. The returned cleanup closes the subscription; the
// event channel closes after it.
func (ps *PubSub) SubscribeActivity(ctx context.Context, organizationID uuid.UUID) (<-chan []byte, func(), error) {
	sub := ps.client.Subscribe(ctx, ActivityChannel(organizationID))

	// Receive blocks until the server confirms the subscription, so a
	// successful return means no published event is silently missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.PubSub.SubscribeActivity: %w", err)
	}

	events := make(chan []byte, activityBuffer)
	go forward(ctx, sub.Channel(), events)

	return events, func() { _ = sub.Close() }, nil
}

func forward(ctx context.Context, in <-chan *redis.Message, out chan<- []byte) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}
}

// ActivityChannel returns the Redis channel name for an organization's
// activity feed.
func ActivityChannel(organizationID uuid.UUID) string {
	return "activity:" + organizationID.String()
}
