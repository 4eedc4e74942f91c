package cache

import (
	"context"
	"fmt"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/ports"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

var _ ports.Notifier = (*RedisNotifier)(nil)

// RedisNotifier publishes finalized routes for in-cluster subscribers.
// A nil client makes it a no-op.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

type finalizedEvent struct {
	RouteNumber string  `json:"route_number"`
	Stops       int     `json:"stops"`
	Orders      string  `json:"orders"`
	WeightKg    float64 `json:"weight"`
	DistanceKm  float64 `json:"distance_km"`
	DurationH   float64 `json:"duration_h"`
}

func (n *RedisNotifier) NotifySales(ctx context.Context, r domain.PlannedRoute) error {
	if n.client == nil {
		return nil
	}

	data, err := json.Marshal(finalizedEvent{
		RouteNumber: r.RouteNumber,
		Stops:       len(r.Stops),
		Orders:      r.OrderCount,
		WeightKg:    r.Weight,
		DistanceKm:  r.DistanceKm,
		DurationH:   r.DurationH,
	})
	if err != nil {
		return fmt.Errorf("publish finalized route: encode: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, data).Err(); err != nil {
		return fmt.Errorf("publish finalized route: %w", err)
	}
	return nil
}
