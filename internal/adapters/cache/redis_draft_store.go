package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/platform/obs"
	"route-planning-service/internal/ports"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

var _ ports.DraftStore = (*RedisDraftStore)(nil)

const draftKeyPrefix = "draft:"

// RedisDraftStore keeps one in-progress route edit per key (one per operator).
type RedisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{client: client, ttl: ttl}
}

type draftRecord struct {
	Name      string           `json:"name"`
	Geometry  string           `json:"geometria"`
	Waypoints []waypointRecord `json:"waypoints"`
	Summary   summaryRecord    `json:"datosResumen"`
}

type orderRecord struct {
	OrderID      string  `json:"order_id"`
	ClientName   string  `json:"client_name"`
	Weight       float64 `json:"weight"`
	LoadPercent  float64 `json:"load_percent"`
	DeliveryDate string  `json:"delivery_date,omitempty"`
	Comments     string  `json:"comments,omitempty"`
}

type waypointRecord struct {
	ID     string        `json:"id"`
	Lat    float64       `json:"lat"`
	Lng    float64       `json:"lng"`
	Name   string        `json:"name"`
	Orders []orderRecord `json:"orders"`
}

type summaryRecord struct {
	OrderCount       int     `json:"order_count"`
	TotalWeight      float64 `json:"total_weight"`
	TotalLoadPercent float64 `json:"total_load_percent"`
	DistanceMeters   float64 `json:"distance_meters"`
	DurationHours    float64 `json:"duration_hours"`
}

func (s *RedisDraftStore) LoadDraft(ctx context.Context, key string) (_ *ports.Draft, err error) {
	defer obs.Time(ctx, "draft.Load")(&err)

	if s.client == nil {
		return nil, fmt.Errorf("load draft: %w", domain.ErrNotFound)
	}

	val, err := s.client.Get(ctx, draftKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load draft %q: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load draft %q: %w", key, err)
	}

	var rec draftRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("load draft %q: decode: %w", key, err)
	}
	return rec.toDraft(), nil
}

func (s *RedisDraftStore) SaveDraft(ctx context.Context, key string, d *ports.Draft) (err error) {
	defer obs.Time(ctx, "draft.Save")(&err)

	if s.client == nil {
		return errors.New("save draft: redis unavailable")
	}
	if d == nil {
		return errors.New("save draft: draft is nil")
	}

	data, err := json.Marshal(draftToRecord(d))
	if err != nil {
		return fmt.Errorf("save draft %q: encode: %w", key, err)
	}
	if err := s.client.Set(ctx, draftKeyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft %q: %w", key, err)
	}
	return nil
}

func (s *RedisDraftStore) ClearDraft(ctx context.Context, key string) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Del(ctx, draftKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("clear draft %q: %w", key, err)
	}
	return nil
}

func draftToRecord(d *ports.Draft) draftRecord {
	rec := draftRecord{
		Name:      d.Name,
		Geometry:  d.Geometry,
		Waypoints: make([]waypointRecord, 0, len(d.Waypoints)),
		Summary: summaryRecord{
			OrderCount:       d.Summary.OrderCount,
			TotalWeight:      d.Summary.TotalWeight,
			TotalLoadPercent: d.Summary.TotalLoadPercent,
			DistanceMeters:   d.Summary.DistanceMeters,
			DurationHours:    d.Summary.DurationHours,
		},
	}
	for _, w := range d.Waypoints {
		orders := make([]orderRecord, 0, len(w.Orders))
		for _, o := range w.Orders {
			orders = append(orders, orderRecord(o))
		}
		rec.Waypoints = append(rec.Waypoints, waypointRecord{
			ID:     w.ID,
			Lat:    w.Position.Lat,
			Lng:    w.Position.Lng,
			Name:   w.Name,
			Orders: orders,
		})
	}
	return rec
}

func (rec draftRecord) toDraft() *ports.Draft {
	d := &ports.Draft{
		Name:      rec.Name,
		Geometry:  rec.Geometry,
		Waypoints: make([]*domain.Waypoint, 0, len(rec.Waypoints)),
		Summary: domain.Summary{
			OrderCount:       rec.Summary.OrderCount,
			TotalWeight:      rec.Summary.TotalWeight,
			TotalLoadPercent: rec.Summary.TotalLoadPercent,
			DistanceMeters:   rec.Summary.DistanceMeters,
			DurationHours:    rec.Summary.DurationHours,
		},
	}
	for _, w := range rec.Waypoints {
		orders := make([]domain.Order, 0, len(w.Orders))
		for _, o := range w.Orders {
			orders = append(orders, domain.Order(o))
		}
		d.Waypoints = append(d.Waypoints, &domain.Waypoint{
			ID:       w.ID,
			Position: domain.LatLng{Lat: w.Lat, Lng: w.Lng},
			Name:     w.Name,
			Orders:   orders,
		})
	}
	return d
}
