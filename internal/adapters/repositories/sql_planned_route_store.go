package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/platform/logging"
	"route-planning-service/internal/platform/obs"
	"route-planning-service/internal/ports"

	"github.com/goccy/go-json"
)

var _ ports.PlannedRouteStore = (*SQLPlannedRouteStore)(nil)

// SQLPlannedRouteStore archives finalized routes in postgres, keyed by route number.
type SQLPlannedRouteStore struct {
	DB *sql.DB
}

func NewSQLPlannedRouteStore(db *sql.DB) *SQLPlannedRouteStore {
	return &SQLPlannedRouteStore{DB: db}
}

type stopRecord struct {
	Lat    float64        `json:"lat"`
	Lng    float64        `json:"lng"`
	Name   string         `json:"name"`
	Orders []domain.Order `json:"orders"`
}

func (s *SQLPlannedRouteStore) SavePlannedRoute(ctx context.Context, r domain.PlannedRoute) (err error) {
	defer obs.Time(ctx, "planned_routes.Save")(&err)
	return s.upsert(ctx, r)
}

// UpdatePlannedRoute overwrites the archived row for the same route number.
func (s *SQLPlannedRouteStore) UpdatePlannedRoute(ctx context.Context, r domain.PlannedRoute) (err error) {
	defer obs.Time(ctx, "planned_routes.Update")(&err)
	return s.upsert(ctx, r)
}

func (s *SQLPlannedRouteStore) upsert(ctx context.Context, r domain.PlannedRoute) error {
	if s.DB == nil {
		return errors.New("planned route store: db is nil")
	}

	number := strings.TrimSpace(r.RouteNumber)
	if number == "" {
		return errors.New("store planned route: route number must not be empty")
	}

	stops := make([]stopRecord, 0, len(r.Stops))
	for _, st := range r.Stops {
		stops = append(stops, stopRecord{Lat: st.Lat, Lng: st.Lng, Name: st.Name, Orders: st.Orders})
	}
	stopsJSON, err := json.Marshal(stops)
	if err != nil {
		return fmt.Errorf("store planned route %q: encode stops: %w", number, err)
	}

	orderCount, err := strconv.Atoi(r.OrderCount)
	if err != nil {
		orderCount = 0
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store planned route: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO planned_routes (
		route_number, geometry, stops, order_count, weight, distance_km, duration_h, load_percent, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
	ON CONFLICT (route_number) DO UPDATE
	SET geometry = EXCLUDED.geometry,
		stops = EXCLUDED.stops,
		order_count = EXCLUDED.order_count,
		weight = EXCLUDED.weight,
		distance_km = EXCLUDED.distance_km,
		duration_h = EXCLUDED.duration_h,
		load_percent = EXCLUDED.load_percent,
		updated_at = now();
	`, number, r.Geometry, string(stopsJSON), orderCount, r.Weight, r.DistanceKm, r.DurationH, r.LoadPercent)
	if err != nil {
		return fmt.Errorf("store planned route %q: %w", number, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store planned route %q commit: %w", number, err)
	}

	return nil
}

// ArchivingStore writes to Primary and then to Archive. An archive failure is
// logged and does not fail the call.
type ArchivingStore struct {
	Primary ports.PlannedRouteStore
	Archive ports.PlannedRouteStore
}

func (a ArchivingStore) SavePlannedRoute(ctx context.Context, r domain.PlannedRoute) error {
	if err := a.Primary.SavePlannedRoute(ctx, r); err != nil {
		return err
	}
	if a.Archive != nil {
		if err := a.Archive.SavePlannedRoute(ctx, r); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("route", r.RouteNumber).Msg("archive planned route failed")
		}
	}
	return nil
}

func (a ArchivingStore) UpdatePlannedRoute(ctx context.Context, r domain.PlannedRoute) error {
	if err := a.Primary.UpdatePlannedRoute(ctx, r); err != nil {
		return err
	}
	if a.Archive != nil {
		if err := a.Archive.UpdatePlannedRoute(ctx, r); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("route", r.RouteNumber).Msg("archive planned route failed")
		}
	}
	return nil
}
