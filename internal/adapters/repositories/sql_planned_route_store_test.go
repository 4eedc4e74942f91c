package repositories

import (
	"context"
	"errors"
	"strings"
	"testing"

	"route-planning-service/internal/domain"
)

type fakeStore struct {
	saved, updated int
	err            error
}

func (f *fakeStore) SavePlannedRoute(ctx context.Context, r domain.PlannedRoute) error {
	f.saved++
	return f.err
}

func (f *fakeStore) UpdatePlannedRoute(ctx context.Context, r domain.PlannedRoute) error {
	f.updated++
	return f.err
}

func TestArchivingStoreIgnoresArchiveFailure(t *testing.T) {
	primary := &fakeStore{}
	archive := &fakeStore{err: errors.New("archive down")}
	s := ArchivingStore{Primary: primary, Archive: archive}

	if err := s.SavePlannedRoute(context.Background(), domain.PlannedRoute{RouteNumber: "1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.UpdatePlannedRoute(context.Background(), domain.PlannedRoute{RouteNumber: "1"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if primary.saved != 1 || primary.updated != 1 || archive.saved != 1 || archive.updated != 1 {
		t.Errorf("calls primary=%+v archive=%+v", primary, archive)
	}
}

func TestArchivingStoreSkipsArchiveOnPrimaryFailure(t *testing.T) {
	primary := &fakeStore{err: errors.New("primary down")}
	archive := &fakeStore{}
	s := ArchivingStore{Primary: primary, Archive: archive}

	if err := s.SavePlannedRoute(context.Background(), domain.PlannedRoute{}); err == nil {
		t.Fatal("expected primary error")
	}
	if archive.saved != 0 {
		t.Errorf("archive saved %d times, want 0", archive.saved)
	}
}

func TestSQLPlannedRouteStoreValidates(t *testing.T) {
	s := NewSQLPlannedRouteStore(nil)
	err := s.SavePlannedRoute(context.Background(), domain.PlannedRoute{RouteNumber: "1"})
	if err == nil || !strings.Contains(err.Error(), "db is nil") {
		t.Fatalf("error = %v, want db is nil", err)
	}
}
