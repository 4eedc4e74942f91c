package services

import (
	"errors"
	"testing"

	"route-planning-service/internal/domain"
)

func TestPolygonFromLatLngs(t *testing.T) {
	poly, err := PolygonFromLatLngs([]domain.LatLng{
		{Lat: 0, Lng: 0}, {Lat: 0, Lng: 2}, {Lat: 2, Lng: 2}, {Lat: 2, Lng: 0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(poly[0]) != 5 || !poly[0].Closed() {
		t.Fatalf("ring must be closed, got %v", poly[0])
	}

	tests := []struct {
		name string
		p    domain.LatLng
		want bool
	}{
		{"inside", domain.LatLng{Lat: 1, Lng: 1}, true},
		{"outside", domain.LatLng{Lat: 3, Lng: 1}, false},
		{"on edge", domain.LatLng{Lat: 0, Lng: 1}, true},
	}
	for _, tc := range tests {
		if got := inRegion(poly, tc.p); got != tc.want {
			t.Errorf("%s: inRegion = %v, want %v", tc.name, got, tc.want)
		}
	}

	if _, err := PolygonFromLatLngs([]domain.LatLng{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}); !errors.Is(err, ErrInvalidRegion) {
		t.Fatalf("err = %v, want ErrInvalidRegion", err)
	}
}
