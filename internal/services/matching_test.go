package services

import (
	"testing"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/ports"
)

func TestOrderBySteps(t *testing.T) {
	positions := map[string]domain.LatLng{
		"a":    {Lat: 1, Lng: 1},
		"b":    {Lat: 2, Lng: 2},
		"c":    {Lat: 3, Lng: 3},
		"twin": {Lat: 2, Lng: 2},
	}
	pos := func(id string) (domain.LatLng, bool) {
		p, ok := positions[id]
		return p, ok
	}
	job := func(lat, lng float64) ports.Step {
		return ports.Step{Type: ports.StepTypeJob, Location: domain.LatLng{Lat: lat, Lng: lng}}
	}

	tests := []struct {
		name  string
		ids   []string
		steps []ports.Step
		want  []string
	}{
		{
			name:  "follows job steps",
			ids:   []string{"a", "b", "c"},
			steps: []ports.Step{{Type: "start"}, job(3, 3), job(1, 1), job(2, 2), {Type: "end"}},
			want:  []string{"c", "a", "b"},
		},
		{
			name:  "tolerates echo noise",
			ids:   []string{"a", "b"},
			steps: []ports.Step{job(2.0000005, 1.9999995), job(1, 1)},
			want:  []string{"b", "a"},
		},
		{
			name:  "drops unmatched steps",
			ids:   []string{"a", "b"},
			steps: []ports.Step{job(9, 9), job(2, 2), job(1, 1)},
			want:  []string{"b", "a"},
		},
		{
			name:  "appends stops no step echoed",
			ids:   []string{"a", "b", "c"},
			steps: []ports.Step{job(3, 3)},
			want:  []string{"c", "a", "b"},
		},
		{
			name:  "same location matches each stop once",
			ids:   []string{"b", "twin"},
			steps: []ports.Step{job(2, 2), job(2, 2), job(2, 2)},
			want:  []string{"b", "twin"},
		},
		{
			name:  "ignores non-job steps at a stop",
			ids:   []string{"a", "b"},
			steps: []ports.Step{{Type: "start", Location: domain.LatLng{Lat: 2, Lng: 2}}, job(1, 1)},
			want:  []string{"a", "b"},
		},
		{
			name:  "beyond tolerance is not a match",
			ids:   []string{"a"},
			steps: []ports.Step{job(1.00001, 1)},
			want:  []string{"a"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := orderBySteps(tc.ids, pos, tc.steps)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}
