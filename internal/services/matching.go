package services

import (
	"route-planning-service/internal/domain"
	"route-planning-service/internal/ports"
)

// orderBySteps maps the optimizer's job steps back onto stop ids.
//
// Each job step takes the first unused stop within domain.CoordTolerance of its
// location. Steps that match nothing are dropped. Stops no step claimed keep
// their relative order after the matched ones, so no stop ever leaves a route
// because the optimizer failed to echo it.
func orderBySteps(ids []string, pos func(id string) (domain.LatLng, bool), steps []ports.Step) []string {
	used := make([]bool, len(ids))
	out := make([]string, 0, len(ids))

	for _, s := range steps {
		if s.Type != ports.StepTypeJob {
			continue
		}
		for i, id := range ids {
			if used[i] {
				continue
			}
			p, ok := pos(id)
			if !ok || !domain.SamePoint(p, s.Location) {
				continue
			}
			used[i] = true
			out = append(out, id)
			break
		}
	}

	for i, id := range ids {
		if !used[i] {
			out = append(out, id)
		}
	}
	return out
}
