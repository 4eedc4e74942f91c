package handlers

import (
	"fmt"

	"route-planning-service/internal/api/dto"
	"route-planning-service/internal/domain"
	"route-planning-service/internal/services"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func toLatLng(p domain.LatLng) dto.LatLng { return dto.LatLng{Lat: p.Lat, Lng: p.Lng} }

func fromLatLng(p dto.LatLng) domain.LatLng { return domain.LatLng{Lat: p.Lat, Lng: p.Lng} }

func fromLatLngs(ps []dto.LatLng) []domain.LatLng {
	out := make([]domain.LatLng, 0, len(ps))
	for _, p := range ps {
		out = append(out, fromLatLng(p))
	}
	return out
}

func toLatLngs(ps []domain.LatLng) []dto.LatLng {
	out := make([]dto.LatLng, 0, len(ps))
	for _, p := range ps {
		out = append(out, toLatLng(p))
	}
	return out
}

func toWaypoint(wp *domain.Waypoint) dto.WaypointResponse {
	res := dto.WaypointResponse{
		ID:      wp.ID,
		Lat:     wp.Position.Lat,
		Lng:     wp.Position.Lng,
		Name:    wp.Name,
		RouteID: wp.RouteID,
		Orders:  make([]dto.OrderResponse, 0, len(wp.Orders)),
	}
	for _, o := range wp.Orders {
		res.Orders = append(res.Orders, dto.OrderResponse{
			OrderID:      o.OrderID,
			ClientName:   o.ClientName,
			Weight:       o.Weight,
			LoadPercent:  o.LoadPercent,
			DeliveryDate: o.DeliveryDate,
			Comments:     o.Comments,
		})
	}
	return res
}

func toSummary(s domain.Summary) dto.SummaryResponse {
	res := dto.SummaryResponse{
		Orders:           make([]dto.OrderRefResponse, 0, len(s.Orders)),
		OrderCount:       s.OrderCount,
		TotalWeight:      s.TotalWeight,
		TotalLoadPercent: s.TotalLoadPercent,
		DistanceMeters:   s.DistanceMeters,
		DurationHours:    s.DurationHours,
	}
	for _, o := range s.Orders {
		res.Orders = append(res.Orders, dto.OrderRefResponse{OrderID: o.OrderID, ClientName: o.ClientName})
	}
	return res
}

func toRoute(r *domain.Route, s domain.Summary, pending bool) dto.RouteResponse {
	return dto.RouteResponse{
		ID:              r.ID,
		Name:            r.Name,
		Color:           r.Color,
		WaypointIDs:     append([]string{}, r.WaypointIDs...),
		Detours:         toLatLngs(r.Detours),
		Geometry:        r.Geometry,
		DistanceMeters:  r.DistanceMeters,
		DurationSeconds: r.DurationSeconds,
		Pending:         pending,
		Summary:         toSummary(s),
	}
}

func toRouteResult(res *services.RouteResult) *dto.RouteResponse {
	if res == nil || res.Route == nil {
		return nil
	}
	out := toRoute(res.Route, res.Summary, false)
	return &out
}

func toSession(id string, snap services.Snapshot) dto.SessionResponse {
	res := dto.SessionResponse{
		ID: id,
		Center: dto.CenterResponse{
			Name: snap.Center.Name,
			Lat:  snap.Center.Position.Lat,
			Lng:  snap.Center.Position.Lng,
		},
		Waypoints: make([]dto.WaypointResponse, 0, len(snap.Waypoints)),
		Routes:    make([]dto.RouteResponse, 0, len(snap.Routes)),
	}
	for _, wp := range snap.Waypoints {
		res.Waypoints = append(res.Waypoints, toWaypoint(wp))
	}
	for _, rv := range snap.Routes {
		res.Routes = append(res.Routes, toRoute(rv.Route, rv.Summary, rv.Pending))
	}
	if snap.Draft != nil {
		res.Draft = &dto.DraftResponse{RouteID: snap.Draft.RouteID, Name: snap.Draft.Name, Color: snap.Draft.Color}
	}
	return res
}

func toPlannedRoute(p *domain.PlannedRoute) dto.PlannedRouteResponse {
	return dto.PlannedRouteResponse{
		RouteNumber: p.RouteNumber,
		OrderCount:  p.OrderCount,
		Stops:       len(p.Stops),
		Weight:      p.Weight,
		DistanceKm:  p.DistanceKm,
		DurationH:   p.DurationH,
		LoadPercent: p.LoadPercent,
	}
}

var errNoRegion = fmt.Errorf("points or polygon is required: %w", services.ErrInvalidRegion)

// regionFrom accepts either drawn vertices or a GeoJSON polygon.
func regionFrom(points []dto.LatLng, g *geojson.Geometry) (orb.Polygon, error) {
	if g != nil {
		poly, ok := g.Coordinates.(orb.Polygon)
		if !ok {
			return nil, services.ErrInvalidRegion
		}
		if err := services.ValidateRegion(poly); err != nil {
			return nil, err
		}
		return poly, nil
	}
	if len(points) == 0 {
		return nil, errNoRegion
	}
	return services.PolygonFromLatLngs(fromLatLngs(points))
}
