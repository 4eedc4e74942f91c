package logistics

import (
	"bytes"
	"strconv"
	"strings"

	"route-planning-service/internal/domain"

	"github.com/goccy/go-json"
)

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(strings.TrimSpace(string(b)))
	return nil
}

// flexFloat accepts a JSON number or a numeric string; anything else is 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

type orderWire struct {
	Pedido          flexString `json:"Pedido"`
	NombreCliente   string     `json:"Nombre Cliente"`
	Peso            flexFloat  `json:"Peso"`
	PorcentajeCarga flexFloat  `json:"PorcentajeCarga"`
	FechaEntrega    flexString `json:"FechaEntrega,omitempty"`
	Comentarios     string     `json:"Comentarios,omitempty"`
}

// ordersWire accepts a flat order list or a list of order lists.
type ordersWire []orderWire

func (o *ordersWire) UnmarshalJSON(b []byte) error {
	var flat []orderWire
	if err := json.Unmarshal(b, &flat); err == nil {
		*o = flat
		return nil
	}
	var nested [][]orderWire
	if err := json.Unmarshal(b, &nested); err != nil {
		return err
	}
	out := make([]orderWire, 0)
	for _, group := range nested {
		out = append(out, group...)
	}
	*o = out
	return nil
}

type waypointWire struct {
	ID      string     `json:"id,omitempty"`
	Lat     flexFloat  `json:"lat"`
	Lng     flexFloat  `json:"lng"`
	Nombre  string     `json:"nombre"`
	Pedidos ordersWire `json:"pedidos"`
}

type backlogResponse struct {
	Waypoints []waypointWire `json:"waypoints_con_nombre"`
}

type plannedStopWire struct {
	Lat     float64     `json:"lat"`
	Lng     float64     `json:"lng"`
	Nombre  string      `json:"nombre"`
	Pedidos []orderWire `json:"pedidos"`
}

type plannedRouteWire struct {
	NoRuta          string            `json:"noruta"`
	Geometry        string            `json:"geometry"`
	Waypoints       []plannedStopWire `json:"waypoints"`
	Pedidos         string            `json:"pedidos"`
	Peso            float64           `json:"peso"`
	Distancia       float64           `json:"distancia"`
	Tiempo          float64           `json:"tiempo"`
	PorcentajeCarga float64           `json:"porcentajeCarga"`
	Orden           string            `json:"orden"`
}

type notifyWire struct {
	To       string           `json:"to,omitempty"`
	Subject  string           `json:"subject"`
	RutaData plannedRouteWire `json:"ruta_data"`
}

func (w orderWire) toDomain() domain.Order {
	return domain.Order{
		OrderID:      string(w.Pedido),
		ClientName:   w.NombreCliente,
		Weight:       float64(w.Peso),
		LoadPercent:  float64(w.PorcentajeCarga),
		DeliveryDate: string(w.FechaEntrega),
		Comments:     w.Comentarios,
	}
}

func orderToWire(o domain.Order) orderWire {
	return orderWire{
		Pedido:          flexString(o.OrderID),
		NombreCliente:   o.ClientName,
		Peso:            flexFloat(o.Weight),
		PorcentajeCarga: flexFloat(o.LoadPercent),
		FechaEntrega:    flexString(o.DeliveryDate),
		Comentarios:     o.Comments,
	}
}

func plannedRouteToWire(r domain.PlannedRoute) plannedRouteWire {
	stops := make([]plannedStopWire, 0, len(r.Stops))
	for _, s := range r.Stops {
		orders := make([]orderWire, 0, len(s.Orders))
		for _, o := range s.Orders {
			orders = append(orders, orderToWire(o))
		}
		stops = append(stops, plannedStopWire{Lat: s.Lat, Lng: s.Lng, Nombre: s.Name, Pedidos: orders})
	}

	return plannedRouteWire{
		NoRuta:          r.RouteNumber,
		Geometry:        r.Geometry,
		Waypoints:       stops,
		Pedidos:         r.OrderCount,
		Peso:            r.Weight,
		Distancia:       r.DistanceKm,
		Tiempo:          r.DurationH,
		PorcentajeCarga: r.LoadPercent,
		Orden:           r.StopList,
	}
}
