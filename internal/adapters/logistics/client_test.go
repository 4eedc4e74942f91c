package logistics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"route-planning-service/internal/domain"

	"github.com/goccy/go-json"
)

func TestFetchBacklogNormalizesOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/getData" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"waypoints_con_nombre":[
			{"lat":14.5,"lng":-90.5,"nombre":"Calle 1","pedidos":[{"Pedido":1001,"Nombre Cliente":"Ana","Peso":12.5,"PorcentajeCarga":"3.25"}]},
			{"id":"w-2","lat":"14.6","lng":-90.4,"nombre":"Calle 2","pedidos":[[{"Pedido":"A-7","Peso":1}],[{"Pedido":"A-8","Peso":2}]]}
		]}`)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, time.Second, "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	wps, err := c.FetchBacklog(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(wps) != 2 {
		t.Fatalf("waypoints = %d, want 2", len(wps))
	}

	first := wps[0]
	if first.ID != "" {
		t.Errorf("first id = %q, want empty", first.ID)
	}
	if len(first.Orders) != 1 || first.Orders[0].OrderID != "1001" || first.Orders[0].LoadPercent != 3.25 {
		t.Errorf("first orders = %+v", first.Orders)
	}

	second := wps[1]
	if second.ID != "w-2" || second.Position.Lat != 14.6 {
		t.Errorf("second = %+v", second)
	}
	if len(second.Orders) != 2 || second.Orders[1].OrderID != "A-8" {
		t.Errorf("nested orders were not flattened: %+v", second.Orders)
	}
}

func TestPlannedRouteEndpoints(t *testing.T) {
	var paths []string
	var bodies []map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		var m map[string]any
		_ = json.NewDecoder(r.Body).Decode(&m)
		bodies = append(bodies, m)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, time.Second, "ventas@example.com")
	pr := domain.PlannedRoute{RouteNumber: "7", Geometry: "xyz", OrderCount: "2", Weight: 10.5}

	ctx := context.Background()
	if err := c.SavePlannedRoute(ctx, pr); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := c.UpdatePlannedRoute(ctx, pr); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := c.NotifySales(ctx, pr); err != nil {
		t.Fatalf("notify: %v", err)
	}

	want := []string{"/api/v1/fetchRuta", "/api/v1/actualizarRuta", "/api/v1/mail/notifyVentas"}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("call %d path = %q, want %q", i, paths[i], p)
		}
	}
	if bodies[0]["noruta"] != "7" || bodies[0]["peso"] != 10.5 {
		t.Errorf("save body = %v", bodies[0])
	}
	if bodies[2]["subject"] != notifySubject || bodies[2]["to"] != "ventas@example.com" {
		t.Errorf("notify body = %v", bodies[2])
	}
}

func TestSaveSurfacesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, time.Second, "")
	err := c.SavePlannedRoute(context.Background(), domain.PlannedRoute{})
	if err == nil || !strings.Contains(err.Error(), "Code 503") {
		t.Fatalf("error = %v, want Code 503", err)
	}
}

type recordingNotifier struct {
	n   int
	err error
}

func (r *recordingNotifier) NotifySales(ctx context.Context, pr domain.PlannedRoute) error {
	r.n++
	return r.err
}

func TestFanoutNotifierDeliversToAll(t *testing.T) {
	a := &recordingNotifier{err: io.ErrUnexpectedEOF}
	b := &recordingNotifier{}

	err := FanoutNotifier{a, nil, b}.NotifySales(context.Background(), domain.PlannedRoute{})
	if a.n != 1 || b.n != 1 {
		t.Fatalf("deliveries = %d,%d, want 1,1", a.n, b.n)
	}
	if err == nil {
		t.Fatal("expected joined error from failing notifier")
	}
}
