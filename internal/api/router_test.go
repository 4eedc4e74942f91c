package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"route-planning-service/internal/adapters/optimizer"
	"route-planning-service/internal/api/dto"
	"route-planning-service/internal/domain"
	"route-planning-service/internal/services"

	"github.com/goccy/go-json"
)

type memCredentials struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func (m *memCredentials) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memCredentials) Create(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := m.users[key]; ok {
		return domain.ErrConflict
	}
	c := *u
	m.users[key] = &c
	return nil
}

type staticBacklog []*domain.Waypoint

func (b staticBacklog) FetchBacklog(ctx context.Context) ([]*domain.Waypoint, error) {
	out := make([]*domain.Waypoint, 0, len(b))
	for _, wp := range b {
		c := *wp
		c.Orders = append([]domain.Order(nil), wp.Orders...)
		out = append(out, &c)
	}
	return out, nil
}

type recordingStore struct {
	mu    sync.Mutex
	saved []domain.PlannedRoute
}

func (s *recordingStore) SavePlannedRoute(ctx context.Context, r domain.PlannedRoute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, r)
	return nil
}

func (s *recordingStore) UpdatePlannedRoute(ctx context.Context, r domain.PlannedRoute) error {
	return s.SavePlannedRoute(ctx, r)
}

type testServer struct {
	handler  http.Handler
	store    *recordingStore
	sessions *services.SessionRegistry
}

func newTestServer(loginRate int) *testServer {
	store := &recordingStore{}
	backlog := staticBacklog{
		{ID: "a", Name: "Tienda A", Position: domain.LatLng{Lat: 0.2, Lng: 0.2}, Orders: []domain.Order{{OrderID: "1", ClientName: "A", Weight: 10}}},
		{ID: "b", Name: "Tienda B", Position: domain.LatLng{Lat: 0.4, Lng: 0.4}, Orders: []domain.Order{{OrderID: "2", ClientName: "B", Weight: 5}}},
		{ID: "c", Name: "Tienda C", Position: domain.LatLng{Lat: 5, Lng: 5}, Orders: []domain.Order{{OrderID: "3", ClientName: "C", Weight: 1}}},
	}
	sessions := services.NewSessionRegistry(services.PlannerDeps{
		Optimizer: optimizer.NewMockOptimizer(),
		Backlog:   backlog,
		Store:     store,
	}, domain.DistributionCenter{Name: "CD", Position: domain.LatLng{Lat: -1, Lng: -1}})

	auth := services.NewAuthService(&memCredentials{users: map[string]*domain.User{}}, "test-secret", time.Hour)

	h := NewRouter(Deps{
		Auth:               auth,
		Sessions:           sessions,
		DragWatchdog:       time.Second,
		CORSOrigins:        []string{"*"},
		LoginRatePerMinute: loginRate,
	})
	return &testServer{handler: h, store: store, sessions: sessions}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{Username: "ops", Email: email, Password: "secret"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: email, Password: "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}
	var res dto.LoginResponse
	decodeBody(t, rec, &res)
	if res.Token == "" {
		t.Fatalf("login returned empty token")
	}
	return res.Token
}

func unitSquare() []dto.LatLng {
	return []dto.LatLng{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 1, Lng: 1}, {Lat: 1, Lng: 0}}
}

func TestPlanningFlow(t *testing.T) {
	s := newTestServer(0)
	token := s.login(t, "ops@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/sessions", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d body %s", rec.Code, rec.Body.String())
	}
	var sess dto.SessionResponse
	decodeBody(t, rec, &sess)
	if sess.Center.Name != "CD" {
		t.Fatalf("center = %q, want CD", sess.Center.Name)
	}
	base := "/api/v1/sessions/" + sess.ID

	rec = s.do(t, http.MethodPost, base+"/backlog", token, nil)
	var backlog dto.BacklogResponse
	decodeBody(t, rec, &backlog)
	if backlog.Added != 3 {
		t.Fatalf("backlog added %d, want 3", backlog.Added)
	}

	rec = s.do(t, http.MethodPost, base+"/selections", token, dto.SelectionRequest{Points: unitSquare(), Mode: "create"})
	if rec.Code != http.StatusOK {
		t.Fatalf("select: status %d body %s", rec.Code, rec.Body.String())
	}
	var route dto.RouteResponse
	decodeBody(t, rec, &route)
	if len(route.WaypointIDs) != 2 {
		t.Fatalf("route stops = %v, want 2", route.WaypointIDs)
	}
	if route.Summary.TotalWeight != 15 {
		t.Errorf("total weight = %v, want 15", route.Summary.TotalWeight)
	}

	rec = s.do(t, http.MethodPatch, base+"/routes/"+route.ID, token, dto.RenameRequest{Name: "Norte"})
	if rec.Code != http.StatusOK {
		t.Fatalf("rename: status %d body %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &route)
	if route.Name != "Norte" {
		t.Fatalf("name = %q, want Norte", route.Name)
	}

	rec = s.do(t, http.MethodPost, base+"/routes/"+route.ID+"/reoptimize", token, map[string]string{"objective": "scenic"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad objective: status %d, want 400", rec.Code)
	}

	rec = s.do(t, http.MethodPost, base+"/routes/"+route.ID+"/finalize", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("finalize: status %d body %s", rec.Code, rec.Body.String())
	}
	var planned dto.PlannedRouteResponse
	decodeBody(t, rec, &planned)
	if planned.Stops != 2 {
		t.Errorf("planned stops = %d, want 2", planned.Stops)
	}
	if len(s.store.saved) != 1 {
		t.Fatalf("store saved %d routes, want 1", len(s.store.saved))
	}

	rec = s.do(t, http.MethodGet, base, token, nil)
	decodeBody(t, rec, &sess)
	if len(sess.Routes) != 0 || len(sess.Waypoints) != 1 {
		t.Fatalf("after finalize: %d routes %d waypoints, want 0 and 1", len(sess.Routes), len(sess.Waypoints))
	}

	rec = s.do(t, http.MethodDelete, base, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("close: status %d", rec.Code)
	}
	if s.sessions.Len() != 0 {
		t.Fatalf("sessions left open: %d", s.sessions.Len())
	}
}

func TestPlanningErrors(t *testing.T) {
	s := newTestServer(0)
	token := s.login(t, "ops@example.com")
	other := s.login(t, "other@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/sessions", token, nil)
	var sess dto.SessionResponse
	decodeBody(t, rec, &sess)
	base := "/api/v1/sessions/" + sess.ID
	s.do(t, http.MethodPost, base+"/backlog", token, nil)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"no token", http.MethodGet, base, "", nil, http.StatusUnauthorized},
		{"bad token", http.MethodGet, base, "nope", nil, http.StatusUnauthorized},
		{"foreign session", http.MethodGet, base, other, nil, http.StatusNotFound},
		{"unknown route", http.MethodPost, base + "/routes/missing/finalize", token, nil, http.StatusNotFound},
		{"too few points", http.MethodPost, base + "/selections", token,
			dto.SelectionRequest{Points: []dto.LatLng{{Lat: 4, Lng: 4}, {Lat: 4, Lng: 6}, {Lat: 6, Lng: 6}, {Lat: 6, Lng: 4}}},
			http.StatusUnprocessableEntity},
		{"missing region", http.MethodPost, base + "/selections", token, dto.SelectionRequest{}, http.StatusBadRequest},
		{"edit without draft", http.MethodPost, base + "/selections", token,
			dto.SelectionRequest{Points: unitSquare(), Mode: "edit"}, http.StatusConflict},
		{"unknown field", http.MethodPost, base + "/selections", token, map[string]any{"shape": 1}, http.StatusBadRequest},
		{"bad order index", http.MethodDelete, base + "/waypoints/a/orders/x", token, nil, http.StatusBadRequest},
		{"last order", http.MethodDelete, base + "/waypoints/a/orders/0", token, nil, http.StatusUnprocessableEntity},
		{"unknown surface event", http.MethodPost, base + "/surface/events", token, dto.SurfaceEventRequest{Type: "wiggle"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.token, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestUnassignWarning(t *testing.T) {
	s := newTestServer(0)
	token := s.login(t, "ops@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/sessions", token, nil)
	var sess dto.SessionResponse
	decodeBody(t, rec, &sess)
	base := "/api/v1/sessions/" + sess.ID
	s.do(t, http.MethodPost, base+"/backlog", token, nil)

	rec = s.do(t, http.MethodDelete, base+"/waypoints/c/route", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unassign: status %d body %s", rec.Code, rec.Body.String())
	}
	var res dto.UnassignResponse
	decodeBody(t, rec, &res)
	if res.Warning == "" || res.RouteDeleted {
		t.Fatalf("unassign of a free waypoint = %+v, want warning only", res)
	}
}

func TestSurfaceDrawCompletesSelection(t *testing.T) {
	s := newTestServer(0)
	token := s.login(t, "ops@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/sessions", token, nil)
	var sess dto.SessionResponse
	decodeBody(t, rec, &sess)
	events := "/api/v1/sessions/" + sess.ID + "/surface/events"
	s.do(t, http.MethodPost, "/api/v1/sessions/"+sess.ID+"/backlog", token, nil)

	send := func(ev dto.SurfaceEventRequest) dto.SurfaceStateResponse {
		t.Helper()
		rec := s.do(t, http.MethodPost, events, token, ev)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d body %s", ev.Type, rec.Code, rec.Body.String())
		}
		var st dto.SurfaceStateResponse
		decodeBody(t, rec, &st)
		return st
	}

	st := send(dto.SurfaceEventRequest{Type: "draw.start", Name: "Sur", Color: "#00ff00"})
	if st.Draw != "drawingPolygon" {
		t.Fatalf("draw state = %q, want drawingPolygon", st.Draw)
	}
	for _, v := range unitSquare() {
		send(dto.SurfaceEventRequest{Type: "vertex.add", At: &v})
	}
	st = send(dto.SurfaceEventRequest{Type: "draw.complete"})
	if st.Draw != "idle" {
		t.Fatalf("draw state after complete = %q, want idle", st.Draw)
	}
	if st.Route == nil || st.Route.Name != "Sur" || len(st.Route.WaypointIDs) != 2 {
		t.Fatalf("completed route = %+v, want Sur with 2 stops", st.Route)
	}
}

func TestLoginRateLimit(t *testing.T) {
	s := newTestServer(1)
	s.login(t, "ops@example.com")

	rec := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "ops@example.com", Password: "secret"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second login: status %d, want 429", rec.Code)
	}
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(0)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID header")
	}
	var body map[string]any
	decodeBody(t, rec, &body)
	if body["status"] != "ok" || body["sessions"] != float64(0) {
		t.Fatalf("health body = %v", body)
	}

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "route_planner_http_requests_total") {
		t.Fatalf("metrics endpoint missing request counter")
	}
}
