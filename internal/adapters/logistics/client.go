package logistics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/platform/obs"
	"route-planning-service/internal/ports"

	"github.com/goccy/go-json"
)

var (
	_ ports.BacklogSource     = (*Client)(nil)
	_ ports.PlannedRouteStore = (*Client)(nil)
	_ ports.Notifier          = (*Client)(nil)
)

const notifySubject = "Rutas planificadas"

// Client talks to the logistics backend: pending stops, planned-route
// persistence and the sales notification mail.
type Client struct {
	session  *http.Client
	baseURL  string
	notifyTo string
}

func NewClient(baseURL string, timeout time.Duration, notifyTo string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("logistics base url is empty")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		session:  &http.Client{Timeout: timeout},
		baseURL:  baseURL,
		notifyTo: notifyTo,
	}, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (c *Client) post(ctx context.Context, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

// FetchBacklog returns the pending stops. Ids are passed through as sent;
// the caller assigns ids to stops that have none.
func (c *Client) FetchBacklog(ctx context.Context) (_ []*domain.Waypoint, err error) {
	defer obs.Time(ctx, "logistics.FetchBacklog")(&err)

	resp, err := c.post(ctx, "/api/v1/getData", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch backlog: %w", err)
	}
	defer resp.Body.Close()

	var br backlogResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("fetch backlog: decode response: %w", err)
	}

	out := make([]*domain.Waypoint, 0, len(br.Waypoints))
	for _, w := range br.Waypoints {
		orders := make([]domain.Order, 0, len(w.Pedidos))
		for _, o := range w.Pedidos {
			orders = append(orders, o.toDomain())
		}
		out = append(out, &domain.Waypoint{
			ID:       w.ID,
			Position: domain.LatLng{Lat: float64(w.Lat), Lng: float64(w.Lng)},
			Name:     w.Nombre,
			Orders:   orders,
		})
	}
	return out, nil
}

func (c *Client) SavePlannedRoute(ctx context.Context, r domain.PlannedRoute) (err error) {
	defer obs.Time(ctx, "logistics.SavePlannedRoute")(&err)
	return c.send(ctx, "/api/v1/fetchRuta", plannedRouteToWire(r), "save planned route")
}

func (c *Client) UpdatePlannedRoute(ctx context.Context, r domain.PlannedRoute) (err error) {
	defer obs.Time(ctx, "logistics.UpdatePlannedRoute")(&err)
	return c.send(ctx, "/api/v1/actualizarRuta", plannedRouteToWire(r), "update planned route")
}

func (c *Client) NotifySales(ctx context.Context, r domain.PlannedRoute) (err error) {
	defer obs.Time(ctx, "logistics.NotifySales")(&err)
	payload := notifyWire{To: c.notifyTo, Subject: notifySubject, RutaData: plannedRouteToWire(r)}
	return c.send(ctx, "/api/v1/mail/notifyVentas", payload, "notify sales")
}

func (c *Client) send(ctx context.Context, path string, in any, op string) error {
	resp, err := c.post(ctx, path, in)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}
