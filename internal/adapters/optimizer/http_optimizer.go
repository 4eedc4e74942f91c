package optimizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"route-planning-service/internal/domain"
	"route-planning-service/internal/platform/obs"
	"route-planning-service/internal/ports"

	"github.com/goccy/go-json"
)

// HTTPOptimizer implements ports.Optimizer against the external
// route-optimization service. It is safe for concurrent use.
type HTTPOptimizer struct {
	session *http.Client
	baseURL string
	apiKey  string
}

var endpoints = map[ports.OptimizeMode]string{
	ports.ModeDistance: "/api/v1/rutanopti",
	ports.ModeTime:     "/api/v1/rutanoptiT",
	ports.ModeFixed:    "/api/v1/ruta",
}

func NewHTTPOptimizer(baseURL, apiKey string, timeout time.Duration) (*HTTPOptimizer, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("optimizer base url is empty")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &HTTPOptimizer{
		session: &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
	}, nil
}

type pointDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type stepDTO struct {
	Type     string    `json:"type"`
	Location []float64 `json:"location"`
	ID       *int      `json:"id,omitempty"`
	Job      *int      `json:"job,omitempty"`
}

type routeDTO struct {
	Geometry string    `json:"geometry"`
	Distance float64   `json:"distance"`
	Duration float64   `json:"duration"`
	Steps    []stepDTO `json:"steps"`
}

type optimizeResponse struct {
	Routes []routeDTO `json:"routes"`
}

// Optimize posts the ordered point list to the endpoint for mode.
// Every failure is wrapped with domain.ErrOptimizationFailure.
func (o *HTTPOptimizer) Optimize(
	ctx context.Context,
	points []domain.LatLng,
	mode ports.OptimizeMode,
) (_ *ports.OptimizeResult, err error) {
	defer obs.Time(ctx, "optimizer.Optimize."+string(mode))(&err)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		obs.OptimizerRequests.WithLabelValues(string(mode), outcome).Inc()
	}()

	path, ok := endpoints[mode]
	if !ok {
		return nil, fmt.Errorf("optimize: %w: unknown mode %q", domain.ErrOptimizationFailure, mode)
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("optimize: %w: need at least 2 points, got %d", domain.ErrOptimizationFailure, len(points))
	}

	body := make([]pointDTO, 0, len(points))
	for _, p := range points {
		body = append(body, pointDTO{Lat: p.Lat, Lng: p.Lng})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w: marshal request: %w", domain.ErrOptimizationFailure, err)
	}

	req, err := o.newRequest(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("optimize: %w: %w", domain.ErrOptimizationFailure, err)
	}

	resp, err := o.do(req)
	if err != nil {
		return nil, fmt.Errorf("optimize %s: %w: %w", mode, domain.ErrOptimizationFailure, err)
	}
	defer resp.Body.Close()

	var or optimizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, fmt.Errorf("optimize %s: %w: decode response: %w", mode, domain.ErrOptimizationFailure, err)
	}
	if len(or.Routes) == 0 {
		return nil, fmt.Errorf("optimize %s: %w: response has no routes", mode, domain.ErrOptimizationFailure)
	}

	return toResult(or.Routes[0]), nil
}

func toResult(r routeDTO) *ports.OptimizeResult {
	res := &ports.OptimizeResult{
		Geometry:        r.Geometry,
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
		Steps:           make([]ports.Step, 0, len(r.Steps)),
	}

	for _, s := range r.Steps {
		step := ports.Step{Type: s.Type, JobID: s.ID}
		if step.JobID == nil {
			step.JobID = s.Job
		}
		// location is [lng, lat]
		if len(s.Location) >= 2 {
			step.Location = domain.LatLng{Lat: s.Location[1], Lng: s.Location[0]}
		}
		res.Steps = append(res.Steps, step)
	}
	return res
}
