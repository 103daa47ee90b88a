// Package healthcheck aggregates dependency checks behind the health,
// liveness and readiness endpoints.
package healthcheck

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Status is the outcome of a check
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// checkTimeout bounds one round of checks
const checkTimeout = 10 * time.Second

// Check is the result of one registered checker
type Check struct {
	Name       string    `json:"name"`
	Status     Status    `json:"status"`
	Message    string    `json:"message,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
	DurationMS int64     `json:"duration_ms"`
}

// Response aggregates every check. One unhealthy check makes the service
// unhealthy, one degraded check degrades it.
type Response struct {
	Status     Status    `json:"status"`
	Version    string    `json:"version"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMS int64     `json:"total_duration_ms"`
	Checks     []Check   `json:"checks"`
}

// Checker reports the status of one dependency with an optional message
type Checker interface {
	Check(ctx context.Context) (Status, string)
}

// CheckerFunc adapts a function to Checker
type CheckerFunc func(ctx context.Context) (Status, string)

// Check calls f
func (f CheckerFunc) Check(ctx context.Context) (Status, string) {
	return f(ctx)
}

// HealthCheck runs the registered checkers
type HealthCheck struct {
	version string
	logger  *zap.Logger

	mu       sync.RWMutex
	checkers map[string]Checker
	cacheTTL time.Duration
	cached   *Response
}

// New returns a HealthCheck that caches results for five seconds
func New(version string, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{
		version:  version,
		logger:   logger,
		checkers: make(map[string]Checker),
		cacheTTL: 5 * time.Second,
	}
}

// Register adds or replaces the checker reported under name
func (h *HealthCheck) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
	h.cached = nil
}

// SetCacheTTL changes how long a result is reused. Zero disables caching.
func (h *HealthCheck) SetCacheTTL(ttl time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cacheTTL = ttl
	h.cached = nil
}

// Check runs every checker concurrently. Checks are ordered by name.
func (h *HealthCheck) Check(ctx context.Context) Response {
	h.mu.RLock()
	if c := h.cached; c != nil && time.Since(c.Timestamp) < h.cacheTTL {
		h.mu.RUnlock()
		return *c
	}
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	checkers := make([]Checker, len(names))
	for i, name := range names {
		checkers[i] = h.checkers[name]
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	checks := make([]Check, len(names))
	var wg sync.WaitGroup
	for i := range checkers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			begun := time.Now()
			status, message := checkers[i].Check(ctx)
			checks[i] = Check{
				Name:       names[i],
				Status:     status,
				Message:    message,
				CheckedAt:  begun,
				DurationMS: time.Since(begun).Milliseconds(),
			}
		}(i)
	}
	wg.Wait()

	resp := Response{
		Status:     StatusHealthy,
		Version:    h.version,
		Timestamp:  start,
		DurationMS: time.Since(start).Milliseconds(),
		Checks:     checks,
	}
	for _, c := range checks {
		switch c.Status {
		case StatusUnhealthy:
			resp.Status = StatusUnhealthy
			h.logger.Warn("Health check failed", zap.String("check", c.Name), zap.String("message", c.Message))
		case StatusDegraded:
			if resp.Status == StatusHealthy {
				resp.Status = StatusDegraded
			}
		}
	}

	h.mu.Lock()
	h.cached = &resp
	h.mu.Unlock()
	return resp
}

// Handler reports every check. Unhealthy answers 503.
func (h *HealthCheck) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := h.Check(r.Context())
		status := http.StatusOK
		if resp.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		h.write(w, status, resp)
	}
}

// LivenessHandler answers as long as the process serves requests
func (h *HealthCheck) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		h.write(w, http.StatusOK, map[string]interface{}{"status": "alive", "timestamp": time.Now()})
	}
}

// ReadinessHandler answers 200 only when every check is healthy
func (h *HealthCheck) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := h.Check(r.Context())
		if resp.Status != StatusHealthy {
			h.write(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "not_ready", "checks": resp.Checks})
			return
		}
		h.write(w, http.StatusOK, map[string]interface{}{"status": "ready", "timestamp": resp.Timestamp})
	}
}

func (h *HealthCheck) write(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// NewSQLChecker pings a connection pool. A pool with every connection in
// use is degraded.
func NewSQLChecker(db *sql.DB) Checker {
	return CheckerFunc(func(ctx context.Context) (Status, string) {
		if err := db.PingContext(ctx); err != nil {
			return StatusUnhealthy, err.Error()
		}
		if stats := db.Stats(); stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections {
			return StatusDegraded, fmt.Sprintf("connection pool exhausted: %d of %d in use", stats.InUse, stats.MaxOpenConnections)
		}
		return StatusHealthy, ""
	})
}

// NewRedisChecker pings a Redis client
func NewRedisChecker(client redis.UniversalClient) Checker {
	return CheckerFunc(func(ctx context.Context) (Status, string) {
		if err := client.Ping(ctx).Err(); err != nil {
			return StatusUnhealthy, err.Error()
		}
		return StatusHealthy, ""
	})
}

// NewExternalServiceChecker GETs url. The planner keeps serving without
// the service, so failures only degrade.
func NewExternalServiceChecker(name, url string, timeout time.Duration) Checker {
	client := resty.New().SetTimeout(timeout)
	return CheckerFunc(func(ctx context.Context) (Status, string) {
		resp, err := client.R().SetContext(ctx).Get(url)
		if err != nil {
			return StatusDegraded, fmt.Sprintf("%s unreachable: %v", name, err)
		}
		if !resp.IsSuccess() {
			return StatusDegraded, fmt.Sprintf("%s answered %d", name, resp.StatusCode())
		}
		return StatusHealthy, ""
	})
}
