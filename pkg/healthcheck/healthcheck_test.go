package healthcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func fixed(status Status, message string) Checker {
	return CheckerFunc(func(context.Context) (Status, string) {
		return status, message
	})
}

func TestNew(t *testing.T) {
	logger := zap.NewNop()

	hc := New("1.0.0", logger)

	assert.Equal(t, "1.0.0", hc.version)
	assert.NotNil(t, hc.checkers)
	assert.Equal(t, 5*time.Second, hc.cacheTTL)
}

func TestHealthCheck_Check(t *testing.T) {
	tests := []struct {
		name     string
		checkers map[string]Checker
		expected Status
	}{
		{"NoCheckers_ShouldBeHealthy", nil, StatusHealthy},
		{"AllHealthy_ShouldBeHealthy", map[string]Checker{
			"store": fixed(StatusHealthy, ""),
			"other": fixed(StatusHealthy, ""),
		}, StatusHealthy},
		{"OneDegraded_ShouldBeDegraded", map[string]Checker{
			"store":     fixed(StatusHealthy, ""),
			"generator": fixed(StatusDegraded, "slow"),
		}, StatusDegraded},
		{"OneUnhealthy_ShouldBeUnhealthy", map[string]Checker{
			"store":     fixed(StatusUnhealthy, "down"),
			"generator": fixed(StatusDegraded, "slow"),
		}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			hc := New("1.0.0", zap.NewNop())
			for name, checker := range tt.checkers {
				hc.Register(name, checker)
			}

			// Act
			response := hc.Check(context.Background())

			// Assert
			assert.Equal(t, tt.expected, response.Status)
			assert.Equal(t, "1.0.0", response.Version)
			assert.Len(t, response.Checks, len(tt.checkers))
			for i := 1; i < len(response.Checks); i++ {
				assert.Less(t, response.Checks[i-1].Name, response.Checks[i].Name)
			}
			for _, check := range response.Checks {
				assert.False(t, check.CheckedAt.IsZero(), check.Name)
			}
		})
	}
}

func TestHealthCheck_Check_ShouldCache(t *testing.T) {
	var calls atomic.Int32
	hc := New("1.0.0", zap.NewNop())
	hc.Register("counted", CheckerFunc(func(context.Context) (Status, string) {
		calls.Add(1)
		return StatusHealthy, ""
	}))

	hc.Check(context.Background())
	hc.Check(context.Background())
	assert.Equal(t, int32(1), calls.Load())

	hc.SetCacheTTL(0)
	hc.Check(context.Background())
	assert.Equal(t, int32(2), calls.Load())
}

func TestHealthCheck_Handlers(t *testing.T) {
	t.Run("Unhealthy_ShouldAnswer503", func(t *testing.T) {
		// Arrange
		hc := New("1.0.0", zap.NewNop())
		hc.Register("store", fixed(StatusUnhealthy, "down"))
		rec := httptest.NewRecorder()

		// Act
		hc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		// Assert
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "unhealthy", body["status"])
		assert.Contains(t, body, "total_duration_ms")
	})

	t.Run("Degraded_ShouldAnswer200ButNotReady", func(t *testing.T) {
		hc := New("1.0.0", zap.NewNop())
		hc.Register("generator", fixed(StatusDegraded, "slow"))

		health := httptest.NewRecorder()
		hc.Handler().ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
		ready := httptest.NewRecorder()
		hc.ReadinessHandler().ServeHTTP(ready, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, health.Code)
		assert.Equal(t, http.StatusServiceUnavailable, ready.Code)
	})

	t.Run("Liveness_ShouldAlwaysAnswer200", func(t *testing.T) {
		hc := New("1.0.0", zap.NewNop())
		hc.Register("store", fixed(StatusUnhealthy, "down"))
		rec := httptest.NewRecorder()

		hc.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "alive")
	})
}

func TestExternalServiceChecker(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected Status
	}{
		{"OK_ShouldBeHealthy", http.StatusOK, StatusHealthy},
		{"ServerError_ShouldBeDegraded", http.StatusInternalServerError, StatusDegraded},
		{"NotFound_ShouldBeDegraded", http.StatusNotFound, StatusDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			status, _ := NewExternalServiceChecker("generator", server.URL, time.Second).Check(context.Background())

			assert.Equal(t, tt.expected, status)
		})
	}

	t.Run("Unreachable_ShouldBeDegraded", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		status, message := NewExternalServiceChecker("generator", url, time.Second).Check(context.Background())

		assert.Equal(t, StatusDegraded, status)
		assert.Contains(t, message, "generator unreachable")
	})
}

func TestSQLChecker(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	status, _ := NewSQLChecker(sqlDB).Check(context.Background())
	assert.Equal(t, StatusHealthy, status)

	require.NoError(t, sqlDB.Close())
	status, message := NewSQLChecker(sqlDB).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, status)
	assert.NotEmpty(t, message)
}

func TestRedisChecker_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	status, message := NewRedisChecker(client).Check(context.Background())

	assert.Equal(t, StatusUnhealthy, status)
	assert.NotEmpty(t, message)
}
