package generation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/domain/generation"
	"github.com/dietcompass/planner/internal/infrastructure/config"
	"github.com/dietcompass/planner/pkg/errors"
)

const stream = `{"type":"progress","progress":50}
{"type":"complete","data":{"days":[]}}
`

func newClient(t *testing.T, url string, retries int) *Client {
	t.Helper()
	client, err := NewClient(&config.GenerationConfig{
		URL:        url,
		APIKey:     "secret",
		Timeout:    5 * time.Second,
		MaxRetries: retries,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestClient_Stream(t *testing.T) {
	t.Run("Success_ShouldReturnBodyUnread", func(t *testing.T) {
		// Arrange
		var received generation.Request
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.Header().Set("Content-Type", "application/x-ndjson")
			_, _ = io.WriteString(w, stream)
		}))
		defer server.Close()

		// Act
		body, err := newClient(t, server.URL, 0).Stream(context.Background(), generation.Request{
			BaseSpecification: "Mediterranean week",
			MultiRecipe:       true,
		})

		// Assert
		require.NoError(t, err)
		defer body.Close()
		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, stream, string(data))
		assert.Equal(t, "Mediterranean week", received.BaseSpecification)
		assert.True(t, received.MultiRecipe)
	})

	t.Run("Rejected_ShouldBeExternalError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid chat history", http.StatusBadRequest)
		}))
		defer server.Close()

		_, err := newClient(t, server.URL, 0).Stream(context.Background(), generation.Request{})

		require.True(t, errors.Is(err, errors.CodeExternalServiceError))
		assert.Contains(t, err.(*errors.AppError).Cause.Error(), "invalid chat history")
	})

	t.Run("Unavailable_ShouldRetry", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = io.WriteString(w, stream)
		}))
		defer server.Close()

		body, err := newClient(t, server.URL, 1).Stream(context.Background(), generation.Request{})

		require.NoError(t, err)
		body.Close()
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("Unreachable_ShouldBeExternalError", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := newClient(t, url, 0).Stream(context.Background(), generation.Request{})

		assert.True(t, errors.Is(err, errors.CodeExternalServiceError))
	})
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(&config.GenerationConfig{}, zap.NewNop())

	assert.True(t, errors.Is(err, errors.CodeValidationFailed))
}
