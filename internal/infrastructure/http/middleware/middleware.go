// Package middleware provides HTTP middleware components
// following the Chain of Responsibility pattern
package middleware

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dietcompass/planner/internal/infrastructure/monitoring"
	"github.com/dietcompass/planner/pkg/errors"
)

const (
	// RequestIDHeader carries the request ID in both directions
	RequestIDHeader = "X-Request-ID"
	// HouseholdHeader names the household a request acts on
	HouseholdHeader = "X-Household-ID"
	// HouseholdQuery is the query parameter fallback of HouseholdHeader
	HouseholdQuery = "household"
)

type contextKey string

const householdKey contextKey = "household"

// RequestID keeps an incoming X-Request-ID or mints a UUID. The ID is
// stored where chi's GetReqID finds it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), chimiddleware.RequestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logger provides structured logging for requests
func Logger(logger *zap.Logger, skipPaths ...string) func(next http.Handler) http.Handler {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			if skip[r.URL.Path] {
				return
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("ip", r.RemoteAddr),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
			}
			if household := HouseholdFromContext(r.Context()); household != "" {
				fields = append(fields, zap.String("household", household))
			}

			log := monitoring.WithContext(r.Context(), logger)
			switch {
			case status >= 500:
				log.Error("Server error", fields...)
			case status >= 400:
				log.Warn("Client error", fields...)
			default:
				log.Info("Request completed", fields...)
			}
		})
	}
}

// Security adds security headers for API responses
func Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// CORS handles Cross-Origin Resource Sharing. An empty allow list permits
// every origin.
func CORS(allowedOrigins []string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(allowedOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader+", "+HouseholdHeader)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// RateLimit shares one token bucket of requestsPerMin across the routes it
// wraps. Requests over the limit get 429 with a Retry-After header.
func RateLimit(requestsPerMin, burst int, logger *zap.Logger) func(next http.Handler) http.Handler {
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(requestsPerMin)/60, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reservation := limiter.Reserve()
			delay := reservation.Delay()
			if delay == 0 {
				next.ServeHTTP(w, r)
				return
			}
			reservation.Cancel()

			monitoring.WithContext(r.Context(), logger).Warn("Rate limit exceeded",
				zap.String("path", r.URL.Path),
				zap.String("ip", r.RemoteAddr),
				zap.Duration("retry_after", delay),
			)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			resp := errors.ToErrorResponse(errors.NewTooManyRequestsError(delay), chimiddleware.GetReqID(r.Context()))
			_ = json.NewEncoder(w).Encode(resp)
		})
	}
}

// Household resolves the household a request acts on from the
// X-Household-ID header, then the household query parameter, then
// defaultHousehold. Services validate the ID.
func Household(defaultHousehold string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			household := strings.TrimSpace(r.Header.Get(HouseholdHeader))
			if household == "" {
				household = strings.TrimSpace(r.URL.Query().Get(HouseholdQuery))
			}
			if household == "" {
				household = defaultHousehold
			}
			ctx := context.WithValue(r.Context(), householdKey, household)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HouseholdFromContext returns the household resolved by Household
func HouseholdFromContext(ctx context.Context) string {
	household, _ := ctx.Value(householdKey).(string)
	return household
}
