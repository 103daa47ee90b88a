// Package generation provides the HTTP client of the upstream meal
// generator. Responses are streamed back as NDJSON or server-sent event
// frames and handed to the planning pipeline unparsed.
package generation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/domain/generation"
	"github.com/dietcompass/planner/internal/infrastructure/config"
	"github.com/dietcompass/planner/internal/ports/outbound"
	"github.com/dietcompass/planner/pkg/errors"
)

const (
	serviceName = "meal generator"
	// errorBodyLimit bounds how much of a failed response is kept
	errorBodyLimit = 4 << 10
)

// Client implements the GenerationClient interface over HTTP
type Client struct {
	client *resty.Client
	logger *zap.Logger
}

// NewClient creates a generator client. Transient failures (connection
// errors, 429 and 5xx answers) are retried MaxRetries times.
func NewClient(cfg *config.GenerationConfig, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.NewValidationError("generation.url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/x-ndjson, text/event-stream").
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			code := resp.StatusCode()
			return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
		})
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	logger.Info("Generation client initialized",
		zap.String("url", cfg.URL),
		zap.Duration("timeout", timeout),
		zap.Int("max_retries", cfg.MaxRetries),
	)

	return &Client{client: client, logger: logger.Named("generation-client")}, nil
}

// Stream posts the request and returns the response body unread
func (c *Client) Stream(ctx context.Context, req generation.Request) (io.ReadCloser, error) {
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetDoNotParseResponse(true).
		Post("")
	if err != nil {
		c.logger.Error("Generation request failed", zap.Error(err))
		if resp != nil && resp.RawBody() != nil {
			resp.RawBody().Close()
		}
		return nil, errors.NewExternalServiceError(serviceName, err)
	}

	body := resp.RawBody()
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(body, errorBodyLimit))
		body.Close()
		c.logger.Warn("Generator rejected the request",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", string(detail)),
		)
		return nil, errors.NewExternalServiceError(serviceName,
			fmt.Errorf("status %d: %s", resp.StatusCode(), strings.TrimSpace(string(detail)))).
			WithMetadata("status", resp.StatusCode())
	}

	c.logger.Debug("Generation stream opened",
		zap.Int("status", resp.StatusCode()),
		zap.Duration("latency", time.Since(start)),
		zap.Int("eaters", len(req.Eaters)),
	)
	return body, nil
}

var _ outbound.GenerationClient = (*Client)(nil)
