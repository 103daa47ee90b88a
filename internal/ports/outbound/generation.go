package outbound

import (
	"context"
	"io"

	"github.com/dietcompass/planner/internal/domain/generation"
)

// GenerationClient talks to the upstream meal generator
type GenerationClient interface {
	// Stream sends the request and returns the response frame stream. The
	// caller closes it.
	Stream(ctx context.Context, req generation.Request) (io.ReadCloser, error)
}
