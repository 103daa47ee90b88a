package generation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// FrameType is the kind of a stream frame
type FrameType string

const (
	FrameProgress FrameType = "progress"
	FrameComplete FrameType = "complete"
	FrameError    FrameType = "error"
)

// Frame is one event of the generation stream
type Frame struct {
	Type     FrameType       `json:"type"`
	Progress int             `json:"progress,omitempty"`
	Message  string          `json:"message,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// wireFrame accepts fractional progress from generators that report it
type wireFrame struct {
	Type     FrameType       `json:"type"`
	Progress float64         `json:"progress"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	Error    string          `json:"error"`
}

var errUnknownFrame = errors.New("unknown frame type")

// ParseFrame decodes one frame. The type must be known and nothing may
// follow the object; fields the frame does not use are ignored. Progress is
// rounded and clamped to 0..100.
func ParseFrame(line []byte) (Frame, error) {
	dec := json.NewDecoder(bytes.NewReader(line))

	var w wireFrame
	if err := dec.Decode(&w); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if dec.More() {
		return Frame{}, errors.New("decode frame: trailing data")
	}

	switch w.Type {
	case FrameProgress, FrameComplete, FrameError:
	default:
		return Frame{}, fmt.Errorf("%w: %q", errUnknownFrame, w.Type)
	}
	return Frame{
		Type:     w.Type,
		Progress: clampProgress(w.Progress),
		Message:  w.Message,
		Data:     w.Data,
		Error:    w.Error,
	}, nil
}

func clampProgress(p float64) int {
	switch {
	case math.IsNaN(p) || p <= 0:
		return 0
	case p >= 100:
		return 100
	}
	return int(math.Round(p))
}
