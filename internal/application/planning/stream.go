package planning

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/dietcompass/planner/internal/domain/generation"
	"github.com/dietcompass/planner/internal/ports/inbound"
	"github.com/dietcompass/planner/pkg/errors"
)

// maxFrameSize bounds one stream line. A complete frame carries the whole
// raw plan.
const maxFrameSize = 4 << 20

var (
	ssePrefix = []byte("data:")
	doneFrame = []byte("[DONE]")
)

// ReadFrames reads a generation stream until its complete frame and returns
// the raw plan it carries. The stream is either NDJSON, one frame per line,
// or server-sent events whose consecutive "data:" lines form one frame up
// to the next blank line. Progress frames go to onProgress.
//
// An error frame, a stream that ends before completing or a cancelled
// context all yield a StreamError.
func ReadFrames(ctx context.Context, r io.Reader, onProgress inbound.ProgressFunc) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)

	fr := frameReader{onProgress: onProgress}
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewStreamError("generation cancelled", err)
		}

		line := bytes.TrimSpace(scanner.Bytes())
		switch {
		case len(line) == 0:
			if data, err := fr.flush(); data != nil || err != nil {
				return data, err
			}
		case isSSEField(line):
		case bytes.HasPrefix(line, ssePrefix):
			fr.appendData(line[len(ssePrefix):])
		default:
			if data, err := fr.flush(); data != nil || err != nil {
				return data, err
			}
			if data, err := fr.handle(line); data != nil || err != nil {
				return data, err
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.NewStreamError("generation cancelled", err)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewStreamError("reading stream", err)
	}
	if data, err := fr.flush(); data != nil || err != nil {
		return data, err
	}
	return nil, errors.NewStreamError("stream ended before completion", io.ErrUnexpectedEOF)
}

// frameReader holds the data lines of the event being read
type frameReader struct {
	onProgress inbound.ProgressFunc
	pending    [][]byte
}

func (fr *frameReader) appendData(payload []byte) {
	// A single space after the colon belongs to the field separator
	payload = bytes.TrimPrefix(payload, []byte(" "))
	fr.pending = append(fr.pending, append([]byte(nil), payload...))
}

// flush parses the pending event, if any
func (fr *frameReader) flush() ([]byte, error) {
	if len(fr.pending) == 0 {
		return nil, nil
	}
	event := bytes.TrimSpace(bytes.Join(fr.pending, []byte("\n")))
	fr.pending = fr.pending[:0]
	return fr.handle(event)
}

// handle parses one frame. It returns the raw plan on completion, an error
// when the stream must stop, and nil for both otherwise.
func (fr *frameReader) handle(payload []byte) ([]byte, error) {
	if len(payload) == 0 || bytes.Equal(payload, doneFrame) {
		return nil, nil
	}

	frame, err := generation.ParseFrame(payload)
	if err != nil {
		return nil, errors.NewStreamError("unreadable frame", err)
	}
	switch frame.Type {
	case generation.FrameProgress:
		if fr.onProgress != nil {
			fr.onProgress(frame.Progress, frame.Message)
		}
	case generation.FrameError:
		msg := frame.Error
		if msg == "" {
			msg = "generator reported an error"
		}
		return nil, errors.NewStreamError(msg, nil)
	case generation.FrameComplete:
		if len(bytes.TrimSpace(frame.Data)) == 0 || bytes.Equal(frame.Data, []byte("null")) {
			return nil, errors.NewStreamError("complete frame without data", nil)
		}
		return frame.Data, nil
	}
	return nil, nil
}

// isSSEField reports server-sent event lines other than data
func isSSEField(line []byte) bool {
	return line[0] == ':' ||
		bytes.HasPrefix(line, []byte("event:")) ||
		bytes.HasPrefix(line, []byte("id:")) ||
		bytes.HasPrefix(line, []byte("retry:"))
}
