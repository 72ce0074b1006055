package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when reading from a closed stream.
	ErrClosed = errors.New("stream: closed")

	// ErrHubClosed is returned when subscribing to a closed hub.
	ErrHubClosed = errors.New("stream: hub closed")

	// ErrSlowSubscriber is reported to a subscriber dropped for not
	// keeping up with the camera.
	ErrSlowSubscriber = errors.New("stream: subscriber too slow")
)

// FrameError reports a failure while processing one captured frame.
// It ends the stream.
type FrameError struct {
	Seq   uint64 // Sequence number of the failing frame
	Stage string // "detect", "encode", "frame" or "panic"
	Err   error
}

// Error implements the error interface.
func (e *FrameError) Error() string {
	return fmt.Sprintf("stream: frame %d: %s: %v", e.Seq, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *FrameError) Unwrap() error {
	return e.Err
}
