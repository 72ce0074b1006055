// Package stream turns camera frames into annotated MJPEG chunks.
//
// A Streamer owns the per-frame pipeline: capture, detect, draw, encode,
// frame. Iteration is lazy: the camera is opened when the first frame is
// requested and released exactly once when iteration ends, whether the
// device stops producing frames, a frame fails, or the consumer stops.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/emocam/internal/log"
	"github.com/teslashibe/emocam/pkg/capture"
	"github.com/teslashibe/emocam/pkg/emotion"
	"github.com/teslashibe/emocam/pkg/mjpeg"
	"github.com/teslashibe/emocam/pkg/overlay"
	"gocv.io/x/gocv"
)

// Frame is one processed camera frame.
type Frame struct {
	Seq      uint64         // 1 for the first frame of a stream, strictly increasing
	Captured time.Time      // When the frame was read from the device
	Faces    []emotion.Face // Detections drawn onto the frame
	Chunk    []byte         // Complete multipart chunk carrying the JPEG
}

// JPEG returns the encoded image inside the chunk.
func (f Frame) JPEG() []byte {
	data, _ := mjpeg.Payload(f.Chunk)
	return data
}

// Streamer produces annotated frames from a camera.
type Streamer struct {
	open     capture.Opener
	detector emotion.Detector
	drawer   *overlay.Drawer
	encode   Encoder
	logger   *slog.Logger
}

// Option configures a Streamer.
type Option func(*Streamer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Streamer) { s.logger = l }
}

// WithDrawer replaces the default green-box drawer.
func WithDrawer(d *overlay.Drawer) Option {
	return func(s *Streamer) { s.drawer = d }
}

// WithEncoder replaces the default JPEG encoder.
func WithEncoder(e Encoder) Option {
	return func(s *Streamer) { s.encode = e }
}

// WithQuality sets the JPEG quality of the default encoder.
func WithQuality(q int) Option {
	return func(s *Streamer) { s.encode = JPEG(q) }
}

// NewStreamer creates a Streamer reading from devices returned by open and
// annotating with det. The detector is shared, not owned: closing streams
// never closes it.
func NewStreamer(open capture.Opener, det emotion.Detector, opts ...Option) *Streamer {
	s := &Streamer{
		open:     open,
		detector: det,
		drawer:   overlay.NewDrawer(overlay.DefaultStyle()),
		encode:   JPEG(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Component("stream")
	}
	return s
}

// Open acquires the camera and returns a Stream over it.
// Failure to acquire is reported as capture.ErrDeviceUnavailable.
func (s *Streamer) Open(ctx context.Context) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dev, err := s.open()
	if err == nil && dev == nil {
		err = errors.New("opener returned no device")
	}
	if err != nil {
		if !errors.Is(err, capture.ErrDeviceUnavailable) {
			err = fmt.Errorf("%w: %v", capture.ErrDeviceUnavailable, err)
		}
		s.logger.Warn("camera open failed", "error", err)
		return nil, err
	}

	s.logger.Info("camera opened")
	return &Stream{s: s, dev: dev, img: gocv.NewMat()}, nil
}

// Frames opens the camera on first use and yields frames until the device
// stops, a frame fails, ctx is cancelled, or the consumer stops iterating.
// A failure to open or process is yielded once as the final element.
func (s *Streamer) Frames(ctx context.Context) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		st, err := s.Open(ctx)
		if err != nil {
			yield(Frame{}, err)
			return
		}
		for f, err := range st.All(ctx) {
			if !yield(f, err) {
				return
			}
		}
	}
}

// Chunks is Frames reduced to the multipart chunk of each frame.
func (s *Streamer) Chunks(ctx context.Context) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for f, err := range s.Frames(ctx) {
			if !yield(f.Chunk, err) {
				return
			}
		}
	}
}

// Stream is an open camera being turned into frames.
// A Stream is not safe for concurrent use.
type Stream struct {
	s   *Streamer
	dev capture.Device
	img gocv.Mat
	seq uint64

	once     sync.Once
	closed   bool
	closeErr error
}

// Next reads and processes the next frame.
//
// It returns io.EOF when ctx is done or the device yields no frame, and a
// *FrameError when detection, drawing, or encoding fails. Either way the
// stream is closed before Next returns.
func (st *Stream) Next(ctx context.Context) (Frame, error) {
	if st.closed {
		return Frame{}, ErrClosed
	}
	if ctx.Err() != nil {
		st.Close()
		return Frame{}, io.EOF
	}

	if !st.dev.Read(&st.img) || st.img.Empty() {
		st.s.logger.Debug("camera produced no frame", "after", st.seq)
		st.Close()
		return Frame{}, io.EOF
	}
	captured := time.Now()

	st.seq++
	f, err := st.process(st.seq)
	if err != nil {
		st.s.logger.Error("frame failed", "seq", st.seq, "error", err)
		st.Close()
		return Frame{}, err
	}
	f.Captured = captured
	return f, nil
}

func (st *Stream) process(seq uint64) (f Frame, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &FrameError{Seq: seq, Stage: "panic", Err: fmt.Errorf("%v", r)}
		}
	}()

	faces, err := st.s.detector.Detect(st.img)
	if err != nil {
		return Frame{}, &FrameError{Seq: seq, Stage: "detect", Err: err}
	}

	st.s.drawer.Draw(&st.img, faces)

	data, err := st.s.encode(st.img)
	if err != nil {
		return Frame{}, &FrameError{Seq: seq, Stage: "encode", Err: err}
	}
	chunk, err := mjpeg.Chunk(data)
	if err != nil {
		return Frame{}, &FrameError{Seq: seq, Stage: "frame", Err: err}
	}

	return Frame{Seq: seq, Faces: faces, Chunk: chunk}, nil
}

// All yields frames until Next stops. The stream is closed when the
// returned sequence finishes, including when the consumer breaks early.
// io.EOF is not yielded; any other error is yielded once.
func (st *Stream) All(ctx context.Context) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		defer st.Close()
		for {
			f, err := st.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Frame{}, err)
				return
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

// Seq returns the sequence number of the last frame produced.
func (st *Stream) Seq() uint64 {
	return st.seq
}

// Close releases the camera. Only the first call has an effect.
func (st *Stream) Close() error {
	st.once.Do(func() {
		st.closed = true
		st.closeErr = st.dev.Close()
		st.img.Close()
		if st.closeErr != nil {
			st.s.logger.Warn("camera release failed", "error", st.closeErr)
		}
		st.s.logger.Info("camera released", "frames", st.seq)
	})
	return st.closeErr
}
