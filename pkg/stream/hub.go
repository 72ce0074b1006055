package stream

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/emocam/internal/log"
)

// HubConfig configures a Hub.
type HubConfig struct {
	// SendTimeout is how long a subscriber may leave a frame unaccepted
	// before it is dropped.
	SendTimeout time.Duration

	// Buffer is the number of frames queued per subscriber.
	Buffer int

	Logger *slog.Logger
}

// DefaultHubConfig returns the default hub settings.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		SendTimeout: 2 * time.Second,
		Buffer:      2,
	}
}

// Subscriber receives frames from a Hub.
type Subscriber struct {
	ID string

	// C delivers frames in capture order. It is closed when the camera
	// stream ends, the subscriber is dropped, or it unsubscribes; Err then
	// tells why.
	C <-chan Frame

	c        chan Frame
	done     chan struct{}
	doneOnce sync.Once

	mu     sync.Mutex // held while sending on c
	closed bool
	err    error
}

// Err returns why C was closed: nil for a normal end of stream,
// ErrSlowSubscriber, or the error that ended the camera stream.
// It is only meaningful after C is closed.
func (s *Subscriber) Err() error {
	return s.err
}

func (s *Subscriber) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked(err)
}

func (s *Subscriber) finishLocked(err error) {
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.c)
}

// Stats is a snapshot of hub activity.
type Stats struct {
	Running     bool   `json:"running"`
	Subscribers int    `json:"subscribers"`
	Sessions    uint64 `json:"sessions"`
	Frames      uint64 `json:"frames"`
	Faces       uint64 `json:"faces"`
	Dropped     uint64 `json:"dropped"`
	LastSeq     uint64 `json:"last_seq"`
	LastError   string `json:"last_error,omitempty"`
}

// Hub shares one camera stream between any number of subscribers.
//
// The camera is opened by the first subscriber and released when the last
// one leaves or the stream ends. A single producer goroutine reads frames
// and hands each to every subscriber in order.
type Hub struct {
	streamer    *Streamer
	sendTimeout time.Duration
	buffer      int
	logger      *slog.Logger

	mu       sync.Mutex
	subs     map[string]*Subscriber
	running  bool
	stopping bool
	reload   bool
	cancel   context.CancelFunc // stops the producer
	cut      context.CancelFunc // ends the current camera session only
	done     chan struct{}      // closed when the producer has exited
	closed   bool
	lastErr  error

	sessions atomic.Uint64
	frames   atomic.Uint64
	faces    atomic.Uint64
	dropped  atomic.Uint64
	lastSeq  atomic.Uint64
}

// NewHub creates a Hub serving frames from s.
func NewHub(s *Streamer, cfg HubConfig) *Hub {
	def := DefaultHubConfig()
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = def.SendTimeout
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = def.Buffer
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Component("hub")
	}

	return &Hub{
		streamer:    s,
		sendTimeout: cfg.SendTimeout,
		buffer:      cfg.Buffer,
		logger:      cfg.Logger,
		subs:        make(map[string]*Subscriber),
	}
}

// Subscribe registers a new subscriber, opening the camera if no stream is
// running. It fails with capture.ErrDeviceUnavailable when the camera
// cannot be opened and ErrHubClosed after Close.
func (h *Hub) Subscribe(ctx context.Context) (*Subscriber, error) {
	for {
		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			return nil, ErrHubClosed
		}

		if h.running && !h.stopping {
			sub := h.addLocked()
			h.mu.Unlock()
			return sub, nil
		}

		if h.running {
			// The previous producer is still releasing the camera.
			done := h.done
			h.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		st, err := h.streamer.Open(ctx)
		if err != nil {
			h.lastErr = err
			h.mu.Unlock()
			return nil, err
		}
		h.sessions.Add(1)

		pctx, cancel := context.WithCancel(context.Background())
		h.running = true
		h.cancel = cancel
		h.done = make(chan struct{})
		sub := h.addLocked()
		go h.run(pctx, st, h.done)
		h.mu.Unlock()

		h.logger.Info("stream started")
		return sub, nil
	}
}

func (h *Hub) addLocked() *Subscriber {
	c := make(chan Frame, h.buffer)
	sub := &Subscriber{
		ID:   uuid.New().String(),
		C:    c,
		c:    c,
		done: make(chan struct{}),
	}
	h.subs[sub.ID] = sub
	h.logger.Debug("subscriber added", "id", sub.ID, "subscribers", len(h.subs))
	return sub
}

// removeLocked drops sub from the set and stops the producer when it was
// the last one.
func (h *Hub) removeLocked(sub *Subscriber) bool {
	if _, ok := h.subs[sub.ID]; !ok {
		return false
	}
	delete(h.subs, sub.ID)
	if len(h.subs) == 0 && h.running && !h.stopping {
		h.stopping = true
		h.cancel()
	}
	return true
}

// Unsubscribe removes sub and closes its channel. When it was the last
// subscriber the camera is released. It is safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	removed := h.removeLocked(sub)
	remaining := len(h.subs)
	h.mu.Unlock()

	sub.doneOnce.Do(func() { close(sub.done) })
	sub.finish(nil)
	if removed {
		h.logger.Debug("subscriber removed", "id", sub.ID, "subscribers", remaining)
	}
}

// Reload restarts the camera session without disconnecting subscribers,
// so new capture settings take effect. It does nothing when idle.
func (h *Hub) Reload() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running || h.stopping || h.cut == nil {
		return
	}
	h.reload = true
	h.cut()
}

func (h *Hub) run(ctx context.Context, st *Stream, done chan struct{}) {
	var err error
	for {
		err = h.pump(ctx, st)
		if err != nil || ctx.Err() != nil || !h.takeReload() {
			break
		}

		h.logger.Info("reopening camera")
		st, err = h.streamer.Open(ctx)
		if err != nil {
			break
		}
		h.sessions.Add(1)
	}
	h.finish(err, done)
}

func (h *Hub) takeReload() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.reload
	h.reload = false
	return r
}

// pump runs one camera session until it ends, ctx is cancelled, or Reload
// cuts it. The stream is always closed on return.
func (h *Hub) pump(ctx context.Context, st *Stream) error {
	sctx, cut := context.WithCancel(ctx)
	defer cut()

	h.mu.Lock()
	h.cut = cut
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.cut = nil
		h.mu.Unlock()
	}()

	for f, err := range st.All(sctx) {
		if err != nil {
			return err
		}
		h.frames.Add(1)
		h.faces.Add(uint64(len(f.Faces)))
		h.lastSeq.Store(f.Seq)
		h.broadcast(sctx, f)
	}
	return nil
}

func (h *Hub) broadcast(ctx context.Context, f Frame) {
	h.mu.Lock()
	subs := make([]*Subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		h.deliver(ctx, sub, f)
	}
}

func (h *Hub) deliver(ctx context.Context, sub *Subscriber, f Frame) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}

	select {
	case sub.c <- f:
		return
	default:
	}

	timer := time.NewTimer(h.sendTimeout)
	defer timer.Stop()

	select {
	case sub.c <- f:
	case <-sub.done:
	case <-ctx.Done():
	case <-timer.C:
		h.mu.Lock()
		h.removeLocked(sub)
		h.mu.Unlock()
		sub.finishLocked(ErrSlowSubscriber)
		h.dropped.Add(1)
		h.logger.Warn("dropped slow subscriber", "id", sub.ID, "seq", f.Seq)
	}
}

func (h *Hub) finish(err error, done chan struct{}) {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]*Subscriber)
	cancel := h.cancel
	h.running = false
	h.stopping = false
	h.reload = false
	h.cancel = nil
	h.done = nil
	if err != nil {
		h.lastErr = err
	}
	h.mu.Unlock()

	cancel()
	for _, sub := range subs {
		sub.finish(err)
	}
	close(done)

	if err != nil {
		h.logger.Error("stream ended", "error", err)
	} else {
		h.logger.Info("stream stopped")
	}
}

// Stats returns a snapshot of hub activity.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	st := Stats{
		Running:     h.running && !h.stopping,
		Subscribers: len(h.subs),
	}
	if h.lastErr != nil {
		st.LastError = h.lastErr.Error()
	}
	h.mu.Unlock()

	st.Sessions = h.sessions.Load()
	st.Frames = h.frames.Load()
	st.Faces = h.faces.Load()
	st.Dropped = h.dropped.Load()
	st.LastSeq = h.lastSeq.Load()
	return st
}

// Close stops the producer, waits for the camera to be released, and
// rejects further subscriptions.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	done := h.done
	if h.running && !h.stopping {
		h.stopping = true
		h.cancel()
	}
	h.mu.Unlock()

	if done != nil {
		<-done
	}
	return nil
}
