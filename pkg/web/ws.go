package web

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/emocam/pkg/emotion"
	"github.com/teslashibe/emocam/pkg/stream"
)

const (
	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong response
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds what clients may send; they are not expected to
	maxMessageSize = 4 * 1024
)

// Box is a face rectangle in pixels.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// FaceMessage describes one detected face.
type FaceMessage struct {
	Box     Box                `json:"box"`
	Emotion string             `json:"emotion"`
	Scores  map[string]float64 `json:"scores"`
}

// DetectionMessage is sent on /ws/detections for every frame.
type DetectionMessage struct {
	Seq   uint64        `json:"seq"`
	Time  time.Time     `json:"time"`
	Faces []FaceMessage `json:"faces"`
}

// NewDetectionMessage converts a frame's detections for the wire.
func NewDetectionMessage(f stream.Frame) DetectionMessage {
	msg := DetectionMessage{
		Seq:   f.Seq,
		Time:  f.Captured,
		Faces: make([]FaceMessage, 0, len(f.Faces)),
	}
	for _, face := range f.Faces {
		msg.Faces = append(msg.Faces, newFaceMessage(face))
	}
	return msg
}

func newFaceMessage(f emotion.Face) FaceMessage {
	return FaceMessage{
		Box: Box{
			X: f.Box.Min.X,
			Y: f.Box.Min.Y,
			W: f.Box.Dx(),
			H: f.Box.Dy(),
		},
		Emotion: f.Label(),
		Scores:  f.Emotions(),
	}
}

// handleDetectionsWS pushes one DetectionMessage per frame. The client
// counts as a viewer: it keeps the camera open while connected.
func (s *Server) handleDetectionsWS(c *websocket.Conn) {
	defer c.Close()

	sub, err := s.hub.Subscribe(context.Background())
	if err != nil {
		s.logger.Warn("detections unavailable", "error", err)
		c.SetWriteDeadline(time.Now().Add(writeWait))
		c.WriteJSON(map[string]string{"error": err.Error()})
		return
	}
	defer s.hub.Unsubscribe(sub)

	s.wsClients.Add(1)
	defer s.wsClients.Add(-1)
	s.logger.Info("detections client connected", "subscriber", sub.ID)

	// Read to detect disconnection and receive pongs.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		c.SetReadLimit(maxMessageSize)
		c.SetReadDeadline(time.Now().Add(pongWait))
		c.SetPongHandler(func(string) error {
			c.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case f, ok := <-sub.C:
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.WriteJSON(NewDetectionMessage(f)); err != nil {
				return
			}

		case <-ticker.C:
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-gone:
			s.logger.Info("detections client disconnected", "subscriber", sub.ID)
			return
		}
	}
}
