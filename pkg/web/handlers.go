package web

import (
	"bufio"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/teslashibe/emocam/pkg/capture"
	"github.com/teslashibe/emocam/pkg/mjpeg"
	"github.com/teslashibe/emocam/pkg/stream"
)

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(indexHTML)
}

// handleVideoFeed streams annotated frames as multipart JPEG until the
// camera stops or the client goes away.
func (s *Server) handleVideoFeed(c *fiber.Ctx) error {
	sub, err := s.hub.Subscribe(c.UserContext())
	if err != nil {
		s.logger.Warn("video feed unavailable", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, mjpeg.ContentType)
	c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")

	s.viewers.Add(1)
	s.logger.Info("viewer connected", "subscriber", sub.ID, "ip", c.IP())

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			s.hub.Unsubscribe(sub)
			s.viewers.Add(-1)
			s.logger.Info("viewer disconnected", "subscriber", sub.ID)
		}()

		for f := range sub.C {
			if _, err := w.Write(f.Chunk); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
		if err := sub.Err(); err != nil {
			s.logger.Warn("video feed ended", "subscriber", sub.ID, "error", err)
		}
	})
	return nil
}

// StatusResponse is returned by /api/status.
type StatusResponse struct {
	stream.Stats
	Viewers   int64  `json:"viewers"`
	WSClients int64  `json:"ws_clients"`
	Uptime    string `json:"uptime"`
	Version   string `json:"version,omitempty"`
}

func (s *Server) status() StatusResponse {
	return StatusResponse{
		Stats:     s.hub.Stats(),
		Viewers:   s.viewers.Load(),
		WSClients: s.wsClients.Load(),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Version:   s.version,
	}
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	st := s.status()
	running := 0
	if st.Running {
		running = 1
	}

	return c.SendString(fmt.Sprintf(`# HELP emocam_camera_running Whether the camera is streaming
# TYPE emocam_camera_running gauge
emocam_camera_running %d

# HELP emocam_subscribers Active frame subscribers
# TYPE emocam_subscribers gauge
emocam_subscribers %d

# HELP emocam_camera_sessions_total Times the camera was opened
# TYPE emocam_camera_sessions_total counter
emocam_camera_sessions_total %d

# HELP emocam_frames_total Frames streamed
# TYPE emocam_frames_total counter
emocam_frames_total %d

# HELP emocam_faces_total Faces detected across all frames
# TYPE emocam_faces_total counter
emocam_faces_total %d

# HELP emocam_dropped_subscribers_total Subscribers dropped for falling behind
# TYPE emocam_dropped_subscribers_total counter
emocam_dropped_subscribers_total %d
`, running, st.Subscribers, st.Sessions, st.Frames, st.Faces, st.Dropped))
}

func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "camera settings not available",
		})
	}
	return c.JSON(s.camera.GetConfigJSON())
}

// handleUpdateCamera applies a partial settings update, e.g.
// {"preset": "720p"} or {"quality": 70}.
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "camera settings not available",
		})
	}

	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON body",
		})
	}

	if err := s.camera.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.logger.Info("camera settings updated", "settings", params)
	return c.JSON(s.camera.GetConfigJSON())
}

func (s *Server) handleCameraPresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"presets": capture.PresetNames(),
	})
}
