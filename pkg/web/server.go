// Package web serves the live emotion stream over HTTP.
package web

import (
	"context"
	_ "embed"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/emocam/internal/log"
	"github.com/teslashibe/emocam/pkg/capture"
	"github.com/teslashibe/emocam/pkg/stream"
)

//go:embed static/index.html
var indexHTML []byte

// Config configures the HTTP server.
type Config struct {
	Addr    string
	Debug   bool // enables request logging
	Version string
	Logger  *slog.Logger
}

// Server is the HTTP front end for a stream hub.
type Server struct {
	app     *fiber.App
	addr    string
	version string
	logger  *slog.Logger

	hub    *stream.Hub
	camera *capture.Manager // nil disables the camera API

	started   time.Time
	viewers   atomic.Int64
	wsClients atomic.Int64
}

// NewServer creates a server streaming from h. camera may be nil.
func NewServer(cfg Config, h *stream.Hub, camera *capture.Manager) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Component("web")
	}

	s := &Server{
		addr:    cfg.Addr,
		version: cfg.Version,
		logger:  cfg.Logger,
		hub:     h,
		camera:  camera,
		started: time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "emocam",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,PUT,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	if cfg.Debug {
		app.Use(logger.New())
	}

	app.Get("/", s.handleIndex)
	app.Get("/video_feed", s.handleVideoFeed)
	app.Get("/health", s.handleHealth)
	app.Get("/metrics", s.handleMetrics)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handleUpdateCamera)
	api.Get("/camera/presets", s.handleCameraPresets)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/detections", websocket.New(s.handleDetectionsWS))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start serves until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("serving", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown stops accepting connections and waits for open ones to finish.
// Close the hub first so streaming responses end.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
