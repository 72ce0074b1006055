// Package config provides process configuration for emocam commands.
// Values come from EMOCAM_* environment variables; cmd flags override them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults. The server listens on all interfaces on port 80 unless told otherwise.
const (
	DefaultAddr         = "0.0.0.0:80"
	DefaultDevice       = 0
	DefaultLocator      = LocatorYuNet
	DefaultFaceModel    = "models/face_detection_yunet.onnx"
	DefaultCascade      = "models/haarcascade_frontalface_default.xml"
	DefaultEmotionModel = "models/emotion_fer.onnx"
	DefaultLogLevel     = "info"
	DefaultSendTimeout  = 2 * time.Second
)

// Face locator backends.
const (
	LocatorYuNet   = "yunet"
	LocatorCascade = "cascade"
)

// Config holds all runtime configuration.
// Flag parsing is done in cmd/emocam; this struct is data only.
type Config struct {
	// Server
	Addr string

	// Capture
	Device      int
	Width       int // 0 keeps the driver default
	Height      int
	Framerate   int
	JPEGQuality int // 0 keeps the encoder default

	// Detection
	Locator      string // "yunet" or "cascade"
	FaceModel    string
	Cascade      string
	EmotionModel string

	// Streaming
	SendTimeout time.Duration

	LogLevel string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:         DefaultAddr,
		Device:       DefaultDevice,
		Locator:      DefaultLocator,
		FaceModel:    DefaultFaceModel,
		Cascade:      DefaultCascade,
		EmotionModel: DefaultEmotionModel,
		SendTimeout:  DefaultSendTimeout,
		LogLevel:     DefaultLogLevel,
	}
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	d := Default()
	return Config{
		Addr:         envStr("EMOCAM_ADDR", d.Addr),
		Device:       envInt("EMOCAM_DEVICE", d.Device),
		Width:        envInt("EMOCAM_WIDTH", d.Width),
		Height:       envInt("EMOCAM_HEIGHT", d.Height),
		Framerate:    envInt("EMOCAM_FPS", d.Framerate),
		JPEGQuality:  envInt("EMOCAM_JPEG_QUALITY", d.JPEGQuality),
		Locator:      strings.ToLower(envStr("EMOCAM_LOCATOR", d.Locator)),
		FaceModel:    envStr("EMOCAM_FACE_MODEL", d.FaceModel),
		Cascade:      envStr("EMOCAM_CASCADE", d.Cascade),
		EmotionModel: envStr("EMOCAM_EMOTION_MODEL", d.EmotionModel),
		SendTimeout:  envDuration("EMOCAM_SEND_TIMEOUT", d.SendTimeout),
		LogLevel:     envStr("EMOCAM_LOG_LEVEL", d.LogLevel),
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return &ConfigError{Field: "Addr", Message: "listen address is required"}
	}
	if c.Device < 0 {
		return &ConfigError{Field: "Device", Message: "device index must be >= 0"}
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		return &ConfigError{Field: "JPEGQuality", Message: "jpeg quality must be between 0 and 100"}
	}
	switch c.Locator {
	case LocatorYuNet:
		if c.FaceModel == "" {
			return &ConfigError{Field: "FaceModel", Message: "face model path is required for the yunet locator"}
		}
	case LocatorCascade:
		if c.Cascade == "" {
			return &ConfigError{Field: "Cascade", Message: "cascade path is required for the cascade locator"}
		}
	default:
		return &ConfigError{Field: "Locator", Message: fmt.Sprintf("unknown locator %q (want yunet or cascade)", c.Locator)}
	}
	if c.EmotionModel == "" {
		return &ConfigError{Field: "EmotionModel", Message: "emotion model path is required"}
	}
	if c.SendTimeout <= 0 {
		return &ConfigError{Field: "SendTimeout", Message: "send timeout must be positive"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Message
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
