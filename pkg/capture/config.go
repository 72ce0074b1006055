// Package capture provides the camera device used by the frame streamer
// and runtime-configurable capture settings.
package capture

// Config holds capture device parameters.
// Zero values leave the driver's own setting untouched.
type Config struct {
	// DeviceID is the OS camera index (0 is the default webcam).
	DeviceID int `json:"device_id"`

	// === Resolution ===
	Width     int `json:"width"`     // Frame width in pixels
	Height    int `json:"height"`    // Frame height in pixels
	Framerate int `json:"framerate"` // Target FPS

	// Quality is the JPEG quality 1-100 used when encoding frames.
	// 0 keeps the encoder default.
	Quality int `json:"quality"`

	// BufferSize is the driver-side frame queue length. Small values keep
	// the stream close to real time.
	BufferSize int `json:"buffer_size"`
}

// Device limits accepted by Validate.
const (
	MaxWidth     = 4096
	MaxHeight    = 2160
	MaxFramerate = 120
	MaxBuffer    = 16
)

// DefaultConfig returns the configuration used when nothing is set:
// device 0 at whatever resolution the driver picks.
func DefaultConfig() Config {
	return Config{
		DeviceID:   0,
		BufferSize: 1,
	}
}

// VGAConfig returns 640x480 at 30 fps, the common webcam mode.
func VGAConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	cfg.Framerate = 30
	return cfg
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.DeviceID < 0 {
		errors = append(errors, "device_id must be >= 0")
	}
	if c.Width != 0 && (c.Width < 160 || c.Width > MaxWidth) {
		errors = append(errors, "width must be 0 (driver default) or between 160 and 4096")
	}
	if c.Height != 0 && (c.Height < 120 || c.Height > MaxHeight) {
		errors = append(errors, "height must be 0 (driver default) or between 120 and 2160")
	}
	if (c.Width == 0) != (c.Height == 0) {
		errors = append(errors, "width and height must be set together")
	}
	if c.Framerate != 0 && (c.Framerate < 1 || c.Framerate > MaxFramerate) {
		errors = append(errors, "framerate must be 0 (driver default) or between 1 and 120")
	}
	if c.Quality < 0 || c.Quality > 100 {
		errors = append(errors, "quality must be 0 (encoder default) or between 1 and 100")
	}
	if c.BufferSize < 0 || c.BufferSize > MaxBuffer {
		errors = append(errors, "buffer_size must be between 0 and 16")
	}

	return errors
}
