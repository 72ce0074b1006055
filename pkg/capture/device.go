package capture

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrDeviceUnavailable is returned when the camera cannot be opened.
var ErrDeviceUnavailable = errors.New("capture: device unavailable")

// Device is an open camera. *gocv.VideoCapture satisfies it.
type Device interface {
	// Read grabs the next frame into dst. It returns false when no frame
	// could be read (device gone, end of stream).
	Read(dst *gocv.Mat) bool

	// Close releases the device.
	Close() error
}

// Opener acquires a Device. Each call opens a fresh handle.
type Opener func() (Device, error)

// Webcam returns an Opener for a fixed configuration.
func Webcam(cfg Config) Opener {
	return func() (Device, error) {
		return OpenWebcam(cfg)
	}
}

// OpenWebcam opens the camera at cfg.DeviceID and applies the non-zero
// settings from cfg.
func OpenWebcam(cfg Config) (Device, error) {
	cam, err := gocv.OpenVideoCapture(cfg.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrDeviceUnavailable, cfg.DeviceID, err)
	}
	if !cam.IsOpened() {
		cam.Close()
		return nil, fmt.Errorf("%w: device %d not opened", ErrDeviceUnavailable, cfg.DeviceID)
	}

	if cfg.Width > 0 && cfg.Height > 0 {
		cam.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		cam.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.Framerate > 0 {
		cam.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}
	if cfg.BufferSize > 0 {
		cam.Set(gocv.VideoCaptureBufferSize, float64(cfg.BufferSize))
	}

	return cam, nil
}
