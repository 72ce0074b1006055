package emotion

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
)

// CascadeConfig holds Haar cascade locator settings.
type CascadeConfig struct {
	Path         string
	ScaleFactor  float64
	MinNeighbors int
	MinSize      int // Smallest face side in pixels
}

// DefaultCascadeConfig returns settings for OpenCV's frontal face cascade.
func DefaultCascadeConfig() CascadeConfig {
	return CascadeConfig{
		Path:         "models/haarcascade_frontalface_default.xml",
		ScaleFactor:  1.1,
		MinNeighbors: 5,
		MinSize:      50,
	}
}

// CascadeLocator finds faces with an OpenCV cascade classifier.
type CascadeLocator struct {
	classifier gocv.CascadeClassifier
	config     CascadeConfig
}

// NewCascade loads the cascade file at cfg.Path.
func NewCascade(cfg CascadeConfig) (*CascadeLocator, error) {
	if _, err := os.Stat(cfg.Path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.Path)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cfg.Path) {
		classifier.Close()
		return nil, fmt.Errorf("%w: cascade %s", ErrModelLoad, cfg.Path)
	}

	return &CascadeLocator{
		classifier: classifier,
		config:     cfg,
	}, nil
}

// Locate runs the cascade on a grayscale copy of img.
func (l *CascadeLocator) Locate(img gocv.Mat) ([]image.Rectangle, error) {
	if img.Empty() {
		return nil, ErrEmptyImage
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if img.Channels() == 1 {
		img.CopyTo(&gray)
	} else {
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	}

	minSize := image.Pt(l.config.MinSize, l.config.MinSize)
	rects := l.classifier.DetectMultiScaleWithParams(gray,
		l.config.ScaleFactor, l.config.MinNeighbors, 0, minSize, image.Pt(0, 0))

	return rects, nil
}

// Close releases the classifier.
func (l *CascadeLocator) Close() error {
	l.classifier.Close()
	return nil
}
