package emotion

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Detector finds faces in a frame and scores their emotions.
type Detector interface {
	// Detect returns zero or more faces found in img. img is not modified.
	Detect(img gocv.Mat) ([]Face, error)

	// Close releases resources
	Close() error
}

// Locator finds face bounding boxes in a frame.
type Locator interface {
	Locate(img gocv.Mat) ([]image.Rectangle, error)
	Close() error
}

// Classifier scores a cropped face against its labels.
type Classifier interface {
	Classify(face gocv.Mat) ([]Score, error)
	Close() error
}

// Config holds FaceDetector settings.
type Config struct {
	// Offset pads each face box before classification, in pixels.
	Offset int

	// Precision is the number of decimals scores are rounded to.
	// Negative disables rounding.
	Precision int
}

// DefaultConfig pads faces by 10px and rounds scores to two decimals.
func DefaultConfig() Config {
	return Config{
		Offset:    10,
		Precision: 2,
	}
}

// FaceDetector combines a Locator and a Classifier into a Detector.
type FaceDetector struct {
	locator    Locator
	classifier Classifier
	config     Config
	mu         sync.Mutex // Protects inference
}

// New creates a FaceDetector. It takes ownership of locator and classifier.
func New(locator Locator, classifier Classifier, cfg Config) *FaceDetector {
	return &FaceDetector{
		locator:    locator,
		classifier: classifier,
		config:     cfg,
	}
}

// Detect locates faces in img and classifies each one.
func (d *FaceDetector) Detect(img gocv.Mat) ([]Face, error) {
	if img.Empty() {
		return nil, ErrEmptyImage
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	boxes, err := d.locator.Locate(img)
	if err != nil {
		return nil, fmt.Errorf("locate faces: %w", err)
	}

	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	faces := make([]Face, 0, len(boxes))
	for _, box := range boxes {
		box = box.Intersect(bounds)
		if box.Empty() {
			continue
		}

		crop := box.Inset(-d.config.Offset).Intersect(bounds)
		region := img.Region(crop)
		scores, err := d.classifier.Classify(region)
		region.Close()
		if err != nil {
			return nil, fmt.Errorf("classify face at %v: %w", box, err)
		}

		if d.config.Precision >= 0 {
			for i := range scores {
				scores[i].Value = Round(scores[i].Value, d.config.Precision)
			}
		}
		faces = append(faces, Face{Box: box, Scores: scores})
	}

	return faces, nil
}

// Close releases the locator and classifier.
func (d *FaceDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	lerr := d.locator.Close()
	cerr := d.classifier.Close()
	if lerr != nil {
		return lerr
	}
	return cerr
}
