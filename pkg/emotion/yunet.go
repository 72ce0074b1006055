package emotion

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
)

// YuNetConfig holds YuNet face locator settings.
type YuNetConfig struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Minimum confidence (default 0.5)
	NMSThresh        float64
	InputWidth       int // Initial model input size, updated per frame
	InputHeight      int
}

// DefaultYuNetConfig returns production defaults for YuNet.
func DefaultYuNetConfig() YuNetConfig {
	return YuNetConfig{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		NMSThresh:        0.3,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// YuNetLocator uses OpenCV's FaceDetectorYN to find faces.
type YuNetLocator struct {
	detector gocv.FaceDetectorYN
	config   YuNetConfig
	size     image.Point
}

// NewYuNet creates a YuNet locator using GoCV's built-in FaceDetectorYN.
func NewYuNet(cfg YuNetConfig) (*YuNetLocator, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	size := image.Pt(cfg.InputWidth, cfg.InputHeight)
	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"", // No config file needed for ONNX
		size,
		float32(cfg.ConfidenceThresh),
		float32(cfg.NMSThresh),
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetLocator{
		detector: detector,
		config:   cfg,
		size:     size,
	}, nil
}

// Locate returns face boxes in img pixel coordinates.
func (l *YuNetLocator) Locate(img gocv.Mat) ([]image.Rectangle, error) {
	if img.Empty() {
		return nil, ErrEmptyImage
	}

	if size := image.Pt(img.Cols(), img.Rows()); size != l.size {
		l.detector.SetInputSize(size)
		l.size = size
	}

	faces := gocv.NewMat()
	defer faces.Close()

	l.detector.Detect(img, &faces)

	// YuNet output rows (15 columns):
	// 0-3: x, y, w, h (bounding box in pixels)
	// 4-13: 5 facial landmarks (x,y pairs)
	// 14: face score
	boxes := make([]image.Rectangle, 0, faces.Rows())
	for r := 0; r < faces.Rows(); r++ {
		x := int(faces.GetFloatAt(r, 0))
		y := int(faces.GetFloatAt(r, 1))
		w := int(faces.GetFloatAt(r, 2))
		h := int(faces.GetFloatAt(r, 3))
		boxes = append(boxes, image.Rect(x, y, x+w, y+h))
	}

	return boxes, nil
}

// Close releases the detector resources.
func (l *YuNetLocator) Close() error {
	l.detector.Close()
	return nil
}
