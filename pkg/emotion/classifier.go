package emotion

import (
	"fmt"
	"image"
	"os"
	"slices"

	"gocv.io/x/gocv"
)

// NetConfig holds ONNX emotion classifier settings.
type NetConfig struct {
	ModelPath string
	Labels    []string // Output order of the model
	InputSize int      // Square input side, 64 for FER mini-Xception
}

// DefaultNetConfig returns defaults for a FER-2013 classifier taking a
// 64x64 grayscale face scaled to [-1, 1].
func DefaultNetConfig() NetConfig {
	return NetConfig{
		ModelPath: "models/emotion_fer.onnx",
		Labels:    slices.Clone(DefaultLabels),
		InputSize: 64,
	}
}

// NetClassifier scores faces with an ONNX network.
type NetClassifier struct {
	net    gocv.Net
	config NetConfig
	size   image.Point
}

// NewNetClassifier loads the model at cfg.ModelPath.
func NewNetClassifier(cfg NetConfig) (*NetClassifier, error) {
	if len(cfg.Labels) == 0 {
		return nil, ErrNoLabels
	}
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrModelLoad, cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &NetClassifier{
		net:    net,
		config: cfg,
		size:   image.Pt(cfg.InputSize, cfg.InputSize),
	}, nil
}

// Classify returns one score per label for the face crop.
func (c *NetClassifier) Classify(face gocv.Mat) ([]Score, error) {
	if face.Empty() {
		return nil, ErrEmptyImage
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if face.Channels() == 1 {
		face.CopyTo(&gray)
	} else {
		gocv.CvtColor(face, &gray, gocv.ColorBGRToGray)
	}

	// (x - 127.5) / 127.5 maps pixels to [-1, 1]
	blob := gocv.BlobFromImage(gray, 1.0/127.5, c.size, gocv.NewScalar(127.5, 0, 0, 0), false, false)
	defer blob.Close()

	c.net.SetInput(blob, "")
	out := c.net.Forward("")
	defer out.Close()

	n := int(out.Total())
	if n != len(c.config.Labels) {
		return nil, fmt.Errorf("%w: %d outputs, %d labels", ErrLabelMismatch, n, len(c.config.Labels))
	}

	flat := out.Reshape(1, 1)
	defer flat.Close()

	values := make([]float64, n)
	for i := range values {
		values[i] = float64(flat.GetFloatAt(0, i))
	}
	if !isDistribution(values) {
		values = Softmax(values)
	}

	return NewScores(c.config.Labels, values), nil
}

// Labels returns the classifier's label order.
func (c *NetClassifier) Labels() []string {
	return slices.Clone(c.config.Labels)
}

// Close releases the network.
func (c *NetClassifier) Close() error {
	c.net.Close()
	return nil
}
