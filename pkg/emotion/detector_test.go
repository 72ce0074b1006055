package emotion

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"
)

type fakeLocator struct {
	boxes  []image.Rectangle
	err    error
	closed bool
}

func (l *fakeLocator) Locate(gocv.Mat) ([]image.Rectangle, error) { return l.boxes, l.err }
func (l *fakeLocator) Close() error                               { l.closed = true; return nil }

type fakeClassifier struct {
	values []float64
	err    error
	crops  []image.Point
	closed bool
}

func (c *fakeClassifier) Classify(face gocv.Mat) ([]Score, error) {
	c.crops = append(c.crops, image.Pt(face.Cols(), face.Rows()))
	if c.err != nil {
		return nil, c.err
	}
	return NewScores(DefaultLabels, c.values), nil
}

func (c *fakeClassifier) Close() error { c.closed = true; return nil }

func newFrame(t *testing.T, w, h int) gocv.Mat {
	t.Helper()
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 80, 120, 0), h, w, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { img.Close() })
	return img
}

func TestFaceDetectorDetect(t *testing.T) {
	loc := &fakeLocator{boxes: []image.Rectangle{
		image.Rect(100, 100, 200, 220),
		image.Rect(600, 400, 700, 520), // partly outside a 640x480 frame
		image.Rect(700, 500, 800, 600), // fully outside
	}}
	cls := &fakeClassifier{values: []float64{0.011, 0, 0.004, 0.912, 0.02, 0.03, 0.023}}

	d := New(loc, cls, DefaultConfig())
	faces, err := d.Detect(newFrame(t, 640, 480))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if len(faces) != 2 {
		t.Fatalf("got %d faces, want 2", len(faces))
	}
	if faces[0].Box != image.Rect(100, 100, 200, 220) {
		t.Errorf("face 0 box = %v", faces[0].Box)
	}
	if faces[1].Box != image.Rect(600, 400, 640, 480) {
		t.Errorf("face 1 box not clipped: %v", faces[1].Box)
	}

	// 10px padding on each side, clipped to the frame for the second face.
	if cls.crops[0] != image.Pt(120, 140) {
		t.Errorf("crop 0 size = %v, want (120,140)", cls.crops[0])
	}
	if cls.crops[1] != image.Pt(50, 90) {
		t.Errorf("crop 1 size = %v, want (50,90)", cls.crops[1])
	}

	if got := faces[0].Label(); got != "happy" {
		t.Errorf("label = %q, want happy", got)
	}
	if v := faces[0].Emotions()["angry"]; v != 0.01 {
		t.Errorf("angry = %v, want 0.01 after rounding", v)
	}
}

func TestFaceDetectorNoRounding(t *testing.T) {
	loc := &fakeLocator{boxes: []image.Rectangle{image.Rect(10, 10, 60, 60)}}
	cls := &fakeClassifier{values: []float64{0.123456, 0, 0, 0, 0, 0, 0.876544}}

	cfg := DefaultConfig()
	cfg.Precision = -1
	faces, err := New(loc, cls, cfg).Detect(newFrame(t, 100, 100))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if v := faces[0].Scores[0].Value; v != 0.123456 {
		t.Errorf("score = %v, want unrounded", v)
	}
}

func TestFaceDetectorErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("empty image", func(t *testing.T) {
		d := New(&fakeLocator{}, &fakeClassifier{}, DefaultConfig())
		empty := gocv.NewMat()
		defer empty.Close()
		if _, err := d.Detect(empty); !errors.Is(err, ErrEmptyImage) {
			t.Errorf("err = %v, want ErrEmptyImage", err)
		}
	})

	t.Run("locator", func(t *testing.T) {
		d := New(&fakeLocator{err: boom}, &fakeClassifier{}, DefaultConfig())
		if _, err := d.Detect(newFrame(t, 64, 64)); !errors.Is(err, boom) {
			t.Errorf("err = %v, want boom", err)
		}
	})

	t.Run("classifier", func(t *testing.T) {
		loc := &fakeLocator{boxes: []image.Rectangle{image.Rect(0, 0, 32, 32)}}
		d := New(loc, &fakeClassifier{err: boom}, DefaultConfig())
		if _, err := d.Detect(newFrame(t, 64, 64)); !errors.Is(err, boom) {
			t.Errorf("err = %v, want boom", err)
		}
	})
}

func TestFaceDetectorNoFaces(t *testing.T) {
	cls := &fakeClassifier{}
	faces, err := New(&fakeLocator{}, cls, DefaultConfig()).Detect(newFrame(t, 64, 64))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(faces) != 0 {
		t.Errorf("got %d faces, want 0", len(faces))
	}
	if len(cls.crops) != 0 {
		t.Error("classifier called without faces")
	}
}

func TestFaceDetectorClose(t *testing.T) {
	loc, cls := &fakeLocator{}, &fakeClassifier{}
	if err := New(loc, cls, DefaultConfig()).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !loc.closed || !cls.closed {
		t.Error("Close did not release locator and classifier")
	}
}

func TestMock(t *testing.T) {
	face := Face{Box: image.Rect(1, 2, 3, 4)}
	m := NewMock(face)

	faces, err := m.Detect(gocv.NewMat())
	if err != nil || len(faces) != 1 || faces[0].Box != face.Box {
		t.Errorf("Detect = %v, %v", faces, err)
	}
	m.Close()

	if m.Calls() != 1 || m.Closed() != 1 {
		t.Errorf("calls=%d closed=%d, want 1/1", m.Calls(), m.Closed())
	}

	var empty Mock
	if faces, _ := empty.Detect(gocv.NewMat()); faces != nil {
		t.Error("zero Mock should find nothing")
	}
}

func TestModelsMissing(t *testing.T) {
	missing := "/nonexistent/path/model.onnx"

	if _, err := NewYuNet(YuNetConfig{ModelPath: missing}); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("NewYuNet err = %v, want ErrModelNotFound", err)
	}
	if _, err := NewCascade(CascadeConfig{Path: missing}); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("NewCascade err = %v, want ErrModelNotFound", err)
	}
	if _, err := NewNetClassifier(NetConfig{ModelPath: missing, Labels: DefaultLabels}); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("NewNetClassifier err = %v, want ErrModelNotFound", err)
	}
	if _, err := NewNetClassifier(NetConfig{ModelPath: missing}); !errors.Is(err, ErrNoLabels) {
		t.Errorf("NewNetClassifier without labels err = %v, want ErrNoLabels", err)
	}
}

// TestYuNetSolidImage runs the real model when it is available.
func TestYuNetSolidImage(t *testing.T) {
	modelPath := findModelPath("face_detection_yunet.onnx")
	if modelPath == "" {
		t.Skip("YuNet model not found, skipping test")
	}

	cfg := DefaultYuNetConfig()
	cfg.ModelPath = modelPath
	loc, err := NewYuNet(cfg)
	if err != nil {
		t.Fatalf("NewYuNet: %v", err)
	}
	defer loc.Close()

	boxes, err := loc.Locate(newFrame(t, 320, 240))
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if len(boxes) > 0 {
		t.Errorf("expected no faces in solid image, got %d", len(boxes))
	}
}

// TestCascadeSolidImage runs the cascade when the XML file is available.
func TestCascadeSolidImage(t *testing.T) {
	path := findModelPath("haarcascade_frontalface_default.xml")
	if path == "" {
		t.Skip("cascade file not found, skipping test")
	}

	cfg := DefaultCascadeConfig()
	cfg.Path = path
	loc, err := NewCascade(cfg)
	if err != nil {
		t.Fatalf("NewCascade: %v", err)
	}
	defer loc.Close()

	boxes, err := loc.Locate(newFrame(t, 320, 240))
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if len(boxes) > 0 {
		t.Errorf("expected no faces in solid image, got %d", len(boxes))
	}
}

// TestNetClassifierDistribution checks the real classifier output shape.
func TestNetClassifierDistribution(t *testing.T) {
	path := findModelPath("emotion_fer.onnx")
	if path == "" {
		t.Skip("emotion model not found, skipping test")
	}

	cfg := DefaultNetConfig()
	cfg.ModelPath = path
	cls, err := NewNetClassifier(cfg)
	if err != nil {
		t.Fatalf("NewNetClassifier: %v", err)
	}
	defer cls.Close()

	scores, err := cls.Classify(newFrame(t, 96, 96))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(scores) != len(DefaultLabels) {
		t.Fatalf("got %d scores, want %d", len(scores), len(DefaultLabels))
	}

	var sum float64
	for i, s := range scores {
		if s.Label != DefaultLabels[i] {
			t.Errorf("score %d label = %q, want %q", i, s.Label, DefaultLabels[i])
		}
		sum += s.Value
	}
	if sum < 0.99 || sum > 1.01 {
		t.Errorf("scores sum to %f, want 1", sum)
	}
}

func findModelPath(name string) string {
	if cwd, err := os.Getwd(); err == nil {
		// Walk up to find models directory
		for dir := cwd; dir != "/"; dir = filepath.Dir(dir) {
			p := filepath.Join(dir, "models", name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}
