// Package overlay draws detection annotations onto frames.
package overlay

import (
	"image"
	"image/color"

	"github.com/teslashibe/emocam/pkg/emotion"
	"gocv.io/x/gocv"
)

// Style controls how faces are annotated.
type Style struct {
	Color       color.RGBA
	Thickness   int
	Font        gocv.HersheyFont
	FontScale   float64
	LabelOffset int // Pixels between the box top and the label baseline
}

// DefaultStyle is a 2px green box with the label 10px above it.
func DefaultStyle() Style {
	return Style{
		Color:       color.RGBA{R: 0, G: 255, B: 0, A: 0},
		Thickness:   2,
		Font:        gocv.FontHersheySimplex,
		FontScale:   0.9,
		LabelOffset: 10,
	}
}

// Painter performs the actual drawing calls.
type Painter interface {
	Rectangle(img *gocv.Mat, r image.Rectangle, s Style)
	Text(img *gocv.Mat, text string, at image.Point, s Style)
}

// GocvPainter draws with OpenCV.
type GocvPainter struct{}

// Rectangle implements Painter.
func (GocvPainter) Rectangle(img *gocv.Mat, r image.Rectangle, s Style) {
	gocv.Rectangle(img, r, s.Color, s.Thickness)
}

// Text implements Painter.
func (GocvPainter) Text(img *gocv.Mat, text string, at image.Point, s Style) {
	gocv.PutText(img, text, at, s.Font, s.FontScale, s.Color, s.Thickness)
}

// Drawer annotates frames with face boxes and dominant emotion labels.
type Drawer struct {
	Style   Style
	Painter Painter
}

// NewDrawer returns a Drawer using OpenCV drawing and the given style.
func NewDrawer(style Style) *Drawer {
	return &Drawer{Style: style, Painter: GocvPainter{}}
}

// Draw annotates img in place and returns the number of faces drawn.
// With no faces, img is left untouched.
func (d *Drawer) Draw(img *gocv.Mat, faces []emotion.Face) int {
	for _, f := range faces {
		d.Painter.Rectangle(img, f.Box, d.Style)
		if label := f.Label(); label != "" {
			d.Painter.Text(img, label, LabelPoint(f.Box, d.Style), d.Style)
		}
	}
	return len(faces)
}

// LabelPoint is where a face's label is drawn: at the box's left edge,
// LabelOffset pixels above its top.
func LabelPoint(box image.Rectangle, s Style) image.Point {
	return image.Pt(box.Min.X, box.Min.Y-s.LabelOffset)
}
