// Package emotion detects faces in a frame and scores each one against a
// fixed set of emotion labels.
package emotion

import (
	"image"
	"math"
)

// DefaultLabels is the label order of the FER-2013 family of classifiers.
// The classifier output index i scores DefaultLabels[i].
var DefaultLabels = []string{"angry", "disgust", "fear", "happy", "sad", "surprise", "neutral"}

// Score is the confidence for one emotion label.
type Score struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Face is one detected face: its bounding box in frame pixels and the
// classifier's scores in label order.
type Face struct {
	Box    image.Rectangle
	Scores []Score
}

// Dominant returns the highest scoring emotion. Equal scores resolve to the
// label that comes first in the classifier's label order. ok is false when
// the face carries no scores.
func (f Face) Dominant() (best Score, ok bool) {
	for i, s := range f.Scores {
		if i == 0 || s.Value > best.Value {
			best = s
		}
	}
	return best, len(f.Scores) > 0
}

// Label returns the dominant emotion label, or "" if there are no scores.
func (f Face) Label() string {
	s, _ := f.Dominant()
	return s.Label
}

// Emotions returns the scores as a label to value map.
func (f Face) Emotions() map[string]float64 {
	m := make(map[string]float64, len(f.Scores))
	for _, s := range f.Scores {
		m[s.Label] = s.Value
	}
	return m
}

// NewScores pairs labels with values by index.
func NewScores(labels []string, values []float64) []Score {
	n := min(len(labels), len(values))
	scores := make([]Score, n)
	for i := 0; i < n; i++ {
		scores[i] = Score{Label: labels[i], Value: values[i]}
	}
	return scores
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Softmax converts raw logits to probabilities.
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxV := logits[0]
	for _, v := range logits[1:] {
		maxV = math.Max(maxV, v)
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - maxV)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// isDistribution reports whether values already look like probabilities.
func isDistribution(values []float64) bool {
	var sum float64
	for _, v := range values {
		if v < 0 || v > 1 {
			return false
		}
		sum += v
	}
	return math.Abs(sum-1) < 1e-3
}
