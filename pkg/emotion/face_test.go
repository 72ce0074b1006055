package emotion

import (
	"image"
	"math"
	"testing"
)

func TestDominant(t *testing.T) {
	tests := []struct {
		name   string
		scores []Score
		want   string
		ok     bool
	}{
		{
			name:   "unique maximum",
			scores: NewScores(DefaultLabels, []float64{0.05, 0.0, 0.1, 0.7, 0.05, 0.05, 0.05}),
			want:   "happy",
			ok:     true,
		},
		{
			name:   "maximum is last",
			scores: NewScores(DefaultLabels, []float64{0.1, 0, 0, 0.1, 0, 0.2, 0.6}),
			want:   "neutral",
			ok:     true,
		},
		{
			name:   "tie resolves to earlier label",
			scores: NewScores(DefaultLabels, []float64{0, 0, 0, 0.4, 0.4, 0.2, 0}),
			want:   "happy",
			ok:     true,
		},
		{
			name:   "all equal picks first",
			scores: NewScores([]string{"sad", "angry"}, []float64{0.5, 0.5}),
			want:   "sad",
			ok:     true,
		},
		{
			name: "no scores",
			ok:   false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := Face{Box: image.Rect(0, 0, 10, 10), Scores: tc.scores}
			got, ok := f.Dominant()
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if got.Label != tc.want {
				t.Errorf("Dominant = %q, want %q", got.Label, tc.want)
			}
			if f.Label() != tc.want {
				t.Errorf("Label = %q, want %q", f.Label(), tc.want)
			}
		})
	}
}

func TestEmotionsMap(t *testing.T) {
	f := Face{Scores: NewScores([]string{"happy", "sad"}, []float64{0.9, 0.1})}
	m := f.Emotions()

	if len(m) != 2 || m["happy"] != 0.9 || m["sad"] != 0.1 {
		t.Errorf("Emotions = %v", m)
	}
}

func TestNewScoresTruncates(t *testing.T) {
	s := NewScores([]string{"a", "b", "c"}, []float64{1, 2})
	if len(s) != 2 {
		t.Fatalf("len = %d, want 2", len(s))
	}
	if s[1].Label != "b" || s[1].Value != 2 {
		t.Errorf("s[1] = %+v", s[1])
	}
}

func TestSoftmax(t *testing.T) {
	out := Softmax([]float64{1, 2, 3})

	var sum float64
	for _, v := range out {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("sum = %f, want 1", sum)
	}
	if !(out[2] > out[1] && out[1] > out[0]) {
		t.Errorf("softmax not monotonic: %v", out)
	}

	big := Softmax([]float64{1000, 1000})
	if math.IsNaN(big[0]) || math.Abs(big[0]-0.5) > 1e-9 {
		t.Errorf("softmax overflow: %v", big)
	}

	if Softmax(nil) != nil {
		t.Error("Softmax(nil) should be nil")
	}
}

func TestIsDistribution(t *testing.T) {
	if !isDistribution([]float64{0.2, 0.3, 0.5}) {
		t.Error("valid distribution rejected")
	}
	if isDistribution([]float64{2.1, -0.3, 0.5}) {
		t.Error("logits accepted as distribution")
	}
	if isDistribution([]float64{0.2, 0.2}) {
		t.Error("partial sum accepted as distribution")
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in     float64
		places int
		want   float64
	}{
		{0.12345, 2, 0.12},
		{0.125, 2, 0.13},
		{0.999, 2, 1.0},
		{0.5, 0, 1.0},
	}

	for _, tc := range tests {
		if got := Round(tc.in, tc.places); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Round(%v, %d) = %v, want %v", tc.in, tc.places, got, tc.want)
		}
	}
}
