package formats

import "testing"

func TestCurve_Evaluate(t *testing.T) {
	c := Curve{Channel: "あ", Keys: []CurveKey{{0, 0}, {10, 100}, {20, 50}}}

	tests := []struct {
		t    float32
		want float32
	}{
		{-5, 0},
		{0, 0},
		{5, 50},
		{10, 100},
		{15, 75},
		{20, 50},
		{40, 50},
	}
	for _, tt := range tests {
		if got := c.Evaluate(tt.t); got != tt.want {
			t.Errorf("Evaluate(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestCurve_EvaluateEmpty(t *testing.T) {
	var c Curve
	if got := c.Evaluate(3); got != 0 {
		t.Errorf("empty curve = %v, want 0", got)
	}
}

func TestClip_WeightsAt(t *testing.T) {
	clip := &Clip{
		Name:   "smile",
		Length: 10,
		Curves: []Curve{
			{Channel: "笑い", Keys: []CurveKey{{0, 0}, {10, 80}}},
			{Channel: "まばたき", Keys: []CurveKey{{0, 30}}},
		},
	}
	w := clip.WeightsAt(5)
	if w["笑い"] != 40 || w["まばたき"] != 30 {
		t.Errorf("WeightsAt(5) = %v", w)
	}
	end := clip.EndWeights()
	if end["笑い"] != 80 {
		t.Errorf("EndWeights = %v", end)
	}
}
