package formats

import "sort"

// CurveKey is one keyframe of a weight curve.
type CurveKey struct {
	Time  float32
	Value float32
}

// Curve animates one blend-shape channel's weight.
type Curve struct {
	Channel string
	Keys    []CurveKey
}

func (c *Curve) sortKeys() {
	sort.SliceStable(c.Keys, func(i, j int) bool { return c.Keys[i].Time < c.Keys[j].Time })
}

// Evaluate returns the curve value at t, interpolating linearly between
// keys and holding the first and last values outside them.
func (c *Curve) Evaluate(t float32) float32 {
	if len(c.Keys) == 0 {
		return 0
	}
	if t <= c.Keys[0].Time {
		return c.Keys[0].Value
	}
	last := c.Keys[len(c.Keys)-1]
	if t >= last.Time {
		return last.Value
	}
	i := sort.Search(len(c.Keys), func(i int) bool { return c.Keys[i].Time > t })
	a, b := c.Keys[i-1], c.Keys[i]
	if b.Time == a.Time {
		return b.Value
	}
	f := (t - a.Time) / (b.Time - a.Time)
	return a.Value + f*(b.Value-a.Value)
}

// Clip is a set of weight curves.
type Clip struct {
	Name   string
	Length float32
	Curves []Curve
}

// WeightsAt evaluates every curve at t.
func (c *Clip) WeightsAt(t float32) map[string]float32 {
	weights := make(map[string]float32, len(c.Curves))
	for i := range c.Curves {
		weights[c.Curves[i].Channel] = c.Curves[i].Evaluate(t)
	}
	return weights
}

// EndWeights evaluates every curve at the end of the clip.
func (c *Clip) EndWeights() map[string]float32 {
	return c.WeightsAt(c.Length)
}
