package blendshape

import "fmt"

// DefaultReferenceWeight is the weight at which a secondary channel is
// assumed to be already present in a primary channel's shape.
const DefaultReferenceWeight = 30

// ChannelWeight pairs a channel name with a target weight.
type ChannelWeight struct {
	Name   string
	Weight float32
}

// MergeSpec describes a primary channel adjusted by secondary channels.
type MergeSpec struct {
	Primary         ChannelWeight
	Secondary       []ChannelWeight
	ReferenceWeight float32
}

// NewMergeSpec returns a spec using DefaultReferenceWeight.
func NewMergeSpec(primary ChannelWeight, secondary ...ChannelWeight) MergeSpec {
	return MergeSpec{Primary: primary, Secondary: secondary, ReferenceWeight: DefaultReferenceWeight}
}

// ChannelLookup resolves channels by name. Snapshot implements it.
type ChannelLookup interface {
	Channel(name string) (Channel, bool)
}

// MergeWeighted scales the channel's first frame by weight/100.
func MergeWeighted(ch Channel, weight float32) (DeltaSet, error) {
	if len(ch.Frames) == 0 {
		return DeltaSet{}, fmt.Errorf("%w: channel %q has no frames", ErrInvalidFrame, ch.Name)
	}
	return ch.Frames[0].Deltas.Scaled(weight / 100), nil
}

// Combine merges a primary channel with secondary adjustments. Each
// secondary's first frame is removed at ReferenceWeight/100 and added back
// at secondaryWeight/primaryWeight, then the result is scaled by
// primaryWeight/100. Secondary names that do not resolve are skipped.
//
// The correction assumes deltas compose linearly, which they generally do
// not when several channels are active. It is an approximation.
func Combine(spec MergeSpec, lookup ChannelLookup) (DeltaSet, error) {
	pw := spec.Primary.Weight
	if pw == 0 {
		return DeltaSet{}, fmt.Errorf("%w: primary channel %q has zero weight", ErrConfiguration, spec.Primary.Name)
	}
	primary, ok := lookup.Channel(spec.Primary.Name)
	if !ok {
		return DeltaSet{}, fmt.Errorf("%w: %q", ErrUnknownChannel, spec.Primary.Name)
	}
	if len(primary.Frames) == 0 {
		return DeltaSet{}, fmt.Errorf("%w: channel %q has no frames", ErrInvalidFrame, primary.Name)
	}

	combined := primary.Frames[0].Deltas.Clone()
	n := combined.Len()
	for _, sec := range spec.Secondary {
		ch, ok := lookup.Channel(sec.Name)
		if !ok {
			continue
		}
		if len(ch.Frames) == 0 {
			return DeltaSet{}, fmt.Errorf("%w: channel %q has no frames", ErrInvalidFrame, ch.Name)
		}
		d := ch.Frames[0].Deltas
		if d.Len() != n {
			return DeltaSet{}, fmt.Errorf("channel %q: %w", ch.Name, &VertexCountError{Want: n, Got: d.Len()})
		}
		combined.addScaled(d, -spec.ReferenceWeight/100)
		combined.addScaled(d, sec.Weight/pw)
	}
	combined.scale(pw / 100)
	return combined, nil
}

// WeightedChannel pairs a channel with the weight to evaluate it at.
type WeightedChannel struct {
	Channel Channel
	Weight  float32
}

// SumWeightedChannels returns the sum of EvaluateChannelAt over items.
// An empty list yields zero deltas for vertexCount vertices.
func SumWeightedChannels(vertexCount int, items []WeightedChannel) (DeltaSet, error) {
	sum := NewDeltaSet(vertexCount)
	for _, it := range items {
		d, err := EvaluateChannelAt(it.Channel, it.Weight)
		if err != nil {
			return DeltaSet{}, err
		}
		if d.Len() != vertexCount {
			return DeltaSet{}, fmt.Errorf("channel %q: %w", it.Channel.Name,
				&VertexCountError{Want: vertexCount, Got: d.Len()})
		}
		sum.addScaled(d, 1)
	}
	return sum, nil
}
