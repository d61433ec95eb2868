package blendshape

import (
	"errors"
	"testing"

	"github.com/Faultbox/morphkit/pkg/math"
)

type channelMap map[string]Channel

func (m channelMap) Channel(name string) (Channel, bool) {
	ch, ok := m[name]
	return ch, ok
}

func singleFrameChannel(name string, positions ...math.Vec3) Channel {
	return Channel{Name: name, Frames: []Frame{{Weight: 100, Deltas: deltaSetFrom(positions...)}}}
}

func TestMergeWeighted(t *testing.T) {
	ch := singleFrameChannel("A", math.Vec3{X: 2}, math.Vec3{Y: -4})
	ch.Frames = append(ch.Frames, Frame{Weight: 200, Deltas: deltaSetFrom(math.Vec3{X: 100}, math.Vec3{})})

	d, err := MergeWeighted(ch, 25)
	if err != nil {
		t.Fatalf("MergeWeighted: %v", err)
	}
	assertVecs(t, "positions", d.Positions, []math.Vec3{{X: 0.5}, {Y: -1}})

	if _, err := MergeWeighted(Channel{Name: "empty"}, 50); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("expected ErrInvalidFrame, got %v", err)
	}
}

func TestCombine(t *testing.T) {
	lookup := channelMap{
		"あ": singleFrameChannel("あ", math.Vec3{X: 2}, math.Vec3{}),
		"い": singleFrameChannel("い", math.Vec3{X: 1}, math.Vec3{Z: 10}),
	}

	spec := NewMergeSpec(ChannelWeight{"あ", 50}, ChannelWeight{"い", 20})
	d, err := Combine(spec, lookup)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	// (2 - 1*0.3 + 1*20/50) * 0.5 and (0 - 10*0.3 + 10*0.4) * 0.5
	assertVecs(t, "positions", d.Positions, []math.Vec3{{X: 1.05}, {Z: 0.5}})

	if orig, _ := lookup.Channel("あ"); orig.Frames[0].Deltas.Positions[0].X != 2 {
		t.Error("Combine modified the primary channel")
	}
}

func TestCombine_NoSecondary(t *testing.T) {
	lookup := channelMap{"あ": singleFrameChannel("あ", math.Vec3{X: 2})}
	d, err := Combine(NewMergeSpec(ChannelWeight{"あ", 80}), lookup)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	assertVecs(t, "positions", d.Positions, []math.Vec3{{X: 1.6}})
}

func TestCombine_SkipsMissingSecondary(t *testing.T) {
	lookup := channelMap{"あ": singleFrameChannel("あ", math.Vec3{X: 2})}
	d, err := Combine(NewMergeSpec(ChannelWeight{"あ", 100}, ChannelWeight{"gone", 50}), lookup)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	assertVecs(t, "positions", d.Positions, []math.Vec3{{X: 2}})
}

func TestCombine_Errors(t *testing.T) {
	lookup := channelMap{
		"あ":    singleFrameChannel("あ", math.Vec3{X: 2}),
		"wide": singleFrameChannel("wide", math.Vec3{}, math.Vec3{}),
	}
	tests := []struct {
		name string
		spec MergeSpec
		want error
	}{
		{"zero primary weight", NewMergeSpec(ChannelWeight{"あ", 0}), ErrConfiguration},
		{"unknown primary", NewMergeSpec(ChannelWeight{"missing", 50}), ErrUnknownChannel},
		{"topology mismatch", NewMergeSpec(ChannelWeight{"あ", 50}, ChannelWeight{"wide", 10}), ErrVertexCountMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Combine(tt.spec, lookup)
			if !errors.Is(err, tt.want) {
				t.Errorf("Combine() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCombine_WithSnapshotLookup(t *testing.T) {
	s := mustCapture(t, buildTestMesh(2, "A", "B"))
	d, err := Combine(NewMergeSpec(ChannelWeight{"A", 100}, ChannelWeight{"B", 30}), s)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	// Removing B at the reference weight and adding it back at 30/100 cancels out.
	assertVecs(t, "positions", d.Positions, []math.Vec3{{X: 1}, {}})
}

func TestSumWeightedChannels(t *testing.T) {
	a := singleFrameChannel("A", math.Vec3{X: 1}, math.Vec3{})
	b := singleFrameChannel("B", math.Vec3{Y: 2}, math.Vec3{X: 4})

	d, err := SumWeightedChannels(2, []WeightedChannel{{a, 50}, {b, 25}})
	if err != nil {
		t.Fatalf("SumWeightedChannels: %v", err)
	}
	assertVecs(t, "positions", d.Positions, []math.Vec3{{X: 0.5, Y: 0.5}, {X: 1}})

	empty, err := SumWeightedChannels(3, nil)
	if err != nil || empty.Len() != 3 || !empty.IsZero() {
		t.Errorf("empty sum = %+v, %v", empty, err)
	}

	if _, err := SumWeightedChannels(5, []WeightedChannel{{a, 10}}); !errors.Is(err, ErrVertexCountMismatch) {
		t.Errorf("expected ErrVertexCountMismatch, got %v", err)
	}
}
