package blendshape

import (
	"fmt"

	"github.com/Faultbox/morphkit/pkg/math"
)

// Diff returns b - a per vertex. Normal and tangent deltas are zero when
// either snapshot lacks those buffers. Tangent handedness is ignored.
func Diff(a, b *Snapshot) (DeltaSet, error) {
	if a == nil || b == nil {
		return DeltaSet{}, fmt.Errorf("%w: nil snapshot", ErrConfiguration)
	}
	n := a.VertexCount()
	if b.VertexCount() != n {
		return DeltaSet{}, &VertexCountError{Want: n, Got: b.VertexCount()}
	}

	out := NewDeltaSet(n)
	am, bm := &a.mesh, &b.mesh
	for i := 0; i < n; i++ {
		out.Positions[i] = bm.Vertices[i].Sub(am.Vertices[i])
	}
	if len(am.Normals) == n && len(bm.Normals) == n {
		for i := 0; i < n; i++ {
			out.Normals[i] = bm.Normals[i].Sub(am.Normals[i])
		}
	}
	if len(am.Tangents) == n && len(bm.Tangents) == n {
		for i := 0; i < n; i++ {
			out.Tangents[i] = bm.Tangents[i].XYZ().Sub(am.Tangents[i].XYZ())
		}
	}
	return out, nil
}

// EvaluateChannelAt returns the channel's deltas at weight t.
//
// A single frame is scaled by t/frameWeight. With several frames, t equal
// to a frame weight returns that frame, t between two frames interpolates
// linearly, t below the first frame scales the first frame toward zero and
// t above the last frame extrapolates the last segment.
func EvaluateChannelAt(ch Channel, t float32) (DeltaSet, error) {
	frames := ch.Frames
	if len(frames) == 0 {
		return DeltaSet{}, fmt.Errorf("%w: channel %q has no frames", ErrInvalidFrame, ch.Name)
	}

	if len(frames) == 1 {
		w := frames[0].Weight
		if w == 0 {
			return DeltaSet{}, fmt.Errorf("%w: channel %q frame weight is zero", ErrInvalidFrame, ch.Name)
		}
		if t == w {
			return frames[0].Deltas.Clone(), nil
		}
		return frames[0].Deltas.Scaled(t / w), nil
	}

	for _, f := range frames {
		if f.Weight == t {
			return f.Deltas.Clone(), nil
		}
	}

	first := frames[0]
	if t < first.Weight {
		if first.Weight <= 0 {
			return first.Deltas.Clone(), nil
		}
		return first.Deltas.Scaled(t / first.Weight), nil
	}

	hi := len(frames) - 1
	for k := 1; k < len(frames); k++ {
		if t < frames[k].Weight {
			hi = k
			break
		}
	}
	lo := frames[hi-1]
	up := frames[hi]
	span := up.Weight - lo.Weight
	if span <= 0 {
		return DeltaSet{}, fmt.Errorf("%w: channel %q frame weights must increase", ErrInvalidFrame, ch.Name)
	}
	if lo.Deltas.Len() != up.Deltas.Len() {
		return DeltaSet{}, fmt.Errorf("channel %q: %w", ch.Name,
			&VertexCountError{Want: lo.Deltas.Len(), Got: up.Deltas.Len()})
	}
	return lerpDeltas(lo.Deltas, up.Deltas, (t-lo.Weight)/span), nil
}

func lerpDeltas(a, b DeltaSet, f float32) DeltaSet {
	out := NewDeltaSet(a.Len())
	lerp := func(dst, x, y []math.Vec3) {
		for i := range dst {
			if i < len(x) && i < len(y) {
				dst[i] = x[i].Lerp(y[i], f)
			}
		}
	}
	lerp(out.Positions, a.Positions, b.Positions)
	lerp(out.Normals, a.Normals, b.Normals)
	lerp(out.Tangents, a.Tangents, b.Tangents)
	return out
}
