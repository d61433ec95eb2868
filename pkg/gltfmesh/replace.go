package gltfmesh

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/morphkit/pkg/blendshape"
	"github.com/Faultbox/morphkit/pkg/math"
)

// Replace writes the channels of m and the given per-channel weights (0-100)
// into the named mesh. Base attributes and materials stay as they are, so m
// must have the vertex layout that Load produced.
func (d *Document) Replace(name string, m *blendshape.Mesh, weights []float32) error {
	_, gm, err := d.find(name)
	if err != nil {
		return err
	}
	l, err := buildLayout(gm)
	if err != nil {
		return err
	}

	total := 0
	for ri := range l.ranges {
		acr := d.doc.Accessors[l.ranges[ri].position]
		l.ranges[ri].first = total
		l.ranges[ri].count = idx(acr.Count)
		total += l.ranges[ri].count
	}
	if total != m.VertexCount() {
		return fmt.Errorf("%w: mesh %q: %w", ErrTopologyChanged, name,
			&blendshape.VertexCountError{Want: total, Got: m.VertexCount()})
	}

	targets := make([][]gltf.PrimitiveAttributes, len(l.ranges))
	var names []string
	var frameWeights, defaults []float32
	for ci, ch := range m.Channels {
		for fi, f := range ch.Frames {
			writeNormals := !allZero(f.Deltas.Normals)
			writeTangents := !allZero(f.Deltas.Tangents)
			for ri, r := range l.ranges {
				attr := gltf.PrimitiveAttributes{}
				attr[gltf.POSITION] = modeler.WritePosition(d.doc, arrays(f.Deltas.Positions, r))
				if writeNormals {
					attr[gltf.NORMAL] = modeler.WriteNormal(d.doc, arrays(f.Deltas.Normals, r))
				}
				if writeTangents {
					attr[gltf.TANGENT] = modeler.WriteAccessor(d.doc, gltf.TargetArrayBuffer, arrays(f.Deltas.Tangents, r))
				}
				targets[ri] = append(targets[ri], attr)
			}

			names = append(names, ch.Name)
			frameWeights = append(frameWeights, f.Weight)
			w := float32(0)
			if fi == 0 && ci < len(weights) {
				w = weights[ci] / 100
			}
			defaults = append(defaults, w)
		}
	}

	for pi, p := range gm.Primitives {
		p.Targets = targets[l.primRange[pi]]
		if _, ok := extrasValue(p.Extras, TargetNamesKey); ok {
			p.Extras = withExtras(p.Extras, map[string]any{TargetNamesKey: names})
		}
	}
	setFloats(&gm.Weights, defaults)
	if len(names) == 0 {
		gm.Weights = nil
	}
	gm.Extras = withExtras(gm.Extras, map[string]any{
		TargetNamesKey:        names,
		TargetFrameWeightsKey: frameWeights,
	})

	// Per-node weight overrides no longer line up with the targets.
	for _, n := range d.doc.Nodes {
		if mi, ok := optIdx(n.Mesh); ok && d.doc.Meshes[mi] == gm {
			n.Weights = nil
		}
	}
	return nil
}

func arrays(buf []math.Vec3, r vertexRange) [][3]float32 {
	out := make([][3]float32, r.count)
	for i := range out {
		if r.first+i < len(buf) {
			out[i] = buf[r.first+i].Array()
		}
	}
	return out
}

func allZero(buf []math.Vec3) bool {
	for _, v := range buf {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

func withExtras(extras any, set map[string]any) map[string]any {
	out := make(map[string]any)
	if m, ok := extras.(map[string]any); ok {
		for k, v := range m {
			out[k] = v
		}
	}
	for k, v := range set {
		out[k] = v
	}
	return out
}
