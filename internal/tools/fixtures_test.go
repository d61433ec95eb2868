package tools

import (
	"testing"

	"github.com/Faultbox/morphkit/pkg/blendshape"
	"github.com/Faultbox/morphkit/pkg/math"
)

// buildFace returns a 4-vertex quad with channel A moving vertex 0 by +1 X
// and channel B moving vertex 1 by +2 Y, both at frame weight 100.
func buildFace() *blendshape.Mesh {
	m := &blendshape.Mesh{Name: "Face"}
	for i := 0; i < 4; i++ {
		m.Vertices = append(m.Vertices, math.Vec3{X: float32(i % 2), Y: float32(i / 2)})
		m.Normals = append(m.Normals, math.Vec3{Z: 1})
		m.Tangents = append(m.Tangents, math.Vec4{X: 1, W: 1})
	}
	m.SubMeshes = []blendshape.SubMesh{{FirstVertex: 0, VertexCount: 4, Indices: []uint32{0, 1, 2, 2, 1, 3}}}

	a := blendshape.NewDeltaSet(4)
	a.Positions[0] = math.Vec3{X: 1}
	b := blendshape.NewDeltaSet(4)
	b.Positions[1] = math.Vec3{Y: 2}
	m.Channels = []blendshape.Channel{
		{Name: "A", Frames: []blendshape.Frame{{Weight: 100, Deltas: a}}},
		{Name: "B", Frames: []blendshape.Frame{{Weight: 100, Deltas: b}}},
	}
	return m
}

func newFace(weights map[string]float32) *blendshape.Instance {
	inst := blendshape.NewInstance(buildFace())
	wc := blendshape.NewWeightController(inst, nil)
	wc.Apply(blendshape.WeightConfiguration(weights))
	return inst
}

func channel(t *testing.T, m *blendshape.Mesh, name string) blendshape.Channel {
	t.Helper()
	i := m.ChannelIndex(name)
	if i < 0 {
		t.Fatalf("channel %q not found in %v", name, m.ChannelNames())
	}
	return m.Channels[i]
}

func weightOf(t *testing.T, r blendshape.Renderer, name string) float32 {
	t.Helper()
	w, ok := blendshape.NewWeightController(r, nil).Weight(name)
	if !ok {
		t.Fatalf("channel %q not found", name)
	}
	return w
}

func assertPositions(t *testing.T, label string, got []math.Vec3, want map[int]math.Vec3) {
	t.Helper()
	for i, v := range got {
		if !v.ApproxEqual(want[i], 1e-5) {
			t.Errorf("%s[%d] = %+v, want %+v", label, i, v, want[i])
		}
	}
}
