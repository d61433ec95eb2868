package blendshape

import (
	"testing"

	"github.com/Faultbox/morphkit/pkg/math"
)

// buildTestMesh creates a mesh with n vertices on the X axis, unit normals
// and tangents, and one channel per name whose first vertex moves along X.
func buildTestMesh(n int, channels ...string) *Mesh {
	m := &Mesh{Name: "face"}
	for i := 0; i < n; i++ {
		m.Vertices = append(m.Vertices, math.Vec3{X: float32(i)})
		m.Normals = append(m.Normals, math.Vec3{Z: 1})
		m.Tangents = append(m.Tangents, math.Vec4{X: 1, W: -1})
	}
	if n >= 3 {
		m.SubMeshes = []SubMesh{{FirstVertex: 0, VertexCount: n, Indices: []uint32{0, 1, 2}}}
	}
	for ci, name := range channels {
		d := NewDeltaSet(n)
		if n > 0 {
			d.Positions[0] = math.Vec3{X: float32(ci + 1)}
			d.Normals[0] = math.Vec3{Y: 0.5}
		}
		m.Channels = append(m.Channels, Channel{Name: name, Frames: []Frame{{Weight: 100, Deltas: d}}})
	}
	return m
}

func mustCapture(t *testing.T, m *Mesh) *Snapshot {
	t.Helper()
	s, err := Capture(m)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	return s
}

func deltaSetFrom(positions ...math.Vec3) DeltaSet {
	d := NewDeltaSet(len(positions))
	copy(d.Positions, positions)
	return d
}

func assertVecs(t *testing.T, label string, got, want []math.Vec3) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: length %d, want %d", label, len(got), len(want))
	}
	for i := range want {
		if !got[i].ApproxEqual(want[i], 1e-5) {
			t.Errorf("%s[%d] = %+v, want %+v", label, i, got[i], want[i])
		}
	}
}
