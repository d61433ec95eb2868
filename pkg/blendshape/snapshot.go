package blendshape

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"

	"github.com/Faultbox/morphkit/pkg/math"
)

// Snapshot is an immutable capture of a mesh. Accessors return copies.
type Snapshot struct {
	mesh Mesh
}

// Capture copies every buffer and every channel frame of m.
// Missing normal or tangent deltas are stored as zeros.
func Capture(m *Mesh) (*Snapshot, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: no mesh", ErrConfiguration)
	}

	s := &Snapshot{}
	if err := deepcopy.Copy(&s.mesh, m); err != nil {
		return nil, fmt.Errorf("copying mesh %q: %w", m.Name, err)
	}

	n := len(s.mesh.Vertices)
	for _, ch := range s.mesh.Channels {
		ch.fillMissing()
	}
	if err := s.mesh.Validate(); err != nil {
		return nil, fmt.Errorf("capturing mesh %q (%d vertices): %w", m.Name, n, err)
	}
	return s, nil
}

// Pose holds one world matrix per bone, in bind-pose order.
type Pose []math.Mat4

// CaptureDeformed evaluates the renderer's current weights into a new
// snapshot whose base buffers hold the deformed shape. A non-nil pose also
// applies linear-blend skinning. The result has no channels and the
// renderer's weights are left untouched.
func CaptureDeformed(r Renderer, pose Pose) (*Snapshot, error) {
	if r == nil || r.Mesh() == nil {
		return nil, fmt.Errorf("%w: no renderer or mesh", ErrConfiguration)
	}
	base, err := Capture(r.Mesh())
	if err != nil {
		return nil, err
	}

	m := &base.mesh
	n := len(m.Vertices)
	sum := NewDeltaSet(n)
	for i, ch := range m.Channels {
		w := r.BlendShapeWeight(i)
		if w == 0 {
			continue
		}
		d, err := EvaluateChannelAt(ch, w)
		if err != nil {
			return nil, err
		}
		sum.addScaled(d, 1)
	}
	m.Channels = nil

	for i := range m.Vertices {
		m.Vertices[i] = m.Vertices[i].Add(sum.Positions[i])
	}
	for i := range m.Normals {
		m.Normals[i] = m.Normals[i].Add(sum.Normals[i])
	}
	for i := range m.Tangents {
		m.Tangents[i] = m.Tangents[i].WithXYZ(m.Tangents[i].XYZ().Add(sum.Tangents[i]))
	}

	if pose != nil {
		if err := skin(m, pose); err != nil {
			return nil, err
		}
	}
	return base, nil
}

// skin applies linear-blend skinning in place.
func skin(m *Mesh, pose Pose) error {
	if len(pose) != len(m.BindPoses) {
		return fmt.Errorf("%w: pose has %d bones, mesh has %d bind poses",
			ErrConfiguration, len(pose), len(m.BindPoses))
	}
	if len(m.BoneWeights) == 0 {
		return nil
	}

	count := len(m.Vertices)
	skinning := make([]math.Mat4, len(pose))
	for b := range pose {
		skinning[b] = pose[b].Mul(m.BindPoses[b])
	}

	for v, bw := range m.BoneWeights {
		var blended math.Mat4
		var total float32
		for k := 0; k < 4; k++ {
			w := bw.Weights[k]
			if w == 0 {
				continue
			}
			b := bw.Bones[k]
			if b < 0 || b >= len(skinning) {
				return fmt.Errorf("%w: vertex %d references bone %d of %d",
					ErrConfiguration, v, b, len(skinning))
			}
			blended = blended.AddScaled(skinning[b], w)
			total += w
		}
		if total == 0 {
			continue
		}

		m.Vertices[v] = blended.TransformPoint(m.Vertices[v])
		if len(m.Normals) == count {
			m.Normals[v] = blended.TransformDirection(m.Normals[v]).Normalize()
		}
		if len(m.Tangents) == count {
			t := m.Tangents[v]
			m.Tangents[v] = t.WithXYZ(blended.TransformDirection(t.XYZ()).Normalize())
		}
	}
	return nil
}

// Name returns the captured mesh name.
func (s *Snapshot) Name() string {
	return s.mesh.Name
}

// VertexCount returns the number of captured vertices.
func (s *Snapshot) VertexCount() int {
	return len(s.mesh.Vertices)
}

// Vertices returns a copy of the base positions.
func (s *Snapshot) Vertices() []math.Vec3 {
	return append([]math.Vec3(nil), s.mesh.Vertices...)
}

// Normals returns a copy of the base normals, or nil if the mesh has none.
func (s *Snapshot) Normals() []math.Vec3 {
	if len(s.mesh.Normals) == 0 {
		return nil
	}
	return append([]math.Vec3(nil), s.mesh.Normals...)
}

// Tangents returns a copy of the base tangents, or nil if the mesh has none.
func (s *Snapshot) Tangents() []math.Vec4 {
	if len(s.mesh.Tangents) == 0 {
		return nil
	}
	return append([]math.Vec4(nil), s.mesh.Tangents...)
}

// ChannelNames lists channel names in mesh order.
func (s *Snapshot) ChannelNames() []string {
	return s.mesh.ChannelNames()
}

// Channel returns a copy of the named channel.
func (s *Snapshot) Channel(name string) (Channel, bool) {
	i := s.mesh.ChannelIndex(name)
	if i < 0 {
		return Channel{}, false
	}
	return s.mesh.Channels[i].clone(), true
}

// Channels returns copies of every channel in mesh order.
func (s *Snapshot) Channels() []Channel {
	out := make([]Channel, len(s.mesh.Channels))
	for i, ch := range s.mesh.Channels {
		out[i] = ch.clone()
	}
	return out
}

// Mesh returns a new live mesh with the captured data.
func (s *Snapshot) Mesh() *Mesh {
	out := &Mesh{}
	if err := deepcopy.Copy(out, &s.mesh); err != nil {
		// Mesh holds only plain slices and values, which always copy.
		panic(fmt.Sprintf("blendshape: copying snapshot: %v", err))
	}
	return out
}
