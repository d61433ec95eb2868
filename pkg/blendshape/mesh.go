// Package blendshape implements the blend-shape delta engine: mesh snapshots,
// weight control, per-vertex delta computation, channel merging and mesh rebuilding.
//
// Weights use the 0-100 scale throughout. A channel's frames carry the weight
// at which their deltas apply in full.
package blendshape

import (
	"fmt"

	"github.com/Faultbox/morphkit/pkg/math"
)

// MaxUVSets is the number of texture coordinate sets a mesh may carry.
const MaxUVSets = 8

// DeltaSet holds per-vertex position, normal and tangent deltas.
// All three buffers have the same length.
type DeltaSet struct {
	Positions []math.Vec3
	Normals   []math.Vec3
	Tangents  []math.Vec3
}

// NewDeltaSet returns an all-zero delta set for n vertices.
func NewDeltaSet(n int) DeltaSet {
	return DeltaSet{
		Positions: make([]math.Vec3, n),
		Normals:   make([]math.Vec3, n),
		Tangents:  make([]math.Vec3, n),
	}
}

// Len returns the vertex count of the set.
func (d DeltaSet) Len() int {
	return len(d.Positions)
}

// Clone returns a copy that shares no memory with d.
func (d DeltaSet) Clone() DeltaSet {
	return DeltaSet{
		Positions: append([]math.Vec3(nil), d.Positions...),
		Normals:   append([]math.Vec3(nil), d.Normals...),
		Tangents:  append([]math.Vec3(nil), d.Tangents...),
	}
}

// Scaled returns a new set with every delta multiplied by s.
func (d DeltaSet) Scaled(s float32) DeltaSet {
	out := NewDeltaSet(d.Len())
	out.addScaled(d, s)
	return out
}

// IsZero reports whether every delta is exactly zero.
func (d DeltaSet) IsZero() bool {
	for _, buf := range [][]math.Vec3{d.Positions, d.Normals, d.Tangents} {
		for _, v := range buf {
			if !v.IsZero() {
				return false
			}
		}
	}
	return true
}

// addScaled accumulates o*s into d. Buffers missing from o count as zero.
func (d *DeltaSet) addScaled(o DeltaSet, s float32) {
	accumulate(d.Positions, o.Positions, s)
	accumulate(d.Normals, o.Normals, s)
	accumulate(d.Tangents, o.Tangents, s)
}

// scale multiplies d in place.
func (d *DeltaSet) scale(s float32) {
	for _, buf := range [][]math.Vec3{d.Positions, d.Normals, d.Tangents} {
		for i := range buf {
			buf[i] = buf[i].Scale(s)
		}
	}
}

func accumulate(dst, src []math.Vec3, s float32) {
	if len(src) < len(dst) {
		dst = dst[:len(src)]
	}
	for i := range dst {
		dst[i] = dst[i].AddScaled(src[i], s)
	}
}

func (d DeltaSet) validate(n int) error {
	if len(d.Positions) != n {
		return &VertexCountError{Want: n, Got: len(d.Positions)}
	}
	if len(d.Normals) != n {
		return &VertexCountError{Want: n, Got: len(d.Normals)}
	}
	if len(d.Tangents) != n {
		return &VertexCountError{Want: n, Got: len(d.Tangents)}
	}
	return nil
}

// Frame is one (weight, deltas) sample of a channel.
type Frame struct {
	Weight float32
	Deltas DeltaSet
}

// Channel is a named blend shape with one or more frames in increasing weight order.
type Channel struct {
	Name   string
	Frames []Frame
}

func (c Channel) clone() Channel {
	frames := make([]Frame, len(c.Frames))
	for i, f := range c.Frames {
		frames[i] = Frame{Weight: f.Weight, Deltas: f.Deltas.Clone()}
	}
	return Channel{Name: c.Name, Frames: frames}
}

// fillMissing replaces absent normal or tangent deltas with zeros.
func (c Channel) fillMissing() {
	for i := range c.Frames {
		d := &c.Frames[i].Deltas
		if len(d.Normals) == 0 {
			d.Normals = make([]math.Vec3, len(d.Positions))
		}
		if len(d.Tangents) == 0 {
			d.Tangents = make([]math.Vec3, len(d.Positions))
		}
	}
}

func (c Channel) validate(n int) error {
	if c.Name == "" {
		return fmt.Errorf("%w: empty channel name", ErrConfiguration)
	}
	if len(c.Frames) == 0 {
		return fmt.Errorf("%w: channel %q has no frames", ErrInvalidFrame, c.Name)
	}
	for i, f := range c.Frames {
		if err := f.Deltas.validate(n); err != nil {
			return fmt.Errorf("channel %q frame %d: %w", c.Name, i, err)
		}
		if i > 0 && f.Weight <= c.Frames[i-1].Weight {
			return fmt.Errorf("%w: channel %q frame weights must increase (%g after %g)",
				ErrInvalidFrame, c.Name, f.Weight, c.Frames[i-1].Weight)
		}
	}
	return nil
}

// BoneWeight binds a vertex to up to four bones.
type BoneWeight struct {
	Bones   [4]int
	Weights [4]float32
}

// SubMesh is a triangle list over a contiguous vertex range.
// Indices are absolute into the mesh vertex buffers.
type SubMesh struct {
	FirstVertex int
	VertexCount int
	Indices     []uint32
}

// Mesh is the data a host mesh exposes to the engine. The host owns it;
// the engine reads it through snapshots and hands back new meshes.
type Mesh struct {
	Name        string
	Vertices    []math.Vec3
	Normals     []math.Vec3
	Tangents    []math.Vec4
	UVs         [][]math.Vec2
	Colors      [][4]float32
	BindPoses   []math.Mat4
	BoneWeights []BoneWeight
	SubMeshes   []SubMesh
	Channels    []Channel
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// ChannelIndex returns the index of the named channel, or -1.
func (m *Mesh) ChannelIndex(name string) int {
	for i := range m.Channels {
		if m.Channels[i].Name == name {
			return i
		}
	}
	return -1
}

// ChannelNames lists channel names in mesh order.
func (m *Mesh) ChannelNames() []string {
	names := make([]string, len(m.Channels))
	for i := range m.Channels {
		names[i] = m.Channels[i].Name
	}
	return names
}

// Validate checks that every per-vertex buffer matches the vertex count,
// that channel names are unique and that frame weights increase.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	optional := []struct {
		name string
		len  int
	}{
		{"normals", len(m.Normals)},
		{"tangents", len(m.Tangents)},
		{"colors", len(m.Colors)},
		{"bone weights", len(m.BoneWeights)},
	}
	for _, b := range optional {
		if b.len != 0 && b.len != n {
			return fmt.Errorf("%s: %w", b.name, &VertexCountError{Want: n, Got: b.len})
		}
	}
	if len(m.UVs) > MaxUVSets {
		return fmt.Errorf("%w: %d UV sets, at most %d", ErrConfiguration, len(m.UVs), MaxUVSets)
	}
	for i, uv := range m.UVs {
		if len(uv) != 0 && len(uv) != n {
			return fmt.Errorf("uv%d: %w", i, &VertexCountError{Want: n, Got: len(uv)})
		}
	}
	for i, sm := range m.SubMeshes {
		for _, idx := range sm.Indices {
			if int(idx) >= n {
				return fmt.Errorf("submesh %d index %d: %w", i, idx, &VertexCountError{Want: n, Got: int(idx) + 1})
			}
		}
	}

	seen := make(map[string]struct{}, len(m.Channels))
	for _, ch := range m.Channels {
		if _, dup := seen[ch.Name]; dup {
			return fmt.Errorf("%w: duplicate channel %q", ErrConfiguration, ch.Name)
		}
		seen[ch.Name] = struct{}{}
		if err := ch.validate(n); err != nil {
			return err
		}
	}
	return nil
}
