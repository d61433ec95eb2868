package blendshape

// Renderer is a live mesh instance: a mesh reference plus one weight per channel.
type Renderer interface {
	Mesh() *Mesh
	SetMesh(m *Mesh)
	BlendShapeWeight(index int) float32
	SetBlendShapeWeight(index int, weight float32)
}

// Instance is the in-memory Renderer.
type Instance struct {
	mesh    *Mesh
	weights []float32
}

// NewInstance wraps m with all weights at zero.
func NewInstance(m *Mesh) *Instance {
	inst := &Instance{}
	inst.SetMesh(m)
	return inst
}

// Mesh returns the current mesh.
func (i *Instance) Mesh() *Mesh {
	return i.mesh
}

// SetMesh swaps the mesh. Weights are kept by channel index; new
// channels start at zero.
func (i *Instance) SetMesh(m *Mesh) {
	i.mesh = m
	count := 0
	if m != nil {
		count = len(m.Channels)
	}
	weights := make([]float32, count)
	copy(weights, i.weights)
	i.weights = weights
}

// BlendShapeWeight returns the weight at index, or 0 when out of range.
func (i *Instance) BlendShapeWeight(index int) float32 {
	if index < 0 || index >= len(i.weights) {
		return 0
	}
	return i.weights[index]
}

// SetBlendShapeWeight sets the weight at index. Out of range indices are ignored.
func (i *Instance) SetBlendShapeWeight(index int, weight float32) {
	if index < 0 || index >= len(i.weights) {
		return
	}
	i.weights[index] = weight
}

// Weights returns a copy of the per-channel weights.
func (i *Instance) Weights() []float32 {
	return append([]float32(nil), i.weights...)
}
