package gltfmesh

import (
	"fmt"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/morphkit/pkg/blendshape"
	"github.com/Faultbox/morphkit/pkg/math"
)

// SkinPose returns the world matrix of every joint of the mesh's skin, in
// joint order, from the node transforms stored in the file. It returns nil
// for meshes without a skin.
func (d *Document) SkinPose(name string) (blendshape.Pose, error) {
	mi, _, err := d.find(name)
	if err != nil {
		return nil, err
	}
	skin, ok := d.skinFor(mi)
	if !ok {
		return nil, nil
	}

	parents := make([]int, len(d.doc.Nodes))
	for i := range parents {
		parents[i] = -1
	}
	for i, n := range d.doc.Nodes {
		for _, c := range n.Children {
			if ci := idx(c); ci < len(parents) {
				parents[ci] = i
			}
		}
	}

	cache := make(map[int]math.Mat4)
	pose := make(blendshape.Pose, len(skin.Joints))
	for i, j := range skin.Joints {
		ni := idx(j)
		if ni >= len(d.doc.Nodes) {
			return nil, fmt.Errorf("%w: joint %d references node %d", ErrUnsupportedMesh, i, ni)
		}
		pose[i] = d.worldMatrix(ni, parents, cache, 0)
	}
	return pose, nil
}

func (d *Document) worldMatrix(ni int, parents []int, cache map[int]math.Mat4, depth int) math.Mat4 {
	if m, ok := cache[ni]; ok {
		return m
	}
	local := localMatrix(d.doc.Nodes[ni])
	world := local
	// Depth guards against cyclic node graphs in malformed files.
	if p := parents[ni]; p >= 0 && depth < len(parents) {
		world = d.worldMatrix(p, parents, cache, depth+1).Mul(local)
	}
	cache[ni] = world
	return world
}

func localMatrix(n *gltf.Node) math.Mat4 {
	m := mat4Of(n.MatrixOrDefault())
	if m != math.Identity() {
		return m
	}
	return math.FromTRS(
		vec3Of(n.TranslationOrDefault()),
		quatOf(n.RotationOrDefault()).Normalize(),
		vec3Of(n.ScaleOrDefault()),
	)
}
