package tools

import (
	"fmt"

	"github.com/Faultbox/morphkit/pkg/blendshape"
)

// ApplyToActive rewrites the active channel as the sum of every channel's
// first frame scaled by its current weight, keeping its position in the
// channel list. Afterwards only the active channel is shown, at 100.
func ApplyToActive(r blendshape.Renderer, active string, opts Options) (*Result, error) {
	mesh, err := requireMesh(r)
	if err != nil {
		return nil, err
	}
	if mesh.ChannelIndex(active) < 0 {
		return nil, fmt.Errorf("%w: %q", blendshape.ErrUnknownChannel, active)
	}
	log := opts.logger()

	base, err := blendshape.Capture(mesh)
	if err != nil {
		return nil, err
	}
	sum := blendshape.NewDeltaSet(base.VertexCount())
	for i, ch := range base.Channels() {
		w := r.BlendShapeWeight(i)
		if w == 0 {
			continue
		}
		d, err := blendshape.MergeWeighted(ch, w)
		if err != nil {
			return nil, err
		}
		for v := range sum.Positions {
			sum.Positions[v] = sum.Positions[v].Add(d.Positions[v])
			sum.Normals[v] = sum.Normals[v].Add(d.Normals[v])
			sum.Tangents[v] = sum.Tangents[v].Add(d.Tangents[v])
		}
	}

	m, report, err := blendshape.Build(base, blendshape.Plan{blendshape.SingleFrame(active, 100, sum)}, blendshape.ReplaceDuplicates)
	if err != nil {
		return nil, err
	}
	res := swap(r, ToolEditor, m, report, log)

	wc := blendshape.NewWeightController(r, log)
	if _, err := wc.Isolate(active); err != nil {
		return nil, err
	}
	return res, nil
}
