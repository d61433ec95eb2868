package tools

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/morphkit/pkg/blendshape"
	"github.com/Faultbox/morphkit/pkg/formats"
)

// BakePose folds the current weight configuration into a new channel with a
// single frame at weight 100. With a pose the channel holds the full
// deformed shape including skinning, otherwise the sum of the active
// channels evaluated at their weights. Existing names get a _N suffix.
func BakePose(r blendshape.Renderer, opts Options) (*Result, error) {
	mesh, err := requireMesh(r)
	if err != nil {
		return nil, err
	}
	log := opts.logger()
	name := opts.Name
	if name == "" {
		name = DefaultBakeName
	}

	base, err := blendshape.Capture(mesh)
	if err != nil {
		return nil, err
	}

	var deltas blendshape.DeltaSet
	if opts.Pose != nil {
		deformed, err := blendshape.CaptureDeformed(r, opts.Pose)
		if err != nil {
			return nil, err
		}
		if deltas, err = blendshape.Diff(base, deformed); err != nil {
			return nil, err
		}
	} else {
		var items []blendshape.WeightedChannel
		for i, ch := range base.Channels() {
			if w := r.BlendShapeWeight(i); w != 0 {
				items = append(items, blendshape.WeightedChannel{Channel: ch, Weight: w})
			}
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("%w: no channel has a non-zero weight", blendshape.ErrConfiguration)
		}
		log.Debug("baking weighted channels", zap.Int("count", len(items)))
		if deltas, err = blendshape.SumWeightedChannels(base.VertexCount(), items); err != nil {
			return nil, err
		}
	}

	m, report, err := blendshape.Build(base, blendshape.Plan{blendshape.SingleFrame(name, 100, deltas)}, blendshape.SuffixDuplicates)
	if err != nil {
		return nil, err
	}
	res := swap(r, ToolBaker, m, report, log)

	if opts.ResetWeights && len(report.Added) == 1 {
		wc := blendshape.NewWeightController(r, log)
		if _, err := wc.Isolate(report.Added[0]); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// BakeClip evaluates clip at its end time and stores the difference from
// the neutral shape as a new channel named after the clip. Weights are
// zeroed for the neutral capture and restored afterwards.
func BakeClip(r blendshape.Renderer, clip *formats.Clip, opts Options) (*Result, error) {
	mesh, err := requireMesh(r)
	if err != nil {
		return nil, err
	}
	if clip == nil {
		return nil, fmt.Errorf("%w: no clip", blendshape.ErrConfiguration)
	}
	log := opts.logger()
	name := opts.Name
	if name == "" {
		name = clip.Name
	}
	if name == "" {
		name = DefaultBakeName
	}

	base, err := blendshape.Capture(mesh)
	if err != nil {
		return nil, err
	}

	var deltas blendshape.DeltaSet
	wc := blendshape.NewWeightController(r, log)
	err = wc.Bracket(func() error {
		wc.ZeroAll()
		neutral, err := blendshape.CaptureDeformed(r, opts.Pose)
		if err != nil {
			return err
		}
		wc.Apply(blendshape.WeightConfiguration(clip.EndWeights()))
		posed, err := blendshape.CaptureDeformed(r, opts.Pose)
		if err != nil {
			return err
		}
		deltas, err = blendshape.Diff(neutral, posed)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("baking clip %q: %w", clip.Name, err)
	}

	m, report, err := blendshape.Build(base, blendshape.Plan{blendshape.SingleFrame(name, 100, deltas)}, blendshape.SuffixDuplicates)
	if err != nil {
		return nil, err
	}
	return swap(r, ToolClipBaker, m, report, log), nil
}
