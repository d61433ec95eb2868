package tools

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/morphkit/pkg/blendshape"
	"github.com/Faultbox/morphkit/pkg/formats"
)

// Preset modes for MatchPreset.
const (
	PresetModeMMD = "mmd"
	PresetModeAll = "all"
)

// MMDPresets lists the expression channel names used by MMD motions,
// in Japanese and their common English equivalents.
var MMDPresets = []string{
	"あ", "い", "う", "え", "お", "にやり", "∧", "ワ", "ω", "▲", "口角上げ", "口角下げ", "口横広げ",
	"Ah", "Ch", "U", "E", "Oh", "Grin", "Wa", "Mouth Horn Raise", "Mouth Horn Lower", "Mouth Side Widen",
	"まばたき", "笑い", "はぅ", "瞳小", "ｳｨﾝｸ２右", "ウィンク２", "ウィンク", "ウィンク右", "なごみ", "じと目", "びっくり", "ｷﾘｯ", "はぁと", "星目",
	"Blink", "Blink Happy", "Close><", "Pupil", "Wink 2 Right", "Wink 2", "Wink", "Wink Right", "Calm", "Stare", "Surprised", "Slant", "Heart", "Star Eye",
	"にこり", "上", "下", "真面目", "困る", "怒り", "前",
	"Cheerful", "Upper", "Lower", "Serious", "Sadness", "Anger", "Front",
	"照れ", "にやり２", "ん", "あ2", "恐ろしい子！", "歯無し下", "涙", "Blush",
}

var mmdPresetSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(MMDPresets))
	for _, name := range MMDPresets {
		set[name] = struct{}{}
	}
	return set
}()

// MatchPreset returns the channel names that are MMD presets, in mesh
// order. Mode "all" returns every name.
func MatchPreset(names []string, mode string) ([]string, error) {
	switch mode {
	case PresetModeAll:
		return append([]string{}, names...), nil
	case PresetModeMMD, "":
		var matched []string
		for _, name := range names {
			if _, ok := mmdPresetSet[name]; ok {
				matched = append(matched, name)
			}
		}
		return matched, nil
	}
	return nil, fmt.Errorf("%w: unknown preset mode %q", blendshape.ErrConfiguration, mode)
}

// MergeSpecFor converts a saved adjustment to a merge spec.
func MergeSpecFor(shape formats.ShapeAdjustment, referenceWeight float32) blendshape.MergeSpec {
	secondary := make([]blendshape.ChannelWeight, 0, len(shape.Additional))
	for _, k := range shape.Additional {
		secondary = append(secondary, blendshape.ChannelWeight{Name: k.Name, Weight: k.Value})
	}
	spec := blendshape.NewMergeSpec(blendshape.ChannelWeight{Name: shape.Name, Weight: shape.Value}, secondary...)
	spec.ReferenceWeight = referenceWeight
	return spec
}

// ApplyAdjustments rebuilds every channel that has a saved adjustment for
// the mesh. Each one becomes a single frame at weight 100 holding the
// combined deltas. All combinations read the original channels, so
// adjustments do not feed into each other. Other channels are kept.
func ApplyAdjustments(r blendshape.Renderer, adj *formats.MeshAdjustments, opts Options) (*Result, error) {
	mesh, err := requireMesh(r)
	if err != nil {
		return nil, err
	}
	if adj == nil || len(adj.Shapes) == 0 {
		return nil, fmt.Errorf("%w: no saved adjustments for mesh %q", blendshape.ErrConfiguration, mesh.Name)
	}
	log := opts.logger()

	base, err := blendshape.Capture(mesh)
	if err != nil {
		return nil, err
	}

	plan := make(blendshape.Plan, 0, len(adj.Shapes))
	for _, shape := range adj.Shapes {
		if _, ok := base.Channel(shape.Name); !ok {
			log.Warn("adjusted channel not on mesh, skipped", zap.String("channel", shape.Name))
			continue
		}
		d, err := blendshape.Combine(MergeSpecFor(shape, opts.ReferenceWeight), base)
		if err != nil {
			return nil, fmt.Errorf("adjusting %q: %w", shape.Name, err)
		}
		plan = append(plan, blendshape.SingleFrame(shape.Name, 100, d))
	}
	if len(plan) == 0 {
		return nil, fmt.Errorf("%w: none of the adjusted channels exist on mesh %q", blendshape.ErrUnknownChannel, mesh.Name)
	}

	m, report, err := blendshape.Build(base, plan, blendshape.ReplaceDuplicates)
	if err != nil {
		return nil, err
	}
	return swap(r, ToolFixer, m, report, log), nil
}
