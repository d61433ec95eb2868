package gltfmesh

import (
	"encoding/json"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/morphkit/pkg/blendshape"
	"github.com/Faultbox/morphkit/pkg/math"
)

// vertexRange is a run of vertices read from one POSITION accessor.
type vertexRange struct {
	position int
	first    int
	count    int
}

// layout maps primitives onto the flat vertex buffer of a Mesh.
type layout struct {
	ranges []vertexRange
	// primRange holds the range index of every primitive.
	primRange []int
}

func buildLayout(m *gltf.Mesh) (layout, error) {
	var l layout
	if len(m.Primitives) == 0 {
		return l, fmt.Errorf("%w: no primitives", ErrUnsupportedMesh)
	}
	seen := make(map[int]int)
	for pi, p := range m.Primitives {
		pos, ok := p.Attributes[gltf.POSITION]
		if !ok {
			return l, fmt.Errorf("%w: primitive %d has no POSITION", ErrUnsupportedMesh, pi)
		}
		key := idx(pos)
		if ri, ok := seen[key]; ok {
			l.primRange = append(l.primRange, ri)
			continue
		}
		seen[key] = len(l.ranges)
		l.primRange = append(l.primRange, len(l.ranges))
		l.ranges = append(l.ranges, vertexRange{position: key})
	}
	return l, nil
}

// Load converts the named mesh. The returned weights are per channel on
// the 0-100 scale, taken from the mesh's default morph weights.
func (d *Document) Load(name string) (*blendshape.Mesh, []float32, error) {
	mi, gm, err := d.find(name)
	if err != nil {
		return nil, nil, err
	}
	l, err := buildLayout(gm)
	if err != nil {
		return nil, nil, err
	}

	out := &blendshape.Mesh{Name: name}
	first := gm.Primitives[firstPrimitive(l, 0)]
	var errs error

	// Base attributes are read once per vertex range.
	hasNormals, hasTangents := true, true
	uvSets, hasColors, hasSkin := 0, true, true
	for ri := range l.ranges {
		p := gm.Primitives[firstPrimitive(l, ri)]
		if _, ok := p.Attributes[gltf.NORMAL]; !ok {
			hasNormals = false
		}
		if _, ok := p.Attributes[gltf.TANGENT]; !ok {
			hasTangents = false
		}
		if _, ok := p.Attributes[gltf.COLOR_0]; !ok {
			hasColors = false
		}
		_, j := p.Attributes[gltf.JOINTS_0]
		_, w := p.Attributes[gltf.WEIGHTS_0]
		if !j || !w {
			hasSkin = false
		}
		n := 0
		for n < blendshape.MaxUVSets {
			if _, ok := p.Attributes[fmt.Sprintf("TEXCOORD_%d", n)]; !ok {
				break
			}
			n++
		}
		if ri == 0 || n < uvSets {
			uvSets = n
		}
	}
	out.UVs = make([][]math.Vec2, uvSets)

	for ri := range l.ranges {
		p := gm.Primitives[firstPrimitive(l, ri)]
		acr, err := d.accessor(p, gltf.POSITION)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		positions, err := modeler.ReadPosition(d.doc, acr, nil)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("primitive %d POSITION: %w", firstPrimitive(l, ri), err))
			continue
		}
		l.ranges[ri].first = len(out.Vertices)
		l.ranges[ri].count = len(positions)
		for _, v := range positions {
			out.Vertices = append(out.Vertices, math.Vec3From(v))
		}
		count := len(positions)

		if hasNormals {
			normals, err := d.readVec3(p, gltf.NORMAL, count)
			errs = multierr.Append(errs, err)
			out.Normals = append(out.Normals, normals...)
		}
		if hasTangents {
			tangents, err := d.readTangents(p, count)
			errs = multierr.Append(errs, err)
			out.Tangents = append(out.Tangents, tangents...)
		}
		for set := 0; set < uvSets; set++ {
			uvs, err := d.readUVs(p, set, count)
			errs = multierr.Append(errs, err)
			out.UVs[set] = append(out.UVs[set], uvs...)
		}
		if hasColors {
			colors, err := d.readColors(p, count)
			errs = multierr.Append(errs, err)
			out.Colors = append(out.Colors, colors...)
		}
		if hasSkin {
			bw, err := d.readBoneWeights(p, count)
			errs = multierr.Append(errs, err)
			out.BoneWeights = append(out.BoneWeights, bw...)
		}
	}
	if errs != nil {
		return nil, nil, fmt.Errorf("%w in mesh %q: %w", ErrInvalidAttributes, name, errs)
	}

	for pi, p := range gm.Primitives {
		r := l.ranges[l.primRange[pi]]
		sm := blendshape.SubMesh{FirstVertex: r.first, VertexCount: r.count}
		local, err := d.readIndices(p, r.count)
		if err != nil {
			return nil, nil, fmt.Errorf("mesh %q primitive %d: %w", name, pi, err)
		}
		sm.Indices = make([]uint32, len(local))
		for i, v := range local {
			sm.Indices[i] = v + uint32(r.first)
		}
		out.SubMeshes = append(out.SubMeshes, sm)
	}

	if out.BindPoses, err = d.bindPoses(mi); err != nil {
		return nil, nil, fmt.Errorf("mesh %q: %w", name, err)
	}
	if len(out.BindPoses) == 0 {
		out.BoneWeights = nil
	}

	weights, err := d.loadChannels(gm, l, first, out)
	if err != nil {
		return nil, nil, fmt.Errorf("mesh %q: %w", name, err)
	}
	return out, weights, nil
}

func firstPrimitive(l layout, rangeIndex int) int {
	for pi, ri := range l.primRange {
		if ri == rangeIndex {
			return pi
		}
	}
	return 0
}

func (d *Document) accessor(p *gltf.Primitive, attr string) (*gltf.Accessor, error) {
	ai, ok := p.Attributes[attr]
	if !ok {
		return nil, fmt.Errorf("missing %s", attr)
	}
	if idx(ai) >= len(d.doc.Accessors) {
		return nil, fmt.Errorf("%s accessor %d out of range", attr, idx(ai))
	}
	return d.doc.Accessors[ai], nil
}

func checkCount(attr string, got, want int) error {
	if got != want {
		return fmt.Errorf("%s has %d elements, POSITION has %d", attr, got, want)
	}
	return nil
}

func (d *Document) readVec3(p *gltf.Primitive, attr string, count int) ([]math.Vec3, error) {
	out := make([]math.Vec3, count)
	acr, err := d.accessor(p, attr)
	if err != nil {
		return out, err
	}
	data, err := modeler.ReadNormal(d.doc, acr, nil)
	if err != nil {
		return out, fmt.Errorf("%s: %w", attr, err)
	}
	if err := checkCount(attr, len(data), count); err != nil {
		return out, err
	}
	for i, v := range data {
		out[i] = math.Vec3From(v)
	}
	return out, nil
}

func (d *Document) readTangents(p *gltf.Primitive, count int) ([]math.Vec4, error) {
	out := make([]math.Vec4, count)
	acr, err := d.accessor(p, gltf.TANGENT)
	if err != nil {
		return out, err
	}
	data, err := modeler.ReadTangent(d.doc, acr, nil)
	if err != nil {
		return out, fmt.Errorf("TANGENT: %w", err)
	}
	if err := checkCount("TANGENT", len(data), count); err != nil {
		return out, err
	}
	for i, v := range data {
		out[i] = math.Vec4{X: v[0], Y: v[1], Z: v[2], W: v[3]}
	}
	return out, nil
}

func (d *Document) readUVs(p *gltf.Primitive, set, count int) ([]math.Vec2, error) {
	out := make([]math.Vec2, count)
	attr := fmt.Sprintf("TEXCOORD_%d", set)
	acr, err := d.accessor(p, attr)
	if err != nil {
		return out, err
	}
	data, err := modeler.ReadTextureCoord(d.doc, acr, nil)
	if err != nil {
		return out, fmt.Errorf("%s: %w", attr, err)
	}
	if err := checkCount(attr, len(data), count); err != nil {
		return out, err
	}
	for i, v := range data {
		out[i] = math.Vec2{X: v[0], Y: v[1]}
	}
	return out, nil
}

func (d *Document) readColors(p *gltf.Primitive, count int) ([][4]float32, error) {
	out := make([][4]float32, count)
	acr, err := d.accessor(p, gltf.COLOR_0)
	if err != nil {
		return out, err
	}
	data, err := modeler.ReadColor(d.doc, acr, nil)
	if err != nil {
		return out, fmt.Errorf("COLOR_0: %w", err)
	}
	if err := checkCount("COLOR_0", len(data), count); err != nil {
		return out, err
	}
	for i, c := range data {
		out[i] = [4]float32{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255}
	}
	return out, nil
}

func (d *Document) readBoneWeights(p *gltf.Primitive, count int) ([]blendshape.BoneWeight, error) {
	out := make([]blendshape.BoneWeight, count)
	jAcr, err := d.accessor(p, gltf.JOINTS_0)
	if err != nil {
		return out, err
	}
	wAcr, err := d.accessor(p, gltf.WEIGHTS_0)
	if err != nil {
		return out, err
	}
	joints, err := modeler.ReadJoints(d.doc, jAcr, nil)
	if err != nil {
		return out, fmt.Errorf("JOINTS_0: %w", err)
	}
	weights, err := modeler.ReadWeights(d.doc, wAcr, nil)
	if err != nil {
		return out, fmt.Errorf("WEIGHTS_0: %w", err)
	}
	if err := multierr.Combine(
		checkCount("JOINTS_0", len(joints), count),
		checkCount("WEIGHTS_0", len(weights), count),
	); err != nil {
		return out, err
	}
	for i := range out {
		for k := 0; k < 4; k++ {
			out[i].Bones[k] = int(joints[i][k])
			out[i].Weights[k] = weights[i][k]
		}
	}
	return out, nil
}

func (d *Document) readIndices(p *gltf.Primitive, count int) ([]uint32, error) {
	ai, ok := optIdx(p.Indices)
	if !ok {
		seq := make([]uint32, count)
		for i := range seq {
			seq[i] = uint32(i)
		}
		return seq, nil
	}
	if ai >= len(d.doc.Accessors) {
		return nil, fmt.Errorf("%w: indices accessor %d out of range", ErrInvalidAttributes, ai)
	}
	indices, err := modeler.ReadIndices(d.doc, d.doc.Accessors[ai], nil)
	if err != nil {
		return nil, fmt.Errorf("reading indices: %w", err)
	}
	for _, v := range indices {
		if int(v) >= count {
			return nil, fmt.Errorf("%w: index %d >= %d vertices", ErrInvalidAttributes, v, count)
		}
	}
	return indices, nil
}

// skinFor returns the skin of the first node that instances mesh mi.
func (d *Document) skinFor(mi int) (*gltf.Skin, bool) {
	for _, n := range d.doc.Nodes {
		m, ok := optIdx(n.Mesh)
		if !ok || m != mi {
			continue
		}
		si, ok := optIdx(n.Skin)
		if !ok || si >= len(d.doc.Skins) {
			continue
		}
		return d.doc.Skins[si], true
	}
	return nil, false
}

func (d *Document) bindPoses(mi int) ([]math.Mat4, error) {
	skin, ok := d.skinFor(mi)
	if !ok {
		return nil, nil
	}
	poses := make([]math.Mat4, len(skin.Joints))
	ai, ok := optIdx(skin.InverseBindMatrices)
	if !ok {
		for i := range poses {
			poses[i] = math.Identity()
		}
		return poses, nil
	}
	data, err := modeler.ReadAccessor(d.doc, d.doc.Accessors[ai], nil)
	if err != nil {
		return nil, fmt.Errorf("reading inverse bind matrices: %w", err)
	}
	mats, ok := data.([][4][4]float32)
	if !ok {
		return nil, fmt.Errorf("%w: inverse bind matrices are %T", ErrUnsupportedMesh, data)
	}
	if len(mats) < len(poses) {
		return nil, fmt.Errorf("%w: %d inverse bind matrices for %d joints", ErrUnsupportedMesh, len(mats), len(poses))
	}
	for i := range poses {
		// Accessor matrices are column-major, one [4]float32 per column.
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				poses[i][c*4+r] = mats[i][c][r]
			}
		}
	}
	return poses, nil
}

func (d *Document) loadChannels(gm *gltf.Mesh, l layout, first *gltf.Primitive, out *blendshape.Mesh) ([]float32, error) {
	targetCount := len(first.Targets)
	for pi, p := range gm.Primitives {
		if len(p.Targets) != targetCount {
			return nil, fmt.Errorf("%w: primitive %d has %d morph targets, primitive 0 has %d",
				ErrUnsupportedMesh, pi, len(p.Targets), targetCount)
		}
	}
	if targetCount == 0 {
		return nil, nil
	}

	names := targetNames(gm, first, targetCount)
	frameWeights := targetFrameWeights(gm, targetCount)
	defaults := floatsOf(gm.Weights)

	n := len(out.Vertices)
	var weights []float32
	for t := 0; t < targetCount; t++ {
		deltas := blendshape.NewDeltaSet(n)
		var errs error
		for ri, r := range l.ranges {
			p := gm.Primitives[firstPrimitive(l, ri)]
			target := p.Targets[t]
			errs = multierr.Append(errs, d.readTargetInto(target, gltf.POSITION, deltas.Positions[r.first:r.first+r.count]))
			errs = multierr.Append(errs, d.readTargetInto(target, gltf.NORMAL, deltas.Normals[r.first:r.first+r.count]))
			errs = multierr.Append(errs, d.readTargetInto(target, gltf.TANGENT, deltas.Tangents[r.first:r.first+r.count]))
		}
		if errs != nil {
			return nil, fmt.Errorf("morph target %d (%s): %w", t, names[t], errs)
		}

		frame := blendshape.Frame{Weight: frameWeights[t], Deltas: deltas}
		last := len(out.Channels) - 1
		if last >= 0 && out.Channels[last].Name == names[t] && frame.Weight > lastWeight(out.Channels[last]) {
			out.Channels[last].Frames = append(out.Channels[last].Frames, frame)
			continue
		}
		if out.ChannelIndex(names[t]) >= 0 {
			d.log.Warn("duplicate morph target name, renaming",
				zap.String("mesh", out.Name), zap.String("target", names[t]))
			names[t] = blendshape.UniqueName(out, names[t])
		}
		out.Channels = append(out.Channels, blendshape.Channel{Name: names[t], Frames: []blendshape.Frame{frame}})

		w := float32(0)
		if t < len(defaults) {
			w = defaults[t] * 100
		}
		weights = append(weights, w)
	}
	return weights, nil
}

func lastWeight(ch blendshape.Channel) float32 {
	return ch.Frames[len(ch.Frames)-1].Weight
}

func (d *Document) readTargetInto(target gltf.PrimitiveAttributes, attr string, dst []math.Vec3) error {
	ai, ok := target[attr]
	if !ok {
		return nil
	}
	if idx(ai) >= len(d.doc.Accessors) {
		return fmt.Errorf("%s accessor %d out of range", attr, idx(ai))
	}
	data, err := modeler.ReadPosition(d.doc, d.doc.Accessors[ai], nil)
	if err != nil {
		return fmt.Errorf("%s: %w", attr, err)
	}
	if err := checkCount(attr, len(data), len(dst)); err != nil {
		return err
	}
	for i, v := range data {
		dst[i] = math.Vec3From(v)
	}
	return nil
}

func targetNames(gm *gltf.Mesh, first *gltf.Primitive, count int) []string {
	names := make([]string, count)
	found := stringsFromExtras(gm.Extras, TargetNamesKey)
	if len(found) == 0 {
		found = stringsFromExtras(first.Extras, TargetNamesKey)
	}
	for i := range names {
		if i < len(found) && found[i] != "" {
			names[i] = found[i]
		} else {
			names[i] = fmt.Sprintf("target_%d", i)
		}
	}
	return names
}

func targetFrameWeights(gm *gltf.Mesh, count int) []float32 {
	weights := make([]float32, count)
	found := floatsFromExtras(gm.Extras, TargetFrameWeightsKey)
	for i := range weights {
		weights[i] = 100
		if i < len(found) && found[i] > 0 {
			weights[i] = found[i]
		}
	}
	return weights
}

func extrasValue(extras any, key string) (any, bool) {
	var m map[string]any
	switch e := extras.(type) {
	case map[string]any:
		m = e
	case json.RawMessage:
		if json.Unmarshal(e, &m) != nil {
			return nil, false
		}
	default:
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

func stringsFromExtras(extras any, key string) []string {
	v, ok := extrasValue(extras, key)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, len(list))
		for i, s := range list {
			out[i], _ = s.(string)
		}
		return out
	}
	return nil
}

func floatsFromExtras(extras any, key string) []float32 {
	v, ok := extrasValue(extras, key)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []float32:
		return list
	case []float64:
		return floatsOf(list)
	case []any:
		out := make([]float32, len(list))
		for i, f := range list {
			if x, ok := f.(float64); ok {
				out[i] = float32(x)
			}
		}
		return out
	}
	return nil
}
