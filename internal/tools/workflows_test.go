package tools

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/morphkit/pkg/blendshape"
	"github.com/Faultbox/morphkit/pkg/formats"
	"github.com/Faultbox/morphkit/pkg/math"
)

func TestParseNameList(t *testing.T) {
	got := ParseNameList("Smile\n  \n  Angry \r\n\nBlink")
	want := []string{"Smile", "Angry", "Blink"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseNameList = %q, want %q", got, want)
	}
	if got := ParseNameList("\n \n"); got != nil {
		t.Errorf("blank list = %q, want nil", got)
	}
}

func TestInsertEmpty(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	inst := newFace(nil)

	res, err := InsertEmpty(inst, []string{"A", "Smile", "Smile"}, Options{Log: zap.New(core)})
	if err != nil {
		t.Fatalf("InsertEmpty: %v", err)
	}
	if !reflect.DeepEqual(res.Report.Added, []string{"Smile"}) {
		t.Errorf("added = %v", res.Report.Added)
	}
	if !reflect.DeepEqual(res.Report.Skipped, []string{"A", "Smile"}) {
		t.Errorf("skipped = %v", res.Report.Skipped)
	}
	if logs.Len() != 2 {
		t.Errorf("expected 2 skip warnings, got %d", logs.Len())
	}

	ch := channel(t, inst.Mesh(), "Smile")
	if ch.Frames[0].Weight != 100 || !ch.Frames[0].Deltas.IsZero() {
		t.Errorf("inserted channel is not an empty frame at 100: %+v", ch.Frames[0])
	}
	// A is untouched.
	if got := channel(t, inst.Mesh(), "A").Frames[0].Deltas.Positions[0]; got != (math.Vec3{X: 1}) {
		t.Errorf("A changed: %+v", got)
	}
}

func TestInsertEmptyNoNames(t *testing.T) {
	if _, err := InsertEmpty(newFace(nil), nil, Options{}); !errors.Is(err, blendshape.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestApplyToActive(t *testing.T) {
	inst := newFace(map[string]float32{"A": 50, "B": 100})

	res, err := ApplyToActive(inst, "A", Options{})
	if err != nil {
		t.Fatalf("ApplyToActive: %v", err)
	}
	if !reflect.DeepEqual(res.Report.Replaced, []string{"A"}) {
		t.Errorf("replaced = %v", res.Report.Replaced)
	}
	if got := inst.Mesh().ChannelNames(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("channel order = %v", got)
	}

	ch := channel(t, inst.Mesh(), "A")
	assertPositions(t, "A", ch.Frames[0].Deltas.Positions, map[int]math.Vec3{
		0: {X: 0.5},
		1: {Y: 2},
	})
	if w := weightOf(t, inst, "A"); w != 100 {
		t.Errorf("A weight = %v, want 100", w)
	}
	if w := weightOf(t, inst, "B"); w != 0 {
		t.Errorf("B weight = %v, want 0", w)
	}
}

func TestApplyToActiveUnknown(t *testing.T) {
	inst := newFace(map[string]float32{"A": 50})
	before := inst.Mesh()
	if _, err := ApplyToActive(inst, "Nope", Options{}); !errors.Is(err, blendshape.ErrUnknownChannel) {
		t.Fatalf("err = %v, want ErrUnknownChannel", err)
	}
	if inst.Mesh() != before {
		t.Error("mesh swapped after failure")
	}
}

func TestMatchPreset(t *testing.T) {
	names := []string{"まばたき", "Custom", "Blink", "あ", "blink"}

	got, err := MatchPreset(names, PresetModeMMD)
	if err != nil {
		t.Fatalf("MatchPreset: %v", err)
	}
	if want := []string{"まばたき", "Blink", "あ"}; !reflect.DeepEqual(got, want) {
		t.Errorf("mmd = %q, want %q", got, want)
	}

	got, err = MatchPreset(names, PresetModeAll)
	if err != nil {
		t.Fatalf("MatchPreset all: %v", err)
	}
	if !reflect.DeepEqual(got, names) {
		t.Errorf("all = %q", got)
	}

	if _, err := MatchPreset(names, "vrm"); !errors.Is(err, blendshape.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestApplyAdjustments(t *testing.T) {
	inst := newFace(nil)
	adj := &formats.MeshAdjustments{
		MeshID: "face-id",
		Shapes: []formats.ShapeAdjustment{
			{Name: "A", Value: 80, Additional: []formats.AdditionalKey{{Name: "B", Value: 50}}},
			{Name: "Gone", Value: 100},
		},
	}

	res, err := ApplyAdjustments(inst, adj, Options{ReferenceWeight: 30})
	if err != nil {
		t.Fatalf("ApplyAdjustments: %v", err)
	}
	if !reflect.DeepEqual(res.Report.Replaced, []string{"A"}) {
		t.Errorf("replaced = %v", res.Report.Replaced)
	}

	// (A + (50/80 - 0.3)*B) * 0.8
	ch := channel(t, inst.Mesh(), "A")
	if len(ch.Frames) != 1 || ch.Frames[0].Weight != 100 {
		t.Fatalf("unexpected frames %+v", ch.Frames)
	}
	assertPositions(t, "A", ch.Frames[0].Deltas.Positions, map[int]math.Vec3{
		0: {X: 0.8},
		1: {Y: 0.52},
	})
	// B is kept as it was.
	assertPositions(t, "B", channel(t, inst.Mesh(), "B").Frames[0].Deltas.Positions, map[int]math.Vec3{
		1: {Y: 2},
	})
}

func TestApplyAdjustmentsNone(t *testing.T) {
	inst := newFace(nil)
	if _, err := ApplyAdjustments(inst, nil, DefaultOptions()); !errors.Is(err, blendshape.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
	adj := &formats.MeshAdjustments{Shapes: []formats.ShapeAdjustment{{Name: "Gone", Value: 100}}}
	if _, err := ApplyAdjustments(inst, adj, DefaultOptions()); !errors.Is(err, blendshape.ErrUnknownChannel) {
		t.Errorf("err = %v, want ErrUnknownChannel", err)
	}
}

func TestExportImport(t *testing.T) {
	src := newFace(nil)
	records, err := Export(src, []string{"B"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(records) != 1 || records[0].Name != "B" || records[0].Len() != 1 {
		t.Fatalf("unexpected records %+v", records)
	}

	bare := buildFace()
	bare.Channels = nil
	dst := blendshape.NewInstance(bare)
	res, err := Import(dst, records, Options{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !reflect.DeepEqual(res.Report.Added, []string{"B"}) {
		t.Errorf("added = %v", res.Report.Added)
	}
	assertPositions(t, "B", channel(t, dst.Mesh(), "B").Frames[0].Deltas.Positions, map[int]math.Vec3{
		1: {Y: 2},
	})

	// Importing again skips the existing channel.
	res, err = Import(dst, records, Options{})
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if !reflect.DeepEqual(res.Report.Skipped, []string{"B"}) {
		t.Errorf("skipped = %v", res.Report.Skipped)
	}
}

func TestExportAll(t *testing.T) {
	records, err := Export(newFace(nil), nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}

func TestImportMismatch(t *testing.T) {
	records := []formats.DeltaRecord{{
		Name:      "Far",
		Weight:    100,
		Indices:   []uint32{11},
		Positions: [][3]float32{{1, 0, 0}},
		Normals:   [][3]float32{{}},
		Tangents:  [][3]float32{{}},
	}}
	inst := newFace(nil)
	before := inst.Mesh()

	_, err := Import(inst, records, Options{})
	if !errors.Is(err, blendshape.ErrVertexCountMismatch) {
		t.Fatalf("err = %v, want ErrVertexCountMismatch", err)
	}
	if inst.Mesh() != before || len(inst.Mesh().Channels) != 2 {
		t.Error("mesh changed after a failed import")
	}
}

func TestOutputPath(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got := OutputPath("out", "Body/Face", ToolBaker, now, "", "glb")
	want := filepath.Join("out", "Body_Face_Baker_20260304_050607.glb")
	if got != want {
		t.Errorf("OutputPath = %s, want %s", got, want)
	}
}
