package blendshape

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Faultbox/morphkit/pkg/math"
)

func TestBuild_RoundTrip(t *testing.T) {
	base := mustCapture(t, buildTestMesh(3, "A"))
	plan := Plan{
		SingleFrame("Smile", 100, deltaSetFrom(math.Vec3{X: 1}, math.Vec3{Y: 2}, math.Vec3{Z: 3})),
		{Name: "Wide", Frames: []Frame{
			{Weight: 50, Deltas: deltaSetFrom(math.Vec3{X: 1}, math.Vec3{}, math.Vec3{})},
			{Weight: 100, Deltas: deltaSetFrom(math.Vec3{X: 4}, math.Vec3{}, math.Vec3{})},
		}},
	}

	m, report, err := Build(base, plan, SkipDuplicates)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(report.Added, []string{"Smile", "Wide"}) {
		t.Errorf("Added = %v", report.Added)
	}
	if !reflect.DeepEqual(m.ChannelNames(), []string{"A", "Smile", "Wide"}) {
		t.Errorf("channel order = %v", m.ChannelNames())
	}

	again := mustCapture(t, m)
	for _, entry := range plan {
		ch, ok := again.Channel(entry.Name)
		if !ok {
			t.Fatalf("channel %q missing after rebuild", entry.Name)
		}
		if len(ch.Frames) != len(entry.Frames) {
			t.Fatalf("%s: %d frames, want %d", entry.Name, len(ch.Frames), len(entry.Frames))
		}
		for i, f := range entry.Frames {
			if ch.Frames[i].Weight != f.Weight {
				t.Errorf("%s frame %d weight = %v", entry.Name, i, ch.Frames[i].Weight)
			}
			assertVecs(t, entry.Name, ch.Frames[i].Deltas.Positions, f.Deltas.Positions)
		}
	}
	assertVecs(t, "base vertices", again.Vertices(), base.Vertices())
}

func TestBuild_DoesNotAliasPlan(t *testing.T) {
	base := mustCapture(t, buildTestMesh(1))
	d := deltaSetFrom(math.Vec3{X: 1})
	m, _, err := Build(base, Plan{SingleFrame("A", 100, d)}, SkipDuplicates)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	d.Positions[0] = math.Vec3{X: 9}
	if m.Channels[0].Frames[0].Deltas.Positions[0].X != 1 {
		t.Error("built mesh shares delta memory with the plan")
	}
}

func TestBuild_Policies(t *testing.T) {
	newDelta := deltaSetFrom(math.Vec3{X: 7}, math.Vec3{}, math.Vec3{})

	t.Run("skip", func(t *testing.T) {
		live := buildTestMesh(3, "Smile", "Blink")
		base := mustCapture(t, live)
		m, report, err := Build(base, Plan{SingleFrame("Smile", 100, newDelta)}, SkipDuplicates)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if !reflect.DeepEqual(report.Skipped, []string{"Smile"}) {
			t.Errorf("Skipped = %v", report.Skipped)
		}
		if len(report.Added) != 0 {
			t.Errorf("Added = %v", report.Added)
		}
		if !reflect.DeepEqual(m.Channels, live.Channels) {
			t.Error("existing Smile channel changed under skip policy")
		}
	})

	t.Run("suffix", func(t *testing.T) {
		base := mustCapture(t, buildTestMesh(3, "Smile", "Smile_1"))
		m, report, err := Build(base, Plan{SingleFrame("Smile", 100, newDelta)}, SuffixDuplicates)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if !reflect.DeepEqual(m.ChannelNames(), []string{"Smile", "Smile_1", "Smile_2"}) {
			t.Errorf("names = %v", m.ChannelNames())
		}
		if report.Renamed["Smile"] != "Smile_2" {
			t.Errorf("Renamed = %v", report.Renamed)
		}
		if !reflect.DeepEqual(report.Added, []string{"Smile_2"}) {
			t.Errorf("Added = %v", report.Added)
		}
	})

	t.Run("replace", func(t *testing.T) {
		base := mustCapture(t, buildTestMesh(3, "A", "Smile", "B"))
		m, report, err := Build(base, Plan{SingleFrame("Smile", 100, newDelta)}, ReplaceDuplicates)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if !reflect.DeepEqual(m.ChannelNames(), []string{"A", "Smile", "B"}) {
			t.Errorf("order changed: %v", m.ChannelNames())
		}
		if !reflect.DeepEqual(report.Replaced, []string{"Smile"}) {
			t.Errorf("Replaced = %v", report.Replaced)
		}
		if got := m.Channels[1].Frames[0].Deltas.Positions[0]; got.X != 7 {
			t.Errorf("replaced delta = %+v", got)
		}
	})
}

func TestBuild_Errors(t *testing.T) {
	base := mustCapture(t, buildTestMesh(3, "A"))
	tests := []struct {
		name string
		plan Plan
		want error
	}{
		{"short delta", Plan{SingleFrame("X", 100, NewDeltaSet(2))}, ErrVertexCountMismatch},
		{"no frames", Plan{{Name: "X"}}, ErrInvalidFrame},
		{"decreasing weights", Plan{{Name: "X", Frames: []Frame{
			{Weight: 100, Deltas: NewDeltaSet(3)},
			{Weight: 100, Deltas: NewDeltaSet(3)},
		}}}, ErrInvalidFrame},
		{"empty name", Plan{SingleFrame("", 100, NewDeltaSet(3))}, ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A valid entry first proves nothing is built on failure.
			plan := append(Plan{SingleFrame("ok", 100, NewDeltaSet(3))}, tt.plan...)
			m, _, err := Build(base, plan, SkipDuplicates)
			if !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
			if m != nil {
				t.Error("Build returned a mesh on error")
			}
		})
	}

	if _, _, err := Build(nil, nil, SkipDuplicates); !errors.Is(err, ErrConfiguration) {
		t.Errorf("nil base error = %v", err)
	}
}

func TestBuildEmptyChannel(t *testing.T) {
	base := mustCapture(t, buildTestMesh(4, "A"))
	m, report, err := BuildEmptyChannel(base, "Placeholder", SkipDuplicates)
	if err != nil {
		t.Fatalf("BuildEmptyChannel: %v", err)
	}
	if !reflect.DeepEqual(report.Added, []string{"Placeholder"}) {
		t.Errorf("Added = %v", report.Added)
	}
	ch := m.Channels[m.ChannelIndex("Placeholder")]
	if len(ch.Frames) != 1 || ch.Frames[0].Weight != 100 {
		t.Fatalf("frames = %+v", ch.Frames)
	}
	if ch.Frames[0].Deltas.Len() != 4 || !ch.Frames[0].Deltas.IsZero() {
		t.Error("placeholder frame is not all zero")
	}
}

func TestParseDuplicatePolicy(t *testing.T) {
	for _, p := range []DuplicatePolicy{SkipDuplicates, SuffixDuplicates, ReplaceDuplicates} {
		got, err := ParseDuplicatePolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParseDuplicatePolicy(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParseDuplicatePolicy("merge"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestUniqueName(t *testing.T) {
	m := buildTestMesh(1, "Baked", "Baked_1", "Baked_3")
	tests := map[string]string{
		"New":   "New",
		"Baked": "Baked_2",
	}
	for in, want := range tests {
		if got := UniqueName(m, in); got != want {
			t.Errorf("UniqueName(%q) = %q, want %q", in, got, want)
		}
	}
}
