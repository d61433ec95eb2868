package blendshape

import (
	"fmt"
	"strconv"
	"strings"
)

// DuplicatePolicy selects what Build does with a plan entry whose name
// already exists on the mesh.
type DuplicatePolicy int

// Duplicate policies.
const (
	// SkipDuplicates leaves the existing channel untouched and reports the name.
	SkipDuplicates DuplicatePolicy = iota
	// SuffixDuplicates appends _1, _2, ... until the name is unique.
	SuffixDuplicates
	// ReplaceDuplicates overwrites the existing channel at its original index.
	ReplaceDuplicates
)

// String returns the policy name.
func (p DuplicatePolicy) String() string {
	switch p {
	case SkipDuplicates:
		return "skip"
	case SuffixDuplicates:
		return "suffix"
	case ReplaceDuplicates:
		return "replace"
	default:
		return "DuplicatePolicy(" + strconv.Itoa(int(p)) + ")"
	}
}

// ParseDuplicatePolicy parses "skip", "suffix" or "replace".
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip":
		return SkipDuplicates, nil
	case "suffix", "rename":
		return SuffixDuplicates, nil
	case "replace", "overwrite":
		return ReplaceDuplicates, nil
	}
	return 0, fmt.Errorf("%w: unknown duplicate policy %q", ErrConfiguration, s)
}

// PlanEntry is one channel to add.
type PlanEntry struct {
	Name   string
	Frames []Frame
}

// SingleFrame returns an entry with one frame.
func SingleFrame(name string, weight float32, d DeltaSet) PlanEntry {
	return PlanEntry{Name: name, Frames: []Frame{{Weight: weight, Deltas: d}}}
}

// Plan is an ordered list of channels to add.
type Plan []PlanEntry

// BuildReport lists what Build did with each plan entry.
type BuildReport struct {
	Added    []string
	Skipped  []string
	Replaced []string
	// Renamed maps a requested name to the suffixed name actually used.
	Renamed map[string]string
}

// Build returns a new mesh with the base data and existing channels in
// their original order, plus the plan entries applied in order. The whole
// plan is validated before anything is built.
func Build(base *Snapshot, plan Plan, policy DuplicatePolicy) (*Mesh, BuildReport, error) {
	var report BuildReport
	if base == nil {
		return nil, report, fmt.Errorf("%w: no base snapshot", ErrConfiguration)
	}
	if policy < SkipDuplicates || policy > ReplaceDuplicates {
		return nil, report, fmt.Errorf("%w: %v", ErrConfiguration, policy)
	}
	n := base.VertexCount()
	channels := make([]Channel, len(plan))
	for i, e := range plan {
		ch := Channel{Name: e.Name, Frames: e.Frames}.clone()
		ch.fillMissing()
		if err := ch.validate(n); err != nil {
			return nil, report, err
		}
		channels[i] = ch
	}

	m := base.Mesh()
	for i, e := range plan {
		ch := channels[i]
		existing := m.ChannelIndex(e.Name)
		if existing < 0 {
			m.Channels = append(m.Channels, ch)
			report.Added = append(report.Added, ch.Name)
			continue
		}

		switch policy {
		case SkipDuplicates:
			report.Skipped = append(report.Skipped, e.Name)
		case ReplaceDuplicates:
			m.Channels[existing] = ch
			report.Replaced = append(report.Replaced, e.Name)
		case SuffixDuplicates:
			ch.Name = UniqueName(m, e.Name)
			m.Channels = append(m.Channels, ch)
			report.Added = append(report.Added, ch.Name)
			if report.Renamed == nil {
				report.Renamed = make(map[string]string)
			}
			report.Renamed[e.Name] = ch.Name
		}
	}
	return m, report, nil
}

// BuildEmptyChannel adds a channel whose single frame is all zeros at weight 100.
func BuildEmptyChannel(base *Snapshot, name string, policy DuplicatePolicy) (*Mesh, BuildReport, error) {
	if base == nil {
		return nil, BuildReport{}, fmt.Errorf("%w: no base snapshot", ErrConfiguration)
	}
	plan := Plan{SingleFrame(name, 100, NewDeltaSet(base.VertexCount()))}
	return Build(base, plan, policy)
}

// UniqueName returns name if m has no such channel, otherwise the first
// free name_N with N counting from 1.
func UniqueName(m *Mesh, name string) string {
	if m.ChannelIndex(name) < 0 {
		return name
	}
	for i := 1; ; i++ {
		candidate := name + "_" + strconv.Itoa(i)
		if m.ChannelIndex(candidate) < 0 {
			return candidate
		}
	}
}
