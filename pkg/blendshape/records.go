package blendshape

import (
	"fmt"
	"sort"

	"github.com/Faultbox/morphkit/pkg/formats"
	"github.com/Faultbox/morphkit/pkg/math"
)

// ToRecords converts every frame of ch into a sparse record.
func ToRecords(ch Channel) []formats.DeltaRecord {
	records := make([]formats.DeltaRecord, 0, len(ch.Frames))
	for fi, f := range ch.Frames {
		rec := formats.DeltaRecord{
			Name:       ch.Name,
			FrameIndex: int32(fi),
			Weight:     f.Weight,
			Indices:    []uint32{},
			Positions:  [][3]float32{},
			Normals:    [][3]float32{},
			Tangents:   [][3]float32{},
		}
		for v := range f.Deltas.Positions {
			p := at(f.Deltas.Positions, v)
			n := at(f.Deltas.Normals, v)
			t := at(f.Deltas.Tangents, v)
			if p.IsZero() && n.IsZero() && t.IsZero() {
				continue
			}
			rec.Indices = append(rec.Indices, uint32(v))
			rec.Positions = append(rec.Positions, p.Array())
			rec.Normals = append(rec.Normals, n.Array())
			rec.Tangents = append(rec.Tangents, t.Array())
		}
		records = append(records, rec)
	}
	return records
}

func at(buf []math.Vec3, i int) math.Vec3 {
	if i < len(buf) {
		return buf[i]
	}
	return math.Vec3{}
}

// ExportRecords converts the named channels of s, in the given order.
func ExportRecords(s *Snapshot, names []string) ([]formats.DeltaRecord, error) {
	var records []formats.DeltaRecord
	for _, name := range names {
		i := s.mesh.ChannelIndex(name)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, name)
		}
		records = append(records, ToRecords(s.mesh.Channels[i])...)
	}
	return records, nil
}

// PlanFromRecords densifies records for a mesh with vertexCount vertices.
// Records sharing a name become frames of one entry, ordered by frame
// index; entries keep the order in which names first appear. Any index
// outside the mesh fails the whole conversion.
func PlanFromRecords(records []formats.DeltaRecord, vertexCount int) (Plan, error) {
	type pending struct {
		name    string
		records []formats.DeltaRecord
	}
	var order []*pending
	byName := make(map[string]*pending)

	for i := range records {
		rec := records[i]
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
		}
		for _, idx := range rec.Indices {
			if int64(idx) >= int64(vertexCount) {
				return nil, fmt.Errorf("record %q frame %d vertex %d: %w", rec.Name, rec.FrameIndex, idx,
					&VertexCountError{Want: vertexCount, Got: int(idx) + 1})
			}
		}
		p, ok := byName[rec.Name]
		if !ok {
			p = &pending{name: rec.Name}
			byName[rec.Name] = p
			order = append(order, p)
		}
		p.records = append(p.records, rec)
	}

	plan := make(Plan, 0, len(order))
	for _, p := range order {
		sort.SliceStable(p.records, func(i, j int) bool {
			return p.records[i].FrameIndex < p.records[j].FrameIndex
		})
		entry := PlanEntry{Name: p.name}
		for k, rec := range p.records {
			if k > 0 && rec.FrameIndex == p.records[k-1].FrameIndex {
				return nil, fmt.Errorf("%w: record %q repeats frame %d", ErrInvalidFrame, rec.Name, rec.FrameIndex)
			}
			d := NewDeltaSet(vertexCount)
			for j, idx := range rec.Indices {
				d.Positions[idx] = math.Vec3From(rec.Positions[j])
				d.Normals[idx] = math.Vec3From(rec.Normals[j])
				d.Tangents[idx] = math.Vec3From(rec.Tangents[j])
			}
			entry.Frames = append(entry.Frames, Frame{Weight: rec.Weight, Deltas: d})
		}
		plan = append(plan, entry)
	}
	return plan, nil
}
