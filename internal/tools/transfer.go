package tools

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/morphkit/pkg/blendshape"
	"github.com/Faultbox/morphkit/pkg/formats"
)

// Export converts the named channels to sparse delta records. No names
// exports every channel.
func Export(r blendshape.Renderer, names []string) ([]formats.DeltaRecord, error) {
	mesh, err := requireMesh(r)
	if err != nil {
		return nil, err
	}
	snap, err := blendshape.Capture(mesh)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = snap.ChannelNames()
	}
	return blendshape.ExportRecords(snap, names)
}

// Import adds the channels stored in records. Channels the mesh already
// has are skipped. Nothing is applied if any record does not fit the mesh.
func Import(r blendshape.Renderer, records []formats.DeltaRecord, opts Options) (*Result, error) {
	mesh, err := requireMesh(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records to import", blendshape.ErrConfiguration)
	}
	log := opts.logger()

	base, err := blendshape.Capture(mesh)
	if err != nil {
		return nil, err
	}
	plan, err := blendshape.PlanFromRecords(records, base.VertexCount())
	if err != nil {
		return nil, err
	}

	m, report, err := blendshape.Build(base, plan, blendshape.SkipDuplicates)
	if err != nil {
		return nil, err
	}
	for _, name := range report.Skipped {
		log.Warn("channel already exists, skipped", zap.String("channel", name))
	}
	return swap(r, ToolImporter, m, report, log), nil
}
