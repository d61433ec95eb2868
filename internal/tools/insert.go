package tools

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/morphkit/pkg/blendshape"
)

// ParseNameList splits newline-separated text into trimmed, non-empty names.
func ParseNameList(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// InsertEmpty adds an all-zero channel for every name in the list. Names
// the mesh already has are left alone and reported as skipped.
func InsertEmpty(r blendshape.Renderer, names []string, opts Options) (*Result, error) {
	mesh, err := requireMesh(r)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no channel names given", blendshape.ErrConfiguration)
	}
	log := opts.logger()

	base, err := blendshape.Capture(mesh)
	if err != nil {
		return nil, err
	}
	plan := make(blendshape.Plan, 0, len(names))
	for _, name := range names {
		plan = append(plan, blendshape.SingleFrame(name, 100, blendshape.NewDeltaSet(base.VertexCount())))
	}

	m, report, err := blendshape.Build(base, plan, blendshape.SkipDuplicates)
	if err != nil {
		return nil, err
	}
	for _, name := range report.Skipped {
		log.Warn("channel already exists, skipped", zap.String("channel", name))
	}
	return swap(r, ToolInserter, m, report, log), nil
}
