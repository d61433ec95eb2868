// Package tools implements the blend-shape authoring workflows on top of
// the delta engine. Each workflow takes a renderer, computes a new mesh and
// swaps it onto the renderer only when every step succeeded.
package tools

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/morphkit/pkg/blendshape"
)

// Tool names, used in logs and output file names.
const (
	ToolBaker     = "Baker"
	ToolClipBaker = "ClipBaker"
	ToolInserter  = "Inserter"
	ToolEditor    = "Editor"
	ToolFixer     = "Fixer"
	ToolImporter  = "Importer"
)

// DefaultBakeName names baked channels when Options.Name is empty.
const DefaultBakeName = "BakedBlendShape"

// Options configures a workflow run.
type Options struct {
	// Name of the channel to create. Empty selects a per-workflow default.
	Name string
	// ReferenceWeight is passed to every MergeSpec built by ApplyAdjustments.
	ReferenceWeight float32
	// ResetWeights shows only the new channel after a bake.
	ResetWeights bool
	// Pose enables skinning when capturing deformed states. Nil means bind pose.
	Pose blendshape.Pose
	Log  *zap.Logger
}

// DefaultOptions returns options with the standard reference weight.
func DefaultOptions() Options {
	return Options{ReferenceWeight: blendshape.DefaultReferenceWeight}
}

func (o Options) logger() *zap.Logger {
	if o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}

// Result describes a completed workflow.
type Result struct {
	Tool string
	// Mesh is the mesh now held by the renderer.
	Mesh *blendshape.Mesh
	// Channels lists the channels created or rewritten.
	Channels []string
	Report   blendshape.BuildReport
}

// swap installs m on the renderer and logs the build report.
func swap(r blendshape.Renderer, tool string, m *blendshape.Mesh, report blendshape.BuildReport, log *zap.Logger) *Result {
	r.SetMesh(m)
	changed := append(append([]string{}, report.Added...), report.Replaced...)
	log.Info("mesh updated",
		zap.String("tool", tool),
		zap.String("mesh", m.Name),
		zap.Strings("added", report.Added),
		zap.Strings("replaced", report.Replaced),
		zap.Strings("skipped", report.Skipped),
		zap.Any("renamed", report.Renamed),
	)
	return &Result{Tool: tool, Mesh: m, Channels: changed, Report: report}
}

func requireMesh(r blendshape.Renderer) (*blendshape.Mesh, error) {
	if r == nil || r.Mesh() == nil {
		return nil, fmt.Errorf("%w: no mesh selected", blendshape.ErrConfiguration)
	}
	return r.Mesh(), nil
}

// OutputPath returns dir/<mesh>_<tool>_<timestamp><ext>. Characters that
// are unsafe in file names are replaced in the mesh name.
func OutputPath(dir, meshName, tool string, now time.Time, layout, ext string) string {
	if layout == "" {
		layout = "20060102_150405"
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, meshName)
	if safe == "" {
		safe = "mesh"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s%s", safe, tool, now.Format(layout), ext))
}
