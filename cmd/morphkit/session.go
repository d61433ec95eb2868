package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/morphkit/internal/config"
	"github.com/Faultbox/morphkit/internal/logger"
	"github.com/Faultbox/morphkit/internal/tools"
	"github.com/Faultbox/morphkit/pkg/blendshape"
	"github.com/Faultbox/morphkit/pkg/gltfmesh"
)

// weightFlags collects repeated -w name=value options.
type weightFlags blendshape.WeightConfiguration

func (w weightFlags) String() string {
	names := sortedKeys(w)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, w[name])
	}
	return strings.Join(parts, ",")
}

func (w weightFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
	if err != nil {
		return fmt.Errorf("weight for %q: %w", name, err)
	}
	w[name] = float32(v)
	return nil
}

// listFlags collects a repeatable string option.
type listFlags []string

func (l *listFlags) String() string { return strings.Join(*l, ",") }

func (l *listFlags) Set(s string) error {
	*l = append(*l, s)
	return nil
}

// session is one opened mesh with its config, logger and live weights.
type session struct {
	cfg  *config.Config
	log  *logger.Logger
	doc  *gltfmesh.Document
	mesh string
	inst *blendshape.Instance
}

// sessionFlags are the options shared by every mesh command.
type sessionFlags struct {
	cfg     *config.Flags
	mesh    *string
	weights weightFlags
}

func newFlagSet(name string) (*flag.FlagSet, *sessionFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	sf := &sessionFlags{
		cfg:     config.RegisterFlags(fs),
		mesh:    fs.String("mesh", "", "Mesh name (default: first mesh)"),
		weights: weightFlags{},
	}
	fs.Var(sf.weights, "w", "Channel weight name=value (repeatable)")
	return fs, sf
}

// openSession loads config and logger, opens path and builds a renderer
// with the file's default weights plus any -w overrides.
func openSession(sf *sessionFlags, path string) (*session, error) {
	cfg, err := config.Load(sf.cfg)
	if err != nil {
		return nil, err
	}
	log, err := logger.NewCLI(cfg.Logging.Level, cfg.Logging.LogFile)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, log: log}
	if err := s.open(path, *sf.mesh, sf.weights); err != nil {
		_ = log.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) open(path, meshName string, weights weightFlags) error {
	doc, err := gltfmesh.Open(path, gltfmesh.WithLogger(s.log.Logger))
	if err != nil {
		return err
	}
	if meshName == "" {
		names := doc.Meshes()
		if len(names) == 0 {
			return fmt.Errorf("%s: %w", path, gltfmesh.ErrMeshNotFound)
		}
		meshName = names[0]
	}

	m, defaults, err := doc.Load(meshName)
	if err != nil {
		return err
	}
	inst := blendshape.NewInstance(m)
	for i, w := range defaults {
		inst.SetBlendShapeWeight(i, w)
	}
	wc := blendshape.NewWeightController(inst, s.log.Logger)
	wc.Apply(blendshape.WeightConfiguration(weights))

	s.doc, s.mesh, s.inst = doc, meshName, inst
	s.log.Debug("mesh loaded",
		zap.String("file", path),
		zap.String("mesh", meshName),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("channels", len(m.Channels)))
	return nil
}

func (s *session) close() {
	_ = s.log.Close()
}

func (s *session) options() tools.Options {
	return tools.Options{
		ReferenceWeight: s.cfg.Tools.ReferenceWeight,
		ResetWeights:    s.cfg.Tools.ResetWeights,
		Log:             s.log.Logger,
	}
}

// save writes the renderer's mesh and weights back into the document and
// stores it under the output directory. It returns the written path.
func (s *session) save(tool string) (string, error) {
	if err := s.doc.Replace(s.mesh, s.inst.Mesh(), s.inst.Weights()); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.cfg.Output.Dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := tools.OutputPath(s.cfg.Output.Dir, s.mesh, tool, time.Now(), s.cfg.Output.TimestampLayout, s.cfg.Output.Format)
	if err := s.doc.Save(path); err != nil {
		return "", err
	}
	s.log.Info("saved", zap.String("path", path))
	return path, nil
}

// finish saves the result of a workflow and prints a summary.
func (s *session) finish(res *tools.Result) error {
	path, err := s.save(res.Tool)
	if err != nil {
		return err
	}
	printReport(res.Report)
	fmt.Printf("Saved: %s\n", path)
	return nil
}

func printReport(r blendshape.BuildReport) {
	for _, name := range r.Added {
		fmt.Printf("  added     %s\n", name)
	}
	for _, name := range r.Replaced {
		fmt.Printf("  replaced  %s\n", name)
	}
	for _, name := range r.Skipped {
		fmt.Printf("  skipped   %s (already exists)\n", name)
	}
	requested := make([]string, 0, len(r.Renamed))
	for name := range r.Renamed {
		requested = append(requested, name)
	}
	sort.Strings(requested)
	for _, name := range requested {
		fmt.Printf("  renamed   %s -> %s\n", name, r.Renamed[name])
	}
}

// errUsage reports a missing positional argument.
var errUsage = errors.New("missing arguments")

func usageError(usage string) error {
	return fmt.Errorf("%w\nUsage: %s", errUsage, usage)
}
