package main

import (
	"fmt"
	"slices"
	"sort"

	"github.com/Faultbox/morphkit/internal/tools"
	"github.com/Faultbox/morphkit/pkg/formats"
)

const fixUsage = `morphkit fix add -shape <name> -value <0-100> [-add name=value...] <file>
       morphkit fix remove -shape <name> <file>
       morphkit fix show <file>
       morphkit fix apply <file>`

func cmdFix(args []string) error {
	if len(args) < 1 {
		return usageError(fixUsage)
	}
	switch args[0] {
	case "add":
		return cmdFixAdd(args[1:])
	case "remove", "rm":
		return cmdFixRemove(args[1:])
	case "show":
		return cmdFixShow(args[1:])
	case "apply":
		return cmdFixApply(args[1:])
	}
	return fmt.Errorf("unknown fix command %q\nUsage: %s", args[0], fixUsage)
}

// openStore opens the mesh and the adjustment store configured for it.
func openStore(sf *sessionFlags, path string) (*session, *formats.AdjustmentStore, error) {
	s, err := openSession(sf, path)
	if err != nil {
		return nil, nil, err
	}
	store, err := formats.LoadAdjustments(s.cfg.AdjustmentsPath())
	if err != nil {
		s.close()
		return nil, nil, err
	}
	return s, store, nil
}

func cmdFixAdd(args []string) error {
	fs, sf := newFlagSet("fix add")
	shape := fs.String("shape", "", "Channel to adjust")
	value := fs.Float64("value", -1, "Primary weight (default: current weight)")
	additional := weightFlags{}
	fs.Var(additional, "add", "Additional channel name=value (repeatable)")
	fs.Parse(args)
	if fs.NArg() < 1 || *shape == "" {
		return usageError(fixUsage)
	}

	s, store, err := openStore(sf, fs.Arg(0))
	if err != nil {
		return err
	}
	defer s.close()

	names := s.inst.Mesh().ChannelNames()
	matched, err := tools.MatchPreset(names, s.cfg.Tools.PresetMode)
	if err != nil {
		return err
	}
	if !slices.Contains(matched, *shape) {
		return fmt.Errorf("channel %q is not a %s preset on mesh %q", *shape, s.cfg.Tools.PresetMode, s.mesh)
	}

	adj := formats.ShapeAdjustment{Name: *shape, Value: float32(*value)}
	if *value < 0 {
		adj.Value = s.inst.BlendShapeWeight(s.inst.Mesh().ChannelIndex(*shape))
	}
	if adj.Value <= 0 {
		return fmt.Errorf("adjustment for %q needs a positive value", *shape)
	}
	for _, name := range sortedKeys(additional) {
		if !slices.Contains(names, name) {
			return fmt.Errorf("additional channel %q not on mesh %q", name, s.mesh)
		}
		adj.Additional = append(adj.Additional, formats.AdditionalKey{Name: name, Value: additional[name]})
	}

	store.Upsert(s.doc.MeshID(s.mesh), adj)
	if err := store.Save(s.cfg.AdjustmentsPath()); err != nil {
		return err
	}
	fmt.Printf("Saved adjustment %s=%g (%d additional) to %s\n", adj.Name, adj.Value, len(adj.Additional), s.cfg.AdjustmentsPath())
	return nil
}

func cmdFixRemove(args []string) error {
	fs, sf := newFlagSet("fix remove")
	shape := fs.String("shape", "", "Channel whose adjustment to remove")
	fs.Parse(args)
	if fs.NArg() < 1 || *shape == "" {
		return usageError(fixUsage)
	}

	s, store, err := openStore(sf, fs.Arg(0))
	if err != nil {
		return err
	}
	defer s.close()

	if !store.Remove(s.doc.MeshID(s.mesh), *shape) {
		return fmt.Errorf("no saved adjustment for %q on mesh %q", *shape, s.mesh)
	}
	if err := store.Save(s.cfg.AdjustmentsPath()); err != nil {
		return err
	}
	fmt.Printf("Removed adjustment for %s\n", *shape)
	return nil
}

func cmdFixShow(args []string) error {
	fs, sf := newFlagSet("fix show")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return usageError(fixUsage)
	}

	s, store, err := openStore(sf, fs.Arg(0))
	if err != nil {
		return err
	}
	defer s.close()

	id := s.doc.MeshID(s.mesh)
	fmt.Printf("Mesh: %s (%s)\n", s.mesh, id)
	adj := store.Find(id)
	if adj == nil {
		fmt.Println("  (no saved adjustments)")
		return nil
	}
	for _, shape := range adj.Shapes {
		fmt.Printf("  %-24s %6.1f", shape.Name, shape.Value)
		for _, k := range shape.Additional {
			fmt.Printf("  +%s=%g", k.Name, k.Value)
		}
		fmt.Println()
	}
	return nil
}

func cmdFixApply(args []string) error {
	fs, sf := newFlagSet("fix apply")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return usageError(fixUsage)
	}

	s, store, err := openStore(sf, fs.Arg(0))
	if err != nil {
		return err
	}
	defer s.close()

	res, err := tools.ApplyAdjustments(s.inst, store.Find(s.doc.MeshID(s.mesh)), s.options())
	if err != nil {
		return err
	}
	return s.finish(res)
}

func sortedKeys(w weightFlags) []string {
	keys := make([]string, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
