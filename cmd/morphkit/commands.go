package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/morphkit/internal/tools"
	"github.com/Faultbox/morphkit/pkg/blendshape"
	"github.com/Faultbox/morphkit/pkg/encoding"
	"github.com/Faultbox/morphkit/pkg/formats"
	"github.com/Faultbox/morphkit/pkg/uvmap"
)

func cmdInfo(args []string) error {
	fs, sf := newFlagSet("info")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return usageError("morphkit info <file>")
	}

	s, err := openSession(sf, fs.Arg(0))
	if err != nil {
		return err
	}
	defer s.close()

	fmt.Printf("File:   %s\n", fs.Arg(0))
	fmt.Println("Meshes:")
	for _, name := range s.doc.Meshes() {
		m, _, err := s.doc.Load(name)
		if err != nil {
			fmt.Printf("  %-24s (unsupported: %v)\n", name, err)
			continue
		}
		skin := "no"
		if len(m.BindPoses) > 0 {
			skin = fmt.Sprintf("%d bones", len(m.BindPoses))
		}
		fmt.Printf("  %-24s %6d vertices  %3d submeshes  %3d channels  %d uv sets  skin: %s\n",
			name, m.VertexCount(), len(m.SubMeshes), len(m.Channels), len(m.UVs), skin)
		fmt.Printf("  %-24s id %s\n", "", s.doc.MeshID(name))
	}
	return nil
}

func cmdList(args []string) error {
	fs, sf := newFlagSet("list")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return usageError("morphkit list [-mesh name] <file>")
	}

	s, err := openSession(sf, fs.Arg(0))
	if err != nil {
		return err
	}
	defer s.close()

	m := s.inst.Mesh()
	fmt.Printf("Mesh: %s (%d vertices)\n", m.Name, m.VertexCount())
	for i, ch := range m.Channels {
		frames := make([]string, len(ch.Frames))
		for k, f := range ch.Frames {
			frames[k] = fmt.Sprintf("%g", f.Weight)
		}
		fmt.Printf("  %3d  %-32s %6.1f  frames [%s]\n", i, ch.Name, s.inst.BlendShapeWeight(i), strings.Join(frames, " "))
	}
	return nil
}

func cmdBake(args []string) error {
	fs, sf := newFlagSet("bake")
	name := fs.String("name", "", "Name of the baked channel")
	reset := fs.Bool("reset", false, "Show only the baked channel afterwards")
	skinned := fs.Bool("skin", false, "Include the skeleton's current pose")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return usageError("morphkit bake [-name n] [-reset] [-skin] [-w name=value...] <file>")
	}

	s, err := openSession(sf, fs.Arg(0))
	if err != nil {
		return err
	}
	defer s.close()

	opts := s.options()
	opts.Name = s.cfg.Tools.BakeName
	if *name != "" {
		opts.Name = *name
	}
	opts.ResetWeights = opts.ResetWeights || *reset
	if *skinned {
		if opts.Pose, err = s.doc.SkinPose(s.mesh); err != nil {
			return err
		}
	}

	res, err := tools.BakePose(s.inst, opts)
	if err != nil {
		return err
	}
	return s.finish(res)
}

func cmdBakeClip(args []string) error {
	fs, sf := newFlagSet("bake-clip")
	name := fs.String("name", "", "Name of the baked channel (default: motion file name)")
	fs.Parse(args)
	if fs.NArg() < 2 {
		return usageError("morphkit bake-clip [-name n] <file> <motion.vmd>")
	}

	s, err := openSession(sf, fs.Arg(0))
	if err != nil {
		return err
	}
	defer s.close()

	motion, err := formats.ParseVMDFile(fs.Arg(1))
	if err != nil {
		return err
	}
	clipName := strings.TrimSuffix(filepath.Base(fs.Arg(1)), filepath.Ext(fs.Arg(1)))
	clip := motion.Clip(clipName)
	fmt.Printf("Motion: %s (model %q, %d morph keys, %g frames)\n",
		fs.Arg(1), motion.ModelName, len(motion.MorphKeys), clip.Length)

	opts := s.options()
	opts.Name = *name
	res, err := tools.BakeClip(s.inst, clip, opts)
	if err != nil {
		return err
	}
	return s.finish(res)
}

func cmdInsert(args []string) error {
	fs, sf := newFlagSet("insert")
	sjis := fs.Bool("sjis", false, "Name list is Shift-JIS encoded")
	fs.Parse(args)
	if fs.NArg() < 2 {
		return usageError("morphkit insert [-sjis] <file> <names.txt|->")
	}

	text, err := readNameList(fs.Arg(1), *sjis)
	if err != nil {
		return err
	}

	s, err := openSession(sf, fs.Arg(0))
	if err != nil {
		return err
	}
	defer s.close()

	res, err := tools.InsertEmpty(s.inst, tools.ParseNameList(text), s.options())
	if err != nil {
		return err
	}
	return s.finish(res)
}

// readNameList reads a name list file, or stdin for "-".
func readNameList(path string, sjis bool) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading name list: %w", err)
	}
	if sjis {
		return encoding.ShiftJISToUTF8(data), nil
	}
	return string(data), nil
}

func cmdEdit(args []string) error {
	fs, sf := newFlagSet("edit")
	active := fs.String("active", "", "Channel to rewrite")
	fs.Parse(args)
	if fs.NArg() < 1 || *active == "" {
		return usageError("morphkit edit -active <name> [-w name=value...] <file>")
	}

	s, err := openSession(sf, fs.Arg(0))
	if err != nil {
		return err
	}
	defer s.close()

	res, err := tools.ApplyToActive(s.inst, *active, s.options())
	if err != nil {
		return err
	}
	return s.finish(res)
}

func cmdExport(args []string) error {
	fs, sf := newFlagSet("export")
	var channels listFlags
	fs.Var(&channels, "c", "Channel to export (repeatable, default: all)")
	fs.Parse(args)
	if fs.NArg() < 2 {
		return usageError("morphkit export [-c name...] <file> <out.bsdr>")
	}

	s, err := openSession(sf, fs.Arg(0))
	if err != nil {
		return err
	}
	defer s.close()

	records, err := tools.Export(s.inst, channels)
	if err != nil {
		return err
	}
	if err := formats.WriteDeltaRecordsFile(fs.Arg(1), records); err != nil {
		return err
	}

	total := 0
	for i := range records {
		total += records[i].Len()
	}
	fmt.Printf("Exported %d records (%d vertex deltas) to %s\n", len(records), total, fs.Arg(1))
	return nil
}

func cmdImport(args []string) error {
	fs, sf := newFlagSet("import")
	fs.Parse(args)
	if fs.NArg() < 2 {
		return usageError("morphkit import <file> <in.bsdr>")
	}

	records, err := formats.ParseDeltaRecordsFile(fs.Arg(1))
	if err != nil {
		return err
	}

	s, err := openSession(sf, fs.Arg(0))
	if err != nil {
		return err
	}
	defer s.close()

	res, err := tools.Import(s.inst, records, s.options())
	if err != nil {
		return err
	}
	return s.finish(res)
}

func cmdPresets(args []string) error {
	fs, sf := newFlagSet("presets")
	mode := fs.String("mode", "", "mmd or all (default: from config)")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return usageError("morphkit presets [-mode mmd|all] <file>")
	}

	s, err := openSession(sf, fs.Arg(0))
	if err != nil {
		return err
	}
	defer s.close()

	if *mode == "" {
		*mode = s.cfg.Tools.PresetMode
	}
	matched, err := tools.MatchPreset(s.inst.Mesh().ChannelNames(), *mode)
	if err != nil {
		return err
	}
	wc := blendshape.NewWeightController(s.inst, s.log.Logger)
	for _, name := range matched {
		w, _ := wc.Weight(name)
		fmt.Printf("  %-32s %6.1f\n", name, w)
	}
	fmt.Fprintf(os.Stderr, "\n(%d channels matched)\n", len(matched))
	return nil
}

func cmdUV(args []string) error {
	fs, sf := newFlagSet("uv")
	set := fs.Int("set", 0, "UV set index")
	size := fs.Int("size", 0, "Image size in pixels (default: from config)")
	fill := fs.Bool("fill", false, "Fill triangles")
	autoColor := fs.Bool("auto-color", false, "Color fills by UV position")
	transparent := fs.Bool("transparent", false, "Transparent background")
	noLines := fs.Bool("no-lines", false, "Skip edges when filling")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return usageError("morphkit uv [-set n] [-size px] [-fill] [-auto-color] <file> [out.png]")
	}

	s, err := openSession(sf, fs.Arg(0))
	if err != nil {
		return err
	}
	defer s.close()

	opts, err := s.cfg.UVMap.Options()
	if err != nil {
		return err
	}
	if *size > 0 {
		opts.Size = *size
	}
	opts.Fill = opts.Fill || *fill
	opts.AutoColor = opts.AutoColor || *autoColor
	opts.Transparent = opts.Transparent || *transparent
	if *noLines {
		opts.DrawLines = false
	}

	img, err := uvmap.Render(s.inst.Mesh(), *set, opts)
	if err != nil {
		return err
	}

	out := fs.Arg(1)
	if out == "" {
		if err := os.MkdirAll(s.cfg.Output.Dir, 0755); err != nil {
			return err
		}
		out = filepath.Join(s.cfg.Output.Dir, fmt.Sprintf("%s_UV%d.%s", s.mesh, *set, s.cfg.UVMap.Format))
	}
	if err := uvmap.Save(out, img); err != nil {
		return err
	}
	fmt.Printf("Saved: %s\n", out)
	return nil
}
