// morphkit is a CLI for authoring blend shapes on glTF avatar meshes.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "list", "ls":
		err = cmdList(args)
	case "bake":
		err = cmdBake(args)
	case "bake-clip":
		err = cmdBakeClip(args)
	case "insert":
		err = cmdInsert(args)
	case "edit":
		err = cmdEdit(args)
	case "export":
		err = cmdExport(args)
	case "import":
		err = cmdImport(args)
	case "fix":
		err = cmdFix(args)
	case "presets":
		err = cmdPresets(args)
	case "uv":
		err = cmdUV(args)
	case "config":
		err = cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`morphkit - blend-shape authoring for glTF meshes

Usage:
  morphkit <command> [options] <file.glb> [args]

Commands:
  info <file>                      Show meshes, vertex counts and skins
  list <file>                      List channels with weights and frames
  bake <file>                      Bake the current weights into a new channel
  bake-clip <file> <motion.vmd>    Bake the last pose of an MMD motion
  insert <file> <names.txt|->      Add empty channels from a name list
  edit <file> -active <name>       Rewrite a channel from the current weights
  export <file> <out.bsdr>         Export channels to a delta record file
  import <file> <in.bsdr>          Import channels from a delta record file
  fix add|remove|show|apply <file> Manage and apply saved MMD adjustments
  presets <file>                   List channels matching MMD presets
  uv <file> <out.png|webp|tga>     Draw the UV layout
  config init [-config <path>]     Write a starting config file

Common options:
  -mesh <name>        Mesh to work on (default: first mesh)
  -w name=value       Set a channel weight (0-100); repeatable
  -out <dir>          Output directory for modified meshes
  -format glb|gltf    Output mesh format
  -config <path>      Config file
  -debug              Debug logging
  -log-file <path>    Also log to a rotating file

Examples:
  morphkit list avatar.glb
  morphkit bake -w "あ=100" -w "笑い=40" -name Smile avatar.glb
  morphkit bake-clip avatar.glb wink.vmd
  morphkit fix add -shape "あ" -value 80 -add "い=50" avatar.glb
  morphkit uv -fill -auto-color avatar.glb layout.png`)
}
