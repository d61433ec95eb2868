package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/Faultbox/morphkit/internal/config"
)

const configUsage = `morphkit config init [-config <path>] [-force] [-out <dir>] [-format glb|gltf] [-debug] [-log-file <path>]`

func cmdConfig(args []string) error {
	if len(args) < 1 {
		return usageError(configUsage)
	}
	switch args[0] {
	case "init":
		path, err := configInit(args[1:])
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	}
	return fmt.Errorf("unknown config command %q\nUsage: %s", args[0], configUsage)
}

// configInit writes the default config merged with the given flags and
// returns the path written. An existing file is kept unless -force is set.
func configInit(args []string) (string, error) {
	fset := flag.NewFlagSet("config init", flag.ContinueOnError)
	cf := config.RegisterFlags(fset)
	force := fset.Bool("force", false, "Overwrite an existing config file")
	if err := fset.Parse(args); err != nil {
		return "", err
	}

	cfg, err := config.Init(cf)
	if err != nil {
		return "", err
	}

	path := cf.ConfigPath()
	if path == "" {
		path = config.DefaultPath()
	}
	if !*force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%s already exists (use -force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}

	if cf.ConfigPath() == "" {
		err = cfg.Save()
	} else {
		err = cfg.SaveTo(path)
	}
	if err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	return path, nil
}
