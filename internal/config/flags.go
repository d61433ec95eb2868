package config

import "flag"

// Flags holds the command-line overrides shared by every subcommand.
type Flags struct {
	config  *string
	debug   *bool
	out     *string
	logFile *string
	format  *string
}

// RegisterFlags adds the shared flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:  fs.String("config", "", "Path to config file"),
		debug:   fs.Bool("debug", false, "Enable debug logging"),
		out:     fs.String("out", "", "Output directory"),
		logFile: fs.String("log-file", "", "Also write logs to this file"),
		format:  fs.String("format", "", "Output mesh format (glb or gltf)"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.out != "" {
		cfg.Output.Dir = *f.out
	}
	if *f.logFile != "" {
		cfg.Logging.LogFile = *f.logFile
	}
	if *f.format != "" {
		cfg.Output.Format = *f.format
	}
}
