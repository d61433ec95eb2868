package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/morphkit/pkg/uvmap"
)

// Load loads configuration with priority: defaults < file < flags.
// f may be nil when no flags were registered.
func Load(f *Flags) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := f.ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg, f)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no workflow can run with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Output.Format) {
	case "glb", "gltf":
	default:
		return fmt.Errorf("output.format must be glb or gltf, got %q", c.Output.Format)
	}
	switch c.Tools.PresetMode {
	case "mmd", "all":
	default:
		return fmt.Errorf("tools.preset_mode must be mmd or all, got %q", c.Tools.PresetMode)
	}
	if c.Tools.ReferenceWeight < 0 || c.Tools.ReferenceWeight > 100 {
		return fmt.Errorf("tools.reference_weight must be within 0-100, got %g", c.Tools.ReferenceWeight)
	}
	if _, err := uvmap.ParseFormat(c.UVMap.Format); err != nil {
		return fmt.Errorf("uvmap.format: %w", err)
	}
	if c.UVMap.Size <= 0 {
		return fmt.Errorf("uvmap.size must be positive, got %d", c.UVMap.Size)
	}
	return nil
}

// AdjustmentsPath returns the adjustment store location.
func (c *Config) AdjustmentsPath() string {
	if c.Tools.AdjustmentsFile != "" {
		return c.Tools.AdjustmentsFile
	}
	return filepath.Join(ConfigDir(), "adjustments.json")
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./morphkit.yaml",
		DefaultPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "morphkit")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "morphkit")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "morphkit")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "morphkit")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
