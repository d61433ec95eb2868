// Package config handles morphkit configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Tools   ToolsConfig   `yaml:"tools"`
	Output  OutputConfig  `yaml:"output"`
	UVMap   UVMapConfig   `yaml:"uvmap"`
	Logging LoggingConfig `yaml:"logging"`
}

// ToolsConfig holds blend-shape workflow settings.
type ToolsConfig struct {
	BakeName        string  `yaml:"bake_name"`        // Default name for baked channels
	ReferenceWeight float32 `yaml:"reference_weight"` // Secondary weight assumed baked into a primary
	ResetWeights    bool    `yaml:"reset_weights"`    // After a bake, show only the new channel
	AdjustmentsFile string  `yaml:"adjustments_file"` // Empty means ConfigDir()/adjustments.json
	PresetMode      string  `yaml:"preset_mode"`      // "mmd" or "all"
}

// OutputConfig holds where and how modified meshes are written.
type OutputConfig struct {
	Dir             string `yaml:"dir"`
	Format          string `yaml:"format"` // "glb" or "gltf"
	TimestampLayout string `yaml:"timestamp_layout"`
}

// UVMapConfig holds UV layout export settings.
type UVMapConfig struct {
	Size        int    `yaml:"size"`
	Supersample int    `yaml:"supersample"`
	Background  string `yaml:"background"`
	Transparent bool   `yaml:"transparent"`
	LineColor   string `yaml:"line_color"`
	DrawLines   bool   `yaml:"draw_lines"`
	Fill        bool   `yaml:"fill"`
	AutoColor   bool   `yaml:"auto_color"`
	FillColor   string `yaml:"fill_color"`
	Format      string `yaml:"format"` // png, webp or tga
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Tools: ToolsConfig{
			BakeName:        "BakedBlendShape",
			ReferenceWeight: 30,
			ResetWeights:    false,
			PresetMode:      "mmd",
		},
		Output: OutputConfig{
			Dir:             "output",
			Format:          "glb",
			TimestampLayout: "20060102_150405",
		},
		UVMap: UVMapConfig{
			Size:        1024,
			Supersample: 2,
			Background:  "#ffffff",
			LineColor:   "#000000",
			DrawLines:   true,
			FillColor:   "#808080",
			Format:      "png",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
