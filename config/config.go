// Package config handles pipeline configuration loading and management.
package config

// Config holds all pipeline settings.
type Config struct {
	Naming    NamingConfig    `yaml:"naming"`
	Decompose DecomposeConfig `yaml:"decompose"`
	Export    ExportConfig    `yaml:"export"`
	Web       WebConfig       `yaml:"web"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// NamingConfig holds output name prefixes.
type NamingConfig struct {
	StaticPrefix   string `yaml:"static_prefix"`
	SkeletalPrefix string `yaml:"skeletal_prefix"`
	UserPrefix     string `yaml:"user_prefix"`
}

// DecomposeConfig holds skeletal split settings.
type DecomposeConfig struct {
	DecalMarker     string  `yaml:"decal_marker"`
	PivotMatch      string  `yaml:"pivot_match"` // group, substring or exact
	PlaceholderSize float32 `yaml:"placeholder_size"`
}

// ExportConfig holds export settings.
type ExportConfig struct {
	Dir               string `yaml:"dir"`    // empty means next to the scene document
	Format            string `yaml:"format"` // fbx or glb
	UseArmatureAsRoot bool   `yaml:"use_armature_as_root"`
}

// WebConfig holds the control server settings.
type WebConfig struct {
	Listen string `yaml:"listen"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Naming: NamingConfig{
			StaticPrefix:   "SM_",
			SkeletalPrefix: "SK_",
		},
		Decompose: DecomposeConfig{
			DecalMarker:     "decal",
			PivotMatch:      "group",
			PlaceholderSize: 0.001,
		},
		Export: ExportConfig{
			Format: "fbx",
		},
		Web: WebConfig{
			Listen: ":8000",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
