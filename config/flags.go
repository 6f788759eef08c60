package config

import "flag"

// Flags are command line overrides. Zero values leave the loaded setting alone.
type Flags struct {
	Config      string
	Debug       bool
	LogFile     string
	ExportDir   string
	Format      string
	UserPrefix  string
	DecalMarker string
	PivotMatch  string
	Listen      string
	ArmRoot     bool
}

// Register binds the overrides to a flag set. Call before fs.Parse.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log", "", "Log file path")
	fs.StringVar(&f.ExportDir, "out", "", "Export directory")
	fs.StringVar(&f.Format, "format", "", "Export format (fbx, glb)")
	fs.StringVar(&f.UserPrefix, "prefix", "", "User prefix inserted into output names")
	fs.StringVar(&f.DecalMarker, "decal", "", "Decal material name marker")
	fs.StringVar(&f.PivotMatch, "match", "", "Bone match mode (group, substring, exact)")
	fs.StringVar(&f.Listen, "listen", "", "Control server address")
	fs.BoolVar(&f.ArmRoot, "armature-root", false, "Use the armature as root of skeletal exports")
}

func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.ExportDir != "" {
		cfg.Export.Dir = f.ExportDir
	}
	if f.Format != "" {
		cfg.Export.Format = f.Format
	}
	if f.UserPrefix != "" {
		cfg.Naming.UserPrefix = f.UserPrefix
	}
	if f.DecalMarker != "" {
		cfg.Decompose.DecalMarker = f.DecalMarker
	}
	if f.PivotMatch != "" {
		cfg.Decompose.PivotMatch = f.PivotMatch
	}
	if f.Listen != "" {
		cfg.Web.Listen = f.Listen
	}
	if f.ArmRoot {
		cfg.Export.UseArmatureAsRoot = true
	}
}
