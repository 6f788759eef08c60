package export

import (
	"strings"

	"github.com/mogaika/rigsplit/config"
	"github.com/mogaika/rigsplit/scene"
)

type Options struct {
	StaticPrefix   string
	SkeletalPrefix string
	UserPrefix     string
	// Dir overrides the directory of the saved document.
	Dir string
	// Extension of written files, ".fbx" when empty.
	Extension         string
	UseArmatureAsRoot bool

	// OnState is called on every state change.
	OnState func(State)
	// OnProgress is called before each exporter call.
	OnProgress func(done, total int, target *Target)
}

func DefaultOptions() Options {
	return Options{StaticPrefix: "SM_", SkeletalPrefix: "SK_", Extension: ".fbx"}
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		StaticPrefix:      cfg.Naming.StaticPrefix,
		SkeletalPrefix:    cfg.Naming.SkeletalPrefix,
		UserPrefix:        cfg.Naming.UserPrefix,
		Dir:               cfg.Export.Dir,
		Extension:         "." + strings.TrimPrefix(cfg.Export.Format, "."),
		UseArmatureAsRoot: cfg.Export.UseArmatureAsRoot,
	}
}

func (o Options) extension() string {
	if o.Extension == "" {
		return ".fbx"
	}
	return o.Extension
}

// Exporter writes files. Implementations must not keep references to the
// scene after returning.
type Exporter interface {
	ExportStaticMesh(src scene.Source, path string) error
	ExportSkeletal(c *scene.Collection, path string, useArmatureAsRoot bool) error
}
