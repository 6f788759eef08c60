package export

import (
	"path/filepath"
	"strings"

	"github.com/mogaika/rigsplit/ops/classify"
	"github.com/mogaika/rigsplit/scene"
	"github.com/mogaika/rigsplit/utils"
)

// Kind decides which exporter call a target goes through.
type Kind int

const (
	// KindStatic is a whole collection written as one static mesh file.
	KindStatic Kind = iota
	// KindSkeletalPart is one mesh object of a SkeletalMesh collection.
	KindSkeletalPart
	// KindRig is a whole collection written as one skeletal file.
	KindRig
)

func (k Kind) String() string {
	switch k {
	case KindSkeletalPart:
		return "skeletal_part"
	case KindRig:
		return "rig"
	default:
		return "static"
	}
}

// Target is one resolved unit of export. Targets live for a single run.
type Target struct {
	Source     scene.Source
	Collection *scene.Collection
	Type       scene.CollectionType
	Kind       Kind
	Name       string
	Path       string
}

func (t *Target) String() string {
	return t.Kind.String() + ":" + t.Source.SourceName()
}

// staticOrder is the order static buckets are exported in.
var staticOrder = []scene.CollectionType{scene.BakeLow, scene.BakeHigh, scene.Decal, scene.Prop, scene.StaticMesh}

// Targets computes the ordered target list from a classification: bake roots,
// decal, prop and static collections, every visible mesh of skeletal mesh
// collections, then rig collections. Collections without anything to export
// are left out.
func Targets(cls *classify.Result) []*Target {
	var targets []*Target
	for _, t := range staticOrder {
		bucket := cls.Get(t)
		if t.IsBake() {
			bucket = cls.BakeRoots(t)
		}
		for _, c := range bucket {
			if len(c.ExportObjects()) == 0 {
				continue
			}
			targets = append(targets, &Target{Source: c, Collection: c, Type: t, Kind: KindStatic})
		}
	}
	for _, c := range cls.Get(scene.SkeletalMesh) {
		for _, o := range c.ExportObjects() {
			if o.Kind != scene.KindMesh {
				continue
			}
			targets = append(targets, &Target{Source: o, Collection: c, Type: scene.SkeletalMesh, Kind: KindSkeletalPart})
		}
	}
	for _, c := range cls.Get(scene.Rig) {
		if len(c.ExportObjects()) == 0 {
			continue
		}
		targets = append(targets, &Target{Source: c, Collection: c, Type: scene.Rig, Kind: KindRig})
	}
	return targets
}

// OutputName returns the file name of a target:
// <static><user><name> for static targets and skeletal parts, and
// <skeletal><name> for rigs.
func OutputName(t *Target, opts Options) string {
	cleaned := utils.CleanName(t.Source.SourceName(), opts.StaticPrefix, opts.SkeletalPrefix)
	if t.Kind == KindRig {
		return opts.SkeletalPrefix + cleaned + opts.extension()
	}
	return opts.StaticPrefix + opts.UserPrefix + cleaned + opts.extension()
}

// assignNames fills Name and Path. Targets whose name was already taken,
// compared case-insensitively, come back as collisions and are left unnamed.
func assignNames(targets []*Target, dir string, opts Options) (named []*Target, collisions []Failure) {
	taken := make(map[string]*Target)
	for _, t := range targets {
		name := OutputName(t, opts)
		key := strings.ToLower(name)
		if first, ok := taken[key]; ok {
			collisions = append(collisions, Failure{
				Target: t,
				Err:    &scene.NamingCollisionError{Name: name, First: first.Source.SourceName(), Second: t.Source.SourceName()},
			})
			continue
		}
		taken[key] = t
		t.Name = name
		t.Path = filepath.Join(dir, name)
		named = append(named, t)
	}
	return named, collisions
}
