// Package decompose splits a skinned mesh into static per-bone fragments.
package decompose

import (
	"strings"

	"github.com/mogaika/rigsplit/config"
	"github.com/mogaika/rigsplit/scene"
)

// MatchMode selects how a fragment finds the bone it is re-pivoted to.
type MatchMode int

const (
	// MatchGroup looks up the bone named like the fragment's vertex group and
	// falls back to MatchSubstring.
	MatchGroup MatchMode = iota
	// MatchSubstring takes the first bone, in skeleton order, whose name is
	// contained in the fragment name.
	MatchSubstring
	// MatchExact only accepts a bone named like the fragment's vertex group.
	MatchExact
)

func (m MatchMode) String() string {
	switch m {
	case MatchSubstring:
		return "substring"
	case MatchExact:
		return "exact"
	default:
		return "group"
	}
}

func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(s) {
	case "", "group":
		return MatchGroup, nil
	case "substring":
		return MatchSubstring, nil
	case "exact":
		return MatchExact, nil
	}
	return MatchGroup, scene.Validationf("parse match mode", "unknown bone match mode %q", s)
}

// Progress receives stage updates while a split runs.
type Progress func(stage string, done, total int)

type Options struct {
	StaticPrefix    string
	SkeletalPrefix  string
	DecalMarker     string
	Match           MatchMode
	PlaceholderSize float32
	Progress        Progress
}

func DefaultOptions() Options {
	return Options{
		StaticPrefix:    "SM_",
		SkeletalPrefix:  "SK_",
		DecalMarker:     "decal",
		Match:           MatchGroup,
		PlaceholderSize: 0.001,
	}
}

func OptionsFromConfig(cfg *config.Config) (Options, error) {
	match, err := ParseMatchMode(cfg.Decompose.PivotMatch)
	if err != nil {
		return Options{}, err
	}
	return Options{
		StaticPrefix:    cfg.Naming.StaticPrefix,
		SkeletalPrefix:  cfg.Naming.SkeletalPrefix,
		DecalMarker:     cfg.Decompose.DecalMarker,
		Match:           match,
		PlaceholderSize: cfg.Decompose.PlaceholderSize,
	}, nil
}

func (o Options) progress(stage string, done, total int) {
	if o.Progress != nil {
		o.Progress(stage, done, total)
	}
}
