// Package export resolves which parts of a scene are written to disk, under
// which names, and drives an Exporter over them.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/rigsplit/logger"
	"github.com/mogaika/rigsplit/ops/classify"
	"github.com/mogaika/rigsplit/ops/instances"
	"github.com/mogaika/rigsplit/scene"
)

// Failure is one target that could not be written.
type Failure struct {
	Target *Target
	Err    error
}

type Report struct {
	RunID       uuid.UUID
	State       State
	Transitions []State
	Dir         string
	// Targets left after origin markers were applied, in export order.
	Targets  []*Target
	Exported []*Target
	Failures []Failure
	// Excluded names the sources dropped by a hidden origin marker.
	Excluded []string
}

func (r *Report) Count() int { return len(r.Exported) }

type originRecord struct {
	marker *scene.Object
	local  mgl32.Mat4
}

// Resolver runs the export state machine. A Resolver is single use per run
// and not safe for concurrent runs.
type Resolver struct {
	Exporter Exporter
	Options  Options

	state  State
	report *Report
	log    *zap.Logger
}

func NewResolver(e Exporter, opts Options) *Resolver {
	return &Resolver{Exporter: e, Options: opts}
}

func (r *Resolver) State() State { return r.state }

func (r *Resolver) set(s State) {
	if !canMove(r.state, s) {
		panic(fmt.Sprintf("export: illegal state change %v -> %v", r.state, s))
	}
	r.state = s
	r.report.State = s
	r.report.Transitions = append(r.report.Transitions, s)
	r.log.Debug("state", zap.Stringer("state", s))
	if r.Options.OnState != nil {
		r.Options.OnState(s)
	}
}

// OutputDir is the configured directory, or the directory of the saved
// document.
func OutputDir(ctx *scene.Context, opts Options) (string, error) {
	if opts.Dir != "" {
		if !filepath.IsAbs(opts.Dir) && ctx.DocumentPath != "" {
			return filepath.Join(filepath.Dir(ctx.DocumentPath), opts.Dir), nil
		}
		return opts.Dir, nil
	}
	if ctx.DocumentPath == "" {
		return "", scene.Validationf("export", "document is not saved and no export directory is set")
	}
	return filepath.Dir(ctx.DocumentPath), nil
}

// Run resolves instances, classifies collections, applies origin markers and
// exports every target. Origins, instance links and selection are restored on
// every exit path. Per-target failures are collected in the report. Run fails
// when there was nothing to export or nothing could be written.
func (r *Resolver) Run(ctx *scene.Context) (rep *Report, err error) {
	r.state = Idle
	r.report = &Report{RunID: uuid.New(), State: Idle}
	r.log = logger.Named("export").With(zap.Stringer("run", r.report.RunID))
	rep = r.report

	var (
		scope   *instances.Scope
		origins []originRecord
	)
	restoreSelection := ctx.SaveSelection()
	defer func() {
		for i := len(origins) - 1; i >= 0; i-- {
			origins[i].marker.Local = origins[i].local
		}
		scope.Release()
		restoreSelection()

		if err != nil {
			r.log.Warn("export aborted", zap.Error(err))
			r.set(Aborted)
		} else if r.state == Restoring {
			r.set(Done)
		}
	}()

	r.set(Resolving)
	if r.report.Dir, err = OutputDir(ctx, r.Options); err != nil {
		return
	}
	if scope, err = instances.Resolve(ctx.Scene, ctx.Scene.VisibleObjects()); err != nil {
		err = errors.Wrapf(err, "resolve instances")
		return
	}
	targets := Targets(classify.Classify(ctx.Scene, false))
	if len(targets) == 0 {
		err = scene.Validationf("export", "no export target: no visible collection is classified")
		return
	}

	r.set(Normalizing)
	targets, origins = r.normalize(ctx.Scene.Root, targets)

	r.set(Exporting)
	if len(targets) != 0 {
		if e := os.MkdirAll(r.report.Dir, 0755); e != nil {
			err = &scene.IOError{Target: "*", Path: r.report.Dir, Err: e}
			return
		}
	}
	named, collisions := assignNames(targets, r.report.Dir, r.Options)
	r.report.Targets = named
	r.report.Failures = append(r.report.Failures, collisions...)
	for _, c := range collisions {
		r.log.Warn("output name collision", zap.Error(c.Err))
	}
	for i, t := range named {
		if r.Options.OnProgress != nil {
			r.Options.OnProgress(i, len(named), t)
		}
		if e := r.exportTarget(t); e != nil {
			r.log.Error("target failed", zap.String("target", t.Name), zap.Error(e))
			r.report.Failures = append(r.report.Failures, Failure{Target: t, Err: e})
			continue
		}
		r.log.Info("exported", zap.String("target", t.Name), zap.String("path", t.Path))
		r.report.Exported = append(r.report.Exported, t)
	}

	r.set(Restoring)
	if r.report.Count() == 0 {
		err = errors.Errorf("nothing exported: %d targets, %d failures", len(named), len(r.report.Failures))
		return
	}
	r.log.Info("export done",
		zap.Int("exported", r.report.Count()),
		zap.Int("failures", len(r.report.Failures)),
		zap.Int("excluded", len(r.report.Excluded)))
	return
}

// normalize moves every origin marker of a target collection to the world
// origin, recording its transform. A hidden marker opts its whole branch out of
// the export: the collection, its siblings and everything below them. Top level
// collections are branches of their own.
func (r *Resolver) normalize(root *scene.Collection, targets []*Target) ([]*Target, []originRecord) {
	var origins []originRecord
	var optedOut, branches []*scene.Collection
	seen := make(map[*scene.Object]bool)

	for _, t := range targets {
		marker := t.Collection.OriginMarker()
		if marker == nil || seen[marker] {
			continue
		}
		seen[marker] = true
		if marker.Hidden {
			optedOut = append(optedOut, t.Collection)
			if p := t.Collection.Parent(); p != nil && p != root {
				branches = append(branches, p)
			}
			continue
		}
		origins = append(origins, originRecord{marker: marker, local: marker.Local})
		marker.SetWorld(mgl32.Ident4())
	}

	if len(optedOut) == 0 {
		return targets, origins
	}
	kept := targets[:0:0]
	for _, t := range targets {
		out := false
		for _, c := range optedOut {
			if t.Collection == c || c.IsAncestorOf(t.Collection) {
				out = true
				break
			}
		}
		for _, b := range branches {
			if b.IsAncestorOf(t.Collection) {
				out = true
				break
			}
		}
		if out {
			r.report.Excluded = append(r.report.Excluded, t.Source.SourceName())
			continue
		}
		kept = append(kept, t)
	}
	return kept, origins
}

func (r *Resolver) exportTarget(t *Target) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("exporter panic: %v", p)
		}
		if err != nil {
			err = &scene.IOError{Target: t.Source.SourceName(), Path: t.Path, Err: err}
		}
	}()
	switch t.Kind {
	case KindRig:
		return r.Exporter.ExportSkeletal(t.Collection, t.Path, r.Options.UseArmatureAsRoot)
	default:
		return r.Exporter.ExportStaticMesh(t.Source, t.Path)
	}
}
