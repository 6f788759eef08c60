package decompose

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mogaika/rigsplit/logger"
	"github.com/mogaika/rigsplit/scene"
)

type Result struct {
	TxID        uuid.UUID
	Source      *scene.Object
	Armature    *scene.Object
	Collection  *scene.Collection
	Fragments   []*scene.Object
	Decals      []*scene.Object
	Placeholder *scene.Object
	// Aligned maps fragment names to the bone they were re-pivoted to.
	Aligned map[string]string
}

// validate checks every precondition of Split before anything is mutated.
func validate(ctx *scene.Context, obj *scene.Object) (*scene.Object, *scene.Object, error) {
	if obj == nil {
		obj = ctx.Active
	}
	if obj == nil {
		return nil, nil, scene.Validationf("split", "no selection")
	}
	if obj.Kind != scene.KindMesh || obj.Mesh == nil {
		return nil, nil, scene.Validationf("split", "%q is not a mesh", obj.Name)
	}
	if obj.Split {
		return nil, nil, scene.Statef("split", "mesh %q was already split", obj.Name)
	}
	arm := obj.SkinArmature()
	if arm == nil {
		return nil, nil, scene.Validationf("split", "mesh %q is not skinned to an armature", obj.Name)
	}
	if arm.Split {
		return nil, nil, scene.Statef("split", "armature %q was already split", arm.Name)
	}
	if len(obj.Mesh.Groups) == 0 {
		return nil, nil, scene.Validationf("split", "no vertex group on %q", obj.Name)
	}
	if arm.Skeleton == nil || arm.Skeleton.Root() == nil {
		return nil, nil, scene.Validationf("split", "armature %q has no bone", arm.Name)
	}
	return obj, arm, nil
}

// Split decomposes a skinned mesh into static fragments, one per vertex group,
// each re-pivoted to its bone, with decal faces split into sibling objects and
// a placeholder mesh added to the armature. obj defaults to the active object.
// Any failure rolls every change back.
func Split(ctx *scene.Context, obj *scene.Object, opts Options) (res *Result, err error) {
	src, arm, err := validate(ctx, obj)
	if err != nil {
		return nil, err
	}

	log := logger.Named("decompose")
	tx := scene.Begin(ctx.Scene)
	defer func() {
		if err != nil {
			log.Warn("split failed, rolling back",
				zap.Stringer("tx", tx.ID),
				zap.String("object", src.Name),
				zap.Int("changes", tx.Len()),
				zap.Error(err))
			tx.Rollback()
			res = nil
		}
	}()
	tx.Record(ctx.SaveSelection())

	res = &Result{TxID: tx.ID, Source: src, Armature: arm, Aligned: make(map[string]string)}

	if res.Collection, err = FragmentCollection(tx, src, opts); err != nil {
		return
	}

	frags, err := Partition(tx, src, res.Collection, opts)
	if err != nil {
		return
	}

	for i, f := range frags {
		opts.progress("pivot", i, len(frags))
		if b := AlignPivot(f.Object, arm, f.Group, opts.Match); b != nil {
			res.Aligned[f.Object.Name] = b.Name
		} else {
			log.Debug("no bone matches fragment", zap.String("fragment", f.Object.Name))
		}
		res.Fragments = append(res.Fragments, f.Object)
	}

	for i, f := range res.Fragments {
		opts.progress("decal", i, len(res.Fragments))
		var d *scene.Object
		if d, err = SplitDecals(tx, f, opts); err != nil {
			return
		}
		if d != nil {
			res.Decals = append(res.Decals, d)
		}
	}

	opts.progress("placeholder", 0, 1)
	if res.Placeholder, err = BuildPlaceholder(tx, arm, opts); err != nil {
		return
	}

	tx.SetHidden(src, true)
	if c := src.Collection(); c != nil && c != ctx.Scene.Root && c.Type == scene.Unclassified {
		if err = tx.SetCollectionType(c, scene.Rig); err != nil {
			return
		}
	}
	tx.SetSplit(src, true)
	tx.SetSplit(arm, true)

	ctx.Select(res.Fragments...)
	ctx.ActiveCollection = res.Collection
	opts.progress("done", 1, 1)

	log.Info("split done",
		zap.Stringer("tx", tx.ID),
		zap.String("object", src.Name),
		zap.String("collection", res.Collection.Name),
		zap.Int("fragments", len(res.Fragments)),
		zap.Int("decals", len(res.Decals)),
		zap.Int("changes", tx.Len()))
	tx.Commit()
	return res, nil
}
