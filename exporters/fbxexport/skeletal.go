package fbxexport

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/mogaika/rigsplit/scene"
	"github.com/mogaika/rigsplit/utils/fbxbuilder"
)

type poseEntry struct {
	id    int64
	world mgl32.Mat4
}

type skeletonExported struct {
	BoneIds map[*scene.Bone]int64
	pose    []poseEntry
}

func (se *skeletonExported) boneByName(skel *scene.Skeleton, name string) (*scene.Bone, int64) {
	b := skel.Bone(name)
	if b == nil {
		return nil, 0
	}
	return b, se.BoneIds[b]
}

func exportSkeleton(f *fbxbuilder.FBXBuilder, arm *scene.Object, useArmatureAsRoot bool) *skeletonExported {
	se := &skeletonExported{BoneIds: make(map[*scene.Bone]int64)}
	armWorld := arm.World()

	rootId := int64(0)
	if useArmatureAsRoot {
		rootId = f.GenerateId()
		attrId := f.GenerateId()
		attr := bfbx73.NodeAttribute(attrId, arm.Name+"\x00\x01NodeAttribute", "Null").AddNodes(
			bfbx73.TypeFlags("Null"),
		)
		f.AddObjects(
			bfbx73.Model(rootId, arm.Name+"\x00\x01Model", "Null").AddNodes(
				bfbx73.Version(232),
				transformProperties(armWorld),
				bfbx73.Shading(true),
				bfbx73.Culling("CullingOff"),
			),
			attr,
		)
		f.AddConnections(
			bfbx73.C("OO", attrId, rootId),
			bfbx73.C("OO", rootId, int64(0)),
		)
		se.pose = append(se.pose, poseEntry{id: rootId, world: armWorld})
	}

	for _, b := range arm.Skeleton.Bones {
		var local mgl32.Mat4
		parentId := rootId
		switch {
		case b.Parent != nil:
			local = b.Parent.Bind.Inv().Mul4(b.Bind)
			parentId = se.BoneIds[b.Parent]
		case useArmatureAsRoot:
			local = b.Bind
		default:
			local = armWorld.Mul4(b.Bind)
		}

		id := f.GenerateId()
		se.BoneIds[b] = id
		attrId := f.GenerateId()
		attr := bfbx73.NodeAttribute(attrId, b.Name+"\x00\x01NodeAttribute", "LimbNode").AddNodes(
			bfbx73.TypeFlags("Skeleton"),
		)
		f.AddObjects(
			bfbx73.Model(id, b.Name+"\x00\x01Model", "LimbNode").AddNodes(
				bfbx73.Version(232),
				transformProperties(local),
				bfbx73.Shading(true),
				bfbx73.Culling("CullingOff"),
			),
			attr,
		)
		f.AddConnections(
			bfbx73.C("OO", attrId, id),
			bfbx73.C("OO", id, parentId),
		)
		se.pose = append(se.pose, poseEntry{id: id, world: arm.BoneWorld(b)})
	}
	return se
}

// exportSkin binds the geometry of me to the bones named by its vertex groups.
func exportSkin(f *fbxbuilder.FBXBuilder, se *skeletonExported, o *scene.Object, arm *scene.Object, me *meshExported) {
	skinId := f.GenerateId()
	f.AddObjects(fbxbuilder.Node("Deformer", skinId, o.Name+"\x00\x01Deformer", "Skin").AddNodes(
		fbxbuilder.Node("Version", int32(101)),
		fbxbuilder.Node("Link_DeformAcuracy", float64(50)),
	))
	f.AddConnections(bfbx73.C("OO", skinId, me.GeometryId))

	meshWorld := mat64(o.World())
	for _, g := range o.Mesh.Groups {
		bone, boneId := se.boneByName(arm.Skeleton, g.Name)
		if bone == nil {
			continue
		}
		indexes := make([]int32, 0)
		weights := make([]float64, 0)
		for i, v := range o.Mesh.Vertices {
			if w := v.Weight(g.Index); w > 0 {
				indexes = append(indexes, int32(i))
				weights = append(weights, float64(w))
			}
		}
		if len(indexes) == 0 {
			continue
		}

		clusterId := f.GenerateId()
		f.AddObjects(fbxbuilder.Node("Deformer", clusterId, g.Name+"\x00\x01SubDeformer", "Cluster").AddNodes(
			fbxbuilder.Node("Version", int32(100)),
			fbxbuilder.Node("UserData", "", ""),
			fbxbuilder.Node("Indexes", indexes),
			fbxbuilder.Node("Weights", weights),
			fbxbuilder.Node("Transform", meshWorld),
			fbxbuilder.Node("TransformLink", mat64(arm.BoneWorld(bone))),
		))
		f.AddConnections(
			bfbx73.C("OO", clusterId, skinId),
			bfbx73.C("OO", boneId, clusterId),
		)
	}
}

func bindPose(f *fbxbuilder.FBXBuilder, name string, entries []poseEntry) *fbx.Node {
	pose := fbxbuilder.Node("Pose", f.GenerateId(), name+"\x00\x01Pose", "BindPose").AddNodes(
		fbxbuilder.Node("Type", "BindPose"),
		fbxbuilder.Node("Version", int32(100)),
		fbxbuilder.Node("NbPoseNodes", int32(len(entries))),
	)
	for _, e := range entries {
		pose.AddNode(fbxbuilder.Node("PoseNode").AddNodes(
			fbxbuilder.Node("Node", e.id),
			fbxbuilder.Node("Matrix", mat64(e.world)),
		))
	}
	return pose
}

// ExportSkeletal writes the armature of c as a bone hierarchy together with
// every visible mesh of c, skinned when it is deformed by that armature.
func (e *Exporter) ExportSkeletal(c *scene.Collection, path string, useArmatureAsRoot bool) error {
	objects := c.ExportObjects()
	var arm *scene.Object
	for _, o := range objects {
		if o.Kind == scene.KindArmature && o.Skeleton != nil {
			arm = o
			break
		}
	}
	if arm == nil {
		return errors.Errorf("collection %q has no armature", c.Name)
	}

	f := fbxbuilder.NewFBXBuilder(path)
	se := exportSkeleton(f, arm, useArmatureAsRoot)

	for _, o := range objects {
		if o.Kind != scene.KindMesh || o.Mesh == nil {
			continue
		}
		me := exportMesh(f, o, o.World())
		f.AddConnections(bfbx73.C("OO", me.ModelId, int64(0)))
		se.pose = append(se.pose, poseEntry{id: me.ModelId, world: o.World()})
		if o.SkinArmature() == arm {
			exportSkin(f, se, o, arm, me)
		}
	}
	f.AddObjects(bindPose(f, c.Name, se.pose))

	return f.WriteFile(path)
}
