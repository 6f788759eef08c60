package gltfexport

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/mogaika/rigsplit/scene"
	"github.com/mogaika/rigsplit/utils/gltfutils"
)

type skeletonExported struct {
	JointNodes []uint32
	Skin       uint32
}

func exportSkeleton(doc *gltf.Document, arm *scene.Object, useArmatureAsRoot bool) *skeletonExported {
	se := &skeletonExported{JointNodes: make([]uint32, len(arm.Skeleton.Bones))}
	armWorld := arm.World()

	var armNode *gltf.Node
	if useArmatureAsRoot {
		armNode = &gltf.Node{Name: arm.Name}
		gltfutils.SetTransform(armNode, armWorld)
		doc.Nodes = append(doc.Nodes, armNode)
	}

	ibms := make([]mgl32.Mat4, len(arm.Skeleton.Bones))
	for i, b := range arm.Skeleton.Bones {
		var local mgl32.Mat4
		switch {
		case b.Parent != nil:
			local = b.Parent.Bind.Inv().Mul4(b.Bind)
		case useArmatureAsRoot:
			local = b.Bind
		default:
			local = armWorld.Mul4(b.Bind)
		}

		node := &gltf.Node{Name: b.Name}
		gltfutils.SetTransform(node, local)
		se.JointNodes[i] = uint32(len(doc.Nodes))
		doc.Nodes = append(doc.Nodes, node)

		if b.Parent != nil {
			parent := doc.Nodes[se.JointNodes[arm.Skeleton.Index(b.Parent)]]
			parent.Children = append(parent.Children, se.JointNodes[i])
		} else if armNode != nil {
			armNode.Children = append(armNode.Children, se.JointNodes[i])
		}
		ibms[i] = arm.BoneWorld(b).Inv()
	}

	doc.Skins = append(doc.Skins, &gltf.Skin{
		Name:                arm.Name,
		Joints:              se.JointNodes,
		InverseBindMatrices: gltf.Index(gltfutils.WriteMatrices(doc, ibms)),
	})
	se.Skin = uint32(len(doc.Skins) - 1)
	return se
}

func bindingFor(m *scene.Mesh, skel *scene.Skeleton) *skinBinding {
	sb := &skinBinding{jointOfGroup: make(map[int]uint16)}
	for _, g := range m.Groups {
		if b := skel.Bone(g.Name); b != nil {
			sb.jointOfGroup[g.Index] = uint16(skel.Index(b))
		}
	}
	return sb
}

// ExportSkeletal writes the armature of c as a skin. Meshes deformed by the
// armature are stored in world space with identity node transforms, the rest
// keep their world transform.
func (e *Exporter) ExportSkeletal(c *scene.Collection, path string, useArmatureAsRoot bool) error {
	objects := c.ExportObjects()
	var arm *scene.Object
	for _, o := range objects {
		if o.Kind == scene.KindArmature && o.Skeleton != nil && len(o.Skeleton.Bones) != 0 {
			arm = o
			break
		}
	}
	if arm == nil {
		return errors.Errorf("collection %q has no armature", c.Name)
	}

	gc := gltfutils.NewCacher(gltfutils.NewDocument())
	se := exportSkeleton(gc.Doc, arm, useArmatureAsRoot)

	for _, o := range objects {
		if o.Kind != scene.KindMesh || o.Mesh == nil {
			continue
		}
		node := &gltf.Node{Name: o.Name}
		if o.SkinArmature() == arm {
			mi, ok := writeMesh(gc, o, o.World(), bindingFor(o.Mesh, arm.Skeleton))
			if !ok {
				continue
			}
			node.Mesh = gltf.Index(mi)
			node.Skin = gltf.Index(se.Skin)
		} else {
			mi, ok := writeMesh(gc, o, mgl32.Ident4(), nil)
			if !ok {
				continue
			}
			node.Mesh = gltf.Index(mi)
			gltfutils.SetTransform(node, o.World())
		}
		gc.Doc.Nodes = append(gc.Doc.Nodes, node)
	}

	return gltfutils.ExportBinaryFile(path, gc.Doc)
}
