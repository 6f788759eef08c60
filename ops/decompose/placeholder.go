package decompose

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/rigsplit/scene"
)

// PlaceholderMesh is a single triangle of the given size at head, fully
// weighted to one group named after bone.
func PlaceholderMesh(bone string, head mgl32.Vec3, size float32) *scene.Mesh {
	w := []scene.GroupWeight{{Group: 0, Weight: 1}}
	return &scene.Mesh{
		Vertices: []scene.Vertex{
			{Position: head, Weights: append([]scene.GroupWeight(nil), w...)},
			{Position: head.Add(mgl32.Vec3{size, 0, 0}), Weights: append([]scene.GroupWeight(nil), w...)},
			{Position: head.Add(mgl32.Vec3{0, size, 0}), Weights: append([]scene.GroupWeight(nil), w...)},
		},
		Faces:  []scene.Face{{Verts: []int{0, 1, 2}}},
		Groups: []scene.VertexGroup{{Name: bone, Index: 0}},
	}
}

// BuildPlaceholder adds a degenerate mesh bound to the root bone of arm so
// the exported rig always owns at least one skinned mesh.
func BuildPlaceholder(tx *scene.Tx, arm *scene.Object, opts Options) (*scene.Object, error) {
	if arm == nil || arm.Kind != scene.KindArmature || arm.Skeleton == nil {
		return nil, scene.Validationf("build placeholder", "no armature")
	}
	root := arm.Skeleton.Root()
	if root == nil {
		return nil, scene.Validationf("build placeholder", "armature %q has no bone", arm.Name)
	}
	size := opts.PlaceholderSize
	if size <= 0 {
		size = DefaultOptions().PlaceholderSize
	}

	o := scene.NewMeshObject(arm.Name+"_Placeholder", PlaceholderMesh(root.Name, root.Head(), size))
	o.Parent = arm
	o.Armature = arm
	o.Role = scene.RolePlaceholder
	o.Type = scene.Proxy
	if err := tx.AddObject(o, arm.Collection()); err != nil {
		return nil, err
	}
	return o, nil
}
