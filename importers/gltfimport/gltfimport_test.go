package gltfimport

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/rigsplit/exporters/gltfexport"
	"github.com/mogaika/rigsplit/scene"
	"github.com/mogaika/rigsplit/utils/gltfutils"
)

func boxMesh() *scene.Mesh {
	return &scene.Mesh{
		Vertices: []scene.Vertex{
			{Position: mgl32.Vec3{0, 0, 0}, Weights: []scene.GroupWeight{{Group: 0, Weight: 1}}},
			{Position: mgl32.Vec3{1, 0, 0}, Weights: []scene.GroupWeight{{Group: 0, Weight: 1}}},
			{Position: mgl32.Vec3{1, 1, 0}, Weights: []scene.GroupWeight{{Group: 1, Weight: 1}}},
			{Position: mgl32.Vec3{0, 1, 0}, Weights: []scene.GroupWeight{{Group: 0, Weight: 0.5}, {Group: 1, Weight: 0.5}}},
		},
		Faces: []scene.Face{
			{Verts: []int{0, 1, 2, 3}, Material: 0, UVs: []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}},
			{Verts: []int{0, 2, 3}, Material: 1},
		},
		Materials: []*scene.Material{{Name: "M_Base"}, {Name: "M_Trim"}},
		Groups:    []scene.VertexGroup{{Name: "Root", Index: 0}, {Name: "Arm", Index: 1}},
	}
}

func rig(t *testing.T) *scene.Collection {
	s := scene.New()
	c := s.NewCollection("Robot")
	s.LinkCollection(s.Root, c)
	skel := &scene.Skeleton{}
	if _, err := skel.AddBone("Root", "", mgl32.Ident4()); err != nil {
		t.Fatal(err)
	}
	if _, err := skel.AddBone("Arm", "Root", mgl32.Translate3D(0, 1, 0)); err != nil {
		t.Fatal(err)
	}
	arm := scene.NewArmatureObject("Armature", skel)
	arm.Local = mgl32.Translate3D(0, 0, 1)
	s.AddObject(arm, c)
	body := scene.NewMeshObject("Body", boxMesh())
	body.Armature = arm
	s.AddObject(body, c)
	return c
}

func TestImportStaticRoundTrip(t *testing.T) {
	s := scene.New()
	c := s.NewCollection("Crate")
	s.LinkCollection(s.Root, c)
	o := scene.NewMeshObject("Crate", boxMesh())
	o.Local = mgl32.Translate3D(2, 0, 0)
	s.AddObject(o, c)

	path := filepath.Join(t.TempDir(), "SM_Crate.glb")
	if err := gltfexport.New().ExportStaticMesh(c, path); err != nil {
		t.Fatal(err)
	}

	dst := scene.New()
	ic, err := ImportFile(dst, path)
	if err != nil {
		t.Fatal(err)
	}
	if ic.Name != "SM_Crate" || ic.Parent() != dst.Root {
		t.Errorf("collection %q linked under %v", ic.Name, ic.Parent())
	}
	if len(ic.Objects) != 1 {
		t.Fatalf("%d objects imported, want 1", len(ic.Objects))
	}
	got := ic.Objects[0]
	if got.Name != "Crate" || got.Kind != scene.KindMesh {
		t.Errorf("imported %q kind %v", got.Name, got.Kind)
	}
	if !got.World().ApproxEqualThreshold(o.World(), 1e-5) {
		t.Errorf("world %v, want %v", got.World(), o.World())
	}
	if got.Mesh.FaceCount() != 3 {
		t.Errorf("%d faces, want 3", got.Mesh.FaceCount())
	}
	if len(got.Mesh.Materials) != 2 {
		t.Errorf("%d materials, want 2", len(got.Mesh.Materials))
	}
	if uv := got.Mesh.Faces[0].UVs; len(uv) != 3 || !uv[1].ApproxEqual(mgl32.Vec2{1, 0}) {
		t.Errorf("first face uvs %v", uv)
	}
}

func TestImportSkeletalRoundTrip(t *testing.T) {
	for _, armRoot := range []bool{false, true} {
		c := rig(t)
		path := filepath.Join(t.TempDir(), "SK_Robot.glb")
		if err := gltfexport.New().ExportSkeletal(c, path, armRoot); err != nil {
			t.Fatal(err)
		}

		dst := scene.New()
		ic, err := ImportFile(dst, path)
		if err != nil {
			t.Fatal(err)
		}
		arm := ic.Armature()
		if arm == nil {
			t.Fatalf("armature root %v: no armature imported", armRoot)
		}
		if armRoot && arm.Name != "Armature" {
			t.Errorf("armature named %q", arm.Name)
		}
		if len(arm.Skeleton.Bones) != 2 || arm.Skeleton.Bones[0].Name != "Root" {
			t.Fatalf("bones %v", arm.Skeleton.Bones)
		}
		src := c.Armature()
		b := arm.Skeleton.Bone("Arm")
		if b == nil || b.Parent == nil || b.Parent.Name != "Root" {
			t.Fatal("Arm bone not parented to Root")
		}
		want := src.BoneWorld(src.Skeleton.Bone("Arm"))
		if got := arm.BoneWorld(b); !got.ApproxEqualThreshold(want, 1e-5) {
			t.Errorf("armature root %v: Arm world %v, want %v", armRoot, got, want)
		}

		body := dst.Object("Body")
		if body == nil {
			t.Fatal("body not imported")
		}
		if body.SkinArmature() != arm {
			t.Error("body not deformed by the imported armature")
		}
		names := map[string]bool{}
		for _, g := range body.Mesh.Groups {
			names[g.Name] = true
		}
		if !names["Root"] || !names["Arm"] || len(names) != 2 {
			t.Errorf("groups %v", body.Mesh.Groups)
		}
		for _, v := range body.Mesh.Vertices {
			var sum float32
			for _, w := range v.Weights {
				sum += w.Weight
			}
			if sum < 0.999 || sum > 1.001 {
				t.Errorf("vertex weights sum to %v", sum)
			}
		}
	}
}

func triangleMesh(doc *gltf.Document, name string, indices []uint16) uint32 {
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: name,
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
			Attributes: map[string]uint32{"POSITION": modeler.WritePosition(doc, positions)},
		}},
	})
	return uint32(len(doc.Meshes) - 1)
}

func TestImportRejectsOutOfRangeIndices(t *testing.T) {
	doc := gltfutils.NewDocument()
	good := triangleMesh(doc, "Good", []uint16{0, 1, 2})
	bad := triangleMesh(doc, "Bad", []uint16{0, 1, 7})
	doc.Nodes = []*gltf.Node{
		{Name: "Good", Mesh: gltf.Index(good)},
		{Name: "Bad", Mesh: gltf.Index(bad)},
	}

	s := scene.New()
	objects, collections := len(s.Objects()), len(s.Collections())
	c, err := Import(s, doc, "Broken")
	if !scene.IsValidation(err) {
		t.Fatalf("got %v, want a validation error", err)
	}
	if c != nil {
		t.Errorf("collection %q returned on error", c.Name)
	}
	if n := len(s.Objects()); n != objects {
		t.Errorf("%d objects left registered, want %d", n, objects)
	}
	if n := len(s.Collections()); n != collections {
		t.Errorf("%d collections left registered, want %d", n, collections)
	}
	if s.Object("Good") != nil || len(s.Root.Children) != 0 {
		t.Error("partial import left in the scene")
	}
}
