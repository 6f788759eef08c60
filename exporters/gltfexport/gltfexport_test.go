package gltfexport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"

	"github.com/mogaika/rigsplit/scene"
	"github.com/mogaika/rigsplit/utils/gltfutils"
)

func quad() *scene.Mesh {
	return &scene.Mesh{
		Vertices: []scene.Vertex{
			{Position: mgl32.Vec3{0, 0, 0}, Weights: []scene.GroupWeight{{Group: 0, Weight: 1}}},
			{Position: mgl32.Vec3{1, 0, 0}, Weights: []scene.GroupWeight{{Group: 0, Weight: 1}}},
			{Position: mgl32.Vec3{1, 1, 0}, Weights: []scene.GroupWeight{{Group: 1, Weight: 1}}},
			{Position: mgl32.Vec3{0, 1, 0}, Weights: []scene.GroupWeight{{Group: 1, Weight: 1}}},
		},
		Faces: []scene.Face{
			{Verts: []int{0, 1, 2, 3}, Material: 0},
			{Verts: []int{0, 1}, Material: 0},
		},
		Materials: []*scene.Material{{Name: "M_Base"}},
		Groups:    []scene.VertexGroup{{Name: "Root", Index: 0}, {Name: "Arm", Index: 1}},
	}
}

func isGLB(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("glTF")) {
		t.Errorf("%s is not a glb file", path)
	}
}

func TestInfluences(t *testing.T) {
	sb := &skinBinding{jointOfGroup: map[int]uint16{0: 0, 1: 1, 2: 2, 3: 3, 4: 4}}
	v := &scene.Vertex{Weights: []scene.GroupWeight{
		{Group: 0, Weight: 0.1},
		{Group: 1, Weight: 0.4},
		{Group: 2, Weight: 0.2},
		{Group: 3, Weight: 0.2},
		{Group: 4, Weight: 0.1},
		{Group: 9, Weight: 5},
	}}
	joints, weights := sb.influences(v)
	if joints[0] != 1 {
		t.Errorf("strongest joint %d, want 1", joints[0])
	}
	var sum float32
	for _, w := range weights {
		sum += w
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("weights sum to %v", sum)
	}

	joints, weights = sb.influences(&scene.Vertex{})
	if joints != [4]uint16{} || weights != [4]float32{1, 0, 0, 0} {
		t.Errorf("unweighted vertex got %v %v", joints, weights)
	}
}

func TestWriteMeshSkipsDegenerateFaces(t *testing.T) {
	gc := gltfutils.NewCacher(gltfutils.NewDocument())
	o := scene.NewMeshObject("Quad", quad())
	mi, ok := writeMesh(gc, o, mgl32.Ident4(), nil)
	if !ok {
		t.Fatal("mesh not written")
	}
	mesh := gc.Doc.Meshes[mi]
	if len(mesh.Primitives) != 1 {
		t.Fatalf("%d primitives, want 1", len(mesh.Primitives))
	}
	if n := gc.Doc.Accessors[*mesh.Primitives[0].Indices].Count; n != 6 {
		t.Errorf("%d indices, want 6", n)
	}
	if len(gc.Doc.Materials) != 1 || gc.Doc.Materials[0].Name != "M_Base" {
		t.Errorf("materials %v", gc.Doc.Materials)
	}
}

func TestExportStatic(t *testing.T) {
	s := scene.New()
	c := s.NewCollection("Crate")
	s.LinkCollection(s.Root, c)
	s.AddObject(scene.NewMeshObject("Crate", quad()), c)

	path := filepath.Join(t.TempDir(), "SM_Crate.glb")
	if err := New().ExportStaticMesh(c, path); err != nil {
		t.Fatal(err)
	}
	isGLB(t, path)

	empty := s.NewCollection("Empty")
	s.LinkCollection(s.Root, empty)
	if err := New().ExportStaticMesh(empty, filepath.Join(t.TempDir(), "SM_Empty.glb")); err == nil {
		t.Error("expected error for a collection without meshes")
	}
}

func TestExportStaticAppliesInstanceOffset(t *testing.T) {
	s := scene.New()
	c := s.NewCollection("Lamp")
	c.InstanceOffset = mgl32.Vec3{2, 0, 1}
	s.LinkCollection(s.Root, c)
	o := scene.NewMeshObject("Lamp", quad())
	o.Local = mgl32.Translate3D(5, 0, 1)
	s.AddObject(o, c)

	path := filepath.Join(t.TempDir(), "SM_Lamp.glb")
	if err := New().ExportStaticMesh(c, path); err != nil {
		t.Fatal(err)
	}
	doc, err := gltf.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Nodes) != 1 {
		t.Fatalf("%d nodes, want 1", len(doc.Nodes))
	}
	got := gltfutils.NodeTransform(doc.Nodes[0]).Col(3).Vec3()
	if !got.ApproxEqual(mgl32.Vec3{3, 0, 0}) {
		t.Errorf("node at %v, want [3 0 0]", got)
	}

	// a single object exports in world space
	if err := New().ExportStaticMesh(o, path); err != nil {
		t.Fatal(err)
	}
	if doc, err = gltf.Open(path); err != nil {
		t.Fatal(err)
	}
	if got := gltfutils.NodeTransform(doc.Nodes[0]).Col(3).Vec3(); !got.ApproxEqual(mgl32.Vec3{5, 0, 1}) {
		t.Errorf("object node at %v, want [5 0 1]", got)
	}
}

func TestExportSkeletal(t *testing.T) {
	s := scene.New()
	c := s.NewCollection("Robot")
	s.LinkCollection(s.Root, c)
	skel := &scene.Skeleton{}
	skel.AddBone("Root", "", mgl32.Ident4())
	skel.AddBone("Arm", "Root", mgl32.Translate3D(0, 1, 0))
	arm := scene.NewArmatureObject("Armature", skel)
	s.AddObject(arm, c)
	body := scene.NewMeshObject("Body", quad())
	body.Parent = arm
	s.AddObject(body, c)

	path := filepath.Join(t.TempDir(), "SK_Robot.glb")
	if err := New().ExportSkeletal(c, path, true); err != nil {
		t.Fatal(err)
	}
	isGLB(t, path)

	noArm := s.NewCollection("NoArm")
	s.LinkCollection(s.Root, noArm)
	s.AddObject(scene.NewMeshObject("Loose", quad()), noArm)
	if err := New().ExportSkeletal(noArm, filepath.Join(t.TempDir(), "SK_NoArm.glb"), false); err == nil {
		t.Error("expected error for a rig without armature")
	}
}
