package yamlscene

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/rigsplit/scene"
)

const heroDocument = `
document_path: /work/hero.blend
root: [Hero, Weapon]
collections:
  - name: Hero
    properties: {collection_type: STATIC_MESH}
    objects: [Hero_Body, Hero_Origin]
  - name: Weapon
    hidden: true
    children: [Weapon_Scabbard]
    properties: {collection_type: prop}
  - name: Weapon_Scabbard
  - name: Trees
    instance_offset: [1, 0, 0]
    objects: [Trunk]
objects:
  - name: Hero_Origin
    kind: empty
    matrix: [1,0,0,0, 0,1,0,0, 0,0,1,0, 5,0,0,1]
    properties: {origin_marker: "true"}
  - name: Hero_Body
    kind: mesh
    parent: Hero_Origin
    mesh:
      groups: [Arm, Leg]
      materials: [M_Skin]
      vertices:
        - {co: [0, 0, 0], weights: {Arm: 1}}
        - {co: [1, 0, 0], weights: {Leg: 0.5, Arm: 0.5}}
        - {co: [1, 1, 0]}
      faces:
        - {verts: [0, 1, 2], uvs: [[0, 0], [1, 0], [1, 1]]}
  - name: Trunk
    kind: mesh
    mesh:
      vertices: [{co: [0, 0, 0]}, {co: [0, 1, 0]}, {co: [0, 0, 1]}]
      faces: [{verts: [0, 1, 2]}]
  - name: Forest
    kind: empty
    instance: {collection: Trees, reset_transform: true}
`

func TestLoad(t *testing.T) {
	ctx, err := Load(strings.NewReader(heroDocument))
	if err != nil {
		t.Fatal(err)
	}
	s := ctx.Scene
	if ctx.DocumentPath != "/work/hero.blend" {
		t.Errorf("document path %q", ctx.DocumentPath)
	}

	hero := s.Collection("Hero")
	if hero == nil || hero.Type != scene.StaticMesh || hero.Parent() != s.Root {
		t.Fatalf("hero collection %+v", hero)
	}
	if weapon := s.Collection("Weapon"); weapon.Type != scene.Prop || !weapon.Hidden {
		t.Errorf("weapon collection type %v hidden %v", weapon.Type, weapon.Hidden)
	}
	if sc := s.Collection("Weapon_Scabbard"); sc.Parent() != s.Collection("Weapon") {
		t.Error("scabbard not linked under weapon")
	}
	trees := s.Collection("Trees")
	if s.Linked(trees) {
		t.Error("library collection linked in the scene")
	}
	if trees.InstanceOffset != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("instance offset %v", trees.InstanceOffset)
	}

	marker := hero.OriginMarker()
	if marker == nil || marker.Name != "Hero_Origin" {
		t.Fatalf("origin marker %v", marker)
	}
	body := s.Object("Hero_Body")
	if body.Parent != marker {
		t.Error("body not parented to the marker")
	}
	if got := body.World().Col(3).Vec3(); got != (mgl32.Vec3{5, 0, 0}) {
		t.Errorf("body world position %v", got)
	}
	if w := body.Mesh.Vertices[1].Weight(1); w != 0.5 {
		t.Errorf("Leg weight %v", w)
	}
	if len(body.Mesh.Vertices[1].Weights) != 2 || body.Mesh.Vertices[1].Weights[0].Group != 0 {
		t.Errorf("weights not in group order: %v", body.Mesh.Vertices[1].Weights)
	}

	forest := s.Object("Forest")
	if forest.Instance == nil || forest.Instance.Target != trees || !forest.Instance.ResetTransform {
		t.Errorf("forest instance %+v", forest.Instance)
	}
	if forest.Collection() != s.Root {
		t.Error("unowned object not linked to the root")
	}
}

func TestRoundTrip(t *testing.T) {
	ctx, err := Load(strings.NewReader(heroDocument))
	if err != nil {
		t.Fatal(err)
	}
	ctx.Scene.Object("Hero_Body").Split = true

	path := filepath.Join(t.TempDir(), "hero.yaml")
	if err := SaveFile(path, ctx); err != nil {
		t.Fatal(err)
	}
	again, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if again.Scene.Stats() != ctx.Scene.Stats() {
		t.Errorf("stats %v, want %v", again.Scene.Stats(), ctx.Scene.Stats())
	}
	var a, b bytes.Buffer
	if err := Save(&a, ctx); err != nil {
		t.Fatal(err)
	}
	if err := Save(&b, again); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Errorf("documents differ after round trip:\n%s\n---\n%s", a.String(), b.String())
	}
	if !again.Scene.Object("Hero_Body").Split {
		t.Error("split flag lost")
	}
}

func TestLoadFileKeepsPath(t *testing.T) {
	ctx := scene.NewContext(scene.New())
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := SaveFile(path, ctx); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.DocumentPath != path {
		t.Errorf("document path %q, want %q", loaded.DocumentPath, path)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"unknown type": `
collections:
  - name: A
    properties: {collection_type: LOD}
`,
		"short matrix": `
objects:
  - name: A
    kind: empty
    matrix: [1, 0, 0]
`,
		"unknown parent": `
objects:
  - name: A
    kind: empty
    parent: B
`,
		"parent cycle": `
objects:
  - {name: A, kind: empty, parent: B}
  - {name: B, kind: empty, parent: A}
`,
		"face out of range": `
objects:
  - name: A
    kind: mesh
    mesh:
      vertices: [{co: [0, 0, 0]}]
      faces: [{verts: [0, 1, 2]}]
`,
		"both roles": `
objects:
  - name: A
    kind: empty
    properties: {origin_marker: "true", placeholder: "true"}
`,
		"collection cycle": `
collections:
  - {name: A, children: [B]}
  - {name: B, children: [A]}
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
