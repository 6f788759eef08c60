package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mogaika/rigsplit/scene/yamlscene"
)

const robotDocument = `
root: [Robot]
collections:
  - name: Robot
    objects: [Armature, SK_Robot]
objects:
  - name: Armature
    kind: armature
    skeleton:
      - {name: Root}
      - {name: Arm, parent: Root, matrix: [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,1,0,1]}
  - name: SK_Robot
    kind: mesh
    armature: Armature
    mesh:
      groups: [Root, Arm]
      materials: [M_Body, M_Decal_Logo]
      vertices:
        - {co: [0, 0, 0], weights: {Root: 1}}
        - {co: [1, 0, 0], weights: {Root: 1}}
        - {co: [0, 0, 1], weights: {Root: 1}}
        - {co: [0, 1, 0], weights: {Arm: 1}}
        - {co: [1, 1, 0], weights: {Arm: 1}}
        - {co: [0, 1, 1], weights: {Arm: 1}}
        - {co: [1, 1, 1], weights: {Arm: 1}}
      faces:
        - {verts: [0, 1, 2]}
        - {verts: [3, 4, 5]}
        - {verts: [4, 6, 5], material: 1}
`

func writeScene(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "robot.yaml")
	if err := os.WriteFile(path, []byte(robotDocument), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runOK(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := run(args, &out); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestSplitThenExport(t *testing.T) {
	path := writeScene(t)

	out := runOK(t, "split", path, "SK_Robot")
	for _, want := range []string{"fragment SM_Robot_Root pivot Root", "fragment SM_Robot_Arm pivot Arm", "decal SM_Robot_Arm_Decal", "placeholder Armature_Placeholder"} {
		if !strings.Contains(out, want) {
			t.Errorf("split output misses %q:\n%s", want, out)
		}
	}

	ctx, err := yamlscene.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !ctx.Scene.Object("SK_Robot").Split {
		t.Error("split not saved")
	}

	var buf bytes.Buffer
	if err := run([]string{"split", path, "SK_Robot"}, &buf); err == nil {
		t.Error("second split succeeded")
	}

	out = runOK(t, "classify", path)
	if !strings.Contains(out, "RIG") || !strings.Contains(out, "SM_Robot [SKELETAL_MESH]") {
		t.Errorf("classify output:\n%s", out)
	}

	dir := filepath.Join(t.TempDir(), "out")
	out = runOK(t, "-format", "glb", "-out", dir, "export", path)
	for _, name := range []string{"SM_Robot_Root.glb", "SM_Robot_Arm.glb", "SM_Robot_Arm_Decal.glb", "SK_Robot.glb"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v\n%s", name, err, out)
		}
	}

	imported := filepath.Join(t.TempDir(), "imported.yaml")
	out = runOK(t, "import", imported, filepath.Join(dir, "SK_Robot.glb"))
	if !strings.Contains(out, "imported SK_Robot") {
		t.Errorf("import output %q", out)
	}
	ictx, err := yamlscene.LoadFile(imported)
	if err != nil {
		t.Fatal(err)
	}
	if c := ictx.Scene.Collection("SK_Robot"); c == nil || c.Armature() == nil {
		t.Error("imported rig has no armature")
	}
}

func TestTagAndDump(t *testing.T) {
	path := writeScene(t)
	runOK(t, "tag", path, "Robot", "prop")
	var buf bytes.Buffer
	if err := run([]string{"tag", path, "Robot", "STATIC_MESH"}, &buf); err == nil {
		t.Error("retag without flag succeeded")
	}
	if out := runOK(t, "tag", path, "Robot", "STATIC_MESH", "retag"); !strings.Contains(out, "STATIC_MESH") {
		t.Errorf("tag output %q", out)
	}

	if out := runOK(t, "dump", path); !strings.Contains(out, "collection_type: STATIC_MESH") {
		t.Errorf("dump output:\n%s", out)
	}
	if out := runOK(t, "dump", path, "Armature"); !strings.Contains(out, "Arm") {
		t.Errorf("object dump:\n%s", out)
	}
}

func TestUsageErrors(t *testing.T) {
	path := writeScene(t)
	for _, args := range [][]string{
		{},
		{"classify"},
		{"frobnicate", path},
		{"split", path},
		{"split", path, "Nope"},
		{"-format", "obj", "export", path},
		{"export", filepath.Join(t.TempDir(), "missing.yaml")},
	} {
		var buf bytes.Buffer
		if err := run(args, &buf); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}
