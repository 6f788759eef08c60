package fbxbuilder

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/mogaika/fbx/builders/bfbx73"
)

func TestIdOfCaches(t *testing.T) {
	f := NewFBXBuilder("test.fbx")
	created := 0
	key := &struct{ name string }{"mat"}
	a := f.IdOf(key, func(int64) { created++ })
	b := f.IdOf(key, func(int64) { created++ })
	if a != b || created != 1 {
		t.Errorf("ids %d/%d created %d times", a, b, created)
	}
	if id, ok := f.Lookup(key); !ok || id != a {
		t.Errorf("lookup %d %v", id, ok)
	}
	if _, ok := f.Lookup("missing"); ok {
		t.Error("lookup of unknown key succeeded")
	}
}

func TestWriteBinary(t *testing.T) {
	f := NewFBXBuilder("test.fbx")
	id := f.GenerateId()
	f.AddObjects(bfbx73.Model(id, "Box\x00\x01Model", "Null").AddNodes(bfbx73.Version(232)))
	f.AddConnections(bfbx73.C("OO", id, int64(0)))

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("Kaydara FBX Binary")) {
		t.Errorf("unexpected header %q", buf.Bytes()[:min(len(buf.Bytes()), 20)])
	}

	path := filepath.Join(t.TempDir(), "box.fbx")
	if err := f.WriteFile(path); err != nil {
		t.Fatal(err)
	}
}

func TestCountDefinitions(t *testing.T) {
	f := NewFBXBuilder("test.fbx")
	f.AddObjects(
		bfbx73.Model(f.GenerateId(), "A\x00\x01Model", "Null"),
		bfbx73.Model(f.GenerateId(), "B\x00\x01Model", "Null"),
		Node("Deformer", f.GenerateId(), "\x00\x01Deformer", "Skin"),
	)
	f.countDefinitions()

	defs := f.Root().GetNode("Definitions")
	counts := map[string]int32{}
	for _, ot := range defs.GetNodes("ObjectType") {
		name := ot.Properties[0].(string)
		if name == "Model" || name == "Deformer" {
			counts[name] = ot.GetNode("Count").Properties[0].(int32)
		}
	}
	if counts["Model"] != 2 || counts["Deformer"] != 1 {
		t.Errorf("counts %v", counts)
	}
	if total := defs.GetNode("Count").Properties[0].(int32); total != 4 {
		t.Errorf("total %d, want 4", total)
	}
}
