package instances

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/rigsplit/scene"
)

func instancer(t *testing.T, s *scene.Scene, name string, in *scene.Collection, target *scene.Collection, reset bool) *scene.Object {
	t.Helper()
	o := scene.NewEmptyObject(name)
	o.Instance = &scene.InstanceReference{Target: target, ResetTransform: reset}
	if err := s.AddObject(o, in); err != nil {
		t.Fatal(err)
	}
	return o
}

func TestResolveLinksAndReleases(t *testing.T) {
	s := scene.New()
	lib := s.NewCollection("Tree")
	lib.Type = scene.Prop
	lib.InstanceOffset = mgl32.Vec3{1, 2, 3}
	if err := s.AddObject(scene.NewMeshObject("Trunk", &scene.Mesh{}), lib); err != nil {
		t.Fatal(err)
	}
	instancer(t, s, "Tree_Inst", nil, lib, true)

	scope, err := Resolve(s, s.VisibleObjects())
	if err != nil {
		t.Fatal(err)
	}
	if !s.Linked(lib) {
		t.Fatal("target not linked")
	}
	if lib.InstanceOffset != (mgl32.Vec3{}) {
		t.Errorf("offset %v not reset", lib.InstanceOffset)
	}
	if got := scope.Linked(); len(got) != 1 || got[0] != lib {
		t.Errorf("linked %v", got)
	}

	scope.Release()
	if s.Linked(lib) {
		t.Error("target still linked after release")
	}
	if lib.InstanceOffset != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("offset %v not restored", lib.InstanceOffset)
	}
	scope.Release()
	if s.Linked(lib) || lib.InstanceOffset != (mgl32.Vec3{1, 2, 3}) {
		t.Error("second release changed the scene")
	}
}

func TestResolveNestedAndCyclic(t *testing.T) {
	s := scene.New()
	a := s.NewCollection("A")
	b := s.NewCollection("B")
	instancer(t, s, "A_in_B", nil, a, false)
	// A and B instance each other
	s.UnlinkObject(s.Object("A_in_B"))
	if err := s.LinkObject(b, s.Object("A_in_B")); err != nil {
		t.Fatal(err)
	}
	instancer(t, s, "B_in_A", a, b, false)
	instancer(t, s, "Root_A", nil, a, false)

	scope, err := Resolve(s, s.VisibleObjects())
	if err != nil {
		t.Fatal(err)
	}
	if !s.Linked(a) || !s.Linked(b) {
		t.Errorf("nested instance not resolved: A=%v B=%v", s.Linked(a), s.Linked(b))
	}
	if len(scope.Linked()) != 2 {
		t.Errorf("linked %d collections, want 2", len(scope.Linked()))
	}
	scope.Release()
	if s.Linked(a) || s.Linked(b) || len(s.Root.Children) != 0 {
		t.Error("release left links behind")
	}
}

func TestResolveLinksOnlyTheTarget(t *testing.T) {
	s := scene.New()
	kit := s.NewCollection("Kit")
	window := s.NewCollection("Kit_Window")
	part := s.NewCollection("Kit_Door")
	handle := s.NewCollection("Kit_Door_Handle")
	for _, l := range []struct{ parent, child *scene.Collection }{
		{kit, window}, {kit, part}, {part, handle},
	} {
		if err := s.LinkCollection(l.parent, l.child); err != nil {
			t.Fatal(err)
		}
	}
	// the door sits first so restoring has to put it back in place
	kit.Children[0], kit.Children[1] = part, window
	instancer(t, s, "Door", nil, part, false)

	scope, err := Resolve(s, s.VisibleObjects())
	if err != nil {
		t.Fatal(err)
	}
	if part.Parent() != s.Root || !s.Linked(handle) {
		t.Error("target not linked under the root")
	}
	if s.Linked(kit) || s.Linked(window) {
		t.Error("library siblings became reachable")
	}
	scope.Release()
	if kit.Parent() != nil || part.Parent() != kit || handle.Parent() != part {
		t.Error("library hierarchy not restored")
	}
	if len(kit.Children) != 2 || kit.Children[0] != part || kit.Children[1] != window {
		t.Errorf("library children order %v", kit.Children)
	}
	if len(s.Root.Children) != 0 {
		t.Error("release left links behind")
	}
}

func TestResolveSkipsLinkedAndHidden(t *testing.T) {
	s := scene.New()
	linked := s.NewCollection("Linked")
	if err := s.LinkCollection(s.Root, linked); err != nil {
		t.Fatal(err)
	}
	lib := s.NewCollection("Lib")
	instancer(t, s, "ToLinked", nil, linked, false)
	hidden := instancer(t, s, "Hidden", nil, lib, false)
	hidden.Hidden = true

	scope, err := Resolve(s, s.Objects())
	if err != nil {
		t.Fatal(err)
	}
	if len(scope.Linked()) != 0 || s.Linked(lib) {
		t.Error("hidden instancer or linked target resolved")
	}
}
