package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Bone struct {
	Name string
	// Bind is the rest pose in armature space.
	Bind   mgl32.Mat4
	Parent *Bone
}

// Head is the bone origin in armature space.
func (b *Bone) Head() mgl32.Vec3 { return b.Bind.Col(3).Vec3() }

// Skeleton keeps bones ordered so that parents come before their children.
type Skeleton struct {
	Bones []*Bone
}

func (s *Skeleton) Bone(name string) *Bone {
	for _, b := range s.Bones {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Root returns the first bone without a parent.
func (s *Skeleton) Root() *Bone {
	for _, b := range s.Bones {
		if b.Parent == nil {
			return b
		}
	}
	return nil
}

// AddBone appends a bone. The parent, when named, must already exist.
func (s *Skeleton) AddBone(name, parent string, bind mgl32.Mat4) (*Bone, error) {
	if name == "" {
		return nil, Validationf("add bone", "empty bone name")
	}
	if s.Bone(name) != nil {
		return nil, Validationf("add bone", "bone %q already exists", name)
	}
	b := &Bone{Name: name, Bind: bind}
	if parent != "" {
		if b.Parent = s.Bone(parent); b.Parent == nil {
			return nil, Validationf("add bone", "parent %q of bone %q not found", parent, name)
		}
	}
	s.Bones = append(s.Bones, b)
	return b, nil
}

func (s *Skeleton) Index(b *Bone) int {
	for i, sb := range s.Bones {
		if sb == b {
			return i
		}
	}
	return -1
}
