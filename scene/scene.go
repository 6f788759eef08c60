package scene

import (
	"fmt"
	"regexp"
	"strconv"
)

// Scene owns every object and collection. Collections not reachable from Root
// live in the library, e.g. prototypes referenced by instances.
type Scene struct {
	Root *Collection

	objects     []*Object
	collections []*Collection
}

func New() *Scene {
	return &Scene{Root: &Collection{Name: "Scene Collection"}}
}

func (s *Scene) Objects() []*Object { return append([]*Object(nil), s.objects...) }

func (s *Scene) Collections() []*Collection { return append([]*Collection(nil), s.collections...) }

func (s *Scene) Object(name string) *Object {
	for _, o := range s.objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

func (s *Scene) Collection(name string) *Collection {
	for _, c := range s.collections {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var numericSuffix = regexp.MustCompile(`^(.*)\.(\d{3,})$`)

func uniqueName(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	stem := base
	if m := numericSuffix.FindStringSubmatch(base); m != nil {
		stem = m[1]
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s.%03d", stem, i)
		if !taken(name) {
			return name
		}
	}
}

func (s *Scene) UniqueObjectName(base string) string {
	return uniqueName(base, func(n string) bool { return s.Object(n) != nil })
}

func (s *Scene) UniqueCollectionName(base string) string {
	return uniqueName(base, func(n string) bool { return s.Collection(n) != nil || n == s.Root.Name })
}

// AddObject registers o and links it into c (Root when c is nil).
// The name is made unique first.
func (s *Scene) AddObject(o *Object, c *Collection) error {
	if o.Name == "" {
		return Validationf("add object", "empty object name")
	}
	for _, existing := range s.objects {
		if existing == o {
			return Validationf("add object", "object %q already added", o.Name)
		}
	}
	if o.collection != nil {
		return Validationf("add object", "object %q already linked in %q", o.Name, o.collection.Name)
	}
	if c == nil {
		c = s.Root
	}
	o.Name = s.UniqueObjectName(o.Name)
	s.objects = append(s.objects, o)
	return s.LinkObject(c, o)
}

// RemoveObject unlinks and forgets o. Children objects are unparented in place.
func (s *Scene) RemoveObject(o *Object) {
	s.UnlinkObject(o)
	for i, so := range s.objects {
		if so == o {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			break
		}
	}
	for _, so := range s.objects {
		if so.Parent == o {
			so.Unparent()
		}
		if so.Armature == o {
			so.Armature = nil
		}
	}
}

func (s *Scene) RenameObject(o *Object, name string) string {
	if o.Name == name {
		return name
	}
	o.Name = s.UniqueObjectName(name)
	return o.Name
}

func (s *Scene) LinkObject(c *Collection, o *Object) error {
	if o.collection != nil {
		return Validationf("link object", "object %q already linked in %q", o.Name, o.collection.Name)
	}
	c.Objects = append(c.Objects, o)
	o.collection = c
	return nil
}

func (s *Scene) UnlinkObject(o *Object) {
	c := o.collection
	if c == nil {
		return
	}
	for i, co := range c.Objects {
		if co == o {
			c.Objects = append(c.Objects[:i], c.Objects[i+1:]...)
			break
		}
	}
	o.collection = nil
}

// NewCollection registers an unlinked collection with a unique name.
func (s *Scene) NewCollection(name string) *Collection {
	c := &Collection{Name: s.UniqueCollectionName(name)}
	s.collections = append(s.collections, c)
	return c
}

// RemoveCollection unlinks c, moves its children to the library and forgets it.
// Objects still linked in c are unlinked but stay registered.
func (s *Scene) RemoveCollection(c *Collection) {
	s.UnlinkCollection(c)
	for _, ch := range append([]*Collection(nil), c.Children...) {
		s.UnlinkCollection(ch)
	}
	for _, o := range append([]*Object(nil), c.Objects...) {
		s.UnlinkObject(o)
	}
	for i, sc := range s.collections {
		if sc == c {
			s.collections = append(s.collections[:i], s.collections[i+1:]...)
			break
		}
	}
}

// LinkCollection links child under parent, keeping the hierarchy a forest.
func (s *Scene) LinkCollection(parent, child *Collection) error {
	switch {
	case child == s.Root:
		return Validationf("link collection", "scene root can not be linked")
	case child.parent != nil:
		return Validationf("link collection", "collection %q already linked in %q", child.Name, child.parent.Name)
	case child == parent || child.IsAncestorOf(parent):
		return Validationf("link collection", "linking %q under %q creates a cycle", child.Name, parent.Name)
	}
	parent.Children = append(parent.Children, child)
	child.parent = parent
	return nil
}

func (s *Scene) UnlinkCollection(child *Collection) {
	p := child.parent
	if p == nil {
		return
	}
	for i, ch := range p.Children {
		if ch == child {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			break
		}
	}
	child.parent = nil
}

// Linked reports whether c is reachable from the scene root.
func (s *Scene) Linked(c *Collection) bool {
	return c == s.Root || s.Root.IsAncestorOf(c)
}

// Duplicate copies an object and its mesh data. The copy keeps parent,
// armature and transform, is registered under a unique name and left unlinked.
func (s *Scene) Duplicate(o *Object, name string) *Object {
	d := *o
	d.collection = nil
	if o.Mesh != nil {
		d.Mesh = o.Mesh.Copy()
	}
	if o.Instance != nil {
		ref := *o.Instance
		d.Instance = &ref
	}
	if name == "" {
		name = o.Name
	}
	d.Name = s.UniqueObjectName(name)
	s.objects = append(s.objects, &d)
	return &d
}

// VisibleObjects lists objects that are visible and linked in the scene tree.
func (s *Scene) VisibleObjects() []*Object {
	var r []*Object
	s.Root.Walk(func(c *Collection, _ int) bool {
		if c.Hidden {
			return false
		}
		for _, o := range c.Objects {
			if !o.Hidden {
				r = append(r, o)
			}
		}
		return true
	})
	return r
}

// Stats is a cheap fingerprint of the scene size.
type Stats struct {
	Objects     int
	Collections int
}

func (s *Scene) Stats() Stats {
	return Stats{Objects: len(s.objects), Collections: len(s.collections)}
}

func (st Stats) String() string {
	return "objects=" + strconv.Itoa(st.Objects) + " collections=" + strconv.Itoa(st.Collections)
}
