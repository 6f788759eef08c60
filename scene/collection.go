package scene

import "github.com/go-gl/mathgl/mgl32"

// Collection groups objects. Collections form a forest through their parent link.
type Collection struct {
	Name           string
	Type           CollectionType
	Hidden         bool
	InstanceOffset mgl32.Vec3

	Objects  []*Object
	Children []*Collection

	parent *Collection
}

func (c *Collection) Parent() *Collection { return c.parent }

// SetType assigns the type tag once. Re-tagging to a different type needs Retag.
func (c *Collection) SetType(t CollectionType) error {
	if !t.Valid() {
		return Validationf("tag collection", "invalid collection type %d for %q", int(t), c.Name)
	}
	if c.Type != Unclassified && c.Type != t {
		return Statef("tag collection", "collection %q is already tagged %v", c.Name, c.Type)
	}
	c.Type = t
	return nil
}

// Retag is the explicit operation for changing an existing tag.
func (c *Collection) Retag(t CollectionType) error {
	if !t.Valid() {
		return Validationf("retag collection", "invalid collection type %d for %q", int(t), c.Name)
	}
	c.Type = t
	return nil
}

// IsAncestorOf reports whether c is a strict ancestor of other.
func (c *Collection) IsAncestorOf(other *Collection) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == c {
			return true
		}
	}
	return false
}

// Ancestors lists parents from the closest one up.
func (c *Collection) Ancestors() []*Collection {
	var r []*Collection
	for p := c.parent; p != nil; p = p.parent {
		r = append(r, p)
	}
	return r
}

func (c *Collection) EffectivelyVisible() bool {
	for p := c; p != nil; p = p.parent {
		if p.Hidden {
			return false
		}
	}
	return true
}

// Walk visits c and its descendants depth-first in pre-order. Returning false
// from fn skips the subtree.
func (c *Collection) Walk(fn func(c *Collection, depth int) bool) {
	c.walk(fn, 0)
}

func (c *Collection) walk(fn func(c *Collection, depth int) bool, depth int) {
	if !fn(c, depth) {
		return
	}
	for _, child := range c.Children {
		child.walk(fn, depth+1)
	}
}

// OriginMarker returns the first origin marker object linked directly in c.
func (c *Collection) OriginMarker() *Object {
	for _, o := range c.Objects {
		if o.Role == RoleOriginMarker {
			return o
		}
	}
	return nil
}

func (c *Collection) Armature() *Object {
	for _, o := range c.Objects {
		if o.Kind == KindArmature {
			return o
		}
	}
	return nil
}

func (c *Collection) Child(name string) *Collection {
	for _, ch := range c.Children {
		if ch.Name == name {
			return ch
		}
	}
	return nil
}

func (c *Collection) SourceName() string { return c.Name }

// ExportSpace puts the instance offset of c at the file origin, the point an
// instance of c is placed by.
func (c *Collection) ExportSpace() mgl32.Mat4 {
	return mgl32.Translate3D(-c.InstanceOffset[0], -c.InstanceOffset[1], -c.InstanceOffset[2])
}

// ExportObjects collects visible objects of c and of every visible descendant
// that is unclassified or shares c's type. Descendants carrying another tag are
// export units of their own.
func (c *Collection) ExportObjects() []*Object {
	var r []*Object
	c.Walk(func(sub *Collection, depth int) bool {
		if sub.Hidden {
			return false
		}
		if depth > 0 && sub.Type != Unclassified && sub.Type != c.Type {
			return false
		}
		for _, o := range sub.Objects {
			if !o.Hidden {
				r = append(r, o)
			}
		}
		return true
	})
	return r
}
