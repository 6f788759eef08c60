package decompose

import (
	"sort"

	"github.com/mogaika/rigsplit/scene"
	"github.com/mogaika/rigsplit/utils"
)

// BaseName is the source name without its static or skeletal prefix.
func BaseName(name string, opts Options) string {
	return utils.StripPrefix(name, opts.SkeletalPrefix, opts.StaticPrefix)
}

func FragmentName(source, group string, opts Options) string {
	return opts.StaticPrefix + BaseName(source, opts) + "_" + group
}

// ExtractGroup returns a copy of m holding only vertices with a strictly
// positive weight for g. Faces touching a dropped vertex are dropped as well
// and g becomes the only vertex group, reindexed to 0.
func ExtractGroup(m *scene.Mesh, g scene.VertexGroup) *scene.Mesh {
	frag := m.Copy()
	frag.DeleteVertices(func(_ int, v *scene.Vertex) bool {
		return v.Weight(g.Index) <= 0
	})
	frag.KeepGroup(g.Index)
	return frag
}

// SortedGroups lists vertex groups by index.
func SortedGroups(m *scene.Mesh) []scene.VertexGroup {
	groups := append([]scene.VertexGroup(nil), m.Groups...)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Index < groups[j].Index })
	return groups
}

// Fragment is one extracted group of a source mesh.
type Fragment struct {
	Object *scene.Object
	Group  string
}

// Partition creates one fragment object per vertex group that keeps at least
// one vertex and links them into c. A vertex weighted in several groups ends
// up in every matching fragment.
func Partition(tx *scene.Tx, src *scene.Object, c *scene.Collection, opts Options) ([]Fragment, error) {
	if src.Mesh == nil || len(src.Mesh.Groups) == 0 {
		return nil, scene.Validationf("partition", "object %q has no vertex group", src.Name)
	}

	groups := SortedGroups(src.Mesh)
	var frags []Fragment
	for i, g := range groups {
		opts.progress("partition", i, len(groups))

		mesh := ExtractGroup(src.Mesh, g)
		if mesh.VertexCount() == 0 {
			continue
		}

		o := tx.Duplicate(src, FragmentName(src.Name, g.Name, opts))
		o.Mesh = mesh
		o.Unparent()
		o.Armature = nil
		o.Hidden = false
		o.Split = false
		o.Role = scene.RoleNone
		o.Type = scene.Unclassified
		if err := tx.LinkObject(c, o); err != nil {
			return nil, err
		}
		frags = append(frags, Fragment{Object: o, Group: g.Name})
	}
	opts.progress("partition", len(groups), len(groups))

	if len(frags) == 0 {
		return nil, scene.Validationf("partition", "no vertex of %q is weighted to any of its %d groups", src.Name, len(groups))
	}
	return frags, nil
}

// FragmentCollection returns the SkeletalMesh collection fragments of src are
// linked into. An existing child of src's collection with the same name is
// reused when it is unclassified or already SkeletalMesh.
func FragmentCollection(tx *scene.Tx, src *scene.Object, opts Options) (*scene.Collection, error) {
	parent := src.Collection()
	if parent == nil {
		parent = tx.Scene.Root
	}
	name := opts.StaticPrefix + BaseName(src.Name, opts)

	c := parent.Child(name)
	if c == nil || (c.Type != scene.Unclassified && c.Type != scene.SkeletalMesh) {
		var err error
		if c, err = tx.NewCollection(name, parent); err != nil {
			return nil, err
		}
	}
	if err := tx.SetCollectionType(c, scene.SkeletalMesh); err != nil {
		return nil, err
	}
	return c, nil
}
