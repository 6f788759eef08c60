package decompose

import (
	"github.com/mogaika/rigsplit/scene"
)

// SplitMesh partitions the faces of m by decal material. base keeps the
// other faces and drops the decal materials, decal keeps only decal faces and
// decal materials. Vertices that lose their last face are removed from that
// side. decal is nil and base is m itself when no face uses a decal material.
func SplitMesh(m *scene.Mesh, marker string) (base, decal *scene.Mesh, err error) {
	isDecalFace := func(_ int, f *scene.Face) bool {
		return m.FaceMaterial(f).IsDecal(marker)
	}

	found := false
	for i := range m.Faces {
		if isDecalFace(i, &m.Faces[i]) {
			found = true
			break
		}
	}
	if !found {
		return m, nil, nil
	}

	usedBefore := m.UsedVertices()

	decal = m.Copy()
	decal.DeleteFaces(func(i int, f *scene.Face) bool { return !decal.FaceMaterial(f).IsDecal(marker) })
	if _, err = decal.RemoveMaterials(func(mat *scene.Material) bool { return !mat.IsDecal(marker) }); err != nil {
		return nil, nil, err
	}
	dropOrphans(decal, usedBefore)

	base = m.Copy()
	base.DeleteFaces(func(i int, f *scene.Face) bool { return base.FaceMaterial(f).IsDecal(marker) })
	if _, err = base.RemoveMaterials(func(mat *scene.Material) bool { return mat.IsDecal(marker) }); err != nil {
		return nil, nil, err
	}
	dropOrphans(base, usedBefore)

	return base, decal, nil
}

func dropOrphans(m *scene.Mesh, usedBefore []bool) {
	used := m.UsedVertices()
	m.DeleteVertices(func(i int, _ *scene.Vertex) bool {
		return usedBefore[i] && !used[i]
	})
}

// SplitDecals moves the decal faces of frag into a sibling object tagged
// Decal. Returns nil when frag has no decal face.
func SplitDecals(tx *scene.Tx, frag *scene.Object, opts Options) (*scene.Object, error) {
	if frag.Mesh == nil {
		return nil, nil
	}
	base, decal, err := SplitMesh(frag.Mesh, opts.DecalMarker)
	if err != nil {
		return nil, err
	}
	if decal == nil {
		return nil, nil
	}
	c := frag.Collection()
	if c == nil {
		return nil, scene.Validationf("split decals", "fragment %q is not linked", frag.Name)
	}

	old := frag.Mesh
	frag.Mesh = base
	tx.Record(func() { frag.Mesh = old })

	d := tx.Duplicate(frag, frag.Name+"_Decal")
	d.Mesh = decal
	d.Type = scene.Decal
	if err := tx.LinkObject(c, d); err != nil {
		return nil, err
	}
	return d, nil
}
