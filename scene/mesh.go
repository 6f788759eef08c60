package scene

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

type GroupWeight struct {
	Group  int
	Weight float32
}

type Vertex struct {
	Position mgl32.Vec3
	Weights  []GroupWeight
}

// Weight returns the vertex weight for a group index, 0 when unassigned.
func (v *Vertex) Weight(group int) float32 {
	for _, w := range v.Weights {
		if w.Group == group {
			return w.Weight
		}
	}
	return 0
}

type Face struct {
	Verts    []int
	Material int
	UVs      []mgl32.Vec2 // one per corner, may be empty
}

type Material struct {
	Name string
}

// IsDecal reports whether the material name carries the decal marker.
func (m *Material) IsDecal(marker string) bool {
	if m == nil || marker == "" {
		return false
	}
	return strings.Contains(strings.ToLower(m.Name), strings.ToLower(marker))
}

type VertexGroup struct {
	Name  string
	Index int
}

// Mesh is the geometry store of a mesh object. Vertex positions are in the
// owning object's local space.
type Mesh struct {
	Vertices  []Vertex
	Faces     []Face
	Materials []*Material
	Groups    []VertexGroup
}

func (m *Mesh) VertexCount() int { return len(m.Vertices) }
func (m *Mesh) FaceCount() int   { return len(m.Faces) }

// Copy returns a deep copy. Materials are shared the same way linked
// material data is shared between duplicated meshes.
func (m *Mesh) Copy() *Mesh {
	c := &Mesh{
		Vertices:  make([]Vertex, len(m.Vertices)),
		Faces:     make([]Face, len(m.Faces)),
		Materials: append([]*Material(nil), m.Materials...),
		Groups:    append([]VertexGroup(nil), m.Groups...),
	}
	for i, v := range m.Vertices {
		c.Vertices[i] = Vertex{
			Position: v.Position,
			Weights:  append([]GroupWeight(nil), v.Weights...),
		}
	}
	for i, f := range m.Faces {
		c.Faces[i] = Face{
			Verts:    append([]int(nil), f.Verts...),
			Material: f.Material,
			UVs:      append([]mgl32.Vec2(nil), f.UVs...),
		}
	}
	return c
}

func (m *Mesh) GroupByName(name string) (VertexGroup, bool) {
	for _, g := range m.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return VertexGroup{}, false
}

// DeleteVertices removes every vertex matching pred together with every face
// referencing one of them. Remaining indices are compacted.
// Returns the number of removed vertices.
func (m *Mesh) DeleteVertices(pred func(i int, v *Vertex) bool) int {
	remap := make([]int, len(m.Vertices))
	kept := m.Vertices[:0]
	removed := 0
	for i := range m.Vertices {
		if pred(i, &m.Vertices[i]) {
			remap[i] = -1
			removed++
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, m.Vertices[i])
	}
	m.Vertices = kept
	if removed == 0 {
		return 0
	}

	faces := m.Faces[:0]
	for _, f := range m.Faces {
		valid := true
		for j, vi := range f.Verts {
			if remap[vi] < 0 {
				valid = false
				break
			}
			f.Verts[j] = remap[vi]
		}
		if valid {
			faces = append(faces, f)
		}
	}
	m.Faces = faces
	return removed
}

// DeleteFaces removes matching faces only; vertices stay.
func (m *Mesh) DeleteFaces(pred func(i int, f *Face) bool) int {
	faces := m.Faces[:0]
	removed := 0
	for i := range m.Faces {
		if pred(i, &m.Faces[i]) {
			removed++
			continue
		}
		faces = append(faces, m.Faces[i])
	}
	m.Faces = faces
	return removed
}

// UsedVertices marks vertices referenced by at least one face.
func (m *Mesh) UsedVertices() []bool {
	used := make([]bool, len(m.Vertices))
	for _, f := range m.Faces {
		for _, vi := range f.Verts {
			used[vi] = true
		}
	}
	return used
}

// KeepGroup strips every vertex group except the given one, which becomes index 0.
func (m *Mesh) KeepGroup(index int) {
	var keep VertexGroup
	found := false
	for _, g := range m.Groups {
		if g.Index == index {
			keep, found = g, true
			break
		}
	}
	if !found {
		m.Groups = nil
	} else {
		keep.Index = 0
		m.Groups = []VertexGroup{keep}
	}

	for i := range m.Vertices {
		v := &m.Vertices[i]
		var weights []GroupWeight
		if found {
			for _, w := range v.Weights {
				if w.Group == index {
					weights = append(weights, GroupWeight{Group: 0, Weight: w.Weight})
				}
			}
		}
		v.Weights = weights
	}
}

// RemoveMaterials drops matching material slots and remaps face material
// indices. Removing a slot a face still uses fails and leaves m untouched.
// Faces without a material, slots outside the list, keep their index.
func (m *Mesh) RemoveMaterials(pred func(*Material) bool) (int, error) {
	remap := make([]int, len(m.Materials))
	removed := 0
	for i, mat := range m.Materials {
		if pred(mat) {
			remap[i] = -1
			removed++
			continue
		}
		remap[i] = i - removed
	}
	if removed == 0 {
		return 0, nil
	}
	for i := range m.Faces {
		if s := m.Faces[i].Material; s >= 0 && s < len(remap) && remap[s] < 0 {
			return 0, Validationf("remove materials", "face %d still uses material %q", i, m.Materials[s].Name)
		}
	}

	kept := m.Materials[:0]
	for i, mat := range m.Materials {
		if remap[i] >= 0 {
			kept = append(kept, mat)
		}
	}
	m.Materials = kept
	for i := range m.Faces {
		f := &m.Faces[i]
		if f.Material >= 0 && f.Material < len(remap) {
			f.Material = remap[f.Material]
		}
	}
	return removed, nil
}

// FaceMaterial returns the material of a face or nil for an empty slot.
func (m *Mesh) FaceMaterial(f *Face) *Material {
	if f.Material < 0 || f.Material >= len(m.Materials) {
		return nil
	}
	return m.Materials[f.Material]
}

// Transform applies mat to every vertex position.
func (m *Mesh) Transform(mat mgl32.Mat4) {
	for i := range m.Vertices {
		m.Vertices[i].Position = mgl32.TransformCoordinate(m.Vertices[i].Position, mat)
	}
}
