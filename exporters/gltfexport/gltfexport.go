// Package gltfexport writes scene content as binary glTF (.glb) files.
package gltfexport

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/rigsplit/scene"
	"github.com/mogaika/rigsplit/utils/gltfutils"
)

const maxInfluences = 4

// Exporter implements export.Exporter for glb files.
type Exporter struct{}

func New() *Exporter { return &Exporter{} }

type cornerKey struct {
	vertex int
	uv     mgl32.Vec2
}

// skinBinding maps mesh vertex groups to skin joints.
type skinBinding struct {
	jointOfGroup map[int]uint16
}

func (sb *skinBinding) influences(v *scene.Vertex) ([4]uint16, [4]float32) {
	type influence struct {
		joint  uint16
		weight float32
	}
	list := make([]influence, 0, len(v.Weights))
	for _, w := range v.Weights {
		if j, ok := sb.jointOfGroup[w.Group]; ok && w.Weight > 0 {
			list = append(list, influence{j, w.Weight})
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].weight > list[j].weight })
	if len(list) > maxInfluences {
		list = list[:maxInfluences]
	}

	var joints [4]uint16
	var weights [4]float32
	if len(list) == 0 {
		weights[0] = 1
		return joints, weights
	}
	var sum float32
	for _, in := range list {
		sum += in.weight
	}
	for i, in := range list {
		joints[i] = in.joint
		weights[i] = in.weight / sum
	}
	return joints, weights
}

func materialIndex(gc *gltfutils.GLTFCacher, mat *scene.Material) uint32 {
	return gc.GetCachedOr(mat, func() interface{} {
		gc.Doc.Materials = append(gc.Doc.Materials, &gltf.Material{
			Name:        mat.Name,
			DoubleSided: true,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float32{0.8, 0.8, 0.8, 1},
			},
		})
		return uint32(len(gc.Doc.Materials) - 1)
	}).(uint32)
}

// writeMesh adds the mesh of o with positions transformed by bake. Faces are
// fan triangulated and split into one primitive per material.
func writeMesh(gc *gltfutils.GLTFCacher, o *scene.Object, bake mgl32.Mat4, skin *skinBinding) (uint32, bool) {
	doc := gc.Doc
	m := o.Mesh

	byMaterial := make(map[int][]*scene.Face)
	materialOrder := make([]int, 0)
	haveUV := false
	for i := range m.Faces {
		f := &m.Faces[i]
		if len(f.Verts) < 3 {
			continue
		}
		if _, ok := byMaterial[f.Material]; !ok {
			materialOrder = append(materialOrder, f.Material)
		}
		byMaterial[f.Material] = append(byMaterial[f.Material], f)
		if len(f.UVs) != 0 {
			haveUV = true
		}
	}
	if len(materialOrder) == 0 {
		return 0, false
	}

	mesh := &gltf.Mesh{Name: o.Name}
	for _, mat := range materialOrder {
		corners := make(map[cornerKey]uint32)
		positions := make([][3]float32, 0)
		uvs := make([][2]float32, 0)
		joints := make([][4]uint16, 0)
		weights := make([][4]float32, 0)
		indices := make([]uint32, 0)

		corner := func(f *scene.Face, i int) uint32 {
			key := cornerKey{vertex: f.Verts[i]}
			if i < len(f.UVs) {
				key.uv = f.UVs[i]
			}
			if idx, ok := corners[key]; ok {
				return idx
			}
			v := &m.Vertices[key.vertex]
			idx := uint32(len(positions))
			corners[key] = idx
			positions = append(positions, mgl32.TransformCoordinate(v.Position, bake))
			uvs = append(uvs, [2]float32{key.uv[0], 1 - key.uv[1]})
			if skin != nil {
				j, w := skin.influences(v)
				joints = append(joints, j)
				weights = append(weights, w)
			}
			return idx
		}

		for _, f := range byMaterial[mat] {
			for i := 1; i+1 < len(f.Verts); i++ {
				indices = append(indices, corner(f, 0), corner(f, i), corner(f, i+1))
			}
		}

		attributes := map[string]uint32{
			"POSITION": modeler.WritePosition(doc, positions),
		}
		if haveUV {
			attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(doc, uvs)
		}
		if skin != nil {
			attributes["JOINTS_0"] = modeler.WriteJoints(doc, joints)
			attributes["WEIGHTS_0"] = modeler.WriteWeights(doc, weights)
		}
		primitive := &gltf.Primitive{
			Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
			Attributes: attributes,
		}
		if mat >= 0 && mat < len(m.Materials) {
			primitive.Material = gltf.Index(materialIndex(gc, m.Materials[mat]))
		}
		mesh.Primitives = append(mesh.Primitives, primitive)
	}

	doc.Meshes = append(doc.Meshes, mesh)
	return uint32(len(doc.Meshes) - 1), true
}

// ExportStaticMesh writes every visible mesh of src as a node placed at its
// world transform, taken into the export space of src.
func (e *Exporter) ExportStaticMesh(src scene.Source, path string) error {
	gc := gltfutils.NewCacher(gltfutils.NewDocument())
	space := src.ExportSpace()
	count := 0
	for _, o := range src.ExportObjects() {
		if o.Kind != scene.KindMesh || o.Mesh == nil {
			continue
		}
		mi, ok := writeMesh(gc, o, mgl32.Ident4(), nil)
		if !ok {
			continue
		}
		node := &gltf.Node{Name: o.Name, Mesh: gltf.Index(mi)}
		gltfutils.SetTransform(node, space.Mul4(o.World()))
		gc.Doc.Nodes = append(gc.Doc.Nodes, node)
		count++
	}
	if count == 0 {
		return errors.Errorf("%q has no mesh to export", src.SourceName())
	}
	return gltfutils.ExportBinaryFile(path, gc.Doc)
}
