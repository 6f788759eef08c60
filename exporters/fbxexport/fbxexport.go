// Package fbxexport writes scene content as binary FBX 7.4 files.
package fbxexport

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/mogaika/rigsplit/scene"
	"github.com/mogaika/rigsplit/utils"
	"github.com/mogaika/rigsplit/utils/fbxbuilder"
)

// Exporter implements export.Exporter for FBX.
type Exporter struct{}

func New() *Exporter { return &Exporter{} }

type meshExported struct {
	ModelId    int64
	GeometryId int64
	Model      *fbx.Node
	Geometry   *fbx.Node
}

func mat64(m mgl32.Mat4) []float64 {
	return utils.FloatArray32to64(m[:])
}

func transformProperties(m mgl32.Mat4) *fbx.Node {
	pos, _, scale := utils.Decompose(m)
	rotation := utils.EulerDegrees(m)
	return bfbx73.Properties70().AddNodes(
		bfbx73.P("InheritType", "enum", "", "", int32(1)),
		bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
		bfbx73.P("Lcl Translation", "Lcl Translation", "", "A",
			float64(pos[0]), float64(pos[1]), float64(pos[2])),
		bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A",
			float64(rotation[0]), float64(rotation[1]), float64(rotation[2])),
		bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A",
			float64(scale[0]), float64(scale[1]), float64(scale[2])),
	)
}

func exportMaterial(f *fbxbuilder.FBXBuilder, mat *scene.Material) int64 {
	return f.IdOf(mat, func(id int64) {
		f.AddObjects(bfbx73.Material(id, mat.Name+"\x00\x01Material", "").AddNodes(
			bfbx73.Version(102),
			bfbx73.ShadingModel("lambert"),
			bfbx73.MultiLayer(0),
			bfbx73.Properties70().AddNodes(
				bfbx73.P("AmbientColor", "Color", "", "A", float64(0), float64(0), float64(0)),
				bfbx73.P("DiffuseColor", "Color", "", "A", float64(0.8), float64(0.8), float64(0.8)),
				bfbx73.P("Opacity", "double", "Number", "", float64(1)),
			),
		))
	})
}

// exportMesh adds the model, geometry and materials of one mesh object
// placed at transform.
func exportMesh(f *fbxbuilder.FBXBuilder, o *scene.Object, transform mgl32.Mat4) *meshExported {
	m := o.Mesh
	vertices := make([]float64, 0, len(m.Vertices)*3)
	for _, v := range m.Vertices {
		vertices = append(vertices, float64(v.Position[0]), float64(v.Position[1]), float64(v.Position[2]))
	}

	indexes := make([]int32, 0)
	materials := make([]int32, 0, len(m.Faces))
	haveUV := false
	for _, face := range m.Faces {
		if len(face.UVs) != 0 {
			haveUV = true
		}
	}
	uv := make([]float64, 0)
	uvindexes := make([]int32, 0)

	for _, face := range m.Faces {
		if len(face.Verts) < 3 {
			continue
		}
		for i, vi := range face.Verts {
			if i == len(face.Verts)-1 {
				indexes = append(indexes, -int32(vi)-1)
			} else {
				indexes = append(indexes, int32(vi))
			}
			if haveUV {
				var c mgl32.Vec2
				if i < len(face.UVs) {
					c = face.UVs[i]
				}
				uvindexes = append(uvindexes, int32(len(uv)/2))
				uv = append(uv, float64(c[0]), float64(c[1]))
			}
		}
		mat := face.Material
		if mat < 0 || mat >= len(m.Materials) {
			mat = 0
		}
		materials = append(materials, int32(mat))
	}

	me := &meshExported{GeometryId: f.GenerateId(), ModelId: f.GenerateId()}

	geometryLayer := bfbx73.Layer(0).AddNodes(
		bfbx73.Version(100),
	)
	me.Geometry = bfbx73.Geometry(me.GeometryId, o.Name+"\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(vertices),
		bfbx73.PolygonVertexIndex(indexes),
		geometryLayer,
	)

	if haveUV {
		me.Geometry.AddNode(
			bfbx73.LayerElementUV(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByPolygonVertex"),
				bfbx73.ReferenceInformationType("IndexToDirect"),
				bfbx73.UV(uv),
				bfbx73.UVIndex(uvindexes),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementUV"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	me.Geometry.AddNode(
		bfbx73.LayerElementMaterial(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("ByPolygon"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.Materials(materials),
		),
	)
	geometryLayer.AddNode(
		bfbx73.LayerElement().AddNodes(
			bfbx73.Type("LayerElementMaterial"),
			bfbx73.TypedIndex(0),
		),
	)

	me.Model = bfbx73.Model(me.ModelId, o.Name+"\x00\x01Model", "Mesh").AddNodes(
		bfbx73.Version(232),
		transformProperties(transform),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)

	f.AddObjects(me.Model, me.Geometry)
	f.AddConnections(bfbx73.C("OO", me.GeometryId, me.ModelId))
	for _, mat := range m.Materials {
		f.AddConnections(bfbx73.C("OO", exportMaterial(f, mat), me.ModelId))
	}
	return me
}

// ExportStaticMesh writes every visible mesh of src with its world transform
// taken into the export space of src.
func (e *Exporter) ExportStaticMesh(src scene.Source, path string) error {
	f := fbxbuilder.NewFBXBuilder(path)
	space := src.ExportSpace()
	count := 0
	for _, o := range src.ExportObjects() {
		if o.Kind != scene.KindMesh || o.Mesh == nil {
			continue
		}
		me := exportMesh(f, o, space.Mul4(o.World()))
		f.AddConnections(bfbx73.C("OO", me.ModelId, int64(0)))
		count++
	}
	if count == 0 {
		return errors.Errorf("%q has no mesh to export", src.SourceName())
	}
	return f.WriteFile(path)
}
