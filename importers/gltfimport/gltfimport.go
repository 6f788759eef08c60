// Package gltfimport loads glTF and glb files into a scene.
package gltfimport

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/mogaika/rigsplit/logger"
	"github.com/mogaika/rigsplit/scene"
	"github.com/mogaika/rigsplit/utils/gltfutils"
)

type importer struct {
	doc    *gltf.Document
	tx     *scene.Tx
	c      *scene.Collection
	log    *zap.Logger
	world  []mgl32.Mat4
	parent []int

	materials  map[uint32]*scene.Material
	armatures  map[uint32]*scene.Object
	// bone names by skin joint slot, the order JOINTS_0 refers to
	jointBones map[uint32][]string
	// joints and armature nodes, never imported as mesh objects
	skipNodes  map[uint32]bool
}

// ImportFile reads path into s. Everything lands in a new collection named
// after the file, linked under the scene root.
func ImportFile(s *scene.Scene, path string) (*scene.Collection, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %q", path)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Import(s, doc, name)
}

// Import adds doc to s. On error nothing of the document is left in s.
func Import(s *scene.Scene, doc *gltf.Document, name string) (c *scene.Collection, err error) {
	imp := &importer{
		doc:        doc,
		tx:         scene.Begin(s),
		log:        logger.Named("gltfimport"),
		materials:  make(map[uint32]*scene.Material),
		armatures:  make(map[uint32]*scene.Object),
		jointBones: make(map[uint32][]string),
		skipNodes:  make(map[uint32]bool),
	}
	defer func() {
		if err != nil {
			imp.log.Warn("import failed, rolling back",
				zap.String("name", name), zap.Int("changes", imp.tx.Len()), zap.Error(err))
			imp.tx.Rollback()
			c = nil
		}
	}()
	if imp.c, err = imp.tx.NewCollection(name, s.Root); err != nil {
		return
	}
	if err = imp.run(); err != nil {
		return
	}
	imp.tx.Commit()
	return imp.c, nil
}

func (imp *importer) run() error {
	imp.computeWorld()

	for i := range imp.doc.Skins {
		if err := imp.importSkin(uint32(i)); err != nil {
			return err
		}
	}
	for i, node := range imp.doc.Nodes {
		if node.Mesh == nil || imp.skipNodes[uint32(i)] {
			continue
		}
		if err := imp.importMeshNode(uint32(i)); err != nil {
			return err
		}
	}
	return nil
}

func (imp *importer) computeWorld() {
	n := len(imp.doc.Nodes)
	imp.world = make([]mgl32.Mat4, n)
	imp.parent = make([]int, n)
	for i := range imp.parent {
		imp.parent[i] = -1
	}
	for i, node := range imp.doc.Nodes {
		for _, c := range node.Children {
			imp.parent[c] = i
		}
	}
	var visit func(i uint32, parent mgl32.Mat4)
	visit = func(i uint32, parent mgl32.Mat4) {
		imp.world[i] = parent.Mul4(gltfutils.NodeTransform(imp.doc.Nodes[i]))
		for _, c := range imp.doc.Nodes[i].Children {
			visit(c, imp.world[i])
		}
	}
	for _, root := range gltfutils.RootNodes(imp.doc) {
		visit(root, mgl32.Ident4())
	}
}

func (imp *importer) importSkin(skinIndex uint32) error {
	skin := imp.doc.Skins[skinIndex]
	if len(skin.Joints) == 0 {
		return errors.Errorf("skin %d has no joints", skinIndex)
	}
	isJoint := make(map[int]bool)
	for _, j := range skin.Joints {
		isJoint[int(j)] = true
	}

	// the closest non joint ancestor of the first root joint carries the
	// armature transform
	name := skin.Name
	armWorld := mgl32.Ident4()
	for _, j := range skin.Joints {
		if p := imp.parent[j]; !isJoint[p] {
			if p >= 0 && imp.doc.Nodes[p].Mesh == nil {
				armWorld = imp.world[p]
				imp.skipNodes[uint32(p)] = true
				if imp.doc.Nodes[p].Name != "" {
					name = imp.doc.Nodes[p].Name
				}
			}
			break
		}
	}
	if name == "" {
		name = "Armature"
	}
	armInv := armWorld.Inv()

	skel := &scene.Skeleton{}
	added := make(map[int]bool)
	for len(added) < len(skin.Joints) {
		progress := false
		for _, j := range skin.Joints {
			ji := int(j)
			if added[ji] {
				continue
			}
			parentName := ""
			if p := imp.parent[ji]; isJoint[p] {
				if !added[p] {
					continue
				}
				parentName = imp.jointName(uint32(p))
			}
			if _, err := skel.AddBone(imp.jointName(j), parentName, armInv.Mul4(imp.world[ji])); err != nil {
				return errors.Wrapf(err, "skin %q", name)
			}
			added[ji] = true
			imp.skipNodes[j] = true
			progress = true
		}
		if !progress {
			return errors.Errorf("skin %q joint hierarchy is broken", name)
		}
	}

	arm := scene.NewArmatureObject(name, skel)
	arm.Local = armWorld
	if err := imp.tx.AddObject(arm, imp.c); err != nil {
		return err
	}
	imp.armatures[skinIndex] = arm
	names := make([]string, len(skin.Joints))
	for slot, j := range skin.Joints {
		names[slot] = imp.jointName(j)
	}
	imp.jointBones[skinIndex] = names
	imp.log.Debug("imported armature", zap.String("name", arm.Name), zap.Int("bones", len(skel.Bones)))
	return nil
}

func (imp *importer) jointName(j uint32) string {
	if n := imp.doc.Nodes[j].Name; n != "" {
		return n
	}
	return "Joint_" + strconv.Itoa(int(j))
}

func (imp *importer) material(i uint32) *scene.Material {
	if m, ok := imp.materials[i]; ok {
		return m
	}
	name := imp.doc.Materials[i].Name
	if name == "" {
		name = "Material_" + strconv.Itoa(int(i))
	}
	m := &scene.Material{Name: name}
	imp.materials[i] = m
	return m
}

func (imp *importer) importMeshNode(nodeIndex uint32) error {
	node := imp.doc.Nodes[nodeIndex]
	gmesh := imp.doc.Meshes[*node.Mesh]

	var arm *scene.Object
	var bones []string
	if node.Skin != nil {
		arm = imp.armatures[*node.Skin]
		bones = imp.jointBones[*node.Skin]
	}

	m := &scene.Mesh{}
	slotOf := make(map[*scene.Material]int)
	groupOf := make(map[int]int)

	for _, p := range gmesh.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			imp.log.Warn("skipping non triangle primitive", zap.String("mesh", gmesh.Name))
			continue
		}
		posIdx, ok := p.Attributes["POSITION"]
		if !ok {
			continue
		}
		positions, err := modeler.ReadPosition(imp.doc, imp.doc.Accessors[posIdx], nil)
		if err != nil {
			return errors.Wrapf(err, "mesh %q positions", gmesh.Name)
		}

		var indices []uint32
		if p.Indices != nil {
			if indices, err = modeler.ReadIndices(imp.doc, imp.doc.Accessors[*p.Indices], nil); err != nil {
				return errors.Wrapf(err, "mesh %q indices", gmesh.Name)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		var uvs [][2]float32
		if a, ok := p.Attributes["TEXCOORD_0"]; ok {
			if uvs, err = modeler.ReadTextureCoord(imp.doc, imp.doc.Accessors[a], nil); err != nil {
				return errors.Wrapf(err, "mesh %q uvs", gmesh.Name)
			}
		}

		var joints [][4]uint16
		var weights [][4]float32
		if arm != nil {
			ja, jok := p.Attributes["JOINTS_0"]
			wa, wok := p.Attributes["WEIGHTS_0"]
			if jok && wok {
				if joints, err = modeler.ReadJoints(imp.doc, imp.doc.Accessors[ja], nil); err != nil {
					return errors.Wrapf(err, "mesh %q joints", gmesh.Name)
				}
				if weights, err = modeler.ReadWeights(imp.doc, imp.doc.Accessors[wa], nil); err != nil {
					return errors.Wrapf(err, "mesh %q weights", gmesh.Name)
				}
			}
		}

		slot := 0
		if p.Material != nil {
			mat := imp.material(*p.Material)
			s, ok := slotOf[mat]
			if !ok {
				s = len(m.Materials)
				slotOf[mat] = s
				m.Materials = append(m.Materials, mat)
			}
			slot = s
		}

		offset := len(m.Vertices)
		for i, pos := range positions {
			v := scene.Vertex{Position: pos}
			if i < len(joints) && i < len(weights) {
				for k := 0; k < 4; k++ {
					if weights[i][k] <= 0 {
						continue
					}
					g := group(m, bones, int(joints[i][k]), groupOf)
					if g >= 0 {
						v.Weights = append(v.Weights, scene.GroupWeight{Group: g, Weight: weights[i][k]})
					}
				}
			}
			m.Vertices = append(m.Vertices, v)
		}
		for i := 0; i+2 < len(indices); i += 3 {
			f := scene.Face{Material: slot}
			for k := 0; k < 3; k++ {
				vi := int(indices[i+k])
				if vi >= len(positions) {
					return scene.Validationf("import gltf", "mesh %q face %d references vertex %d of %d",
						gmesh.Name, i/3, vi, len(positions))
				}
				f.Verts = append(f.Verts, offset+vi)
				if uvs != nil && vi < len(uvs) {
					f.UVs = append(f.UVs, mgl32.Vec2{uvs[vi][0], 1 - uvs[vi][1]})
				}
			}
			m.Faces = append(m.Faces, f)
		}
	}

	name := node.Name
	if name == "" {
		name = gmesh.Name
	}
	o := scene.NewMeshObject(name, m)
	if arm != nil {
		o.Armature = arm
	} else {
		o.Local = imp.world[nodeIndex]
	}
	if err := imp.tx.AddObject(o, imp.c); err != nil {
		return err
	}
	imp.log.Debug("imported mesh", zap.String("name", o.Name),
		zap.Int("vertices", m.VertexCount()), zap.Int("faces", m.FaceCount()))
	return nil
}

// group returns the vertex group index for a skin joint, creating the group
// named after the bone on first use.
func group(m *scene.Mesh, bones []string, joint int, groupOf map[int]int) int {
	if g, ok := groupOf[joint]; ok {
		return g
	}
	if joint >= len(bones) {
		return -1
	}
	g := len(m.Groups)
	m.Groups = append(m.Groups, scene.VertexGroup{Name: bones[joint], Index: g})
	groupOf[joint] = g
	return g
}
