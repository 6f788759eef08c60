package gltfutils

import (
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/rigsplit/utils"
)

func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

// GLTFCacher keeps exported document entries by source key so shared data
// like materials is written once.
type GLTFCacher struct {
	Doc   *gltf.Document
	cache map[interface{}]interface{}
}

func NewCacher(doc *gltf.Document) *GLTFCacher {
	return &GLTFCacher{Doc: doc, cache: make(map[interface{}]interface{})}
}

func (gc *GLTFCacher) AddCache(key interface{}, value interface{}) {
	gc.cache[key] = value
}

func (gc *GLTFCacher) GetCachedOr(key interface{}, create func() interface{}) interface{} {
	if v, ok := gc.cache[key]; ok {
		return v
	}
	v := create()
	gc.cache[key] = v
	return v
}

// SetTransform stores m on the node as translation, rotation and scale.
func SetTransform(node *gltf.Node, m mgl32.Mat4) {
	t, r, s := utils.Decompose(m)
	node.Translation = t
	node.Rotation = [4]float32{r.V[0], r.V[1], r.V[2], r.W}
	node.Scale = s
}

func isZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}

// NodeTransform returns the local matrix of a node. Unset rotation and
// scale count as identity.
func NodeTransform(node *gltf.Node) mgl32.Mat4 {
	var m mgl32.Mat4
	for i := range node.Matrix {
		m[i] = float32(node.Matrix[i])
	}
	if !isZero(m[:]) && m != mgl32.Ident4() {
		return m
	}

	var t mgl32.Vec3
	for i := range node.Translation {
		t[i] = float32(node.Translation[i])
	}
	r := mgl32.QuatIdent()
	var rot [4]float32
	for i := range node.Rotation {
		rot[i] = float32(node.Rotation[i])
	}
	if !isZero(rot[:]) {
		r = mgl32.Quat{W: rot[3], V: mgl32.Vec3{rot[0], rot[1], rot[2]}}
	}
	s := mgl32.Vec3{1, 1, 1}
	var sc mgl32.Vec3
	for i := range node.Scale {
		sc[i] = float32(node.Scale[i])
	}
	if !isZero(sc[:]) {
		s = sc
	}
	return mgl32.Translate3D(t[0], t[1], t[2]).Mul4(r.Mat4()).Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// WriteMatrices stores column-major matrices as a MAT4 accessor.
func WriteMatrices(doc *gltf.Document, mats []mgl32.Mat4) uint32 {
	data := make([][4][4]float32, len(mats))
	for i, m := range mats {
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				data[i][c][r] = m[c*4+r]
			}
		}
	}
	return modeler.WriteAccessor(doc, gltf.TargetNone, data)
}

// RootNodes lists nodes that are nobody's child.
func RootNodes(doc *gltf.Document) []uint32 {
	child := make(map[uint32]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	roots := make([]uint32, 0)
	for i := range doc.Nodes {
		if !child[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

func ExportBinary(w io.Writer, doc *gltf.Document) error {
	doc.Scenes[0].Nodes = RootNodes(doc)

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}

func ExportBinaryFile(path string, doc *gltf.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ExportBinary(f, doc); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %q", path)
	}
	return f.Close()
}
