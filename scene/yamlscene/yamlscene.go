// Package yamlscene reads and writes scene documents. Type tags and pipeline
// flags are stored in string property maps whose keys and values are the
// persisted layout shared with the authoring tools.
package yamlscene

import (
	"bytes"
	"io"
	"os"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/rigsplit/scene"
)

type Document struct {
	DocumentPath string       `yaml:"document_path,omitempty"`
	Root         []string     `yaml:"root"`
	Collections  []Collection `yaml:"collections"`
	Objects      []Object     `yaml:"objects"`
}

type Collection struct {
	Name           string            `yaml:"name"`
	Hidden         bool              `yaml:"hidden,omitempty"`
	InstanceOffset []float32         `yaml:"instance_offset,omitempty,flow"`
	Children       []string          `yaml:"children,omitempty,flow"`
	Objects        []string          `yaml:"objects,omitempty,flow"`
	Properties     map[string]string `yaml:"properties,omitempty"`
}

type Instance struct {
	Collection     string `yaml:"collection"`
	ResetTransform bool   `yaml:"reset_transform,omitempty"`
}

type Object struct {
	Name       string            `yaml:"name"`
	Kind       string            `yaml:"kind"`
	Parent     string            `yaml:"parent,omitempty"`
	Armature   string            `yaml:"armature,omitempty"`
	Hidden     bool              `yaml:"hidden,omitempty"`
	Matrix     []float32         `yaml:"matrix,omitempty,flow"`
	Properties map[string]string `yaml:"properties,omitempty"`
	Instance   *Instance         `yaml:"instance,omitempty"`
	Mesh       *Mesh             `yaml:"mesh,omitempty"`
	Skeleton   []Bone            `yaml:"skeleton,omitempty"`
}

type Mesh struct {
	Groups    []string `yaml:"groups,omitempty,flow"`
	Materials []string `yaml:"materials,omitempty,flow"`
	Vertices  []Vertex `yaml:"vertices"`
	Faces     []Face   `yaml:"faces"`
}

type Vertex struct {
	Co      []float32          `yaml:"co,flow"`
	Weights map[string]float32 `yaml:"weights,omitempty,flow"`
}

type Face struct {
	Verts    []int       `yaml:"verts,flow"`
	Material int         `yaml:"material,omitempty"`
	UVs      [][]float32 `yaml:"uvs,omitempty,flow"`
}

type Bone struct {
	Name   string    `yaml:"name"`
	Parent string    `yaml:"parent,omitempty"`
	Matrix []float32 `yaml:"matrix,omitempty,flow"`
}

func LoadFile(path string) (*scene.Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open scene %q", path)
	}
	defer f.Close()
	ctx, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load scene %q", path)
	}
	if ctx.DocumentPath == "" {
		ctx.DocumentPath = path
	}
	return ctx, nil
}

func SaveFile(path string, ctx *scene.Context) error {
	var buf bytes.Buffer
	if err := Save(&buf, ctx); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "Can't write scene %q", path)
	}
	return nil
}

func Load(r io.Reader) (*scene.Context, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "Failed to decode scene document")
	}
	return doc.Build()
}

func Save(w io.Writer, ctx *scene.Context) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(FromScene(ctx)); err != nil {
		return errors.Wrapf(err, "Failed to encode scene document")
	}
	return enc.Close()
}

func matrix(values []float32, what string) (mgl32.Mat4, error) {
	if len(values) == 0 {
		return mgl32.Ident4(), nil
	}
	if len(values) != 16 {
		return mgl32.Mat4{}, scene.Validationf("load scene", "%s: matrix has %d values, want 16", what, len(values))
	}
	var m mgl32.Mat4
	copy(m[:], values)
	return m, nil
}

func vec3(values []float32, what string) (mgl32.Vec3, error) {
	switch len(values) {
	case 0:
		return mgl32.Vec3{}, nil
	case 3:
		return mgl32.Vec3{values[0], values[1], values[2]}, nil
	}
	return mgl32.Vec3{}, scene.Validationf("load scene", "%s: vector has %d values, want 3", what, len(values))
}

func boolProperty(props map[string]string, key string) (bool, error) {
	v, ok := props[key]
	if !ok || v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, scene.Validationf("load scene", "property %q: %q is not a boolean", key, v)
	}
	return b, nil
}

// Build validates the document and creates the scene it describes.
func (doc *Document) Build() (*scene.Context, error) {
	s := scene.New()
	collections := make(map[string]*scene.Collection, len(doc.Collections))

	for _, dc := range doc.Collections {
		if _, dup := collections[dc.Name]; dup || dc.Name == "" {
			return nil, scene.Validationf("load scene", "bad or duplicate collection name %q", dc.Name)
		}
		c := s.NewCollection(dc.Name)
		c.Hidden = dc.Hidden
		t, err := scene.ParseCollectionType(dc.Properties[scene.PropCollectionType])
		if err != nil {
			return nil, errors.Wrapf(err, "collection %q", dc.Name)
		}
		c.Type = t
		if c.InstanceOffset, err = vec3(dc.InstanceOffset, dc.Name); err != nil {
			return nil, err
		}
		collections[dc.Name] = c
	}

	for _, dc := range doc.Collections {
		for _, child := range dc.Children {
			cc, ok := collections[child]
			if !ok {
				return nil, scene.Validationf("load scene", "collection %q: unknown child %q", dc.Name, child)
			}
			if err := s.LinkCollection(collections[dc.Name], cc); err != nil {
				return nil, err
			}
		}
	}
	for _, name := range doc.Root {
		c, ok := collections[name]
		if !ok {
			return nil, scene.Validationf("load scene", "unknown root collection %q", name)
		}
		if err := s.LinkCollection(s.Root, c); err != nil {
			return nil, err
		}
	}

	objects := make(map[string]*scene.Object, len(doc.Objects))
	for _, do := range doc.Objects {
		o, err := do.build(collections)
		if err != nil {
			return nil, errors.Wrapf(err, "object %q", do.Name)
		}
		if _, dup := objects[do.Name]; dup {
			return nil, scene.Validationf("load scene", "duplicate object name %q", do.Name)
		}
		objects[do.Name] = o
	}

	owner := make(map[string]*scene.Collection)
	for _, dc := range doc.Collections {
		for _, name := range dc.Objects {
			if _, ok := objects[name]; !ok {
				return nil, scene.Validationf("load scene", "collection %q: unknown object %q", dc.Name, name)
			}
			if prev, ok := owner[name]; ok {
				return nil, scene.Validationf("load scene", "object %q linked in %q and %q", name, prev.Name, dc.Name)
			}
			owner[name] = collections[dc.Name]
		}
	}

	for _, do := range doc.Objects {
		o := objects[do.Name]
		if do.Parent != "" {
			if o.Parent = objects[do.Parent]; o.Parent == nil {
				return nil, scene.Validationf("load scene", "object %q: unknown parent %q", do.Name, do.Parent)
			}
		}
		if do.Armature != "" {
			if o.Armature = objects[do.Armature]; o.Armature == nil || o.Armature.Kind != scene.KindArmature {
				return nil, scene.Validationf("load scene", "object %q: %q is not an armature", do.Name, do.Armature)
			}
		}
		c := owner[do.Name]
		if c == nil {
			c = s.Root
		}
		if err := s.AddObject(o, c); err != nil {
			return nil, err
		}
	}

	for _, do := range doc.Objects {
		depth := 0
		for p := objects[do.Name].Parent; p != nil; p = p.Parent {
			if depth++; depth > len(objects) {
				return nil, scene.Validationf("load scene", "parent chain of object %q has a cycle", do.Name)
			}
		}
	}

	ctx := scene.NewContext(s)
	ctx.DocumentPath = doc.DocumentPath
	return ctx, nil
}

func (do *Object) build(collections map[string]*scene.Collection) (*scene.Object, error) {
	kind, err := scene.ParseObjectKind(do.Kind)
	if err != nil {
		return nil, err
	}
	o := &scene.Object{Name: do.Name, Kind: kind, Hidden: do.Hidden}
	if o.Local, err = matrix(do.Matrix, do.Name); err != nil {
		return nil, err
	}
	if o.Type, err = scene.ParseCollectionType(do.Properties[scene.PropCollectionType]); err != nil {
		return nil, err
	}
	if o.Split, err = boolProperty(do.Properties, scene.PropSplit); err != nil {
		return nil, err
	}
	marker, err := boolProperty(do.Properties, scene.PropOriginMarker)
	if err != nil {
		return nil, err
	}
	placeholder, err := boolProperty(do.Properties, scene.PropPlaceholder)
	if err != nil {
		return nil, err
	}
	switch {
	case marker && placeholder:
		return nil, scene.Validationf("load scene", "object can't be both origin marker and placeholder")
	case marker:
		o.Role = scene.RoleOriginMarker
	case placeholder:
		o.Role = scene.RolePlaceholder
	}

	if do.Instance != nil {
		target, ok := collections[do.Instance.Collection]
		if !ok {
			return nil, scene.Validationf("load scene", "unknown instanced collection %q", do.Instance.Collection)
		}
		o.Instance = &scene.InstanceReference{Target: target, ResetTransform: do.Instance.ResetTransform}
	}

	switch kind {
	case scene.KindMesh:
		if do.Mesh == nil {
			return nil, scene.Validationf("load scene", "mesh object without mesh data")
		}
		if o.Mesh, err = do.Mesh.build(); err != nil {
			return nil, err
		}
	case scene.KindArmature:
		o.Skeleton = &scene.Skeleton{}
		for _, db := range do.Skeleton {
			bind, err := matrix(db.Matrix, db.Name)
			if err != nil {
				return nil, err
			}
			if _, err := o.Skeleton.AddBone(db.Name, db.Parent, bind); err != nil {
				return nil, err
			}
		}
	}
	return o, nil
}

func (dm *Mesh) build() (*scene.Mesh, error) {
	m := &scene.Mesh{
		Vertices: make([]scene.Vertex, len(dm.Vertices)),
		Faces:    make([]scene.Face, len(dm.Faces)),
	}
	groupIndex := make(map[string]int, len(dm.Groups))
	for i, g := range dm.Groups {
		if _, dup := groupIndex[g]; dup {
			return nil, scene.Validationf("load scene", "duplicate vertex group %q", g)
		}
		groupIndex[g] = i
		m.Groups = append(m.Groups, scene.VertexGroup{Name: g, Index: i})
	}
	for _, name := range dm.Materials {
		m.Materials = append(m.Materials, &scene.Material{Name: name})
	}
	for i, dv := range dm.Vertices {
		pos, err := vec3(dv.Co, "vertex "+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		m.Vertices[i].Position = pos
		// groups in declaration order keep the weights deterministic
		for _, g := range dm.Groups {
			if w, ok := dv.Weights[g]; ok {
				m.Vertices[i].Weights = append(m.Vertices[i].Weights, scene.GroupWeight{Group: groupIndex[g], Weight: w})
			}
		}
		for g := range dv.Weights {
			if _, ok := groupIndex[g]; !ok {
				return nil, scene.Validationf("load scene", "vertex %d weights unknown group %q", i, g)
			}
		}
	}
	for i, df := range dm.Faces {
		if len(df.Verts) < 3 {
			return nil, scene.Validationf("load scene", "face %d has %d vertices", i, len(df.Verts))
		}
		for _, vi := range df.Verts {
			if vi < 0 || vi >= len(m.Vertices) {
				return nil, scene.Validationf("load scene", "face %d references vertex %d of %d", i, vi, len(m.Vertices))
			}
		}
		if len(dm.Materials) != 0 && (df.Material < 0 || df.Material >= len(dm.Materials)) {
			return nil, scene.Validationf("load scene", "face %d uses material slot %d of %d", i, df.Material, len(dm.Materials))
		}
		f := scene.Face{Verts: append([]int(nil), df.Verts...), Material: df.Material}
		for _, uv := range df.UVs {
			if len(uv) != 2 {
				return nil, scene.Validationf("load scene", "face %d has a uv with %d values", i, len(uv))
			}
			f.UVs = append(f.UVs, mgl32.Vec2{uv[0], uv[1]})
		}
		m.Faces[i] = f
	}
	return m, nil
}

// FromScene converts a live scene into its document form.
func FromScene(ctx *scene.Context) *Document {
	s := ctx.Scene
	doc := &Document{DocumentPath: ctx.DocumentPath}
	for _, c := range s.Root.Children {
		doc.Root = append(doc.Root, c.Name)
	}
	for _, c := range s.Collections() {
		dc := Collection{Name: c.Name, Hidden: c.Hidden}
		if c.Type != scene.Unclassified {
			dc.Properties = map[string]string{scene.PropCollectionType: c.Type.String()}
		}
		if c.InstanceOffset != (mgl32.Vec3{}) {
			dc.InstanceOffset = append([]float32(nil), c.InstanceOffset[:]...)
		}
		for _, ch := range c.Children {
			dc.Children = append(dc.Children, ch.Name)
		}
		for _, o := range c.Objects {
			dc.Objects = append(dc.Objects, o.Name)
		}
		doc.Collections = append(doc.Collections, dc)
	}
	for _, o := range s.Objects() {
		doc.Objects = append(doc.Objects, FromObject(o))
	}
	return doc
}

// FromObject converts one object into its document form.
func FromObject(o *scene.Object) Object {
	do := Object{Name: o.Name, Kind: o.Kind.String(), Hidden: o.Hidden}
	if o.Local != mgl32.Ident4() {
		do.Matrix = append([]float32(nil), o.Local[:]...)
	}
	props := map[string]string{}
	if o.Type != scene.Unclassified {
		props[scene.PropCollectionType] = o.Type.String()
	}
	if o.Split {
		props[scene.PropSplit] = "true"
	}
	switch o.Role {
	case scene.RoleOriginMarker:
		props[scene.PropOriginMarker] = "true"
	case scene.RolePlaceholder:
		props[scene.PropPlaceholder] = "true"
	}
	if len(props) != 0 {
		do.Properties = props
	}
	if o.Parent != nil {
		do.Parent = o.Parent.Name
	}
	if o.Armature != nil {
		do.Armature = o.Armature.Name
	}
	if o.Instance != nil && o.Instance.Target != nil {
		do.Instance = &Instance{Collection: o.Instance.Target.Name, ResetTransform: o.Instance.ResetTransform}
	}
	if o.Mesh != nil {
		do.Mesh = meshDocument(o.Mesh)
	}
	if o.Skeleton != nil {
		for _, b := range o.Skeleton.Bones {
			db := Bone{Name: b.Name, Matrix: append([]float32(nil), b.Bind[:]...)}
			if b.Parent != nil {
				db.Parent = b.Parent.Name
			}
			do.Skeleton = append(do.Skeleton, db)
		}
	}
	return do
}

func meshDocument(m *scene.Mesh) *Mesh {
	dm := &Mesh{
		Vertices: make([]Vertex, len(m.Vertices)),
		Faces:    make([]Face, len(m.Faces)),
	}
	names := make(map[int]string, len(m.Groups))
	for _, g := range m.Groups {
		names[g.Index] = g.Name
	}
	// groups are written in index order so indices survive a round trip
	for i := 0; i < len(m.Groups); i++ {
		dm.Groups = append(dm.Groups, names[i])
	}
	for _, mat := range m.Materials {
		dm.Materials = append(dm.Materials, mat.Name)
	}
	for i, v := range m.Vertices {
		dv := Vertex{Co: []float32{v.Position[0], v.Position[1], v.Position[2]}}
		for _, w := range v.Weights {
			if dv.Weights == nil {
				dv.Weights = make(map[string]float32)
			}
			dv.Weights[names[w.Group]] = w.Weight
		}
		dm.Vertices[i] = dv
	}
	for i, f := range m.Faces {
		df := Face{Verts: append([]int(nil), f.Verts...), Material: f.Material}
		for _, uv := range f.UVs {
			df.UVs = append(df.UVs, []float32{uv[0], uv[1]})
		}
		dm.Faces[i] = df
	}
	return dm
}
