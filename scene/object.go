package scene

import "github.com/go-gl/mathgl/mgl32"

// InstanceReference makes an object display another collection as a linked instance.
type InstanceReference struct {
	Target         *Collection
	ResetTransform bool
}

type Object struct {
	Name     string
	Kind     ObjectKind
	Role     ObjectRole
	Type     CollectionType
	Mesh     *Mesh
	Skeleton *Skeleton
	// Armature deforming a mesh object. Falls back to an armature parent.
	Armature *Object
	Instance *InstanceReference

	// Local is relative to Parent, or to the world when Parent is nil.
	Local  mgl32.Mat4
	Parent *Object
	Hidden bool
	// Split is set once the object went through the skeletal split.
	Split bool

	collection *Collection
}

func NewMeshObject(name string, mesh *Mesh) *Object {
	return &Object{Name: name, Kind: KindMesh, Mesh: mesh, Local: mgl32.Ident4()}
}

func NewArmatureObject(name string, skel *Skeleton) *Object {
	return &Object{Name: name, Kind: KindArmature, Skeleton: skel, Local: mgl32.Ident4()}
}

func NewEmptyObject(name string) *Object {
	return &Object{Name: name, Kind: KindEmpty, Local: mgl32.Ident4()}
}

func (o *Object) Collection() *Collection { return o.collection }

func (o *Object) World() mgl32.Mat4 {
	if o.Parent == nil {
		return o.Local
	}
	return o.Parent.World().Mul4(o.Local)
}

// SetWorld changes Local so the object ends up at the given world transform.
func (o *Object) SetWorld(world mgl32.Mat4) {
	if o.Parent == nil {
		o.Local = world
		return
	}
	o.Local = o.Parent.World().Inv().Mul4(world)
}

// Unparent clears the parent while keeping the world transform.
func (o *Object) Unparent() {
	w := o.World()
	o.Parent = nil
	o.Local = w
}

// SetLocalOrigin moves the object origin to the given world transform while
// keeping the mesh at the same place in world space.
func (o *Object) SetLocalOrigin(origin mgl32.Mat4) {
	if o.Mesh != nil {
		o.Mesh.Transform(origin.Inv().Mul4(o.World()))
	}
	o.SetWorld(origin)
}

// SkinArmature returns the armature object deforming this mesh, if any.
func (o *Object) SkinArmature() *Object {
	if o.Armature != nil && o.Armature.Kind == KindArmature {
		return o.Armature
	}
	if o.Parent != nil && o.Parent.Kind == KindArmature {
		return o.Parent
	}
	return nil
}

// BoneWorld returns the bind-pose world matrix of one of this armature's bones.
func (o *Object) BoneWorld(b *Bone) mgl32.Mat4 {
	return o.World().Mul4(b.Bind)
}

// VisibleInScene reports whether the object and its collection chain are visible.
func (o *Object) VisibleInScene() bool {
	if o.Hidden || o.collection == nil {
		return false
	}
	return o.collection.EffectivelyVisible()
}

// MaterialsOf lists the materials used by a mesh object.
func MaterialsOf(o *Object) []*Material {
	if o == nil || o.Mesh == nil {
		return nil
	}
	return o.Mesh.Materials
}

// Source is anything that can be handed to a static exporter.
type Source interface {
	SourceName() string
	ExportObjects() []*Object
	// ExportSpace maps world coordinates into the space of the written file.
	ExportSpace() mgl32.Mat4
}

func (o *Object) SourceName() string       { return o.Name }
func (o *Object) ExportObjects() []*Object { return []*Object{o} }
func (o *Object) ExportSpace() mgl32.Mat4  { return mgl32.Ident4() }
