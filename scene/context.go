package scene

// Context is passed to every operator instead of reaching for a global scene.
type Context struct {
	Scene            *Scene
	Selected         []*Object
	Active           *Object
	ActiveCollection *Collection
	// DocumentPath is empty for a document that was never saved.
	DocumentPath string
}

func NewContext(s *Scene) *Context {
	return &Context{Scene: s, ActiveCollection: s.Root}
}

// Select replaces the selection; the first object becomes active.
func (ctx *Context) Select(objects ...*Object) {
	ctx.Selected = append([]*Object(nil), objects...)
	if len(objects) != 0 {
		ctx.Active = objects[0]
	} else {
		ctx.Active = nil
	}
}

// SaveSelection snapshots selection state and returns the function restoring it.
func (ctx *Context) SaveSelection() func() {
	selected := append([]*Object(nil), ctx.Selected...)
	active := ctx.Active
	activeCollection := ctx.ActiveCollection
	return func() {
		ctx.Selected = selected
		ctx.Active = active
		ctx.ActiveCollection = activeCollection
	}
}
