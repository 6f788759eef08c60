package scene

import (
	"github.com/google/uuid"
)

// Tx records every mutation made through it so a failing operator can put the
// scene back the way it found it.
type Tx struct {
	ID    uuid.UUID
	Scene *Scene

	undo []func()
}

func Begin(s *Scene) *Tx {
	return &Tx{ID: uuid.New(), Scene: s}
}

func (tx *Tx) Len() int { return len(tx.undo) }

// Record registers an inverse action for a mutation done elsewhere.
func (tx *Tx) Record(undo func()) { tx.undo = append(tx.undo, undo) }

// Rollback runs the recorded inverse actions newest first.
func (tx *Tx) Rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (tx *Tx) Commit() { tx.undo = nil }

func (tx *Tx) AddObject(o *Object, c *Collection) error {
	if err := tx.Scene.AddObject(o, c); err != nil {
		return err
	}
	tx.Record(func() { tx.Scene.RemoveObject(o) })
	return nil
}

// Duplicate registers a copy of o; it is forgotten again on rollback.
func (tx *Tx) Duplicate(o *Object, name string) *Object {
	d := tx.Scene.Duplicate(o, name)
	tx.Record(func() { tx.Scene.RemoveObject(d) })
	return d
}

func (tx *Tx) LinkObject(c *Collection, o *Object) error {
	if err := tx.Scene.LinkObject(c, o); err != nil {
		return err
	}
	tx.Record(func() { tx.Scene.UnlinkObject(o) })
	return nil
}

// NewCollection creates a collection linked under parent.
func (tx *Tx) NewCollection(name string, parent *Collection) (*Collection, error) {
	c := tx.Scene.NewCollection(name)
	if err := tx.Scene.LinkCollection(parent, c); err != nil {
		tx.Scene.RemoveCollection(c)
		return nil, err
	}
	tx.Record(func() { tx.Scene.RemoveCollection(c) })
	return c, nil
}

func (tx *Tx) SetCollectionType(c *Collection, t CollectionType) error {
	old := c.Type
	if err := c.SetType(t); err != nil {
		return err
	}
	tx.Record(func() { c.Type = old })
	return nil
}

func (tx *Tx) SetHidden(o *Object, hidden bool) {
	old := o.Hidden
	o.Hidden = hidden
	tx.Record(func() { o.Hidden = old })
}

func (tx *Tx) SetSplit(o *Object, split bool) {
	old := o.Split
	o.Split = split
	tx.Record(func() { o.Split = old })
}
