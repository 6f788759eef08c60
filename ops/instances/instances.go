// Package instances temporarily links instanced collections into the scene
// tree so their content can be exported.
package instances

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/mogaika/rigsplit/logger"
	"github.com/mogaika/rigsplit/scene"
)

type offsetRecord struct {
	c      *scene.Collection
	offset mgl32.Vec3
}

// Scope records everything Resolve changed. Release puts it back.
type Scope struct {
	s       *scene.Scene
	linked  []*scene.Collection
	offsets []offsetRecord
	undo    []func()
}

// Linked lists the collections linked under the root by Resolve.
func (sc *Scope) Linked() []*scene.Collection {
	return append([]*scene.Collection(nil), sc.linked...)
}

// Resolve links the target of every visible instancing object that is not
// reachable from the scene root, then follows instances inside the newly
// linked content. A target nested in a library collection is moved under the
// root on its own, so its library siblings stay unreachable. Targets with
// ResetTransform get their instance offset zeroed while linked.
//
// On error the partial work is released before returning.
func Resolve(s *scene.Scene, objects []*scene.Object) (*Scope, error) {
	sc := &Scope{s: s}
	visited := make(map[*scene.Collection]bool)
	queue := append([]*scene.Object(nil), objects...)

	for len(queue) != 0 {
		o := queue[0]
		queue = queue[1:]
		if o.Hidden || o.Instance == nil || o.Instance.Target == nil {
			continue
		}
		target := o.Instance.Target
		if visited[target] {
			continue
		}
		visited[target] = true

		if o.Instance.ResetTransform && target.InstanceOffset != (mgl32.Vec3{}) {
			rec := offsetRecord{c: target, offset: target.InstanceOffset}
			sc.offsets = append(sc.offsets, rec)
			target.InstanceOffset = mgl32.Vec3{}
			sc.undo = append(sc.undo, func() { rec.c.InstanceOffset = rec.offset })
		}

		if s.Linked(target) {
			continue
		}
		lib, index := target.Parent(), -1
		if lib != nil {
			index = childIndex(lib, target)
			s.UnlinkCollection(target)
		}
		if err := s.LinkCollection(s.Root, target); err != nil {
			relink(s, lib, target, index)
			sc.Release()
			return nil, err
		}
		sc.linked = append(sc.linked, target)
		sc.undo = append(sc.undo, func() {
			s.UnlinkCollection(target)
			relink(s, lib, target, index)
		})
		log := logger.Named("instances").With(zap.String("object", o.Name), zap.String("target", target.Name))
		if lib != nil {
			log = log.With(zap.String("library", lib.Name))
		}
		log.Debug("linked instance collection")

		target.Walk(func(c *scene.Collection, _ int) bool {
			if c.Hidden {
				return false
			}
			queue = append(queue, c.Objects...)
			return true
		})
	}
	return sc, nil
}

func childIndex(parent, c *scene.Collection) int {
	for i, ch := range parent.Children {
		if ch == c {
			return i
		}
	}
	return -1
}

// relink puts c back under parent at index. A nil parent leaves c unlinked.
func relink(s *scene.Scene, parent, c *scene.Collection, index int) {
	if parent == nil || s.LinkCollection(parent, c) != nil {
		return
	}
	ch := parent.Children
	if index < 0 || index >= len(ch) {
		return
	}
	copy(ch[index+1:], ch[index:len(ch)-1])
	ch[index] = c
}

// Release undoes Resolve newest change first. Calling it again is a no-op.
func (sc *Scope) Release() {
	if sc == nil {
		return
	}
	for i := len(sc.undo) - 1; i >= 0; i-- {
		sc.undo[i]()
	}
	sc.undo = nil
	sc.linked = nil
	sc.offsets = nil
}
