// Package classify buckets the collections of a scene by type tag.
package classify

import (
	"github.com/mogaika/rigsplit/scene"
)

// Result holds the collections reachable from the scene root, bucketed by
// tag in depth-first pre-order.
type Result struct {
	Buckets      map[scene.CollectionType][]*scene.Collection
	Unclassified []*scene.Collection
	// Order is the full traversal order, root excluded.
	Order []*scene.Collection
}

// Classify walks the tree under the scene root. Hidden collections and their
// subtrees are skipped unless includeHidden is set.
func Classify(s *scene.Scene, includeHidden bool) *Result {
	r := &Result{Buckets: make(map[scene.CollectionType][]*scene.Collection)}
	s.Root.Walk(func(c *scene.Collection, depth int) bool {
		if depth == 0 {
			return true
		}
		if c.Hidden && !includeHidden {
			return false
		}
		r.Order = append(r.Order, c)
		if c.Type == scene.Unclassified {
			r.Unclassified = append(r.Unclassified, c)
		} else {
			r.Buckets[c.Type] = append(r.Buckets[c.Type], c)
		}
		return true
	})
	return r
}

// Get returns the bucket of one tag.
func (r *Result) Get(t scene.CollectionType) []*scene.Collection {
	return r.Buckets[t]
}

// BakeRoots keeps the collections of a bake bucket that have no bake-tagged
// ancestor, so nested bake groups are exported once through their root.
func (r *Result) BakeRoots(t scene.CollectionType) []*scene.Collection {
	var roots []*scene.Collection
	for _, c := range r.Buckets[t] {
		if !hasBakeAncestor(c) {
			roots = append(roots, c)
		}
	}
	return roots
}

func hasBakeAncestor(c *scene.Collection) bool {
	for _, a := range c.Ancestors() {
		if a.Type.IsBake() {
			return true
		}
	}
	return false
}

// Counts reports the bucket sizes keyed by persisted tag name.
func (r *Result) Counts() map[string]int {
	counts := make(map[string]int)
	for _, t := range scene.AllCollectionTypes() {
		if t == scene.Unclassified {
			counts[t.String()] = len(r.Unclassified)
		} else {
			counts[t.String()] = len(r.Buckets[t])
		}
	}
	return counts
}

// Tag sets the type of a collection, the explicit user action the
// classifier reads back. Re-tagging needs retag.
func Tag(c *scene.Collection, t scene.CollectionType, retag bool) error {
	if retag {
		return c.Retag(t)
	}
	return c.SetType(t)
}
