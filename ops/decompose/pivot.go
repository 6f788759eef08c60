package decompose

import (
	"strings"

	"github.com/mogaika/rigsplit/scene"
)

// MatchBone picks the bone a fragment is aligned to, or nil.
func MatchBone(skel *scene.Skeleton, fragment, group string, mode MatchMode) *scene.Bone {
	if skel == nil {
		return nil
	}
	switch mode {
	case MatchExact:
		return skel.Bone(group)
	case MatchGroup:
		if b := skel.Bone(group); b != nil {
			return b
		}
	}
	for _, b := range skel.Bones {
		if b.Name != "" && strings.Contains(fragment, b.Name) {
			return b
		}
	}
	return nil
}

// AlignPivot moves the fragment origin onto the matched bone's bind pose in
// world space. Vertices keep their world position. No match leaves the
// fragment untouched and returns nil.
func AlignPivot(frag *scene.Object, arm *scene.Object, group string, mode MatchMode) *scene.Bone {
	if arm == nil {
		return nil
	}
	b := MatchBone(arm.Skeleton, frag.Name, group, mode)
	if b == nil {
		return nil
	}
	frag.SetLocalOrigin(arm.BoneWorld(b))
	return b
}
