package scene

import (
	"fmt"
	"strings"
)

// CollectionType is the closed taxonomy every collection is classified into.
type CollectionType int

const (
	Unclassified CollectionType = iota
	BakeLow
	BakeHigh
	Prop
	Decal
	StaticMesh
	SkeletalMesh
	Rig
	Proxy
)

var collectionTypeNames = [...]string{
	Unclassified: "UNCLASSIFIED",
	BakeLow:      "BAKE_LOW",
	BakeHigh:     "BAKE_HIGH",
	Prop:         "PROP",
	Decal:        "DECAL",
	StaticMesh:   "STATIC_MESH",
	SkeletalMesh: "SKELETAL_MESH",
	Rig:          "RIG",
	Proxy:        "PROXY",
}

// Persisted property keys. Together with the CollectionType names they form
// the on-disk layout of scene documents.
const (
	PropCollectionType = "collection_type"
	PropSplit          = "split"
	PropOriginMarker   = "origin_marker"
	PropPlaceholder    = "placeholder"
)

func AllCollectionTypes() []CollectionType {
	r := make([]CollectionType, len(collectionTypeNames))
	for i := range collectionTypeNames {
		r[i] = CollectionType(i)
	}
	return r
}

func (t CollectionType) Valid() bool {
	return t >= 0 && int(t) < len(collectionTypeNames)
}

func (t CollectionType) IsBake() bool { return t == BakeLow || t == BakeHigh }

func (t CollectionType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("CollectionType(%d)", int(t))
	}
	return collectionTypeNames[t]
}

// ParseCollectionType accepts the persisted names case-insensitively.
// An empty string means Unclassified.
func ParseCollectionType(s string) (CollectionType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unclassified, nil
	}
	for i, name := range collectionTypeNames {
		if strings.EqualFold(name, s) {
			return CollectionType(i), nil
		}
	}
	return Unclassified, Validationf("parse collection type", "unknown collection type %q", s)
}

type ObjectKind int

const (
	KindEmpty ObjectKind = iota
	KindMesh
	KindArmature
)

func (k ObjectKind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindArmature:
		return "armature"
	default:
		return "empty"
	}
}

func ParseObjectKind(s string) (ObjectKind, error) {
	switch strings.ToLower(s) {
	case "", "empty":
		return KindEmpty, nil
	case "mesh":
		return KindMesh, nil
	case "armature":
		return KindArmature, nil
	}
	return KindEmpty, Validationf("parse object kind", "unknown object kind %q", s)
}

// ObjectRole marks objects with a special meaning for the pipeline.
type ObjectRole int

const (
	RoleNone ObjectRole = iota
	RoleOriginMarker
	RolePlaceholder
)

func (r ObjectRole) String() string {
	switch r {
	case RoleOriginMarker:
		return "origin_marker"
	case RolePlaceholder:
		return "placeholder"
	default:
		return "none"
	}
}
