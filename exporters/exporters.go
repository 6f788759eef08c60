// Package exporters picks the file writer for an export format.
package exporters

import (
	"strings"

	"github.com/mogaika/rigsplit/exporters/fbxexport"
	"github.com/mogaika/rigsplit/exporters/gltfexport"
	"github.com/mogaika/rigsplit/ops/export"
	"github.com/mogaika/rigsplit/scene"
)

// ForFormat returns the exporter for "fbx" or "glb".
func ForFormat(format string) (export.Exporter, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "fbx":
		return fbxexport.New(), nil
	case "glb", "gltf":
		return gltfexport.New(), nil
	}
	return nil, scene.Validationf("select exporter", "unknown export format %q", format)
}
