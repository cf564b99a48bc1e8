// Package schemas bundles the XVIZ v2 schema catalog.
//
// Documents are addressed by their path inside the catalog, for example
// "primitives/point.schema.json". Cross-document references use paths
// relative to the referring document.
package schemas

import (
	"embed"
	"io/fs"
)

// Version is the XVIZ protocol version described by the bundled catalog.
const Version = "2.0.0"

//go:embed annotations core math primitives session style
var catalog embed.FS

// FS returns the bundled catalog rooted at its namespaces.
func FS() fs.FS { return catalog }
