package catalog

import (
	"path"
	"strings"
)

// Suffix marks a file as a schema document.
const Suffix = ".schema.json"

// Canonical normalizes a logical schema name to its document identifier.
//
//	"primitives/point"             -> "primitives/point.schema.json"
//	"primitives/point.schema"      -> "primitives/point.schema.json"
//	"/primitives/point.schema.json" -> "primitives/point.schema.json"
//
// An empty name stays empty.
func Canonical(name string) string {
	n := strings.TrimSpace(name)
	n = strings.TrimPrefix(n, "./")
	n = strings.TrimLeft(n, "/")
	if n == "" {
		return ""
	}
	n = path.Clean(n)
	switch {
	case strings.HasSuffix(n, Suffix):
		return n
	case strings.HasSuffix(n, ".schema"):
		return n + ".json"
	}
	return n + Suffix
}

// Join builds the logical name of a namespaced document kind, e.g.
// Join("primitives", "point") == "primitives/point.schema.json".
func Join(namespace, kind string) string {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return Canonical(namespace)
	}
	return Canonical(namespace + "/" + kind)
}

// Namespace returns the directory part of a document identifier.
func Namespace(id string) string {
	dir := path.Dir(Canonical(id))
	if dir == "." {
		return ""
	}
	return dir
}
