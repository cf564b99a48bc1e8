package xvizschema

import (
	"strings"

	"github.com/reoring/xvizschema/internal/catalog"
)

// Name is a logical schema name such as "primitives/point" or its canonical
// document identifier "primitives/point.schema.json".
type Name string

// Canonical returns the document identifier n refers to.
func (n Name) Canonical() Name { return Name(catalog.Canonical(string(n))) }

func (n Name) String() string { return string(n) }

// Catalog namespaces addressed by sub-type.
const (
	NamespacePrimitives  = "primitives"
	NamespaceAnnotations = "annotations"
	NamespaceSession     = "session"
)

// Documents behind the fixed-name operations.
const (
	Metadata        Name = "session/metadata.schema.json"
	StateUpdate     Name = "session/state_update.schema.json"
	StreamSet       Name = "core/stream_set.schema.json"
	Pose            Name = "core/pose.schema.json"
	TimeSeries      Name = "core/timeseries_state.schema.json"
	FutureInstances Name = "core/future_instances.schema.json"
	Variable        Name = "core/variable.schema.json"
	StreamMetadata  Name = "core/stream_metadata.schema.json"
	Link            Name = "core/link.schema.json"
	Envelope        Name = "core/envelope.schema.json"
)

// Primitive names the primitives document for kind, e.g. Primitive("point").
func Primitive(kind string) Name {
	n, _ := subtype(NamespacePrimitives, kind)
	return n
}

// Annotation names the annotations document for kind, e.g. Annotation("visual").
func Annotation(kind string) Name {
	n, _ := subtype(NamespaceAnnotations, kind)
	return n
}

// Session names the session message document for kind, e.g. Session("start").
func Session(kind string) Name {
	n, _ := subtype(NamespaceSession, kind)
	return n
}

// subtype joins namespace and kind. ok is false when kind is not a single
// path segment; the returned name is then the raw concatenation, for error
// reporting only.
func subtype(namespace, kind string) (n Name, ok bool) {
	kind = strings.TrimSpace(kind)
	if kind == "" || kind == "." || kind == ".." || strings.ContainsAny(kind, `/\`) {
		return Name(namespace + "/" + kind), false
	}
	return Name(catalog.Join(namespace, kind)), true
}
