package catalog

import (
	"errors"
	"sort"
	"strconv"
)

// Keywords whose value is a map from names to schemas.
var schemaMapKeywords = []string{"$defs", "definitions", "dependencies", "patternProperties", "properties"}

// Keywords whose value is a single schema.
var schemaKeywords = []string{"additionalItems", "additionalProperties", "contains", "else", "if", "not", "propertyNames", "then"}

// Keywords whose value is a list of schemas.
var schemaListKeywords = []string{"allOf", "anyOf", "oneOf"}

// IsSchema reports whether v can stand where a schema is expected.
func IsSchema(v any) bool {
	switch v.(type) {
	case map[string]any, bool:
		return true
	}
	return false
}

// Subschemas calls fn for every schema nested directly below node with the
// pointer suffix that leads to it. Traversal order is deterministic.
func Subschemas(node map[string]any, fn func(suffix string, sub any)) {
	for _, kw := range schemaMapKeywords {
		m, ok := node[kw].(map[string]any)
		if !ok {
			continue
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if IsSchema(m[k]) {
				fn(JoinPointer("/"+kw, k), m[k])
			}
		}
	}
	for _, kw := range schemaKeywords {
		if v, ok := node[kw]; ok && IsSchema(v) {
			fn("/"+kw, v)
		}
	}
	switch items := node["items"].(type) {
	case map[string]any, bool:
		fn("/items", items)
	case []any:
		for i, it := range items {
			if IsSchema(it) {
				fn("/items/"+strconv.Itoa(i), it)
			}
		}
	}
	for _, kw := range schemaListKeywords {
		list, ok := node[kw].([]any)
		if !ok {
			continue
		}
		for i, it := range list {
			if IsSchema(it) {
				fn("/"+kw+"/"+strconv.Itoa(i), it)
			}
		}
	}
}

// Verify checks that every $ref of every document points at an existing
// schema. All failures are reported together.
func (s *Store) Verify() error {
	var errs []error
	for _, id := range s.ids {
		errs = s.verifyNode(id, "", s.docs[id].Root, errs)
	}
	return errors.Join(errs...)
}

func (s *Store) verifyNode(id, ptr string, node map[string]any, errs []error) []error {
	if raw, ok := node["$ref"]; ok {
		ref, isString := raw.(string)
		if !isString {
			return append(errs, &RefError{From: id, Pointer: ptr, Ref: "", Reason: "$ref must be a string"})
		}
		docID, frag, err := s.Resolve(id, ref)
		if err != nil {
			var re *RefError
			if errors.As(err, &re) {
				re.Pointer = ptr
				return append(errs, re)
			}
			return append(errs, err)
		}
		target, err := s.Fragment(docID, frag)
		if err != nil {
			return append(errs, &RefError{From: id, Pointer: ptr, Ref: ref, Reason: err.Error()})
		}
		if !IsSchema(target) {
			return append(errs, &RefError{From: id, Pointer: ptr, Ref: ref, Reason: "target is not a schema"})
		}
	}
	Subschemas(node, func(suffix string, sub any) {
		if m, ok := sub.(map[string]any); ok {
			errs = s.verifyNode(id, ptr+suffix, m, errs)
		}
	})
	return errs
}
