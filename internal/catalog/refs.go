package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// Resolve maps a $ref found in document fromID to the target document and
// the JSON Pointer inside it.
//
// "#/definitions/x" stays in fromID. "other.schema.json#/x" is resolved
// relative to the directory of fromID; when that misses, the path is tried
// as a catalog-root logical name.
func (s *Store) Resolve(fromID, ref string) (string, string, error) {
	docPart, frag, _ := strings.Cut(ref, "#")
	if docPart == "" {
		if _, ok := s.docs[fromID]; !ok {
			return "", "", &NotFoundError{Name: fromID}
		}
		return fromID, frag, nil
	}
	if strings.Contains(docPart, "://") {
		return "", "", &RefError{From: fromID, Ref: ref, Reason: "absolute URIs are not supported"}
	}
	rel := path.Join(path.Dir(fromID), docPart)
	if _, ok := s.docs[rel]; ok {
		return rel, frag, nil
	}
	if id := Canonical(docPart); id != "" {
		if _, ok := s.docs[id]; ok {
			return id, frag, nil
		}
	}
	return "", "", &RefError{From: fromID, Ref: ref, Reason: "document not in catalog"}
}

var errPointerSyntax = errors.New("JSON pointer must start with '/'")

// Pointer evaluates an RFC 6901 JSON Pointer against a decoded document.
// The empty pointer addresses the whole document.
func Pointer(root any, pointer string) (any, error) {
	if pointer == "" {
		return root, nil
	}
	if strings.Contains(pointer, "%") {
		if p, err := url.PathUnescape(pointer); err == nil {
			pointer = p
		}
	}
	if pointer[0] != '/' {
		return nil, errPointerSyntax
	}
	cur := root
	for _, tok := range strings.Split(pointer[1:], "/") {
		tok = unescapePointerToken(tok)
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[tok]
			if !ok {
				return nil, fmt.Errorf("no member %q", tok)
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range", tok)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %T at %q", cur, tok)
		}
	}
	return cur, nil
}

var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

func unescapePointerToken(s string) string {
	if !strings.Contains(s, "~") {
		return s
	}
	return pointerUnescaper.Replace(s)
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// JoinPointer appends one escaped reference token to a JSON Pointer.
func JoinPointer(base, token string) string {
	return base + "/" + pointerEscaper.Replace(token)
}
