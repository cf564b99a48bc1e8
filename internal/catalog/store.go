package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Document is one decoded schema document. It is never mutated after Load.
type Document struct {
	ID   string
	Root map[string]any
}

// Store indexes schema documents by canonical identifier.
// It is read-only after Load and safe for concurrent use.
type Store struct {
	docs map[string]*Document
	ids  []string
}

// Load reads every *.schema.json file of fsys, indexes it by its path and
// verifies that all $ref targets resolve.
func Load(fsys fs.FS) (*Store, error) {
	if fsys == nil {
		return nil, errors.New("catalog: nil filesystem")
	}
	s := &Store{docs: make(map[string]*Document)}
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, Suffix) {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("catalog: read %s: %w", p, err)
		}
		root, err := decodeDocument(data)
		if err != nil {
			return fmt.Errorf("catalog: %s: %w", p, err)
		}
		s.docs[p] = &Document{ID: p, Root: root}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(s.docs) == 0 {
		return nil, ErrEmpty
	}
	s.ids = make([]string, 0, len(s.docs))
	for id := range s.docs {
		s.ids = append(s.ids, id)
	}
	sort.Strings(s.ids)
	if err := s.Verify(); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeDocument(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema document must be an object, got %T", v)
	}
	return m, nil
}

// Lookup returns the document for a canonical or bare logical name.
func (s *Store) Lookup(name string) (*Document, error) {
	id := Canonical(name)
	if d, ok := s.docs[id]; ok {
		return d, nil
	}
	return nil, &NotFoundError{Name: id}
}

// Has reports whether name resolves to a document.
func (s *Store) Has(name string) bool {
	_, ok := s.docs[Canonical(name)]
	return ok
}

// Count returns the number of distinct documents.
func (s *Store) Count() int { return len(s.ids) }

// IDs returns all document identifiers in ascending order.
func (s *Store) IDs() []string { return append([]string(nil), s.ids...) }

// Fragment evaluates a JSON Pointer inside the document docID.
func (s *Store) Fragment(docID, pointer string) (any, error) {
	d, ok := s.docs[docID]
	if !ok {
		return nil, &NotFoundError{Name: docID}
	}
	return Pointer(d.Root, pointer)
}
