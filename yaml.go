package xvizschema

import (
	"bytes"
	"errors"
	"io"

	"github.com/reoring/xvizschema/internal/yamlsrc"
)

// CheckYAML decodes a single YAML document and checks it against name.
// A repeated mapping key is always reported as duplicate_key, whatever
// WithDuplicateKeys says; YAML defines such documents as invalid.
func (v *Validator) CheckYAML(name Name, data []byte) (Result, error) {
	return v.checkYAML(name, bytes.NewReader(data))
}

// ValidateYAML is the assertion form of CheckYAML.
func (v *Validator) ValidateYAML(name Name, data []byte) error {
	res, err := v.CheckYAML(name, data)
	if err != nil {
		return err
	}
	return res.Err()
}

func (v *Validator) checkYAML(name Name, r io.Reader) (Result, error) {
	id := name.Canonical()
	if _, err := v.node(id); err != nil {
		return Result{Schema: id}, err
	}
	doc, err := yamlsrc.Decode(r)
	if err != nil {
		var de *yamlsrc.DuplicateKeyError
		if errors.As(err, &de) {
			return Result{Schema: id, Issues: Issues{v.issue(de.Path, CodeDuplicateKey, map[string]any{"key": de.Key})}}, nil
		}
		return Result{Schema: id, Issues: Issues{v.issue("", CodeParseError, map[string]any{"error": err.Error()})}}, nil
	}
	return v.checkTree(name, doc)
}
