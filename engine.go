package xvizschema

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/xvizschema/internal/compile"
)

// Check validates payload against the schema called name and returns every
// discrepancy. The error is non-nil only for *NotFoundError; a
// non-conforming payload is reported through Result.Issues.
func (v *Validator) Check(name Name, payload any) (Result, error) {
	id := name.Canonical()
	node, err := v.node(id)
	if err != nil {
		return Result{Schema: id}, err
	}
	doc, err := normalize(payload, v.maxDepth)
	if err != nil {
		return Result{Schema: id, Issues: Issues{v.normalizeIssue(err)}}, nil
	}
	return v.run(id, node, doc), nil
}

// Validate is the assertion form of Check: nil when payload conforms,
// *ValidationError when it does not, *NotFoundError when name is unknown.
func (v *Validator) Validate(name Name, payload any) error {
	res, err := v.Check(name, payload)
	if err != nil {
		return err
	}
	return res.Err()
}

// checkTree is Check for a payload that is already a JSON-like tree.
func (v *Validator) checkTree(name Name, doc any) (Result, error) {
	id := name.Canonical()
	node, err := v.node(id)
	if err != nil {
		return Result{Schema: id}, err
	}
	return v.run(id, node, doc), nil
}

func (v *Validator) run(id Name, node *compile.Node, doc any) Result {
	res := Result{Schema: id}
	found := node.Check(doc, compile.CheckOptions{MaxDepth: v.maxDepth})
	if len(found) == 0 {
		return res
	}
	res.Issues = make(Issues, 0, len(found))
	for _, it := range found {
		res.Issues = append(res.Issues, v.issue(it.Path, it.Code, it.Params))
	}
	v.log.Debug().Str("schema", string(id)).Int("issues", len(res.Issues)).Msg("payload rejected")
	return res
}

func (v *Validator) node(id Name) (*compile.Node, error) {
	if !v.store.Has(string(id)) {
		return nil, &NotFoundError{Name: id}
	}
	node, err := v.cache.Get(string(id))
	if err != nil {
		return nil, &NotFoundError{Name: id, Cause: err}
	}
	return node, nil
}

// issue builds a public Issue with a translated message.
func (v *Validator) issue(path, code string, params map[string]any) Issue {
	data := make(map[string]string, len(params))
	for k, p := range params {
		data[k] = renderParam(p)
	}
	it := Issue{Path: path, Code: code, Message: v.tr.Message(code, data), Params: params}
	switch code {
	case CodePattern:
		it.Hint = data["pattern"]
	case CodeInvalidFormat:
		it.Hint = data["format"]
	case CodeInvalidEnum:
		it.Hint = data["allowed"]
	case CodeParseError:
		it.Hint = data["error"]
	}
	return it
}

func renderParam(p any) string {
	switch t := p.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, ", ")
	}
	return fmt.Sprint(p)
}

// depthError reports a payload nested beyond the depth ceiling before any
// schema ran; Path is the first offending value in sorted key order.
type depthError struct {
	Path string
}

func (e *depthError) Error() string { return "payload nested too deep at " + e.Path }

func (v *Validator) normalizeIssue(err error) Issue {
	var de *depthError
	if errors.As(err, &de) {
		return v.issue(de.Path, CodeTooComplex, map[string]any{"max_depth": v.maxDepth})
	}
	return v.issue("", CodeParseError, map[string]any{"error": err.Error()})
}

// normalize returns payload as a JSON-like tree. Values that already are one
// pass through untouched; anything else is round-tripped through JSON.
// Maps and slices nested deeper than maxDepth, self-referencing ones
// included, fail with *depthError.
func normalize(payload any, maxDepth int) (any, error) {
	tree, deep := scanTree(payload, "", 0, maxDepth)
	if deep != nil {
		return nil, deep
	}
	if tree {
		return payload, nil
	}
	data, err := gojson.Marshal(payload)
	if err != nil {
		return nil, err
	}
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// jsonNumber matches encoding/json.Number and types aliasing it.
type jsonNumber interface {
	Float64() (float64, error)
	Int64() (int64, error)
	String() string
}

// scanTree reports whether v is made only of JSON-like values. The scan
// keeps going past other values so that nesting is always bounded.
func scanTree(v any, path string, depth, maxDepth int) (bool, *depthError) {
	switch t := v.(type) {
	case nil, bool, string,
		float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true, nil
	case map[string]any:
		if depth > maxDepth {
			return true, &depthError{Path: path}
		}
		tree := true
		for _, k := range sortedKeys(t) {
			ok, deep := scanTree(t[k], path+"/"+pointerEscaper.Replace(k), depth+1, maxDepth)
			if deep != nil {
				return false, deep
			}
			tree = tree && ok
		}
		return tree, nil
	case []any:
		if depth > maxDepth {
			return true, &depthError{Path: path}
		}
		tree := true
		for i, e := range t {
			ok, deep := scanTree(e, path+"/"+strconv.Itoa(i), depth+1, maxDepth)
			if deep != nil {
				return false, deep
			}
			tree = tree && ok
		}
		return tree, nil
	case jsonNumber:
		return true, nil
	}
	return false, nil
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// rebase moves issue paths under prefix, e.g. "/x" -> "/data/x".
func rebase(prefix string, iss Issues) Issues {
	out := make(Issues, len(iss))
	for i, it := range iss {
		it.Path = prefix + it.Path
		out[i] = it
	}
	return out
}
