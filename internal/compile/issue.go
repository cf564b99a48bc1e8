package compile

import "github.com/reoring/xvizschema/internal/catalog"

// Issue codes produced while checking a payload.
const (
	CodeInvalidType    = "invalid_type"
	CodeRequired       = "required"
	CodeUnknownKey     = "unknown_key"
	CodeTooSmall       = "too_small"
	CodeTooBig         = "too_big"
	CodeTooShort       = "too_short"
	CodeTooLong        = "too_long"
	CodePattern        = "pattern"
	CodeInvalidEnum    = "invalid_enum"
	CodeInvalidFormat  = "invalid_format"
	CodeNotMultiple    = "not_multiple"
	CodeDuplicateItem  = "duplicate_item"
	CodeNoMatch        = "no_match"
	CodeUnionAmbiguous = "union_ambiguous"
	CodeNotAllowed     = "not_allowed"
	CodeTooComplex     = "too_complex"
)

// Issue is one structural discrepancy. Path is an RFC 6901 JSON Pointer into
// the payload: "" addresses the payload itself, "/" a member named "".
type Issue struct {
	Path   string
	Code   string
	Params map[string]any
}

// DefaultMaxDepth bounds payload nesting when CheckOptions.MaxDepth is unset.
const DefaultMaxDepth = 128

// CheckOptions tunes a single Check call.
type CheckOptions struct {
	MaxDepth int
}

type walker struct {
	maxDepth int
	root     *walker
	issues   []Issue
	tooDeep  bool
}

func newWalker(opt CheckOptions) *walker {
	w := &walker{maxDepth: opt.MaxDepth}
	if w.maxDepth <= 0 {
		w.maxDepth = DefaultMaxDepth
	}
	w.root = w
	return w
}

// branch returns a walker whose issues are collected separately, used to
// probe anyOf/oneOf/not/contains alternatives.
func (w *walker) branch() *walker {
	return &walker{maxDepth: w.maxDepth, root: w.root}
}

func (w *walker) add(path, code string, params map[string]any) {
	w.issues = append(w.issues, Issue{Path: path, Code: code, Params: params})
}

// overflow records the depth ceiling once per Check call. A branch walker
// also fails so that the enclosing alternative does not match.
func (w *walker) overflow(path string) {
	if !w.root.tooDeep {
		w.root.tooDeep = true
		w.root.add(path, CodeTooComplex, map[string]any{"max_depth": w.maxDepth})
	}
	if w != w.root {
		w.add(path, CodeTooComplex, map[string]any{"max_depth": w.maxDepth})
	}
}

func join(path, token string) string {
	return catalog.JoinPointer(path, token)
}
