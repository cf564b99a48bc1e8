package xvizschema

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType          = "invalid_type"
	CodeRequired             = "required"
	CodeUnknownKey           = "unknown_key"
	CodeDuplicateKey         = "duplicate_key"
	CodeTooSmall             = "too_small"
	CodeTooBig               = "too_big"
	CodeTooShort             = "too_short"
	CodeTooLong              = "too_long"
	CodePattern              = "pattern"
	CodeInvalidEnum          = "invalid_enum"
	CodeInvalidFormat        = "invalid_format"
	CodeNotMultiple          = "not_multiple"
	CodeDuplicateItem        = "duplicate_item"
	CodeNoMatch              = "no_match"
	CodeUnionAmbiguous       = "union_ambiguous"
	CodeNotAllowed           = "not_allowed"
	CodeDiscriminatorMissing = "discriminator_missing"
	CodeDiscriminatorUnknown = "discriminator_unknown"
	CodeParseError           = "parse_error"
	CodeTooComplex           = "too_complex"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /updates/0/timestamp); "" is the payload itself.
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: format name, pattern or allowed values.
	// Params carries structured parameters (e.g., {"min":1, "got":0})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error lists every issue as "code at path: message"; the payload itself is
// "root".
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	b := &strings.Builder{}
	for i, it := range iss {
		if i > 0 {
			b.WriteString("; ")
		}
		if it.Path == "" {
			fmt.Fprintf(b, "%s at root", it.Code)
		} else {
			fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
		}
		if it.Message != "" {
			b.WriteString(": ")
			b.WriteString(it.Message)
		}
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

var (
	// ErrSchemaNotFound matches every *NotFoundError.
	ErrSchemaNotFound = errors.New("xviz: could not load schema")
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("xviz: validation error")
)

// NotFoundError reports a schema name with no usable catalog entry. Cause is
// set when the document exists but could not be compiled.
type NotFoundError struct {
	Name  Name
	Cause error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("xviz: could not load schema %q", string(e.Name))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, ErrSchemaNotFound) hold.
func (e *NotFoundError) Is(target error) bool { return target == ErrSchemaNotFound }

// ValidationError reports a payload that does not conform to Schema. It is
// raised once per call and lists every discrepancy.
type ValidationError struct {
	Schema Name
	Issues Issues
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("xviz: %s: validation error (%d issues): %s", string(e.Schema), len(e.Issues), e.Issues.Error())
}

// Unwrap exposes the issues to AsIssues.
func (e *ValidationError) Unwrap() error { return e.Issues }

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Kind classifies a validation outcome.
type Kind int

const (
	KindNone Kind = iota
	KindNotFound
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "none"
	}
}

// KindOf reports which failure kind err is. Errors of neither kind, and nil,
// are KindNone.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrSchemaNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	}
	return KindNone
}

// Result is the outcome of Check: the schema that was applied and every
// discrepancy found, in deterministic order.
type Result struct {
	Schema Name
	Issues Issues
}

// OK reports whether the payload conforms.
func (r Result) OK() bool { return len(r.Issues) == 0 }

// Err returns nil for a conforming payload and a *ValidationError otherwise.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Schema: r.Schema, Issues: r.Issues}
}
