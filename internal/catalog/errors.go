package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("catalog: schema not found")

// ErrEmpty reports a catalog without a single schema document.
var ErrEmpty = errors.New("catalog: no schema documents found")

// NotFoundError reports a logical name with no catalog entry.
type NotFoundError struct {
	Name string // canonical identifier that was looked up
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("catalog: schema %q not found", e.Name)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// RefError reports a $ref that cannot be followed.
type RefError struct {
	From    string // document holding the reference
	Pointer string // JSON Pointer to the schema holding the reference
	Ref     string
	Reason  string
}

func (e *RefError) Error() string {
	return fmt.Sprintf("catalog: %s#%s: $ref %q: %s", e.From, e.Pointer, e.Ref, e.Reason)
}
