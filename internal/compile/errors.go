package compile

import (
	"fmt"
	"strings"
)

// SchemaError reports a schema that cannot be compiled.
type SchemaError struct {
	Doc     string
	Pointer string
	Keyword string // empty when the whole schema is malformed
	Err     error
}

func (e *SchemaError) Error() string {
	loc := e.Doc + "#" + e.Pointer
	if e.Keyword != "" {
		return fmt.Sprintf("compile: %s: %s: %v", loc, e.Keyword, e.Err)
	}
	return fmt.Sprintf("compile: %s: %v", loc, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// CycleError reports a $ref chain that re-enters a schema still being
// compiled. Chain lists the schema locations in visiting order and ends with
// the repeated one.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "compile: cyclic $ref: " + strings.Join(e.Chain, " -> ")
}
