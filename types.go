package xvizschema

// UnknownPolicy controls how undeclared object members are handled.
type UnknownPolicy int

const (
	// UnknownAsDeclared follows each schema: only objects declaring
	// additionalProperties:false reject unknown keys.
	UnknownAsDeclared UnknownPolicy = iota
	// UnknownStrict additionally rejects unknown keys on every object schema
	// that declares properties.
	UnknownStrict
)

// Severity expresses the severity level for duplicate JSON keys.
type Severity int

const (
	Ignore Severity = iota
	Warn            // logged, payload still validated
	Error           // payload rejected with duplicate_key
)

func (s Severity) String() string {
	switch s {
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "ignore"
	}
}
