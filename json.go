package xvizschema

import (
	"errors"
	"io"

	eng "github.com/reoring/xvizschema/internal/engine"
)

// CheckJSON decodes data and checks it against name. Numbers keep their
// textual precision. Duplicate object keys follow WithDuplicateKeys and
// nesting beyond the depth ceiling stops decoding with too_complex.
func (v *Validator) CheckJSON(name Name, data []byte) (Result, error) {
	return v.checkSource(name, eng.NewBytes(data))
}

// ValidateJSON is the assertion form of CheckJSON.
func (v *Validator) ValidateJSON(name Name, data []byte) error {
	res, err := v.CheckJSON(name, data)
	if err != nil {
		return err
	}
	return res.Err()
}

// CheckReader is CheckJSON over a stream. r is read to the end of the first
// JSON value; trailing data is a parse_error.
func (v *Validator) CheckReader(name Name, r io.Reader) (Result, error) {
	return v.checkSource(name, eng.NewReader(r))
}

// ValidateReader is the assertion form of CheckReader.
func (v *Validator) ValidateReader(name Name, r io.Reader) error {
	res, err := v.CheckReader(name, r)
	if err != nil {
		return err
	}
	return res.Err()
}

func (v *Validator) checkSource(name Name, src eng.TokenSource) (Result, error) {
	id := name.Canonical()
	node, err := v.node(id)
	if err != nil {
		return Result{Schema: id}, err
	}
	src = eng.WrapWithEnforcement(src, eng.EnforceOptions{
		OnDuplicate: toEngineDup(v.duplicates),
		// containers, so one more than the value depth the walker allows
		MaxDepth: v.maxDepth + 1,
		IssueSink: func(si eng.SimpleIssue) {
			v.log.Warn().Str("schema", string(id)).Str("path", si.Path).Msg("duplicate JSON key")
		},
	})
	doc, err := eng.DecodeAny(src)
	if err != nil {
		return Result{Schema: id, Issues: Issues{v.decodeIssue(err)}}, nil
	}
	return v.run(id, node, doc), nil
}

func (v *Validator) decodeIssue(err error) Issue {
	var ie eng.IssueError
	if errors.As(err, &ie) {
		params := map[string]any{}
		if ie.Code == CodeTooComplex {
			params["max_depth"] = v.maxDepth
		}
		return v.issue(ie.Path, ie.Code, params)
	}
	return v.issue("", CodeParseError, map[string]any{"error": err.Error()})
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Error:
		return eng.DupError
	case Warn:
		return eng.DupWarn
	default:
		return eng.DupIgnore
	}
}
