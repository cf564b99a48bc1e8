// Package xvizschema validates XVIZ protocol messages against a catalog of
// JSON Schema documents.
//
// A Validator loads the catalog once, compiles every schema and then serves
// any number of concurrent validations:
//
//	v, err := xvizschema.New()
//	err = v.ValidatePrimitive("point", map[string]any{"points": []any{[]any{1, 2, 3}}})
//	err = v.Validate("core/pose", pose)
//	err = v.ValidateJSON(xvizschema.Metadata, data)
//
// Failures come in two kinds. *NotFoundError means the requested schema name
// is not in the catalog. *ValidationError means the payload does not conform
// and carries every discrepancy as Issues (JSON Pointer, code, message).
// KindOf tells them apart; Check returns the discrepancies as a Result
// instead of an error.
//
// Design policy:
//   - Keep only public APIs in the root package; put implementations under internal/.
//   - The bundled catalog lives in schemas/, configuration loading in config/.
//   - Prefer black-box testing against public APIs.
package xvizschema
