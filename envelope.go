package xvizschema

import "strings"

// envelopePrefix starts the "type" of every XVIZ envelope.
const envelopePrefix = "xviz/"

// CheckEnvelope validates an XVIZ envelope {"type": "xviz/<kind>", "data": {...}}.
// The envelope itself is checked against core/envelope; data is then checked
// against session/<kind> and its issues are reported under /data.
func (v *Validator) CheckEnvelope(payload any) (Result, error) {
	id := Envelope.Canonical()
	if _, err := v.node(id); err != nil {
		return Result{Schema: id}, err
	}
	doc, err := normalize(payload, v.maxDepth)
	if err != nil {
		return Result{Schema: id, Issues: Issues{v.normalizeIssue(err)}}, nil
	}
	res, err := v.checkTree(Envelope, doc)
	if err != nil {
		return res, err
	}
	if !res.OK() {
		for i, it := range res.Issues {
			if it.Code == CodeRequired && it.Path == "/type" {
				res.Issues[i] = v.issue(it.Path, CodeDiscriminatorMissing, map[string]any{"key": "type"})
			}
		}
		return res, nil
	}

	m, isObject := doc.(map[string]any)
	if !isObject {
		res.Issues = Issues{v.issue("", CodeDiscriminatorMissing, map[string]any{"key": "type"})}
		return res, nil
	}
	typ, _ := m["type"].(string)
	target, ok := subtype(NamespaceSession, strings.TrimPrefix(typ, envelopePrefix))
	if !ok || !v.store.Has(string(target)) {
		res.Issues = Issues{v.issue("/type", CodeDiscriminatorUnknown, map[string]any{"got": typ})}
		return res, nil
	}
	inner, err := v.checkTree(target, m["data"])
	if err != nil {
		return res, err
	}
	if !inner.OK() {
		res.Issues = rebase("/data", inner.Issues)
	}
	return res, nil
}

// ValidateEnvelope is the assertion form of CheckEnvelope.
func (v *Validator) ValidateEnvelope(payload any) error {
	res, err := v.CheckEnvelope(payload)
	if err != nil {
		return err
	}
	return res.Err()
}
