package compile

import (
	"math/big"
	"regexp"
	"strconv"
	"unicode/utf8"
)

// Node is a compiled schema. It is immutable and safe for concurrent use.
type Node struct {
	loc     string
	boolean *bool

	types    []string
	enum     []any
	hasEnum  bool
	constVal any
	hasConst bool

	minimum, maximum           *big.Rat
	exclusiveMin, exclusiveMax *big.Rat
	multipleOf                 *big.Rat

	minLength, maxLength int
	pattern              *regexp.Regexp
	format               string
	formatFn             FormatFunc

	minProps, maxProps int
	required           []string
	properties         map[string]*Node
	patternProps       []patternProp
	additional         *Node
	closed             bool
	propertyNames      *Node
	dependencies       []dependency

	minItems, maxItems int
	uniqueItems        bool
	items              *Node
	tuple              []*Node
	tupleClosed        bool
	additionalItems    *Node
	contains           *Node

	allOf, anyOf, oneOf []*Node
	not                 *Node

	ifNode, thenNode, elseNode *Node
}

type patternProp struct {
	re   *regexp.Regexp
	node *Node
}

type dependency struct {
	key      string
	required []string
	schema   *Node
}

// Location returns "<document>#<pointer>" of the schema the node came from.
func (n *Node) Location() string { return n.loc }

// Check validates v and returns every discrepancy in deterministic order.
// An empty result means v conforms.
func (n *Node) Check(v any, opt CheckOptions) []Issue {
	w := newWalker(opt)
	n.check(w, v, "", 0)
	return w.issues
}

func (n *Node) check(w *walker, v any, path string, depth int) {
	if n.boolean != nil {
		if !*n.boolean {
			w.add(path, CodeNotAllowed, nil)
		}
		return
	}
	if depth > w.maxDepth {
		w.overflow(path)
		return
	}
	if len(n.types) > 0 && !matchesAnyType(v, n.types) {
		w.add(path, CodeInvalidType, map[string]any{"expected": typeList(n.types), "got": jsonType(v)})
		return
	}
	if n.hasEnum && !inEnum(v, n.enum) {
		allowed := make([]string, len(n.enum))
		for i, e := range n.enum {
			allowed[i] = describe(e)
		}
		w.add(path, CodeInvalidEnum, map[string]any{"allowed": allowed, "got": describe(v)})
	}
	if n.hasConst && !jsonEqual(v, n.constVal) {
		w.add(path, CodeInvalidEnum, map[string]any{"allowed": []string{describe(n.constVal)}, "got": describe(v)})
	}

	switch t := v.(type) {
	case string:
		n.checkString(w, t, path)
	case map[string]any:
		n.checkObject(w, t, path, depth)
	case []any:
		n.checkArray(w, t, path, depth)
	case bool, nil:
	case float64:
		if nonFinite(t) {
			w.add(path, CodeInvalidType, map[string]any{"expected": "number", "got": jsonType(v)})
		} else {
			n.checkNumber(w, v, path)
		}
	case float32:
		if nonFinite(float64(t)) {
			w.add(path, CodeInvalidType, map[string]any{"expected": "number", "got": jsonType(v)})
		} else {
			n.checkNumber(w, v, path)
		}
	default:
		if isNumeric(v) {
			n.checkNumber(w, v, path)
		}
	}

	n.checkCombinators(w, v, path, depth)
}

func inEnum(v any, enum []any) bool {
	for _, e := range enum {
		if jsonEqual(v, e) {
			return true
		}
	}
	return false
}

func (n *Node) checkString(w *walker, s, path string) {
	if n.minLength >= 0 || n.maxLength >= 0 {
		l := utf8.RuneCountInString(s)
		if n.minLength >= 0 && l < n.minLength {
			w.add(path, CodeTooShort, map[string]any{"min": n.minLength, "got": l})
		}
		if n.maxLength >= 0 && l > n.maxLength {
			w.add(path, CodeTooLong, map[string]any{"max": n.maxLength, "got": l})
		}
	}
	if n.pattern != nil && !n.pattern.MatchString(s) {
		w.add(path, CodePattern, map[string]any{"pattern": n.pattern.String()})
	}
	if n.formatFn != nil && !n.formatFn(s) {
		w.add(path, CodeInvalidFormat, map[string]any{"format": n.format})
	}
}

func (n *Node) checkNumber(w *walker, v any, path string) {
	r, ok := toRat(v)
	if !ok {
		return
	}
	got := formatRat(r)
	if n.minimum != nil && r.Cmp(n.minimum) < 0 {
		w.add(path, CodeTooSmall, map[string]any{"min": formatRat(n.minimum), "got": got})
	}
	if n.exclusiveMin != nil && r.Cmp(n.exclusiveMin) <= 0 {
		w.add(path, CodeTooSmall, map[string]any{"min": formatRat(n.exclusiveMin), "exclusive": true, "got": got})
	}
	if n.maximum != nil && r.Cmp(n.maximum) > 0 {
		w.add(path, CodeTooBig, map[string]any{"max": formatRat(n.maximum), "got": got})
	}
	if n.exclusiveMax != nil && r.Cmp(n.exclusiveMax) >= 0 {
		w.add(path, CodeTooBig, map[string]any{"max": formatRat(n.exclusiveMax), "exclusive": true, "got": got})
	}
	if n.multipleOf != nil {
		q := new(big.Rat).Quo(r, n.multipleOf)
		if !q.IsInt() {
			w.add(path, CodeNotMultiple, map[string]any{"multiple_of": formatRat(n.multipleOf), "got": got})
		}
	}
}

func (n *Node) checkObject(w *walker, m map[string]any, path string, depth int) {
	if n.minProps >= 0 && len(m) < n.minProps {
		w.add(path, CodeTooSmall, map[string]any{"min": n.minProps, "got": len(m), "of": "properties"})
	}
	if n.maxProps >= 0 && len(m) > n.maxProps {
		w.add(path, CodeTooBig, map[string]any{"max": n.maxProps, "got": len(m), "of": "properties"})
	}
	for _, k := range n.required {
		if _, ok := m[k]; !ok {
			w.add(join(path, k), CodeRequired, map[string]any{"key": k})
		}
	}
	for _, d := range n.dependencies {
		if _, ok := m[d.key]; !ok {
			continue
		}
		for _, k := range d.required {
			if _, ok := m[k]; !ok {
				w.add(join(path, k), CodeRequired, map[string]any{"key": k, "by": d.key})
			}
		}
		if d.schema != nil {
			d.schema.check(w, m, path, depth)
		}
	}
	for _, k := range sortedKeys(m) {
		val := m[k]
		p := join(path, k)
		if n.propertyNames != nil {
			n.propertyNames.check(w, k, p, depth+1)
		}
		matched := false
		if ps, ok := n.properties[k]; ok {
			matched = true
			ps.check(w, val, p, depth+1)
		}
		for _, pp := range n.patternProps {
			if pp.re.MatchString(k) {
				matched = true
				pp.node.check(w, val, p, depth+1)
			}
		}
		if matched {
			continue
		}
		switch {
		case n.closed:
			w.add(p, CodeUnknownKey, map[string]any{"key": k})
		case n.additional != nil:
			n.additional.check(w, val, p, depth+1)
		}
	}
}

func (n *Node) checkArray(w *walker, a []any, path string, depth int) {
	if n.minItems >= 0 && len(a) < n.minItems {
		w.add(path, CodeTooShort, map[string]any{"min": n.minItems, "got": len(a), "of": "items"})
	}
	if n.maxItems >= 0 && len(a) > n.maxItems {
		w.add(path, CodeTooLong, map[string]any{"max": n.maxItems, "got": len(a), "of": "items"})
	}
	switch {
	case n.items != nil:
		for i, e := range a {
			n.items.check(w, e, join(path, strconv.Itoa(i)), depth+1)
		}
	case n.tuple != nil:
		for i, e := range a {
			p := join(path, strconv.Itoa(i))
			switch {
			case i < len(n.tuple):
				n.tuple[i].check(w, e, p, depth+1)
			case n.additionalItems != nil:
				n.additionalItems.check(w, e, p, depth+1)
			}
		}
		if n.tupleClosed && len(a) > len(n.tuple) {
			w.add(path, CodeTooLong, map[string]any{"max": len(n.tuple), "got": len(a), "of": "items"})
		}
	}
	if n.uniqueItems {
	outer:
		for j := 1; j < len(a); j++ {
			for i := 0; i < j; i++ {
				if jsonEqual(a[i], a[j]) {
					w.add(join(path, strconv.Itoa(j)), CodeDuplicateItem, map[string]any{"first": i})
					continue outer
				}
			}
		}
	}
	if n.contains != nil {
		found := false
		for i, e := range a {
			b := w.branch()
			n.contains.check(b, e, join(path, strconv.Itoa(i)), depth+1)
			if len(b.issues) == 0 {
				found = true
				break
			}
		}
		if !found {
			w.add(path, CodeNoMatch, map[string]any{"keyword": "contains"})
		}
	}
}

func (n *Node) checkCombinators(w *walker, v any, path string, depth int) {
	for _, sub := range n.allOf {
		sub.check(w, v, path, depth)
	}
	if len(n.anyOf) > 0 {
		matched := false
		for _, sub := range n.anyOf {
			b := w.branch()
			sub.check(b, v, path, depth)
			if len(b.issues) == 0 {
				matched = true
				break
			}
		}
		if !matched {
			w.add(path, CodeNoMatch, map[string]any{"keyword": "anyOf", "count": len(n.anyOf)})
		}
	}
	if len(n.oneOf) > 0 {
		var hits []int
		for i, sub := range n.oneOf {
			b := w.branch()
			sub.check(b, v, path, depth)
			if len(b.issues) == 0 {
				hits = append(hits, i)
			}
		}
		switch {
		case len(hits) == 0:
			w.add(path, CodeNoMatch, map[string]any{"keyword": "oneOf", "count": len(n.oneOf)})
		case len(hits) > 1:
			w.add(path, CodeUnionAmbiguous, map[string]any{"matches": hits})
		}
	}
	if n.not != nil {
		b := w.branch()
		n.not.check(b, v, path, depth)
		if len(b.issues) == 0 {
			w.add(path, CodeNotAllowed, map[string]any{"keyword": "not"})
		}
	}
	if n.ifNode != nil {
		b := w.branch()
		n.ifNode.check(b, v, path, depth)
		switch {
		case len(b.issues) == 0 && n.thenNode != nil:
			n.thenNode.check(w, v, path, depth)
		case len(b.issues) > 0 && n.elseNode != nil:
			n.elseNode.check(w, v, path, depth)
		}
	}
}

func matchesAnyType(v any, types []string) bool {
	for _, t := range types {
		if matchesType(v, t) {
			return true
		}
	}
	return false
}

func matchesType(v any, want string) bool {
	switch want {
	case "string":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "number":
		return isNumeric(v)
	case "integer":
		return isInteger(v)
	case "object":
		_, ok := v.(map[string]any)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "null":
		return v == nil
	}
	return false
}

// jsonType names the JSON type of a decoded value.
func jsonType(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case float64:
		if nonFinite(t) {
			return "non-finite number"
		}
	case float32:
		if nonFinite(float64(t)) {
			return "non-finite number"
		}
	}
	if isInteger(v) {
		return "integer"
	}
	if isNumeric(v) {
		return "number"
	}
	return "unknown"
}
