// Package compile turns decoded schema documents into immutable Node trees
// and checks payloads against them.
package compile

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/reoring/xvizschema/internal/catalog"
)

// UnknownPolicy decides how undeclared object members are treated.
type UnknownPolicy int

const (
	// UnknownAsDeclared honours each schema's own additionalProperties.
	UnknownAsDeclared UnknownPolicy = iota
	// UnknownStrict also closes object schemas that declare properties but
	// leave additionalProperties unset.
	UnknownStrict
)

// Options configures a Compiler.
type Options struct {
	Unknown UnknownPolicy
	// Formats maps a format name to its assertion. Nil means DefaultFormats.
	Formats map[string]FormatFunc
}

// Resolver locates schema documents and $ref targets.
// *catalog.Store implements it.
type Resolver interface {
	Resolve(fromID, ref string) (docID, pointer string, err error)
	Fragment(docID, pointer string) (any, error)
}

// Compiler compiles schema locations into Nodes. It holds no mutable state
// and can be shared.
type Compiler struct {
	res  Resolver
	opts Options
}

// New returns a Compiler over res.
func New(res Resolver, opts Options) *Compiler {
	if opts.Formats == nil {
		opts.Formats = DefaultFormats()
	}
	return &Compiler{res: res, opts: opts}
}

// Compile compiles the whole document docID.
func (c *Compiler) Compile(docID string) (*Node, error) {
	return c.CompileAt(docID, "")
}

// CompileAt compiles the schema found at pointer inside docID together with
// everything it references. Each location is compiled once per call.
func (c *Compiler) CompileAt(docID, pointer string) (*Node, error) {
	s := &session{
		c:      c,
		done:   make(map[string]*Node),
		active: make(map[string]int),
	}
	return s.compileRef(docID, pointer)
}

type session struct {
	c      *Compiler
	done   map[string]*Node
	active map[string]int // location -> index in stack
	stack  []string
}

func (s *session) compileRef(docID, ptr string) (*Node, error) {
	key := docID + "#" + ptr
	if n, ok := s.done[key]; ok {
		return n, nil
	}
	if i, ok := s.active[key]; ok {
		chain := append(append([]string(nil), s.stack[i:]...), key)
		return nil, &CycleError{Chain: chain}
	}
	raw, err := s.c.res.Fragment(docID, ptr)
	if err != nil {
		return nil, &SchemaError{Doc: docID, Pointer: ptr, Err: err}
	}
	s.active[key] = len(s.stack)
	s.stack = append(s.stack, key)
	n, err := s.compileSchema(docID, ptr, raw)
	s.stack = s.stack[:len(s.stack)-1]
	delete(s.active, key)
	if err != nil {
		return nil, err
	}
	s.done[key] = n
	return n, nil
}

func (s *session) compileSchema(docID, ptr string, raw any) (*Node, error) {
	loc := docID + "#" + ptr
	switch t := raw.(type) {
	case bool:
		b := t
		return &Node{loc: loc, boolean: &b}, nil
	case map[string]any:
		if ref, ok := t["$ref"]; ok {
			r, isString := ref.(string)
			if !isString {
				return nil, &SchemaError{Doc: docID, Pointer: ptr, Keyword: "$ref", Err: errors.New("must be a string")}
			}
			target, frag, err := s.c.res.Resolve(docID, r)
			if err != nil {
				return nil, &SchemaError{Doc: docID, Pointer: ptr, Keyword: "$ref", Err: err}
			}
			return s.compileRef(target, frag)
		}
		b := &nodeBuilder{s: s, doc: docID, ptr: ptr, m: t, n: &Node{loc: loc}}
		return b.build()
	default:
		return nil, &SchemaError{Doc: docID, Pointer: ptr, Err: fmt.Errorf("schema must be an object or boolean, got %T", raw)}
	}
}

type nodeBuilder struct {
	s   *session
	doc string
	ptr string
	m   map[string]any
	n   *Node
	err error
}

func (b *nodeBuilder) fail(kw string, err error) {
	if b.err == nil {
		b.err = &SchemaError{Doc: b.doc, Pointer: b.ptr, Keyword: kw, Err: err}
	}
}

func (b *nodeBuilder) sub(suffix string, raw any) *Node {
	if b.err != nil {
		return nil
	}
	n, err := b.s.compileSchema(b.doc, b.ptr+suffix, raw)
	if err != nil {
		b.err = err
		return nil
	}
	return n
}

func (b *nodeBuilder) build() (*Node, error) {
	b.types()
	b.generic()
	b.numeric()
	b.strings()
	b.objects()
	b.arrays()
	b.combinators()
	if b.err != nil {
		return nil, b.err
	}
	return b.n, nil
}

var knownTypes = map[string]bool{
	"array": true, "boolean": true, "integer": true, "null": true,
	"number": true, "object": true, "string": true,
}

func (b *nodeBuilder) types() {
	raw, ok := b.m["type"]
	if !ok {
		return
	}
	var list []string
	switch t := raw.(type) {
	case string:
		list = []string{t}
	case []any:
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				b.fail("type", fmt.Errorf("entries must be strings, got %T", e))
				return
			}
			list = append(list, s)
		}
	default:
		b.fail("type", fmt.Errorf("must be a string or array, got %T", raw))
		return
	}
	for _, s := range list {
		if !knownTypes[s] {
			b.fail("type", fmt.Errorf("unknown type %q", s))
			return
		}
	}
	b.n.types = list
}

func (b *nodeBuilder) generic() {
	if raw, ok := b.m["enum"]; ok {
		list, ok := raw.([]any)
		if !ok {
			b.fail("enum", fmt.Errorf("must be an array, got %T", raw))
			return
		}
		b.n.enum = list
		b.n.hasEnum = true
	}
	if raw, ok := b.m["const"]; ok {
		b.n.constVal = raw
		b.n.hasConst = true
	}
}

func (b *nodeBuilder) number(kw string) *big.Rat {
	raw, ok := b.m[kw]
	if !ok {
		return nil
	}
	r, ok := toRat(raw)
	if !ok {
		b.fail(kw, fmt.Errorf("must be a number, got %T", raw))
		return nil
	}
	return r
}

// count reads a non-negative integer keyword; -1 means absent.
func (b *nodeBuilder) count(kw string) int {
	raw, ok := b.m[kw]
	if !ok {
		return -1
	}
	r, ok := toRat(raw)
	if !ok || !r.IsInt() || r.Sign() < 0 || !r.Num().IsInt64() {
		b.fail(kw, fmt.Errorf("must be a non-negative integer, got %v", raw))
		return -1
	}
	return int(r.Num().Int64())
}

func (b *nodeBuilder) numeric() {
	n := b.n
	n.minimum = b.number("minimum")
	n.maximum = b.number("maximum")
	// exclusiveMinimum/Maximum take the draft-04 boolean form or the
	// draft-06 number form.
	if raw, ok := b.m["exclusiveMinimum"]; ok {
		if flag, isBool := raw.(bool); isBool {
			if flag && n.minimum != nil {
				n.exclusiveMin, n.minimum = n.minimum, nil
			}
		} else {
			n.exclusiveMin = b.number("exclusiveMinimum")
		}
	}
	if raw, ok := b.m["exclusiveMaximum"]; ok {
		if flag, isBool := raw.(bool); isBool {
			if flag && n.maximum != nil {
				n.exclusiveMax, n.maximum = n.maximum, nil
			}
		} else {
			n.exclusiveMax = b.number("exclusiveMaximum")
		}
	}
	if m := b.number("multipleOf"); m != nil {
		if m.Sign() <= 0 {
			b.fail("multipleOf", errors.New("must be greater than 0"))
			return
		}
		n.multipleOf = m
	}
}

func (b *nodeBuilder) strings() {
	n := b.n
	n.minLength = b.count("minLength")
	n.maxLength = b.count("maxLength")
	if raw, ok := b.m["pattern"]; ok {
		src, isString := raw.(string)
		if !isString {
			b.fail("pattern", fmt.Errorf("must be a string, got %T", raw))
			return
		}
		re, err := regexp.Compile(src)
		if err != nil {
			b.fail("pattern", err)
			return
		}
		n.pattern = re
	}
	if raw, ok := b.m["format"]; ok {
		name, isString := raw.(string)
		if !isString {
			b.fail("format", fmt.Errorf("must be a string, got %T", raw))
			return
		}
		if fn, known := b.s.c.opts.Formats[name]; known {
			n.format = name
			n.formatFn = fn
		}
	}
}

func (b *nodeBuilder) objects() {
	n := b.n
	n.minProps = b.count("minProperties")
	n.maxProps = b.count("maxProperties")

	if raw, ok := b.m["required"]; ok {
		list, isList := raw.([]any)
		if !isList {
			b.fail("required", fmt.Errorf("must be an array, got %T", raw))
			return
		}
		for _, e := range list {
			s, isString := e.(string)
			if !isString {
				b.fail("required", fmt.Errorf("entries must be strings, got %T", e))
				return
			}
			n.required = append(n.required, s)
		}
	}

	props, declared := b.schemaMap("properties")
	if len(props) > 0 {
		n.properties = props
	}
	patterns, _ := b.schemaMap("patternProperties")
	for _, src := range sortedNodeKeys(patterns) {
		re, err := regexp.Compile(src)
		if err != nil {
			b.fail("patternProperties", err)
			return
		}
		n.patternProps = append(n.patternProps, patternProp{re: re, node: patterns[src]})
	}

	switch ap := b.m["additionalProperties"].(type) {
	case nil:
		if _, present := b.m["additionalProperties"]; !present && declared && b.s.c.opts.Unknown == UnknownStrict {
			n.closed = true
		}
	case bool:
		n.closed = !ap
	default:
		n.additional = b.sub("/additionalProperties", ap)
	}

	if raw, ok := b.m["propertyNames"]; ok {
		n.propertyNames = b.sub("/propertyNames", raw)
	}

	if raw, ok := b.m["dependencies"]; ok {
		deps, isMap := raw.(map[string]any)
		if !isMap {
			b.fail("dependencies", fmt.Errorf("must be an object, got %T", raw))
			return
		}
		for _, key := range sortedKeys(deps) {
			d := dependency{key: key}
			switch v := deps[key].(type) {
			case []any:
				for _, e := range v {
					s, isString := e.(string)
					if !isString {
						b.fail("dependencies", fmt.Errorf("%q: entries must be strings", key))
						return
					}
					d.required = append(d.required, s)
				}
			default:
				d.schema = b.sub(catalog.JoinPointer("/dependencies", key), v)
			}
			n.dependencies = append(n.dependencies, d)
		}
	}
}

// schemaMap compiles a name -> schema keyword. declared reports whether the
// keyword is present at all.
func (b *nodeBuilder) schemaMap(kw string) (out map[string]*Node, declared bool) {
	raw, ok := b.m[kw]
	if !ok {
		return nil, false
	}
	m, isMap := raw.(map[string]any)
	if !isMap {
		b.fail(kw, fmt.Errorf("must be an object, got %T", raw))
		return nil, true
	}
	out = make(map[string]*Node, len(m))
	for _, k := range sortedKeys(m) {
		out[k] = b.sub(catalog.JoinPointer("/"+kw, k), m[k])
	}
	return out, true
}

func (b *nodeBuilder) arrays() {
	n := b.n
	n.minItems = b.count("minItems")
	n.maxItems = b.count("maxItems")
	if raw, ok := b.m["uniqueItems"]; ok {
		flag, isBool := raw.(bool)
		if !isBool {
			b.fail("uniqueItems", fmt.Errorf("must be a boolean, got %T", raw))
			return
		}
		n.uniqueItems = flag
	}
	switch items := b.m["items"].(type) {
	case nil:
	case []any:
		n.tuple = make([]*Node, len(items))
		for i, it := range items {
			n.tuple[i] = b.sub("/items/"+strconv.Itoa(i), it)
		}
		switch ai := b.m["additionalItems"].(type) {
		case nil:
		case bool:
			n.tupleClosed = !ai
		default:
			n.additionalItems = b.sub("/additionalItems", ai)
		}
	default:
		n.items = b.sub("/items", items)
	}
	if raw, ok := b.m["contains"]; ok {
		n.contains = b.sub("/contains", raw)
	}
}

func (b *nodeBuilder) combinators() {
	n := b.n
	n.allOf = b.schemaList("allOf")
	n.anyOf = b.schemaList("anyOf")
	n.oneOf = b.schemaList("oneOf")
	if raw, ok := b.m["not"]; ok {
		n.not = b.sub("/not", raw)
	}
	// then and else without if are annotations.
	if raw, ok := b.m["if"]; ok {
		n.ifNode = b.sub("/if", raw)
		if raw, ok := b.m["then"]; ok {
			n.thenNode = b.sub("/then", raw)
		}
		if raw, ok := b.m["else"]; ok {
			n.elseNode = b.sub("/else", raw)
		}
	}
}

func (b *nodeBuilder) schemaList(kw string) []*Node {
	raw, ok := b.m[kw]
	if !ok {
		return nil
	}
	list, isList := raw.([]any)
	if !isList || len(list) == 0 {
		b.fail(kw, errors.New("must be a non-empty array"))
		return nil
	}
	out := make([]*Node, len(list))
	for i, it := range list {
		out[i] = b.sub("/"+kw+"/"+strconv.Itoa(i), it)
	}
	return out
}

func sortedNodeKeys(m map[string]*Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// typeList renders the declared types for issue params.
func typeList(types []string) string {
	return strings.Join(types, "|")
}
