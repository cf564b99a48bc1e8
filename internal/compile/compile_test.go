package compile

import (
	"bytes"
	"encoding/json"
	"math"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/xvizschema/internal/catalog"
	"github.com/reoring/xvizschema/schemas"
)

func storeOf(t *testing.T, docs map[string]string) *catalog.Store {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, body := range docs {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	s, err := catalog.Load(fsys)
	require.NoError(t, err)
	return s
}

func compileSchema(t *testing.T, schema string, opts Options) *Node {
	t.Helper()
	s := storeOf(t, map[string]string{"t.schema.json": schema})
	n, err := New(s, opts).Compile("t.schema.json")
	require.NoError(t, err)
	return n
}

func decode(t *testing.T, s string) any {
	t.Helper()
	dec := gojson.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func codes(iss []Issue) []string {
	out := make([]string, len(iss))
	for i, is := range iss {
		out[i] = is.Code + "@" + is.Path
	}
	return out
}

func TestCompileBundledCatalog(t *testing.T) {
	s, err := catalog.Load(schemas.FS())
	require.NoError(t, err)
	c := New(s, Options{})
	for _, id := range s.IDs() {
		n, err := c.Compile(id)
		require.NoError(t, err, id)
		assert.Equal(t, id+"#", n.Location())
	}
}

func TestTypes(t *testing.T) {
	cases := []struct {
		typ  string
		val  any
		want bool
	}{
		{"number", 1, true},
		{"number", 1.5, true},
		{"number", uint8(3), true},
		{"number", json.Number("12345.5"), true},
		{"number", "1", false},
		{"integer", json.Number("3"), true},
		{"integer", json.Number("3.0"), true},
		{"integer", json.Number("3.5"), false},
		{"integer", 2.0, true},
		{"integer", 2.5, false},
		{"string", "x", true},
		{"string", 1, false},
		{"boolean", false, true},
		{"null", nil, true},
		{"null", false, false},
		{"object", map[string]any{}, true},
		{"object", []any{}, false},
		{"array", []any{}, true},
		{"array", map[string]any{}, false},
	}
	for _, tc := range cases {
		n := compileSchema(t, `{"type":"`+tc.typ+`"}`, Options{})
		iss := n.Check(tc.val, CheckOptions{})
		if tc.want {
			assert.Empty(t, iss, "%s accepts %#v", tc.typ, tc.val)
		} else {
			require.Len(t, iss, 1, "%s rejects %#v", tc.typ, tc.val)
			assert.Equal(t, CodeInvalidType, iss[0].Code)
			assert.Equal(t, tc.typ, iss[0].Params["expected"])
		}
	}
}

func TestTypeList(t *testing.T) {
	n := compileSchema(t, `{"type":["string","null"]}`, Options{})
	assert.Empty(t, n.Check(nil, CheckOptions{}))
	assert.Empty(t, n.Check("x", CheckOptions{}))
	iss := n.Check(1, CheckOptions{})
	require.Len(t, iss, 1)
	assert.Equal(t, "string|null", iss[0].Params["expected"])
	assert.Equal(t, "integer", iss[0].Params["got"])
}

func TestObjectClosedness(t *testing.T) {
	const open = `{"type":"object","properties":{"a":{"type":"string"}}}`
	const closed = `{"type":"object","properties":{"a":{"type":"string"}},"additionalProperties":false}`
	payload := map[string]any{"a": "x", "b": 1}

	assert.Empty(t, compileSchema(t, open, Options{}).Check(payload, CheckOptions{}))
	assert.Equal(t, []string{"unknown_key@/b"},
		codes(compileSchema(t, closed, Options{}).Check(payload, CheckOptions{})))
	assert.Equal(t, []string{"unknown_key@/b"},
		codes(compileSchema(t, open, Options{Unknown: UnknownStrict}).Check(payload, CheckOptions{})))

	// an object without declared properties stays open under the strict policy
	free := compileSchema(t, `{"type":"object"}`, Options{Unknown: UnknownStrict})
	assert.Empty(t, free.Check(payload, CheckOptions{}))
}

func TestAdditionalPropertiesSchema(t *testing.T) {
	n := compileSchema(t, `{"type":"object","additionalProperties":{"type":"number"}}`, Options{})
	assert.Empty(t, n.Check(map[string]any{"a": 1, "b": 2.5}, CheckOptions{}))
	assert.Equal(t, []string{"invalid_type@/b"}, codes(n.Check(map[string]any{"a": 1, "b": "x"}, CheckOptions{})))
}

func TestIssueOrderIsDeterministic(t *testing.T) {
	n := compileSchema(t, `{
		"type":"object",
		"required":["a","b"],
		"properties":{"a":{},"b":{},"x":{"type":"integer"}},
		"additionalProperties":false
	}`, Options{})
	payload := decode(t, `{"z":1,"x":"s","y":2}`)
	want := []string{
		"required@/a",
		"required@/b",
		"invalid_type@/x",
		"unknown_key@/y",
		"unknown_key@/z",
	}
	for i := 0; i < 20; i++ {
		assert.Equal(t, want, codes(n.Check(payload, CheckOptions{})))
	}
}

func TestPointerEscapingInPaths(t *testing.T) {
	n := compileSchema(t, `{"additionalProperties":false}`, Options{})
	iss := n.Check(map[string]any{"a/b~c": 1}, CheckOptions{})
	require.Len(t, iss, 1)
	assert.Equal(t, "/a~1b~0c", iss[0].Path)
}

func TestNumericKeywords(t *testing.T) {
	n := compileSchema(t, `{"type":"number","minimum":0,"maximum":10,"multipleOf":0.5}`, Options{})
	assert.Empty(t, n.Check(json.Number("2.5"), CheckOptions{}))
	assert.Empty(t, n.Check(10, CheckOptions{}))
	assert.Equal(t, []string{"too_small@"}, codes(n.Check(-1, CheckOptions{})))
	assert.Equal(t, []string{"too_big@"}, codes(n.Check(10.5, CheckOptions{})))
	assert.Equal(t, []string{"not_multiple@"}, codes(n.Check(0.3, CheckOptions{})))

	ex := compileSchema(t, `{"exclusiveMinimum":0,"exclusiveMaximum":1}`, Options{})
	assert.Equal(t, []string{"too_small@"}, codes(ex.Check(0, CheckOptions{})))
	assert.Equal(t, []string{"too_big@"}, codes(ex.Check(1, CheckOptions{})))
	assert.Empty(t, ex.Check(0.5, CheckOptions{}))

	draft4 := compileSchema(t, `{"minimum":0,"exclusiveMinimum":true}`, Options{})
	assert.Equal(t, []string{"too_small@"}, codes(draft4.Check(0, CheckOptions{})))
}

func TestStringKeywords(t *testing.T) {
	n := compileSchema(t, `{"type":"string","minLength":2,"maxLength":4,"pattern":"^[a-z]+$"}`, Options{})
	assert.Empty(t, n.Check("abc", CheckOptions{}))
	assert.Equal(t, []string{"too_short@"}, codes(n.Check("a", CheckOptions{})))
	assert.Equal(t, []string{"too_long@"}, codes(n.Check("abcde", CheckOptions{})))
	assert.Equal(t, []string{"pattern@"}, codes(n.Check("AB", CheckOptions{})))

	// length counts code points
	runes := compileSchema(t, `{"maxLength":2}`, Options{})
	assert.Empty(t, runes.Check("éé", CheckOptions{}))
}

func TestFormats(t *testing.T) {
	n := compileSchema(t, `{"type":"string","format":"uuid"}`, Options{})
	assert.Empty(t, n.Check("0b2f4c3e-8a5d-4f0e-9a41-6b1f2c7d8e90", CheckOptions{}))
	assert.Equal(t, []string{"invalid_format@"}, codes(n.Check("not-a-uuid", CheckOptions{})))
	assert.Equal(t, []string{"invalid_format@"}, codes(n.Check("{0b2f4c3e-8a5d-4f0e-9a41-6b1f2c7d8e90}", CheckOptions{})))

	unknown := compileSchema(t, `{"format":"hostname-ish"}`, Options{})
	assert.Empty(t, unknown.Check("anything", CheckOptions{}))

	custom := compileSchema(t, `{"format":"even"}`, Options{Formats: map[string]FormatFunc{
		"even": func(s string) bool { return len(s)%2 == 0 },
	}})
	assert.Empty(t, custom.Check("ab", CheckOptions{}))
	assert.Equal(t, []string{"invalid_format@"}, codes(custom.Check("abc", CheckOptions{})))

	assert.True(t, isDateTime("2024-05-01T12:00:00Z"))
	assert.False(t, isDateTime("2024-05-01"))
	assert.True(t, isURI("https://example.com/a"))
	assert.False(t, isURI("relative/path"))
	assert.True(t, isBase64("aGVsbG8="))
	assert.False(t, isBase64("not base64!"))
	assert.True(t, isRegex("^a+$"))
	assert.False(t, isRegex("(("))
}

func TestEnumAndConst(t *testing.T) {
	n := compileSchema(t, `{"enum":["a",1,null,{"k":[1,2]}]}`, Options{})
	assert.Empty(t, n.Check("a", CheckOptions{}))
	assert.Empty(t, n.Check(1.0, CheckOptions{}))
	assert.Empty(t, n.Check(nil, CheckOptions{}))
	assert.Empty(t, n.Check(map[string]any{"k": []any{1, json.Number("2")}}, CheckOptions{}))
	iss := n.Check("b", CheckOptions{})
	require.Len(t, iss, 1)
	assert.Equal(t, CodeInvalidEnum, iss[0].Code)
	assert.Equal(t, `"b"`, iss[0].Params["got"])

	c := compileSchema(t, `{"const":"xviz"}`, Options{})
	assert.Empty(t, c.Check("xviz", CheckOptions{}))
	assert.Equal(t, []string{"invalid_enum@"}, codes(c.Check("other", CheckOptions{})))
}

func TestArrayKeywords(t *testing.T) {
	n := compileSchema(t, `{"type":"array","items":{"type":"number"},"minItems":2,"maxItems":3,"uniqueItems":true}`, Options{})
	assert.Empty(t, n.Check([]any{1, 2}, CheckOptions{}))
	assert.Equal(t, []string{"too_short@"}, codes(n.Check([]any{1}, CheckOptions{})))
	assert.Equal(t, []string{"too_long@"}, codes(n.Check([]any{1, 2, 3, 4}, CheckOptions{})))
	assert.Equal(t, []string{"invalid_type@/1"}, codes(n.Check([]any{1, "x"}, CheckOptions{})))
	assert.Equal(t, []string{"duplicate_item@/2"}, codes(n.Check([]any{1, 2, 1.0}, CheckOptions{})))

	tuple := compileSchema(t, `{"items":[{"type":"string"},{"type":"number"}],"additionalItems":false}`, Options{})
	assert.Empty(t, tuple.Check([]any{"a", 1}, CheckOptions{}))
	assert.Equal(t, []string{"too_long@"}, codes(tuple.Check([]any{"a", 1, true}, CheckOptions{})))

	contains := compileSchema(t, `{"contains":{"const":3}}`, Options{})
	assert.Empty(t, contains.Check([]any{1, 3}, CheckOptions{}))
	assert.Equal(t, []string{"no_match@"}, codes(contains.Check([]any{1, 2}, CheckOptions{})))
}

func TestObjectCountKeywords(t *testing.T) {
	n := compileSchema(t, `{"minProperties":1,"maxProperties":1,"patternProperties":{"^x_":{"type":"string"}},"propertyNames":{"maxLength":3}}`, Options{})
	assert.Empty(t, n.Check(map[string]any{"x_a": "s"}, CheckOptions{}))
	assert.Equal(t, []string{"too_small@"}, codes(n.Check(map[string]any{}, CheckOptions{})))
	assert.Equal(t, []string{"too_big@"}, codes(n.Check(map[string]any{"a": 1, "b": 2}, CheckOptions{})))
	assert.Equal(t, []string{"invalid_type@/x_a"}, codes(n.Check(map[string]any{"x_a": 1}, CheckOptions{})))
	assert.Equal(t, []string{"too_long@/long"}, codes(n.Check(map[string]any{"long": 1}, CheckOptions{})))
}

func TestDependencies(t *testing.T) {
	n := compileSchema(t, `{"dependencies":{"a":["b"],"c":{"required":["d"]}}}`, Options{})
	assert.Empty(t, n.Check(map[string]any{"a": 1, "b": 2}, CheckOptions{}))
	assert.Equal(t, []string{"required@/b"}, codes(n.Check(map[string]any{"a": 1}, CheckOptions{})))
	assert.Equal(t, []string{"required@/d"}, codes(n.Check(map[string]any{"c": 1}, CheckOptions{})))
}

func TestCombinators(t *testing.T) {
	some := compileSchema(t, `{"anyOf":[{"type":"string"},{"type":"integer"}]}`, Options{})
	assert.Empty(t, some.Check("x", CheckOptions{}))
	assert.Empty(t, some.Check(3, CheckOptions{}))
	assert.Equal(t, []string{"no_match@"}, codes(some.Check(1.5, CheckOptions{})))

	one := compileSchema(t, `{"oneOf":[{"type":"number"},{"type":"integer"}]}`, Options{})
	assert.Empty(t, one.Check(1.5, CheckOptions{}))
	assert.Equal(t, []string{"union_ambiguous@"}, codes(one.Check(1, CheckOptions{})))
	assert.Equal(t, []string{"no_match@"}, codes(one.Check("x", CheckOptions{})))

	all := compileSchema(t, `{"allOf":[{"minimum":1},{"maximum":2}]}`, Options{})
	assert.Equal(t, []string{"too_big@"}, codes(all.Check(3, CheckOptions{})))

	not := compileSchema(t, `{"not":{"type":"null"}}`, Options{})
	assert.Empty(t, not.Check(1, CheckOptions{}))
	assert.Equal(t, []string{"not_allowed@"}, codes(not.Check(nil, CheckOptions{})))

	never := compileSchema(t, `{"properties":{"x":false}}`, Options{})
	assert.Equal(t, []string{"not_allowed@/x"}, codes(never.Check(map[string]any{"x": 1}, CheckOptions{})))
}

func TestConditionals(t *testing.T) {
	n := compileSchema(t, `{
		"type": "object",
		"if": {"properties": {"k": {"const": "a"}}, "required": ["k"]},
		"then": {"required": ["n"]},
		"else": {"properties": {"n": {"type": "string"}}}
	}`, Options{})
	assert.Equal(t, []string{"required@/n"}, codes(n.Check(map[string]any{"k": "a"}, CheckOptions{})))
	assert.Empty(t, n.Check(map[string]any{"k": "a", "n": 1}, CheckOptions{}))
	assert.Empty(t, n.Check(map[string]any{"k": "b"}, CheckOptions{}))
	assert.Equal(t, []string{"invalid_type@/n"}, codes(n.Check(map[string]any{"k": "b", "n": 1}, CheckOptions{})))

	thenOnly := compileSchema(t, `{"then": {"type": "string"}, "else": {"type": "string"}}`, Options{})
	assert.Empty(t, thenOnly.Check(1, CheckOptions{}))
}

func TestNonFiniteNumbers(t *testing.T) {
	typed := compileSchema(t, `{"type":"number","minimum":-180,"maximum":180}`, Options{})
	untyped := compileSchema(t, `{"maximum":180}`, Options{})
	for _, f := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		assert.Equal(t, []string{"invalid_type@"}, codes(typed.Check(f, CheckOptions{})))
		assert.Equal(t, []string{"invalid_type@"}, codes(untyped.Check(f, CheckOptions{})))
		assert.Equal(t, []string{"invalid_type@"}, codes(untyped.Check(float32(f), CheckOptions{})))
	}
	iss := typed.Check(math.Inf(1), CheckOptions{})
	assert.Equal(t, "non-finite number", iss[0].Params["got"])
	assert.Empty(t, typed.Check(180.0, CheckOptions{}))
}

func TestRootAndEmptyKeyPathsDiffer(t *testing.T) {
	n := compileSchema(t, `{"minProperties":2,"properties":{"":{"type":"string"}}}`, Options{})
	assert.Equal(t, []string{"too_small@", "invalid_type@/"}, codes(n.Check(map[string]any{"": 1}, CheckOptions{})))
}

func TestCrossDocumentRefs(t *testing.T) {
	s := storeOf(t, map[string]string{
		"core/a.schema.json": `{"type":"object","properties":{"v":{"$ref":"../math/v.schema.json"},"w":{"$ref":"#/definitions/w"}},"definitions":{"w":{"type":"boolean"}},"additionalProperties":false}`,
		"math/v.schema.json": `{"type":"array","items":{"type":"number"},"minItems":3,"maxItems":3}`,
	})
	n, err := New(s, Options{}).Compile("core/a.schema.json")
	require.NoError(t, err)
	assert.Empty(t, n.Check(decode(t, `{"v":[1,2,3],"w":true}`), CheckOptions{}))
	assert.Equal(t, []string{"too_short@/v", "invalid_type@/w"},
		codes(n.Check(decode(t, `{"v":[1,2],"w":1}`), CheckOptions{})))
}

func TestSharedRefCompiledOnce(t *testing.T) {
	s := storeOf(t, map[string]string{
		"a.schema.json": `{"properties":{"x":{"$ref":"v.schema.json"},"y":{"$ref":"v.schema.json"}}}`,
		"v.schema.json": `{"type":"number"}`,
	})
	n, err := New(s, Options{}).Compile("a.schema.json")
	require.NoError(t, err)
	assert.Same(t, n.properties["x"], n.properties["y"])
}

func TestCycleDetection(t *testing.T) {
	s := storeOf(t, map[string]string{
		"self.schema.json": `{"properties":{"next":{"$ref":"#"}}}`,
		"a.schema.json":    `{"items":{"$ref":"b.schema.json"}}`,
		"b.schema.json":    `{"properties":{"back":{"$ref":"a.schema.json"}}}`,
	})
	c := New(s, Options{})

	_, err := c.Compile("self.schema.json")
	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"self.schema.json#", "self.schema.json#"}, ce.Chain)

	_, err = c.Compile("a.schema.json")
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"a.schema.json#", "b.schema.json#", "a.schema.json#"}, ce.Chain)
	assert.Contains(t, err.Error(), "cyclic $ref")
}

func TestInvalidKeywordValues(t *testing.T) {
	cases := map[string]string{
		"pattern":    `{"pattern":"(("}`,
		"minItems":   `{"minItems":-1}`,
		"type":       `{"type":"float"}`,
		"multipleOf": `{"multipleOf":0}`,
		"required":   `{"required":"a"}`,
		"anyOf":      `{"anyOf":[]}`,
	}
	for kw, schema := range cases {
		s := storeOf(t, map[string]string{"t.schema.json": schema})
		_, err := New(s, Options{}).Compile("t.schema.json")
		var se *SchemaError
		require.ErrorAs(t, err, &se, kw)
		assert.Equal(t, kw, se.Keyword)
	}
}

func TestDepthCeiling(t *testing.T) {
	n := compileSchema(t, `{"type":"array","items":{"type":"array","items":{"type":"array","items":{"anyOf":[{"type":"array"}]}}}}`, Options{})
	payload := decode(t, `[[[[1]]]]`)
	assert.Empty(t, n.Check(payload, CheckOptions{}))

	iss := n.Check(payload, CheckOptions{MaxDepth: 2})
	require.Len(t, iss, 1)
	assert.Equal(t, CodeTooComplex, iss[0].Code)
	assert.Equal(t, "/0/0/0", iss[0].Path)
	assert.Equal(t, 2, iss[0].Params["max_depth"])
}

func TestCacheCompilesOncePerID(t *testing.T) {
	s, err := catalog.Load(schemas.FS())
	require.NoError(t, err)
	var hooked sync.Map
	cache := NewCache(New(s, Options{}), func(id string, took time.Duration, err error) {
		_, dup := hooked.LoadOrStore(id, took)
		assert.False(t, dup, id)
		assert.NoError(t, err)
	})

	ids := s.IDs()
	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, id := range ids {
				n, err := cache.Get(id)
				assert.NoError(t, err)
				assert.NotNil(t, n)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, len(ids), cache.Len())
	assert.Equal(t, int64(len(ids)), cache.Compiles())

	first, _ := cache.Get(ids[0])
	again, _ := cache.Get(ids[0])
	assert.Same(t, first, again)
}

func TestCacheRemembersFailure(t *testing.T) {
	s := storeOf(t, map[string]string{"self.schema.json": `{"not":{"$ref":"#"}}`})
	cache := NewCache(New(s, Options{}), nil)
	_, err1 := cache.Get("self.schema.json")
	_, err2 := cache.Get("self.schema.json")
	require.Error(t, err1)
	assert.Equal(t, err1, err2)
	assert.Equal(t, int64(1), cache.Compiles())
}
