package compile

import (
	"math"
	"math/big"
	"strconv"
)

// jsonNumber is satisfied by encoding/json.Number and by decoders that alias it.
type jsonNumber interface {
	Float64() (float64, error)
	Int64() (int64, error)
	String() string
}

// isNumeric reports whether v is a JSON number. NaN and infinities have no
// JSON form and are not numbers.
func isNumeric(v any) bool {
	switch t := v.(type) {
	case float64:
		return !nonFinite(t)
	case float32:
		return !nonFinite(float64(t))
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case jsonNumber:
		_, ok := new(big.Rat).SetString(t.String())
		return ok
	default:
		return false
	}
}

func nonFinite(f float64) bool { return math.IsNaN(f) || math.IsInf(f, 0) }

func isInteger(v any) bool {
	switch t := v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return !math.IsInf(t, 0) && math.Trunc(t) == t
	case float32:
		f := float64(t)
		return !math.IsInf(f, 0) && math.Trunc(f) == f
	case jsonNumber:
		if _, err := t.Int64(); err == nil {
			return true
		}
		r, ok := new(big.Rat).SetString(t.String())
		return ok && r.IsInt()
	default:
		return false
	}
}

// toRat converts a numeric payload or keyword value to an exact rational.
func toRat(v any) (*big.Rat, bool) {
	r := new(big.Rat)
	switch t := v.(type) {
	case int:
		return r.SetInt64(int64(t)), true
	case int8:
		return r.SetInt64(int64(t)), true
	case int16:
		return r.SetInt64(int64(t)), true
	case int32:
		return r.SetInt64(int64(t)), true
	case int64:
		return r.SetInt64(t), true
	case uint:
		return r.SetUint64(uint64(t)), true
	case uint8:
		return r.SetUint64(uint64(t)), true
	case uint16:
		return r.SetUint64(uint64(t)), true
	case uint32:
		return r.SetUint64(uint64(t)), true
	case uint64:
		return r.SetUint64(t), true
	case float32:
		return ratFromFloat(float64(t))
	case float64:
		return ratFromFloat(t)
	case jsonNumber:
		return r.SetString(t.String())
	}
	return nil, false
}

func ratFromFloat(f float64) (*big.Rat, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return new(big.Rat).SetFloat64(f), true
}

// numberEqual compares two numeric values by value, so 1, 1.0 and
// json.Number("1") are equal.
func numberEqual(a, b any) bool {
	ra, ok := toRat(a)
	if !ok {
		return false
	}
	rb, ok := toRat(b)
	if !ok {
		return false
	}
	return ra.Cmp(rb) == 0
}

func formatRat(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	f, _ := r.Float64()
	return strconv.FormatFloat(f, 'g', -1, 64)
}
