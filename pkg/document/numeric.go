package document

import "math"

// addNumeric adds a delta to a field value, preserving the integer kind when
// both sides are integral. JSON decodes numbers to float64 and msgpack to
// int64; both must survive an increment without changing kind.
func addNumeric(cur any, delta float64) (any, bool) {
	integral := delta == math.Trunc(delta)
	switch c := cur.(type) {
	case int:
		if integral {
			return c + int(delta), true
		}
		return float64(c) + delta, true
	case int32:
		if integral {
			return c + int32(delta), true
		}
		return float64(c) + delta, true
	case int64:
		if integral {
			return c + int64(delta), true
		}
		return float64(c) + delta, true
	case float32:
		return float64(c) + delta, true
	case float64:
		return c + delta, true
	default:
		return nil, false
	}
}

// numericFromFloat narrows an integral float to int64, keeping the zero
// baseline of a fresh increment integer-typed.
func numericFromFloat(v float64) any {
	if v == math.Trunc(v) {
		return int64(v)
	}
	return v
}
