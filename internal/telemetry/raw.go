package telemetry

import (
	"encoding/json"
	"math"
	"strconv"
)

// RawSnapshot is an unvalidated host snapshot as decoded from JSON or YAML.
// Every accessor narrows a field to (value, ok); absent and mistyped fields
// both report ok == false.
type RawSnapshot map[string]any

// maxUint64Float is 2^64, the first float64 that no longer fits in a uint64
var maxUint64Float = math.Exp2(64)

func (r RawSnapshot) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

func (r RawSnapshot) Uint(key string) (uint64, bool) {
	return toUint(r[key])
}

func (r RawSnapshot) Float(key string) (float64, bool) {
	return toFloat(r[key])
}

func (r RawSnapshot) List(key string) ([]any, bool) {
	return toList(r[key])
}

func (r RawSnapshot) stringOr(def string, keys ...string) string {
	for _, key := range keys {
		if s, ok := r.String(key); ok {
			return s
		}
	}
	return def
}

func (r RawSnapshot) uintOr(key string) uint64 {
	v, _ := r.Uint(key)
	return v
}

func toObject(v any) (RawSnapshot, bool) {
	switch m := v.(type) {
	case RawSnapshot:
		return m, true
	case map[string]any:
		return RawSnapshot(m), true
	case map[any]any:
		obj := make(RawSnapshot, len(m))
		for k, val := range m {
			if key, ok := k.(string); ok {
				obj[key] = val
			}
		}
		return obj, true
	default:
		return nil, false
	}
}

func toList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, true
	case []RawSnapshot:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

func toUint(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case int:
		return intToUint(int64(n))
	case int8:
		return intToUint(int64(n))
	case int16:
		return intToUint(int64(n))
	case int32:
		return intToUint(int64(n))
	case int64:
		return intToUint(n)
	case float32:
		return floatToUint(float64(n))
	case float64:
		return floatToUint(n)
	case json.Number:
		if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return u, true
		}
		if f, err := n.Float64(); err == nil {
			return floatToUint(f)
		}
		return 0, false
	default:
		return 0, false
	}
}

func intToUint(n int64) (uint64, bool) {
	if n < 0 {
		return 0, false
	}
	return uint64(n), true
}

// floatToUint accepts only integral, non-negative values in range. JSON
// decoders without UseNumber hand every number over as float64.
func floatToUint(f float64) (uint64, bool) {
	if math.IsNaN(f) || f < 0 || f >= maxUint64Float || f != math.Trunc(f) {
		return 0, false
	}
	return uint64(f), true
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
