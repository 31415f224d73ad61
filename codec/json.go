package codec

import (
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Normalize rewrites json.Number leaves as int (when integral and in range)
// or float64, so documents decoded from JSON and YAML hold the same Go types.
// Maps and sequences are rebuilt; the input is not modified.
func Normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return int(i)
		}
		if f, err := strconv.ParseFloat(string(t), 64); err == nil {
			return f
		}
		return string(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = Normalize(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = Normalize(vv)
		}
		return out
	}
	return v
}

// JSONCompatible projects a document onto values encoding/json style
// marshalers accept: times become RFC3339 strings, decimals become floats and
// non-finite floats become "NaN", "Infinity" or "-Infinity".
func JSONCompatible(v any) any {
	switch t := v.(type) {
	case time.Time:
		return FormatTime(t)
	case decimal.Decimal:
		f, _ := t.Float64()
		return f
	case float64:
		return finiteOrString(t)
	case float32:
		return finiteOrString(float64(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = JSONCompatible(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[ToString(k)] = JSONCompatible(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = JSONCompatible(vv)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = vv
		}
		return out
	}
	return v
}

func finiteOrString(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return f
}

// MarshalJSON encodes a document after JSONCompatible projection.
func MarshalJSON(v any) ([]byte, error) {
	return json.Marshal(JSONCompatible(v))
}
