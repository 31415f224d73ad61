package product

import (
	"math"
	"strings"

	"github.com/reoring/eo3/codec"
)

type intRange struct{ min, max float64 }

var intDtypes = map[string]intRange{
	"int8":   {math.MinInt8, math.MaxInt8},
	"int16":  {math.MinInt16, math.MaxInt16},
	"int32":  {math.MinInt32, math.MaxInt32},
	"int64":  {math.MinInt64, math.MaxInt64},
	"uint8":  {0, math.MaxUint8},
	"uint16": {0, math.MaxUint16},
	"uint32": {0, math.MaxUint32},
	"uint64": {0, math.MaxUint64},
	"bool":   {0, 1},
}

// IsFloatDtype reports floating point (and complex) dtypes.
func IsFloatDtype(dtype string) bool {
	return strings.HasPrefix(dtype, "float") || strings.HasPrefix(dtype, "complex")
}

// IsKnownDtype reports whether dtype names a supported raster data type.
func IsKnownDtype(dtype string) bool {
	if _, ok := intDtypes[dtype]; ok {
		return true
	}
	switch dtype {
	case "float16", "float32", "float64", "complex64", "complex128":
		return true
	}
	return false
}

// ValueFitsDtype reports whether value can be stored in dtype without
// changing it. A nil value counts as 0. NaN and infinities only fit
// floating dtypes. Unknown dtypes never fit.
func ValueFitsDtype(value any, dtype string) bool {
	if value == nil {
		value = 0
	}
	f, err := NodataFloat(value)
	if err != nil {
		return false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return IsFloatDtype(dtype)
	}
	if r, ok := intDtypes[dtype]; ok {
		return f == math.Trunc(f) && f >= r.min && f <= r.max
	}
	switch dtype {
	case "float64", "complex128":
		return true
	case "float32", "complex64":
		return float64(float32(f)) == f
	case "float16":
		return float16Exact(f)
	}
	return false
}

// NodataFloat reads a nodata value: numbers and the strings "NaN", "Inf",
// "-Inf", "Infinity" and "-Infinity".
func NodataFloat(v any) (float64, error) {
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "nan":
			return math.NaN(), nil
		case "inf", "infinity", "+inf":
			return math.Inf(1), nil
		case "-inf", "-infinity":
			return math.Inf(-1), nil
		}
	}
	return codec.ToFloat(v)
}

// float16Exact reports whether f is exactly representable as an IEEE 754
// half precision value.
func float16Exact(f float64) bool {
	if f == 0 {
		return true
	}
	if math.Abs(f) > 65504 {
		return false
	}
	_, exp := math.Frexp(f)
	// Normal halves carry 11 significant bits; subnormals are multiples of
	// 2^-24.
	scale := 11 - exp
	if exp < -13 {
		scale = 24
	}
	scaled := math.Ldexp(f, scale)
	return scaled == math.Trunc(scaled)
}
