package codec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotNumeric is wrapped by conversion failures.
var ErrNotNumeric = errors.New("not a number")

// IsNumber reports whether v is a Go numeric value.
func IsNumber(v any) bool {
	_, ok := numeric(v)
	return ok
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case decimal.Decimal:
		return n.InexactFloat64(), true
	}
	return 0, false
}

// ToFloat converts numbers and numeric strings ("NaN" and "inf" included).
func ToFloat(v any) (float64, error) {
	if f, ok := numeric(v); ok {
		return f, nil
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: could not convert string to float: %q", ErrNotNumeric, s)
		}
		return f, nil
	}
	if b, ok := v.(bool); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %T", ErrNotNumeric, v)
}

// ToInt converts numbers and integer strings. Floats are truncated toward
// zero; NaN and infinities are rejected.
func ToInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case uint8, uint16, uint32, uint64, uint, int8, int16:
		f, _ := numeric(n)
		return int(f), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%w: invalid literal for int: %q", ErrNotNumeric, n)
		}
		return i, nil
	}
	f, ok := numeric(v)
	if !ok {
		return 0, fmt.Errorf("%w: %T", ErrNotNumeric, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: cannot convert %v to integer", ErrNotNumeric, f)
	}
	return int(math.Trunc(f)), nil
}

// ToDecimal converts numbers and numeric strings to an exact decimal.
func ToDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Decimal{}, fmt.Errorf("%w: %v has no decimal form", ErrNotNumeric, n)
		}
		return decimal.NewFromFloat(n), nil
	case float32:
		return decimal.NewFromFloat32(n), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrNotNumeric, n)
		}
		return d, nil
	}
	if f, ok := numeric(v); ok {
		return decimal.NewFromFloat(f), nil
	}
	return decimal.Decimal{}, fmt.Errorf("%w: %T", ErrNotNumeric, v)
}

// ToString renders scalars the way a document author would write them.
func ToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case decimal.Decimal:
		return t.String()
	}
	return fmt.Sprint(v)
}

// IsNaN reports NaN floats and the "NaN" string used where JSON lacks NaN.
func IsNaN(v any) bool {
	switch t := v.(type) {
	case string:
		return t == "NaN"
	case float64:
		return math.IsNaN(t)
	case float32:
		return math.IsNaN(float64(t))
	}
	return false
}
