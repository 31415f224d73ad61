package properties

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/reoring/eo3/codec"
)

// Normalised is what a Normaliser produces. Extra holds additional
// properties derived from the value; Warning is a non-fatal complaint.
type Normalised struct {
	Value   any
	Extra   map[string]any
	Warning string
}

// Normaliser converts a raw property value to its canonical form. An error
// means the value is invalid for the property.
type Normaliser func(v any) (Normalised, error)

func plain(v any) (Normalised, error) { return Normalised{Value: v}, nil }

// DatetimeType parses strings into times; strings without a zone are UTC.
func DatetimeType(v any) (Normalised, error) {
	t, err := codec.ParseTime(v)
	if err != nil {
		return Normalised{}, err
	}
	return plain(t)
}

// FloatType converts to float64.
func FloatType(v any) (Normalised, error) {
	f, err := toFloat(v)
	if err != nil {
		return Normalised{}, err
	}
	return plain(f)
}

// IntType converts to int, truncating floats.
func IntType(v any) (Normalised, error) {
	if s, ok := v.(string); ok {
		i, err := codec.ToInt(s)
		if err != nil {
			return Normalised{}, fmt.Errorf("invalid literal for int() with base 10: %s", codec.Repr(s))
		}
		return plain(i)
	}
	i, err := codec.ToInt(v)
	if err != nil {
		return Normalised{}, err
	}
	return plain(i)
}

// PercentType accepts numbers in 0..100.
func PercentType(v any) (Normalised, error) {
	f, err := toFloat(v)
	if err != nil {
		return Normalised{}, err
	}
	if !(f >= 0 && f <= 100) {
		return Normalised{}, errors.New("Expected percent between 0,100")
	}
	return plain(f)
}

// DegreesType accepts numbers in -360..360.
func DegreesType(v any) (Normalised, error) {
	f, err := toFloat(v)
	if err != nil {
		return Normalised{}, err
	}
	if !(f >= -360 && f <= 360) {
		return Normalised{}, errors.New("Expected degrees between -360,+360")
	}
	return plain(f)
}

func toFloat(v any) (float64, error) {
	if s, ok := v.(string); ok {
		f, err := codec.ToFloat(s)
		if err != nil {
			return 0, fmt.Errorf("could not convert string to float: %s", codec.Repr(s))
		}
		return f, nil
	}
	if !codec.IsNumber(v) {
		return 0, fmt.Errorf("float() argument must be a string or a real number, not '%s'", codec.TypeName(v))
	}
	return codec.ToFloat(v)
}

// EnumOptions tune OfEnumType.
type EnumOptions struct {
	Lower  bool
	Upper  bool
	Strict bool
}

// OfEnumType restricts a string to a closed set of values. Without Strict an
// unexpected value is kept and reported as a warning.
func OfEnumType(values []string, opts EnumOptions) Normaliser {
	return func(v any) (Normalised, error) {
		s, ok := v.(string)
		if !ok {
			s = codec.ToString(v)
		}
		if opts.Upper {
			s = strings.ToUpper(s)
		}
		if opts.Lower {
			s = strings.ToLower(s)
		}
		if slices.Contains(values, s) {
			return plain(s)
		}
		msg := fmt.Sprintf("Unexpected value %s. Expected one of: %s,", codec.Repr(s), strings.Join(values, ", "))
		if opts.Strict {
			return Normalised{}, errors.New(msg)
		}
		return Normalised{Value: s, Warning: msg}, nil
	}
}

// FileFormats are the accepted odc:file_format values.
var FileFormats = []string{"GeoTIFF", "NetCDF", "Zarr", "JPEG2000"}

// IdentifierType hyphen-to-underscores a value and warns when the result is
// not a lower case identifier.
func IdentifierType(v any) (Normalised, error) {
	s := strings.ReplaceAll(codec.ToString(v), "-", "_")
	out := Normalised{Value: s}
	if !isIdentifier(s) || !isLower(s) {
		out.Warning = fmt.Sprintf("%s is expected to be an identifier (alphanumeric with underscores, typically lowercase)", codec.Repr(s))
	}
	return out, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

func isLower(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsUpper(r) {
			return false
		}
		if unicode.IsLower(r) {
			cased = true
		}
	}
	return cased
}

// NormalisePlatforms lower-cases and hyphenates platform names, removing
// duplicates. Comma separated strings and lists are both accepted; the result
// is a sorted comma separated string, or nil when empty.
func NormalisePlatforms(v any) (Normalised, error) {
	var parts []string
	switch t := v.(type) {
	case string:
		parts = strings.Split(t, ",")
	case []string:
		parts = t
	case []any:
		for _, p := range t {
			parts = append(parts, codec.ToString(p))
		}
	default:
		return Normalised{}, fmt.Errorf("unexpected platform value %s", codec.Repr(v))
	}
	var out []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		p = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(p)), "_", "-")
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return plain(nil)
	}
	slices.Sort(out)
	return plain(strings.Join(out, ","))
}

// ProducerCheck warns when odc:producer is not a domain name.
func ProducerCheck(v any) (Normalised, error) {
	s := codec.ToString(v)
	out := Normalised{Value: v}
	if !strings.Contains(s, ".") {
		out.Warning = "Property 'odc:producer' is expected to be a domain name, eg 'usgs.gov' or 'ga.gov.au'"
	}
	return out, nil
}

// SentinelTileID extracts sentinel:datatake_start_datetime from a tile id
// such as S2B_OPER_MSI_L1C_TL_EPAE_20201011T011446_A018789_T55HFA_N02.09.
func SentinelTileID(v any) (Normalised, error) {
	s := codec.ToString(v)
	out := Normalised{Value: s}
	parts := strings.Split(s, "_")
	if len(parts) < 4 {
		return out, nil
	}
	t, err := codec.ParseTime(parts[len(parts)-4])
	if err != nil {
		return Normalised{}, err
	}
	out.Extra = map[string]any{"sentinel:datatake_start_datetime": t}
	return out, nil
}

// IsNaN reports float NaN values.
func IsNaN(v any) bool {
	f, ok := v.(float64)
	return ok && math.IsNaN(f)
}
