// Package fields builds named field descriptors from a metadata type
// definition and extracts their values from dataset documents.
//
// A metadata type's dataset section maps system field names (id, sources,
// creation_dt, ...) to offsets, and its search_fields section declares
// typed search fields. Scalar fields read one offset; range fields read any
// number of min and max offsets and collapse them to a Range.
package fields

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/codec"
)

// Range is a (begin, end) pair. Either side may be nil.
type Range struct {
	Begin any
	End   any
}

// String renders the range for messages.
func (r Range) String() string {
	return fmt.Sprintf("Range(begin=%s, end=%s)", codec.Repr(r.Begin), codec.Repr(r.End))
}

// Field is a named, typed view onto one or more document offsets.
type Field interface {
	Name() string
	TypeName() string
	Description() string
	// Extract returns nil when no offset resolves.
	Extract(doc map[string]any) (any, error)
	// Offsets lists every offset the field reads. Range fields list min
	// offsets before max offsets.
	Offsets() []eo3.Offset
}

// ErrUnsupportedType is returned for field types outside the fixed set.
var ErrUnsupportedType = errors.New("unsupported search field type")

// ErrMissingOffset is returned when a field definition lacks its offsets.
var ErrMissingOffset = errors.New("missing offset")

// TypeNames is the fixed set of accepted type names.
var TypeNames = []string{
	"numeric-range",
	"double-range",
	"integer-range",
	"datetime-range",
	"string",
	"numeric",
	"double",
	"integer",
	"datetime",
	"object",
	// alias for numeric-range
	"float-range",
}

// Converter turns a raw document value into the field's type.
type Converter func(any) (any, error)

var converters = map[string]Converter{
	"string":   func(v any) (any, error) { return codec.ToString(v), nil },
	"double":   func(v any) (any, error) { return codec.ToFloat(v) },
	"integer":  func(v any) (any, error) { return codec.ToInt(v) },
	"numeric":  func(v any) (any, error) { return codec.ToDecimal(v) },
	"datetime": func(v any) (any, error) { return codec.ParseTime(v) },
	"object":   func(v any) (any, error) { return v, nil },
}

// ConverterFor returns the converter for a scalar type name.
func ConverterFor(typeName string) (Converter, bool) {
	c, ok := converters[typeName]
	return c, ok
}

// SimpleField reads a single value. Compound fields list several offsets;
// the first one present wins.
type SimpleField struct {
	name        string
	description string
	typeName    string
	offsets     []eo3.Offset
	convert     Converter
}

// NewSimpleField builds a scalar field of a type from converters.
func NewSimpleField(name, typeName string, offset eo3.Offset, description string) (*SimpleField, error) {
	return NewCompoundField(name, typeName, []eo3.Offset{offset}, description)
}

// NewCompoundField builds a scalar field that tries each offset in turn.
func NewCompoundField(name, typeName string, offsets []eo3.Offset, description string) (*SimpleField, error) {
	conv, ok := ConverterFor(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, typeName)
	}
	if len(offsets) == 0 || len(offsets[0]) == 0 {
		return nil, fmt.Errorf("%w: field %q", ErrMissingOffset, name)
	}
	return &SimpleField{name: name, description: description, typeName: typeName, offsets: offsets, convert: conv}, nil
}

func (f *SimpleField) Name() string          { return f.name }
func (f *SimpleField) TypeName() string      { return f.typeName }
func (f *SimpleField) Description() string   { return f.description }
func (f *SimpleField) Offset() eo3.Offset    { return f.offsets[0] }
func (f *SimpleField) Offsets() []eo3.Offset { return f.offsets }

func (f *SimpleField) Extract(doc map[string]any) (any, error) {
	for _, o := range f.offsets {
		v, ok := eo3.GetIn(doc, o)
		if !ok {
			continue
		}
		out, err := f.convert(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.name, err)
		}
		return out, nil
	}
	return nil, nil
}

// RangeField reads every min offset and every max offset, keeping the
// smallest min and the largest max.
type RangeField struct {
	name        string
	description string
	typeName    string
	minOffsets  []eo3.Offset
	maxOffsets  []eo3.Offset
	convert     Converter
}

func (f *RangeField) Name() string             { return f.name }
func (f *RangeField) TypeName() string         { return f.typeName }
func (f *RangeField) Description() string      { return f.description }
func (f *RangeField) MinOffsets() []eo3.Offset { return f.minOffsets }
func (f *RangeField) MaxOffsets() []eo3.Offset { return f.maxOffsets }

func (f *RangeField) Offsets() []eo3.Offset {
	out := make([]eo3.Offset, 0, len(f.minOffsets)+len(f.maxOffsets))
	out = append(out, f.minOffsets...)
	return append(out, f.maxOffsets...)
}

func (f *RangeField) Extract(doc map[string]any) (any, error) {
	lo, err := f.extremum(doc, f.minOffsets, func(a, b any) bool { return less(a, b) })
	if err != nil {
		return nil, err
	}
	hi, err := f.extremum(doc, f.maxOffsets, func(a, b any) bool { return less(b, a) })
	if err != nil {
		return nil, err
	}
	if lo == nil && hi == nil {
		return nil, nil
	}
	return Range{Begin: lo, End: hi}, nil
}

func (f *RangeField) extremum(doc map[string]any, offsets []eo3.Offset, better func(a, b any) bool) (any, error) {
	var best any
	for _, o := range offsets {
		raw, ok := eo3.GetIn(doc, o)
		if !ok {
			continue
		}
		v, err := f.convert(raw)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.name, err)
		}
		if best == nil || better(v, best) {
			best = v
		}
	}
	return best, nil
}

func less(a, b any) bool {
	switch ta := a.(type) {
	case time.Time:
		if tb, ok := b.(time.Time); ok {
			return ta.Before(tb)
		}
	case decimal.Decimal:
		if tb, ok := b.(decimal.Decimal); ok {
			return ta.LessThan(tb)
		}
	case string:
		if tb, ok := b.(string); ok {
			return ta < tb
		}
	}
	fa, errA := codec.ToFloat(a)
	fb, errB := codec.ToFloat(b)
	if errA == nil && errB == nil {
		return fa < fb
	}
	return codec.ToString(a) < codec.ToString(b)
}

// ParseSearchField builds a field from one search_fields entry. A missing
// type means "string".
func ParseSearchField(name string, def map[string]any) (Field, error) {
	typeName := "string"
	if t, ok := def["type"].(string); ok && t != "" {
		typeName = t
	}
	description, _ := def["description"].(string)

	if _, ok := ConverterFor(typeName); ok {
		raw, present := def["offset"]
		if !present || raw == nil {
			return nil, fmt.Errorf("%w: field %q", ErrMissingOffset, name)
		}
		offsets, err := ParseOffsets(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		return NewCompoundField(name, typeName, offsets, description)
	}

	base, isRange := strings.CutSuffix(typeName, "-range")
	if !isRange {
		return nil, fmt.Errorf("%w: %s (expected one of %s)", ErrUnsupportedType, typeName, strings.Join(TypeNames, ", "))
	}
	if base == "float" {
		base, typeName = "numeric", "numeric-range"
	}
	conv, ok := ConverterFor(base)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, typeName)
	}
	rawMin, okMin := def["min_offset"]
	rawMax, okMax := def["max_offset"]
	if !okMin || !okMax || rawMin == nil || rawMax == nil {
		return nil, fmt.Errorf("%w: field %q: need to specify both min_offset and max_offset", ErrMissingOffset, name)
	}
	minOffsets, err := ParseOffsets(rawMin)
	if err != nil {
		return nil, fmt.Errorf("field %q min_offset: %w", name, err)
	}
	maxOffsets, err := ParseOffsets(rawMax)
	if err != nil {
		return nil, fmt.Errorf("field %q max_offset: %w", name, err)
	}
	return &RangeField{
		name:        name,
		description: description,
		typeName:    typeName,
		minOffsets:  minOffsets,
		maxOffsets:  maxOffsets,
		convert:     conv,
	}, nil
}

// ParseOffset reads a single offset: a non-empty list of strings.
func ParseOffset(v any) (eo3.Offset, error) {
	ss, ok := eo3.AsStringSlice(v)
	if !ok || len(ss) == 0 {
		return nil, fmt.Errorf("offset must be a non-empty list of strings, got %s", codec.Repr(v))
	}
	return eo3.Offset(ss), nil
}

// ParseOffsets reads a list of offsets. Nested lists of offsets are
// flattened in order.
func ParseOffsets(v any) ([]eo3.Offset, error) {
	if o, err := ParseOffset(v); err == nil {
		return []eo3.Offset{o}, nil
	}
	items, ok := eo3.AsSlice(v)
	if !ok || len(items) == 0 {
		return nil, fmt.Errorf("offsets must be a list of offsets, got %s", codec.Repr(v))
	}
	var out []eo3.Offset
	for _, item := range items {
		sub, err := ParseOffsets(item)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

// SystemFieldTypes fixes the type of each known system field.
var SystemFieldTypes = map[string]string{
	"id":           "string",
	"label":        "string",
	"format":       "string",
	"sources":      "object",
	"creation_dt":  "datetime",
	"grid_spatial": "object",
	"measurements": "object",
}

// SystemFields builds a field for every entry of the definition's dataset
// section except search_fields. Names outside SystemFieldTypes, and null
// offsets, are skipped.
func SystemFields(mdt map[string]any) (map[string]Field, error) {
	out := map[string]Field{}
	for name, raw := range eo3.GetMap(mdt, "dataset") {
		if name == "search_fields" {
			continue
		}
		typeName, known := SystemFieldTypes[name]
		if !known || raw == nil {
			continue
		}
		offset, err := ParseOffset(raw)
		if err != nil {
			return nil, fmt.Errorf("system field %q: %w", name, err)
		}
		f, err := NewSimpleField(name, typeName, offset, "")
		if err != nil {
			return nil, err
		}
		out[name] = f
	}
	return out, nil
}

// SearchFields builds every entry of dataset.search_fields.
func SearchFields(mdt map[string]any) (map[string]Field, error) {
	out := map[string]Field{}
	for name, raw := range eo3.GetMap(mdt, "dataset", "search_fields") {
		def, ok := eo3.AsMap(raw)
		if !ok {
			return nil, fmt.Errorf("search field %q: definition must be a mapping", name)
		}
		f, err := ParseSearchField(name, def)
		if err != nil {
			return nil, err
		}
		out[name] = f
	}
	return out, nil
}

// AllFields is SystemFields merged with SearchFields; search fields win on
// a name clash.
func AllFields(mdt map[string]any) (map[string]Field, error) {
	sys, err := SystemFields(mdt)
	if err != nil {
		return nil, err
	}
	search, err := SearchFields(mdt)
	if err != nil {
		return nil, err
	}
	for k, v := range search {
		sys[k] = v
	}
	return sys, nil
}

// AllFieldOffsets maps every field name to the offsets it reads.
func AllFieldOffsets(mdt map[string]any) (map[string][]eo3.Offset, error) {
	all, err := AllFields(mdt)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]eo3.Offset, len(all))
	for name, f := range all {
		out[name] = f.Offsets()
	}
	return out, nil
}

// SortedNames returns map keys in order.
func SortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
