package eo3

import (
	"fmt"
	"strings"
)

// Doc is one parsed document: string keys mapping to scalars, nested maps
// or []any sequences.
type Doc = map[string]any

// Offset locates a value inside a Doc, for example
// ["properties", "odc:processing_datetime"].
type Offset []string

// String renders the offset as a->b->c.
func (o Offset) String() string { return strings.Join(o, "->") }

// Equal reports whether two offsets name the same path.
func (o Offset) Equal(other Offset) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

// GetIn walks the offset through nested maps. A missing key, a non-map
// intermediate or a nil value all report ok=false.
func GetIn(doc any, offset Offset) (any, bool) {
	cur := doc
	for _, key := range offset {
		m, ok := AsMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// HasOffset reports whether every key of the offset is present, even when
// the final value is null.
func HasOffset(doc any, offset Offset) bool {
	cur := doc
	for _, key := range offset {
		m, ok := AsMap(cur)
		if !ok {
			return false
		}
		if cur, ok = m[key]; !ok {
			return false
		}
	}
	return true
}

// AssocIn returns a copy of doc with value set at offset. Maps along the
// path are copied; siblings are shared with the input.
func AssocIn(doc Doc, offset Offset, value any) Doc {
	if len(offset) == 0 {
		return doc
	}
	out := make(Doc, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	if len(offset) == 1 {
		out[offset[0]] = value
		return out
	}
	child, _ := AsMap(doc[offset[0]])
	out[offset[0]] = AssocIn(child, offset[1:], value)
	return out
}

// Dissoc returns a shallow copy of doc without the given top-level keys.
func Dissoc(doc Doc, keys ...string) Doc {
	out := make(Doc, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// DissocIn returns a copy of doc without the key at offset. Maps along the
// path are copied. A missing path returns doc unchanged.
func DissocIn(doc Doc, offset Offset) Doc {
	if len(offset) == 0 || !HasOffset(doc, offset) {
		return doc
	}
	if len(offset) == 1 {
		return Dissoc(doc, offset[0])
	}
	child, _ := AsMap(doc[offset[0]])
	out := Dissoc(doc)
	out[offset[0]] = DissocIn(child, offset[1:])
	return out
}

// Clone deep-copies maps and sequences. Scalars are shared.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = Clone(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = Clone(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = Clone(vv)
		}
		return out
	default:
		return v
	}
}

// CloneDoc is Clone for a whole document.
func CloneDoc(doc Doc) Doc {
	if doc == nil {
		return nil
	}
	return Clone(doc).(map[string]any)
}

// AsMap accepts both decoded map shapes.
func AsMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		return Clone(t).(map[string]any), true
	}
	return nil, false
}

// AsSlice accepts []any and []string.
func AsSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// AsStringSlice converts a sequence of strings. ok is false if any element is
// not a string.
func AsStringSlice(v any) ([]string, bool) {
	if ss, ok := v.([]string); ok {
		return ss, true
	}
	items, ok := AsSlice(v)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// GetString returns the string at offset, or "".
func GetString(doc any, offset ...string) string {
	v, ok := GetIn(doc, offset)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetMap returns the map at offset, or nil.
func GetMap(doc any, offset ...string) map[string]any {
	v, ok := GetIn(doc, offset)
	if !ok {
		return nil
	}
	m, _ := AsMap(v)
	return m
}
