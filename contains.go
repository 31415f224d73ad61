package eo3

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reoring/eo3/codec"
)

// Contains reports whether v1 is a superset of v2.
//
// Maps are compared key by key, recursively; a nil v2 counts as an empty map.
// Strings compare case-insensitively unless caseSensitive is set. Numbers
// compare by value across int and float. A string never equals a number.
func Contains(v1, v2 any, caseSensitive bool) bool {
	if !caseSensitive {
		if s1, ok := v1.(string); ok {
			s2, ok := v2.(string)
			return ok && strings.EqualFold(s1, s2)
		}
	}
	if m1, ok := AsMap(v1); ok {
		if v2 == nil {
			return true
		}
		m2, ok := AsMap(v2)
		if !ok {
			return false
		}
		for k, want := range m2 {
			got, present := m1[k]
			if !present {
				return false
			}
			if !Contains(got, want, caseSensitive) {
				return false
			}
		}
		return true
	}
	return codec.Equal(v1, v2)
}

// FlatEntry is one leaf of a flattened map.
type FlatEntry struct {
	Key   string
	Value any
}

// FlattenDict flattens nested maps into dotted keys ("a.b.c"), sorted by key.
// Sequences are left as values.
func FlattenDict(d map[string]any, prefix, separator string) []FlatEntry {
	var out []FlatEntry
	for k, v := range d {
		name := k
		if prefix != "" {
			name = prefix + separator + k
		}
		if m, ok := AsMap(v); ok {
			out = append(out, FlattenDict(m, name, separator)...)
			continue
		}
		out = append(out, FlatEntry{Key: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Differences lists, one line per path, why have is not a superset of want:
// "path: have != want".
func Differences(have, want map[string]any) []string {
	flatHave := map[string]any{}
	for _, e := range FlattenDict(have, "", ".") {
		flatHave[e.Key] = e.Value
	}
	var lines []string
	for _, e := range FlattenDict(want, "", ".") {
		got := flatHave[e.Key]
		if Contains(got, e.Value, false) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s != %s", e.Key, codec.Repr(got), codec.Repr(e.Value)))
	}
	return lines
}
