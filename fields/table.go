package fields

import (
	"fmt"
	"strings"

	"github.com/reoring/eo3"
)

// Table is the field lookup built from one metadata type definition.
type Table struct {
	system  map[string]Field
	search  map[string]Field
	offsets map[string][]eo3.Offset
}

// NewTable interprets mdt.
func NewTable(mdt map[string]any) (*Table, error) {
	sys, err := SystemFields(mdt)
	if err != nil {
		return nil, err
	}
	search, err := SearchFields(mdt)
	if err != nil {
		return nil, err
	}
	t := &Table{system: sys, search: search, offsets: map[string][]eo3.Offset{}}
	for name, f := range sys {
		t.offsets[name] = f.Offsets()
	}
	for name, f := range search {
		t.offsets[name] = f.Offsets()
	}
	return t, nil
}

// Lookup finds a field by name, preferring search fields.
func (t *Table) Lookup(name string) (Field, bool) {
	if f, ok := t.search[name]; ok {
		return f, true
	}
	f, ok := t.system[name]
	return f, ok
}

// Offsets returns the offsets a field name writes to.
func (t *Table) Offsets(name string) ([]eo3.Offset, bool) {
	o, ok := t.offsets[name]
	return o, ok
}

// Names lists every field name, sorted.
func (t *Table) Names() []string { return SortedNames(t.offsets) }

func (t *Table) System() map[string]Field { return t.system }
func (t *Table) Search() map[string]Field { return t.search }

// Extract resolves every field in fs against doc.
func Extract(fs map[string]Field, doc map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fs))
	for name, f := range fs {
		v, err := f.Extract(doc)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// UnknownFieldError names a field that the metadata type does not define.
type UnknownFieldError struct {
	Name  string
	Valid []string
	// Set is true for writes.
	Set bool
}

func (e *UnknownFieldError) Error() string {
	what := "field"
	if e.Set {
		what = "field offset"
	}
	quoted := make([]string, len(e.Valid))
	for i, v := range e.Valid {
		quoted[i] = "'" + v + "'"
	}
	return fmt.Sprintf("Unknown %s '%s'. Expected one of [%s]", what, e.Name, strings.Join(quoted, ", "))
}

// RangeTypeError is returned when a non-Range value is written to a range
// field.
type RangeTypeError struct {
	Name  string
	Value any
}

func (e *RangeTypeError) Error() string {
	return fmt.Sprintf("The %s field expects a Range value", e.Name)
}
