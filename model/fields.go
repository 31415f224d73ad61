package model

import (
	"fmt"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/fields"
)

// FieldNames lists every field the metadata type defines, sorted.
func (d *Dataset) FieldNames() []string { return d.table.Names() }

// Field reads one named field from the current document. A field whose
// offsets are all absent reads as nil.
func (d *Dataset) Field(name string) (any, error) {
	f, ok := d.table.Lookup(name)
	if !ok {
		return nil, &fields.UnknownFieldError{Name: name, Valid: d.table.Names()}
	}
	return f.Extract(d.doc)
}

// Fields resolves every system and search field.
func (d *Dataset) Fields() (map[string]any, error) {
	out, err := d.SystemFields()
	if err != nil {
		return nil, err
	}
	search, err := d.SearchFields()
	if err != nil {
		return nil, err
	}
	for k, v := range search {
		out[k] = v
	}
	return out, nil
}

// SystemFields resolves the fields the index itself understands: id,
// label, sources, format, creation_dt, grid_spatial and measurements.
func (d *Dataset) SystemFields() (map[string]any, error) {
	return fields.Extract(d.table.System(), d.doc)
}

// SearchFields resolves the metadata type's search_fields.
func (d *Dataset) SearchFields() (map[string]any, error) {
	return fields.Extract(d.table.Search(), d.doc)
}

// SetField writes value through the field's offsets after normalisation.
//
// Range fields take a fields.Range and write its ends to the min and max
// offsets. The time field also takes a single datetime, which is written
// to properties->datetime; a Range goes to dtr:start_datetime and
// dtr:end_datetime.
//
// The names metadata_type and product_definition are routed to
// SetMetadataType and SetProductDefinition.
func (d *Dataset) SetField(name string, value any) error {
	f, ok := d.table.Lookup(name)
	if !ok {
		switch name {
		case "metadata_type":
			mdt, err := documentValue(name, value)
			if err != nil {
				return err
			}
			return d.SetMetadataType(mdt)
		case "product_definition":
			p, err := documentValue(name, value)
			if err != nil {
				return err
			}
			return d.SetProductDefinition(p)
		}
		return &fields.UnknownFieldError{Name: name, Valid: d.table.Names(), Set: true}
	}

	rf, isRange := f.(*fields.RangeField)
	if !isRange {
		return d.assoc(f.Offsets()[0], value)
	}

	r, isRangeValue := asRange(value)
	if name == "time" {
		if !isRangeValue {
			return d.assoc(eo3.Offset{"properties", "datetime"}, value)
		}
		if err := d.assoc(eo3.Offset{"properties", "dtr:start_datetime"}, r.Begin); err != nil {
			return err
		}
		return d.assoc(eo3.Offset{"properties", "dtr:end_datetime"}, r.End)
	}
	if !isRangeValue {
		return &fields.RangeTypeError{Name: name, Value: value}
	}
	// The first min and max offsets are the canonical locations.
	if err := d.assoc(rf.MinOffsets()[0], r.Begin); err != nil {
		return err
	}
	return d.assoc(rf.MaxOffsets()[0], r.End)
}

// documentValue accepts a mapping or nil for the document-valued names.
func documentValue(name string, value any) (eo3.Doc, error) {
	if value == nil {
		return nil, nil
	}
	doc, ok := eo3.AsMap(value)
	if !ok {
		return nil, &eo3.InvalidDocumentError{Messages: eo3.Messages{eo3.NewMessage(eo3.Error, eo3.CodeStructure,
			fmt.Sprintf("%s must be a document, not %T", name, value))}}
	}
	return doc, nil
}

// assoc normalises v for offset and stores it in a new copy of the
// document.
func (d *Dataset) assoc(offset eo3.Offset, v any) error {
	n, err := d.Normalise(offset, v)
	if err != nil {
		return err
	}
	d.doc = eo3.AssocIn(d.doc, offset, n)
	return nil
}

func asRange(v any) (fields.Range, bool) {
	switch r := v.(type) {
	case fields.Range:
		return r, true
	case *fields.Range:
		if r != nil {
			return *r, true
		}
	}
	return fields.Range{}, false
}
