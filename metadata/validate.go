// Package metadata checks metadata-type definitions for EO3 compatibility.
package metadata

import (
	"fmt"
	"slices"
	"strings"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/codec"
	"github.com/reoring/eo3/fields"
	"github.com/reoring/eo3/schema"
)

// LegacyField describes a fixed system field of the dataset section and the
// offsets EO3 accepts for it.
type LegacyField struct {
	Name       string
	Valid      func(offset []string) bool
	Hint       string
	Required   bool
	Geospatial bool
}

// Validate checks the offset given for the field. present is false when the
// dataset section does not mention the field at all.
func (f LegacyField) Validate(offset any, present bool, msg *eo3.Messager) eo3.Messages {
	if !present || offset == nil {
		if f.Required {
			return eo3.Messages{msg.Error(eo3.CodeMissingSystemField,
				fmt.Sprintf("Required field %s is missing from the dataset section.", f.Name), f.Hint)}
		}
		return nil
	}
	ss, ok := eo3.AsStringSlice(offset)
	if !ok || len(ss) == 0 || !f.Valid(ss) {
		return eo3.Messages{msg.Error(eo3.CodeBadSystemField,
			fmt.Sprintf("%s in dataset is set to an EO-3 incompatible value.", f.Name), f.Hint)}
	}
	return nil
}

func exactly(want ...string) func([]string) bool {
	return func(got []string) bool { return slices.Equal(got, want) }
}

// LegacyFields are the system fields EO3 keeps from older metadata types.
var LegacyFields = map[string]LegacyField{
	"id": {
		Name:     "id",
		Valid:    exactly("id"),
		Required: true,
		Hint:     "id must be present in the dataset section, and must be set to exactly [id]",
	},
	"measurements": {
		Name:       "measurements",
		Valid:      exactly("measurements"),
		Geospatial: true,
		Hint:       "measurements must be present in the dataset section, and must be set to exactly [measurements]",
	},
	"label": {
		Name:     "label",
		Valid:    exactly("label"),
		Required: true,
		Hint:     "label must be present in the dataset section, and must be set to exactly [label]",
	},
	"creation_dt": {
		Name:     "creation_dt",
		Valid:    exactly("properties", "odc:processing_datetime"),
		Required: true,
		Hint:     "creation_dt must be present in the dataset section, and must be set to exactly [properties, odc:processing_datetime]",
	},
	"format": {
		Name:       "format",
		Valid:      exactly("properties", "odc:file_format"),
		Geospatial: true,
		Hint:       "format must be set to exactly [properties, odc:file_format]",
	},
	"sources": {
		Name:  "sources",
		Valid: func(o []string) bool { return o[0] == "lineage" },
		Hint:  "sources should be stored under 'lineage'",
	},
	"grid_spatial": {
		Name:       "grid_spatial",
		Valid:      func([]string) bool { return true },
		Geospatial: true,
		Hint:       "grid_spatial is quietly ignored",
	},
}

// searchableOffsets are the non-property locations a search field may read.
var searchableOffsets = []eo3.Offset{
	{"crs"},
	{"extent", "lat", "begin"},
	{"extent", "lat", "end"},
	{"extent", "lon", "begin"},
	{"extent", "lon", "end"},
}

// ValidateMetadataType checks a metadata-type document: it needs a name,
// must satisfy the metadata-type schema, must keep system fields at their
// EO3 offsets, and must store search fields in EO3-compliant locations.
func ValidateMetadataType(doc eo3.Doc) eo3.Messages {
	name, ok := doc["name"]
	if !ok || name == nil {
		return eo3.Messages{eo3.NewMessage(eo3.Error, eo3.CodeNoTypeName, "Metadata type must have a name.")}
	}
	typeName := codec.ToString(name)
	msg := eo3.NewMessager(map[string]string{"type": typeName})

	var out eo3.Messages
	for _, v := range schema.MetadataType().Validate(doc) {
		context := ""
		if p := v.DisplayPath(); p != "" {
			context = fmt.Sprintf("Error in %s: (%s) ", typeName, p)
		}
		out = append(out, msg.Error(eo3.CodeDocumentSchema, context+v.Message))
	}

	section, ok := eo3.AsMap(doc["dataset"])
	if !ok {
		return out
	}
	for _, key := range fields.SortedNames(LegacyFields) {
		raw, present := section[key]
		out = append(out, LegacyFields[key].Validate(raw, present, msg)...)
	}

	searchFields := eo3.GetMap(section, "search_fields")
	for _, key := range fields.SortedNames(searchFields) {
		def, _ := eo3.AsMap(searchFields[key])
		out = append(out, ValidateSearchField(key, typeName, def, msg)...)
	}
	return out
}

// ValidateSearchField checks one search_fields entry: its name must not be
// a system field name, and every offset it reads must be EO3-compliant.
func ValidateSearchField(field, mdtName string, def map[string]any, msg *eo3.Messager) eo3.Messages {
	if _, reserved := LegacyFields[field]; reserved {
		return eo3.Messages{msg.Error(eo3.CodeSystemFieldInSearchFields,
			fmt.Sprintf("Field %s is a reserved system field name and cannot be used as a search field", field))}
	}
	typeName, _ := def["type"].(string)
	if typeName == "" {
		typeName = "string"
	}
	if !slices.Contains(fields.TypeNames, typeName) {
		return eo3.Messages{msg.Error(eo3.CodeBadScalar,
			fmt.Sprintf("Field %s in metadata type %s has type %s, expected one of %s",
				field, mdtName, codec.Repr(typeName), strings.Join(fields.TypeNames, ", ")))}
	}

	var out eo3.Messages
	if strings.HasSuffix(typeName, "-range") {
		if raw, ok := def["min_offset"]; ok {
			out = append(out, validateOffset(field, mdtName, raw, msg)...)
		} else {
			out = append(out, msg.Error(eo3.CodeBadRangeNoMin,
				fmt.Sprintf("No min_offset supplied for field %s in metadata type %s", field, mdtName)))
		}
		if raw, ok := def["max_offset"]; ok {
			out = append(out, validateOffset(field, mdtName, raw, msg)...)
		} else {
			out = append(out, msg.Error(eo3.CodeBadRangeNoMax,
				fmt.Sprintf("No max_offset supplied for field %s in metadata type %s", field, mdtName)))
		}
		return out
	}
	if raw, ok := def["offset"]; ok {
		return validateOffset(field, mdtName, raw, msg)
	}
	return eo3.Messages{msg.Error(eo3.CodeBadScalar,
		fmt.Sprintf("No offset supplied for field %s in metadata type %s", field, mdtName))}
}

// validateOffset recurses into compound offsets. Simple offsets must be one
// of searchableOffsets or a flat ["properties", key].
func validateOffset(field, mdtName string, raw any, msg *eo3.Messager) eo3.Messages {
	if offset, ok := eo3.AsStringSlice(raw); ok {
		if slices.ContainsFunc(searchableOffsets, eo3.Offset(offset).Equal) {
			return nil
		}
		if len(offset) == 2 && offset[0] == "properties" {
			return nil
		}
		return eo3.Messages{msg.Error(eo3.CodeBadOffset,
			fmt.Sprintf("Search_field %s in metadata type %s is not stored in an EO3-compliant location: %s",
				field, mdtName, codec.Repr(raw)))}
	}
	items, ok := eo3.AsSlice(raw)
	if !ok {
		return eo3.Messages{msg.Error(eo3.CodeBadOffset,
			fmt.Sprintf("Search_field %s in metadata type %s has an unreadable offset: %s",
				field, mdtName, codec.Repr(raw)))}
	}
	var out eo3.Messages
	for _, item := range items {
		out = append(out, validateOffset(field, mdtName, item, msg)...)
	}
	return out
}
