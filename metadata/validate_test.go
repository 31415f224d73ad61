package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/metadata"
	"github.com/reoring/eo3/schema"
)

func TestDefaultMetadataTypeIsValid(t *testing.T) {
	ms := metadata.ValidateMetadataType(schema.DefaultMetadataType())
	assert.Empty(t, ms.Text())
}

func TestMissingName(t *testing.T) {
	mdt := eo3.Dissoc(schema.DefaultMetadataType(), "name")
	ms := metadata.ValidateMetadataType(mdt)
	require.Len(t, ms, 1)
	assert.Equal(t, eo3.CodeNoTypeName, ms[0].Code)
}

func TestSystemFieldOffsets(t *testing.T) {
	mdt := eo3.AssocIn(schema.DefaultMetadataType(), eo3.Offset{"dataset", "creation_dt"}, []any{"properties", "invalid_offset"})
	ms := metadata.ValidateMetadataType(mdt)
	require.True(t, ms.Has(eo3.CodeBadSystemField), ms.Text())
	assert.Equal(t, "eo3", ms.Errors()[0].Context["type"])

	mdt = eo3.AssocIn(schema.DefaultMetadataType(), eo3.Offset{"dataset", "sources"}, []any{"sources"})
	assert.True(t, metadata.ValidateMetadataType(mdt).Has(eo3.CodeBadSystemField))

	mdt = eo3.AssocIn(schema.DefaultMetadataType(), eo3.Offset{"dataset", "grid_spatial"}, []any{"anything", "goes"})
	assert.Empty(t, metadata.ValidateMetadataType(mdt))

	section := eo3.Dissoc(eo3.GetMap(schema.DefaultMetadataType(), "dataset"), "label")
	mdt = eo3.AssocIn(schema.DefaultMetadataType(), eo3.Offset{"dataset"}, section)
	ms = metadata.ValidateMetadataType(mdt)
	assert.True(t, ms.Has(eo3.CodeMissingSystemField))
	assert.True(t, ms.Has(eo3.CodeDocumentSchema))
}

func TestSearchFieldOffsets(t *testing.T) {
	cases := []struct {
		name string
		def  map[string]any
		code string
	}{
		{"flat property", map[string]any{"offset": []any{"properties", "eo:gsd"}}, ""},
		{"crs", map[string]any{"offset": []any{"crs"}}, ""},
		{"compound", map[string]any{"offset": []any{[]any{"properties", "a"}, []any{"properties", "b"}}}, ""},
		{"nested property", map[string]any{"offset": []any{"properties", "a", "b"}}, eo3.CodeBadOffset},
		{"outside properties", map[string]any{"offset": []any{"grids", "default"}}, eo3.CodeBadOffset},
		{"compound with bad", map[string]any{"offset": []any{[]any{"properties", "a"}, []any{"lineage"}}}, eo3.CodeBadOffset},
		{"no offset", map[string]any{"type": "double"}, eo3.CodeBadScalar},
		{"unsupported type", map[string]any{"type": "boolean", "offset": []any{"properties", "a"}}, eo3.CodeBadScalar},
		{"float range alias", map[string]any{
			"type":       "float-range",
			"min_offset": []any{[]any{"properties", "a"}},
			"max_offset": []any{[]any{"properties", "b"}},
		}, ""},
		{"range no min", map[string]any{"type": "double-range", "max_offset": []any{[]any{"properties", "a"}}}, eo3.CodeBadRangeNoMin},
		{"range no max", map[string]any{"type": "double-range", "min_offset": []any{[]any{"properties", "a"}}}, eo3.CodeBadRangeNoMax},
		{"extent range", map[string]any{
			"type":       "double-range",
			"min_offset": []any{[]any{"extent", "lat", "begin"}},
			"max_offset": []any{[]any{"extent", "lat", "end"}},
		}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := eo3.NewMessager(nil)
			ms := metadata.ValidateSearchField("field", "eo3", tc.def, msg)
			if tc.code == "" {
				assert.Empty(t, ms.Text())
				return
			}
			assert.True(t, ms.Has(tc.code), ms.Text())
		})
	}
}

func TestSystemFieldNameInSearchFields(t *testing.T) {
	mdt := eo3.AssocIn(schema.DefaultMetadataType(), eo3.Offset{"dataset", "search_fields", "label"},
		map[string]any{"offset": []any{"properties", "label"}, "description": "clash"})
	ms := metadata.ValidateMetadataType(mdt)
	assert.True(t, ms.Has(eo3.CodeSystemFieldInSearchFields), ms.Text())
}
