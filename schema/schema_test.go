package schema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/fields"
	"github.com/reoring/eo3/schema"
	"github.com/reoring/eo3/source"
)

const minimalDataset = `
$schema: https://schemas.opendatacube.org/dataset
id: 7d41a4d0-2ab3-4da1-a010-ef48662ae8ef
product:
  name: ga_ls8c_ard_3
crs: epsg:3577
grids:
  default:
    shape: [100, 100]
    transform: [25, 0, 1500000, 0, -25, -3900000, 0, 0, 1]
properties:
  datetime: 2020-01-01T00:00:00Z
  odc:processing_datetime: 2020-01-02T00:00:00Z
measurements:
  blue:
    path: blue.tif
lineage: {}
`

func messages(vs []schema.Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}

func TestDatasetSchemaAcceptsMinimalDocument(t *testing.T) {
	vs := schema.Dataset().Validate(source.MustParseYAML(minimalDataset))
	assert.Empty(t, messages(vs))
}

func TestDatasetSchemaViolations(t *testing.T) {
	doc := source.MustParseYAML(minimalDataset)
	doc = eo3.Dissoc(doc, "id")
	doc["crs"] = 3577
	doc["spam"] = true

	vs := schema.Dataset().Validate(doc)
	got := messages(vs)
	assert.Contains(t, got, "'id' is a required property")
	assert.Contains(t, got, "(crs) 3577 is not of type 'string'")
	var found bool
	for _, m := range got {
		if strings.Contains(m, "'spam' was unexpected") {
			found = true
		}
	}
	assert.True(t, found, "got %v", got)

	for _, v := range vs {
		if v.DisplayPath() == "crs" {
			assert.Equal(t, []string{"crs"}, v.Path)
		}
	}
}

func TestDatasetSchemaGridShape(t *testing.T) {
	doc := source.MustParseYAML(minimalDataset)
	doc = eo3.AssocIn(doc, eo3.Offset{"grids", "default", "shape"}, []any{100})
	vs := schema.Dataset().Validate(doc)
	require.Len(t, vs, 1)
	assert.Equal(t, "grids.default.shape", vs[0].DisplayPath())
}

func TestProductSchema(t *testing.T) {
	product := source.MustParseYAML(`
name: simple_test_product
description: Our test product
metadata_type: eo3
license: CC-BY-SA-4.0
metadata:
  product:
    name: simple_test_product
measurements:
  - name: blue
    units: "1"
    dtype: uint8
    nodata: 255
`)
	assert.Empty(t, messages(schema.Product().Validate(product)))

	bad := eo3.Dissoc(product, "metadata")
	bad["license"] = "Sorta Creative Commons"
	got := messages(schema.Product().Validate(bad))
	assert.Contains(t, got, "'metadata' is a required property")
	assert.Contains(t, got, "(license) 'Sorta Creative Commons' does not match '^[A-Za-z0-9.+-]+$'")

	nan := eo3.AssocIn(product, eo3.Offset{"measurements"}, []any{
		map[string]any{"name": "blue", "units": "1", "dtype": "float32", "nodata": "NaN"},
	})
	assert.Empty(t, messages(schema.Product().Validate(nan)))
}

func TestDefaultMetadataType(t *testing.T) {
	mdt := schema.DefaultMetadataType()
	assert.Equal(t, "eo3", mdt["name"])
	assert.Empty(t, messages(schema.MetadataType().Validate(mdt)))

	mdt["name"] = "changed"
	assert.Equal(t, "eo3", schema.DefaultMetadataType()["name"])

	fs, err := fields.SearchFields(mdt)
	require.NoError(t, err)
	assert.Contains(t, fs, "time")
	assert.Contains(t, fs, "lat")
	assert.Contains(t, fs, "lon")
}

func TestMetadataTypeSchema(t *testing.T) {
	mdt := schema.DefaultMetadataType()
	mdt = eo3.AssocIn(mdt, eo3.Offset{"dataset", "search_fields", "bad"}, map[string]any{
		"type":   "no-such-type",
		"offset": []any{"properties", "x"},
	})
	vs := schema.MetadataType().Validate(mdt)
	require.NotEmpty(t, vs)
	assert.Equal(t, "dataset.search_fields.bad", vs[0].DisplayPath())
	assert.Contains(t, vs[0].Message, "is not valid under any of the given schemas")
}
