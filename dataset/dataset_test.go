package dataset_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/crs"
	"github.com/reoring/eo3/dataset"
	"github.com/reoring/eo3/source"
)

const sampleDoc = `---
$schema: https://schemas.opendatacube.org/dataset
id: 7d41a4d0-2ab3-4da1-a010-ef48662ae8ef
crs: "EPSG:3857"
product:
    name: sample_product
properties:
    datetime: 2020-05-25 23:35:47.745731Z
    odc:processing_datetime: 2020-05-25 23:35:47.745731Z
grids:
    default:
       shape: [100, 200]
       transform: [10, 0, 100000, 0, -10, 200000, 0, 0, 1]
lineage:
  src_a: ['7cf53cb3-5da7-483f-9f12-6056e3290b4e']
  src_b:
    - 'f5b9f582-d5ff-43c0-a49b-ef175abe429c'
    - '7f8c6e8e-6f6b-4513-a11c-efe466405509'
  src_empty: []
...
`

// Crosses the antimeridian in the Pacific.
const sampleDoc180 = `---
$schema: https://schemas.opendatacube.org/dataset
id: f884df9b-4458-47fd-a9d2-1a52a2db8a1a
crs: "EPSG:32660"
product:
    name: sample_product
properties:
    datetime: 2020-05-25 23:35:47.745731Z
    odc:processing_datetime: 2020-05-25 23:35:47.745731Z
grids:
    default:
       shape: [7811, 7691]
       transform: [30, 0, 618285, 0, -30, -1642485, 0, 0, 1]
    pan:
       shape: [15621, 15381]
       transform: [15, 0, 618292.5, 0, -15, -1642492.5, 0, 0, 1]
lineage: {}
...
`

func TestIsEO3(t *testing.T) {
	for _, s := range []string{sampleDoc, sampleDoc180} {
		ok, err := dataset.IsEO3(source.MustParseYAML(s))
		require.NoError(t, err)
		assert.True(t, ok)
	}
	for _, doc := range []eo3.Doc{{}, {"crs": "EPSG:4326"}, {"crs": "EPSG:4326", "grids": map[string]any{}}} {
		ok, err := dataset.IsEO3(doc)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	_, err := dataset.IsEO3(eo3.Doc{"$schema": "https://schemas.opendatacube.org/eo4"})
	assert.ErrorContains(t, err, "unsupported dataset schema")
}

func TestIsGeo(t *testing.T) {
	ok, _ := dataset.IsGeo(source.MustParseYAML(sampleDoc))
	assert.True(t, ok)
	ok, _ = dataset.IsGeo(eo3.Doc{})
	assert.False(t, ok)
	ok, _ = dataset.IsGeo(eo3.Doc{"crs": "EPSG:4326"})
	assert.False(t, ok)
	ok, _ = dataset.IsGeo(eo3.Doc{"crs": "EPSG:4326", "extent": "dummy_extent"})
	assert.True(t, ok)
}

func TestGridSpatialRequiresCRSAndGrids(t *testing.T) {
	doc := source.MustParseYAML(sampleDoc)
	_, err := dataset.Prepare(eo3.Dissoc(doc, "crs"), dataset.PrepareOptions{})
	assert.True(t, errors.Is(err, dataset.ErrIncompleteGeometry))
	_, err = dataset.Prepare(eo3.Dissoc(doc, "grids"), dataset.PrepareOptions{})
	assert.True(t, errors.Is(err, dataset.ErrIncompleteGeometry))

	_, _, err = dataset.GridSpatial(doc, "foo")
	assert.ErrorContains(t, err, "grids.foo")

	bad := eo3.AssocIn(doc, eo3.Offset{"crs"}, "spam")
	_, err = dataset.Prepare(bad, dataset.PrepareOptions{})
	assert.True(t, errors.Is(err, crs.ErrInvalidCRS))
}

func TestPrepareAddsExtent(t *testing.T) {
	doc := source.MustParseYAML(sampleDoc)
	out, err := dataset.Prepare(doc, dataset.PrepareOptions{})
	require.NoError(t, err)
	_, had := doc["extent"]
	assert.False(t, had, "input must not be modified")
	assert.Equal(t, "EPSG:3857", out["crs"])
	require.NotNil(t, out["grid_spatial"])

	lat := eo3.GetMap(out, "extent", "lat")
	lon := eo3.GetMap(out, "extent", "lon")
	assert.Less(t, lat["begin"].(float64), lat["end"].(float64))
	assert.Less(t, lon["begin"].(float64), lon["end"].(float64))

	ul := eo3.GetMap(out, "grid_spatial", "projection", "geo_ref_points", "ul")
	assert.Equal(t, 100000.0, ul["x"])
	assert.Equal(t, 200000.0, ul["y"])

	again, err := dataset.Prepare(out, dataset.PrepareOptions{SkipLineage: true})
	require.NoError(t, err)
	assert.Equal(t, out["extent"], again["extent"])

	out, err = dataset.Prepare(source.MustParseYAML(sampleDoc180), dataset.PrepareOptions{})
	require.NoError(t, err)
	lon = eo3.GetMap(out, "extent", "lon")
	assert.Less(t, lon["begin"].(float64), 180.0)
	assert.Greater(t, lon["end"].(float64), 180.0)
}

func TestRemapLineage(t *testing.T) {
	out, err := dataset.Prepare(source.MustParseYAML(sampleDoc), dataset.PrepareOptions{})
	require.NoError(t, err)
	sources := eo3.GetMap(out, "lineage", "source_datasets")
	assert.Contains(t, sources, "src_a")
	assert.Contains(t, sources, "src_b1")
	assert.Contains(t, sources, "src_b2")
	assert.NotContains(t, sources, "src_empty")
	assert.Equal(t, map[string]any{"id": "7cf53cb3-5da7-483f-9f12-6056e3290b4e"}, sources["src_a"])

	out, err = dataset.Prepare(source.MustParseYAML(sampleDoc180), dataset.PrepareOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, eo3.GetMap(out, "lineage", "source_datasets"))

	_, err = dataset.RemapLineage(map[string]any{"a": []any{map[string]any{"id": "x"}}})
	assert.True(t, errors.Is(err, dataset.ErrInvalidLineage))
	_, err = dataset.RemapLineage(map[string]any{"a": map[string]any{"id": "x"}})
	assert.ErrorContains(t, err, "lineage")
}

func TestDecode(t *testing.T) {
	doc := source.MustParseYAML(`
$schema: https://schemas.opendatacube.org/dataset
id: 7d41a4d0-2ab3-4da1-a010-ef48662ae8ef
product: {name: p, href: https://example.com/p}
crs: epsg:3577
measurements:
  blue: {path: blue.tif}
  pan: {path: pan.tif, band: 2, grid: pan}
accessories:
  thumbnail: {path: thumb.jpg, type: image/jpeg}
properties:
  odc:producer: ga.gov.au
`)
	d, err := dataset.Decode(doc)
	require.NoError(t, err)
	assert.Equal(t, "p", d.Product.Name)
	assert.Equal(t, dataset.Measurement{Path: "blue.tif", Band: 1, Grid: "default", Name: "blue"}, d.Measurements["blue"])
	assert.Equal(t, 2, d.Measurements["pan"].Band)
	assert.Equal(t, "pan", d.Measurements["pan"].Grid)
	assert.Equal(t, "image/jpeg", d.Accessories["thumbnail"].Type)
	assert.Equal(t, "ga.gov.au", d.Properties["odc:producer"])
}

func TestDocKind(t *testing.T) {
	assert.False(t, dataset.KindDataset.IsLegacy())
	assert.True(t, dataset.KindLegacyDataset.IsLegacy())
	assert.True(t, dataset.KindIngestionConfig.IsLegacy())

	cases := []struct {
		doc  eo3.Doc
		want dataset.DocKind
	}{
		{eo3.Doc{"name": "p", "metadata_type": "eo3", "measurements": []any{map[string]any{"name": "blue"}}}, dataset.KindProduct},
		{eo3.Doc{"name": "p", "metadata_type": "eo3", "source_type": "x"}, dataset.KindIngestionConfig},
		{eo3.Doc{"name": "m", "dataset": map[string]any{"search_fields": map[string]any{}}}, dataset.KindMetadataType},
		{eo3.Doc{"id": "spam", "lineage": []any{"sources"}, "platform": "boots"}, dataset.KindLegacyDataset},
		{eo3.Doc{"id": "spam", "properties": map[string]any{"datetime": "today, right now"}}, dataset.KindStacItem},
		{source.MustParseYAML(sampleDoc), dataset.KindDataset},
	}
	for _, tc := range cases {
		got, ok := dataset.GuessKindFromContents(tc.doc)
		assert.True(t, ok)
		assert.Equal(t, tc.want, got)
	}
	_, ok := dataset.GuessKindFromContents(eo3.Doc{"spam": "spam", "bacon": "eggs"})
	assert.False(t, ok)

	k, ok := dataset.FilenameDocKind("asdf.odc-metadata.yaml")
	assert.True(t, ok)
	assert.Equal(t, dataset.KindDataset, k)
	k, _ = dataset.FilenameDocKind("/tmp/ls8.odc-product.yaml.gz")
	assert.Equal(t, dataset.KindProduct, k)
	_, ok = dataset.FilenameDocKind("notes.txt")
	assert.False(t, ok)
}
