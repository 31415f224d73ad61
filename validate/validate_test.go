package validate_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/dataset"
	"github.com/reoring/eo3/internal/rastertest"
	"github.com/reoring/eo3/schema"
	"github.com/reoring/eo3/source"
	"github.com/reoring/eo3/validate"
)

const datasetDoc = `
$schema: https://schemas.opendatacube.org/dataset
id: 7d41a4d0-2ab3-4da1-a010-ef48662ae8ef
label: simple_test_product_2020-01-02
product:
  name: simple_test_product
  href: https://collections.example.com/product/simple_test_product
crs: epsg:3577
geometry:
  type: Polygon
  coordinates:
    - [[1500000.0, -3700000.0], [1600000.0, -3700000.0], [1600000.0, -3800000.0], [1500000.0, -3800000.0], [1500000.0, -3700000.0]]
grids:
  default:
    shape: [100, 100]
    transform: [1000.0, 0.0, 1500000.0, 0.0, -1000.0, -3700000.0, 0.0, 0.0, 1.0]
properties:
  datetime: "2020-01-02T03:04:05Z"
  eo:platform: landsat-8
  odc:file_format: GeoTIFF
  odc:processing_datetime: "2020-02-03T04:05:06Z"
  odc:producer: ga.gov.au
measurements:
  blue:
    path: blue.tif
lineage:
  level1: [a0a2a4a1-b3c5-4e1f-9a3a-1f1f1f1f1f1f]
`

const productDoc = `
name: simple_test_product
description: Our test product
metadata_type: eo3
license: CC-BY-SA-4.0
metadata:
  product:
    name: simple_test_product
  properties:
    eo:platform: landsat-8
measurements:
  - name: blue
    units: "1"
    dtype: uint16
    nodata: 65535
`

func datasetFixture(t *testing.T) eo3.Doc {
	t.Helper()
	return source.MustParseYAML(datasetDoc)
}

func productFixture(t *testing.T) eo3.Doc {
	t.Helper()
	return source.MustParseYAML(productDoc)
}

func run(t *testing.T, doc eo3.Doc, opts validate.Options) eo3.Messages {
	t.Helper()
	return validate.ValidateDataset(context.Background(), doc, opts)
}

func TestMinimalDatasetIsClean(t *testing.T) {
	ms := run(t, datasetFixture(t), validate.Options{})
	assert.Empty(t, ms.Errors(), ms.Text())
	assert.Empty(t, ms.Warnings(), ms.Text())

	ms = run(t, datasetFixture(t), validate.Options{Product: productFixture(t), MetadataType: schema.DefaultMetadataType()})
	assert.Empty(t, ms.Errors(), ms.Text())
	assert.Empty(t, ms.Warnings(), ms.Text())
}

func TestSchemaPrechecks(t *testing.T) {
	doc := eo3.Dissoc(datasetFixture(t), "$schema")
	ms := run(t, doc, validate.Options{})
	require.Len(t, ms, 1)
	assert.Equal(t, eo3.CodeNoSchema, ms[0].Code)

	doc["$schema"] = "https://schemas.opendatacube.org/product"
	ms = run(t, doc, validate.Options{})
	require.Len(t, ms, 1)
	assert.Equal(t, eo3.CodeUnknownDocType, ms[0].Code)
}

func TestMissingFieldStopsAtSchema(t *testing.T) {
	doc := eo3.Dissoc(datasetFixture(t), "id")
	doc["crs"] = "spam"
	ms := run(t, doc, validate.Options{})
	assert.Contains(t, ms.Text(), "'id' is a required property")
	// Later stages do not run.
	assert.False(t, ms.Has(eo3.CodeInvalidCRS))
}

func TestNumericCRSGetsHint(t *testing.T) {
	doc := datasetFixture(t)
	doc["crs"] = 3577
	ms := run(t, doc, validate.Options{})
	require.True(t, ms.Has(eo3.CodeStructure))
	assert.Contains(t, ms.Errors()[0].Hint, "'epsg:1234'")
}

func TestLineage(t *testing.T) {
	doc := datasetFixture(t)
	doc["lineage"] = map[string]any{
		"level1": []any{"a0a2a4a1-b3c5-4e1f-9a3a-1f1f1f1f1f1f", "c0a2a4a1-b3c5-4e1f-9a3a-1f1f1f1f1f1f"},
	}
	ms := run(t, doc, validate.Options{})
	assert.Empty(t, ms.Errors())
	assert.True(t, ms.Infos().Has(eo3.CodeNonflatLineage))

	doc["lineage"] = map[string]any{"level1": []any{"not-a-uuid"}}
	doc["crs"] = "spam"
	ms = run(t, doc, validate.Options{})
	assert.True(t, ms.Has(eo3.CodeInvalidSourceID))
	assert.False(t, ms.Has(eo3.CodeInvalidCRS), "geo stage runs only after lineage passes")
}

func TestMissingCRS(t *testing.T) {
	doc := eo3.Dissoc(datasetFixture(t), "crs")
	ms := run(t, doc, validate.Options{})
	assert.True(t, ms.Errors().Has(eo3.CodeIncompleteCRS))

	ms = run(t, doc, validate.Options{Expect: &validate.Expectations{}})
	assert.True(t, ms.Errors().Has(eo3.CodeIncompleteCRS), "some geo fields remain")
}

func TestOptionalGeo(t *testing.T) {
	doc := eo3.Dissoc(datasetFixture(t), "crs", "geometry")
	doc["grids"] = map[string]any{}

	ms := run(t, doc, validate.Options{})
	assert.True(t, ms.HasErrors())

	expect := validate.DefaultExpectations()
	expect.RequireGeometry = false
	ms = run(t, doc, validate.Options{Expect: &expect})
	assert.Empty(t, ms.Errors(), ms.Text())
	assert.Contains(t, ms.Text(), "No geo information in dataset")
}

func TestInvalidGeometry(t *testing.T) {
	doc := datasetFixture(t)
	doc["geometry"] = map[string]any{
		"type": "Polygon",
		"coordinates": []any{[]any{
			[]any{770115.0, -2768985.0},
			[]any{525285.0, -2981715.0},
			[]any{770115.0, -2981715.0},
			[]any{525285.0, -2768985.0},
			[]any{770115.0, -2768985.0},
		}},
	}
	ms := run(t, doc, validate.Options{})
	assert.True(t, ms.Errors().Has(eo3.CodeInvalidGeometry), ms.Text())
}

func TestInvalidGeometryShapes(t *testing.T) {
	polygon := func(rings ...[]any) map[string]any {
		return map[string]any{"type": "Polygon", "coordinates": rings}
	}
	shell := []any{
		[]any{1500000.0, -3700000.0}, []any{1600000.0, -3700000.0}, []any{1600000.0, -3800000.0},
		[]any{1500000.0, -3800000.0}, []any{1500000.0, -3700000.0},
	}
	for name, geometry := range map[string]map[string]any{
		"collinear ring": polygon([]any{
			[]any{1500000.0, -3700000.0}, []any{1550000.0, -3700000.0},
			[]any{1600000.0, -3700000.0}, []any{1500000.0, -3700000.0},
		}),
		"hole outside shell": polygon(shell, []any{
			[]any{0.0, 0.0}, []any{10.0, 0.0}, []any{10.0, 10.0}, []any{0.0, 10.0}, []any{0.0, 0.0},
		}),
		"overlapping parts": {"type": "MultiPolygon", "coordinates": []any{
			[]any{shell},
			[]any{[]any{
				[]any{1550000.0, -3750000.0}, []any{1650000.0, -3750000.0}, []any{1650000.0, -3850000.0},
				[]any{1550000.0, -3850000.0}, []any{1550000.0, -3750000.0},
			}},
		}},
	} {
		doc := datasetFixture(t)
		doc["geometry"] = geometry
		ms := run(t, doc, validate.Options{})
		assert.True(t, ms.Errors().Has(eo3.CodeInvalidGeometry), "%s: %s", name, ms.Text())
	}
}

func TestCRSForms(t *testing.T) {
	doc := datasetFixture(t)
	doc["crs"] = `PROJCS["WGS 84 / UTM zone 55N",
    GEOGCS["WGS 84",
        DATUM["WGS_1984",
            SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],
            AUTHORITY["EPSG","6326"]],
        PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],
        UNIT["degree",0.01745329251994328,AUTHORITY["EPSG","9122"]],
        AUTHORITY["EPSG","4326"]],
    UNIT["metre",1,AUTHORITY["EPSG","9001"]],
    PROJECTION["Transverse_Mercator"],
    PARAMETER["latitude_of_origin",0],
    PARAMETER["central_meridian",147],
    PARAMETER["scale_factor",0.9996],
    PARAMETER["false_easting",500000],
    PARAMETER["false_northing",0],
    AUTHORITY["EPSG","32655"],
    AXIS["Easting",EAST],
    AXIS["Northing",NORTH]]`
	ms := run(t, doc, validate.Options{})
	assert.Empty(t, ms.Errors(), ms.Text())
	assert.True(t, ms.Warnings().Has(eo3.CodeNonEPSG))
	assert.Contains(t, ms.Warnings().Text(), "change CRS to 'epsg:32655'")

	doc["crs"] = "EPSG:3577"
	ms = run(t, doc, validate.Options{})
	assert.Empty(t, ms.Errors())
	assert.True(t, ms.Warnings().Has(eo3.CodeMixedCRSCase))

	doc["crs"] = "epsg:99"
	assert.True(t, run(t, doc, validate.Options{}).Has(eo3.CodeInvalidCRSEPSG))

	doc["crs"] = "spam"
	assert.True(t, run(t, doc, validate.Options{}).Has(eo3.CodeInvalidCRS))

	// Inside the EPSG range but not a registered code.
	doc["crs"] = "epsg:9999"
	assert.True(t, run(t, doc, validate.Options{}).Errors().Has(eo3.CodeInvalidCRSEPSG))

	doc["crs"] = `PROJCS["Polar",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]]],PROJECTION["Polar_Stereographic"]]`
	ms = run(t, doc, validate.Options{})
	assert.True(t, ms.Errors().Has(eo3.CodeInvalidCRS), ms.Text())
	assert.Contains(t, ms.Errors().Text(), "cannot be transformed to longitude/latitude")
}

func TestExtentForNewZealandCRS(t *testing.T) {
	doc := datasetFixture(t)
	doc["crs"] = "epsg:2193"
	doc["geometry"] = map[string]any{"type": "Polygon", "coordinates": []any{[]any{
		[]any{1700000.0, 5500000.0}, []any{1800000.0, 5500000.0}, []any{1800000.0, 5400000.0},
		[]any{1700000.0, 5400000.0}, []any{1700000.0, 5500000.0},
	}}}
	eo3.GetMap(doc, "grids", "default")["transform"] = []any{1000.0, 0.0, 1700000.0, 0.0, -1000.0, 5500000.0, 0.0, 0.0, 1.0}

	ms := run(t, doc, validate.Options{MetadataType: schema.DefaultMetadataType()})
	assert.Empty(t, ms.Errors(), ms.Text())
	assert.False(t, ms.Has(eo3.CodeMissingField), ms.Text())

	prepared, err := dataset.Prepare(doc, dataset.PrepareOptions{})
	require.NoError(t, err)
	lat := eo3.GetMap(prepared, "extent", "lat")
	assert.InDelta(t, -41.55, lat["begin"].(float64), 0.05)
	assert.InDelta(t, -40.63, lat["end"].(float64), 0.05)
}

func TestGridCRSIsValidatedSeparately(t *testing.T) {
	doc := datasetFixture(t)
	grids := eo3.GetMap(doc, "grids")
	grids["coarse"] = map[string]any{
		"shape":     []any{10, 10},
		"transform": []any{10000.0, 0.0, 1500000.0, 0.0, -10000.0, -3700000.0},
		"crs":       "spam",
	}
	ms := run(t, doc, validate.Options{})
	require.True(t, ms.Has(eo3.CodeInvalidCRS))
	for _, m := range ms.Errors() {
		if m.Code == eo3.CodeInvalidCRS {
			assert.Equal(t, "coarse", m.Context["grid"])
		}
	}
}

func TestMeasurementChecks(t *testing.T) {
	doc := datasetFixture(t)
	ms := eo3.GetMap(doc, "measurements")
	ms["blue"] = map[string]any{"path": "blue.tif", "grid": "unknown_grid"}
	ms["red"] = map[string]any{"path": "/abs/red.tif"}
	ms["green"] = map[string]any{"path": "bands.tif#part=2"}
	ms["nir"] = map[string]any{"path": "bands.tif#part=-1"}
	ms["swir"] = map[string]any{"path": "bands.tif#part=x"}
	doc["accessories"] = map[string]any{"thumbnail": map[string]any{"path": "s3://bucket/thumb.jpg"}}

	out := run(t, doc, validate.Options{})
	assert.True(t, out.Errors().Has(eo3.CodeInvalidGridRef))
	assert.True(t, out.Warnings().Has(eo3.CodeURIPart))
	assert.Len(t, filter(out.Errors(), eo3.CodeURIInvalidPart), 2)
	assert.Len(t, filter(out.Warnings(), eo3.CodeAbsolutePath), 2)
	assert.Contains(t, out.Text(), "'unknown_grid'")
}

func TestPropertyStage(t *testing.T) {
	doc := datasetFixture(t)
	props := eo3.GetMap(doc, "properties")
	delete(props, "odc:file_format")
	props["odc:producer"] = "ga"
	props["eo:cloud_cover"] = 140
	props["spam:eggs"] = 1

	ms := run(t, doc, validate.Options{})
	assert.True(t, ms.Warnings().Has(eo3.CodeGlobalFileFormat))
	assert.True(t, ms.Warnings().Has(eo3.CodeProducerDomain))
	assert.True(t, ms.Errors().Has(eo3.CodeInvalidProperty))
	assert.True(t, ms.Infos().Has(eo3.CodeUnknownProperty))
}

func TestProductConsistency(t *testing.T) {
	t.Run("missing measurement", func(t *testing.T) {
		p := productFixture(t)
		p["name"] = "test_with_extra_measurement"
		p["measurements"] = []any{map[string]any{"name": "razzmatazz", "dtype": "int32", "units": "1", "nodata": -999}}
		ms := run(t, datasetFixture(t), validate.Options{Product: p})
		errs := ms.Errors()
		assert.True(t, errs.Has(eo3.CodeMissingMeasurement))
		assert.Contains(t, errs.Text(), "razzmatazz")
		assert.True(t, errs.Has(eo3.CodeProductMismatch))
		assert.True(t, ms.Warnings().Has(eo3.CodeExtraMeasurements))
	})

	t.Run("metadata template", func(t *testing.T) {
		p := productFixture(t)
		eo3.GetMap(p, "metadata", "properties")["eo:platform"] = "LANDSAT-8"
		assert.Empty(t, run(t, datasetFixture(t), validate.Options{Product: p}).Errors(), "case-insensitive")

		eo3.GetMap(p, "metadata", "properties")["eo:platform"] = "sentinel-2a"
		ms := run(t, datasetFixture(t), validate.Options{Product: p})
		require.True(t, ms.Has(eo3.CodeMetadataMismatch))
		assert.Equal(t, "\teo:platform: 'landsat-8' != 'sentinel-2a'", ms.Errors()[0].Hint)
	})

	t.Run("allowed extra measurements", func(t *testing.T) {
		doc := datasetFixture(t)
		eo3.GetMap(doc, "measurements")["red"] = map[string]any{"path": "red.tif"}
		ms := run(t, doc, validate.Options{Product: productFixture(t)})
		require.True(t, ms.Has(eo3.CodeExtraMeasurements))
		assert.Contains(t, ms.Warnings().Text(), "red")

		expect := validate.DefaultExpectations()
		expect.AllowExtraMeasurements = []string{"red"}
		assert.False(t, run(t, doc, validate.Options{Product: productFixture(t), Expect: &expect}).Has(eo3.CodeExtraMeasurements))

		p := productFixture(t)
		p["default_allowances"] = map[string]any{"allow_extra_measurements": []any{"red"}}
		assert.False(t, run(t, doc, validate.Options{Product: p}).Has(eo3.CodeExtraMeasurements))
	})

	t.Run("measurementless product", func(t *testing.T) {
		p := productFixture(t)
		p["measurements"] = []any{}
		ms := run(t, datasetFixture(t), validate.Options{Product: p})
		assert.Empty(t, ms.Errors())
	})
}

func TestMetadataTypeCoverage(t *testing.T) {
	mdt := schema.DefaultMetadataType()
	search := eo3.GetMap(mdt, "dataset", "search_fields")
	search["region_code"] = map[string]any{"description": "Region", "offset": []any{"properties", "odc:region_code"}}
	search["platform"] = map[string]any{"description": "Platform", "offset": []any{"properties", "eo:platform"}}

	doc := datasetFixture(t)
	eo3.GetMap(doc, "properties")["eo:platform"] = nil
	ms := run(t, doc, validate.Options{MetadataType: mdt})
	require.True(t, ms.Warnings().Has(eo3.CodeMissingField))
	assert.Contains(t, ms.Warnings().Text(), "'region_code'")
	assert.Contains(t, ms.Warnings().Text(), "Expected at properties->odc:region_code")
	assert.True(t, ms.Infos().Has(eo3.CodeNullField))

	expect := validate.DefaultExpectations()
	expect.AllowMissingFields = []string{"region_code"}
	expect.AllowNullableFields = append(expect.AllowNullableFields, "platform")
	ms = run(t, doc, validate.Options{MetadataType: mdt, Expect: &expect})
	assert.False(t, ms.Has(eo3.CodeMissingField), ms.Text())
	assert.False(t, ms.Has(eo3.CodeNullField), ms.Text())
}

func TestThorough(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "dataset.odc-metadata.yaml")

	check := func(t *testing.T, p eo3.Doc) eo3.Messages {
		t.Helper()
		return run(t, datasetFixture(t), validate.Options{Product: p, Thorough: true, ReadableLocation: location})
	}

	t.Run("needs a product", func(t *testing.T) {
		assert.True(t, check(t, nil).Errors().Has(eo3.CodeNoProduct))
	})

	t.Run("matching file", func(t *testing.T) {
		rastertest.Write(t, dir, "blue.tif", rastertest.Spec{Dtype: "uint16", Nodata: "65535"})
		ms := check(t, productFixture(t))
		assert.Empty(t, ms, ms.Text())

		p := productFixture(t)
		m, _ := eo3.AsSlice(p["measurements"])
		m[0].(map[string]any)["nodata"] = 255
		m[0].(map[string]any)["dtype"] = "uint8"
		ms = check(t, p)
		assert.True(t, ms.Errors().Has(eo3.CodeDifferentNodata))
		assert.True(t, ms.Errors().Has(eo3.CodeDifferentDtype))
		assert.Contains(t, ms.Errors().Text(), "uint8")
	})

	t.Run("nan nodata", func(t *testing.T) {
		rastertest.Write(t, dir, "blue.tif", rastertest.Spec{Dtype: "float32", Nodata: "nan"})
		p := productFixture(t)
		m, _ := eo3.AsSlice(p["measurements"])
		blue := m[0].(map[string]any)
		blue["dtype"] = "float32"
		for _, nodata := range []any{"NaN", "nan"} {
			blue["nodata"] = nodata
			ms := check(t, p)
			assert.Empty(t, ms, ms.Text())
		}

		blue["nodata"] = 0
		errs := check(t, p).Errors()
		require.True(t, errs.Has(eo3.CodeDifferentNodata))
		assert.Contains(t, errs.Text(), "blue")
		assert.Contains(t, errs.Text(), "dataset nan")
		assert.Contains(t, errs.Text(), "product 0")
	})

	t.Run("missing nodata on disk", func(t *testing.T) {
		rastertest.Write(t, dir, "blue.tif", rastertest.Spec{Dtype: "uint16"})
		ms := check(t, productFixture(t))
		assert.Empty(t, ms, ms.Text())
	})

	t.Run("unsupported dtype on disk", func(t *testing.T) {
		rastertest.Write(t, dir, "blue.tif", rastertest.Spec{Dtype: "uint12"})
		errs := check(t, productFixture(t)).Errors()
		require.True(t, errs.Has(eo3.CodeDifferentDtype), errs.Text())
		assert.Contains(t, errs.Text(), "'uint12' is not a supported raster data type")
	})

	t.Run("missing band", func(t *testing.T) {
		rastertest.Write(t, dir, "blue.tif", rastertest.Spec{Dtype: "uint16"})
		doc := datasetFixture(t)
		eo3.GetMap(doc, "measurements", "blue")["band"] = 2
		ms := run(t, doc, validate.Options{Product: productFixture(t), Thorough: true, ReadableLocation: location})
		require.True(t, ms.Has(eo3.CodeIncorrectBand))
		assert.Contains(t, ms.Errors()[0].Hint, "[1]")
	})

	t.Run("unreadable", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(dir, "blue.tif")))
		assert.True(t, check(t, productFixture(t)).Has(eo3.CodeUnreadableMeasurement))
	})
}

func TestExpectationsOverrides(t *testing.T) {
	base := validate.DefaultExpectations()
	base.AllowMissingFields = []string{"region_code"}
	got := base.WithDocumentOverrides(eo3.Doc{
		"default_allowances": map[string]any{
			"require_geometry":      false,
			"allow_missing_fields":  []any{"region_code", "platform"},
			"allow_nullable_fields": []any{"instrument"},
		},
	})
	assert.False(t, got.RequireGeometry)
	assert.Equal(t, []string{"region_code", "platform"}, got.AllowMissingFields)
	assert.Equal(t, []string{"label", "sources", "instrument"}, got.AllowNullableFields)
	// The receiver is untouched.
	assert.True(t, base.RequireGeometry)
	assert.Equal(t, []string{"region_code"}, base.AllowMissingFields)

	assert.Equal(t, base, base.WithDocumentOverrides(eo3.Doc{"name": "p"}))
}

func filter(ms eo3.Messages, code string) eo3.Messages {
	var out eo3.Messages
	for _, m := range ms {
		if m.Code == code {
			out = append(out, m)
		}
	}
	return out
}

func TestDocKindOf(t *testing.T) {
	k, ok := validate.DocKindOf("a/b.odc-product.yaml", eo3.Doc{})
	assert.True(t, ok)
	assert.Equal(t, dataset.KindProduct, k)

	k, ok = validate.DocKindOf("dataset.yaml", datasetFixture(t))
	assert.True(t, ok)
	assert.Equal(t, dataset.KindDataset, k)
}
