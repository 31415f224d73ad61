package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/eo3/i18n"
	"github.com/reoring/eo3/source"
)

const datasetDoc = `
$schema: https://schemas.opendatacube.org/dataset
id: 7d41a4d0-2ab3-4da1-a010-ef48662ae8ef
label: simple_test_product_2020-01-02
product:
  name: simple_test_product
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

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { i18n.SetLanguage("en") })
	out := new(bytes.Buffer)
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidateCleanDocuments(t *testing.T) {
	dir := t.TempDir()
	ds := writeFile(t, dir, "ds.odc-metadata.yaml", datasetDoc)
	p := writeFile(t, dir, "simple.odc-product.yaml", productDoc)

	out, err := execute(t, "validate", ds, p)
	require.NoError(t, err, out)
	assert.Contains(t, out, ds+" (dataset): ok")
	assert.Contains(t, out, p+" (product): ok")
	assert.Contains(t, out, "2 document(s), 0 failed")

	out, err = execute(t, "validate", "--quiet", ds)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestValidateFailureExitsWithErrFailed(t *testing.T) {
	dir := t.TempDir()
	broken := strings.Replace(datasetDoc, "id: 7d41a4d0-2ab3-4da1-a010-ef48662ae8ef\n", "", 1)
	ds := writeFile(t, dir, "ds.odc-metadata.yaml", broken)

	out, err := execute(t, "validate", "--explain", ds)
	assert.True(t, errors.Is(err, errFailed), "got %v", err)
	assert.Contains(t, out, "(dataset): FAILED")
	assert.Contains(t, out, "E structure")
	assert.Contains(t, out, i18n.T("structure", nil))
	assert.Contains(t, out, "1 document(s), 1 failed")

	out, _ = execute(t, "validate", "--explain", "--lang", "ja", ds)
	assert.Contains(t, out, "ドキュメントの構造が想定と異なります")
}

func TestValidateWithProductFlag(t *testing.T) {
	dir := t.TempDir()
	ds := writeFile(t, dir, "ds.odc-metadata.yaml", strings.Replace(datasetDoc, "blue:", "red:", 1))
	p := writeFile(t, dir, "product.yaml", productDoc)

	out, err := execute(t, "validate", "--product", p, ds)
	assert.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, "missing_measurement")
}

func TestValidateConfig(t *testing.T) {
	dir := t.TempDir()
	noGeo := datasetDoc[:strings.Index(datasetDoc, "crs:")] + "grids: {}\n" + datasetDoc[strings.Index(datasetDoc, "properties:"):]
	ds := writeFile(t, dir, "ds.odc-metadata.yaml", noGeo)

	_, err := execute(t, "validate", ds)
	assert.ErrorIs(t, err, errFailed)

	cfg := writeFile(t, dir, "eo3.toml", "[validation]\nrequire_geometry = false\n")
	out, err := execute(t, "--config", cfg, "validate", ds)
	require.NoError(t, err, out)

	_, err = execute(t, "--config", filepath.Join(dir, "nope.toml"), "validate", ds)
	require.Error(t, err)
	assert.False(t, errors.Is(err, errFailed))
}

func TestKind(t *testing.T) {
	dir := t.TempDir()
	ds := writeFile(t, dir, "ds.odc-metadata.yaml", datasetDoc)
	p := writeFile(t, dir, "simple.yaml", productDoc)
	other := writeFile(t, dir, "other.yaml", "spam: eggs\n")

	out, err := execute(t, "kind", ds, p, other)
	require.NoError(t, err)
	assert.Equal(t, ds+": dataset\n"+p+": product\n"+other+": unknown\n", out)
}

func TestFields(t *testing.T) {
	dir := t.TempDir()
	ds := writeFile(t, dir, "ds.odc-metadata.yaml", datasetDoc)

	out, err := execute(t, "fields", ds)
	require.NoError(t, err)
	assert.Contains(t, out, "format: 'GeoTIFF'\n")
	assert.Contains(t, out, "label: 'simple_test_product_2020-01-02'\n")
	assert.Contains(t, out, "time: Range(begin=2020-01-02T03:04:05Z")

	out, err = execute(t, "fields", "--json", ds)
	require.NoError(t, err)
	assert.Contains(t, out, `"format": "GeoTIFF"`)
	assert.Contains(t, out, `"begin": "2020-01-02T03:04:05Z"`)

	out, err = execute(t, "fields", "--properties", ds)
	require.NoError(t, err)
	assert.Contains(t, out, `"eo": {`)
	assert.Contains(t, out, `"platform": "landsat-8"`)
	assert.Contains(t, out, `"producer": "ga.gov.au"`)
	assert.NotContains(t, out, `"eo:platform"`)

	_, err = execute(t, "fields", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestFmt(t *testing.T) {
	dir := t.TempDir()
	ds := writeFile(t, dir, "ds.odc-metadata.yaml", datasetDoc)

	out, err := execute(t, "fmt", ds)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "---\n# Dataset\n$schema:"), out)

	_, err = execute(t, "fmt", "--write", ds)
	require.NoError(t, err)
	written, err := os.ReadFile(ds)
	require.NoError(t, err)
	assert.Equal(t, out, string(written))
	_, err = source.ReadDoc(ds)
	assert.NoError(t, err)
}

func TestRelevantEvents(t *testing.T) {
	dir := t.TempDir()
	ds := filepath.Join(dir, "ds.odc-metadata.yaml")
	watched := map[string]bool{ds: true}

	assert.True(t, relevant(fsnotify.Event{Name: ds, Op: fsnotify.Write}, watched))
	assert.True(t, relevant(fsnotify.Event{Name: ds, Op: fsnotify.Create}, watched))
	assert.False(t, relevant(fsnotify.Event{Name: ds, Op: fsnotify.Chmod}, watched))
	assert.False(t, relevant(fsnotify.Event{Name: filepath.Join(dir, "other.yaml"), Op: fsnotify.Write}, watched))
}
