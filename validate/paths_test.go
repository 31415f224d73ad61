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
	"github.com/reoring/eo3/validate"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidatePaths(t *testing.T) {
	dir := t.TempDir()
	rastertest.Write(t, dir, "blue.tif", rastertest.Spec{Dtype: "uint16", Nodata: "65535"})
	paths := []string{
		writeFile(t, dir, "ds.odc-metadata.yaml", datasetDoc),
		writeFile(t, dir, "simple.odc-product.yaml", productDoc),
		writeFile(t, dir, "item.stac-item.json", `{"type": "Feature", "stac_version": "1.0.0"}`),
		writeFile(t, dir, "broken.yaml", "a: [1, 2"),
		writeFile(t, dir, "mystery.yaml", "spam: eggs\n"),
	}

	results, err := validate.ValidatePaths(context.Background(), paths, validate.PathOptions{
		MetadataTypes: []eo3.Doc{schema.DefaultMetadataType()},
		Thorough:      true,
		Workers:       2,
	})
	require.NoError(t, err)
	require.Len(t, results, 5)

	byName := map[string]validate.Result{}
	for _, r := range results {
		byName[filepath.Base(r.Path)] = r
	}
	assert.Equal(t, "broken.yaml", filepath.Base(results[0].Path), "sorted by path")

	ds := byName["ds.odc-metadata.yaml"]
	assert.Equal(t, dataset.KindDataset, ds.Kind)
	assert.False(t, ds.Failed(), ds.Messages.Text())
	assert.Empty(t, ds.Messages.Warnings(), ds.Messages.Text())

	assert.False(t, byName["simple.odc-product.yaml"].Failed(), byName["simple.odc-product.yaml"].Messages.Text())

	stac := byName["item.stac-item.json"]
	assert.False(t, stac.Failed())
	assert.True(t, stac.Messages.Has(eo3.CodeUnsupportedKind))

	assert.True(t, byName["broken.yaml"].Messages.Has(eo3.CodeUnreadable))
	assert.True(t, byName["mystery.yaml"].Messages.Has(eo3.CodeUnknownDocType))
}

func TestValidatePathsUsesProductFromFiles(t *testing.T) {
	dir := t.TempDir()
	product := `
name: simple_test_product
description: Other test product
metadata_type: eo3
license: CC-BY-SA-4.0
metadata:
  product:
    name: simple_test_product
measurements:
  - name: razzmatazz
    units: "1"
    dtype: int32
    nodata: -999
`
	paths := []string{
		writeFile(t, dir, "ds.odc-metadata.yaml", datasetDoc),
		writeFile(t, dir, "p.odc-product.yaml", product),
	}
	results, err := validate.ValidatePaths(context.Background(), paths, validate.PathOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Messages.Has(eo3.CodeMissingMeasurement), results[0].Messages.Text())
}

func TestValidatePathsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := validate.ValidatePaths(ctx, []string{"a.yaml"}, validate.PathOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
