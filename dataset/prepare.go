package dataset

import (
	"errors"
	"fmt"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/crs"
	"github.com/reoring/eo3/geom"
)

var (
	// ErrIncompleteGeometry is returned when crs, grids or the named grid are
	// missing or malformed.
	ErrIncompleteGeometry = errors.New("incomplete geometry")
	// ErrInvalidLineage is returned for lineage that cannot be remapped.
	ErrInvalidLineage = errors.New("invalid lineage")
)

// PrepareOptions tune Prepare.
type PrepareOptions struct {
	// GridName is the grid used for geo_ref_points; "default" when empty.
	GridName string
	// SkipLineage leaves lineage untouched.
	SkipLineage bool
}

// Prepare returns a copy of doc with grid_spatial.projection and extent
// derived from its crs, grids and geometry, and with lineage remapped from
// {label: [ids]} to {source_datasets: {label: {id: ..}}}.
//
// CRS failures wrap crs.ErrInvalidCRS, and a CRS that cannot be projected
// to longitude/latitude wraps crs.ErrUnsupportedProjection.
func Prepare(doc eo3.Doc, opts PrepareOptions) (eo3.Doc, error) {
	out := eo3.CloneDoc(doc)
	if out == nil {
		return nil, fmt.Errorf("no document: %w", ErrIncompleteGeometry)
	}
	gs, extent, err := GridSpatial(out, opts.GridName)
	if err != nil {
		return nil, err
	}
	out["grid_spatial"] = gs
	out["extent"] = extent
	if !opts.SkipLineage {
		lineage, err := RemapLineage(out["lineage"])
		if err != nil {
			return nil, err
		}
		out["lineage"] = lineage
	}
	return out, nil
}

// GridSpatial computes the grid_spatial section and the lon/lat extent.
func GridSpatial(doc eo3.Doc, gridName string) (gridSpatial, extent map[string]any, err error) {
	if gridName == "" {
		gridName = "default"
	}
	crsText, _ := doc["crs"].(string)
	grids := eo3.GetMap(doc, "grids")
	if crsText == "" || len(grids) == 0 {
		return nil, nil, fmt.Errorf("input must have crs and grids: %w", ErrIncompleteGeometry)
	}
	gridDoc, ok := eo3.AsMap(grids[gridName])
	if !ok {
		return nil, nil, fmt.Errorf("input must have grids.%s: %w", gridName, ErrIncompleteGeometry)
	}
	c, err := crs.Parse(crsText)
	if err != nil {
		return nil, nil, err
	}
	grid, err := geom.NewGrid(gridDoc, c)
	if err != nil {
		return nil, nil, fmt.Errorf("grids.%s: %w: %w", gridName, err, ErrIncompleteGeometry)
	}

	refPoints := map[string]any{}
	for name, pt := range grid.RefPoints() {
		refPoints[name] = map[string]any{"x": pt["x"], "y": pt["y"]}
	}
	projection := map[string]any{
		"spatial_reference": crsText,
		"geo_ref_points":    refPoints,
	}

	footprint := grid.Polygon(c)
	if raw, ok := eo3.AsMap(doc["geometry"]); ok {
		g, err := geom.FromMap(raw, c)
		if err != nil {
			return nil, nil, fmt.Errorf("geometry: %w: %w", err, ErrIncompleteGeometry)
		}
		projection["valid_data"] = raw
		footprint = g
	}
	gridSpatial = map[string]any{"projection": projection}

	west, south, east, north, err := footprint.LonLatBounds()
	if err != nil {
		return nil, nil, fmt.Errorf("extent: %w", err)
	}
	extent = map[string]any{
		"lat": map[string]any{"begin": south, "end": north},
		"lon": map[string]any{"begin": west, "end": east},
	}
	return gridSpatial, extent, nil
}

// RemapLineage converts {label: [id, ...]} into
// {source_datasets: {label: {id: ..}}}; several ids under one label become
// label1, label2, ... Empty id lists are dropped. Embedded source documents
// are rejected.
func RemapLineage(v any) (map[string]any, error) {
	sources := map[string]any{}
	lineage, ok := eo3.AsMap(v)
	if v != nil && !ok {
		return nil, fmt.Errorf("lineage must be a mapping: %w", ErrInvalidLineage)
	}
	for label, raw := range lineage {
		if _, isMap := eo3.AsMap(raw); isMap {
			return nil, fmt.Errorf("embedded lineage not supported for eo3 metadata types: %w", ErrInvalidLineage)
		}
		ids, ok := eo3.AsSlice(raw)
		if !ok {
			return nil, fmt.Errorf("lineage %s must be a list of ids: %w", label, ErrInvalidLineage)
		}
		if len(ids) == 0 {
			continue
		}
		if _, isMap := eo3.AsMap(ids[0]); isMap {
			return nil, fmt.Errorf("embedded lineage not supported for eo3 metadata types: %w", ErrInvalidLineage)
		}
		if len(ids) == 1 {
			sources[label] = map[string]any{"id": ids[0]}
			continue
		}
		for i, id := range ids {
			sources[fmt.Sprintf("%s%d", label, i+1)] = map[string]any{"id": id}
		}
	}
	return map[string]any{"source_datasets": sources}, nil
}
