package model

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/codec"
	"github.com/reoring/eo3/crs"
	"github.com/reoring/eo3/dataset"
	"github.com/reoring/eo3/geom"
)

const locationDeprecated = "`location` is deprecated and will be removed in a future release. Use `locations` instead."

// Locations returns the dataset's locations. A legacy singular location is
// returned as a one-element list, with a deprecation warning.
func (d *Dataset) Locations() []string {
	if loc, ok := d.doc["location"]; ok && loc != nil {
		d.warn(locationDeprecated)
		return []string{codec.ToString(loc)}
	}
	locs, _ := eo3.AsStringSlice(d.doc["locations"])
	return locs
}

// Product returns the dataset's product reference.
func (d *Dataset) Product() dataset.Product {
	return dataset.Product{
		Name: eo3.GetString(d.doc, "product", "name"),
		Href: eo3.GetString(d.doc, "product", "href"),
	}
}

// CRS parses the dataset's crs.
func (d *Dataset) CRS() (*crs.CRS, error) {
	return crs.Parse(codec.ToString(d.doc["crs"]))
}

// Geometry returns the geometry section, or nil when there is none.
func (d *Dataset) Geometry() (*geom.Geometry, error) {
	raw, ok := eo3.AsMap(d.doc["geometry"])
	if !ok {
		return nil, nil
	}
	c, err := d.CRS()
	if err != nil {
		return nil, err
	}
	return geom.FromMap(raw, c)
}

// Grids returns every grid. A grid without a crs of its own uses the
// dataset's.
func (d *Dataset) Grids() (map[string]*geom.Grid, error) {
	def, err := d.CRS()
	if err != nil {
		return nil, err
	}
	out := map[string]*geom.Grid{}
	for name, raw := range eo3.GetMap(d.doc, "grids") {
		gridDoc, ok := eo3.AsMap(raw)
		if !ok {
			return nil, fmt.Errorf("grid %s: %w", name, geom.ErrInvalidGrid)
		}
		c := def
		if text, ok := gridDoc["crs"].(string); ok {
			if c, err = crs.Parse(text); err != nil {
				return nil, fmt.Errorf("grid %s: %w", name, err)
			}
		}
		g, err := geom.NewGrid(gridDoc, c)
		if err != nil {
			return nil, fmt.Errorf("grid %s: %w", name, err)
		}
		out[name] = g
	}
	return out, nil
}

// Measurements returns the measurements, with band and grid defaults
// filled in.
func (d *Dataset) Measurements() (map[string]dataset.Measurement, error) {
	doc, err := dataset.Decode(d.doc)
	if err != nil {
		return nil, err
	}
	return doc.Measurements, nil
}

// Accessories returns the accessories.
func (d *Dataset) Accessories() (map[string]dataset.Accessory, error) {
	doc, err := dataset.Decode(d.doc)
	if err != nil {
		return nil, err
	}
	return doc.Accessories, nil
}

// Extent is the dataset footprint in its CRS: the valid data polygon when
// there is one, else the polygon through the grid reference points. It is
// nil when neither is known.
func (d *Dataset) Extent() (*geom.Geometry, error) {
	projection := eo3.GetMap(d.doc, "grid_spatial", "projection")
	c, err := d.CRS()
	if err != nil {
		return nil, err
	}
	if valid, ok := eo3.AsMap(projection["valid_data"]); ok && len(valid) > 0 {
		return geom.FromMap(valid, c)
	}
	refs := eo3.GetMap(projection, "geo_ref_points")
	if len(refs) == 0 {
		return nil, nil
	}
	var ring []orb.Point
	for _, corner := range []string{"ll", "ul", "ur", "lr", "ll"} {
		pt := eo3.GetMap(refs, corner)
		x, errX := codec.ToFloat(pt["x"])
		y, errY := codec.ToFloat(pt["y"])
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("geo_ref_points.%s: %w", corner, geom.ErrInvalidShape)
		}
		ring = append(ring, orb.Point{x, y})
	}
	return geom.Polygon(ring, c), nil
}
