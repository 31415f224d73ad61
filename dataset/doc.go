// Package dataset reads EO3 dataset documents: typed views of their
// sections, geo preparation (grid_spatial and extent) and document kind
// detection.
package dataset

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/codec"
)

// SchemaURL is the $schema value of EO3 dataset documents.
const SchemaURL = "https://schemas.opendatacube.org/dataset"

// Product is the product reference inside a dataset.
type Product struct {
	Name string `json:"name,omitempty"`
	Href string `json:"href,omitempty"`
}

// Measurement is a dataset's reference to one band file.
type Measurement struct {
	Path  string `json:"path"`
	Band  int    `json:"band,omitempty"`
	Layer string `json:"layer,omitempty"`
	Grid  string `json:"grid,omitempty"`

	Name  string `json:"-"`
	Alias string `json:"alias,omitempty"`
}

// Accessory is an extra file that is not a measurement, such as a
// thumbnail or checksum file.
type Accessory struct {
	Path string `json:"path"`
	Type string `json:"type,omitempty"`
	Name string `json:"-"`
}

// Document is the typed subset of a dataset used by validation.
// Properties are kept raw.
type Document struct {
	Schema       string                 `json:"$schema"`
	ID           string                 `json:"id"`
	Label        string                 `json:"label,omitempty"`
	Product      Product                `json:"product"`
	Location     string                 `json:"location,omitempty"`
	Locations    []string               `json:"locations,omitempty"`
	CRS          string                 `json:"crs,omitempty"`
	Measurements map[string]Measurement `json:"measurements,omitempty"`
	Accessories  map[string]Accessory   `json:"accessories,omitempty"`

	Properties map[string]any `json:"-"`
}

// Decode builds a Document from a raw dataset. Measurements default to band
// 1 on the "default" grid.
func Decode(doc eo3.Doc) (*Document, error) {
	raw, err := codec.MarshalJSON(eo3.Dissoc(doc, "properties", "geometry", "grids", "lineage", "extent", "grid_spatial"))
	if err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	for name, m := range out.Measurements {
		m.Name = name
		if m.Band == 0 {
			m.Band = 1
		}
		if m.Grid == "" {
			m.Grid = "default"
		}
		out.Measurements[name] = m
	}
	for name, a := range out.Accessories {
		a.Name = name
		out.Accessories[name] = a
	}
	out.Properties = eo3.GetMap(doc, "properties")
	return &out, nil
}

// DecodeMeasurements reads a measurements mapping on its own.
func DecodeMeasurements(v any) (map[string]Measurement, error) {
	d, err := Decode(eo3.Doc{"measurements": v})
	if err != nil {
		return nil, err
	}
	return d.Measurements, nil
}

// IsEO3 reports whether doc declares the EO3 dataset schema. A document
// without $schema is legacy EO; any other schema is an error.
func IsEO3(doc eo3.Doc) (bool, error) {
	v, ok := doc["$schema"]
	if !ok || v == nil {
		return false, nil
	}
	if v == SchemaURL {
		return true, nil
	}
	return false, fmt.Errorf("unsupported dataset schema: %s", codec.Repr(v))
}

// IsGeo reports whether doc carries spatial information. EO3 documents need
// a crs; legacy documents an extent or grid_spatial.
func IsGeo(doc eo3.Doc) (bool, error) {
	isEO3, err := IsEO3(doc)
	if err != nil {
		return false, err
	}
	if isEO3 {
		_, ok := doc["crs"]
		return ok, nil
	}
	_, extent := doc["extent"]
	_, gs := doc["grid_spatial"]
	return extent || gs, nil
}
