package validate

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/codec"
	"github.com/reoring/eo3/crs"
	"github.com/reoring/eo3/dataset"
	"github.com/reoring/eo3/fields"
	"github.com/reoring/eo3/geom"
	"github.com/reoring/eo3/product"
	"github.com/reoring/eo3/properties"
	"github.com/reoring/eo3/raster"
	"github.com/reoring/eo3/schema"
)

// ValidateSchema checks doc against the EO3 dataset schema.
func ValidateSchema(doc eo3.Doc, msg *eo3.Messager) eo3.Messages {
	var out eo3.Messages
	for _, v := range schema.Dataset().Validate(doc) {
		var hint []string
		if v.DisplayPath() == "crs" && strings.Contains(v.Message, "not of type") {
			hint = append(hint, "epsg codes should be prefixed with 'epsg', e.g. 'epsg:1234'")
		}
		out = append(out, msg.Error(eo3.CodeStructure, v.String(), hint...))
	}
	return out
}

// ValidateLineage checks that every source id is a UUID. Labels with more
// than one source are reported at info level.
func ValidateLineage(doc eo3.Doc, msg *eo3.Messager) eo3.Messages {
	lineage := eo3.GetMap(doc, "lineage")
	var out eo3.Messages
	for _, label := range fields.SortedNames(lineage) {
		if label == "source_datasets" {
			sources := eo3.GetMap(lineage, label)
			for _, sub := range fields.SortedNames(sources) {
				out = append(out, checkSourceID(sub, eo3.GetMap(sources, sub)["id"], msg)...)
			}
			continue
		}
		ids, _ := eo3.AsSlice(lineage[label])
		if len(ids) > 1 {
			out = append(out, msg.Info(eo3.CodeNonflatLineage,
				fmt.Sprintf("Lineage label %s has multiple sources and may be flattened by some index implementations", label)))
		}
		for _, id := range ids {
			out = append(out, checkSourceID(label, id, msg)...)
		}
	}
	return out
}

func checkSourceID(label string, id any, msg *eo3.Messager) eo3.Messages {
	s, ok := id.(string)
	if ok {
		if _, err := uuid.Parse(s); err == nil {
			return nil
		}
	}
	return eo3.Messages{msg.Error(eo3.CodeInvalidSourceID,
		fmt.Sprintf("Source ids must be UUIDs: %s in %s", codec.Repr(id), label))}
}

// ValidateGeo checks geometry, grids and CRS. A dataset with none of them
// is only reported at info level when requireGeometry is false.
func ValidateGeo(doc eo3.Doc, requireGeometry bool, msg *eo3.Messager) eo3.Messages {
	rawGeometry, hasGeometry := eo3.AsMap(doc["geometry"])
	grids := eo3.GetMap(doc, "grids")
	crsText, _ := doc["crs"].(string)

	if !hasGeometry && len(grids) == 0 && crsText == "" && !requireGeometry {
		return eo3.Messages{msg.Info(eo3.CodeNonGeo, "No geo information in dataset")}
	}

	var out eo3.Messages
	if !hasGeometry {
		if requireGeometry {
			out = append(out, msg.Info(eo3.CodeIncompleteGeo, "Dataset has some geo fields but no geometry"))
		}
	} else {
		var why string
		g, err := geom.FromMap(rawGeometry, nil)
		if err != nil {
			why = err.Error()
		} else {
			why = geom.ExplainValidity(g.Shape)
		}
		if why != "" {
			out = append(out, msg.Error(eo3.CodeInvalidGeometry,
				fmt.Sprintf("Geometry is not a valid shape: %s", codec.Repr(why))))
		}
	}

	if len(grids) == 0 {
		out = append(out, msg.Error(eo3.CodeIncompleteGrids, "Dataset has some geo fields but no grids"))
	}

	if crsText == "" {
		out = append(out, msg.Error(eo3.CodeIncompleteCRS, "Dataset has some geo fields but no crs"))
	} else {
		out = append(out, ValidateCRS(crsText, msg)...)
	}

	// Grids default to the dataset CRS; one of their own is checked on its own.
	for _, name := range fields.SortedNames(grids) {
		if gc, ok := eo3.GetMap(grids, name)["crs"].(string); ok {
			out = append(out, ValidateCRS(gc, msg.Sub("grid", name))...)
		}
	}
	return out
}

// ValidateCRS prefers a lowercase "epsg:N" and accepts WKT, warning when the
// WKT has an EPSG equivalent.
func ValidateCRS(text string, msg *eo3.Messager) eo3.Messages {
	var out eo3.Messages
	if strings.HasPrefix(strings.ToLower(text), "epsg:") {
		if _, err := crs.Parse(text); err != nil {
			out = append(out, msg.Error(eo3.CodeInvalidCRSEPSG, err.Error()))
		}
		if strings.ToLower(text) != text {
			out = append(out, msg.Warning(eo3.CodeMixedCRSCase, "Recommend lowercase 'epsg:' prefix"))
		}
		return out
	}
	c, err := crs.Parse(text)
	if err != nil {
		return eo3.Messages{msg.Error(eo3.CodeInvalidCRS,
			fmt.Sprintf("Expect either an epsg code or a WKT string: %v", err))}
	}
	if !c.CanProject() {
		out = append(out, msg.Error(eo3.CodeInvalidCRS,
			fmt.Sprintf("CRS %s cannot be transformed to longitude/latitude, so no extent can be derived", codec.Repr(c.Name()))))
	}
	if code, ok := c.EPSG(); ok && c.IsWKT() {
		out = append(out, msg.Warning(eo3.CodeNonEPSG,
			fmt.Sprintf("Prefer an EPSG code to a WKT when possible. (Can change CRS to 'epsg:%d')", code)))
	}
	return out
}

// ValidateMeasurements checks grid references and paths of measurements,
// and paths of accessories.
func ValidateMeasurements(doc *dataset.Document, grids map[string]any, msg *eo3.Messager) eo3.Messages {
	var out eo3.Messages
	for _, name := range fields.SortedNames(doc.Measurements) {
		m := doc.Measurements[name]
		if m.Grid != "default" || len(grids) > 0 {
			if _, ok := grids[m.Grid]; !ok {
				out = append(out, msg.Error(eo3.CodeInvalidGridRef,
					fmt.Sprintf("Measurement %s refers to unknown grid %s", codec.Repr(name), codec.Repr(m.Grid))))
			}
		}
		out = append(out, ValidateMeasurementPath("measurement", name, m.Path, msg)...)
	}
	for _, name := range fields.SortedNames(doc.Accessories) {
		out = append(out, ValidateMeasurementPath("accessory", name, doc.Accessories[name].Path, msg)...)
	}
	return out
}

// ValidateMeasurementPath warns on absolute paths and on "#part=N"
// fragments; a part that is not a non-negative integer is an error.
func ValidateMeasurementPath(what, name, path string, msg *eo3.Messager) eo3.Messages {
	var out eo3.Messages
	if eo3.IsAbsolute(path) {
		out = append(out, msg.Warning(eo3.CodeAbsolutePath,
			fmt.Sprintf("%s %s has an absolute path: %s", what, codec.Repr(name), codec.Repr(path))))
	}
	part, ok := eo3.PartFromURI(path)
	if !ok {
		return out
	}
	switch p := part.(type) {
	case int:
		if p < 0 {
			out = append(out, msg.Error(eo3.CodeURIInvalidPart,
				fmt.Sprintf("%s %s has invalid part (less than zero) in path %s", what, codec.Repr(name), codec.Repr(path))))
		} else {
			out = append(out, msg.Warning(eo3.CodeURIPart,
				fmt.Sprintf("%s %s has part in path %s", what, codec.Repr(name), codec.Repr(path))))
		}
	default:
		out = append(out, msg.Error(eo3.CodeURIInvalidPart,
			fmt.Sprintf("%s %s has invalid part (non-integer) in path %s", what, codec.Repr(name), codec.Repr(path))))
	}
	return out
}

// ValidateProperties runs the property consistency check over the known
// properties table.
func ValidateProperties(doc eo3.Doc, msg *eo3.Messager) eo3.Messages {
	return properties.CheckConsistency(eo3.GetMap(doc, "properties"), properties.KnownProperties, msg)
}

// ValidateToProduct checks that the dataset matches a product definition:
// the name, the metadata template and the measurement names.
func ValidateToProduct(doc eo3.Doc, productDoc eo3.Doc, expect Expectations, msg *eo3.Messager) eo3.Messages {
	var out eo3.Messages
	productName := eo3.GetString(productDoc, "name")
	dsProductName := eo3.GetString(doc, "product", "name")
	if productName != "" && productName != dsProductName {
		out = append(out, msg.Error(eo3.CodeProductMismatch,
			fmt.Sprintf("Dataset product name %s does not match the given product %s",
				codec.Repr(dsProductName), codec.Repr(productName))))
	}

	dsProps := eo3.GetMap(doc, "properties")
	productProps := eo3.GetMap(productDoc, "metadata", "properties")
	if !eo3.Contains(dsProps, productProps, false) {
		diffs := eo3.Differences(dsProps, productProps)
		for i, d := range diffs {
			diffs[i] = "\t" + d
		}
		out = append(out, msg.Error(eo3.CodeMetadataMismatch,
			"Dataset template does not match product document template.", strings.Join(diffs, "\n")))
	}

	dsMeasurements := eo3.GetMap(doc, "measurements")
	expected := product.MeasurementNames(productDoc)
	for _, name := range expected {
		if _, ok := dsMeasurements[name]; !ok {
			out = append(out, msg.Error(eo3.CodeMissingMeasurement,
				fmt.Sprintf("Product %s expects a measurement %s", productName, codec.Repr(name))))
		}
	}
	var extra []string
	for _, name := range fields.SortedNames(dsMeasurements) {
		if !slices.Contains(expected, name) && !slices.Contains(expect.AllowExtraMeasurements, name) {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		out = append(out, msg.Warning(eo3.CodeExtraMeasurements,
			fmt.Sprintf("Dataset has measurements not present in product definition for %s: %s",
				codec.Repr(productName), strings.Join(extra, ", "))))
	}
	return out
}

// ValidateToMetadataType checks that every field of the metadata type
// resolves in doc. sources is never required.
func ValidateToMetadataType(doc eo3.Doc, mdt eo3.Doc, expect Expectations, msg *eo3.Messager) eo3.Messages {
	typeName := eo3.GetString(mdt, "name")
	offsets, err := fields.AllFieldOffsets(mdt)
	if err != nil {
		return eo3.Messages{msg.Error(eo3.CodeBadOffset,
			fmt.Sprintf("Metadata type %s cannot be interpreted: %v", codec.Repr(typeName), err))}
	}
	var out eo3.Messages
	for _, name := range fields.SortedNames(offsets) {
		if name == "sources" || slices.Contains(expect.AllowMissingFields, name) {
			continue
		}
		value, found := firstPresent(doc, offsets[name])
		if !found {
			readable := make([]string, len(offsets[name]))
			for i, o := range offsets[name] {
				readable[i] = o.String()
			}
			out = append(out, msg.Warning(eo3.CodeMissingField,
				fmt.Sprintf("Dataset is missing field %s for type %s", codec.Repr(name), codec.Repr(typeName)),
				"Expected at "+strings.Join(readable, " or ")))
			continue
		}
		if value == nil && !slices.Contains(expect.AllowNullableFields, name) {
			out = append(out, msg.Info(eo3.CodeNullField,
				fmt.Sprintf("Value is null for configured field %s", codec.Repr(name))))
		}
	}
	return out
}

// firstPresent returns the value at the first offset doc has. A field whose
// offsets are all present but null resolves to nil.
func firstPresent(doc eo3.Doc, offsets []eo3.Offset) (any, bool) {
	found := false
	for _, o := range offsets {
		v, ok := eo3.GetIn(doc, o)
		if !ok {
			continue
		}
		if v != nil {
			return v, true
		}
		found = true
	}
	return nil, found
}

// ValidateData opens each measurement the product declares and compares the
// band's dtype and nodata with the product. Paths are resolved against
// location. An on-disk file without nodata accepts any product nodata.
func ValidateData(ctx context.Context, doc *dataset.Document, productDoc eo3.Doc, location string, opener raster.Opener, msg *eo3.Messager) eo3.Messages {
	if productDoc == nil {
		return eo3.Messages{msg.Error(eo3.CodeNoProduct, "Product needed for thorough validation")}
	}
	if opener == nil {
		opener = raster.LocalOpener{}
	}
	expected := map[string]product.Measurement{}
	for _, m := range product.Measurements(productDoc) {
		expected[m.Name] = m
	}

	var out eo3.Messages
	for _, name := range fields.SortedNames(doc.Measurements) {
		want, ok := expected[name]
		if !ok {
			// Reported as an extra measurement already.
			continue
		}
		m := doc.Measurements[name]
		uri := m.Path
		if location != "" {
			uri = eo3.ResolveURI(location, m.Path)
		}
		got, err := inspectBand(ctx, opener, uri, m.Band)
		if err != nil {
			out = append(out, msg.Error(eo3.CodeUnreadableMeasurement,
				fmt.Sprintf("Measurement %s could not be read from %s: %v", codec.Repr(name), codec.Repr(uri), err)))
			continue
		}
		if !slices.Contains(got.indexes, m.Band) {
			out = append(out, msg.Error(eo3.CodeIncorrectBand,
				fmt.Sprintf("Measurement %s file contains no index %d.", codec.Repr(name), m.Band),
				fmt.Sprintf("contains indexes %v", got.indexes)))
			continue
		}
		if !product.IsKnownDtype(got.dtype) {
			out = append(out, msg.Error(eo3.CodeDifferentDtype,
				fmt.Sprintf("%s dtype: dataset %s is not a supported raster data type", name, codec.Repr(got.dtype))))
			continue
		}
		if want.Dtype != got.dtype {
			out = append(out, msg.Error(eo3.CodeDifferentDtype,
				fmt.Sprintf("%s dtype: product %s != dataset %s", name, codec.Repr(want.Dtype), codec.Repr(got.dtype))))
		}
		if !got.hasNodata {
			continue
		}
		wantNodata, err := product.NodataFloat(want.Nodata)
		if err == nil && (wantNodata == got.nodata || math.IsNaN(wantNodata) && math.IsNaN(got.nodata)) {
			continue
		}
		out = append(out, msg.Error(eo3.CodeDifferentNodata,
			fmt.Sprintf("%s nodata: dataset %s != product %s", name, codec.Repr(got.nodata), codec.Repr(want.Nodata))))
	}
	return out
}

type bandInfo struct {
	indexes   []int
	dtype     string
	nodata    float64
	hasNodata bool
}

func inspectBand(ctx context.Context, opener raster.Opener, uri string, band int) (*bandInfo, error) {
	ds, err := opener.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer ds.Close()
	info := &bandInfo{indexes: ds.Indexes()}
	if !slices.Contains(info.indexes, band) {
		return info, nil
	}
	if info.dtype, err = ds.Dtype(band); err != nil {
		return nil, err
	}
	if info.nodata, info.hasNodata, err = ds.Nodata(band); err != nil {
		return nil, err
	}
	return info, nil
}
