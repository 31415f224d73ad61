// Package validate checks EO3 dataset documents in stages: the schema,
// lineage, geometry and CRS, measurements, properties, and optionally a
// metadata type, a product definition and the raster files themselves.
//
// Stages only return messages; nothing here fails for a data problem.
// Callers decide what to do with the result, typically through
// eo3.HandleDatasetValidationMessages.
package validate

import (
	"context"
	"fmt"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/codec"
	"github.com/reoring/eo3/dataset"
	"github.com/reoring/eo3/raster"
)

// Options configure ValidateDataset. The zero value validates the
// document on its own with DefaultExpectations.
type Options struct {
	// Product enables the product consistency stage and supplies
	// default_allowances.
	Product eo3.Doc
	// MetadataType enables the metadata-type coverage stage.
	MetadataType eo3.Doc
	// Expect nil means DefaultExpectations.
	Expect *Expectations
	// Thorough opens every measurement file. It needs Product.
	Thorough bool
	// ReadableLocation is where the document was read from; measurement
	// paths are resolved against it.
	ReadableLocation string
	// Opener defaults to raster.LocalOpener.
	Opener raster.Opener
}

func (o Options) expectations() Expectations {
	e := DefaultExpectations()
	if o.Expect != nil {
		e = o.Expect.clone()
	}
	if o.Product != nil {
		e = e.WithDocumentOverrides(o.Product)
	}
	return e
}

// ValidateDataset runs every stage over doc.
//
// Validation stops after the schema stage and after the lineage stage when
// they report errors; later stages all run and their messages accumulate.
func ValidateDataset(ctx context.Context, doc eo3.Doc, opts Options) eo3.Messages {
	expect := opts.expectations()
	msg := eo3.NewMessager(nil)

	switch s, ok := doc["$schema"]; {
	case !ok || s == nil:
		return eo3.Messages{msg.Error(eo3.CodeNoSchema,
			fmt.Sprintf("No $schema field. You probably want an ODC dataset schema %s", codec.Repr(dataset.SchemaURL)))}
	case s != dataset.SchemaURL:
		return eo3.Messages{msg.Error(eo3.CodeUnknownDocType,
			fmt.Sprintf("Unknown doc schema %s. Only ODC datasets are supported (%s)", codec.Repr(s), codec.Repr(dataset.SchemaURL)))}
	}

	out := ValidateSchema(doc, msg)
	if out.HasErrors() {
		return out
	}
	out = append(out, ValidateLineage(doc, msg)...)
	if out.HasErrors() {
		return out
	}

	decoded, err := dataset.Decode(doc)
	if err != nil {
		return append(out, msg.Error(eo3.CodeStructure, err.Error()))
	}

	out = append(out, ValidateGeo(doc, expect.RequireGeometry, msg)...)
	// A dataset may have no measurements, telemetry data for example.
	out = append(out, ValidateMeasurements(decoded, eo3.GetMap(doc, "grids"), msg)...)
	out = append(out, ValidateProperties(doc, msg)...)

	if opts.Product != nil {
		out = append(out, ValidateToProduct(doc, opts.Product, expect, msg.Sub("product", eo3.GetString(opts.Product, "name")))...)
	}
	if opts.MetadataType != nil {
		// Fields such as lat and lon only exist once the extent is derived.
		target := doc
		if prepared, err := dataset.Prepare(doc, dataset.PrepareOptions{SkipLineage: true}); err == nil {
			target = prepared
		}
		out = append(out, ValidateToMetadataType(target, opts.MetadataType, expect,
			msg.Sub("type", eo3.GetString(opts.MetadataType, "name")))...)
	}
	if opts.Thorough {
		out = append(out, ValidateData(ctx, decoded, opts.Product, opts.ReadableLocation, opts.Opener, msg)...)
	}
	return out
}
