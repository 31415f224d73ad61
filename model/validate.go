package model

import (
	"fmt"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/dataset"
	"github.com/reoring/eo3/fields"
	"github.com/reoring/eo3/metadata"
	"github.com/reoring/eo3/product"
	"github.com/reoring/eo3/validate"
)

// ValidateBase runs the checks possible with what the Dataset holds: the
// schema, the CRS form, the metadata type, the measurements and, when set,
// the product.
func (d *Dataset) ValidateBase() eo3.Messages {
	out := d.ValidateToSchema()
	if text, ok := d.doc["crs"].(string); ok {
		out = append(out, validate.ValidateCRS(text, d.msg)...)
	}
	out = append(out, d.ValidateToMetadataType(d.mdt)...)
	out = append(out, d.ValidateMeasurements()...)
	if d.product != nil {
		out = append(out, d.ValidateToProduct(d.product)...)
	}
	return out
}

// ValidateToSchema checks the document against the dataset schema. The
// derived extent and grid_spatial sections are ignored.
func (d *Dataset) ValidateToSchema() eo3.Messages {
	return validate.ValidateSchema(eo3.Dissoc(d.doc, "extent", "grid_spatial"), d.msg)
}

// ValidateToMetadataType checks that every field of mdt is present.
func (d *Dataset) ValidateToMetadataType(mdt eo3.Doc) eo3.Messages {
	return validate.ValidateToMetadataType(d.doc, mdt, validate.DefaultExpectations(), d.msg)
}

// ValidateMeasurements checks measurement grid references and paths.
func (d *Dataset) ValidateMeasurements() eo3.Messages {
	if len(eo3.GetMap(d.doc, "measurements")) == 0 {
		return nil
	}
	doc, err := dataset.Decode(d.doc)
	if err != nil {
		return eo3.Messages{d.msg.Error(eo3.CodeStructure, err.Error())}
	}
	return validate.ValidateMeasurements(doc, eo3.GetMap(d.doc, "grids"), d.msg)
}

// ValidateToProduct checks the document against a product definition,
// honouring its default_allowances.
func (d *Dataset) ValidateToProduct(p eo3.Doc) eo3.Messages {
	expect := validate.DefaultExpectations().WithDocumentOverrides(p)
	return validate.ValidateToProduct(d.doc, p, expect, d.msg.Sub("product", eo3.GetString(p, "name")))
}

// SetMetadataType validates mdt, then the document against it, and only
// then switches field access over to it. On error nothing changes.
func (d *Dataset) SetMetadataType(mdt eo3.Doc) error {
	if mdt == nil {
		return &eo3.InvalidDocumentError{Messages: eo3.Messages{
			eo3.NewMessage(eo3.Error, eo3.CodeNoTypeName, "No metadata type given")}}
	}
	if err := eo3.HandleValidationMessages(d.logger, metadata.ValidateMetadataType(mdt)); err != nil {
		return err
	}
	table, err := fields.NewTable(mdt)
	if err != nil {
		return err
	}
	if err := d.handle(d.ValidateToMetadataType(mdt)); err != nil {
		return err
	}
	d.mdt, d.table = mdt, table
	d.msg.Set("type", eo3.GetString(mdt, "name"))
	return nil
}

// SetProductDefinition installs a product definition; nil removes it.
//
// An invalid product document is an error. A valid product the dataset is
// inconsistent with is not installed, and only a warning is raised.
func (d *Dataset) SetProductDefinition(p eo3.Doc) error {
	if p == nil {
		d.product = nil
		return nil
	}
	if err := eo3.HandleValidationMessages(d.logger, product.ValidateProduct(p)); err != nil {
		return err
	}
	if err := d.handle(d.ValidateToProduct(p)); err != nil {
		d.warn(fmt.Sprintf("Cannot update product definition as it is incompatible with the dataset"+
			" and would cause the following issue(s): %v", err))
		return nil
	}
	d.product = p
	return nil
}
