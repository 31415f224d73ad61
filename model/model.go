// Package model wraps an EO3 dataset document for field access.
//
// A Dataset is built from a raw document and a metadata type. Named fields
// (id, label, time, custom search fields, ...) are read and written through
// the offsets the metadata type declares. The document is validated when the
// Dataset is created and again whenever its metadata type or product
// definition is replaced, so a Dataset always satisfies both.
//
// A Dataset is not safe for concurrent use.
package model

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/codec"
	"github.com/reoring/eo3/crs"
	"github.com/reoring/eo3/dataset"
	"github.com/reoring/eo3/fields"
	"github.com/reoring/eo3/properties"
	"github.com/reoring/eo3/schema"
	"github.com/reoring/eo3/source"
)

// Dataset is a validated EO3 dataset document.
type Dataset struct {
	doc         eo3.Doc
	mdt         eo3.Doc
	product     eo3.Doc
	table       *fields.Table
	normalisers properties.Known
	msg         *eo3.Messager
	logger      *slog.Logger
	warnings    []string
}

type options struct {
	mdt          eo3.Doc
	product      eo3.Doc
	normalisers  properties.Known
	logger       *slog.Logger
	remapLineage bool
}

// Option configures New.
type Option func(*options)

// WithMetadataType sets the metadata type; the default EO3 type is used
// otherwise.
func WithMetadataType(mdt eo3.Doc) Option { return func(o *options) { o.mdt = mdt } }

// WithProduct sets the product definition the dataset must be consistent
// with.
func WithProduct(p eo3.Doc) Option { return func(o *options) { o.product = p } }

// WithNormalisers replaces the property normalisers applied to every
// property on creation and to every field write. The default only
// normalises datetimes.
func WithNormalisers(k properties.Known) Option { return func(o *options) { o.normalisers = k } }

// WithLogger sets the logger warnings are written to.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithExternalLineage leaves lineage as it is instead of remapping
// {label: [ids]} into source_datasets.
func WithExternalLineage() Option { return func(o *options) { o.remapLineage = false } }

// New prepares raw (grid_spatial, extent and lineage), normalises its
// properties and validates it against the schema, the metadata type and
// the product definition, if any.
//
// Preparation failures return an *eo3.InvalidDatasetError with Code
// invalid_crs, invalid_lineage or incomplete_geometry. Validation errors
// return an *eo3.InvalidDatasetError carrying every error message;
// warnings are logged and kept in Warnings.
func New(raw eo3.Doc, opts ...Option) (*Dataset, error) {
	o := options{
		normalisers:  properties.DatetimeNormalisers,
		logger:       slog.Default(),
		remapLineage: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.mdt == nil {
		o.mdt = schema.DefaultMetadataType()
	}

	doc, err := dataset.Prepare(raw, dataset.PrepareOptions{SkipLineage: !o.remapLineage})
	if err != nil {
		return nil, prepareError(raw, err)
	}

	d := &Dataset{
		doc:         doc,
		mdt:         o.mdt,
		product:     o.product,
		normalisers: o.normalisers,
		logger:      o.logger,
		msg:         eo3.NewMessager(map[string]string{"type": eo3.GetString(o.mdt, "name")}),
	}
	if props := eo3.GetMap(doc, "properties"); props != nil {
		for _, key := range fields.SortedNames(props) {
			v, err := d.Normalise(eo3.Offset{"properties", key}, props[key])
			if err != nil {
				return nil, err
			}
			props[key] = v
		}
	}
	if d.table, err = fields.NewTable(o.mdt); err != nil {
		return nil, err
	}
	if err := d.handle(d.ValidateBase()); err != nil {
		return nil, err
	}
	return d, nil
}

func prepareError(raw eo3.Doc, err error) error {
	switch {
	case errors.Is(err, crs.ErrInvalidCRS):
		return &eo3.InvalidDatasetError{
			Code:   eo3.CodeInvalidCRS,
			Reason: fmt.Sprintf("CRS %s is not a valid CRS", codec.ToString(raw["crs"])),
			Err:    err,
		}
	case errors.Is(err, crs.ErrUnsupportedProjection):
		return &eo3.InvalidDatasetError{
			Code:   eo3.CodeInvalidCRS,
			Reason: fmt.Sprintf("CRS %s cannot be transformed to longitude/latitude", codec.ToString(raw["crs"])),
			Err:    err,
		}
	case errors.Is(err, dataset.ErrInvalidLineage):
		return &eo3.InvalidDatasetError{Code: eo3.CodeInvalidLineage, Reason: err.Error(), Err: err}
	default:
		return &eo3.InvalidDatasetError{Code: eo3.CodeIncompleteGeometry, Reason: err.Error(), Err: err}
	}
}

// FromPath reads a dataset and, when the paths are not empty, its metadata
// type and product definition.
func FromPath(datasetPath, metadataTypePath, productPath string, opts ...Option) (*Dataset, error) {
	raw, err := source.ReadDoc(datasetPath)
	if err != nil {
		return nil, err
	}
	if metadataTypePath != "" {
		mdt, err := source.ReadDoc(metadataTypePath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithMetadataType(mdt))
	}
	if productPath != "" {
		p, err := source.ReadDoc(productPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithProduct(p))
	}
	return New(raw, opts...)
}

// Doc returns the prepared document. Callers must not modify it.
func (d *Dataset) Doc() eo3.Doc { return d.doc }

// Properties returns the properties section.
func (d *Dataset) Properties() map[string]any {
	if p := eo3.GetMap(d.doc, "properties"); p != nil {
		return p
	}
	return map[string]any{}
}

// MetadataType returns the current metadata type definition.
func (d *Dataset) MetadataType() eo3.Doc { return d.mdt }

// ProductDefinition returns the product definition, or nil.
func (d *Dataset) ProductDefinition() eo3.Doc { return d.product }

// Warnings lists every warning raised since the Dataset was created, oldest
// first.
func (d *Dataset) Warnings() []string { return append([]string(nil), d.warnings...) }

// Normalise applies the normaliser registered for a property offset
// (properties->key). Other offsets and keys without a normaliser pass
// through unchanged.
func (d *Dataset) Normalise(offset eo3.Offset, v any) (any, error) {
	if len(offset) != 2 || offset[0] != "properties" || v == nil {
		return v, nil
	}
	normalise := d.normalisers[offset[1]]
	if normalise == nil {
		return v, nil
	}
	n, err := normalise(v)
	if err != nil {
		return nil, &properties.InvalidPropertyError{Key: offset[1], Err: err}
	}
	return n.Value, nil
}

// SetProperty writes one property through the full known-properties
// normaliser. Normaliser complaints and unknown keys become warnings.
func (d *Dataset) SetProperty(key string, value any) error {
	props := eo3.Clone(d.Properties()).(map[string]any)
	dict, err := properties.NewDict(props, properties.WithLogger(d.logger), properties.WithoutInputNormalisation())
	if err != nil {
		return err
	}
	if err := dict.Set(key, value); err != nil {
		return err
	}
	d.warnings = append(d.warnings, dict.Warnings()...)
	d.doc = eo3.AssocIn(d.doc, eo3.Offset{"properties"}, dict.Map())
	return nil
}

// DeleteProperty removes one property. Removing an absent key is a no-op.
func (d *Dataset) DeleteProperty(key string) {
	d.doc = eo3.DissocIn(d.doc, eo3.Offset{"properties", key})
}

// WithoutLineage returns a copy of the document with empty lineage.
func (d *Dataset) WithoutLineage() eo3.Doc {
	return eo3.AssocIn(d.doc, eo3.Offset{"lineage"}, map[string]any{})
}

func (d *Dataset) warn(text string) {
	d.warnings = append(d.warnings, text)
	d.logger.Warn(text)
}

// handle turns errors into an *eo3.InvalidDatasetError. Warnings are only
// recorded when there is no error, as a rejected change leaves no trace.
func (d *Dataset) handle(ms eo3.Messages) error {
	if err := eo3.HandleDatasetValidationMessages(d.logger, ms); err != nil {
		return err
	}
	for _, w := range ms.Warnings() {
		d.warnings = append(d.warnings, w.String())
	}
	return nil
}
