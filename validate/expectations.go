package validate

import (
	"slices"

	"github.com/reoring/eo3"
)

// Expectations loosen or tighten dataset validation.
type Expectations struct {
	// RequireGeometry makes a dataset without any geo fields an error.
	RequireGeometry bool
	// AllowExtraMeasurements are dataset measurements the product does not
	// need to declare.
	AllowExtraMeasurements []string
	// AllowMissingFields are metadata-type fields a dataset may omit.
	AllowMissingFields []string
	// AllowNullableFields are metadata-type fields that may resolve to null
	// without comment.
	AllowNullableFields []string
}

// DefaultExpectations requires geometry and lets label and sources be null.
func DefaultExpectations() Expectations {
	return Expectations{
		RequireGeometry:     true,
		AllowNullableFields: []string{"label", "sources"},
	}
}

// WithDocumentOverrides returns a copy updated from the product document's
// default_allowances section. Allowance lists are merged; require_geometry
// replaces the current setting.
func (e Expectations) WithDocumentOverrides(productDoc eo3.Doc) Expectations {
	out := e.clone()
	allowances := eo3.GetMap(productDoc, "default_allowances")
	if allowances == nil {
		return out
	}
	if v, ok := allowances["require_geometry"].(bool); ok {
		out.RequireGeometry = v
	}
	out.AllowExtraMeasurements = merge(out.AllowExtraMeasurements, allowances["allow_extra_measurements"])
	out.AllowMissingFields = merge(out.AllowMissingFields, allowances["allow_missing_fields"])
	out.AllowNullableFields = merge(out.AllowNullableFields, allowances["allow_nullable_fields"])
	return out
}

func (e Expectations) clone() Expectations {
	return Expectations{
		RequireGeometry:        e.RequireGeometry,
		AllowExtraMeasurements: slices.Clone(e.AllowExtraMeasurements),
		AllowMissingFields:     slices.Clone(e.AllowMissingFields),
		AllowNullableFields:    slices.Clone(e.AllowNullableFields),
	}
}

func merge(have []string, raw any) []string {
	extra, ok := eo3.AsStringSlice(raw)
	if !ok {
		return have
	}
	for _, s := range extra {
		if !slices.Contains(have, s) {
			have = append(have, s)
		}
	}
	return have
}
