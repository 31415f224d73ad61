// Package product checks product definitions: the schema, measurement
// naming, nodata values, the load section and extra dimensions.
package product

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/codec"
	"github.com/reoring/eo3/properties"
	"github.com/reoring/eo3/schema"
)

// Measurement is one entry of a product's measurements list.
type Measurement struct {
	Name               string
	Dtype              string
	Nodata             any
	Units              string
	Aliases            []string
	ExtraDim           string
	SpectralDefinition []any
}

// Measurements reads the product's measurements list. Entries that are not
// mappings are skipped.
func Measurements(doc eo3.Doc) []Measurement {
	items, _ := eo3.AsSlice(doc["measurements"])
	out := make([]Measurement, 0, len(items))
	for _, item := range items {
		m, ok := eo3.AsMap(item)
		if !ok {
			continue
		}
		aliases, _ := eo3.AsStringSlice(m["aliases"])
		var spectral []any
		if sd, ok := eo3.AsSlice(m["spectral_definition"]); ok {
			spectral = sd
		} else if sd, ok := eo3.AsMap(m["spectral_definition"]); ok {
			spectral = []any{sd}
		}
		out = append(out, Measurement{
			Name:               eo3.GetString(m, "name"),
			Dtype:              eo3.GetString(m, "dtype"),
			Nodata:             m["nodata"],
			Units:              eo3.GetString(m, "units"),
			Aliases:            aliases,
			ExtraDim:           eo3.GetString(m, "extra_dim"),
			SpectralDefinition: spectral,
		})
	}
	return out
}

// MeasurementNames lists the names declared in the product, in order.
func MeasurementNames(doc eo3.Doc) []string {
	ms := Measurements(doc)
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name
	}
	return out
}

// ValidateProduct checks a product document for common mistakes. Checks past
// the schema are skipped when the schema reports errors.
func ValidateProduct(doc eo3.Doc) eo3.Messages {
	msg := eo3.NewMessager(map[string]string{"product": codec.ToString(doc["name"])})
	if doc["name"] == nil {
		msg = eo3.NewMessager(nil)
	}

	var out eo3.Messages
	for _, v := range schema.Product().Validate(doc) {
		out = append(out, msg.Error(eo3.CodeDocumentSchema, v.String()))
	}
	hasDocErrors := len(out) > 0

	// The schema message for this common mistake is unhelpful.
	if raw, ok := doc["measurements"]; ok && raw != nil {
		if _, isList := eo3.AsSlice(raw); !isList {
			out = append(out, msg.Error(eo3.CodeMeasurementsList,
				fmt.Sprintf("Product measurements should be a list/sequence (Found a '%s').", codec.TypeName(raw))))
		}
	}
	if hasDocErrors {
		return out
	}

	name := codec.ToString(doc["name"])
	if strings.TrimSpace(eo3.GetString(doc, "license")) == "" {
		out = append(out, msg.Warning(eo3.CodeNoLicense,
			fmt.Sprintf("Product '%s' has no license field", name),
			`Eg. "CC-BY-4.0" (SPDX format), "various" or "proprietary"`))
	}
	if _, embedded := eo3.AsMap(doc["metadata_type"]); embedded {
		out = append(out, msg.Info(eo3.CodeEmbeddedMetadataType,
			"Embedded metadata types are deprecated, please reference the metadata type by name"))
	}
	if managed, _ := doc["managed"].(bool); managed {
		out = append(out, msg.Warning(eo3.CodeIngestedProduct,
			"Data ingestion is deprecated, and the 'managed' flag will be ignored"))
	}

	out = append(out, validateMetadataSection(name, eo3.GetMap(doc, "metadata"), msg)...)
	out = append(out, validateMeasurements(doc, msg)...)
	out = append(out, validateLoad(doc, msg)...)
	return out
}

func validateMetadataSection(name string, metadata map[string]any, msg *eo3.Messager) eo3.Messages {
	var out eo3.Messages
	for _, key := range sortedKeys(metadata) {
		switch key {
		case "product":
			p, ok := eo3.AsMap(metadata[key])
			if !ok {
				out = append(out, msg.Error(eo3.CodeInvalidProductMetadata,
					"Product metadata section 'product' must be a mapping"))
				continue
			}
			if pn, present := p["name"]; present {
				if codec.ToString(pn) != name {
					out = append(out, msg.Error(eo3.CodeProductNameMismatch,
						fmt.Sprintf("Product name '%s' does not match metadata product name %s", name, codec.Repr(pn))))
				} else {
					out = append(out, msg.Info(eo3.CodeProductNameMetadataDeprecated,
						"Specifying the product name in the metadata section is deprecated",
						"Datasets are matched to products by product.name already"))
				}
			}
		case "properties":
			props, ok := eo3.AsMap(metadata[key])
			if !ok {
				out = append(out, msg.Error(eo3.CodeInvalidProductMetadata,
					"Product metadata section 'properties' must be a mapping"))
				continue
			}
			for _, pk := range sortedKeys(props) {
				if _, nested := eo3.AsMap(props[pk]); nested {
					out = append(out, msg.Error(eo3.CodeNestedMetadata,
						fmt.Sprintf("Product metadata property '%s' is nested; EO3 properties are flat", pk)))
					continue
				}
				if !properties.KnownProperties.Has(pk) {
					out = append(out, msg.Warning(eo3.CodeInvalidMetadataPropertiesKey,
						fmt.Sprintf("Product metadata property '%s' is not a known EO3 property", pk)))
				}
			}
		default:
			out = append(out, msg.Error(eo3.CodeInvalidMetadataKey,
				fmt.Sprintf("Product metadata section contains '%s'; only 'product' and 'properties' are allowed", key)))
		}
	}
	return out
}

func validateMeasurements(doc eo3.Doc, msg *eo3.Messager) eo3.Messages {
	raw, present := doc["measurements"]
	if !present || raw == nil {
		// Provenance-only products have no measurements.
		return eo3.Messages{msg.Info(eo3.CodeNoMeasurements,
			fmt.Sprintf("Product '%s' has no measurements", codec.ToString(doc["name"])))}
	}

	extraDims := map[string]int{}
	for _, item := range asMaps(doc["extra_dimensions"]) {
		values, _ := eo3.AsSlice(item["values"])
		extraDims[eo3.GetString(item, "name")] = len(values)
	}

	var out eo3.Messages
	seen := map[string][]string{}
	for _, m := range Measurements(doc) {
		if !ValueFitsDtype(m.Nodata, m.Dtype) {
			out = append(out, msg.Error(eo3.CodeUnsuitableNodata,
				fmt.Sprintf("Measurement '%s' nodata %s does not fit a '%s'", m.Name, codec.Repr(m.Nodata), m.Dtype)))
		}

		names := append([]string{m.Name}, m.Aliases...)
		for _, n := range names {
			if prior := seen[n]; len(prior) > 0 {
				in := make([]string, 0, len(prior)+1)
				for _, s := range append([]string{m.Name}, prior...) {
					in = append(in, "'"+s+"'")
				}
				out = append(out, msg.Error(eo3.CodeDuplicateMeasurementName,
					fmt.Sprintf("Name '%s' is used by multiple measurements", n),
					fmt.Sprintf("It's duplicated in an alias. Seen in measurement(s) %s", strings.Join(in, " and "))))
			}
		}
		for _, dup := range findDuplicates(names) {
			out = append(out, msg.Info(eo3.CodeDuplicateAliasName,
				fmt.Sprintf("Measurement '%s' has a duplicate alias named '%s'", m.Name, dup)))
		}
		for _, n := range names {
			seen[n] = append(seen[n], m.Name)
		}

		if m.ExtraDim != "" {
			count, declared := extraDims[m.ExtraDim]
			if !declared {
				out = append(out, msg.Error(eo3.CodeUndefinedExtraDim,
					fmt.Sprintf("Measurement '%s' refers to undefined extra dimension '%s'", m.Name, m.ExtraDim)))
			} else if m.SpectralDefinition != nil && len(m.SpectralDefinition) != count {
				out = append(out, msg.Error(eo3.CodeBadSpectralDefinition,
					fmt.Sprintf("Measurement '%s' has %d spectral definitions but extra dimension '%s' has %d values",
						m.Name, len(m.SpectralDefinition), m.ExtraDim, count)))
			}
		}
	}
	return out
}

// spatialDims are the dimension names a load or storage section may use.
var spatialDims = map[string]bool{"x": true, "y": true, "longitude": true, "latitude": true}

func validateLoad(doc eo3.Doc, msg *eo3.Messager) eo3.Messages {
	var out eo3.Messages
	load, hasLoad := eo3.AsMap(doc["load"])
	storage, hasStorage := eo3.AsMap(doc["storage"])
	switch {
	case hasLoad && hasStorage:
		out = append(out, msg.Error(eo3.CodeStorageAndLoad,
			"Product has both a 'load' and a 'storage' section", "Use 'load' only"))
	case hasStorage:
		out = append(out, msg.Warning(eo3.CodeStorageSection,
			"The 'storage' section is deprecated", "Rename it to 'load'"))
		if _, ok := storage["tile_size"]; ok {
			out = append(out, msg.Warning(eo3.CodeStorageTileSize,
				"Product 'storage' section has a tile_size, which is only used by ingestion and will be ignored"))
		}
		load = storage
	}
	if load == nil {
		return out
	}

	align := eo3.GetMap(load, "align")
	for _, dim := range sortedKeys(align) {
		if !spatialDims[dim] {
			out = append(out, msg.Error(eo3.CodeInvalidAlignDim,
				fmt.Sprintf("Invalid align dimension '%s'", dim), "Use x and y, or longitude and latitude"))
			continue
		}
		v, err := codec.ToFloat(align[dim])
		if err != nil || !codec.IsNumber(align[dim]) {
			out = append(out, msg.Error(eo3.CodeInvalidAlignType,
				fmt.Sprintf("Align value for '%s' must be a number, not %s", dim, codec.Repr(align[dim]))))
			continue
		}
		if v < 0 || v > 1 {
			out = append(out, msg.Warning(eo3.CodeUnexpectedAlignVal,
				fmt.Sprintf("Align value for '%s' is %s", dim, codec.Repr(align[dim])),
				"Align is a fraction of a pixel, between 0 and 1"))
		}
	}

	resolution := eo3.GetMap(load, "resolution")
	for _, dim := range sortedKeys(resolution) {
		if !spatialDims[dim] {
			out = append(out, msg.Error(eo3.CodeInvalidResolutionDim,
				fmt.Sprintf("Invalid resolution dimension '%s'", dim), "Use x and y, or longitude and latitude"))
			continue
		}
		if !codec.IsNumber(resolution[dim]) {
			out = append(out, msg.Error(eo3.CodeInvalidResolutionType,
				fmt.Sprintf("Resolution for '%s' must be a number, not %s", dim, codec.Repr(resolution[dim]))))
		}
	}
	return out
}

// findDuplicates returns each repeated value once, sorted.
func findDuplicates(values []string) []string {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	var out []string
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] && (len(out) == 0 || out[len(out)-1] != sorted[i]) {
			out = append(out, sorted[i])
		}
	}
	return out
}

func asMaps(v any) []map[string]any {
	items, _ := eo3.AsSlice(v)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := eo3.AsMap(item); ok {
			out = append(out, m)
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
