package properties

import "maps"

// Known maps property names to their normaliser. A nil normaliser marks a
// property as known but taken as-is.
type Known map[string]Normaliser

// With returns a copy of k extended (or overridden) by extra.
func (k Known) With(extra Known) Known {
	out := maps.Clone(k)
	maps.Copy(out, extra)
	return out
}

// Has reports whether name is a known property.
func (k Known) Has(name string) bool {
	_, ok := k[name]
	return ok
}

// DatetimeNormalisers are applied by a dataset accessor to every property
// write.
var DatetimeNormalisers = Known{
	"datetime":                DatetimeType,
	"dtr:end_datetime":        DatetimeType,
	"dtr:start_datetime":      DatetimeType,
	"odc:processing_datetime": DatetimeType,
}

// BaseProperties are the properties the index itself relies on.
var BaseProperties = DatetimeNormalisers.With(Known{
	"odc:file_format": OfEnumType(FileFormats, EnumOptions{}),
	"odc:product":     nil,
})

// KnownProperties covers the STAC, EO, ODC and mission specific properties
// commonly found in EO3 documents.
var KnownProperties = BaseProperties.With(Known{
	"dea:dataset_maturity": OfEnumType([]string{"final", "interim", "nrt", "provisional"}, EnumOptions{Lower: true, Strict: true}),
	"dea:product_maturity": OfEnumType([]string{"stable", "provisional"}, EnumOptions{Lower: true, Strict: true}),

	"eo:azimuth":       FloatType,
	"eo:cloud_cover":   PercentType,
	"eo:constellation": nil,
	"eo:epsg":          nil,
	"eo:gsd":           nil,
	"eo:instrument":    nil,
	"eo:off_nadir":     FloatType,
	"eo:platform":      NormalisePlatforms,
	"eo:sun_azimuth":   DegreesType,
	"eo:sun_elevation": DegreesType,

	"sat:absolute_orbit": IntType,
	"sat:orbit_state":    nil,
	"sat:relative_orbit": IntType,

	"landsat:collection_category":  nil,
	"landsat:collection_number":    IntType,
	"landsat:correction":           nil,
	"landsat:data_type":            nil,
	"landsat:landsat_product_id":   nil,
	"landsat:landsat_scene_id":     nil,
	"landsat:scene_id":             nil,
	"landsat:wrs_path":             IntType,
	"landsat:wrs_row":              IntType,
	"landsat:geometric_rmse_model": FloatType,

	"landsat:ground_control_points_model":   IntType,
	"landsat:ground_control_points_version": IntType,

	"odc:collection_number":  IntType,
	"odc:dataset_version":    nil,
	"odc:naming_conventions": nil,
	"odc:producer":           ProducerCheck,
	"odc:product_family":     IdentifierType,
	"odc:region_code":        nil,
	"odc:sat_path":           nil,
	"odc:sat_row":            nil,

	"proj:epsg":  nil,
	"proj:shape": nil,

	"sentinel:datastrip_id":            nil,
	"sentinel:datatake_start_datetime": DatetimeType,
	"sentinel:grid_square":             nil,
	"sentinel:latitude_band":           nil,
	"sentinel:product_name":            nil,
	"sentinel:sentinel_tile_id":        SentinelTileID,
	"sentinel:utm_zone":                IntType,

	"fmask:clear":        PercentType,
	"fmask:cloud":        PercentType,
	"fmask:cloud_shadow": PercentType,
	"fmask:snow":         PercentType,
	"fmask:water":        PercentType,

	"gqa:abs_iterative_mean_x": FloatType,
	"gqa:abs_iterative_mean_y": FloatType,
	"gqa:abs_x":                FloatType,
	"gqa:abs_y":                FloatType,
	"gqa:cep90":                FloatType,
	"gqa:iterative_mean_x":     FloatType,
	"gqa:iterative_mean_y":     FloatType,
	"gqa:iterative_stddev_x":   FloatType,
	"gqa:iterative_stddev_y":   FloatType,
	"gqa:mean_x":               FloatType,
	"gqa:mean_y":               FloatType,
	"gqa:stddev_x":             FloatType,
	"gqa:stddev_y":             FloatType,
})
