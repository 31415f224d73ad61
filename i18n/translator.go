package i18n

import (
	"strings"
	"sync"
)

// Translator explains validation message codes in a human language.
// data fills placeholders written as {name} (for example "{field}").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"structure":              "the document does not have the expected structure",
		"no_schema":              "the document has no $schema field",
		"unknown_doc_type":       "the $schema is not a known EO3 document type",
		"document_schema":        "the document does not match its JSON schema",
		"unsupported_kind":       "this kind of document cannot be validated",
		"unreadable":             "the file could not be read or parsed",
		"invalid_crs":            "the crs is not a valid coordinate reference system",
		"invalid_crs_epsg":       "the crs names an EPSG code that does not exist",
		"mixed_crs_case":         "EPSG codes should be written in lower case, as epsg:NNNN",
		"non_epsg":               "the crs is not an EPSG code; prefer epsg:NNNN where one exists",
		"incomplete_crs":         "geometry or grids are present but the crs is missing",
		"non_geo":                "the dataset has no geospatial information",
		"invalid_geometry":       "the geometry is not a valid shape",
		"incomplete_geo":         "the dataset has only part of crs, grids and geometry",
		"incomplete_grids":       "grids are present but there is no default grid",
		"invalid_source_id":      "a lineage source id is not a UUID",
		"nonflat_lineage":        "the lineage embeds whole documents instead of ids",
		"invalid_grid_ref":       "a measurement refers to a grid that is not defined",
		"absolute_path":          "a path is absolute; dataset paths should be relative",
		"uri_part":               "a measurement path has a URI fragment; use band or layer",
		"uri_invalid_part":       "a path has a URI fragment that cannot be used",
		"unsuitable_nodata":      "the nodata value does not fit the measurement dtype",
		"property_type":          "a property has the wrong type",
		"property_formatting":    "a property value is not in its canonical form",
		"invalid_property":       "a property value is invalid",
		"unknown_property":       "a property is not a known property",
		"producer_domain":        "odc:producer should be a domain name",
		"global_file_format":     "odc:file_format is set for the whole dataset",
		"no_type_name":           "the metadata type has no name",
		"missing_field":          "the document lacks the {field} field required by its metadata type",
		"null_field":             "the {field} field is null",
		"missing_system_field":   "the metadata type lacks a required system field",
		"bad_system_field":       "a system field has the wrong offset",
		"bad_offset":             "a field offset is not a list of keys",
		"bad_scalar":             "a search field is neither a scalar nor a range",
		"bad_range_nomin":        "a range search field has no min offset",
		"bad_range_nomax":        "a range search field has no max offset",
		"product_mismatch":       "the dataset names a different product",
		"metadata_mismatch":      "the dataset does not match the product's metadata template",
		"missing_measurement":    "the dataset lacks a measurement the product defines",
		"extra_measurements":     "the dataset has measurements the product does not define",
		"no_license":             "the product has no license",
		"no_measurements":        "the product defines no measurements",
		"no_product":             "a product is needed to compare against the files",
		"incorrect_band":         "a band index does not exist in the file",
		"different_dtype":        "the file's dtype differs from the product's",
		"different_nodata":       "the file's nodata differs from the dataset or product",
		"unreadable_measurement": "a measurement file could not be opened",
	},
	"ja": {
		"structure":              "ドキュメントの構造が想定と異なります",
		"no_schema":              "$schema フィールドがありません",
		"unknown_doc_type":       "$schema が既知の EO3 ドキュメント種別ではありません",
		"document_schema":        "ドキュメントが JSON スキーマに適合しません",
		"unsupported_kind":       "この種別のドキュメントは検証できません",
		"unreadable":             "ファイルを読み込めないか解析できません",
		"invalid_crs":            "crs が有効な座標参照系ではありません",
		"invalid_crs_epsg":       "存在しない EPSG コードです",
		"mixed_crs_case":         "EPSG コードは epsg:NNNN の小文字で記述してください",
		"non_epsg":               "crs が EPSG コードではありません",
		"incomplete_crs":         "geometry または grids があるのに crs がありません",
		"non_geo":                "地理空間情報がありません",
		"invalid_geometry":       "geometry が有効な形状ではありません",
		"incomplete_geo":         "crs・grids・geometry の一部だけが存在します",
		"incomplete_grids":       "default グリッドがありません",
		"invalid_source_id":      "lineage のソース ID が UUID ではありません",
		"nonflat_lineage":        "lineage に ID ではなくドキュメントが埋め込まれています",
		"invalid_grid_ref":       "未定義のグリッドを参照しています",
		"absolute_path":          "パスが絶対パスです",
		"uri_part":               "パスに URI フラグメントがあります。band か layer を使用してください",
		"uri_invalid_part":       "パスの URI フラグメントが使用できません",
		"unsuitable_nodata":      "nodata 値が dtype に適合しません",
		"property_type":          "プロパティの型が不正です",
		"property_formatting":    "プロパティ値が正規形ではありません",
		"invalid_property":       "プロパティ値が不正です",
		"unknown_property":       "未知のプロパティです",
		"producer_domain":        "odc:producer はドメイン名にしてください",
		"global_file_format":     "odc:file_format がデータセット全体に設定されています",
		"no_type_name":           "メタデータ種別に名前がありません",
		"missing_field":          "メタデータ種別が要求する {field} フィールドがありません",
		"null_field":             "{field} フィールドが null です",
		"product_mismatch":       "データセットが別のプロダクトを指しています",
		"metadata_mismatch":      "プロダクトのメタデータテンプレートと一致しません",
		"missing_measurement":    "プロダクトが定義する測定値がありません",
		"extra_measurements":     "プロダクトにない測定値があります",
		"no_license":             "プロダクトにライセンスがありません",
		"no_product":             "ファイルと比較するにはプロダクトが必要です",
		"incorrect_band":         "ファイルに存在しないバンドです",
		"different_dtype":        "ファイルの dtype がプロダクトと異なります",
		"different_nodata":       "ファイルの nodata が異なります",
		"unreadable_measurement": "測定値ファイルを開けません",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		// Japanese falls back to English before the bare code.
		if msg, ok = dictionaries["en"][code]; !ok {
			return code
		}
	}
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, 2*len(data))
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	defer mu.Unlock()
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	mu.Lock()
	defer mu.Unlock()
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
