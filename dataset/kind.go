package dataset

import (
	"path/filepath"
	"strings"

	"github.com/reoring/eo3"
)

// DocKind is the sort of document a file holds.
type DocKind string

const (
	KindDataset         DocKind = "dataset"
	KindProduct         DocKind = "product"
	KindMetadataType    DocKind = "metadata_type"
	KindStacItem        DocKind = "stac_item"
	KindLegacyDataset   DocKind = "legacy_dataset"
	KindIngestionConfig DocKind = "ingestion_config"
)

// Kinds lists every DocKind.
var Kinds = []DocKind{KindDataset, KindProduct, KindMetadataType, KindStacItem, KindLegacyDataset, KindIngestionConfig}

var kindExtensions = map[DocKind][]string{
	KindDataset:      {".odc-metadata.yaml", ".odc-metadata.yml", ".odc-metadata.json"},
	KindProduct:      {".odc-product.yaml", ".odc-product.yml", ".odc-product.json"},
	KindMetadataType: {".odc-type.yaml", ".odc-type.yml", ".odc-type.json"},
	KindStacItem:     {".stac-item.json"},
}

// IsLegacy reports kinds that predate EO3.
func (k DocKind) IsLegacy() bool {
	return k == KindLegacyDataset || k == KindIngestionConfig
}

// String returns the kind name.
func (k DocKind) String() string { return string(k) }

// FilenameDocKind guesses the kind from the file name suffix. A trailing .gz
// is ignored.
func FilenameDocKind(path string) (DocKind, bool) {
	name := strings.ToLower(filepath.Base(path))
	name = strings.TrimSuffix(name, ".gz")
	for _, k := range Kinds {
		for _, ext := range kindExtensions[k] {
			if strings.HasSuffix(name, ext) {
				return k, true
			}
		}
	}
	return "", false
}

// GuessKindFromContents guesses the kind from the document's keys.
func GuessKindFromContents(doc eo3.Doc) (DocKind, bool) {
	if doc["$schema"] == SchemaURL {
		return KindDataset, true
	}
	if _, ok := doc["metadata_type"]; ok {
		if _, ok := doc["source_type"]; ok {
			return KindIngestionConfig, true
		}
		return KindProduct, true
	}
	if ds, ok := eo3.AsMap(doc["dataset"]); ok {
		if _, ok := ds["search_fields"]; ok {
			return KindMetadataType, true
		}
	}
	if _, ok := doc["id"]; ok {
		_, lineage := doc["lineage"]
		_, platform := doc["platform"]
		if lineage && platform {
			return KindLegacyDataset, true
		}
		if props, ok := eo3.AsMap(doc["properties"]); ok {
			if _, ok := props["datetime"]; ok {
				return KindStacItem, true
			}
		}
	}
	return "", false
}
