package eo3

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Message codes (exported consts for IDE completion and type safety by convention)
const (
	// Structure
	CodeStructure       = "structure"
	CodeNoSchema        = "no_schema"
	CodeUnknownDocType  = "unknown_doc_type"
	CodeDocumentSchema  = "document_schema"
	CodeUnsupportedKind = "unsupported_kind"
	CodeUnreadable      = "unreadable"

	// Identity and CRS
	CodeInvalidCRS     = "invalid_crs"
	CodeInvalidCRSEPSG = "invalid_crs_epsg"
	CodeMixedCRSCase   = "mixed_crs_case"
	CodeNonEPSG        = "non_epsg"
	CodeIncompleteCRS  = "incomplete_crs"

	// Geometry
	CodeNonGeo             = "non_geo"
	CodeInvalidGeometry    = "invalid_geometry"
	CodeIncompleteGeo      = "incomplete_geo"
	CodeIncompleteGrids    = "incomplete_grids"
	CodeIncompleteGeometry = "incomplete_geometry"

	// Lineage
	CodeInvalidSourceID = "invalid_source_id"
	CodeNonflatLineage  = "nonflat_lineage"
	CodeInvalidLineage  = "invalid_lineage"

	// Measurements
	CodeInvalidGridRef           = "invalid_grid_ref"
	CodeAbsolutePath             = "absolute_path"
	CodeURIPart                  = "uri_part"
	CodeURIInvalidPart           = "uri_invalid_part"
	CodeUnsuitableNodata         = "unsuitable_nodata"
	CodeDuplicateMeasurementName = "duplicate_measurement_name"
	CodeDuplicateAliasName       = "duplicate_alias_name"

	// Properties
	CodePropertyType       = "property_type"
	CodePropertyFormatting = "property_formatting"
	CodeInvalidProperty    = "invalid_property"
	CodeUnknownProperty    = "unknown_property"
	CodeProducerDomain     = "producer_domain"
	CodeGlobalFileFormat   = "global_file_format"

	// Metadata type
	CodeNoTypeName                = "no_type_name"
	CodeMissingField              = "missing_field"
	CodeNullField                 = "null_field"
	CodeMissingSystemField        = "missing_system_field"
	CodeBadSystemField            = "bad_system_field"
	CodeBadOffset                 = "bad_offset"
	CodeBadScalar                 = "bad_scalar"
	CodeBadRangeNoMin             = "bad_range_nomin"
	CodeBadRangeNoMax             = "bad_range_nomax"
	CodeSystemFieldInSearchFields = "system_field_in_search_fields"

	// Product consistency
	CodeProductMismatch    = "product_mismatch"
	CodeMetadataMismatch   = "metadata_mismatch"
	CodeMissingMeasurement = "missing_measurement"
	CodeExtraMeasurements  = "extra_measurements"

	// Product document
	CodeMeasurementsList              = "measurements_list"
	CodeNoLicense                     = "no_license"
	CodeNoMeasurements                = "no_measurements"
	CodeEmbeddedMetadataType          = "embedded_metadata_type"
	CodeIngestedProduct               = "ingested_product"
	CodeProductNameMismatch           = "product_name_mismatch"
	CodeProductNameMetadataDeprecated = "product_name_metadata_deprecated"
	CodeInvalidProductMetadata        = "invalid_product_metadata"
	CodeInvalidMetadataKey            = "invalid_metadata_key"
	CodeNestedMetadata                = "nested_metadata"
	CodeInvalidMetadataPropertiesKey  = "invalid_metadata_properties_key"
	CodeStorageAndLoad                = "storage_and_load"
	CodeStorageSection                = "storage_section"
	CodeStorageTileSize               = "storage_tilesize"
	CodeInvalidAlignDim               = "invalid_align_dim"
	CodeInvalidAlignType              = "invalid_align_type"
	CodeUnexpectedAlignVal            = "unexpected_align_val"
	CodeInvalidResolutionDim          = "invalid_resolution_dim"
	CodeInvalidResolutionType         = "invalid_resolution_type"
	CodeUndefinedExtraDim             = "undefined_extra_dim"
	CodeBadSpectralDefinition         = "bad_spectral_definition"

	// On-disk data
	CodeNoProduct             = "no_product"
	CodeIncorrectBand         = "incorrect_band"
	CodeDifferentDtype        = "different_dtype"
	CodeDifferentNodata       = "different_nodata"
	CodeUnreadableMeasurement = "unreadable_measurement"
)

// Level is the severity of a Message.
type Level int

const (
	Info Level = iota + 1
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Message is a single validation finding. Messages are values; nothing
// mutates one after creation.
type Message struct {
	Level  Level
	Code   string // One of the codes listed above.
	Reason string
	Hint   string // Optional: remediation hint.
	// Context records what was assumed while validating, for example
	// {"type": "eo3", "product": "ls8_nbar"}.
	Context map[string]string
}

// NewMessage builds a context-free message. Only the first hint is used.
func NewMessage(level Level, code, reason string, hint ...string) Message {
	m := Message{Level: level, Code: code, Reason: reason}
	if len(hint) > 0 {
		m.Hint = hint[0]
	}
	return m
}

// String renders "code in [k: v,...]: reason (Hint: hint)".
func (m Message) String() string {
	b := &strings.Builder{}
	b.WriteString(m.Code)
	if ctx := m.contextString(); ctx != "" {
		fmt.Fprintf(b, " in [%s]", ctx)
	}
	b.WriteString(": ")
	b.WriteString(m.Reason)
	if m.Hint != "" {
		fmt.Fprintf(b, " (Hint: %s)", m.Hint)
	}
	return b.String()
}

func (m Message) contextString() string {
	if len(m.Context) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m.Context))
	for k, v := range m.Context {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+m.Context[k])
	}
	return strings.Join(parts, ",")
}

// Messages is a collection of validation messages that implements error.
type Messages []Message

// Error summarizes the first few error-level messages.
func (ms Messages) Error() string {
	if len(ms) == 0 {
		return ""
	}
	const maxShown = 3
	shown := ms.Errors()
	if len(shown) == 0 {
		shown = ms
	}
	b := &strings.Builder{}
	n := len(shown)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(shown[i].String())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

func (ms Messages) filter(l Level) Messages {
	var out Messages
	for _, m := range ms {
		if m.Level == l {
			out = append(out, m)
		}
	}
	return out
}

func (ms Messages) Errors() Messages   { return ms.filter(Error) }
func (ms Messages) Warnings() Messages { return ms.filter(Warning) }
func (ms Messages) Infos() Messages    { return ms.filter(Info) }

// HasErrors reports whether any message is error-level.
func (ms Messages) HasErrors() bool {
	for _, m := range ms {
		if m.Level == Error {
			return true
		}
	}
	return false
}

// Codes lists message codes in order of appearance.
func (ms Messages) Codes() []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Code)
	}
	return out
}

// Has reports whether a message with the given code is present.
func (ms Messages) Has(code string) bool {
	for _, m := range ms {
		if m.Code == code {
			return true
		}
	}
	return false
}

// Text joins the rendered messages with newlines.
func (ms Messages) Text() string {
	lines := make([]string, 0, len(ms))
	for _, m := range ms {
		lines = append(lines, m.String())
	}
	return strings.Join(lines, "\n")
}

// AsMessages extracts Messages from an error using errors.As internally.
func AsMessages(err error) (Messages, bool) {
	if err == nil {
		return nil, false
	}
	var ms Messages
	if errors.As(err, &ms) {
		return ms, true
	}
	var ide *InvalidDatasetError
	if errors.As(err, &ide) && len(ide.Messages) > 0 {
		return ide.Messages, true
	}
	var idoc *InvalidDocumentError
	if errors.As(err, &idoc) && len(idoc.Messages) > 0 {
		return idoc.Messages, true
	}
	return nil, false
}
