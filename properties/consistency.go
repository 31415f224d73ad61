package properties

import (
	"fmt"
	"strings"
	"time"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/codec"
)

// CheckConsistency reports properties whose stored value differs from what
// their normaliser would produce, plus the odc:producer and odc:file_format
// conventions. Unknown properties are reported at info level.
func CheckConsistency(props map[string]any, known Known, msg *eo3.Messager) eo3.Messages {
	var out eo3.Messages
	for _, name := range sortedKeys(props) {
		value := props[name]
		if !known.Has(name) {
			out = append(out, msg.Info(eo3.CodeUnknownProperty, fmt.Sprintf("Unknown stac property %s", codec.Repr(name))))
			continue
		}
		normalise := known[name]
		if normalise == nil || value == nil {
			continue
		}
		n, err := normalise(value)
		if err != nil {
			out = append(out, msg.Error(eo3.CodeInvalidProperty, fmt.Sprintf("%s: %v", codec.Repr(name), err)))
			continue
		}
		want := n.Value
		if _, isTime := want.(time.Time); isTime {
			if s, ok := value.(string); ok {
				// Datetimes stored as strings are fine when they denote the
				// same instant.
				t, err := codec.ParseTime(s)
				if err != nil {
					out = append(out, msg.Error(eo3.CodeInvalidProperty, fmt.Sprintf("%s: %v", codec.Repr(name), err)))
					continue
				}
				value = t
			}
		}
		switch {
		case codec.TypeName(value) != codec.TypeName(want):
			out = append(out, msg.Warning(eo3.CodePropertyType,
				fmt.Sprintf("Value %s expected to be %s (got %s)", display(value), codec.Repr(codec.TypeName(want)), codec.Repr(codec.TypeName(value)))))
		case !codec.Equal(value, want) && !(codec.IsNaN(value) && codec.IsNaN(want)):
			out = append(out, msg.Warning(eo3.CodePropertyFormatting,
				fmt.Sprintf("Property %s expected to be %s", codec.Repr(value), codec.Repr(want))))
		}
	}

	if producer, ok := props["odc:producer"]; ok {
		if !strings.Contains(codec.ToString(producer), ".") {
			out = append(out, msg.Warning(eo3.CodeProducerDomain,
				"Property 'odc:producer' should be the organisation's domain name. Eg. 'ga.gov.au'"))
		}
	}
	if format := props["odc:file_format"]; format == nil || format == "" {
		out = append(out, msg.Warning(eo3.CodeGlobalFileFormat, "Property 'odc:file_format' is empty", "Usually 'GeoTIFF'"))
	}
	return out
}

func display(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return codec.FormatTime(t)
	}
	return codec.Repr(v)
}
