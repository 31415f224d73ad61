// Package schema holds the structural JSON schemas for EO3 datasets, products
// and metadata types, and the default EO3 metadata type.
//
// Schemas are embedded as YAML, converted to JSON once and compiled with
// santhosh-tekuri/jsonschema (draft 7). Validation reports every leaf
// violation with the document path it applies to.
package schema

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/codec"
)

//go:embed *.yaml
var files embed.FS

const base = "https://schemas.opendatacube.org/"

var resources = map[string]string{
	"dataset":       "dataset.schema.yaml",
	"product":       "product.schema.yaml",
	"metadata-type": "metadata-type.schema.yaml",
}

// Violation is one structural problem found in a document.
type Violation struct {
	// Path is the location inside the document; empty for the root.
	Path []string
	// Message reads like "'id' is a required property".
	Message string
}

// DisplayPath joins Path with dots.
func (v Violation) DisplayPath() string { return strings.Join(v.Path, ".") }

// String prefixes the message with "(path) " when the path is not empty.
func (v Violation) String() string {
	if len(v.Path) == 0 {
		return v.Message
	}
	return "(" + v.DisplayPath() + ") " + v.Message
}

// Validator checks documents against one compiled schema.
type Validator struct {
	name   string
	schema *jsonschema.Schema
}

// Name is the schema's short name: dataset, product or metadata-type.
func (v *Validator) Name() string { return v.name }

// Validate returns every violation in doc, sorted by path. A document that
// cannot be encoded as JSON is reported as a single root violation.
func (v *Validator) Validate(doc any) []Violation {
	raw, err := codec.MarshalJSON(doc)
	if err != nil {
		return []Violation{{Message: fmt.Sprintf("document is not JSON compatible: %v", err)}}
	}
	var inst any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&inst); err != nil {
		return []Violation{{Message: fmt.Sprintf("document is not JSON compatible: %v", err)}}
	}
	err = v.schema.Validate(inst)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []Violation{{Message: err.Error()}}
	}
	var out []Violation
	for _, leaf := range leaves(ve, nil) {
		out = append(out, translate(leaf, inst)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DisplayPath(), out[j].DisplayPath()
		if a != b {
			return a < b
		}
		return out[i].Message < out[j].Message
	})
	return out
}

var compiled = sync.OnceValues(func() (map[string]*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	for name, file := range resources {
		raw, err := files.ReadFile(file)
		if err != nil {
			return nil, err
		}
		js, err := yamlToJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		if err := c.AddResource(base+name, bytes.NewReader(js)); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}
	out := map[string]*Validator{}
	for name := range resources {
		s, err := c.Compile(base + name)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", name, err)
		}
		out[name] = &Validator{name: name, schema: s}
	}
	return out, nil
})

func mustValidator(name string) *Validator {
	vs, err := compiled()
	if err != nil {
		panic(err)
	}
	return vs[name]
}

// Dataset validates EO3 dataset documents.
func Dataset() *Validator { return mustValidator("dataset") }

// Product validates product definitions.
func Product() *Validator { return mustValidator("product") }

// MetadataType validates metadata-type definitions.
func MetadataType() *Validator { return mustValidator("metadata-type") }

var defaultMetadataType = sync.OnceValue(func() eo3.Doc {
	raw, err := files.ReadFile("default-eo3-type.yaml")
	if err != nil {
		panic(err)
	}
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		panic(fmt.Errorf("default metadata type: %w", err))
	}
	doc, _ := eo3.AsMap(eo3.Clone(v))
	return doc
})

// DefaultMetadataType returns a fresh copy of the default "eo3" metadata
// type. Callers may modify it.
func DefaultMetadataType() eo3.Doc { return eo3.CloneDoc(defaultMetadataType()) }

func yamlToJSON(raw []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return codec.MarshalJSON(eo3.Clone(v))
}

// leaves flattens the cause tree. oneOf/anyOf failures are reported once at
// their own location rather than once per rejected branch.
func leaves(ve *jsonschema.ValidationError, out []*jsonschema.ValidationError) []*jsonschema.ValidationError {
	kw := ve.KeywordLocation
	if len(ve.Causes) == 0 || strings.HasSuffix(kw, "/oneOf") || strings.HasSuffix(kw, "/anyOf") {
		return append(out, ve)
	}
	for _, c := range ve.Causes {
		out = leaves(c, out)
	}
	return out
}

func translate(ve *jsonschema.ValidationError, inst any) []Violation {
	path := splitPointer(ve.InstanceLocation)
	value := lookup(inst, path)
	msg := ve.Message
	kw := ve.KeywordLocation

	switch {
	case strings.HasPrefix(msg, "missing properties: "):
		var out []Violation
		for _, name := range strings.Split(strings.TrimPrefix(msg, "missing properties: "), ", ") {
			out = append(out, Violation{Path: path, Message: name + " is a required property"})
		}
		return out
	case strings.HasPrefix(msg, "expected ") && strings.Contains(msg, ", but got "):
		want := strings.TrimPrefix(msg[:strings.Index(msg, ", but got ")], "expected ")
		msg = fmt.Sprintf("%s is not of type '%s'", codec.Repr(value), want)
	case strings.HasPrefix(msg, "additionalProperties ") && strings.HasSuffix(msg, " not allowed"):
		names := strings.TrimSuffix(strings.TrimPrefix(msg, "additionalProperties "), " not allowed")
		msg = fmt.Sprintf("Additional properties are not allowed (%s was unexpected)", names)
	case strings.HasPrefix(msg, "does not match pattern "):
		msg = fmt.Sprintf("%s does not match %s", codec.Repr(value), strings.TrimPrefix(msg, "does not match pattern "))
	case strings.HasSuffix(kw, "/oneOf") || strings.HasSuffix(kw, "/anyOf"):
		msg = fmt.Sprintf("%s is not valid under any of the given schemas", codec.Repr(value))
	}
	return []Violation{{Path: path, Message: msg}}
}

func splitPointer(p string) []string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return nil
	}
	parts := strings.Split(p, "/")
	for i, s := range parts {
		s = strings.ReplaceAll(s, "~1", "/")
		parts[i] = strings.ReplaceAll(s, "~0", "~")
	}
	return parts
}

func lookup(v any, path []string) any {
	for _, key := range path {
		switch t := v.(type) {
		case map[string]any:
			v = t[key]
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(t) {
				return nil
			}
			v = t[i]
		default:
			return nil
		}
	}
	return codec.Normalize(v)
}
