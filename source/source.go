// Package source loads EO3 documents from YAML or JSON files.
//
// YAML files may hold several documents separated by "---". JSON files hold
// exactly one document and are rejected when an object repeats a key. Files
// ending in .gz are decompressed transparently.
package source

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/codec"
)

// ErrNotADocument is returned when a file's top level value is not a
// mapping.
var ErrNotADocument = errors.New("not a document")

// Format is a document encoding.
type Format int

const (
	YAML Format = iota
	JSON
)

// FormatOf picks the format from a file name; anything not ending in .json
// (before an optional .gz) is YAML.
func FormatOf(path string) Format {
	name := strings.TrimSuffix(strings.ToLower(path), ".gz")
	if filepath.Ext(name) == ".json" {
		return JSON
	}
	return YAML
}

// ParseYAML decodes every document in data. Empty documents are skipped.
func ParseYAML(data []byte) ([]eo3.Doc, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []eo3.Doc
	for i := 0; ; i++ {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("yaml document %d: %w", i, err)
		}
		if v == nil {
			continue
		}
		doc, ok := eo3.AsMap(eo3.Clone(v))
		if !ok {
			return nil, fmt.Errorf("yaml document %d: %w: top level is %s", i, ErrNotADocument, codec.TypeName(v))
		}
		out = append(out, doc)
	}
	return out, nil
}

// MustParseYAML decodes exactly one document, panicking on failure. It is
// meant for fixtures.
func MustParseYAML(s string) eo3.Doc {
	docs, err := ParseYAML([]byte(s))
	if err != nil {
		panic(err)
	}
	if len(docs) != 1 {
		panic(fmt.Sprintf("expected one document, got %d", len(docs)))
	}
	return docs[0]
}

// ParseJSON decodes one JSON document, rejecting duplicate object keys.
// Numbers become int or float64.
func ParseJSON(data []byte) (eo3.Doc, error) {
	dups, err := DetectDuplicateKeys(data)
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	if len(dups) > 0 {
		return nil, dups[0]
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	doc, ok := codec.Normalize(v).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("json: %w: top level is %s", ErrNotADocument, codec.TypeName(v))
	}
	return doc, nil
}

// Parse decodes data in the given format.
func Parse(format Format, data []byte) ([]eo3.Doc, error) {
	if format == JSON {
		doc, err := ParseJSON(data)
		if err != nil {
			return nil, err
		}
		return []eo3.Doc{doc}, nil
	}
	return ParseYAML(data)
}

// ReadFile loads every document in path.
func ReadFile(path string) ([]eo3.Doc, error) {
	data, err := readAll(path)
	if err != nil {
		return nil, err
	}
	docs, err := Parse(FormatOf(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

// ReadDoc loads a file that must hold exactly one document.
func ReadDoc(path string) (eo3.Doc, error) {
	docs, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(docs) != 1 {
		return nil, fmt.Errorf("%s: expected one document, found %d", path, len(docs))
	}
	return docs[0], nil
}

func readAll(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(r)
}
