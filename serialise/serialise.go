// Package serialise writes EO3 documents in a stable, readable layout.
//
// YAML output orders top-level keys the way EO3 documents are
// conventionally written ($schema, id, label, product, ..., lineage), puts
// unprefixed properties before prefixed ones and writes coordinate lists
// in flow style. Each document is framed by "---" and "...".
package serialise

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/codec"
	"github.com/reoring/eo3/model"
)

// KeyOrder is the order of known top-level keys. Other keys follow,
// alphabetically.
var KeyOrder = []string{
	"$schema",
	// Products and metadata types
	"name",
	"license",
	"metadata_type",
	"description",
	"metadata",
	// Datasets
	"id",
	"label",
	"product",
	"location",
	"locations",
	"crs",
	"geometry",
	"grids",
	"properties",
	"measurements",
	"accessories",
	"lineage",
}

func keyRank(k string) int {
	if i := slices.Index(KeyOrder, k); i >= 0 {
		return i
	}
	return len(KeyOrder)
}

// PropertyLess sorts property keys alphabetically with unprefixed keys
// ("datetime") before prefixed ones ("eo:platform").
func PropertyLess(a, b string) bool {
	pa, pb := strings.Contains(a, ":"), strings.Contains(b, ":")
	if pa != pb {
		return !pa
	}
	return a < b
}

// Format builds the YAML node tree for one document.
func Format(doc eo3.Doc) (*yaml.Node, error) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := keyRank(keys[i]), keyRank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		var (
			value *yaml.Node
			err   error
		)
		switch k {
		case "properties":
			value, err = mapping(doc[k], PropertyLess)
		default:
			value, err = toNode(doc[k])
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		root.Content = append(root.Content, str(k), value)
	}

	if g := valueOf(root, "geometry"); g != nil {
		flow(valueOf(g, "coordinates"))
	}
	if grids := valueOf(root, "grids"); grids != nil {
		for i := 1; i < len(grids.Content); i += 2 {
			flow(valueOf(grids.Content[i], "shape"))
			flow(valueOf(grids.Content[i], "transform"))
		}
	}
	if props := valueOf(root, "properties"); props != nil {
		if v := valueOf(props, "eo:gsd"); v != nil && v.Kind == yaml.ScalarNode {
			v.LineComment = "# Ground sample distance (m)"
		}
	}
	if k := keyOf(root, "$schema"); k != nil && eo3.GetString(doc, "$schema") != "" {
		k.HeadComment = "# Dataset"
	}
	return root, nil
}

// FormatDataset is Format with measurement aliases added as comments.
func FormatDataset(ds *model.Dataset) (*yaml.Node, error) {
	root, err := Format(ds.Doc())
	if err != nil {
		return nil, err
	}
	ms, err := ds.Measurements()
	if err != nil {
		return nil, err
	}
	section := valueOf(root, "measurements")
	for name, m := range ms {
		if m.Alias == "" || strings.EqualFold(m.Alias, name) {
			continue
		}
		if k := keyOf(section, name); k != nil {
			k.LineComment = "# " + m.Alias
		}
	}
	return root, nil
}

// WriteYAML writes each document as its own framed YAML document.
func WriteYAML(w io.Writer, docs ...eo3.Doc) error {
	nodes := make([]*yaml.Node, 0, len(docs))
	for _, d := range docs {
		n, err := Format(d)
		if err != nil {
			return err
		}
		nodes = append(nodes, n)
	}
	return writeNodes(w, nodes)
}

// WriteDatasets is WriteYAML for Datasets.
func WriteDatasets(w io.Writer, ds ...*model.Dataset) error {
	nodes := make([]*yaml.Node, 0, len(ds))
	for _, d := range ds {
		n, err := FormatDataset(d)
		if err != nil {
			return err
		}
		nodes = append(nodes, n)
	}
	return writeNodes(w, nodes)
}

func writeNodes(w io.Writer, nodes []*yaml.Node) error {
	for _, n := range nodes {
		if _, err := io.WriteString(w, "---\n"); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(n); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "...\n"); err != nil {
			return err
		}
	}
	return nil
}

// MarshalYAML is WriteYAML into a byte slice.
func MarshalYAML(docs ...eo3.Doc) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, docs...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes doc as indented JSON. Times become RFC 3339 strings.
func WriteJSON(w io.Writer, doc eo3.Doc) error {
	raw, err := json.MarshalIndent(codec.JSONCompatible(doc), "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(raw, '\n'))
	return err
}

// WriteFile writes docs to path, as JSON for .json files and YAML for
// .yaml or .yml files. A trailing .gz compresses the output. JSON files
// hold exactly one document.
func WriteFile(path string, docs ...eo3.Doc) (err error) {
	name := strings.ToLower(strings.TrimSuffix(path, ".gz"))
	isJSON := strings.HasSuffix(name, ".json")
	switch {
	case isJSON && len(docs) != 1:
		return fmt.Errorf("%s: JSON files hold one document, got %d", path, len(docs))
	case !isJSON && !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml"):
		return fmt.Errorf("YAML filename doesn't end in *.yaml (?). Received %q", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	var w io.Writer = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz := gzip.NewWriter(f)
		defer func() {
			if cerr := gz.Close(); err == nil {
				err = cerr
			}
		}()
		w = gz
	}
	if isJSON {
		return WriteJSON(w, docs[0])
	}
	return WriteYAML(w, docs...)
}

func toNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case string:
		return str(t), nil
	case time.Time:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: formatTime(t)}, nil
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(t)}, nil
	case float32:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(float64(t))}, nil
	case decimal.Decimal:
		f, _ := t.Float64()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(f)}, nil
	case map[string]any, map[any]any:
		return mapping(t, func(a, b string) bool { return a < b })
	case []any, []string:
		items, _ := eo3.AsSlice(t)
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for i, it := range items {
			n, err := toNode(it)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

func mapping(v any, less func(a, b string) bool) (*yaml.Node, error) {
	m, ok := eo3.AsMap(v)
	if !ok {
		return toNode(v)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	out := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		n, err := toNode(m[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out.Content = append(out.Content, str(k), n)
	}
	return out, nil
}

func str(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// formatTime keeps non-UTC offsets and writes UTC with an explicit Z.
func formatTime(t time.Time) string {
	if _, offset := t.Zone(); offset != 0 {
		return t.Format(time.RFC3339Nano)
	}
	return codec.FormatTime(t)
}

// formatFloat always produces something YAML reads back as a float.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func keyOf(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i]
		}
	}
	return nil
}

func valueOf(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func flow(n *yaml.Node) {
	if n == nil || n.Kind == yaml.ScalarNode {
		return
	}
	n.Style = yaml.FlowStyle
	for _, c := range n.Content {
		flow(c)
	}
}
