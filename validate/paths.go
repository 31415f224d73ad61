package validate

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/dataset"
	"github.com/reoring/eo3/metadata"
	"github.com/reoring/eo3/product"
	"github.com/reoring/eo3/raster"
	"github.com/reoring/eo3/source"
)

// PathOptions configure ValidatePaths.
type PathOptions struct {
	// Products and MetadataTypes are definitions supplied outside the
	// validated files. Definitions found among the files are added to them.
	Products      []eo3.Doc
	MetadataTypes []eo3.Doc
	Expect        *Expectations
	Thorough      bool
	Opener        raster.Opener
	// Workers bounds concurrent validations; GOMAXPROCS when zero.
	Workers int
}

// Result is the outcome for one document of one file.
type Result struct {
	Path string
	// Index is the document's position within a multi-document file.
	Index    int
	Kind     dataset.DocKind
	Messages eo3.Messages
}

// Failed reports whether the result holds any error-level message.
func (r Result) Failed() bool { return r.Messages.HasErrors() }

type loaded struct {
	path  string
	index int
	kind  dataset.DocKind
	known bool
	doc   eo3.Doc
	err   error
}

// ValidatePaths reads every file, works out each document's kind and
// validates it. Datasets are checked against a product with their
// product.name, and that product's metadata type, when either is
// available. Results are ordered by path and document index.
//
// The returned error is only ever the context's.
func ValidatePaths(ctx context.Context, paths []string, opts PathOptions) ([]Result, error) {
	docs, err := loadAll(ctx, paths, opts.Workers)
	if err != nil {
		return nil, err
	}

	products := map[string]eo3.Doc{}
	mdts := map[string]eo3.Doc{}
	for _, p := range opts.Products {
		products[eo3.GetString(p, "name")] = p
	}
	for _, m := range opts.MetadataTypes {
		mdts[eo3.GetString(m, "name")] = m
	}
	for _, d := range docs {
		switch {
		case d.err != nil:
		case d.kind == dataset.KindProduct:
			products[eo3.GetString(d.doc, "name")] = d.doc
		case d.kind == dataset.KindMetadataType:
			mdts[eo3.GetString(d.doc, "name")] = d.doc
		}
	}

	results := make([]Result, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(opts.Workers))
	for i, d := range docs {
		i, d := i, d
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = validateLoaded(ctx, d, products, mdts, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func validateLoaded(ctx context.Context, d loaded, products, mdts map[string]eo3.Doc, opts PathOptions) Result {
	r := Result{Path: d.path, Index: d.index, Kind: d.kind}
	msg := eo3.NewMessager(nil)
	switch {
	case d.err != nil:
		r.Messages = eo3.Messages{msg.Error(eo3.CodeUnreadable, d.err.Error())}
	case !d.known:
		r.Messages = eo3.Messages{msg.Error(eo3.CodeUnknownDocType,
			"Unknown document type: expected a dataset, product or metadata type")}
	case d.kind == dataset.KindDataset:
		productDoc := products[eo3.GetString(d.doc, "product", "name")]
		r.Messages = ValidateDataset(ctx, d.doc, Options{
			Product:          productDoc,
			MetadataType:     metadataTypeOf(productDoc, mdts),
			Expect:           opts.Expect,
			Thorough:         opts.Thorough,
			ReadableLocation: d.path,
			Opener:           opts.Opener,
		})
	case d.kind == dataset.KindProduct:
		r.Messages = product.ValidateProduct(d.doc)
	case d.kind == dataset.KindMetadataType:
		r.Messages = metadata.ValidateMetadataType(d.doc)
	default:
		r.Messages = eo3.Messages{msg.Info(eo3.CodeUnsupportedKind,
			fmt.Sprintf("Skipping %s document: only EO3 datasets, products and metadata types are validated", d.kind))}
	}
	return r
}

// metadataTypeOf finds a product's metadata type, by name or embedded.
func metadataTypeOf(productDoc eo3.Doc, mdts map[string]eo3.Doc) eo3.Doc {
	if productDoc == nil {
		return nil
	}
	if embedded, ok := eo3.AsMap(productDoc["metadata_type"]); ok {
		return embedded
	}
	name, _ := productDoc["metadata_type"].(string)
	return mdts[name]
}

func loadAll(ctx context.Context, paths []string, n int) ([]loaded, error) {
	perFile := make([][]loaded, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(n))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perFile[i] = load(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []loaded
	for _, l := range perFile {
		out = append(out, l...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].path != out[j].path {
			return out[i].path < out[j].path
		}
		return out[i].index < out[j].index
	})
	return out, nil
}

func load(path string) []loaded {
	docs, err := source.ReadFile(path)
	if err != nil {
		return []loaded{{path: path, err: err}}
	}
	out := make([]loaded, len(docs))
	for i, doc := range docs {
		kind, known := DocKindOf(path, doc)
		out[i] = loaded{path: path, index: i, kind: kind, known: known, doc: doc}
	}
	return out
}

// DocKindOf guesses a document's kind from its file name, then its
// contents.
func DocKindOf(path string, doc eo3.Doc) (dataset.DocKind, bool) {
	if k, ok := dataset.FilenameDocKind(path); ok {
		return k, true
	}
	return dataset.GuessKindFromContents(doc)
}

func workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}
