// Package raster is the narrow view of raster files needed to cross-check a
// dataset against its product: which bands exist, and each band's data type
// and nodata value.
package raster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/reoring/eo3"
)

var (
	// ErrUnsupported is returned for locations or formats an Opener cannot
	// read.
	ErrUnsupported = errors.New("unsupported raster")
	// ErrNoBand is returned when asking about a band the file does not have.
	ErrNoBand = errors.New("no such band")
)

// Dataset describes one opened raster file. Bands are numbered from 1.
type Dataset interface {
	Indexes() []int
	Dtype(band int) (string, error)
	// Nodata reports the band's nodata value; ok is false when none is set.
	Nodata(band int) (value float64, ok bool, err error)
	Close() error
}

// Opener opens rasters by URI or local path.
type Opener interface {
	Open(ctx context.Context, uri string) (Dataset, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, uri string) (Dataset, error)

func (f OpenerFunc) Open(ctx context.Context, uri string) (Dataset, error) { return f(ctx, uri) }

// LocalOpener opens GeoTIFF files on the local filesystem, given as plain
// paths or file:// URIs.
type LocalOpener struct{}

func (LocalOpener) Open(ctx context.Context, uri string) (Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, ok := eo3.LocalPath(uri)
	if !ok {
		return nil, fmt.Errorf("%w: only local files can be opened: %s", ErrUnsupported, uri)
	}
	lower := strings.ToLower(path)
	if !strings.HasSuffix(lower, ".tif") && !strings.HasSuffix(lower, ".tiff") {
		return nil, fmt.Errorf("%w: %s is not a GeoTIFF", ErrUnsupported, uri)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := ReadGeoTIFF(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}
	return info, nil
}

// Static is an in-memory Dataset, used when band details are already known.
type Static struct {
	Dtypes  map[int]string
	Nodatas map[int]float64
}

func (s *Static) Indexes() []int {
	out := make([]int, 0, len(s.Dtypes))
	for b := range s.Dtypes {
		out = append(out, b)
	}
	slices.Sort(out)
	return out
}

func (s *Static) Dtype(band int) (string, error) {
	d, ok := s.Dtypes[band]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrNoBand, band)
	}
	return d, nil
}

func (s *Static) Nodata(band int) (float64, bool, error) {
	if _, ok := s.Dtypes[band]; !ok {
		return 0, false, fmt.Errorf("%w: %d", ErrNoBand, band)
	}
	v, ok := s.Nodatas[band]
	return v, ok, nil
}

func (s *Static) Close() error { return nil }
