package raster

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/tiff"
)

// ErrNotTIFF is returned for input without a TIFF header.
var ErrNotTIFF = errors.New("not a TIFF file")

const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagSamplesPerPixel = 277
	tagSampleFormat    = 339
	tagGDALNodata      = 42113
)

const (
	sampleUint  = 1
	sampleInt   = 2
	sampleFloat = 3
)

// GeoTIFF is the header information of the first image in a TIFF file.
type GeoTIFF struct {
	Width, Height int
	Bands         int
	DataType      string
	NodataValue   float64
	HasNodata     bool
}

func (g *GeoTIFF) Indexes() []int {
	out := make([]int, g.Bands)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func (g *GeoTIFF) Dtype(band int) (string, error) {
	if band < 1 || band > g.Bands {
		return "", fmt.Errorf("%w: %d", ErrNoBand, band)
	}
	return g.DataType, nil
}

// Nodata is shared by every band; GDAL stores one value per file.
func (g *GeoTIFF) Nodata(band int) (float64, bool, error) {
	if band < 1 || band > g.Bands {
		return 0, false, fmt.Errorf("%w: %d", ErrNoBand, band)
	}
	return g.NodataValue, g.HasNodata, nil
}

func (g *GeoTIFF) Close() error { return nil }

// ReadGeoTIFF reads the first image file directory of a classic (not
// BigTIFF) TIFF. Pixel data is not read.
func ReadGeoTIFF(r tiff.ReadAtReadSeeker) (*GeoTIFF, error) {
	t, err := tiff.Parse(r, nil, nil)
	if err != nil {
		var version tiff.ErrUnsuppTIFFVersion
		if errors.As(err, &version) && version.Version == 43 {
			return nil, fmt.Errorf("%w: BigTIFF", ErrUnsupported)
		}
		return nil, fmt.Errorf("%w: %v", ErrNotTIFF, err)
	}
	ifds := t.IFDs()
	if len(ifds) == 0 {
		return nil, fmt.Errorf("%w: no image file directory", ErrNotTIFF)
	}
	ifd := ifds[0]

	out := &GeoTIFF{
		Width:  firstUint(ifd, tagImageWidth, 0),
		Height: firstUint(ifd, tagImageLength, 0),
		Bands:  firstUint(ifd, tagSamplesPerPixel, 1),
	}
	if f := ifd.GetField(tagGDALNodata); f != nil {
		s := strings.TrimRight(string(f.Value().Bytes()), "\x00 ")
		v, err := parseNodata(s)
		if err != nil {
			return nil, fmt.Errorf("GDAL_NODATA %q: %w", s, err)
		}
		out.NodataValue, out.HasNodata = v, true
	}
	dtype, err := dataType(firstUint(ifd, tagSampleFormat, sampleUint), firstUint(ifd, tagBitsPerSample, 8))
	if err != nil {
		return nil, err
	}
	out.DataType = dtype
	return out, nil
}

// firstUint is the first value of a BYTE, SHORT or LONG field, or def when
// the tag is absent.
func firstUint(ifd tiff.IFD, tag uint16, def int) int {
	f := ifd.GetField(tag)
	if f == nil {
		return def
	}
	raw := f.Value().Bytes()
	order := f.Value().Order()
	switch size := f.Type().Size(); {
	case size == 2 && len(raw) >= 2:
		return int(order.Uint16(raw))
	case size == 4 && len(raw) >= 4:
		return int(order.Uint32(raw))
	case size == 1 && len(raw) >= 1:
		return int(raw[0])
	}
	return def
}

func dataType(format, bits int) (string, error) {
	switch format {
	case sampleUint:
		if bits == 1 {
			return "bool", nil
		}
		return "uint" + strconv.Itoa(bits), nil
	case sampleInt:
		return "int" + strconv.Itoa(bits), nil
	case sampleFloat:
		return "float" + strconv.Itoa(bits), nil
	}
	return "", fmt.Errorf("%w: sample format %d", ErrUnsupported, format)
}

func parseNodata(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nan":
		return math.NaN(), nil
	case "inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
