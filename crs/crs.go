// Package crs parses coordinate reference system strings found in EO3
// documents ("epsg:32655" or WKT) and projects coordinates to and from
// longitude/latitude through the github.com/wroge/wgs84 transformations.
package crs

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/wroge/wgs84"
)

var (
	// ErrInvalidCRS is returned for strings that are neither a known EPSG
	// code nor well-formed WKT.
	ErrInvalidCRS = errors.New("invalid CRS")
	// ErrUnsupportedProjection is returned when coordinates cannot be
	// transformed for a (valid) CRS.
	ErrUnsupportedProjection = errors.New("unsupported projection")
)

var epsgRe = regexp.MustCompile(`(?i)^\s*(?:epsg:|urn:ogc:def:crs:epsg::|urn:ogc:def:crs:epsg:[0-9.]*:)([0-9]+)\s*$`)

// CRS is a parsed coordinate reference system.
type CRS struct {
	text       string
	epsg       int
	wkt        bool
	geographic bool
	name       string
	ref        wgs84.CoordinateReferenceSystem
}

// Parse reads an EPSG-form ("epsg:4326", case-insensitive) or WKT-form CRS.
func Parse(s string) (*CRS, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidCRS)
	}
	if m := epsgRe.FindStringSubmatch(trimmed); m != nil {
		code, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCRS, s)
		}
		c, err := FromEPSG(code)
		if err != nil {
			return nil, err
		}
		c.text = s
		return c, nil
	}
	if looksLikeWKT(trimmed) {
		return parseWKT(s)
	}
	return nil, fmt.Errorf("%w: %q is neither an EPSG code nor WKT", ErrInvalidCRS, s)
}

// FromEPSG builds a CRS for a registered EPSG code.
func FromEPSG(code int) (*CRS, error) {
	ref := registry.Code(code)
	if ref == nil {
		return nil, fmt.Errorf("%w: unknown EPSG code %d", ErrInvalidCRS, code)
	}
	return &CRS{
		text:       fmt.Sprintf("epsg:%d", code),
		epsg:       code,
		name:       epsgName(code),
		geographic: isGeographic(ref),
		ref:        ref,
	}, nil
}

// MustParse is Parse for package-level constants and tests.
func MustParse(s string) *CRS {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// EPSG returns the EPSG code, if one is known.
func (c *CRS) EPSG() (int, bool) { return c.epsg, c.epsg != 0 }

// Name is the human name of a registered code, or the WKT's own name.
func (c *CRS) Name() string { return c.name }

// Text is the string the CRS was parsed from.
func (c *CRS) Text() string { return c.text }

// IsWKT reports whether the CRS was given as WKT.
func (c *CRS) IsWKT() bool { return c.wkt }

// IsGeographic reports a longitude/latitude CRS.
func (c *CRS) IsGeographic() bool { return c.geographic }

// Dimensions are the spatial dimension names ODC uses for this CRS.
func (c *CRS) Dimensions() [2]string {
	if c.geographic {
		return [2]string{"latitude", "longitude"}
	}
	return [2]string{"y", "x"}
}

// String prefers the canonical "epsg:N" form.
func (c *CRS) String() string {
	if c.epsg != 0 {
		return fmt.Sprintf("epsg:%d", c.epsg)
	}
	return c.text
}

// Equal compares by EPSG code when both have one, else by text.
func (c *CRS) Equal(o *CRS) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.epsg != 0 && o.epsg != 0 {
		return c.epsg == o.epsg
	}
	return strings.TrimSpace(c.text) == strings.TrimSpace(o.text)
}

// ToLonLat transforms a coordinate of this CRS to WGS 84 longitude/latitude
// degrees.
func (c *CRS) ToLonLat(x, y float64) (lon, lat float64, err error) {
	if c.ref == nil {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnsupportedProjection, c)
	}
	lon, lat, _ = wgs84.Transform(c.ref, wgs84.LonLat())(x, y, 0)
	return lon, lat, nil
}

// FromLonLat transforms WGS 84 longitude/latitude degrees to this CRS.
func (c *CRS) FromLonLat(lon, lat float64) (x, y float64, err error) {
	if c.ref == nil {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnsupportedProjection, c)
	}
	x, y, _ = wgs84.Transform(wgs84.LonLat(), c.ref)(lon, lat, 0)
	return x, y, nil
}

// CanProject reports whether ToLonLat/FromLonLat are available.
func (c *CRS) CanProject() bool { return c.ref != nil }

func isGeographic(ref wgs84.CoordinateReferenceSystem) bool {
	_, ok := ref.(wgs84.GeographicReferenceSystem)
	return ok
}
