// Package geom wraps github.com/paulmach/orb polygons with the CRS they are
// expressed in, and models EO3 grids (shape plus affine transform).
package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/reoring/eo3/codec"
	"github.com/reoring/eo3/crs"
)

// ErrInvalidShape is returned when a GeoJSON-like map cannot be read.
var ErrInvalidShape = errors.New("invalid shape")

// Geometry is a shape with an optional CRS.
type Geometry struct {
	Shape orb.Geometry
	CRS   *crs.CRS
}

// FromMap reads a GeoJSON geometry mapping ({"type": ..., "coordinates": ...}).
func FromMap(m map[string]any, c *crs.CRS) (*Geometry, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: no geometry", ErrInvalidShape)
	}
	raw, err := json.Marshal(codec.JSONCompatible(m))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	shape := g.Geometry()
	if shape == nil {
		return nil, fmt.Errorf("%w: empty geometry", ErrInvalidShape)
	}
	return &Geometry{Shape: shape, CRS: c}, nil
}

// Polygon builds a polygon from one exterior ring; the ring is closed if
// needed.
func Polygon(points []orb.Point, c *crs.CRS) *Geometry {
	ring := make(orb.Ring, len(points))
	copy(ring, points)
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return &Geometry{Shape: orb.Polygon{ring}, CRS: c}
}

// Map renders the geometry as a GeoJSON mapping for embedding in a document.
func (g *Geometry) Map() map[string]any {
	raw, err := json.Marshal(geojson.NewGeometry(g.Shape))
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// Bound is the axis-aligned bounding box.
func (g *Geometry) Bound() orb.Bound { return g.Shape.Bound() }

// Area is the planar area in CRS units.
func (g *Geometry) Area() float64 { return planar.Area(g.Shape) }

// Contains reports whether every vertex of other lies inside g. Both must be
// in the same CRS (a nil CRS matches anything).
func (g *Geometry) Contains(other *Geometry) bool {
	if g.CRS != nil && other.CRS != nil && !g.CRS.Equal(other.CRS) {
		return false
	}
	inside := func(p orb.Point) bool {
		switch s := g.Shape.(type) {
		case orb.Polygon:
			return planar.PolygonContains(s, p)
		case orb.MultiPolygon:
			return planar.MultiPolygonContains(s, p)
		case orb.Bound:
			return s.Contains(p)
		}
		return false
	}
	ok := true
	eachPoint(other.Shape, func(p orb.Point) {
		if ok && !inside(p) {
			ok = false
		}
	})
	return ok
}

// Equal compares shapes and CRS.
func (g *Geometry) Equal(other *Geometry) bool {
	if (g.CRS == nil) != (other.CRS == nil) {
		return false
	}
	if g.CRS != nil && !g.CRS.Equal(other.CRS) {
		return false
	}
	return orb.Equal(g.Shape, other.Shape)
}

// ToLonLat projects every vertex to longitude/latitude.
func (g *Geometry) ToLonLat() (*Geometry, error) {
	if g.CRS == nil {
		return nil, fmt.Errorf("%w: geometry has no CRS", crs.ErrUnsupportedProjection)
	}
	var err error
	project := func(p orb.Point) orb.Point {
		lon, lat, e := g.CRS.ToLonLat(p[0], p[1])
		if e != nil && err == nil {
			err = e
		}
		return orb.Point{lon, lat}
	}
	shape := orb.Clone(g.Shape)
	if p, ok := shape.(orb.Point); ok {
		shape = project(p)
	} else {
		mapPoints(shape, project)
	}
	if err != nil {
		return nil, err
	}
	return &Geometry{Shape: shape, CRS: crs.MustParse("epsg:4326")}, nil
}

// LonLatBounds returns (west, south, east, north) in degrees. Longitudes of a
// shape crossing the antimeridian are shifted into 0..360 so west < east.
func (g *Geometry) LonLatBounds() (west, south, east, north float64, err error) {
	ll, err := g.ToLonLat()
	if err != nil {
		return 0, 0, 0, 0, err
	}
	b := ll.Bound()
	west, south, east, north = b.Min[0], b.Min[1], b.Max[0], b.Max[1]
	if east-west > 180 {
		west, east = math.Inf(1), math.Inf(-1)
		eachPoint(ll.Shape, func(p orb.Point) {
			lon := p[0]
			if lon < 0 {
				lon += 360
			}
			west = math.Min(west, lon)
			east = math.Max(east, lon)
		})
	}
	return west, south, east, north, nil
}

func eachPoint(g orb.Geometry, fn func(orb.Point)) {
	switch s := g.(type) {
	case orb.Point:
		fn(s)
	case orb.MultiPoint:
		for _, p := range s {
			fn(p)
		}
	case orb.LineString:
		for _, p := range s {
			fn(p)
		}
	case orb.Ring:
		for _, p := range s {
			fn(p)
		}
	case orb.Polygon:
		for _, r := range s {
			eachPoint(r, fn)
		}
	case orb.MultiPolygon:
		for _, p := range s {
			eachPoint(p, fn)
		}
	case orb.MultiLineString:
		for _, l := range s {
			eachPoint(l, fn)
		}
	case orb.Bound:
		eachPoint(s.ToPolygon(), fn)
	}
}

func mapPoints(g orb.Geometry, fn func(orb.Point) orb.Point) {
	switch s := g.(type) {
	case orb.MultiPoint:
		for i := range s {
			s[i] = fn(s[i])
		}
	case orb.LineString:
		for i := range s {
			s[i] = fn(s[i])
		}
	case orb.Ring:
		for i := range s {
			s[i] = fn(s[i])
		}
	case orb.Polygon:
		for _, r := range s {
			mapPoints(r, fn)
		}
	case orb.MultiPolygon:
		for _, p := range s {
			mapPoints(p, fn)
		}
	case orb.MultiLineString:
		for _, l := range s {
			mapPoints(l, fn)
		}
	}
}
