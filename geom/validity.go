package geom

import (
	"github.com/paulmach/orb"
	sf "github.com/peterstace/simplefeatures/geom"
)

// IsValid reports whether the shape is a valid simple geometry.
func (g *Geometry) IsValid() bool { return ExplainValidity(g.Shape) == "" }

// ExplainValidity returns "" for a valid shape, otherwise the reason the
// OGC simple feature rules reject it: unclosed or self-intersecting rings,
// holes outside their shell, overlapping multipolygon parts and so on.
func ExplainValidity(g orb.Geometry) string {
	var err error
	switch s := g.(type) {
	case nil:
		return "Empty geometry"
	case orb.Point:
		err = sf.NewPointXY(s[0], s[1]).Validate()
	case orb.LineString:
		if len(s) < 2 {
			return "Too few points in geometry component"
		}
		err = sf.NewLineStringXY(flatten(s)...).Validate()
	case orb.Ring:
		err = polygon(orb.Polygon{s}).Validate()
	case orb.Polygon:
		if len(s) == 0 {
			return "Empty geometry"
		}
		err = polygon(s).Validate()
	case orb.MultiPolygon:
		if len(s) == 0 {
			return "Empty geometry"
		}
		rings := make([][][]float64, len(s))
		for i, p := range s {
			rings[i] = polygonCoords(p)
		}
		err = sf.NewMultiPolygonXY(rings...).Validate()
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

func polygon(p orb.Polygon) sf.Polygon {
	return sf.NewPolygonXY(polygonCoords(p)...)
}

func polygonCoords(p orb.Polygon) [][]float64 {
	rings := make([][]float64, len(p))
	for i, r := range p {
		rings[i] = flatten(r)
	}
	return rings
}

func flatten[T ~[]orb.Point](pts T) []float64 {
	out := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		out = append(out, p[0], p[1])
	}
	return out
}
