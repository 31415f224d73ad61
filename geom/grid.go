package geom

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/reoring/eo3/codec"
	"github.com/reoring/eo3/crs"
)

// ErrInvalidGrid is returned by NewGrid for a malformed grid definition.
var ErrInvalidGrid = errors.New("invalid grid")

// Affine maps pixel (col, row) to CRS (x, y):
//
//	x = A*col + B*row + C
//	y = D*col + E*row + F
type Affine struct{ A, B, C, D, E, F float64 }

// Identity is the identity transform.
var Identity = Affine{A: 1, E: 1}

// Translation returns a transform that shifts by (x, y).
func Translation(x, y float64) Affine { return Affine{A: 1, C: x, E: 1, F: y} }

// Apply transforms a pixel coordinate.
func (a Affine) Apply(col, row float64) (x, y float64) {
	return a.A*col + a.B*row + a.C, a.D*col + a.E*row + a.F
}

// Slice is the 6-element form used in documents.
func (a Affine) Slice() []float64 { return []float64{a.A, a.B, a.C, a.D, a.E, a.F} }

// AffineFromSlice accepts the 6 or 9 element forms. In the 9 element form
// the trailing row must be 0, 0, 1.
func AffineFromSlice(v any) (Affine, error) {
	items, ok := toSlice(v)
	if !ok {
		return Affine{}, fmt.Errorf("%w: transform must be a list of numbers", ErrInvalidGrid)
	}
	if len(items) != 6 && len(items) != 9 {
		return Affine{}, fmt.Errorf("%w: transform must have 6 or 9 elements, got %d", ErrInvalidGrid, len(items))
	}
	f := make([]float64, len(items))
	for i, item := range items {
		if !codec.IsNumber(item) {
			return Affine{}, fmt.Errorf("%w: transform element %d is not a number: %v", ErrInvalidGrid, i, item)
		}
		f[i], _ = codec.ToFloat(item)
	}
	if len(f) == 9 && (f[6] != 0 || f[7] != 0 || f[8] != 1) {
		return Affine{}, fmt.Errorf("%w: last 3 elements of a 9 element transform must be 0,0,1", ErrInvalidGrid)
	}
	return Affine{f[0], f[1], f[2], f[3], f[4], f[5]}, nil
}

// Grid is a pixel grid: Shape is (rows, cols).
type Grid struct {
	Shape     [2]int
	Transform Affine
	CRS       *crs.CRS
}

// NewGrid reads a grid definition ({"shape": [ny, nx], "transform": [...]}).
func NewGrid(doc map[string]any, c *crs.CRS) (*Grid, error) {
	rawShape, ok := doc["shape"]
	if !ok || rawShape == nil {
		return nil, fmt.Errorf("%w: no shape", ErrInvalidGrid)
	}
	shape, ok := toSlice(rawShape)
	if !ok || len(shape) != 2 {
		return nil, fmt.Errorf("%w: shape must be 2-dimensional", ErrInvalidGrid)
	}
	g := &Grid{CRS: c}
	for i, s := range shape {
		n, err := codec.ToInt(s)
		if err != nil || !codec.IsNumber(s) {
			return nil, fmt.Errorf("%w: shape must be integers", ErrInvalidGrid)
		}
		g.Shape[i] = n
	}
	rawTransform, ok := doc["transform"]
	if !ok || rawTransform == nil {
		return nil, fmt.Errorf("%w: no transform", ErrInvalidGrid)
	}
	t, err := AffineFromSlice(rawTransform)
	if err != nil {
		return nil, err
	}
	g.Transform = t
	return g, nil
}

// Points returns the corner points ul, ur, lr, ll in CRS coordinates. With
// ring set the first point is repeated at the end.
func (g *Grid) Points(ring bool) []orb.Point {
	ny, nx := float64(g.Shape[0]), float64(g.Shape[1])
	pix := [][2]float64{{0, 0}, {nx, 0}, {nx, ny}, {0, ny}}
	out := make([]orb.Point, 0, 5)
	for _, p := range pix {
		x, y := g.Transform.Apply(p[0], p[1])
		out = append(out, orb.Point{x, y})
	}
	if ring {
		out = append(out, out[0])
	}
	return out
}

// RefPoints returns the named corners as {"ul": {"x": .., "y": ..}, ...}.
func (g *Grid) RefPoints() map[string]map[string]float64 {
	pts := g.Points(false)
	names := [...]string{"ul", "ur", "lr", "ll"}
	out := make(map[string]map[string]float64, len(names))
	for i, n := range names {
		out[n] = map[string]float64{"x": pts[i][0], "y": pts[i][1]}
	}
	return out
}

// Polygon is the grid footprint. c overrides the grid's own CRS when set.
func (g *Grid) Polygon(c *crs.CRS) *Geometry {
	if c == nil {
		c = g.CRS
	}
	return Polygon(g.Points(true), c)
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []float64:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []int:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	}
	return nil, false
}
