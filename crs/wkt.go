package crs

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/wroge/wgs84"
)

var wktRoots = map[string]bool{
	"PROJCS": true, "GEOGCS": true, "GEOCCS": true, "COMPD_CS": true,
	"PROJCRS": true, "GEOGCRS": true, "GEODCRS": true, "BASEGEOGCRS": false,
	"PROJECTEDCRS": true, "GEODETICCRS": true, "GEOGRAPHICCRS": true,
}

var wktGeographic = map[string]bool{
	"GEOGCS": true, "GEOGCRS": true, "GEODCRS": true, "GEODETICCRS": true, "GEOGRAPHICCRS": true,
}

func looksLikeWKT(s string) bool {
	i := strings.IndexAny(s, "[(")
	if i <= 0 {
		return false
	}
	return wktRoots[strings.ToUpper(strings.TrimSpace(s[:i]))]
}

// wktNode is KEYWORD[arg, arg, ...]; args are strings, numbers or nodes.
type wktNode struct {
	keyword string
	args    []any
}

type wktNumber string

func parseWKT(s string) (*CRS, error) {
	p := &wktParser{src: s}
	root, err := p.node()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCRS, err)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("%w: trailing content after WKT at offset %d", ErrInvalidCRS, p.pos)
	}
	c := &CRS{text: s, wkt: true, geographic: wktGeographic[root.keyword]}
	if len(root.args) > 0 {
		if name, ok := root.args[0].(string); ok {
			c.name = name
		}
	}
	if code := authorityCode(root); code != 0 {
		c.epsg = code
		c.ref = registry.Code(code)
	}
	if c.ref == nil {
		c.ref = wktReference(root)
	}
	return c, nil
}

// wktReference builds a transformation from the definition itself. Only
// geographic CRSs and the Transverse Mercator, Albers, Lambert conic and
// web Mercator projections are understood.
func wktReference(root *wktNode) wgs84.CoordinateReferenceSystem {
	ell := root.find("SPHEROID", "ELLIPSOID")
	if ell == nil || len(ell.args) < 3 {
		return nil
	}
	a, okA := wktFloat(ell.args[1])
	fi, okF := wktFloat(ell.args[2])
	if !okA || !okF || a <= 0 || fi <= 0 {
		return nil
	}
	var shift [7]float64
	if to := root.find("TOWGS84"); to != nil {
		for i := 0; i < len(shift) && i < len(to.args); i++ {
			shift[i], _ = wktFloat(to.args[i])
		}
	}
	datum := wgs84.Helmert(a, fi, shift[0], shift[1], shift[2], shift[3], shift[4], shift[5], shift[6])
	if wktGeographic[root.keyword] {
		return datum.LonLat()
	}

	method := root.find("PROJECTION", "METHOD")
	if method == nil || len(method.args) == 0 {
		return nil
	}
	name, _ := method.args[0].(string)
	params := map[string]float64{}
	root.each("PARAMETER", func(n *wktNode) {
		if len(n.args) < 2 {
			return
		}
		key, _ := n.args[0].(string)
		if v, ok := wktFloat(n.args[1]); ok {
			params[wktKey(key)] = v
		}
	})
	p := func(keys ...string) float64 {
		for _, k := range keys {
			if v, ok := params[k]; ok {
				return v
			}
		}
		return 0
	}
	lon0 := p("central_meridian", "longitude_of_center", "longitude_of_natural_origin", "longitude_of_false_origin")
	lat0 := p("latitude_of_origin", "latitude_of_center", "latitude_of_natural_origin", "latitude_of_false_origin")
	east := p("false_easting", "easting_at_false_origin")
	north := p("false_northing", "northing_at_false_origin")
	lat1 := p("standard_parallel_1", "latitude_of_1st_standard_parallel")
	lat2 := p("standard_parallel_2", "latitude_of_2nd_standard_parallel")

	switch wktKey(name) {
	case "transverse_mercator":
		scale := p("scale_factor", "scale_factor_at_natural_origin")
		if scale == 0 {
			scale = 1
		}
		return datum.TransverseMercator(lon0, lat0, scale, east, north)
	case "albers_conic_equal_area", "albers_equal_area":
		return datum.AlbersEqualAreaConic(lon0, lat0, lat1, lat2, east, north)
	case "lambert_conformal_conic_2sp", "lambert_conic_conformal_(2sp)":
		return datum.LambertConformalConic2SP(lon0, lat0, lat1, lat2, east, north)
	case "mercator_auxiliary_sphere", "popular_visualisation_pseudo_mercator":
		return datum.WebMercator()
	}
	return nil
}

// wktKey folds WKT1 and WKT2 parameter and method names together.
func wktKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

func wktFloat(a any) (float64, bool) {
	n, ok := a.(wktNumber)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(n), 64)
	return v, err == nil
}

// find returns the first node, depth first, with one of the keywords.
func (n *wktNode) find(keywords ...string) *wktNode {
	for _, a := range n.args {
		child, ok := a.(*wktNode)
		if !ok {
			continue
		}
		for _, k := range keywords {
			if child.keyword == k {
				return child
			}
		}
		if found := child.find(keywords...); found != nil {
			return found
		}
	}
	return nil
}

// each calls fn for every descendant with the keyword.
func (n *wktNode) each(keyword string, fn func(*wktNode)) {
	for _, a := range n.args {
		if child, ok := a.(*wktNode); ok {
			if child.keyword == keyword {
				fn(child)
			}
			child.each(keyword, fn)
		}
	}
}

// authorityCode finds the EPSG code attached directly to the root node
// (AUTHORITY["EPSG","32655"] in WKT1, ID["EPSG",32655] in WKT2).
func authorityCode(root *wktNode) int {
	for _, a := range root.args {
		n, ok := a.(*wktNode)
		if !ok || (n.keyword != "AUTHORITY" && n.keyword != "ID") || len(n.args) < 2 {
			continue
		}
		auth, _ := n.args[0].(string)
		if !strings.EqualFold(auth, "EPSG") {
			continue
		}
		var raw string
		switch v := n.args[1].(type) {
		case string:
			raw = v
		case wktNumber:
			raw = string(v)
		}
		if code, err := strconv.Atoi(raw); err == nil {
			return code
		}
	}
	return 0
}

type wktParser struct {
	src string
	pos int
}

func (p *wktParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *wktParser) node() (*wktNode, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && (unicode.IsLetter(rune(p.src[p.pos])) || unicode.IsDigit(rune(p.src[p.pos])) || p.src[p.pos] == '_') {
		p.pos++
	}
	if start == p.pos {
		return nil, fmt.Errorf("expected keyword at offset %d", p.pos)
	}
	n := &wktNode{keyword: strings.ToUpper(p.src[start:p.pos])}
	p.skipSpace()
	if p.pos >= len(p.src) || (p.src[p.pos] != '[' && p.src[p.pos] != '(') {
		// bare enumeration value such as EAST or NORTH
		return n, nil
	}
	closer := byte(']')
	if p.src[p.pos] == '(' {
		closer = ')'
	}
	p.pos++
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("unterminated %s", n.keyword)
		}
		if p.src[p.pos] == closer {
			p.pos++
			return n, nil
		}
		arg, err := p.arg()
		if err != nil {
			return nil, err
		}
		n.args = append(n.args, arg)
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == ',' {
			p.pos++
		}
	}
}

func (p *wktParser) arg() (any, error) {
	c := p.src[p.pos]
	switch {
	case c == '"':
		p.pos++
		b := &strings.Builder{}
		for p.pos < len(p.src) {
			if p.src[p.pos] == '"' {
				// "" is an escaped quote
				if p.pos+1 < len(p.src) && p.src[p.pos+1] == '"' {
					b.WriteByte('"')
					p.pos += 2
					continue
				}
				p.pos++
				return b.String(), nil
			}
			b.WriteByte(p.src[p.pos])
			p.pos++
		}
		return nil, fmt.Errorf("unterminated string")
	case c == '-' || c == '+' || c == '.' || unicode.IsDigit(rune(c)):
		start := p.pos
		for p.pos < len(p.src) && strings.ContainsRune("+-.eE0123456789", rune(p.src[p.pos])) {
			p.pos++
		}
		raw := p.src[start:p.pos]
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return nil, fmt.Errorf("bad number %q", raw)
		}
		return wktNumber(raw), nil
	default:
		return p.node()
	}
}
