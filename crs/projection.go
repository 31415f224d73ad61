package crs

import (
	"fmt"

	"github.com/wroge/wgs84"
)

// registry extends the library's EPSG table with the Australasian systems
// EO3 datasets are commonly published in.
var registry = newRegistry()

// grs80 is GDA94, GDA2020 and NZGD2000: GRS80 with no shift from WGS 84 at
// the precision extents need.
var grs80 = wgs84.Datum{Spheroid: wgs84.GRS80{}}

func newRegistry() *wgs84.Repository {
	r := wgs84.EPSG()
	r.Add(4283, grs80.LonLat())
	r.Add(7844, grs80.LonLat())
	r.Add(4167, grs80.LonLat())
	r.Add(3577, grs80.AlbersEqualAreaConic(132, 0, -18, -36, 0, 0))
	r.Add(9473, grs80.AlbersEqualAreaConic(132, 0, -18, -36, 0, 0))
	r.Add(3112, grs80.LambertConformalConic2SP(134, 0, -18, -36, 0, 0))
	r.Add(7845, grs80.LambertConformalConic2SP(134, 0, -18, -36, 0, 0))
	r.Add(2193, grs80.TransverseMercator(173, 0, 0.9996, 1600000, 10000000))
	for zone := 48; zone <= 58; zone++ {
		r.Add(28300+zone, mga(zone))
	}
	for zone := 46; zone <= 59; zone++ {
		r.Add(7800+zone, mga(zone))
	}
	return r
}

// mga is the Map Grid of Australia zone, a southern UTM zone on GRS80.
func mga(zone int) wgs84.ProjectedReferenceSystem {
	return grs80.TransverseMercator(float64(zone*6-183), 0, 0.9996, 500000, 10000000)
}

var epsgNames = map[int]string{
	4326: "WGS 84",
	4283: "GDA94",
	7844: "GDA2020",
	4167: "NZGD2000",
	4258: "ETRS89",
	4269: "NAD83",
	3857: "WGS 84 / Pseudo-Mercator",
	3577: "GDA94 / Australian Albers",
	9473: "GDA2020 / Australian Albers",
	3112: "GDA94 / Geoscience Australia Lambert",
	7845: "GDA2020 / GA LCC",
	2193: "NZGD2000 / New Zealand Transverse Mercator 2000",
}

func epsgName(code int) string {
	if name, ok := epsgNames[code]; ok {
		return name
	}
	switch {
	case code > 32600 && code <= 32660:
		return fmt.Sprintf("WGS 84 / UTM zone %dN", code-32600)
	case code > 32700 && code <= 32760:
		return fmt.Sprintf("WGS 84 / UTM zone %dS", code-32700)
	case code >= 28348 && code <= 28358:
		return fmt.Sprintf("GDA94 / MGA zone %d", code-28300)
	case code >= 7846 && code <= 7859:
		return fmt.Sprintf("GDA2020 / MGA zone %d", code-7800)
	}
	return fmt.Sprintf("EPSG:%d", code)
}
