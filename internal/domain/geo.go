package domain

import "math"

const earthRadiusKm = 6371.0

// Point is a WGS-84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Ring is a closed sequence of points. The first and last point may be
// equal (GeoJSON style) or not; containment handles both.
type Ring []Point

// Polygon is one outer ring followed by zero or more hole rings.
type Polygon []Ring

// MultiPolygon is the geometry of a county. Single-polygon counties are a
// MultiPolygon of length one.
type MultiPolygon []Polygon

// Haversine returns the great-circle distance between two points in
// kilometers.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Asin(math.Sqrt(h))
}

// Contains reports whether p lies inside the ring, by ray casting on the
// lon/lat plane. Points exactly on an edge are not guaranteed either way;
// track points that close to a boundary do not change county aggregates
// meaningfully.
func (r Ring) Contains(p Point) bool {
	n := len(r)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		yi, xi := r[i].Lat, r[i].Lon
		yj, xj := r[j].Lat, r[j].Lon
		if (yi > p.Lat) != (yj > p.Lat) &&
			p.Lon < (xj-xi)*(p.Lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// Contains reports whether p lies inside the polygon's outer ring and
// outside all of its holes.
func (poly Polygon) Contains(p Point) bool {
	if len(poly) == 0 || !poly[0].Contains(p) {
		return false
	}
	for _, hole := range poly[1:] {
		if hole.Contains(p) {
			return false
		}
	}
	return true
}

// Contains reports whether p lies inside any member polygon.
func (mp MultiPolygon) Contains(p Point) bool {
	for _, poly := range mp {
		if poly.Contains(p) {
			return true
		}
	}
	return false
}

// Centroid returns the area-weighted centroid of the geometry, used as the
// reference point for storm distance classification. Falls back to the
// vertex mean for degenerate geometry.
func (mp MultiPolygon) Centroid() Point {
	var areaSum, latSum, lonSum float64
	for _, poly := range mp {
		if len(poly) == 0 {
			continue
		}
		a, c := ringCentroid(poly[0])
		areaSum += a
		latSum += c.Lat * a
		lonSum += c.Lon * a
		for _, hole := range poly[1:] {
			a, c = ringCentroid(hole)
			// Holes subtract regardless of winding direction.
			a = -math.Abs(a)
			areaSum += a
			latSum += c.Lat * a
			lonSum += c.Lon * a
		}
	}
	if math.Abs(areaSum) < 1e-12 {
		return mp.vertexMean()
	}
	return Point{Lat: latSum / areaSum, Lon: lonSum / areaSum}
}

// ringCentroid returns the shoelace area (absolute) and centroid of a ring.
func ringCentroid(r Ring) (float64, Point) {
	n := len(r)
	if n < 3 {
		return 0, Point{}
	}
	var area, cLat, cLon float64
	j := n - 1
	for i := 0; i < n; i++ {
		cross := r[j].Lon*r[i].Lat - r[i].Lon*r[j].Lat
		area += cross
		cLon += (r[j].Lon + r[i].Lon) * cross
		cLat += (r[j].Lat + r[i].Lat) * cross
		j = i
	}
	area /= 2
	if math.Abs(area) < 1e-12 {
		return 0, Point{}
	}
	return math.Abs(area), Point{Lat: cLat / (6 * area), Lon: cLon / (6 * area)}
}

func (mp MultiPolygon) vertexMean() Point {
	var lat, lon float64
	var n int
	for _, poly := range mp {
		for _, ring := range poly {
			for _, p := range ring {
				lat += p.Lat
				lon += p.Lon
				n++
			}
		}
	}
	if n == 0 {
		return Point{}
	}
	return Point{Lat: lat / float64(n), Lon: lon / float64(n)}
}

// Bounds returns the geometry's bounding box. An empty geometry yields a
// zero box.
func (mp MultiPolygon) Bounds() BBox {
	first := true
	var b BBox
	for _, poly := range mp {
		for _, ring := range poly {
			for _, p := range ring {
				if first {
					b = BBox{MinLat: p.Lat, MaxLat: p.Lat, MinLon: p.Lon, MaxLon: p.Lon}
					first = false
					continue
				}
				b.MinLat = math.Min(b.MinLat, p.Lat)
				b.MaxLat = math.Max(b.MaxLat, p.Lat)
				b.MinLon = math.Min(b.MinLon, p.Lon)
				b.MaxLon = math.Max(b.MaxLon, p.Lon)
			}
		}
	}
	return b
}

// BBox is a lat/lon bounding box used to pre-filter storm track points
// before the more expensive point-in-polygon attribution.
type BBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether p lies within the box, bounds inclusive.
func (b BBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Expand returns the box grown by the given number of degrees on every side.
func (b BBox) Expand(degrees float64) BBox {
	return BBox{
		MinLat: b.MinLat - degrees,
		MaxLat: b.MaxLat + degrees,
		MinLon: b.MinLon - degrees,
		MaxLon: b.MaxLon + degrees,
	}
}
