package domain

import (
	"encoding/json"
	"fmt"
)

// GeoJSON container types. Properties stay raw so each consumer can bind
// its own schema: the merger reads TIGER/Line boundary properties, the
// artifact store round-trips the scored-layer properties.

// FeatureCollection is a GeoJSON FeatureCollection document.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one GeoJSON feature with untyped properties.
type Feature struct {
	Type       string          `json:"type"`
	Geometry   Geometry        `json:"geometry"`
	Properties json.RawMessage `json:"properties"`
}

// Geometry is a GeoJSON geometry with coordinates left raw until the type
// is known.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// AsMultiPolygon decodes Polygon or MultiPolygon coordinates into the
// domain geometry. GeoJSON positions are [lon, lat].
func (g Geometry) AsMultiPolygon() (MultiPolygon, error) {
	switch g.Type {
	case "Polygon":
		var coords [][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("decode polygon coordinates: %w", err)
		}
		return MultiPolygon{polygonFromCoords(coords)}, nil
	case "MultiPolygon":
		var coords [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("decode multipolygon coordinates: %w", err)
		}
		mp := make(MultiPolygon, 0, len(coords))
		for _, poly := range coords {
			mp = append(mp, polygonFromCoords(poly))
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

// GeometryFrom encodes the domain geometry as a GeoJSON MultiPolygon.
func GeometryFrom(mp MultiPolygon) (Geometry, error) {
	coords := make([][][][]float64, 0, len(mp))
	for _, poly := range mp {
		p := make([][][]float64, 0, len(poly))
		for _, ring := range poly {
			r := make([][]float64, 0, len(ring))
			for _, pt := range ring {
				r = append(r, []float64{pt.Lon, pt.Lat})
			}
			p = append(p, r)
		}
		coords = append(coords, p)
	}
	raw, err := json.Marshal(coords)
	if err != nil {
		return Geometry{}, fmt.Errorf("encode multipolygon coordinates: %w", err)
	}
	return Geometry{Type: "MultiPolygon", Coordinates: raw}, nil
}

func polygonFromCoords(coords [][][]float64) Polygon {
	poly := make(Polygon, 0, len(coords))
	for _, ring := range coords {
		r := make(Ring, 0, len(ring))
		for _, pos := range ring {
			if len(pos) < 2 {
				continue
			}
			r = append(r, Point{Lon: pos[0], Lat: pos[1]})
		}
		poly = append(poly, r)
	}
	return poly
}
