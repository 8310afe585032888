// Package artifact persists and reads the run outputs: the scored GeoJSON
// layer, its tabular CSV companion, the summary documents, and the
// real-time threat snapshots. Every write is atomic (temp file plus
// rename), so a crashed or failed run leaves the previously published
// artifact intact and readers never observe a partial file.
package artifact

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/county-risk-fusion/internal/domain"
)

// Published artifact file names under the store directory.
const (
	ScoredLayerFile   = "counties.geojson"
	ScoredTableFile   = "counties.csv"
	SummaryFile       = "summary_stats.json"
	EnhancedFile      = "enhanced_stats.json"
	ActiveStormsFile  = "active_storms.json"
	CountyThreatsFile = "county_threats.json"
)

// ErrNotPublished marks a read of an artifact no run has produced yet.
var ErrNotPublished = errors.New("artifact not published")

// Store is a directory of published run artifacts.
type Store struct {
	dir string
}

// NewStore opens (creating if needed) the artifact directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the published location of a named artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// write publishes bytes atomically: the content lands in a temp file in
// the same directory, then renames over the target.
func (s *Store) write(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("stage %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("stage %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish %s: %w", name, err)
	}
	return nil
}

// WriteJSON publishes any document as indented JSON.
func (s *Store) WriteJSON(name string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return s.write(name, append(data, '\n'))
}

// ReadJSON loads a published JSON artifact into doc. A never-published
// artifact reads as ErrNotPublished.
func (s *Store) ReadJSON(name string, doc any) error {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotPublished, name)
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// layerProperties is the scored layer's per-feature property schema:
// everything about a county except its geometry.
type layerProperties struct {
	FIPS       string               `json:"fips"`
	Name       string               `json:"name"`
	Source     domain.SourceMetrics `json:"source_metrics"`
	Indicators domain.Indicators    `json:"indicators"`
	Scores     domain.Scorecard     `json:"scores"`
}

// WriteScoredLayer publishes the counties as a GeoJSON FeatureCollection.
// Every computed score version rides along in the properties; geometry is
// encoded as MultiPolygon.
func (s *Store) WriteScoredLayer(counties []domain.County) error {
	fc := domain.FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]domain.Feature, 0, len(counties)),
	}
	for i := range counties {
		c := &counties[i]
		geom, err := domain.GeometryFrom(c.Geometry)
		if err != nil {
			return fmt.Errorf("county %s: %w", c.FIPS, err)
		}
		props, err := json.Marshal(layerProperties{
			FIPS:       c.FIPS,
			Name:       c.Name,
			Source:     c.Source,
			Indicators: c.Indicators,
			Scores:     c.Scores,
		})
		if err != nil {
			return fmt.Errorf("county %s properties: %w", c.FIPS, err)
		}
		fc.Features = append(fc.Features, domain.Feature{
			Type:       "Feature",
			Geometry:   geom,
			Properties: props,
		})
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("encode scored layer: %w", err)
	}
	return s.write(ScoredLayerFile, data)
}

// ReadScoredLayer loads the published scored layer back into counties,
// geometry included. The threat classifier daemon uses this so it never
// depends on an in-process pipeline run.
func (s *Store) ReadScoredLayer() ([]domain.County, error) {
	var fc domain.FeatureCollection
	if err := s.ReadJSON(ScoredLayerFile, &fc); err != nil {
		return nil, err
	}

	counties := make([]domain.County, 0, len(fc.Features))
	for _, feat := range fc.Features {
		var props layerProperties
		if err := json.Unmarshal(feat.Properties, &props); err != nil {
			return nil, fmt.Errorf("decode scored layer properties: %w", err)
		}
		geom, err := feat.Geometry.AsMultiPolygon()
		if err != nil {
			return nil, fmt.Errorf("county %s: %w", props.FIPS, err)
		}
		counties = append(counties, domain.County{
			FIPS:       props.FIPS,
			Name:       props.Name,
			Geometry:   geom,
			Source:     props.Source,
			Indicators: props.Indicators,
			Scores:     props.Scores,
		})
	}
	return counties, nil
}

// scoredTableHeader is the column order of the CSV companion.
var scoredTableHeader = []string{
	"fips", "name",
	"gdp_per_capita", "hurricane_risk", "social_vulnerability", "economic_vulnerability",
	"storm_count", "avg_wind_speed", "max_wind_speed",
	"canonical_version", "score", "category", "rank",
}

// WriteScoredTable publishes the flat CSV view of the scored layer, one
// row per county with its canonical score triple.
func (s *Store) WriteScoredTable(counties []domain.County) error {
	tmp, err := os.CreateTemp(s.dir, ScoredTableFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", ScoredTableFile, err)
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.Write(scoredTableHeader); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("stage %s: %w", ScoredTableFile, err)
	}
	for i := range counties {
		c := &counties[i]
		ind := c.Indicators
		canonical := c.Scores.CanonicalScore()
		row := []string{
			c.FIPS, c.Name,
			formatFloat(ind.GDPPerCapita), formatFloat(ind.HurricaneRisk),
			formatFloat(ind.SocialVuln), formatFloat(ind.EconomicVuln),
			strconv.Itoa(ind.StormCount), formatFloat(ind.AvgWindKt), formatFloat(ind.MaxWindKt),
			string(c.Scores.Canonical), formatFloat(canonical.Score), canonical.Category, strconv.Itoa(canonical.Rank),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("stage %s: %w", ScoredTableFile, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("stage %s: %w", ScoredTableFile, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("stage %s: %w", ScoredTableFile, err)
	}
	if err := os.Rename(tmpName, s.Path(ScoredTableFile)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish %s: %w", ScoredTableFile, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
