// Package merge loads the raw source tables, normalizes their join keys,
// left-joins them onto the base county layer, and applies the named
// fallback defaults for unmatched counties. All functions are pure over
// in-memory collections; the pipeline owns logging and metrics.
package merge

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/county-risk-fusion/internal/domain"
)

// ErrBaseLayerMissing marks an absent base boundary file, which is fatal
// for the run.
var ErrBaseLayerMissing = errors.New("base county layer missing")

// ErrSourceMissing marks an absent required auxiliary source file.
var ErrSourceMissing = errors.New("required source missing")

// Source describes one auxiliary table: where it lives, which column holds
// the join key, and which KeyMapper variant normalizes it. Adding a new
// source means declaring a Source, not touching join logic.
type Source struct {
	Name      string
	Path      string
	KeyColumn string
	Mapper    domain.KeyMapper
	Required  bool
}

// Coverage reports one source's join outcome so operators can detect
// key-format regressions (e.g. a source dropping from 67 to 40 matches).
type Coverage struct {
	Source    string
	Matched   int
	Base      int
	Malformed int
}

// Ratio returns the matched fraction of base rows.
func (c Coverage) Ratio() float64 {
	if c.Base == 0 {
		return 0
	}
	return float64(c.Matched) / float64(c.Base)
}

// table is a parsed CSV with header-indexed access.
type table struct {
	columns map[string]int
	rows    [][]string
}

func (t *table) cell(row []string, column string) string {
	idx, ok := t.columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// readTable parses a CSV file. Rows shorter than the header are kept;
// missing cells read as empty. A wrapped src.Required-aware error is the
// caller's concern.
func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rows of %s: %w", path, err)
		}
		rows = append(rows, row)
	}

	return &table{columns: columns, rows: rows}, nil
}

// openSource reads a source's CSV, mapping absence onto the error taxonomy:
// required sources abort with guidance, optional ones return (nil, nil).
func openSource(src Source) (*table, error) {
	t, err := readTable(src.Path)
	if err == nil {
		return t, nil
	}
	if os.IsNotExist(err) {
		if !src.Required {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s (%s) — provide the file or rerun the upstream download step", ErrSourceMissing, src.Name, src.Path)
	}
	return nil, fmt.Errorf("load %s: %w", src.Name, err)
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
