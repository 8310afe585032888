package domain

import "strings"

// KeyShape identifies the raw format a source uses for its county join key.
// Adding a source with a new key format means adding a shape here, not
// touching merge logic.
type KeyShape string

const (
	// KeyFiveDigit is a full county FIPS of up to five digits, padded left
	// with zeros ("986" → "00986", "12086" → "12086").
	KeyFiveDigit KeyShape = "five_digit"

	// KeyStatePrefixed is a county-part-only code of up to three digits;
	// the mapper's state FIPS is prepended ("86" + state "12" → "12086").
	KeyStatePrefixed KeyShape = "state_prefixed"

	// KeySlicePrefix is a longer composite code (census tract, block group)
	// whose first five digits are the county FIPS ("12086950200" → "12086").
	KeySlicePrefix KeyShape = "slice_prefix"
)

// KeyMapper normalizes one source's raw join keys to canonical 5-character
// county FIPS codes. The zero value is unusable; construct with a shape.
type KeyMapper struct {
	Shape KeyShape
	// StateFIPS is the 2-digit state prefix required by KeyStatePrefixed.
	StateFIPS string
}

// Canonical returns the canonical FIPS for a raw key, or "" when the key is
// malformed (non-numeric, unusable length). Callers must treat "" as
// unmatchable: exclude the row from the join and count it as a
// data-quality loss rather than failing the run.
func (m KeyMapper) Canonical(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !allDigits(raw) {
		return ""
	}

	switch m.Shape {
	case KeyFiveDigit:
		if len(raw) > 5 {
			return ""
		}
		return leftPad(raw, 5)
	case KeyStatePrefixed:
		if len(raw) > 3 || len(m.StateFIPS) != 2 || !allDigits(m.StateFIPS) {
			return ""
		}
		return m.StateFIPS + leftPad(raw, 3)
	case KeySlicePrefix:
		if len(raw) < 5 {
			return ""
		}
		return raw[:5]
	default:
		return ""
	}
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func leftPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
