// Package domain models county-level hurricane vulnerability data.
//
// # Data Sources
//
// The fusion pipeline joins five independently published datasets onto the
// US Census TIGER/Line county boundary layer:
//
//   - County GDP (Bureau of Economic Analysis), millions of USD
//   - CDC Social Vulnerability Index (SVI), overall percentile 0–1
//   - FEMA National Risk Index (NRI), categorical hurricane risk rating
//   - NOAA IBTrACS historical storm tracks, per-point position and wind
//   - Statista property/land-use enrichment (median home value, rural status)
//
// # FIPS Join Keys
//
// Every source is joined on the 5-character county FIPS code: 2-digit state
// FIPS + 3-digit county FIPS, zero-padded ("12086" = Miami-Dade, FL). Raw
// sources encode this key in three shapes:
//
//	five_digit:      "12086" or "986"  → zero-pad left to 5
//	state_prefixed:  "86" (county part only) → state FIPS + zero-pad to 3
//	slice_prefix:    "12086950200" (tract-level code) → first 5 characters
//
// A key that is non-numeric or has an unusable length normalizes to the
// empty string. Such rows are excluded from the join and counted as a
// data-quality loss; they are never a fatal error. See [KeyMapper].
//
// # Normalization
//
// Two strategies coexist deliberately:
//
//	Population min-max ([Normalize]): relative to the run's full county
//	population. Re-running on a different county subset changes every
//	output. Used for the base vulnerability inputs.
//
//	Fixed physical range ([FixedRange]): wind speeds are scaled against
//	Saffir-Simpson bounds (34 kt tropical-storm threshold, 137 kt Cat 5,
//	160 kt extreme) so hurricane risk stays comparable across runs with
//	different county subsets.
//
// Unifying the two would silently change every historical score, so the
// asymmetry is preserved as observed behavior.
//
// # Composite Score Versions
//
// Three weighted formula versions exist side by side in a [Scorecard]:
//
//	base:     0.40 hurricane risk (NRI categorical) + 0.30 SVI + 0.30 economic
//	noaa:     same weights, hurricane risk from IBTrACS frequency/intensity
//	statista: 0.25 hurricane + 0.20 SVI + 0.20 economic
//	          + 0.20 property exposure + 0.15 rural factor
//
// Every version clamps to [0,1], maps to a category at thresholds
// 0.8/0.6/0.4/0.2 (Critical/High/Moderate/Low/Very Low), and carries a
// descending competition rank (ties share the best rank; [0.9,0.9,0.7]
// ranks 1,1,3). A version is recomputed in full from its declared inputs
// and never overwrites another version's fields.
//
// # Wind Speed Conventions
//
// Sustained winds are in knots throughout. Saffir-Simpson categories:
// <34 tropical depression, <64 tropical storm, then hurricane categories
// 1–5 at 64/83/96/113/137 kt. See [CategorizeWind].
package domain
