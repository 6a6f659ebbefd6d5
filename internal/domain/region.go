package domain

import "strings"

// Monitored bounding box, approximately covering India. Source adapters
// query and sanity-check coordinates against this area.
const (
	MinLatitude  = 6.5
	MaxLatitude  = 37.5
	MinLongitude = 68.0
	MaxLongitude = 98.0
)

// Regions is the fixed, closed set of administrative names events resolve
// into. Risk-zone tables and prediction one-hot features index this list.
var Regions = []string{
	"Andhra Pradesh", "Arunachal Pradesh", "Assam", "Bihar", "Chhattisgarh",
	"Goa", "Gujarat", "Haryana", "Himachal Pradesh", "Jharkhand", "Karnataka",
	"Kerala", "Madhya Pradesh", "Maharashtra", "Manipur", "Meghalaya", "Mizoram",
	"Nagaland", "Odisha", "Punjab", "Rajasthan", "Sikkim", "Tamil Nadu",
	"Telangana", "Tripura", "Uttar Pradesh", "Uttarakhand", "West Bengal",
	"Andaman and Nicobar Islands", "Chandigarh",
	"Dadra and Nagar Haveli and Daman and Diu",
	"Delhi", "Jammu and Kashmir", "Ladakh", "Lakshadweep", "Puducherry",
}

// regionIndex supports O(1) membership and one-hot lookup.
var regionIndex = func() map[string]int {
	m := make(map[string]int, len(Regions))
	for i, r := range Regions {
		m[r] = i
	}
	return m
}()

// RegionIndex returns the position of region in Regions, or -1 if region is
// not in the fixed set.
func RegionIndex(region string) int {
	if i, ok := regionIndex[region]; ok {
		return i
	}
	return -1
}

// ResolveRegion maps a coordinate pair to an administrative region using
// static latitude/longitude bands. Total: never empty, never fails. The
// bands are coarse and intentionally allowed to be wrong near boundaries;
// callers must treat the output as a best-effort bucket.
func ResolveRegion(lat, lon float64) string {
	switch {
	case lat > 28.0: // northern belt
		switch {
		case lon < 77.0:
			return "Jammu and Kashmir"
		case lon < 80.0:
			return "Himachal Pradesh"
		case lon < 85.0:
			return "Uttarakhand"
		case lon < 90.0:
			return "Sikkim"
		default:
			return "Arunachal Pradesh"
		}
	case lat > 20.0: // central belt
		switch {
		case lon < 75.0:
			return "Gujarat"
		case lon < 78.0:
			return "Madhya Pradesh"
		case lon < 82.0:
			return "Uttar Pradesh"
		case lon < 87.0:
			return "Bihar"
		default:
			return "West Bengal"
		}
	default: // southern belt
		switch {
		case lon < 75.0:
			return "Kerala"
		case lon < 80.0:
			return "Tamil Nadu"
		case lon < 85.0:
			return "Andhra Pradesh"
		default:
			return "Odisha"
		}
	}
}

// MatchRegion approximately matches free-form input against the fixed region
// set: exact first, then case-insensitive substring containment in either
// direction ("kashmir" → "Jammu and Kashmir", "Tamil Nadu state" → "Tamil
// Nadu"). Returns false when nothing matches; callers fall back to a
// hazard-appropriate default region.
func MatchRegion(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if _, ok := regionIndex[s]; ok {
		return s, true
	}
	lower := strings.ToLower(s)
	for _, r := range Regions {
		rl := strings.ToLower(r)
		if strings.Contains(rl, lower) || strings.Contains(lower, rl) {
			return r, true
		}
	}
	return "", false
}
