package predict

// Tier is a qualitative risk bucket assigned per region per hazard.
type Tier int

const (
	TierUnknown Tier = iota
	TierLow
	TierModerate
	TierHigh
	TierVeryHigh
)

func (t Tier) String() string {
	switch t {
	case TierVeryHigh:
		return "very high"
	case TierHigh:
		return "high"
	case TierModerate:
		return "moderate"
	case TierLow:
		return "low"
	}
	return "unknown"
}

// RiskZoneTable maps region names to risk tiers and numeric risk factors.
// Immutable at runtime. Regions absent from every tier get the moderate
// factor 0.5.
type RiskZoneTable struct {
	tiers     map[string]Tier
	lowFactor float64
}

func newRiskZoneTable(veryHigh, high, moderate, low []string, lowFactor float64) *RiskZoneTable {
	t := &RiskZoneTable{tiers: map[string]Tier{}, lowFactor: lowFactor}
	for _, r := range veryHigh {
		t.tiers[r] = TierVeryHigh
	}
	for _, r := range high {
		t.tiers[r] = TierHigh
	}
	for _, r := range moderate {
		t.tiers[r] = TierModerate
	}
	for _, r := range low {
		t.tiers[r] = TierLow
	}
	return t
}

// Tier returns the region's risk tier, or TierUnknown when unlisted.
func (t *RiskZoneTable) Tier(region string) Tier {
	return t.tiers[region]
}

// Factor converts the region's tier to a numeric risk factor in [0,1].
// Unlisted regions default to moderate risk.
func (t *RiskZoneTable) Factor(region string) float64 {
	switch t.tiers[region] {
	case TierVeryHigh:
		return 0.9
	case TierHigh:
		return 0.7
	case TierModerate:
		return 0.5
	case TierLow:
		return t.lowFactor
	}
	return 0.5
}

// SeismicRiskZones follows the seismic zoning of India.
var SeismicRiskZones = newRiskZoneTable(
	[]string{
		"Jammu and Kashmir", "Himachal Pradesh", "Uttarakhand", "Sikkim", "Assam",
		"Arunachal Pradesh", "Nagaland", "Manipur", "Mizoram", "Tripura",
		"Meghalaya", "Andaman and Nicobar Islands",
	},
	[]string{"Delhi", "Bihar", "West Bengal", "Gujarat", "Maharashtra"},
	[]string{"Rajasthan", "Haryana", "Uttar Pradesh", "Madhya Pradesh", "Jharkhand", "Odisha"},
	[]string{
		"Punjab", "Chandigarh", "Goa", "Karnataka", "Andhra Pradesh", "Telangana",
		"Tamil Nadu", "Kerala", "Puducherry", "Lakshadweep",
		"Dadra and Nagar Haveli and Daman and Diu",
	},
	0.3,
)

// FloodRiskZones follows historical flood incidence.
var FloodRiskZones = newRiskZoneTable(
	[]string{"Assam", "Bihar", "West Bengal", "Uttar Pradesh", "Kerala", "Odisha"},
	[]string{"Gujarat", "Maharashtra", "Tamil Nadu", "Andhra Pradesh", "Telangana", "Karnataka"},
	[]string{"Madhya Pradesh", "Jharkhand", "Chhattisgarh", "Punjab", "Haryana", "Rajasthan"},
	[]string{
		"Himachal Pradesh", "Uttarakhand", "Jammu and Kashmir", "Goa", "Sikkim",
		"Manipur", "Mizoram", "Nagaland", "Meghalaya", "Tripura", "Arunachal Pradesh",
	},
	0.3,
)

// CycloneRiskZones covers the coastal belt. Inland regions carry a lower
// floor factor (0.2) than the other hazards.
var CycloneRiskZones = newRiskZoneTable(
	[]string{"Odisha", "West Bengal", "Andhra Pradesh", "Tamil Nadu", "Gujarat", "Kerala"},
	[]string{"Maharashtra", "Karnataka", "Goa", "Puducherry", "Andaman and Nicobar Islands"},
	[]string{"Telangana", "Lakshadweep"},
	[]string{
		"Arunachal Pradesh", "Assam", "Bihar", "Chhattisgarh", "Haryana",
		"Himachal Pradesh", "Jharkhand", "Madhya Pradesh", "Manipur", "Meghalaya",
		"Mizoram", "Nagaland", "Punjab", "Rajasthan", "Sikkim", "Tripura",
		"Uttar Pradesh", "Uttarakhand", "Chandigarh",
		"Dadra and Nagar Haveli and Daman and Diu", "Delhi", "Jammu and Kashmir",
		"Ladakh",
	},
	0.2,
)
