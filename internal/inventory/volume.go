package inventory

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// volumeRule is one entry in the ordered estimation table. The first rule
// whose pattern matches the lowercased label wins, so specific patterns
// (queen bed) must stay above general ones (bed).
type volumeRule struct {
	pattern   *regexp.Regexp
	cubicFeet float64
	weight    float64            // 0 means no rule-specific weight
	sizeMults map[string]float64 // keyed by size-descriptor substring
}

var standardSizeMults = map[string]float64{
	"extra large": 1.5,
	"xl":          1.5,
	"large":       1.3,
	"medium":      1.0,
	"small":       0.7,
}

var volumeRules = []volumeRule{
	// Beds and bedroom pieces, specific patterns first. Everything whose
	// label can contain "bed" must sit above the generic bed rule.
	{pattern: regexp.MustCompile(`california king|cal king`), cubicFeet: 90, weight: 180},
	{pattern: regexp.MustCompile(`king (size )?bed|king mattress`), cubicFeet: 85, weight: 170},
	{pattern: regexp.MustCompile(`queen (size )?bed|queen mattress`), cubicFeet: 70, weight: 150},
	{pattern: regexp.MustCompile(`full (size )?bed|double bed`), cubicFeet: 60, weight: 130},
	{pattern: regexp.MustCompile(`twin (size )?bed|single bed`), cubicFeet: 45, weight: 90},
	{pattern: regexp.MustCompile(`bunk bed`), cubicFeet: 75, weight: 160},
	{pattern: regexp.MustCompile(`sleeper sofa|sofa bed`), cubicFeet: 100, weight: 280},
	{pattern: regexp.MustCompile(`end table|side table|nightstand|bedside table`), cubicFeet: 8, weight: 25},
	{pattern: regexp.MustCompile(`crib|bassinet`), cubicFeet: 30, weight: 50},
	{pattern: regexp.MustCompile(`bed frame`), cubicFeet: 25, weight: 70},
	{pattern: regexp.MustCompile(`headboard`), cubicFeet: 15, weight: 40},
	{pattern: regexp.MustCompile(`box spring`), cubicFeet: 50, weight: 60},
	{pattern: regexp.MustCompile(`mattress`), cubicFeet: 55, weight: 100, sizeMults: standardSizeMults},
	{pattern: regexp.MustCompile(`bed`), cubicFeet: 65, weight: 140, sizeMults: standardSizeMults},

	// Seating.
	{pattern: regexp.MustCompile(`sectional`), cubicFeet: 120, weight: 300},
	{pattern: regexp.MustCompile(`loveseat`), cubicFeet: 50, weight: 120},
	{pattern: regexp.MustCompile(`sofa|couch`), cubicFeet: 80, weight: 200, sizeMults: standardSizeMults},
	{pattern: regexp.MustCompile(`recliner`), cubicFeet: 45, weight: 110},
	{pattern: regexp.MustCompile(`armchair|accent chair|lounge chair`), cubicFeet: 35, weight: 70},
	{pattern: regexp.MustCompile(`office chair|desk chair`), cubicFeet: 15, weight: 35},
	{pattern: regexp.MustCompile(`dining chair|chair`), cubicFeet: 10, weight: 20},
	{pattern: regexp.MustCompile(`bar stool|stool`), cubicFeet: 6, weight: 15},
	{pattern: regexp.MustCompile(`ottoman|footstool`), cubicFeet: 12, weight: 25},
	{pattern: regexp.MustCompile(`bench`), cubicFeet: 18, weight: 40},

	// Tables and desks.
	{pattern: regexp.MustCompile(`dining table`), cubicFeet: 50, weight: 150, sizeMults: standardSizeMults},
	{pattern: regexp.MustCompile(`coffee table`), cubicFeet: 20, weight: 50},
	{pattern: regexp.MustCompile(`console table`), cubicFeet: 15, weight: 45},
	{pattern: regexp.MustCompile(`standing desk`), cubicFeet: 35, weight: 110},
	{pattern: regexp.MustCompile(`desk`), cubicFeet: 30, weight: 90, sizeMults: standardSizeMults},
	{pattern: regexp.MustCompile(`folding table|table`), cubicFeet: 25, weight: 60, sizeMults: standardSizeMults},

	// Storage.
	{pattern: regexp.MustCompile(`armoire|wardrobe`), cubicFeet: 60, weight: 180},
	{pattern: regexp.MustCompile(`dresser|chest of drawers`), cubicFeet: 40, weight: 120, sizeMults: standardSizeMults},
	{pattern: regexp.MustCompile(`china cabinet|hutch`), cubicFeet: 55, weight: 160},
	{pattern: regexp.MustCompile(`bookshelf|bookcase|shelving`), cubicFeet: 30, weight: 80, sizeMults: standardSizeMults},
	{pattern: regexp.MustCompile(`filing cabinet|file cabinet`), cubicFeet: 15, weight: 60},
	{pattern: regexp.MustCompile(`tv stand|media console|entertainment center`), cubicFeet: 30, weight: 80},
	{pattern: regexp.MustCompile(`cabinet`), cubicFeet: 25, weight: 70, sizeMults: standardSizeMults},
	{pattern: regexp.MustCompile(`trunk|chest`), cubicFeet: 15, weight: 40},

	// Appliances.
	{pattern: regexp.MustCompile(`refrigerator|fridge`), cubicFeet: 60, weight: 250, sizeMults: map[string]float64{"mini": 0.3, "small": 0.5, "large": 1.2}},
	{pattern: regexp.MustCompile(`washer|washing machine`), cubicFeet: 30, weight: 170},
	{pattern: regexp.MustCompile(`dryer`), cubicFeet: 30, weight: 120},
	{pattern: regexp.MustCompile(`dishwasher`), cubicFeet: 25, weight: 90},
	{pattern: regexp.MustCompile(`stove|range|oven`), cubicFeet: 30, weight: 150},
	{pattern: regexp.MustCompile(`microwave`), cubicFeet: 5, weight: 30},
	{pattern: regexp.MustCompile(`freezer`), cubicFeet: 35, weight: 180},
	{pattern: regexp.MustCompile(`air conditioner|ac unit`), cubicFeet: 10, weight: 60},

	// Electronics and misc.
	{pattern: regexp.MustCompile(`television|tv`), cubicFeet: 12, weight: 35},
	{pattern: regexp.MustCompile(`piano`), cubicFeet: 90, weight: 500},
	{pattern: regexp.MustCompile(`treadmill|elliptical|exercise bike`), cubicFeet: 40, weight: 180},
	{pattern: regexp.MustCompile(`grill|bbq`), cubicFeet: 25, weight: 90},
	{pattern: regexp.MustCompile(`mirror`), cubicFeet: 8, weight: 25},
	{pattern: regexp.MustCompile(`rug|carpet`), cubicFeet: 10, weight: 30, sizeMults: standardSizeMults},
	{pattern: regexp.MustCompile(`lamp`), cubicFeet: 5, weight: 10},
	{pattern: regexp.MustCompile(`plant`), cubicFeet: 6, weight: 15},
	{pattern: regexp.MustCompile(`bike|bicycle`), cubicFeet: 15, weight: 30},
	{pattern: regexp.MustCompile(`box|bin|crate`), cubicFeet: 3, weight: 25},
}

// tvScreenInches extracts a screen-size token like 55" or "65 inch" from
// free text.
var tvScreenInches = regexp.MustCompile(`(\d{2,3})\s*(?:"|''|in\b|inch)`)

// tvInchVolumes maps screen-size upper bounds to cubic feet for flat
// panels, checked in ascending order.
var tvInchVolumes = []struct {
	maxInches int
	cubicFeet float64
}{
	{32, 4},
	{43, 6},
	{55, 8},
	{65, 12},
	{75, 16},
	{999, 20},
}

// EstimateCubicFeet estimates the truck volume an item occupies from its
// label and optional size descriptor. First matching rule in the ordered
// table wins; unmatched labels fall back to a coarse size heuristic.
func EstimateCubicFeet(label, size string) float64 {
	l := strings.ToLower(label)
	s := strings.ToLower(size)

	if rule := matchVolumeRule(l); rule != nil {
		if isTelevision(l) {
			if cf, ok := tvCubicFeet(l, s); ok {
				return cf
			}
		}
		return rule.cubicFeet * sizeMultiplier(rule, s)
	}

	switch {
	case strings.Contains(l, "large") || strings.Contains(l, "big"):
		return 30
	case strings.Contains(l, "small") || strings.Contains(l, "compact"):
		return 8
	default:
		return 15
	}
}

// EstimateWeight estimates item weight in pounds. Rules with an explicit
// base weight are preferred, scaled by the same size multiplier applied to
// cubic feet; otherwise a flat density of 7 lb per cubic foot applies.
func EstimateWeight(cubicFeet float64, label, size string) float64 {
	l := strings.ToLower(label)
	s := strings.ToLower(size)

	if rule := matchVolumeRule(l); rule != nil && rule.weight > 0 {
		w := rule.weight * sizeMultiplier(rule, s)
		// Rescale proportionally when the matched cubic feet were
		// themselves adjusted (TV inch table, explicit model value).
		ruleCf := rule.cubicFeet * sizeMultiplier(rule, s)
		if cubicFeet > 0 && ruleCf > 0 && cubicFeet != ruleCf {
			w = w * cubicFeet / ruleCf
		}
		return round1(w)
	}

	if cubicFeet <= 0 {
		cubicFeet = EstimateCubicFeet(label, size)
	}
	return round1(cubicFeet * 7)
}

func matchVolumeRule(lowerLabel string) *volumeRule {
	for i := range volumeRules {
		if volumeRules[i].pattern.MatchString(lowerLabel) {
			return &volumeRules[i]
		}
	}
	return nil
}

func sizeMultiplier(rule *volumeRule, lowerSize string) float64 {
	if rule.sizeMults == nil || lowerSize == "" {
		return 1
	}
	// Longest descriptor first so "extra large" beats "large".
	keys := make([]string, 0, len(rule.sizeMults))
	for k := range rule.sizeMults {
		keys = append(keys, k)
	}
	best := ""
	for _, k := range keys {
		if strings.Contains(lowerSize, k) && len(k) > len(best) {
			best = k
		}
	}
	if best == "" {
		return 1
	}
	return rule.sizeMults[best]
}

func isTelevision(lowerLabel string) bool {
	return strings.Contains(lowerLabel, "tv") || strings.Contains(lowerLabel, "television")
}

// tvCubicFeet resolves a television's volume from a screen-size-in-inches
// token found in the size descriptor or label.
func tvCubicFeet(lowerLabel, lowerSize string) (float64, bool) {
	m := tvScreenInches.FindStringSubmatch(lowerSize)
	if m == nil {
		m = tvScreenInches.FindStringSubmatch(lowerLabel)
	}
	if m == nil {
		return 0, false
	}
	inches, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	for _, band := range tvInchVolumes {
		if inches <= band.maxInches {
			return band.cubicFeet, true
		}
	}
	return 0, false
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
