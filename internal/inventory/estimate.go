package inventory

import "math"

// Crew escalation thresholds in mapped cubic feet.
const (
	crewThreeAbove = 500
	crewFourAbove  = 1000
	maxCrew        = 6
)

// CalculateEstimate converts a reconciled inventory into labor hours, a
// crew-size suggestion and a total price. Only labels present in the
// mapping table contribute labor minutes and mapped volume; the mapping is
// a per-item calibration distinct from each detection's own cubic feet.
// Adjustments apply in fixed order: stairs, elevator, then safety factor.
// The total uses the caller-supplied crew size; the suggestion is advisory.
func CalculateEstimate(detections []Detection, mapping MappingTable, params EstimateParams) EstimateResult {
	var totalMinutes, totalVolume float64

	for _, d := range detections {
		entry, ok := mapping[d.Label]
		if !ok {
			continue
		}
		qty := float64(d.Qty)
		totalMinutes += entry.Minutes * qty
		totalVolume += entry.CubicFeet * qty
	}

	totalMinutes += params.TravelMins

	if params.Stairs {
		totalMinutes *= 1.3
	}
	if params.Elevator {
		totalMinutes *= 1.1
	}
	totalMinutes *= 1 + params.SafetyPct/100

	hours := math.Round(totalMinutes/60*10) / 10

	crew := 2
	if totalVolume > crewFourAbove {
		crew = 4
	} else if totalVolume > crewThreeAbove {
		crew = 3
	}
	if params.Stairs && crew < maxCrew {
		crew++
	}
	if params.Elevator && crew < maxCrew {
		crew++
	}

	total := math.Round(hours * params.HourlyRate * float64(params.CrewSize))

	return EstimateResult{
		Hours:         hours,
		SuggestedCrew: crew,
		Total:         total,
	}
}
