package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testMapping = MappingTable{
	"Sofa":      {CubicFeet: 80, Minutes: 30},
	"Queen Bed": {CubicFeet: 70, Minutes: 45, RequiresWrap: true},
	"Box":       {CubicFeet: 3, Minutes: 2},
}

func TestCalculateEstimateBasics(t *testing.T) {
	detections := []Detection{
		{Label: "Sofa", Qty: 1},
		{Label: "Queen Bed", Qty: 2},
		{Label: "Unmapped Sculpture", Qty: 5},
	}
	params := EstimateParams{CrewSize: 2, HourlyRate: 120, TravelMins: 30}

	got := CalculateEstimate(detections, testMapping, params)

	// 30 + 2*45 + 30 travel = 150 minutes = 2.5 hours; unmapped items
	// contribute nothing.
	assert.Equal(t, 2.5, got.Hours)
	assert.Equal(t, 2, got.SuggestedCrew)
	assert.Equal(t, 600.0, got.Total, "hours * rate * caller crew size")
}

func TestCalculateEstimateAdjustmentOrder(t *testing.T) {
	detections := []Detection{{Label: "Sofa", Qty: 2}}
	params := EstimateParams{
		CrewSize:   2,
		HourlyRate: 100,
		TravelMins: 0,
		Stairs:     true,
		Elevator:   true,
		SafetyPct:  10,
	}

	got := CalculateEstimate(detections, testMapping, params)

	// 60 minutes * 1.3 * 1.1 * 1.1 = 94.38 minutes = 1.573 h -> 1.6
	assert.Equal(t, 1.6, got.Hours)
}

func TestCalculateEstimateStairsMonotonic(t *testing.T) {
	detections := []Detection{
		{Label: "Sofa", Qty: 3},
		{Label: "Box", Qty: 40},
	}
	base := EstimateParams{CrewSize: 3, HourlyRate: 110, TravelMins: 20}
	withStairs := base
	withStairs.Stairs = true

	flat := CalculateEstimate(detections, testMapping, base)
	stairs := CalculateEstimate(detections, testMapping, withStairs)

	assert.Greater(t, stairs.Hours, flat.Hours)
}

func TestCalculateEstimateCrewSuggestion(t *testing.T) {
	tests := map[string]struct {
		qty      int // queen beds at 70 cf each
		stairs   bool
		elevator bool
		want     int
	}{
		"small move":            {qty: 2, want: 2},
		"over 500 cf":           {qty: 8, want: 3},
		"over 1000 cf":          {qty: 15, want: 4},
		"stairs add one":        {qty: 2, stairs: true, want: 3},
		"stairs and elevator":   {qty: 15, stairs: true, elevator: true, want: 6},
		"capped at six overall": {qty: 15, stairs: true, elevator: true, want: 6},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			detections := []Detection{{Label: "Queen Bed", Qty: tt.qty}}
			params := EstimateParams{CrewSize: 2, HourlyRate: 100, Stairs: tt.stairs, Elevator: tt.elevator}
			got := CalculateEstimate(detections, testMapping, params)
			assert.Equal(t, tt.want, got.SuggestedCrew)
		})
	}
}

func TestCalculateEstimateEmptyInventory(t *testing.T) {
	got := CalculateEstimate(nil, testMapping, EstimateParams{CrewSize: 2, HourlyRate: 100, TravelMins: 60})
	assert.Equal(t, 1.0, got.Hours, "travel time still counts")
	assert.Equal(t, 200.0, got.Total)
}
