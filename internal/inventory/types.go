package inventory

// PropertyContext carries optional hints about the property being surveyed.
// It is supplied once per job and never mutated by the pipeline.
type PropertyContext struct {
	Bedrooms     int    `json:"bedrooms,omitempty"`
	Bathrooms    int    `json:"bathrooms,omitempty"`
	SquareFeet   int    `json:"squareFeet,omitempty"`
	PropertyType string `json:"propertyType,omitempty"`
}

// RawDetection is one item candidate as returned by a single model call,
// before reconciliation. Quantity defaults to 1 and confidence to 0.5 when
// the model omits them.
type RawDetection struct {
	Label      string   `json:"label"`
	Qty        int      `json:"qty"`
	Confidence float64  `json:"confidence"`
	Room       string   `json:"room,omitempty"`
	Size       string   `json:"size,omitempty"`
	Notes      string   `json:"notes,omitempty"`
	CubicFeet  *float64 `json:"cubicFeet,omitempty"`
	Weight     *float64 `json:"weight,omitempty"`
}

// Detection is a reconciled inventory item. Room holds the display room
// name, Qty the deduplicated total, and CubicFeet/Weight are always set
// (estimated when the model did not provide them).
type Detection struct {
	Label      string  `json:"label"`
	Qty        int     `json:"qty"`
	Confidence float64 `json:"confidence"`
	Room       string  `json:"room"`
	Size       string  `json:"size,omitempty"`
	Notes      string  `json:"notes,omitempty"`
	CubicFeet  float64 `json:"cubicFeet"`
	Weight     float64 `json:"weight"`
}

// MappingEntry is the per-label calibration used by the estimate
// calculator: how long the item takes to move and how much truck volume it
// consumes.
type MappingEntry struct {
	CubicFeet    float64 `json:"cubicFeet"`
	Minutes      float64 `json:"minutes"`
	RequiresWrap bool    `json:"requiresWrap"`
}

// MappingTable maps item labels to their calibration entries. Supplied by
// pricing configuration; labels not present contribute no labor minutes.
type MappingTable map[string]MappingEntry

// EstimateParams are the caller-supplied logistics inputs for one estimate
// calculation.
type EstimateParams struct {
	CrewSize    int     `json:"crewSize"`
	HourlyRate  float64 `json:"hourlyRate"`
	TravelMins  float64 `json:"travelMins"`
	Stairs      bool    `json:"stairs"`
	Elevator    bool    `json:"elevator"`
	Wrapping    bool    `json:"wrapping"`
	SafetyPct   float64 `json:"safetyPct"`
}

// EstimateResult is derived and stateless; it is recomputed on every
// parameter change and never persisted by the pipeline.
type EstimateResult struct {
	Hours         float64 `json:"hours"`
	SuggestedCrew int     `json:"suggestedCrew"`
	Total         float64 `json:"total"`
}
