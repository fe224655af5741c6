package pipeline

import (
	"fmt"
	"strings"

	"github.com/aleksih/moveinventory/internal/inventory"
	"github.com/lithammer/dedent"
)

const roomVocabulary = "living_room, kitchen, bedroom_1..bedroom_N, bathroom_1..bathroom_N, office, laundry, garage, outdoor, entryway, hallway, other"

// classifyPrompt instructs the model to assign every photo index to exactly
// one room key. Photo indices are zero-based and refer to the order the
// images are attached.
func classifyPrompt(photoCount int, pc *inventory.PropertyContext) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(dedent.Dedent(fmt.Sprintf(`
		You are grouping %d photos of a single property into rooms for a moving inventory.

		Assign EVERY photo index (0 to %d) to exactly one room key. Use only these room keys:
		%s

		Rules:
		- Photos of the same physical room must share one room key, even when taken from different angles.
		- Number bedrooms and bathrooms separately (bedroom_1, bedroom_2, bathroom_1, ...).
	`, photoCount, photoCount-1, roomVocabulary))))

	if pc != nil {
		if pc.Bedrooms > 0 {
			fmt.Fprintf(&b, "\n- This property has exactly %d bedroom(s): create exactly %d numbered bedroom groups when bedroom photos are present.", pc.Bedrooms, pc.Bedrooms)
		}
		if pc.Bathrooms > 0 {
			fmt.Fprintf(&b, "\n- This property has exactly %d bathroom(s): create exactly %d numbered bathroom groups when bathroom photos are present.", pc.Bathrooms, pc.Bathrooms)
		}
		if pc.PropertyType != "" {
			fmt.Fprintf(&b, "\n- Property type: %s.", pc.PropertyType)
		}
	}

	b.WriteString(strings.TrimSpace(dedent.Dedent(`

		Respond ONLY with a JSON object mapping room keys to arrays of photo indices, for example:
		{"living_room": [0, 1], "bedroom_1": [2], "kitchen": [3, 4]}

		No markdown or other text.
	`)))
	return b.String()
}

// detectRoomPrompt builds the per-room furniture detection prompt. The
// policy varies by room kind: bedrooms get single-bed reconciliation
// instructions, bathrooms exclude fixed fixtures.
func detectRoomPrompt(roomKey string, photoCount int, pc *inventory.PropertyContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are building a moving inventory. These %d photo(s) all show the %s of one property.\n", photoCount, displayRoom(roomKey))

	b.WriteString(strings.TrimSpace(dedent.Dedent(`
		List every item that movers would need to carry.

		Rules:
		- Count each physically distinct item exactly ONCE across all photos, not once per photo it appears in.
		- Report a specific size descriptor per item when visible (e.g. "queen", "65 inch", "large").
		- Estimate cubic feet per item.
	`)))

	lower := strings.ToLower(roomKey)
	if strings.Contains(lower, "bedroom") {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(dedent.Dedent(`
			- All photos show the SAME physical bedroom from different angles. Report exactly ONE bed unless multiple beds are clearly visually distinct pieces of furniture.
			- If photos suggest conflicting bed sizes, report the single size you are most confident in; never report the same bed twice under different sizes.
		`)))
	}
	if strings.Contains(lower, "bathroom") {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(dedent.Dedent(`
			- Exclude permanently fixed items: vanities, toilets, tubs, showers and built-in shelving. Report only freestanding, movable items.
		`)))
	}

	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(dedent.Dedent(`
		Respond ONLY with a JSON array of objects with these fields:
		[{"label": "Queen Bed", "qty": 1, "confidence": 0.9, "size": "queen", "notes": "", "cubicFeet": 70}]

		No markdown or other text.
	`)))
	return b.String()
}

// detectPhotoPrompt is the whole-photo (non-room-aware) detection prompt
// for a single image.
var detectPhotoPrompt = strings.TrimSpace(dedent.Dedent(`
	You are building a moving inventory from one photo of a property.

	List every item in this photo that movers would need to carry. For each item report:
	- label: what the item is
	- qty: how many are visible
	- confidence: 0 to 1
	- room: the kind of room this photo shows (e.g. "living room", "bedroom")
	- size: a specific size descriptor when visible
	- cubicFeet: estimated cubic feet per item

	Respond ONLY with a JSON array of such objects. No markdown or other text.
`))

func displayRoom(roomKey string) string {
	return strings.ToLower(inventory.DisplayRoomName(roomKey))
}
