package inventory

import (
	"sort"
	"strconv"
	"strings"
)

type mergeEntry struct {
	det      Detection
	origRoom string
}

// Reconcile collapses raw detections from any number of model calls into
// one canonical inventory. Detections sharing a merge key (canonical room +
// normalized label) become a single entry: quantities add, confidence takes
// the maximum, distinct notes are joined. Cubic feet and weight are not
// summed here, since room-level detections already describe deduplicated
// single items; both are estimated when missing. Output order is deterministic:
// rooms in walking order, items alphabetically within a room.
func Reconcile(raw []RawDetection) []Detection {
	byKey := make(map[string]*mergeEntry)
	var order []string
	var roomsSeen []string

	for _, d := range raw {
		if strings.TrimSpace(d.Label) == "" {
			continue
		}
		key := MergeKey(d.Room, d.Label)

		qty := d.Qty
		if qty < 1 {
			qty = 1
		}
		conf := d.Confidence
		if conf <= 0 {
			conf = 0.5
		}

		if !containsString(roomsSeen, d.Room) {
			roomsSeen = append(roomsSeen, d.Room)
		}

		e, ok := byKey[key]
		if !ok {
			det := Detection{
				Label:      d.Label,
				Qty:        qty,
				Confidence: conf,
				Room:       d.Room,
				Size:       d.Size,
				Notes:      d.Notes,
			}
			if d.CubicFeet != nil {
				det.CubicFeet = *d.CubicFeet
			}
			if d.Weight != nil {
				det.Weight = *d.Weight
			}
			byKey[key] = &mergeEntry{det: det, origRoom: d.Room}
			order = append(order, key)
			continue
		}

		e.det.Qty += qty
		if conf > e.det.Confidence {
			e.det.Confidence = conf
		}
		if d.Notes != "" && d.Notes != e.det.Notes {
			if e.det.Notes == "" {
				e.det.Notes = d.Notes
			} else {
				e.det.Notes = e.det.Notes + "; " + d.Notes
			}
		}
		if e.det.Size == "" {
			e.det.Size = d.Size
		}
	}

	names := resolveRoomNames(roomsSeen)

	out := make([]Detection, 0, len(order))
	for _, key := range order {
		e := byKey[key]
		e.det.Room = names[e.origRoom]
		if e.det.CubicFeet == 0 {
			e.det.CubicFeet = EstimateCubicFeet(e.det.Label, e.det.Size)
		}
		if e.det.Weight == 0 {
			e.det.Weight = EstimateWeight(e.det.CubicFeet, e.det.Label, e.det.Size)
		}
		out = append(out, e.det)
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, ni := roomPriority(out[i].Room)
		pj, nj := roomPriority(out[j].Room)
		if pi != pj {
			return pi < pj
		}
		if ni != nj {
			return ni < nj
		}
		if out[i].Room != out[j].Room {
			return out[i].Room < out[j].Room
		}
		return strings.ToLower(out[i].Label) < strings.ToLower(out[j].Label)
	})

	return out
}

// resolveRoomNames maps each original room string (in first-seen order) to
// its display name. Bedrooms whose original string carries no
// distinguishing descriptor are numbered sequentially when more than one
// distinct such room exists; a lone plain bedroom stays simply "Bedroom".
// Bedrooms with explicit descriptors keep a title-cased original, other
// rooms display their canonical key.
func resolveRoomNames(roomsSeen []string) map[string]string {
	var plain []string
	for _, r := range roomsSeen {
		if CanonicalRoomKey(r) == "bedroom" && !HasBedroomDescriptor(r) {
			plain = append(plain, r)
		}
	}

	names := make(map[string]string, len(roomsSeen))
	for _, r := range roomsSeen {
		canonical := CanonicalRoomKey(r)
		switch {
		case canonical == "bedroom" && !HasBedroomDescriptor(r):
			if len(plain) > 1 {
				names[r] = "Bedroom " + strconv.Itoa(indexOfString(plain, r)+1)
			} else {
				names[r] = "Bedroom"
			}
		case canonical == "bedroom":
			names[r] = DisplayRoomName(r)
		default:
			names[r] = DisplayRoomName(canonical)
		}
	}
	return names
}

func containsString(ss []string, s string) bool {
	return indexOfString(ss, s) >= 0
}

func indexOfString(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}
