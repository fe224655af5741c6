package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/aleksih/moveinventory/internal/inventory"
	"github.com/aleksih/moveinventory/internal/llm"
	"github.com/rs/zerolog/log"
)

// RoomDetections is the phase-two output for one room.
type RoomDetections struct {
	RoomKey         string                   `json:"roomKey"`
	Detections      []inventory.RawDetection `json:"detections"`
	DetectionTimeMs int64                    `json:"detectionTimeMs"`
}

// rawItem is the loosely-typed item object as the model returns it.
// Alternate field names the model drifts into are tolerated here and
// normalized at this boundary; the rest of the pipeline only sees
// inventory.RawDetection.
type rawItem struct {
	Label      string   `json:"label"`
	Name       string   `json:"name"`
	Item       string   `json:"item"`
	Qty        int      `json:"qty"`
	Quantity   int      `json:"quantity"`
	Confidence float64  `json:"confidence"`
	Room       string   `json:"room"`
	Size       string   `json:"size"`
	Notes      string   `json:"notes"`
	CubicFeet  *float64 `json:"cubicFeet"`
	Weight     *float64 `json:"weight"`
}

func (r rawItem) toDetection(defaultRoom string) (inventory.RawDetection, bool) {
	label := r.Label
	if label == "" {
		label = r.Name
	}
	if label == "" {
		label = r.Item
	}
	if strings.TrimSpace(label) == "" {
		return inventory.RawDetection{}, false
	}

	qty := r.Qty
	if qty < 1 {
		qty = r.Quantity
	}
	if qty < 1 {
		qty = 1
	}

	conf := r.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	room := r.Room
	if room == "" {
		room = defaultRoom
	}

	return inventory.RawDetection{
		Label:      label,
		Qty:        qty,
		Confidence: conf,
		Room:       room,
		Size:       r.Size,
		Notes:      r.Notes,
		CubicFeet:  r.CubicFeet,
		Weight:     r.Weight,
	}, true
}

// DetectRoom runs one high-detail model call over a single room's photos.
// Model failure or an unparsable reply degrade to an empty detection list
// so one uncooperative room never blocks the rest of the property; the
// only hard errors are caller input violations.
func (d *Detector) DetectRoom(ctx context.Context, roomKey string, photoRefs []string, pc *inventory.PropertyContext) (*RoomDetections, error) {
	if strings.TrimSpace(roomKey) == "" {
		return nil, ErrNoRoomKey
	}
	if len(photoRefs) == 0 {
		return nil, ErrNoPhotos
	}

	start := time.Now()
	prompt := llm.Prompt{
		Text:   detectRoomPrompt(roomKey, len(photoRefs), pc),
		Images: imageRefs(photoRefs),
		Detail: llm.DetailHigh,
	}

	res, err := d.client.Complete(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Str("room", roomKey).Msg("room detection failed, treating as no furniture found")
		return &RoomDetections{RoomKey: roomKey, DetectionTimeMs: time.Since(start).Milliseconds()}, nil
	}

	detections, err := parseDetections(res.Text, roomKey)
	if err != nil {
		log.Warn().Err(err).Str("room", roomKey).Msg("room detection reply unparsable, treating as no furniture found")
		return &RoomDetections{RoomKey: roomKey, DetectionTimeMs: time.Since(start).Milliseconds()}, nil
	}

	if strings.Contains(strings.ToLower(roomKey), "bedroom") {
		detections = collapseExtraBeds(detections, roomKey)
	}

	log.Info().
		Str("room", roomKey).
		Int("photos", len(photoRefs)).
		Int("items", len(detections)).
		Dur("took", time.Since(start)).
		Msg("detected furniture in room")

	return &RoomDetections{
		RoomKey:         roomKey,
		Detections:      detections,
		DetectionTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

func parseDetections(text, defaultRoom string) ([]inventory.RawDetection, error) {
	arr, err := llm.ExtractJSONArray(text)
	if err != nil {
		return nil, err
	}

	var items []rawItem
	if err := json.Unmarshal([]byte(arr), &items); err != nil {
		return nil, err
	}

	detections := make([]inventory.RawDetection, 0, len(items))
	for _, it := range items {
		if det, ok := it.toDetection(defaultRoom); ok {
			detections = append(detections, det)
		}
	}
	return detections, nil
}

// isBedLabel reports whether a label names an actual bed rather than
// bedside furniture.
func isBedLabel(label string) bool {
	l := strings.ToLower(label)
	return strings.Contains(l, "bed") &&
		!strings.Contains(l, "nightstand") &&
		!strings.Contains(l, "bedside")
}

// collapseExtraBeds keeps only the single highest-confidence bed when a
// bedroom reply contains several. The model tends to report one physical
// bed once per photo angle; a bedroom group is one room, so one bed.
func collapseExtraBeds(detections []inventory.RawDetection, roomKey string) []inventory.RawDetection {
	bestIdx := -1
	bedCount := 0
	for i, d := range detections {
		if !isBedLabel(d.Label) {
			continue
		}
		bedCount++
		if bestIdx == -1 || d.Confidence > detections[bestIdx].Confidence {
			bestIdx = i
		}
	}
	if bedCount <= 1 {
		return detections
	}

	log.Warn().
		Str("room", roomKey).
		Int("beds", bedCount).
		Str("kept", detections[bestIdx].Label).
		Msg("multiple beds detected in one bedroom, keeping most confident")

	out := detections[:0]
	for i, d := range detections {
		if isBedLabel(d.Label) && i != bestIdx {
			continue
		}
		out = append(out, d)
	}
	return out
}
