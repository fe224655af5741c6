package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/aleksih/moveinventory/internal/inventory"
	"github.com/rs/zerolog/log"
)

// Inventory is the full pipeline result: the reconciled detection list
// plus the room grouping it was derived from.
type Inventory struct {
	Rooms      map[string][]string   `json:"rooms"`
	Detections []inventory.Detection `json:"detections"`
	Metadata   Metadata              `json:"metadata"`
}

// DetectAllRooms runs phase two over every classified room, strictly
// sequentially with a small delay between rooms, and streams each room's
// result as it completes. Consumers may render incrementally or just drain
// the channel; it is closed after the last room. Rooms are visited in
// deterministic walking order.
func (d *Detector) DetectAllRooms(ctx context.Context, rooms map[string][]string, pc *inventory.PropertyContext) <-chan RoomDetections {
	out := make(chan RoomDetections)

	go func() {
		defer close(out)
		first := true
		for _, roomKey := range sortedRoomKeys(rooms) {
			if ctx.Err() != nil {
				return
			}
			photos := rooms[roomKey]
			if len(photos) == 0 {
				continue
			}
			if !first && d.interRoomDelay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(d.interRoomDelay):
				}
			}
			first = false

			rd, err := d.DetectRoom(ctx, roomKey, photos, pc)
			if err != nil {
				// Only caller input errors reach here; the groups came
				// from the classifier, so treat as an empty room.
				log.Error().Err(err).Str("room", roomKey).Msg("skipping room with invalid input")
				rd = &RoomDetections{RoomKey: roomKey}
			}

			select {
			case <-ctx.Done():
				return
			case out <- *rd:
			}
		}
	}()

	return out
}

// DetectInventory runs the whole two-phase pipeline: classify rooms, sweep
// them sequentially, reconcile into the canonical inventory. Model trouble
// degrades (coarse grouping, empty rooms) but never fails the job; the only
// hard error is an empty photo list.
func (d *Detector) DetectInventory(ctx context.Context, photoRefs []string, pc *inventory.PropertyContext) (*Inventory, error) {
	classification, err := d.ClassifyRooms(ctx, photoRefs, pc)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var raw []inventory.RawDetection
	for rd := range d.DetectAllRooms(ctx, classification.Rooms, pc) {
		raw = append(raw, rd.Detections...)
	}

	if pc != nil && pc.Bedrooms > 0 {
		checkBedCount(raw, pc.Bedrooms)
	}

	return &Inventory{
		Rooms:      classification.Rooms,
		Detections: inventory.Reconcile(raw),
		Metadata: Metadata{
			DetectionTimeMs: classification.Metadata.DetectionTimeMs + time.Since(start).Milliseconds(),
		},
	}, nil
}

// checkBedCount is an advisory diagnostic only: it warns when the model
// found more beds than the property plausibly holds but never corrects the
// detections.
func checkBedCount(raw []inventory.RawDetection, bedrooms int) {
	beds := 0
	for _, d := range raw {
		if strings.Contains(strings.ToLower(d.Room), "bed") && isBedLabel(d.Label) {
			beds += max(d.Qty, 1)
		}
	}
	if beds > bedrooms+1 {
		log.Warn().
			Int("bedsDetected", beds).
			Int("bedrooms", bedrooms).
			Msg("detected more beds than bedrooms suggest, inventory may overcount")
	}
}
