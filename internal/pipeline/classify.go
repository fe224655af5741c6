package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/aleksih/moveinventory/internal/inventory"
	"github.com/aleksih/moveinventory/internal/llm"
	"github.com/rs/zerolog/log"
)

// FallbackRoomKey groups every photo when room classification fails; phase
// two then runs once over the whole set instead of aborting the job.
const FallbackRoomKey = "all_rooms"

// ErrNoPhotos is returned when a caller supplies an empty photo list.
var ErrNoPhotos = errors.New("at least one photo reference is required")

// ErrNoRoomKey is returned when a caller supplies an empty room key.
var ErrNoRoomKey = errors.New("room key is required")

// Metadata carries timing for one detection phase.
type Metadata struct {
	DetectionTimeMs int64 `json:"detectionTimeMs"`
}

// RoomClassification is the phase-one output: photo references grouped by
// room key.
type RoomClassification struct {
	Rooms    map[string][]string `json:"rooms"`
	Metadata Metadata            `json:"metadata"`
}

// Detector runs the two-phase detection pipeline against a model client.
// The client is expected to carry the shared retry policy already.
type Detector struct {
	client         llm.Client
	interRoomDelay time.Duration
}

// NewDetector creates a pipeline detector. interRoomDelay spaces the
// sequential per-room calls of phase two.
func NewDetector(client llm.Client, interRoomDelay time.Duration) *Detector {
	return &Detector{client: client, interRoomDelay: interRoomDelay}
}

// ClassifyRooms groups all photos into rooms with a single low-detail model
// call. It never fails on model trouble: retry exhaustion or an unparsable
// reply degrade to one all_rooms group holding every photo. The only hard
// error is an empty photo list.
func (d *Detector) ClassifyRooms(ctx context.Context, photoRefs []string, pc *inventory.PropertyContext) (*RoomClassification, error) {
	if len(photoRefs) == 0 {
		return nil, ErrNoPhotos
	}

	start := time.Now()
	prompt := llm.Prompt{
		Text:   classifyPrompt(len(photoRefs), pc),
		Images: imageRefs(photoRefs),
		Detail: llm.DetailLow,
	}

	res, err := d.client.Complete(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Int("photos", len(photoRefs)).Msg("room classification failed, falling back to single group")
		return fallbackClassification(photoRefs, start), nil
	}

	groups, err := parseRoomGroups(res.Text, photoRefs)
	if err != nil {
		log.Warn().Err(err).Msg("room classification reply unparsable, falling back to single group")
		return fallbackClassification(photoRefs, start), nil
	}

	log.Info().
		Int("photos", len(photoRefs)).
		Int("rooms", len(groups)).
		Dur("took", time.Since(start)).
		Msg("classified photos into rooms")

	return &RoomClassification{
		Rooms:    groups,
		Metadata: Metadata{DetectionTimeMs: time.Since(start).Milliseconds()},
	}, nil
}

func fallbackClassification(photoRefs []string, start time.Time) *RoomClassification {
	return &RoomClassification{
		Rooms:    map[string][]string{FallbackRoomKey: append([]string(nil), photoRefs...)},
		Metadata: Metadata{DetectionTimeMs: time.Since(start).Milliseconds()},
	}
}

// parseRoomGroups converts the model's room→indices object into room→photo
// references. Indices outside the photo list are dropped silently; rooms
// left with no valid photos are omitted.
func parseRoomGroups(text string, photoRefs []string) (map[string][]string, error) {
	obj, err := llm.ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var indices map[string][]int
	if err := json.Unmarshal([]byte(obj), &indices); err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return nil, errors.New("classification contained no rooms")
	}

	groups := make(map[string][]string, len(indices))
	for room, idxs := range indices {
		var refs []string
		for _, i := range idxs {
			if i < 0 || i >= len(photoRefs) {
				continue
			}
			refs = append(refs, photoRefs[i])
		}
		if len(refs) > 0 {
			groups[room] = refs
		}
	}
	if len(groups) == 0 {
		return nil, errors.New("classification referenced no valid photo indices")
	}
	return groups, nil
}

// sortedRoomKeys returns the group's room keys in deterministic walking
// order, so the sequential phase-two sweep (and its incremental consumers)
// always see rooms in the same order.
func sortedRoomKeys(rooms map[string][]string) []string {
	keys := make([]string, 0, len(rooms))
	for k := range rooms {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return inventory.RoomKeyOrder(keys[i]) < inventory.RoomKeyOrder(keys[j])
	})
	return keys
}

func imageRefs(photoRefs []string) []llm.ImageRef {
	refs := make([]llm.ImageRef, len(photoRefs))
	for i, u := range photoRefs {
		refs[i] = llm.ImageRef{URL: u}
	}
	return refs
}
