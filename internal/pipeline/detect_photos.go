package pipeline

import (
	"context"
	"time"

	"github.com/aleksih/moveinventory/internal/inventory"
	"github.com/aleksih/moveinventory/internal/llm"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// maxWholePhotoCount bounds total latency and API cost for the
	// non-room-aware path.
	maxWholePhotoCount = 20
	// wholePhotoBatchSize photos are analyzed concurrently; batches run
	// strictly one after another.
	wholePhotoBatchSize = 5
	// perPhotoTimeout bounds one photo's whole retried call, nested
	// inside the client's own per-attempt timeout.
	perPhotoTimeout = 2 * time.Minute
)

// DetectFurniture analyzes photos individually without room context, for
// callers that skip room classification. Photos are processed in fixed-size
// batches: batches sequential, photos within a batch concurrent. A photo
// whose call fails or times out contributes zero detections. Results are
// merged at the photo level: equal label and room sum quantities, take the
// max confidence and sum cubic feet.
func (d *Detector) DetectFurniture(ctx context.Context, photoRefs []string) ([]inventory.RawDetection, error) {
	if len(photoRefs) == 0 {
		return nil, ErrNoPhotos
	}
	if len(photoRefs) > maxWholePhotoCount {
		log.Warn().
			Int("photos", len(photoRefs)).
			Int("cap", maxWholePhotoCount).
			Msg("photo list exceeds cap, truncating")
		photoRefs = photoRefs[:maxWholePhotoCount]
	}

	var all []inventory.RawDetection

	for batchStart := 0; batchStart < len(photoRefs); batchStart += wholePhotoBatchSize {
		batchEnd := min(batchStart+wholePhotoBatchSize, len(photoRefs))
		batch := photoRefs[batchStart:batchEnd]

		// Batch results keep submission order so merging stays
		// deterministic regardless of which call finishes first.
		batchResults := make([][]inventory.RawDetection, len(batch))

		g := new(errgroup.Group)
		for i := range batch {
			g.Go(func() error {
				batchResults[i] = d.detectSinglePhoto(ctx, batch[i])
				return nil
			})
		}
		g.Wait()

		for _, dets := range batchResults {
			all = mergePhotoDetections(all, dets)
		}
	}

	return all, nil
}

// detectSinglePhoto degrades every failure to an empty result; one bad
// photo never fails its batch.
func (d *Detector) detectSinglePhoto(ctx context.Context, photoRef string) []inventory.RawDetection {
	photoCtx, cancel := context.WithTimeout(ctx, perPhotoTimeout)
	defer cancel()

	res, err := d.client.Complete(photoCtx, llm.Prompt{
		Text:   detectPhotoPrompt,
		Images: []llm.ImageRef{{URL: photoRef}},
		Detail: llm.DetailHigh,
	})
	if err != nil {
		log.Warn().Err(err).Str("photo", photoRef).Msg("photo detection failed, contributing no detections")
		return nil
	}

	detections, err := parseDetections(res.Text, "unknown")
	if err != nil {
		log.Warn().Err(err).Str("photo", photoRef).Msg("photo detection reply unparsable, contributing no detections")
		return nil
	}
	return detections
}

// mergePhotoDetections folds one photo's detections into the accumulated
// list. Unlike room-level reconciliation this sums cubic feet, since two
// photo-level sightings with the same label are distinct physical items.
func mergePhotoDetections(acc, add []inventory.RawDetection) []inventory.RawDetection {
	for _, d := range add {
		merged := false
		for i := range acc {
			if acc[i].Label == d.Label && acc[i].Room == d.Room {
				acc[i].Qty += max(d.Qty, 1)
				if d.Confidence > acc[i].Confidence {
					acc[i].Confidence = d.Confidence
				}
				if acc[i].CubicFeet != nil && d.CubicFeet != nil {
					sum := *acc[i].CubicFeet + *d.CubicFeet
					acc[i].CubicFeet = &sum
				}
				merged = true
				break
			}
		}
		if !merged {
			if d.Qty < 1 {
				d.Qty = 1
			}
			acc = append(acc, d)
		}
	}
	return acc
}
