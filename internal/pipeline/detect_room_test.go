package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksih/moveinventory/internal/llm"
)

func TestDetectRoomParsesItems(t *testing.T) {
	stub := &stubModel{rooms: map[string]string{
		"kitchen": `[
			{"label": "Refrigerator", "qty": 1, "confidence": 0.95, "size": "large"},
			{"name": "Microwave", "quantity": 2, "confidence": 1.7},
			{"item": "Bar Stool", "confidence": -0.2},
			{"label": "   "}
		]`,
	}}
	d := NewDetector(stub, 0)

	got, err := d.DetectRoom(context.Background(), "kitchen", photoURLs(2), nil)
	require.NoError(t, err)
	require.Len(t, got.Detections, 3, "blank labels are dropped")

	assert.Equal(t, "Refrigerator", got.Detections[0].Label)
	assert.Equal(t, "large", got.Detections[0].Size)
	assert.Equal(t, "kitchen", got.Detections[0].Room, "room defaults to the group key")

	assert.Equal(t, "Microwave", got.Detections[1].Label, "name is accepted as label")
	assert.Equal(t, 2, got.Detections[1].Qty, "quantity is accepted as qty")
	assert.Equal(t, 1.0, got.Detections[1].Confidence, "confidence clamps to [0, 1]")

	assert.Equal(t, "Bar Stool", got.Detections[2].Label)
	assert.Equal(t, 1, got.Detections[2].Qty, "qty defaults to 1")
	assert.Equal(t, 0.0, got.Detections[2].Confidence)
}

func TestDetectRoomCollapsesExtraBeds(t *testing.T) {
	stub := &stubModel{rooms: map[string]string{
		"bedroom_1": `[
			{"label": "King Bed", "qty": 1, "confidence": 0.6},
			{"label": "Queen Bed", "qty": 1, "confidence": 0.9},
			{"label": "Nightstand", "qty": 2, "confidence": 0.8}
		]`,
	}}
	d := NewDetector(stub, 0)

	got, err := d.DetectRoom(context.Background(), "bedroom_1", photoURLs(3), nil)
	require.NoError(t, err)
	require.Len(t, got.Detections, 2)
	assert.Equal(t, "Queen Bed", got.Detections[0].Label, "only the most confident bed survives")
	assert.Equal(t, "Nightstand", got.Detections[1].Label, "bedside furniture is not a bed")
}

func TestDetectRoomKeepsBedsOutsideBedrooms(t *testing.T) {
	stub := &stubModel{rooms: map[string]string{
		"living_room": `[
			{"label": "Sofa Bed", "qty": 1, "confidence": 0.7},
			{"label": "Day Bed", "qty": 1, "confidence": 0.6}
		]`,
	}}
	d := NewDetector(stub, 0)

	got, err := d.DetectRoom(context.Background(), "living_room", photoURLs(1), nil)
	require.NoError(t, err)
	assert.Len(t, got.Detections, 2, "bed collapsing only applies to bedroom groups")
}

func TestDetectRoomDegradesToEmpty(t *testing.T) {
	t.Run("model failure", func(t *testing.T) {
		stub := &stubModel{
			rooms:    map[string]string{"garage": ""},
			roomErrs: map[string]error{"garage": &llm.APIError{Kind: llm.KindRetryable, Status: 500, Msg: "boom"}},
		}
		d := NewDetector(stub, 0)

		got, err := d.DetectRoom(context.Background(), "garage", photoURLs(1), nil)
		require.NoError(t, err)
		assert.Equal(t, "garage", got.RoomKey)
		assert.Empty(t, got.Detections)
	})

	t.Run("unparsable reply", func(t *testing.T) {
		stub := &stubModel{rooms: map[string]string{"garage": "the garage looks full"}}
		d := NewDetector(stub, 0)

		got, err := d.DetectRoom(context.Background(), "garage", photoURLs(1), nil)
		require.NoError(t, err)
		assert.Empty(t, got.Detections)
	})
}

func TestDetectRoomInputErrors(t *testing.T) {
	d := NewDetector(&stubModel{}, 0)

	_, err := d.DetectRoom(context.Background(), "  ", photoURLs(1), nil)
	assert.ErrorIs(t, err, ErrNoRoomKey)

	_, err = d.DetectRoom(context.Background(), "kitchen", nil, nil)
	assert.ErrorIs(t, err, ErrNoPhotos)
}

func TestDetectRoomUsesHighDetail(t *testing.T) {
	stub := &stubModel{rooms: map[string]string{"kitchen": "[]"}}
	d := NewDetector(stub, 0)

	_, err := d.DetectRoom(context.Background(), "kitchen", photoURLs(1), nil)
	require.NoError(t, err)
	require.Len(t, stub.prompts, 1)
	assert.Equal(t, llm.DetailHigh, stub.prompts[0].Detail)
}
