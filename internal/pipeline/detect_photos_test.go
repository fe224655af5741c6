package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksih/moveinventory/internal/llm"
)

// photoStub replies per photo URL; the whole-photo prompt carries no room,
// so routing happens on the attached image instead.
type photoStub struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	calls   int
}

func (s *photoStub) Complete(ctx context.Context, p llm.Prompt) (*llm.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if len(p.Images) != 1 {
		return nil, fmt.Errorf("expected exactly one image, got %d", len(p.Images))
	}
	url := p.Images[0].URL
	if err := s.errs[url]; err != nil {
		return nil, err
	}
	reply, ok := s.replies[url]
	if !ok {
		return &llm.Result{Text: "[]"}, nil
	}
	return &llm.Result{Text: reply}, nil
}

func (s *photoStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestDetectFurnitureMergesAcrossPhotos(t *testing.T) {
	photos := photoURLs(3)
	stub := &photoStub{replies: map[string]string{
		photos[0]: `[{"label": "Sofa", "qty": 1, "confidence": 0.7, "room": "living room", "cubicFeet": 80}]`,
		photos[1]: `[{"label": "Sofa", "qty": 1, "confidence": 0.9, "room": "living room", "cubicFeet": 75}]`,
		photos[2]: `[{"label": "Sofa", "qty": 1, "confidence": 0.8, "room": "bedroom"}]`,
	}}
	d := NewDetector(stub, 0)

	got, err := d.DetectFurniture(context.Background(), photos)
	require.NoError(t, err)
	require.Len(t, got, 2, "same label in a different room stays separate")

	assert.Equal(t, "Sofa", got[0].Label)
	assert.Equal(t, "living room", got[0].Room)
	assert.Equal(t, 2, got[0].Qty)
	assert.Equal(t, 0.9, got[0].Confidence)
	require.NotNil(t, got[0].CubicFeet)
	assert.Equal(t, 155.0, *got[0].CubicFeet, "photo-level sightings are distinct items, cubic feet sum")

	assert.Equal(t, "bedroom", got[1].Room)
	assert.Equal(t, 1, got[1].Qty)
}

func TestDetectFurnitureFailedPhotoContributesNothing(t *testing.T) {
	photos := photoURLs(2)
	stub := &photoStub{
		replies: map[string]string{
			photos[0]: `[{"label": "Desk", "qty": 1, "confidence": 0.8, "room": "office"}]`,
		},
		errs: map[string]error{
			photos[1]: &llm.APIError{Kind: llm.KindRetryable, Status: 500, Msg: "boom"},
		},
	}
	d := NewDetector(stub, 0)

	got, err := d.DetectFurniture(context.Background(), photos)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Desk", got[0].Label)
}

func TestDetectFurnitureCapsPhotoCount(t *testing.T) {
	photos := make([]string, 25)
	for i := range photos {
		photos[i] = fmt.Sprintf("https://photos.example.com/%d.jpg", i)
	}
	stub := &photoStub{}
	d := NewDetector(stub, 0)

	_, err := d.DetectFurniture(context.Background(), photos)
	require.NoError(t, err)
	assert.Equal(t, maxWholePhotoCount, stub.callCount())
}

func TestDetectFurnitureRequiresPhotos(t *testing.T) {
	d := NewDetector(&photoStub{}, 0)
	_, err := d.DetectFurniture(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoPhotos)
}
