package llm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/aleksih/moveinventory/internal/storage"
	"github.com/rs/zerolog/log"
)

// CachedClient wraps a Client with SQLite-backed response caching. Repeat
// detection runs over the same photo set skip the model call entirely.
type CachedClient struct {
	inner Client
	store storage.Store
}

// NewCachedClient creates a caching wrapper. A nil store disables caching.
func NewCachedClient(inner Client, store storage.Store) *CachedClient {
	return &CachedClient{inner: inner, store: store}
}

// hashPrompt derives the cache key from the prompt text and every image
// reference. Length prefixes prevent boundary collisions between fields.
func hashPrompt(p Prompt) string {
	h := sha256.New()
	writeField := func(b []byte) {
		binary.Write(h, binary.LittleEndian, int64(len(b)))
		h.Write(b)
	}
	writeField([]byte(p.Text))
	writeField([]byte(p.Detail))
	for _, img := range p.Images {
		writeField([]byte(img.URL))
		writeField(img.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Complete implements Client with caching around the inner backend.
func (c *CachedClient) Complete(ctx context.Context, p Prompt) (*Result, error) {
	hash := hashPrompt(p)

	if c.store != nil {
		cached, err := c.store.GetCachedResponse(hash)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check response cache")
		} else if cached != nil {
			log.Debug().Str("hash", hash[:16]).Msg("model response cache hit")
			return &Result{Text: cached.Text}, nil
		}
	}

	result, err := c.inner.Complete(ctx, p)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		if err := c.store.SetCachedResponse(hash, result.Text); err != nil {
			log.Warn().Err(err).Msg("failed to cache model response")
		} else {
			log.Debug().Str("hash", hash[:16]).Msg("cached model response")
		}
	}

	return result, nil
}
