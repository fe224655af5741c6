package api

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aleksih/moveinventory/internal/inventory"
	gocache "github.com/patrickmn/go-cache"
)

const pricingCacheKey = "mapping-table"

// PricingSource loads the per-label time/volume calibration table used by
// the estimate calculator. The table lives in a JSON file owned by pricing
// configuration; reads are cached with a TTL so edits show up without a
// restart.
type PricingSource struct {
	path  string
	cache *gocache.Cache
}

// NewPricingSource creates a cached loader for the mapping table at path.
func NewPricingSource(path string, ttl time.Duration) *PricingSource {
	return &PricingSource{
		path:  path,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Mapping returns the current mapping table. A missing path yields an
// empty table (estimates then count travel time only).
func (p *PricingSource) Mapping() (inventory.MappingTable, error) {
	if p.path == "" {
		return inventory.MappingTable{}, nil
	}
	if cached, ok := p.cache.Get(pricingCacheKey); ok {
		return cached.(inventory.MappingTable), nil
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file: %w", err)
	}
	var table inventory.MappingTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse pricing file: %w", err)
	}

	p.cache.SetDefault(pricingCacheKey, table)
	return table, nil
}
