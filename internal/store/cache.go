package store

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/listingpress/listingpress/internal/domain"
)

// ListingSource is anything that can load listings, typically the CRM pool.
type ListingSource interface {
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
}

// CachedListings is a read-through cache in front of a ListingSource.
// Listing facts change rarely relative to generation traffic, so a short
// TTL keeps repeated drafts from hammering the CRM database.
type CachedListings struct {
	source ListingSource
	cache  *gocache.Cache
}

// NewCachedListings wraps source with a TTL cache. Errors are never cached.
func NewCachedListings(source ListingSource, ttl time.Duration) *CachedListings {
	return &CachedListings{
		source: source,
		cache:  gocache.New(ttl, 2*ttl),
	}
}

// GetListing returns the cached listing or loads it from the source.
func (c *CachedListings) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	if cached, ok := c.cache.Get(id); ok {
		listing := cached.(domain.Listing)
		return &listing, nil
	}
	listing, err := c.source.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(id, *listing)
	copied := *listing
	return &copied, nil
}

// Invalidate drops a listing from the cache.
func (c *CachedListings) Invalidate(id string) {
	c.cache.Delete(id)
}
