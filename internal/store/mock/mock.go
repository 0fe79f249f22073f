// Package mock provides in-memory implementations of the storage
// interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/listingpress/listingpress/internal/domain"
	"github.com/listingpress/listingpress/internal/store"
)

// DraftStore is an in-memory draft store with error injection.
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[string]*domain.Draft

	// Error injection
	GetError    error
	CreateError error
	UpdateError error
}

// NewDraftStore creates a new mock draft store.
func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[string]*domain.Draft)}
}

// AddDraft seeds a draft.
func (m *DraftStore) AddDraft(draft domain.Draft) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[draft.ID] = &draft
}

// GetDraft returns a copy of the stored draft.
func (m *DraftStore) GetDraft(_ context.Context, id string) (*domain.Draft, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", id, store.ErrNotFound)
	}
	copied := *d
	return &copied, nil
}

// CreateDraft stores a new draft.
func (m *DraftStore) CreateDraft(_ context.Context, draft *domain.Draft) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *draft
	m.drafts[draft.ID] = &copied
	return nil
}

// UpdateDraft overwrites a stored draft.
func (m *DraftStore) UpdateDraft(_ context.Context, draft *domain.Draft) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drafts[draft.ID]; !ok {
		return fmt.Errorf("draft %s: %w", draft.ID, store.ErrNotFound)
	}
	copied := *draft
	m.drafts[draft.ID] = &copied
	return nil
}

// ListingReader is an in-memory listing source with error injection.
type ListingReader struct {
	mu       sync.RWMutex
	listings map[string]*domain.Listing

	GetError error
}

// NewListingReader creates a new mock listing reader.
func NewListingReader() *ListingReader {
	return &ListingReader{listings: make(map[string]*domain.Listing)}
}

// AddListing seeds a listing.
func (m *ListingReader) AddListing(listing domain.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[listing.ID] = &listing
}

// GetListing returns the stored listing.
func (m *ListingReader) GetListing(_ context.Context, id string) (*domain.Listing, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, fmt.Errorf("listing %s: %w", id, store.ErrNotFound)
	}
	return l, nil
}

// BrandReader is an in-memory brand source with error injection.
type BrandReader struct {
	mu           sync.RWMutex
	brands       map[string]*domain.Brand
	defaultBrand *domain.Brand

	GetError     error
	DefaultError error
}

// NewBrandReader creates a new mock brand reader.
func NewBrandReader() *BrandReader {
	return &BrandReader{brands: make(map[string]*domain.Brand)}
}

// AddBrand seeds a brand, optionally as the tenant default.
func (m *BrandReader) AddBrand(brand domain.Brand, isDefault bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.brands[brand.ID] = &brand
	if isDefault {
		m.defaultBrand = &brand
	}
}

// GetBrand returns the stored brand.
func (m *BrandReader) GetBrand(_ context.Context, id string) (*domain.Brand, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.brands[id]
	if !ok {
		return nil, fmt.Errorf("brand %s: %w", id, store.ErrNotFound)
	}
	return b, nil
}

// GetDefaultBrand returns the seeded default brand.
func (m *BrandReader) GetDefaultBrand(_ context.Context) (*domain.Brand, error) {
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.defaultBrand == nil {
		return nil, fmt.Errorf("default brand: %w", store.ErrNotFound)
	}
	return m.defaultBrand, nil
}
