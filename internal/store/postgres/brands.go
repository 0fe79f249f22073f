package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/listingpress/listingpress/internal/domain"
	"github.com/listingpress/listingpress/internal/store"
)

// BrandRepository provides PostgreSQL-backed brand storage
type BrandRepository struct {
	pool *Pool
}

// NewBrandRepository creates a new BrandRepository
func NewBrandRepository(pool *Pool) *BrandRepository {
	return &BrandRepository{pool: pool}
}

const brandColumns = `id, name, primary_color, secondary_color, accent_color,
	font_family, disclaimer, logo_ref, offices, is_default`

// SaveBrand inserts or updates a brand.
func (r *BrandRepository) SaveBrand(ctx context.Context, brand *domain.Brand, isDefault bool) error {
	if brand.ID == "" {
		brand.ID = newID()
	}
	offices, err := json.Marshal(brand.Offices)
	if err != nil {
		return fmt.Errorf("encode offices: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO brands (`+brandColumns+`, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, primary_color = EXCLUDED.primary_color,
			secondary_color = EXCLUDED.secondary_color, accent_color = EXCLUDED.accent_color,
			font_family = EXCLUDED.font_family, disclaimer = EXCLUDED.disclaimer,
			logo_ref = EXCLUDED.logo_ref, offices = EXCLUDED.offices,
			is_default = EXCLUDED.is_default, updated_at = EXCLUDED.updated_at`,
		brand.ID, brand.Name, brand.PrimaryColor, brand.SecondaryColor, brand.AccentColor,
		brand.FontFamily, brand.Disclaimer, brand.LogoRef, offices, isDefault, time.Now())
	if err != nil {
		return fmt.Errorf("save brand: %w", err)
	}
	return nil
}

// GetBrand loads a brand by ID.
func (r *BrandRepository) GetBrand(ctx context.Context, id string) (*domain.Brand, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+brandColumns+` FROM brands WHERE id = $1`, id)
	brand, err := scanBrand(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("brand %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get brand: %w", err)
	}
	return brand, nil
}

// GetDefaultBrand loads the tenant default brand.
func (r *BrandRepository) GetDefaultBrand(ctx context.Context) (*domain.Brand, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+brandColumns+` FROM brands WHERE is_default LIMIT 1`)
	brand, err := scanBrand(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("default brand: %w", store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get default brand: %w", err)
	}
	return brand, nil
}

func scanBrand(s scanner) (*domain.Brand, error) {
	var (
		brand     domain.Brand
		offices   []byte
		isDefault bool
	)
	err := s.Scan(&brand.ID, &brand.Name, &brand.PrimaryColor, &brand.SecondaryColor,
		&brand.AccentColor, &brand.FontFamily, &brand.Disclaimer, &brand.LogoRef,
		&offices, &isDefault)
	if err != nil {
		return nil, err
	}
	if len(offices) > 0 {
		if err := json.Unmarshal(offices, &brand.Offices); err != nil {
			return nil, fmt.Errorf("decode offices: %w", err)
		}
	}
	return &brand, nil
}
