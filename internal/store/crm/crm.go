// Package crm reads listing records directly from the brokerage CRM's
// MySQL database. Listings are never written from here.
package crm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/listingpress/listingpress/internal/domain"
	"github.com/listingpress/listingpress/internal/store"
)

// Pool manages a MySQL connection pool against the CRM database.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new CRM connection pool.
func NewPool(dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("CRM DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open CRM database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping CRM database: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// GetListing loads a listing with its brokers and photo refs.
func (p *Pool) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	var (
		l         domain.Listing
		salePrice sql.NullFloat64
		leaseRate sql.NullFloat64
		sf        sql.NullFloat64
		acres     sql.NullFloat64
		zoning    sql.NullString
		yearBuilt sql.NullInt64
		overview  sql.NullString
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT id, name, address, city, state, zip, transaction_type,
			sale_price, lease_rate_sf, building_sf, lot_acres, zoning, year_built, overview
		 FROM listings WHERE id = ?`, id).
		Scan(&l.ID, &l.Name, &l.Address, &l.City, &l.State, &l.Zip, &l.TransactionType,
			&salePrice, &leaseRate, &sf, &acres, &zoning, &yearBuilt, &overview)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("listing %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	l.SalePrice = salePrice.Float64
	l.LeaseRateSF = leaseRate.Float64
	l.BuildingSF = sf.Float64
	l.LotAcres = acres.Float64
	l.Zoning = zoning.String
	l.YearBuilt = int(yearBuilt.Int64)
	l.Overview = overview.String

	if l.Highlights, err = p.listingHighlights(ctx, id); err != nil {
		return nil, err
	}
	if l.Brokers, err = p.listingBrokers(ctx, id); err != nil {
		return nil, err
	}
	if l.PhotoRefs, err = p.listingPhotos(ctx, id); err != nil {
		return nil, err
	}
	return &l, nil
}

func (p *Pool) listingHighlights(ctx context.Context, listingID string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT text FROM listing_highlights WHERE listing_id = ? ORDER BY sort_order`, listingID)
	if err != nil {
		return nil, fmt.Errorf("query highlights: %w", err)
	}
	defer rows.Close()

	var highlights []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan highlight: %w", err)
		}
		highlights = append(highlights, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate highlights: %w", err)
	}
	return highlights, nil
}

func (p *Pool) listingBrokers(ctx context.Context, listingID string) ([]domain.BrokerContact, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT name, title, phone, email FROM listing_brokers
		 WHERE listing_id = ? ORDER BY sort_order`, listingID)
	if err != nil {
		return nil, fmt.Errorf("query brokers: %w", err)
	}
	defer rows.Close()

	var brokers []domain.BrokerContact
	for rows.Next() {
		var (
			b     domain.BrokerContact
			title sql.NullString
			phone sql.NullString
			email sql.NullString
		)
		if err := rows.Scan(&b.Name, &title, &phone, &email); err != nil {
			return nil, fmt.Errorf("scan broker: %w", err)
		}
		b.Title = title.String
		b.Phone = phone.String
		b.Email = email.String
		brokers = append(brokers, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate brokers: %w", err)
	}
	return brokers, nil
}

func (p *Pool) listingPhotos(ctx context.Context, listingID string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT storage_key FROM listing_photos WHERE listing_id = ? ORDER BY sort_order`, listingID)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		refs = append(refs, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate photos: %w", err)
	}
	return refs, nil
}
