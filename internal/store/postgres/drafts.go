package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/listingpress/listingpress/internal/domain"
	"github.com/listingpress/listingpress/internal/store"
)

// DraftRepository provides PostgreSQL-backed draft storage
type DraftRepository struct {
	pool *Pool
}

// NewDraftRepository creates a new DraftRepository
func NewDraftRepository(pool *Pool) *DraftRepository {
	return &DraftRepository{pool: pool}
}

func newID() string {
	return uuid.New().String()
}

const draftColumns = `id, listing_id, brand_id, template_sequence, status, artifact,
	quality_score, quality_report, ai_content, ai_metrics, photo_classifications,
	error_message, created_at, updated_at`

// CreateDraft inserts a draft. A missing ID is generated; a missing status
// defaults to queued.
func (r *DraftRepository) CreateDraft(ctx context.Context, draft *domain.Draft) error {
	if draft.ID == "" {
		draft.ID = newID()
	}
	if draft.Status == "" {
		draft.Status = domain.DraftQueued
	}
	now := time.Now()
	draft.CreatedAt = now
	draft.UpdatedAt = now

	artifact, report, content, metrics, classifications, err := marshalDraftFields(draft)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO drafts (`+draftColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		draft.ID, draft.ListingID, draft.BrandID, pq.Array(draft.TemplateSequence),
		string(draft.Status), artifact, draft.QualityScore, report, content, metrics,
		classifications, draft.ErrorMessage, draft.CreatedAt, draft.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create draft: %w", err)
	}
	return nil
}

// GetDraft loads a draft by ID.
func (r *DraftRepository) GetDraft(ctx context.Context, id string) (*domain.Draft, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = $1`, id)
	draft, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return draft, nil
}

// UpdateDraft persists the draft's mutable fields.
func (r *DraftRepository) UpdateDraft(ctx context.Context, draft *domain.Draft) error {
	draft.UpdatedAt = time.Now()
	artifact, report, content, metrics, classifications, err := marshalDraftFields(draft)
	if err != nil {
		return err
	}
	result, err := r.pool.Exec(ctx,
		`UPDATE drafts SET status = $1, artifact = $2, quality_score = $3,
			quality_report = $4, ai_content = $5, ai_metrics = $6,
			photo_classifications = $7, error_message = $8, updated_at = $9
		 WHERE id = $10`,
		string(draft.Status), artifact, draft.QualityScore, report, content, metrics,
		classifications, draft.ErrorMessage, draft.UpdatedAt, draft.ID)
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("draft %s: %w", draft.ID, store.ErrNotFound)
	}
	return nil
}

// ListDraftsByListing returns all drafts for a listing, newest first.
func (r *DraftRepository) ListDraftsByListing(ctx context.Context, listingID string) ([]domain.Draft, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE listing_id = $1 ORDER BY created_at DESC`, listingID)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []domain.Draft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		drafts = append(drafts, *draft)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drafts: %w", err)
	}
	return drafts, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDraft(s scanner) (*domain.Draft, error) {
	var (
		draft           domain.Draft
		status          string
		sequence        pq.StringArray
		artifact        []byte
		report          []byte
		content         []byte
		metrics         []byte
		classifications []byte
	)
	err := s.Scan(&draft.ID, &draft.ListingID, &draft.BrandID, &sequence, &status,
		&artifact, &draft.QualityScore, &report, &content, &metrics,
		&classifications, &draft.ErrorMessage, &draft.CreatedAt, &draft.UpdatedAt)
	if err != nil {
		return nil, err
	}
	draft.Status = domain.DraftStatus(status)
	draft.TemplateSequence = []string(sequence)

	if err := unmarshalInto(artifact, &draft.Artifact); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := unmarshalInto(report, &draft.QualityReport); err != nil {
		return nil, fmt.Errorf("decode quality report: %w", err)
	}
	if err := unmarshalInto(content, &draft.AIContent); err != nil {
		return nil, fmt.Errorf("decode ai content: %w", err)
	}
	if err := unmarshalInto(metrics, &draft.AIMetrics); err != nil {
		return nil, fmt.Errorf("decode ai metrics: %w", err)
	}
	if len(classifications) > 0 {
		if err := json.Unmarshal(classifications, &draft.PhotoClassifications); err != nil {
			return nil, fmt.Errorf("decode classifications: %w", err)
		}
	}
	return &draft, nil
}

func marshalDraftFields(draft *domain.Draft) (artifact, report, content, metrics, classifications []byte, err error) {
	if artifact, err = marshalOrNil(draft.Artifact); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("encode artifact: %w", err)
	}
	if report, err = marshalOrNil(draft.QualityReport); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("encode quality report: %w", err)
	}
	if content, err = marshalOrNil(draft.AIContent); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("encode ai content: %w", err)
	}
	if metrics, err = marshalOrNil(draft.AIMetrics); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("encode ai metrics: %w", err)
	}
	if len(draft.PhotoClassifications) > 0 {
		if classifications, err = json.Marshal(draft.PhotoClassifications); err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("encode classifications: %w", err)
		}
	}
	return artifact, report, content, metrics, classifications, nil
}

// marshalOrNil marshals a pointer field, keeping NULL for nil values.
func marshalOrNil(v any) ([]byte, error) {
	switch ptr := v.(type) {
	case *domain.Artifact:
		if ptr == nil {
			return nil, nil
		}
	case *domain.QualityReport:
		if ptr == nil {
			return nil, nil
		}
	case *domain.AIContent:
		if ptr == nil {
			return nil, nil
		}
	case *domain.AIMetrics:
		if ptr == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

// unmarshalInto decodes JSONB data into a pointer-to-pointer target,
// leaving it nil for NULL columns.
func unmarshalInto[T any](data []byte, target **T) error {
	if len(data) == 0 {
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*target = &value
	return nil
}
