package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/listingpress/listingpress/internal/domain"
	"github.com/listingpress/listingpress/internal/layout"
	"github.com/listingpress/listingpress/internal/pipeline"
	"github.com/listingpress/listingpress/internal/store"
)

// DraftStore is the draft persistence surface the handlers need.
type DraftStore interface {
	CreateDraft(ctx context.Context, draft *domain.Draft) error
	GetDraft(ctx context.Context, id string) (*domain.Draft, error)
}

// BlobReader loads stored artifacts.
type BlobReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

// Runner starts a generation run for a draft.
type Runner interface {
	Run(ctx context.Context, draftID string) error
}

// DraftHandler serves the draft endpoints.
type DraftHandler struct {
	drafts DraftStore
	blobs  BlobReader
	runner Runner
	jobs   *JobManager
	logger zerolog.Logger
}

// NewDraftHandler creates a DraftHandler.
func NewDraftHandler(drafts DraftStore, blobs BlobReader, runner Runner, jobs *JobManager, logger zerolog.Logger) *DraftHandler {
	return &DraftHandler{
		drafts: drafts,
		blobs:  blobs,
		runner: runner,
		jobs:   jobs,
		logger: logger,
	}
}

type createDraftRequest struct {
	ListingID        string   `json:"listing_id"`
	BrandID          string   `json:"brand_id,omitempty"`
	TemplateSequence []string `json:"template_sequence,omitempty"`
}

// Create handles POST /api/v1/drafts.
func (h *DraftHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.ListingID == "" {
		respondError(w, http.StatusBadRequest, "listing_id is required")
		return
	}
	for _, id := range req.TemplateSequence {
		if _, ok := layout.Page(id); !ok {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown template page %q", id))
			return
		}
	}

	draft := &domain.Draft{
		ID:               uuid.New().String(),
		ListingID:        req.ListingID,
		BrandID:          req.BrandID,
		TemplateSequence: req.TemplateSequence,
		Status:           domain.DraftQueued,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if err := h.drafts.CreateDraft(r.Context(), draft); err != nil {
		h.logger.Error().Err(err).Msg("create draft failed")
		respondError(w, http.StatusInternalServerError, "failed to create draft")
		return
	}
	respondJSON(w, http.StatusCreated, draft)
}

// Get handles GET /api/v1/drafts/{draftId}.
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftId")
	draft, err := h.drafts.GetDraft(r.Context(), draftID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "draft not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("draft", sanitizeForLog(draftID)).Msg("get draft failed")
		respondError(w, http.StatusInternalServerError, "failed to load draft")
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

// Generate handles POST /api/v1/drafts/{draftId}/generate. The run happens
// asynchronously; progress streams over the events endpoint.
func (h *DraftHandler) Generate(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftId")
	draft, err := h.drafts.GetDraft(r.Context(), draftID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "draft not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("draft", sanitizeForLog(draftID)).Msg("get draft failed")
		respondError(w, http.StatusInternalServerError, "failed to load draft")
		return
	}
	if draft.Status != domain.DraftQueued {
		respondError(w, http.StatusConflict, fmt.Sprintf("draft is %s, only queued drafts can be generated", draft.Status))
		return
	}

	job, created := h.jobs.CreateJob(draftID)
	if !created {
		respondError(w, http.StatusConflict, "generation already running for draft")
		return
	}

	go func() {
		if err := h.runner.Run(context.Background(), draftID); err != nil {
			// Sentinel failures never reach the pipeline's event stream, so
			// close out the job here.
			if errors.Is(err, pipeline.ErrAlreadyRunning) || errors.Is(err, pipeline.ErrInvalidState) {
				h.jobs.Dispatch(draftID, domain.DraftFailed, "", err.Error())
			}
			h.logger.Error().Err(err).Str("draft", sanitizeForLog(draftID)).Msg("generation run failed")
		}
	}()

	respondJSON(w, http.StatusAccepted, job)
}

// Events handles GET /api/v1/drafts/{draftId}/events (SSE).
func (h *DraftHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSSEEvents(w, r,
		func(draftID string) SSEJob {
			if job := h.jobs.GetJob(draftID); job != nil {
				return job
			}
			return nil
		},
		func(job SSEJob) any {
			return job
		})
}

// Artifact handles GET /api/v1/drafts/{draftId}/artifact.
func (h *DraftHandler) Artifact(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftId")
	draft, err := h.drafts.GetDraft(r.Context(), draftID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "draft not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load draft")
		return
	}
	if draft.Status != domain.DraftComplete || draft.Artifact == nil {
		respondError(w, http.StatusConflict, "draft has no artifact yet")
		return
	}

	data, err := h.blobs.Read(r.Context(), draft.Artifact.Locator)
	if err != nil {
		h.logger.Error().Err(err).Str("draft", sanitizeForLog(draftID)).Msg("artifact read failed")
		respondError(w, http.StatusInternalServerError, "failed to read artifact")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="brochure.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
