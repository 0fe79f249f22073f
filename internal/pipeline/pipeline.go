// Package pipeline orchestrates brochure generation for a draft: photo
// preparation, AI composition, layout, rendering, scoring and persistence.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/listingpress/listingpress/internal/compose"
	"github.com/listingpress/listingpress/internal/domain"
	"github.com/listingpress/listingpress/internal/imaging"
	"github.com/listingpress/listingpress/internal/layout"
	"github.com/listingpress/listingpress/internal/render"
	"github.com/listingpress/listingpress/internal/score"
)

// Sentinel errors returned before a run starts. Once a run is underway,
// failures land on the draft record instead.
var (
	ErrAlreadyRunning = errors.New("generation already running for draft")
	ErrInvalidState   = errors.New("draft is not in a runnable state")
)

const previewMaxSize = 768

// DraftStore reads and mutates draft records.
type DraftStore interface {
	GetDraft(ctx context.Context, id string) (*domain.Draft, error)
	UpdateDraft(ctx context.Context, draft *domain.Draft) error
}

// ListingReader loads property facts. Listings are read-only here.
type ListingReader interface {
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
}

// BrandReader loads tenant theming records.
type BrandReader interface {
	GetBrand(ctx context.Context, id string) (*domain.Brand, error)
	GetDefaultBrand(ctx context.Context) (*domain.Brand, error)
}

// BlobStore reads photo sources and persists finished artifacts.
type BlobStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// Event reports a stage transition during a run.
type Event struct {
	DraftID string             `json:"draft_id"`
	Status  domain.DraftStatus `json:"status"`
	Stage   string             `json:"stage,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// Pipeline runs the generation stages for one draft at a time per draft ID.
type Pipeline struct {
	drafts      DraftStore
	listings    ListingReader
	brands      BrandReader
	blobs       BlobStore
	engine      *compose.Engine
	transformer *imaging.Transformer
	renderer    *render.Renderer
	pdf         render.PDFRenderer
	logger      zerolog.Logger
	concurrency int

	// OnEvent, when set, receives stage transitions. Called synchronously.
	OnEvent func(Event)

	mu      sync.Mutex
	running map[string]struct{}
}

// New wires a Pipeline from its collaborators.
func New(
	drafts DraftStore,
	listings ListingReader,
	brands BrandReader,
	blobs BlobStore,
	engine *compose.Engine,
	transformer *imaging.Transformer,
	renderer *render.Renderer,
	pdf render.PDFRenderer,
	concurrency int,
	logger zerolog.Logger,
) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		drafts:      drafts,
		listings:    listings,
		brands:      brands,
		blobs:       blobs,
		engine:      engine,
		transformer: transformer,
		renderer:    renderer,
		pdf:         pdf,
		concurrency: concurrency,
		logger:      logger,
		running:     make(map[string]struct{}),
	}
}

// Run executes the full generation pipeline for a draft. Exactly one run
// per draft ID may be active; concurrent calls get ErrAlreadyRunning.
// The draft must be queued. All failures after the run starts are recorded
// on the draft and reported through the returned error.
func (p *Pipeline) Run(ctx context.Context, draftID string) error {
	if !p.acquire(draftID) {
		return ErrAlreadyRunning
	}
	defer p.release(draftID)

	draft, err := p.drafts.GetDraft(ctx, draftID)
	if err != nil {
		return fmt.Errorf("load draft: %w", err)
	}
	if draft.Status != domain.DraftQueued {
		return fmt.Errorf("%w: draft %s is %s", ErrInvalidState, draftID, draft.Status)
	}

	draft.Status = domain.DraftGenerating
	draft.ErrorMessage = ""
	draft.UpdatedAt = time.Now()
	if err := p.drafts.UpdateDraft(ctx, draft); err != nil {
		return fmt.Errorf("mark generating: %w", err)
	}
	p.emit(Event{DraftID: draftID, Status: domain.DraftGenerating, Stage: "started"})

	if err := p.generate(ctx, draft); err != nil {
		p.logger.Error().Err(err).Str("draft", draftID).Msg("generation failed")
		draft.Status = domain.DraftFailed
		draft.ErrorMessage = err.Error()
		draft.UpdatedAt = time.Now()
		if updateErr := p.drafts.UpdateDraft(ctx, draft); updateErr != nil {
			p.logger.Error().Err(updateErr).Str("draft", draftID).Msg("failed to persist failure")
		}
		p.emit(Event{DraftID: draftID, Status: domain.DraftFailed, Error: err.Error()})
		return err
	}

	draft.Status = domain.DraftComplete
	draft.UpdatedAt = time.Now()
	if err := p.drafts.UpdateDraft(ctx, draft); err != nil {
		return fmt.Errorf("persist completed draft: %w", err)
	}
	p.emit(Event{DraftID: draftID, Status: domain.DraftComplete})
	return nil
}

// generate runs the stages and fills in the draft's result fields.
func (p *Pipeline) generate(ctx context.Context, draft *domain.Draft) error {
	listing, err := p.listings.GetListing(ctx, draft.ListingID)
	if err != nil {
		return fmt.Errorf("listing %s: %w", draft.ListingID, err)
	}

	brand, err := p.loadBrand(ctx, draft.BrandID)
	if err != nil {
		return err
	}

	p.emit(Event{DraftID: draft.ID, Status: domain.DraftGenerating, Stage: "photos"})
	sources, previews := p.loadPhotos(ctx, listing.PhotoRefs)

	p.emit(Event{DraftID: draft.ID, Status: domain.DraftGenerating, Stage: "compose"})
	result, metrics := p.engine.Compose(ctx, listing, previews)

	draft.AIContent = &domain.AIContent{
		Overview:   result.PropertyOverview,
		Tagline:    result.TaglineSuggestion,
		Highlights: result.HighlightsEnhanced,
		Keywords:   result.SEOKeywords,
	}
	draft.AIMetrics = metrics
	draft.PhotoClassifications = classificationRecords(result.PhotoClassifications, previews)

	pool := photoPool(result.PhotoClassifications, previews, sources)

	sequence := draft.TemplateSequence
	if len(sequence) == 0 {
		sequence = layout.SequenceFor(listing.TransactionType)
	}
	pages := layout.Pages(sequence)
	if len(pages) == 0 {
		return fmt.Errorf("template sequence %v has no known pages", sequence)
	}

	p.emit(Event{DraftID: draft.ID, Status: domain.DraftGenerating, Stage: "layout"})
	views, assets, filledZones, err := p.buildPages(ctx, pages, pool, sources)
	if err != nil {
		return err
	}

	logoPath, err := p.loadLogo(ctx, brand, assets)
	if err != nil {
		p.logger.Warn().Err(err).Str("draft", draft.ID).Msg("brand logo unavailable")
		logoPath = ""
	}

	p.emit(Event{DraftID: draft.ID, Status: domain.DraftGenerating, Stage: "render"})
	doc := render.AssembleDocument(*listing, *draft.AIContent, *brand, logoPath)
	html, pageCount, err := p.renderer.Document(doc, views)
	if err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	pdfData, err := p.pdf.RenderPDF(ctx, html, assets)
	if err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}

	artifactKey := path.Join("drafts", draft.ID, "brochure.pdf")
	locator, err := p.blobs.Write(ctx, artifactKey, pdfData)
	if err != nil {
		return fmt.Errorf("store artifact: %w", err)
	}
	draft.Artifact = &domain.Artifact{
		Locator:   locator,
		ByteSize:  int64(len(pdfData)),
		PageCount: pageCount,
	}

	p.emit(Event{DraftID: draft.ID, Status: domain.DraftGenerating, Stage: "score"})
	report := score.Score(score.Input{
		Listing:      listing,
		Content:      draft.AIContent,
		FilledZones:  filledZones,
		BrandApplied: logoPath != "" || brand.PrimaryColor != "",
	})
	draft.QualityReport = &report
	draft.QualityScore = report.Total
	return nil
}

// loadBrand resolves the draft's brand or falls back to the tenant default.
func (p *Pipeline) loadBrand(ctx context.Context, brandID string) (*domain.Brand, error) {
	if brandID != "" {
		brand, err := p.brands.GetBrand(ctx, brandID)
		if err != nil {
			return nil, fmt.Errorf("brand %s: %w", brandID, err)
		}
		return brand, nil
	}
	brand, err := p.brands.GetDefaultBrand(ctx)
	if err != nil {
		return nil, fmt.Errorf("default brand: %w", err)
	}
	return brand, nil
}

// loadPhotos reads each source photo and prepares a downscaled preview for
// the AI pass. Unreadable or undecodable photos are skipped with a warning.
func (p *Pipeline) loadPhotos(ctx context.Context, refs []string) (map[string][]byte, []compose.PhotoPreview) {
	sources := make(map[string][]byte, len(refs))
	previews := make([]compose.PhotoPreview, 0, len(refs))
	for _, ref := range refs {
		data, err := p.blobs.Read(ctx, ref)
		if err != nil {
			p.logger.Warn().Err(err).Str("photo", ref).Msg("skipping unreadable photo")
			continue
		}
		preview, err := imaging.Preview(data, previewMaxSize)
		if err != nil {
			p.logger.Warn().Err(err).Str("photo", ref).Msg("skipping undecodable photo")
			continue
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			p.logger.Warn().Err(err).Str("photo", ref).Msg("skipping photo without dimensions")
			continue
		}
		sources[ref] = data
		previews = append(previews, compose.PhotoPreview{
			SourceRef: ref,
			Data:      preview,
			Width:     cfg.Width,
			Height:    cfg.Height,
		})
	}
	return sources, previews
}

// classificationRecords converts composition entries into the per-photo
// records stored on the draft.
func classificationRecords(entries []compose.ClassificationEntry, previews []compose.PhotoPreview) []domain.PhotoClassification {
	records := make([]domain.PhotoClassification, 0, len(entries))
	for i, e := range entries {
		rec := domain.PhotoClassification{
			Classification:  domain.Classification(e.Classification),
			Confidence:      e.Confidence,
			RecommendedZone: e.RecommendedZone,
			FocalPoint:      e.FocalPoint,
		}
		if i < len(previews) {
			rec.SourceRef = previews[i].SourceRef
		}
		records = append(records, rec)
	}
	return records
}

// photoPool builds the allocatable photo pool from classified previews.
func photoPool(entries []compose.ClassificationEntry, previews []compose.PhotoPreview, sources map[string][]byte) []domain.Photo {
	pool := make([]domain.Photo, 0, len(previews))
	for i, preview := range previews {
		if _, ok := sources[preview.SourceRef]; !ok {
			continue
		}
		photo := domain.Photo{
			SourceRef: preview.SourceRef,
			Width:     preview.Width,
			Height:    preview.Height,
		}
		if i < len(entries) {
			photo.Classification = domain.Classification(entries[i].Classification)
			photo.Confidence = entries[i].Confidence
			photo.RecommendedZone = entries[i].RecommendedZone
			photo.FocalPoint = entries[i].FocalPoint
		}
		pool = append(pool, photo)
	}
	return pool
}

// buildPages allocates photos to zones and transforms them concurrently.
// A photo that fails transformation leaves its zone unfilled; the page
// still renders.
func (p *Pipeline) buildPages(ctx context.Context, pages []layout.TemplatePage, pool []domain.Photo, sources map[string][]byte) ([]render.PageView, map[string][]byte, int, error) {
	type zoneAsset struct {
		pageIdx  int
		zoneName string
		fileName string
		data     []byte
	}

	views := make([]render.PageView, len(pages))
	var allocations []struct {
		pageIdx    int
		assignment layout.Assignment
	}
	for i, page := range pages {
		views[i] = render.PageView{ID: page.ID, Zones: make(map[string]string)}
		assigned := layout.Allocate(pool, page)
		for _, zone := range page.Zones {
			a, ok := assigned[zone.Name]
			if !ok {
				continue
			}
			allocations = append(allocations, struct {
				pageIdx    int
				assignment layout.Assignment
			}{pageIdx: i, assignment: a})
		}
	}

	results := make([]*zoneAsset, len(allocations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for idx, alloc := range allocations {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, ok := sources[alloc.assignment.Photo.SourceRef]
			if !ok {
				return nil
			}
			spec := alloc.assignment.Spec
			processed, err := p.transformer.ProcessForZone(src, spec.Width, spec.Height, alloc.assignment.Photo.FocalPoint, alloc.assignment.Photo.Classification)
			if err != nil {
				p.logger.Warn().Err(err).
					Str("photo", alloc.assignment.Photo.SourceRef).
					Str("zone", spec.Name).
					Msg("zone transform failed, leaving zone empty")
				return nil
			}
			results[idx] = &zoneAsset{
				pageIdx:  alloc.pageIdx,
				zoneName: spec.Name,
				fileName: fmt.Sprintf("p%d_%s.jpg", alloc.pageIdx+1, spec.Name),
				data:     processed.Data,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, 0, fmt.Errorf("transform photos: %w", err)
	}

	assets := make(map[string][]byte)
	filledZones := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		assets[r.fileName] = r.data
		views[r.pageIdx].Zones[r.zoneName] = r.fileName
		filledZones++
	}
	return views, assets, filledZones, nil
}

// loadLogo fetches the brand logo into the asset set and returns its
// render-relative file name.
func (p *Pipeline) loadLogo(ctx context.Context, brand *domain.Brand, assets map[string][]byte) (string, error) {
	if brand == nil || brand.LogoRef == "" {
		return "", nil
	}
	data, err := p.blobs.Read(ctx, brand.LogoRef)
	if err != nil {
		return "", err
	}
	name := "logo" + path.Ext(brand.LogoRef)
	if name == "logo" {
		name = "logo.png"
	}
	assets[name] = data
	return name, nil
}

func (p *Pipeline) acquire(draftID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, held := p.running[draftID]; held {
		return false
	}
	p.running[draftID] = struct{}{}
	return true
}

func (p *Pipeline) release(draftID string) {
	p.mu.Lock()
	delete(p.running, draftID)
	p.mu.Unlock()
}

func (p *Pipeline) emit(event Event) {
	if p.OnEvent != nil {
		p.OnEvent(event)
	}
}
