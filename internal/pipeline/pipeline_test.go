package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/listingpress/listingpress/internal/compose"
	"github.com/listingpress/listingpress/internal/config"
	"github.com/listingpress/listingpress/internal/domain"
	"github.com/listingpress/listingpress/internal/imaging"
	"github.com/listingpress/listingpress/internal/render"
)

type memDrafts struct {
	mu        sync.Mutex
	drafts    map[string]*domain.Draft
	updateErr error
}

func (m *memDrafts) GetDraft(_ context.Context, id string) (*domain.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft %s not found", id)
	}
	copied := *d
	return &copied, nil
}

func (m *memDrafts) UpdateDraft(_ context.Context, draft *domain.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	copied := *draft
	m.drafts[draft.ID] = &copied
	return nil
}

type memListings struct {
	listings map[string]*domain.Listing
}

func (m *memListings) GetListing(_ context.Context, id string) (*domain.Listing, error) {
	l, ok := m.listings[id]
	if !ok {
		return nil, fmt.Errorf("listing %s not found", id)
	}
	return l, nil
}

type memBrands struct {
	brands       map[string]*domain.Brand
	defaultBrand *domain.Brand
}

func (m *memBrands) GetBrand(_ context.Context, id string) (*domain.Brand, error) {
	b, ok := m.brands[id]
	if !ok {
		return nil, fmt.Errorf("brand %s not found", id)
	}
	return b, nil
}

func (m *memBrands) GetDefaultBrand(_ context.Context) (*domain.Brand, error) {
	if m.defaultBrand == nil {
		return nil, errors.New("no default brand")
	}
	return m.defaultBrand, nil
}

type memBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (m *memBlobs) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", key)
	}
	return data, nil
}

func (m *memBlobs) Write(_ context.Context, key string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	return key, nil
}

type stubPDF struct {
	err     error
	started chan struct{} // closed once on first call, when set
	release chan struct{} // blocks RenderPDF until closed, when set
}

func (s *stubPDF) RenderPDF(ctx context.Context, _ string, _ map[string][]byte) ([]byte, error) {
	if s.started != nil {
		close(s.started)
		s.started = nil
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-1.7 stub"), nil
}

func solidJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 110, B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func testPhrases() config.PhraseTables {
	return config.PhraseTables{
		Overview: map[string]string{
			"for_sale": "An exceptional acquisition opportunity",
			"default":  "A versatile commercial property",
		},
		Tagline: map[string]string{
			"for_sale": "Own Your Next Chapter",
			"default":  "Commercial Space That Works",
		},
	}
}

type fixture struct {
	pipeline *Pipeline
	drafts   *memDrafts
	blobs    *memBlobs
	events   []Event
	eventsMu sync.Mutex
}

func newFixture(t *testing.T, pdf render.PDFRenderer) *fixture {
	t.Helper()
	listing := &domain.Listing{
		ID:              "lst-1",
		Name:            "Palm Plaza",
		Address:         "100 Palm Ave",
		City:            "Fort Myers",
		State:           "FL",
		TransactionType: "for_sale",
		SalePrice:       900000,
		BuildingSF:      12000,
		Zoning:          "C-1",
		Highlights:      []string{"Corner parcel", "New HVAC"},
		PhotoRefs:       []string{"photos/a.jpg", "photos/b.jpg"},
	}
	blobs := &memBlobs{blobs: map[string][]byte{
		"photos/a.jpg": solidJPEG(t, 1600, 900),
		"photos/b.jpg": solidJPEG(t, 1200, 900),
	}}
	drafts := &memDrafts{drafts: map[string]*domain.Draft{
		"draft-1": {ID: "draft-1", ListingID: "lst-1", Status: domain.DraftQueued},
	}}
	brands := &memBrands{defaultBrand: &domain.Brand{
		ID:           "brand-default",
		Name:         "Gulf Coast Commercial",
		PrimaryColor: "#1b3a5c",
		FontFamily:   "Georgia",
	}}

	presets := &config.Presets{Phrases: testPhrases()}
	engine := compose.NewEngine(nil, presets, config.AI{Timeout: time.Second, RatePerMin: 600}, zerolog.Nop())
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New failed: %v", err)
	}

	f := &fixture{drafts: drafts, blobs: blobs}
	p := New(drafts, &memListings{listings: map[string]*domain.Listing{"lst-1": listing}}, brands, blobs,
		engine, imaging.NewTransformer(presets), renderer, pdf, 2, zerolog.Nop())
	p.OnEvent = func(e Event) {
		f.eventsMu.Lock()
		f.events = append(f.events, e)
		f.eventsMu.Unlock()
	}
	f.pipeline = p
	return f
}

func TestRunCompletesWithOfflineComposition(t *testing.T) {
	f := newFixture(t, &stubPDF{})

	if err := f.pipeline.Run(context.Background(), "draft-1"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	draft, err := f.drafts.GetDraft(context.Background(), "draft-1")
	if err != nil {
		t.Fatalf("GetDraft failed: %v", err)
	}
	if draft.Status != domain.DraftComplete {
		t.Fatalf("status = %s, want complete (error: %s)", draft.Status, draft.ErrorMessage)
	}
	if draft.Artifact == nil {
		t.Fatal("artifact missing")
	}
	if draft.Artifact.Locator != "drafts/draft-1/brochure.pdf" {
		t.Errorf("locator = %q", draft.Artifact.Locator)
	}
	// for_sale sequence: cover, details, aerial, gallery, back
	if draft.Artifact.PageCount != 5 {
		t.Errorf("page count = %d, want 5", draft.Artifact.PageCount)
	}
	if draft.Artifact.ByteSize == 0 {
		t.Error("artifact byte size is zero")
	}
	if draft.AIMetrics == nil || draft.AIMetrics.Model != compose.OfflineModel {
		t.Errorf("metrics = %+v, want offline model", draft.AIMetrics)
	}
	if draft.AIContent == nil || draft.AIContent.Overview == "" || draft.AIContent.Tagline == "" {
		t.Errorf("AI content incomplete: %+v", draft.AIContent)
	}
	if len(draft.PhotoClassifications) != 2 {
		t.Errorf("classifications = %d, want 2", len(draft.PhotoClassifications))
	}
	if draft.QualityScore <= 0 {
		t.Errorf("quality score = %f", draft.QualityScore)
	}
	if _, ok := f.blobs.blobs["drafts/draft-1/brochure.pdf"]; !ok {
		t.Error("artifact not written to blob store")
	}
}

func TestRunEmitsLifecycleEvents(t *testing.T) {
	f := newFixture(t, &stubPDF{})
	if err := f.pipeline.Run(context.Background(), "draft-1"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(f.events) < 2 {
		t.Fatalf("expected lifecycle events, got %v", f.events)
	}
	first, last := f.events[0], f.events[len(f.events)-1]
	if first.Status != domain.DraftGenerating || first.Stage != "started" {
		t.Errorf("first event = %+v", first)
	}
	if last.Status != domain.DraftComplete {
		t.Errorf("last event = %+v", last)
	}
}

func TestRunMissingListingFails(t *testing.T) {
	f := newFixture(t, &stubPDF{})
	f.drafts.drafts["draft-2"] = &domain.Draft{ID: "draft-2", ListingID: "gone", Status: domain.DraftQueued}

	err := f.pipeline.Run(context.Background(), "draft-2")
	if err == nil {
		t.Fatal("expected error for missing listing")
	}
	draft, _ := f.drafts.GetDraft(context.Background(), "draft-2")
	if draft.Status != domain.DraftFailed {
		t.Errorf("status = %s, want failed", draft.Status)
	}
	if draft.ErrorMessage == "" {
		t.Error("error message not recorded")
	}
}

func TestRunRenderFailureFails(t *testing.T) {
	f := newFixture(t, &stubPDF{err: errors.New("chromium crashed")})

	err := f.pipeline.Run(context.Background(), "draft-1")
	if err == nil {
		t.Fatal("expected error for render failure")
	}
	draft, _ := f.drafts.GetDraft(context.Background(), "draft-1")
	if draft.Status != domain.DraftFailed {
		t.Errorf("status = %s, want failed", draft.Status)
	}
}

func TestRunRejectsNonQueuedDraft(t *testing.T) {
	f := newFixture(t, &stubPDF{})
	f.drafts.drafts["draft-1"].Status = domain.DraftComplete

	err := f.pipeline.Run(context.Background(), "draft-1")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestRunExclusivePerDraft(t *testing.T) {
	pdf := &stubPDF{started: make(chan struct{}), release: make(chan struct{})}
	f := newFixture(t, pdf)
	started := pdf.started

	done := make(chan error, 1)
	go func() {
		done <- f.pipeline.Run(context.Background(), "draft-1")
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first run never reached render stage")
	}

	if err := f.pipeline.Run(context.Background(), "draft-1"); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("concurrent run err = %v, want ErrAlreadyRunning", err)
	}

	close(pdf.release)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
}

func TestRunSkipsUnreadablePhoto(t *testing.T) {
	f := newFixture(t, &stubPDF{})
	delete(f.blobs.blobs, "photos/b.jpg")

	if err := f.pipeline.Run(context.Background(), "draft-1"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	draft, _ := f.drafts.GetDraft(context.Background(), "draft-1")
	if draft.Status != domain.DraftComplete {
		t.Fatalf("status = %s, want complete", draft.Status)
	}
	if len(draft.PhotoClassifications) != 1 {
		t.Errorf("classifications = %d, want 1", len(draft.PhotoClassifications))
	}
}
