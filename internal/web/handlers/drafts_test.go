package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/listingpress/listingpress/internal/domain"
	"github.com/listingpress/listingpress/internal/store/mock"
)

type fakeRunner struct {
	mu      sync.Mutex
	calls   []string
	err     error
	started chan string
	block   chan struct{}
}

func (f *fakeRunner) Run(_ context.Context, draftID string) error {
	f.mu.Lock()
	f.calls = append(f.calls, draftID)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- draftID
	}
	if f.block != nil {
		<-f.block
	}
	return f.err
}

type fakeBlobs struct {
	blobs map[string][]byte
}

func (f *fakeBlobs) Read(_ context.Context, key string) ([]byte, error) {
	data, ok := f.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", key)
	}
	return data, nil
}

type testEnv struct {
	router *chi.Mux
	drafts *mock.DraftStore
	blobs  *fakeBlobs
	jobs   *JobManager
	runner *fakeRunner
}

func newTestEnv(runner *fakeRunner) *testEnv {
	drafts := mock.NewDraftStore()
	blobs := &fakeBlobs{blobs: make(map[string][]byte)}
	jobs := NewJobManager()
	h := NewDraftHandler(drafts, blobs, runner, jobs, zerolog.Nop())

	r := chi.NewRouter()
	r.Get("/healthz", HealthCheck)
	r.Route("/api/v1/drafts", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Route("/{draftId}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Post("/generate", h.Generate)
			r.Get("/events", h.Events)
			r.Get("/artifact", h.Artifact)
		})
	})
	return &testEnv{router: r, drafts: drafts, blobs: blobs, jobs: jobs, runner: runner}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateDraft(t *testing.T) {
	env := newTestEnv(&fakeRunner{})

	rec := env.do(t, http.MethodPost, "/api/v1/drafts", createDraftRequest{
		ListingID:        "lst-1",
		TemplateSequence: []string{"cover", "back"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var draft domain.Draft
	if err := json.Unmarshal(rec.Body.Bytes(), &draft); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if draft.ID == "" || draft.Status != domain.DraftQueued {
		t.Errorf("draft = %+v", draft)
	}

	stored, err := env.drafts.GetDraft(context.Background(), draft.ID)
	if err != nil {
		t.Fatalf("draft not persisted: %v", err)
	}
	if stored.ListingID != "lst-1" {
		t.Errorf("ListingID = %q", stored.ListingID)
	}
}

func TestCreateDraftValidation(t *testing.T) {
	env := newTestEnv(&fakeRunner{})

	rec := env.do(t, http.MethodPost, "/api/v1/drafts", createDraftRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing listing_id: status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/drafts", createDraftRequest{
		ListingID:        "lst-1",
		TemplateSequence: []string{"cover", "mystery"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown template page: status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts", strings.NewReader("{not json"))
	badRec := httptest.NewRecorder()
	env.router.ServeHTTP(badRec, req)
	if badRec.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON: status = %d", badRec.Code)
	}
}

func TestGetDraft(t *testing.T) {
	env := newTestEnv(&fakeRunner{})
	env.drafts.AddDraft(domain.Draft{ID: "d1", ListingID: "lst-1", Status: domain.DraftQueued})

	rec := env.do(t, http.MethodGet, "/api/v1/drafts/d1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var draft domain.Draft
	json.Unmarshal(rec.Body.Bytes(), &draft)
	if draft.ID != "d1" {
		t.Errorf("ID = %q", draft.ID)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/drafts/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing draft: status = %d", rec.Code)
	}
}

func TestGenerateAccepted(t *testing.T) {
	runner := &fakeRunner{started: make(chan string, 1)}
	env := newTestEnv(runner)
	env.drafts.AddDraft(domain.Draft{ID: "d1", ListingID: "lst-1", Status: domain.DraftQueued})

	rec := env.do(t, http.MethodPost, "/api/v1/drafts/d1/generate", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	select {
	case id := <-runner.started:
		if id != "d1" {
			t.Errorf("runner started with %q", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runner was never called")
	}
}

func TestGenerateMissingDraft(t *testing.T) {
	env := newTestEnv(&fakeRunner{})
	rec := env.do(t, http.MethodPost, "/api/v1/drafts/missing/generate", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestGenerateConflictOnNonQueued(t *testing.T) {
	env := newTestEnv(&fakeRunner{})
	env.drafts.AddDraft(domain.Draft{ID: "d1", ListingID: "lst-1", Status: domain.DraftComplete})

	rec := env.do(t, http.MethodPost, "/api/v1/drafts/d1/generate", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestGenerateConflictOnRunningJob(t *testing.T) {
	runner := &fakeRunner{started: make(chan string, 1), block: make(chan struct{})}
	defer close(runner.block)
	env := newTestEnv(runner)
	env.drafts.AddDraft(domain.Draft{ID: "d1", ListingID: "lst-1", Status: domain.DraftQueued})

	rec := env.do(t, http.MethodPost, "/api/v1/drafts/d1/generate", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first generate: status = %d", rec.Code)
	}
	<-runner.started

	rec = env.do(t, http.MethodPost, "/api/v1/drafts/d1/generate", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("second generate: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestArtifactDownload(t *testing.T) {
	env := newTestEnv(&fakeRunner{})
	env.drafts.AddDraft(domain.Draft{
		ID:        "d1",
		ListingID: "lst-1",
		Status:    domain.DraftComplete,
		Artifact:  &domain.Artifact{Locator: "drafts/d1/brochure.pdf", ByteSize: 8, PageCount: 5},
	})
	env.blobs.blobs["drafts/d1/brochure.pdf"] = []byte("%PDF-1.7")

	rec := env.do(t, http.MethodGet, "/api/v1/drafts/d1/artifact", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Body.String() != "%PDF-1.7" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestArtifactNotReady(t *testing.T) {
	env := newTestEnv(&fakeRunner{})
	env.drafts.AddDraft(domain.Draft{ID: "d1", ListingID: "lst-1", Status: domain.DraftGenerating})

	rec := env.do(t, http.MethodGet, "/api/v1/drafts/d1/artifact", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/drafts/missing/artifact", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing draft: status = %d", rec.Code)
	}
}

func TestEventsStreamTerminalJob(t *testing.T) {
	env := newTestEnv(&fakeRunner{})
	env.jobs.CreateJob("d1")
	env.jobs.Dispatch("d1", domain.DraftComplete, "", "")

	rec := env.do(t, http.MethodGet, "/api/v1/drafts/d1/events", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: status") {
		t.Errorf("missing status frame: %q", body)
	}
	if !strings.Contains(body, string(domain.DraftComplete)) {
		t.Errorf("missing complete status: %q", body)
	}
}

func TestEventsMissingJob(t *testing.T) {
	env := newTestEnv(&fakeRunner{})
	rec := env.do(t, http.MethodGet, "/api/v1/drafts/d1/events", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(&fakeRunner{})
	rec := env.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestJobManagerDispatch(t *testing.T) {
	jm := NewJobManager()
	job, created := jm.CreateJob("d1")
	if !created {
		t.Fatal("expected job creation")
	}

	ch := job.AddListener()
	jm.Dispatch("d1", domain.DraftGenerating, "compose", "")

	select {
	case event := <-ch:
		if event.Type != "status" {
			t.Errorf("event type = %q", event.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	if job.GetStatus() != domain.DraftGenerating {
		t.Errorf("status = %s", job.GetStatus())
	}

	// A running job blocks re-creation; a terminal one does not.
	if _, created := jm.CreateJob("d1"); created {
		t.Error("expected creation to be refused for running job")
	}
	jm.Dispatch("d1", domain.DraftFailed, "", "boom")
	if _, created := jm.CreateJob("d1"); !created {
		t.Error("expected creation after terminal job")
	}
}
