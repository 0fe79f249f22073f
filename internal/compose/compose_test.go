package compose

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/listingpress/listingpress/internal/config"
	"github.com/listingpress/listingpress/internal/domain"
)

type fakeProvider struct {
	result  *Result
	metrics *domain.AIMetrics
	err     error
	delay   time.Duration
	calls   int
}

func (f *fakeProvider) Name() string { return "fake-model" }

func (f *fakeProvider) Compose(ctx context.Context, listing *domain.Listing, previews []PhotoPreview) (*Result, *domain.AIMetrics, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	return f.result, f.metrics, f.err
}

func testEngine(provider Provider) *Engine {
	presets := &config.Presets{Phrases: testPhrases()}
	return NewEngine(provider, presets, config.AI{Timeout: time.Second, RatePerMin: 600}, zerolog.Nop())
}

func TestEngineUsesProviderResult(t *testing.T) {
	provider := &fakeProvider{
		result: &Result{
			PhotoClassifications: []ClassificationEntry{{Classification: "aerial", Confidence: 0.9}},
			PropertyOverview:     "A fine property.",
			TaglineSuggestion:    "Buy it",
			HighlightsEnhanced:   []string{"Highlight"},
			SEOKeywords:          []string{"keyword"},
		},
		metrics: &domain.AIMetrics{Model: "fake-model", InputTokens: 100, OutputTokens: 50},
	}
	engine := testEngine(provider)

	result, metrics := engine.Compose(context.Background(), fortMyersListing(), []PhotoPreview{{Width: 100, Height: 100}})

	if metrics.Model != "fake-model" {
		t.Errorf("expected provider metrics, got %s", metrics.Model)
	}
	if result.PropertyOverview != "A fine property." {
		t.Errorf("expected provider overview, got %q", result.PropertyOverview)
	}
}

func TestEngineFallsBackOnProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	engine := testEngine(provider)

	result, metrics := engine.Compose(context.Background(), fortMyersListing(), nil)

	if metrics.Model != OfflineModel {
		t.Errorf("expected offline model in metrics, got %s", metrics.Model)
	}
	if result.PropertyOverview == "" || result.TaglineSuggestion == "" {
		t.Error("fallback result must be fully populated")
	}
	if provider.calls != 1 {
		t.Errorf("expected one provider call, got %d", provider.calls)
	}
}

func TestEngineFallsBackOnTimeout(t *testing.T) {
	provider := &fakeProvider{delay: 5 * time.Second}
	presets := &config.Presets{Phrases: testPhrases()}
	engine := NewEngine(provider, presets, config.AI{Timeout: 50 * time.Millisecond, RatePerMin: 600}, zerolog.Nop())

	start := time.Now()
	_, metrics := engine.Compose(context.Background(), fortMyersListing(), nil)

	if metrics.Model != OfflineModel {
		t.Errorf("expected offline fallback after timeout, got %s", metrics.Model)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout did not bound the provider call")
	}
}

func TestEngineNoProvider(t *testing.T) {
	engine := testEngine(nil)

	result, metrics := engine.Compose(context.Background(), fortMyersListing(), nil)

	if metrics.Model != OfflineModel {
		t.Errorf("expected offline model, got %s", metrics.Model)
	}
	if result.PropertyOverview == "" {
		t.Error("offline overview must be non-empty")
	}
}

func TestValidatePadsClassifications(t *testing.T) {
	engine := testEngine(nil)
	previews := make([]PhotoPreview, 5)
	result := &Result{
		PhotoClassifications: []ClassificationEntry{
			{Classification: "aerial", Confidence: 0.9},
			{Classification: "interior", Confidence: 0.8},
			{Classification: "exterior", Confidence: 0.85},
		},
		PropertyOverview:   "x",
		TaglineSuggestion:  "y",
		HighlightsEnhanced: []string{"h"},
		SEOKeywords:        []string{"k"},
	}

	engine.Validate(result, fortMyersListing(), previews)

	if len(result.PhotoClassifications) != 5 {
		t.Fatalf("expected 5 entries after padding, got %d", len(result.PhotoClassifications))
	}
	for _, i := range []int{3, 4} {
		entry := result.PhotoClassifications[i]
		if entry.Classification != string(domain.ClassExterior) {
			t.Errorf("padded entry %d: expected exterior default, got %s", i, entry.Classification)
		}
		if entry.Confidence != defaultEntryConfidence {
			t.Errorf("padded entry %d: expected confidence %f, got %f", i, defaultEntryConfidence, entry.Confidence)
		}
	}
	// Original entries survive untouched.
	if result.PhotoClassifications[0].Classification != "aerial" {
		t.Error("existing entries must not be modified by padding")
	}
}

func TestValidateTruncatesExtraClassifications(t *testing.T) {
	engine := testEngine(nil)
	result := &Result{
		PhotoClassifications: make([]ClassificationEntry, 7),
		PropertyOverview:     "x",
		TaglineSuggestion:    "y",
		HighlightsEnhanced:   []string{"h"},
		SEOKeywords:          []string{"k"},
	}

	engine.Validate(result, fortMyersListing(), make([]PhotoPreview, 2))

	if len(result.PhotoClassifications) != 2 {
		t.Errorf("expected truncation to 2 entries, got %d", len(result.PhotoClassifications))
	}
}

func TestValidateBackfillsEmptyFields(t *testing.T) {
	engine := testEngine(nil)
	result := &Result{}

	engine.Validate(result, fortMyersListing(), nil)

	if result.PropertyOverview == "" || result.TaglineSuggestion == "" {
		t.Error("validation must back-fill overview and tagline")
	}
	if len(result.HighlightsEnhanced) == 0 || len(result.SEOKeywords) == 0 {
		t.Error("validation must back-fill highlights and keywords")
	}
}

func TestValidateNormalizesUnknownClassification(t *testing.T) {
	engine := testEngine(nil)
	result := &Result{
		PhotoClassifications: []ClassificationEntry{{Classification: "skyscraper", Confidence: 0.99}},
		PropertyOverview:     "x",
		TaglineSuggestion:    "y",
		HighlightsEnhanced:   []string{"h"},
		SEOKeywords:          []string{"k"},
	}

	engine.Validate(result, fortMyersListing(), make([]PhotoPreview, 1))

	entry := result.PhotoClassifications[0]
	if entry.Classification != string(domain.ClassExterior) {
		t.Errorf("unknown classification should normalize to exterior, got %s", entry.Classification)
	}
	if entry.Confidence != defaultEntryConfidence {
		t.Errorf("normalized entry should carry default confidence, got %f", entry.Confidence)
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, true},
		{"prose wrapped", "Here is the JSON:\n```json\n{\"a\": {\"b\": 2}}\n```\nDone.", `{"a": {"b": 2}}`, true},
		{"braces in strings", `{"text": "use { and } freely"}`, `{"text": "use { and } freely"}`, true},
		{"escaped quote", `{"text": "say \"hi\" {"}`, `{"text": "say \"hi\" {"}`, true},
		{"no object", "nothing here", "", false},
		{"unbalanced", `{"a": 1`, "", false},
	}
	for _, tc := range cases {
		got, ok := extractJSONObject(tc.input)
		if ok != tc.ok {
			t.Errorf("%s: expected ok=%v, got %v", tc.name, tc.ok, ok)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestParseResultRecoversWrappedJSON(t *testing.T) {
	content := "Sure! Here you go:\n{\"property_overview\": \"Nice place\", \"tagline_suggestion\": \"Buy\", \"highlights_enhanced\": [\"a\"], \"seo_keywords\": [\"b\"], \"photo_classifications\": []}"

	result, err := parseResult(content)
	if err != nil {
		t.Fatalf("parseResult failed: %v", err)
	}
	if result.PropertyOverview != "Nice place" {
		t.Errorf("expected extracted overview, got %q", result.PropertyOverview)
	}
}

func TestParseResultRejectsGarbage(t *testing.T) {
	if _, err := parseResult("not json at all"); err == nil {
		t.Error("expected parse error")
	}
}
