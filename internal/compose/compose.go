// Package compose produces the marketing copy and photo-role recommendations
// for a brochure. Two paths satisfy the same output contract: an external
// language-model provider and a deterministic offline generator. The engine
// always validates and back-fills the result, so callers never see a partial
// or empty composition.
package compose

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/listingpress/listingpress/internal/config"
	"github.com/listingpress/listingpress/internal/domain"
)

// OfflineModel identifies the fallback path in draft metrics.
const OfflineModel = "offline/phrase-tables"

// PhotoPreview is a downscaled photo handed to the composition paths.
type PhotoPreview struct {
	SourceRef string
	Data      []byte // JPEG preview bytes; may be nil when the source failed to load
	Width     int
	Height    int
}

// ClassificationEntry is the per-photo recommendation inside a Result,
// indexed parallel to the input previews.
type ClassificationEntry struct {
	Classification  string             `json:"classification"`
	Confidence      float64            `json:"confidence"`
	RecommendedZone string             `json:"recommended_zone,omitempty"`
	FocalPoint      *domain.FocalPoint `json:"focal_point,omitempty"`
}

// Result is the shared composition contract. Both paths return this shape;
// after validation every field is populated and PhotoClassifications has
// exactly one entry per input preview.
type Result struct {
	PhotoClassifications []ClassificationEntry `json:"photo_classifications"`
	PropertyOverview     string                `json:"property_overview"`
	TaglineSuggestion    string                `json:"tagline_suggestion"`
	HighlightsEnhanced   []string              `json:"highlights_enhanced"`
	SEOKeywords          []string              `json:"seo_keywords"`
}

// Provider is an external AI composition backend.
type Provider interface {
	Name() string
	Compose(ctx context.Context, listing *domain.Listing, previews []PhotoPreview) (*Result, *domain.AIMetrics, error)
}

// Engine coordinates the AI path, the offline fallback, and validation.
type Engine struct {
	provider Provider // nil when no AI service is configured
	offline  *OfflineComposer
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewEngine builds a composition engine. provider may be nil, in which case
// every composition takes the offline path.
func NewEngine(provider Provider, presets *config.Presets, aiCfg config.AI, logger zerolog.Logger) *Engine {
	perMin := aiCfg.RatePerMin
	if perMin <= 0 {
		perMin = 30
	}
	return &Engine{
		provider: provider,
		offline:  NewOfflineComposer(presets.Phrases),
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin),
		timeout:  aiCfg.Timeout,
		logger:   logger.With().Str("component", "compose").Logger(),
	}
}

// Compose returns validated content for the listing. AI failures of any kind
// (network, timeout, malformed payload) are recovered by the offline path;
// this method never fails.
func (e *Engine) Compose(ctx context.Context, listing *domain.Listing, previews []PhotoPreview) (*Result, *domain.AIMetrics) {
	result, metrics := e.compose(ctx, listing, previews)
	e.Validate(result, listing, previews)
	return result, metrics
}

func (e *Engine) compose(ctx context.Context, listing *domain.Listing, previews []PhotoPreview) (*Result, *domain.AIMetrics) {
	if e.provider != nil {
		if err := e.limiter.Wait(ctx); err == nil {
			callCtx := ctx
			var cancel context.CancelFunc
			if e.timeout > 0 {
				callCtx, cancel = context.WithTimeout(ctx, e.timeout)
			}
			result, metrics, err := e.provider.Compose(callCtx, listing, previews)
			if cancel != nil {
				cancel()
			}
			if err == nil {
				return result, metrics
			}
			e.logger.Warn().Err(err).Str("provider", e.provider.Name()).
				Msg("ai composition failed, using offline path")
		}
	}

	start := time.Now()
	result := e.offline.Compose(listing, previews)
	return result, &domain.AIMetrics{
		Model:   OfflineModel,
		Latency: time.Since(start),
	}
}

// Validate enforces the output contract in place: non-empty copy fields
// (back-filled from the offline generators) and exactly one classification
// entry per input preview.
func (e *Engine) Validate(result *Result, listing *domain.Listing, previews []PhotoPreview) {
	if result.PropertyOverview == "" {
		result.PropertyOverview = e.offline.Overview(listing)
	}
	if result.TaglineSuggestion == "" {
		result.TaglineSuggestion = e.offline.Tagline(listing)
	}
	if len(result.HighlightsEnhanced) == 0 {
		result.HighlightsEnhanced = e.offline.Highlights(listing)
	}
	if len(result.SEOKeywords) == 0 {
		result.SEOKeywords = e.offline.Keywords(listing)
	}

	// Normalize unknown classification strings before padding.
	for i := range result.PhotoClassifications {
		entry := &result.PhotoClassifications[i]
		if !domain.ValidClassification(domain.Classification(entry.Classification)) {
			entry.Classification = string(domain.ClassExterior)
			entry.Confidence = defaultEntryConfidence
		}
		if entry.RecommendedZone == "" {
			entry.RecommendedZone = ZoneForClassification(domain.Classification(entry.Classification))
		}
	}

	// Pad missing trailing entries with low-confidence defaults; drop extras.
	for len(result.PhotoClassifications) < len(previews) {
		result.PhotoClassifications = append(result.PhotoClassifications, defaultEntry())
	}
	if len(result.PhotoClassifications) > len(previews) {
		result.PhotoClassifications = result.PhotoClassifications[:len(previews)]
	}
}

// defaultEntryConfidence marks entries the AI did not actually classify.
const defaultEntryConfidence = 0.3

func defaultEntry() ClassificationEntry {
	return ClassificationEntry{
		Classification:  string(domain.ClassExterior),
		Confidence:      defaultEntryConfidence,
		RecommendedZone: ZoneForClassification(domain.ClassExterior),
	}
}

// ZoneForClassification suggests the brochure zone a classification usually
// fills. The allocator makes the final call; this is a hint for reviewers.
func ZoneForClassification(c domain.Classification) string {
	switch c {
	case domain.ClassExterior:
		return "hero"
	case domain.ClassAerial, domain.ClassLandscape:
		return "aerial_main"
	case domain.ClassInterior, domain.ClassWarehouse:
		return "feature"
	case domain.ClassFloorPlan:
		return "plan"
	case domain.ClassDetail, domain.ClassParking:
		return "secondary"
	default:
		return "hero"
	}
}
