// Package domain holds the shared data model for brochure generation:
// drafts, listings, brands, and the photo records that flow through the
// pipeline.
package domain

import "time"

// DraftStatus represents the lifecycle state of a generation draft.
type DraftStatus string

// Draft status values. Transitions are monotonic:
// queued -> generating -> complete | failed.
const (
	DraftQueued     DraftStatus = "queued"
	DraftGenerating DraftStatus = "generating"
	DraftComplete   DraftStatus = "complete"
	DraftFailed     DraftStatus = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s DraftStatus) Terminal() bool {
	return s == DraftComplete || s == DraftFailed
}

// Classification is the semantic category assigned to a photo.
type Classification string

// Photo classification vocabulary.
const (
	ClassExterior  Classification = "exterior"
	ClassInterior  Classification = "interior"
	ClassAerial    Classification = "aerial"
	ClassFloorPlan Classification = "floor_plan"
	ClassDetail    Classification = "detail"
	ClassWarehouse Classification = "warehouse"
	ClassParking   Classification = "parking"
	ClassLandscape Classification = "landscape"
)

// Classifications lists every valid photo classification.
var Classifications = []Classification{
	ClassExterior, ClassInterior, ClassAerial, ClassFloorPlan,
	ClassDetail, ClassWarehouse, ClassParking, ClassLandscape,
}

// ValidClassification reports whether c is a known classification.
func ValidClassification(c Classification) bool {
	for _, v := range Classifications {
		if v == c {
			return true
		}
	}
	return false
}

// FocalPoint marks the subject center of a photo, normalized to [0,1].
type FocalPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PhotoClassification is the per-photo classification result stored on a draft.
type PhotoClassification struct {
	SourceRef       string         `json:"source_ref"`
	Classification  Classification `json:"classification"`
	Confidence      float64        `json:"confidence"`
	RecommendedZone string         `json:"recommended_zone,omitempty"`
	FocalPoint      *FocalPoint    `json:"focal_point,omitempty"`
}

// AIContent holds the marketing copy produced for a draft. All four fields
// are non-empty on every completed draft.
type AIContent struct {
	Overview   string   `json:"overview"`
	Tagline    string   `json:"tagline"`
	Highlights []string `json:"highlights"`
	Keywords   []string `json:"keywords"`
}

// AIMetrics records which model produced the content and what it cost.
type AIMetrics struct {
	Model        string        `json:"model"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	Latency      time.Duration `json:"latency_ms"`
}

// QualitySubscore is one labeled component of the quality report.
type QualitySubscore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Max   float64 `json:"max"`
}

// QualityReport is the ordered list of subscores plus the capped total.
type QualityReport struct {
	Subscores []QualitySubscore `json:"subscores"`
	Total     float64           `json:"total"`
}

// Artifact describes the finished brochure document.
type Artifact struct {
	Locator   string `json:"locator"`
	ByteSize  int64  `json:"byte_size"`
	PageCount int    `json:"page_count"`
}

// Draft is one generation attempt for a listing. Owned and mutated
// exclusively by the generation pipeline once the job starts.
type Draft struct {
	ID                   string                `json:"id"`
	ListingID            string                `json:"listing_id"`
	BrandID              string                `json:"brand_id,omitempty"` // empty -> tenant default
	TemplateSequence     []string              `json:"template_sequence,omitempty"`
	Status               DraftStatus           `json:"status"`
	Artifact             *Artifact             `json:"artifact,omitempty"`
	QualityScore         float64               `json:"quality_score"`
	QualityReport        *QualityReport        `json:"quality_report,omitempty"`
	AIContent            *AIContent            `json:"ai_content,omitempty"`
	AIMetrics            *AIMetrics            `json:"ai_metrics,omitempty"`
	PhotoClassifications []PhotoClassification `json:"photo_classifications,omitempty"`
	ErrorMessage         string                `json:"error_message,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

// BrokerContact is a listing agent shown on the brochure.
type BrokerContact struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Listing is the external property-facts record, read-only to the pipeline.
type Listing struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Address         string          `json:"address"`
	City            string          `json:"city"`
	State           string          `json:"state,omitempty"`
	Zip             string          `json:"zip,omitempty"`
	TransactionType string          `json:"transaction_type"` // for_sale, for_lease, ...
	SalePrice       float64         `json:"sale_price,omitempty"`
	LeaseRateSF     float64         `json:"lease_rate_sf,omitempty"` // $/SF/year
	BuildingSF      float64         `json:"building_sf,omitempty"`
	LotAcres        float64         `json:"lot_acres,omitempty"`
	Zoning          string          `json:"zoning,omitempty"`
	YearBuilt       int             `json:"year_built,omitempty"`
	Overview        string          `json:"overview,omitempty"`
	Highlights      []string        `json:"highlights,omitempty"`
	Brokers         []BrokerContact `json:"brokers,omitempty"`
	PhotoRefs       []string        `json:"photo_refs,omitempty"`
}

// OfficeAddress is one brand office line printed on the back page.
type OfficeAddress struct {
	Label   string `json:"label,omitempty"`
	Address string `json:"address"`
}

// Brand is the tenant theming record, read-only to the pipeline.
type Brand struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	PrimaryColor   string          `json:"primary_color"`
	SecondaryColor string          `json:"secondary_color"`
	AccentColor    string          `json:"accent_color,omitempty"`
	FontFamily     string          `json:"font_family"`
	Disclaimer     string          `json:"disclaimer,omitempty"`
	LogoRef        string          `json:"logo_ref,omitempty"`
	Offices        []OfficeAddress `json:"offices,omitempty"`
}

// Photo is the ephemeral per-run record for a single source photograph.
type Photo struct {
	SourceRef       string
	Width           int
	Height          int
	Classification  Classification
	Confidence      float64
	RecommendedZone string
	FocalPoint      *FocalPoint
}

// ProcessedPhoto is the output of transforming a photo for one zone.
type ProcessedPhoto struct {
	SourceRef string
	Data      []byte
	Width     int
	Height    int
}
