// Package classify assigns a semantic category to listing photographs.
//
// Classification runs in strict priority order: an explicitly declared type
// wins outright, then filename keyword matching, then a heuristic on image
// aspect ratio and color statistics. The thresholds here are contract — the
// offline composer and the tests depend on them exactly.
package classify

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/listingpress/listingpress/internal/domain"
)

// Confidence levels by classification source.
const (
	ConfidenceDeclared  = 0.95
	ConfidenceKeyword   = 0.80
	ConfidenceHeuristic = 0.55
	ConfidenceAspect    = 0.60 // strong aspect-ratio signals (aerial, floor plan)
	ConfidenceDefault   = 0.50
	ConfidenceFallback  = 0.30 // unclassifiable photos get this low-confidence default
)

// Heuristic thresholds.
const (
	aerialAspect     = 2.0  // wider than 2:1 reads as a panorama/drone shot
	exteriorAspect   = 1.5  // standard landscape framing
	interiorAspect   = 0.8  // portrait framing
	planBrightness   = 0.82 // floor plans are mostly white paper
	planSaturationLT = 0.12 // with almost no color
)

// keywordTable maps classifications to filename keywords, checked in order.
var keywordTable = []struct {
	class    domain.Classification
	keywords []string
}{
	{domain.ClassAerial, []string{"aerial", "drone", "birdseye", "overhead"}},
	{domain.ClassFloorPlan, []string{"floor", "plan", "layout", "blueprint"}},
	{domain.ClassWarehouse, []string{"warehouse", "dock", "loading", "bay"}},
	{domain.ClassParking, []string{"parking", "garage", "lot"}},
	{domain.ClassLandscape, []string{"landscape", "grounds", "courtyard", "garden"}},
	{domain.ClassInterior, []string{"interior", "inside", "lobby", "office", "suite", "kitchen"}},
	{domain.ClassExterior, []string{"exterior", "facade", "front", "building", "outside"}},
	{domain.ClassDetail, []string{"detail", "closeup", "signage", "entrance"}},
}

// Hints carries optional classification inputs supplied by the caller.
type Hints struct {
	DeclaredType string // explicit photo type from the listing record
	Filename     string // original filename, matched against keyword lists
}

// Stats holds the image measurements the heuristic works from.
type Stats struct {
	Width      int
	Height     int
	Brightness float64 // mean luminance, 0..1
	Saturation float64 // mean saturation estimate, 0..1
}

// AspectRatio returns width/height, or 0 for degenerate dimensions.
func (s Stats) AspectRatio() float64 {
	if s.Height <= 0 {
		return 0
	}
	return float64(s.Width) / float64(s.Height)
}

// Classify resolves one classification for a photo. Priority: declared type,
// filename keywords, image heuristic. Stats may be zero-valued when the image
// could not be decoded; the result is then the low-confidence default.
func Classify(hints Hints, stats Stats) (domain.Classification, float64) {
	if c := declared(hints.DeclaredType); c != "" {
		return c, ConfidenceDeclared
	}
	if c := byFilename(hints.Filename); c != "" {
		return c, ConfidenceKeyword
	}
	if stats.Width <= 0 || stats.Height <= 0 {
		return domain.ClassExterior, ConfidenceFallback
	}
	return ByStats(stats)
}

// ByStats runs the pure aspect/color heuristic. This is the only signal
// available to the offline composition path.
func ByStats(stats Stats) (domain.Classification, float64) {
	aspect := stats.AspectRatio()
	switch {
	case aspect > aerialAspect:
		return domain.ClassAerial, ConfidenceAspect
	case stats.Brightness > planBrightness && stats.Saturation < planSaturationLT:
		return domain.ClassFloorPlan, ConfidenceAspect
	case aspect > exteriorAspect:
		return domain.ClassExterior, ConfidenceHeuristic
	case aspect < interiorAspect && aspect > 0:
		return domain.ClassInterior, ConfidenceHeuristic
	default:
		return domain.ClassExterior, ConfidenceDefault
	}
}

// declared normalizes an explicit type hint to a known classification.
func declared(s string) domain.Classification {
	c := domain.Classification(strings.ToLower(strings.TrimSpace(s)))
	if c != "" && domain.ValidClassification(c) {
		return c
	}
	return ""
}

// byFilename matches the filename (without extension) against keyword lists.
func byFilename(name string) domain.Classification {
	if name == "" {
		return ""
	}
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	for _, entry := range keywordTable {
		for _, kw := range entry.keywords {
			if strings.Contains(base, kw) {
				return entry.class
			}
		}
	}
	return ""
}

// ComputeStats decodes an image and measures the statistics the heuristic
// needs. Sampling is strided to keep large sources cheap.
func ComputeStats(data []byte) (Stats, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Stats{}, err
	}
	return statsFromImage(img), nil
}

func statsFromImage(img image.Image) Stats {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// Sample at most ~64 points per axis.
	stride := 1
	if width > 64 {
		stride = width / 64
	}
	strideY := 1
	if height > 64 {
		strideY = height / 64
	}

	var lumSum, satSum float64
	var samples int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += strideY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			r, g, b, _ := img.At(x, y).RGBA()
			rf := float64(r) / 65535.0
			gf := float64(g) / 65535.0
			bf := float64(b) / 65535.0

			lumSum += 0.299*rf + 0.587*gf + 0.114*bf

			maxC := max(rf, max(gf, bf))
			minC := min(rf, min(gf, bf))
			if maxC > 0 {
				satSum += (maxC - minC) / maxC
			}
			samples++
		}
	}

	stats := Stats{Width: width, Height: height}
	if samples > 0 {
		stats.Brightness = lumSum / float64(samples)
		stats.Saturation = satSum / float64(samples)
	}
	return stats
}
