// Package imaging prepares listing photographs for print: focal-point-aware
// cover cropping to zone dimensions, per-classification print enhancement,
// and lightweight previews for AI analysis.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/listingpress/listingpress/internal/config"
	"github.com/listingpress/listingpress/internal/domain"
)

// jpegQuality is the re-encode quality for print-ready zone images.
const jpegQuality = 92

// previewQuality keeps AI preview payloads small.
const previewQuality = 85

// Transformer crops and enhances photos using the embedded presets.
type Transformer struct {
	presets *config.Presets
}

func NewTransformer(presets *config.Presets) *Transformer {
	return &Transformer{presets: presets}
}

// ProcessForZone produces the final print artifact for one zone: cover-crop
// to the target rectangle (biased by the focal point when present), apply the
// classification's enhancement preset, and re-encode as JPEG.
func (t *Transformer) ProcessForZone(data []byte, targetW, targetH int, focal *domain.FocalPoint, class domain.Classification) (*domain.ProcessedPhoto, error) {
	if targetW <= 0 || targetH <= 0 {
		return nil, fmt.Errorf("invalid target dimensions %dx%d", targetW, targetH)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode source image: %w", err)
	}

	cropped := CropToZone(src, targetW, targetH, focal)
	enhanced := Enhance(cropped, t.presets.EnhancementFor(string(class)))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, enhanced, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode zone image: %w", err)
	}

	return &domain.ProcessedPhoto{
		Data:   buf.Bytes(),
		Width:  targetW,
		Height: targetH,
	}, nil
}

// CropToZone scales the source so it covers the target rectangle, then clips
// a targetW x targetH window centered on the focal point. A nil focal point
// uses center gravity.
func CropToZone(src image.Image, targetW, targetH int, focal *domain.FocalPoint) image.Image {
	bounds := src.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	fx, fy := 0.5, 0.5
	if focal != nil {
		fx = clamp01(focal.X)
		fy = clamp01(focal.Y)
	}

	_, scaledW, scaledH := coverScale(srcW, srcH, targetW, targetH)

	scaled := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, bounds, draw.Over, nil)

	x0, y0 := CropOrigin(scaledW, scaledH, targetW, targetH, fx, fy)

	out := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.Draw(out, out.Bounds(), scaled, image.Pt(x0, y0), draw.Src)
	return out
}

// coverScale computes scale = max(targetW/srcW, targetH/srcH) and the scaled
// dimensions, which always cover the target rectangle.
func coverScale(srcW, srcH, targetW, targetH int) (float64, int, int) {
	sw := float64(targetW) / float64(srcW)
	sh := float64(targetH) / float64(srcH)
	scale := max(sw, sh)

	scaledW := int(float64(srcW)*scale + 0.5)
	scaledH := int(float64(srcH)*scale + 0.5)
	// Rounding must never undershoot the window.
	if scaledW < targetW {
		scaledW = targetW
	}
	if scaledH < targetH {
		scaledH = targetH
	}
	return scale, scaledW, scaledH
}

// CropOrigin returns the top-left corner of the crop window inside the scaled
// image: centered on (fx*scaledW, fy*scaledH), clamped so the window stays
// within bounds.
func CropOrigin(scaledW, scaledH, targetW, targetH int, fx, fy float64) (int, int) {
	x0 := int(fx*float64(scaledW)) - targetW/2
	y0 := int(fy*float64(scaledH)) - targetH/2

	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x0 > scaledW-targetW {
		x0 = scaledW - targetW
	}
	if y0 > scaledH-targetH {
		y0 = scaledH - targetH
	}
	return x0, y0
}

// Preview resizes an image to fit within maxSize (width or height) while
// keeping aspect ratio, re-encoding as JPEG for consistent AI payloads.
func Preview(data []byte, maxSize int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxSize && height <= maxSize {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: previewQuality}); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
		return buf.Bytes(), nil
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = int(float64(height) * float64(maxSize) / float64(width))
	} else {
		newHeight = maxSize
		newWidth = int(float64(width) * float64(maxSize) / float64(height))
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: previewQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
