package imaging

import (
	"image"

	"github.com/listingpress/listingpress/internal/config"
)

// Enhance applies a print-enhancement preset: brightness, saturation and
// contrast multipliers, then an optional unsharp pass. The input is not
// modified.
func Enhance(src image.Image, preset config.EnhancementPreset) image.Image {
	bounds := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := src.At(x, y).RGBA()
			rf := float64(r) / 65535.0
			gf := float64(g) / 65535.0
			bf := float64(b) / 65535.0

			rf, gf, bf = adjustPixel(rf, gf, bf, preset)

			i := out.PixOffset(x-bounds.Min.X, y-bounds.Min.Y)
			out.Pix[i] = to8(rf)
			out.Pix[i+1] = to8(gf)
			out.Pix[i+2] = to8(bf)
			out.Pix[i+3] = uint8(a >> 8)
		}
	}

	if preset.Sharpen {
		return sharpen(out)
	}
	return out
}

// adjustPixel applies saturation, brightness, and contrast in that order.
func adjustPixel(r, g, b float64, preset config.EnhancementPreset) (float64, float64, float64) {
	// Saturation: blend each channel toward the pixel's luminance.
	lum := 0.299*r + 0.587*g + 0.114*b
	r = lum + (r-lum)*preset.Saturation
	g = lum + (g-lum)*preset.Saturation
	b = lum + (b-lum)*preset.Saturation

	r *= preset.Brightness
	g *= preset.Brightness
	b *= preset.Brightness

	r = (r-0.5)*preset.Contrast + 0.5
	g = (g-0.5)*preset.Contrast + 0.5
	b = (b-0.5)*preset.Contrast + 0.5

	return r, g, b
}

// sharpen applies a fixed 3x3 unsharp kernel. Edge pixels are copied as-is.
func sharpen(src *image.RGBA) *image.RGBA {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	out := image.NewRGBA(bounds)
	copy(out.Pix, src.Pix)

	// kernel: 5 center, -1 cross neighbors
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			for c := 0; c < 3; c++ {
				center := int(src.Pix[src.PixOffset(x, y)+c])
				up := int(src.Pix[src.PixOffset(x, y-1)+c])
				down := int(src.Pix[src.PixOffset(x, y+1)+c])
				left := int(src.Pix[src.PixOffset(x-1, y)+c])
				right := int(src.Pix[src.PixOffset(x+1, y)+c])

				v := 5*center - up - down - left - right
				if v < 0 {
					v = 0
				}
				if v > 255 {
					v = 255
				}
				out.Pix[out.PixOffset(x, y)+c] = uint8(v)
			}
		}
	}
	return out
}

func to8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
