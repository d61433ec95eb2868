package uvmap

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
)

// Format is an output image format.
type Format string

// Supported formats.
const (
	PNG  Format = "png"
	WebP Format = "webp"
	TGA  Format = "tga"
)

// ParseFormat accepts a format name with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(s, ".")))
	switch f {
	case PNG, WebP, TGA:
		return f, nil
	}
	return "", fmt.Errorf("unsupported image format %q", s)
}

// FormatFromPath picks the format from a file extension, defaulting to PNG.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return PNG
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case WebP:
		return nativewebp.Encode(w, img, nil)
	case TGA:
		return tga.Encode(w, img)
	}
	return fmt.Errorf("unsupported image format %q", f)
}

// Save encodes img to path, choosing the format from the extension.
func Save(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := Encode(f, img, FormatFromPath(path)); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

// downsample scales img to size x size in premultiplied space so that
// transparent texels do not darken the edges.
func downsample(img *image.NRGBA, size int) *image.NRGBA {
	b := img.Bounds()
	premul := image.NewRGBA(b)
	draw.Draw(premul, b, img, b.Min, draw.Src)

	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), premul, b, draw.Src, nil)

	out := image.NewNRGBA(scaled.Bounds())
	for i := 0; i < len(scaled.Pix); i += 4 {
		a := float64(scaled.Pix[i+3])
		if a > 0 {
			inv := 255 / a
			out.Pix[i] = clamp8(float64(scaled.Pix[i]) * inv)
			out.Pix[i+1] = clamp8(float64(scaled.Pix[i+1]) * inv)
			out.Pix[i+2] = clamp8(float64(scaled.Pix[i+2]) * inv)
		}
		out.Pix[i+3] = scaled.Pix[i+3]
	}
	return out
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
