// Package texture loads, indexes and samples the normal-map images a bake
// reads.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// Supported reports whether ext (with leading dot, any case) is a format
// LoadTexture can decode.
func Supported(ext string) bool {
	_, ok := extPriority[strings.ToLower(ext)]
	return ok
}

// decoders picks the codec by extension. TGA has no magic number, so
// image.Decode sniffing would hand every file to the TGA decoder.
var decoders = map[string]func(io.Reader) (image.Image, error){
	".png":  png.Decode,
	".tga":  tga.Decode,
	".bmp":  bmp.Decode,
	".webp": webp.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
}

// extPriority ranks formats for the same stem: lossless wins over lossy.
var extPriority = map[string]int{
	".png":  5,
	".tga":  4,
	".bmp":  3,
	".webp": 2,
	".jpg":  1,
	".jpeg": 1,
}

// LoadTexture reads an image file and returns it as NRGBA.
func LoadTexture(path string) (*image.NRGBA, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(ext) {
		return nil, fmt.Errorf("texture: unknown extension: %s", ext)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("texture: empty file: %s", path)
	}

	img, err := decoders[ext](bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", path, err)
	}
	return toNRGBA(img), nil
}

// toNRGBA converts any image to NRGBA with its origin at (0,0).
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(dst, image.Point{}, src, b, draw.Src, nil)
	return dst
}
