package batch

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
)

// Save encodes img as png or webp (lossless) at path, creating parent
// directories.
func Save(path string, img image.Image, format string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	switch format {
	case "webp":
		err = nativewebp.Encode(w, img, nil)
	case "png":
		err = png.Encode(w, img)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("batch: write %s: %w", path, err)
	}
	return nil
}
