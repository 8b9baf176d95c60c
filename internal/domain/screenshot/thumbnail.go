package screenshot

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

const thumbnailWidth = 320

// writePNG encodes img to path, creating parent directories.
func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create screenshot directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// thumbnail downscales img to thumbnailWidth preserving aspect ratio.
func thumbnail(img image.Image) image.Image {
	src := img.Bounds()
	if src.Dx() <= thumbnailWidth {
		return img
	}
	height := src.Dy() * thumbnailWidth / src.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, thumbnailWidth, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst
}
