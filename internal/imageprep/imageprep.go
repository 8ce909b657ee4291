// Package imageprep fits full-page screenshots to OCR engine limits.
//
// Wide captures are downscaled to a maximum width; tall captures are cut
// into horizontal tiles so each request stays within engine size limits.
package imageprep

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// ErrDecode indicates the input is not a decodable PNG.
var ErrDecode = errors.New("decoding screenshot failed")

// Limits bounds the size of each prepared tile. Zero disables a bound.
type Limits struct {
	MaxWidth      int
	MaxTileHeight int
}

// DefaultLimits suits both Tesseract and hosted vision models.
var DefaultLimits = Limits{MaxWidth: 1600, MaxTileHeight: 4000}

// Split returns PNG tiles covering data from top to bottom. When the image
// already fits, the original bytes are returned as the only tile.
func Split(data []byte, lim Limits) ([][]byte, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if fits(cfg.Width, cfg.Height, lim) {
		return [][]byte{data}, nil
	}

	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	img := scaleToWidth(src, lim.MaxWidth)
	rects := tileRects(img.Bounds(), lim.MaxTileHeight)

	tiles := make([][]byte, 0, len(rects))
	for _, r := range rects {
		tile := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
		draw.Draw(tile, tile.Bounds(), img, r.Min, draw.Src)

		var buf bytes.Buffer
		if err := png.Encode(&buf, tile); err != nil {
			return nil, fmt.Errorf("encoding tile: %w", err)
		}
		tiles = append(tiles, buf.Bytes())
	}
	return tiles, nil
}

func fits(w, h int, lim Limits) bool {
	return (lim.MaxWidth <= 0 || w <= lim.MaxWidth) &&
		(lim.MaxTileHeight <= 0 || h <= lim.MaxTileHeight)
}

// scaleToWidth downscales src proportionally so its width is at most maxWidth.
func scaleToWidth(src image.Image, maxWidth int) image.Image {
	b := src.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return src
	}
	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// tileRects cuts b into full-width bands no taller than maxHeight.
func tileRects(b image.Rectangle, maxHeight int) []image.Rectangle {
	if maxHeight <= 0 || b.Dy() <= maxHeight {
		return []image.Rectangle{b}
	}
	var rects []image.Rectangle
	for y := b.Min.Y; y < b.Max.Y; y += maxHeight {
		bottom := min(y+maxHeight, b.Max.Y)
		rects = append(rects, image.Rect(b.Min.X, y, b.Max.X, bottom))
	}
	return rects
}
