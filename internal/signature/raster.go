package signature

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
)

// Stroke rendering matches the original canvas: 2px black ink on white.
const penRadius = 1

// rasterize renders the strokes onto a white canvas and encodes PNG.
func rasterize(width, height int, strokes []Stroke) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("signature: invalid canvas %dx%d", width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}

	for _, s := range strokes {
		for i := 1; i < len(s); i++ {
			drawSegment(img, s[i-1], s[i])
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("signature: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// drawSegment draws a thick line between two points by stamping the pen at
// evenly spaced positions along the segment.
func drawSegment(img *image.RGBA, a, b Point) {
	dx, dy := b.X-a.X, b.Y-a.Y
	dist := math.Hypot(dx, dy)
	steps := int(dist) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		stamp(img, a.X+dx*t, a.Y+dy*t)
	}
}

func stamp(img *image.RGBA, cx, cy float64) {
	x0, y0 := int(math.Round(cx)), int(math.Round(cy))
	bounds := img.Bounds()
	for y := y0 - penRadius; y <= y0+penRadius; y++ {
		for x := x0 - penRadius; x <= x0+penRadius; x++ {
			if (image.Point{X: x, Y: y}).In(bounds) {
				img.Set(x, y, color.Black)
			}
		}
	}
}
