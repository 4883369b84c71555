package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	// Register decoders for the formats the source page serves.
	_ "image/gif"
	_ "image/jpeg"
)

// AddOpaqueBackground composites the image onto a white canvas of the same
// size and re-encodes it as PNG. Source diagrams are transparent line art
// drawn for a light page and disappear on dark card backgrounds; an opaque
// backdrop fixes that without touching the foreground pixels.
func AddOpaqueBackground(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Over)

	var out bytes.Buffer
	if err := png.Encode(&out, canvas); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}
