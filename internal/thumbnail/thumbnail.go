package thumbnail

import (
	"bytes"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"

	"golang.org/x/image/draw"
)

const (
	DefaultWidth  = 50
	DefaultHeight = 50
)

// Generator downsamples a captured screenshot into a fixed-size preview. The
// source is stretched to the target dimensions, not letterboxed, so the
// output size is always exactly width x height.
type Generator struct {
	width  int
	height int
	logger *slog.Logger
}

func NewGenerator(width int, height int, logger *slog.Logger) *Generator {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		width:  width,
		height: height,
		logger: logger,
	}
}

// Generate returns a PNG preview of the given image data, or nil when the
// source cannot be decoded. A missing thumbnail never fails a capture, so
// there is no error return.
func (g *Generator) Generate(data []byte) []byte {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		g.logger.Warn("failed to decode screenshot for thumbnail", "error", err)
		return nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buffer bytes.Buffer
	if err := png.Encode(&buffer, dst); err != nil {
		g.logger.Warn("failed to encode thumbnail", "error", err)
		return nil
	}
	return buffer.Bytes()
}
