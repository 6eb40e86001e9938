package capture

import (
	"capture-engine/internal/browser"
	"capture-engine/internal/preset"
	"context"
	"fmt"
)

type RenderOutput struct {
	Image  []byte
	Width  int
	Height int
}

// Renderer is the injected raster capability. The engine depends only on
// this contract, not on a specific rasterization backend, so tests swap in
// fakes and deployments can change the technology behind it.
type Renderer interface {
	Render(ctx context.Context, p preset.Preset) (*RenderOutput, error)
}

type surfaceRenderer struct {
	surface browser.Surface
}

// NewSurfaceRenderer returns the default Renderer: it rasterizes whatever
// the surface currently displays. Fixed presets capture exactly the preset
// dimensions; full-page presets first measure the actual content height and
// grow the viewport so nothing is clipped.
func NewSurfaceRenderer(surface browser.Surface) Renderer {
	return &surfaceRenderer{
		surface: surface,
	}
}

func (r *surfaceRenderer) Render(ctx context.Context, p preset.Preset) (*RenderOutput, error) {
	width := p.Width
	height := p.Height

	if p.FullPage {
		measured, err := r.surface.ContentHeight(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to measure page height: %w", err)
		}
		if measured > height {
			height = measured
		}
		if err := r.surface.SetViewport(ctx, width, height); err != nil {
			return nil, fmt.Errorf("failed to grow viewport for full-page capture: %w", err)
		}
	}

	data, err := r.surface.Screenshot(ctx)
	if err != nil {
		return nil, err
	}

	return &RenderOutput{
		Image:  data,
		Width:  width,
		Height: height,
	}, nil
}
