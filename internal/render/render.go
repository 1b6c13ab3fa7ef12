package render

import "context"

// Renderer rasterizes a self-contained HTML document into a fixed-size,
// single-page PDF. The document must not require network access; callers
// inline assets before rendering.
type Renderer interface {
	RenderPDF(ctx context.Context, html []byte) ([]byte, error)
	// Close releases the underlying browser process.
	Close()
}
