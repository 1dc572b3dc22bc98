package port

import (
	"context"

	"seikin/internal/domain"
)

// PageRenderer abstracts PDF rasterization.
type PageRenderer interface {
	// PageCount returns the number of pages without rendering any.
	PageCount(ctx context.Context, pdf []byte) (int, error)
	// RenderPage rasterizes one 1-based page to PNG at the given DPI.
	RenderPage(ctx context.Context, pdf []byte, pageNumber, dpi int) (*domain.PageImage, error)
}
