// Package fitz renders PDF pages to PNG images using MuPDF.
package fitz

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	gofitz "github.com/gen2brain/go-fitz"

	"seikin/internal/domain"
	"seikin/internal/port"
)

type renderer struct{}

// NewRenderer creates a MuPDF-backed PageRenderer. Every call re-opens the
// document from the source bytes; nothing is cached or written to disk.
func NewRenderer() port.PageRenderer {
	return &renderer{}
}

func (r *renderer) PageCount(ctx context.Context, pdf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	doc, err := gofitz.NewFromMemory(pdf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
	}
	defer func() { _ = doc.Close() }()
	return doc.NumPage(), nil
}

func (r *renderer) RenderPage(ctx context.Context, pdf []byte, pageNumber, dpi int) (*domain.PageImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := gofitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
	}
	defer func() { _ = doc.Close() }()

	total := doc.NumPage()
	if pageNumber < 1 || pageNumber > total {
		return nil, fmt.Errorf("%w: page %d of %d", domain.ErrInvalidPage, pageNumber, total)
	}

	// go-fitz pages are 0-based
	img, err := doc.ImageDPI(pageNumber-1, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("rendering page %d: %w", pageNumber, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding page %d as PNG: %w", pageNumber, err)
	}

	return &domain.PageImage{
		PNG:        buf.Bytes(),
		PageNumber: pageNumber,
		DPI:        dpi,
	}, nil
}
