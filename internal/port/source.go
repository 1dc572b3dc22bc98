package port

import (
	"context"

	"seikin/internal/domain"
)

// DocumentSource abstracts retrieval of source PDFs from remote storage.
type DocumentSource interface {
	Fetch(ctx context.Context, fileID string) (*domain.Document, error)
}
