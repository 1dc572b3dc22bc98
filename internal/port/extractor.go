package port

import (
	"context"
	"encoding/json"

	"seikin/internal/domain"
)

// ExtractInput carries one rendered page to the extraction model.
type ExtractInput struct {
	ImageBytes []byte
	MimeType   string
	APIKey     string
}

// ExtractOutput is the parsed structured result for one page.
// StructuredData is always non-nil on success.
type ExtractOutput struct {
	PageLabel        string
	PageTitle        string
	StructuredData   json.RawMessage
	Tables           []domain.Table
	AdditionalFields json.RawMessage
	ModelUsed        string
}

// PageExtractor abstracts the generative extraction model. Implementations
// make exactly one outbound call per invocation; retry policy belongs to
// the caller.
type PageExtractor interface {
	Extract(ctx context.Context, input ExtractInput) (*ExtractOutput, error)
}
