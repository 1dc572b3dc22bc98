package domain

import "encoding/json"

// Document is a fetched source PDF. It lives for a single request and is
// never cached across requests.
type Document struct {
	FileID string
	Name   string
	Data   []byte
}

// PageImage is one rasterized PDF page. Owned by the render call that
// produced it.
type PageImage struct {
	PNG        []byte
	PageNumber int
	DPI        int
}

// Table is one table extracted from a page. Row values are kept as strings
// exactly as printed, including comma-grouped numbers.
type Table struct {
	TableID    string              `json:"table_id"`
	TableTitle string              `json:"table_title"`
	Headers    []string            `json:"headers"`
	Rows       []map[string]string `json:"rows"`
}

// PageMetadata describes the provenance of a single page analysis.
type PageMetadata struct {
	SourceFile  string   `json:"source_file"`
	FileID      string   `json:"file_id"`
	PageNumber  int      `json:"page_number"`
	TotalPages  int      `json:"total_pages"`
	PageType    PageType `json:"page_type"`
	ProcessedAt string   `json:"processed_at"`
	GeminiModel string   `json:"gemini_model"`
	DPI         int      `json:"dpi"`
}

// PageIdentification carries the section marker the model read off the page
// itself ("（そのXX）" in the top-right corner) and the page title.
type PageIdentification struct {
	Label string `json:"label"`
	Title string `json:"title"`
}

// PageAnalysis is the structured result for one page. StructuredData is
// always non-nil when the extraction reported success.
type PageAnalysis struct {
	Metadata           PageMetadata       `json:"metadata"`
	PageIdentification PageIdentification `json:"page_identification"`
	StructuredData     json.RawMessage    `json:"structured_data"`
	Tables             []Table            `json:"tables"`
	AdditionalFields   json.RawMessage    `json:"additional_fields,omitempty"`
}

// PageResult is one slot of a full-document analysis. A failed page keeps
// its slot with Success=false and an error message instead of being omitted.
type PageResult struct {
	PageNumber int           `json:"page_number"`
	PageType   PageType      `json:"page_type"`
	Success    bool          `json:"success"`
	Data       *PageAnalysis `json:"data,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// FullMetadata describes a whole-document analysis run.
type FullMetadata struct {
	SourceFile     string `json:"source_file"`
	FileID         string `json:"file_id"`
	TotalPages     int    `json:"total_pages"`
	ProcessedPages int    `json:"processed_pages"`
	ErrorPages     int    `json:"error_pages"`
	ProcessedAt    string `json:"processed_at"`
	GeminiModel    string `json:"gemini_model"`
}

// FullAnalysis aggregates per-page results in strictly increasing page
// order: one slot per page in the requested range, no gaps, no duplicates.
type FullAnalysis struct {
	Metadata FullMetadata `json:"metadata"`
	Results  []PageResult `json:"results"`
}

// DocumentInfo is the page-count response payload.
type DocumentInfo struct {
	FileID     string `json:"file_id"`
	FileName   string `json:"file_name"`
	TotalPages int    `json:"total_pages"`
}
