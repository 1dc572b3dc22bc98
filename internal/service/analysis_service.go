package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"seikin/internal/classify"
	"seikin/internal/config"
	"seikin/internal/domain"
	"seikin/internal/port"
)

// PageRange selects a page window for full-document analysis. Zero values
// mean "from the first page" and "through the last page".
type PageRange struct {
	StartPage int
	EndPage   int
}

// PageConversion is the result of rasterizing one page.
type PageConversion struct {
	Image    *domain.PageImage
	FileName string
}

// AnalysisService exposes the report analysis pipeline.
type AnalysisService interface {
	// PageCount reports the page count without rendering any page.
	PageCount(ctx context.Context, fileID string) (*domain.DocumentInfo, error)
	// ConvertPage rasterizes one page to PNG.
	ConvertPage(ctx context.Context, fileID string, pageNumber int) (*PageConversion, error)
	// AnalyzePage runs the extraction pipeline for a single page.
	AnalyzePage(ctx context.Context, fileID string, pageNumber int, apiKey string) (*domain.PageAnalysis, error)
	// AnalyzeFull runs the pipeline for every page in the range and
	// aggregates the results in page order with per-page failure isolation.
	AnalyzeFull(ctx context.Context, fileID, apiKey string, pages PageRange) (*domain.FullAnalysis, error)
}

type analysisService struct {
	source    port.DocumentSource
	renderer  port.PageRenderer
	extractor port.PageExtractor
	gemini    config.GeminiConfig
	render    config.RenderConfig
	analyze   config.AnalyzeConfig
}

// NewAnalysisService creates an AnalysisService.
func NewAnalysisService(
	source port.DocumentSource,
	renderer port.PageRenderer,
	extractor port.PageExtractor,
	cfg *config.Config,
) AnalysisService {
	return &analysisService{
		source:    source,
		renderer:  renderer,
		extractor: extractor,
		gemini:    cfg.Gemini,
		render:    cfg.Render,
		analyze:   cfg.Analyze,
	}
}

func (s *analysisService) PageCount(ctx context.Context, fileID string) (*domain.DocumentInfo, error) {
	doc, err := s.source.Fetch(ctx, fileID)
	if err != nil {
		return nil, err
	}
	total, err := s.renderer.PageCount(ctx, doc.Data)
	if err != nil {
		return nil, err
	}
	return &domain.DocumentInfo{
		FileID:     doc.FileID,
		FileName:   doc.Name,
		TotalPages: total,
	}, nil
}

func (s *analysisService) ConvertPage(ctx context.Context, fileID string, pageNumber int) (*PageConversion, error) {
	if pageNumber < 1 {
		return nil, fmt.Errorf("%w: page %d", domain.ErrInvalidPage, pageNumber)
	}
	doc, err := s.source.Fetch(ctx, fileID)
	if err != nil {
		return nil, err
	}
	img, err := s.renderer.RenderPage(ctx, doc.Data, pageNumber, s.render.DPI)
	if err != nil {
		return nil, err
	}
	return &PageConversion{Image: img, FileName: doc.Name}, nil
}

// resolveKey returns the request key, falling back to the configured key.
// Key presence is checked before any fetch or render cost is incurred.
func (s *analysisService) resolveKey(apiKey string) (string, error) {
	if apiKey != "" {
		return apiKey, nil
	}
	if s.gemini.APIKey != "" {
		return s.gemini.APIKey, nil
	}
	return "", domain.ErrMissingAPIKey
}

func (s *analysisService) AnalyzePage(ctx context.Context, fileID string, pageNumber int, apiKey string) (*domain.PageAnalysis, error) {
	key, err := s.resolveKey(apiKey)
	if err != nil {
		return nil, err
	}
	if pageNumber < 1 {
		return nil, fmt.Errorf("%w: page %d", domain.ErrInvalidPage, pageNumber)
	}

	doc, err := s.source.Fetch(ctx, fileID)
	if err != nil {
		return nil, err
	}
	total, err := s.renderer.PageCount(ctx, doc.Data)
	if err != nil {
		return nil, err
	}
	if pageNumber > total {
		return nil, fmt.Errorf("%w: page %d of %d", domain.ErrInvalidPage, pageNumber, total)
	}

	return s.analyzePageOfDoc(ctx, doc, pageNumber, total, key)
}

// analyzePageOfDoc runs render → classify → extract for one page of an
// already fetched document. Renderer and extractor failures propagate
// unchanged.
func (s *analysisService) analyzePageOfDoc(ctx context.Context, doc *domain.Document, pageNumber, total int, key string) (*domain.PageAnalysis, error) {
	img, err := s.renderer.RenderPage(ctx, doc.Data, pageNumber, s.render.DPI)
	if err != nil {
		return nil, err
	}

	pageType := classify.Classify(pageNumber, total)

	out, err := s.extractWithRetry(ctx, port.ExtractInput{
		ImageBytes: img.PNG,
		MimeType:   "image/png",
		APIKey:     key,
	})
	if err != nil {
		return nil, err
	}

	return &domain.PageAnalysis{
		Metadata: domain.PageMetadata{
			SourceFile:  doc.Name,
			FileID:      doc.FileID,
			PageNumber:  pageNumber,
			TotalPages:  total,
			PageType:    pageType,
			ProcessedAt: time.Now().UTC().Format(time.RFC3339),
			GeminiModel: out.ModelUsed,
			DPI:         img.DPI,
		},
		PageIdentification: domain.PageIdentification{
			Label: out.PageLabel,
			Title: out.PageTitle,
		},
		StructuredData:   out.StructuredData,
		Tables:           out.Tables,
		AdditionalFields: out.AdditionalFields,
	}, nil
}

// extractWithRetry retries transient model failures with a capped linear
// backoff. Authentication and truncation errors are never retried.
func (s *analysisService) extractWithRetry(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	backoff := time.Duration(s.analyze.RetryBackoffSecs) * time.Second
	if backoff <= 0 {
		backoff = time.Second
	}
	const maxBackoff = 10 * time.Second

	attempts := s.analyze.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := s.extractor.Extract(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !errors.Is(err, domain.ErrModelUnavailable) || attempt == attempts {
			break
		}

		wait := backoff * time.Duration(attempt)
		if wait > maxBackoff {
			wait = maxBackoff
		}
		log.Printf("analysisService.extractWithRetry: attempt %d/%d failed, retrying in %s: %v",
			attempt, attempts, wait, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

func (s *analysisService) AnalyzeFull(ctx context.Context, fileID, apiKey string, pages PageRange) (*domain.FullAnalysis, error) {
	key, err := s.resolveKey(apiKey)
	if err != nil {
		return nil, err
	}

	doc, err := s.source.Fetch(ctx, fileID)
	if err != nil {
		return nil, err
	}
	// A corrupt document is fatal for the whole request, before any page work.
	total, err := s.renderer.PageCount(ctx, doc.Data)
	if err != nil {
		return nil, err
	}

	// A document with no pages yields an empty aggregate. Only an explicit
	// range can be invalid against it.
	if total == 0 && pages.StartPage == 0 && pages.EndPage == 0 {
		return &domain.FullAnalysis{
			Metadata: domain.FullMetadata{
				SourceFile:  doc.Name,
				FileID:      doc.FileID,
				ProcessedAt: time.Now().UTC().Format(time.RFC3339),
				GeminiModel: s.gemini.Model,
			},
			Results: []domain.PageResult{},
		}, nil
	}

	start := pages.StartPage
	if start == 0 {
		start = 1
	}
	end := pages.EndPage
	if end == 0 || end > total {
		end = total
	}
	if start < 1 || start > end {
		return nil, fmt.Errorf("%w: pages %d..%d of %d", domain.ErrInvalidPage, start, end, total)
	}

	concurrency := s.analyze.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	log.Printf("analysisService.AnalyzeFull: %s pages %d..%d of %d (concurrency=%d)",
		doc.FileID, start, end, total, concurrency)

	// One slot per page, filled by page number so output order never
	// depends on completion order.
	results := make([]domain.PageResult, end-start+1)
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

pageLoop:
	for page := start; page <= end; page++ {
		select {
		case <-ctx.Done():
			break pageLoop
		case sem <- struct{}{}: // acquire
		}

		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			defer func() { <-sem }() // release

			slot := &results[page-start]
			slot.PageNumber = page
			slot.PageType = classify.Classify(page, total)

			analysis, err := s.analyzePageOfDoc(ctx, doc, page, total, key)
			if err != nil {
				log.Printf("analysisService.AnalyzeFull: page %d failed: %v", page, err)
				slot.Error = err.Error()
				return
			}
			slot.Success = true
			slot.Data = analysis
		}(page)
	}
	wg.Wait()

	// A canceled or timed-out request returns no partial aggregate: slots
	// for abandoned pages would misrepresent completeness.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	processed, failed := 0, 0
	for i := range results {
		if results[i].Success {
			processed++
		} else {
			failed++
		}
	}

	return &domain.FullAnalysis{
		Metadata: domain.FullMetadata{
			SourceFile:     doc.Name,
			FileID:         doc.FileID,
			TotalPages:     total,
			ProcessedPages: processed,
			ErrorPages:     failed,
			ProcessedAt:    time.Now().UTC().Format(time.RFC3339),
			GeminiModel:    s.gemini.Model,
		},
		Results: results,
	}, nil
}
