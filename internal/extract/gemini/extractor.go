package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"seikin/internal/config"
	"seikin/internal/domain"
	"seikin/internal/extract"
	"seikin/internal/port"
)

const (
	apiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
)

// Extractor implements port.PageExtractor using Google's Gemini API.
type Extractor struct {
	model           string
	maxOutputTokens int
	endpoint        string
	client          *http.Client
}

// NewExtractor creates a Gemini-based page extractor.
func NewExtractor(cfg *config.GeminiConfig) *Extractor {
	return newExtractor(cfg, "")
}

// NewExtractorWithEndpoint creates an extractor pointing at a custom API
// endpoint (for testing).
func NewExtractorWithEndpoint(cfg *config.GeminiConfig, endpoint string) *Extractor {
	return newExtractor(cfg, endpoint)
}

func newExtractor(cfg *config.GeminiConfig, endpoint string) *Extractor {
	model := cfg.Model
	if model == "" {
		model = "gemini-3-pro-preview"
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = 65536
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	return &Extractor{
		model:           model,
		maxOutputTokens: maxTokens,
		endpoint:        endpoint,
		client:          &http.Client{Timeout: timeout},
	}
}

// Extract sends one rendered page to the Gemini API and parses the
// structured result. It makes exactly one outbound call: retry policy
// belongs to the caller.
func (e *Extractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	if input.APIKey == "" {
		return nil, domain.ErrMissingAPIKey
	}

	prompt := extract.BuildReportPagePrompt()
	encoded := base64.StdEncoding.EncodeToString(input.ImageBytes)

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{
						"inline_data": map[string]interface{}{
							"mime_type": input.MimeType,
							"data":      encoded,
						},
					},
					{
						"text": prompt,
					},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"maxOutputTokens":  e.maxOutputTokens,
			"temperature":      0.1,
			"topP":             0.95,
			"topK":             40,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", input.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrModelUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, respBody)
	}

	return e.parseResponse(respBody)
}

// statusError maps a non-200 Gemini API status to a domain error.
func statusError(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w (status %d): %s", domain.ErrAuthentication, status, truncate(string(body), 500))
	case status == http.StatusBadRequest && strings.Contains(string(body), "API key"):
		// Gemini reports invalid keys as 400 API_KEY_INVALID
		return fmt.Errorf("%w (status %d): %s", domain.ErrAuthentication, status, truncate(string(body), 500))
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w (status %d): %s", domain.ErrModelUnavailable, status, truncate(string(body), 500))
	default:
		return fmt.Errorf("gemini API error (status %d): %s", status, truncate(string(body), 500))
	}
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// pageOutput models the JSON shape the prompt asks the model for.
type pageOutput struct {
	PageType         string          `json:"page_type"`
	PageTitle        string          `json:"page_title"`
	StructuredData   json.RawMessage `json:"structured_data"`
	Tables           []domain.Table  `json:"tables"`
	AdditionalFields json.RawMessage `json:"additional_fields"`
}

func (e *Extractor) parseResponse(body []byte) (*port.ExtractOutput, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling response: %v", domain.ErrModelUnavailable, err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: empty response: no candidates", domain.ErrModelUnavailable)
	}

	cand := resp.Candidates[0]
	if len(cand.Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty response: no parts", domain.ErrModelUnavailable)
	}

	text := stripCodeFence(cand.Content.Parts[0].Text)

	var parsed pageOutput
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		if cand.FinishReason == "MAX_TOKENS" {
			return nil, fmt.Errorf("%w: output cut off at token ceiling", domain.ErrTruncatedOutput)
		}
		return nil, fmt.Errorf("%w: %v (raw: %s)", domain.ErrTruncatedOutput, err, truncate(text, 500))
	}
	if cand.FinishReason == "MAX_TOKENS" {
		return nil, fmt.Errorf("%w: output cut off at token ceiling", domain.ErrTruncatedOutput)
	}

	structured := parsed.StructuredData
	if len(structured) == 0 {
		structured = json.RawMessage("{}")
	}
	tables := parsed.Tables
	if tables == nil {
		tables = []domain.Table{}
	}

	return &port.ExtractOutput{
		PageLabel:        parsed.PageType,
		PageTitle:        parsed.PageTitle,
		StructuredData:   structured,
		Tables:           tables,
		AdditionalFields: parsed.AdditionalFields,
		ModelUsed:        e.model,
	}, nil
}

var codeFenceRe = regexp.MustCompile("```(?:json)?\\s*\\n([\\s\\S]*?)\\n```")

// stripCodeFence extracts the JSON body from a markdown code fence, if the
// model wrapped its output in one despite the prompt.
func stripCodeFence(s string) string {
	if m := codeFenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

// truncate trims s to at most maxLen bytes without splitting a rune:
// Gemini error bodies are often Japanese.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
