package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seikin/internal/config"
	"seikin/internal/domain"
	"seikin/internal/extract/gemini"
	"seikin/internal/port"
)

func newTestExtractor(serverURL string) *gemini.Extractor {
	cfg := &config.GeminiConfig{
		Model:           "gemini-3-pro-preview",
		MaxOutputTokens: 65536,
		TimeoutSecs:     30,
	}
	return gemini.NewExtractorWithEndpoint(cfg, serverURL)
}

func testInput() port.ExtractInput {
	return port.ExtractInput{
		ImageBytes: []byte{0x89, 0x50, 0x4E, 0x47},
		MimeType:   "image/png",
		APIKey:     "test-gemini-key",
	}
}

func successResponse(text, finishReason string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"role": "model",
					"parts": []map[string]interface{}{
						{"text": text},
					},
				},
				"finishReason": finishReason,
			},
		},
	}
}

const pageJSON = `{
	"page_type": "その1",
	"page_title": "政治資金収支報告書",
	"structured_data": {"団体名": "example party", "報告年": "令和6年"},
	"tables": [
		{
			"table_id": "収入",
			"table_title": "収入の内訳",
			"headers": ["項目", "金額"],
			"rows": [
				{"項目": "個人の負担する党費", "金額": "1,234,567"}
			]
		}
	],
	"additional_fields": {}
}`

func TestExtractor_Extract_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-gemini-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))

		contents := reqBody["contents"].([]interface{})
		require.Len(t, contents, 1)
		msg := contents[0].(map[string]interface{})
		assert.Equal(t, "user", msg["role"])

		parts := msg["parts"].([]interface{})
		require.Len(t, parts, 2)

		dataPart := parts[0].(map[string]interface{})
		inlineData := dataPart["inline_data"].(map[string]interface{})
		assert.Equal(t, "image/png", inlineData["mime_type"])
		assert.NotEmpty(t, inlineData["data"])

		textPart := parts[1].(map[string]interface{})
		assert.NotEmpty(t, textPart["text"])

		genConfig := reqBody["generationConfig"].(map[string]interface{})
		assert.Equal(t, "application/json", genConfig["responseMimeType"])
		assert.Equal(t, float64(65536), genConfig["maxOutputTokens"])
		assert.Equal(t, 0.1, genConfig["temperature"])

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(successResponse(pageJSON, "STOP"))
	}))
	defer server.Close()

	e := newTestExtractor(server.URL)

	out, err := e.Extract(context.Background(), testInput())
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, "その1", out.PageLabel)
	assert.Equal(t, "政治資金収支報告書", out.PageTitle)
	assert.Equal(t, "gemini-3-pro-preview", out.ModelUsed)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(out.StructuredData, &data))
	assert.Equal(t, "example party", data["団体名"])

	require.Len(t, out.Tables, 1)
	assert.Equal(t, "収入", out.Tables[0].TableID)
	assert.Equal(t, []string{"項目", "金額"}, out.Tables[0].Headers)
	require.Len(t, out.Tables[0].Rows, 1)
	assert.Equal(t, "1,234,567", out.Tables[0].Rows[0]["金額"])
}

func TestExtractor_Extract_StripsCodeFence(t *testing.T) {
	fenced := "```json\n" + pageJSON + "\n```"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(successResponse(fenced, "STOP"))
	}))
	defer server.Close()

	e := newTestExtractor(server.URL)

	out, err := e.Extract(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, "その1", out.PageLabel)
}

func TestExtractor_Extract_EmptyStructuredDataIsNonNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(successResponse(`{"page_type":"その2","page_title":"t"}`, "STOP"))
	}))
	defer server.Close()

	e := newTestExtractor(server.URL)

	out, err := e.Extract(context.Background(), testInput())
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(out.StructuredData))
	assert.NotNil(t, out.Tables)
	assert.Empty(t, out.Tables)
}

func TestExtractor_Extract_MissingKey(t *testing.T) {
	e := newTestExtractor("http://unused")

	input := testInput()
	input.APIKey = ""

	out, err := e.Extract(context.Background(), input)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
}

func TestExtractor_Extract_InvalidKey(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"code":401,"status":"UNAUTHENTICATED"}}`},
		{"forbidden", http.StatusForbidden, `{"error":{"code":403,"status":"PERMISSION_DENIED"}}`},
		{"bad key as 400", http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			e := newTestExtractor(server.URL)

			out, err := e.Extract(context.Background(), testInput())
			assert.Nil(t, out)
			assert.ErrorIs(t, err, domain.ErrAuthentication)
		})
	}
}

func TestExtractor_Extract_TransientFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"rate limited", http.StatusTooManyRequests},
		{"server error", http.StatusInternalServerError},
		{"service unavailable", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{}}`))
			}))
			defer server.Close()

			e := newTestExtractor(server.URL)

			out, err := e.Extract(context.Background(), testInput())
			assert.Nil(t, out)
			assert.ErrorIs(t, err, domain.ErrModelUnavailable)
		})
	}
}

func TestExtractor_Extract_LongJapaneseErrorBodyStaysValidUTF8(t *testing.T) {
	// error messages carry a truncated copy of the body; the cut must not
	// split a multi-byte rune
	body := `{"error":{"message":"` + strings.Repeat("リクエストの処理中にエラーが発生しました。", 40) + `"}}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	e := newTestExtractor(server.URL)

	_, err := e.Extract(context.Background(), testInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.True(t, utf8.ValidString(err.Error()))
	assert.Less(t, len(err.Error()), len(body))
}

func TestExtractor_Extract_ConnectionRefused(t *testing.T) {
	e := newTestExtractor("http://localhost:1")

	out, err := e.Extract(context.Background(), testInput())
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestExtractor_Extract_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer server.Close()

	e := newTestExtractor(server.URL)

	out, err := e.Extract(context.Background(), testInput())
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestExtractor_Extract_TruncatedAtTokenCeiling(t *testing.T) {
	// output cut mid-JSON with finishReason MAX_TOKENS
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(successResponse(`{"page_type":"その3","structured_data":{"a":`, "MAX_TOKENS"))
	}))
	defer server.Close()

	e := newTestExtractor(server.URL)

	out, err := e.Extract(context.Background(), testInput())
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrTruncatedOutput)
}

func TestExtractor_Extract_CompleteButMaxTokensIsTruncated(t *testing.T) {
	// even parseable output is rejected if the model stopped at the ceiling
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(successResponse(pageJSON, "MAX_TOKENS"))
	}))
	defer server.Close()

	e := newTestExtractor(server.URL)

	out, err := e.Extract(context.Background(), testInput())
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrTruncatedOutput)
}

func TestExtractor_Extract_UnparsableOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(successResponse("this is not JSON at all", "STOP"))
	}))
	defer server.Close()

	e := newTestExtractor(server.URL)

	out, err := e.Extract(context.Background(), testInput())
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrTruncatedOutput)
}
