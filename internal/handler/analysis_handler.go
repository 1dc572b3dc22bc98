package handler

import (
	"encoding/base64"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"seikin/internal/config"
	"seikin/internal/domain"
	"seikin/internal/export/xlsx"
	"seikin/internal/service"
)

// AnalysisHandler handles the report analysis endpoints.
type AnalysisHandler struct {
	svc    service.AnalysisService
	gemini config.GeminiConfig
	render config.RenderConfig
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(svc service.AnalysisService, cfg *config.Config) *AnalysisHandler {
	return &AnalysisHandler{svc: svc, gemini: cfg.Gemini, render: cfg.Render}
}

// Health handles GET /health
func (h *AnalysisHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"gemini_model": h.gemini.Model,
		"dpi":          h.render.DPI,
	})
}

type pageCountRequest struct {
	FileID string `json:"fileId" binding:"required"`
}

// PageCount handles POST /page-count
// @Summary Get the page count of a stored report PDF
// @Accept json
// @Produce json
// @Router /page-count [post]
func (h *AnalysisHandler) PageCount(c *gin.Context) {
	var req pageCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "fileId is required")
		return
	}

	info, err := h.svc.PageCount(c.Request.Context(), req.FileID)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"total_pages": info.TotalPages,
		"file_name":   info.FileName,
	})
}

type convertRequest struct {
	FileID     string `json:"fileId" binding:"required"`
	PageNumber int    `json:"pageNumber"`
}

// Convert handles POST /convert
// @Summary Rasterize one page of a stored report PDF to base64 PNG
// @Accept json
// @Produce json
// @Router /convert [post]
func (h *AnalysisHandler) Convert(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "fileId is required")
		return
	}
	if req.PageNumber == 0 {
		req.PageNumber = 1
	}
	if req.PageNumber < 1 {
		RespondError(c, http.StatusBadRequest, "INVALID_PAGE", "pageNumber must be a positive integer")
		return
	}

	conv, err := h.svc.ConvertPage(c.Request.Context(), req.FileID, req.PageNumber)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"base64_image": base64.StdEncoding.EncodeToString(conv.Image.PNG),
		"mime_type":    "image/png",
		"page_number":  conv.Image.PageNumber,
		"file_name":    conv.FileName,
	})
}

type analyzeRequest struct {
	FileID       string `json:"fileId" binding:"required"`
	PageNumber   int    `json:"pageNumber"`
	GeminiAPIKey string `json:"geminiApiKey"`
}

// Analyze handles POST /analyze
// @Summary Extract structured data from one report page via Gemini
// @Accept json
// @Produce json
// @Router /analyze [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "fileId is required")
		return
	}
	if req.PageNumber == 0 {
		req.PageNumber = 1
	}
	if req.PageNumber < 1 {
		RespondError(c, http.StatusBadRequest, "INVALID_PAGE", "pageNumber must be a positive integer")
		return
	}

	analysis, err := h.svc.AnalyzePage(c.Request.Context(), req.FileID, req.PageNumber, req.GeminiAPIKey)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"metadata":            analysis.Metadata,
		"page_identification": analysis.PageIdentification,
		"structured_data":     analysis.StructuredData,
		"tables":              analysis.Tables,
		"additional_fields":   analysis.AdditionalFields,
		// reserved for schema validation of the extracted data; no checks
		// are run yet so the block is always clean
		"validation": gin.H{
			"schema_matched":  true,
			"unmapped_fields": []string{},
			"gemini_notes":    "",
		},
	})
}

type analyzeFullRequest struct {
	FileID       string `json:"fileId" binding:"required"`
	GeminiAPIKey string `json:"geminiApiKey"`
	StartPage    int    `json:"startPage"`
	EndPage      int    `json:"endPage"`
}

// AnalyzeFull handles POST /analyze-full
// @Summary Extract structured data from every page of a report
// @Accept json
// @Produce json
// @Router /analyze-full [post]
func (h *AnalysisHandler) AnalyzeFull(c *gin.Context) {
	var req analyzeFullRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "fileId is required")
		return
	}

	analysis, err := h.svc.AnalyzeFull(c.Request.Context(), req.FileID, req.GeminiAPIKey, service.PageRange{
		StartPage: req.StartPage,
		EndPage:   req.EndPage,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"metadata": analysis.Metadata,
		"results":  analysis.Results,
	})
}

// Export handles POST /export. The request body is a full analysis result
// (as returned by /analyze-full); the response is an .xlsx workbook of its
// tables.
// @Summary Export a full analysis result's tables as an Excel workbook
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /export [post]
func (h *AnalysisHandler) Export(c *gin.Context) {
	var analysis domain.FullAnalysis
	if err := c.ShouldBindJSON(&analysis); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be an analyze-full result")
		return
	}
	if len(analysis.Results) == 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "results must not be empty")
		return
	}

	name := analysis.Metadata.SourceFile
	if name == "" {
		name = "report"
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".xlsx"))
	c.Status(http.StatusOK)

	if err := xlsx.Write(c.Writer, &analysis); err != nil {
		// headers are already out; log and abort the stream
		requestID, _ := c.Get("request_id")
		log.Printf("[%v] export failed: %v", requestID, err)
		c.Abort()
	}
}
