package main

import (
	"fmt"
	"log"

	"seikin/internal/config"
	"seikin/internal/extract/gemini"
	"seikin/internal/handler"
	fitzrender "seikin/internal/render/fitz"
	"seikin/internal/router"
	"seikin/internal/service"
	s3storage "seikin/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	source, err := s3storage.NewDocumentSource(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 source: %w", err)
	}

	renderer := fitzrender.NewRenderer()
	extractor := gemini.NewExtractor(&cfg.Gemini)

	analysisSvc := service.NewAnalysisService(source, renderer, extractor, cfg)
	analysisH := handler.NewAnalysisHandler(analysisSvc, cfg)

	r := router.Setup(cfg, analysisH)

	log.Printf("Server starting on %s (model=%s, dpi=%d)",
		cfg.Server.Port, cfg.Gemini.Model, cfg.Render.DPI)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
