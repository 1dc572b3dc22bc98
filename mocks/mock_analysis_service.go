package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"seikin/internal/domain"
	"seikin/internal/service"
)

// MockAnalysisService is a mock implementation of service.AnalysisService.
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) PageCount(ctx context.Context, fileID string) (*domain.DocumentInfo, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentInfo), args.Error(1)
}

func (m *MockAnalysisService) ConvertPage(ctx context.Context, fileID string, pageNumber int) (*service.PageConversion, error) {
	args := m.Called(ctx, fileID, pageNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PageConversion), args.Error(1)
}

func (m *MockAnalysisService) AnalyzePage(ctx context.Context, fileID string, pageNumber int, apiKey string) (*domain.PageAnalysis, error) {
	args := m.Called(ctx, fileID, pageNumber, apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PageAnalysis), args.Error(1)
}

func (m *MockAnalysisService) AnalyzeFull(ctx context.Context, fileID, apiKey string, pages service.PageRange) (*domain.FullAnalysis, error) {
	args := m.Called(ctx, fileID, apiKey, pages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FullAnalysis), args.Error(1)
}
