package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"seikin/internal/domain"
)

// MockPageRenderer is a mock implementation of port.PageRenderer.
type MockPageRenderer struct {
	mock.Mock
}

func (m *MockPageRenderer) PageCount(ctx context.Context, pdf []byte) (int, error) {
	args := m.Called(ctx, pdf)
	return args.Int(0), args.Error(1)
}

func (m *MockPageRenderer) RenderPage(ctx context.Context, pdf []byte, pageNumber, dpi int) (*domain.PageImage, error) {
	args := m.Called(ctx, pdf, pageNumber, dpi)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PageImage), args.Error(1)
}
