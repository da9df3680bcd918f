package mockservice

import (
	"context"

	"malti-dashboard/internal/model"
	"malti-dashboard/internal/service"

	"github.com/stretchr/testify/mock"
)

type Service struct {
	mock.Mock
}

// Interface compliance check
var _ service.DashboardService = &Service{}

func (m *Service) BuildDashboard(ctx context.Context, q model.DashboardQuery) (model.Dashboard, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(model.Dashboard), args.Error(1)
}

func (m *Service) TimeRanges() []model.TimeRangeOption {
	args := m.Called()
	return args.Get(0).([]model.TimeRangeOption)
}
