package mockrepository

import (
	"context"

	"malti-dashboard/internal/model"
	"malti-dashboard/internal/repository"

	"github.com/stretchr/testify/mock"
)

type Repository struct {
	mock.Mock
}

// Interface compliance check
var _ repository.MetricsRepository = &Repository{}

func (m *Repository) FetchAggregate(ctx context.Context, q model.MetricsQuery) (model.Snapshot, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(model.Snapshot), args.Error(1)
}
