package mocksession

import (
	"context"
	"net/http"

	"malti-dashboard/internal/auth"
	"malti-dashboard/internal/model"
	"malti-dashboard/internal/status"

	"github.com/stretchr/testify/mock"
)

type Session struct {
	mock.Mock
}

// Interface compliance check
var _ auth.Session = &Session{}

func (m *Session) Login(ctx context.Context, key string) (model.Identity, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(model.Identity), args.Error(1)
}

func (m *Session) Logout() error {
	args := m.Called()
	return args.Error(0)
}

func (m *Session) Current() (model.Identity, bool) {
	args := m.Called()
	return args.Get(0).(model.Identity), args.Bool(1)
}

func (m *Session) Thresholds() status.Thresholds {
	args := m.Called()
	return args.Get(0).(status.Thresholds)
}

func (m *Session) Restore(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *Session) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*http.Response)
	return resp, args.Error(1)
}
