// Package storagemock contains testify mocks for the storage layer.
package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/usbforge/usbforge/internal/model"
)

// MockRepository is a mock implementation of storage.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) SaveRun(ctx context.Context, r model.RunRecord) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRepository) GetRun(ctx context.Context, id string) (*model.RunRecord, error) {
	args := m.Called(ctx, id)
	run, _ := args.Get(0).(*model.RunRecord)
	return run, args.Error(1)
}

func (m *MockRepository) ListRuns(ctx context.Context) ([]model.RunRecord, error) {
	args := m.Called(ctx)
	runs, _ := args.Get(0).([]model.RunRecord)
	return runs, args.Error(1)
}
