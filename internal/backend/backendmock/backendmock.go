// Package backendmock contains testify mocks for the backend boundary.
package backendmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/usbforge/usbforge/internal/model"
)

// MockBackend is a mock implementation of backend.Backend.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) StartWrite(ctx context.Context, desc model.WriteDescriptor) (*model.WriteProgress, error) {
	args := m.Called(ctx, desc)
	progress, _ := args.Get(0).(*model.WriteProgress)
	return progress, args.Error(1)
}

func (m *MockBackend) CancelWrite(ctx context.Context, taskID string) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

func (m *MockBackend) CheckTargetWritable(ctx context.Context, target model.TargetDevice) (*model.WritableCheck, error) {
	args := m.Called(ctx, target)
	check, _ := args.Get(0).(*model.WritableCheck)
	return check, args.Error(1)
}

func (m *MockBackend) RemountTargetWritable(ctx context.Context, target model.TargetDevice) (*model.WritableCheck, error) {
	args := m.Called(ctx, target)
	check, _ := args.Get(0).(*model.WritableCheck)
	return check, args.Error(1)
}

func (m *MockBackend) RunBenchmark(ctx context.Context, target model.TargetDevice, mode model.BenchmarkMode) (*model.BenchmarkResult, error) {
	args := m.Called(ctx, target, mode)
	result, _ := args.Get(0).(*model.BenchmarkResult)
	return result, args.Error(1)
}

func (m *MockBackend) CancelBenchmark(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBackend) ListTargets(ctx context.Context) ([]model.TargetDevice, error) {
	args := m.Called(ctx)
	targets, _ := args.Get(0).([]model.TargetDevice)
	return targets, args.Error(1)
}

func (m *MockBackend) SubscribeWriteProgress(ctx context.Context) (<-chan model.WriteProgress, func(), error) {
	args := m.Called(ctx)
	events, _ := args.Get(0).(<-chan model.WriteProgress)
	release, _ := args.Get(1).(func())
	return events, release, args.Error(2)
}
