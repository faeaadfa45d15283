// Package safetymock contains testify mocks for the safety gate collaborators.
package safetymock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/usbforge/usbforge/internal/model"
)

// MockPrompter is a mock implementation of safety.Prompter.
type MockPrompter struct {
	mock.Mock
}

func (m *MockPrompter) ConfirmRemount(ctx context.Context, check model.WritableCheck) (bool, error) {
	args := m.Called(ctx, check)
	return args.Bool(0), args.Error(1)
}

func (m *MockPrompter) ConfirmDestructive(ctx context.Context, desc model.WriteDescriptor) (bool, error) {
	args := m.Called(ctx, desc)
	return args.Bool(0), args.Error(1)
}

// MockPreflightProvider is a mock implementation of safety.PreflightProvider.
type MockPreflightProvider struct {
	mock.Mock
}

func (m *MockPreflightProvider) Supported() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockPreflightProvider) Check(ctx context.Context, target model.TargetDevice) (*model.WritableCheck, error) {
	args := m.Called(ctx, target)
	check, _ := args.Get(0).(*model.WritableCheck)
	return check, args.Error(1)
}

func (m *MockPreflightProvider) Remount(ctx context.Context, target model.TargetDevice) (*model.WritableCheck, error) {
	args := m.Called(ctx, target)
	check, _ := args.Get(0).(*model.WritableCheck)
	return check, args.Error(1)
}
