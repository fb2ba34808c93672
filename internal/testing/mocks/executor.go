// Package mocks holds testify mocks shared across package tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockExecutor is a testify mock for command.Executor.
//
// Example:
//
//	exe := &mocks.MockExecutor{}
//	exe.On("Output", mock.Anything, "xrandr", []string{"--verbose"}).
//		Return([]byte(dump), nil)
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Run(ctx context.Context, name string, args ...string) error {
	called := m.Called(ctx, name, args)
	//nolint:wrapcheck // mock returns are wrapped by the caller
	return called.Error(0)
}

func (m *MockExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	called := m.Called(ctx, name, args)
	out, _ := called.Get(0).([]byte)
	//nolint:wrapcheck // mock returns are wrapped by the caller
	return out, called.Error(1)
}

func (m *MockExecutor) LookPath(name string) (string, error) {
	called := m.Called(name)
	//nolint:wrapcheck // mock returns are wrapped by the caller
	return called.String(0), called.Error(1)
}
