//nolint:errcheck
package gdb

import (
	"context"
	"time"

	"github.com/arloliu/go-gdbrsp/logger"
	"github.com/stretchr/testify/mock"
)

// MockTransport implements Transport interface for testing
type MockTransport struct {
	mock.Mock
}

var _ Transport = (*MockTransport)(nil)

func (m *MockTransport) Connect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTransport) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTransport) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockTransport) SetRecvTimeout(d time.Duration) error {
	args := m.Called(d)
	return args.Error(0)
}

func (m *MockTransport) SetNoAckMode(enabled bool) {
	m.Called(enabled)
}

func (m *MockTransport) SendPacket(payload []byte) error {
	args := m.Called(payload)
	return args.Error(0)
}

func (m *MockTransport) RecvDecodedPayload() ([]byte, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockTransport) SendInterrupt() error {
	args := m.Called()
	return args.Error(0)
}

// GetLogger returns the package default logger directly so tests don't need
// to register an expectation for the Client constructor.
func (m *MockTransport) GetLogger() logger.Logger {
	return logger.GetLogger()
}
