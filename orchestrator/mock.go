package orchestrator

import (
	"context"

	"github.com/ruteri/jit-activation-gateway/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockScaler mocks the interfaces.Scaler interface
type MockScaler struct {
	mock.Mock
}

// Scale mocks the Scale method
func (m *MockScaler) Scale(ctx context.Context, service interfaces.ServiceName, replicas uint64) (string, error) {
	args := m.Called(ctx, service, replicas)
	return args.String(0), args.Error(1)
}

// MockClusterInspector mocks the interfaces.ClusterInspector interface
type MockClusterInspector struct {
	mock.Mock
}

// Nodes mocks the Nodes method
func (m *MockClusterInspector) Nodes(ctx context.Context) ([]interfaces.NodeState, error) {
	args := m.Called(ctx)
	nodes, _ := args.Get(0).([]interfaces.NodeState)
	return nodes, args.Error(1)
}

// Services mocks the Services method
func (m *MockClusterInspector) Services(ctx context.Context) ([]interfaces.ServiceState, error) {
	args := m.Called(ctx)
	services, _ := args.Get(0).([]interfaces.ServiceState)
	return services, args.Error(1)
}
