package interfaces

import "context"

// Scaler issues a scale-to-N command for a named service against the cluster control plane.
//
// The returned string is the diagnostic text produced by the control plane (command output,
// update warnings). It is returned alongside a non-nil error as well so callers can log it.
// Implementations must honor ctx cancellation and must not retry.
type Scaler interface {
	Scale(ctx context.Context, service ServiceName, replicas uint64) (string, error)
}

// NodeState is a cluster node as reported by the control plane.
type NodeState struct {
	Hostname string
	Manager  bool
}

// ServiceState is the replica accounting of a single cluster service.
type ServiceState struct {
	Name            ServiceName
	RunningReplicas uint64
	DesiredReplicas uint64
}

// ClusterInspector reads cluster state for export as metrics.
type ClusterInspector interface {
	Nodes(ctx context.Context) ([]NodeState, error)
	Services(ctx context.Context) ([]ServiceState, error)
}
