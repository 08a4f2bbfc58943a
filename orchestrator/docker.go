package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/moby/moby/client"
	"github.com/ruteri/jit-activation-gateway/interfaces"
)

var (
	// ErrServiceNotFound is returned when the cluster has no service with the given name.
	ErrServiceNotFound = errors.New("service not found")
	// ErrNotReplicated is returned for services not running in replicated mode.
	ErrNotReplicated = errors.New("service is not in replicated mode")
)

// ServiceAPI is the subset of the Docker Engine API client used for scaling.
type ServiceAPI interface {
	ServiceInspect(ctx context.Context, serviceID string, options client.ServiceInspectOptions) (client.ServiceInspectResult, error)
	ServiceUpdate(ctx context.Context, serviceID string, options client.ServiceUpdateOptions) (client.ServiceUpdateResult, error)
}

// DockerScaler scales swarm services through the Engine API.
type DockerScaler struct {
	api ServiceAPI
}

// NewDockerClient connects to the Docker daemon configured by the environment
// (DOCKER_HOST, DOCKER_API_VERSION, DOCKER_CERT_PATH, DOCKER_TLS_VERIFY).
func NewDockerClient() (*client.Client, error) {
	c, err := client.New(
		client.FromEnv,
	)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return c, nil
}

// NewDockerScaler returns a scaler using api.
func NewDockerScaler(api ServiceAPI) *DockerScaler {
	return &DockerScaler{api: api}
}

// Scale sets the replica count of the named service.
func (s *DockerScaler) Scale(ctx context.Context, service interfaces.ServiceName, replicas uint64) (string, error) {
	inspected, err := s.api.ServiceInspect(ctx, service.String(), client.ServiceInspectOptions{})
	if err != nil {
		if errdefs.IsNotFound(err) {
			return err.Error(), fmt.Errorf("inspect service %q: %w", service, ErrServiceNotFound)
		}
		return err.Error(), fmt.Errorf("inspect service %q: %w", service, err)
	}

	svc := inspected.Service
	spec := svc.Spec
	if spec.Mode.Replicated == nil {
		return "", fmt.Errorf("scale service %q: %w", service, ErrNotReplicated)
	}
	if cur := spec.Mode.Replicated.Replicas; cur != nil && *cur == replicas {
		// An update with an unchanged spec still bumps the version and
		// may restart tasks, so leave the service alone.
		return fmt.Sprintf("%s already at %d replicas", service, replicas), nil
	}

	// Copy before mutating; the inspected spec may alias the response.
	replicated := *spec.Mode.Replicated
	replicated.Replicas = &replicas
	spec.Mode.Replicated = &replicated

	updated, err := s.api.ServiceUpdate(ctx, svc.ID, client.ServiceUpdateOptions{
		Version: svc.Version,
		Spec:    spec,
	})
	if err != nil {
		return err.Error(), fmt.Errorf("update service %q: %w", service, err)
	}

	msg := fmt.Sprintf("%s scaled to %d", service, replicas)
	if len(updated.Warnings) > 0 {
		msg += ": " + strings.Join(updated.Warnings, "; ")
	}
	return msg, nil
}
