package orchestrator

import (
	"context"
	"fmt"

	"github.com/moby/moby/api/types/swarm"
	"github.com/moby/moby/client"
	"github.com/ruteri/jit-activation-gateway/interfaces"
)

// ClusterAPI is the subset of the Docker Engine API client used to read cluster state.
type ClusterAPI interface {
	NodeList(ctx context.Context, options client.NodeListOptions) (client.NodeListResult, error)
	ServiceList(ctx context.Context, options client.ServiceListOptions) (client.ServiceListResult, error)
}

// DockerCluster reads swarm nodes and service replica counts.
type DockerCluster struct {
	api ClusterAPI
}

func NewDockerCluster(api ClusterAPI) *DockerCluster {
	return &DockerCluster{api: api}
}

// Nodes lists swarm nodes. A node is a manager when it carries manager status,
// matching the ManagerStatus column of `docker node ls`.
func (c *DockerCluster) Nodes(ctx context.Context) ([]interfaces.NodeState, error) {
	res, err := c.api.NodeList(ctx, client.NodeListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}

	nodes := make([]interfaces.NodeState, 0, len(res.Items))
	for _, n := range res.Items {
		nodes = append(nodes, interfaces.NodeState{
			Hostname: n.Description.Hostname,
			Manager:  n.ManagerStatus != nil || n.Spec.Role == swarm.NodeRoleManager,
		})
	}
	return nodes, nil
}

// Services lists swarm services with running and desired task counts.
func (c *DockerCluster) Services(ctx context.Context) ([]interfaces.ServiceState, error) {
	res, err := c.api.ServiceList(ctx, client.ServiceListOptions{Status: true})
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	services := make([]interfaces.ServiceState, 0, len(res.Items))
	for _, s := range res.Items {
		state := interfaces.ServiceState{Name: interfaces.ServiceName(s.Spec.Name)}
		if s.ServiceStatus != nil {
			state.RunningReplicas = s.ServiceStatus.RunningTasks
			state.DesiredReplicas = s.ServiceStatus.DesiredTasks
		} else if s.Spec.Mode.Replicated != nil && s.Spec.Mode.Replicated.Replicas != nil {
			state.DesiredReplicas = *s.Spec.Mode.Replicated.Replicas
		}
		services = append(services, state)
	}
	return services, nil
}
