package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ruteri/jit-activation-gateway/interfaces"
)

var (
	nodeInfoDesc = prometheus.NewDesc(
		"swarm_node_info", "Node info", []string{"hostname", "role"}, nil)
	replicasRunningDesc = prometheus.NewDesc(
		"swarm_service_replicas_running", "Running", []string{"service_name"}, nil)
	replicasDesiredDesc = prometheus.NewDesc(
		"swarm_service_replicas_desired", "Desired", []string{"service_name"}, nil)
)

// SwarmCollector reports swarm node roles and service replica counts.
// State is read from the cluster on every scrape.
type SwarmCollector struct {
	cluster interfaces.ClusterInspector
	timeout time.Duration
	log     *slog.Logger
}

func NewSwarmCollector(cluster interfaces.ClusterInspector, timeout time.Duration, log *slog.Logger) *SwarmCollector {
	return &SwarmCollector{
		cluster: cluster,
		timeout: timeout,
		log:     log,
	}
}

func (c *SwarmCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- nodeInfoDesc
	ch <- replicasRunningDesc
	ch <- replicasDesiredDesc
}

func (c *SwarmCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	nodes, err := c.cluster.Nodes(ctx)
	if err != nil {
		c.log.Error("Failed to list swarm nodes", "err", err)
		ch <- prometheus.NewInvalidMetric(nodeInfoDesc, err)
	}
	for _, n := range nodes {
		role := "worker"
		if n.Manager {
			role = "manager"
		}
		ch <- prometheus.MustNewConstMetric(nodeInfoDesc, prometheus.GaugeValue, 1, n.Hostname, role)
	}

	services, err := c.cluster.Services(ctx)
	if err != nil {
		c.log.Error("Failed to list swarm services", "err", err)
		ch <- prometheus.NewInvalidMetric(replicasRunningDesc, err)
		return
	}
	for _, s := range services {
		ch <- prometheus.MustNewConstMetric(replicasRunningDesc, prometheus.GaugeValue, float64(s.RunningReplicas), s.Name.String())
		ch <- prometheus.MustNewConstMetric(replicasDesiredDesc, prometheus.GaugeValue, float64(s.DesiredReplicas), s.Name.String())
	}
}
