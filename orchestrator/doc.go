// Package orchestrator talks to the Docker Swarm control plane.
//
// It provides two interfaces.Scaler implementations that set the replica count
// of a swarm service:
//
//   - DockerScaler uses the Docker Engine API. It inspects the service by its
//     exact name and updates the replicated mode's replica count at the
//     inspected version, which is what `docker service scale` does.
//   - CLIScaler runs `docker service scale <name>=<n>` as a child process and
//     returns the captured stdout/stderr as its diagnostic.
//
// Neither implementation applies its own timeout or retries; the caller owns
// the context deadline and the retry policy.
//
// DockerCluster implements interfaces.ClusterInspector on the same API client
// for the swarm exporter.
//
// MockScaler is a testify mock for handler tests.
package orchestrator
