// Package interfaces defines the contracts and value types shared by the
// JIT activation gateway, separating interface definitions from implementations.
//
// # Activation Types
//
// ServiceAlias and ServiceName distinguish the short identifier a caller uses
// from the fully-qualified name known to the orchestrator. ActivationRequest and
// ActivationResult carry a single trigger through the gateway; neither outlives
// the HTTP request that created it.
//
// # Component Interfaces
//
// ServiceResolver: pure alias to service name mapping backed by a static table.
//
// Scaler: the single blocking call-out of the request path, setting the replica
// count of a named service.
//
// ClusterInspector: read-only view of nodes and services used by the exporter.
//
// Activator: resolve plus bounded scale, folding failures into a typed Outcome.
//
// ConfigSource: read-only location of a startup configuration document such as
// the alias table or the webhook secret.
package interfaces
