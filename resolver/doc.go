// Package resolver maps caller-facing service aliases to fully-qualified
// orchestrator service names.
//
// The mapping lives in an AliasTable that is assembled once at startup from the
// built-in defaults, an optional YAML document (fetched through an
// interfaces.ConfigSource) and an optional "alias=name" list,
// later sources overriding earlier ones. After construction the table is never
// mutated, so concurrent lookups need no locking.
//
// Unknown aliases resolve to themselves. This lets callers address any
// orchestrator service directly without a table entry; whether the name exists
// is only discovered when the orchestrator is asked to scale it.
//
// # Usage Example
//
//	table, err := resolver.Build(resolver.DefaultMappings(), fileMappings, flagMappings)
//	if err != nil {
//		return err
//	}
//	name := table.Resolve("minio") // "minio_minio"
package resolver
