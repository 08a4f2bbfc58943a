// Package storage fetches configuration documents from local files, S3
// compatible object stores and HashiCorp Vault.
//
// Sources are created from location URIs by SourceFor:
//
//	/etc/jit-gateway/services.yaml
//	file:///etc/jit-gateway/services.yaml
//	s3://[ACCESS_KEY:SECRET_KEY@]bucket/path/services.yaml?region=us-east-1&endpoint=http://minio:9000
//	vault://vault.internal:8200/secret/jit-gateway?field=webhook_secret&tls=false
//
// The Vault source reads a KV v2 secret and returns a single field of it.
// The token is taken from the environment (VAULT_TOKEN) the way the Vault
// CLI does.
//
// Several URIs may be combined with NewMultiSource, which returns the document
// from the first source that has it.
package storage
