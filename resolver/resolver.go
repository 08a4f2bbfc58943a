package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/ruteri/jit-activation-gateway/interfaces"
	"gopkg.in/yaml.v3"
)

// ErrInvalidMapping is returned for malformed alias definitions.
var ErrInvalidMapping = errors.New("invalid service mapping")

// AliasTable is an immutable alias -> service name lookup table.
type AliasTable struct {
	entries map[interfaces.ServiceAlias]interfaces.ServiceName
}

// DefaultMappings returns the aliases of the stacks deployed alongside the gateway.
func DefaultMappings() map[string]string {
	return map[string]string{
		"mealie":      "mealie_mealie",
		"minio":       "minio_minio",
		"forgejo":     "forgejo_forgejo",
		"vaultwarden": "vaultwarden_vaultwarden",
	}
}

// NewAliasTable copies mappings into a new table. Empty aliases or names are rejected.
func NewAliasTable(mappings map[string]string) (*AliasTable, error) {
	entries := make(map[interfaces.ServiceAlias]interfaces.ServiceName, len(mappings))
	for alias, name := range mappings {
		alias = strings.TrimSpace(alias)
		name = strings.TrimSpace(name)
		if alias == "" || name == "" {
			return nil, fmt.Errorf("%w: empty alias or name in %q=%q", ErrInvalidMapping, alias, name)
		}
		entries[interfaces.ServiceAlias(alias)] = interfaces.ServiceName(name)
	}
	return &AliasTable{entries: entries}, nil
}

// Build merges the given mapping sets in order and returns the resulting table.
func Build(sources ...map[string]string) (*AliasTable, error) {
	merged := map[string]string{}
	for _, src := range sources {
		maps.Copy(merged, src)
	}
	return NewAliasTable(merged)
}

// Resolve returns the service name for alias, or alias itself when it has no entry.
func (t *AliasTable) Resolve(alias interfaces.ServiceAlias) interfaces.ServiceName {
	if name, ok := t.entries[alias]; ok {
		return name
	}
	return interfaces.ServiceName(alias)
}

// Aliases returns the configured aliases in sorted order.
func (t *AliasTable) Aliases() []interfaces.ServiceAlias {
	return slices.Sorted(maps.Keys(t.entries))
}

// Len returns the number of configured aliases.
func (t *AliasTable) Len() int {
	return len(t.entries)
}

// ParseMappings parses a comma separated "alias=name" list.
func ParseMappings(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		alias, name, ok := strings.Cut(pair, "=")
		alias, name = strings.TrimSpace(alias), strings.TrimSpace(name)
		if !ok || alias == "" || name == "" {
			return nil, fmt.Errorf("%w: %q, expected alias=name", ErrInvalidMapping, pair)
		}
		out[alias] = name
	}
	return out, nil
}

// LoadMappings decodes a YAML document of the form
//
//	services:
//	  minio: minio_minio
//	  forgejo: forgejo_forgejo
func LoadMappings(r io.Reader) (map[string]string, error) {
	var doc struct {
		Services map[string]string `yaml:"services"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidMapping, err)
	}
	if doc.Services == nil {
		return map[string]string{}, nil
	}
	return doc.Services, nil
}

// LoadMappingsFrom fetches and decodes a YAML service map from src.
func LoadMappingsFrom(ctx context.Context, src interfaces.ConfigSource) (map[string]string, error) {
	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch service map %s: %w", src.LocationURI(), err)
	}

	m, err := LoadMappings(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse service map %s: %w", src.LocationURI(), err)
	}
	return m, nil
}
