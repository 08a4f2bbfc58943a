package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/ruteri/jit-activation-gateway/interfaces"
)

// VaultSource reads one field of a KV v2 secret.
type VaultSource struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	field       string
	log         *slog.Logger
	locationURI string
}

// NewVaultSource creates a Vault source. Authentication uses the token found
// in the environment (VAULT_TOKEN).
func NewVaultSource(address, mountPath, dataPath, field string, log *slog.Logger) (*VaultSource, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.HttpClient = &http.Client{
		Timeout: 30 * time.Second,
	}
	config.MaxRetries = 0

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	mountPath = strings.Trim(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultSource{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		field:       field,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s?field=%s", strings.TrimPrefix(strings.TrimPrefix(address, "https://"), "http://"), mountPath, dataPath, field),
	}, nil
}

// SetToken overrides the token taken from the environment.
func (s *VaultSource) SetToken(token string) {
	s.client.SetToken(token)
}

func (s *VaultSource) Fetch(ctx context.Context) ([]byte, error) {
	start := time.Now()
	path := fmt.Sprintf("%s/data/%s", s.mountPath, s.dataPath)

	secret, err := s.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		s.log.Error("Failed to read from Vault",
			slog.String("path", path),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrContentNotFound, path)
	}

	// A deleted or destroyed KV v2 version comes back with metadata only.
	if secret.Data["data"] == nil {
		return nil, fmt.Errorf("%w: %s has no current version", interfaces.ErrContentNotFound, path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid data format in Vault response for %s", path)
	}

	raw, ok := data[s.field]
	if !ok {
		return nil, fmt.Errorf("%w: field %q not found in %s", interfaces.ErrContentNotFound, s.field, path)
	}

	content, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("field %q in %s is not a string", s.field, path)
	}

	s.log.Debug("Fetched content from Vault",
		slog.String("path", path),
		slog.String("field", s.field),
		slog.Duration("duration", time.Since(start)))

	return []byte(content), nil
}

func (s *VaultSource) LocationURI() string {
	return s.locationURI
}
