package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ruteri/jit-activation-gateway/interfaces"
)

// MultiSource tries each source in order and returns the first document found.
type MultiSource struct {
	sources []interfaces.ConfigSource
	log     *slog.Logger
}

func NewMultiSource(sources []interfaces.ConfigSource, log *slog.Logger) *MultiSource {
	return &MultiSource{
		sources: sources,
		log:     log,
	}
}

func (m *MultiSource) Fetch(ctx context.Context) ([]byte, error) {
	var errs []error
	for _, src := range m.sources {
		data, err := src.Fetch(ctx)
		if err == nil {
			return data, nil
		}
		m.log.Warn("Failed to fetch from config source",
			slog.String("location", src.LocationURI()),
			"err", err)
		errs = append(errs, fmt.Errorf("%s: %w", src.LocationURI(), err))
	}
	return nil, fmt.Errorf("all config sources failed: %w", errors.Join(errs...))
}

func (m *MultiSource) LocationURI() string {
	uris := make([]string, len(m.sources))
	for i, src := range m.sources {
		uris[i] = src.LocationURI()
	}
	return fmt.Sprint(uris)
}
