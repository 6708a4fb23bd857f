// File path: internal/data/stores/stores.go
package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/nicodishanthj/Katral_bw/internal/sqlite"
	"github.com/nicodishanthj/Katral_bw/internal/vector"
)

type closer interface {
	Close() error
}

// Catalog records finished runs and lists them back.
type Catalog interface {
	RecordRun(ctx context.Context, record sqlite.RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]sqlite.Run, error)
	Report(ctx context.Context, runID string) ([]byte, error)
	Close() error
}

// Stores holds the optional persistence attached to a pipeline run: the
// SQLite run catalog and the ChromaDB mirror of knowledge entries.
type Stores struct {
	catalog Catalog
	vector  vector.Store

	closers []closer
}

// New constructs the configured stores. Injected options take precedence
// over configuration.
func New(ctx context.Context, cfg Config, opts ...Option) (*Stores, error) {
	settings := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}
	s := &Stores{}

	switch {
	case settings.catalog != nil:
		s.catalog = settings.catalog
	case cfg.Catalog.Enabled():
		catalog, err := sqlite.OpenWithConfig(cfg.Catalog)
		if err != nil {
			return nil, fmt.Errorf("init run catalog: %w", err)
		}
		s.catalog = catalog
	}
	if s.catalog != nil {
		s.closers = append(s.closers, s.catalog)
	}

	switch {
	case settings.vector != nil:
		s.vector = settings.vector
	case cfg.Vector.Enabled:
		client, err := vector.New(ctx, cfg.Vector)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("init vector client: %w", err)
		}
		s.vector = client
	}
	if s.vector != nil {
		s.closers = append(s.closers, s.vector)
	}
	return s, nil
}

// Catalog exposes the optional run catalog.
func (s *Stores) Catalog() Catalog {
	if s == nil {
		return nil
	}
	return s.catalog
}

// Vector exposes the optional vector store.
func (s *Stores) Vector() vector.Store {
	if s == nil {
		return nil
	}
	return s.vector
}

// Close releases every store in reverse order of construction.
func (s *Stores) Close() error {
	if s == nil {
		return nil
	}
	var err error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if cerr := s.closers[i].Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	s.closers = nil
	return err
}
