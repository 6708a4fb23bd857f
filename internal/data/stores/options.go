// File path: internal/data/stores/options.go
package stores

import (
	"github.com/nicodishanthj/Katral_bw/internal/vector"
)

type Option func(*options)

type options struct {
	catalog Catalog
	vector  vector.Store
}

// WithCatalog injects a run catalog implementation.
func WithCatalog(catalog Catalog) Option {
	return func(o *options) {
		o.catalog = catalog
	}
}

// WithVectorStore injects a vector store implementation.
func WithVectorStore(store vector.Store) Option {
	return func(o *options) {
		o.vector = store
	}
}
