// File path: internal/data/stores/config.go
package stores

import (
	"fmt"

	"github.com/nicodishanthj/Katral_bw/internal/sqlite"
	"github.com/nicodishanthj/Katral_bw/internal/vector"
)

// Config selects the optional stores attached to a run. Both are disabled
// unless configured.
type Config struct {
	Catalog sqlite.Config
	Vector  vector.Config
}

// LoadConfig builds a Config from the catalog and vector environment.
func LoadConfig() (Config, error) {
	catalog, err := sqlite.LoadConfig()
	if err != nil {
		return Config{}, fmt.Errorf("load catalog config: %w", err)
	}
	vec, err := vector.LoadConfig()
	if err != nil {
		return Config{}, fmt.Errorf("load vector config: %w", err)
	}
	return Config{Catalog: catalog, Vector: vec}, nil
}
