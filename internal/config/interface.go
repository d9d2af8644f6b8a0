package config

import "context"

// Loader is the interface for a format-specific description loader.
type Loader interface {
	// Load reads every description file under the given paths and merges
	// them into one model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Encoder writes a model back out in a canonical form.
type Encoder interface {
	Encode(m *Model) ([]byte, error)
}
