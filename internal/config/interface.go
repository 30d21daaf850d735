package config

import "context"

// Loader is the interface for a format-specific plan loader.
type Loader interface {
	// Load reads every plan file under the given paths and merges them into
	// one validated model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
