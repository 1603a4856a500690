package cache

import "context"

// NullBackend is a no-op backend that never persists anything.
// Useful for testing or when caching across runs should be disabled.
type NullBackend struct{}

// Location returns a placeholder description.
func (NullBackend) Location() string { return "(disabled)" }

// Load always reports that no snapshot exists.
func (NullBackend) Load(context.Context) (map[string]string, bool, error) {
	return nil, false, nil
}

// Save does nothing.
func (NullBackend) Save(context.Context, map[string]string) error {
	return nil
}

// Clear does nothing.
func (NullBackend) Clear(context.Context) (bool, error) {
	return false, nil
}

// Ensure NullBackend implements Backend.
var _ Backend = NullBackend{}
