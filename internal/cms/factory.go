package cms

import (
	"fmt"
	"sync"
)

// Factory resolves adapters by provider identifier. Adapters register once
// at startup; resolution is read-mostly.
type Factory struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewFactory creates an empty adapter factory.
func NewFactory() *Factory {
	return &Factory{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under the given provider identifier, replacing
// any previous registration.
func (f *Factory) Register(provider string, adapter Adapter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adapters[provider] = adapter
}

// AdapterFor returns the adapter for the provider. Returns
// ErrUnsupportedProvider (wrapped with the provider name) when none is
// registered.
func (f *Factory) AdapterFor(provider string) (Adapter, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	adapter, ok := f.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
	return adapter, nil
}
