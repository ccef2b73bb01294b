// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/rhi"
)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	// Native > Null (Null renders nothing and is the fallback).
	backendPriority = []string{BackendNative, BackendNull}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get returns a new backend instance by name.
// Returns nil if the backend is not registered.
func Get(name string) rhi.Backend {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil
	}
	return factory()
}

// Default returns the best available backend based on priority.
// Priority order: native > null, then any other registered backend.
// Returns nil if no backends are registered.
func Default() rhi.Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range backendPriority {
		if factory, ok := backends[name]; ok {
			if b := factory(); b != nil {
				return b
			}
		}
	}

	// Fallback: first available in name order.
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if b := backends[name](); b != nil {
			return b
		}
	}

	return nil
}

// MustDefault returns the default backend or panics.
func MustDefault() rhi.Backend {
	b := Default()
	if b == nil {
		panic("backend: no backend available")
	}
	return b
}

// Open creates a Device on the named backend. An empty name selects
// Default.
//
// Example:
//
//	import _ "github.com/gogpu/rhi/backend/null"
//
//	dev, err := backend.Open("null", rhi.WithDebugMarkers(true))
func Open(name string, opts ...rhi.Option) (*rhi.Device, error) {
	var b rhi.Backend
	if name == "" {
		b = Default()
	} else {
		b = Get(name)
	}
	if b == nil {
		if name == "" {
			return nil, ErrBackendNotAvailable
		}
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrBackendNotAvailable, name, Available())
	}
	return rhi.NewDevice(b, opts...)
}

// OpenConfig creates a Device from a loaded configuration. extra options
// are applied after the ones derived from cfg.
func OpenConfig(cfg rhi.Config, extra ...rhi.Option) (*rhi.Device, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return Open(cfg.Backend, append(opts, extra...)...)
}
