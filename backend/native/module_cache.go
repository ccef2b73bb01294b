// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/gogpu/wgpu/hal"
)

// moduleCache shares compiled shader modules between pipelines built from
// the same WGSL source. Entries are reference counted and destroyed when
// the last pipeline using them is released.
//
// Thread Safety:
// moduleCache is safe for concurrent use.
type moduleCache struct {
	device hal.Device

	// mu protects entries.
	mu      sync.Mutex
	entries map[uint64]*cachedModule

	// hits and misses are atomic for lock-free reads.
	hits   atomic.Uint64
	misses atomic.Uint64
}

type cachedModule struct {
	module hal.ShaderModule
	refs   int
}

func newModuleCache(device hal.Device) *moduleCache {
	return &moduleCache{device: device, entries: make(map[uint64]*cachedModule)}
}

func hashSource(src string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(src))
	return h.Sum64()
}

// acquire returns the module for src, compiling it on first use. Each
// successful acquire must be paired with a release of the returned key.
func (c *moduleCache) acquire(label, src string) (hal.ShaderModule, uint64, error) {
	key := hashSource(src)
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.refs++
		c.hits.Add(1)
		return e.module, key, nil
	}
	c.misses.Add(1)
	module, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{WGSL: src},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("compile %s shader: %w", label, err)
	}
	c.entries[key] = &cachedModule{module: module, refs: 1}
	return module, key, nil
}

func (c *moduleCache) release(key uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	if e.refs--; e.refs == 0 {
		c.device.DestroyShaderModule(e.module)
		delete(c.entries, key)
	}
}

// size returns the number of live modules.
func (c *moduleCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *moduleCache) stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// destroyAll destroys every module regardless of references. Called when
// the device goes away.
func (c *moduleCache) destroyAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		c.device.DestroyShaderModule(e.module)
		delete(c.entries, key)
	}
}
