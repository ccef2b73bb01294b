// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package rhi

import "fmt"

// ResourceKind identifies the kind of a resource.
type ResourceKind int

// Resource kinds.
const (
	KindBuffer ResourceKind = iota
	KindTexture
	KindRenderBuffer
	KindSampler
	KindRenderPassDescriptor
	KindRenderTarget
	KindTextureRenderTarget
	KindShaderResourceBindings
	KindGraphicsPipeline
	KindComputePipeline
	KindSwapChain
)

func (k ResourceKind) String() string {
	names := [...]string{
		"Buffer", "Texture", "RenderBuffer", "Sampler", "RenderPassDescriptor",
		"RenderTarget", "TextureRenderTarget", "ShaderResourceBindings",
		"GraphicsPipeline", "ComputePipeline", "SwapChain",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("ResourceKind(%d)", int(k))
}

// Resource is the lifecycle shared by every resource kind.
//
// A resource is created by a Device factory with fixed construction
// parameters, becomes usable after a successful Build, and returns to the
// unbuilt state on Release. Release is idempotent and may be called before
// Build; a released resource can be built again.
type Resource interface {
	// Kind returns the resource kind.
	Kind() ResourceKind

	// Device returns the device that created the resource.
	Device() *Device

	// Name returns the debug name.
	Name() string

	// SetName sets the debug name. Backends pick it up at the next Build.
	SetName(name string)

	// IsBuilt reports whether the last Build succeeded and no Release
	// followed.
	IsBuilt() bool

	// Release frees the backend objects. Safe to call repeatedly.
	Release()

	base() *ResourceBase
}

// Buildable is a Resource created unbuilt and made usable by Build.
type Buildable interface {
	Resource

	// Build allocates the backend objects. On failure the resource stays
	// unbuilt and must not be used for recording.
	Build() error
}

// ResourceBase carries the state common to all resources. Backends embed
// the per-kind base types, which embed ResourceBase; this is the only way to
// satisfy the resource interfaces.
type ResourceBase struct {
	dev   *Device
	kind  ResourceKind
	name  string
	built bool
}

func newResourceBase(d *Device, kind ResourceKind) ResourceBase {
	return ResourceBase{dev: d, kind: kind}
}

// Kind returns the resource kind.
func (r *ResourceBase) Kind() ResourceKind { return r.kind }

// Device returns the owning device.
func (r *ResourceBase) Device() *Device { return r.dev }

// Name returns the debug name.
func (r *ResourceBase) Name() string { return r.name }

// SetName sets the debug name.
func (r *ResourceBase) SetName(name string) { r.name = name }

// IsBuilt reports whether the resource is built.
func (r *ResourceBase) IsBuilt() bool { return r.built }

// MarkBuilt records a successful build. For backend implementations.
func (r *ResourceBase) MarkBuilt() {
	r.built = true
	Logger().Debug("rhi: built", "kind", r.kind, "name", r.name)
}

// MarkReleased records a release and reports whether the resource was
// built. Backends use the result to make Release idempotent:
//
//	func (b *buffer) Release() {
//	    if !b.MarkReleased() {
//	        return
//	    }
//	    // free backend objects
//	}
func (r *ResourceBase) MarkReleased() bool {
	was := r.built
	r.built = false
	return was
}

func (r *ResourceBase) base() *ResourceBase { return r }

// checkUsable verifies that res is non-nil, built and owned by d.
func checkUsable(d *Device, res Resource) error {
	if res == nil {
		return ErrNilResource
	}
	b := res.base()
	if b.dev != d {
		return fmt.Errorf("%w: %s %q", ErrForeignResource, b.kind, b.name)
	}
	if !b.built {
		return fmt.Errorf("%w: %s %q", ErrNotBuilt, b.kind, b.name)
	}
	return nil
}
