// Package pipereg implements the Pipeline Registry: the state machine
// that carries a PipelineDesc from registration through asynchronous shader
// loading to a "visible", bindable rhi.Pipeline.
package pipereg

import "github.com/oxy-engine/rendercore/rhi"

// BindingType enumerates the descriptor-set binding kinds a reflection
// manifest may name.
type BindingType uint8

const (
	BindingSampler BindingType = iota
	BindingCombinedImageSampler
	BindingSampledImage
	BindingStorageImage
	BindingUniformTexelBuffer
	BindingStorageTexelBuffer
	BindingUniformBuffer
	BindingStorageBuffer
	BindingUniformBufferDynamic
	BindingStorageBufferDynamic
	BindingInputAttachment
)

// StageVisibility is a bitmask over rhi.ShaderStage values.
type StageVisibility uint8

const (
	StageVisibilityVertex   StageVisibility = 1 << 0
	StageVisibilityFragment StageVisibility = 1 << 1
	StageVisibilityCompute  StageVisibility = 1 << 2
)

// Binding is one descriptor-set binding entry in a Reflection manifest.
type Binding struct {
	Set        int
	Binding    int
	Type       BindingType
	Count      int
	Visibility StageVisibility
}

// Reflection enumerates every descriptor-set binding a compiled shader
// depends on.
type Reflection struct {
	Bindings []Binding
}

// ResourceHandle names a shader resource the resource system can load; in
// this module it is the shader's source/artifact path, matching
// rhi.ShaderStageRef.Path.
type ResourceHandle string

// ShaderArtifact is a loaded shader's compiled bytecode plus its reflection
// manifest, as produced by the external asset-compiler tool and handed back
// by the resource system once loading completes.
type ShaderArtifact struct {
	Handle     ResourceHandle
	Stage      rhi.ShaderStage
	Bytecode   string // WGSL text in this module; an opaque blob in general
	Reflection Reflection
}

// Provider is the resource-system contract the registry consumes. It is
// declared here, by the consumer, per Go idiom; resourcesys supplies a
// concrete in-process implementation.
type Provider interface {
	// LoadResource requests that handle be loaded on behalf of requesterID.
	// Loading is asynchronous; completion is observed via IsBusy/Artifact.
	LoadResource(handle ResourceHandle, requesterID uint64) error

	// UnloadResource releases requesterID's interest in handle.
	UnloadResource(handle ResourceHandle, requesterID uint64) error

	// IsBusy reports whether handle's load is still in flight.
	IsBusy(handle ResourceHandle) bool

	// Artifact returns the loaded artifact for handle, if loading has
	// completed successfully.
	Artifact(handle ResourceHandle) (ShaderArtifact, bool)

	// Update drives the provider's internal async work forward; called once
	// per frame from the main thread.
	Update()

	// Reload delivers hot-reload notifications: handles whose underlying
	// shader source changed and must be reloaded and re-registered.
	Reload() <-chan ResourceHandle
}
