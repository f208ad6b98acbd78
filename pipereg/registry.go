package pipereg

import (
	"fmt"
	"log"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/oxy-engine/rendercore/rendererr"
	"github.com/oxy-engine/rendercore/rhi"
)

// pipelineState is the entry's discriminated state, a tagged variant rather
// than a set of independent booleans.
type pipelineState uint8

const (
	stateRegistered pipelineState = iota
	stateShadersLoading
	stateShadersLoaded
	stateVisible
	stateFailed
	stateDestroyed
)

func (s pipelineState) String() string {
	switch s {
	case stateRegistered:
		return "registered"
	case stateShadersLoading:
		return "shaders-loading"
	case stateShadersLoaded:
		return "shaders-loaded"
	case stateVisible:
		return "visible"
	case stateFailed:
		return "failed"
	case stateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Entry is a PipelineEntry: a descriptor plus weak references to the shader
// resources it depends on, its state, and (once visible) the realized
// pipeline.
type Entry struct {
	Handle   rhi.PipelineHandle
	Desc     rhi.PipelineDesc
	State    pipelineState
	Pipeline *rhi.Pipeline
}

// Registry is the Pipeline Registry: it carries PipelineDesc values
// through registration, asynchronous shader acquisition, and pipeline
// creation to "visible". All mutating operations require the main thread
// (the registry still guards itself with a mutex, since worker goroutines
// may legitimately call the read-only query accessors concurrently).
type Registry struct {
	mu sync.Mutex

	entries      []*Entry
	descToHandle map[rhi.PipelineDesc]rhi.PipelineHandle
	handleIndex  map[rhi.PipelineHandle]*Entry

	waitToSubmit   []*Entry
	waitToLoad     []*Entry
	waitToRegister []*Entry
	retryQueue     []*Entry

	nextRasterID  uint32
	nextComputeID uint32

	provider    Provider
	requesterID uint64

	colorFormat wgpu.TextureFormat
}

// New creates an empty Registry bound to provider for shader acquisition.
// requesterID tags every LoadResource/UnloadResource call the registry
// issues, and colorFormat is the swapchain format used to build raster
// pipelines' single color target.
func New(provider Provider, requesterID uint64, colorFormat wgpu.TextureFormat) *Registry {
	return &Registry{
		descToHandle: make(map[rhi.PipelineDesc]rhi.PipelineHandle),
		handleIndex:  make(map[rhi.PipelineHandle]*Entry),
		provider:     provider,
		requesterID:  requesterID,
		colorFormat:  colorFormat,
	}
}

// RegisterRaster deduplicates by the descriptor's own equality: a
// descriptor equal to one already registered returns the existing handle.
// On a miss it allocates the next monotonic id and enqueues the entry on
// the wait-to-submit queue.
func (r *Registry) RegisterRaster(desc rhi.PipelineDesc) rhi.PipelineHandle {
	desc.Kind = rhi.PipelineKindRaster
	return r.register(desc, &r.nextRasterID)
}

// RegisterCompute is RegisterRaster for compute pipelines.
func (r *Registry) RegisterCompute(desc rhi.PipelineDesc) rhi.PipelineHandle {
	desc.Kind = rhi.PipelineKindCompute
	return r.register(desc, &r.nextComputeID)
}

func (r *Registry) register(desc rhi.PipelineDesc, idCounter *uint32) rhi.PipelineHandle {
	if desc.StageCount <= 0 || desc.StageCount > rhi.MaxShaderStages {
		log.Printf("pipereg: refusing to register a pipeline with stage count %d", desc.StageCount)
		return rhi.InvalidPipelineHandle()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.descToHandle[desc]; ok {
		return h
	}

	*idCounter++
	handle := rhi.PipelineHandle{Kind: desc.Kind, ID: *idCounter}
	entry := &Entry{Handle: handle, Desc: desc, State: stateRegistered}

	r.entries = append(r.entries, entry)
	r.descToHandle[desc] = handle
	r.handleIndex[handle] = entry
	r.waitToSubmit = append(r.waitToSubmit, entry)

	if len(r.entries) != len(r.descToHandle) {
		panic("pipereg: entries/descToHandle fell out of size lockstep")
	}

	return handle
}

// Update drains wait-to-submit by issuing shader load requests tagged by
// handle id, then drains wait-to-load by promoting entries whose shader
// resources have all finished loading to the wait-to-register queue.
func (r *Registry) Update() {
	r.mu.Lock()
	defer r.mu.Unlock()

	submitting := r.waitToSubmit
	r.waitToSubmit = nil
	for _, e := range submitting {
		for i := 0; i < e.Desc.StageCount; i++ {
			handle := ResourceHandle(e.Desc.Stages[i].Path)
			if err := r.provider.LoadResource(handle, r.requesterID); err != nil {
				log.Printf("pipereg: load request for %q failed: %v", handle, err)
			}
		}
		e.State = stateShadersLoading
		r.waitToLoad = append(r.waitToLoad, e)
	}

	stillLoading := r.waitToLoad[:0:0]
	for _, e := range r.waitToLoad {
		if r.allStagesLoaded(e) {
			e.State = stateShadersLoaded
			r.waitToRegister = append(r.waitToRegister, e)
		} else {
			stillLoading = append(stillLoading, e)
		}
	}
	r.waitToLoad = stillLoading
}

func (r *Registry) allStagesLoaded(e *Entry) bool {
	for i := 0; i < e.Desc.StageCount; i++ {
		handle := ResourceHandle(e.Desc.Stages[i].Path)
		if r.provider.IsBusy(handle) {
			return false
		}
		if _, ok := r.provider.Artifact(handle); !ok {
			return false
		}
	}
	return true
}

// UpdatePipelines walks wait-to-register; for each entry still
// shaders-loaded it attempts device pipeline creation. On success the
// pipeline-state is stored and the entry becomes visible; on failure the
// entry is enqueued into the retry queue. At the end, retry-queue and
// wait-to-register are swapped. Returns false iff any failure occurred.
func (r *Registry) UpdatePipelines(device *rhi.Device) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	toProcess := r.waitToRegister
	r.waitToRegister = nil
	anyFailure := false

	for _, e := range toProcess {
		if e.State != stateShadersLoaded {
			continue
		}

		created, err := r.createPipeline(device, e)
		if err != nil {
			log.Printf("pipereg: pipeline creation for handle %v failed, retrying next update: %v", e.Handle, err)
			r.retryQueue = append(r.retryQueue, e)
			anyFailure = true
			continue
		}

		e.Pipeline = created
		e.State = stateVisible
	}

	r.waitToRegister, r.retryQueue = r.retryQueue, r.waitToRegister
	return !anyFailure
}

func (r *Registry) createPipeline(device *rhi.Device, e *Entry) (*rhi.Pipeline, error) {
	stages := make(map[rhi.ShaderStage]*wgpu.ShaderModule, e.Desc.StageCount)
	bindGroups := make(map[int]wgpu.BindGroupLayoutDescriptor)

	for i := 0; i < e.Desc.StageCount; i++ {
		ref := e.Desc.Stages[i]
		artifact, ok := r.provider.Artifact(ResourceHandle(ref.Path))
		if !ok {
			return nil, rendererr.New(rendererr.KindShaderNotReady, fmt.Sprintf("shader artifact for %q not ready", ref.Path))
		}

		module, err := device.CreateShaderModule(ref.Path, artifact.Bytecode)
		if err != nil {
			return nil, err
		}
		stages[ref.Stage] = module

		mergeReflectionIntoBindGroups(bindGroups, artifact.Reflection, ref.Stage)
	}

	switch e.Desc.Kind {
	case rhi.PipelineKindRaster:
		vertexLayouts := []wgpu.VertexBufferLayout{buildVertexBufferLayout(e.Desc.VertexLayout)}
		return device.CreateRasterPipeline(e.Handle, e.Desc, stages, bindGroups, vertexLayouts, r.colorFormat)
	case rhi.PipelineKindCompute:
		return device.CreateComputePipeline(e.Handle, e.Desc, stages[rhi.ShaderStageCompute], bindGroups)
	default:
		return nil, rendererr.New(rendererr.KindResourceCreate, "unknown pipeline kind")
	}
}

// mergeReflectionIntoBindGroups folds one stage's bindings into the running
// per-group layout descriptor set, OR-ing visibility when a binding already
// exists in another stage's group — the same merge rule
// wgpu_renderer_backend.go's mergeBindGroupLayouts applies to vertex and
// fragment shader layouts.
func mergeReflectionIntoBindGroups(out map[int]wgpu.BindGroupLayoutDescriptor, refl Reflection, stage rhi.ShaderStage) {
	visibility := translateStageVisibility(stage)

	byGroup := make(map[int][]wgpu.BindGroupLayoutEntry)
	for existingGroup, desc := range out {
		byGroup[existingGroup] = append(byGroup[existingGroup], desc.Entries...)
	}

	for _, b := range refl.Bindings {
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    uint32(b.Binding),
			Visibility: visibility,
		}
		switch b.Type {
		case BindingUniformBuffer, BindingUniformBufferDynamic:
			entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}
		case BindingStorageBuffer, BindingStorageBufferDynamic:
			entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}
		case BindingSampledImage, BindingCombinedImageSampler:
			entry.Texture = wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat}
		case BindingSampler:
			entry.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
		case BindingStorageImage:
			entry.StorageTexture = wgpu.StorageTextureBindingLayout{Access: wgpu.StorageTextureAccessWriteOnly}
		}

		merged := false
		for gi, existing := range byGroup[b.Set] {
			if existing.Binding == entry.Binding {
				byGroup[b.Set][gi].Visibility |= visibility
				merged = true
				break
			}
		}
		if !merged {
			byGroup[b.Set] = append(byGroup[b.Set], entry)
		}
	}

	for group, entries := range byGroup {
		out[group] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
}

func translateStageVisibility(stage rhi.ShaderStage) wgpu.ShaderStage {
	switch stage {
	case rhi.ShaderStageVertex:
		return wgpu.ShaderStageVertex
	case rhi.ShaderStageFragment:
		return wgpu.ShaderStageFragment
	default:
		return wgpu.ShaderStageCompute
	}
}

func buildVertexBufferLayout(layout rhi.VertexLayout) wgpu.VertexBufferLayout {
	attrs := make([]wgpu.VertexAttribute, 0, layout.AttrCount)
	for i := 0; i < layout.AttrCount; i++ {
		a := layout.Attrs[i]
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         a.Format,
			Offset:         a.Offset,
			ShaderLocation: a.ShaderLocation,
		})
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: layout.StrideBytes,
		StepMode:    layout.StepMode,
		Attributes:  attrs,
	}
}

// DestroyAll destroys every visible entry's pipeline-state and clears the
// pointer, keeping entry metadata so shader unload can proceed in Shutdown.
func (r *Registry) DestroyAll(device *rhi.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.State != stateVisible {
			continue
		}
		device.DestroyPipeline(e.Pipeline)
		e.Pipeline = nil
		e.State = stateDestroyed
	}
}

// Shutdown requires DestroyAll to have already been called; it unloads all
// shader references and asserts no remaining visible entries.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.State == stateVisible {
			panic("pipereg: Shutdown called with a visible entry still present — call DestroyAll first")
		}
		for i := 0; i < e.Desc.StageCount; i++ {
			_ = r.provider.UnloadResource(ResourceHandle(e.Desc.Stages[i].Path), r.requesterID)
		}
	}
}

// IsPipelineReady reports whether handle's entry state is visible.
func (r *Registry) IsPipelineReady(handle rhi.PipelineHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.handleIndex[handle]
	return ok && e.State == stateVisible
}

// GetPipeline returns the realized pipeline for handle. An unknown or
// not-yet-visible handle returns (nil, false) rather than crashing.
func (r *Registry) GetPipeline(handle rhi.PipelineHandle) (*rhi.Pipeline, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.handleIndex[handle]
	if !ok || e.State != stateVisible {
		return nil, false
	}
	return e.Pipeline, true
}

// Len reports the number of registered entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
