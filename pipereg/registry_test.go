package pipereg

import (
	"sync"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/oxy-engine/rendercore/rhi"
)

// fakeProvider is an in-memory Provider stand-in: LoadResource marks a
// handle busy, and tests flip it to ready by calling resolve directly,
// rather than spinning up the real worker-pool-backed implementation.
type fakeProvider struct {
	mu       sync.Mutex
	busy     map[ResourceHandle]bool
	artifact map[ResourceHandle]ShaderArtifact
	reload   chan ResourceHandle
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		busy:     make(map[ResourceHandle]bool),
		artifact: make(map[ResourceHandle]ShaderArtifact),
		reload:   make(chan ResourceHandle, 8),
	}
}

func (f *fakeProvider) LoadResource(handle ResourceHandle, requesterID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.artifact[handle]; ok {
		return nil
	}
	f.busy[handle] = true
	return nil
}

func (f *fakeProvider) UnloadResource(handle ResourceHandle, requesterID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.busy, handle)
	delete(f.artifact, handle)
	return nil
}

func (f *fakeProvider) IsBusy(handle ResourceHandle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy[handle]
}

func (f *fakeProvider) Artifact(handle ResourceHandle) (ShaderArtifact, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.artifact[handle]
	return a, ok
}

func (f *fakeProvider) Update() {}

func (f *fakeProvider) Reload() <-chan ResourceHandle { return f.reload }

// resolve finishes handle's load: clears busy, stores an artifact with no
// bindings (enough to drive the registry's shaders-loaded transition).
func (f *fakeProvider) resolve(handle ResourceHandle, stage rhi.ShaderStage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.busy, handle)
	f.artifact[handle] = ShaderArtifact{Handle: handle, Stage: stage, Bytecode: "// stub"}
}

func vertexFragmentDesc(vertexPath, fragmentPath string) rhi.PipelineDesc {
	return rhi.PipelineDesc{
		Stages: [rhi.MaxShaderStages]rhi.ShaderStageRef{
			{Stage: rhi.ShaderStageVertex, Path: vertexPath},
			{Stage: rhi.ShaderStageFragment, Path: fragmentPath},
		},
		StageCount: 2,
		RenderPass: rhi.RenderPassDesc{ColorAttachmentCount: 1},
	}
}

func TestRegisterRasterDedupesEqualDescriptors(t *testing.T) {
	provider := newFakeProvider()
	reg := New(provider, 1, wgpu.TextureFormatBGRA8Unorm)

	desc := vertexFragmentDesc("shaders/tri.vert.wgsl", "shaders/tri.frag.wgsl")
	h1 := reg.RegisterRaster(desc)
	h2 := reg.RegisterRaster(desc)

	if h1 != h2 {
		t.Fatalf("RegisterRaster returned distinct handles for equal descriptors: %v != %v", h1, h2)
	}
	if reg.Len() != 1 {
		t.Fatalf("registry has %d entries, want 1 after a duplicate registration", reg.Len())
	}
}

func TestRegisterRasterAndComputeAllocateIndependentHandleSpaces(t *testing.T) {
	provider := newFakeProvider()
	reg := New(provider, 1, wgpu.TextureFormatBGRA8Unorm)

	raster := reg.RegisterRaster(vertexFragmentDesc("a.vert.wgsl", "a.frag.wgsl"))
	compute := reg.RegisterCompute(rhi.PipelineDesc{
		Stages:     [rhi.MaxShaderStages]rhi.ShaderStageRef{{Stage: rhi.ShaderStageCompute, Path: "a.comp.wgsl"}},
		StageCount: 1,
	})

	if raster.Kind != rhi.PipelineKindRaster {
		t.Fatalf("raster handle has kind %v", raster.Kind)
	}
	if compute.Kind != rhi.PipelineKindCompute {
		t.Fatalf("compute handle has kind %v", compute.Kind)
	}
	if raster.ID != 1 || compute.ID != 1 {
		t.Fatalf("expected both handle spaces to start at id 1, got raster=%d compute=%d", raster.ID, compute.ID)
	}
}

// TestUpdateAdvancesThroughLoadStates walks an entry from registration to
// shaders-loaded without ever touching device pipeline creation, confirming
// Update's two internal drains (wait-to-submit, wait-to-load) behave.
func TestUpdateAdvancesThroughLoadStates(t *testing.T) {
	provider := newFakeProvider()
	reg := New(provider, 1, wgpu.TextureFormatBGRA8Unorm)

	desc := vertexFragmentDesc("v.wgsl", "f.wgsl")
	handle := reg.RegisterRaster(desc)

	reg.Update() // issues load requests, entry -> shaders-loading
	entry := reg.handleIndex[handle]
	if entry.State != stateShadersLoading {
		t.Fatalf("state after first Update is %v, want shaders-loading", entry.State)
	}

	reg.Update() // shaders still busy, no change expected
	if entry.State != stateShadersLoading {
		t.Fatalf("state advanced to %v while shaders still busy", entry.State)
	}

	provider.resolve("v.wgsl", rhi.ShaderStageVertex)
	provider.resolve("f.wgsl", rhi.ShaderStageFragment)

	reg.Update() // both stages ready -> shaders-loaded
	if entry.State != stateShadersLoaded {
		t.Fatalf("state after shaders resolve is %v, want shaders-loaded", entry.State)
	}
	if len(reg.waitToRegister) != 1 {
		t.Fatalf("wait-to-register has %d entries, want 1", len(reg.waitToRegister))
	}
}

func TestGetPipelineOnUnknownHandleReturnsFalse(t *testing.T) {
	provider := newFakeProvider()
	reg := New(provider, 1, wgpu.TextureFormatBGRA8Unorm)

	p, ok := reg.GetPipeline(rhi.PipelineHandle{Kind: rhi.PipelineKindRaster, ID: 999})
	if ok || p != nil {
		t.Fatalf("GetPipeline on an unknown handle returned (%v, %v), want (nil, false)", p, ok)
	}
}

func TestIsPipelineReadyFalseBeforeVisible(t *testing.T) {
	provider := newFakeProvider()
	reg := New(provider, 1, wgpu.TextureFormatBGRA8Unorm)

	handle := reg.RegisterRaster(vertexFragmentDesc("v.wgsl", "f.wgsl"))
	if reg.IsPipelineReady(handle) {
		t.Fatal("freshly registered pipeline reported ready")
	}
}

// TestUpdatePipelinesSwapsRetryIntoWaitToRegister simulates a single failed
// pipeline creation by handing UpdatePipelines an entry whose state claims
// shaders-loaded although the provider holds no artifact for either of its
// stages, so createPipeline cannot build it, and checks the entry survives
// into the next round's wait-to-register rather than being dropped.
func TestUpdatePipelinesSwapsRetryIntoWaitToRegister(t *testing.T) {
	provider := newFakeProvider()
	reg := New(provider, 1, wgpu.TextureFormatBGRA8Unorm)

	desc := vertexFragmentDesc("v.wgsl", "f.wgsl")
	handle := reg.RegisterRaster(desc)
	entry := reg.handleIndex[handle]
	entry.State = stateShadersLoaded
	reg.waitToRegister = append(reg.waitToRegister, entry)

	// No device is available in this test (constructing a real *rhi.Device
	// requires a live wgpu instance); createPipeline fails immediately
	// because the provider never produced an artifact for either stage.
	ok := reg.UpdatePipelines(nil)
	if ok {
		t.Fatal("UpdatePipelines reported success with no shader artifacts available")
	}
	if len(reg.waitToRegister) != 1 {
		t.Fatalf("failed entry did not carry over into the next wait-to-register, len=%d", len(reg.waitToRegister))
	}
	if entry.State != stateShadersLoaded {
		t.Fatalf("entry state changed to %v on failure, want unchanged shaders-loaded", entry.State)
	}
}

func TestShutdownPanicsIfVisibleEntryRemains(t *testing.T) {
	provider := newFakeProvider()
	reg := New(provider, 1, wgpu.TextureFormatBGRA8Unorm)

	handle := reg.RegisterRaster(vertexFragmentDesc("v.wgsl", "f.wgsl"))
	reg.handleIndex[handle].State = stateVisible

	defer func() {
		if recover() == nil {
			t.Fatal("expected Shutdown to panic with a visible entry outstanding")
		}
	}()
	reg.Shutdown()
}

func TestShutdownUnloadsShaderReferences(t *testing.T) {
	provider := newFakeProvider()
	reg := New(provider, 1, wgpu.TextureFormatBGRA8Unorm)

	handle := reg.RegisterRaster(vertexFragmentDesc("v.wgsl", "f.wgsl"))
	reg.handleIndex[handle].State = stateDestroyed
	provider.artifact["v.wgsl"] = ShaderArtifact{Handle: "v.wgsl"}
	provider.artifact["f.wgsl"] = ShaderArtifact{Handle: "f.wgsl"}

	reg.Shutdown()

	if _, ok := provider.Artifact("v.wgsl"); ok {
		t.Fatal("Shutdown did not unload the vertex shader reference")
	}
	if _, ok := provider.Artifact("f.wgsl"); ok {
		t.Fatal("Shutdown did not unload the fragment shader reference")
	}
}
