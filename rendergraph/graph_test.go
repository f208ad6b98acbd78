package rendergraph

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/oxy-engine/rendercore/pipereg"
	"github.com/oxy-engine/rendercore/rhi"
)

// stubProvider never completes a load; it is only here to satisfy
// pipereg.Registry's constructor for tests that register a pipeline and
// check IsPipelineReady before any Update/UpdatePipelines call runs.
type stubProvider struct{}

func (stubProvider) LoadResource(pipereg.ResourceHandle, uint64) error   { return nil }
func (stubProvider) UnloadResource(pipereg.ResourceHandle, uint64) error { return nil }
func (stubProvider) IsBusy(pipereg.ResourceHandle) bool                  { return true }
func (stubProvider) Artifact(pipereg.ResourceHandle) (pipereg.ShaderArtifact, bool) {
	return pipereg.ShaderArtifact{}, false
}
func (stubProvider) Update()                              {}
func (stubProvider) Reload() <-chan pipereg.ResourceHandle { return nil }

func newTestGraph() *Graph {
	reg := pipereg.New(stubProvider{}, 1, wgpu.TextureFormatBGRA8Unorm)
	return New(reg)
}

// TestImportedBufferGetsExactlyOneBarrierOnStateChange: a node declaring a
// write at a different AccessState than an imported buffer's initial state
// flips the buffer's own tracked state; a second node that declares the same
// target state again must not emit a second barrier.
func TestImportedBufferGetsExactlyOneBarrierOnStateChange(t *testing.T) {
	var logged bytes.Buffer
	log.SetOutput(&logged)
	defer log.SetOutput(os.Stderr)

	g := newTestGraph()
	b := &rhi.Buffer{ID: 1, Desc: bufDesc(64)}
	b.SetAccessState(rhi.AccessColorAttachmentReadWrite)

	h := g.ImportBuffer(b, rhi.AccessColorAttachmentReadWrite)
	g.AddNode("read-as-uniform").RasterRead(h, rhi.AccessFragmentShaderReadUniformBuffer)
	g.AddNode("read-as-uniform-again").RasterRead(h, rhi.AccessFragmentShaderReadUniformBuffer)

	if err := g.Compile(nil); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := g.Execute(nil, nil, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if b.AccessState() != rhi.AccessFragmentShaderReadUniformBuffer {
		t.Fatalf("expected buffer's access state to be updated by the barrier, got %v", b.AccessState())
	}
	if n := strings.Count(logged.String(), "barrier on resource"); n != 1 {
		t.Fatalf("got %d barriers, want exactly 1", n)
	}
}

// TestNoBarrierEmittedWhenStateUnchanged: declaring the same AccessState the
// resource is already in does not alter anything and does not panic even
// though no real device is supplied.
func TestNoBarrierEmittedWhenStateUnchanged(t *testing.T) {
	g := newTestGraph()
	b := &rhi.Buffer{ID: 1, Desc: bufDesc(64)}
	b.SetAccessState(rhi.AccessVertexBuffer)

	h := g.ImportBuffer(b, rhi.AccessVertexBuffer)
	g.AddNode("vbuf").RasterRead(h, rhi.AccessVertexBuffer)

	if err := g.Compile(nil); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := g.Execute(nil, nil, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if b.AccessState() != rhi.AccessVertexBuffer {
		t.Fatalf("state should be unchanged, got %v", b.AccessState())
	}
}

// TestNodeWithUnknownResourceIsSkippedNotFatal: a node referencing a handle
// outside the graph's resource array is marked skipped during Compile, and
// Execute completes without invoking its executor or returning an error.
func TestNodeWithUnknownResourceIsSkippedNotFatal(t *testing.T) {
	g := newTestGraph()
	invoked := false
	g.AddNode("dangling").RasterRead(RGHandle(99), rhi.AccessVertexBuffer).Execute(func(ctx *ExecContext) {
		invoked = true
	})

	if err := g.Compile(nil); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := g.Execute(nil, nil, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if invoked {
		t.Fatalf("executor for a node with an unknown resource reference must not run")
	}
}

// TestNodeWithPipelineNotYetVisibleIsSkipped: a node registering a raster
// pipeline that has not progressed past registration is skipped for draws,
// matching a frame rendered before the shader finished loading.
func TestNodeWithPipelineNotYetVisibleIsSkipped(t *testing.T) {
	g := newTestGraph()
	invoked := false
	g.AddNode("unready").
		RegisterRasterPipeline(rhi.PipelineDesc{
			Stages: [rhi.MaxShaderStages]rhi.ShaderStageRef{
				{Stage: rhi.ShaderStageVertex, Path: "v.wgsl"},
				{Stage: rhi.ShaderStageFragment, Path: "f.wgsl"},
			},
			StageCount: 2,
		}).
		Execute(func(ctx *ExecContext) { invoked = true })

	if err := g.Compile(nil); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := g.Execute(nil, nil, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if invoked {
		t.Fatalf("executor must not run for a node whose pipeline is not visible")
	}
}

// TestTransientResourceReturnsToPoolAfterExecute: a transient buffer fetched
// during Compile from a pool seeded with one buffer is handed back to the
// same cache during
// Execute's retirement step, so the next graph built against the same cache
// would reuse it.
func TestTransientResourceReturnsToPoolAfterExecute(t *testing.T) {
	g := newTestGraph()
	desc := bufDesc(64)
	seeded := &rhi.Buffer{ID: 5, Desc: desc}
	g.cache.restoreBuffer(desc, seeded)

	h := g.CreateTemporaryResource(desc)
	g.AddNode("use-scratch").RasterWrite(h, rhi.AccessVertexBuffer)

	if err := g.Compile(nil); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := g.Execute(nil, nil, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got := g.cache.fetchBuffer(desc)
	if got != seeded {
		t.Fatalf("expected the transient buffer to be returned to the pool after execute")
	}
}

// TestResourceCountAndNodeCountTrackDeclarations is a minimal builder-surface
// sanity check.
func TestResourceCountAndNodeCountTrackDeclarations(t *testing.T) {
	g := newTestGraph()
	g.CreateTemporaryResource(bufDesc(1))
	g.CreateTemporaryResource(bufDesc(2))
	g.AddNode("a")

	if g.ResourceCount() != 2 {
		t.Fatalf("ResourceCount() = %d, want 2", g.ResourceCount())
	}
	if g.NodeCount() != 1 {
		t.Fatalf("NodeCount() = %d, want 1", g.NodeCount())
	}
}
