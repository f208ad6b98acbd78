package rhi

import (
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
)

// refCounted is embedded by every GPU-resident handle type. Lifetime is the
// longest holder: Retain/Release just track how many callers still consider
// the handle live. The render core never decides destruction timing from the
// count directly — destruction is always routed through DeferRelease; the
// count exists so a handle can be duplicated across goroutines cheaply
// without copying GPU memory, per the data model's "shared ownership" rule.
type refCounted struct {
	count int32
}

// Retain increments the reference count and returns the new value.
func (r *refCounted) Retain() int32 {
	return atomic.AddInt32(&r.count, 1)
}

// Release decrements the reference count and returns the new value.
func (r *refCounted) Release() int32 {
	return atomic.AddInt32(&r.count, -1)
}

// RefCount reads the current reference count.
func (r *refCounted) RefCount() int32 {
	return atomic.LoadInt32(&r.count)
}

// Buffer is a reference-counted GPU buffer handle.
type Buffer struct {
	refCounted
	ID     ResourceID
	Desc   BufferDesc
	native *wgpu.Buffer
	access AccessState
}

// Native returns the backend-specific handle for use by rendergraph's
// execution context when recording commands.
func (b *Buffer) Native() *wgpu.Buffer { return b.native }

// AccessState returns the buffer's current logical access state.
func (b *Buffer) AccessState() AccessState { return b.access }

// SetAccessState is called by rendergraph execution after emitting a barrier.
func (b *Buffer) SetAccessState(s AccessState) { b.access = s }

// Texture is a reference-counted GPU texture handle.
type Texture struct {
	refCounted
	ID     ResourceID
	Desc   TextureDesc
	native *wgpu.Texture
	view   *wgpu.TextureView
	access AccessState
}

func (t *Texture) Native() *wgpu.Texture     { return t.native }
func (t *Texture) View() *wgpu.TextureView   { return t.view }
func (t *Texture) AccessState() AccessState  { return t.access }
func (t *Texture) SetAccessState(s AccessState) { t.access = s }

// RenderPass is a reference-counted render-pass description paired with its
// owned FramebufferCache.
type RenderPass struct {
	refCounted
	ID       ResourceID
	Desc     RenderPassDesc
	fbCache  *FramebufferCache
}

// Framebuffer returns the render pass's owned framebuffer cache.
func (rp *RenderPass) Framebuffer() *FramebufferCache { return rp.fbCache }

// Framebuf is a reference-counted binding of concrete attachment views to a
// render pass for a given extent.
type Framebuf struct {
	refCounted
	ID     ResourceID
	Key    FramebufferKey
	Views  []*wgpu.TextureView
}

// Pipeline is a reference-counted realized pipeline-state object. It only
// exists once a PipelineEntry reaches the "visible" state; native holds
// either a *wgpu.RenderPipeline or a *wgpu.ComputePipeline depending on Kind.
type Pipeline struct {
	refCounted
	ID     ResourceID
	Handle PipelineHandle
	Desc   PipelineDesc
	native any
}

// Raster returns the realized render pipeline, or nil if this is a compute
// pipeline.
func (p *Pipeline) Raster() *wgpu.RenderPipeline {
	rp, _ := p.native.(*wgpu.RenderPipeline)
	return rp
}

// Compute returns the realized compute pipeline, or nil if this is a raster
// pipeline.
func (p *Pipeline) Compute() *wgpu.ComputePipeline {
	cp, _ := p.native.(*wgpu.ComputePipeline)
	return cp
}

// Semaphore is a CPU-observable completion signal correlated with a queue
// submission. WebGPU synchronizes automatically inside a single queue, so
// Semaphore is a thin channel-based stand-in used only to satisfy the RHI's
// explicit wait/signal submit contract (and to hand immediate_* callers a
// signal that their submission has been made).
type Semaphore struct {
	refCounted
	ID     ResourceID
	done   chan struct{}
	signaled int32
}

// Signal marks the semaphore signaled. Safe to call more than once; only the
// first call closes the channel.
func (s *Semaphore) Signal() {
	if atomic.CompareAndSwapInt32(&s.signaled, 0, 1) {
		close(s.done)
	}
}

// Wait blocks until Signal has been called.
func (s *Semaphore) Wait() {
	<-s.done
}

// IsSignaled reports whether Signal has already been called.
func (s *Semaphore) IsSignaled() bool {
	return atomic.LoadInt32(&s.signaled) == 1
}
