package rendergraph

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/oxy-engine/rendercore/rendererr"
	"github.com/oxy-engine/rendercore/rhi"
)

// BoundPipeline is returned by ExecContext.BindPipeline; Bind attaches a
// prebuilt bind group at the given descriptor-set index.
type BoundPipeline struct {
	pass *wgpu.RenderPassEncoder
}

// Bind attaches bindGroup at descriptorSetIndex on the currently bound
// pipeline.
func (bp *BoundPipeline) Bind(descriptorSetIndex uint32, bindGroup *wgpu.BindGroup) {
	bp.pass.SetBindGroup(descriptorSetIndex, bindGroup, nil)
}

// ExecContext is handed to a node's execute closure during Graph.Execute. It
// exposes compiled-resource accessors and the RHI draw surface for the
// render pass currently open, if any. The command encoder backing the
// whole frame's recording is allocated and owned by Execute; a node only
// ever touches it indirectly through BeginRenderPass and the draw-call
// methods below.
type ExecContext struct {
	graph   *Graph
	device  *rhi.Device
	node    *RGNode
	encoder *wgpu.CommandEncoder

	pass       *wgpu.RenderPassEncoder
	renderPass *rhi.RenderPass
}

// Buffer returns the compiled buffer for handle, or nil if it is out of
// range or failed to compile.
func (c *ExecContext) Buffer(handle RGHandle) *rhi.Buffer {
	cr := c.compiled(handle)
	if cr == nil || !cr.Valid {
		return nil
	}
	return cr.Buffer
}

// Texture returns the compiled texture for handle, or nil if it is out of
// range or failed to compile.
func (c *ExecContext) Texture(handle RGHandle) *rhi.Texture {
	cr := c.compiled(handle)
	if cr == nil || !cr.Valid {
		return nil
	}
	return cr.Texture
}

func (c *ExecContext) compiled(handle RGHandle) *CompiledRGResource {
	if int(handle) < 0 || int(handle) >= len(c.graph.compiled) {
		return nil
	}
	return &c.graph.compiled[handle]
}

// viewResourceID keys a FramebufferKey slot by a render-target view's own
// pointer identity. WebGPU texture views carry no ResourceID of their own,
// but the framebuffer cache only needs a stable, comparable identity per
// view — the pointer itself already provides that.
func viewResourceID(v *wgpu.TextureView) rhi.ResourceID {
	return rhi.ResourceID(uintptr(unsafe.Pointer(v)))
}

// BeginRenderPass opens a render pass over rtViews (color views, then the
// depth/stencil view last if renderPass declares one), fetching or creating
// the backing Framebuf through renderPass's FramebufferCache keyed by those
// views and extent. The pass is recorded into the command encoder Execute
// allocated for this frame.
func (c *ExecContext) BeginRenderPass(renderPass *rhi.RenderPass, extent rhi.Extent3D, rtViews []*wgpu.TextureView) error {
	if c.encoder == nil {
		return rendererr.New(rendererr.KindSubmission, "begin_render_pass: no command encoder open for this frame")
	}

	desc := renderPass.Desc
	colorCount := desc.ColorAttachmentCount
	if len(rtViews) < colorCount {
		return rendererr.New(rendererr.KindResourceCreate, "begin_render_pass: fewer render-target views than declared color attachments")
	}

	var key rhi.FramebufferKey
	key.Extent = extent
	for i := 0; i < colorCount; i++ {
		key.Views[i] = viewResourceID(rtViews[i])
	}
	key.ViewCount = colorCount

	if desc.HasDepthStencil {
		if len(rtViews) <= colorCount {
			return rendererr.New(rendererr.KindResourceCreate, "begin_render_pass: render pass declares a depth/stencil attachment but no view was provided")
		}
		key.Views[colorCount] = viewResourceID(rtViews[colorCount])
		key.ViewCount++
	}

	if _, err := renderPass.Framebuffer().GetOrCreate(c.device, key); err != nil {
		return rendererr.Wrap(rendererr.KindResourceCreate, "begin_render_pass: framebuffer lookup failed", err)
	}

	colorAttachments := make([]wgpu.RenderPassColorAttachment, colorCount)
	for i := 0; i < colorCount; i++ {
		ca := desc.ColorAttachments[i]
		colorAttachments[i] = wgpu.RenderPassColorAttachment{
			View:       rtViews[i],
			LoadOp:     translateLoadOp(ca.LoadOp),
			StoreOp:    translateStoreOp(ca.StoreOp),
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}
	}

	var depthStencilAttachment *wgpu.RenderPassDepthStencilAttachment
	if desc.HasDepthStencil {
		depthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:              rtViews[colorCount],
			DepthLoadOp:       translateLoadOp(desc.DepthStencil.DepthLoadOp),
			DepthStoreOp:      translateStoreOp(desc.DepthStencil.DepthStoreOp),
			DepthClearValue:   1.0,
			StencilLoadOp:     translateLoadOp(desc.DepthStencil.StencilLoadOp),
			StencilStoreOp:    translateStoreOp(desc.DepthStencil.StencilStoreOp),
			StencilClearValue: 0,
		}
	}

	pass := c.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments:       colorAttachments,
		DepthStencilAttachment: depthStencilAttachment,
	})

	c.renderPass = renderPass
	c.pass = pass
	return nil
}

func translateLoadOp(op rhi.LoadOp) wgpu.LoadOp {
	switch op {
	case rhi.LoadOpClear:
		return wgpu.LoadOpClear
	case rhi.LoadOpDontCare:
		return wgpu.LoadOpLoad
	default:
		return wgpu.LoadOpLoad
	}
}

func translateStoreOp(op rhi.StoreOp) wgpu.StoreOp {
	if op == rhi.StoreOpDontCare {
		return wgpu.StoreOpDiscard
	}
	return wgpu.StoreOpStore
}

// EndRenderPass closes the currently open render pass.
func (c *ExecContext) EndRenderPass() {
	if c.pass != nil {
		c.pass.End()
		c.pass = nil
	}
	c.renderPass = nil
}

// SetViewport sets the viewport of the currently open render pass.
func (c *ExecContext) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	c.pass.SetViewport(x, y, width, height, minDepth, maxDepth)
}

// SetScissor sets the scissor rect of the currently open render pass.
func (c *ExecContext) SetScissor(x, y, width, height uint32) {
	c.pass.SetScissorRect(x, y, width, height)
}

// BindVertexBuffer binds b at the given vertex-buffer slot.
func (c *ExecContext) BindVertexBuffer(slot uint32, b *rhi.Buffer) {
	c.pass.SetVertexBuffer(slot, b.Native(), 0, wgpu.WholeSize)
}

// BindIndexBuffer binds b as the index buffer in the given format.
func (c *ExecContext) BindIndexBuffer(b *rhi.Buffer, format wgpu.IndexFormat) {
	c.pass.SetIndexBuffer(b.Native(), format, 0, wgpu.WholeSize)
}

// DrawIndexed records an indexed draw call.
func (c *ExecContext) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32) {
	c.pass.DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, 0)
}

// BindPipeline binds p (its raster pipeline, if it has one) on the open
// render pass and returns a handle for attaching descriptor sets. Callers must only invoke this after confirming
// the node was not skipped (Graph.Execute never invokes the executor for a
// skipped node).
func (c *ExecContext) BindPipeline(p *rhi.Pipeline) *BoundPipeline {
	if raster := p.Raster(); raster != nil {
		c.pass.SetPipeline(raster)
	}
	return &BoundPipeline{pass: c.pass}
}
