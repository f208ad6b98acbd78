package rendergraph

import (
	"log"

	"github.com/oxy-engine/rendercore/rendererr"
	"github.com/oxy-engine/rendercore/rhi"
)

// Execute walks the compiled graph in registration order, recording every
// node's commands into a single command buffer allocated from pool and
// submitting it to device.Graphics once recording is complete. For each
// node it first reconciles every declared access against the resource's
// tracked AccessState, emitting a barrier on any mismatch, then — unless
// the node was skipped during Compile (unknown resource or a pipeline not
// yet visible) — invokes its recorded command body. Barriers and
// retirement happen for a skipped node's resources regardless; only the
// draw commands are withheld. At the end of the walk every compiled
// resource is retired: named resources carry their final AccessState
// forward, transients return to the pool, imports write their final state
// back to the caller's handle.
//
// pool/owner may be nil, in which case no command buffer is recorded or
// submitted — nodes still run and barriers/retirement still happen, but any
// node that calls BeginRenderPass fails since there is no encoder open.
// Tests exercising only barrier/skip/retirement behavior use this mode.
func (g *Graph) Execute(device *rhi.Device, pool *rhi.CmdPool, owner *rhi.OwnerToken) error {
	var cmdBuf *rhi.CmdBuffer
	if pool != nil {
		allocated, err := pool.AllocateCommandBuffer(device, owner)
		if err != nil {
			return rendererr.Wrap(rendererr.KindResourceCreate, "render graph: allocate command buffer failed", err)
		}
		cmdBuf = allocated
	}

	for _, n := range g.nodes {
		g.reconcileAccesses(n)

		if n.skipped || n.Executor == nil {
			continue
		}

		ctx := &ExecContext{graph: g, device: device, node: n}
		if cmdBuf != nil {
			ctx.encoder = cmdBuf.Encoder()
		}
		n.Executor(ctx)
	}

	g.retire()

	if cmdBuf == nil {
		return nil
	}

	native, err := cmdBuf.Finish()
	if err != nil {
		return err
	}
	return device.Graphics.Submit(native, nil, nil, nil)
}

func (g *Graph) reconcileAccesses(n *RGNode) {
	for _, a := range n.Accesses {
		if int(a.Handle) < 0 || int(a.Handle) >= len(g.compiled) {
			continue
		}
		cr := &g.compiled[a.Handle]
		if !cr.Valid {
			continue
		}
		if !rhi.NeedsBarrier(cr.Access, a.State) {
			continue
		}

		log.Printf("rendergraph: node %q barrier on resource %d: %v -> %v", n.Name, cr.resourceID(), cr.Access, a.State)

		cr.Access = a.State
		switch cr.DescKind {
		case rgDescBuffer:
			if cr.Buffer != nil {
				cr.Buffer.SetAccessState(a.State)
			}
		case rgDescTexture:
			if cr.Texture != nil {
				cr.Texture.SetAccessState(a.State)
			}
		}
	}
}

// retire hands every compiled resource back to wherever it came from: named
// resources keep their AccessState for the next frame's compile, transients
// return to the pooled cache, imports have already had their AccessState
// written back onto the caller's *Buffer/*Texture by reconcileAccesses.
func (g *Graph) retire() {
	for i := range g.compiled {
		cr := &g.compiled[i]
		if !cr.Valid {
			continue
		}

		switch cr.Kind {
		case RGResourceNamed:
			switch cr.DescKind {
			case rgDescBuffer:
				g.cache.recordNamedBufferAccess(cr.Name, cr.Access)
			case rgDescTexture:
				g.cache.recordNamedTextureAccess(cr.Name, cr.Access)
			}
		case RGResourceTransient:
			switch cr.DescKind {
			case rgDescBuffer:
				g.cache.restoreBuffer(cr.BufferDesc, cr.Buffer)
			case rgDescTexture:
				g.cache.restoreTexture(cr.TextureDesc, cr.Texture)
			}
		}
	}

	g.resources = nil
	g.nodes = nil
	g.compiled = nil
}
