package rendergraph

import (
	"log"

	"github.com/oxy-engine/rendercore/rendererr"
	"github.com/oxy-engine/rendercore/rhi"
)

// Compile resolves every declared RGResource against the transient/named
// cache (creating on a pooled/named miss) and validates every node's
// declared accesses and registered pipeline. A resource-creation failure or
// an out-of-range resource reference does not abort compilation: a failed
// resource is marked invalid, and any node that references an invalid or
// out-of-range resource is marked skipped, so its executor does not run
// during Execute.
func (g *Graph) Compile(device *rhi.Device) error {
	g.compiled = make([]CompiledRGResource, len(g.resources))

	for i, res := range g.resources {
		g.compiled[i] = g.compileResource(device, res)
	}

	for _, n := range g.nodes {
		g.validateNode(n)
	}

	return nil
}

func (g *Graph) compileResource(device *rhi.Device, res RGResource) CompiledRGResource {
	switch res.Kind {
	case RGResourceTransient:
		return g.compileTransient(device, res)
	case RGResourceNamed:
		return g.compileNamed(device, res)
	default:
		return g.compileImported(res)
	}
}

func (g *Graph) compileTransient(device *rhi.Device, res RGResource) CompiledRGResource {
	out := CompiledRGResource{Kind: RGResourceTransient, DescKind: res.DescKind}

	switch res.DescKind {
	case rgDescBuffer:
		out.BufferDesc = res.BufferDesc
		b := g.cache.fetchBuffer(res.BufferDesc)
		if b == nil {
			created, err := device.CreateBuffer("transient", res.BufferDesc)
			if err != nil {
				log.Printf("rendergraph: transient buffer creation failed: %v", err)
				return out
			}
			b = created
		}
		out.Buffer = b
		out.Access = rhi.AccessUndefined
		out.Valid = true
	case rgDescTexture:
		out.TextureDesc = res.TextureDesc
		t := g.cache.fetchTexture(res.TextureDesc)
		if t == nil {
			created, err := device.CreateTexture("transient", res.TextureDesc)
			if err != nil {
				log.Printf("rendergraph: transient texture creation failed: %v", err)
				return out
			}
			t = created
		}
		out.Texture = t
		out.Access = rhi.AccessUndefined
		out.Valid = true
	}

	return out
}

func (g *Graph) compileNamed(device *rhi.Device, res RGResource) CompiledRGResource {
	out := CompiledRGResource{Kind: RGResourceNamed, DescKind: res.DescKind, Name: res.Name}

	switch res.DescKind {
	case rgDescBuffer:
		out.BufferDesc = res.BufferDesc
		if _, err := g.cache.updateDirtyNamedBuffer(device, res.Name, res.BufferDesc); err != nil {
			log.Printf("rendergraph: named buffer %q update failed: %v", res.Name, err)
			return out
		}
		b, access, err := g.cache.getOrCreateNamedBuffer(device, res.Name, res.BufferDesc)
		if err != nil {
			log.Printf("rendergraph: named buffer %q creation failed: %v", res.Name, err)
			return out
		}
		out.Buffer = b
		out.Access = access
		out.Valid = true
	case rgDescTexture:
		out.TextureDesc = res.TextureDesc
		if _, err := g.cache.updateDirtyNamedTexture(device, res.Name, res.TextureDesc); err != nil {
			log.Printf("rendergraph: named texture %q update failed: %v", res.Name, err)
			return out
		}
		t, access, err := g.cache.getOrCreateNamedTexture(device, res.Name, res.TextureDesc)
		if err != nil {
			log.Printf("rendergraph: named texture %q creation failed: %v", res.Name, err)
			return out
		}
		out.Texture = t
		out.Access = access
		out.Valid = true
	}

	return out
}

func (g *Graph) compileImported(res RGResource) CompiledRGResource {
	out := CompiledRGResource{Kind: RGResourceImported, DescKind: res.DescKind, Access: res.ImportedAccess}
	switch res.DescKind {
	case rgDescBuffer:
		out.Buffer = res.ImportedBuffer
		out.Valid = res.ImportedBuffer != nil
	case rgDescTexture:
		out.Texture = res.ImportedTexture
		out.Valid = res.ImportedTexture != nil
	}
	return out
}

// validateNode checks that every declared-access handle is in range and
// compiled successfully, and registers/validates the node's pipeline, if
// any. An unknown resource reference, a resource that failed to compile, or
// a pipeline that is not visible marks the node skipped; its valid
// resources still transition and retire during Execute.
func (g *Graph) validateNode(n *RGNode) {
	for _, a := range n.Accesses {
		if int(a.Handle) < 0 || int(a.Handle) >= len(g.compiled) {
			log.Printf("rendergraph: node %q references unknown resource handle %d", n.Name, a.Handle)
			n.skipped = true
			n.skipReason = rendererr.New(rendererr.KindUnknownResource, "node references a resource outside the graph")
			return
		}
		if !g.compiled[a.Handle].Valid {
			log.Printf("rendergraph: node %q references resource handle %d, which failed to compile", n.Name, a.Handle)
			n.skipped = true
			n.skipReason = rendererr.New(rendererr.KindResourceCreate, "node references a resource that failed to compile")
			return
		}
	}

	if !n.hasPipeline {
		return
	}

	n.pipelineHandle = g.registry.RegisterRaster(n.Pipeline)
	if !g.registry.IsPipelineReady(n.pipelineHandle) {
		n.skipped = true
		n.skipReason = rendererr.New(rendererr.KindPipelineNotVisible, "node's registered pipeline is not yet visible")
	}
}
