package rendergraph

import (
	"github.com/oxy-engine/rendercore/pipereg"
	"github.com/oxy-engine/rendercore/rhi"
)

// Graph is the single-threaded render-graph builder: it accumulates a dense
// array of RGResources and a dense array of RGNodes in registration order.
// Nothing is reordered; Compile/Execute walk both arrays in the order the
// game-driven passes and the UI pass registered them.
type Graph struct {
	resources []RGResource
	nodes     []*RGNode

	registry *pipereg.Registry
	cache    *transientCache

	compiled []CompiledRGResource
}

// New creates an empty Graph bound to registry (for pipeline visibility
// checks during Compile) and a fresh transient/named resource cache.
func New(registry *pipereg.Registry) *Graph {
	return &Graph{
		registry: registry,
		cache:    newTransientCache(),
	}
}

// CreateTemporaryResource declares a transient buffer, recycled through the
// pooled cache at frame end.
func (g *Graph) CreateTemporaryResource(desc rhi.BufferDesc) RGHandle {
	g.resources = append(g.resources, RGResource{Kind: RGResourceTransient, DescKind: rgDescBuffer, BufferDesc: desc})
	return RGHandle(len(g.resources) - 1)
}

// CreateTemporaryTexture declares a transient texture, recycled through the
// pooled cache at frame end.
func (g *Graph) CreateTemporaryTexture(desc rhi.TextureDesc) RGHandle {
	g.resources = append(g.resources, RGResource{Kind: RGResourceTransient, DescKind: rgDescTexture, TextureDesc: desc})
	return RGHandle(len(g.resources) - 1)
}

// GetOrCreateNamedResource declares a named, persisted-across-frames buffer.
func (g *Graph) GetOrCreateNamedResource(name string, desc rhi.BufferDesc) RGHandle {
	g.resources = append(g.resources, RGResource{Kind: RGResourceNamed, DescKind: rgDescBuffer, Name: name, BufferDesc: desc})
	return RGHandle(len(g.resources) - 1)
}

// GetOrCreateNamedTexture declares a named, persisted-across-frames texture.
func (g *Graph) GetOrCreateNamedTexture(name string, desc rhi.TextureDesc) RGHandle {
	g.resources = append(g.resources, RGResource{Kind: RGResourceNamed, DescKind: rgDescTexture, Name: name, TextureDesc: desc})
	return RGHandle(len(g.resources) - 1)
}

// ImportBuffer wraps an externally-owned buffer for this frame's graph.
func (g *Graph) ImportBuffer(b *rhi.Buffer, initial rhi.AccessState) RGHandle {
	g.resources = append(g.resources, RGResource{
		Kind: RGResourceImported, DescKind: rgDescBuffer,
		ImportedBuffer: b, ImportedAccess: initial,
	})
	return RGHandle(len(g.resources) - 1)
}

// ImportTexture wraps an externally-owned texture for this frame's graph.
func (g *Graph) ImportTexture(t *rhi.Texture, initial rhi.AccessState) RGHandle {
	g.resources = append(g.resources, RGResource{
		Kind: RGResourceImported, DescKind: rgDescTexture,
		ImportedTexture: t, ImportedAccess: initial,
	})
	return RGHandle(len(g.resources) - 1)
}

// AddNode declares a new pass and returns it for chaining raster_read/
// raster_write/register_raster_pipeline/execute calls.
func (g *Graph) AddNode(name string) *RGNode {
	n := &RGNode{Name: name}
	g.nodes = append(g.nodes, n)
	return n
}

// ResourceCount reports the number of declared resources (test hook).
func (g *Graph) ResourceCount() int { return len(g.resources) }

// NodeCount reports the number of declared nodes (test hook).
func (g *Graph) NodeCount() int { return len(g.nodes) }
