package rendergraph

import "github.com/oxy-engine/rendercore/rhi"

// RGResourceKind distinguishes how an RGResource's lifetime is managed.
type RGResourceKind uint8

const (
	RGResourceTransient RGResourceKind = iota
	RGResourceNamed
	RGResourceImported
)

// rgDescKind tags whether an RGResource wraps a buffer or a texture
// descriptor; both are carried on RGResource as value fields rather than
// behind an interface so the graph's builder stays allocation-light.
type rgDescKind uint8

const (
	rgDescBuffer rgDescKind = iota
	rgDescTexture
)

// RGHandle is a dense index into a Graph's resource array, handed back to
// the builder by CreateTemporaryResource/GetOrCreateNamedResource/
// ImportBuffer/ImportTexture and referenced by node accesses.
type RGHandle int

// RGResource is a render-graph-local resource declaration: transient,
// named (persisted across frames under a stable string), or imported (owned
// externally, visible for one frame).
type RGResource struct {
	Kind     RGResourceKind
	DescKind rgDescKind

	BufferDesc  rhi.BufferDesc
	TextureDesc rhi.TextureDesc

	Name string // set iff Kind == RGResourceNamed

	ImportedBuffer  *rhi.Buffer  // set iff Kind == RGResourceImported && DescKind == rgDescBuffer
	ImportedTexture *rhi.Texture // set iff Kind == RGResourceImported && DescKind == rgDescTexture
	ImportedAccess  rhi.AccessState
}

// CompiledRGResource is an RGResource resolved to a live RHI handle plus its
// current AccessState and retirement kind, produced by Graph.Compile.
type CompiledRGResource struct {
	Kind     RGResourceKind
	DescKind rgDescKind

	Buffer  *rhi.Buffer
	Texture *rhi.Texture
	Access  rhi.AccessState

	Name        string
	BufferDesc  rhi.BufferDesc
	TextureDesc rhi.TextureDesc

	// Valid is false when resource creation failed during compile; nodes
	// that declared access to an invalid resource become no-ops.
	Valid bool
}

func (c *CompiledRGResource) resourceID() rhi.ResourceID {
	switch c.DescKind {
	case rgDescBuffer:
		if c.Buffer == nil {
			return 0
		}
		return c.Buffer.ID
	default:
		if c.Texture == nil {
			return 0
		}
		return c.Texture.ID
	}
}
