package rendergraph

import "github.com/oxy-engine/rendercore/rhi"

// AccessKind says whether a node's declared access to a resource is a read
// or a write; it does not by itself determine the AccessState barrier
// target, which the node declares separately.
type AccessKind uint8

const (
	AccessKindRead AccessKind = iota
	AccessKindWrite
)

type resourceAccess struct {
	Handle RGHandle
	Kind   AccessKind
	State  rhi.AccessState
}

// ExecuteFunc is a node's recorded command body, invoked during Graph.Execute
// with a context exposing compiled-resource accessors and the RHI draw
// surface.
type ExecuteFunc func(ctx *ExecContext)

// RGNode is a declared pass: a human name, its ordered resource accesses, an
// optional raster pipeline descriptor to bind, and the execute closure
// invoked during execution. Methods return the node itself so callers chain
// raster_read/raster_write/register_raster_pipeline/execute calls in build
// order.
type RGNode struct {
	Name     string
	Accesses []resourceAccess

	hasPipeline    bool
	Pipeline       rhi.PipelineDesc
	pipelineHandle rhi.PipelineHandle

	skipped    bool
	skipReason error

	Executor ExecuteFunc
}

// RasterRead declares a read access to handle at the given AccessState.
func (n *RGNode) RasterRead(handle RGHandle, state rhi.AccessState) *RGNode {
	n.Accesses = append(n.Accesses, resourceAccess{Handle: handle, Kind: AccessKindRead, State: state})
	return n
}

// RasterWrite declares a write access to handle at the given AccessState.
func (n *RGNode) RasterWrite(handle RGHandle, state rhi.AccessState) *RGNode {
	n.Accesses = append(n.Accesses, resourceAccess{Handle: handle, Kind: AccessKindWrite, State: state})
	return n
}

// RegisterRasterPipeline attaches a raster pipeline descriptor the node
// binds during execution. The descriptor itself is registered with the
// pipeline registry at graph-compile time, not here.
func (n *RGNode) RegisterRasterPipeline(desc rhi.PipelineDesc) *RGNode {
	n.hasPipeline = true
	n.Pipeline = desc
	return n
}

// Execute stores fn as the node's recorded command body.
func (n *RGNode) Execute(fn ExecuteFunc) *RGNode {
	n.Executor = fn
	return n
}
