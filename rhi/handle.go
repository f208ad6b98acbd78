// Package rhi implements the Render Hardware Interface: the device, queue,
// command-buffer, resource, and cache abstractions that sit beneath the
// render graph. The concrete backend is github.com/cogentcore/webgpu.
package rhi

import "fmt"

// ResourceID is an opaque handle to a GPU-resident resource. The zero value
// is never valid; resource-creation failures are reported as a typed error
// rather than by returning a zero ID alone (see rendererr).
type ResourceID uint64

// Valid reports whether id is non-zero.
func (id ResourceID) Valid() bool {
	return id != 0
}

// PipelineKind distinguishes the two pipeline families the registry tracks.
type PipelineKind uint8

const (
	PipelineKindRaster PipelineKind = iota
	PipelineKindCompute
)

func (k PipelineKind) String() string {
	switch k {
	case PipelineKindRaster:
		return "raster"
	case PipelineKindCompute:
		return "compute"
	default:
		return fmt.Sprintf("PipelineKind(%d)", uint8(k))
	}
}

// PipelineHandle identifies a PipelineEntry in the registry. The zero id is
// invalid regardless of kind.
type PipelineHandle struct {
	Kind PipelineKind
	ID   uint32
}

// Valid reports whether h was allocated by the registry (non-zero id).
func (h PipelineHandle) Valid() bool {
	return h.ID != 0
}

var invalidPipelineHandle = PipelineHandle{}

// InvalidPipelineHandle returns the zero handle, useful as a sentinel return
// value on registration failure.
func InvalidPipelineHandle() PipelineHandle {
	return invalidPipelineHandle
}
