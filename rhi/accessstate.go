package rhi

// AccessState names a combined (pipeline-stage, visibility) barrier class. A
// resource carries exactly one AccessState at a time; comparing the current
// state against a node's declared state is what drives barrier insertion in
// rendergraph.Execute.
type AccessState uint8

const (
	AccessUndefined AccessState = iota
	AccessVertexBuffer
	AccessIndexBuffer
	AccessVertexShaderReadUniformBuffer
	AccessFragmentShaderReadUniformBuffer
	AccessComputeShaderReadUniformBuffer
	AccessComputeShaderReadWriteStorage
	AccessColorAttachmentReadWrite
	AccessDepthStencilAttachmentReadWrite
	AccessDepthStencilAttachmentRead
	AccessShaderReadOnlyOptimal
	AccessTransferSrc
	AccessTransferDst
	AccessPresent
	AccessIndirectCommandRead
)

func (a AccessState) String() string {
	switch a {
	case AccessUndefined:
		return "Undefined"
	case AccessVertexBuffer:
		return "VertexBuffer"
	case AccessIndexBuffer:
		return "IndexBuffer"
	case AccessVertexShaderReadUniformBuffer:
		return "VertexShaderReadUniformBuffer"
	case AccessFragmentShaderReadUniformBuffer:
		return "FragmentShaderReadUniformBuffer"
	case AccessComputeShaderReadUniformBuffer:
		return "ComputeShaderReadUniformBuffer"
	case AccessComputeShaderReadWriteStorage:
		return "ComputeShaderReadWriteStorage"
	case AccessColorAttachmentReadWrite:
		return "ColorAttachmentReadWrite"
	case AccessDepthStencilAttachmentReadWrite:
		return "DepthStencilAttachmentReadWrite"
	case AccessDepthStencilAttachmentRead:
		return "DepthStencilAttachmentRead"
	case AccessShaderReadOnlyOptimal:
		return "ShaderReadOnlyOptimal"
	case AccessTransferSrc:
		return "TransferSrc"
	case AccessTransferDst:
		return "TransferDst"
	case AccessPresent:
		return "Present"
	case AccessIndirectCommandRead:
		return "IndirectCommandRead"
	default:
		return "AccessState(unknown)"
	}
}

// ResourceKind distinguishes the two resource families a Barrier or
// Transition may apply to.
type ResourceKind uint8

const (
	ResourceKindBuffer ResourceKind = iota
	ResourceKindTexture
)

// Barrier is a buffer memory barrier: a synchronization point with no
// format/layout change, just a visibility transition.
type Barrier struct {
	Resource ResourceID
	From     AccessState
	To       AccessState
}

// Transition is an image layout transition for a texture, expressed as a
// change of logical AccessState.
type Transition struct {
	Resource ResourceID
	From     AccessState
	To       AccessState
}

// NeedsBarrier reports whether moving a resource from `from` to `to` requires
// emitting a synchronization command. Identical states never need one;
// Undefined->Undefined is likewise a no-op.
func NeedsBarrier(from, to AccessState) bool {
	return from != to
}
