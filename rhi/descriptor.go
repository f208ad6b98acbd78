package rhi

import "github.com/cogentcore/webgpu/wgpu"

// BufferUsage is a bitmask of the roles a buffer may be used in.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageTransferSrc
	BufferUsageTransferDst
	BufferUsageIndirect
	BufferUsageShaderDeviceAddress
)

// MemoryPlacement says where a resource's backing memory lives and how the
// CPU may reach it.
type MemoryPlacement uint8

const (
	MemoryGPUOnly MemoryPlacement = iota
	MemoryCPUToGPU
	MemoryGPUToCPU
	MemoryCPUOnly
	MemoryCPUCopy
	MemoryGPULazy
)

// BufferDesc describes a buffer resource. It is a plain comparable struct so
// it can be used directly as a map key (descriptor equality is the cache key
// per the data model).
type BufferDesc struct {
	Usage           BufferUsage
	Placement       MemoryPlacement
	PersistentMap   bool
	SizeBytes       uint64
}

// TextureDimension enumerates the shapes a texture may take.
type TextureDimension uint8

const (
	TextureDimension1D TextureDimension = iota
	TextureDimension2D
	TextureDimension3D
	TextureDimensionCube
	TextureDimension1DArray
	TextureDimension2DArray
	TextureDimensionCubeArray
)

// TextureTiling selects the GPU-internal layout of texel data.
type TextureTiling uint8

const (
	TextureTilingOptimal TextureTiling = iota
	TextureTilingLinear
)

// TextureUsage is a bitmask of the roles a texture may be used in.
type TextureUsage uint32

const (
	TextureUsageTransferSrc TextureUsage = 1 << iota
	TextureUsageTransferDst
	TextureUsageSampled
	TextureUsageStorage
	TextureUsageColor
	TextureUsageDepthStencil
	TextureUsageTransient
	TextureUsageInput
)

// TextureCreateFlags carries create-time texture options orthogonal to usage.
type TextureCreateFlags uint32

const (
	TextureCreateCubeCompatible TextureCreateFlags = 1 << iota
)

// Extent3D is a texture's size in texels.
type Extent3D struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

// TextureDesc describes a texture resource; see BufferDesc for the
// map-key-equality rationale.
type TextureDesc struct {
	Dimension   TextureDimension
	Format      wgpu.TextureFormat
	Extent      Extent3D
	MipLevels   uint32
	ArrayLayers uint32
	SampleCount uint32
	Tiling      TextureTiling
	Usage       TextureUsage
	CreateFlags TextureCreateFlags
	Placement   MemoryPlacement
}

// LoadOp selects what a render pass attachment does with its prior contents
// on render-pass begin.
type LoadOp uint8

const (
	LoadOpLoad LoadOp = iota
	LoadOpClear
	LoadOpDontCare
)

// StoreOp selects whether an attachment's written contents are kept after
// render-pass end.
type StoreOp uint8

const (
	StoreOpStore StoreOp = iota
	StoreOpDontCare
)

// MaxColorAttachments is the fixed small constant the data model requires
// for RenderPassDesc and FramebufferKey attachment arrays.
const MaxColorAttachments = 8

// ColorAttachmentDesc describes one color attachment slot of a render pass.
type ColorAttachmentDesc struct {
	Format      wgpu.TextureFormat
	SampleCount uint32
	LoadOp      LoadOp
	StoreOp     StoreOp
}

// DepthStencilAttachmentDesc describes the optional depth/stencil slot of a
// render pass.
type DepthStencilAttachmentDesc struct {
	Format        wgpu.TextureFormat
	SampleCount   uint32
	DepthLoadOp   LoadOp
	DepthStoreOp  StoreOp
	StencilLoadOp LoadOp
	StencilStoreOp StoreOp
}

// RenderPassDesc describes a render pass's attachment shape. Comparable by
// value: the color-attachment slots are a fixed array, not a slice, so two
// descriptors with the same logical attachment list always compare equal.
type RenderPassDesc struct {
	ColorAttachments    [MaxColorAttachments]ColorAttachmentDesc
	ColorAttachmentCount int
	HasDepthStencil     bool
	DepthStencil        DepthStencilAttachmentDesc
}

// FramebufferKey identifies a framebuffer by the concrete attachment view
// identities bound to it plus the target extent.
type FramebufferKey struct {
	Views      [MaxColorAttachments + 1]ResourceID // color views then depth-stencil view (if any)
	ViewCount  int
	Extent     Extent3D
}

// ShaderStage tags which pipeline stage a shader module binds to.
type ShaderStage uint8

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
	ShaderStageCompute
)

// MaxShaderStages bounds the stage list on a PipelineDesc (vertex+fragment
// for raster, or a single compute stage).
const MaxShaderStages = 2

// ShaderStageRef names the shader resource a pipeline stage is built from;
// Path is the resource path the resource system resolves into a
// ShaderArtifact (bytecode + reflection).
type ShaderStageRef struct {
	Stage ShaderStage
	Path  string
}

// CullMode selects back-face culling behavior.
type CullMode uint8

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// FrontFace selects which vertex winding is considered front-facing.
type FrontFace uint8

const (
	FrontFaceCCW FrontFace = iota
	FrontFaceCW
)

// FillMode selects rasterizer fill behavior.
type FillMode uint8

const (
	FillModeSolid FillMode = iota
	FillModeWireframe
)

// PrimitiveTopology selects how vertices assemble into primitives.
type PrimitiveTopology uint8

const (
	PrimitiveTopologyTriangleList PrimitiveTopology = iota
	PrimitiveTopologyTriangleStrip
	PrimitiveTopologyLineList
	PrimitiveTopologyPointList
)

// RasterizerState is the fixed-function rasterizer configuration.
type RasterizerState struct {
	CullMode  CullMode
	Winding   FrontFace
	Fill      FillMode
	Topology  PrimitiveTopology
}

// BlendState is the per-color-attachment blend configuration.
type BlendState struct {
	Enabled bool
	// When Enabled is true, CreateRasterPipeline applies fixed alpha blending
	// (src-alpha / one-minus-src-alpha); only Blend[0] is consulted, for the
	// pipeline's single color target.
}

// VertexAttr is a single vertex-buffer attribute.
type VertexAttr struct {
	Format         wgpu.VertexFormat
	Offset         uint64
	ShaderLocation uint32
}

// MaxVertexAttrs bounds the fixed-size vertex-layout array so VertexLayout
// remains a comparable value type.
const MaxVertexAttrs = 16

// VertexLayout describes one vertex buffer's stride and attribute list.
type VertexLayout struct {
	StrideBytes uint64
	StepMode    wgpu.VertexStepMode
	Attrs       [MaxVertexAttrs]VertexAttr
	AttrCount   int
}

// PipelineDesc fully describes a raster or compute pipeline. It is
// comparable so register_raster/register_compute can dedupe by Go's `==`
// rather than a bespoke hash, matching the "stable hash" requirement without
// a custom Equal/Hash pair.
type PipelineDesc struct {
	Kind        PipelineKind
	Stages      [MaxShaderStages]ShaderStageRef
	StageCount  int
	Rasterizer  RasterizerState
	Blend       [MaxColorAttachments]BlendState
	DepthTest   bool
	DepthWrite  bool
	VertexLayout VertexLayout
	RenderPass  RenderPassDesc
}
