package rhi

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/oxy-engine/rendercore/rendererr"
)

// CreateShaderModule compiles already-produced WGSL source into a native
// shader module. Source-to-bytecode compilation itself is out of scope;
// this only hands already-compiled text to the backend.
func (d *Device) CreateShaderModule(label, wgsl string) (*wgpu.ShaderModule, error) {
	mod, err := d.native.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: wgsl,
		},
	})
	if err != nil {
		return nil, rendererr.Wrap(rendererr.KindShaderNotReady, "create shader module failed", err)
	}
	return mod, nil
}

func (d *Device) buildBindGroupLayouts(groups map[int]wgpu.BindGroupLayoutDescriptor) ([]*wgpu.BindGroupLayout, error) {
	maxGroup := -1
	for g := range groups {
		if g > maxGroup {
			maxGroup = g
		}
	}
	layouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g, desc := range groups {
		layout, err := d.native.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, fmt.Errorf("bind group layout for group %d: %w", g, err)
		}
		layouts[g] = layout
	}
	return layouts, nil
}

// CreateRasterPipeline realizes a raster PipelineDesc into a bindable
// Pipeline. stages must contain the vertex and fragment modules named by
// desc.Stages; bindGroups is the merged reflection-derived layout set
// (pipereg is responsible for merging per-stage visibility).
func (d *Device) CreateRasterPipeline(
	handle PipelineHandle,
	desc PipelineDesc,
	stages map[ShaderStage]*wgpu.ShaderModule,
	bindGroups map[int]wgpu.BindGroupLayoutDescriptor,
	vertexBufferLayouts []wgpu.VertexBufferLayout,
	colorFormat wgpu.TextureFormat,
) (*Pipeline, error) {
	vs, ok := stages[ShaderStageVertex]
	if !ok {
		return nil, rendererr.New(rendererr.KindShaderNotReady, "raster pipeline missing vertex stage module")
	}
	fs, ok := stages[ShaderStageFragment]
	if !ok {
		return nil, rendererr.New(rendererr.KindShaderNotReady, "raster pipeline missing fragment stage module")
	}

	layouts, err := d.buildBindGroupLayouts(bindGroups)
	if err != nil {
		return nil, rendererr.Wrap(rendererr.KindResourceCreate, "raster pipeline bind group layouts", err)
	}

	pipelineLayout, err := d.native.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, rendererr.Wrap(rendererr.KindResourceCreate, "create pipeline layout failed", err)
	}

	depthCompare := wgpu.CompareFunctionLess
	if !desc.DepthTest {
		depthCompare = wgpu.CompareFunctionAlways
	}

	var depthStencil *wgpu.DepthStencilState
	if desc.RenderPass.HasDepthStencil {
		depthStencil = &wgpu.DepthStencilState{
			Format:            desc.RenderPass.DepthStencil.Format,
			DepthWriteEnabled: desc.DepthWrite,
			DepthCompare:      depthCompare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	targetState := wgpu.ColorTargetState{
		Format:    colorFormat,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if desc.Blend[0].Enabled {
		targetState.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorSrcAlpha, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
			Alpha: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
		}
	}

	created, err := d.native.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: "vs_main",
			Buffers:    vertexBufferLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: "fs_main",
			Targets:    []wgpu.ColorTargetState{targetState},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  translateTopology(desc.Rasterizer.Topology),
			FrontFace: translateFrontFace(desc.Rasterizer.Winding),
			CullMode:  translateCullMode(desc.Rasterizer.CullMode),
		},
		Multisample: wgpu.MultisampleState{
			Count: max32One(desc.RenderPass.ColorAttachments[0].SampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return nil, rendererr.Wrap(rendererr.KindResourceCreate, "create render pipeline failed", err)
	}

	return &Pipeline{ID: d.nextID(), Handle: handle, Desc: desc, native: created}, nil
}

// CreateComputePipeline realizes a compute PipelineDesc.
func (d *Device) CreateComputePipeline(
	handle PipelineHandle,
	desc PipelineDesc,
	module *wgpu.ShaderModule,
	bindGroups map[int]wgpu.BindGroupLayoutDescriptor,
) (*Pipeline, error) {
	layouts, err := d.buildBindGroupLayouts(bindGroups)
	if err != nil {
		return nil, rendererr.Wrap(rendererr.KindResourceCreate, "compute pipeline bind group layouts", err)
	}

	pipelineLayout, err := d.native.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, rendererr.Wrap(rendererr.KindResourceCreate, "create pipeline layout failed", err)
	}

	created, err := d.native.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Layout: pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "cs_main",
		},
	})
	if err != nil {
		return nil, rendererr.Wrap(rendererr.KindResourceCreate, "create compute pipeline failed", err)
	}

	return &Pipeline{ID: d.nextID(), Handle: handle, Desc: desc, native: created}, nil
}

// DestroyPipeline synchronously releases a realized pipeline's native
// handle. Pipeline-registry shutdown uses this after destroy_all.
func (d *Device) DestroyPipeline(p *Pipeline) {
	if p == nil || p.native == nil {
		return
	}
	switch native := p.native.(type) {
	case *wgpu.RenderPipeline:
		native.Release()
	case *wgpu.ComputePipeline:
		native.Release()
	}
	p.native = nil
}

func translateTopology(t PrimitiveTopology) wgpu.PrimitiveTopology {
	switch t {
	case PrimitiveTopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case PrimitiveTopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	case PrimitiveTopologyPointList:
		return wgpu.PrimitiveTopologyPointList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func translateFrontFace(f FrontFace) wgpu.FrontFace {
	if f == FrontFaceCW {
		return wgpu.FrontFaceCW
	}
	return wgpu.FrontFaceCCW
}

func translateCullMode(c CullMode) wgpu.CullMode {
	switch c {
	case CullModeFront:
		return wgpu.CullModeFront
	case CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}
