package rhi

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/oxy-engine/rendercore/rendererr"
)

// DefaultFrameSlotCount is N, the number of pipelined device frame slots:
// frame_index cycles mod N as frames complete.
const DefaultFrameSlotCount = 2

// Device is the RHI device: it owns the wgpu instance/adapter/device,
// the graphics/compute/transfer Queues, the deferred-release queue, and the
// frame-index bracket. All create_*/destroy_* operations and frame
// bracketing are methods on Device.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	native   *wgpu.Device

	Graphics *Queue
	Compute  *Queue
	Transfer *Queue

	frameSlotCount int
	frameIndex     int
	frameCount     uint64
	deferred       *deferredQueue

	nextResourceID uint64
	frameMu        sync.Mutex
}

// DeviceOptions configures NewDevice. ForceFallbackAdapter requests a
// software adapter (useful for headless CI); FrameSlotCount overrides N from
// its default of 2.
type DeviceOptions struct {
	ForceFallbackAdapter bool
	FrameSlotCount       int
	Surface              *wgpu.Surface
}

// NewDevice requests an adapter/device from the given wgpu instance and
// wraps it as an RHI Device. A nil Surface is valid for headless/offscreen
// devices (compute-only pipelines, tests).
func NewDevice(instance *wgpu.Instance, opts DeviceOptions) (*Device, error) {
	frameSlots := opts.FrameSlotCount
	if frameSlots <= 0 {
		frameSlots = DefaultFrameSlotCount
	}

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: opts.ForceFallbackAdapter,
		CompatibleSurface:    opts.Surface,
	})
	if err != nil {
		return nil, rendererr.Wrap(rendererr.KindFatal, "request adapter failed", err)
	}

	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8

	nativeDevice, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "rendercore device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		return nil, rendererr.Wrap(rendererr.KindFatal, "request device failed", err)
	}

	d := &Device{
		instance:       instance,
		adapter:        adapter,
		native:         nativeDevice,
		frameSlotCount: frameSlots,
		deferred:       newDeferredQueue(frameSlots),
	}
	// WebGPU exposes a single native queue; Graphics/Compute/Transfer share
	// it but are assigned distinct family ordinals so a CmdPool created
	// against one of them is correctly rejected by Queue.SubmitToQueue if
	// submitted against another.
	q := nativeDevice.GetQueue()
	d.Graphics = newQueue(q, QueueTypeGraphics, 0)
	d.Compute = newQueue(q, QueueTypeCompute, 1)
	d.Transfer = newQueue(q, QueueTypeTransfer, 2)

	return d, nil
}

// Native exposes the backend *wgpu.Device for packages (window surface
// configuration, pipeline registry) that must call wgpu directly.
func (d *Device) Native() *wgpu.Device { return d.native }

// Adapter exposes the backend *wgpu.Adapter, used by window to query
// surface capabilities on resize.
func (d *Device) Adapter() *wgpu.Adapter { return d.adapter }

// FrameIndex returns the current frame slot.
func (d *Device) FrameIndex() int { return d.frameIndex }

// FrameCount returns the number of frames begun so far.
func (d *Device) FrameCount() uint64 { return d.frameCount }

func (d *Device) nextID() ResourceID {
	return ResourceID(atomic.AddUint64(&d.nextResourceID, 1))
}

// BeginFrame marks the start of a frame; pairs with EndFrame.
func (d *Device) BeginFrame() {
	d.frameMu.Lock()
	defer d.frameMu.Unlock()
	d.frameCount++
}

// EndFrame drains the deferred-release slot whose index equals the frame
// index that is now N frames old, then advances frame_index. Returns the
// number of resources destroyed this call.
func (d *Device) EndFrame() int {
	d.frameMu.Lock()
	defer d.frameMu.Unlock()

	next := (d.frameIndex + 1) % d.frameSlotCount
	n := d.deferred.releaseAllStale(next)
	d.frameIndex = next
	return n
}

// DeferRelease enqueues resource into the current frame slot; it is
// destroyed no earlier than frame f+N-1's EndFrame, where f is the frame
// DeferRelease was called in. Safe to call from any goroutine.
// DeferRelease(nil) is a no-op, matching the data model's explicit contract.
func (d *Device) DeferRelease(resource any) {
	if resource == nil {
		return
	}

	var entry deferredEntry
	switch r := resource.(type) {
	case *Buffer:
		entry = deferredEntry{kind: deferredKindBuffer, native: r, destroy: func() {
			if r.native != nil {
				r.native.Release()
			}
		}}
	case *Texture:
		entry = deferredEntry{kind: deferredKindTexture, native: r, destroy: func() {
			if r.view != nil {
				r.view.Release()
			}
			if r.native != nil {
				r.native.Release()
			}
		}}
	case *Framebuf:
		entry = deferredEntry{kind: deferredKindFramebuf, native: r, destroy: func() {
			for _, v := range r.Views {
				if v != nil {
					v.Release()
				}
			}
		}}
	case *Pipeline:
		entry = deferredEntry{kind: deferredKindPipeline, native: r, destroy: func() {
			switch p := r.native.(type) {
			case *wgpu.RenderPipeline:
				p.Release()
			case *wgpu.ComputePipeline:
				p.Release()
			}
		}}
	case *Semaphore:
		entry = deferredEntry{kind: deferredKindSemaphore, native: r, destroy: func() {}}
	default:
		panic(fmt.Sprintf("rhi: DeferRelease called with unsupported type %T", resource))
	}

	d.deferred.enqueue(d.frameIndex, entry)
}

// WaitUntilIdle blocks until the device has finished all outstanding GPU
// work. Used at device teardown and by tests that need deterministic
// completion.
func (d *Device) WaitUntilIdle() {
	d.native.Poll(true, nil)
}

// CreateBuffer allocates a buffer resource from desc.
func (d *Device) CreateBuffer(label string, desc BufferDesc) (*Buffer, error) {
	usage := translateBufferUsage(desc.Usage)
	native, err := d.native.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             desc.SizeBytes,
		Usage:            usage,
		MappedAtCreation: desc.PersistentMap,
	})
	if err != nil {
		return nil, rendererr.Wrap(rendererr.KindResourceCreate, "create buffer failed", err)
	}
	return &Buffer{ID: d.nextID(), Desc: desc, native: native, access: AccessUndefined}, nil
}

// DestroyBuffer synchronously and immediately destroys b. Callers who
// cannot guarantee GPU completion must use DeferRelease instead.
func (d *Device) DestroyBuffer(b *Buffer) {
	if b == nil || b.native == nil {
		return
	}
	b.native.Release()
	b.native = nil
}

func translateBufferUsage(u BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u&BufferUsageVertex != 0 {
		out |= wgpu.BufferUsageVertex
	}
	if u&BufferUsageIndex != 0 {
		out |= wgpu.BufferUsageIndex
	}
	if u&BufferUsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if u&BufferUsageStorage != 0 {
		out |= wgpu.BufferUsageStorage
	}
	if u&BufferUsageTransferSrc != 0 {
		out |= wgpu.BufferUsageCopySrc
	}
	if u&BufferUsageTransferDst != 0 {
		out |= wgpu.BufferUsageCopyDst
	}
	if u&BufferUsageIndirect != 0 {
		out |= wgpu.BufferUsageIndirect
	}
	return out
}

// CreateTexture allocates a texture (and its default view) from desc.
func (d *Device) CreateTexture(label string, desc TextureDesc) (*Texture, error) {
	native, err := d.native.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              desc.Extent.Width,
			Height:             desc.Extent.Height,
			DepthOrArrayLayers: max32(desc.Extent.Depth, desc.ArrayLayers),
		},
		MipLevelCount: max32One(desc.MipLevels),
		SampleCount:   max32One(desc.SampleCount),
		Dimension:     translateTextureDimension(desc.Dimension),
		Format:        desc.Format,
		Usage:         translateTextureUsage(desc.Usage),
	})
	if err != nil {
		return nil, rendererr.Wrap(rendererr.KindResourceCreate, "create texture failed", err)
	}
	view, err := native.CreateView(nil)
	if err != nil {
		native.Release()
		return nil, rendererr.Wrap(rendererr.KindResourceCreate, "create texture view failed", err)
	}
	return &Texture{ID: d.nextID(), Desc: desc, native: native, view: view, access: AccessUndefined}, nil
}

// DestroyTexture synchronously destroys t's view and native texture.
func (d *Device) DestroyTexture(t *Texture) {
	if t == nil {
		return
	}
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.native != nil {
		t.native.Release()
		t.native = nil
	}
}

func max32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	if b == 0 {
		return 1
	}
	return b
}

func max32One(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}

func translateTextureDimension(d TextureDimension) wgpu.TextureDimension {
	switch d {
	case TextureDimension1D, TextureDimension1DArray:
		return wgpu.TextureDimension1D
	case TextureDimension3D:
		return wgpu.TextureDimension3D
	default:
		return wgpu.TextureDimension2D
	}
}

func translateTextureUsage(u TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if u&TextureUsageTransferSrc != 0 {
		out |= wgpu.TextureUsageCopySrc
	}
	if u&TextureUsageTransferDst != 0 {
		out |= wgpu.TextureUsageCopyDst
	}
	if u&TextureUsageSampled != 0 {
		out |= wgpu.TextureUsageTextureBinding
	}
	if u&TextureUsageStorage != 0 {
		out |= wgpu.TextureUsageStorageBinding
	}
	if u&TextureUsageColor != 0 || u&TextureUsageDepthStencil != 0 {
		out |= wgpu.TextureUsageRenderAttachment
	}
	return out
}

// createFramebuf is called only from FramebufferCache.GetOrCreate on a
// cache miss; it does not itself validate the view count (the cache does).
func (d *Device) createFramebuf(key FramebufferKey) (*Framebuf, error) {
	return &Framebuf{ID: d.nextID(), Key: key}, nil
}

// destroyFramebuf releases a framebuffer's retained view references.
func (d *Device) destroyFramebuf(fb *Framebuf) {
	for _, v := range fb.Views {
		if v != nil {
			v.Release()
		}
	}
}

// CreateRenderPass registers a render-pass descriptor and allocates its
// owned FramebufferCache.
func (d *Device) CreateRenderPass(desc RenderPassDesc) *RenderPass {
	attachCount := desc.ColorAttachmentCount
	if desc.HasDepthStencil {
		attachCount++
	}
	return &RenderPass{
		ID:      d.nextID(),
		Desc:    desc,
		fbCache: NewFramebufferCache(desc, attachCount),
	}
}

// DestroyRenderPass clears the render pass's framebuffer cache.
func (d *Device) DestroyRenderPass(rp *RenderPass) {
	if rp == nil {
		return
	}
	rp.fbCache.ClearUp(d)
}

// CreateSemaphore allocates a CPU-observable completion signal.
func (d *Device) CreateSemaphore() *Semaphore {
	return &Semaphore{ID: d.nextID(), done: make(chan struct{})}
}

// ImmediateGraphicsCmd begins/records/submits a one-shot command buffer on
// the graphics queue; it returns only after submission. The returned
// Semaphore is already signaled at that point: it marks the submission, not
// GPU completion, so waiting for completion is the caller's responsibility.
func (d *Device) ImmediateGraphicsCmd(record func(enc *wgpu.CommandEncoder)) (*Semaphore, error) {
	return d.immediateCmd(d.Graphics, record)
}

// ImmediateTransferCmd is ImmediateGraphicsCmd for the transfer queue.
func (d *Device) ImmediateTransferCmd(record func(enc *wgpu.CommandEncoder)) (*Semaphore, error) {
	return d.immediateCmd(d.Transfer, record)
}

func (d *Device) immediateCmd(q *Queue, record func(enc *wgpu.CommandEncoder)) (*Semaphore, error) {
	encoder, err := d.native.CreateCommandEncoder(nil)
	if err != nil {
		return nil, rendererr.Wrap(rendererr.KindResourceCreate, "create command encoder failed", err)
	}
	record(encoder)

	cmdBuf, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		return nil, rendererr.Wrap(rendererr.KindSubmission, "finish command buffer failed", err)
	}

	sem := d.CreateSemaphore()
	if err := q.Submit(cmdBuf, nil, []*Semaphore{sem}, nil); err != nil {
		cmdBuf.Release()
		encoder.Release()
		return nil, err
	}
	sem.Signal()

	cmdBuf.Release()
	encoder.Release()
	return sem, nil
}
