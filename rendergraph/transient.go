// Package rendergraph implements the per-frame declarative dependency graph
// (build, compile, execute) and the transient/named resource cache it
// compiles against.
package rendergraph

import (
	"sync"

	"github.com/oxy-engine/rendercore/rhi"
)

type namedBufferEntry struct {
	desc   rhi.BufferDesc
	buffer *rhi.Buffer
	access rhi.AccessState
}

type namedTextureEntry struct {
	desc    rhi.TextureDesc
	texture *rhi.Texture
	access  rhi.AccessState
}

// transientCache is the Transient Resource Cache: a pooled stack of
// recyclable transient buffers/textures keyed by descriptor, plus a
// named-persistent map keyed by string identity whose access state carries
// over frame to frame.
type transientCache struct {
	mu sync.Mutex

	pooledBuffers  map[rhi.BufferDesc][]*rhi.Buffer
	pooledTextures map[rhi.TextureDesc][]*rhi.Texture

	namedBuffers  map[string]*namedBufferEntry
	namedTextures map[string]*namedTextureEntry
}

func newTransientCache() *transientCache {
	return &transientCache{
		pooledBuffers:  make(map[rhi.BufferDesc][]*rhi.Buffer),
		pooledTextures: make(map[rhi.TextureDesc][]*rhi.Texture),
		namedBuffers:   make(map[string]*namedBufferEntry),
		namedTextures:  make(map[string]*namedTextureEntry),
	}
}

// fetchBuffer pops a pooled buffer matching desc, or returns nil; the
// caller is responsible for creating one via the device on a miss.
func (c *transientCache) fetchBuffer(desc rhi.BufferDesc) *rhi.Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()

	stack := c.pooledBuffers[desc]
	if len(stack) == 0 {
		return nil
	}
	top := stack[len(stack)-1]
	c.pooledBuffers[desc] = stack[:len(stack)-1]
	return top
}

// restoreBuffer pushes b back onto the pool indexed by its own descriptor.
func (c *transientCache) restoreBuffer(desc rhi.BufferDesc, b *rhi.Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pooledBuffers[desc] = append(c.pooledBuffers[desc], b)
}

func (c *transientCache) fetchTexture(desc rhi.TextureDesc) *rhi.Texture {
	c.mu.Lock()
	defer c.mu.Unlock()

	stack := c.pooledTextures[desc]
	if len(stack) == 0 {
		return nil
	}
	top := stack[len(stack)-1]
	c.pooledTextures[desc] = stack[:len(stack)-1]
	return top
}

func (c *transientCache) restoreTexture(desc rhi.TextureDesc, t *rhi.Texture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pooledTextures[desc] = append(c.pooledTextures[desc], t)
}

// getOrCreateNamedBuffer returns the named buffer's initial access state
// (Undefined for a fresh name) along with the resource itself.
func (c *transientCache) getOrCreateNamedBuffer(device *rhi.Device, name string, desc rhi.BufferDesc) (*rhi.Buffer, rhi.AccessState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.namedBuffers[name]; ok {
		return e.buffer, e.access, nil
	}

	b, err := device.CreateBuffer(name, desc)
	if err != nil {
		return nil, rhi.AccessUndefined, err
	}
	c.namedBuffers[name] = &namedBufferEntry{desc: desc, buffer: b, access: rhi.AccessUndefined}
	return b, rhi.AccessUndefined, nil
}

// updateDirtyNamedBuffer replaces name's buffer with a freshly created one
// when desc no longer matches the stored descriptor, deferring release of
// the stale buffer. Reports whether a replacement occurred.
func (c *transientCache) updateDirtyNamedBuffer(device *rhi.Device, name string, desc rhi.BufferDesc) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.namedBuffers[name]
	if !ok || e.desc == desc {
		return false, nil
	}

	fresh, err := device.CreateBuffer(name, desc)
	if err != nil {
		return false, err
	}
	device.DeferRelease(e.buffer)
	e.buffer = fresh
	e.desc = desc
	e.access = rhi.AccessUndefined
	return true, nil
}

func (c *transientCache) getOrCreateNamedTexture(device *rhi.Device, name string, desc rhi.TextureDesc) (*rhi.Texture, rhi.AccessState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.namedTextures[name]; ok {
		return e.texture, e.access, nil
	}

	tex, err := device.CreateTexture(name, desc)
	if err != nil {
		return nil, rhi.AccessUndefined, err
	}
	c.namedTextures[name] = &namedTextureEntry{desc: desc, texture: tex, access: rhi.AccessUndefined}
	return tex, rhi.AccessUndefined, nil
}

func (c *transientCache) updateDirtyNamedTexture(device *rhi.Device, name string, desc rhi.TextureDesc) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.namedTextures[name]
	if !ok || e.desc == desc {
		return false, nil
	}

	fresh, err := device.CreateTexture(name, desc)
	if err != nil {
		return false, err
	}
	device.DeferRelease(e.texture)
	e.texture = fresh
	e.desc = desc
	e.access = rhi.AccessUndefined
	return true, nil
}

// recordNamedBufferAccess stores the access state a named buffer's last
// use ended at, so the next frame that references the same name starts
// from it.
func (c *transientCache) recordNamedBufferAccess(name string, access rhi.AccessState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.namedBuffers[name]; ok {
		e.access = access
	}
}

func (c *transientCache) recordNamedTextureAccess(name string, access rhi.AccessState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.namedTextures[name]; ok {
		e.access = access
	}
}

// destroyAll destroys every pooled and named resource; called at graph
// teardown.
func (c *transientCache) destroyAll(device *rhi.Device) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, stack := range c.pooledBuffers {
		for _, b := range stack {
			device.DestroyBuffer(b)
		}
	}
	for _, stack := range c.pooledTextures {
		for _, t := range stack {
			device.DestroyTexture(t)
		}
	}
	for _, e := range c.namedBuffers {
		device.DestroyBuffer(e.buffer)
	}
	for _, e := range c.namedTextures {
		device.DestroyTexture(e.texture)
	}

	c.pooledBuffers = make(map[rhi.BufferDesc][]*rhi.Buffer)
	c.pooledTextures = make(map[rhi.TextureDesc][]*rhi.Texture)
	c.namedBuffers = make(map[string]*namedBufferEntry)
	c.namedTextures = make(map[string]*namedTextureEntry)
}
