package rhi

import (
	"sync"

	"github.com/oxy-engine/rendercore/rendererr"
)

// ErrFramebufferCacheInvalid is returned by GetOrCreate after ClearUp until
// the cache is re-initialized, per the data model's "further calls fail
// until re-initialized" rule.
var ErrFramebufferCacheInvalid = rendererr.New(rendererr.KindResourceCreate, "framebuffer cache is invalid (clear_up already called)")

// FramebufferCache memoizes Framebuf handles keyed by FramebufferKey.
// It is owned by exactly one RenderPass and guards its map with a mutex
// since worker goroutines may query it concurrently with the main thread's
// graph execution in principle, even though today's frame loop is
// single-threaded on the render path.
type FramebufferCache struct {
	mu            sync.Mutex
	passDesc      RenderPassDesc
	attachCount   int
	entries       map[FramebufferKey]*Framebuf
	invalid       bool
}

// NewFramebufferCache initializes a cache bound to a render pass descriptor
// and its attachment count; keys presented to GetOrCreate must match that
// attachment count.
func NewFramebufferCache(passDesc RenderPassDesc, attachCount int) *FramebufferCache {
	return &FramebufferCache{
		passDesc:    passDesc,
		attachCount: attachCount,
		entries:     make(map[FramebufferKey]*Framebuf),
	}
}

// GetOrCreate returns the cached Framebuf for key, creating it via
// device.createFramebuf on a miss. Cache hits return the identical *Framebuf
// pointer: identity reuse, not merely an equal value.
func (c *FramebufferCache) GetOrCreate(device *Device, key FramebufferKey) (*Framebuf, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.invalid {
		return nil, ErrFramebufferCacheInvalid
	}
	if key.ViewCount != c.attachCount {
		return nil, rendererr.New(rendererr.KindResourceCreate, "framebuffer key attachment count does not match render pass")
	}

	if fb, ok := c.entries[key]; ok {
		return fb, nil
	}

	fb, err := device.createFramebuf(key)
	if err != nil {
		return nil, err
	}
	c.entries[key] = fb
	return fb, nil
}

// ClearUp destroys every cached framebuffer and marks the cache invalid.
// Further GetOrCreate calls fail until the owning render pass is
// re-initialized with a fresh cache.
func (c *FramebufferCache) ClearUp(device *Device) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, fb := range c.entries {
		device.destroyFramebuf(fb)
		delete(c.entries, key)
	}
	c.invalid = true
}

// Len reports the number of cached framebuffers; exposed for cache-hit
// counting in tests.
func (c *FramebufferCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
