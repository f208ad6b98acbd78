package rendergraph

import (
	"testing"

	"github.com/oxy-engine/rendercore/rhi"
)

func bufDesc(size uint64) rhi.BufferDesc {
	return rhi.BufferDesc{Usage: rhi.BufferUsageVertex, SizeBytes: size}
}

// TestTransientBufferRoundTripsThroughPool: a buffer restored under a
// descriptor is the exact instance a later fetch with the same descriptor
// returns, and the pool is empty again afterward.
func TestTransientBufferRoundTripsThroughPool(t *testing.T) {
	c := newTransientCache()
	desc := bufDesc(256)
	b := &rhi.Buffer{ID: 7, Desc: desc}

	c.restoreBuffer(desc, b)

	got := c.fetchBuffer(desc)
	if got != b {
		t.Fatalf("fetchBuffer returned a different instance than was restored")
	}

	if again := c.fetchBuffer(desc); again != nil {
		t.Fatalf("pool should be empty after a single fetch, got %v", again)
	}
}

// TestTransientBufferMissOnDifferentDescriptor ensures the pool keys strictly
// by descriptor equality, not just by presence of any entry.
func TestTransientBufferMissOnDifferentDescriptor(t *testing.T) {
	c := newTransientCache()
	c.restoreBuffer(bufDesc(256), &rhi.Buffer{ID: 1, Desc: bufDesc(256)})

	if got := c.fetchBuffer(bufDesc(512)); got != nil {
		t.Fatalf("fetchBuffer should miss on a different descriptor, got %v", got)
	}
}

// TestTransientPoolIsLIFO: restoring two buffers under the same descriptor
// and fetching twice returns them in last-in-first-out order.
func TestTransientPoolIsLIFO(t *testing.T) {
	c := newTransientCache()
	desc := bufDesc(128)
	first := &rhi.Buffer{ID: 1, Desc: desc}
	second := &rhi.Buffer{ID: 2, Desc: desc}

	c.restoreBuffer(desc, first)
	c.restoreBuffer(desc, second)

	if got := c.fetchBuffer(desc); got != second {
		t.Fatalf("expected the most recently restored buffer first, got id %d", got.ID)
	}
	if got := c.fetchBuffer(desc); got != first {
		t.Fatalf("expected the first-restored buffer last, got id %d", got.ID)
	}
}

// TestRecordNamedBufferAccessCarriesStateForward: a named entry's access
// state, once recorded, is returned by a subsequent getOrCreateNamedBuffer
// instead of AccessUndefined.
func TestRecordNamedBufferAccessCarriesStateForward(t *testing.T) {
	c := newTransientCache()
	desc := bufDesc(64)
	name := "gbuffer.albedo"
	c.namedBuffers[name] = &namedBufferEntry{desc: desc, buffer: &rhi.Buffer{ID: 42, Desc: desc}, access: rhi.AccessUndefined}

	c.recordNamedBufferAccess(name, rhi.AccessColorAttachmentReadWrite)

	_, access2, err := c.getOrCreateNamedBuffer(nil, name, desc)
	if err != nil {
		t.Fatalf("getOrCreateNamedBuffer (second): %v", err)
	}
	if access2 != rhi.AccessColorAttachmentReadWrite {
		t.Fatalf("expected carried-forward access state, got %v", access2)
	}
}

// TestUpdateDirtyNamedBufferIsIdempotentOnUnchangedDescriptor: calling
// updateDirtyNamedBuffer twice in a row with the same descriptor reports no
// update the second time, since nothing actually changed.
func TestUpdateDirtyNamedBufferIsIdempotentOnUnchangedDescriptor(t *testing.T) {
	c := newTransientCache()
	desc := bufDesc(64)
	name := "gbuffer.normal"
	c.namedBuffers[name] = &namedBufferEntry{desc: desc, buffer: &rhi.Buffer{ID: 1, Desc: desc}, access: rhi.AccessUndefined}

	changed, err := c.updateDirtyNamedBuffer(nil, name, desc)
	if err != nil {
		t.Fatalf("updateDirtyNamedBuffer: %v", err)
	}
	if changed {
		t.Fatalf("expected no change when the descriptor is unchanged")
	}

	changed2, err := c.updateDirtyNamedBuffer(nil, name, desc)
	if err != nil {
		t.Fatalf("updateDirtyNamedBuffer (second): %v", err)
	}
	if changed2 {
		t.Fatalf("expected still no change on a second identical call")
	}
}

// TestDestroyAllResetsEveryCacheBucket verifies that after destroyAll, both
// the pooled and named caches report empty on a subsequent fetch/create.
func TestDestroyAllResetsEveryCacheBucket(t *testing.T) {
	c := newTransientCache()
	desc := bufDesc(64)
	c.restoreBuffer(desc, &rhi.Buffer{ID: 1, Desc: desc})
	c.namedBuffers["x"] = &namedBufferEntry{desc: desc, buffer: &rhi.Buffer{ID: 2, Desc: desc}}

	c.destroyAll(nil)

	if got := c.fetchBuffer(desc); got != nil {
		t.Fatalf("pooled buffers should be gone after destroyAll, got %v", got)
	}
	if len(c.namedBuffers) != 0 {
		t.Fatalf("named buffers map should be reset, has %d entries", len(c.namedBuffers))
	}
}
