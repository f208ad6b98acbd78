package rhi

import "log"

// deferredKind tags which destroy_* a deferredEntry routes to.
type deferredKind uint8

const (
	deferredKindBuffer deferredKind = iota
	deferredKindTexture
	deferredKindRenderPass
	deferredKindFramebuf
	deferredKindPipeline
	deferredKindSemaphore
	deferredKindCmdPool
)

// deferredEntry is a tagged-union enqueue: heterogeneous resource kinds
// share one queue by carrying their own destroy closure.
type deferredEntry struct {
	kind    deferredKind
	native  any
	destroy func()
}

// deferredQueue is an array of N single-producer-multiple-producer slots
// indexed by frame slot. Any goroutine may enqueue via the device's
// DeferRelease; only the main thread's EndFrame drains a slot.
type deferredQueue struct {
	slots []chan deferredEntry
}

// defaultDeferredQueueCapacity bounds the buffered channel per slot. A
// frame enqueuing more releases than this would block the producer; render
// workloads that legitimately need more should size this at device
// construction instead of hitting the default.
const defaultDeferredQueueCapacity = 4096

func newDeferredQueue(frameSlotCount int) *deferredQueue {
	q := &deferredQueue{slots: make([]chan deferredEntry, frameSlotCount)}
	for i := range q.slots {
		q.slots[i] = make(chan deferredEntry, defaultDeferredQueueCapacity)
	}
	return q
}

// enqueue adds entry to the given frame slot. Safe to call from any thread.
func (q *deferredQueue) enqueue(slot int, entry deferredEntry) {
	q.slots[slot] <- entry
}

// releaseAllStale drains exactly one slot, invoking each entry's destroy
// closure. Returns the number of resources destroyed.
func (q *deferredQueue) releaseAllStale(slot int) int {
	ch := q.slots[slot]
	n := 0
	for {
		select {
		case entry := <-ch:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("rhi: deferred release of kind %d panicked: %v", entry.kind, r)
					}
				}()
				entry.destroy()
			}()
			n++
		default:
			return n
		}
	}
}
