package rhi

import (
	"log"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/oxy-engine/rendercore/rendererr"
)

// QueueType tags a Queue's intended role.
type QueueType uint8

const (
	QueueTypeGraphics QueueType = iota
	QueueTypeCompute
	QueueTypeTransfer
)

func (t QueueType) String() string {
	switch t {
	case QueueTypeGraphics:
		return "graphics"
	case QueueTypeCompute:
		return "compute"
	case QueueTypeTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// Queue wraps a *wgpu.Queue with the RHI's submit-serialization and
// thread-affine-pool-rejection behavior. WebGPU exposes a single queue per
// device; Graphics/Compute/Transfer on Device share the native queue but are
// distinct Queue values so submission to the "wrong" queue can be detected
// and rejected per the data model (a warning, not fatal).
type Queue struct {
	native      *wgpu.Queue
	queueType   QueueType
	familyIndex int
	mu          sync.Mutex
}

func newQueue(native *wgpu.Queue, t QueueType, familyIndex int) *Queue {
	return &Queue{native: native, queueType: t, familyIndex: familyIndex}
}

// Type returns the queue's role.
func (q *Queue) Type() QueueType { return q.queueType }

// FamilyIndex returns the queue family index (a backend-assigned grouping;
// WebGPU does not expose real families, so each Queue reports its own
// ordinal, sufficient to detect a CmdPool/Queue family mismatch).
func (q *Queue) FamilyIndex() int { return q.familyIndex }

// Submit submits cmdBuf to the queue. waitStages must be the same length as
// waitSemaphores; a mismatch is a programmer error and panics. Submission is
// serialized across concurrent callers by an internal mutex.
func (q *Queue) Submit(cmdBuf *wgpu.CommandBuffer, waitSemaphores []*Semaphore, signalSemaphores []*Semaphore, waitStages []AccessState) error {
	if len(waitSemaphores) != len(waitStages) {
		panic("rhi: Queue.Submit called with mismatched wait_semaphores/wait_stages lengths")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for _, s := range waitSemaphores {
		s.Wait()
	}

	q.native.Submit(cmdBuf)

	for _, s := range signalSemaphores {
		s.Signal()
	}
	return nil
}

// SubmitToQueue rejects submission when cmdPool's owning queue family
// differs from q's: it logs a warning and returns an error rather than
// submitting.
func (q *Queue) SubmitToQueue(pool *CmdPool, cmdBuf *wgpu.CommandBuffer) error {
	if pool.queueFamily != q.familyIndex {
		log.Printf("rhi: submit rejected — command pool bound to queue family %d, target queue is family %d", pool.queueFamily, q.familyIndex)
		return rendererr.New(rendererr.KindSubmission, "command pool bound to a different queue family")
	}
	return q.Submit(cmdBuf, nil, nil, nil)
}

// WaitUntilIdle blocks until all work submitted to this queue has completed.
func (q *Queue) WaitUntilIdle(device *Device) {
	device.WaitUntilIdle()
}

// Flush is a no-op on WebGPU (Submit is already a flush point) kept to
// satisfy the RHI's queue contract for callers ported from explicit-API
// backends.
func (q *Queue) Flush() {}

// WriteBuffer stages data into buf at offset. WebGPU queues are safe to
// write from any goroutine; the mutex here only protects against
// interleaving with a concurrent Submit on the same queue.
func (q *Queue) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	if len(data) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.native.WriteBuffer(buf, offset, data)
}
