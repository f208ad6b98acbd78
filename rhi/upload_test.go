package rhi

import (
	"testing"

	"github.com/oxy-engine/rendercore/common"
)

type uploadVertex struct {
	X, Y, Z float32
}

func TestWriteBufferSliceReinterpretsWithoutCopying(t *testing.T) {
	verts := []uploadVertex{{1, 2, 3}, {4, 5, 6}}
	bytes := common.SliceToBytes(verts)
	if len(bytes) != len(verts)*12 {
		t.Fatalf("len(bytes) = %d, want %d", len(bytes), len(verts)*12)
	}
	// The byte view WriteBufferSlice uploads must alias verts, not copy it.
	bytes[0] ^= 0xFF
	if verts[0].X == 1 {
		t.Fatalf("writing through the byte view did not change verts: the data was copied")
	}
}

func TestWriteBufferEmptyDataIsNoop(t *testing.T) {
	q := &Queue{native: nil}
	// Must not dereference the nil native queue when data is empty.
	q.WriteBuffer(nil, 0, nil)
}
