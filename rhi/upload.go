package rhi

import "github.com/oxy-engine/rendercore/common"

// WriteBuffer uploads data to b at offset through the device's transfer
// queue. This is the staging path for vertex/index/uniform data the caller
// already holds as bytes; callers with typed CPU data should use
// WriteBufferSlice or WriteBufferStruct instead of reinterpreting it
// themselves.
func (d *Device) WriteBuffer(b *Buffer, offset uint64, data []byte) {
	d.Transfer.WriteBuffer(b.native, offset, data)
}

// WriteBufferSlice reinterprets data as bytes without copying and uploads
// it to b at offset. T must be a fixed-size type (no pointers, no slices)
// for the reinterpretation to be meaningful.
func WriteBufferSlice[T any](d *Device, b *Buffer, offset uint64, data []T) {
	d.WriteBuffer(b, offset, common.SliceToBytes(data))
}

// WriteBufferStruct reinterprets v as bytes without copying and uploads it
// to b at offset. Used for uniform and push-constant staging where the CPU
// side already has a packed struct matching the shader's layout.
func WriteBufferStruct[T any](d *Device, b *Buffer, offset uint64, v *T) {
	d.WriteBuffer(b, offset, common.StructToBytes(v))
}
