package common

import "unsafe"

// SliceToBytes reinterprets a slice of arbitrary fixed-size elements as a byte slice
// without copying. Used to stage CPU-side data for GPU buffer uploads.
//
// Parameters:
//   - data: the slice to reinterpret
//
// Returns:
//   - []byte: a byte view over the same backing array as data
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*size)
}

// StructToBytes reinterprets a pointer to a struct as a byte slice without copying.
// Used to stage CPU-side uniform/push-constant data for GPU buffer uploads.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: a byte view over the struct's memory
func StructToBytes[T any](v *T) []byte {
	if v == nil {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(unsafe.Sizeof(*v)))
}
