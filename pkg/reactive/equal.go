package reactive

import "reflect"

// DefaultEquals provides type-appropriate equality checking.
// Uses == for basic types and reflect.DeepEqual for others.
func DefaultEquals[T any](a, b T) bool {
	av, bv := any(a), any(b)
	switch av.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64, complex64, complex128,
		string, bool:
		// Interface comparison is false when the dynamic types differ.
		return av == bv
	default:
		// Slices, maps, structs, pointers.
		return reflect.DeepEqual(a, b)
	}
}
