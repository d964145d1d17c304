package utils

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

const BitsPerByte = 8

// Returns the size in bits of n bytes
func Bits(bytes int) int {
	return bytes * BitsPerByte
}

// Returns the size in bytes of values of a type
func Sizeof[T any]() int {
	var val T
	return int(unsafe.Sizeof(val))
}

// Returns the size in bits of values of a type
func SizeofBits[T any]() int {
	return Bits(Sizeof[T]())
}

// Returns an all ones bitmask of n bits
func AllOnes(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << bits) - 1
}

// Reinterprets an integer as an unsigned value of the same width
func Unsigned[T constraints.Integer](value T) uint64 {
	return uint64(value) & AllOnes(SizeofBits[T]())
}

// Extracts a range of bits given a first bit and a width
func ReadBits[T constraints.Integer](value T, bit int, width int) uint64 {
	return (Unsigned(value) >> bit) & AllOnes(width)
}
