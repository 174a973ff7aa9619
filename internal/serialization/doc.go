// Package serialization saves and loads named tensors in the SafeTensors
// layout:
//
//	Format Structure:
//	  [8 bytes: Header Size N (uint64 LE)]
//	  [N bytes: JSON header, space padded to a multiple of 8]
//	  [Tensor data: raw little-endian bytes, tensors in name order]
//
// The JSON header maps every tensor name to its dtype ("F16", "F32" or
// "F64"), shape and [begin, end) byte offsets into the data section. The
// optional "__metadata__" entry holds free-form string pairs; Save adds a
// SHA-256 digest of the data section under ChecksumKey and Load verifies it
// when present.
//
// Example usage:
//
//	if err := serialization.Save("model.safetensors", map[string]*autodiff.Tensor{
//	    "w": w,
//	    "b": b,
//	}, map[string]string{"epoch": "3"}); err != nil {
//	    return err
//	}
//
//	tensors, metadata, err := serialization.Load("model.safetensors", ctx, true)
//
// Files are memory mapped while they are decoded; the loaded tensors own
// copies of their values.
package serialization
