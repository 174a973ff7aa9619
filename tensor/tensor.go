// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the storage types the autodiff engine is built on.
//
// The package defines:
//   - RawTensor: reference-counted dense storage with a shape and data type
//   - Backend: the numeric kernels every operation dispatches to
//   - Shape, DataType: core type definitions
//   - Subscripts: parsed einsum specifications
//
// Values are held as float64 and rounded to the tensor's DataType after
// every write, so Float32 and Float16 tensors behave like their native
// counterparts.
//
// Example:
//
//	raw, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.Float32)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(raw) // RawTensor(float32(2, 2) [1 2 3 4])
package tensor

import (
	"github.com/born-ml/autograd/internal/tensor"
)

// DataType represents the numeric precision of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Float16 DataType = tensor.Float16
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// RawTensor is dense storage shared by reference-counted aliases.
type RawTensor = tensor.RawTensor

// Backend defines the numeric kernels.
type Backend = tensor.Backend

// Subscripts is a parsed einsum specification.
type Subscripts = tensor.Subscripts

// Error kinds, matched with errors.Is.
var (
	ErrShape        = tensor.ErrShape
	ErrValidation   = tensor.ErrValidation
	ErrDomain       = tensor.ErrDomain
	ErrUseAfterFree = tensor.ErrUseAfterFree
)

// NewRaw allocates a zero-filled tensor.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// FromSlice creates a tensor holding a copy of data, rounded to dtype.
func FromSlice(data []float64, shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.FromSlice(data, shape, dtype)
}

// ParseDataType parses "float16", "float32" or "float64".
func ParseDataType(name string) (DataType, error) {
	return tensor.ParseDataType(name)
}

// ParseSubscripts parses an einsum specification for numOperands operands.
func ParseSubscripts(spec string, numOperands int) (*Subscripts, error) {
	return tensor.ParseSubscripts(spec, numOperands)
}

// BroadcastShapes returns the NumPy broadcast of a and b.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
