package cpu

import (
	"github.com/born-ml/autograd/internal/tensor"
)

// Permute reorders axes: result axis i is input axis axes[i].
func (cpu *CPUBackend) Permute(x *tensor.RawTensor, axes []int) (*tensor.RawTensor, error) {
	if err := x.Check(); err != nil {
		return nil, err
	}
	shape := x.Shape()
	if len(axes) != len(shape) {
		return nil, tensor.ValidationErrorf("permute: %d axes for rank %d", len(axes), len(shape))
	}
	seen := make([]bool, len(shape))
	outShape := make(tensor.Shape, len(shape))
	for i, a := range axes {
		if a < 0 || a >= len(shape) || seen[a] {
			return nil, tensor.ValidationErrorf("permute: invalid axes %v for rank %d", axes, len(shape))
		}
		seen[a] = true
		outShape[i] = shape[a]
	}

	result, err := tensor.NewRaw(outShape, x.DType())
	if err != nil {
		return nil, err
	}
	inStrides := shape.ComputeStrides()
	// Stride in the input for each output axis.
	permStrides := make([]int, len(axes))
	for i, a := range axes {
		permStrides[i] = inStrides[a]
	}
	outStrides := outShape.ComputeStrides()
	src, dst := x.Data(), result.Data()
	for i := range dst {
		dst[i] = src[computeFlatIndex(i, outStrides, permStrides)]
	}
	return result, nil
}

// blockLayout splits a shape around axis into (outer, axis, inner) extents.
func blockLayout(shape tensor.Shape, axis int) (outer, inner int) {
	outer, inner = 1, 1
	for i, d := range shape {
		switch {
		case i < axis:
			outer *= d
		case i > axis:
			inner *= d
		}
	}
	return outer, inner
}

// Slice copies the range [start, end) along axis.
func (cpu *CPUBackend) Slice(x *tensor.RawTensor, axis, start, end int) (*tensor.RawTensor, error) {
	if err := x.Check(); err != nil {
		return nil, err
	}
	shape := x.Shape()
	if axis < 0 || axis >= len(shape) {
		return nil, tensor.ShapeErrorf("slice: axis %d out of range for rank %d", axis, len(shape))
	}
	if start < 0 || end > shape[axis] || start >= end {
		return nil, tensor.ShapeErrorf("slice: range [%d, %d) invalid for axis %d of %v", start, end, axis, shape)
	}
	outShape := shape.Clone()
	outShape[axis] = end - start
	result, err := tensor.NewRaw(outShape, x.DType())
	if err != nil {
		return nil, err
	}
	outer, inner := blockLayout(shape, axis)
	src, dst := x.Data(), result.Data()
	width := (end - start) * inner
	for o := 0; o < outer; o++ {
		from := o*shape[axis]*inner + start*inner
		copy(dst[o*width:(o+1)*width], src[from:from+width])
	}
	return result, nil
}

// Embed returns a zero tensor of shape with x copied at offset start along
// axis. x must match shape on every other axis.
func (cpu *CPUBackend) Embed(x *tensor.RawTensor, shape tensor.Shape, axis, start int) (*tensor.RawTensor, error) {
	if err := x.Check(); err != nil {
		return nil, err
	}
	xs := x.Shape()
	if axis < 0 || axis >= len(shape) || len(xs) != len(shape) {
		return nil, tensor.ShapeErrorf("embed: cannot place %v into %v along axis %d", xs, shape, axis)
	}
	for i := range shape {
		if i != axis && xs[i] != shape[i] {
			return nil, tensor.ShapeErrorf("embed: cannot place %v into %v along axis %d", xs, shape, axis)
		}
	}
	if start < 0 || start+xs[axis] > shape[axis] {
		return nil, tensor.ShapeErrorf("embed: offset %d out of range for axis %d of %v", start, axis, shape)
	}
	result, err := tensor.NewRaw(shape, x.DType())
	if err != nil {
		return nil, err
	}
	outer, inner := blockLayout(shape, axis)
	src, dst := x.Data(), result.Data()
	width := xs[axis] * inner
	for o := 0; o < outer; o++ {
		to := o*shape[axis]*inner + start*inner
		copy(dst[to:to+width], src[o*width:(o+1)*width])
	}
	return result, nil
}
