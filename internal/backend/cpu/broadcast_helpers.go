package cpu

import (
	"github.com/born-ml/autograd/internal/tensor"
)

// computeBroadcastStridesForShape computes strides for broadcasting a shape to outShape.
// Returns strides where dimensions of size 1 have stride 0 (for broadcasting).
func computeBroadcastStridesForShape(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)

	// Pad input shape with 1s on the left
	inDim := len(inShape)
	offset := outDim - inDim

	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		switch {
		case inIdx < 0 || inIdx >= inDim:
			// Padded dimension, stride is 0
			strides[i] = 0
		case inShape[inIdx] == 1:
			// Broadcast dimension, stride is 0
			strides[i] = 0
		default:
			strides[i] = origStrides[inIdx]
		}
	}

	return strides
}

// computeFlatIndex computes the flat index in the source array for a given output index.
// outStrides: strides of the output shape.
// inStrides: broadcast-adjusted strides of the input shape.
func computeFlatIndex(outIdx int, outStrides, inStrides []int) int {
	flatIdx := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		flatIdx += coord * inStrides[i]
	}
	return flatIdx
}

// BroadcastTo stretches x to shape following NumPy broadcasting.
func (cpu *CPUBackend) BroadcastTo(x *tensor.RawTensor, shape tensor.Shape) (*tensor.RawTensor, error) {
	if err := x.Check(); err != nil {
		return nil, err
	}
	out, _, err := tensor.BroadcastShapes(x.Shape(), shape)
	if err != nil {
		return nil, err
	}
	if !out.Equal(shape) {
		return nil, tensor.ShapeErrorf("cannot broadcast %v to %v", x.Shape(), shape)
	}
	result, err := tensor.NewRaw(shape, x.DType())
	if err != nil {
		return nil, err
	}
	src, dst := x.Data(), result.Data()
	outStrides := shape.ComputeStrides()
	inStrides := computeBroadcastStridesForShape(x.Shape(), shape)
	for i := range dst {
		dst[i] = src[computeFlatIndex(i, outStrides, inStrides)]
	}
	return result, nil
}

// SumTo sums x down to shape. shape must broadcast to x's shape: leading
// axes x has in excess are summed away, and axes where shape has size 1 are
// summed with the size kept.
func (cpu *CPUBackend) SumTo(x *tensor.RawTensor, shape tensor.Shape) (*tensor.RawTensor, error) {
	if err := x.Check(); err != nil {
		return nil, err
	}
	src := x.Shape()
	if src.Equal(shape) {
		return x.Copy()
	}
	out, _, err := tensor.BroadcastShapes(shape, src)
	if err != nil || !out.Equal(src) {
		return nil, tensor.ShapeErrorf("cannot sum %v down to %v", src, shape)
	}

	result, err := tensor.NewRaw(shape, x.DType())
	if err != nil {
		return nil, err
	}
	// Every source element lands in exactly one target element: the target
	// strides are the broadcast strides of shape within src.
	srcStrides := src.ComputeStrides()
	dstStrides := computeBroadcastStridesForShape(shape, src)
	data, dst := x.Data(), result.Data()
	for i, v := range data {
		dst[computeFlatIndex(i, srcStrides, dstStrides)] += v
	}
	x.DType().RoundSlice(dst)
	return result, nil
}
