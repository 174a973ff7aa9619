package cpu

import (
	"github.com/born-ml/autograd/internal/tensor"
)

// reducedIndexer maps flat input indices to flat output indices for a
// reduction over a set of axes.
type reducedIndexer struct {
	inStrides  []int
	outStrides []int // per input axis; 0 for reduced axes
}

func newReducedIndexer(shape tensor.Shape, axes []int) *reducedIndexer {
	reduced := make(map[int]bool, len(axes))
	for _, a := range axes {
		reduced[a] = true
	}
	kept := tensor.ReducedShape(shape, axes, false)
	keptStrides := kept.ComputeStrides()

	outStrides := make([]int, len(shape))
	k := 0
	for i := range shape {
		if reduced[i] {
			continue
		}
		outStrides[i] = keptStrides[k]
		k++
	}
	return &reducedIndexer{inStrides: shape.ComputeStrides(), outStrides: outStrides}
}

func (ri *reducedIndexer) index(i int) int {
	return computeFlatIndex(i, ri.inStrides, ri.outStrides)
}

func checkAxes(x *tensor.RawTensor, axes []int) error {
	rank := len(x.Shape())
	for _, a := range axes {
		if a < 0 || a >= rank {
			return tensor.ShapeErrorf("axis %d out of range for rank %d", a, rank)
		}
	}
	return nil
}

// Sum collapses the given axes by summation.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor, axes []int, keepDims bool) (*tensor.RawTensor, error) {
	if err := x.Check(); err != nil {
		return nil, err
	}
	if err := checkAxes(x, axes); err != nil {
		return nil, err
	}
	ri := newReducedIndexer(x.Shape(), axes)
	result, err := tensor.NewRaw(tensor.ReducedShape(x.Shape(), axes, keepDims), x.DType())
	if err != nil {
		return nil, err
	}
	dst := result.Data()
	for i, v := range x.Data() {
		dst[ri.index(i)] += v
	}
	x.DType().RoundSlice(dst)
	return result, nil
}

// Max collapses the given axes keeping the maximum, and returns the flat
// input index of the first occurrence (row-major) of each maximum.
func (cpu *CPUBackend) Max(x *tensor.RawTensor, axes []int, keepDims bool) (*tensor.RawTensor, []int, error) {
	if err := x.Check(); err != nil {
		return nil, nil, err
	}
	if err := checkAxes(x, axes); err != nil {
		return nil, nil, err
	}
	ri := newReducedIndexer(x.Shape(), axes)
	result, err := tensor.NewRaw(tensor.ReducedShape(x.Shape(), axes, keepDims), x.DType())
	if err != nil {
		return nil, nil, err
	}
	dst := result.Data()
	argmax := make([]int, len(dst))
	seen := make([]bool, len(dst))
	for i, v := range x.Data() {
		o := ri.index(i)
		// Strict comparison keeps the first occurrence on ties.
		if !seen[o] || v > dst[o] {
			dst[o] = v
			argmax[o] = i
			seen[o] = true
		}
	}
	return result, argmax, nil
}

// ScatterAdd returns a zero tensor of shape where values[i] was added at
// flat position indices[i].
func (cpu *CPUBackend) ScatterAdd(values *tensor.RawTensor, indices []int, shape tensor.Shape) (*tensor.RawTensor, error) {
	if err := values.Check(); err != nil {
		return nil, err
	}
	if len(indices) != values.NumElements() {
		return nil, tensor.ShapeErrorf("scatter: %d indices for %d values", len(indices), values.NumElements())
	}
	result, err := tensor.NewRaw(shape, values.DType())
	if err != nil {
		return nil, err
	}
	dst := result.Data()
	for i, v := range values.Data() {
		idx := indices[i]
		if idx < 0 || idx >= len(dst) {
			return nil, tensor.ShapeErrorf("scatter: index %d out of range for %v", idx, shape)
		}
		dst[idx] += v
	}
	values.DType().RoundSlice(dst)
	return result, nil
}
