package tensor

// Backend defines the numeric kernels the autodiff graph is built on.
// Kernels are pure: they never mutate their inputs and always allocate a
// fresh result rounded to the requested data type. Every kernel reports
// ErrUseAfterFree for released inputs and ErrShape for incompatible shapes.
//
// Implementations:
//   - CPU: pure Go, with a gonum GEMM path for two-operand contractions
type Backend interface {
	// Name returns the backend name.
	Name() string

	// Map applies fn to every element of x.
	Map(x *RawTensor, dtype DataType, fn func(float64) float64) (*RawTensor, error)

	// Zip applies fn to the broadcast pairs of a and b.
	Zip(a, b *RawTensor, dtype DataType, fn func(a, b float64) float64) (*RawTensor, error)

	// BroadcastTo stretches x to shape following NumPy broadcasting.
	BroadcastTo(x *RawTensor, shape Shape) (*RawTensor, error)

	// SumTo sums x down to shape, the inverse of BroadcastTo.
	SumTo(x *RawTensor, shape Shape) (*RawTensor, error)

	// Sum collapses the given (normalized) axes by summation.
	Sum(x *RawTensor, axes []int, keepDims bool) (*RawTensor, error)

	// Max collapses the given (normalized) axes keeping the maximum. It also
	// returns, per output element, the flat input index of the first
	// occurrence of the maximum.
	Max(x *RawTensor, axes []int, keepDims bool) (*RawTensor, []int, error)

	// ScatterAdd returns a zero tensor of shape where values[i] was added at
	// flat position indices[i].
	ScatterAdd(values *RawTensor, indices []int, shape Shape) (*RawTensor, error)

	// Permute reorders axes: result axis i is input axis axes[i].
	Permute(x *RawTensor, axes []int) (*RawTensor, error)

	// Slice copies the range [start, end) along axis.
	Slice(x *RawTensor, axis, start, end int) (*RawTensor, error)

	// Embed returns a zero tensor of shape with x copied at offset start
	// along axis, the inverse of Slice.
	Embed(x *RawTensor, shape Shape, axis, start int) (*RawTensor, error)

	// Einsum evaluates a contraction. sizes must hold the size of every
	// letter used by spec, including output letters absent from the inputs.
	Einsum(spec *Subscripts, sizes map[byte]int, dtype DataType, operands ...*RawTensor) (*RawTensor, error)
}

// CheckAll returns the first use-after-free error among ts.
func CheckAll(ts ...*RawTensor) error {
	for _, t := range ts {
		if err := t.Check(); err != nil {
			return err
		}
	}
	return nil
}
