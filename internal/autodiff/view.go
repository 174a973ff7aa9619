package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/tensor"
)

// Reshape returns a tensor sharing x's buffer with a new shape. One
// dimension may be -1 and is inferred from the element count.
//
// The result is a separate graph node: its gradient reaches x once, through
// the reshape record, however many aliases share the buffer.
func Reshape(x *Tensor, shape ...int) (*Tensor, error) {
	ctx, err := contextOf("reshape", x)
	if err != nil {
		return nil, err
	}
	target, err := inferShape(shape, x.NumElements())
	if err != nil {
		return nil, err
	}
	out, err := x.data.Reshape(target)
	if err != nil {
		return nil, errors.WithMessage(err, "reshape")
	}
	return ctx.result(out, View, "reshape", &viewRule{op: viewReshape, source: x.Shape().Clone()}, x), nil
}

func inferShape(shape []int, n int) (tensor.Shape, error) {
	target := tensor.Shape(shape).Clone()
	infer := -1
	known := 1
	for i, d := range target {
		switch {
		case d == -1 && infer < 0:
			infer = i
		case d == -1:
			return nil, tensor.ValidationErrorf("reshape: more than one -1 in %v", shape)
		case d <= 0:
			return nil, tensor.ShapeErrorf("reshape: invalid dimension %d in %v", d, shape)
		default:
			known *= d
		}
	}
	if infer >= 0 {
		if n%known != 0 {
			return nil, tensor.ShapeErrorf("reshape: cannot infer %v for %d elements", shape, n)
		}
		target[infer] = n / known
	}
	return target, nil
}

// Slice returns the range [start, end) along axis as a new tensor.
// Negative axes count from the end.
func Slice(x *Tensor, axis, start, end int) (*Tensor, error) {
	ctx, err := contextOf("slice", x)
	if err != nil {
		return nil, err
	}
	norm, err := tensor.NormalizeAxes([]int{axis}, x.Shape().Rank())
	if err != nil {
		return nil, errors.WithMessage(err, "slice")
	}
	out, err := ctx.Backend().Slice(x.data, norm[0], start, end)
	if err != nil {
		return nil, err
	}
	r := &viewRule{op: viewSlice, source: x.Shape().Clone(), axis: norm[0], start: start}
	return ctx.result(out, View, "slice", r, x), nil
}

// Split cuts x into n equal parts along axis. The size of axis must be a
// multiple of n. The gradient of each part flows back into its own range of
// x, with zeros elsewhere.
func Split(x *Tensor, n, axis int) ([]*Tensor, error) {
	if _, err := contextOf("split", x); err != nil {
		return nil, err
	}
	norm, err := tensor.NormalizeAxes([]int{axis}, x.Shape().Rank())
	if err != nil {
		return nil, errors.WithMessage(err, "split")
	}
	size := x.Shape()[norm[0]]
	if n <= 0 || size%n != 0 {
		return nil, tensor.ShapeErrorf("split: axis %d of %v into %d parts", axis, x.Shape(), n)
	}
	width := size / n
	parts := make([]*Tensor, n)
	for i := range parts {
		if parts[i], err = Slice(x, norm[0], i*width, (i+1)*width); err != nil {
			return nil, err
		}
	}
	return parts, nil
}
