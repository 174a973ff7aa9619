package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/autodiff/ops"
	"github.com/born-ml/autograd/internal/tensor"
)

func reduce(x *Tensor, op ops.Reduce, axes []int, keepDims bool) (*Tensor, error) {
	name := op.String()
	ctx, err := contextOf(name, x)
	if err != nil {
		return nil, err
	}
	source := x.Shape()
	norm, err := tensor.NormalizeAxes(axes, source.Rank())
	if err != nil {
		return nil, errors.WithMessagef(err, "%s of %v", name, source)
	}
	count := 1
	for _, a := range norm {
		count *= source[a]
	}

	rl := &reduceRule{op: op, source: source.Clone(), axes: norm, keepDims: keepDims, count: count}
	var out *tensor.RawTensor
	backend := ctx.Backend()
	switch op {
	case ops.Sum:
		out, err = backend.Sum(x.data, norm, keepDims)
	case ops.Mean:
		var sum *tensor.RawTensor
		if sum, err = backend.Sum(x.data, norm, keepDims); err == nil {
			n := float64(count)
			out, err = backend.Map(sum, x.DType(), func(v float64) float64 { return v / n })
		}
	case ops.Max:
		out, rl.argmax, err = backend.Max(x.data, norm, keepDims)
	default:
		return nil, tensor.ValidationErrorf("unknown reduction %d", int(op))
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "%s of %v", name, source)
	}
	return ctx.result(out, Reduce, name, rl, x), nil
}

// Sum adds up the elements along axes (every axis when none are given).
// Negative axes count from the end.
func Sum(x *Tensor, axes ...int) (*Tensor, error) { return reduce(x, ops.Sum, axes, false) }

// SumKeepDims is Sum keeping the collapsed axes with size 1.
func SumKeepDims(x *Tensor, axes ...int) (*Tensor, error) { return reduce(x, ops.Sum, axes, true) }

// Mean averages the elements along axes (every axis when none are given).
func Mean(x *Tensor, axes ...int) (*Tensor, error) { return reduce(x, ops.Mean, axes, false) }

// MeanKeepDims is Mean keeping the collapsed axes with size 1.
func MeanKeepDims(x *Tensor, axes ...int) (*Tensor, error) { return reduce(x, ops.Mean, axes, true) }

// Max keeps the largest element along axes (every axis when none are given).
// Backward routes the gradient to the first maximum in row-major order.
func Max(x *Tensor, axes ...int) (*Tensor, error) { return reduce(x, ops.Max, axes, false) }

// MaxKeepDims is Max keeping the collapsed axes with size 1.
func MaxKeepDims(x *Tensor, axes ...int) (*Tensor, error) { return reduce(x, ops.Max, axes, true) }
