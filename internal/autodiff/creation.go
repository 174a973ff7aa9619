package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/tensor"
)

// TensorOption configures a tensor created by a Context.
type TensorOption func(*tensorOptions)

type tensorOptions struct {
	name      string
	dtype     tensor.DataType
	trainable bool
}

// Named sets the tensor's name.
func Named(name string) TensorOption {
	return func(o *tensorOptions) {
		o.name = name
	}
}

// OfDType overrides the context's default data type.
func OfDType(dtype tensor.DataType) TensorOption {
	return func(o *tensorOptions) {
		o.dtype = dtype
	}
}

// Trainable marks the tensor as a trainable leaf.
func Trainable() TensorOption {
	return func(o *tensorOptions) {
		o.trainable = true
	}
}

func (ctx *Context) options(opts []TensorOption) tensorOptions {
	o := tensorOptions{dtype: ctx.config.DType}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FromSlice creates a leaf holding a copy of data, rounded to its type.
func (ctx *Context) FromSlice(data []float64, shape tensor.Shape, opts ...TensorOption) (*Tensor, error) {
	o := ctx.options(opts)
	raw, err := tensor.FromSlice(data, shape, o.dtype)
	if err != nil {
		return nil, errors.WithMessage(err, "from slice")
	}
	return ctx.newLeaf(raw, o.name, o.trainable), nil
}

// Parameter creates a trainable leaf holding a copy of data.
func (ctx *Context) Parameter(data []float64, shape tensor.Shape, opts ...TensorOption) (*Tensor, error) {
	return ctx.FromSlice(data, shape, append(opts, Trainable())...)
}

// Scalar creates a rank-0 leaf.
func (ctx *Context) Scalar(value float64, opts ...TensorOption) (*Tensor, error) {
	return ctx.Full(tensor.Shape{}, value, opts...)
}

// Full creates a leaf with every element set to value.
func (ctx *Context) Full(shape tensor.Shape, value float64, opts ...TensorOption) (*Tensor, error) {
	o := ctx.options(opts)
	raw, err := tensor.Full(shape, o.dtype, value)
	if err != nil {
		return nil, errors.WithMessage(err, "full")
	}
	return ctx.newLeaf(raw, o.name, o.trainable), nil
}

// Zeros creates a zero-filled leaf.
func (ctx *Context) Zeros(shape tensor.Shape, opts ...TensorOption) (*Tensor, error) {
	return ctx.Full(shape, 0, opts...)
}

// Ones creates a leaf filled with ones.
func (ctx *Context) Ones(shape tensor.Shape, opts ...TensorOption) (*Tensor, error) {
	return ctx.Full(shape, 1, opts...)
}

// FromRaw wraps an existing buffer as a leaf without copying it. The tensor
// takes the caller's reference: releasing either releases both.
func (ctx *Context) FromRaw(raw *tensor.RawTensor, trainable bool, opts ...TensorOption) (*Tensor, error) {
	if err := raw.Check(); err != nil {
		return nil, errors.WithMessage(err, "from raw")
	}
	o := ctx.options(opts)
	return ctx.newLeaf(raw, o.name, trainable || o.trainable), nil
}
