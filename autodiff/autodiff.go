// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation over
// n-dimensional tensors.
//
// Every operation on tensors that require gradients records how its result
// was produced. Calling Backward on a one-element result walks that graph
// once in reverse topological order and accumulates gradients into the
// trainable leaves it reaches.
//
// Example:
//
//	import (
//	    "github.com/born-ml/autograd/autodiff"
//	    "github.com/born-ml/autograd/tensor"
//	)
//
//	func main() {
//	    ctx := autodiff.NewContext(autodiff.WithDType(tensor.Float64))
//	    w, _ := ctx.Parameter([]float64{1, 2, 3}, tensor.Shape{3})
//	    x, _ := ctx.FromSlice([]float64{4, 5, 6}, tensor.Shape{3})
//
//	    var loss *autodiff.Tensor
//	    err := autodiff.Catch(func() {
//	        loss = w.Mul(x).Sum()
//	    })
//	    if err == nil {
//	        err = loss.Backward()
//	    }
//	    fmt.Println(w.GradData()) // [4 5 6]
//	}
package autodiff

import (
	"github.com/born-ml/autograd/internal/autodiff"
	"github.com/born-ml/autograd/tensor"
)

// Context owns the recording state, data type and backend of a graph.
type Context = autodiff.Context

// Config holds a Context's settings.
type Config = autodiff.Config

// Option configures a Context.
type Option = autodiff.Option

// Tensor is a node of the computational graph.
type Tensor = autodiff.Tensor

// TensorOption configures a tensor created by a Context.
type TensorOption = autodiff.TensorOption

// Record describes the operation that produced a tensor.
type Record = autodiff.Record

// Kind classifies a Record.
type Kind = autodiff.Kind

// Record kinds.
const (
	Unary       Kind = autodiff.Unary
	Binary      Kind = autodiff.Binary
	Reduce      Kind = autodiff.Reduce
	Contraction Kind = autodiff.Contraction
	View        Kind = autodiff.View
)

// Tracker follows the live intermediate tensors of a Context.
type Tracker = autodiff.Tracker

// Stats summarizes the live graph.
type Stats = autodiff.Stats

// Error kinds, matched with errors.Is.
var (
	ErrShape        = autodiff.ErrShape
	ErrValidation   = autodiff.ErrValidation
	ErrDomain       = autodiff.ErrDomain
	ErrUseAfterFree = autodiff.ErrUseAfterFree
)

// NewContext creates a Context. Without options it records, tracks live
// nodes, uses Float32 and the CPU backend.
func NewContext(opts ...Option) *Context {
	return autodiff.NewContext(opts...)
}

// DefaultConfig returns the configuration NewContext starts from.
func DefaultConfig() Config {
	return autodiff.DefaultConfig()
}

// WithDType sets the default data type of created tensors.
func WithDType(dtype tensor.DataType) Option {
	return autodiff.WithDType(dtype)
}

// WithRecordingEnabled sets the initial recording state.
func WithRecordingEnabled(enabled bool) Option {
	return autodiff.WithRecordingEnabled(enabled)
}

// WithLivenessTracking enables or disables the live node tracker.
func WithLivenessTracking(enabled bool) Option {
	return autodiff.WithLivenessTracking(enabled)
}

// WithBackend sets the kernel backend.
func WithBackend(backend tensor.Backend) Option {
	return autodiff.WithBackend(backend)
}

// Named names a created tensor.
func Named(name string) TensorOption {
	return autodiff.Named(name)
}

// OfDType overrides the Context's data type for a created tensor.
func OfDType(dtype tensor.DataType) TensorOption {
	return autodiff.OfDType(dtype)
}

// Trainable marks a created tensor as a trainable leaf.
func Trainable() TensorOption {
	return autodiff.Trainable()
}

// Catch runs fn and returns the error of any failing fluent call inside it.
func Catch(fn func()) error {
	return autodiff.Catch(fn)
}

// Elementwise operations.

// Neg returns -x.
func Neg(x *Tensor) (*Tensor, error) { return autodiff.Neg(x) }

// Exp returns e^x.
func Exp(x *Tensor) (*Tensor, error) { return autodiff.Exp(x) }

// Log returns the natural logarithm of x, which must be positive.
func Log(x *Tensor) (*Tensor, error) { return autodiff.Log(x) }

// Sqrt returns the square root of x, which must be non-negative.
func Sqrt(x *Tensor) (*Tensor, error) { return autodiff.Sqrt(x) }

// Pow returns x^p.
func Pow(x *Tensor, p float64) (*Tensor, error) { return autodiff.Pow(x, p) }

// Sin returns sin(x).
func Sin(x *Tensor) (*Tensor, error) { return autodiff.Sin(x) }

// Cos returns cos(x).
func Cos(x *Tensor) (*Tensor, error) { return autodiff.Cos(x) }

// Tanh returns tanh(x).
func Tanh(x *Tensor) (*Tensor, error) { return autodiff.Tanh(x) }

// Sigmoid returns 1 / (1 + e^-x).
func Sigmoid(x *Tensor) (*Tensor, error) { return autodiff.Sigmoid(x) }

// ReLU returns max(x, 0).
func ReLU(x *Tensor) (*Tensor, error) { return autodiff.ReLU(x) }

// GeLU returns the tanh approximation of the Gaussian error linear unit.
func GeLU(x *Tensor) (*Tensor, error) { return autodiff.GeLU(x) }

// Abs returns |x|.
func Abs(x *Tensor) (*Tensor, error) { return autodiff.Abs(x) }

// AddScalar returns x + c.
func AddScalar(x *Tensor, c float64) (*Tensor, error) { return autodiff.AddScalar(x, c) }

// MulScalar returns x * c.
func MulScalar(x *Tensor, c float64) (*Tensor, error) { return autodiff.MulScalar(x, c) }

// MaxScalar returns max(x, c).
func MaxScalar(x *Tensor, c float64) (*Tensor, error) { return autodiff.MaxScalar(x, c) }

// Add returns a + b with broadcasting.
func Add(a, b *Tensor) (*Tensor, error) { return autodiff.Add(a, b) }

// Sub returns a - b with broadcasting.
func Sub(a, b *Tensor) (*Tensor, error) { return autodiff.Sub(a, b) }

// Mul returns a * b with broadcasting.
func Mul(a, b *Tensor) (*Tensor, error) { return autodiff.Mul(a, b) }

// Div returns a / b with broadcasting.
func Div(a, b *Tensor) (*Tensor, error) { return autodiff.Div(a, b) }

// Maximum returns the elementwise maximum with broadcasting.
func Maximum(a, b *Tensor) (*Tensor, error) { return autodiff.Maximum(a, b) }

// Minimum returns the elementwise minimum with broadcasting.
func Minimum(a, b *Tensor) (*Tensor, error) { return autodiff.Minimum(a, b) }

// Reductions. Without axes they reduce every axis.

// Sum sums over axes.
func Sum(x *Tensor, axes ...int) (*Tensor, error) { return autodiff.Sum(x, axes...) }

// SumKeepDims sums over axes, keeping them with size 1.
func SumKeepDims(x *Tensor, axes ...int) (*Tensor, error) { return autodiff.SumKeepDims(x, axes...) }

// Mean averages over axes.
func Mean(x *Tensor, axes ...int) (*Tensor, error) { return autodiff.Mean(x, axes...) }

// MeanKeepDims averages over axes, keeping them with size 1.
func MeanKeepDims(x *Tensor, axes ...int) (*Tensor, error) { return autodiff.MeanKeepDims(x, axes...) }

// Max keeps the maximum over axes.
func Max(x *Tensor, axes ...int) (*Tensor, error) { return autodiff.Max(x, axes...) }

// MaxKeepDims keeps the maximum over axes, keeping them with size 1.
func MaxKeepDims(x *Tensor, axes ...int) (*Tensor, error) { return autodiff.MaxKeepDims(x, axes...) }

// Contractions and views.

// Einsum evaluates an einsum specification such as "ij,jk->ik".
func Einsum(spec string, operands ...*Tensor) (*Tensor, error) {
	return autodiff.Einsum(spec, operands...)
}

// MatMul multiplies the last two axes, batching over the leading ones.
func MatMul(a, b *Tensor) (*Tensor, error) { return autodiff.MatMul(a, b) }

// Transpose permutes axes, reversing them when none are given.
func Transpose(x *Tensor, axes ...int) (*Tensor, error) { return autodiff.Transpose(x, axes...) }

// Reshape returns a view of x with a new shape; one dimension may be -1.
func Reshape(x *Tensor, shape ...int) (*Tensor, error) { return autodiff.Reshape(x, shape...) }

// Slice returns the range [start, end) along axis.
func Slice(x *Tensor, axis, start, end int) (*Tensor, error) {
	return autodiff.Slice(x, axis, start, end)
}

// Split divides axis into n equal parts.
func Split(x *Tensor, n, axis int) ([]*Tensor, error) { return autodiff.Split(x, n, axis) }
