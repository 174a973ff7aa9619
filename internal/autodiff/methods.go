package autodiff

import (
	"github.com/gomlx/exceptions"
)

// Fluent API. Each method calls the package function of the same name and
// panics with its error, so expressions chain:
//
//	err := autodiff.Catch(func() {
//		loss = x.MatMul(w).Add(b).ReLU().Mean()
//	})

// Catch runs fn and returns the error of any failing fluent call made
// inside it. Panics that are not errors are propagated.
func Catch(fn func()) error {
	return exceptions.TryCatch[error](fn)
}

func orPanic(t *Tensor, err error) *Tensor {
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Tensor) Neg() *Tensor                { return orPanic(Neg(t)) }
func (t *Tensor) Exp() *Tensor                { return orPanic(Exp(t)) }
func (t *Tensor) Log() *Tensor                { return orPanic(Log(t)) }
func (t *Tensor) Sqrt() *Tensor               { return orPanic(Sqrt(t)) }
func (t *Tensor) Pow(p float64) *Tensor       { return orPanic(Pow(t, p)) }
func (t *Tensor) Sin() *Tensor                { return orPanic(Sin(t)) }
func (t *Tensor) Cos() *Tensor                { return orPanic(Cos(t)) }
func (t *Tensor) Tanh() *Tensor               { return orPanic(Tanh(t)) }
func (t *Tensor) Sigmoid() *Tensor            { return orPanic(Sigmoid(t)) }
func (t *Tensor) ReLU() *Tensor               { return orPanic(ReLU(t)) }
func (t *Tensor) GeLU() *Tensor               { return orPanic(GeLU(t)) }
func (t *Tensor) Abs() *Tensor                { return orPanic(Abs(t)) }
func (t *Tensor) AddScalar(c float64) *Tensor { return orPanic(AddScalar(t, c)) }
func (t *Tensor) MulScalar(c float64) *Tensor { return orPanic(MulScalar(t, c)) }
func (t *Tensor) MaxScalar(c float64) *Tensor { return orPanic(MaxScalar(t, c)) }

func (t *Tensor) Add(other *Tensor) *Tensor     { return orPanic(Add(t, other)) }
func (t *Tensor) Sub(other *Tensor) *Tensor     { return orPanic(Sub(t, other)) }
func (t *Tensor) Mul(other *Tensor) *Tensor     { return orPanic(Mul(t, other)) }
func (t *Tensor) Div(other *Tensor) *Tensor     { return orPanic(Div(t, other)) }
func (t *Tensor) Maximum(other *Tensor) *Tensor { return orPanic(Maximum(t, other)) }
func (t *Tensor) Minimum(other *Tensor) *Tensor { return orPanic(Minimum(t, other)) }
func (t *Tensor) MatMul(other *Tensor) *Tensor  { return orPanic(MatMul(t, other)) }

func (t *Tensor) Sum(axes ...int) *Tensor          { return orPanic(Sum(t, axes...)) }
func (t *Tensor) SumKeepDims(axes ...int) *Tensor  { return orPanic(SumKeepDims(t, axes...)) }
func (t *Tensor) Mean(axes ...int) *Tensor         { return orPanic(Mean(t, axes...)) }
func (t *Tensor) MeanKeepDims(axes ...int) *Tensor { return orPanic(MeanKeepDims(t, axes...)) }
func (t *Tensor) Max(axes ...int) *Tensor          { return orPanic(Max(t, axes...)) }
func (t *Tensor) MaxKeepDims(axes ...int) *Tensor  { return orPanic(MaxKeepDims(t, axes...)) }

func (t *Tensor) Transpose(axes ...int) *Tensor      { return orPanic(Transpose(t, axes...)) }
func (t *Tensor) Reshape(shape ...int) *Tensor       { return orPanic(Reshape(t, shape...)) }
func (t *Tensor) Slice(axis, start, end int) *Tensor { return orPanic(Slice(t, axis, start, end)) }

// Split is the fluent form of the package function Split.
func (t *Tensor) Split(n, axis int) []*Tensor {
	parts, err := Split(t, n, axis)
	if err != nil {
		panic(err)
	}
	return parts
}
