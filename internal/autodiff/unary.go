package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/autodiff/ops"
	"github.com/born-ml/autograd/internal/tensor"
)

func unary(x *Tensor, op ops.Unary, param float64) (*Tensor, error) {
	rule := op.Rule()
	ctx, err := contextOf(rule.Name, x)
	if err != nil {
		return nil, err
	}
	if rule.InDomain != nil {
		for i, v := range x.data.Data() {
			if !rule.InDomain(v, param) {
				if op == ops.Pow {
					return nil, tensor.DomainErrorf("pow: negative base %g at %d with non-integer exponent %g", v, i, param)
				}
				return nil, tensor.DomainErrorf("%s: input %g at %d is outside the domain", rule.Name, v, i)
			}
		}
	}
	out, err := ctx.Backend().Map(x.data, x.DType(), func(v float64) float64 {
		return rule.Forward(v, param)
	})
	if err != nil {
		return nil, errors.WithMessage(err, rule.Name)
	}
	return ctx.result(out, Unary, rule.Name, &unaryRule{op: op, param: param}, x), nil
}

// Neg returns -x.
func Neg(x *Tensor) (*Tensor, error) { return unary(x, ops.Neg, 0) }

// Exp returns e^x.
func Exp(x *Tensor) (*Tensor, error) { return unary(x, ops.Exp, 0) }

// Log returns the natural logarithm. log(0) is -Inf with derivative +Inf;
// negative inputs fail with ErrDomain.
func Log(x *Tensor) (*Tensor, error) { return unary(x, ops.Log, 0) }

// Sqrt returns the square root. The derivative at 0 is +Inf; negative
// inputs fail with ErrDomain.
func Sqrt(x *Tensor) (*Tensor, error) { return unary(x, ops.Sqrt, 0) }

// Pow returns x^p. A negative base with a non-integer exponent fails with
// ErrDomain.
func Pow(x *Tensor, p float64) (*Tensor, error) { return unary(x, ops.Pow, p) }

// Sin returns sin(x).
func Sin(x *Tensor) (*Tensor, error) { return unary(x, ops.Sin, 0) }

// Cos returns cos(x).
func Cos(x *Tensor) (*Tensor, error) { return unary(x, ops.Cos, 0) }

// Tanh returns tanh(x).
func Tanh(x *Tensor) (*Tensor, error) { return unary(x, ops.Tanh, 0) }

// Sigmoid returns 1 / (1 + e^-x).
func Sigmoid(x *Tensor) (*Tensor, error) { return unary(x, ops.Sigmoid, 0) }

// ReLU returns max(x, 0). Its derivative at 0 is 0.
func ReLU(x *Tensor) (*Tensor, error) { return unary(x, ops.MaxScalar, 0) }

// GeLU returns the tanh approximation of the Gaussian error linear unit.
func GeLU(x *Tensor) (*Tensor, error) { return unary(x, ops.GeLU, 0) }

// Abs returns |x|. Its derivative at 0 is 0.
func Abs(x *Tensor) (*Tensor, error) { return unary(x, ops.Abs, 0) }

// AddScalar returns x + c.
func AddScalar(x *Tensor, c float64) (*Tensor, error) { return unary(x, ops.AddScalar, c) }

// MulScalar returns x * c.
func MulScalar(x *Tensor, c float64) (*Tensor, error) { return unary(x, ops.MulScalar, c) }

// MaxScalar returns max(x, c). Ties route no gradient to x.
func MaxScalar(x *Tensor, c float64) (*Tensor, error) { return unary(x, ops.MaxScalar, c) }
