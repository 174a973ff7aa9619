package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/autodiff/ops"
	"github.com/born-ml/autograd/internal/tensor"
)

// binary applies an elementwise rule with NumPy broadcasting. The result
// takes the most precise operand type.
func binary(a, b *Tensor, op ops.Binary) (*Tensor, error) {
	rule := op.Rule()
	ctx, err := contextOf(rule.Name, a, b)
	if err != nil {
		return nil, err
	}
	out, err := ctx.Backend().Zip(a.data, b.data, tensor.Promote(a.DType(), b.DType()), rule.Forward)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s %v and %v", rule.Name, a.Shape(), b.Shape())
	}
	return ctx.result(out, Binary, rule.Name, &binaryRule{op: op}, a, b), nil
}

// Add returns a + b.
func Add(a, b *Tensor) (*Tensor, error) { return binary(a, b, ops.Add) }

// Sub returns a - b.
func Sub(a, b *Tensor) (*Tensor, error) { return binary(a, b, ops.Sub) }

// Mul returns the elementwise product.
func Mul(a, b *Tensor) (*Tensor, error) { return binary(a, b, ops.Mul) }

// Div returns a / b. Division by zero follows IEEE 754.
func Div(a, b *Tensor) (*Tensor, error) { return binary(a, b, ops.Div) }

// Maximum returns the elementwise maximum. Ties route the gradient to a.
func Maximum(a, b *Tensor) (*Tensor, error) { return binary(a, b, ops.Maximum) }

// Minimum returns the elementwise minimum. Ties route the gradient to a.
func Minimum(a, b *Tensor) (*Tensor, error) { return binary(a, b, ops.Minimum) }
