package autodiff

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/tensor"
)

// Einsum contracts operands following an index specification such as
// "ij,jk->ik" (matrix product), "bhqd,bhkd->bhqk" (attention scores) or
// "ii->" (trace). Letters shared between operands are aligned, letters
// missing from the output are summed, and a letter repeated inside one
// operand selects its diagonal. Without "->" the output holds the letters
// seen exactly once, in alphabetical order.
//
// The gradient of each operand is itself a contraction: the incoming
// gradient takes the place of that operand and the operand's subscripts
// become the output.
func Einsum(spec string, operands ...*Tensor) (*Tensor, error) {
	ctx, err := contextOf("einsum", operands...)
	if err != nil {
		return nil, err
	}
	sub, err := tensor.ParseSubscripts(spec, len(operands))
	if err != nil {
		return nil, err
	}
	shapes := make([]tensor.Shape, len(operands))
	for i, op := range operands {
		shapes[i] = op.Shape()
	}
	sizes, err := sub.Sizes(shapes)
	if err != nil {
		return nil, err
	}
	out, err := ctx.Backend().Einsum(sub, sizes, tensor.Promote(dtypes(operands)...), raws(operands)...)
	if err != nil {
		return nil, errors.WithMessagef(err, "einsum %s", sub)
	}
	return ctx.result(out, Contraction, sub.String(), &contractionRule{spec: sub, sizes: sizes}, operands...), nil
}

const (
	// Leading axes of batched matrix products; the matrix axes use i, j, k.
	batchLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	axisLetters  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// MatMul multiplies matrices: (m, k) x (k, n) -> (m, n). Operands of equal
// rank above 2 are batched over their leading axes, which must match.
func MatMul(a, b *Tensor) (*Tensor, error) {
	if _, err := contextOf("matmul", a, b); err != nil {
		return nil, err
	}
	ra, rb := a.Shape().Rank(), b.Shape().Rank()
	if ra < 2 || ra != rb {
		return nil, tensor.ShapeErrorf("matmul: shapes %v and %v", a.Shape(), b.Shape())
	}
	if ra-2 > len(batchLetters) {
		return nil, tensor.ValidationErrorf("matmul: rank %d too large", ra)
	}
	batch := batchLetters[:ra-2]
	return Einsum(batch+"ij,"+batch+"jk->"+batch+"ik", a, b)
}

// Transpose permutes axes: result axis i is input axis axes[i]. Without
// axes the order is reversed.
func Transpose(x *Tensor, axes ...int) (*Tensor, error) {
	if _, err := contextOf("transpose", x); err != nil {
		return nil, err
	}
	rank := x.Shape().Rank()
	if rank > len(axisLetters) {
		return nil, tensor.ValidationErrorf("transpose: rank %d too large", rank)
	}
	if len(axes) == 0 {
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = rank - 1 - i
		}
	}
	if len(axes) != rank {
		return nil, tensor.ValidationErrorf("transpose: %d axes for rank %d", len(axes), rank)
	}
	in := axisLetters[:rank]
	var out strings.Builder
	seen := make([]bool, rank)
	for _, a := range axes {
		if a < 0 {
			a += rank
		}
		if a < 0 || a >= rank || seen[a] {
			return nil, tensor.ValidationErrorf("transpose: axes %v are not a permutation of rank %d", axes, rank)
		}
		seen[a] = true
		out.WriteByte(in[a])
	}
	return Einsum(in+"->"+out.String(), x)
}
