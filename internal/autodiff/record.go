package autodiff

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/autodiff/ops"
	"github.com/born-ml/autograd/internal/tensor"
)

// Kind is the family of the operation that produced a tensor.
type Kind int

// Operation kinds.
const (
	Unary Kind = iota
	Binary
	Reduce
	Contraction
	View
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Unary:
		return "unary"
	case Binary:
		return "binary"
	case Reduce:
		return "reduce"
	case Contraction:
		return "contraction"
	case View:
		return "view"
	default:
		return "unknown"
	}
}

// Record describes the operation that produced a tensor: its kind, a rule
// name (such as "exp", "add", "sum" or "ij,jk->ik"), its operands and what
// the backward rule needs. A Record is immutable once created and is owned
// by the tensor it produced.
type Record struct {
	kind     Kind
	name     string
	operands []*Tensor
	rule     rule
}

// Kind returns the operation family.
func (r *Record) Kind() Kind {
	return r.kind
}

// Name returns the rule name.
func (r *Record) Name() string {
	return r.name
}

// Operands returns the operand tensors.
func (r *Record) Operands() []*Tensor {
	return append([]*Tensor(nil), r.operands...)
}

// rule is the closed set of backward rules. Only the types below implement
// it, and backward switches over them exhaustively.
type rule interface {
	isRule()
}

type unaryRule struct {
	op    ops.Unary
	param float64
}

type binaryRule struct {
	op ops.Binary
}

type reduceRule struct {
	op       ops.Reduce
	source   tensor.Shape
	axes     []int // normalized
	keepDims bool
	count    int   // elements collapsed into each output, for mean
	argmax   []int // flat source index of each output, for max
}

type contractionRule struct {
	spec  *tensor.Subscripts
	sizes map[byte]int
}

type viewOp int

const (
	viewReshape viewOp = iota
	viewSlice
)

type viewRule struct {
	op     viewOp
	source tensor.Shape
	axis   int
	start  int
}

func (*unaryRule) isRule()       {}
func (*binaryRule) isRule()      {}
func (*reduceRule) isRule()      {}
func (*contractionRule) isRule() {}
func (*viewRule) isRule()        {}

// backward returns the gradient contribution for each operand given the
// gradient g of out, the tensor this record produced. Entries for operands
// that do not require a gradient are nil.
func (r *Record) backward(backend tensor.Backend, out *Tensor, g *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	grads := make([]*tensor.RawTensor, len(r.operands))
	var err error
	switch rl := r.rule.(type) {
	case *unaryRule:
		grads[0], err = rl.backward(backend, r.operands[0], out, g)
	case *binaryRule:
		err = rl.backward(backend, r.operands, g, grads)
	case *reduceRule:
		grads[0], err = rl.backward(backend, r.operands[0].DType(), g)
	case *contractionRule:
		err = rl.backward(backend, r.operands, g, grads)
	case *viewRule:
		grads[0], err = rl.backward(backend, g)
	default:
		exceptions.Panicf("backward: unknown rule %T for %s", r.rule, r.name)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "backward of %s", r.name)
	}
	return grads, nil
}

// dy/dx from (x, y), then times g.
func (rl *unaryRule) backward(backend tensor.Backend, x, out *Tensor, g *tensor.RawTensor) (*tensor.RawTensor, error) {
	rule := rl.op.Rule()
	deriv, err := backend.Zip(x.data, out.data, tensor.Float64, func(xv, yv float64) float64 {
		return rule.Deriv(xv, yv, rl.param)
	})
	if err != nil {
		return nil, err
	}
	return backend.Zip(g, deriv, x.DType(), mulFn)
}

// Partials on the broadcast shape, times g, then summed down to each
// operand's shape.
func (rl *binaryRule) backward(backend tensor.Backend, operands []*Tensor, g *tensor.RawTensor, grads []*tensor.RawTensor) error {
	a, b := operands[0], operands[1]
	rule := rl.op.Rule()
	partials := [2]func(a, b float64) float64{rule.DA, rule.DB}
	for i, operand := range operands {
		if !operand.RequiresGrad() {
			continue
		}
		partial, err := backend.Zip(a.data, b.data, tensor.Float64, partials[i])
		if err != nil {
			return err
		}
		full, err := backend.Zip(g, partial, tensor.Float64, mulFn)
		if err != nil {
			return err
		}
		grads[i], err = backend.SumTo(full, operand.Shape())
		if err != nil {
			return err
		}
		if grads[i], err = grads[i].AsType(operand.DType()); err != nil {
			return err
		}
	}
	return nil
}

func (rl *reduceRule) backward(backend tensor.Backend, dtype tensor.DataType, g *tensor.RawTensor) (*tensor.RawTensor, error) {
	if rl.op.Routed() {
		return backend.ScatterAdd(g, rl.argmax, rl.source)
	}
	kept, err := g.Reshape(tensor.ReducedShape(rl.source, rl.axes, true))
	if err != nil {
		return nil, err
	}
	spread, err := backend.BroadcastTo(kept, rl.source)
	if err != nil {
		return nil, err
	}
	if rl.op == ops.Mean {
		count := float64(rl.count)
		return backend.Map(spread, dtype, func(v float64) float64 { return v / count })
	}
	return spread, nil
}

// The gradient of operand k is the contraction of g with every other
// operand, with operand k's subscripts as the output.
func (rl *contractionRule) backward(backend tensor.Backend, operands []*Tensor, g *tensor.RawTensor, grads []*tensor.RawTensor) error {
	for k, operand := range operands {
		if !operand.RequiresGrad() {
			continue
		}
		inputs := make([]*tensor.RawTensor, 0, len(operands))
		inputs = append(inputs, g)
		for i, other := range operands {
			if i != k {
				inputs = append(inputs, other.data)
			}
		}
		var err error
		grads[k], err = backend.Einsum(rl.spec.Backward(k), rl.sizes, operand.DType(), inputs...)
		if err != nil {
			return err
		}
	}
	return nil
}

func (rl *viewRule) backward(backend tensor.Backend, g *tensor.RawTensor) (*tensor.RawTensor, error) {
	switch rl.op {
	case viewReshape:
		return g.Reshape(rl.source)
	case viewSlice:
		return backend.Embed(g, rl.source, rl.axis, rl.start)
	default:
		exceptions.Panicf("backward: unknown view op %d", rl.op)
		return nil, nil
	}
}

func mulFn(a, b float64) float64 { return a * b }

func addFn(a, b float64) float64 { return a + b }
