package autodiff

import (
	"time"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/autograd/internal/tensor"
)

// Backward computes the gradient of t, which must hold exactly one element,
// with respect to every trainable tensor it depends on.
//
// Gradients accumulate: calling Backward again without ZeroGrad adds the new
// gradients to the previous ones.
func (t *Tensor) Backward() error {
	if err := t.data.Check(); err != nil {
		return err
	}
	if t.NumElements() != 1 {
		return tensor.ShapeErrorf("backward: root %v is not scalar; use BackwardWithSeed", t.Shape())
	}
	seed, err := tensor.Full(t.Shape(), t.DType(), 1)
	if err != nil {
		return err
	}
	return t.backward(seed)
}

// BackwardWithSeed runs the backward pass from a root of any shape, starting
// from the given gradient values (row-major, one per element of t).
func (t *Tensor) BackwardWithSeed(seed []float64) error {
	raw, err := tensor.FromSlice(seed, t.Shape(), t.DType())
	if err != nil {
		return errors.WithMessage(err, "backward seed")
	}
	return t.backward(raw)
}

// BackwardWithGrad runs the backward pass from a root of any shape, starting
// from seed, whose shape must equal t's.
func (t *Tensor) BackwardWithGrad(seed *tensor.RawTensor) error {
	if err := seed.Check(); err != nil {
		return err
	}
	if !seed.Shape().Equal(t.Shape()) {
		return tensor.ShapeErrorf("backward: seed %v for root %v", seed.Shape(), t.Shape())
	}
	return t.backward(seed)
}

func (t *Tensor) backward(seed *tensor.RawTensor) error {
	if err := t.data.Check(); err != nil {
		return err
	}
	ctx := t.ctx
	restore := ctx.WithRecording(false)
	defer restore()

	start := time.Now()
	order := topoOrder(t)
	var runErr error
	if caught := exceptions.TryCatch[error](func() {
		runErr = ctx.runBackward(order, seed)
	}); caught != nil {
		return errors.Wrap(caught, "backward")
	}
	klog.V(1).Infof("backward from %s: %d nodes in %s", t, len(order), time.Since(start))
	return runErr
}

// topoOrder returns the nodes reachable from root through operands that
// require a gradient, consumers before producers. It is an iterative
// post-order depth-first search, reversed; each node appears once however
// many paths reach it.
func topoOrder(root *Tensor) []*Tensor {
	type frame struct {
		node *Tensor
		next int // index of the next operand to visit
	}
	visited := map[*Tensor]bool{root: true}
	var post []*Tensor
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		var operands []*Tensor
		if top.node.record != nil {
			operands = top.node.record.operands
		}
		if top.next < len(operands) {
			child := operands[top.next]
			top.next++
			if !visited[child] && child.RequiresGrad() {
				visited[child] = true
				stack = append(stack, frame{node: child})
			}
			continue
		}
		post = append(post, top.node)
		stack = stack[:len(stack)-1]
	}
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// runBackward processes order, consumers first. Each node's gradient is
// complete when it is reached, because every consumer of the node precedes
// it. Intermediate gradients live only in the local map; trainable leaves
// accumulate into their own buffer.
func (ctx *Context) runBackward(order []*Tensor, seed *tensor.RawTensor) error {
	backend := ctx.Backend()
	grads := map[*Tensor]*tensor.RawTensor{order[0]: seed}
	for _, node := range order {
		g, ok := grads[node]
		if !ok {
			continue
		}
		delete(grads, node)

		if node.record == nil {
			if node.trainable {
				if err := node.accumulateGrad(g); err != nil {
					return err
				}
			}
			continue
		}
		if klog.V(2).Enabled() {
			klog.Infof("backward %s %s", node.record.kind, node.record.name)
		}
		contributions, err := node.record.backward(backend, node, g)
		if err != nil {
			return err
		}
		for i, operand := range node.record.operands {
			c := contributions[i]
			if c == nil || !operand.RequiresGrad() {
				continue
			}
			prev, ok := grads[operand]
			if !ok {
				grads[operand] = c
				continue
			}
			sum, err := backend.Zip(prev, c, tensor.Promote(prev.DType(), c.DType()), addFn)
			if err != nil {
				return errors.WithMessagef(err, "accumulate gradient of %s", operand)
			}
			grads[operand] = sum
		}
	}
	return nil
}
