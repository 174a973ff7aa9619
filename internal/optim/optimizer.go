// Package optim implements optimization algorithms that update trainable
// tensors from the gradients accumulated by a backward pass.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//   - Scheduler: learning rate schedules (ConstantLR, StepLR)
//
// Example usage:
//
//	opt := optim.NewSGD([]*autodiff.Tensor{w, b}, optim.SGDConfig{
//	    LR:       0.05,
//	    Momentum: 0.9,
//	})
//
//	for range epochs {
//	    loss := computeLoss(w, b)
//	    opt.ZeroGrad()
//	    if err := loss.Backward(); err != nil {
//	        return err
//	    }
//	    if err := opt.Step(); err != nil {
//	        return err
//	    }
//	}
package optim

import (
	"math"

	"github.com/born-ml/autograd/internal/autodiff"
)

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: apply the accumulated gradients to the parameters
//   - ZeroGrad: clear gradients before the next iteration
//   - LR: the learning rate the next Step will use
type Optimizer interface {
	// Step updates every parameter that holds a gradient. Parameters that
	// never received one are skipped.
	Step() error

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// LR returns the learning rate of the next step.
	LR() float64
}

// Scheduler maps a step index (starting at 0) to a learning rate.
type Scheduler interface {
	LR(step int) float64
}

// ConstantLR is a fixed learning rate.
type ConstantLR float64

// LR implements Scheduler.
func (c ConstantLR) LR(int) float64 {
	return float64(c)
}

// StepLR decays the learning rate by Gamma every StepSize steps.
//
//	lr = Base * Gamma^(step / StepSize)
type StepLR struct {
	Base     float64
	Gamma    float64
	StepSize int
}

// LR implements Scheduler.
func (s StepLR) LR(step int) float64 {
	if s.StepSize <= 0 {
		return s.Base
	}
	return s.Base * math.Pow(s.Gamma, float64(step/s.StepSize))
}

// zeroGrads clears the gradient of every parameter.
func zeroGrads(params []*autodiff.Tensor) {
	for _, p := range params {
		if p != nil {
			p.ZeroGrad()
		}
	}
}
