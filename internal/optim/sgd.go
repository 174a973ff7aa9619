package optim

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/autograd/internal/autodiff"
)

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// The learning rate of step k is Schedule.LR(k). Updated values are written
// back through Tensor.SetData, so they are rounded to the parameter's type.
type SGD struct {
	params     []*autodiff.Tensor
	momentum   float64
	schedule   Scheduler
	step       int
	velocities map[*autodiff.Tensor][]float64
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64   // Learning rate (default: 0.01), ignored when Schedule is set
	Momentum float64   // Momentum factor (default: 0.0, range: [0, 1))
	Schedule Scheduler // Learning rate schedule (default: ConstantLR(LR))
}

// NewSGD creates a new SGD optimizer over params.
func NewSGD(params []*autodiff.Tensor, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.Schedule == nil {
		config.Schedule = ConstantLR(config.LR)
	}
	return &SGD{
		params:     params,
		momentum:   config.Momentum,
		schedule:   config.Schedule,
		velocities: make(map[*autodiff.Tensor][]float64),
	}
}

// Step performs a single optimization step.
func (s *SGD) Step() error {
	lr := s.LR()
	for i, param := range s.params {
		if param == nil {
			continue
		}
		grad := param.GradData()
		if grad == nil {
			continue
		}

		update := grad
		if s.momentum != 0 {
			velocity, ok := s.velocities[param]
			if !ok {
				velocity = make([]float64, len(grad))
				s.velocities[param] = velocity
			}
			for j, g := range grad {
				velocity[j] = s.momentum*velocity[j] + g
			}
			update = velocity
		}

		values := param.Value()
		for j := range values {
			values[j] -= lr * update[j]
		}
		if err := param.SetData(values); err != nil {
			return errors.WithMessagef(err, "sgd step %d: parameter %d (%s)", s.step, i, param.Name())
		}
	}
	klog.V(2).Infof("sgd step %d: lr=%g, %d parameters", s.step, lr, len(s.params))
	s.step++
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD) ZeroGrad() {
	zeroGrads(s.params)
}

// LR returns the learning rate of the next step.
func (s *SGD) LR() float64 {
	return s.schedule.LR(s.step)
}

// Steps returns how many steps have been taken.
func (s *SGD) Steps() int {
	return s.step
}
