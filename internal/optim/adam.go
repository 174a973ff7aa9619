package optim

import (
	"math"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/autograd/internal/autodiff"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²
//	m_hat = m_t / (1 - beta1^t)
//	v_hat = v_t / (1 - beta2^t)
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)
//
// The moment estimates are kept in float64 regardless of the parameter's type.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	params   []*autodiff.Tensor
	beta1    float64
	beta2    float64
	eps      float64
	schedule Scheduler
	t        int // Timestep for bias correction
	m        map[*autodiff.Tensor][]float64
	v        map[*autodiff.Tensor][]float64
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR       float64    // Learning rate (default: 0.001), ignored when Schedule is set
	Betas    [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps      float64    // Term for numerical stability (default: 1e-8)
	Schedule Scheduler  // Learning rate schedule (default: ConstantLR(LR))
}

// NewAdam creates a new Adam optimizer, filling unset hyperparameters with
// their defaults.
func NewAdam(params []*autodiff.Tensor, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	if config.Schedule == nil {
		config.Schedule = ConstantLR(config.LR)
	}
	return &Adam{
		params:   params,
		beta1:    config.Betas[0],
		beta2:    config.Betas[1],
		eps:      config.Eps,
		schedule: config.Schedule,
		m:        make(map[*autodiff.Tensor][]float64),
		v:        make(map[*autodiff.Tensor][]float64),
	}
}

// Step performs a single optimization step. Parameters with no gradient are
// skipped and keep their moments.
func (a *Adam) Step() error {
	lr := a.LR()
	a.t++
	biasCorrection1 := 1 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1 - math.Pow(a.beta2, float64(a.t))

	for i, param := range a.params {
		if param == nil {
			continue
		}
		grad := param.GradData()
		if grad == nil {
			continue
		}

		m, ok := a.m[param]
		if !ok {
			m = make([]float64, len(grad))
			a.m[param] = m
		}
		v, ok := a.v[param]
		if !ok {
			v = make([]float64, len(grad))
			a.v[param] = v
		}

		values := param.Value()
		for j := range values {
			g := grad[j]
			m[j] = a.beta1*m[j] + (1-a.beta1)*g
			v[j] = a.beta2*v[j] + (1-a.beta2)*g*g
			mHat := m[j] / biasCorrection1
			vHat := v[j] / biasCorrection2
			values[j] -= lr * mHat / (math.Sqrt(vHat) + a.eps)
		}
		if err := param.SetData(values); err != nil {
			return errors.WithMessagef(err, "adam step %d: parameter %d (%s)", a.t, i, param.Name())
		}
	}
	klog.V(2).Infof("adam step %d: lr=%g, %d parameters", a.t, lr, len(a.params))
	return nil
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam) ZeroGrad() {
	zeroGrads(a.params)
}

// LR returns the learning rate of the next step.
func (a *Adam) LR() float64 {
	return a.schedule.LR(a.t)
}
