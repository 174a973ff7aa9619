package autodiff

import "github.com/born-ml/autograd/internal/tensor"

// Error kinds, matched with errors.Is.
var (
	ErrShape        = tensor.ErrShape
	ErrValidation   = tensor.ErrValidation
	ErrDomain       = tensor.ErrDomain
	ErrUseAfterFree = tensor.ErrUseAfterFree
)
