package models

import (
	"errors"
)

var (
	ErrNoOptions          = errors.New("no initialized model options")
	ErrTargetLenMismatch  = errors.New("target length does not match design matrix rows")
	ErrNoDesignMatrix     = errors.New("no design matrix")
	ErrNoTargetArray      = errors.New("no target array")
	ErrFeatureLenMismatch = errors.New("number of features does not match number of model coefficients")
	ErrUnfitModel         = errors.New("model has not been fit")
	ErrSingularMatrix     = errors.New("design matrix is rank deficient")
)
