package models

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

type OLSOptions struct {
	FitIntercept bool `json:"fit_intercept"`
}

func NewDefaultOLSOptions() *OLSOptions {
	return &OLSOptions{
		FitIntercept: true,
	}
}

// OLSRegression computes ordinary least squares using QR factorization
type OLSRegression struct {
	opt       *OLSOptions
	coef      []float64
	intercept float64
	fit       bool
}

func NewOLSRegression(opt *OLSOptions) *OLSRegression {
	if opt == nil {
		opt = NewDefaultOLSOptions()
	}
	return &OLSRegression{
		opt: opt,
	}
}

func (o *OLSRegression) withIntercept(x mat.Matrix) mat.Matrix {
	if !o.opt.FitIntercept {
		return x
	}
	m, n := x.Dims()
	res := mat.NewDense(m, n+1, nil)
	ones := make([]float64, m)
	floats.AddConst(1.0, ones)
	res.SetCol(0, ones)
	res.Slice(0, m, 1, n+1).(*mat.Dense).Copy(x)
	return res
}

func (o *OLSRegression) Fit(x mat.Matrix, y []float64) error {
	if o.opt == nil {
		return ErrNoOptions
	}
	if x == nil {
		return ErrNoDesignMatrix
	}
	if y == nil {
		return ErrNoTargetArray
	}
	m, _ := x.Dims()
	if len(y) != m {
		return fmt.Errorf("design matrix has %d rows and target has %d values, %w", m, len(y), ErrTargetLenMismatch)
	}

	x = o.withIntercept(x)
	_, n := x.Dims()
	if m < n {
		return fmt.Errorf("%d observations for %d coefficients, %w", m, n, ErrSingularMatrix)
	}

	qr := new(mat.QR)
	qr.Factorize(x)

	var c mat.Dense
	if err := qr.SolveTo(&c, false, mat.NewVecDense(m, y)); err != nil {
		return fmt.Errorf("%w, %w", ErrSingularMatrix, err)
	}
	coef := mat.Col(nil, 0, &c)

	if o.opt.FitIntercept {
		o.intercept = coef[0]
		o.coef = coef[1:]
	} else {
		o.coef = coef
	}
	o.fit = true
	return nil
}

func (o *OLSRegression) Predict(x mat.Matrix) ([]float64, error) {
	if !o.fit {
		return nil, ErrUnfitModel
	}
	if x == nil {
		return nil, ErrNoDesignMatrix
	}
	m, n := x.Dims()
	if n != len(o.coef) {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", n, len(o.coef), ErrFeatureLenMismatch)
	}

	var res mat.VecDense
	res.MulVec(x, mat.NewVecDense(n, o.coef))
	out := make([]float64, m)
	for i := range out {
		out[i] = res.AtVec(i) + o.intercept
	}
	return out, nil
}

// Score returns the coefficient of determination of the predictions against y
func (o *OLSRegression) Score(x mat.Matrix, y []float64) (float64, error) {
	res, err := o.Predict(x)
	if err != nil {
		return 0.0, err
	}
	if len(res) != len(y) {
		return 0.0, fmt.Errorf("design matrix has %d rows and target has %d values, %w", len(res), len(y), ErrTargetLenMismatch)
	}
	return stat.RSquaredFrom(res, y, nil), nil
}

func (o *OLSRegression) Intercept() float64 {
	return o.intercept
}

func (o *OLSRegression) Coef() []float64 {
	c := make([]float64, len(o.coef))
	copy(c, o.coef)
	return c
}
