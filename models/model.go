// Package models defines the regressor contract shared by the forecasting pipeline and holds
// the least squares solver used for trend fitting
package models

import (
	"gonum.org/v1/gonum/mat"
)

// Regressor fits a design matrix of m observations by n features to m target values
type Regressor interface {
	Fit(x mat.Matrix, y []float64) error
	Predict(x mat.Matrix) ([]float64, error)
}
