// Package boosting implements gradient boosted regression trees with squared loss over
// quantile binned features
package boosting

import (
	"errors"
	"fmt"
	"io"

	"github.com/aouyang1/go-taxiforecaster/floatsunrolled"
	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidOptions     = errors.New("invalid boosting options")
	ErrNoTrainingData     = errors.New("no training data")
	ErrTargetLenMismatch  = errors.New("target length does not match design matrix rows")
	ErrNaNTarget          = errors.New("target contains NaN")
	ErrFeatureLenMismatch = errors.New("number of features does not match the fitted model")
	ErrUnfitModel         = errors.New("model has not been fit")
	ErrInvalidModel       = errors.New("invalid model")
)

// Model is the serializable state of a fitted ensemble
type Model struct {
	NumFeatures  int     `json:"n_features"`
	BaseScore    float64 `json:"base_score"`
	LearningRate float64 `json:"learning_rate"`
	Trees        []Tree  `json:"trees"`
}

// Validate checks that every split references a known feature and every child exists
func (m *Model) Validate() error {
	if m.NumFeatures < 1 {
		return fmt.Errorf("model has %d features, %w", m.NumFeatures, ErrInvalidModel)
	}
	for t, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes, %w", t, ErrInvalidModel)
		}
		for i, n := range tree.Nodes {
			if n.isLeaf() {
				continue
			}
			if n.Feature < 0 || n.Feature >= m.NumFeatures {
				return fmt.Errorf("tree %d node %d splits on feature %d, %w", t, i, n.Feature, ErrInvalidModel)
			}
			// children are always appended after their parent
			if n.Left <= i || n.Left >= len(tree.Nodes) || n.Right <= i || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d has children %d and %d, %w", t, i, n.Left, n.Right, ErrInvalidModel)
			}
		}
	}
	return nil
}

// Save writes the model as json
func (m *Model) Save(w io.Writer) error {
	return json.NewEncoder(w).Encode(m)
}

// LoadModel reads a json model written by Save
func LoadModel(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("unable to decode model, %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Regressor fits and predicts with a boosted tree ensemble
type Regressor struct {
	opt   *Options
	model *Model
}

func New(opt *Options) (*Regressor, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return &Regressor{opt: opt}, nil
}

// NewFromModel creates a regressor that predicts with an already fitted model
func NewFromModel(m *Model) (*Regressor, error) {
	if m == nil {
		return nil, ErrUnfitModel
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	opt := NewDefaultOptions()
	opt.Iterations = max(len(m.Trees), 1)
	opt.LearningRate = m.LearningRate
	return &Regressor{opt: opt, model: m}, nil
}

// Model returns the fitted model or nil if not yet fit
func (r *Regressor) Model() *Model {
	return r.model
}

func columns(x mat.Matrix) [][]float64 {
	_, n := x.Dims()
	cols := make([][]float64, n)
	for j := 0; j < n; j++ {
		cols[j] = mat.Col(nil, j, x)
	}
	return cols
}

// Fit trains the ensemble on the m by n design matrix x against y. Feature values may be
// NaN, target values may not.
func (r *Regressor) Fit(x mat.Matrix, y []float64) error {
	if x == nil {
		return ErrNoTrainingData
	}
	m, n := x.Dims()
	if m == 0 || n == 0 {
		return ErrNoTrainingData
	}
	if len(y) != m {
		return fmt.Errorf("design matrix has %d rows and target has %d values, %w", m, len(y), ErrTargetLenMismatch)
	}
	if floats.HasNaN(y) {
		return ErrNaNTarget
	}

	cols := columns(x)
	b := newBinner(cols, r.opt.MaxBins)
	bins := b.transform(cols)

	base := floats.Sum(y) / float64(m)
	pred := make([]float64, m)
	floats.AddConst(base, pred)

	rows := make([]int, m)
	for i := range rows {
		rows[i] = i
	}

	tb := &treeBuilder{
		opt:      r.opt,
		binner:   b,
		bins:     bins,
		residual: make([]float64, m),
		rowValue: make([]float64, m),
	}

	trees := make([]Tree, 0, r.opt.Iterations)
	for it := 0; it < r.opt.Iterations; it++ {
		floatsunrolled.SubTo(tb.residual, y, pred)
		trees = append(trees, tb.build(rows))
		floatsunrolled.AddScaled(pred, r.opt.LearningRate, tb.rowValue)
	}

	r.model = &Model{
		NumFeatures:  n,
		BaseScore:    base,
		LearningRate: r.opt.LearningRate,
		Trees:        trees,
	}
	return nil
}

// Predict returns one prediction per row of x
func (r *Regressor) Predict(x mat.Matrix) ([]float64, error) {
	if r.model == nil {
		return nil, ErrUnfitModel
	}
	if x == nil {
		return nil, ErrNoTrainingData
	}
	m, n := x.Dims()
	if n != r.model.NumFeatures {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", n, r.model.NumFeatures, ErrFeatureLenMismatch)
	}

	res := make([]float64, m)
	row := make([]float64, n)
	for i := 0; i < m; i++ {
		mat.Row(row, i, x)
		var sum float64
		for t := range r.model.Trees {
			sum += r.model.Trees[t].predict(row)
		}
		res[i] = r.model.BaseScore + r.model.LearningRate*sum
	}
	return res, nil
}
