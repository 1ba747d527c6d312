package dashboard

import (
	"fmt"
	"html/template"
	"math"
	"net/http"
	"slices"
	"time"

	forecaster "github.com/aouyang1/go-taxiforecaster"
	"github.com/aouyang1/go-taxiforecaster/transform"
)

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format(time.DateOnly)
	},
	"hour": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
	"percent": formatPercent,
}

func formatPercent(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v)
}

type slider struct {
	Name  string
	Label string
	Min   int
	Max   int
	Value int
}

type choice struct {
	Name     string
	Selected bool
}

type foldRow struct {
	Fold       int
	TrainStart time.Time
	TrainEnd   time.Time
	TestStart  time.Time
	TestEnd    time.Time
	SMAPE      float64
}

// pageData is everything the index template renders
type pageData struct {
	Options    *forecaster.Options
	Bounds     forecaster.DateBounds
	Features   []slider
	Validation []slider
	Transforms []choice

	HasSample  bool
	SampleDays int
	HasResults bool
	SMAPE      float64
	Folds      []foldRow

	Error   string
	Warning string

	err error
}

func newPage(opt *forecaster.Options) *pageData {
	transforms := make([]choice, 0, len(transform.OptionalKinds))
	for _, k := range transform.OptionalKinds {
		transforms = append(transforms, choice{
			Name:     k.String(),
			Selected: slices.Contains(opt.Transforms, k),
		})
	}
	return &pageData{
		Options: opt,
		Bounds:  forecaster.DefaultDateBounds,
		Features: []slider{
			{
				Name:  fieldLags,
				Label: "Select the number of lags (days)",
				Min:   forecaster.MinNumberOfLags,
				Max:   forecaster.MaxNumberOfLags,
				Value: opt.NumberOfLags,
			},
			{
				Name:  fieldMeanWindow,
				Label: "Select the rolling mean window size (hours)",
				Min:   forecaster.MinMeanWindow,
				Max:   forecaster.MaxMeanWindow,
				Value: opt.MeanWindow,
			},
		},
		Validation: []slider{
			{
				Name:  fieldWindowSize,
				Label: "Select the backtest window size",
				Min:   forecaster.MinWindowSize,
				Max:   forecaster.MaxWindowSize,
				Value: opt.BacktestWindowSize,
			},
			{
				Name:  fieldNumFolds,
				Label: "Select the number of folds",
				Min:   forecaster.MinNumFolds,
				Max:   forecaster.MaxNumFolds,
				Value: opt.NumFolds,
			},
		},
		Transforms: transforms,
	}
}

// evaluate samples and backtests the session filling in the results or the message of
// the first failure. Returns the http status of the page.
func (p *pageData) evaluate(f Forecaster) int {
	sample, err := f.Sample()
	if err != nil {
		return p.fail(err)
	}
	p.HasSample = true
	p.SampleDays = sample.Days()

	res, err := f.Run()
	if err != nil {
		return p.fail(err)
	}
	p.HasResults = true
	p.SMAPE = res.SMAPE
	for i, fold := range res.Backtest.Folds {
		row := foldRow{
			Fold:       fold.Fold,
			TrainStart: fold.TrainStart,
			TrainEnd:   fold.TrainEnd,
			TestStart:  fold.TestStart,
			TestEnd:    fold.TestEnd,
			SMAPE:      math.NaN(),
		}
		if i < len(res.FoldSMAPE) {
			row.SMAPE = res.FoldSMAPE[i]
		}
		p.Folds = append(p.Folds, row)
	}
	return http.StatusOK
}

func (p *pageData) fail(err error) int {
	status := statusFor(err)
	switch status {
	case http.StatusBadRequest:
		p.Error = err.Error()
	case http.StatusUnprocessableEntity:
		p.Warning = err.Error()
	default:
		p.err = err
	}
	return status
}
