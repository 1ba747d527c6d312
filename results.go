package forecaster

import (
	"github.com/aouyang1/go-taxiforecaster/backtest"
	"github.com/aouyang1/go-taxiforecaster/pipeline"
	"github.com/aouyang1/go-taxiforecaster/timedataset"
)

// Results is the outcome of one session run
type Results struct {
	Sample     *timedataset.Dataset     `json:"-"`
	SampleDays int                      `json:"sample_days"`
	Masks      []backtest.FoldMask      `json:"masks"`
	Backtest   *pipeline.BacktestResult `json:"backtest"`
	FoldSMAPE  []float64                `json:"fold_smape"`
	SMAPE      float64                  `json:"smape"`
}
