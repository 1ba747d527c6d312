package dashboard

import (
	"io"

	forecaster "github.com/aouyang1/go-taxiforecaster"
	"github.com/aouyang1/go-taxiforecaster/backtest"
	"github.com/aouyang1/go-taxiforecaster/timedataset"
	"github.com/stretchr/testify/mock"
)

// MockForecaster implements Forecaster for testing
type MockForecaster struct {
	mock.Mock
}

func (m *MockForecaster) Options() *forecaster.Options {
	args := m.Called()
	return args.Get(0).(*forecaster.Options)
}

func (m *MockForecaster) SetOptions(opt *forecaster.Options) error {
	args := m.Called(opt)
	return args.Error(0)
}

func (m *MockForecaster) Sample() (*timedataset.Dataset, error) {
	args := m.Called()
	ds, _ := args.Get(0).(*timedataset.Dataset)
	return ds, args.Error(1)
}

func (m *MockForecaster) Masks() ([]backtest.FoldMask, error) {
	args := m.Called()
	masks, _ := args.Get(0).([]backtest.FoldMask)
	return masks, args.Error(1)
}

func (m *MockForecaster) Run() (*forecaster.Results, error) {
	args := m.Called()
	res, _ := args.Get(0).(*forecaster.Results)
	return res, args.Error(1)
}

func (m *MockForecaster) PlotSample(w io.Writer) error {
	args := m.Called(w)
	return args.Error(0)
}

func (m *MockForecaster) PlotBacktest(w io.Writer, historyLen int) error {
	args := m.Called(w, historyLen)
	return args.Error(0)
}
