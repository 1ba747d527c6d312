package dashboard

import (
	"io"
	"math"
	"net/http"
	"time"

	forecaster "github.com/aouyang1/go-taxiforecaster"
	"github.com/aouyang1/go-taxiforecaster/transform"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type optionsResponse struct {
	Options    *forecaster.Options   `json:"options"`
	Bounds     forecaster.DateBounds `json:"bounds"`
	Transforms []transform.Kind      `json:"available_transforms"`
	Horizon    int                   `json:"horizon"`
}

type foldResponse struct {
	Fold                int       `json:"fold_number"`
	FirstTrainTimestamp time.Time `json:"first_train_timestamp"`
	LastTrainTimestamp  time.Time `json:"last_train_timestamp"`
	TargetStart         time.Time `json:"target_start_timestamp"`
	TargetEnd           time.Time `json:"target_end_timestamp"`
	NumTargets          int       `json:"n_targets"`
}

type metricResponse struct {
	Segment string   `json:"segment"`
	Fold    int      `json:"fold_number"`
	SMAPE   *float64 `json:"smape"`
	MAE     *float64 `json:"mae"`
	MSE     *float64 `json:"mse"`
}

type forecastResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Segment   string    `json:"segment"`
	Fold      int       `json:"fold_number"`
	Predicted *float64  `json:"predicted"`
	Actual    *float64  `json:"actual"`
}

type backtestResponse struct {
	SampleDays int                `json:"sample_days"`
	SMAPE      *float64           `json:"smape"`
	FoldSMAPE  []*float64         `json:"fold_smape"`
	Metrics    []metricResponse   `json:"metrics"`
	Forecasts  []forecastResponse `json:"forecasts"`
}

// nullable turns NaN into a JSON null
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func writeJSON(c *gin.Context, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(status, jsonContentType, b)
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	writeJSON(c, status, errorResponse{Error: err.Error()})
}

func (s *Server) getOptions(c *gin.Context) {
	withSession(c, func(f Forecaster) {
		writeJSON(c, http.StatusOK, optionsResponse{
			Options:    f.Options(),
			Bounds:     forecaster.DefaultDateBounds,
			Transforms: transform.OptionalKinds,
			Horizon:    forecaster.Horizon,
		})
	})
}

// putOptions replaces the session options with the JSON body overlaid on the current ones
func (s *Server) putOptions(c *gin.Context) {
	withSession(c, func(f Forecaster) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			writeError(c, err)
			return
		}
		opt := f.Options()
		if err := json.Unmarshal(body, opt); err != nil {
			writeJSON(c, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		if err := f.SetOptions(opt); err != nil {
			writeError(c, err)
			return
		}
		writeJSON(c, http.StatusOK, optionsResponse{
			Options:    f.Options(),
			Bounds:     forecaster.DefaultDateBounds,
			Transforms: transform.OptionalKinds,
			Horizon:    forecaster.Horizon,
		})
	})
}

func (s *Server) getFolds(c *gin.Context) {
	withSession(c, func(f Forecaster) {
		masks, err := f.Masks()
		if err != nil {
			writeError(c, err)
			return
		}
		folds := make([]foldResponse, 0, len(masks))
		for i, m := range masks {
			folds = append(folds, foldResponse{
				Fold:                i,
				FirstTrainTimestamp: m.FirstTrainTimestamp,
				LastTrainTimestamp:  m.LastTrainTimestamp,
				TargetStart:         m.TargetStart(),
				TargetEnd:           m.TargetEnd(),
				NumTargets:          len(m.TargetTimestamps),
			})
		}
		writeJSON(c, http.StatusOK, folds)
	})
}

func (s *Server) getBacktest(c *gin.Context) {
	withSession(c, func(f Forecaster) {
		res, err := f.Run()
		if err != nil {
			writeError(c, err)
			return
		}

		resp := backtestResponse{
			SampleDays: res.SampleDays,
			SMAPE:      nullable(res.SMAPE),
			FoldSMAPE:  make([]*float64, 0, len(res.FoldSMAPE)),
			Metrics:    make([]metricResponse, 0, len(res.Backtest.Metrics)),
			Forecasts:  make([]forecastResponse, 0, len(res.Backtest.Forecasts)),
		}
		for _, v := range res.FoldSMAPE {
			resp.FoldSMAPE = append(resp.FoldSMAPE, nullable(v))
		}
		for _, m := range res.Backtest.Metrics {
			resp.Metrics = append(resp.Metrics, metricResponse{
				Segment: m.Segment,
				Fold:    m.Fold,
				SMAPE:   nullable(m.SMAPE),
				MAE:     nullable(m.MAE),
				MSE:     nullable(m.MSE),
			})
		}
		for _, p := range res.Backtest.Forecasts {
			resp.Forecasts = append(resp.Forecasts, forecastResponse{
				Timestamp: p.Timestamp,
				Segment:   p.Segment,
				Fold:      p.Fold,
				Predicted: nullable(p.Predicted),
				Actual:    nullable(p.Actual),
			})
		}
		writeJSON(c, http.StatusOK, resp)
	})
}
