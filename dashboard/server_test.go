package dashboard

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	forecaster "github.com/aouyang1/go-taxiforecaster"
	"github.com/aouyang1/go-taxiforecaster/backtest"
	"github.com/aouyang1/go-taxiforecaster/pipeline"
	"github.com/aouyang1/go-taxiforecaster/timedataset"
	"github.com/aouyang1/go-taxiforecaster/transform"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2018, 5, 1, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, f *MockForecaster) (*Server, *int) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var created int
	store := NewStore(func() (Forecaster, error) {
		created++
		return f, nil
	}, time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, nil, logger), &created
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func testSample(t *testing.T) *timedataset.Dataset {
	ts := timedataset.GenerateHourlyT(testStart, 49)
	y := make([]float64, len(ts))
	for i := range y {
		y[i] = float64(i)
	}
	ds, err := timedataset.NewSingleSegmentDataset(timedataset.DefaultSegment, ts, y)
	require.NoError(t, err)
	return ds
}

func testResults() *forecaster.Results {
	testTime := testStart.Add(25 * time.Hour)
	return &forecaster.Results{
		SampleDays: 2,
		SMAPE:      12.345,
		FoldSMAPE:  []float64{12.345},
		Backtest: &pipeline.BacktestResult{
			Folds: []pipeline.FoldInfo{{
				Fold:       0,
				TrainStart: testStart,
				TrainEnd:   testStart.Add(24 * time.Hour),
				TestStart:  testTime,
				TestEnd:    testStart.Add(48 * time.Hour),
			}},
			Metrics: []pipeline.MetricRow{
				{Segment: timedataset.DefaultSegment, Fold: 0, SMAPE: 12.345, MAE: 1, MSE: math.NaN()},
			},
			Forecasts: []pipeline.ForecastPoint{
				{Timestamp: testTime, Segment: timedataset.DefaultSegment, Predicted: 3, Actual: math.NaN()},
			},
		},
	}
}

func TestHealth(t *testing.T) {
	s, created := newTestServer(t, &MockForecaster{})

	w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","sessions":0}`, w.Body.String())
	assert.Equal(t, 0, *created)
	assert.Empty(t, w.Result().Cookies())
}

func TestIndex(t *testing.T) {
	f := &MockForecaster{}
	f.On("Options").Return(forecaster.NewDefaultOptions())
	f.On("Sample").Return(testSample(t), nil)
	f.On("Run").Return(testResults(), nil)

	s, created := newTestServer(t, f)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Sample of 2 days total")
	assert.Contains(t, body, "Averages SMAPE: 12.35%")
	assert.Contains(t, body, `value="2018-05-01"`)
	assert.Contains(t, body, "LogTransform")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)

	// the same cookie reuses the session and refreshes its lifetime
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	w = serve(s, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, *created)
	refreshed := w.Result().Cookies()
	require.Len(t, refreshed, 1)
	assert.Equal(t, cookies[0].Value, refreshed[0].Value)
	assert.Equal(t, int(DefaultSessionTTL/time.Second), refreshed[0].MaxAge)

	// an unknown cookie starts a new session
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "expired"})
	w = serve(s, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, *created)

	f.AssertExpectations(t)
}

func TestIndexErrors(t *testing.T) {
	testData := map[string]struct {
		sampleErr error
		runErr    error
		status    int
		contains  string
	}{
		"invalid parameter": {
			sampleErr: fmt.Errorf("bad range, %w", forecaster.ErrInvalidParameter),
			status:    http.StatusBadRequest,
			contains:  `class="error"`,
		},
		"empty sample": {
			sampleErr: fmt.Errorf("no data, %w", forecaster.ErrInsufficientData),
			status:    http.StatusUnprocessableEntity,
			contains:  `class="warning"`,
		},
		"insufficient data for folds": {
			runErr:   fmt.Errorf("too short, %w", backtest.ErrInsufficientData),
			status:   http.StatusUnprocessableEntity,
			contains: "Sample of 2 days total",
		},
		"unexpected": {
			runErr: errors.New("boom"),
			status: http.StatusInternalServerError,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f := &MockForecaster{}
			f.On("Options").Return(forecaster.NewDefaultOptions())
			if td.sampleErr != nil {
				f.On("Sample").Return(nil, td.sampleErr)
			} else {
				f.On("Sample").Return(testSample(t), nil)
				f.On("Run").Return(nil, td.runErr)
			}
			s, _ := newTestServer(t, f)

			w := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, td.status, w.Code)
			if td.contains != "" {
				assert.Contains(t, w.Body.String(), td.contains)
			}
			assert.NotContains(t, w.Body.String(), "Averages SMAPE")
			f.AssertExpectations(t)
		})
	}
}

func postForm(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestSubmit(t *testing.T) {
	f := &MockForecaster{}
	f.On("Options").Return(forecaster.NewDefaultOptions())
	f.On("SetOptions", mock.MatchedBy(func(opt *forecaster.Options) bool {
		return opt.DateFrom.Equal(time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC)) &&
			opt.NumberOfLags == 5 &&
			opt.NumFolds == 2 &&
			opt.MeanWindow == 3 &&
			assert.ObjectsAreEqual([]transform.Kind{transform.KindLog, transform.KindTrend}, opt.Transforms)
	})).Return(nil)

	s, _ := newTestServer(t, f)
	w := serve(s, postForm(url.Values{
		"date_from":          {"2018-06-01"},
		"number_of_lags":     {"5"},
		"n_folds":            {"2"},
		"transforms":         {"Log", "TrendTransform"},
		"transforms_present": {"1"},
	}))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	f.AssertExpectations(t)
}

func TestSubmitInvalid(t *testing.T) {
	testData := map[string]struct {
		form   url.Values
		setErr error
	}{
		"not a date":        {form: url.Values{"date_to": {"31/08/2018"}}},
		"not an integer":    {form: url.Values{"n_folds": {"three"}}},
		"unknown transform": {form: url.Values{"transforms": {"Fourier"}}},
		"rejected options": {
			form:   url.Values{"n_folds": {"9"}},
			setErr: fmt.Errorf("number of folds, %w", forecaster.ErrInvalidParameter),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f := &MockForecaster{}
			f.On("Options").Return(forecaster.NewDefaultOptions())
			if td.setErr != nil {
				f.On("SetOptions", mock.Anything).Return(td.setErr)
			}
			s, _ := newTestServer(t, f)

			w := serve(s, postForm(td.form))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `class="error"`)
			if td.setErr == nil {
				f.AssertNotCalled(t, "SetOptions", mock.Anything)
			}
			f.AssertExpectations(t)
		})
	}
}

func TestCharts(t *testing.T) {
	testData := map[string]struct {
		path   string
		err    error
		status int
	}{
		"sample":                 {path: "/charts/sample", status: http.StatusOK},
		"backtest":               {path: "/charts/backtest", status: http.StatusOK},
		"backtest short history": {path: "/charts/backtest", err: forecaster.ErrInsufficientData, status: http.StatusUnprocessableEntity},
		"sample failure":         {path: "/charts/sample", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f := &MockForecaster{}
			write := func(args mock.Arguments) {
				_, _ = io.WriteString(args.Get(0).(io.Writer), "<html>chart</html>")
			}
			f.On("PlotSample", mock.Anything).Run(write).Return(td.err).Maybe()
			f.On("PlotBacktest", mock.Anything, forecaster.HistoryLen).Run(write).Return(td.err).Maybe()
			s, _ := newTestServer(t, f)

			w := serve(s, httptest.NewRequest(http.MethodGet, td.path, nil))
			assert.Equal(t, td.status, w.Code)
			if td.status == http.StatusOK {
				assert.Equal(t, "<html>chart</html>", w.Body.String())
				assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
			} else {
				assert.NotContains(t, w.Body.String(), "chart")
			}
		})
	}
}

func TestAPIOptions(t *testing.T) {
	f := &MockForecaster{}
	f.On("Options").Return(forecaster.NewDefaultOptions())
	s, _ := newTestServer(t, f)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/options", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Options    forecaster.Options `json:"options"`
		Transforms []string           `json:"available_transforms"`
		Horizon    int                `json:"horizon"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.Options.NumberOfLags)
	assert.Equal(t, []string{"Log", "DateFlags", "Trend", "DensityOutliers"}, resp.Transforms)
	assert.Equal(t, 24, resp.Horizon)
}

func TestAPIPutOptions(t *testing.T) {
	f := &MockForecaster{}
	f.On("Options").Return(forecaster.NewDefaultOptions())
	f.On("SetOptions", mock.MatchedBy(func(opt *forecaster.Options) bool {
		return opt.NumFolds == 3 && opt.NumberOfLags == 7 &&
			assert.ObjectsAreEqual([]transform.Kind{transform.KindDateFlags}, opt.Transforms)
	})).Return(nil).Once()
	f.On("SetOptions", mock.Anything).Return(fmt.Errorf("folds, %w", forecaster.ErrInvalidParameter))
	s, _ := newTestServer(t, f)

	req := httptest.NewRequest(http.MethodPut, "/api/options", strings.NewReader(`{"n_folds":3,"transforms":["DateFlagsTransform"]}`))
	w := serve(s, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/options", strings.NewReader(`{"n_folds":30}`))
	w = serve(s, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)

	req = httptest.NewRequest(http.MethodPut, "/api/options", strings.NewReader(`{"transforms":["Fourier"]}`))
	w = serve(s, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIFolds(t *testing.T) {
	testT := timedataset.GenerateHourlyT(testStart, 30)
	masks := []backtest.FoldMask{{
		FirstTrainTimestamp: testT[0],
		LastTrainTimestamp:  testT[23],
		TargetTimestamps:    testT[24:],
	}}

	f := &MockForecaster{}
	f.On("Masks").Return(masks, nil).Once()
	f.On("Masks").Return(nil, fmt.Errorf("short, %w", backtest.ErrInsufficientData))
	s, _ := newTestServer(t, f)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/folds", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var folds []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &folds))
	require.Len(t, folds, 1)
	assert.Equal(t, 6.0, folds[0]["n_targets"])
	assert.Equal(t, "2018-05-02T05:00:00Z", folds[0]["target_end_timestamp"])

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/folds", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAPIBacktest(t *testing.T) {
	f := &MockForecaster{}
	f.On("Run").Return(testResults(), nil)
	s, _ := newTestServer(t, f)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/backtest", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 12.345, resp["smape"])
	assert.Equal(t, 2.0, resp["sample_days"])

	metrics := resp["metrics"].([]any)
	require.Len(t, metrics, 1)
	assert.Nil(t, metrics[0].(map[string]any)["mse"])
	assert.Equal(t, 1.0, metrics[0].(map[string]any)["mae"])

	forecasts := resp["forecasts"].([]any)
	require.Len(t, forecasts, 1)
	assert.Nil(t, forecasts[0].(map[string]any)["actual"])
	assert.Equal(t, 3.0, forecasts[0].(map[string]any)["predicted"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("x, %w", backtest.ErrInvalidParameter)))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(fmt.Errorf("x, %w", backtest.ErrInsufficientData)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("x")))
}
