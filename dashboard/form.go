package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	forecaster "github.com/aouyang1/go-taxiforecaster"
	"github.com/aouyang1/go-taxiforecaster/transform"
	"github.com/gin-gonic/gin"
)

const (
	fieldDateFrom   = "date_from"
	fieldDateTo     = "date_to"
	fieldLags       = "number_of_lags"
	fieldMeanWindow = "mean_window"
	fieldTransforms = "transforms"
	fieldWindowSize = "backtest_window_size"
	fieldNumFolds   = "n_folds"
)

// parseForm overlays the submitted widget values onto a copy of base. Missing fields keep
// their current value.
func parseForm(c *gin.Context, base *forecaster.Options) (*forecaster.Options, error) {
	opt := base.Copy()

	dates := map[string]*time.Time{
		fieldDateFrom: &opt.DateFrom,
		fieldDateTo:   &opt.DateTo,
	}
	for field, dst := range dates {
		raw, ok := c.GetPostForm(field)
		if !ok {
			continue
		}
		d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(raw), time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%s %q is not a date, %w", field, raw, forecaster.ErrInvalidParameter)
		}
		*dst = d
	}

	ints := map[string]*int{
		fieldLags:       &opt.NumberOfLags,
		fieldMeanWindow: &opt.MeanWindow,
		fieldWindowSize: &opt.BacktestWindowSize,
		fieldNumFolds:   &opt.NumFolds,
	}
	for field, dst := range ints {
		raw, ok := c.GetPostForm(field)
		if !ok {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%s %q is not an integer, %w", field, raw, forecaster.ErrInvalidParameter)
		}
		*dst = v
	}

	// an empty multiselect submits nothing so a hidden marker tells it apart from a form
	// without the field
	if names, ok := c.GetPostFormArray(fieldTransforms); ok || c.PostForm(fieldTransforms+"_present") != "" {
		kinds, err := transform.ParseKinds(nonEmpty(names))
		if err != nil {
			return nil, fmt.Errorf("%w, %w", forecaster.ErrInvalidParameter, err)
		}
		opt.Transforms = kinds
	}
	return opt, nil
}

func nonEmpty(vals []string) []string {
	res := make([]string, 0, len(vals))
	for _, v := range vals {
		if strings.TrimSpace(v) == "" {
			continue
		}
		res = append(res, v)
	}
	return res
}
