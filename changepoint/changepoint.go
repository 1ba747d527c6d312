// Package changepoint places trend changepoints and builds the piecewise linear design
// features around them
package changepoint

import (
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"
)

type Changepoint struct {
	T    time.Time `json:"time"`
	Name string    `json:"name"`
}

func New(name string, t time.Time) Changepoint {
	return Changepoint{t, name}
}

// Auto spaces n changepoints evenly inside [start, end], excluding both ends
func Auto(start, end time.Time, n int) []Changepoint {
	if n <= 0 || !end.After(start) {
		return nil
	}
	window := end.Sub(start)
	chpts := make([]Changepoint, 0, n)
	for i := 1; i <= n; i++ {
		chpntTime := start.Add(time.Duration(int64(window) * int64(i) / int64(n+1)))
		chpts = append(chpts, New("auto_"+strconv.Itoa(i-1), chpntTime))
	}
	return chpts
}

// Features returns a design matrix with one row per timestamp. The first column is the time
// elapsed since origin in units of scale and every following column is the elapsed time
// since the matching changepoint, zero before it. Returns nil for no timestamps.
func Features(t []time.Time, chpts []Changepoint, origin time.Time, scale time.Duration) *mat.Dense {
	if len(t) == 0 {
		return nil
	}
	x := mat.NewDense(len(t), len(chpts)+1, nil)
	s := float64(scale)
	if s <= 0 {
		s = float64(time.Hour)
	}
	for i, tPnt := range t {
		x.Set(i, 0, float64(tPnt.Sub(origin))/s)
		for j, chpt := range chpts {
			if tPnt.Before(chpt.T) {
				continue
			}
			x.Set(i, j+1, float64(tPnt.Sub(chpt.T))/s)
		}
	}
	return x
}
