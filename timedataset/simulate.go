package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateHourlyT creates n hourly time points beginning at start
func GenerateHourlyT(start time.Time, n int) []time.Time {
	t := make([]time.Time, n)
	for i := 0; i < n; i++ {
		t[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return t
}

type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

// ClipLower floors every value at min
func (s Series) ClipLower(min float64) Series {
	for i := range s {
		if s[i] < min {
			s[i] = min
		}
	}
	return s
}

// Round rounds every value to the nearest integer which is how order counts look
func (s Series) Round() Series {
	for i := range s {
		s[i] = math.Round(s[i])
	}
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

func GenerateWaveY(t []time.Time, amp, periodSec, order, timeOffset float64) Series {
	n := len(t)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		val := amp * math.Sin(2.0*math.Pi*order/periodSec*(float64(t[i].Unix())+timeOffset))
		y = append(y, val)
	}
	return Series(y)
}

// GenerateLinearY creates a linear ramp of slope per hour starting at 0 on the first point
func GenerateLinearY(t []time.Time, slopePerHour float64) Series {
	y := make([]float64, len(t))
	if len(t) == 0 {
		return Series(y)
	}
	for i := range t {
		y[i] = slopePerHour * t[i].Sub(t[0]).Hours()
	}
	return Series(y)
}

// GenerateNoise creates gaussian noise with a standard deviation of scale
func GenerateNoise(n int, scale float64, rng *rand.Rand) Series {
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = rng.NormFloat64() * scale
	}
	return Series(y)
}

// GenerateTaxiOrders simulates n hourly order counts beginning at start. The series has a
// daily cycle with a morning and evening peak, a weekly cycle, slow growth and noise. The
// same seed always produces the same series.
func GenerateTaxiOrders(start time.Time, n int, seed uint64) ([]time.Time, []float64) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	t := GenerateHourlyT(start, n)

	day := 86400.0
	week := 7 * day
	y := GenerateConstY(n, 80.0)
	y.Add(GenerateWaveY(t, 30.0, day, 1.0, -8*60*60)).
		Add(GenerateWaveY(t, 12.0, day, 2.0, -5*60*60)).
		Add(GenerateWaveY(t, 9.0, week, 1.0, 0.0)).
		Add(GenerateLinearY(t, 0.01)).
		Add(GenerateNoise(n, 6.0, rng)).
		ClipLower(0.0).
		Round()
	return t, y
}
