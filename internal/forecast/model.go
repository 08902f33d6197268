package forecast

import (
	"errors"
	"math"
	"sort"
	"time"
)

var (
	ErrNotEnoughData = errors.New("forecast: not enough historical samples")
	ErrFitFailed     = errors.New("forecast: failed to generate forecast")
)

const (
	// minSamples is the floor validated before any fit is attempted.
	minSamples = 3

	yearDays     = 365.25
	fourierOrder = 3

	// Yearly terms are only fit when the series spans enough of a season to
	// observe one; shorter histories fall back to a pure linear trend.
	minSeasonalSpanDays = 243.0

	// Small ridge penalty on the non-intercept terms keeps the normal
	// equations solvable when trend and low-frequency harmonics correlate.
	ridge = 1e-4
)

type point struct {
	Date  time.Time
	Value float64
}

// model is a univariate regression over calendar time: linear trend plus,
// when the sample span supports it, yearly Fourier seasonality. Daily
// seasonality is deliberately absent; the sampling cadence cannot support it.
// Models are refit from scratch on every forecast call and hold no state
// beyond the fitted coefficients.
type model struct {
	origin   time.Time
	coef     []float64
	seasonal bool
}

func fit(points []point) (*model, error) {
	if len(points) < minSamples {
		return nil, ErrNotEnoughData
	}

	pts := make([]point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })

	origin := pts[0].Date
	ts := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		ts[i] = daysSince(origin, p.Date)
		ys[i] = p.Value
	}

	span := ts[len(ts)-1] - ts[0]
	seasonal := span >= minSeasonalSpanDays
	if seasonal && len(pts) < 2+2*fourierOrder+1 {
		seasonal = false
	}

	coef, err := leastSquares(ts, ys, seasonal)
	if err != nil {
		return nil, err
	}

	return &model{origin: origin, coef: coef, seasonal: seasonal}, nil
}

// predict returns the raw point estimate at the target date. Callers own any
// clamping or rounding of the estimate.
func (m *model) predict(target time.Time) float64 {
	row := features(daysSince(m.origin, target), m.seasonal)
	var y float64
	for i, x := range row {
		y += m.coef[i] * x
	}
	return y
}

func daysSince(origin, t time.Time) float64 {
	return t.Sub(origin).Hours() / 24
}

func features(t float64, seasonal bool) []float64 {
	row := []float64{1, t}
	if seasonal {
		for k := 1; k <= fourierOrder; k++ {
			phase := 2 * math.Pi * float64(k) * t / yearDays
			row = append(row, math.Sin(phase), math.Cos(phase))
		}
	}
	return row
}

// leastSquares solves the ridge-damped normal equations for the feature set
// by Gaussian elimination with partial pivoting.
func leastSquares(ts, ys []float64, seasonal bool) ([]float64, error) {
	p := len(features(0, seasonal))

	xtx := make([][]float64, p)
	for i := range xtx {
		xtx[i] = make([]float64, p)
	}
	xty := make([]float64, p)

	for i, t := range ts {
		row := features(t, seasonal)
		for a := 0; a < p; a++ {
			for b := 0; b < p; b++ {
				xtx[a][b] += row[a] * row[b]
			}
			xty[a] += row[a] * ys[i]
		}
	}
	for a := 1; a < p; a++ {
		xtx[a][a] += ridge
	}

	return solve(xtx, xty)
}

func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, ErrFitFailed
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= f * a[col][c]
			}
			b[r] -= f * b[col]
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}

	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrFitFailed
		}
	}
	return x, nil
}
