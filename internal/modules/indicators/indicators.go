// Package indicators derives moving averages and summary statistics from a
// stored timeline.
package indicators

import (
	"sort"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/lifecandle/internal/domain"
)

// Window bounds for the moving averages. The default spans one decade phase.
const (
	DefaultWindow = 10
	MinWindow     = 2
	MaxWindow     = 50
)

// SeriesPoint is one age with its moving averages. SMA and EMA are nil until
// the window has filled.
type SeriesPoint struct {
	Age   int      `json:"age"`
	Year  int      `json:"year"`
	Close float64  `json:"close"`
	SMA   *float64 `json:"sma"`
	EMA   *float64 `json:"ema"`
}

// Extreme marks the age of a peak or trough close
type Extreme struct {
	Age   int     `json:"age"`
	Year  int     `json:"year"`
	Close float64 `json:"close"`
}

// Summary holds score statistics over the whole timeline
type Summary struct {
	Count  int      `json:"count"`
	Mean   float64  `json:"mean"`
	StdDev float64  `json:"stdDev"`
	Median float64  `json:"median"`
	P10    float64  `json:"p10"`
	P90    float64  `json:"p90"`
	Peak   *Extreme `json:"peak"`
	Trough *Extreme `json:"trough"`
}

// Indicators is the response of GET /api/analysis/{fingerprint}/indicators
type Indicators struct {
	Window  int           `json:"window"`
	Summary Summary       `json:"summary"`
	Series  []SeriesPoint `json:"series"`
}

// Compute derives indicators from points. An empty timeline yields a zero
// summary and an empty series.
func Compute(points []domain.ChartPoint, window int) Indicators {
	if window < MinWindow {
		window = MinWindow
	}
	out := Indicators{Window: window, Series: make([]SeriesPoint, len(points))}

	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Close
		out.Series[i] = SeriesPoint{Age: p.Age, Year: p.Year, Close: p.Close}
	}

	// talib indexes past the input when it is shorter than the period
	if len(closes) >= window {
		sma := talib.Sma(closes, window)
		ema := talib.Ema(closes, window)
		for i := window - 1; i < len(closes); i++ {
			s, e := sma[i], ema[i]
			out.Series[i].SMA = &s
			out.Series[i].EMA = &e
		}
	}

	out.Summary = summarize(points)
	return out
}

func summarize(points []domain.ChartPoint) Summary {
	if len(points) == 0 {
		return Summary{}
	}

	scores := make([]float64, len(points))
	peak, trough := 0, 0
	for i, p := range points {
		scores[i] = p.Score
		if p.Close > points[peak].Close {
			peak = i
		}
		if p.Close < points[trough].Close {
			trough = i
		}
	}

	s := Summary{
		Count:  len(points),
		Mean:   stat.Mean(scores, nil),
		Peak:   extreme(points[peak]),
		Trough: extreme(points[trough]),
	}
	if len(scores) > 1 {
		s.StdDev = stat.StdDev(scores, nil)
	}

	sort.Float64s(scores)
	s.Median = stat.Quantile(0.5, stat.Empirical, scores, nil)
	s.P10 = stat.Quantile(0.10, stat.Empirical, scores, nil)
	s.P90 = stat.Quantile(0.90, stat.Empirical, scores, nil)
	return s
}

func extreme(p domain.ChartPoint) *Extreme {
	return &Extreme{Age: p.Age, Year: p.Year, Close: p.Close}
}
