// Package synthesis generates life timelines locally, without the external generator.
//
// Two policies are available. Weighted scores each year from elemental tables
// plus a small noise term. RandomWalk is a bounded random walk with no
// weighting. Both walk ages sequentially so that every open equals the
// previous close.
package synthesis

import (
	"fmt"
	"math"
	"sync"

	"github.com/aristath/lifecandle/internal/domain"
)

const (
	// MaxAge is the last age of every timeline
	MaxAge = 100
	// DefaultPhaseOnsetAge is the first age covered by a decade phase
	DefaultPhaseOnsetAge = 10

	minScore      = 10.0
	maxScore      = 90.0
	walkSeed      = 50.0
	walkMaxDelta  = 15.0
	walkMaxExtra  = 5.0
	weightedNoise = 2.0
	weightedExtra = 2.0
)

// Source is the randomness the synthesizer draws from. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// Options configures a Synthesizer
type Options struct {
	PhaseOnsetAge int
}

// Synthesizer produces AnalysisResults from a request. Safe for concurrent use.
type Synthesizer struct {
	mu    sync.Mutex
	src   Source
	onset int
}

// New creates a synthesizer drawing from src
func New(src Source, opts Options) *Synthesizer {
	onset := opts.PhaseOnsetAge
	if onset <= 0 {
		onset = DefaultPhaseOnsetAge
	}
	return &Synthesizer{src: src, onset: onset}
}

func (s *Synthesizer) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.src.Float64()
}

// intBetween returns an integer in [lo, hi]
func (s *Synthesizer) intBetween(lo, hi int) int {
	return lo + s.src.Intn(hi-lo+1)
}

func (s *Synthesizer) pick(pool []string) string {
	return pool[s.src.Intn(len(pool))]
}

// span resolves the start year and the age range of a request. Ages below 1
// are raised to 1.
func span(req domain.AnalysisRequest) (startYear, startAge int) {
	startYear = req.ResolvedBirthYear()
	startAge = req.ResolvedStartAge()
	if startAge < 1 {
		startAge = 1
	}
	return startYear, startAge
}

func timelineCap(startAge int) int {
	if startAge > MaxAge {
		return 0
	}
	return MaxAge - startAge + 1
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// candle fills the price fields of a point from its open, close and wick extras
func candle(open, closing, upper, lower float64) (high, low float64) {
	high = round1(math.Max(open, closing) + upper)
	low = round1(math.Min(open, closing) - lower)
	return high, low
}

// breakoutYear labels the year of the strongest close
func breakoutYear(points []domain.ChartPoint) string {
	if len(points) == 0 {
		return "待定"
	}
	best := points[0]
	for _, p := range points[1:] {
		if p.Close > best.Close {
			best = p
		}
	}
	return fmt.Sprintf("%d (%s)", best.Year, best.CycleTerm)
}
