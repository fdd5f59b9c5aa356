package s2_signals

import (
	"math"

	"github.com/wonny/equityscore/internal/contracts"
	"github.com/wonny/equityscore/pkg/numeric"
)

// Series is the working copy of a price history, split into columns.
// Calculators read it and never write back.
type Series struct {
	Dates  []contracts.Timestamp
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// NewSeries copies points into a column layout
func NewSeries(points []contracts.PricePoint) *Series {
	n := len(points)
	s := &Series{
		Dates:  make([]contracts.Timestamp, n),
		Open:   make([]float64, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  make([]float64, n),
		Volume: make([]float64, n),
	}
	for i, p := range points {
		s.Dates[i] = contracts.Timestamp{Time: p.Date}
		s.Open[i] = p.Open
		s.High[i] = p.High
		s.Low[i] = p.Low
		s.Close[i] = p.Close
		s.Volume[i] = p.Volume
	}
	return s
}

// Len returns the number of bars
func (s *Series) Len() int { return len(s.Close) }

// Tail returns a view of the last n bars
func (s *Series) Tail(n int) *Series {
	if n >= s.Len() {
		return s
	}
	start := s.Len() - n
	return &Series{
		Dates:  s.Dates[start:],
		Open:   s.Open[start:],
		High:   s.High[start:],
		Low:    s.Low[start:],
		Close:  s.Close[start:],
		Volume: s.Volume[start:],
	}
}

// ewm is an exponentially weighted mean with adjust=False semantics:
// NaN inputs keep the previous mean but still decay its weight.
func ewm(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	weighted := values[0]
	oldWeight := 1.0
	out[0] = weighted

	for i := 1; i < len(values); i++ {
		cur := values[i]
		observed := !math.IsNaN(cur)

		if !math.IsNaN(weighted) {
			oldWeight *= 1 - alpha
			if observed {
				if weighted != cur {
					weighted = (oldWeight*weighted + alpha*cur) / (oldWeight + alpha)
				}
				oldWeight = 1
			}
		} else if observed {
			weighted = cur
		}
		out[i] = weighted
	}
	return out
}

// wilder smooths with alpha = 1/period
func wilder(values []float64, period int) []float64 {
	return ewm(values, 1/float64(period))
}

// emaSpan smooths with alpha = 2/(span+1)
func emaSpan(values []float64, span int) []float64 {
	return ewm(values, 2/(float64(span)+1))
}

// sma is a trailing simple moving average; the first window-1 values are NaN
func sma(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}

// rollingStd is the trailing sample standard deviation (ddof=1)
func rollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 || window < 2 {
			out[i] = math.NaN()
			continue
		}
		w := values[i-window+1 : i+1]
		avg := mean(w)
		ss := 0.0
		for _, v := range w {
			ss += (v - avg) * (v - avg)
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// trueRange is max(h-l, |h-pc|, |l-pc|); the first bar uses h-l
func trueRange(s *Series) []float64 {
	tr := make([]float64, s.Len())
	for i := range tr {
		hl := s.High[i] - s.Low[i]
		if i == 0 {
			tr[i] = hl
			continue
		}
		pc := s.Close[i-1]
		tr[i] = math.Max(hl, math.Max(math.Abs(s.High[i]-pc), math.Abs(s.Low[i]-pc)))
	}
	return tr
}

func last(values []float64) float64 {
	return values[len(values)-1]
}

func maxOf(values []float64) float64 {
	m := math.Inf(-1)
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []float64) float64 {
	m := math.Inf(1)
	for _, v := range values {
		if v < m {
			m = v
		}
	}
	return m
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// argmax returns the index of the first maximum, skipping NaN
func argmax(values []float64) int {
	idx := -1
	best := math.Inf(-1)
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if idx == -1 || v > best {
			idx, best = i, v
		}
	}
	return idx
}

// swingPoints finds bars that are the max high / min low of a ±window
// neighbourhood. Bars closer than window to either edge are skipped.
func swingPoints(s *Series, window int) (highs, lows []int) {
	for i := window; i < s.Len()-window; i++ {
		if s.High[i] == maxOf(s.High[i-window:i+window+1]) {
			highs = append(highs, i)
		}
		if s.Low[i] == minOf(s.Low[i-window:i+window+1]) {
			lows = append(lows, i)
		}
	}
	return highs, lows
}

// diag rounds a diagnostic value; non-finite values become null
func diag(v float64, places int32) interface{} {
	if !numeric.Finite(v) {
		return nil
	}
	return numeric.Round(v, places)
}
