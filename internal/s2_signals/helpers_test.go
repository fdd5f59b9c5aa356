package s2_signals

import (
	"time"

	"github.com/wonny/equityscore/internal/contracts"
)

var testStart = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// seriesFromCloses builds bars with high/low one unit around the close
func seriesFromCloses(closes []float64, spread float64) *Series {
	points := make([]contracts.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = contracts.PricePoint{
			Date:   testStart.AddDate(0, 0, i),
			Open:   c,
			High:   c + spread,
			Low:    c - spread,
			Close:  c,
			Volume: 1000,
		}
	}
	return NewSeries(points)
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func rising(n int) *Series  { return seriesFromCloses(linear(n, 100, 1), 1) }
func falling(n int) *Series { return seriesFromCloses(linear(n, 500, -1), 1) }
func flat(n int) *Series    { return seriesFromCloses(linear(n, 100, 0), 0) }

func records(s *Series) []contracts.PriceRecord {
	out := make([]contracts.PriceRecord, s.Len())
	for i := range out {
		d := s.Dates[i]
		out[i] = contracts.PriceRecord{
			Date:   &d,
			Open:   contracts.NewField(s.Open[i]),
			High:   contracts.NewField(s.High[i]),
			Low:    contracts.NewField(s.Low[i]),
			Close:  contracts.NewField(s.Close[i]),
			Volume: contracts.NewField(s.Volume[i]),
		}
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// alternating oscillates ±amp around base, starting below
func alternating(n int, base, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i%2 == 1 {
			out[i] = base + amp
		} else {
			out[i] = base - amp
		}
	}
	return out
}

// zigzag adds a 10-bar triangle wave (6 up, 4 down, height 4) to a linear drift
func zigzag(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		p := float64(i % 10)
		wave := 4 * p / 6
		if p >= 6 {
			wave = 4 * (10 - p) / 4
		}
		out[i] = start + step*float64(i) + wave
	}
	return out
}

// bars builds a series whose high/low sit spreads[i] around each close
func bars(closes, spreads []float64) *Series {
	points := make([]contracts.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = contracts.PricePoint{
			Date:   testStart.AddDate(0, 0, i),
			Open:   c,
			High:   c + spreads[i],
			Low:    c - spreads[i],
			Close:  c,
			Volume: 1000,
		}
	}
	return NewSeries(points)
}
