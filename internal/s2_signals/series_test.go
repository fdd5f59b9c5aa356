package s2_signals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEWM(t *testing.T) {
	t.Run("recursive form", func(t *testing.T) {
		out := ewm([]float64{1, 2, 3}, 0.5)
		assert.InDeltaSlice(t, []float64{1, 1.5, 2.25}, out, 1e-12)
	})

	t.Run("nan keeps mean and decays weight", func(t *testing.T) {
		out := ewm([]float64{1, math.NaN(), 3}, 0.5)
		assert.InDelta(t, 1.0, out[1], 1e-12)
		assert.InDelta(t, 1.75/0.75, out[2], 1e-12)
	})

	t.Run("leading nan", func(t *testing.T) {
		out := ewm([]float64{math.NaN(), 4, 6}, 0.5)
		assert.True(t, math.IsNaN(out[0]))
		assert.InDelta(t, 4.0, out[1], 1e-12)
		assert.InDelta(t, 5.0, out[2], 1e-12)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, ewm(nil, 0.5))
	})
}

func TestSMAAndStd(t *testing.T) {
	avg := sma([]float64{1, 2, 3, 4}, 2)
	assert.True(t, math.IsNaN(avg[0]))
	assert.InDeltaSlice(t, []float64{1.5, 2.5, 3.5}, avg[1:], 1e-12)

	std := rollingStd([]float64{1, 2, 3, 4}, 2)
	assert.True(t, math.IsNaN(std[0]))
	assert.InDelta(t, math.Sqrt(0.5), std[1], 1e-12)
	assert.InDelta(t, math.Sqrt(0.5), std[3], 1e-12)
}

func TestArgmax(t *testing.T) {
	assert.Equal(t, 1, argmax([]float64{1, 3, 3, math.NaN()}))
	assert.Equal(t, -1, argmax([]float64{math.NaN(), math.NaN()}))
}

func TestSwingPoints(t *testing.T) {
	s := seriesFromCloses([]float64{1, 2, 3, 4, 5, 4, 3, 2, 1}, 0.5)
	highs, lows := swingPoints(s, 3)
	assert.Equal(t, []int{4}, highs)
	assert.Empty(t, lows)
}

func TestSeriesTail(t *testing.T) {
	s := rising(10)
	tail := s.Tail(3)
	require.Equal(t, 3, tail.Len())
	assert.Equal(t, 109.0, last(tail.Close))
	assert.Equal(t, 107.0, tail.Close[0])
	assert.Same(t, s, s.Tail(20))
}

func TestTrueRange(t *testing.T) {
	s := rising(3)
	assert.Equal(t, []float64{2, 2, 2}, trueRange(s))
}

func TestDiag(t *testing.T) {
	assert.Nil(t, diag(math.NaN(), 2))
	assert.Nil(t, diag(math.Inf(1), 2))
	assert.Equal(t, 1.24, diag(1.235, 2))
}
