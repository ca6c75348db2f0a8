package util

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestNewStats(t *testing.T) {
	assert.Equal(t, Stats{}, NewStats(nil))

	s := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 8, s.Count)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.Equal(t, 5.0, s.Mean)
	assert.InDelta(t, 2.0, s.StdDeviation, 1e-9)
	assert.InDelta(t, 2.0/9.0, s.MinMaxRatio, 1e-9)
}

func TestDistributionQuality(t *testing.T) {
	even := NewDistributionStats([]float64{128, 128, 128, 128})
	assert.InDelta(t, 1.0, even.DistributionQuality, 1e-9)

	skewed := NewDistributionStats([]float64{512, 0, 0, 0})
	assert.Less(t, skewed.DistributionQuality, 0.5)

	assert.Equal(t, 1.0, NewDistributionStats([]float64{0, 0}).DistributionQuality)
}

func TestSeries(t *testing.T) {
	s := NewSeries(3)
	assert.Empty(t, s.Values())
	assert.Zero(t, s.Delta())

	s.Add(1)
	s.Add(2)
	assert.Equal(t, []float64{1, 2}, s.Values())

	s.Add(4)
	s.Add(8)
	assert.Equal(t, []float64{2, 4, 8}, s.Values())
	assert.Equal(t, 6.0, s.Delta())
	assert.Equal(t, 3, s.Stats().Count)
	assert.Equal(t, 8.0, s.Stats().Max)
}
