package util

import (
	"math"
	"sync"
)

// ----------------------------------------------------------------------------
// Summary statistics
// ----------------------------------------------------------------------------

type Stats struct {
	Count        int     `json:"count"`
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// NewStats computes the standard deviation, minimum, and maximum values
// from an array of float64 values.
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	lo, hi := values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	mean := sum / float64(len(values))

	// population standard deviation
	var sumSquaredDiffs float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiffs += diff * diff
	}

	ratio := 1.0
	if hi > 0 {
		ratio = lo / hi
	}

	return Stats{
		Count:        len(values),
		StdDeviation: math.Sqrt(sumSquaredDiffs / float64(len(values))),
		Min:          lo,
		Max:          hi,
		Mean:         mean,
		MinMaxRatio:  ratio,
	}
}

// DistributionStats describes how evenly a quantity is spread over buckets,
// for example active pages over arenas.
type DistributionStats struct {
	Stats
	DistributionQuality float64 `json:"distribution_quality"`
}

// NewDistributionStats computes quality metrics for value distribution.
// Quality is 1 for a perfectly even spread and approaches 0 when one bucket
// holds everything.
func NewDistributionStats(values []float64) DistributionStats {
	stats := NewStats(values)

	var cv float64
	if stats.Mean > 0 {
		cv = stats.StdDeviation / stats.Mean
	}

	// lower CV and higher min/max ratio indicate better distribution
	quality := (1.0-math.Min(1.0, cv))*0.5 + stats.MinMaxRatio*0.5

	return DistributionStats{
		Stats:               stats,
		DistributionQuality: quality,
	}
}

// ----------------------------------------------------------------------------
// Series
// ----------------------------------------------------------------------------

// Series keeps the last Cap samples of a value taken over time.
type Series struct {
	mutex   sync.RWMutex
	samples []float64
	next    int
	full    bool
}

// NewSeries creates a series holding at most capacity samples.
func NewSeries(capacity int) *Series {
	if capacity < 1 {
		capacity = 1
	}
	return &Series{samples: make([]float64, capacity)}
}

// Add records a sample, evicting the oldest one when the series is full.
//
// Thread-safe: This method is safe for concurrent use
func (s *Series) Add(v float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.samples[s.next] = v
	s.next = (s.next + 1) % len(s.samples)
	if s.next == 0 {
		s.full = true
	}
}

// Values returns the samples from oldest to newest.
//
// Thread-safe: This method is safe for concurrent use
func (s *Series) Values() []float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.full {
		return append([]float64(nil), s.samples[:s.next]...)
	}
	out := make([]float64, 0, len(s.samples))
	out = append(out, s.samples[s.next:]...)
	return append(out, s.samples[:s.next]...)
}

// Delta is the newest sample minus the oldest one.
//
// Thread-safe: This method is safe for concurrent use
func (s *Series) Delta() float64 {
	v := s.Values()
	if len(v) < 2 {
		return 0
	}
	return v[len(v)-1] - v[0]
}

// Stats summarizes the samples currently held.
//
// Thread-safe: This method is safe for concurrent use
func (s *Series) Stats() Stats {
	return NewStats(s.Values())
}
