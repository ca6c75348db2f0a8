// Package util provides summary statistics for allocator reports.
//
// The package contains:
//   - Stats: min, max, mean and standard deviation of a set of values
//   - DistributionStats: Stats plus a balance score, used for per-arena page counts
//   - Series: a bounded window of samples taken over time, used by watch mode
package util
