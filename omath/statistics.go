package omath

import (
	"maps"
	"math"
	"slices"
)

// Sum ...
func Sum(nums []float64) (result float64) {
	for _, v := range nums {
		result += v
	}
	return result
}

// Mean ...
func Mean(nums []float64) float64 {
	count := float64(len(nums))
	if count == 0 {
		return 0
	}
	return Sum(nums) / count
}

// Variance returns the population variance of nums.
func Variance(nums []float64) (variance float64) {
	count := float64(len(nums))
	if count == 0 {
		return 0.0
	}
	mean := Sum(nums) / count

	for _, number := range nums {
		variance += math.Pow(number-mean, 2)
	}
	return variance / count
}

// StandardDeviation ...
func StandardDeviation(nums []float64) float64 {
	return math.Sqrt(Variance(nums))
}

// CoefficientOfVariation returns the population standard deviation of nums divided by their mean, or
// zero if the mean is zero.
func CoefficientOfVariation(nums []float64) float64 {
	mean := Mean(nums)
	if mean == 0 {
		return 0
	}
	return StandardDeviation(nums) / mean
}

// ClampPercentiles returns a copy of nums where every value is clamped into the range spanned by the
// lower and upper percentiles of nums. The lower bound is the sorted value at floor(lower*n) and the
// upper bound the sorted value at ceil(upper*n)-1. For very small inputs both indices may land on the
// same element, which clamps every value to it.
func ClampPercentiles(nums []float64, lower, upper float64) []float64 {
	n := len(nums)
	if n == 0 {
		return nil
	}

	sorted := slices.Clone(nums)
	slices.Sort(sorted)

	lo := clampIndex(int(math.Floor(lower*float64(n))), n)
	hi := clampIndex(int(math.Ceil(upper*float64(n)))-1, n)
	loV, hiV := sorted[lo], sorted[hi]

	clamped := make([]float64, n)
	for i, v := range nums {
		clamped[i] = math.Max(loV, math.Min(hiV, v))
	}
	return clamped
}

// TopBinsRatio buckets nums into bins of the given width, using round(v/width) as the bin, and returns
// the share of values that fall into the k most populous bins.
func TopBinsRatio(nums []float64, width float64, k int) float64 {
	if len(nums) == 0 || width <= 0 || k <= 0 {
		return 0
	}

	bins := make(map[int64]int, len(nums))
	for _, v := range nums {
		bins[int64(math.Round(v/width))]++
	}

	counts := slices.Collect(maps.Values(bins))
	slices.SortFunc(counts, func(a, b int) int { return b - a })

	var top int
	for _, c := range counts[:min(k, len(counts))] {
		top += c
	}
	return float64(top) / float64(len(nums))
}

func clampIndex(i, n int) int {
	return max(0, min(i, n-1))
}
