package analysis

import (
	"github.com/oomph-ac/clicktest/omath"
	"github.com/oomph-ac/clicktest/settings"
)

const (
	// lowerPercentile and upperPercentile bound the range intervals are clamped into before any statistic
	// is computed, so a single latency spike or dropped tick cannot dominate the mean or variance.
	lowerPercentile = 0.05
	upperPercentile = 0.95

	// topBins is the amount of most populous bins counted towards the duplicate-interval ratio.
	topBins = 2
)

// Stats is the statistical shape of a sample's intervals.
type Stats struct {
	// Mean is the mean of the clamped intervals, in milliseconds.
	Mean float64
	// CV is the coefficient of variation of the clamped intervals.
	CV float64
	// CPS is the click rate derived from Mean.
	CPS float64
	// DuplicateRatio is the share of clamped intervals that fall into the two most populous bins.
	DuplicateRatio float64
}

// Summarize computes the statistical shape of the intervals passed. Empty input yields zero Stats.
func Summarize(intervals []float64, th settings.Thresholds) Stats {
	if len(intervals) == 0 {
		return Stats{}
	}

	clamped := omath.ClampPercentiles(intervals, lowerPercentile, upperPercentile)
	st := Stats{
		Mean:           omath.Mean(clamped),
		CV:             omath.CoefficientOfVariation(clamped),
		DuplicateRatio: omath.TopBinsRatio(clamped, th.BinWidthMs, topBins),
	}
	if st.Mean > 0 {
		st.CPS = 1000 / st.Mean
	}
	return st
}
