package analysis

import (
	"fmt"

	"github.com/oomph-ac/clicktest/settings"
)

// Verdict is the outcome of classifying a sample.
type Verdict uint8

const (
	// Inconclusive means the sample holds no strong evidence of automated clicking.
	Inconclusive Verdict = iota
	// Borderline means the timing is regular, but not regular enough to be conclusive.
	Borderline
	// Suspicious means the timing is consistent with automated clicking.
	Suspicious
)

// String ...
func (v Verdict) String() string {
	switch v {
	case Inconclusive:
		return "inconclusive"
	case Borderline:
		return "borderline"
	case Suspicious:
		return "suspicious"
	default:
		return fmt.Sprintf("Verdict(%d)", uint8(v))
	}
}

// MarshalText ...
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Rules holds the result of every individual rule evaluated by Classify.
type Rules struct {
	CPSPlausible   bool `json:"cps_plausible"`
	PeriodicHard   bool `json:"periodic_hard"`
	PeriodicStrong bool `json:"periodic_strong"`
	Suspicious     bool `json:"rule_suspicious"`
	Borderline     bool `json:"rule_borderline"`
}

// Classify decides on a verdict for a sample with n intervals and the stats passed. The rules are an
// ordered decision: the periodic rules ignore the click rate, because some automation clicks extremely
// regularly at rates outside the plausible band, and Borderline is only reached if nothing concluded
// Suspicious first. A rule is suppressed when n is below its minimum interval count.
func Classify(n int, st Stats, th settings.Thresholds) (Verdict, Rules) {
	if n == 0 {
		return Inconclusive, Rules{}
	}

	r := Rules{CPSPlausible: st.CPS >= th.CPSMin && st.CPS <= th.CPSMax}
	r.PeriodicHard = st.DuplicateRatio >= th.HardDuplicateRatio && n >= th.HardMinIntervals
	r.PeriodicStrong = st.CV < th.StrongCV && st.DuplicateRatio >= th.StrongDuplicateRatio && n >= th.StrongMinIntervals
	r.Suspicious = st.CV < th.CVSuspicious && st.DuplicateRatio >= th.DupSuspicious && r.CPSPlausible && n >= th.MinIntervals
	r.Borderline = st.CV < th.CVBorderline && st.DuplicateRatio >= th.DupBorderline && r.CPSPlausible && n >= th.MinIntervals

	switch {
	case r.PeriodicHard || r.PeriodicStrong || r.Suspicious:
		return Suspicious, r
	case r.Borderline:
		return Borderline, r
	default:
		return Inconclusive, r
	}
}
