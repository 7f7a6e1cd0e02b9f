package analysis

import (
	"fmt"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/oomph-ac/clicktest/sampler"
	"github.com/oomph-ac/clicktest/settings"
)

// EventIDClickTest is the remote event ID of a Summary.
const EventIDClickTest = "oomph:click_test"

// Summary is the result of a finished click test. It is not modified after it is created.
type Summary struct {
	Subject string `json:"subject"`
	// Events is the amount of qualifying events observed.
	Events int `json:"events"`
	// Intervals is the amount of intervals the verdict is based on.
	Intervals int `json:"intervals"`

	Mean           float64 `json:"mean_ms"`
	CPS            float64 `json:"cps"`
	CV             float64 `json:"cv"`
	DuplicateRatio float64 `json:"duplicate_ratio"`

	Verdict Verdict `json:"verdict"`
	Rules   Rules   `json:"rules"`

	ReferenceLatency time.Duration `json:"reference_latency"`
	Started          time.Time     `json:"started"`
}

// ID ...
func (s Summary) ID() string {
	return EventIDClickTest
}

// Analyse summarises and classifies the sample passed using the thresholds snapshot th.
func Analyse(s *sampler.Sample, th settings.Thresholds) Summary {
	n := len(s.Intervals)
	st := Summarize(s.Intervals, th)
	verdict, rules := Classify(n, st, th)

	return Summary{
		Subject:   s.SubjectID,
		Events:    s.Events,
		Intervals: n,

		Mean:           st.Mean,
		CPS:            st.CPS,
		CV:             st.CV,
		DuplicateRatio: st.DuplicateRatio,

		Verdict: verdict,
		Rules:   rules,

		ReferenceLatency: s.ReferenceLatency,
		Started:          s.Started,
	}
}

// Evidence returns the numbers and rule flags the verdict was based on, in a stable order.
func (s Summary) Evidence() *orderedmap.OrderedMap[string, any] {
	m := orderedmap.NewOrderedMap[string, any]()
	m.Set("n", s.Intervals)
	m.Set("cps", fmt.Sprintf("%.3f", s.CPS))
	m.Set("cv", fmt.Sprintf("%.5f", s.CV))
	m.Set("dup", fmt.Sprintf("%.3f", s.DuplicateRatio))
	m.Set("periodicHard", s.Rules.PeriodicHard)
	m.Set("periodicStrong", s.Rules.PeriodicStrong)
	m.Set("ruleSuspicious", s.Rules.Suspicious)
	m.Set("ruleBorderline", s.Rules.Borderline)
	m.Set("cpsPlausible", s.Rules.CPSPlausible)
	if s.ReferenceLatency >= 0 {
		m.Set("latency", fmt.Sprintf("%dms", s.ReferenceLatency.Milliseconds()))
	} else {
		m.Set("latency", "unknown")
	}
	return m
}
