package analysis

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/oomph-ac/clicktest/sampler"
	"github.com/oomph-ac/clicktest/settings"
)

func repeat(v float64, n int) []float64 {
	return slices.Repeat([]float64{v}, n)
}

func sampleOf(intervals []float64) *sampler.Sample {
	s := sampler.NewSample("steve", 35*time.Millisecond, time.Now())
	s.Intervals = intervals
	s.Events = len(intervals) + 1
	return s
}

func TestAnalyseEmpty(t *testing.T) {
	s := sampleOf(nil)
	s.Events = 1

	sum := Analyse(s, settings.DefaultThresholds())
	if sum.Verdict != Inconclusive {
		t.Fatalf("expected inconclusive verdict, got %v", sum.Verdict)
	}
	if sum.Mean != 0 || sum.CV != 0 || sum.CPS != 0 || sum.DuplicateRatio != 0 {
		t.Fatalf("expected zero evidence, got %+v", sum)
	}
	if sum.Rules != (Rules{}) {
		t.Fatalf("expected no rule to hold, got %+v", sum.Rules)
	}
	if sum.Events != 1 {
		t.Fatalf("expected event count to be carried, got %d", sum.Events)
	}
}

func TestAnalyseIdenticalIntervals(t *testing.T) {
	sum := Analyse(sampleOf(repeat(300, 200)), settings.DefaultThresholds())

	if sum.CV > 1e-9 {
		t.Fatalf("expected cv of 0, got %v", sum.CV)
	}
	if sum.DuplicateRatio != 1 {
		t.Fatalf("expected duplicate ratio of 1, got %v", sum.DuplicateRatio)
	}
	if math.Abs(sum.CPS-1000.0/300.0) > 1e-9 {
		t.Fatalf("expected cps of 3.33, got %v", sum.CPS)
	}
	if !sum.Rules.CPSPlausible || !sum.Rules.Suspicious || !sum.Rules.PeriodicHard || !sum.Rules.PeriodicStrong {
		t.Fatalf("expected every suspicious rule to hold, got %+v", sum.Rules)
	}
	if sum.Verdict != Suspicious {
		t.Fatalf("expected suspicious verdict, got %v", sum.Verdict)
	}
	if sum.ReferenceLatency != 35*time.Millisecond {
		t.Fatalf("expected reference latency to be carried, got %v", sum.ReferenceLatency)
	}
}

func TestAnalyseUniformSpread(t *testing.T) {
	intervals := make([]float64, 40)
	for i := range intervals {
		intervals[i] = 150 + float64(i)*300/39
	}

	sum := Analyse(sampleOf(intervals), settings.DefaultThresholds())
	if sum.DuplicateRatio >= 0.5 {
		t.Fatalf("expected duplicate ratio below 0.5, got %v", sum.DuplicateRatio)
	}
	if sum.Verdict != Inconclusive {
		t.Fatalf("expected inconclusive verdict, got %v (%+v)", sum.Verdict, sum.Rules)
	}
}

func TestAnalysePeriodicHardIgnoresRate(t *testing.T) {
	sum := Analyse(sampleOf(repeat(700, 12)), settings.DefaultThresholds())

	if sum.Rules.CPSPlausible {
		t.Fatalf("expected %v cps to be implausible", sum.CPS)
	}
	if !sum.Rules.PeriodicHard || sum.Rules.PeriodicStrong || sum.Rules.Suspicious {
		t.Fatalf("expected only the hard periodic rule to hold, got %+v", sum.Rules)
	}
	if sum.Verdict != Suspicious {
		t.Fatalf("expected suspicious verdict, got %v", sum.Verdict)
	}
}

func TestAnalyseFastPeriodic(t *testing.T) {
	// 12.5 cps is above the plausible band but perfectly periodic.
	sum := Analyse(sampleOf(repeat(80, 25)), settings.DefaultThresholds())
	if sum.Rules.CPSPlausible || sum.Verdict != Suspicious {
		t.Fatalf("expected suspicious verdict outside the plausible band, got %v (%+v)", sum.Verdict, sum.Rules)
	}
}

func TestAnalyseSmallSampleSuppressed(t *testing.T) {
	sum := Analyse(sampleOf(repeat(300, 11)), settings.DefaultThresholds())
	if sum.Rules.PeriodicHard || sum.Rules.PeriodicStrong || sum.Rules.Suspicious || sum.Rules.Borderline {
		t.Fatalf("expected every rule to be suppressed for 11 intervals, got %+v", sum.Rules)
	}
	if sum.Verdict != Inconclusive {
		t.Fatalf("expected inconclusive verdict, got %v", sum.Verdict)
	}
}

func TestAnalyseSoftRules(t *testing.T) {
	th := settings.DefaultThresholds()
	regular := slices.Repeat([]float64{200, 195, 205, 210, 190, 200, 170, 230, 200, 205}, 3)
	looser := slices.Repeat([]float64{200, 190, 210, 205, 195, 180, 220, 200, 235, 165}, 4)

	tests := []struct {
		name      string
		intervals []float64
		verdict   Verdict
		rules     Rules
	}{
		{
			name:      "suspicious through the rate-gated rule",
			intervals: regular,
			verdict:   Suspicious,
			rules:     Rules{CPSPlausible: true, Suspicious: true, Borderline: true},
		},
		{
			name:      "borderline",
			intervals: looser,
			verdict:   Borderline,
			rules:     Rules{CPSPlausible: true, Borderline: true},
		},
		{
			name:      "same regularity at an implausible rate",
			intervals: scale(regular, 3),
			verdict:   Inconclusive,
			rules:     Rules{},
		},
		{
			name:      "too few intervals for the soft rules",
			intervals: regular[:19],
			verdict:   Inconclusive,
			rules:     Rules{CPSPlausible: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := Analyse(sampleOf(tt.intervals), th)
			if sum.Verdict != tt.verdict {
				t.Fatalf("expected %v, got %v (cv=%v dup=%v cps=%v)", tt.verdict, sum.Verdict, sum.CV, sum.DuplicateRatio, sum.CPS)
			}
			if sum.Rules != tt.rules {
				t.Fatalf("expected rules %+v, got %+v", tt.rules, sum.Rules)
			}
		})
	}
}

func TestSummarizeBounds(t *testing.T) {
	th := settings.DefaultThresholds()
	r := rand.New(rand.NewPCG(1, 2))

	for i := range 200 {
		n := 1 + r.IntN(120)
		intervals := make([]float64, n)
		for j := range intervals {
			intervals[j] = 1 + r.Float64()*1500
		}

		st := Summarize(intervals, th)
		if st.DuplicateRatio < 0 || st.DuplicateRatio > 1 {
			t.Fatalf("run %d: duplicate ratio %v out of [0, 1]", i, st.DuplicateRatio)
		}
		if st.CV < 0 {
			t.Fatalf("run %d: negative cv %v", i, st.CV)
		}
		if st.Mean <= 0 || math.Abs(st.CPS-1000/st.Mean) > 1e-9 {
			t.Fatalf("run %d: cps %v does not match mean %v", i, st.CPS, st.Mean)
		}
	}
}

func TestSummarizeBinWidthIndependentOfTick(t *testing.T) {
	intervals := []float64{200, 205, 210, 240, 260, 300, 320, 330, 410, 420}
	th := settings.DefaultThresholds()
	want := Summarize(intervals, th).DuplicateRatio

	th.TickSizeMs = 100
	if got := Summarize(intervals, th).DuplicateRatio; got != want {
		t.Fatalf("expected tick size to leave the duplicate ratio at %v, got %v", want, got)
	}

	th.BinWidthMs = 200
	if got := Summarize(intervals, th).DuplicateRatio; got == want {
		t.Fatalf("expected a wider bin to change the duplicate ratio from %v", want)
	}
}

func TestEvidence(t *testing.T) {
	sum := Analyse(sampleOf(repeat(300, 20)), settings.DefaultThresholds())
	ev := sum.Evidence()

	if keys := ev.Keys(); keys[0] != "n" || keys[len(keys)-1] != "latency" {
		t.Fatalf("unexpected evidence order %v", keys)
	}
	if v, _ := ev.Get("cps"); v != "3.333" {
		t.Fatalf("expected cps evidence 3.333, got %v", v)
	}
	if v, _ := ev.Get("latency"); v != "35ms" {
		t.Fatalf("expected latency evidence 35ms, got %v", v)
	}

	sum.ReferenceLatency = -1
	if v, _ := sum.Evidence().Get("latency"); v != "unknown" {
		t.Fatalf("expected unknown latency, got %v", v)
	}
}

func TestVerdictString(t *testing.T) {
	if Suspicious.String() != "suspicious" || Borderline.String() != "borderline" || Inconclusive.String() != "inconclusive" {
		t.Fatalf("unexpected verdict names")
	}
	if b, _ := Suspicious.MarshalText(); string(b) != "suspicious" {
		t.Fatalf("unexpected text encoding %s", b)
	}
}

func scale(nums []float64, f float64) []float64 {
	out := make([]float64, len(nums))
	for i, v := range nums {
		out[i] = v * f
	}
	return out
}
