package sampler

import (
	"slices"
	"time"

	"github.com/oomph-ac/clicktest/assert"
)

// Sample is the in-progress record of a subject's attack timing during one observation window.
type Sample struct {
	// SubjectID is the opaque identifier of the subject being sampled.
	SubjectID string
	// Intervals holds the time in milliseconds between consecutive qualifying events. It is only ever
	// appended to.
	Intervals []float64
	// LastEvent is the timestamp of the last event an interval was derived from.
	LastEvent time.Time
	// LastUnit is the most recent coalesce tick an event was counted in, or -1 if none was yet.
	LastUnit int64
	// Events is the amount of qualifying events observed, including the first which has no interval.
	Events int
	// ReferenceLatency is the subject's latency when the sample started. It is carried through to the
	// summary and is not used for classification. A negative value means the latency was unknown.
	ReferenceLatency time.Duration
	// Started is the time the sample was opened.
	Started time.Time

	tickSize int64
}

// DefaultTickSize is the default coalesce tick size, one server tick.
const DefaultTickSize = 50 * time.Millisecond

// NewSample returns an empty sample for the subject passed.
func NewSample(subjectID string, latency time.Duration, started time.Time) *Sample {
	return &Sample{
		SubjectID:        subjectID,
		LastUnit:         -1,
		ReferenceLatency: latency,
		Started:          started,
		tickSize:         DefaultTickSize.Milliseconds(),
	}
}

// record applies an event at the time passed. It returns false if the event fell into a coalesce tick that
// was already counted, or if it is not later than the last counted event.
func (s *Sample) record(at time.Time) bool {
	unit := floorDiv(at.UnixMilli(), s.tickSize)
	if unit == s.LastUnit {
		return false
	}
	if !s.LastEvent.IsZero() && !at.After(s.LastEvent) {
		// Late delivery: counting it would yield a non-positive interval.
		return false
	}
	s.LastUnit = unit

	if !s.LastEvent.IsZero() {
		// Sub uses the monotonic clock reading when both times carry one.
		s.Intervals = append(s.Intervals, float64(at.Sub(s.LastEvent))/float64(time.Millisecond))
	}
	s.LastEvent = at
	s.Events++
	assert.IsTrue(len(s.Intervals) == s.Events-1, "sample of %s has %d intervals for %d events", s.SubjectID, len(s.Intervals), s.Events)
	return true
}

// clone returns a deep copy of the sample.
func (s *Sample) clone() Sample {
	c := *s
	c.Intervals = slices.Clone(s.Intervals)
	return c
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
