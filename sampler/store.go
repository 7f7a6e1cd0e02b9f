package sampler

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/oomph-ac/clicktest/oerror"
	"github.com/oomph-ac/clicktest/utils"
)

// Store holds the active sample of every subject under observation. Access to a single subject's sample
// is serialised, while different subjects are independent of each other.
type Store struct {
	samples  *utils.ShardedMap[*Sample]
	tickSize atomic.Int64
}

// NewStore returns an empty store that coalesces events into ticks of the size passed.
func NewStore(tickSize time.Duration) *Store {
	s := &Store{samples: utils.NewShardedMap[*Sample](utils.DefaultShardCount)}
	s.SetTickSize(tickSize)
	return s
}

// SetTickSize changes the coalesce tick size of samples started from now on. Samples that are already open
// keep the tick size they were started with. A tick size below one millisecond falls back to
// DefaultTickSize.
func (s *Store) SetTickSize(tickSize time.Duration) {
	ms := tickSize.Milliseconds()
	if ms <= 0 {
		ms = DefaultTickSize.Milliseconds()
	}
	s.tickSize.Store(ms)
}

// Start opens a new sample for the subject. It returns oerror.ErrAlreadyActive if a sample is already open
// for the subject, in which case the open sample is not touched.
func (s *Store) Start(subjectID string, latency time.Duration) (*Sample, error) {
	sample := NewSample(subjectID, latency, time.Now())
	sample.tickSize = s.tickSize.Load()
	if !s.samples.Insert(subjectID, sample) {
		return nil, fmt.Errorf("%w: %s", oerror.ErrAlreadyActive, subjectID)
	}
	return sample, nil
}

// Record records an event for the subject at the time passed. Events falling into a coalesce tick that was
// already counted are ignored, as are events timestamped at or before the last counted event. If the subject has no open sample, oerror.ErrNotFound is returned, which
// callers should treat as a no-op.
func (s *Store) Record(subjectID string, at time.Time) error {
	if !s.samples.Update(subjectID, func(sample *Sample) { sample.record(at) }) {
		return fmt.Errorf("%w: %s", oerror.ErrNotFound, subjectID)
	}
	return nil
}

// End removes and returns the open sample of the subject, or oerror.ErrNotFound if there is none.
func (s *Store) End(subjectID string) (*Sample, error) {
	sample, ok := s.samples.Remove(subjectID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", oerror.ErrNotFound, subjectID)
	}
	return sample, nil
}

// EndIf removes and returns the open sample of the subject only if it is the sample passed. It returns
// oerror.ErrNotFound otherwise, for instance if the sample was already ended and a new one was started.
func (s *Store) EndIf(subjectID string, sample *Sample) (*Sample, error) {
	removed, ok := s.samples.RemoveIf(subjectID, func(current *Sample) bool { return current == sample })
	if !ok {
		return nil, fmt.Errorf("%w: %s", oerror.ErrNotFound, subjectID)
	}
	return removed, nil
}

// Holds returns true if sample is the open sample of the subject.
func (s *Store) Holds(subjectID string, sample *Sample) bool {
	current, ok := s.samples.Load(subjectID)
	return ok && current == sample
}

// Snapshot returns a copy of the open sample of the subject.
func (s *Store) Snapshot(subjectID string) (Sample, bool) {
	return utils.View(s.samples, subjectID, (*Sample).clone)
}

// Active returns the identifiers of all subjects with an open sample.
func (s *Store) Active() []string {
	return s.samples.Keys()
}

// Clear drops every open sample.
func (s *Store) Clear() {
	s.samples.Drain(func(string, *Sample) {})
}
