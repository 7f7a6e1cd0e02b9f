package clicktest

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oomph-ac/clicktest/analysis"
	"github.com/oomph-ac/clicktest/oerror"
	"github.com/oomph-ac/clicktest/sampler"
	"github.com/oomph-ac/clicktest/settings"
	"github.com/oomph-ac/clicktest/utils"
	"github.com/oomph-ac/clicktest/worker"
	"github.com/sirupsen/logrus"
)

// Tester runs click tests: it samples the attack timing of subjects over an observation window and
// classifies the timing once the window expires. Every subject can have at most one click test running.
type Tester struct {
	log *logrus.Logger

	hMu sync.RWMutex
	h   Handler

	thresholds atomic.Pointer[settings.Thresholds]
	samples    *sampler.Store
	windows    *utils.ShardedMap[*window]

	notify atomic.Bool
	closed atomic.Bool
}

// window is the expiry of a running click test, together with the thresholds snapshot it was started with.
type window struct {
	sample *sampler.Sample
	timer  *time.Timer
	th     settings.Thresholds
}

// New returns a Tester using the thresholds passed. If log is nil, the standard logrus logger is used.
func New(log *logrus.Logger, th settings.Thresholds) (*Tester, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	t := &Tester{
		log:     log,
		h:       NopHandler{},
		samples: sampler.NewStore(th.TickSize()),
		windows: utils.NewShardedMap[*window](utils.DefaultShardCount),
	}
	t.thresholds.Store(&th)
	t.notify.Store(true)
	return t, nil
}

// Handle sets the handler of the Tester. Passing nil resets it to a NopHandler.
func (t *Tester) Handle(h Handler) {
	if h == nil {
		h = NopHandler{}
	}
	t.hMu.Lock()
	t.h = h
	t.hMu.Unlock()
}

func (t *Tester) handler() Handler {
	t.hMu.RLock()
	defer t.hMu.RUnlock()
	return t.h
}

// Thresholds returns the current thresholds snapshot.
func (t *Tester) Thresholds() settings.Thresholds {
	return *t.thresholds.Load()
}

// SetThresholds validates and replaces the thresholds used by click tests started from now on. Click tests
// that are already running keep the snapshot they were started with. If th is invalid, the current
// snapshot is kept and an error wrapping oerror.ErrInvalidThresholds is returned.
func (t *Tester) SetThresholds(th settings.Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	t.thresholds.Store(&th)
	t.samples.SetTickSize(th.TickSize())
	return nil
}

// NotifyTarget sets whether subjects should be told when a click test starts for them. It is passed to
// Handler.HandleStart and defaults to true.
func (t *Tester) NotifyTarget(notify bool) {
	t.notify.Store(notify)
}

// Start starts a click test for the subject using the configured window length, and returns that length.
// latency is the subject's current latency, carried through to the summary. A negative latency means it is
// unknown.
func (t *Tester) Start(subject string, latency time.Duration) (time.Duration, error) {
	d := t.Thresholds().Window()
	return d, t.StartFor(subject, d, latency)
}

// StartFor starts a click test for the subject that expires after d. It returns an error wrapping
// oerror.ErrAlreadyActive if a click test is already running for the subject, in which case that click
// test is not affected.
func (t *Tester) StartFor(subject string, d, latency time.Duration) error {
	if t.closed.Load() {
		return oerror.New("click tester closed")
	}
	if d <= 0 {
		return oerror.New("click test window must be positive, got %v", d)
	}

	th := t.Thresholds()
	sample, err := t.samples.Start(subject, latency)
	if err != nil {
		return err
	}

	w := &window{sample: sample, th: th}
	w.timer = time.AfterFunc(d, func() {
		t.expire(subject, sample, th)
	})
	t.registerWindow(subject, w)

	t.log.Debugf("started click test for %s (window=%v latency=%v)", subject, d, latency)
	t.handler().HandleStart(subject, d, t.notify.Load())
	return nil
}

// Record records an attack by the subject at the time passed. It returns false if no click test is running
// for the subject, which is not an error.
func (t *Tester) Record(subject string, at time.Time) bool {
	return t.samples.Record(subject, at) == nil
}

// RecordAttack records an attack by the subject that happened just now.
func (t *Tester) RecordAttack(subject string) bool {
	return t.Record(subject, time.Now())
}

// Stop stops the click test of the subject without producing a verdict. It returns an error wrapping
// oerror.ErrNotFound if no click test is running, for instance because it already expired.
func (t *Tester) Stop(subject string) error {
	sample, err := t.samples.End(subject)
	if err != nil {
		return err
	}
	t.dropWindow(subject, sample)

	t.log.Debugf("stopped click test for %s after %d events", subject, sample.Events)
	t.handler().HandleStop(subject)
	return nil
}

// Finish ends the click test of the subject before its window expires and returns its summary, which is
// also passed to the handler. It returns an error wrapping oerror.ErrNotFound if no click test is running.
func (t *Tester) Finish(subject string) (analysis.Summary, error) {
	sample, err := t.samples.End(subject)
	if err != nil {
		return analysis.Summary{}, err
	}

	th := t.Thresholds()
	if w, ok := t.dropWindow(subject, sample); ok {
		th = w.th
	}
	sum := analysis.Analyse(sample, th)
	t.report(sum)
	return sum, nil
}

// Active returns the subjects that currently have a click test running.
func (t *Tester) Active() []string {
	return t.samples.Active()
}

// Close stops every running click test without producing verdicts. Click tests can no longer be started
// once the Tester is closed.
func (t *Tester) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return oerror.New("click tester already closed")
	}
	t.windows.Drain(func(_ string, w *window) {
		w.timer.Stop()
	})
	t.samples.Clear()
	return nil
}

// expire finalises the click test of the subject once its window has passed. It does nothing if the
// sample is no longer the subject's active sample.
func (t *Tester) expire(subject string, sample *sampler.Sample, th settings.Thresholds) {
	t.windows.RemoveIf(subject, func(w *window) bool { return w.sample == sample })
	if _, err := t.samples.EndIf(subject, sample); err != nil {
		return
	}

	worker.Submit(worker.Job{
		Tags: map[string]string{"subject": subject},
		Run: func() {
			t.report(analysis.Analyse(sample, th))
		},
	})
}

// registerWindow stores the window of a freshly started sample. A window left behind by a sample that is no
// longer open is replaced, while the window of another open sample is never overwritten.
func (t *Tester) registerWindow(subject string, w *window) {
	for !t.windows.Insert(subject, w) {
		if !t.samples.Holds(subject, w.sample) {
			break
		}
		stale, ok := t.windows.RemoveIf(subject, func(old *window) bool {
			return !t.samples.Holds(subject, old.sample)
		})
		if ok {
			stale.timer.Stop()
		}
	}
	if !t.samples.Holds(subject, w.sample) {
		// The window expired or was stopped before it was registered.
		if _, ok := t.dropWindow(subject, w.sample); !ok {
			w.timer.Stop()
		}
	}
}

// dropWindow removes the window of the sample passed and stops its timer.
func (t *Tester) dropWindow(subject string, sample *sampler.Sample) (*window, bool) {
	w, ok := t.windows.RemoveIf(subject, func(w *window) bool { return w.sample == sample })
	if ok {
		w.timer.Stop()
	}
	return w, ok
}

// report logs the summary and passes it to the handler.
func (t *Tester) report(sum analysis.Summary) {
	ev := sum.Evidence()
	fields := make(logrus.Fields, ev.Len())
	for el := ev.Front(); el != nil; el = el.Next() {
		fields[el.Key] = el.Value
	}
	t.log.WithFields(fields).Debugf("click test evidence for %s", sum.Subject)

	msg := fmt.Sprintf("%s finished a click test: %s (events=%d) %s", sum.Subject, sum.Verdict, sum.Events, utils.OrderedMapToString(ev))
	if sum.Verdict == analysis.Suspicious {
		t.log.Warn(msg)
	} else {
		t.log.Info(msg)
	}
	t.handler().HandleSummary(sum)
}
