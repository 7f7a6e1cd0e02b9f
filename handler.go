package clicktest

import (
	"time"

	"github.com/oomph-ac/clicktest/analysis"
)

// Handler handles the lifecycle of click tests run by a Tester. Handler methods are never called while a
// lock of the Tester is held, so they may call back into it.
type Handler interface {
	// HandleStart is called when a click test starts for a subject, with the length of its window. notify
	// is true if the subject should be told that their attack timing is being sampled.
	HandleStart(subject string, window time.Duration, notify bool)
	// HandleStop is called when a click test is stopped early without a verdict.
	HandleStop(subject string)
	// HandleSummary is called with the summary of every finished click test. It is called from a worker
	// goroutine for windows that expired.
	HandleSummary(sum analysis.Summary)
}

// NopHandler implements the Handler interface but does not execute any code when a method is called. It
// may be embedded to only implement some of the methods.
type NopHandler struct{}

// Compile time check to make sure NopHandler implements Handler.
var _ Handler = NopHandler{}

func (NopHandler) HandleStart(string, time.Duration, bool) {}
func (NopHandler) HandleStop(string)                       {}
func (NopHandler) HandleSummary(analysis.Summary)          {}
