package worker

import (
	"runtime"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/oomph-ac/clicktest/oerror"
)

// Job is a unit of work submitted to the pool. Tags are attached to the Sentry scope if the job panics.
type Job struct {
	Tags map[string]string
	Run  func()
}

var workerQueue = make(chan Job, runtime.NumCPU())

func init() {
	for i := 0; i < runtime.NumCPU(); i++ {
		go worker()
	}
}

func worker() {
	for job := range workerQueue {
		run(job)
	}
}

// run executes the job, recovering and reporting any panic so the worker keeps going.
func run(job Job) {
	defer func() {
		if err := recover(); err != nil {
			hub := sentry.CurrentHub().Clone()
			hub.ConfigureScope(func(scope *sentry.Scope) {
				for k, v := range job.Tags {
					scope.SetTag(k, v)
				}
			})
			hub.Recover(oerror.New("worker job panic: %v", err))
			hub.Flush(time.Second * 5)
		}
	}()
	job.Run()
}

// Submit queues a job to be run by the pool. To be used by a function that may be CPU intensive.
func Submit(job Job) {
	workerQueue <- job
}
