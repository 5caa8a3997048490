package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/helios/engine/core"
)

// JobFunc is the unit of work executed by a pool worker.
type JobFunc func() error

// JobHandle tracks a single submitted job. The submitter joins on it with
// Wait; jobs that must not share state write to disjoint slots owned by
// the submitter instead of communicating through the handle.
type JobHandle struct {
	done chan struct{}
	err  error
}

// Wait blocks until the job has finished and returns its error.
func (jh *JobHandle) Wait() error {
	<-jh.done
	return jh.err
}

type jobTask struct {
	fn     JobFunc
	handle *JobHandle
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan jobTask
	wg         sync.WaitGroup
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan jobTask, channelSize),
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				job.handle.err = job.fn()
				if job.handle.err != nil {
					core.LogError(job.handle.err.Error())
				}
				close(job.handle.done)
			}
		}()
	}
}

/**
 * @brief Submits the provided job to be queued for execution and returns
 * a handle the caller joins on. Blocks when the queue is full.
 */
func (js *JobSystem) Submit(fn JobFunc) *JobHandle {
	jh := &JobHandle{done: make(chan struct{})}
	js.jobQueue <- jobTask{fn: fn, handle: jh}
	return jh
}

/**
 * @brief Shuts the job system down, waiting for in-flight jobs to drain.
 */
func (js *JobSystem) Shutdown() error {
	close(js.jobQueue)
	js.wg.Wait()
	return nil
}
