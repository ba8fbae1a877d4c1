package systems

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/KevinMFinch/Cos426-final/engine/core"
	"github.com/KevinMFinch/Cos426-final/engine/renderer/metadata"
)

type JobSystem struct {
	numWorkers int
	jobQueue   chan metadata.JobTask
	wg         sync.WaitGroup

	mutex  sync.RWMutex
	closed bool
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

	jq := make(chan metadata.JobTask, channelSize)
	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   jq,
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
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job metadata.JobTask) {
	result, err := job.OnStart(job.InputParams)
	if err != nil {
		core.LogError("job %s failed: %s", job.JobType, err)
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
	} else if job.OnComplete != nil {
		job.OnComplete(result)
	}

	// Call the completion callback if set
	if job.OnCompletionCallback != nil {
		job.OnCompletionCallback()
	}
}

/**
 * @brief Shuts the job system down. Jobs already queued still run.
 */
func (js *JobSystem) Shutdown() error {
	js.mutex.Lock()
	if js.closed {
		js.mutex.Unlock()
		return nil
	}
	js.closed = true
	close(js.jobQueue)
	js.mutex.Unlock()

	js.wg.Wait()
	return nil
}

// Workers returns the number of worker goroutines.
func (js *JobSystem) Workers() int {
	return js.numWorkers
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while
 * the queue is full.
 * @param jt The description of the job to be executed.
 */
func (js *JobSystem) Submit(jt metadata.JobTask) error {
	js.mutex.RLock()
	defer js.mutex.RUnlock()
	if js.closed {
		return core.ErrSystemShutdown
	}
	js.jobQueue <- jt
	return nil
}

// trySubmit never blocks, not even on a pending Shutdown.
func (js *JobSystem) trySubmit(jt metadata.JobTask) bool {
	if !js.mutex.TryRLock() {
		return false
	}
	defer js.mutex.RUnlock()
	if js.closed {
		return false
	}
	select {
	case js.jobQueue <- jt:
		return true
	default:
		return false
	}
}

/**
 * @brief Runs every task on the pool and waits for all of them. The calling
 * goroutine also runs any task no worker has started yet, so RunAll can be
 * called from inside a job without starving the pool.
 *
 * @return One error slot per task.
 */
func (js *JobSystem) RunAll(jobType metadata.JobType, tasks []func() error) []error {
	errs := make([]error, len(tasks))
	claimed := make([]atomic.Bool, len(tasks))

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	run := func(i int) {
		if !claimed[i].CompareAndSwap(false, true) {
			return
		}
		defer wg.Done()
		errs[i] = tasks[i]()
	}

	for i := range tasks {
		i := i
		js.trySubmit(metadata.JobTask{
			JobType:     jobType,
			InputParams: i,
			OnStart: func(interface{}) (interface{}, error) {
				run(i)
				return nil, nil
			},
		})
	}
	for i := range tasks {
		run(i)
	}
	wg.Wait()
	return errs
}
