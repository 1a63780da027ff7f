package workerpool

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// If workers idle for at least this period of time, stop one.
	idleTimeout = 2 * time.Second

	queueSize = 1024
)

// Dispatcher runs fire-and-forget sink work off the lock-protected sweeps.
// Workers are spawned on demand up to maxWorkers and reaped when idle.
// Submitted tasks carry no ordering guarantee relative to each other.
type Dispatcher struct {
	maxWorkers  int
	taskQueue   chan func()
	workerQueue chan func()
	stoppedChan chan struct{}
	stopOnce    sync.Once
	metrics     struct {
		workersActive atomic.Int32
		tasksDropped  atomic.Int32
	}
}

func NewDispatcher(maxWorkers int) *Dispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	d := &Dispatcher{
		maxWorkers:  maxWorkers,
		taskQueue:   make(chan func(), queueSize),
		workerQueue: make(chan func()),
		stoppedChan: make(chan struct{}),
	}

	go d.dispatch()

	return d
}

// Submit enqueues a task for a worker to execute. A full queue drops the
// task and counts it; callers never block.
func (d *Dispatcher) Submit(task func()) {
	if task != nil {
		select {
		case d.taskQueue <- task:
		default:
			d.metrics.tasksDropped.Add(1)
		}
	}
}

// Dropped reports how many tasks were discarded because the queue was full.
func (d *Dispatcher) Dropped() int32 {
	return d.metrics.tasksDropped.Load()
}

// Stop stops the dispatcher and waits for in-flight tasks to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.taskQueue)
	})
	<-d.stoppedChan
}

func worker(task func(), workerQueue chan func(), wg *sync.WaitGroup, workersActive *atomic.Int32) {
	defer func() {
		workersActive.Add(-1)
		wg.Done()
	}()
	for task != nil {
		task()
		task = <-workerQueue
	}
}

func (d *Dispatcher) dispatch() {
	defer close(d.stoppedChan)
	var wg sync.WaitGroup
	timeout := time.NewTimer(idleTimeout)
	defer timeout.Stop()

	var workerCount int
	var idle bool

	for {
		select {
		case task, ok := <-d.taskQueue:
			if !ok {
				for workerCount > 0 {
					d.workerQueue <- nil
					workerCount--
				}
				wg.Wait()

				return
			}

			select {
			case d.workerQueue <- task:
			default:
				if workerCount < d.maxWorkers {
					wg.Add(1)
					go worker(task, d.workerQueue, &wg, &d.metrics.workersActive)
					workerCount++
					d.metrics.workersActive.Add(1)
				} else {
					d.metrics.tasksDropped.Add(1)
				}
				idle = false
			}
		case <-timeout.C:
			if idle && workerCount > 0 {
				d.workerQueue <- nil
				workerCount--
			}
			idle = true
			timeout.Reset(idleTimeout)
		}
	}
}
