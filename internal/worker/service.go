// Package worker runs deferred re-ranking jobs off the request path.
package worker

import (
	"context"
	"sync"
	"time"

	"newsrec/internal/logger"
)

type job struct {
	name string
	run  func(ctx context.Context)
}

// Dispatcher is a bounded in-process job queue with a fixed worker
// pool. Enqueue never blocks: ranking jobs rebuild a derived cache, so
// dropping one under saturation is always safe.
type Dispatcher struct {
	queue         chan job
	workers       int
	debounceDelay time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex

	timers   map[string]*time.Timer
	timersMu sync.Mutex

	log *logger.Logger
}

// NewDispatcher creates a dispatcher with the given worker count, queue
// capacity, and debounce window for collapsed jobs.
func NewDispatcher(workers, queueSize int, debounceDelay time.Duration, log *logger.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		queue:         make(chan job, queueSize),
		workers:       workers,
		debounceDelay: debounceDelay,
		ctx:           ctx,
		cancel:        cancel,
		timers:        make(map[string]*time.Timer),
		log:           log,
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}

	d.log.Info("starting job dispatcher", "workers", d.workers, "queue_size", cap(d.queue))
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.runWorker()
		}()
	}
	d.running = true
}

// Stop cancels pending debounce timers, signals workers, and waits for
// in-flight jobs to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}

	d.timersMu.Lock()
	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
	d.timersMu.Unlock()

	d.cancel()
	d.wg.Wait()
	d.running = false
	d.log.Info("job dispatcher stopped")
}

// IsRunning returns whether the dispatcher is currently running.
func (d *Dispatcher) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// Enqueue submits a job. Returns false when the queue is saturated and
// the job was dropped.
func (d *Dispatcher) Enqueue(name string, run func(ctx context.Context)) bool {
	select {
	case d.queue <- job{name: name, run: run}:
		return true
	default:
		d.log.Warn("job queue full, dropping job", "job", name)
		return false
	}
}

// EnqueueDebounced schedules a job after the debounce window, resetting
// the timer when the same key is enqueued again. Bursts of interactions
// for the same (user, category) collapse into one recompute.
func (d *Dispatcher) EnqueueDebounced(key string, run func(ctx context.Context)) {
	d.timersMu.Lock()
	defer d.timersMu.Unlock()

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}
	d.timers[key] = time.AfterFunc(d.debounceDelay, func() {
		d.timersMu.Lock()
		delete(d.timers, key)
		d.timersMu.Unlock()
		d.Enqueue(key, run)
	})
}

func (d *Dispatcher) runWorker() {
	for {
		select {
		case <-d.ctx.Done():
			return
		case j := <-d.queue:
			d.runJob(j)
		}
	}
}

func (d *Dispatcher) runJob(j job) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("job panicked", "job", j.name, "panic", r)
		}
	}()
	j.run(d.ctx)
}
