package taskrt

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/tracez"
)

// Config holds configuration for a Runtime.
type Config struct {
	NumWorkers         int           // Number of worker goroutines
	StackSize          int           // Informational only; Go goroutine stacks grow on demand
	EnableIO           bool          // Whether I/O-driven computations are expected
	TimerTickDuration  time.Duration // Resolution of the timer wheel's lowest level
	MaxBlockingThreads int           // Reserved budget for blocking work, informational only

	// Clock is injectable so tests can drive timers deterministically with
	// clockz.NewFakeClock(). Nil defaults to clockz.RealClock.
	Clock clockz.Clock
}

// DefaultConfig returns sensible default configuration, sized to the host.
func DefaultConfig() Config {
	return Config{
		NumWorkers:         runtime.NumCPU(),
		StackSize:          2 * 1024 * 1024,
		EnableIO:           true,
		TimerTickDuration:  time.Millisecond,
		MaxBlockingThreads: 512,
		Clock:              clockz.RealClock,
	}
}

func (c Config) normalize() Config {
	if c.NumWorkers <= 0 {
		c.NumWorkers = 1
	}
	if c.TimerTickDuration <= 0 {
		c.TimerTickDuration = time.Millisecond
	}
	if c.MaxBlockingThreads <= 0 {
		c.MaxBlockingThreads = 512
	}
	if c.Clock == nil {
		c.Clock = clockz.RealClock
	}
	return c
}

// Runtime is a cooperative multi-tasking scheduler: a fixed pool of worker
// goroutines drains a global queue and per-worker work-stealing local
// queues, polling each Computation to completion under a Waker that
// re-enqueues it when it can make progress again.
type Runtime struct {
	config Config

	global   *taskDeque
	locals   []*taskDeque
	timer    *timerWheel
	registry *registry
	stats    *runtimeStats
	tracer   *tracez.Tracer
	hooks    *runtimeHooks

	workers    []*worker
	wg         sync.WaitGroup
	shutdownCh chan struct{}
	notifyCh   chan struct{}
	started    bool
	stopped    bool
}

// NewRuntime constructs a Runtime from config, normalizing invalid values
// (e.g. a non-positive worker count clamps to 1) rather than rejecting them.
func NewRuntime(config Config) *Runtime {
	config = config.normalize()

	numWorkers := config.NumWorkers
	locals := make([]*taskDeque, numWorkers)
	for i := range locals {
		locals[i] = newTaskDeque(32)
	}

	r := &Runtime{
		config:     config,
		global:     newTaskDeque(256),
		locals:     locals,
		timer:      newTimerWheel(config.Clock, config.TimerTickDuration, defaultWheelSizes),
		registry:   newRegistry(),
		stats:      newRuntimeStats(),
		tracer:     tracez.New(),
		hooks:      newRuntimeHooks(),
		shutdownCh: make(chan struct{}),
		notifyCh:   make(chan struct{}, numWorkers),
	}

	r.workers = make([]*worker, numWorkers)
	for i := 0; i < numWorkers; i++ {
		r.workers[i] = newWorker(i, r.global, r.locals, r.timer, r.registry, r.stats, r.tracer, r.hooks, r.shutdownCh, r.notifyCh)
	}

	runtime.SetFinalizer(r, func(leaked *Runtime) {
		if leaked.started && !leaked.stopped {
			capitan.Warn(context.Background(), SignalRuntimeLeaked,
				FieldNumWorkers.Field(leaked.config.NumWorkers),
			)
		}
	})

	return r
}

// Start launches the worker goroutines. It is a no-op if already started.
func (r *Runtime) Start() {
	if r.started {
		return
	}
	r.started = true

	capitan.Info(context.Background(), SignalRuntimeStarted,
		FieldNumWorkers.Field(r.config.NumWorkers),
	)

	ctx := context.Background()
	r.wg.Add(len(r.workers))
	for _, w := range r.workers {
		w := w
		go func() {
			defer r.wg.Done()
			w.run(ctx)
		}()
	}
}

// Shutdown signals all workers to stop and joins them before returning.
// Safe to call more than once; the join is only observed on the call that
// actually closes shutdownCh.
func (r *Runtime) Shutdown() {
	if r.stopped {
		return
	}
	r.stopped = true
	close(r.shutdownCh)
	r.wg.Wait()

	capitan.Info(context.Background(), SignalRuntimeShutdown,
		FieldNumWorkers.Field(r.config.NumWorkers),
	)

	r.hooks.Close()
	r.tracer.Close()
}

// notify wakes at most one parked worker; it is non-blocking so spawners
// never stall on a full or unread channel.
func (r *Runtime) notify() {
	select {
	case r.notifyCh <- struct{}{}:
	default:
	}
}

// Spawn enqueues comp at Normal priority and returns its TaskId.
func (r *Runtime) Spawn(comp Computation) TaskId {
	return r.SpawnWithPriority(comp, Normal)
}

// SpawnWithPriority enqueues comp at the given priority onto the global
// queue, from which any idle worker may claim it.
func (r *Runtime) SpawnWithPriority(comp Computation, priority Priority) TaskId {
	task := newTask(priority, comp)
	r.registry.insert(task)
	r.stats.spawned()

	capitan.Info(context.Background(), SignalTaskSpawned,
		FieldTaskID.Field(taskIDString(task.id)),
		FieldPriority.Field(priority.String()),
	)

	r.global.PushBack(task)
	r.notify()
	return task.id
}

// SpawnDelayed schedules comp to become runnable no earlier than delay
// from now, via the runtime's timer wheel.
func (r *Runtime) SpawnDelayed(delay time.Duration, comp Computation) TaskId {
	task := newTask(Normal, comp)
	r.registry.insert(task)
	r.stats.spawned()

	capitan.Info(context.Background(), SignalTaskSpawned,
		FieldTaskID.Field(taskIDString(task.id)),
		FieldPriority.Field(task.priority.String()),
	)

	deadline := r.config.Clock.Now().Add(delay)
	r.timer.schedule(deadline, task)
	return task.id
}

// Cancel attempts to cancel the task identified by id. It returns false if
// the task is unknown or already running/terminal.
func (r *Runtime) Cancel(id TaskId) bool {
	task, ok := r.registry.get(id)
	if !ok {
		return false
	}
	if !task.cancel() {
		return false
	}

	r.stats.cancelled()
	task.dropComputation()
	r.registry.remove(id)
	r.hooks.emitCancel(CancelEvent{TaskID: id})

	capitan.Info(context.Background(), SignalTaskCancelled,
		FieldTaskID.Field(taskIDString(id)),
	)
	return true
}

// Stats returns a point-in-time snapshot of the runtime's counters.
func (r *Runtime) Stats() Stats {
	return r.stats.snapshot()
}

// OnPanic registers a handler invoked whenever a task's poll panics.
func (r *Runtime) OnPanic(handler func(context.Context, PanicEvent) error) error {
	return r.hooks.OnPanic(handler)
}

// OnCancel registers a handler invoked whenever a task is cancelled.
func (r *Runtime) OnCancel(handler func(context.Context, CancelEvent) error) error {
	return r.hooks.OnCancel(handler)
}

// BlockOn drives a single computation to completion on the calling
// goroutine, independent of the worker pool, using the no-op waker: a
// Pending result is retried after yielding, since nothing will signal a
// waker nobody holds. Between polls it nudges one task from the global
// queue onto worker 0's local queue, so the pool keeps making progress on
// other work while the caller is parked here.
func (r *Runtime) BlockOn(comp Computation) {
	waker := NoopWaker()
	for {
		result, panicErr := pollComputation(nil, comp, waker)
		if panicErr != nil || result == PollReady {
			return
		}
		if len(r.locals) > 0 {
			if t, ok := r.global.PopFront(); ok {
				r.locals[0].PushBack(t)
			}
		}
		runtime.Gosched()
	}
}
