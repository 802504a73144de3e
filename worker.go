package taskrt

import (
	"context"
	"strconv"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/tracez"
)

// parkTimeout bounds the worker's wait for new work so that submissions,
// timer fires, and shutdown are observed promptly.
const parkTimeout = 10 * time.Millisecond

// pollSpan names the tracer span wrapping every Computation.Poll call.
const pollSpan tracez.Key = "taskrt.poll"

// worker owns one local work-stealing queue and runs the cooperative
// scheduling loop.
type worker struct {
	id         int
	local      *taskDeque
	global     *taskDeque
	peers      []*taskDeque // all workers' local queues, for stealing
	timer      *timerWheel
	reg        *registry
	stats      *runtimeStats
	tracer     *tracez.Tracer
	hooks      *runtimeHooks
	shutdownCh <-chan struct{}
	notifyCh   chan struct{}

	rngState uint64
}

func newWorker(id int, global *taskDeque, peers []*taskDeque, timer *timerWheel, reg *registry, stats *runtimeStats, tracer *tracez.Tracer, hooks *runtimeHooks, shutdownCh <-chan struct{}, notifyCh chan struct{}) *worker {
	seed := uint64(id)*2654435761 + 1
	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}
	return &worker{
		id:         id,
		local:      peers[id],
		global:     global,
		peers:      peers,
		timer:      timer,
		reg:        reg,
		stats:      stats,
		tracer:     tracer,
		hooks:      hooks,
		shutdownCh: shutdownCh,
		notifyCh:   notifyCh,
		rngState:   seed,
	}
}

// run drives the worker loop until shutdown is observed. It is the
// function handed to `go worker.run(ctx)` by the runtime facade's start().
func (w *worker) run(ctx context.Context) {
	for {
		select {
		case <-w.shutdownCh:
			return
		default:
		}

		w.drainTimers()

		task, source := w.acquire()
		if task == nil {
			w.park(ctx)
			continue
		}

		w.handle(task, source)
	}
}

// drainTimers advances the shared timer wheel and pushes any ready tasks
// onto this worker's local queue, recording timer fires in statistics.
func (w *worker) drainTimers() {
	ready, cascaded := w.timer.advance()
	if cascaded {
		capitan.Info(context.Background(), SignalTimerCascaded,
			FieldWorkerID.Field(w.id),
		)
	}
	for _, t := range ready {
		w.stats.timerFired()
		w.local.PushBack(t)
	}
}

type acquireSource int

const (
	sourceLocal acquireSource = iota
	sourceGlobal
	sourceSteal
)

// acquire tries local.pop_front(), then global.pop_front(), then stealing
// from a random peer.
func (w *worker) acquire() (*Task, acquireSource) {
	if t, ok := w.local.PopFront(); ok {
		return t, sourceLocal
	}
	if t, ok := w.global.PopFront(); ok {
		return t, sourceGlobal
	}

	numPeers := len(w.peers)
	for i := 0; i < numPeers; i++ {
		w.rngState ^= w.rngState << 13
		w.rngState ^= w.rngState >> 7
		w.rngState ^= w.rngState << 17
		victim := int(w.rngState % uint64(numPeers))
		if victim == w.id {
			continue
		}
		if t, ok := w.peers[victim].Steal(); ok {
			w.stats.stolen()
			capitan.Info(context.Background(), SignalWorkerStolen,
				FieldWorkerID.Field(w.id),
				FieldTaskID.Field(taskIDString(t.id)),
			)
			return t, sourceSteal
		}
	}
	return nil, sourceLocal
}

// handle processes one acquired task: discard if it's no longer live,
// claim it, poll it, and route the result.
func (w *worker) handle(task *Task, _ acquireSource) {
	switch task.State() {
	case Cancelled, Completed:
		return
	}

	if !task.casState(Pending, Running) {
		return
	}

	comp := task.takeComputation()
	if comp == nil {
		// The slot is already empty; nothing to drive.
		task.casState(Running, Completed)
		w.reg.remove(task.id)
		w.stats.completed()
		return
	}

	waker := newWaker(task, w.local)

	_, span := w.tracer.StartSpan(context.Background(), pollSpan)

	w.stats.polled()
	result, panicErr := pollComputation(task, comp, waker)
	span.Finish()

	if panicErr != nil {
		capitan.Error(context.Background(), SignalTaskPanicked,
			FieldTaskID.Field(taskIDString(task.id)),
			FieldWorkerID.Field(w.id),
			FieldError.Field(panicErr.Error()),
		)
		if w.hooks != nil {
			w.hooks.emitPanic(PanicEvent{TaskID: task.id, Value: panicErr.Error()})
		}
		task.state.Store(int32(Completed))
		task.dropComputation()
		w.reg.remove(task.id)
		w.stats.completed()
		return
	}

	switch result {
	case PollReady:
		task.state.Store(int32(Completed))
		task.dropComputation()
		w.reg.remove(task.id)
		w.stats.completed()
	case PollPending:
		task.putComputation(comp)
		task.state.Store(int32(Waiting))
	}
}

// park waits on the runtime's notification channel with a bounded timeout
// so new submissions, timer fires, and shutdown are observed promptly.
func (w *worker) park(ctx context.Context) {
	capitan.Info(context.Background(), SignalWorkerParked,
		FieldWorkerID.Field(w.id),
	)
	select {
	case <-w.notifyCh:
	case <-w.shutdownCh:
	case <-ctx.Done():
	case <-time.After(parkTimeout):
	}
}

func taskIDString(id TaskId) string {
	return strconv.FormatUint(uint64(id), 10)
}
