package taskrt

// Waker is a shared handle that, when signaled, transitions a suspended
// task back to ready and re-enqueues it onto the local queue that was
// captured at the moment the waker was constructed — not whatever queue the
// polling worker happens to be serving when the signal arrives. This gives
// a task warm-state locality (it tends to re-run on the worker that last
// polled it) without a global dispatch table.
//
// Signal and SignalByRef are functionally identical in this port: a
// consuming wake versus a wake-by-reference only matters when an
// implementation must track a refcount to decide whether to free the
// waker. Go values are garbage collected, so there is no ownership to
// consume — both methods simply attempt the Waiting->Pending CAS and
// re-enqueue on success. Both are kept, rather than collapsed into one
// method, to preserve the three-way clone / signal-consuming /
// signal-by-reference shape callers expect.
type Waker interface {
	// Clone returns a new handle that re-enters the same real task and
	// queue as the original: a clone of a live waker must be able to wake
	// the real task, never a no-op sentinel.
	Clone() Waker
	// Signal attempts to wake the bound task, consuming this handle.
	Signal()
	// SignalByRef attempts to wake the bound task without consuming this
	// handle; it may be called again afterwards.
	SignalByRef()
}

// taskWaker is the real waker implementation, bound to (task, local queue)
// at construction time.
type taskWaker struct {
	task  *Task
	queue *taskDeque
}

// newWaker constructs a waker bound to task and the given local queue. It
// is called fresh for every poll.
func newWaker(task *Task, queue *taskDeque) Waker {
	return &taskWaker{task: task, queue: queue}
}

func (w *taskWaker) Clone() Waker {
	// Re-enters the real (task, queue) pair; see the Waker doc comment.
	return &taskWaker{task: w.task, queue: w.queue}
}

func (w *taskWaker) Signal() {
	w.signal()
}

func (w *taskWaker) SignalByRef() {
	w.signal()
}

// signal attempts the Waiting->Pending CAS; on success it re-pushes the
// task onto the captured local queue, so every successful signal
// corresponds to exactly one subsequent enqueue of its task. On failure —
// the task has since become Cancelled or Completed, or another waker
// already fired — the signal is silently dropped.
func (w *taskWaker) signal() {
	if w.task.casState(Waiting, Pending) {
		w.queue.PushBack(w.task)
	}
}

// noopWaker is the sentinel waker used by block_on to drive a single
// caller-owned computation without participating in the runtime's queues.
type noopWaker struct{}

func (noopWaker) Clone() Waker { return noopWaker{} }
func (noopWaker) Signal()      {}
func (noopWaker) SignalByRef() {}

// NoopWaker returns the shared no-op waker.
func NoopWaker() Waker { return noopWaker{} }
