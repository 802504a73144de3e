package taskrt

import (
	"fmt"
)

// pollPanic records that a computation's Poll call panicked. It is the
// caller's contract violation; the policy is to treat it as
// task completion with a logged warning, never to let it stop other
// workers.
type pollPanic struct {
	task  *Task
	value interface{}
}

func (p *pollPanic) Error() string {
	if p.task == nil {
		return fmt.Sprintf("taskrt: poll panicked: %v", p.value)
	}
	return fmt.Sprintf("taskrt: task %d panicked during poll: %v", p.task.id, p.value)
}

// pollComputation polls comp under a recovered panic boundary, scoped to
// this single call via defer+recover, in the manner zoobzio-pipz recovers
// around each connector's Process call. A panic is converted into
// PollReady (the task is considered complete) plus a non-nil *pollPanic
// describing what happened. task may be nil when the caller is driving a
// bare Computation outside the task system (e.g. Runtime.BlockOn).
func pollComputation(task *Task, comp Computation, waker Waker) (result PollResult, panicErr error) {
	defer func() {
		if r := recover(); r != nil {
			result = PollReady
			panicErr = &pollPanic{task: task, value: r}
		}
	}()
	return comp.Poll(waker), nil
}

// PanicEvent is emitted via hookz when a task's poll panics.
type PanicEvent struct {
	TaskID TaskId
	Value  interface{}
}

// CancelEvent is emitted via hookz when a task is cancelled.
type CancelEvent struct {
	TaskID TaskId
}
