package taskrt

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type WakerTestSuite struct {
	suite.Suite
}

func TestWakerTestSuite(t *testing.T) {
	suite.Run(t, new(WakerTestSuite))
}

func (ts *WakerTestSuite) TestSignalRequeuesWaitingTask() {
	queue := newTaskDeque(4)
	task := newTask(Normal, FuncComputation(func(Waker) PollResult { return PollPending }))
	task.state.Store(int32(Waiting))

	waker := newWaker(task, queue)
	waker.Signal()

	ts.Equal(Pending, task.State())
	ts.Equal(1, queue.Len())

	got, ok := queue.PopFront()
	ts.True(ok)
	ts.Equal(task.ID(), got.ID())
}

func (ts *WakerTestSuite) TestSignalOnNonWaitingTaskIsNoop() {
	queue := newTaskDeque(4)
	task := newTask(Normal, FuncComputation(func(Waker) PollResult { return PollPending }))
	task.state.Store(int32(Running))

	waker := newWaker(task, queue)
	waker.Signal()

	ts.Equal(Running, task.State())
	ts.Equal(0, queue.Len())
}

func (ts *WakerTestSuite) TestCloneWakesTheRealTask() {
	queue := newTaskDeque(4)
	task := newTask(Normal, FuncComputation(func(Waker) PollResult { return PollPending }))
	task.state.Store(int32(Waiting))

	original := newWaker(task, queue)
	clone := original.Clone()

	// This is the behavior the distilled scheduler's open question was
	// about: a clone of a live waker must wake the real task, not a
	// disconnected sentinel.
	clone.Signal()

	ts.Equal(Pending, task.State())
	ts.Equal(1, queue.Len())
}

func (ts *WakerTestSuite) TestSignalByRefBehavesLikeSignal() {
	queue := newTaskDeque(4)
	task := newTask(Normal, FuncComputation(func(Waker) PollResult { return PollPending }))
	task.state.Store(int32(Waiting))

	waker := newWaker(task, queue)
	waker.SignalByRef()

	ts.Equal(Pending, task.State())
	ts.Equal(1, queue.Len())
}

func (ts *WakerTestSuite) TestNoopWakerDoesNothing() {
	waker := NoopWaker()
	clone := waker.Clone()
	ts.NotPanics(func() {
		waker.Signal()
		clone.SignalByRef()
	})
}
