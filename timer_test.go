package taskrt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/zoobzio/clockz"
)

type TimerWheelTestSuite struct {
	suite.Suite
}

func TestTimerWheelTestSuite(t *testing.T) {
	suite.Run(t, new(TimerWheelTestSuite))
}

func (ts *TimerWheelTestSuite) newTask() *Task {
	return newTask(Normal, FuncComputation(func(Waker) PollResult { return PollReady }))
}

func (ts *TimerWheelTestSuite) TestFiresAfterDeadline() {
	clock := clockz.NewFakeClock()
	wheel := newTimerWheel(clock, time.Millisecond, nil)

	task := ts.newTask()
	wheel.schedule(clock.Now().Add(10*time.Millisecond), task)

	emptyReady, _ := wheel.advance()
	ts.Empty(emptyReady)

	clock.Advance(10 * time.Millisecond)
	clock.BlockUntilReady()

	ready, _ := wheel.advance()
	ts.Len(ready, 1)
	ts.Equal(task.ID(), ready[0].ID())
}

func (ts *TimerWheelTestSuite) TestAlreadyDueFiresOnNextTick() {
	clock := clockz.NewFakeClock()
	wheel := newTimerWheel(clock, time.Millisecond, nil)

	task := ts.newTask()
	wheel.schedule(clock.Now().Add(-time.Millisecond), task)

	clock.Advance(time.Millisecond)
	clock.BlockUntilReady()

	ready, _ := wheel.advance()
	ts.Len(ready, 1)
	ts.Equal(task.ID(), ready[0].ID())
}

func (ts *TimerWheelTestSuite) TestMultipleReadyOrderedByPriority() {
	clock := clockz.NewFakeClock()
	wheel := newTimerWheel(clock, time.Millisecond, nil)

	low := newTask(Low, FuncComputation(func(Waker) PollResult { return PollReady }))
	high := newTask(High, FuncComputation(func(Waker) PollResult { return PollReady }))

	deadline := clock.Now().Add(5 * time.Millisecond)
	wheel.schedule(deadline, low)
	wheel.schedule(deadline, high)

	clock.Advance(5 * time.Millisecond)
	clock.BlockUntilReady()

	ready, _ := wheel.advance()
	ts.Len(ready, 2)
	ts.Equal(High, ready[0].Priority())
	ts.Equal(Low, ready[1].Priority())
}

func (ts *TimerWheelTestSuite) TestFarFutureDeadlineClampsToLastSlot() {
	clock := clockz.NewFakeClock()
	wheel := newTimerWheel(clock, time.Millisecond, []int{4, 4})

	task := ts.newTask()
	// Far beyond the wheel's total span; must not panic or be dropped.
	wheel.schedule(clock.Now().Add(10*time.Hour), task)

	last := wheel.levels[len(wheel.levels)-1]
	total := 0
	for _, slot := range last {
		total += len(slot)
	}
	ts.Equal(1, total)
}

func (ts *TimerWheelTestSuite) TestFiresWhenPlacedInHigherLevel() {
	clock := clockz.NewFakeClock()
	wheel := newTimerWheel(clock, time.Millisecond, []int{4, 4})

	task := ts.newTask()
	// 6 ticks is beyond level 0's span of 4, so this lands in level 1 at
	// schedule time; advancing must still surface it once due.
	wheel.schedule(clock.Now().Add(6*time.Millisecond), task)

	clock.Advance(6 * time.Millisecond)
	clock.BlockUntilReady()

	ready, _ := wheel.advance()
	ts.Len(ready, 1)
	ts.Equal(task.ID(), ready[0].ID())
}
