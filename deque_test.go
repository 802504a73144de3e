package taskrt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DequeTestSuite struct {
	suite.Suite
}

func TestDequeTestSuite(t *testing.T) {
	suite.Run(t, new(DequeTestSuite))
}

func (ts *DequeTestSuite) newTask() *Task {
	return newTask(Normal, FuncComputation(func(Waker) PollResult { return PollReady }))
}

func (ts *DequeTestSuite) TestPushPopFIFO() {
	d := newTaskDeque(4)
	a, b, c := ts.newTask(), ts.newTask(), ts.newTask()

	d.PushBack(a)
	d.PushBack(b)
	d.PushBack(c)

	ts.Equal(3, d.Len())

	got, ok := d.PopFront()
	ts.True(ok)
	ts.Equal(a.ID(), got.ID())
}

func (ts *DequeTestSuite) TestPopEmpty() {
	d := newTaskDeque(4)
	_, ok := d.PopFront()
	ts.False(ok)
	ts.True(d.IsEmpty())
}

func (ts *DequeTestSuite) TestStealFromNonEmpty() {
	d := newTaskDeque(4)
	a := ts.newTask()
	d.PushBack(a)

	stolen, ok := d.Steal()
	ts.True(ok)
	ts.Equal(a.ID(), stolen.ID())
	ts.True(d.IsEmpty())
}

func (ts *DequeTestSuite) TestStealEmpty() {
	d := newTaskDeque(4)
	_, ok := d.Steal()
	ts.False(ok)
}

func (ts *DequeTestSuite) TestGrowsPastInitialCapacity() {
	d := newTaskDeque(2)
	for i := 0; i < 10; i++ {
		d.PushBack(ts.newTask())
	}
	ts.Equal(10, d.Len())
}

func (ts *DequeTestSuite) TestConcurrentStealersDoNotDuplicate() {
	d := newTaskDeque(8)
	const n = 200
	for i := 0; i < n; i++ {
		d.PushBack(ts.newTask())
	}

	var mu sync.Mutex
	seen := make(map[TaskId]bool)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				t, ok := d.Steal()
				if !ok {
					return
				}
				mu.Lock()
				seen[t.ID()] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	ts.LessOrEqual(len(seen), n)
}
