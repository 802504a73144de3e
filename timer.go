package taskrt

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// defaultWheelSizes mirrors the original Rust runtime's 3-level wheel
// (levels of 256, 64, 64 slots), grounded on
// original_source/guidellm/seed-documents/05-rust-async-runtime.rs.
var defaultWheelSizes = []int{256, 64, 64}

type timerEntry struct {
	deadline time.Time
	task     *Task
}

// timerWheel is a hierarchical, cascading timer wheel scheduling
// (deadline, task) pairs. current_tick advances monotonically; last_tick is
// the wall-clock instant corresponding to current_tick. It never processes
// the same tick twice, and tolerates coarse wall-clock samples (e.g. after
// host sleep) by catching up tick-by-tick.
//
// The clock is injectable (clockz.Clock) so wheel advancement is
// deterministically testable with clockz.NewFakeClock(), the same pattern
// zoobzio-pipz uses for its Timeout/RateLimiter/CircuitBreaker connectors.
type timerWheel struct {
	mu sync.Mutex

	clock        clockz.Clock
	tickDuration time.Duration
	currentTick  uint64
	lastTick     time.Time

	levels [][]([]timerEntry)
}

func newTimerWheel(clock clockz.Clock, tickDuration time.Duration, wheelSizes []int) *timerWheel {
	if clock == nil {
		clock = clockz.RealClock
	}
	if tickDuration <= 0 {
		tickDuration = time.Millisecond
	}
	if len(wheelSizes) == 0 {
		wheelSizes = defaultWheelSizes
	}

	levels := make([][]([]timerEntry), len(wheelSizes))
	for i, size := range wheelSizes {
		levels[i] = make([][]timerEntry, size)
	}

	return &timerWheel{
		clock:        clock,
		tickDuration: tickDuration,
		lastTick:     clock.Now(),
		levels:       levels,
	}
}

// schedule places (deadline, task) into the wheel:
// compute delta in ticks, place in level 0's next slot (the one the next
// tick drains) if already due,
// otherwise find the smallest level whose span covers delta, clamping to
// the last level's last slot if delta exceeds every level's span.
func (w *timerWheel) schedule(deadline time.Time, task *Task) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scheduleLocked(deadline, task)
}

func (w *timerWheel) scheduleLocked(deadline time.Time, task *Task) {
	now := w.clock.Now()
	if !deadline.After(now) {
		slot := (w.currentTick + 1) % uint64(len(w.levels[0]))
		w.levels[0][slot] = append(w.levels[0][slot], timerEntry{deadline: deadline, task: task})
		return
	}

	delta := uint64(deadline.Sub(now) / w.tickDuration)

	remaining := delta
	for level, slots := range w.levels {
		span := uint64(len(slots))
		if remaining < span {
			slot := (w.currentTick + remaining) % span
			w.levels[level][slot] = append(w.levels[level][slot], timerEntry{deadline: deadline, task: task})
			return
		}
		remaining /= span
	}

	last := len(w.levels) - 1
	lastSlots := w.levels[last]
	slot := len(lastSlots) - 1
	lastSlots[slot] = append(lastSlots[slot], timerEntry{deadline: deadline, task: task})
}

// advance brings current_tick up to real time in steps of tickDuration,
// cascading entries down from coarser levels on rotation, and returns tasks
// whose deadline has passed, ordered by priority (the same
// "timer-fire drain, which inserts in priority order where practical"), plus
// whether a coarser-to-finer cascade actually occurred during this call.
func (w *timerWheel) advance() ([]*Task, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var readyTasks []*Task
	var cascaded bool
	now := w.clock.Now()

	for !w.lastTick.Add(w.tickDuration).After(now) {
		w.lastTick = w.lastTick.Add(w.tickDuration)
		w.currentTick++

		for level := 0; level < len(w.levels); level++ {
			span := uint64(len(w.levels[level]))
			slot := w.currentTick % span

			if slot == 0 && level < len(w.levels)-1 {
				nextSpan := uint64(len(w.levels[level+1]))
				nextSlot := (w.currentTick / span) % nextSpan
				entries := w.levels[level+1][nextSlot]
				w.levels[level+1][nextSlot] = nil
				if len(entries) > 0 {
					cascaded = true
				}
				for _, e := range entries {
					w.scheduleLocked(e.deadline, e.task)
				}
			}

			entries := w.levels[level][slot]
			w.levels[level][slot] = nil
			for _, e := range entries {
				if !e.deadline.After(now) {
					readyTasks = append(readyTasks, e.task)
				} else {
					w.scheduleLocked(e.deadline, e.task)
				}
			}
		}
	}

	if len(readyTasks) > 1 {
		pq := newTaskPriorityQueue()
		for _, t := range readyTasks {
			pq.Push(t)
		}
		ordered := make([]*Task, 0, len(readyTasks))
		for {
			t, ok := pq.Pop()
			if !ok {
				break
			}
			ordered = append(ordered, t)
		}
		readyTasks = ordered
	}

	return readyTasks, cascaded
}

// parkTimeout waits for d on the wheel's injected clock, or until ctx is
// done. The worker loop does not call it: worker.park waits on a real-time
// timer.
func (w *timerWheel) parkTimeout(ctx context.Context, d time.Duration) {
	select {
	case <-w.clock.After(d):
	case <-ctx.Done():
	}
}
