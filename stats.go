package taskrt

import "github.com/zoobzio/metricz"

// Metric keys for the runtime's counters, grounded on zoobzio-pipz's
// per-connector metricz.Key constant blocks (e.g. timeout.go's
// TimeoutProcessedTotal).
const (
	MetricTasksSpawned   metricz.Key = "taskrt.tasks_spawned"
	MetricTasksCompleted metricz.Key = "taskrt.tasks_completed"
	MetricTasksCancelled metricz.Key = "taskrt.tasks_cancelled"
	MetricPollCount      metricz.Key = "taskrt.poll_count"
	MetricStealCount     metricz.Key = "taskrt.steal_count"
	MetricTimerFires     metricz.Key = "taskrt.timer_fires"
)

// runtimeStats wraps a metricz.Registry with the six monotonically
// increasing counters the runtime tracks: tasks_spawned, tasks_completed,
// tasks_cancelled, poll_count, steal_count, timer_fires. Reads are relaxed
// (metricz counters are backed by atomics internally) and snapshots are not
// transactionally consistent across counters.
type runtimeStats struct {
	registry *metricz.Registry
}

func newRuntimeStats() *runtimeStats {
	r := metricz.New()
	r.Counter(MetricTasksSpawned)
	r.Counter(MetricTasksCompleted)
	r.Counter(MetricTasksCancelled)
	r.Counter(MetricPollCount)
	r.Counter(MetricStealCount)
	r.Counter(MetricTimerFires)
	return &runtimeStats{registry: r}
}

func (s *runtimeStats) spawned()   { s.registry.Counter(MetricTasksSpawned).Inc() }
func (s *runtimeStats) completed() { s.registry.Counter(MetricTasksCompleted).Inc() }
func (s *runtimeStats) cancelled() { s.registry.Counter(MetricTasksCancelled).Inc() }
func (s *runtimeStats) polled()    { s.registry.Counter(MetricPollCount).Inc() }
func (s *runtimeStats) stolen()    { s.registry.Counter(MetricStealCount).Inc() }
func (s *runtimeStats) timerFired() { s.registry.Counter(MetricTimerFires).Inc() }

// Stats is a point-in-time, non-transactional snapshot of the runtime's
// counters.
type Stats struct {
	TasksSpawned   uint64
	TasksCompleted uint64
	TasksCancelled uint64
	PollCount      uint64
	StealCount     uint64
	TimerFires     uint64
}

func (s *runtimeStats) snapshot() Stats {
	return Stats{
		TasksSpawned:   uint64(s.registry.Counter(MetricTasksSpawned).Value()),
		TasksCompleted: uint64(s.registry.Counter(MetricTasksCompleted).Value()),
		TasksCancelled: uint64(s.registry.Counter(MetricTasksCancelled).Value()),
		PollCount:      uint64(s.registry.Counter(MetricPollCount).Value()),
		StealCount:     uint64(s.registry.Counter(MetricStealCount).Value()),
		TimerFires:     uint64(s.registry.Counter(MetricTimerFires).Value()),
	}
}
