package taskrt

import "github.com/zoobzio/capitan"

// Signal constants for taskrt runtime events, following the pattern
// <component>.<event>, grounded on zoobzio-pipz's signals.go.
const (
	SignalTaskSpawned     capitan.Signal = "task.spawned"
	SignalTaskCompleted   capitan.Signal = "task.completed"
	SignalTaskCancelled   capitan.Signal = "task.cancelled"
	SignalTaskPanicked    capitan.Signal = "task.panicked"
	SignalWorkerParked    capitan.Signal = "worker.parked"
	SignalWorkerStolen    capitan.Signal = "worker.stolen"
	SignalTimerCascaded   capitan.Signal = "timer.cascaded"
	SignalRuntimeStarted  capitan.Signal = "runtime.started"
	SignalRuntimeShutdown capitan.Signal = "runtime.shutdown"
	SignalRuntimeLeaked   capitan.Signal = "runtime.leaked"
)

// Field keys used by the signals above, mirroring signals.go's
// capitan.NewStringKey/NewIntKey/NewFloat64Key pattern.
var (
	FieldTaskID     = capitan.NewStringKey("task_id")
	FieldWorkerID   = capitan.NewIntKey("worker_id")
	FieldPriority   = capitan.NewStringKey("priority")
	FieldError      = capitan.NewStringKey("error")
	FieldTimestamp  = capitan.NewFloat64Key("timestamp")
	FieldNumWorkers = capitan.NewIntKey("num_workers")
)
