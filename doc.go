// Package taskrt provides a multi-threaded cooperative task runtime: a
// scheduler that executes user-submitted computations modeled as resumable
// state machines ("tasks") on a fixed pool of worker goroutines, together
// with a hierarchical timer service and a cooperative cancellation protocol.
//
// The runtime supports:
// - Resumable, poll-based computations with an explicit waker protocol
// - Work-stealing load balancing across a fixed worker pool
// - A hierarchical, cascading timer wheel for delayed spawns
// - Priority scheduling (Low, Normal, High, Critical)
// - Cooperative cancellation
// - Structured observability (metrics, traces, logs, hooks)
package taskrt
