package taskrt

import (
	"context"

	"github.com/zoobzio/hookz"
)

// Event keys for the runtime's two hook streams, grounded on the pack's
// per-connector hookz.Key constant blocks.
const (
	HookTaskPanicked hookz.Key = "task.panicked"
	HookTaskCancelled hookz.Key = "task.cancelled"
)

// runtimeHooks lets callers observe panics and cancellations without being
// on the hot path: Emit is fire-and-forget from the worker's perspective,
// handlers run asynchronously on their own goroutines.
type runtimeHooks struct {
	panics *hookz.Hooks[PanicEvent]
	cancel *hookz.Hooks[CancelEvent]
}

func newRuntimeHooks() *runtimeHooks {
	return &runtimeHooks{
		panics: hookz.New[PanicEvent](),
		cancel: hookz.New[CancelEvent](),
	}
}

// OnPanic registers a handler invoked whenever a task's poll panics.
func (h *runtimeHooks) OnPanic(handler func(context.Context, PanicEvent) error) error {
	_, err := h.panics.Hook(HookTaskPanicked, handler)
	return err
}

// OnCancel registers a handler invoked whenever a task is cancelled.
func (h *runtimeHooks) OnCancel(handler func(context.Context, CancelEvent) error) error {
	_, err := h.cancel.Hook(HookTaskCancelled, handler)
	return err
}

func (h *runtimeHooks) emitPanic(ev PanicEvent) {
	_ = h.panics.Emit(context.Background(), HookTaskPanicked, ev) //nolint:errcheck
}

func (h *runtimeHooks) emitCancel(ev CancelEvent) {
	_ = h.cancel.Emit(context.Background(), HookTaskCancelled, ev) //nolint:errcheck
}

func (h *runtimeHooks) Close() {
	h.panics.Close()
	h.cancel.Close()
}
