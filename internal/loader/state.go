package loader

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// State is a loader run phase.
type State string

// Run states.
const (
	StateIdle           State = "idle"
	StateAcquiringLock  State = "acquiring_lock"
	StateDeferred       State = "deferred"
	StateLoading        State = "loading"
	StateParsingResults State = "parsing_results"
	StateReconciling    State = "reconciling"
	StateCleaning       State = "cleaning"
)

// Run events.
const (
	eventAcquire   = "acquire"
	eventDefer     = "defer"
	eventLoad      = "load"
	eventParse     = "parse"
	eventReconcile = "reconcile"
	eventClean     = "clean"
	eventAbort     = "abort"
	eventFinish    = "finish"
)

// machine tracks one run. A new machine is built per run.
type machine struct {
	*fsm.FSM
	logger *zap.Logger
	path   []State
}

func newMachine(logger *zap.Logger) *machine {
	m := &machine{logger: logger, path: []State{StateIdle}}

	events := fsm.Events{
		{Name: eventAcquire, Src: []string{string(StateIdle)}, Dst: string(StateAcquiringLock)},
		{Name: eventDefer, Src: []string{string(StateAcquiringLock)}, Dst: string(StateDeferred)},
		{Name: eventLoad, Src: []string{string(StateAcquiringLock)}, Dst: string(StateLoading)},
		{Name: eventParse, Src: []string{string(StateLoading)}, Dst: string(StateParsingResults)},
		{Name: eventReconcile, Src: []string{string(StateParsingResults)}, Dst: string(StateReconciling)},
		// Empty load dir and upload-disabled runs skip straight to cleaning.
		{Name: eventClean, Src: []string{string(StateAcquiringLock), string(StateLoading), string(StateReconciling)}, Dst: string(StateCleaning)},
		{Name: eventAbort, Src: []string{
			string(StateAcquiringLock), string(StateLoading), string(StateParsingResults), string(StateReconciling),
		}, Dst: string(StateIdle)},
		{Name: eventFinish, Src: []string{string(StateCleaning)}, Dst: string(StateIdle)},
	}

	callbacks := fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			m.path = append(m.path, State(e.Dst))
			logger.Debug("loader state",
				zap.String("event", e.Event),
				zap.String("from", e.Src),
				zap.String("to", e.Dst),
			)
		},
	}

	m.FSM = fsm.NewFSM(string(StateIdle), events, callbacks)
	return m
}

// fire moves the machine. Run cancellation must not strand the machine
// mid-transition, so the event always sees an uncancelled context. A rejected
// transition is logged and returned.
func (m *machine) fire(ctx context.Context, event string) error {
	if err := m.Event(context.WithoutCancel(ctx), event); err != nil {
		m.logger.Error("loader transition rejected", zap.String("event", event), zap.String("state", m.Current()), zap.Error(err))
		return fmt.Errorf("loader transition %s from %s: %w", event, m.Current(), err)
	}
	return nil
}

