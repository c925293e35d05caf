package remotesync

import (
	"fmt"

	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
	"github.com/finance-tracker/ledgersync/internal/domain/valueobject"
)

// nextState lists the only forward transition allowed from each state.
var nextState = map[valueobject.RunState]valueobject.RunState{
	valueobject.RunStateStart:            valueobject.RunStateUserLinked,
	valueobject.RunStateUserLinked:       valueobject.RunStateAccountsDone,
	valueobject.RunStateAccountsDone:     valueobject.RunStateCategoriesDone,
	valueobject.RunStateCategoriesDone:   valueobject.RunStateTransactionsDone,
	valueobject.RunStateTransactionsDone: valueobject.RunStateComplete,
}

// runMachine tracks the state of one sync run.
type runMachine struct {
	state valueobject.RunState
}

func newRunMachine() *runMachine {
	return &runMachine{state: valueobject.RunStateStart}
}

// advance moves to the given state if it is the next one in sequence.
func (m *runMachine) advance(to valueobject.RunState) error {
	if want, ok := nextState[m.state]; !ok || want != to {
		return fmt.Errorf("%w: %s -> %s", domainerror.ErrInvalidStateTransition, m.state, to)
	}
	m.state = to
	return nil
}

// fail moves to FAILED from any non-terminal state.
func (m *runMachine) fail() {
	if !m.state.IsTerminal() {
		m.state = valueobject.RunStateFailed
	}
}

func (m *runMachine) current() valueobject.RunState {
	return m.state
}
