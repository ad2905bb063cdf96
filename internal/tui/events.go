package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vaultbloom/vaultbloom/internal/model"
	"github.com/vaultbloom/vaultbloom/internal/presenter"
	"github.com/vaultbloom/vaultbloom/internal/projection"
)

// Messages delivered from the presentation layer into the Bubble Tea
// update loop.
type (
	rowsMsg         []model.DisplayRow
	sortLabelMsg    string
	sortEnabledMsg  bool
	listEnabledMsg  bool
	emptyStateMsg   bool
	filterCancelMsg bool
	progressMsg     struct{ show bool }
	syncStatusMsg   model.SyncStatus
	openDetailMsg   model.LoginRecord
	lockedMsg       struct{}
	opFailedMsg     struct {
		op  string
		err error
	}
)

// Events bridges signal emissions and presenter callbacks into tea
// messages. Emissions land on a buffered channel; one pump command at a
// time reads from it, and whichever page consumes the message re-arms
// the pump.
type Events struct {
	ch    chan tea.Msg
	armed sync.Once
}

// NewEvents creates the bridge.
func NewEvents() *Events {
	return &Events{ch: make(chan tea.Msg, 64)}
}

// Emit queues a message for the update loop. A full queue drops the
// message; every emission here is state-carrying and superseded by the
// next one of its kind.
func (e *Events) Emit(msg tea.Msg) {
	select {
	case e.ch <- msg:
	default:
	}
}

// StartCmd arms the pump exactly once. Later calls return nil.
func (e *Events) StartCmd() tea.Cmd {
	var cmd tea.Cmd
	e.armed.Do(func() { cmd = e.waitCmd() })
	return cmd
}

func (e *Events) waitCmd() tea.Cmd {
	return func() tea.Msg { return <-e.ch }
}

// Hooks exposes the projection hook surface backed by this bridge.
func (e *Events) Hooks() projection.ViewHooks {
	return projection.ViewHooks{
		ShowEmptyState:   func(show bool) { e.Emit(emptyStateMsg(show)) },
		ShowFilterCancel: func(show bool) { e.Emit(filterCancelMsg(show)) },
		ShowProgress:     func() { e.Emit(progressMsg{show: true}) },
		DismissProgress:  func() { e.Emit(progressMsg{show: false}) },
	}
}

// Callbacks exposes the presenter callback surface backed by this bridge.
func (e *Events) Callbacks() presenter.Callbacks {
	return presenter.Callbacks{
		ViewHooks:  e.Hooks(),
		OpenDetail: func(r model.LoginRecord) { e.Emit(openDetailMsg(r)) },
		Locked:     func() { e.Emit(lockedMsg{}) },
		OpFailed:   func(op string, err error) { e.Emit(opFailedMsg{op: op, err: err}) },
	}
}
