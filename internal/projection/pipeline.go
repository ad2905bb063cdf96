// Package projection derives the render-ready login list from four
// independently updating inputs: the raw login list, the free-text filter,
// the sort order, and the sync status. On every input emission it forms a
// combined snapshot, suppresses re-emission when the snapshot equals the
// previous one, and recomputes the row list plus the control-enablement
// signals. All work is synchronous; emissions are processed in the order
// the inputs deliver them.
package projection

import (
	"sync"

	"github.com/vaultbloom/vaultbloom/internal/model"
	"github.com/vaultbloom/vaultbloom/internal/signal"
)

// ViewHooks are the imperative view notifications coupled to the
// projection. Nil hooks are skipped.
type ViewHooks struct {
	// ShowEmptyState toggles the "no logins yet" message. Shown only once
	// the list is empty after a completed sync, hidden as soon as the list
	// is non-empty.
	ShowEmptyState func(visible bool)
	// ShowFilterCancel toggles the cancel-filter affordance; fired on every
	// filter dispatch.
	ShowFilterCancel func(visible bool)
	// ShowProgress is fired when sync starts; DismissProgress fires exactly
	// once on the next Synced emission.
	ShowProgress    func()
	DismissProgress func()
}

// snapshot is the transient combine point of the four inputs.
type snapshot struct {
	logins     []model.LoginRecord
	filterText string
	sortOrder  model.SortOrder
	syncStatus model.SyncStatus
}

func (s snapshot) equal(other snapshot) bool {
	return s.filterText == other.filterText &&
		s.sortOrder == other.sortOrder &&
		s.syncStatus.Equal(other.syncStatus) &&
		loginsEqual(s.logins, other.logins)
}

func loginsEqual(a, b []model.LoginRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func rowsEqual(a, b []model.DisplayRow) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func boolEqual(a, b bool) bool     { return a == b }
func stringEqual(a, b string) bool { return a == b }

// Pipeline combines the login list, filter text, sort order, and sync
// status into display rows and enablement signals.
type Pipeline struct {
	mu    sync.Mutex
	hooks ViewHooks

	logins     []model.LoginRecord
	filterText string
	sortOrder  model.SortOrder
	syncStatus model.SyncStatus

	prev    snapshot
	hasPrev bool

	// progressArmed is set when sync starts and cleared when the one-shot
	// dismissal fires, so repeat Synced emissions do not re-dismiss.
	progressArmed bool

	rows                   *signal.Signal[[]model.DisplayRow]
	sortLabel              *signal.Signal[string]
	sortControlEnabled     *signal.Signal[bool]
	listInteractionEnabled *signal.Signal[bool]
}

// New creates a pipeline and runs the initial projection: an empty,
// not-yet-syncable list projects to just the search header with everything
// disabled.
func New(hooks ViewHooks) *Pipeline {
	p := &Pipeline{
		hooks:                  hooks,
		syncStatus:             model.NotSyncable(),
		rows:                   signal.New(rowsEqual),
		sortLabel:              signal.New(stringEqual),
		sortControlEnabled:     signal.New(boolEqual),
		listInteractionEnabled: signal.New(boolEqual),
	}
	p.recompute()
	return p
}

// Rows is the projected, render-ready row sequence.
func (p *Pipeline) Rows() *signal.Signal[[]model.DisplayRow] { return p.rows }

// SortLabel is the human-readable label for the current sort order.
func (p *Pipeline) SortLabel() *signal.Signal[string] { return p.sortLabel }

// SortControlEnabled reports whether the sort control accepts input.
func (p *Pipeline) SortControlEnabled() *signal.Signal[bool] { return p.sortControlEnabled }

// ListInteractionEnabled reports whether list rows accept input.
func (p *Pipeline) ListInteractionEnabled() *signal.Signal[bool] { return p.listInteractionEnabled }

// SetLogins replaces the login list wholesale.
func (p *Pipeline) SetLogins(logins []model.LoginRecord) {
	p.mu.Lock()
	p.logins = append([]model.LoginRecord(nil), logins...)
	p.mu.Unlock()
	p.recompute()
}

// SetFilterText updates the free-text filter. Dispatching a filter also
// notifies the view about the cancel-filter affordance.
func (p *Pipeline) SetFilterText(text string) {
	if p.hooks.ShowFilterCancel != nil {
		p.hooks.ShowFilterCancel(text != "")
	}
	p.mu.Lock()
	p.filterText = text
	p.mu.Unlock()
	p.recompute()
}

// SetSortOrder updates the sort criterion.
func (p *Pipeline) SetSortOrder(order model.SortOrder) {
	p.mu.Lock()
	p.sortOrder = order
	p.mu.Unlock()
	p.recompute()
}

// SetSyncStatus updates the sync status.
func (p *Pipeline) SetSyncStatus(status model.SyncStatus) {
	p.mu.Lock()
	p.syncStatus = status
	p.mu.Unlock()
	p.recompute()
}

// recompute runs the combine step: snapshot, dedup, side effects, and row
// projection. Hooks and signal emissions run outside the lock so a
// subscriber may safely dispatch back into the pipeline.
func (p *Pipeline) recompute() {
	p.mu.Lock()

	snap := snapshot{
		logins:     p.logins,
		filterText: p.filterText,
		sortOrder:  p.sortOrder,
		syncStatus: p.syncStatus,
	}
	if p.hasPrev && snap.equal(p.prev) {
		p.mu.Unlock()
		return
	}

	statusChanged := !p.hasPrev || !snap.syncStatus.Equal(p.prev.syncStatus)
	listOrStatusChanged := statusChanged || !p.hasPrev ||
		!loginsEqual(snap.logins, p.prev.logins)
	p.prev = snap
	p.hasPrev = true

	var effects []func()
	if listOrStatusChanged {
		effects = p.listStatusEffects(snap, statusChanged)
	}

	empty := len(snap.logins) == 0
	state := snap.syncStatus.State

	// "Empty and synced" is withheld from the row projection: the empty
	// state message takes over and the previous rows stay put, which keeps
	// "truly empty" distinct from "not yet loaded" without flicker.
	suppressRows := empty && state == model.StateSynced

	var rows []model.DisplayRow
	if !suppressRows {
		rows = projectRows(snap)
	}
	enabled := state != model.StateSyncing && !empty
	label := snap.sortOrder.Label()

	p.mu.Unlock()

	for _, effect := range effects {
		effect()
	}
	p.sortControlEnabled.Set(enabled)
	p.listInteractionEnabled.Set(enabled)
	p.sortLabel.Set(label)
	if !suppressRows {
		p.rows.Set(rows)
	}
}

// listStatusEffects derives the imperative view notifications that depend
// only on the list and sync status, never on filter or sort. Caller must
// hold p.mu; the returned closures are invoked after it is released.
func (p *Pipeline) listStatusEffects(snap snapshot, statusChanged bool) []func() {
	var effects []func()
	empty := len(snap.logins) == 0

	switch snap.syncStatus.State {
	case model.StateSyncing:
		if statusChanged {
			p.progressArmed = true
			if p.hooks.ShowProgress != nil {
				effects = append(effects, p.hooks.ShowProgress)
			}
		}
	case model.StateSynced:
		if p.progressArmed {
			p.progressArmed = false
			if p.hooks.DismissProgress != nil {
				effects = append(effects, p.hooks.DismissProgress)
			}
		}
	}

	if p.hooks.ShowEmptyState != nil {
		if empty && snap.syncStatus.State == model.StateSynced {
			effects = append(effects, func() { p.hooks.ShowEmptyState(true) })
		} else if !empty {
			effects = append(effects, func() { p.hooks.ShowEmptyState(false) })
		}
	}
	return effects
}

// projectRows turns a snapshot into display rows. Any internal failure
// falls back to the bare header rather than surfacing an error to the view.
func projectRows(snap snapshot) (rows []model.DisplayRow) {
	defer func() {
		if r := recover(); r != nil {
			rows = []model.DisplayRow{model.HeaderRow()}
		}
	}()

	empty := len(snap.logins) == 0
	state := snap.syncStatus.State
	if empty && (state == model.StateSyncing || state == model.StateReadyToSync) {
		return []model.DisplayRow{model.HeaderRow(), model.PlaceholderRow()}
	}

	filtered := filterLogins(snap.logins, snap.filterText)
	sorted := sortLogins(filtered, snap.sortOrder)

	rows = make([]model.DisplayRow, 0, len(sorted)+1)
	rows = append(rows, model.HeaderRow())
	rows = append(rows, entryRows(sorted)...)
	return rows
}
