// Package presenter glues the vault data store to the row projection
// pipeline and exposes the dispatch surface the view layer calls into.
package presenter

import (
	"sync"

	"github.com/vaultbloom/vaultbloom/internal/model"
	"github.com/vaultbloom/vaultbloom/internal/projection"
	"github.com/vaultbloom/vaultbloom/internal/signal"
)

// Dispatcher is the command surface the view layer drives.
type Dispatcher interface {
	DispatchFilter(text string)
	DispatchSort(order model.SortOrder)
	RequestDetail(id string)
	RequestLock()
}

// VaultOps is the slice of data-store operations the presenter needs.
type VaultOps interface {
	Sync() error
	Lock() error
	Touch(id string) error
}

// Callbacks are the presenter-to-view notifications that fall outside
// the signal surface.
type Callbacks struct {
	projection.ViewHooks

	// OpenDetail is called when a detail request resolves to a record.
	OpenDetail func(record model.LoginRecord)
	// Locked is called after the vault has been locked on request.
	Locked func()
	// OpFailed reports a failed vault operation.
	OpFailed func(op string, err error)
}

// ItemListPresenter binds data-store signals into the projection
// pipeline and routes view commands back to the vault.
type ItemListPresenter struct {
	pipeline *projection.Pipeline
	ops      VaultOps
	cb       Callbacks

	mu         sync.Mutex
	lastLogins []model.LoginRecord
	subs       []*signal.Subscription
}

// New builds the presenter and connects it to the given store signals.
func New(
	logins *signal.Signal[[]model.LoginRecord],
	status *signal.Signal[model.SyncStatus],
	ops VaultOps,
	cb Callbacks,
) *ItemListPresenter {
	p := &ItemListPresenter{
		pipeline: projection.New(cb.ViewHooks),
		ops:      ops,
		cb:       cb,
	}

	p.subs = append(p.subs,
		logins.SubscribeNow(func(list []model.LoginRecord) {
			p.mu.Lock()
			p.lastLogins = list
			p.mu.Unlock()
			p.pipeline.SetLogins(list)
		}),
		status.SubscribeNow(p.pipeline.SetSyncStatus),
	)
	return p
}

// Close detaches the presenter from its input signals.
func (p *ItemListPresenter) Close() {
	for _, s := range p.subs {
		s.Cancel()
	}
}

// Rows exposes the projected display rows.
func (p *ItemListPresenter) Rows() *signal.Signal[[]model.DisplayRow] {
	return p.pipeline.Rows()
}

// SortLabel exposes the current sort-order label.
func (p *ItemListPresenter) SortLabel() *signal.Signal[string] {
	return p.pipeline.SortLabel()
}

// SortControlEnabled exposes the sort-control enablement.
func (p *ItemListPresenter) SortControlEnabled() *signal.Signal[bool] {
	return p.pipeline.SortControlEnabled()
}

// ListInteractionEnabled exposes the list enablement.
func (p *ItemListPresenter) ListInteractionEnabled() *signal.Signal[bool] {
	return p.pipeline.ListInteractionEnabled()
}

// DispatchFilter routes a filter text change into the pipeline.
func (p *ItemListPresenter) DispatchFilter(text string) {
	p.pipeline.SetFilterText(text)
}

// DispatchSort routes a sort-order change into the pipeline.
func (p *ItemListPresenter) DispatchSort(order model.SortOrder) {
	p.pipeline.SetSortOrder(order)
}

// RequestDetail resolves id against the most recent list emission and
// opens the detail view for it. Unknown ids are dropped; records can
// disappear between render and click during a sync.
func (p *ItemListPresenter) RequestDetail(id string) {
	p.mu.Lock()
	var found *model.LoginRecord
	for i := range p.lastLogins {
		if p.lastLogins[i].ID == id {
			rec := p.lastLogins[i]
			found = &rec
			break
		}
	}
	p.mu.Unlock()

	if found == nil {
		return
	}
	if err := p.ops.Touch(found.ID); err != nil {
		p.fail("touch", err)
	}
	if p.cb.OpenDetail != nil {
		p.cb.OpenDetail(*found)
	}
}

// RequestSync asks the vault to start a sync pass.
func (p *ItemListPresenter) RequestSync() {
	if err := p.ops.Sync(); err != nil {
		p.fail("sync", err)
	}
}

// RequestLock locks the vault.
func (p *ItemListPresenter) RequestLock() {
	if err := p.ops.Lock(); err != nil {
		p.fail("lock", err)
		return
	}
	if p.cb.Locked != nil {
		p.cb.Locked()
	}
}

func (p *ItemListPresenter) fail(op string, err error) {
	if p.cb.OpFailed != nil {
		p.cb.OpFailed(op, err)
	}
}
