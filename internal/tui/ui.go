// Package tui is the terminal client for the vault daemon: a Bubble Tea
// app with an item-list page, a login detail page, and a lock screen,
// all fed by the projection pipeline through a message bridge.
package tui

import (
	"github.com/vaultbloom/vaultbloom/internal/model"
	"github.com/vaultbloom/vaultbloom/internal/presenter"
	"github.com/vaultbloom/vaultbloom/internal/signal"
	"github.com/vaultbloom/vaultbloom/internal/store"
)

// NewUI wires the data store into presenter, bridge, and pages. The
// returned cleanup detaches every subscription.
func NewUI(ds *store.DataStore) (*App, func()) {
	events := NewEvents()
	st := &sharedState{sortLabel: model.SortAlphabetical.Label()}

	pres := presenter.New(ds.Logins(), ds.Status(), ds, events.Callbacks())

	subs := []*signal.Subscription{
		pres.Rows().SubscribeNow(func(rows []model.DisplayRow) {
			events.Emit(rowsMsg(rows))
		}),
		pres.SortLabel().SubscribeNow(func(label string) {
			events.Emit(sortLabelMsg(label))
		}),
		pres.SortControlEnabled().SubscribeNow(func(on bool) {
			events.Emit(sortEnabledMsg(on))
		}),
		pres.ListInteractionEnabled().SubscribeNow(func(on bool) {
			events.Emit(listEnabledMsg(on))
		}),
		ds.Status().SubscribeNow(func(status model.SyncStatus) {
			events.Emit(syncStatusMsg(status))
		}),
	}

	app := NewApp(
		NewListPage(st, events, pres),
		NewDetailPage(st, events),
		NewLockPage(st, events, ds),
	)

	cleanup := func() {
		for _, s := range subs {
			s.Cancel()
		}
		pres.Close()
	}
	return app, cleanup
}
