// Package store adapts the daemon's vault API into the reactive signals
// the presentation layer consumes. It owns the watcher goroutine that
// long-polls the daemon for status changes and re-fetches the login list
// when the vault content may have moved.
package store

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/vaultbloom/vaultbloom/internal/model"
	"github.com/vaultbloom/vaultbloom/internal/signal"
)

// watchRetryDelay throttles long-poll retries after a transport failure.
const watchRetryDelay = time.Second

// DataStore wraps a VaultAPI (normally the socket RPC client) and
// republishes vault state as signals.
type DataStore struct {
	api        model.VaultAPI
	watchAPI   model.VaultAPI
	splitWatch bool
	retryDelay time.Duration

	logins *signal.Signal[[]model.LoginRecord]
	status *signal.Signal[model.SyncStatus]

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures a DataStore.
type Option func(*DataStore)

// WithWatchAPI gives the watcher goroutine its own vault API. The RPC
// client serializes calls per connection, so the long-poll loop needs a
// separate connection to keep interactive calls responsive. If the API
// is an io.Closer, Stop closes it to cut a blocked long-poll short.
func WithWatchAPI(api model.VaultAPI) Option {
	return func(d *DataStore) {
		d.watchAPI = api
		d.splitWatch = true
	}
}

// New wraps the given vault API. Call Start to begin watching.
func New(api model.VaultAPI, opts ...Option) *DataStore {
	d := &DataStore{
		api:        api,
		watchAPI:   api,
		retryDelay: watchRetryDelay,
		logins:     signal.New[[]model.LoginRecord](loginsEqual),
		status:     signal.New[model.SyncStatus](model.SyncStatus.Equal),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Logins is the signal carrying the latest login list.
func (d *DataStore) Logins() *signal.Signal[[]model.LoginRecord] { return d.logins }

// Status is the signal carrying the latest sync status.
func (d *DataStore) Status() *signal.Signal[model.SyncStatus] { return d.status }

// Start publishes the current vault state and launches the watcher
// goroutine. The watcher stops when ctx is cancelled or Stop is called.
func (d *DataStore) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	d.mu.Unlock()

	status, cursor := d.api.Status()
	d.status.Set(status)
	d.Refresh()

	go d.watch(ctx, cursor)
}

// Stop terminates the watcher goroutine and waits for it to exit. A
// dedicated watch connection is closed first: a long-poll blocked on a
// socket read cannot observe the cancelled context.
func (d *DataStore) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	if d.splitWatch {
		if c, ok := d.watchAPI.(io.Closer); ok {
			_ = c.Close()
		}
	}
	<-done
}

// watch long-polls the daemon's status cursor. Every observed status is
// republished; a cursor advance with a Synced tag also re-fetches the
// list, since touches bump the cursor without changing the tag.
func (d *DataStore) watch(ctx context.Context, cursor uint64) {
	defer close(d.done)
	for {
		if ctx.Err() != nil {
			return
		}
		status, next := d.watchAPI.WaitStatus(cursor)
		if ctx.Err() != nil {
			return
		}
		d.status.Set(status)
		if status.State == model.StateError && next == cursor {
			// An Error result without a cursor advance means the call
			// itself failed; the daemon bumps the cursor on real state
			// changes. Throttle the retry instead of hammering a dead
			// socket.
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.retryDelay):
			}
			continue
		}
		if next != cursor && status.State == model.StateSynced {
			d.Refresh()
		}
		cursor = next
	}
}

// Refresh re-fetches the login list once. Fetch failures keep the
// previous list; a locked vault is reported through the status signal,
// not here.
func (d *DataStore) Refresh() {
	logins, err := d.api.GetAllLogins()
	if err != nil {
		slog.Debug("store: refresh skipped", "error", err)
		return
	}
	d.logins.Set(logins)
}

// Sync asks the daemon to start a sync pass.
func (d *DataStore) Sync() error { return d.api.Sync() }

// Lock locks the vault.
func (d *DataStore) Lock() error { return d.api.Lock() }

// Unlock unlocks the vault with the given secret.
func (d *DataStore) Unlock(secret string) error { return d.api.Unlock(secret) }

// Touch records a use of the given login.
func (d *DataStore) Touch(id string) error { return d.api.TouchLogin(id) }

// Reset clears the vault and detaches the sync backend.
func (d *DataStore) Reset() error { return d.api.Reset() }

func loginsEqual(a, b []model.LoginRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID ||
			a[i].Hostname != b[i].Hostname ||
			a[i].Username != b[i].Username ||
			!a[i].LastUsedAt.Equal(b[i].LastUsedAt) {
			return false
		}
	}
	return true
}
