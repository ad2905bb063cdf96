package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vaultbloom/vaultbloom/internal/model"
)

// scriptedVault serves a controllable sequence of status changes.
type scriptedVault struct {
	mu      sync.Mutex
	logins  []model.LoginRecord
	status  model.SyncStatus
	cursor  uint64
	changed chan struct{}

	synced int
	locked bool
}

func newScriptedVault(status model.SyncStatus) *scriptedVault {
	return &scriptedVault{status: status, changed: make(chan struct{})}
}

func (v *scriptedVault) publish(status model.SyncStatus, logins []model.LoginRecord) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = status
	if logins != nil {
		v.logins = logins
	}
	v.cursor++
	close(v.changed)
	v.changed = make(chan struct{})
}

func (v *scriptedVault) GetAllLogins() ([]model.LoginRecord, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.LoginRecord(nil), v.logins...), nil
}

func (v *scriptedVault) Status() (model.SyncStatus, uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status, v.cursor
}

func (v *scriptedVault) WaitStatus(cursor uint64) (model.SyncStatus, uint64) {
	v.mu.Lock()
	if v.cursor > cursor {
		defer v.mu.Unlock()
		return v.status, v.cursor
	}
	changed := v.changed
	v.mu.Unlock()

	select {
	case <-changed:
	case <-time.After(100 * time.Millisecond):
	}
	return v.Status()
}

func (v *scriptedVault) Sync() error            { v.mu.Lock(); defer v.mu.Unlock(); v.synced++; return nil }
func (v *scriptedVault) Lock() error            { v.mu.Lock(); defer v.mu.Unlock(); v.locked = true; return nil }
func (v *scriptedVault) Unlock(string) error    { v.mu.Lock(); defer v.mu.Unlock(); v.locked = false; return nil }
func (v *scriptedVault) TouchLogin(string) error { return nil }
func (v *scriptedVault) Reset() error           { return nil }

func waitCond(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStart_PublishesInitialState(t *testing.T) {
	t.Parallel()

	vault := newScriptedVault(model.ReadyToSync())
	vault.logins = []model.LoginRecord{{ID: "1", Hostname: "h"}}

	ds := New(vault)
	ds.Start(context.Background())
	defer ds.Stop()

	status, ok := ds.Status().Get()
	if !ok || status.State != model.StateReadyToSync {
		t.Fatalf("status = %v (%v), want ReadyToSync", status, ok)
	}
	logins, ok := ds.Logins().Get()
	if !ok || len(logins) != 1 {
		t.Fatalf("logins = %v (%v), want the initial list", logins, ok)
	}
}

func TestWatch_RefetchesOnSyncedTransition(t *testing.T) {
	t.Parallel()

	vault := newScriptedVault(model.ReadyToSync())
	ds := New(vault)

	var mu sync.Mutex
	var states []model.SyncState
	ds.Status().Subscribe(func(s model.SyncStatus) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})

	ds.Start(context.Background())
	defer ds.Stop()

	vault.publish(model.Syncing(), nil)
	waitCond(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, s := range states {
			if s == model.StateSyncing {
				return true
			}
		}
		return false
	})
	vault.publish(model.Synced(), []model.LoginRecord{{ID: "1"}, {ID: "2"}})

	waitCond(t, func() bool {
		logins, _ := ds.Logins().Get()
		return len(logins) == 2
	})

	status, _ := ds.Status().Get()
	if status.State != model.StateSynced {
		t.Fatalf("final status = %v, want Synced", status.State)
	}
}

func TestWatch_TouchWithUnchangedTagStillRefetches(t *testing.T) {
	t.Parallel()

	vault := newScriptedVault(model.Synced())
	vault.logins = []model.LoginRecord{{ID: "1"}}

	ds := New(vault)
	ds.Start(context.Background())
	defer ds.Stop()

	at := time.Now()
	vault.publish(model.Synced(), []model.LoginRecord{{ID: "1", LastUsedAt: at}})

	waitCond(t, func() bool {
		logins, _ := ds.Logins().Get()
		return len(logins) == 1 && logins[0].LastUsedAt.Equal(at)
	})
}

// hangingVault blocks WaitStatus until the connection is closed, like a
// socket read stuck in a daemon-side long-poll.
type hangingVault struct {
	scriptedVault
	closedCh  chan struct{}
	closeOnce sync.Once
}

func newHangingVault(status model.SyncStatus) *hangingVault {
	return &hangingVault{
		scriptedVault: scriptedVault{status: status, changed: make(chan struct{})},
		closedCh:      make(chan struct{}),
	}
}

func (v *hangingVault) WaitStatus(cursor uint64) (model.SyncStatus, uint64) {
	select {
	case <-v.closedCh:
		return model.SyncError("connection closed"), cursor
	case <-time.After(30 * time.Second):
		return v.Status()
	}
}

func (v *hangingVault) Close() error {
	v.closeOnce.Do(func() { close(v.closedCh) })
	return nil
}

// failingVault fails every WaitStatus call immediately, like a dead
// daemon socket.
type failingVault struct {
	scriptedVault
	calls atomic.Int64
}

func (v *failingVault) WaitStatus(cursor uint64) (model.SyncStatus, uint64) {
	v.calls.Add(1)
	return model.SyncError("connection reset"), cursor
}

func TestStop_ClosesBlockedWatchConnection(t *testing.T) {
	t.Parallel()

	ops := newScriptedVault(model.ReadyToSync())
	watcher := newHangingVault(model.ReadyToSync())

	ds := New(ops, WithWatchAPI(watcher))
	ds.Start(context.Background())

	done := make(chan struct{})
	go func() {
		ds.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not unblock the watch long-poll")
	}
}

func TestWatch_ThrottlesRetriesAfterConnectionFailure(t *testing.T) {
	t.Parallel()

	ops := newScriptedVault(model.ReadyToSync())
	failing := &failingVault{
		scriptedVault: scriptedVault{status: model.ReadyToSync(), changed: make(chan struct{})},
	}

	ds := New(ops, WithWatchAPI(failing))
	ds.retryDelay = 50 * time.Millisecond
	ds.Start(context.Background())
	defer ds.Stop()

	time.Sleep(250 * time.Millisecond)
	calls := failing.calls.Load()
	if calls == 0 {
		t.Fatal("watcher never polled")
	}
	if calls > 10 {
		t.Fatalf("WaitStatus called %d times in 250ms, want throttled retries", calls)
	}
}

func TestStop_TerminatesWatcher(t *testing.T) {
	t.Parallel()

	vault := newScriptedVault(model.ReadyToSync())
	ds := New(vault)
	ds.Start(context.Background())

	done := make(chan struct{})
	go func() {
		ds.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestWithWatchAPI_SplitsWatchFromOperations(t *testing.T) {
	t.Parallel()

	ops := newScriptedVault(model.ReadyToSync())
	watcher := newScriptedVault(model.ReadyToSync())

	ds := New(ops, WithWatchAPI(watcher))
	ds.Start(context.Background())
	defer ds.Stop()

	// Status changes flow through the watch connection.
	watcher.publish(model.Synced(), []model.LoginRecord{{ID: "1"}})
	waitCond(t, func() bool {
		status, ok := ds.Status().Get()
		return ok && status.State == model.StateSynced
	})

	// Operations still go to the main connection.
	if err := ds.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	ops.mu.Lock()
	defer ops.mu.Unlock()
	if ops.synced != 1 {
		t.Fatalf("synced = %d, want 1", ops.synced)
	}
}

func TestOperationsForward(t *testing.T) {
	t.Parallel()

	vault := newScriptedVault(model.ReadyToSync())
	ds := New(vault)

	if err := ds.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := ds.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	vault.mu.Lock()
	defer vault.mu.Unlock()
	if vault.synced != 1 || !vault.locked {
		t.Fatalf("forwarding failed: synced=%d locked=%v", vault.synced, vault.locked)
	}
}
