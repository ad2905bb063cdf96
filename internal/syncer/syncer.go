// Package syncer drives the sync lifecycle of the vault daemon. It owns
// the NotSyncable/ReadyToSync/Syncing/Synced/Error state machine, runs
// pulls against the attached backend, and fans status changes out to
// long-poll waiters through a monotonic cursor.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vaultbloom/vaultbloom/internal/journal"
	"github.com/vaultbloom/vaultbloom/internal/model"
)

// ErrLocked is returned for operations that need an unlocked vault.
var ErrLocked = errors.New("vault is locked")

// ErrNoBackend is returned when syncing without an attached backend.
var ErrNoBackend = errors.New("no sync backend attached")

const (
	defaultWaitTimeout = 25 * time.Second
	defaultSyncTimeout = 2 * time.Minute
)

// Option configures a Syncer.
type Option func(*Syncer)

// WithWaitTimeout sets how long WaitStatus blocks before returning the
// unchanged status. It must stay below the RPC client's call deadline.
func WithWaitTimeout(d time.Duration) Option {
	return func(s *Syncer) { s.waitTimeout = d }
}

// WithSyncTimeout bounds a single backend pull.
func WithSyncTimeout(d time.Duration) Option {
	return func(s *Syncer) { s.syncTimeout = d }
}

// WithSecretProbe installs the unlock check. The probe belongs to the
// external engine; the default accepts any non-empty secret.
func WithSecretProbe(probe func(secret string) error) Option {
	return func(s *Syncer) { s.secretProbe = probe }
}

// WithJournal attaches a usage journal so touches are durable.
func WithJournal(j *journal.Journal) Option {
	return func(s *Syncer) { s.journal = j }
}

// Syncer implements model.VaultAPI on top of a login store and a backend.
type Syncer struct {
	store   model.LoginStore
	journal *journal.Journal

	mu          sync.Mutex
	backend     Backend
	locked      bool
	status      model.SyncStatus
	cursor      uint64
	changed     chan struct{}
	syncCancel  context.CancelFunc
	waitTimeout time.Duration
	syncTimeout time.Duration
	secretProbe func(secret string) error
}

// New creates a syncer. A nil backend starts NotSyncable; attaching a
// backend makes the vault ReadyToSync.
func New(store model.LoginStore, backend Backend, opts ...Option) *Syncer {
	s := &Syncer{
		store:       store,
		backend:     backend,
		status:      model.NotSyncable(),
		changed:     make(chan struct{}),
		waitTimeout: defaultWaitTimeout,
		syncTimeout: defaultSyncTimeout,
		secretProbe: func(secret string) error {
			if secret == "" {
				return errors.New("empty secret")
			}
			return nil
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.backend != nil {
		s.status = model.ReadyToSync()
	}
	return s
}

// setStatusLocked publishes a new status and wakes waiters.
// Caller must hold s.mu.
func (s *Syncer) setStatusLocked(status model.SyncStatus) {
	s.status = status
	s.cursor++
	close(s.changed)
	s.changed = make(chan struct{})
}

// bumpLocked re-publishes the current status so watchers refetch the list
// after out-of-band store changes (touches, replays).
// Caller must hold s.mu.
func (s *Syncer) bumpLocked() {
	s.setStatusLocked(s.status)
}

// Status returns the current sync status and cursor.
func (s *Syncer) Status() (model.SyncStatus, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.cursor
}

// WaitStatus blocks until the status cursor advances past the given one,
// or until the wait timeout elapses, and returns the current pair.
func (s *Syncer) WaitStatus(cursor uint64) (model.SyncStatus, uint64) {
	s.mu.Lock()
	if s.cursor > cursor {
		status, cur := s.status, s.cursor
		s.mu.Unlock()
		return status, cur
	}
	ch := s.changed
	s.mu.Unlock()

	select {
	case <-ch:
	case <-time.After(s.waitTimeout):
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.cursor
}

// GetAllLogins reads the full login set from the local store.
func (s *Syncer) GetAllLogins() ([]model.LoginRecord, error) {
	s.mu.Lock()
	locked := s.locked
	s.mu.Unlock()
	if locked {
		return nil, ErrLocked
	}
	return s.store.AllLogins()
}

// Sync starts a pull against the backend. It returns immediately; the
// result arrives as a Synced or Error status transition. A sync while one
// is already running is a no-op.
func (s *Syncer) Sync() error {
	s.mu.Lock()
	if s.locked {
		s.mu.Unlock()
		return ErrLocked
	}
	if s.backend == nil {
		s.mu.Unlock()
		return ErrNoBackend
	}
	if s.status.State == model.StateSyncing {
		s.mu.Unlock()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
	s.syncCancel = cancel
	backend := s.backend
	s.setStatusLocked(model.Syncing())
	s.mu.Unlock()

	go s.runSync(ctx, cancel, backend)
	return nil
}

func (s *Syncer) runSync(ctx context.Context, cancel context.CancelFunc, backend Backend) {
	defer cancel()

	logins, err := backend.FetchLogins(ctx)
	if err != nil {
		slog.Warn("sync failed", "err", err)
		s.finishSync(model.SyncError(err.Error()))
		return
	}
	if err := s.store.ReplaceAll(logins); err != nil {
		slog.Error("sync store replace failed", "err", err)
		s.finishSync(model.SyncError(err.Error()))
		return
	}
	slog.Info("sync completed", "logins", len(logins))
	s.finishSync(model.Synced())
}

func (s *Syncer) finishSync(status model.SyncStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncCancel = nil
	// A reset or lock that raced the sync wins; do not clobber its status.
	if s.status.State != model.StateSyncing {
		return
	}
	s.setStatusLocked(status)
}

// Lock makes the vault non-actionable until unlocked.
func (s *Syncer) Lock() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return nil
	}
	s.locked = true
	if s.syncCancel != nil {
		s.syncCancel()
		s.syncCancel = nil
	}
	s.setStatusLocked(model.NotSyncable())
	return nil
}

// Unlock checks the secret and restores syncability.
func (s *Syncer) Unlock(secret string) error {
	if err := s.secretProbe(secret); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = false
	if s.backend != nil {
		s.setStatusLocked(model.ReadyToSync())
	} else {
		s.setStatusLocked(model.NotSyncable())
	}
	return nil
}

// TouchLogin bumps a login's last-use timestamp. The touch is journaled
// before the store write so it survives a crash in between; watchers are
// nudged afterwards so clients refetch. Unknown ids are a no-op.
func (s *Syncer) TouchLogin(id string) error {
	s.mu.Lock()
	locked := s.locked
	s.mu.Unlock()
	if locked {
		return ErrLocked
	}

	now := time.Now().UTC()
	var seq uint64
	if s.journal != nil {
		var err error
		seq, err = s.journal.Append(journal.TouchEvent{LoginID: id, At: now})
		if err != nil {
			return fmt.Errorf("touch %s: %w", id, err)
		}
	}
	if err := s.store.TouchLogin(id, now); err != nil {
		return err
	}
	if s.journal != nil {
		if err := s.journal.Commit(seq); err != nil {
			return fmt.Errorf("touch %s: %w", id, err)
		}
	}

	s.mu.Lock()
	s.bumpLocked()
	s.mu.Unlock()
	return nil
}

// Reset runs the teardown chain: stop any running sync, disconnect the
// backend, delete the local store, and reinitialize as an empty,
// backend-less vault. The chain short-circuits on the first failure.
func (s *Syncer) Reset() error {
	s.mu.Lock()
	if s.syncCancel != nil {
		s.syncCancel()
		s.syncCancel = nil
	}
	backend := s.backend
	s.mu.Unlock()

	if backend != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
		err := backend.Disconnect(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("reset: disconnect: %w", err)
		}
	}

	if err := s.store.DeleteAll(); err != nil {
		return fmt.Errorf("reset: delete store: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.backend = nil
	s.locked = false
	s.setStatusLocked(model.NotSyncable())
	slog.Info("vault reset")
	return nil
}

// ReplayJournal applies uncommitted touch events to the store. The daemon
// calls this once on startup, before serving clients.
func (s *Syncer) ReplayJournal() error {
	if s.journal == nil {
		return nil
	}
	var last uint64
	err := s.journal.Replay(func(seq uint64, e journal.TouchEvent) error {
		if err := s.store.TouchLogin(e.LoginID, e.At); err != nil {
			return err
		}
		last = seq
		return nil
	})
	if err != nil {
		return fmt.Errorf("replay journal: %w", err)
	}
	if last > 0 {
		if err := s.journal.Commit(last); err != nil {
			return fmt.Errorf("replay journal: %w", err)
		}
	}
	return nil
}
