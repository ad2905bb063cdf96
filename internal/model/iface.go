package model

import "time"

// LoginQuerier provides read-only queries on the login store.
type LoginQuerier interface {
	AllLogins() ([]LoginRecord, error)
	LoginByID(id string) (LoginRecord, bool, error)
	Count() (int64, error)
}

// LoginWriter provides the write operations the sync lifecycle needs.
type LoginWriter interface {
	ReplaceAll(records []LoginRecord) error
	TouchLogin(id string, at time.Time) error
	DeleteAll() error
}

// LoginStore is the unified store contract used by the daemon.
type LoginStore interface {
	LoginQuerier
	LoginWriter
}

// VaultAPI is the contract the socket RPC surface exposes to clients.
// It mirrors the external sync engine: full-list reads, lifecycle
// operations, and a cursor-based status watch.
type VaultAPI interface {
	GetAllLogins() ([]LoginRecord, error)
	Status() (SyncStatus, uint64)
	WaitStatus(cursor uint64) (SyncStatus, uint64)
	Sync() error
	Lock() error
	Unlock(secret string) error
	TouchLogin(id string) error
	Reset() error
}
