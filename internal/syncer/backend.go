package syncer

import (
	"context"

	"github.com/vaultbloom/vaultbloom/internal/model"
)

// Backend is the boundary to the external sync engine. The engine owns
// account authentication, the sync protocol, and secret storage; the
// daemon only pulls the resulting login set and asks it to disconnect.
type Backend interface {
	// FetchLogins returns the full login set. The result replaces the
	// local store wholesale.
	FetchLogins(ctx context.Context) ([]model.LoginRecord, error)
	// Disconnect detaches this device from the sync profile.
	Disconnect(ctx context.Context) error
}
