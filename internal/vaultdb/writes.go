package vaultdb

import (
	"fmt"
	"time"

	"github.com/vaultbloom/vaultbloom/internal/model"
)

// ReplaceAll swaps the stored login set wholesale in a single transaction.
// Sync completion replaces rather than merges; the sync engine owns
// conflict resolution.
func (s *Store) ReplaceAll(records []model.LoginRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("vaultdb: begin replace: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM logins"); err != nil {
		tx.Rollback()
		return fmt.Errorf("vaultdb: clear logins: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO logins (id, hostname, username, last_used_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("vaultdb: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var lastUsed interface{}
		if !r.LastUsedAt.IsZero() {
			lastUsed = r.LastUsedAt.UTC()
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Hostname, r.Username, lastUsed); err != nil {
			tx.Rollback()
			return fmt.Errorf("vaultdb: insert login %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("vaultdb: commit replace: %w", err)
	}
	return nil
}

// TouchLogin sets the last-use timestamp of one login. Touching an unknown
// id is a no-op.
func (s *Store) TouchLogin(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		"UPDATE logins SET last_used_at = ? WHERE id = ?", at.UTC(), id)
	if err != nil {
		return fmt.Errorf("vaultdb: touch login %s: %w", id, err)
	}
	return nil
}

// DeleteAll removes every stored login. Used by the reset chain.
func (s *Store) DeleteAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM logins"); err != nil {
		return fmt.Errorf("vaultdb: delete all: %w", err)
	}
	return nil
}
