package vaultdb

import (
	"database/sql"
	"time"

	"github.com/vaultbloom/vaultbloom/internal/model"
)

// AllLogins returns every stored login. Order is deterministic (by id) so
// repeated reads of an unchanged vault produce identical slices.
func (s *Store) AllLogins() ([]model.LoginRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, hostname, username, last_used_at FROM logins ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logins []model.LoginRecord
	for rows.Next() {
		r, err := scanLogin(rows)
		if err != nil {
			return nil, err
		}
		logins = append(logins, r)
	}
	return logins, rows.Err()
}

// LoginByID returns a single login and whether it exists.
func (s *Store) LoginByID(id string) (model.LoginRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, hostname, username, last_used_at FROM logins WHERE id = ?", id)

	r, err := scanLogin(row)
	if err == sql.ErrNoRows {
		return model.LoginRecord{}, false, nil
	}
	if err != nil {
		return model.LoginRecord{}, false, err
	}
	return r, true, nil
}

// Count returns the number of stored logins.
func (s *Store) Count() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM logins").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLogin(row rowScanner) (model.LoginRecord, error) {
	var r model.LoginRecord
	var lastUsed sql.NullTime
	if err := row.Scan(&r.ID, &r.Hostname, &r.Username, &lastUsed); err != nil {
		return model.LoginRecord{}, err
	}
	if lastUsed.Valid {
		r.LastUsedAt = lastUsed.Time.UTC()
	} else {
		r.LastUsedAt = time.Time{}
	}
	return r, nil
}
