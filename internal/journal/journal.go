// Package journal keeps a durable record of last-use touches. A touch is
// journaled before the vault DB write and replayed on startup, so
// LastUsedAt updates survive a crash between touch and commit.
package journal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Vault metadata stays private to the owning user.
const (
	fileMode = 0o600
	dirMode  = 0o700
)

// TouchEvent records one last-use bump for a login.
type TouchEvent struct {
	LoginID string    `json:"login_id"`
	At      time.Time `json:"at"`
}

type entry struct {
	Seq   uint64     `json:"seq"`
	Event TouchEvent `json:"event"`
}

// Journal is an append-only JSON-lines file with a commit marker in a
// sidecar. Entries at or below the marker have reached the vault DB.
type Journal struct {
	mu        sync.Mutex
	path      string
	markPath  string
	file      *os.File
	nextSeq   uint64
	committed uint64
}

// Open creates or opens a journal at path. A journal whose entries are
// all committed is restarted empty; a partially written trailing line is
// ignored.
func Open(path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return nil, fmt.Errorf("journal: mkdir: %w", err)
	}

	markPath := path + ".commit"
	committed, err := readMark(markPath)
	if err != nil {
		return nil, err
	}

	pending, maxSeq, err := readEntries(path, committed)
	if err != nil {
		return nil, err
	}

	if len(pending) == 0 && maxSeq > 0 {
		// Everything already applied; start the file over.
		if err := os.Truncate(path, 0); err != nil {
			return nil, fmt.Errorf("journal: truncate: %w", err)
		}
		_ = os.Remove(markPath)
		maxSeq, committed = 0, 0
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, fileMode)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}

	next := maxSeq + 1
	if committed+1 > next {
		next = committed + 1
	}

	return &Journal{
		path:      path,
		markPath:  markPath,
		file:      f,
		nextSeq:   next,
		committed: committed,
	}, nil
}

// Append persists one touch event and returns its sequence number.
func (j *Journal) Append(event TouchEvent) (uint64, error) {
	if event.LoginID == "" {
		return 0, errors.New("journal: empty login id")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	seq := j.nextSeq
	j.nextSeq++

	data, err := json.Marshal(entry{Seq: seq, Event: event})
	if err != nil {
		return 0, fmt.Errorf("journal: marshal entry: %w", err)
	}
	data = append(data, '\n')

	if _, err := j.file.Write(data); err != nil {
		return 0, fmt.Errorf("journal: write entry: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return 0, fmt.Errorf("journal: sync entry: %w", err)
	}
	return seq, nil
}

// Commit marks all entries up to seq as applied. When that covers every
// appended entry the file is restarted empty instead of growing forever.
func (j *Journal) Commit(seq uint64) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if seq <= j.committed {
		return nil
	}
	j.committed = seq

	if seq >= j.nextSeq-1 {
		if err := j.file.Truncate(0); err == nil {
			_ = os.Remove(j.markPath)
			j.nextSeq = 1
			j.committed = 0
			return nil
		}
		// Truncate failed; fall back to the marker.
	}
	return writeMark(j.markPath, seq)
}

// Committed returns the highest committed sequence number.
func (j *Journal) Committed() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.committed
}

// Replay calls fn for each pending touch. Touches are coalesced per
// login, later appends winning, since only the newest bump matters to
// LastUsedAt.
func (j *Journal) Replay(fn func(seq uint64, event TouchEvent) error) error {
	if fn == nil {
		return errors.New("journal: replay callback is nil")
	}

	j.mu.Lock()
	path, committed := j.path, j.committed
	j.mu.Unlock()

	pending, _, err := readEntries(path, committed)
	if err != nil {
		return err
	}

	latest := make(map[string]int, len(pending))
	for i, e := range pending {
		latest[e.Event.LoginID] = i
	}
	for i, e := range pending {
		if latest[e.Event.LoginID] != i {
			continue
		}
		if err := fn(e.Seq, e.Event); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}

// readEntries decodes the journal's readable prefix. A torn trailing
// line or a malformed entry ends the prefix; touch journals are small
// enough to read whole.
func readEntries(path string, committed uint64) (pending []entry, maxSeq uint64, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("journal: read: %w", err)
	}

	for len(data) > 0 {
		nl := bytes.IndexByte(data, '\n')
		if nl < 0 {
			break
		}
		raw := data[:nl]
		data = data[nl+1:]
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var e entry
		if json.Unmarshal(raw, &e) != nil {
			break
		}
		if e.Seq > maxSeq {
			maxSeq = e.Seq
		}
		if e.Seq > committed {
			pending = append(pending, e)
		}
	}
	return pending, maxSeq, nil
}

func readMark(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("journal: read commit mark: %w", err)
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return 0, nil
	}
	seq, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("journal: parse commit mark: %w", err)
	}
	return seq, nil
}

func writeMark(path string, seq uint64) error {
	tmp := path + ".tmp"
	payload := []byte(strconv.FormatUint(seq, 10) + "\n")
	if err := os.WriteFile(tmp, payload, fileMode); err != nil {
		return fmt.Errorf("journal: write commit mark: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("journal: rename commit mark: %w", err)
	}
	return nil
}
