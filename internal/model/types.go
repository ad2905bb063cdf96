package model

import "time"

// LoginRecord represents a single saved login used across the system.
// It is the canonical type for storage, transport (socket RPC), and display.
// Records are owned by the sync side; everything downstream treats them as
// immutable input.
type LoginRecord struct {
	ID         string
	Hostname   string // as stored, may carry an http:// or https:// prefix
	Username   string // may be empty
	LastUsedAt time.Time
}

// UsernamePlaceholder is shown for entries with no stored username.
const UsernamePlaceholder = "(no username)"

// SortOrder selects how the login list is ordered for display.
type SortOrder int

const (
	SortAlphabetical SortOrder = iota // ascending by normalized hostname
	SortRecentlyUsed                  // descending by last use
)

// Label returns the human-readable label for the sort control.
func (o SortOrder) Label() string {
	if o == SortRecentlyUsed {
		return "Recent"
	}
	return "A–Z"
}

// RowKind tags a DisplayRow variant.
type RowKind int

const (
	RowSearchHeader RowKind = iota
	RowPlaceholder
	RowEntry
)

// DisplayRow is one render-ready row of the login list. Rows are derived
// wholesale from the current projection snapshot and never mutated in place.
type DisplayRow struct {
	Kind     RowKind
	Title    string // entry rows only: normalized hostname
	Username string // entry rows only: literal value or UsernamePlaceholder
	ID       string // entry rows only
}

// HeaderRow returns the search header row that leads every projection.
func HeaderRow() DisplayRow { return DisplayRow{Kind: RowSearchHeader} }

// PlaceholderRow returns the loading placeholder row.
func PlaceholderRow() DisplayRow { return DisplayRow{Kind: RowPlaceholder} }

// EntryRow builds an entry row for one login record.
func EntryRow(title, username, id string) DisplayRow {
	return DisplayRow{Kind: RowEntry, Title: title, Username: username, ID: id}
}
