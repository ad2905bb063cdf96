package projection

import (
	"sort"
	"strings"

	"github.com/vaultbloom/vaultbloom/internal/model"
)

// NormalizeHostname strips the scheme prefix from a stored hostname.
// Only http:// and https:// are recognized; anything else passes through.
func NormalizeHostname(hostname string) string {
	hostname = strings.TrimPrefix(hostname, "https://")
	hostname = strings.TrimPrefix(hostname, "http://")
	return hostname
}

// matchesFilter reports whether a record survives the free-text filter.
// Matching is a case-insensitive substring test against the username or the
// normalized hostname. An empty filter passes everything.
func matchesFilter(r model.LoginRecord, filter string) bool {
	if filter == "" {
		return true
	}
	f := strings.ToLower(filter)
	if strings.Contains(strings.ToLower(r.Username), f) {
		return true
	}
	return strings.Contains(strings.ToLower(NormalizeHostname(r.Hostname)), f)
}

// filterLogins returns the records matching filter, preserving input order.
func filterLogins(logins []model.LoginRecord, filter string) []model.LoginRecord {
	if filter == "" {
		return logins
	}
	out := make([]model.LoginRecord, 0, len(logins))
	for _, r := range logins {
		if matchesFilter(r, filter) {
			out = append(out, r)
		}
	}
	return out
}

// sortLogins returns a sorted copy. The sort is stable: records with equal
// keys keep their incoming order.
func sortLogins(logins []model.LoginRecord, order model.SortOrder) []model.LoginRecord {
	sorted := make([]model.LoginRecord, len(logins))
	copy(sorted, logins)
	switch order {
	case model.SortRecentlyUsed:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].LastUsedAt.After(sorted[j].LastUsedAt)
		})
	default:
		sort.SliceStable(sorted, func(i, j int) bool {
			a := strings.ToLower(NormalizeHostname(sorted[i].Hostname))
			b := strings.ToLower(NormalizeHostname(sorted[j].Hostname))
			return a < b
		})
	}
	return sorted
}

// entryRows maps records to display rows. The username placeholder stands
// in for empty usernames; hostnames are shown without their scheme.
func entryRows(logins []model.LoginRecord) []model.DisplayRow {
	rows := make([]model.DisplayRow, 0, len(logins))
	for _, r := range logins {
		username := r.Username
		if username == "" {
			username = model.UsernamePlaceholder
		}
		rows = append(rows, model.EntryRow(NormalizeHostname(r.Hostname), username, r.ID))
	}
	return rows
}
