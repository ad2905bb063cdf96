package tui

import (
	"fmt"

	"github.com/vaultbloom/vaultbloom/internal/model"
)

// sharedState is the view-facing projection state, shared across pages
// so emissions arriving while another page is active are not lost.
type sharedState struct {
	rows             []model.DisplayRow
	sortLabel        string
	sortEnabled      bool
	listEnabled      bool
	emptyState       bool
	showFilterCancel bool
	progress         bool
	status           model.SyncStatus
	notice           string
}

// apply folds a bridge message into the state. It reports whether the
// message was one of ours and an optional page switch.
func (st *sharedState) apply(msg interface{}) (bool, *PageNav) {
	switch m := msg.(type) {
	case rowsMsg:
		st.rows = m
	case sortLabelMsg:
		st.sortLabel = string(m)
	case sortEnabledMsg:
		st.sortEnabled = bool(m)
	case listEnabledMsg:
		st.listEnabled = bool(m)
	case emptyStateMsg:
		st.emptyState = bool(m)
	case filterCancelMsg:
		st.showFilterCancel = bool(m)
	case progressMsg:
		st.progress = m.show
	case syncStatusMsg:
		st.status = model.SyncStatus(m)
	case opFailedMsg:
		st.notice = fmt.Sprintf("%s failed: %v", m.op, m.err)
	case openDetailMsg:
		return true, &PageNav{PageID: pageDetail, Params: model.LoginRecord(m)}
	case lockedMsg:
		return true, &PageNav{PageID: pageLock}
	default:
		return false, nil
	}
	return true, nil
}

// entryAt returns the nth entry row, skipping header and placeholder rows.
func (st *sharedState) entryAt(n int) (model.DisplayRow, bool) {
	i := 0
	for _, row := range st.rows {
		if row.Kind != model.RowEntry {
			continue
		}
		if i == n {
			return row, true
		}
		i++
	}
	return model.DisplayRow{}, false
}

// entryCount counts the entry rows.
func (st *sharedState) entryCount() int {
	n := 0
	for _, row := range st.rows {
		if row.Kind == model.RowEntry {
			n++
		}
	}
	return n
}

// hasPlaceholder reports whether the loading placeholder row is present.
func (st *sharedState) hasPlaceholder() bool {
	for _, row := range st.rows {
		if row.Kind == model.RowPlaceholder {
			return true
		}
	}
	return false
}
