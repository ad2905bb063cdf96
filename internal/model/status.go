package model

// SyncState tags a SyncStatus variant.
type SyncState int

const (
	StateNotSyncable SyncState = iota // no backend attached or vault locked
	StateReadyToSync
	StateSyncing
	StateSynced
	StateError
)

// String returns the wire/display name of the state tag.
func (s SyncState) String() string {
	switch s {
	case StateNotSyncable:
		return "NotSyncable"
	case StateReadyToSync:
		return "ReadyToSync"
	case StateSyncing:
		return "Syncing"
	case StateSynced:
		return "Synced"
	case StateError:
		return "Error"
	}
	return "Unknown"
}

// SyncStatus is the sync lifecycle status, a tagged variant with an
// error-only payload. Reason travels with StateError but never takes part
// in equality: two statuses are equal when their tags match.
type SyncStatus struct {
	State  SyncState
	Reason string // set for StateError only, informational
}

// Equal compares two statuses by tag only.
func (s SyncStatus) Equal(other SyncStatus) bool {
	return s.State == other.State
}

// ParseState maps a wire state name back to its tag.
func ParseState(name string) (SyncState, bool) {
	switch name {
	case "NotSyncable":
		return StateNotSyncable, true
	case "ReadyToSync":
		return StateReadyToSync, true
	case "Syncing":
		return StateSyncing, true
	case "Synced":
		return StateSynced, true
	case "Error":
		return StateError, true
	}
	return StateNotSyncable, false
}

func NotSyncable() SyncStatus  { return SyncStatus{State: StateNotSyncable} }
func ReadyToSync() SyncStatus  { return SyncStatus{State: StateReadyToSync} }
func Syncing() SyncStatus      { return SyncStatus{State: StateSyncing} }
func Synced() SyncStatus       { return SyncStatus{State: StateSynced} }
func SyncError(reason string) SyncStatus {
	return SyncStatus{State: StateError, Reason: reason}
}
