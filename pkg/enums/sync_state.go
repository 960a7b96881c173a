package enums

// SyncState tracks whether a slot's latest edit has reached the backend.
type SyncState string

const (
	SyncStateSynced   SyncState = "synced"
	SyncStatePending  SyncState = "pending"
	SyncStateUnsynced SyncState = "unsynced"
)

// String implements fmt.Stringer.
func (s SyncState) String() string {
	return string(s)
}

// IsDirty reports whether the slot differs, or may differ, from the server copy.
func (s SyncState) IsDirty() bool {
	return s == SyncStatePending || s == SyncStateUnsynced
}
