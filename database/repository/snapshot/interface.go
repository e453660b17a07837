package snapshotRepo

// SnapshotRepository stores the latest shift-list fetch per user: the set of
// live shift and slot IDs that marker garbage collection prunes against.
type SnapshotRepository interface {
	// Save replaces the user's snapshot with the latest live ID sets.
	Save(userID string, shiftIDs, slotIDs []int64) error
	// Get returns the user's latest snapshot, or nils when none exists.
	Get(userID string) (shiftIDs, slotIDs []int64, err error)
}
