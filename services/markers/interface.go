package markers

import (
	"context"

	markerRepo "locumly/database/repository/marker"
	"locumly/models"
	"locumly/upstream"
)

// MarkerService maintains a worker's applied/rejected/saved marker sets,
// reconciled against authoritative server state. Marker state only changes
// after a confirmed marketplace acknowledgment; no mutation is applied
// optimistically.
type MarkerService interface {
	// Get hydrates the user's marker sets from the store (cache first,
	// durable repository behind it).
	Get(ctx context.Context, userID string) (*models.MarkerSets, error)
	// SetAuthoritative replaces the user's sets with server-sourced ones.
	// The replacement is total; stale local state never merges back in.
	SetAuthoritative(ctx context.Context, userID string, sets *models.MarkerSets) error

	// ApplyShift marks a shift applied after the marketplace confirms.
	ApplyShift(ctx context.Context, userID string, shiftID int64) (*models.MarkerSets, error)
	// ApplySlot marks one slot of a shift applied after confirmation.
	ApplySlot(ctx context.Context, userID string, shiftID, slotID int64) (*models.MarkerSets, error)
	// RejectShift marks a shift rejected after the marketplace confirms.
	RejectShift(ctx context.Context, userID string, shiftID int64) (*models.MarkerSets, error)
	// RejectSlot marks one slot rejected after confirmation.
	RejectSlot(ctx context.Context, userID string, shiftID, slotID int64) (*models.MarkerSets, error)
	// ToggleSave flips a shift's saved marker, returning the new state.
	ToggleSave(ctx context.Context, userID string, shiftID int64) (bool, error)

	// Prune intersects every set with the live shift/slot IDs from the
	// latest fetch and re-persists the trimmed sets.
	Prune(ctx context.Context, userID string, liveShiftIDs, liveSlotIDs models.IDSet) (*models.MarkerSets, error)
}

// DefaultMarkerService implements MarkerService.
type DefaultMarkerService struct {
	Upstream upstream.Client
	Cache    Store
	Repo     markerRepo.MarkerRepository
}
