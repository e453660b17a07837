package markerRepo

import "locumly/models"

// MarkerRepository defines durable access to per-user marker sets. The redis
// store in services/markers fronts this; the repository is the source of
// truth across cache restarts.
type MarkerRepository interface {
	// Get retrieves a user's marker document, or nil when none exists.
	Get(userID string) (*models.MarkerSets, error)
	// Upsert replaces the user's marker document. Empty sets are unset on
	// the document rather than stored as empty arrays.
	Upsert(userID string, sets *models.MarkerSets) error
	// Delete removes the user's marker document.
	Delete(userID string) error
}
