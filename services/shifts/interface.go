package shifts

import (
	"context"

	snapshotRepo "locumly/database/repository/snapshot"
	"locumly/models"
	"locumly/services/candidates"
	"locumly/services/escalation"
	"locumly/services/markers"
	"locumly/upstream"
)

// CandidateView is the reconciled candidate list for one (shift, tier, slot)
// tab. Community tiers populate Members; the platform tier populates Public.
type CandidateView struct {
	Level   models.VisibilityLevel     `json:"level"`
	Members []models.ShiftMemberStatus `json:"members,omitempty"`
	Public  *candidates.PublicView     `json:"public,omitempty"`
	Tiers   []models.VisibilityLevel   `json:"viewableTiers"`
}

// ShiftService drives the poster-facing shift actions: tier selection and
// escalation, candidate review, accept/reject, delete, and share.
type ShiftService interface {
	// ListShifts fetches the poster's shifts, refreshes the user's live-ID
	// snapshot, and garbage-collects their marker sets against it.
	ListShifts(ctx context.Context, userID string, filters upstream.ShiftFilters) ([]models.Shift, *models.MarkerSets, error)
	// SelectLevel previews a tier without escalating.
	SelectLevel(ctx context.Context, shiftID int64, level models.VisibilityLevel) (escalation.Selection, error)
	// Escalate advances a shift's visibility to the target tier.
	Escalate(ctx context.Context, shiftID int64, target models.VisibilityLevel) (*models.Shift, error)
	// Candidates returns the reconciled candidate view for a tier tab.
	Candidates(ctx context.Context, shiftID int64, level models.VisibilityLevel, slotID *int64) (*CandidateView, error)
	// Reveal discloses an anonymous interest's identity.
	Reveal(ctx context.Context, shiftID, interestID int64) (*models.ShiftInterest, error)
	// AcceptCandidate assigns a community-tier candidate.
	AcceptCandidate(ctx context.Context, shiftID, userID int64, slotID *int64) error
	// AcceptOffer assigns a counter-offeror on the offer's resolved slot.
	AcceptOffer(ctx context.Context, shiftID, offerID int64, requestedSlotID *int64) error
	// RejectOffer declines a counter-offer.
	RejectOffer(ctx context.Context, shiftID, offerID int64) error
	// Delete removes a shift.
	Delete(ctx context.Context, shiftID int64) error
	// Share returns a share link for a platform-tier shift.
	Share(ctx context.Context, shiftID int64) (string, error)
	// Offers returns a shift's counter-offers, loading them on first use.
	Offers(ctx context.Context, shiftID int64) ([]models.CounterOffer, error)
}

// SweepEnqueuer schedules a deferred marker sweep for a user whose inline
// prune could not run.
type SweepEnqueuer interface {
	EnqueueMarkerSweep(userID string) error
}

// DefaultShiftService implements ShiftService.
type DefaultShiftService struct {
	Upstream  upstream.Client
	Markers   markers.MarkerService
	Snapshots snapshotRepo.SnapshotRepository
	Sweeps    SweepEnqueuer

	tabs   *TabCache
	offers *OfferCache
	guard  *ActionGuard

	state workingState
}

// NewDefaultShiftService wires the orchestrator's caches and guards.
func NewDefaultShiftService(up upstream.Client, mk markers.MarkerService, snaps snapshotRepo.SnapshotRepository, sweeps SweepEnqueuer) *DefaultShiftService {
	return &DefaultShiftService{
		Upstream:  up,
		Markers:   mk,
		Snapshots: snaps,
		Sweeps:    sweeps,
		tabs:      NewTabCache(),
		offers:    NewOfferCache(),
		guard:     NewActionGuard(),
		state:     newWorkingState(),
	}
}
