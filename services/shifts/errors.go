package shifts

import (
	"errors"
	"fmt"

	"locumly/models"
)

// ErrActionInFlight means the same action on the same target is already
// running; independent targets never block each other.
var ErrActionInFlight = errors.New("shifts: action already in flight")

// ErrShiftNotFound means the shift is not in the current working list.
var ErrShiftNotFound = errors.New("shifts: shift not found")

// ErrOfferNotFound means the counter-offer is not in the shift's loaded set.
var ErrOfferNotFound = errors.New("shifts: counter-offer not found")

// ErrInterestNotFound means no cached or fetched interest matches.
var ErrInterestNotFound = errors.New("shifts: interest not found")

// SlotAmbiguityError reports an assign attempt on a multi-slot shift where
// no slot could be resolved. The request is withheld; the poster must pick
// a slot.
type SlotAmbiguityError struct {
	ShiftID int64
}

func (e *SlotAmbiguityError) Error() string {
	return fmt.Sprintf("shift %d requires a slot selection before assigning", e.ShiftID)
}

// TierNotReachedError reports a candidate fetch for a tier the shift has
// neither reached nor previewed.
type TierNotReachedError struct {
	ShiftID int64
	Level   models.VisibilityLevel
}

func (e *TierNotReachedError) Error() string {
	return fmt.Sprintf("shift %d has not reached %s; escalate your shift to this level to review its members", e.ShiftID, e.Level)
}

// ShareTierError reports a share attempt below the platform tier.
type ShareTierError struct {
	ShiftID int64
	Tier    models.VisibilityLevel
}

func (e *ShareTierError) Error() string {
	return fmt.Sprintf("shift %d is at %s; only platform-level shifts can be shared", e.ShiftID, e.Tier)
}
