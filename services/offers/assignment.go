package offers

import "locumly/models"

// AssignmentState tags the outcome of assignment slot resolution.
type AssignmentState int

const (
	// Resolved carries a usable slot ID.
	Resolved AssignmentState = iota
	// NotApplicable means the shift has no slot concept at assignment time
	// (single-user shifts); nil is sent upstream.
	NotApplicable
	// Ambiguous means no slot could be resolved; the caller must refuse
	// locally instead of calling the marketplace.
	Ambiguous
)

// AssignmentSlot is the tagged result of ResolveAssignmentSlot.
type AssignmentSlot struct {
	State  AssignmentState
	SlotID *int64
}

// ResolveAssignmentSlot picks the slot ultimately used for an assign action.
// Preference order: the requested slot when the offer itself references it,
// then the offer's first slot, then the requested slot, then the shift's
// first slot. Single-user shifts always resolve to NotApplicable.
func ResolveAssignmentSlot(shift *models.Shift, offer *models.CounterOffer, requestedSlotID *int64) AssignmentSlot {
	if shift.SingleUserOnly {
		return AssignmentSlot{State: NotApplicable}
	}

	var offerSlotIDs []int64
	if offer != nil {
		for _, entry := range offer.Slots {
			if entry.SlotID != nil {
				offerSlotIDs = append(offerSlotIDs, *entry.SlotID)
			}
		}
	}

	if requestedSlotID != nil {
		for _, id := range offerSlotIDs {
			if id == *requestedSlotID {
				return AssignmentSlot{State: Resolved, SlotID: requestedSlotID}
			}
		}
	}
	if len(offerSlotIDs) > 0 {
		id := offerSlotIDs[0]
		return AssignmentSlot{State: Resolved, SlotID: &id}
	}
	if requestedSlotID != nil {
		return AssignmentSlot{State: Resolved, SlotID: requestedSlotID}
	}
	if first := shift.FirstSlotID(); first != nil {
		return AssignmentSlot{State: Resolved, SlotID: first}
	}
	return AssignmentSlot{State: Ambiguous}
}
