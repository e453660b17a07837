// Package candidates turns raw interest, member-status, and counter-offer
// records from the marketplace into per-tier, per-slot candidate views with
// privacy-gated identity reveal.
package candidates

import (
	"locumly/models"
	"locumly/services/offers"
)

// AnonymousName is what the poster sees for an unrevealed candidate.
const AnonymousName = "Anonymous candidate"

// OfferAction tells the poster UI which action an offer row carries.
type OfferAction string

const (
	// ActionRevealOffer gates the row behind an identity reveal.
	ActionRevealOffer OfferAction = "reveal_offer"
	// ActionReviewOffer opens the review dialog directly.
	ActionReviewOffer OfferAction = "review_offer"
)

// OfferCandidate is an offer row in the public-tier view. Slots carries the
// offer's proposed-rate rows resolved against the shift's canonical slots,
// scoped to the active slot tab.
type OfferCandidate struct {
	Offer    models.CounterOffer   `json:"offer"`
	Interest *models.ShiftInterest `json:"interest,omitempty"`
	Slots    []offers.MappedSlot   `json:"slots"`
	Action   OfferAction           `json:"action"`
	Name     string                `json:"name"`
}

// InterestCandidate is a plain-interest row in the public-tier view.
type InterestCandidate struct {
	Interest models.ShiftInterest `json:"interest"`
	Name     string               `json:"name"`
}

// PublicView is the reconciled platform-tier candidate list for one slot tab.
type PublicView struct {
	Offers    []OfferCandidate    `json:"offers"`
	Interests []InterestCandidate `json:"interests"`
}

// DedupeMembers removes duplicate member rows by user ID, first occurrence
// wins. Backend joins can return the same worker once per matching slot row
// when the slot reference is ambiguous.
func DedupeMembers(members []models.ShiftMemberStatus) []models.ShiftMemberStatus {
	seen := make(map[int64]struct{}, len(members))
	out := make([]models.ShiftMemberStatus, 0, len(members))
	for _, m := range members {
		if _, ok := seen[m.UserID]; ok {
			continue
		}
		seen[m.UserID] = struct{}{}
		out = append(out, m)
	}
	return out
}

// slotMatches reports whether a record's slot reference belongs in the view
// for slotID. A nil reference is shift-level and matches every slot; a nil
// filter accepts everything.
func slotMatches(recordSlotID, slotID *int64) bool {
	if recordSlotID == nil || slotID == nil {
		return true
	}
	return *recordSlotID == *slotID
}

// MembersForSlot scopes community-tier members to the selected slot and
// deduplicates them. Single-user shifts ignore slot references entirely.
func MembersForSlot(shift *models.Shift, members []models.ShiftMemberStatus, slotID *int64) []models.ShiftMemberStatus {
	if shift.SingleUserOnly {
		return DedupeMembers(members)
	}
	scoped := make([]models.ShiftMemberStatus, 0, len(members))
	for _, m := range members {
		if slotMatches(m.SlotID, slotID) {
			scoped = append(scoped, m)
		}
	}
	return DedupeMembers(scoped)
}

// InterestsForSlot scopes platform-tier interests to the selected slot.
func InterestsForSlot(shift *models.Shift, interests []models.ShiftInterest, slotID *int64) []models.ShiftInterest {
	if shift.SingleUserOnly {
		return interests
	}
	out := make([]models.ShiftInterest, 0, len(interests))
	for _, in := range interests {
		if slotMatches(in.SlotID, slotID) {
			out = append(out, in)
		}
	}
	return out
}

// FindInterestForOffer matches a counter-offer to its originating interest
// by user ID and slot compatibility. A nil slot reference on either side
// matches any slot. Returns nil when no interest matches.
func FindInterestForOffer(offer *models.CounterOffer, interests []models.ShiftInterest, slotID *int64) *models.ShiftInterest {
	if offer.UserID == nil {
		return nil
	}
	for i := range interests {
		in := &interests[i]
		if in.UserID == nil || *in.UserID != *offer.UserID {
			continue
		}
		if slotMatches(in.SlotID, slotID) {
			return in
		}
	}
	return nil
}

// DisplayName resolves what the poster may see for an interest. Identity
// fields are withheld until the interest is revealed.
func DisplayName(interest *models.ShiftInterest) string {
	if interest == nil || !interest.Revealed || interest.User == nil {
		return AnonymousName
	}
	return interest.User.FullName()
}

// BuildPublicView merges offers and interests for one platform-tier slot
// tab. Offers whose matched interest is unrevealed carry the reveal action;
// interests already surfaced via an offer are not listed twice.
func BuildPublicView(shift *models.Shift, interests []models.ShiftInterest, offerList []models.CounterOffer, slotID *int64) PublicView {
	scoped := InterestsForSlot(shift, interests, slotID)

	view := PublicView{Offers: []OfferCandidate{}, Interests: []InterestCandidate{}}
	offerUserIDs := make(map[int64]struct{}, len(offerList))

	for _, offer := range offerList {
		if offer.UserID != nil {
			offerUserIDs[*offer.UserID] = struct{}{}
		}
		// Match against the full interest list, not the scoped one: a
		// shift-level interest still gates a slot-scoped offer.
		matched := FindInterestForOffer(&offer, interests, slotID)
		oc := OfferCandidate{
			Offer:    offer,
			Interest: matched,
			Slots:    offers.MapOfferSlots(shift, &offer, slotID),
			Action:   ActionReviewOffer,
			Name:     DisplayName(matched),
		}
		if matched != nil && !matched.Revealed {
			oc.Action = ActionRevealOffer
		}
		if matched == nil && offer.User != nil {
			// Offers that arrive with a full user object were never
			// anonymous to begin with.
			oc.Name = offer.User.FullName()
		}
		view.Offers = append(view.Offers, oc)
	}

	for _, in := range scoped {
		if in.UserID != nil {
			if _, ok := offerUserIDs[*in.UserID]; ok {
				continue
			}
		}
		view.Interests = append(view.Interests, InterestCandidate{Interest: in, Name: DisplayName(&in)})
	}
	return view
}

// ValidateReveal checks that an interest can be revealed at all.
func ValidateReveal(interest *models.ShiftInterest) error {
	if interest == nil {
		return NewRevealError(0, "interest not found")
	}
	if interest.UserID == nil {
		return NewRevealError(interest.ID, "interest has no resolvable user id")
	}
	return nil
}

// ApplyReveal marks an interest revealed with the user detail returned by
// the marketplace, and flips any offers from the same worker so their rows
// stop gating on reveal.
func ApplyReveal(interest *models.ShiftInterest, user models.UserSummary, offers []models.CounterOffer) {
	interest.Revealed = true
	interest.User = &user
	if interest.UserID == nil {
		id := user.ID
		interest.UserID = &id
	}
	for i := range offers {
		if offers[i].UserID != nil && *offers[i].UserID == user.ID {
			u := user
			offers[i].User = &u
		}
	}
}
