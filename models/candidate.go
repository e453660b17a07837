package models

// MemberResponse is a worker's status at a community tier.
type MemberResponse string

const (
	MemberInterested MemberResponse = "interested"
	MemberAccepted   MemberResponse = "accepted"
	MemberRejected   MemberResponse = "rejected"
	MemberNoResponse MemberResponse = "no_response"
)

// UserSummary is the identity detail attached to candidates after reveal.
type UserSummary struct {
	ID        int64  `bson:"id" json:"id"`
	FirstName string `bson:"firstName" json:"firstName"`
	LastName  string `bson:"lastName" json:"lastName"`
	Role      string `bson:"role,omitempty" json:"role,omitempty"`
}

// ShiftInterest is a worker's anonymous expression of interest at the
// platform tier. Identity stays hidden until the poster reveals it.
type ShiftInterest struct {
	ID       int64        `json:"id"`
	UserID   *int64       `json:"userId,omitempty"`
	SlotID   *int64       `json:"slotId,omitempty"` // nil means shift-level interest
	Revealed bool         `json:"revealed"`
	User     *UserSummary `json:"user,omitempty"` // populated only after reveal
}

// ShiftMemberStatus is a worker's status at a community tier, where the
// audience is narrower and not anonymous.
type ShiftMemberStatus struct {
	UserID int64          `json:"userId"`
	SlotID *int64         `json:"slotId,omitempty"`
	Status MemberResponse `json:"status"`
	User   *UserSummary   `json:"user,omitempty"`
}

// CounterOffer is a worker's proposed alternate rate/time for one or more
// slots of a shift. Top-level proposed fields cover offers that arrive with
// no slot entries at all (single-user shifts).
type CounterOffer struct {
	ID            int64        `json:"id"`
	UserID        *int64       `json:"userId,omitempty"`
	User          *UserSummary `json:"user,omitempty"`
	Slots         []OfferSlot  `json:"slots,omitempty"`
	Message       string       `json:"message,omitempty"`
	RequestTravel bool         `json:"requestTravel,omitempty"`
	ProposedStart string       `json:"proposedStartTime,omitempty"`
	ProposedEnd   string       `json:"proposedEndTime,omitempty"`
	ProposedRate  float64      `json:"proposedRate,omitempty"`
}

// OfferSlot is a single proposed slot entry within a counter-offer.
type OfferSlot struct {
	SlotID        *int64  `json:"slotId,omitempty"`
	Date          string  `json:"date,omitempty"`
	ProposedStart string  `json:"proposedStartTime,omitempty"`
	ProposedEnd   string  `json:"proposedEndTime,omitempty"`
	ProposedRate  float64 `json:"proposedRate,omitempty"`
}

// FullName renders "First Last" for display.
func (u UserSummary) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
