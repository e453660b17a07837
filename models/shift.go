package models

import "time"

// VisibilityLevel is one of the five ordered escalation tiers a shift posting
// can reach. Ordering and transition rules live in services/escalation.
type VisibilityLevel string

const (
	VisibilityFullPartTime VisibilityLevel = "FULL_PART_TIME"
	VisibilityLocumCasual  VisibilityLevel = "LOCUM_CASUAL"
	VisibilityOwnerChain   VisibilityLevel = "OWNER_CHAIN"
	VisibilityOrgChain     VisibilityLevel = "ORG_CHAIN"
	VisibilityPlatform     VisibilityLevel = "PLATFORM"
)

// MaxSlotOccurrences caps recurrence expansion for display.
const MaxSlotOccurrences = 90

// Shift represents a staffing request posted by a pharmacy.
type Shift struct {
	ID             int64             `bson:"id" json:"id"`
	PharmacyID     int64             `bson:"pharmacyId" json:"pharmacyId"`
	RoleNeeded     string            `bson:"roleNeeded" json:"roleNeeded"`         // e.g., "pharmacist", "assistant", "intern"
	EmploymentType string            `bson:"employmentType" json:"employmentType"` // e.g., "full_time", "locum"
	SingleUserOnly bool              `bson:"singleUserOnly" json:"singleUserOnly"` // one worker fills the whole shift
	Visibility     VisibilityLevel   `bson:"visibility" json:"visibility"`
	AllowedLevels  []VisibilityLevel `bson:"allowedLevels,omitempty" json:"allowedLevels,omitempty"` // empty means all tiers allowed
	Slots          []Slot            `bson:"slots" json:"slots"`
	Description    string            `bson:"description,omitempty" json:"description,omitempty"`
	CreatedBy      int64             `bson:"createdBy" json:"createdBy"`
}

// Slot is a bookable time window within a shift.
type Slot struct {
	ID               int64          `bson:"id" json:"id"`
	Date             string         `bson:"date" json:"date"`           // "2006-01-02"
	StartTime        string         `bson:"startTime" json:"startTime"` // "15:04"
	EndTime          string         `bson:"endTime" json:"endTime"`
	RecurringDays    []time.Weekday `bson:"recurringDays,omitempty" json:"recurringDays,omitempty"`
	RecurringEndDate string         `bson:"recurringEndDate,omitempty" json:"recurringEndDate,omitempty"`
}

// SlotOccurrence is a concrete display instance of a (possibly recurring) slot.
type SlotOccurrence struct {
	SlotID    int64  `json:"slotId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// SlotIDSet returns the set of slot IDs belonging to the shift.
func (s *Shift) SlotIDSet() map[int64]struct{} {
	ids := make(map[int64]struct{}, len(s.Slots))
	for _, slot := range s.Slots {
		ids[slot.ID] = struct{}{}
	}
	return ids
}

// FirstSlotID returns the ID of the shift's first identified slot, or nil
// if none carries a usable ID. Upstream payloads leave unidentifiable slot
// IDs at zero.
func (s *Shift) FirstSlotID() *int64 {
	for _, slot := range s.Slots {
		if slot.ID != 0 {
			id := slot.ID
			return &id
		}
	}
	return nil
}

// ExpandOccurrences expands a slot into concrete occurrences for display.
// Non-recurring slots yield a single occurrence. Recurring slots repeat on
// their weekdays from the slot date through the recurrence end date, capped
// at MaxSlotOccurrences. The stored slot is never mutated.
func (s Slot) ExpandOccurrences() []SlotOccurrence {
	base := SlotOccurrence{SlotID: s.ID, Date: s.Date, StartTime: s.StartTime, EndTime: s.EndTime}
	if len(s.RecurringDays) == 0 || s.RecurringEndDate == "" {
		return []SlotOccurrence{base}
	}

	start, err := time.Parse("2006-01-02", s.Date)
	if err != nil {
		return []SlotOccurrence{base}
	}
	end, err := time.Parse("2006-01-02", s.RecurringEndDate)
	if err != nil || end.Before(start) {
		return []SlotOccurrence{base}
	}

	days := make(map[time.Weekday]struct{}, len(s.RecurringDays))
	for _, d := range s.RecurringDays {
		days[d] = struct{}{}
	}

	var out []SlotOccurrence
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if _, ok := days[d.Weekday()]; !ok {
			continue
		}
		occ := base
		occ.Date = d.Format("2006-01-02")
		out = append(out, occ)
		if len(out) == MaxSlotOccurrences {
			break
		}
	}
	if len(out) == 0 {
		return []SlotOccurrence{base}
	}
	return out
}
