package upstream

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"locumly/models"
)

// The marketplace API grew organically and still emits several spellings for
// the same field (slot_id vs slotId, visibility_level vs visibility, bare
// user ids vs user objects). Every alternate spelling is folded into the
// canonical models shape right here; nothing past this file sees them.

// flexID decodes an id that may arrive as a number, a numeric string, or an
// object carrying an "id" field.
type flexID struct {
	value *int64
}

func (f *flexID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == `""` {
		return nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var obj struct {
			ID *int64 `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		f.value = obj.ID
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		n, err := strconv.ParseInt(strings.Trim(trimmed, `"`), 10, 64)
		if err != nil {
			return nil // unparseable legacy value, treat as absent
		}
		f.value = &n
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	f.value = &n
	return nil
}

func firstID(candidates ...flexID) *int64 {
	for _, c := range candidates {
		if c.value != nil {
			return c.value
		}
	}
	return nil
}

func firstString(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func firstFloat(candidates ...*float64) float64 {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return 0
}

type rawUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	FirstSnk  string `json:"first_name"`
	LastName  string `json:"lastName"`
	LastSnk   string `json:"last_name"`
	Role      string `json:"role"`
}

func (r rawUser) normalize() models.UserSummary {
	return models.UserSummary{
		ID:        r.ID,
		FirstName: firstString(r.FirstName, r.FirstSnk),
		LastName:  firstString(r.LastName, r.LastSnk),
		Role:      r.Role,
	}
}

type rawSlot struct {
	ID           int64    `json:"id"`
	Date         string   `json:"date"`
	StartTime    string   `json:"startTime"`
	StartSnk     string   `json:"start_time"`
	EndTime      string   `json:"endTime"`
	EndSnk       string   `json:"end_time"`
	RecurDays    []string `json:"recurringDays"`
	RecurDaysSnk []string `json:"recurring_days"`
	RecurEnd     string   `json:"recurringEndDate"`
	RecurEndSnk  string   `json:"recurring_end_date"`
}

var weekdayNames = map[string]time.Weekday{
	"SUN": time.Sunday, "MON": time.Monday, "TUE": time.Tuesday, "WED": time.Wednesday,
	"THU": time.Thursday, "FRI": time.Friday, "SAT": time.Saturday,
}

func parseWeekdays(names []string) []time.Weekday {
	var out []time.Weekday
	for _, n := range names {
		key := strings.ToUpper(n)
		if len(key) > 3 {
			key = key[:3]
		}
		if d, ok := weekdayNames[key]; ok {
			out = append(out, d)
		}
	}
	return out
}

func (r rawSlot) normalize() models.Slot {
	days := r.RecurDays
	if len(days) == 0 {
		days = r.RecurDaysSnk
	}
	return models.Slot{
		ID:               r.ID,
		Date:             r.Date,
		StartTime:        firstString(r.StartTime, r.StartSnk),
		EndTime:          firstString(r.EndTime, r.EndSnk),
		RecurringDays:    parseWeekdays(days),
		RecurringEndDate: firstString(r.RecurEnd, r.RecurEndSnk),
	}
}

type rawShift struct {
	ID             int64     `json:"id"`
	PharmacyID     int64     `json:"pharmacyId"`
	PharmacySnk    int64     `json:"pharmacy_id"`
	RoleNeeded     string    `json:"roleNeeded"`
	RoleSnk        string    `json:"role_needed"`
	EmploymentType string    `json:"employmentType"`
	EmploySnk      string    `json:"employment_type"`
	SingleUser     *bool     `json:"singleUserOnly"`
	SingleUserSnk  *bool     `json:"single_user_only"`
	Visibility     string    `json:"visibility"`
	VisibilityLvl  string    `json:"visibilityLevel"`
	VisibilitySnk  string    `json:"visibility_level"`
	AllowedLevels  []string  `json:"allowedEscalationLevels"`
	AllowedSnk     []string  `json:"allowed_escalation_levels"`
	Slots          []rawSlot `json:"slots"`
	Description    string    `json:"description"`
	CreatedBy      flexID    `json:"createdBy"`
	CreatedBySnk   flexID    `json:"created_by"`
}

func (r rawShift) normalize() models.Shift {
	single := false
	if r.SingleUser != nil {
		single = *r.SingleUser
	} else if r.SingleUserSnk != nil {
		single = *r.SingleUserSnk
	}

	levels := r.AllowedLevels
	if len(levels) == 0 {
		levels = r.AllowedSnk
	}
	allowed := make([]models.VisibilityLevel, 0, len(levels))
	for _, l := range levels {
		allowed = append(allowed, models.VisibilityLevel(l))
	}

	slots := make([]models.Slot, 0, len(r.Slots))
	for _, s := range r.Slots {
		slots = append(slots, s.normalize())
	}

	pharmacyID := r.PharmacyID
	if pharmacyID == 0 {
		pharmacyID = r.PharmacySnk
	}

	var createdBy int64
	if id := firstID(r.CreatedBy, r.CreatedBySnk); id != nil {
		createdBy = *id
	}

	return models.Shift{
		ID:             r.ID,
		PharmacyID:     pharmacyID,
		RoleNeeded:     firstString(r.RoleNeeded, r.RoleSnk),
		EmploymentType: firstString(r.EmploymentType, r.EmploySnk),
		SingleUserOnly: single,
		Visibility:     models.VisibilityLevel(firstString(r.Visibility, r.VisibilityLvl, r.VisibilitySnk)),
		AllowedLevels:  allowed,
		Slots:          slots,
		Description:    r.Description,
		CreatedBy:      createdBy,
	}
}

type rawInterest struct {
	ID        int64    `json:"id"`
	UserID    flexID   `json:"userId"`
	UserSnk   flexID   `json:"user_id"`
	SlotID    flexID   `json:"slotId"`
	SlotSnk   flexID   `json:"slot_id"`
	Revealed  bool     `json:"revealed"`
	User      *rawUser `json:"user"`
}

func (r rawInterest) normalize() models.ShiftInterest {
	out := models.ShiftInterest{
		ID:       r.ID,
		UserID:   firstID(r.UserID, r.UserSnk),
		SlotID:   firstID(r.SlotID, r.SlotSnk),
		Revealed: r.Revealed,
	}
	if r.User != nil {
		u := r.User.normalize()
		out.User = &u
		if out.UserID == nil && u.ID != 0 {
			id := u.ID
			out.UserID = &id
		}
	}
	return out
}

type rawMemberStatus struct {
	UserID  flexID   `json:"userId"`
	UserSnk flexID   `json:"user_id"`
	SlotID  flexID   `json:"slotId"`
	SlotSnk flexID   `json:"slot_id"`
	Status  string   `json:"status"`
	User    *rawUser `json:"user"`
}

func (r rawMemberStatus) normalize() models.ShiftMemberStatus {
	out := models.ShiftMemberStatus{
		SlotID: firstID(r.SlotID, r.SlotSnk),
		Status: models.MemberResponse(r.Status),
	}
	if out.Status == "" {
		out.Status = models.MemberNoResponse
	}
	if id := firstID(r.UserID, r.UserSnk); id != nil {
		out.UserID = *id
	}
	if r.User != nil {
		u := r.User.normalize()
		out.User = &u
		if out.UserID == 0 {
			out.UserID = u.ID
		}
	}
	return out
}

type rawOfferSlot struct {
	SlotID   flexID   `json:"slotId"`
	SlotSnk  flexID   `json:"slot_id"`
	Slot     flexID   `json:"slot"` // legacy: full slot object, only the id matters
	Date     string   `json:"date"`
	Start    string   `json:"proposedStartTime"`
	StartSnk string   `json:"proposed_start_time"`
	End      string   `json:"proposedEndTime"`
	EndSnk   string   `json:"proposed_end_time"`
	Rate     *float64 `json:"proposedRate"`
	RateSnk  *float64 `json:"proposed_rate"`
}

func (r rawOfferSlot) normalize() models.OfferSlot {
	return models.OfferSlot{
		SlotID:        firstID(r.SlotID, r.SlotSnk, r.Slot),
		Date:          r.Date,
		ProposedStart: firstString(r.Start, r.StartSnk),
		ProposedEnd:   firstString(r.End, r.EndSnk),
		ProposedRate:  firstFloat(r.Rate, r.RateSnk),
	}
}

type rawCounterOffer struct {
	ID            int64          `json:"id"`
	User          flexID         `json:"user"` // bare id or full object
	UserID        flexID         `json:"userId"`
	UserSnk       flexID         `json:"user_id"`
	UserObject    *rawUser       `json:"userDetail"`
	Slots         []rawOfferSlot `json:"slots"`
	Message       string         `json:"message"`
	RequestTravel bool           `json:"requestTravel"`
	TravelSnk     bool           `json:"request_travel"`
	Start         string         `json:"proposedStartTime"`
	StartSnk      string         `json:"proposed_start_time"`
	End           string         `json:"proposedEndTime"`
	EndSnk        string         `json:"proposed_end_time"`
	Rate          *float64       `json:"proposedRate"`
	RateSnk       *float64       `json:"proposed_rate"`

	rawUserObject json.RawMessage
}

// UnmarshalJSON keeps the raw "user" payload so a full user object survives
// alongside the bare-id decoding of flexID.
func (r *rawCounterOffer) UnmarshalJSON(data []byte) error {
	type plain rawCounterOffer
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var probe struct {
		User json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(data, &probe); err == nil {
		p.rawUserObject = probe.User
	}
	*r = rawCounterOffer(p)
	return nil
}

func (r rawCounterOffer) normalize() models.CounterOffer {
	out := models.CounterOffer{
		ID:            r.ID,
		UserID:        firstID(r.UserID, r.UserSnk, r.User),
		Message:       r.Message,
		RequestTravel: r.RequestTravel || r.TravelSnk,
		ProposedStart: firstString(r.Start, r.StartSnk),
		ProposedEnd:   firstString(r.End, r.EndSnk),
		ProposedRate:  firstFloat(r.Rate, r.RateSnk),
	}
	for _, s := range r.Slots {
		out.Slots = append(out.Slots, s.normalize())
	}
	if r.UserObject != nil {
		u := r.UserObject.normalize()
		out.User = &u
	} else if len(r.rawUserObject) > 0 && strings.HasPrefix(strings.TrimSpace(string(r.rawUserObject)), "{") {
		var ru rawUser
		if err := json.Unmarshal(r.rawUserObject, &ru); err == nil && ru.ID != 0 {
			u := ru.normalize()
			out.User = &u
		}
	}
	if out.UserID == nil && out.User != nil {
		id := out.User.ID
		out.UserID = &id
	}
	return out
}
