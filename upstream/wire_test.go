package upstream

import (
	"encoding/json"
	"testing"

	"locumly/models"
)

func decodeShift(t *testing.T, payload string) models.Shift {
	t.Helper()
	var raw rawShift
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("unmarshal shift: %v", err)
	}
	return raw.normalize()
}

func TestFlexID_AcceptsAllLegacyShapes(t *testing.T) {
	cases := []struct {
		payload string
		want    *int64
	}{
		{`42`, int64Ptr(42)},
		{`"42"`, int64Ptr(42)},
		{`{"id": 42}`, int64Ptr(42)},
		{`null`, nil},
		{`""`, nil},
		{`"not-a-number"`, nil},
	}
	for _, tc := range cases {
		var f flexID
		if err := json.Unmarshal([]byte(tc.payload), &f); err != nil {
			t.Errorf("payload %s: %v", tc.payload, err)
			continue
		}
		switch {
		case tc.want == nil && f.value != nil:
			t.Errorf("payload %s: got %d, want absent", tc.payload, *f.value)
		case tc.want != nil && (f.value == nil || *f.value != *tc.want):
			t.Errorf("payload %s: got %v, want %d", tc.payload, f.value, *tc.want)
		}
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestShiftNormalize_FoldsLegacySpellings(t *testing.T) {
	shift := decodeShift(t, `{
		"id": 1,
		"pharmacy_id": 9,
		"role_needed": "pharmacist",
		"employment_type": "LOCUM",
		"single_user_only": true,
		"visibility_level": "LOCUM_CASUAL",
		"allowed_escalation_levels": ["OWNER_CHAIN", "PLATFORM"],
		"created_by": {"id": 5},
		"slots": [{"id": 100, "date": "2026-09-01", "start_time": "09:00", "end_time": "17:00"}]
	}`)

	if shift.PharmacyID != 9 || shift.RoleNeeded != "pharmacist" || shift.EmploymentType != "LOCUM" {
		t.Errorf("snake_case fields not folded: %+v", shift)
	}
	if !shift.SingleUserOnly {
		t.Error("single_user_only not folded")
	}
	if shift.Visibility != models.VisibilityLocumCasual {
		t.Errorf("visibility = %s, want %s", shift.Visibility, models.VisibilityLocumCasual)
	}
	if len(shift.AllowedLevels) != 2 || shift.AllowedLevels[0] != models.VisibilityOwnerChain {
		t.Errorf("allowed levels = %v", shift.AllowedLevels)
	}
	if shift.CreatedBy != 5 {
		t.Errorf("created_by = %d, want 5", shift.CreatedBy)
	}
	if len(shift.Slots) != 1 || shift.Slots[0].StartTime != "09:00" {
		t.Errorf("slots = %+v", shift.Slots)
	}
}

func TestShiftNormalize_CamelCaseWinsOverLegacy(t *testing.T) {
	shift := decodeShift(t, `{
		"id": 1,
		"visibility": "PLATFORM",
		"visibility_level": "LOCUM_CASUAL"
	}`)
	if shift.Visibility != models.VisibilityPlatform {
		t.Errorf("visibility = %s, want the camelCase spelling to win", shift.Visibility)
	}
}

func TestInterestNormalize_UserIDFromNestedObject(t *testing.T) {
	var raw rawInterest
	payload := `{"id": 50, "slot_id": "100", "user": {"id": 7, "first_name": "A", "last_name": "B"}}`
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("unmarshal interest: %v", err)
	}
	interest := raw.normalize()

	if interest.SlotID == nil || *interest.SlotID != 100 {
		t.Errorf("slot id = %v, want 100 (string slot_id)", interest.SlotID)
	}
	if interest.UserID == nil || *interest.UserID != 7 {
		t.Errorf("user id = %v, want 7 (from nested user object)", interest.UserID)
	}
	if interest.User == nil || interest.User.FullName() != "A B" {
		t.Errorf("user = %+v", interest.User)
	}
}

func TestMemberNormalize_MissingStatusDefaultsToNoResponse(t *testing.T) {
	var raw rawMemberStatus
	if err := json.Unmarshal([]byte(`{"user_id": 7}`), &raw); err != nil {
		t.Fatalf("unmarshal member: %v", err)
	}
	member := raw.normalize()
	if member.UserID != 7 {
		t.Errorf("user id = %d, want 7", member.UserID)
	}
	if member.Status != models.MemberNoResponse {
		t.Errorf("status = %s, want %s", member.Status, models.MemberNoResponse)
	}
}

func TestCounterOfferNormalize_BareUserID(t *testing.T) {
	var raw rawCounterOffer
	payload := `{"id": 9, "user": 7, "slots": [{"slot": {"id": 100}, "proposed_rate": 55.5}]}`
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("unmarshal offer: %v", err)
	}
	offer := raw.normalize()

	if offer.UserID == nil || *offer.UserID != 7 {
		t.Errorf("user id = %v, want 7 (bare user field)", offer.UserID)
	}
	if offer.User != nil {
		t.Errorf("bare id produced a user object: %+v", offer.User)
	}
	if len(offer.Slots) != 1 {
		t.Fatalf("slots = %+v", offer.Slots)
	}
	if offer.Slots[0].SlotID == nil || *offer.Slots[0].SlotID != 100 {
		t.Errorf("slot id = %v, want 100 (legacy slot object)", offer.Slots[0].SlotID)
	}
	if offer.Slots[0].ProposedRate != 55.5 {
		t.Errorf("rate = %v, want 55.5", offer.Slots[0].ProposedRate)
	}
}

func TestCounterOfferNormalize_FullUserObject(t *testing.T) {
	var raw rawCounterOffer
	payload := `{"id": 9, "user": {"id": 7, "firstName": "A", "lastName": "B"}, "request_travel": true}`
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("unmarshal offer: %v", err)
	}
	offer := raw.normalize()

	if offer.UserID == nil || *offer.UserID != 7 {
		t.Errorf("user id = %v, want 7", offer.UserID)
	}
	if offer.User == nil || offer.User.FullName() != "A B" {
		t.Errorf("user = %+v, want the full object carried through", offer.User)
	}
	if !offer.RequestTravel {
		t.Error("request_travel not folded")
	}
}
