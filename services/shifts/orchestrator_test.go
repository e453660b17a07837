package shifts

import (
	"context"
	"errors"
	"testing"

	"locumly/models"
	"locumly/services/escalation"
	"locumly/upstream"
)

func ptr(v int64) *int64 { return &v }

type fakeClient struct {
	shifts    []models.Shift
	interests []models.ShiftInterest
	members   []models.ShiftMemberStatus
	offerList []models.CounterOffer
	revealed  models.UserSummary

	offerCalls  int
	memberCalls int
	acceptErr   error

	lastAcceptSlot *int64
	lastAcceptUser int64
	lastEscalate   models.VisibilityLevel
	acceptedOffers []int64
	rejectedOffers []int64
	deleted        []int64
	shared         []int64
}

func (f *fakeClient) ListShifts(ctx context.Context, filters upstream.ShiftFilters) ([]models.Shift, error) {
	return f.shifts, nil
}

func (f *fakeClient) GetInterests(ctx context.Context, shiftID int64) ([]models.ShiftInterest, error) {
	return f.interests, nil
}

func (f *fakeClient) GetMembers(ctx context.Context, shiftID int64, level models.VisibilityLevel, slotID *int64) ([]models.ShiftMemberStatus, error) {
	f.memberCalls++
	return f.members, nil
}

func (f *fakeClient) GetCounterOffers(ctx context.Context, shiftID int64) ([]models.CounterOffer, error) {
	f.offerCalls++
	return f.offerList, nil
}

func (f *fakeClient) AcceptCounterOffer(ctx context.Context, shiftID, offerID int64, slotID *int64) error {
	if f.acceptErr != nil {
		return f.acceptErr
	}
	f.acceptedOffers = append(f.acceptedOffers, offerID)
	f.lastAcceptSlot = slotID
	return nil
}

func (f *fakeClient) RejectCounterOffer(ctx context.Context, shiftID, offerID int64) error {
	f.rejectedOffers = append(f.rejectedOffers, offerID)
	return nil
}

func (f *fakeClient) RevealInterest(ctx context.Context, shiftID, userID int64, slotID *int64) (*models.UserSummary, error) {
	u := f.revealed
	return &u, nil
}

func (f *fakeClient) AcceptCandidate(ctx context.Context, shiftID, userID int64, slotID *int64) error {
	if f.acceptErr != nil {
		return f.acceptErr
	}
	f.lastAcceptUser = userID
	f.lastAcceptSlot = slotID
	return nil
}

func (f *fakeClient) Escalate(ctx context.Context, shiftID int64, target models.VisibilityLevel) (*models.Shift, error) {
	f.lastEscalate = target
	for _, sh := range f.shifts {
		if sh.ID == shiftID {
			sh.Visibility = target
			return &sh, nil
		}
	}
	return nil, errors.New("unknown shift")
}

func (f *fakeClient) DeleteShift(ctx context.Context, shiftID int64) error {
	f.deleted = append(f.deleted, shiftID)
	return nil
}

func (f *fakeClient) ShareLink(ctx context.Context, shiftID int64) (string, error) {
	f.shared = append(f.shared, shiftID)
	return "https://locumly.example/s/abc", nil
}

func (f *fakeClient) ApplyToShift(ctx context.Context, shiftID int64, slotID *int64) error {
	return nil
}

func (f *fakeClient) DeclineShift(ctx context.Context, shiftID int64, slotID *int64) error {
	return nil
}

func (f *fakeClient) SaveShift(ctx context.Context, shiftID int64, saved bool) error {
	return nil
}

func newService(t *testing.T, client *fakeClient) *DefaultShiftService {
	t.Helper()
	svc := NewDefaultShiftService(client, nil, nil, nil)
	if _, _, err := svc.ListShifts(context.Background(), "u1", upstream.ShiftFilters{}); err != nil {
		t.Fatalf("ListShifts failed: %v", err)
	}
	return svc
}

func multiSlotShift(visibility models.VisibilityLevel) models.Shift {
	return models.Shift{
		ID:         1,
		Visibility: visibility,
		Slots: []models.Slot{
			{ID: 100, Date: "2026-09-01"},
			{ID: 101, Date: "2026-09-02"},
		},
	}
}

func TestEscalate_AdvancesOneTier(t *testing.T) {
	client := &fakeClient{shifts: []models.Shift{multiSlotShift(models.VisibilityLocumCasual)}}
	svc := newService(t, client)

	confirmed, err := svc.Escalate(context.Background(), 1, models.VisibilityOwnerChain)
	if err != nil {
		t.Fatalf("Escalate failed: %v", err)
	}
	if confirmed.Visibility != models.VisibilityOwnerChain {
		t.Errorf("confirmed visibility = %s, want %s", confirmed.Visibility, models.VisibilityOwnerChain)
	}
	if got, _ := svc.state.get(1); got.Visibility != models.VisibilityOwnerChain {
		t.Errorf("working state not updated: %s", got.Visibility)
	}
}

func TestEscalate_RejectsBackwardAndDisallowed(t *testing.T) {
	shift := multiSlotShift(models.VisibilityLocumCasual)
	shift.AllowedLevels = []models.VisibilityLevel{
		models.VisibilityLocumCasual,
		models.VisibilityOwnerChain,
		models.VisibilityPlatform,
	}
	client := &fakeClient{shifts: []models.Shift{shift}}
	svc := newService(t, client)

	var illegal *escalation.IllegalTransitionError
	if _, err := svc.Escalate(context.Background(), 1, models.VisibilityFullPartTime); !errors.As(err, &illegal) {
		t.Fatalf("backward escalation error = %v, want IllegalTransitionError", err)
	}
	if _, err := svc.Escalate(context.Background(), 1, models.VisibilityOrgChain); !errors.As(err, &illegal) {
		t.Fatalf("disallowed-level escalation error = %v, want IllegalTransitionError", err)
	}
	if client.lastEscalate != "" {
		t.Errorf("illegal escalation reached the marketplace: %s", client.lastEscalate)
	}

	// Any forward tier in the allowed set is legal, including multi-tier jumps.
	confirmed, err := svc.Escalate(context.Background(), 1, models.VisibilityPlatform)
	if err != nil {
		t.Fatalf("multi-tier escalation failed: %v", err)
	}
	if confirmed.Visibility != models.VisibilityPlatform {
		t.Errorf("confirmed visibility = %s, want %s", confirmed.Visibility, models.VisibilityPlatform)
	}
}

func TestEscalate_ClearsPreviewOverride(t *testing.T) {
	client := &fakeClient{shifts: []models.Shift{multiSlotShift(models.VisibilityLocumCasual)}}
	svc := newService(t, client)

	sel, err := svc.SelectLevel(context.Background(), 1, models.VisibilityOwnerChain)
	if err != nil || !sel.Switched {
		t.Fatalf("one-ahead preview: sel=%+v err=%v", sel, err)
	}
	if _, err := svc.Escalate(context.Background(), 1, models.VisibilityOwnerChain); err != nil {
		t.Fatalf("Escalate failed: %v", err)
	}
	if _, ok := svc.state.selectedLevel(1); ok {
		t.Error("preview override survived escalation")
	}
}

func TestSelectLevel_BeyondReachWarnsWithoutSwitching(t *testing.T) {
	client := &fakeClient{shifts: []models.Shift{multiSlotShift(models.VisibilityLocumCasual)}}
	svc := newService(t, client)

	sel, err := svc.SelectLevel(context.Background(), 1, models.VisibilityPlatform)
	if err != nil {
		t.Fatalf("SelectLevel failed: %v", err)
	}
	if sel.Switched {
		t.Error("selection beyond reach switched tiers")
	}
	if sel.Warning == "" {
		t.Error("selection beyond reach carried no warning")
	}
	if sel.Level != models.VisibilityLocumCasual {
		t.Errorf("selection stayed at %s, want %s", sel.Level, models.VisibilityLocumCasual)
	}
}

func TestCandidates_RespectsReachAndPreview(t *testing.T) {
	client := &fakeClient{
		shifts:  []models.Shift{multiSlotShift(models.VisibilityLocumCasual)},
		members: []models.ShiftMemberStatus{{UserID: 7, Status: models.MemberInterested}},
	}
	svc := newService(t, client)

	// Reached tier loads members.
	view, err := svc.Candidates(context.Background(), 1, models.VisibilityLocumCasual, nil)
	if err != nil {
		t.Fatalf("Candidates at current tier failed: %v", err)
	}
	if len(view.Members) != 1 {
		t.Fatalf("members = %d, want 1", len(view.Members))
	}
	if len(view.Tiers) != 2 {
		t.Errorf("viewable tiers = %v, want the two reached tiers", view.Tiers)
	}

	// Unreached, unpreviewed tier is refused.
	var notReached *TierNotReachedError
	if _, err := svc.Candidates(context.Background(), 1, models.VisibilityOwnerChain, nil); !errors.As(err, &notReached) {
		t.Fatalf("unreached tier error = %v, want TierNotReachedError", err)
	}

	// A legal preview opens exactly that tier.
	if _, err := svc.SelectLevel(context.Background(), 1, models.VisibilityOwnerChain); err != nil {
		t.Fatalf("SelectLevel failed: %v", err)
	}
	if _, err := svc.Candidates(context.Background(), 1, models.VisibilityOwnerChain, nil); err != nil {
		t.Fatalf("Candidates at previewed tier failed: %v", err)
	}
}

func TestCandidates_TabCachedPerTier(t *testing.T) {
	client := &fakeClient{
		shifts:  []models.Shift{multiSlotShift(models.VisibilityOwnerChain)},
		members: []models.ShiftMemberStatus{{UserID: 7, Status: models.MemberInterested}},
	}
	svc := newService(t, client)

	for i := 0; i < 3; i++ {
		if _, err := svc.Candidates(context.Background(), 1, models.VisibilityOwnerChain, nil); err != nil {
			t.Fatalf("Candidates failed: %v", err)
		}
	}
	if client.memberCalls != 1 {
		t.Errorf("member fetches = %d, want 1", client.memberCalls)
	}
	if _, err := svc.Candidates(context.Background(), 1, models.VisibilityLocumCasual, nil); err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if client.memberCalls != 2 {
		t.Errorf("member fetches after second tier = %d, want 2", client.memberCalls)
	}
}

func TestOffers_LoadedOnceEvenWhenEmpty(t *testing.T) {
	client := &fakeClient{shifts: []models.Shift{multiSlotShift(models.VisibilityPlatform)}}
	svc := newService(t, client)

	first, err := svc.Offers(context.Background(), 1)
	if err != nil {
		t.Fatalf("Offers failed: %v", err)
	}
	if first == nil || len(first) != 0 {
		t.Fatalf("empty load = %#v, want empty non-nil list", first)
	}
	if _, err := svc.Offers(context.Background(), 1); err != nil {
		t.Fatalf("Offers failed: %v", err)
	}
	if client.offerCalls != 1 {
		t.Errorf("offer fetches = %d, want 1 (loaded-empty must not refetch)", client.offerCalls)
	}
}

func TestRevealThenAccept_NamePropagatesAndSlotResolves(t *testing.T) {
	client := &fakeClient{
		shifts: []models.Shift{multiSlotShift(models.VisibilityPlatform)},
		interests: []models.ShiftInterest{
			{ID: 50, UserID: ptr(7), SlotID: ptr(100)},
		},
		offerList: []models.CounterOffer{
			{ID: 9, UserID: ptr(7), Slots: []models.OfferSlot{{SlotID: ptr(100)}}},
		},
		revealed: models.UserSummary{ID: 7, FirstName: "A", LastName: "B"},
	}
	svc := newService(t, client)

	// Before the reveal the offer renders anonymously.
	view, err := svc.Candidates(context.Background(), 1, models.VisibilityPlatform, ptr(100))
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(view.Public.Offers) != 1 || view.Public.Offers[0].Name == "A B" {
		t.Fatalf("pre-reveal offers = %+v", view.Public.Offers)
	}

	interest, err := svc.Reveal(context.Background(), 1, 50)
	if err != nil {
		t.Fatalf("Reveal failed: %v", err)
	}
	if !interest.Revealed || interest.User == nil {
		t.Fatalf("revealed interest = %+v", interest)
	}

	view, err = svc.Candidates(context.Background(), 1, models.VisibilityPlatform, ptr(100))
	if err != nil {
		t.Fatalf("Candidates after reveal failed: %v", err)
	}
	if view.Public.Offers[0].Name != "A B" {
		t.Errorf("post-reveal offer name = %q, want %q", view.Public.Offers[0].Name, "A B")
	}

	if err := svc.AcceptOffer(context.Background(), 1, 9, nil); err != nil {
		t.Fatalf("AcceptOffer failed: %v", err)
	}
	if client.lastAcceptSlot == nil || *client.lastAcceptSlot != 100 {
		t.Errorf("accepted slot = %v, want 100 (offer's own entry)", client.lastAcceptSlot)
	}
}

func TestAcceptOffer_RefusesAmbiguousSlot(t *testing.T) {
	client := &fakeClient{
		shifts: []models.Shift{{
			ID:         1,
			Visibility: models.VisibilityPlatform,
			Slots:      []models.Slot{{ID: 0}, {ID: 0}},
		}},
		offerList: []models.CounterOffer{{ID: 9, UserID: ptr(7)}},
	}
	svc := newService(t, client)

	var ambiguous *SlotAmbiguityError
	err := svc.AcceptOffer(context.Background(), 1, 9, nil)
	if !errors.As(err, &ambiguous) {
		t.Fatalf("error = %v, want SlotAmbiguityError", err)
	}
	if len(client.acceptedOffers) != 0 {
		t.Error("ambiguous accept reached the marketplace")
	}
}

func TestAcceptCandidate_SingleUserNeedsNoSlot(t *testing.T) {
	client := &fakeClient{
		shifts: []models.Shift{{
			ID:             1,
			Visibility:     models.VisibilityOwnerChain,
			SingleUserOnly: true,
			Slots:          []models.Slot{{ID: 100}, {ID: 101}},
		}},
	}
	svc := newService(t, client)

	if err := svc.AcceptCandidate(context.Background(), 1, 7, nil); err != nil {
		t.Fatalf("AcceptCandidate failed: %v", err)
	}
	if client.lastAcceptSlot != nil {
		t.Errorf("single-user accept carried slot %d", *client.lastAcceptSlot)
	}
	if client.lastAcceptUser != 7 {
		t.Errorf("accepted user = %d, want 7", client.lastAcceptUser)
	}
}

func TestRejectOffer_DropsFromCache(t *testing.T) {
	client := &fakeClient{
		shifts: []models.Shift{multiSlotShift(models.VisibilityPlatform)},
		offerList: []models.CounterOffer{
			{ID: 9, UserID: ptr(7)},
			{ID: 10, UserID: ptr(8)},
		},
	}
	svc := newService(t, client)

	if _, err := svc.Offers(context.Background(), 1); err != nil {
		t.Fatalf("Offers failed: %v", err)
	}
	if err := svc.RejectOffer(context.Background(), 1, 9); err != nil {
		t.Fatalf("RejectOffer failed: %v", err)
	}
	remaining, err := svc.Offers(context.Background(), 1)
	if err != nil {
		t.Fatalf("Offers failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != 10 {
		t.Errorf("remaining offers = %+v, want only ID 10", remaining)
	}
	if client.offerCalls != 1 {
		t.Errorf("offer fetches = %d, want 1 (rejection edits the cache)", client.offerCalls)
	}
}

func TestDelete_RemovesLocallyOnSuccess(t *testing.T) {
	client := &fakeClient{shifts: []models.Shift{multiSlotShift(models.VisibilityPlatform)}}
	svc := newService(t, client)

	if err := svc.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := svc.state.get(1); ok {
		t.Error("deleted shift still in working state")
	}
	if err := svc.Delete(context.Background(), 1); !errors.Is(err, ErrShiftNotFound) {
		t.Errorf("second delete error = %v, want ErrShiftNotFound", err)
	}
}

func TestShare_RequiresPlatformTier(t *testing.T) {
	client := &fakeClient{shifts: []models.Shift{
		multiSlotShift(models.VisibilityOwnerChain),
	}}
	svc := newService(t, client)

	var tier *ShareTierError
	if _, err := svc.Share(context.Background(), 1); !errors.As(err, &tier) {
		t.Fatalf("share below platform error = %v, want ShareTierError", err)
	}
	if len(client.shared) != 0 {
		t.Error("below-platform share reached the marketplace")
	}
}

type failingMarkers struct {
	pruneErr error
}

func (f *failingMarkers) Get(ctx context.Context, userID string) (*models.MarkerSets, error) {
	return models.NewMarkerSets(), nil
}

func (f *failingMarkers) SetAuthoritative(ctx context.Context, userID string, sets *models.MarkerSets) error {
	return nil
}

func (f *failingMarkers) ApplyShift(ctx context.Context, userID string, shiftID int64) (*models.MarkerSets, error) {
	return models.NewMarkerSets(), nil
}

func (f *failingMarkers) ApplySlot(ctx context.Context, userID string, shiftID, slotID int64) (*models.MarkerSets, error) {
	return models.NewMarkerSets(), nil
}

func (f *failingMarkers) RejectShift(ctx context.Context, userID string, shiftID int64) (*models.MarkerSets, error) {
	return models.NewMarkerSets(), nil
}

func (f *failingMarkers) RejectSlot(ctx context.Context, userID string, shiftID, slotID int64) (*models.MarkerSets, error) {
	return models.NewMarkerSets(), nil
}

func (f *failingMarkers) ToggleSave(ctx context.Context, userID string, shiftID int64) (bool, error) {
	return false, nil
}

func (f *failingMarkers) Prune(ctx context.Context, userID string, liveShiftIDs, liveSlotIDs models.IDSet) (*models.MarkerSets, error) {
	if f.pruneErr != nil {
		return nil, f.pruneErr
	}
	return models.NewMarkerSets(), nil
}

type fakeSweeper struct {
	enqueued []string
}

func (f *fakeSweeper) EnqueueMarkerSweep(userID string) error {
	f.enqueued = append(f.enqueued, userID)
	return nil
}

func TestListShifts_FailedPruneEnqueuesSweep(t *testing.T) {
	client := &fakeClient{shifts: []models.Shift{multiSlotShift(models.VisibilityPlatform)}}
	sweeper := &fakeSweeper{}
	svc := NewDefaultShiftService(client, &failingMarkers{pruneErr: errors.New("redis down")}, nil, sweeper)

	shiftList, sets, err := svc.ListShifts(context.Background(), "u1", upstream.ShiftFilters{})
	if err != nil {
		t.Fatalf("ListShifts failed: %v", err)
	}
	if len(shiftList) != 1 || sets != nil {
		t.Errorf("listing = %d shifts, markers %v; want 1 shift and nil markers", len(shiftList), sets)
	}
	if len(sweeper.enqueued) != 1 || sweeper.enqueued[0] != "u1" {
		t.Errorf("sweeps enqueued = %v, want [u1]", sweeper.enqueued)
	}
}

func TestListShifts_DropsCachesForVanishedShifts(t *testing.T) {
	shift1 := multiSlotShift(models.VisibilityOwnerChain)
	shift2 := multiSlotShift(models.VisibilityOwnerChain)
	shift2.ID = 2
	client := &fakeClient{
		shifts:    []models.Shift{shift1, shift2},
		members:   []models.ShiftMemberStatus{{UserID: 7, Status: models.MemberInterested}},
		offerList: []models.CounterOffer{{ID: 9, UserID: ptr(7)}},
	}
	svc := newService(t, client)

	for _, id := range []int64{1, 2} {
		if _, err := svc.Offers(context.Background(), id); err != nil {
			t.Fatalf("Offers(%d) failed: %v", id, err)
		}
		if _, err := svc.Candidates(context.Background(), id, models.VisibilityOwnerChain, nil); err != nil {
			t.Fatalf("Candidates(%d) failed: %v", id, err)
		}
	}
	if client.offerCalls != 2 || client.memberCalls != 2 {
		t.Fatalf("warm-up fetches = %d offers, %d members; want 2 each", client.offerCalls, client.memberCalls)
	}

	// Shift 2 vanishes from the next listing; its cache entries go with it.
	client.shifts = []models.Shift{shift1}
	if _, _, err := svc.ListShifts(context.Background(), "u1", upstream.ShiftFilters{}); err != nil {
		t.Fatalf("ListShifts failed: %v", err)
	}

	// The surviving shift still serves from cache.
	if _, err := svc.Offers(context.Background(), 1); err != nil {
		t.Fatalf("Offers(1) failed: %v", err)
	}
	if _, err := svc.Candidates(context.Background(), 1, models.VisibilityOwnerChain, nil); err != nil {
		t.Fatalf("Candidates(1) failed: %v", err)
	}
	if client.offerCalls != 2 || client.memberCalls != 2 {
		t.Errorf("surviving shift refetched: %d offers, %d members", client.offerCalls, client.memberCalls)
	}

	// When shift 2 reappears, its data is fetched fresh, not served stale.
	client.shifts = []models.Shift{shift1, shift2}
	if _, _, err := svc.ListShifts(context.Background(), "u1", upstream.ShiftFilters{}); err != nil {
		t.Fatalf("ListShifts failed: %v", err)
	}
	if _, err := svc.Offers(context.Background(), 2); err != nil {
		t.Fatalf("Offers(2) failed: %v", err)
	}
	if _, err := svc.Candidates(context.Background(), 2, models.VisibilityOwnerChain, nil); err != nil {
		t.Fatalf("Candidates(2) failed: %v", err)
	}
	if client.offerCalls != 3 || client.memberCalls != 3 {
		t.Errorf("reappeared shift served stale caches: %d offers, %d members; want 3 each", client.offerCalls, client.memberCalls)
	}
}

func TestActionGuard_SerializesSameTargetOnly(t *testing.T) {
	client := &fakeClient{shifts: []models.Shift{multiSlotShift(models.VisibilityLocumCasual)}}
	svc := newService(t, client)

	if !svc.guard.Begin(escalateKey(1)) {
		t.Fatal("Begin on free key failed")
	}
	if _, err := svc.Escalate(context.Background(), 1, models.VisibilityOwnerChain); !errors.Is(err, ErrActionInFlight) {
		t.Fatalf("held-key escalate error = %v, want ErrActionInFlight", err)
	}
	// A different action on the same shift is independent.
	if _, err := svc.Share(context.Background(), 1); err == nil {
		t.Fatal("share on low-tier shift unexpectedly succeeded")
	} else if errors.Is(err, ErrActionInFlight) {
		t.Fatal("unrelated action blocked by escalate key")
	}
	svc.guard.End(escalateKey(1))

	if _, err := svc.Escalate(context.Background(), 1, models.VisibilityOwnerChain); err != nil {
		t.Fatalf("escalate after release failed: %v", err)
	}
}
