package markers

import (
	"context"
	"errors"
	"testing"

	"locumly/models"
	"locumly/upstream"
)

// fakeStore is an in-memory Store.
type fakeStore struct {
	data  map[string]*models.MarkerSets
	saves int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]*models.MarkerSets{}}
}

func (f *fakeStore) Load(ctx context.Context, userID string) (*models.MarkerSets, bool, error) {
	if sets, ok := f.data[userID]; ok {
		return sets.Clone(), true, nil
	}
	return models.NewMarkerSets(), false, nil
}

func (f *fakeStore) Save(ctx context.Context, userID string, sets *models.MarkerSets) error {
	f.saves++
	f.data[userID] = sets.Clone()
	return nil
}

// fakeRepo is an in-memory durable repository.
type fakeRepo struct {
	data map[string]*models.MarkerSets
}

func (f *fakeRepo) Get(userID string) (*models.MarkerSets, error) {
	if sets, ok := f.data[userID]; ok {
		return sets.Clone(), nil
	}
	return nil, nil
}

func (f *fakeRepo) Upsert(userID string, sets *models.MarkerSets) error {
	if f.data == nil {
		f.data = map[string]*models.MarkerSets{}
	}
	f.data[userID] = sets.Clone()
	return nil
}

func (f *fakeRepo) Delete(userID string) error {
	delete(f.data, userID)
	return nil
}

// fakeUpstream implements upstream.Client; only the worker-side calls are
// exercised here.
type fakeUpstream struct {
	applyErr   error
	declineErr error
	saveErr    error
	applies    int
	declines   int
}

func (f *fakeUpstream) ListShifts(ctx context.Context, filters upstream.ShiftFilters) ([]models.Shift, error) {
	return nil, nil
}
func (f *fakeUpstream) GetInterests(ctx context.Context, shiftID int64) ([]models.ShiftInterest, error) {
	return nil, nil
}
func (f *fakeUpstream) GetMembers(ctx context.Context, shiftID int64, level models.VisibilityLevel, slotID *int64) ([]models.ShiftMemberStatus, error) {
	return nil, nil
}
func (f *fakeUpstream) GetCounterOffers(ctx context.Context, shiftID int64) ([]models.CounterOffer, error) {
	return nil, nil
}
func (f *fakeUpstream) AcceptCounterOffer(ctx context.Context, shiftID, offerID int64, slotID *int64) error {
	return nil
}
func (f *fakeUpstream) RejectCounterOffer(ctx context.Context, shiftID, offerID int64) error {
	return nil
}
func (f *fakeUpstream) RevealInterest(ctx context.Context, shiftID, userID int64, slotID *int64) (*models.UserSummary, error) {
	return nil, nil
}
func (f *fakeUpstream) AcceptCandidate(ctx context.Context, shiftID, userID int64, slotID *int64) error {
	return nil
}
func (f *fakeUpstream) Escalate(ctx context.Context, shiftID int64, target models.VisibilityLevel) (*models.Shift, error) {
	return nil, nil
}
func (f *fakeUpstream) DeleteShift(ctx context.Context, shiftID int64) error { return nil }
func (f *fakeUpstream) ShareLink(ctx context.Context, shiftID int64) (string, error) {
	return "", nil
}
func (f *fakeUpstream) ApplyToShift(ctx context.Context, shiftID int64, slotID *int64) error {
	f.applies++
	return f.applyErr
}
func (f *fakeUpstream) DeclineShift(ctx context.Context, shiftID int64, slotID *int64) error {
	f.declines++
	return f.declineErr
}
func (f *fakeUpstream) SaveShift(ctx context.Context, shiftID int64, saved bool) error {
	return f.saveErr
}

func newService(up *fakeUpstream) (*DefaultMarkerService, *fakeStore, *fakeRepo) {
	store := newFakeStore()
	repo := &fakeRepo{data: map[string]*models.MarkerSets{}}
	return &DefaultMarkerService{Upstream: up, Cache: store, Repo: repo}, store, repo
}

func TestGet_HydratesFromRepoOnCacheMiss(t *testing.T) {
	svc, store, repo := newService(&fakeUpstream{})
	stored := models.NewMarkerSets()
	stored.AppliedShiftIDs.Add(7)
	repo.data["u1"] = stored

	sets, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !sets.AppliedShiftIDs.Has(7) {
		t.Error("expected repo-backed hydration to surface shift 7")
	}
	if _, ok := store.data["u1"]; !ok {
		t.Error("expected cache to be warmed after repo hydration")
	}
}

func TestSetAuthoritative_ReplacesNotMerges(t *testing.T) {
	svc, store, _ := newService(&fakeUpstream{})
	local := models.NewMarkerSets()
	local.AppliedShiftIDs.Add(1)
	local.SavedShiftIDs.Add(2)
	store.data["u1"] = local

	authoritative := models.NewMarkerSets()
	authoritative.AppliedShiftIDs.Add(9)

	if err := svc.SetAuthoritative(context.Background(), "u1", authoritative); err != nil {
		t.Fatalf("SetAuthoritative failed: %v", err)
	}

	sets, _ := svc.Get(context.Background(), "u1")
	if sets.AppliedShiftIDs.Has(1) || sets.SavedShiftIDs.Has(2) {
		t.Error("stale local markers survived an authoritative replacement")
	}
	if !sets.AppliedShiftIDs.Has(9) {
		t.Error("authoritative marker missing after replacement")
	}
}

func TestApplyShift_ConfirmedSuccessMutates(t *testing.T) {
	up := &fakeUpstream{}
	svc, _, _ := newService(up)

	seed := models.NewMarkerSets()
	seed.RejectedShiftIDs.Add(10)
	if err := svc.SetAuthoritative(context.Background(), "u1", seed); err != nil {
		t.Fatal(err)
	}

	sets, err := svc.ApplyShift(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("ApplyShift failed: %v", err)
	}
	if !sets.AppliedShiftIDs.Has(10) {
		t.Error("applied set missing shift 10")
	}
	if sets.RejectedShiftIDs.Has(10) {
		t.Error("apply must clear the rejected marker for the same shift")
	}
	if up.applies != 1 {
		t.Errorf("expected exactly one upstream apply call, got %d", up.applies)
	}
}

func TestApplyShift_RemoteFailureLeavesSetsUntouched(t *testing.T) {
	up := &fakeUpstream{applyErr: errors.New("network down")}
	svc, store, _ := newService(up)

	seed := models.NewMarkerSets()
	seed.RejectedShiftIDs.Add(10)
	store.data["u1"] = seed
	savesBefore := store.saves

	if _, err := svc.ApplyShift(context.Background(), "u1", 10); err == nil {
		t.Fatal("expected ApplyShift to propagate the remote failure")
	}

	sets, _ := svc.Get(context.Background(), "u1")
	if sets.AppliedShiftIDs.Has(10) || !sets.RejectedShiftIDs.Has(10) {
		t.Error("failed apply must not touch local marker state")
	}
	if store.saves != savesBefore {
		t.Error("failed apply must not persist anything")
	}
}

func TestRejectSlot_MirrorsApply(t *testing.T) {
	svc, _, _ := newService(&fakeUpstream{})

	seed := models.NewMarkerSets()
	seed.AppliedSlotIDs.Add(100)
	if err := svc.SetAuthoritative(context.Background(), "u1", seed); err != nil {
		t.Fatal(err)
	}

	sets, err := svc.RejectSlot(context.Background(), "u1", 10, 100)
	if err != nil {
		t.Fatalf("RejectSlot failed: %v", err)
	}
	if !sets.RejectedSlotIDs.Has(100) || sets.AppliedSlotIDs.Has(100) {
		t.Errorf("reject must mirror apply for slot 100: %+v", sets)
	}
}

func TestToggleSave_FlipsBothWays(t *testing.T) {
	svc, _, _ := newService(&fakeUpstream{})
	ctx := context.Background()

	saved, err := svc.ToggleSave(ctx, "u1", 5)
	if err != nil || !saved {
		t.Fatalf("first toggle: expected saved=true, got %v err=%v", saved, err)
	}
	saved, err = svc.ToggleSave(ctx, "u1", 5)
	if err != nil || saved {
		t.Fatalf("second toggle: expected saved=false, got %v err=%v", saved, err)
	}
}

func TestPrune_DropsStaleIDs(t *testing.T) {
	svc, _, _ := newService(&fakeUpstream{})

	seed := models.NewMarkerSets()
	seed.AppliedShiftIDs = models.NewIDSet(1, 2, 3)
	seed.SavedShiftIDs = models.NewIDSet(3)
	seed.AppliedSlotIDs = models.NewIDSet(100, 200)
	if err := svc.SetAuthoritative(context.Background(), "u1", seed); err != nil {
		t.Fatal(err)
	}

	live := models.NewIDSet(2, 4)
	liveSlots := models.NewIDSet(200)
	sets, err := svc.Prune(context.Background(), "u1", live, liveSlots)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	if got := sets.AppliedShiftIDs.Sorted(); len(got) != 1 || got[0] != 2 {
		t.Errorf("expected applied=={2}, got %v", got)
	}
	if len(sets.SavedShiftIDs) != 0 {
		t.Errorf("expected saved set emptied, got %v", sets.SavedShiftIDs.Sorted())
	}
	if got := sets.AppliedSlotIDs.Sorted(); len(got) != 1 || got[0] != 200 {
		t.Errorf("expected applied slots=={200}, got %v", got)
	}

	// Pruned result is persisted and survives re-hydration.
	again, _ := svc.Get(context.Background(), "u1")
	if again.AppliedShiftIDs.Has(1) || again.AppliedShiftIDs.Has(3) {
		t.Error("stale IDs resurfaced after prune")
	}
}
