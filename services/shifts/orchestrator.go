package shifts

import (
	"context"

	"locumly/models"
	"locumly/services/candidates"
	"locumly/services/escalation"
	"locumly/services/offers"
	"locumly/upstream"
	"locumly/utils"

	"go.uber.org/zap"
)

// ListShifts fetches the poster's shifts and reconciles everything hanging
// off the list: the working state, the user's live-ID snapshot, and the
// marker sets pruned against it. Snapshot or prune failures are reported
// independently and never fail the listing itself.
func (s *DefaultShiftService) ListShifts(ctx context.Context, userID string, filters upstream.ShiftFilters) ([]models.Shift, *models.MarkerSets, error) {
	shifts, err := s.Upstream.ListShifts(ctx, filters)
	if err != nil {
		return nil, nil, err
	}
	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}
	for _, id := range s.state.replaceAll(shifts) {
		// Candidate and offer data for deleted-elsewhere shifts would
		// otherwise sit stale in the caches forever.
		s.tabs.Drop(id)
		s.offers.Drop(id)
	}

	liveShiftIDs := models.IDSet{}
	liveSlotIDs := models.IDSet{}
	for _, sh := range shifts {
		liveShiftIDs.Add(sh.ID)
		for _, slot := range sh.Slots {
			liveSlotIDs.Add(slot.ID)
		}
	}

	if s.Snapshots != nil {
		if err := s.Snapshots.Save(userID, liveShiftIDs.Sorted(), liveSlotIDs.Sorted()); err != nil {
			utils.GetLogger().Warn("shifts: snapshot save failed", zap.String("userID", userID), zap.Error(err))
		}
	}

	var sets *models.MarkerSets
	if s.Markers != nil {
		sets, err = s.Markers.Prune(ctx, userID, liveShiftIDs, liveSlotIDs)
		if err != nil {
			utils.GetLogger().Warn("shifts: marker prune failed", zap.String("userID", userID), zap.Error(err))
			sets = nil
			if s.Sweeps != nil {
				if err := s.Sweeps.EnqueueMarkerSweep(userID); err != nil {
					utils.GetLogger().Warn("shifts: sweep enqueue failed", zap.String("userID", userID), zap.Error(err))
				}
			}
		}
	}
	return shifts, sets, nil
}

func (s *DefaultShiftService) getShift(shiftID int64) (models.Shift, error) {
	sh, ok := s.state.get(shiftID)
	if !ok {
		return models.Shift{}, ErrShiftNotFound
	}
	return sh, nil
}

// SelectLevel previews a tier. A legal selection records a local override so
// subsequent candidate fetches target the previewed tier; an illegal one
// returns the escalate-to-review warning and changes nothing.
func (s *DefaultShiftService) SelectLevel(ctx context.Context, shiftID int64, level models.VisibilityLevel) (escalation.Selection, error) {
	shift, err := s.getShift(shiftID)
	if err != nil {
		return escalation.Selection{}, err
	}
	sel := escalation.SelectTier(&shift, level)
	if sel.Switched {
		s.state.setSelected(shiftID, sel.Level)
	}
	return sel, nil
}

// Escalate advances a shift's visibility. The local tier override is cleared
// before the confirmed shift replaces the working copy, so the view always
// re-derives from server state and a failed follow-up reload cannot leave a
// stale override behind.
func (s *DefaultShiftService) Escalate(ctx context.Context, shiftID int64, target models.VisibilityLevel) (*models.Shift, error) {
	key := escalateKey(shiftID)
	if !s.guard.Begin(key) {
		return nil, ErrActionInFlight
	}
	defer s.guard.End(key)

	shift, err := s.getShift(shiftID)
	if err != nil {
		return nil, err
	}
	if err := escalation.ValidateEscalation(&shift, target); err != nil {
		return nil, err
	}

	confirmed, err := s.Upstream.Escalate(ctx, shiftID, target)
	if err != nil {
		return nil, err
	}
	s.state.clearSelected(shiftID)
	s.state.put(*confirmed)
	return confirmed, nil
}

// ensureOffers loads a shift's counter-offers exactly once. Key presence in
// the cache records the load, so an empty offer list is never re-fetched.
func (s *DefaultShiftService) ensureOffers(ctx context.Context, shiftID int64) ([]models.CounterOffer, error) {
	if cached, ok := s.offers.Get(shiftID); ok {
		return cached, nil
	}
	fetched, err := s.Upstream.GetCounterOffers(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s.offers.Put(shiftID, fetched)
	cached, _ := s.offers.Get(shiftID)
	return cached, nil
}

// Offers exposes the lazily-loaded counter-offers for a shift.
func (s *DefaultShiftService) Offers(ctx context.Context, shiftID int64) ([]models.CounterOffer, error) {
	if _, err := s.getShift(shiftID); err != nil {
		return nil, err
	}
	return s.ensureOffers(ctx, shiftID)
}

func (s *DefaultShiftService) loadTab(ctx context.Context, shift models.Shift, level models.VisibilityLevel) (*TabData, error) {
	if cached := s.tabs.Get(shift.ID, level); cached != nil {
		return cached, nil
	}

	data := &TabData{}
	var err error
	if level == models.VisibilityPlatform {
		data.Interests, err = s.Upstream.GetInterests(ctx, shift.ID)
	} else {
		data.Members, err = s.Upstream.GetMembers(ctx, shift.ID, level, nil)
	}
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s.tabs.Put(shift.ID, level, data)
	return data, nil
}

// Candidates returns the reconciled view for one tier tab. The tier must be
// reached already or be the shift's active preview selection.
func (s *DefaultShiftService) Candidates(ctx context.Context, shiftID int64, level models.VisibilityLevel, slotID *int64) (*CandidateView, error) {
	shift, err := s.getShift(shiftID)
	if err != nil {
		return nil, err
	}

	current := escalation.CurrentTier(&shift)
	viewable := escalation.Ordinal(level) <= escalation.Ordinal(current)
	if !viewable {
		if selected, ok := s.state.selectedLevel(shiftID); ok && selected == level {
			viewable = true
		}
	}
	if !viewable {
		return nil, &TierNotReachedError{ShiftID: shiftID, Level: level}
	}

	tab, err := s.loadTab(ctx, shift, level)
	if err != nil {
		return nil, err
	}

	view := &CandidateView{Level: level, Tiers: escalation.ViewableTiers(current)}
	if level == models.VisibilityPlatform {
		offerList, err := s.ensureOffers(ctx, shiftID)
		if err != nil {
			return nil, err
		}
		public := candidates.BuildPublicView(&shift, tab.Interests, offerList, slotID)
		view.Public = &public
	} else {
		view.Members = candidates.MembersForSlot(&shift, tab.Members, slotID)
	}
	return view, nil
}

func (s *DefaultShiftService) findInterest(ctx context.Context, shift models.Shift, interestID int64) (*models.ShiftInterest, error) {
	tab, err := s.loadTab(ctx, shift, models.VisibilityPlatform)
	if err != nil {
		return nil, err
	}
	for i := range tab.Interests {
		if tab.Interests[i].ID == interestID {
			in := tab.Interests[i]
			return &in, nil
		}
	}
	return nil, ErrInterestNotFound
}

// Reveal discloses an interest's identity. The reveal is confirmed upstream
// before any cached tab renders the name, and once confirmed it propagates
// to every cached tab holding the same interest. A follow-up offer-cache
// update failing does not roll the reveal back.
func (s *DefaultShiftService) Reveal(ctx context.Context, shiftID, interestID int64) (*models.ShiftInterest, error) {
	key := revealKey(shiftID, interestID)
	if !s.guard.Begin(key) {
		return nil, ErrActionInFlight
	}
	defer s.guard.End(key)

	shift, err := s.getShift(shiftID)
	if err != nil {
		return nil, err
	}
	interest, err := s.findInterest(ctx, shift, interestID)
	if err != nil {
		return nil, err
	}
	if err := candidates.ValidateReveal(interest); err != nil {
		return nil, err
	}

	user, err := s.Upstream.RevealInterest(ctx, shiftID, *interest.UserID, interest.SlotID)
	if err != nil {
		return nil, err
	}

	s.tabs.PropagateReveal(shiftID, interestID, *user)

	if cached, ok := s.offers.Get(shiftID); ok {
		next := make([]models.CounterOffer, len(cached))
		copy(next, cached)
		candidates.ApplyReveal(interest, *user, next)
		s.offers.Put(shiftID, next)
	} else {
		candidates.ApplyReveal(interest, *user, nil)
	}
	return interest, nil
}

// resolveOfferUser picks the loading-key user component for an offer.
func resolveOfferUser(offer *models.CounterOffer) int64 {
	if offer != nil && offer.UserID != nil {
		return *offer.UserID
	}
	return 0
}

// AcceptOffer assigns a counter-offeror. The slot is resolved through the
// offer's own entries; an unresolvable slot on a slot-requiring shift is
// refused locally without any marketplace call.
func (s *DefaultShiftService) AcceptOffer(ctx context.Context, shiftID, offerID int64, requestedSlotID *int64) error {
	shift, err := s.getShift(shiftID)
	if err != nil {
		return err
	}
	offerList, err := s.ensureOffers(ctx, shiftID)
	if err != nil {
		return err
	}
	var offer *models.CounterOffer
	for i := range offerList {
		if offerList[i].ID == offerID {
			offer = &offerList[i]
			break
		}
	}
	if offer == nil {
		return ErrOfferNotFound
	}

	key := acceptKey(shiftID, resolveOfferUser(offer))
	if !s.guard.Begin(key) {
		return ErrActionInFlight
	}
	defer s.guard.End(key)

	resolved := offers.ResolveAssignmentSlot(&shift, offer, requestedSlotID)
	if resolved.State == offers.Ambiguous {
		return &SlotAmbiguityError{ShiftID: shiftID}
	}

	if err := s.Upstream.AcceptCounterOffer(ctx, shiftID, offerID, resolved.SlotID); err != nil {
		return err
	}
	// Assignment invalidates the shift's candidate caches.
	s.offers.Drop(shiftID)
	s.tabs.Drop(shiftID)
	return nil
}

// AcceptCandidate assigns a candidate directly. If the worker also has a
// counter-offer on file, its slot entries participate in slot resolution.
func (s *DefaultShiftService) AcceptCandidate(ctx context.Context, shiftID, userID int64, slotID *int64) error {
	key := acceptKey(shiftID, userID)
	if !s.guard.Begin(key) {
		return ErrActionInFlight
	}
	defer s.guard.End(key)

	shift, err := s.getShift(shiftID)
	if err != nil {
		return err
	}

	var offer *models.CounterOffer
	if cached, ok := s.offers.Get(shiftID); ok {
		for i := range cached {
			if cached[i].UserID != nil && *cached[i].UserID == userID {
				offer = &cached[i]
				break
			}
		}
	}

	resolved := offers.ResolveAssignmentSlot(&shift, offer, slotID)
	if resolved.State == offers.Ambiguous {
		return &SlotAmbiguityError{ShiftID: shiftID}
	}

	if err := s.Upstream.AcceptCandidate(ctx, shiftID, userID, resolved.SlotID); err != nil {
		return err
	}
	s.offers.Drop(shiftID)
	s.tabs.Drop(shiftID)
	return nil
}

// RejectOffer declines a counter-offer and drops it from the cached list.
func (s *DefaultShiftService) RejectOffer(ctx context.Context, shiftID, offerID int64) error {
	if _, err := s.getShift(shiftID); err != nil {
		return err
	}

	key := rejectKey(shiftID, offerID)
	if !s.guard.Begin(key) {
		return ErrActionInFlight
	}
	defer s.guard.End(key)

	if err := s.Upstream.RejectCounterOffer(ctx, shiftID, offerID); err != nil {
		return err
	}

	if cached, ok := s.offers.Get(shiftID); ok {
		next := make([]models.CounterOffer, 0, len(cached))
		for _, o := range cached {
			if o.ID != offerID {
				next = append(next, o)
			}
		}
		s.offers.Put(shiftID, next)
	}
	return nil
}

// Delete removes a shift. Deletion is irreversible and idempotent to retry,
// so the local list drops the shift as soon as the marketplace confirms.
func (s *DefaultShiftService) Delete(ctx context.Context, shiftID int64) error {
	key := deleteKey(shiftID)
	if !s.guard.Begin(key) {
		return ErrActionInFlight
	}
	defer s.guard.End(key)

	if _, err := s.getShift(shiftID); err != nil {
		return err
	}
	if err := s.Upstream.DeleteShift(ctx, shiftID); err != nil {
		return err
	}
	s.state.remove(shiftID)
	s.tabs.Drop(shiftID)
	s.offers.Drop(shiftID)
	return nil
}

// Share returns a share link. Only platform-tier shifts are shareable; the
// refusal happens here, before any marketplace call.
func (s *DefaultShiftService) Share(ctx context.Context, shiftID int64) (string, error) {
	shift, err := s.getShift(shiftID)
	if err != nil {
		return "", err
	}
	current := escalation.CurrentTier(&shift)
	if current != models.VisibilityPlatform {
		return "", &ShareTierError{ShiftID: shiftID, Tier: current}
	}

	key := shareKey(shiftID)
	if !s.guard.Begin(key) {
		return "", ErrActionInFlight
	}
	defer s.guard.End(key)

	return s.Upstream.ShareLink(ctx, shiftID)
}
