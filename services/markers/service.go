package markers

import (
	"context"
	"fmt"

	"locumly/models"
	"locumly/utils"

	"go.uber.org/zap"
)

func (s *DefaultMarkerService) hydrate(ctx context.Context, userID string) (*models.MarkerSets, error) {
	sets, found, err := s.Cache.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if found {
		return sets, nil
	}

	// Cache miss: fall back to the durable repository and warm the cache.
	if s.Repo != nil {
		stored, err := s.Repo.Get(userID)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			if err := s.Cache.Save(ctx, userID, stored); err != nil {
				utils.GetLogger().Warn("markers: failed to warm cache", zap.String("userID", userID), zap.Error(err))
			}
			return stored, nil
		}
	}
	return models.NewMarkerSets(), nil
}

func (s *DefaultMarkerService) persist(ctx context.Context, userID string, sets *models.MarkerSets) error {
	if err := s.Cache.Save(ctx, userID, sets); err != nil {
		return err
	}
	if s.Repo != nil {
		if err := s.Repo.Upsert(userID, sets); err != nil {
			return fmt.Errorf("markers: durable persist: %w", err)
		}
	}
	return nil
}

func (s *DefaultMarkerService) Get(ctx context.Context, userID string) (*models.MarkerSets, error) {
	return s.hydrate(ctx, userID)
}

func (s *DefaultMarkerService) SetAuthoritative(ctx context.Context, userID string, sets *models.MarkerSets) error {
	// Server-sourced sets win outright; nothing local merges back in.
	return s.persist(ctx, userID, sets)
}

// mutate runs the remote call first; only a confirmed success touches the
// stored sets. A failed call leaves every set exactly as it was.
func (s *DefaultMarkerService) mutate(ctx context.Context, userID string, remote func() error, apply func(*models.MarkerSets)) (*models.MarkerSets, error) {
	if err := remote(); err != nil {
		return nil, err
	}
	sets, err := s.hydrate(ctx, userID)
	if err != nil {
		return nil, err
	}
	apply(sets)
	if err := s.persist(ctx, userID, sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (s *DefaultMarkerService) ApplyShift(ctx context.Context, userID string, shiftID int64) (*models.MarkerSets, error) {
	return s.mutate(ctx, userID,
		func() error { return s.Upstream.ApplyToShift(ctx, shiftID, nil) },
		func(sets *models.MarkerSets) {
			sets.AppliedShiftIDs.Add(shiftID)
			sets.RejectedShiftIDs.Remove(shiftID)
		})
}

func (s *DefaultMarkerService) ApplySlot(ctx context.Context, userID string, shiftID, slotID int64) (*models.MarkerSets, error) {
	return s.mutate(ctx, userID,
		func() error { return s.Upstream.ApplyToShift(ctx, shiftID, &slotID) },
		func(sets *models.MarkerSets) {
			sets.AppliedSlotIDs.Add(slotID)
			sets.RejectedSlotIDs.Remove(slotID)
		})
}

func (s *DefaultMarkerService) RejectShift(ctx context.Context, userID string, shiftID int64) (*models.MarkerSets, error) {
	return s.mutate(ctx, userID,
		func() error { return s.Upstream.DeclineShift(ctx, shiftID, nil) },
		func(sets *models.MarkerSets) {
			sets.RejectedShiftIDs.Add(shiftID)
			sets.AppliedShiftIDs.Remove(shiftID)
		})
}

func (s *DefaultMarkerService) RejectSlot(ctx context.Context, userID string, shiftID, slotID int64) (*models.MarkerSets, error) {
	return s.mutate(ctx, userID,
		func() error { return s.Upstream.DeclineShift(ctx, shiftID, &slotID) },
		func(sets *models.MarkerSets) {
			sets.RejectedSlotIDs.Add(slotID)
			sets.AppliedSlotIDs.Remove(slotID)
		})
}

func (s *DefaultMarkerService) ToggleSave(ctx context.Context, userID string, shiftID int64) (bool, error) {
	sets, err := s.hydrate(ctx, userID)
	if err != nil {
		return false, err
	}
	saving := !sets.SavedShiftIDs.Has(shiftID)

	updated, err := s.mutate(ctx, userID,
		func() error { return s.Upstream.SaveShift(ctx, shiftID, saving) },
		func(sets *models.MarkerSets) {
			if saving {
				sets.SavedShiftIDs.Add(shiftID)
			} else {
				sets.SavedShiftIDs.Remove(shiftID)
			}
		})
	if err != nil {
		return false, err
	}
	return updated.SavedShiftIDs.Has(shiftID), nil
}

func (s *DefaultMarkerService) Prune(ctx context.Context, userID string, liveShiftIDs, liveSlotIDs models.IDSet) (*models.MarkerSets, error) {
	sets, err := s.hydrate(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed := sets.AppliedShiftIDs.Intersect(liveShiftIDs)
	changed = sets.RejectedShiftIDs.Intersect(liveShiftIDs) || changed
	changed = sets.SavedShiftIDs.Intersect(liveShiftIDs) || changed
	changed = sets.AppliedSlotIDs.Intersect(liveSlotIDs) || changed
	changed = sets.RejectedSlotIDs.Intersect(liveSlotIDs) || changed

	if !changed {
		return sets, nil
	}
	if err := s.persist(ctx, userID, sets); err != nil {
		return nil, err
	}
	return sets, nil
}
