package markers

import (
	"context"
	"encoding/json"
	"fmt"

	"locumly/models"

	"github.com/go-redis/redis/v8"
)

// Store is the fast persistence layer for marker sets. Absence of a key
// means "empty set", never "unknown".
type Store interface {
	// Load returns the user's marker sets and whether any were stored.
	Load(ctx context.Context, userID string) (*models.MarkerSets, bool, error)
	// Save persists the sets. An empty set removes its key entirely rather
	// than writing an empty array.
	Save(ctx context.Context, userID string, sets *models.MarkerSets) error
}

// RedisStore keeps each marker set under its own scoped key as a JSON array
// of integer IDs.
type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client}
}

const (
	keyAppliedShifts  = "applied-shift-ids"
	keyAppliedSlots   = "applied-slot-ids"
	keyRejectedShifts = "rejected-shift-ids"
	keyRejectedSlots  = "rejected-slot-ids"
	keySavedShifts    = "saved-shift-ids"
)

func markerKey(userID, set string) string {
	return "markers:" + userID + ":" + set
}

func (s *RedisStore) loadSet(ctx context.Context, userID, name string) (models.IDSet, bool, error) {
	raw, err := s.Client.Get(ctx, markerKey(userID, name)).Result()
	if err == redis.Nil {
		return models.IDSet{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("markers: load %s: %w", name, err)
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, false, fmt.Errorf("markers: decode %s: %w", name, err)
	}
	return models.NewIDSet(ids...), true, nil
}

func (s *RedisStore) Load(ctx context.Context, userID string) (*models.MarkerSets, bool, error) {
	sets := models.NewMarkerSets()
	found := false
	for _, entry := range []struct {
		name string
		dst  *models.IDSet
	}{
		{keyAppliedShifts, &sets.AppliedShiftIDs},
		{keyAppliedSlots, &sets.AppliedSlotIDs},
		{keyRejectedShifts, &sets.RejectedShiftIDs},
		{keyRejectedSlots, &sets.RejectedSlotIDs},
		{keySavedShifts, &sets.SavedShiftIDs},
	} {
		set, ok, err := s.loadSet(ctx, userID, entry.name)
		if err != nil {
			return nil, false, err
		}
		*entry.dst = set
		found = found || ok
	}
	return sets, found, nil
}

func (s *RedisStore) saveSet(ctx context.Context, userID, name string, set models.IDSet) error {
	key := markerKey(userID, name)
	ids := set.Sorted()
	if len(ids) == 0 {
		// Remove the key instead of storing "[]" to avoid storage bloat.
		if err := s.Client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("markers: clear %s: %w", name, err)
		}
		return nil
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("markers: encode %s: %w", name, err)
	}
	if err := s.Client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("markers: save %s: %w", name, err)
	}
	return nil
}

func (s *RedisStore) Save(ctx context.Context, userID string, sets *models.MarkerSets) error {
	for _, entry := range []struct {
		name string
		set  models.IDSet
	}{
		{keyAppliedShifts, sets.AppliedShiftIDs},
		{keyAppliedSlots, sets.AppliedSlotIDs},
		{keyRejectedShifts, sets.RejectedShiftIDs},
		{keyRejectedSlots, sets.RejectedSlotIDs},
		{keySavedShifts, sets.SavedShiftIDs},
	} {
		if err := s.saveSet(ctx, userID, entry.name, entry.set); err != nil {
			return err
		}
	}
	return nil
}
