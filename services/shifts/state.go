package shifts

import (
	"sync"

	"locumly/models"
)

// workingState is the orchestrator's in-memory view of the last shift-list
// fetch plus per-shift selected-tier overrides. A selected tier is a preview
// only; clearing the override makes the view re-derive from the confirmed
// server tier.
type workingState struct {
	mu       sync.RWMutex
	byID     map[int64]models.Shift
	selected map[int64]models.VisibilityLevel
}

func newWorkingState() workingState {
	return workingState{
		byID:     make(map[int64]models.Shift),
		selected: make(map[int64]models.VisibilityLevel),
	}
}

// replaceAll swaps in the fresh listing and returns the IDs of shifts that
// vanished from it, so per-shift caches can be dropped alongside the
// overrides.
func (s *workingState) replaceAll(shifts []models.Shift) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[int64]models.Shift, len(shifts))
	for _, sh := range shifts {
		next[sh.ID] = sh
	}

	var vanished []int64
	for id := range s.byID {
		if _, ok := next[id]; !ok {
			vanished = append(vanished, id)
		}
	}
	s.byID = next
	// Overrides for shifts that vanished from the list die with them.
	for id := range s.selected {
		if _, ok := next[id]; !ok {
			delete(s.selected, id)
		}
	}
	return vanished
}

func (s *workingState) get(shiftID int64) (models.Shift, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.byID[shiftID]
	return sh, ok
}

func (s *workingState) put(shift models.Shift) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[shift.ID] = shift
}

func (s *workingState) remove(shiftID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, shiftID)
	delete(s.selected, shiftID)
}

func (s *workingState) setSelected(shiftID int64, level models.VisibilityLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected[shiftID] = level
}

func (s *workingState) clearSelected(shiftID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selected, shiftID)
}

func (s *workingState) selectedLevel(shiftID int64) (models.VisibilityLevel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	level, ok := s.selected[shiftID]
	return level, ok
}
