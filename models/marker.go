package models

import "sort"

// IDSet is a set of shift or slot IDs.
type IDSet map[int64]struct{}

// NewIDSet builds a set from the given IDs.
func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(id int64)    { s[id] = struct{}{} }
func (s IDSet) Remove(id int64) { delete(s, id) }

// Sorted returns the set's IDs in ascending order. An empty set returns nil
// so that persistence layers can distinguish "nothing to store".
func (s IDSet) Sorted() []int64 {
	if len(s) == 0 {
		return nil
	}
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Intersect keeps only IDs present in live, returning true if anything was dropped.
func (s IDSet) Intersect(live IDSet) bool {
	changed := false
	for id := range s {
		if !live.Has(id) {
			delete(s, id)
			changed = true
		}
	}
	return changed
}

// Clone returns an independent copy of the set.
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// MarkerSets is a user's client-local cache of applied/rejected/saved shift
// and slot IDs, reconciled against authoritative server state.
type MarkerSets struct {
	AppliedShiftIDs  IDSet `json:"appliedShiftIds"`
	AppliedSlotIDs   IDSet `json:"appliedSlotIds"`
	RejectedShiftIDs IDSet `json:"rejectedShiftIds"`
	RejectedSlotIDs  IDSet `json:"rejectedSlotIds"`
	SavedShiftIDs    IDSet `json:"savedShiftIds"`
}

// NewMarkerSets returns empty, non-nil marker sets.
func NewMarkerSets() *MarkerSets {
	return &MarkerSets{
		AppliedShiftIDs:  IDSet{},
		AppliedSlotIDs:   IDSet{},
		RejectedShiftIDs: IDSet{},
		RejectedSlotIDs:  IDSet{},
		SavedShiftIDs:    IDSet{},
	}
}

// Clone returns an independent copy of all five sets.
func (m *MarkerSets) Clone() *MarkerSets {
	return &MarkerSets{
		AppliedShiftIDs:  m.AppliedShiftIDs.Clone(),
		AppliedSlotIDs:   m.AppliedSlotIDs.Clone(),
		RejectedShiftIDs: m.RejectedShiftIDs.Clone(),
		RejectedSlotIDs:  m.RejectedSlotIDs.Clone(),
		SavedShiftIDs:    m.SavedShiftIDs.Clone(),
	}
}
