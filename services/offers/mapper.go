// Package offers resolves a counter-offer's proposed slot entries against a
// shift's canonical slot list, so proposed-rate rows render consistently no
// matter how sparse the offer arrived.
package offers

import "locumly/models"

// MappedSlot is one resolved proposed-rate row.
type MappedSlot struct {
	SlotID        *int64  `json:"slotId,omitempty"`
	Date          string  `json:"date,omitempty"`
	ProposedStart string  `json:"proposedStartTime,omitempty"`
	ProposedEnd   string  `json:"proposedEndTime,omitempty"`
	ProposedRate  float64 `json:"proposedRate"`
}

// canonicalSlot finds the shift slot referenced by id, or nil.
func canonicalSlot(shift *models.Shift, id *int64) *models.Slot {
	if id == nil {
		return nil
	}
	for i := range shift.Slots {
		if shift.Slots[i].ID == *id {
			return &shift.Slots[i]
		}
	}
	return nil
}

// shiftLevelDate is the fallback date for entries without one of their own.
func shiftLevelDate(shift *models.Shift) string {
	if len(shift.Slots) > 0 {
		return shift.Slots[0].Date
	}
	return ""
}

// mapEntry resolves one offer slot entry field by field: the offer's own
// values win, then the matched canonical slot, then the shift level.
func mapEntry(shift *models.Shift, entry models.OfferSlot) MappedSlot {
	out := MappedSlot{
		SlotID:        entry.SlotID,
		Date:          entry.Date,
		ProposedStart: entry.ProposedStart,
		ProposedEnd:   entry.ProposedEnd,
		ProposedRate:  entry.ProposedRate,
	}
	if canonical := canonicalSlot(shift, entry.SlotID); canonical != nil {
		if out.Date == "" {
			out.Date = canonical.Date
		}
		if out.ProposedStart == "" {
			out.ProposedStart = canonical.StartTime
		}
		if out.ProposedEnd == "" {
			out.ProposedEnd = canonical.EndTime
		}
	}
	if out.Date == "" {
		out.Date = shiftLevelDate(shift)
	}
	return out
}

// MapOfferSlots maps a counter-offer's slot entries onto the shift.
//
// Single-user shifts map entries one-to-one, or synthesize a single
// shift-level row from the offer's top-level fields when it carries none.
// Multi-slot shifts filter to entries matching filterSlotID when any match;
// when none do, every entry is shown. Ambiguity resolves toward showing
// more, never hiding a non-empty offer.
func MapOfferSlots(shift *models.Shift, offer *models.CounterOffer, filterSlotID *int64) []MappedSlot {
	if shift.SingleUserOnly {
		if len(offer.Slots) == 0 {
			return []MappedSlot{{
				Date:          shiftLevelDate(shift),
				ProposedStart: offer.ProposedStart,
				ProposedEnd:   offer.ProposedEnd,
				ProposedRate:  offer.ProposedRate,
			}}
		}
		out := make([]MappedSlot, 0, len(offer.Slots))
		for _, entry := range offer.Slots {
			out = append(out, mapEntry(shift, entry))
		}
		return out
	}

	if len(offer.Slots) == 0 {
		return nil
	}

	var matched []MappedSlot
	if filterSlotID != nil {
		for _, entry := range offer.Slots {
			if entry.SlotID != nil && *entry.SlotID == *filterSlotID {
				matched = append(matched, mapEntry(shift, entry))
			}
		}
	}
	if len(matched) > 0 {
		return matched
	}

	out := make([]MappedSlot, 0, len(offer.Slots))
	for _, entry := range offer.Slots {
		out = append(out, mapEntry(shift, entry))
	}
	return out
}
