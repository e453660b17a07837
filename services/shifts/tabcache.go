package shifts

import (
	"sync"

	"locumly/models"
)

// TabData is one cached candidate tab: the raw records fetched for a
// (shift, tier) pair. Slot filtering happens at render time, so one entry
// serves every slot tab at that tier.
type TabData struct {
	Members   []models.ShiftMemberStatus
	Interests []models.ShiftInterest
}

// TabCache holds candidate tab data as a two-level map, shift ID on the
// outside and tier on the inside. Entries are only ever replaced whole;
// interleaved loads for different tiers land in independent entries and the
// last write for the same tier wins.
type TabCache struct {
	mu      sync.RWMutex
	entries map[int64]map[models.VisibilityLevel]*TabData
}

func NewTabCache() *TabCache {
	return &TabCache{entries: make(map[int64]map[models.VisibilityLevel]*TabData)}
}

// Get returns the cached tab for a (shift, tier) pair, or nil.
func (c *TabCache) Get(shiftID int64, level models.VisibilityLevel) *TabData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if tiers, ok := c.entries[shiftID]; ok {
		return tiers[level]
	}
	return nil
}

// Put replaces the tab entry for a (shift, tier) pair.
func (c *TabCache) Put(shiftID int64, level models.VisibilityLevel, data *TabData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tiers, ok := c.entries[shiftID]
	if !ok {
		tiers = make(map[models.VisibilityLevel]*TabData)
		c.entries[shiftID] = tiers
	}
	tiers[level] = data
}

// Drop removes every cached tab for a shift.
func (c *TabCache) Drop(shiftID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, shiftID)
}

// PropagateReveal marks the interest revealed in every cached tab that
// references it, not just the tab the reveal action came from. Entries are
// rebuilt rather than edited in place so concurrent readers never observe a
// half-applied reveal.
func (c *TabCache) PropagateReveal(shiftID, interestID int64, user models.UserSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tiers, ok := c.entries[shiftID]
	if !ok {
		return
	}
	for level, data := range tiers {
		touched := false
		for _, in := range data.Interests {
			if in.ID == interestID {
				touched = true
				break
			}
		}
		if !touched {
			continue
		}
		next := &TabData{Members: data.Members, Interests: make([]models.ShiftInterest, len(data.Interests))}
		copy(next.Interests, data.Interests)
		for i := range next.Interests {
			if next.Interests[i].ID == interestID {
				u := user
				next.Interests[i].Revealed = true
				next.Interests[i].User = &u
				if next.Interests[i].UserID == nil {
					id := user.ID
					next.Interests[i].UserID = &id
				}
			}
		}
		tiers[level] = next
	}
}

// OfferCache holds counter-offers per shift. Presence of the key records
// that a load happened, so "loaded empty" is distinguishable from "never
// loaded".
type OfferCache struct {
	mu      sync.RWMutex
	entries map[int64][]models.CounterOffer
}

func NewOfferCache() *OfferCache {
	return &OfferCache{entries: make(map[int64][]models.CounterOffer)}
}

// Get returns the cached offers and whether the shift was ever loaded.
func (c *OfferCache) Get(shiftID int64) ([]models.CounterOffer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	offers, ok := c.entries[shiftID]
	return offers, ok
}

// Put replaces the offer list for a shift, marking it loaded even if empty.
func (c *OfferCache) Put(shiftID int64, offers []models.CounterOffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if offers == nil {
		offers = []models.CounterOffer{}
	}
	c.entries[shiftID] = offers
}

// Drop forgets a shift's offers entirely.
func (c *OfferCache) Drop(shiftID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, shiftID)
}
