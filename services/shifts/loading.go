package shifts

import (
	"fmt"
	"sync"
)

// ActionGuard serializes actions by key. Each user-facing action carries a
// key scoped to its target, so deleting shift 3 never blocks escalating
// shift 4, while a double-tap on the same button is refused.
type ActionGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewActionGuard() *ActionGuard {
	return &ActionGuard{inflight: make(map[string]struct{})}
}

// Begin claims the key. It returns false when the same key is already held.
func (g *ActionGuard) Begin(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.inflight[key]; ok {
		return false
	}
	g.inflight[key] = struct{}{}
	return true
}

// End releases the key. Callers defer this immediately after a successful
// Begin so the key clears on every path, success or failure.
func (g *ActionGuard) End(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, key)
}

// Held reports whether the key is currently claimed.
func (g *ActionGuard) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.inflight[key]
	return ok
}

func deleteKey(shiftID int64) string          { return fmt.Sprintf("delete_%d", shiftID) }
func escalateKey(shiftID int64) string        { return fmt.Sprintf("escalate_%d", shiftID) }
func acceptKey(shiftID, userID int64) string  { return fmt.Sprintf("accept_%d_%d", shiftID, userID) }
func rejectKey(shiftID, offerID int64) string { return fmt.Sprintf("reject_%d_%d", shiftID, offerID) }
func revealKey(shiftID, intID int64) string   { return fmt.Sprintf("reveal_%d_%d", shiftID, intID) }
func shareKey(shiftID int64) string           { return fmt.Sprintf("share_%d", shiftID) }
