// Package escalation defines the shift visibility tier ladder and the rules
// for moving a shift along it. Tiers only ever advance; a posting escalates
// from its narrow employment pool out to the whole platform.
package escalation

import "locumly/models"

// Ladder is the fixed tier ordering, lowest reach first.
var Ladder = []models.VisibilityLevel{
	models.VisibilityFullPartTime,
	models.VisibilityLocumCasual,
	models.VisibilityOwnerChain,
	models.VisibilityOrgChain,
	models.VisibilityPlatform,
}

// Ordinal returns a tier's position on the ladder, or -1 for an unknown tier.
func Ordinal(level models.VisibilityLevel) int {
	for i, l := range Ladder {
		if l == level {
			return i
		}
	}
	return -1
}

// CurrentTier derives a shift's tier from its visibility, defaulting to the
// lowest tier when the field is absent or unrecognized.
func CurrentTier(shift *models.Shift) models.VisibilityLevel {
	if Ordinal(shift.Visibility) >= 0 {
		return shift.Visibility
	}
	return Ladder[0]
}

// ViewableTiers returns every tier at or below the current one. A poster can
// review candidates at any tier already reached, never beyond.
func ViewableTiers(current models.VisibilityLevel) []models.VisibilityLevel {
	ord := Ordinal(current)
	if ord < 0 {
		ord = 0
	}
	out := make([]models.VisibilityLevel, ord+1)
	copy(out, Ladder[:ord+1])
	return out
}

// allowed reports whether a tier is permitted by the poster's allowed subset.
// An empty subset means every tier is allowed.
func allowed(level models.VisibilityLevel, allowedLevels []models.VisibilityLevel) bool {
	if len(allowedLevels) == 0 {
		return true
	}
	for _, l := range allowedLevels {
		if l == level {
			return true
		}
	}
	return false
}

// LegalNextTier returns the next tier up the ladder if the allowed subset
// permits it, or "" when the shift can escalate no further.
func LegalNextTier(current models.VisibilityLevel, allowedLevels []models.VisibilityLevel) models.VisibilityLevel {
	ord := Ordinal(current)
	if ord < 0 {
		ord = 0
	}
	for i := ord + 1; i < len(Ladder); i++ {
		if allowed(Ladder[i], allowedLevels) {
			return Ladder[i]
		}
	}
	return ""
}

// ValidateEscalation checks that target is a strictly-forward move permitted
// by the shift's allowed subset. The caller sends nothing upstream on error.
func ValidateEscalation(shift *models.Shift, target models.VisibilityLevel) error {
	cur := CurrentTier(shift)
	targetOrd := Ordinal(target)
	if targetOrd < 0 {
		return NewIllegalTransitionError(cur, target, "unknown visibility level")
	}
	if targetOrd <= Ordinal(cur) {
		return NewIllegalTransitionError(cur, target, "visibility can only move forward")
	}
	if !allowed(target, shift.AllowedLevels) {
		return NewIllegalTransitionError(cur, target, "level is not in the shift's allowed set")
	}
	return nil
}

// Selection is the outcome of a tier preview selection.
type Selection struct {
	Level    models.VisibilityLevel `json:"level"`
	Switched bool                   `json:"switched"`
	Warning  string                 `json:"warning,omitempty"`
}

// SelectTier decides whether a poster may preview candidates at the given
// tier. Any tier at or below the current one switches immediately; one tier
// ahead is a legal preview; anything beyond returns a warning and keeps the
// active tab unchanged.
func SelectTier(shift *models.Shift, level models.VisibilityLevel) Selection {
	cur := CurrentTier(shift)
	ord := Ordinal(level)
	if ord < 0 {
		return Selection{Level: cur, Warning: "unknown visibility level"}
	}
	if ord <= Ordinal(cur) {
		return Selection{Level: level, Switched: true}
	}
	if ord == Ordinal(cur)+1 && allowed(level, shift.AllowedLevels) {
		return Selection{Level: level, Switched: true}
	}
	return Selection{
		Level:   cur,
		Warning: "Escalate your shift to this level to review its members",
	}
}
