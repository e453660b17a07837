package escalation

import (
	"fmt"

	"locumly/models"
)

// IllegalTransitionError reports an escalation attempt that is not a
// strictly-forward move within the shift's allowed levels.
type IllegalTransitionError struct {
	From   models.VisibilityLevel
	To     models.VisibilityLevel
	Reason string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal escalation %s -> %s: %s", e.From, e.To, e.Reason)
}

func NewIllegalTransitionError(from, to models.VisibilityLevel, reason string) error {
	return &IllegalTransitionError{From: from, To: to, Reason: reason}
}
