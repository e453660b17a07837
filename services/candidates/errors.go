package candidates

import "fmt"

// RevealError reports a reveal attempted on an interest that cannot be
// resolved to a worker.
type RevealError struct {
	InterestID int64
	Reason     string
}

func (e *RevealError) Error() string {
	return fmt.Sprintf("cannot reveal interest %d: %s", e.InterestID, e.Reason)
}

func NewRevealError(interestID int64, reason string) error {
	return &RevealError{InterestID: interestID, Reason: reason}
}
