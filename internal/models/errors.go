package models

import "fmt"

// InputError marks a malformed order record. It aborts the run and names the
// offending record so callers can repair their snapshot.
type InputError struct {
	OrderID string
	Reason  string
}

func (e *InputError) Error() string {
	if e.OrderID == "" {
		return fmt.Sprintf("invalid order: %s", e.Reason)
	}
	return fmt.Sprintf("invalid order %s: %s", e.OrderID, e.Reason)
}

// ComputationError marks a violated internal invariant, e.g. cluster
// percentages failing to sum to ~100. It indicates a logic defect rather than
// bad input and is never retried.
type ComputationError struct {
	Stage  string
	Reason string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation error in %s: %s", e.Stage, e.Reason)
}
