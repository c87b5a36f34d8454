package leads

import "github.com/wolfman30/parto-platform/internal/apperr"

var (
	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = apperr.New(apperr.KindNotFound, "LEAD_NOT_FOUND", "lead not found")

	// ErrInvalidTransition is returned when a state change would regress a lead
	// or leave a terminal state.
	ErrInvalidTransition = apperr.New(apperr.KindInvalidTransition, "INVALID_TRANSITION", "lead cannot move to the requested state")
)
