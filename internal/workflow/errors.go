package workflow

import "errors"

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrProductNotFound        = errors.New("product not found")
	ErrInvalidStatusValue     = errors.New("invalid status value")
	ErrTransitionNotPermitted = errors.New("transition not permitted")
	ErrFeedbackRequired       = errors.New("feedback note required")
	ErrConcurrentModification = errors.New("concurrent modification")
)
