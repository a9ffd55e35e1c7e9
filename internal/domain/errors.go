package domain

import (
	"errors"
	"fmt"
)

// Planning error kinds. Match with errors.Is against a *PlanningError.
var (
	ErrInvalidParameter         = errors.New("invalid parameter")
	ErrInsufficientNodes        = errors.New("insufficient nodes")
	ErrUnorderedNodes           = errors.New("unordered nodes")
	ErrUnreachableSegment       = errors.New("unreachable segment")
	ErrNoReachableNode          = errors.New("no reachable node")
	ErrPurchaseAtNonPurchasable = errors.New("required purchase at non-purchasable node")
	ErrNegativeFuelBalance      = errors.New("negative fuel balance")
)

// PlanningError is a deterministic domain validation failure raised by the
// fuel planner. Kind is one of the Err* sentinels above.
type PlanningError struct {
	Kind    error
	Message string
}

func (e *PlanningError) Error() string {
	return e.Message
}

func (e *PlanningError) Unwrap() error {
	return e.Kind
}

func NewPlanningError(kind error, format string, args ...any) *PlanningError {
	return &PlanningError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsPlanningError reports whether err carries a *PlanningError.
func IsPlanningError(err error) bool {
	var pe *PlanningError
	return errors.As(err, &pe)
}

// Collaborator failures surfaced to clients.
var (
	ErrLocationNotFound = errors.New("location not found")
	ErrRouteUnavailable = errors.New("route unavailable")
)

// UpstreamError reports an HTTP or network failure of an external service.
type UpstreamError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: upstream status %d: %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
