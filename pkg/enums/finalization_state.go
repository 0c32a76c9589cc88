package enums

import "fmt"

// FinalizationState tracks whether a checkout has been converted into an order.
type FinalizationState string

const (
	FinalizationStateOpen      FinalizationState = "open"
	FinalizationStateFinalized FinalizationState = "finalized"
)

var validFinalizationStates = []FinalizationState{
	FinalizationStateOpen,
	FinalizationStateFinalized,
}

// String implements fmt.Stringer.
func (f FinalizationState) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FinalizationState.
func (f FinalizationState) IsValid() bool {
	for _, candidate := range validFinalizationStates {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFinalizationState converts raw input into a FinalizationState.
func ParseFinalizationState(value string) (FinalizationState, error) {
	for _, candidate := range validFinalizationStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid finalization state %q", value)
}
