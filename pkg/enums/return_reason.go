package enums

import "fmt"

// ReturnReason is the fixed list of reasons a customer may select.
type ReturnReason string

const (
	ReturnReasonDamaged      ReturnReason = "Damaged"
	ReturnReasonWrongSize    ReturnReason = "Wrong Size"
	ReturnReasonWrongProduct ReturnReason = "Wrong Product"
	ReturnReasonQualityIssue ReturnReason = "Quality Issue"
	ReturnReasonOther        ReturnReason = "Other"
)

var validReturnReasons = []ReturnReason{
	ReturnReasonDamaged,
	ReturnReasonWrongSize,
	ReturnReasonWrongProduct,
	ReturnReasonQualityIssue,
	ReturnReasonOther,
}

// IsValid reports whether the value is a known ReturnReason.
func (r ReturnReason) IsValid() bool {
	for _, candidate := range validReturnReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReturnReason converts raw input into a ReturnReason.
func ParseReturnReason(value string) (ReturnReason, error) {
	for _, candidate := range validReturnReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return reason %q", value)
}
