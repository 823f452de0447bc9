package enums

import "fmt"

// CommissionStatus tracks a marketer commission from accrual to payout.
type CommissionStatus string

const (
	CommissionStatusPending  CommissionStatus = "PENDING"
	CommissionStatusApproved CommissionStatus = "APPROVED"
	CommissionStatusPaid     CommissionStatus = "PAID"
	CommissionStatusReversed CommissionStatus = "REVERSED"
)

var validCommissionStatuses = []CommissionStatus{
	CommissionStatusPending,
	CommissionStatusApproved,
	CommissionStatusPaid,
	CommissionStatusReversed,
}

func (s CommissionStatus) IsValid() bool {
	for _, candidate := range validCommissionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCommissionStatus converts raw input into CommissionStatus.
func ParseCommissionStatus(value string) (CommissionStatus, error) {
	for _, candidate := range validCommissionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commission status %q", value)
}
