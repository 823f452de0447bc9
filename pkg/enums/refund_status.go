package enums

import (
	"fmt"
	"strings"
)

// RefundStatus maps to the refund_status enum in Postgres.
type RefundStatus string

const (
	RefundStatusRequested  RefundStatus = "REQUESTED"
	RefundStatusApproved   RefundStatus = "APPROVED"
	RefundStatusProcessing RefundStatus = "PROCESSING"
	RefundStatusCompleted  RefundStatus = "COMPLETED"
	RefundStatusFailed     RefundStatus = "FAILED"
	RefundStatusRejected   RefundStatus = "REJECTED"
)

var validRefundStatuses = []RefundStatus{
	RefundStatusRequested,
	RefundStatusApproved,
	RefundStatusProcessing,
	RefundStatusCompleted,
	RefundStatusFailed,
	RefundStatusRejected,
}

// IsValid reports whether the value matches the canonical refund status enum.
func (s RefundStatus) IsValid() bool {
	for _, candidate := range validRefundStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// NormalizeGatewayRefundStatus folds the gateway's transfer vocabulary
// into RefundStatus. The second return is false for vocabulary outside
// the known set; callers keep the refund's current status.
func NormalizeGatewayRefundStatus(raw string) (RefundStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUCCESS", "COMPLETED", "PAID":
		return RefundStatusCompleted, true
	case "FAILED", "CANCELLED", "DECLINED":
		return RefundStatusFailed, true
	case "PENDING", "PROCESSING":
		return RefundStatusProcessing, true
	default:
		return "", false
	}
}

// ParseRefundStatus converts raw input into RefundStatus.
func ParseRefundStatus(value string) (RefundStatus, error) {
	for _, candidate := range validRefundStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund status %q", value)
}
