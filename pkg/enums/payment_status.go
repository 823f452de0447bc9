package enums

import (
	"fmt"
	"strings"
)

// PaymentStatus maps to the payment_status enum in Postgres.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusProcessing,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusRefunded,
}

// paymentTransitions is the closed transition table for payments. FAILED and
// REFUNDED are terminal. Illegal transitions are treated as no-ops by callers
// so webhook replay stays idempotent.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusProcessing: {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusCompleted:  {PaymentStatusRefunded},
	PaymentStatusFailed:     {},
	PaymentStatusRefunded:   {},
}

// IsValid reports whether the value matches the canonical payment status enum.
func (s PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the transition table permits moving to target.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// NormalizeGatewayPaymentStatus folds the gateway's status vocabulary into
// the canonical payment status enum. The second return is false for
// vocabulary outside the known set; callers leave the payment untouched
// so a later callback can still settle it.
func NormalizeGatewayPaymentStatus(raw string) (PaymentStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUCCESS", "COMPLETED", "PAID":
		return PaymentStatusCompleted, true
	case "FAILED", "CANCELLED", "DECLINED":
		return PaymentStatusFailed, true
	case "PENDING", "PROCESSING":
		return PaymentStatusProcessing, true
	default:
		return "", false
	}
}

// ParsePaymentStatus converts raw input into PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
