package enums

// PayoutStatus maps to the payout_status enum in Postgres.
type PayoutStatus string

const (
	PayoutStatusRequested  PayoutStatus = "REQUESTED"
	PayoutStatusProcessing PayoutStatus = "PROCESSING"
	PayoutStatusCompleted  PayoutStatus = "COMPLETED"
	PayoutStatusFailed     PayoutStatus = "FAILED"
	PayoutStatusRejected   PayoutStatus = "REJECTED"
)

// EarningStatus tracks whether an earning has been paid out.
type EarningStatus string

const (
	EarningStatusAvailable EarningStatus = "AVAILABLE"
	EarningStatusPaidOut   EarningStatus = "PAID_OUT"
)
