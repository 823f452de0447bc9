package enums

// SettlementState tracks settlement progress for a payment. The states form a
// ladder: prepared -> earnings_recorded -> processed.
type SettlementState string

const (
	SettlementStatePrepared         SettlementState = "prepared"
	SettlementStateEarningsRecorded SettlementState = "earnings_recorded"
	SettlementStateProcessed        SettlementState = "processed"
)

// AtLeast reports whether the state has reached or passed the given rung.
func (s SettlementState) AtLeast(target SettlementState) bool {
	return settlementRung(s) >= settlementRung(target)
}

func settlementRung(s SettlementState) int {
	switch s {
	case SettlementStatePrepared:
		return 1
	case SettlementStateEarningsRecorded:
		return 2
	case SettlementStateProcessed:
		return 3
	default:
		return 0
	}
}
