package enums

import "fmt"

// PayoutMethodType identifies how a beneficiary receives funds.
type PayoutMethodType string

const (
	PayoutMethodBank     PayoutMethodType = "BANK"
	PayoutMethodTelebirr PayoutMethodType = "TELEBIRR"
	PayoutMethodMpesa    PayoutMethodType = "MPESA"
)

var validPayoutMethodTypes = []PayoutMethodType{
	PayoutMethodBank,
	PayoutMethodTelebirr,
	PayoutMethodMpesa,
}

// IsMobile reports whether the method is a mobile wallet rather than
// a bank transfer.
func (t PayoutMethodType) IsMobile() bool {
	return t == PayoutMethodTelebirr || t == PayoutMethodMpesa
}

func (t PayoutMethodType) IsValid() bool {
	for _, candidate := range validPayoutMethodTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParsePayoutMethodType converts raw input into PayoutMethodType.
func ParsePayoutMethodType(value string) (PayoutMethodType, error) {
	for _, candidate := range validPayoutMethodTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout method type %q", value)
}
