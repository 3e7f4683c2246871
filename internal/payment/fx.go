package payment

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ToPaymentAmount converts a local-currency total into the payment currency,
// rounded half-up to cents: round(local / rate × 100) / 100.
func ToPaymentAmount(local, rate decimal.Decimal) decimal.Decimal {
	if !rate.IsPositive() {
		return decimal.Zero
	}
	cents := local.Mul(hundred).DivRound(rate, 8).Round(0)
	return cents.Div(hundred)
}

// ToCents returns amount in minor units.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
