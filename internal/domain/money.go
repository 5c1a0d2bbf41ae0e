package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units, the representation shared by the provider and the platform.
type Money struct {
	CentAmount     int64  `json:"centAmount"`
	CurrencyCode   string `json:"currencyCode"`
	FractionDigits int32  `json:"fractionDigits,omitempty"`
}

// currencyExponents lists ISO 4217 currencies whose minor unit is not 2 digits.
var currencyExponents = map[string]int32{
	"JPY": 0,
	"KRW": 0,
	"ISK": 0,
	"CLP": 0,
	"VND": 0,
	"BHD": 3,
	"KWD": 3,
	"JOD": 3,
	"OMR": 3,
	"TND": 3,
}

// NewMoney creates Money from minor units, deriving the fraction digits from the currency.
func NewMoney(centAmount int64, currency string) Money {
	digits, ok := currencyExponents[currency]
	if !ok {
		digits = 2
	}
	return Money{
		CentAmount:     centAmount,
		CurrencyCode:   currency,
		FractionDigits: digits,
	}
}

// ToDecimal converts the minor-unit amount to its major-unit decimal value.
func (m Money) ToDecimal() decimal.Decimal {
	return decimal.New(m.CentAmount, -m.FractionDigits)
}

// IsZero reports whether no amount was supplied.
func (m Money) IsZero() bool {
	return m.CentAmount == 0 && m.CurrencyCode == ""
}

// String returns the string representation of the money.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.ToDecimal().StringFixed(m.FractionDigits), m.CurrencyCode)
}
