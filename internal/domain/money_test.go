package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoney_ToDecimal(t *testing.T) {
	m := NewMoney(1050, "EUR") // 10.50 EUR
	assert.Equal(t, "10.5", m.ToDecimal().String())
	assert.Equal(t, int32(2), m.FractionDigits)
}

func TestMoney_ZeroDecimalCurrency(t *testing.T) {
	m := NewMoney(1500, "JPY")
	assert.Equal(t, int32(0), m.FractionDigits)
	assert.Equal(t, "1500 JPY", m.String())
}

func TestMoney_ThreeDecimalCurrency(t *testing.T) {
	m := NewMoney(12345, "KWD")
	assert.Equal(t, "12.345 KWD", m.String())
}

func TestMoney_IsZero(t *testing.T) {
	assert.True(t, Money{}.IsZero())
	assert.False(t, NewMoney(0, "EUR").IsZero())
}
