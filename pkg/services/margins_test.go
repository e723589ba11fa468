package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMargin(t *testing.T) {
	tests := []struct {
		name    string
		price   string
		cost    string
		wantAbs string
		wantPct string
	}{
		{"positive margin", "15", "10", "5.00", "50.00"},
		{"negative margin", "8", "10", "-2.00", "-20.00"},
		{"zero cost is unknown", "15", "0", "", ""},
		{"zero price is unknown", "0", "10", "", ""},
		{"negative cost is unknown", "15", "-1", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			abs, pct := Margin(dec(tt.price), dec(tt.cost))
			assertNullDec(t, tt.wantAbs, abs)
			assertNullDec(t, tt.wantPct, pct)
		})
	}
}

func TestPurchaseOverPct(t *testing.T) {
	assertNullDec(t, "25.00", PurchaseOverPct(dec("12.5"), dec("10")))
	assertNullDec(t, "-50.00", PurchaseOverPct(dec("5"), dec("10")))
	assertNullDec(t, "", PurchaseOverPct(dec("5"), decimal.Zero))
}

func TestComputedDiscount(t *testing.T) {
	tests := []struct {
		original string
		sale     string
		want     string
	}{
		{"100", "80", "20.00"},
		{"100", "100", "0.00"},
		{"100", "120", "0.00"},
		{"0", "50", "0.00"},
		{"3", "2", "33.33"},
	}

	for _, tt := range tests {
		assertDec(t, tt.want, ComputedDiscount(dec(tt.original), dec(tt.sale)), "%s → %s", tt.original, tt.sale)
	}
}

func TestEffectiveDiscount(t *testing.T) {
	assertDec(t, "15.00", EffectiveDiscount(dec("15"), dec("10")))
	assertDec(t, "20.00", EffectiveDiscount(dec("0"), dec("20")))
}

func TestShareOf(t *testing.T) {
	assertDec(t, "25.00", ShareOf(dec("1"), dec("4")))
	assertDec(t, "0.00", ShareOf(dec("1"), decimal.Zero))
	assertDec(t, "0.00", ShareOf(dec("1"), dec("-4")))
	assert.True(t, ShareOf(decimal.Zero, dec("10")).IsZero())
}
