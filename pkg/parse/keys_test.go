package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims and uppercases", "  abc-123 ", "ABC-123"},
		{"already normalized", "SKU1", "SKU1"},
		{"decomposed accent is composed", "cafe\u0301", "CAF\u00c9"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.input))
		})
	}
}

func TestEmail(t *testing.T) {
	assert.Equal(t, "buyer@shop.com", Email(" Buyer@Shop.COM "))
}

func TestTaxID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"eleven digits", "20123456789", "20-12345678-9"},
		{"already formatted", "20-12345678-9", "20-12345678-9"},
		{"float round trip", "20123456789.0", "20-12345678-9"},
		{"too short", "12345", "12345"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TaxID(tt.input))
		})
	}
}
