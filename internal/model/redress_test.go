package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRedressType(t *testing.T) {
	tests := []struct {
		raw  string
		want RedressType
	}{
		{"financial_loss", RedressFinancialLoss},
		{"goodwill_payment", RedressGoodwill},
		{"goodwill", RedressGoodwill},
		{"apology", RedressApology},
		{"remedial", RedressRemedialAction},
		{"interest", RedressInterest},
		{"distress", RedressDistress},
		{"premium_refund", RedressPremiumRefund},
		{"third_party", RedressThirdParty},
		{"financial", RedressFinancialLoss},
		{"  Goodwill  ", RedressGoodwill},
		{"APOLOGY_OR_EXPLANATION", RedressApology},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseRedressType(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRedressTypeUnknown(t *testing.T) {
	_, err := ParseRedressType("store_credit")
	assert.Error(t, err)
}

func TestRedressTypeMonetary(t *testing.T) {
	monetary := []RedressType{
		RedressFinancialLoss,
		RedressInterest,
		RedressDistress,
		RedressConsequentialLoss,
		RedressPremiumRefund,
		RedressGoodwill,
		RedressThirdParty,
	}
	for _, rt := range monetary {
		assert.True(t, rt.Monetary(), string(rt))
	}
	assert.False(t, RedressApology.Monetary())
	assert.False(t, RedressRemedialAction.Monetary())
}

func TestFormatReference(t *testing.T) {
	assert.Equal(t, "CMP-2026-000001", FormatReference(2026, 1))
	assert.Equal(t, "CMP-2026-000123", FormatReference(2026, 123))
	assert.Equal(t, "CMP-2027-999999", FormatReference(2027, 999999))
}
