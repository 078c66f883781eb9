package accounting

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbooks/finbooks/internal/core/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRound_HalfAwayFromZero(t *testing.T) {
	assert.True(t, Round(dec("1.005"), 2).Equal(dec("1.01")))
	assert.True(t, Round(dec("-1.005"), 2).Equal(dec("-1.01")))
	assert.True(t, Round(dec("2.4449"), 2).Equal(dec("2.44")))
}

func TestFormatDisplay(t *testing.T) {
	assert.Equal(t, "100.13", FormatDisplay(dec("100.125")))
	assert.Equal(t, "100.00", FormatDisplay(dec("100")))
	assert.Equal(t, "-0.50", FormatDisplay(dec("-0.5")))
}

func TestSignedAmount(t *testing.T) {
	tests := []struct {
		name        string
		line        domain.TransactionLine
		accountType domain.AccountType
		want        string
	}{
		{"debit to asset", domain.TransactionLine{Debit: dec("100")}, domain.Asset, "100"},
		{"credit to asset", domain.TransactionLine{Credit: dec("100")}, domain.Asset, "-100"},
		{"debit to expense", domain.TransactionLine{Debit: dec("30")}, domain.Expense, "30"},
		{"debit to liability", domain.TransactionLine{Debit: dec("100")}, domain.Liability, "-100"},
		{"credit to revenue", domain.TransactionLine{Credit: dec("100")}, domain.Revenue, "100"},
		{"credit to equity", domain.TransactionLine{Credit: dec("55")}, domain.Equity, "55"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SignedAmount(tt.line, tt.accountType)
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}

	_, err := SignedAmount(domain.TransactionLine{Debit: dec("1")}, domain.AccountType("BOGUS"))
	assert.Error(t, err)
}

func TestSumSides(t *testing.T) {
	lines := []domain.TransactionLine{
		{Debit: dec("100.12345")},
		{Credit: dec("60.00001")},
		{Credit: dec("40.12344")},
	}
	debits, credits := SumSides(lines)
	assert.True(t, debits.Equal(dec("100.12345")))
	assert.True(t, credits.Equal(dec("100.12345")))
}

func TestSplitInstallments_ConservesTotal(t *testing.T) {
	tests := []struct {
		total string
		parts int
	}{
		{"100", 3},
		{"0.01", 3},
		{"-99.99", 7},
		{"1000.00001", 12},
	}

	for _, tt := range tests {
		total := dec(tt.total)
		result, err := SplitInstallments(total, tt.parts, 2)
		require.NoError(t, err)
		require.Len(t, result, tt.parts)

		sum := decimal.Zero
		for _, part := range result {
			sum = sum.Add(part)
		}
		assert.True(t, sum.Equal(total), "parts of %s sum to %s", tt.total, sum)

		// Every part after the first carries the evenly rounded share.
		for i := 2; i < tt.parts; i++ {
			assert.True(t, result[i].Equal(result[1]))
		}
	}

	_, err := SplitInstallments(dec("100"), 0, 2)
	assert.Error(t, err)
}
