package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/finbooks/finbooks/internal/core/domain"
)

func TestTransactionType_Module(t *testing.T) {
	tests := []struct {
		txType domain.TransactionType
		want   domain.Module
	}{
		{domain.Manual, domain.ModuleGeneralLedger},
		{domain.Bank, domain.ModuleBank},
		{domain.Receivable, domain.ModuleReceivables},
		{domain.Payable, domain.ModulePayables},
	}

	for _, tt := range tests {
		t.Run(string(tt.txType), func(t *testing.T) {
			got, err := tt.txType.Module()
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := domain.TransactionType("BOGUS").Module()
	assert.Error(t, err)
}

func TestTransactionID_Format(t *testing.T) {
	assert.Equal(t, "2025-MAN-1", domain.TransactionID(2025, domain.Manual, 1))
	assert.Equal(t, "2026-RCV-42", domain.TransactionID(2026, domain.Receivable, 42))
}

func TestTransactionType_SequenceType(t *testing.T) {
	assert.Equal(t, "gl_MAN", domain.Manual.SequenceType())
	assert.Equal(t, "gl_BNK", domain.Bank.SequenceType())
	assert.Equal(t, "gl_RCV", domain.Receivable.SequenceType())
	assert.Equal(t, "gl_PAY", domain.Payable.SequenceType())
}

func TestTransactionLine_Sides(t *testing.T) {
	debitLine := domain.TransactionLine{Debit: decimal.NewFromInt(100)}
	assert.True(t, debitLine.IsDebit())
	assert.True(t, debitLine.Amount().Equal(decimal.NewFromInt(100)))

	creditLine := domain.TransactionLine{Credit: decimal.NewFromInt(75)}
	assert.False(t, creditLine.IsDebit())
	assert.True(t, creditLine.Amount().Equal(decimal.NewFromInt(75)))
}

func TestAccountType_NormalSide(t *testing.T) {
	tests := []struct {
		accountType domain.AccountType
		want        domain.NormalBalance
	}{
		{domain.Asset, domain.DebitNormal},
		{domain.Expense, domain.DebitNormal},
		{domain.Liability, domain.CreditNormal},
		{domain.Equity, domain.CreditNormal},
		{domain.Revenue, domain.CreditNormal},
	}

	for _, tt := range tests {
		t.Run(string(tt.accountType), func(t *testing.T) {
			got, ok := tt.accountType.NormalSide()
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := domain.AccountType("BOGUS").NormalSide()
	assert.False(t, ok)
}
