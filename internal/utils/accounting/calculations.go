package accounting

import (
	"fmt"

	"github.com/finbooks/finbooks/internal/core/domain"
	"github.com/shopspring/decimal"
)

// StorageScale is the number of fractional digits kept internally for every
// money amount. Display rounding happens at the boundary, never in storage.
const StorageScale int32 = 5

// DisplayScale is the number of fractional digits shown when an amount is
// rendered for humans.
const DisplayScale int32 = 2

// Round rounds an amount to the given scale, half away from zero.
func Round(amount decimal.Decimal, scale int32) decimal.Decimal {
	return amount.Round(scale)
}

// FormatDisplay renders an amount at display precision. Storage precision is
// never affected.
func FormatDisplay(amount decimal.Decimal) string {
	return amount.StringFixed(DisplayScale)
}

// SignedAmount applies the correct sign to a transaction line amount based on
// the account's normal side. This is used in both services and repositories to
// keep the accounting convention in one place.
// DEBIT to ASSET/EXPENSE -> Positive (+)
// CREDIT to ASSET/EXPENSE -> Negative (-)
// DEBIT to LIABILITY/EQUITY/REVENUE -> Negative (-)
// CREDIT to LIABILITY/EQUITY/REVENUE -> Positive (+)
func SignedAmount(line domain.TransactionLine, accountType domain.AccountType) (decimal.Decimal, error) {
	side, ok := accountType.NormalSide()
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown account type %q encountered for account ID %s", accountType, line.AccountID)
	}

	amount := line.Amount()
	if side == domain.DebitNormal {
		if !line.IsDebit() {
			amount = amount.Neg()
		}
	} else {
		if line.IsDebit() {
			amount = amount.Neg()
		}
	}
	return amount, nil
}

// SumSides totals the debit and credit sides of a set of lines at full precision.
func SumSides(lines []domain.TransactionLine) (debits, credits decimal.Decimal) {
	debits = decimal.Zero
	credits = decimal.Zero
	for _, line := range lines {
		debits = debits.Add(line.Debit)
		credits = credits.Add(line.Credit)
	}
	return debits, credits
}

// SplitInstallments divides total into parts installments whose exact decimal
// sum equals total. Each part is rounded to scale; the rounding remainder is
// allocated to the first installment.
func SplitInstallments(total decimal.Decimal, parts int, scale int32) ([]decimal.Decimal, error) {
	if parts < 1 {
		return nil, fmt.Errorf("installment count must be at least 1, got %d", parts)
	}

	base := total.DivRound(decimal.NewFromInt(int64(parts)), scale)
	result := make([]decimal.Decimal, parts)
	rest := decimal.Zero
	for i := 1; i < parts; i++ {
		result[i] = base
		rest = rest.Add(base)
	}
	result[0] = total.Sub(rest)
	return result, nil
}
