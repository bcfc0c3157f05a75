package kridi

import (
	"github.com/shopspring/decimal"

	"github.com/carni-kridi/attar-backend/pkg/db/models"
	"github.com/carni-kridi/attar-backend/pkg/enums"
)

// Balance is a client's position derived from its entries.
type Balance struct {
	TotalDebt      decimal.Decimal    `json:"totalDebt"`
	TotalPaid      decimal.Decimal    `json:"totalPaid"`
	CurrentBalance decimal.Decimal    `json:"currentBalance"`
	State          enums.BalanceState `json:"state"`
	Label          string             `json:"label"`
}

// NewBalance builds a Balance from the two aggregates. totalDebt is the sum
// of remaining amounts on debt entries, totalPaid the sum of payment amounts.
func NewBalance(totalDebt, totalPaid decimal.Decimal) Balance {
	current := totalDebt.Sub(totalPaid)
	state := StateOf(current)
	return Balance{
		TotalDebt:      totalDebt,
		TotalPaid:      totalPaid,
		CurrentBalance: current,
		State:          state,
		Label:          state.Label(),
	}
}

// ComputeBalance reduces a client's entries to its balance.
func ComputeBalance(entries []models.KridiEntry) Balance {
	debt := decimal.Zero
	paid := decimal.Zero
	for _, e := range entries {
		switch e.Type {
		case enums.EntryTypeDebt:
			debt = debt.Add(e.RemainingAmount)
		case enums.EntryTypePayment:
			paid = paid.Add(e.Amount)
		}
	}
	return NewBalance(debt, paid)
}

// StateOf classifies a balance as credit, due or settled.
func StateOf(current decimal.Decimal) enums.BalanceState {
	switch current.Sign() {
	case -1:
		return enums.BalanceCredit
	case 1:
		return enums.BalanceDue
	default:
		return enums.BalanceSettled
	}
}
