package kridi

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/carni-kridi/attar-backend/pkg/errors"
)

type balanceRepository interface {
	ClientTotals(ctx context.Context, storeID uuid.UUID, clientIDs []uuid.UUID) (map[uuid.UUID]ClientTotals, error)
	OutstandingDebt(ctx context.Context, storeID, clientID uuid.UUID) (decimal.Decimal, error)
}

// Calculator derives balances live from stored entries. Callers pass a
// store id they have already scoped through the access gate.
type Calculator struct {
	repo balanceRepository
}

func NewCalculator(repo balanceRepository) (*Calculator, error) {
	if repo == nil {
		return nil, fmt.Errorf("balance repository required")
	}
	return &Calculator{repo: repo}, nil
}

// ClientBalance returns the balance of one client. A client without entries
// is settled with zero totals.
func (c *Calculator) ClientBalance(ctx context.Context, storeID, clientID uuid.UUID) (Balance, error) {
	balances, err := c.ClientBalances(ctx, storeID, []uuid.UUID{clientID})
	if err != nil {
		return Balance{}, err
	}
	return balances[clientID], nil
}

// ClientBalances returns a balance for every requested client id.
func (c *Calculator) ClientBalances(ctx context.Context, storeID uuid.UUID, clientIDs []uuid.UUID) (map[uuid.UUID]Balance, error) {
	totals, err := c.repo.ClientTotals(ctx, storeID, clientIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate balances")
	}
	out := make(map[uuid.UUID]Balance, len(clientIDs))
	for _, id := range clientIDs {
		t, ok := totals[id]
		if !ok {
			out[id] = NewBalance(decimal.Zero, decimal.Zero)
			continue
		}
		out[id] = NewBalance(t.TotalDebt, t.TotalPaid)
	}
	return out, nil
}

// Outstanding is the unpaid remainder of a client's debt entries.
func (c *Calculator) Outstanding(ctx context.Context, storeID, clientID uuid.UUID) (decimal.Decimal, error) {
	amount, err := c.repo.OutstandingDebt(ctx, storeID, clientID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate outstanding debt")
	}
	return amount, nil
}
