package credit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/engffsantos/easyStock360/internal/shared"
)

// Liquidate consumes amount from the customer's lots, oldest first, inside tx.
func Liquidate(ctx context.Context, tx TxRepository, customerID string, amount decimal.Decimal) (Receipt, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return Receipt{}, shared.Invalidf("credit: amount must be positive")
	}
	lots, err := tx.LockLots(ctx, customerID)
	if err != nil {
		return Receipt{}, err
	}
	available := decimal.Zero
	for _, lot := range lots {
		available = available.Add(lot.Balance)
	}
	if amount.GreaterThan(available) {
		return Receipt{}, &InsufficientCreditError{Available: available}
	}

	receipt := Receipt{Used: []Usage{}, NewBalance: available.Sub(amount)}
	remaining := amount
	for _, lot := range lots {
		if !remaining.IsPositive() {
			break
		}
		if !lot.Balance.IsPositive() {
			continue
		}
		used := decimal.Min(lot.Balance, remaining)
		if err := tx.SetLotBalance(ctx, lot.ID, lot.Balance.Sub(used)); err != nil {
			return Receipt{}, err
		}
		receipt.Used = append(receipt.Used, Usage{CreditID: lot.ID, Used: used})
		remaining = remaining.Sub(used)
	}
	return receipt, nil
}

// Issue mints a fresh lot with balance equal to amount.
func Issue(ctx context.Context, tx TxRepository, customerID string, returnID *string, amount decimal.Decimal, note string, now time.Time) (Lot, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return Lot{}, shared.Invalidf("credit: amount must be positive")
	}
	lot := Lot{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		ReturnID:   returnID,
		Amount:     amount,
		Balance:    amount,
		Note:       note,
		CreatedAt:  now,
	}
	if err := tx.InsertLot(ctx, lot); err != nil {
		return Lot{}, err
	}
	return lot, nil
}
