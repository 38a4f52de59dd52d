package credit

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/engffsantos/easyStock360/internal/shared"
)

// Lot is one credit grant. Amount never changes; Balance only decreases.
type Lot struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customerId"`
	ReturnID   *string         `json:"returnId,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"`
	Note       string          `json:"note"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Usage records how much of a lot was consumed by a liquidation.
type Usage struct {
	CreditID string          `json:"creditId"`
	Used     decimal.Decimal `json:"used"`
}

// Receipt summarises a liquidation.
type Receipt struct {
	Used       []Usage         `json:"used"`
	NewBalance decimal.Decimal `json:"newBalance"`
}

// Total returns the consumed amount.
func (r Receipt) Total() decimal.Decimal {
	total := decimal.Zero
	for _, u := range r.Used {
		total = total.Add(u.Used)
	}
	return total
}

// GrantInput mints a lot without a return.
type GrantInput struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note" validate:"max=300"`
}

// LiquidateInput consumes credit.
type LiquidateInput struct {
	Amount decimal.Decimal `json:"amount"`
}

// InsufficientCreditError reports the balance available when a liquidation exceeds it.
type InsufficientCreditError struct {
	Available decimal.Decimal
}

func (e *InsufficientCreditError) Error() string {
	return "insufficient credit: available " + e.Available.StringFixed(2)
}

// Is matches shared.ErrInsufficientCredit.
func (e *InsufficientCreditError) Is(target error) bool {
	return target == shared.ErrInsufficientCredit
}

// ProblemDetails exposes the available balance.
func (e *InsufficientCreditError) ProblemDetails() any {
	return map[string]any{"available": e.Available}
}
