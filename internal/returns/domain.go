package returns

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/engffsantos/easyStock360/internal/shared"
)

// Resolution is how the customer is made whole.
type Resolution string

const (
	ResolutionRefund Resolution = "REEMBOLSO"
	ResolutionCredit Resolution = "CREDITO"
)

// Status is the lifecycle state of a return.
type Status string

const (
	StatusOpen      Status = "ABERTA"
	StatusCompleted Status = "CONCLUIDA"
	StatusCancelled Status = "CANCELADA"
)

// transitions lists the statuses reachable from each status.
var transitions = map[Status][]Status{
	StatusOpen: {StatusCompleted, StatusCancelled},
}

// ParseResolution defaults to REEMBOLSO.
func ParseResolution(raw string) (Resolution, error) {
	r := Resolution(shared.FoldUpper(raw))
	switch r {
	case "":
		return ResolutionRefund, nil
	case ResolutionRefund, ResolutionCredit:
		return r, nil
	}
	return "", shared.Invalidf("unknown resolution %q", raw)
}

// ParseStatus validates a status value.
func ParseStatus(raw string) (Status, error) {
	s := Status(shared.FoldUpper(raw))
	switch s {
	case StatusOpen, StatusCompleted, StatusCancelled:
		return s, nil
	}
	return "", shared.Invalidf("unknown return status %q", raw)
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Return struct {
	ID         string          `json:"id"`
	SaleID     string          `json:"saleId"`
	CustomerID *string         `json:"customerId,omitempty"`
	Reason     string          `json:"reason"`
	Resolution Resolution      `json:"resolution"`
	Status     Status          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Items      []Item          `json:"items"`
}

type Item struct {
	ID          int64           `json:"id"`
	ReturnID    string          `json:"returnId"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// SoldLine is the quantity of one product sold on a sale.
type SoldLine struct {
	ProductID   string
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

// ItemInput is one returned line. Price defaults to the sold unit price.
type ItemInput struct {
	ProductID string           `json:"productId" validate:"required,uuid"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

type CreateReturnRequest struct {
	SaleID     string      `json:"saleId" validate:"required,uuid"`
	Reason     string      `json:"reason" validate:"max=500"`
	Resolution string      `json:"resolution"`
	Items      []ItemInput `json:"items" validate:"dive"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ListFilter struct {
	SaleID string
	Limit  int
	Offset int
}

// InvalidQuantityError reports the largest quantity still returnable for a product.
type InvalidQuantityError struct {
	ProductID  string
	MaxAllowed int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid return quantity for product %s: max allowed %d", e.ProductID, e.MaxAllowed)
}

// Is matches shared.ErrInvalidReturnQuantity.
func (e *InvalidQuantityError) Is(target error) bool {
	return target == shared.ErrInvalidReturnQuantity
}

// ProblemDetails exposes the offending product and bound.
func (e *InvalidQuantityError) ProblemDetails() any {
	return map[string]any{"productId": e.ProductID, "maxAllowed": e.MaxAllowed}
}
