package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/engffsantos/easyStock360/internal/installments"
	"github.com/engffsantos/easyStock360/internal/pricing"
	"github.com/engffsantos/easyStock360/internal/shared"
)

// ============================================================================
// SALE
// ============================================================================

// Status is the lifecycle state of a sale.
type Status string

const (
	StatusQuote     Status = "QUOTE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus validates a status filter or create request value.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusQuote, StatusCompleted, StatusCancelled:
		return s, nil
	}
	return "", shared.Invalidf("unknown sale status %q", raw)
}

// DefaultCustomerName is the snapshot used for walk-in sales.
const DefaultCustomerName = "Consumidor Final"

type Sale struct {
	ID            string               `json:"id"`
	CustomerID    *string              `json:"customerId,omitempty"`
	CustomerName  string               `json:"customerName"`
	Status        Status               `json:"status"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	DiscountType  pricing.DiscountType `json:"discountType"`
	DiscountValue decimal.Decimal      `json:"discountValue"`
	Discount      decimal.Decimal      `json:"discount"`
	Freight       decimal.Decimal      `json:"freight"`
	Total         decimal.Decimal      `json:"total"`
	PaymentMethod string               `json:"paymentMethod"`
	Installments  int                  `json:"installments"`
	ValidUntil    *time.Time           `json:"validUntil,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
	Items         []Item               `json:"items"`
	Payments      []Payment            `json:"payments"`
}

type Item struct {
	ID          int64           `json:"id"`
	SaleID      string          `json:"saleId"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// ============================================================================
// PAYMENT
// ============================================================================

type Payment struct {
	ID            string              `json:"id"`
	SaleID        string              `json:"saleId"`
	Amount        decimal.Decimal     `json:"amount"`
	DueDate       time.Time           `json:"dueDate"`
	PaymentMethod installments.Method `json:"paymentMethod"`
	Status        installments.Status `json:"status"`
	Seq           int                 `json:"seq"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// ============================================================================
// REQUESTS
// ============================================================================

// ItemInput is one cart line. Price defaults to the catalog price when omitted.
type ItemInput struct {
	ProductID string           `json:"productId" validate:"required,uuid"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

type CreateSaleRequest struct {
	CustomerID    *string         `json:"customerId,omitempty" validate:"omitempty,uuid"`
	CustomerName  string          `json:"customerName" validate:"max=200"`
	Status        Status          `json:"status" validate:"omitempty,oneof=QUOTE COMPLETED"`
	Items         []ItemInput     `json:"items" validate:"required,min=1,dive"`
	DiscountType  string          `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	Freight       decimal.Decimal `json:"freight"`
	Settlement    *Settlement     `json:"settlement,omitempty"`
}

type UpdateQuoteRequest struct {
	CustomerID    *string         `json:"customerId,omitempty" validate:"omitempty,uuid"`
	CustomerName  string          `json:"customerName" validate:"max=200"`
	Items         []ItemInput     `json:"items" validate:"required,min=1,dive"`
	DiscountType  string          `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	Freight       decimal.Decimal `json:"freight"`
}

// Settlement describes how a sale is paid. Either the assisted fields or
// an explicit Payments list is used.
type Settlement struct {
	PaymentMethod string          `json:"paymentMethod"`
	Installments  int             `json:"installments" validate:"gte=0,lte=360"`
	CreditAmount  decimal.Decimal `json:"creditAmount"`
	Payments      []PaymentInput  `json:"payments" validate:"dive"`
}

type PaymentInput struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod" validate:"required"`
	Installments  int             `json:"installments" validate:"gte=0,lte=360"`
	DueDate       string          `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

type ListSalesRequest struct {
	Status     Status
	CustomerID string
	Limit      int
	Offset     int
}
