package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/engffsantos/easyStock360/internal/shared"
)

// Product is a catalog entry. Quantity is written only through the stock ledger.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Brand     string          `json:"brand"`
	Kind      string          `json:"kind"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	Quantity  int             `json:"quantity"`
	MinStock  int             `json:"minStock"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// LowStock reports whether the product is at or below its minimum stock.
func (p Product) LowStock() bool {
	return p.Quantity <= p.MinStock
}

// Item is a stock request for one product.
type Item struct {
	ProductID string
	Quantity  int
}

// Shortfall describes a product that cannot cover the requested quantity.
type Shortfall struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Available   int    `json:"available"`
	Requested   int    `json:"requested"`
}

// Ref ties a stock movement to the operation that caused it.
type Ref struct {
	Module string
	ID     string
	Note   string
}

// Movement is one line of the stock card.
type Movement struct {
	ID           int64     `json:"id"`
	ProductID    string    `json:"productId"`
	Delta        int       `json:"delta"`
	BalanceAfter int       `json:"balanceAfter"`
	RefModule    string    `json:"refModule"`
	RefID        string    `json:"refId"`
	Note         string    `json:"note"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Movement reference modules.
const (
	RefSale       = "SALE"
	RefReturn     = "RETURN"
	RefAdjustment = "ADJUSTMENT"
)

// CreateProductInput carries catalog fields for a new product.
type CreateProductInput struct {
	Name     string          `json:"name" validate:"required,max=200"`
	SKU      string          `json:"sku" validate:"required,max=64"`
	Brand    string          `json:"brand" validate:"max=100"`
	Kind     string          `json:"kind" validate:"max=100"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
	Quantity int             `json:"quantity" validate:"gte=0"`
	MinStock int             `json:"minStock" validate:"gte=0"`
}

// UpdateProductInput carries editable catalog fields. Quantity moves only through adjustments.
type UpdateProductInput struct {
	Name     string          `json:"name" validate:"required,max=200"`
	SKU      string          `json:"sku" validate:"required,max=64"`
	Brand    string          `json:"brand" validate:"max=100"`
	Kind     string          `json:"kind" validate:"max=100"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
	MinStock int             `json:"minStock" validate:"gte=0"`
	Active   *bool           `json:"active,omitempty"`
}

// AdjustmentInput describes a manual stock correction.
type AdjustmentInput struct {
	ProductID string `json:"-"`
	Delta     int    `json:"delta" validate:"required"`
	Note      string `json:"note" validate:"max=500"`
}

// ProductFilter filters catalog listings.
type ProductFilter struct {
	Search     string
	ActiveOnly bool
	LowStock   bool
	Limit      int
	Offset     int
}

// MovementFilter filters stock card listings.
type MovementFilter struct {
	ProductID string
	Limit     int
}

// ErrNegativeStock triggered when a movement would result in negative quantity.
var ErrNegativeStock = fmt.Errorf("%w: inventory: negative stock not allowed", shared.ErrOutOfStock)

// ErrInvalidQuantity indicates invalid qty.
var ErrInvalidQuantity = fmt.Errorf("%w: inventory: quantity must be non zero", shared.ErrInvalidInput)

// OutOfStockError lists every product that could not cover its request.
type OutOfStockError struct {
	Shortfalls []Shortfall
}

func (e *OutOfStockError) Error() string {
	names := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		names = append(names, fmt.Sprintf("%s (available %d, requested %d)", s.ProductName, s.Available, s.Requested))
	}
	return "out of stock: " + strings.Join(names, ", ")
}

// Is matches shared.ErrOutOfStock.
func (e *OutOfStockError) Is(target error) bool {
	return target == shared.ErrOutOfStock
}

// ProblemDetails exposes the shortfall list to HTTP clients.
func (e *OutOfStockError) ProblemDetails() any {
	return map[string]any{"items": e.Shortfalls}
}
