package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/engffsantos/easyStock360/internal/installments"
)

// EntryType enumerates financial entry directions.
type EntryType string

const (
	TypeIncome  EntryType = "RECEITA"
	TypeExpense EntryType = "DESPESA"
)

// Entry is one line of the flat receivables/payables list.
type Entry struct {
	ID            string              `json:"id"`
	Type          EntryType           `json:"type"`
	Description   string              `json:"description"`
	Amount        decimal.Decimal     `json:"amount"`
	DueDate       time.Time           `json:"dueDate"`
	PaymentMethod installments.Method `json:"paymentMethod"`
	Status        installments.Status `json:"status"`
	SaleID        *string             `json:"saleId,omitempty"`
	PaymentID     *string             `json:"paymentId,omitempty"`
	ReturnID      *string             `json:"returnId,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// CreateEntryInput carries a manually registered entry.
type CreateEntryInput struct {
	Type          EntryType       `json:"type" validate:"required,oneof=RECEITA DESPESA"`
	Description   string          `json:"description" validate:"required,max=300"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       string          `json:"dueDate" validate:"required,datetime=2006-01-02"`
	PaymentMethod string          `json:"paymentMethod" validate:"required"`
}

// ListFilter narrows entry listings.
type ListFilter struct {
	Type   EntryType
	Status installments.Status
	SaleID string
	Limit  int
}
