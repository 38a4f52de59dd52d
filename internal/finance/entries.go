package finance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/engffsantos/easyStock360/internal/installments"
)

// ShortID is the eight character prefix used in human readable descriptions.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// SaleReceipt builds the RECEITA entry mirroring one sale payment.
func SaleReceipt(saleID, paymentID string, amount decimal.Decimal, due time.Time, method installments.Method, status installments.Status, now time.Time) Entry {
	return Entry{
		ID:            uuid.NewString(),
		Type:          TypeIncome,
		Description:   fmt.Sprintf("Recebimento venda #%s (%s)", ShortID(saleID), method),
		Amount:        amount,
		DueDate:       due,
		PaymentMethod: method,
		Status:        status,
		SaleID:        &saleID,
		PaymentID:     &paymentID,
		CreatedAt:     now,
	}
}

// ReturnRefund builds the pending DESPESA entry of a refunded return, due today.
func ReturnRefund(saleID, returnID string, amount decimal.Decimal, now time.Time) Entry {
	return Entry{
		ID:            uuid.NewString(),
		Type:          TypeExpense,
		Description:   fmt.Sprintf("Devolução da venda #%s", ShortID(saleID)),
		Amount:        amount,
		DueDate:       installments.DateOf(now),
		PaymentMethod: installments.MethodAdjustment,
		Status:        installments.StatusPending,
		SaleID:        &saleID,
		ReturnID:      &returnID,
		CreatedAt:     now,
	}
}
