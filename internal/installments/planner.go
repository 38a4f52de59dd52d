// Package installments splits a total into a dated payment schedule.
package installments

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/engffsantos/easyStock360/internal/shared"
)

// Status of a scheduled payment.
type Status string

const (
	StatusPending   Status = "PENDENTE"
	StatusPaid      Status = "PAGO"
	StatusOverdue   Status = "VENCIDO"
	StatusCancelled Status = "CANCELADO"
)

// ParseStatus normalises a payment status value.
func ParseStatus(raw string) (Status, error) {
	s := Status(shared.FoldUpper(raw))
	switch s {
	case StatusPending, StatusPaid, StatusOverdue, StatusCancelled:
		return s, nil
	}
	return "", shared.Invalidf("unknown payment status %q", raw)
}

// Installment is one entry of a generated schedule.
type Installment struct {
	Amount  decimal.Decimal
	DueDate time.Time
	Method  Method
	Status  Status
}

// Plan splits total into n installments paid with method, anchored at anchor.
// Every installment but the last is round(total/n, 2); the last absorbs the remainder
// so the schedule always sums to total. Deferred methods fall due monthly.
// A positive total that cannot give every installment at least one cent is rejected.
func Plan(total decimal.Decimal, method Method, n int, anchor time.Time) ([]Installment, error) {
	if !method.Schedulable() {
		return nil, shared.Invalidf("payment method %q cannot be scheduled", method)
	}
	if total.IsNegative() {
		return nil, shared.Invalidf("total must be >= 0")
	}
	if n < 1 {
		n = 1
	}
	if method == MethodDebitCard && n > 1 {
		return nil, shared.Invalidf("%s does not allow installments", MethodDebitCard)
	}

	total = total.Round(2)
	anchor = DateOf(anchor)
	amounts := Split(total, n)

	status := StatusPending
	if n == 1 && method.Immediate() {
		status = StatusPaid
	}

	schedule := make([]Installment, n)
	for i, amount := range amounts {
		if total.IsPositive() && !amount.IsPositive() {
			return nil, shared.Invalidf("too many installments: %d installments of %s would leave one at %s", n, total.StringFixed(2), amount.StringFixed(2))
		}
		due := anchor
		if !method.Immediate() {
			due = AddMonths(anchor, i)
		}
		schedule[i] = Installment{Amount: amount, DueDate: due, Method: method, Status: status}
	}
	return schedule, nil
}

// Split divides amount into n parts rounded to cents, the last absorbing the remainder.
func Split(amount decimal.Decimal, n int) []decimal.Decimal {
	if n < 1 {
		n = 1
	}
	parts := make([]decimal.Decimal, n)
	base := amount.Div(decimal.NewFromInt(int64(n))).Round(2)
	allocated := decimal.Zero
	for i := 0; i < n-1; i++ {
		parts[i] = base
		allocated = allocated.Add(base)
	}
	parts[n-1] = amount.Sub(allocated).Round(2)
	return parts
}

// AddMonths adds months to d keeping the day of month, clamped to the last day
// of shorter months (Jan 31 + 1 month is Feb 28 or 29).
func AddMonths(d time.Time, months int) time.Time {
	year, month, day := d.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
