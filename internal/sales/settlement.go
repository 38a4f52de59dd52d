package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/engffsantos/easyStock360/internal/installments"
	"github.com/engffsantos/easyStock360/internal/shared"
)

// plan is a validated settlement: the credit portion plus the scheduled remainder.
type plan struct {
	credit   decimal.Decimal
	schedule []installments.Installment
	method   installments.Method
}

// summary returns the payment_method and installments fields stored on the sale.
func (p plan) summary() (string, int) {
	methods := map[installments.Method]struct{}{}
	for _, inst := range p.schedule {
		methods[inst.Method] = struct{}{}
	}
	switch {
	case len(methods) > 1:
		return string(installments.MethodMixedSummary), len(p.schedule)
	case len(methods) == 1:
		return string(p.schedule[0].Method), len(p.schedule)
	case p.credit.IsPositive():
		return string(installments.MethodStoreCredit), 0
	}
	return string(p.method), 0
}

// planSettlement validates st against total and expands it into dated installments.
func planSettlement(total decimal.Decimal, st Settlement, anchor time.Time) (plan, error) {
	total = total.Round(2)
	if len(st.Payments) > 0 {
		if !st.CreditAmount.IsZero() {
			return plan{}, shared.Invalidf("creditAmount cannot be combined with an explicit payment list")
		}
		return planManual(total, st.Payments, anchor)
	}
	return planAssisted(total, st, anchor)
}

func planAssisted(total decimal.Decimal, st Settlement, anchor time.Time) (plan, error) {
	raw := st.PaymentMethod
	if raw == "" {
		raw = string(installments.MethodPix)
	}
	method, err := installments.ParseMethod(raw)
	if err != nil {
		return plan{}, err
	}
	credit := st.CreditAmount.Round(2)
	if credit.IsNegative() {
		return plan{}, shared.Invalidf("creditAmount must not be negative")
	}
	if method == installments.MethodStoreCredit && credit.IsZero() {
		credit = total
	}
	if credit.GreaterThan(total) {
		return plan{}, shared.Invalidf("creditAmount %s exceeds total %s", credit.StringFixed(2), total.StringFixed(2))
	}
	out := plan{credit: credit, method: method}
	remainder := total.Sub(credit)
	if !remainder.IsPositive() {
		return out, nil
	}
	if method == installments.MethodStoreCredit {
		return plan{}, shared.Invalidf("credit covers %s of %s, choose a method for the remainder", credit.StringFixed(2), total.StringFixed(2))
	}
	out.schedule, err = installments.Plan(remainder, method, st.Installments, anchor)
	if err != nil {
		return plan{}, err
	}
	return out, nil
}

func planManual(total decimal.Decimal, payments []PaymentInput, anchor time.Time) (plan, error) {
	out := plan{credit: decimal.Zero}
	sum := decimal.Zero
	for i, p := range payments {
		amount := p.Amount.Round(2)
		if !amount.IsPositive() {
			return plan{}, shared.Invalidf("payments[%d]: amount must be positive", i)
		}
		method, err := installments.ParseMethod(p.PaymentMethod)
		if err != nil {
			return plan{}, err
		}
		sum = sum.Add(amount)
		if method == installments.MethodStoreCredit {
			if p.Installments > 1 {
				return plan{}, shared.Invalidf("payments[%d]: credit cannot be split", i)
			}
			out.credit = out.credit.Add(amount)
			continue
		}
		start := anchor
		if p.DueDate != "" {
			start, err = time.Parse(time.DateOnly, p.DueDate)
			if err != nil {
				return plan{}, shared.Invalidf("payments[%d]: due date must be YYYY-MM-DD", i)
			}
		}
		parts, err := installments.Plan(amount, method, p.Installments, start)
		if err != nil {
			return plan{}, err
		}
		out.schedule = append(out.schedule, parts...)
		out.method = method
	}
	if !sum.Equal(total) {
		return plan{}, shared.Invalidf("payments sum %s differs from total %s", sum.StringFixed(2), total.StringFixed(2))
	}
	return out, nil
}
