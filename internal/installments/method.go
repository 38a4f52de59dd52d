package installments

import "github.com/engffsantos/easyStock360/internal/shared"

// Method identifies how a payment is settled.
type Method string

const (
	MethodCash         Method = "DINHEIRO"
	MethodPix          Method = "PIX"
	MethodBoleto       Method = "BOLETO"
	MethodTransfer     Method = "TRANSFERENCIA"
	MethodCreditCard   Method = "CARTAO_CREDITO"
	MethodDebitCard    Method = "CARTAO_DEBITO"
	MethodStoreCredit  Method = "CREDITO"
	MethodAdjustment   Method = "AJUSTE"
	MethodMixedSummary Method = "MIXED"
)

// ParseMethod normalises user input such as " pix " into a known Method.
// AJUSTE and MIXED are internal markers and are rejected.
func ParseMethod(raw string) (Method, error) {
	m := Method(shared.FoldUpper(raw))
	switch m {
	case MethodCash, MethodPix, MethodBoleto, MethodTransfer, MethodCreditCard, MethodDebitCard, MethodStoreCredit:
		return m, nil
	}
	return "", shared.Invalidf("unknown payment method %q", raw)
}

// Immediate reports whether the method settles on the spot.
func (m Method) Immediate() bool {
	switch m {
	case MethodCash, MethodPix, MethodDebitCard, MethodTransfer, MethodStoreCredit:
		return true
	}
	return false
}

// Schedulable reports whether the planner may split an amount with this method.
func (m Method) Schedulable() bool {
	switch m {
	case MethodCash, MethodPix, MethodBoleto, MethodTransfer, MethodCreditCard, MethodDebitCard:
		return true
	}
	return false
}
