// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/engffsantos/easyStock360/internal/shared"
)

// detailer is implemented by errors carrying a structured payload for the client.
type detailer interface {
	ProblemDetails() any
}

type errorMapping struct {
	target error
	status int
	title  string
	code   string
}

var errorMappings = []errorMapping{
	{shared.ErrOutOfStock, http.StatusConflict, "Out Of Stock", "OUT_OF_STOCK"},
	{shared.ErrQuoteExpired, http.StatusUnprocessableEntity, "Quote Expired", "QUOTE_EXPIRED"},
	{shared.ErrInvalidReturnQuantity, http.StatusUnprocessableEntity, "Invalid Return Quantity", "INVALID_RETURN_QUANTITY"},
	{shared.ErrMissingCustomer, http.StatusUnprocessableEntity, "Missing Customer", "MISSING_CUSTOMER"},
	{shared.ErrInsufficientCredit, http.StatusUnprocessableEntity, "Insufficient Credit", "INSUFFICIENT_CREDIT"},
	{shared.ErrInvalidInput, http.StatusBadRequest, "Validation Failed", "INVALID_INPUT"},
	{shared.ErrNotFound, http.StatusNotFound, "Not Found", "NOT_FOUND"},
	{shared.ErrInvalidState, http.StatusConflict, "Invalid State", "INVALID_STATE"},
	{shared.ErrConflict, http.StatusConflict, "Conflict", "CONFLICT"},
}

// StatusFor reports the HTTP status RespondError would use for err.
func StatusFor(err error) int {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		problem := ProblemDetail{
			Type:   "about:blank",
			Title:  m.title,
			Status: m.status,
			Detail: err.Error(),
			Code:   m.code,
		}
		var d detailer
		if errors.As(err, &d) {
			problem.Details = d.ProblemDetails()
		}
		writeProblem(w, problem)
		return
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
