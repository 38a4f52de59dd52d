package installments

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engffsantos/easyStock360/internal/shared"
)

var anchor = time.Date(2024, time.January, 31, 15, 4, 5, 0, time.UTC)

func TestPlanDeferredThreeInstallments(t *testing.T) {
	schedule, err := Plan(decimal.NewFromInt(100), MethodCreditCard, 3, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, schedule, 3)

	wantAmounts := []string{"33.33", "33.33", "33.34"}
	wantDates := []string{"2024-03-10", "2024-04-10", "2024-05-10"}
	for i, inst := range schedule {
		assert.Equal(t, wantAmounts[i], inst.Amount.StringFixed(2))
		assert.Equal(t, wantDates[i], inst.DueDate.Format(time.DateOnly))
		assert.Equal(t, StatusPending, inst.Status)
	}
}

func TestPlanImmediateSingleIsPaid(t *testing.T) {
	schedule, err := Plan(decimal.NewFromInt(40), MethodPix, 1, anchor)
	require.NoError(t, err)
	require.Len(t, schedule, 1)
	assert.Equal(t, StatusPaid, schedule[0].Status)
	assert.Equal(t, "2024-01-31", schedule[0].DueDate.Format(time.DateOnly))
	assert.True(t, decimal.NewFromInt(40).Equal(schedule[0].Amount))
}

func TestPlanImmediateSplitStaysOnAnchor(t *testing.T) {
	schedule, err := Plan(decimal.NewFromInt(90), MethodCash, 3, anchor)
	require.NoError(t, err)
	for _, inst := range schedule {
		assert.Equal(t, "2024-01-31", inst.DueDate.Format(time.DateOnly))
		assert.Equal(t, StatusPending, inst.Status)
	}
}

func TestPlanClampsInstallmentCount(t *testing.T) {
	schedule, err := Plan(decimal.NewFromInt(10), MethodBoleto, 0, anchor)
	require.NoError(t, err)
	require.Len(t, schedule, 1)
	assert.Equal(t, StatusPending, schedule[0].Status)
}

func TestPlanRejectsDebitInstallmentsAndCredit(t *testing.T) {
	_, err := Plan(decimal.NewFromInt(10), MethodDebitCard, 2, anchor)
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = Plan(decimal.NewFromInt(10), MethodStoreCredit, 1, anchor)
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestPlanRejectsNonPositiveInstallments(t *testing.T) {
	_, err := Plan(decimal.RequireFromString("0.17"), MethodBoleto, 11, anchor)
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = Plan(decimal.RequireFromString("0.01"), MethodCreditCard, 2, anchor)
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	schedule, err := Plan(decimal.RequireFromString("0.11"), MethodBoleto, 11, anchor)
	require.NoError(t, err)
	for _, inst := range schedule {
		assert.True(t, inst.Amount.Equal(decimal.RequireFromString("0.01")))
	}
}

func TestPlanSumInvariant(t *testing.T) {
	totals := []string{"1", "10", "99.99", "100", "1000.01", "333.33", "7777.77", "12345.67"}
	for _, raw := range totals {
		total := decimal.RequireFromString(raw)
		for n := 1; n <= 24; n++ {
			schedule, err := Plan(total, MethodCreditCard, n, anchor)
			require.NoError(t, err)
			require.Len(t, schedule, n)
			sum := decimal.Zero
			for _, inst := range schedule {
				sum = sum.Add(inst.Amount)
			}
			require.True(t, total.Equal(sum), "total=%s n=%d sum=%s", raw, n, sum)
			require.True(t, schedule[n-1].Amount.IsPositive(), "total=%s n=%d", raw, n)
		}
	}
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	jan31 := time.Date(2023, time.January, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2023-02-28", AddMonths(jan31, 1).Format(time.DateOnly))
	assert.Equal(t, "2024-02-29", AddMonths(anchor, 1).Format(time.DateOnly))
	assert.Equal(t, "2024-03-31", AddMonths(anchor, 2).Format(time.DateOnly))
	assert.Equal(t, "2025-01-31", AddMonths(anchor, 12).Format(time.DateOnly))
	assert.Equal(t, "2024-01-31", AddMonths(anchor, 0).Format(time.DateOnly))
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" pix ")
	require.NoError(t, err)
	assert.Equal(t, MethodPix, m)

	_, err = ParseMethod("AJUSTE")
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	assert.True(t, MethodTransfer.Immediate())
	assert.False(t, MethodBoleto.Immediate())
	assert.False(t, MethodStoreCredit.Schedulable())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("vencido")
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, s)

	_, err = ParseStatus("ABERTO")
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}
