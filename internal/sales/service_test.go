package sales

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engffsantos/easyStock360/internal/credit"
	"github.com/engffsantos/easyStock360/internal/finance"
	"github.com/engffsantos/easyStock360/internal/installments"
	"github.com/engffsantos/easyStock360/internal/inventory"
	"github.com/engffsantos/easyStock360/internal/platform/httpx"
	"github.com/engffsantos/easyStock360/internal/shared"
)

var fixedNow = time.Date(2025, time.January, 31, 15, 4, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(repo *memoryRepo) *Service {
	svc := NewService(repo, nil, nil, nil, Config{})
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func (r *memoryRepo) seedProduct(name, price string, qty int) string {
	id := uuid.NewString()
	r.state.products[id] = inventory.Product{ID: id, Name: name, SKU: name, Price: dec(price), Quantity: qty, Active: true}
	return id
}

func (r *memoryRepo) seedCustomer(name string, lots ...string) string {
	id := uuid.NewString()
	r.state.customers[id] = name
	for i, amount := range lots {
		r.state.lots = append(r.state.lots, credit.Lot{
			ID:         uuid.NewString(),
			CustomerID: id,
			Amount:     dec(amount),
			Balance:    dec(amount),
			CreatedAt:  fixedNow.Add(time.Duration(i) * time.Minute),
		})
	}
	return id
}

func quoteRequest(a, b string) CreateSaleRequest {
	return CreateSaleRequest{
		Items: []ItemInput{
			{ProductID: a, Quantity: 3},
			{ProductID: b, Quantity: 2},
		},
	}
}

func TestQuoteThenConvert(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	a := repo.seedProduct("A", "10", 10)
	b := repo.seedProduct("B", "5", 10)

	quote, err := svc.Create(ctx, quoteRequest(a, b))
	require.NoError(t, err)
	assert.Equal(t, StatusQuote, quote.Status)
	assert.Equal(t, DefaultCustomerName, quote.CustomerName)
	assert.True(t, quote.Total.Equal(dec("40")))
	require.NotNil(t, quote.ValidUntil)
	assert.Equal(t, time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC), *quote.ValidUntil)
	assert.Equal(t, 10, repo.state.products[a].Quantity)

	sale, err := svc.Convert(ctx, quote.ID, Settlement{PaymentMethod: "pix", Installments: 1})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, sale.Status)
	assert.Equal(t, "PIX", sale.PaymentMethod)
	assert.Equal(t, 1, sale.Installments)

	require.Len(t, sale.Payments, 1)
	assert.True(t, sale.Payments[0].Amount.Equal(dec("40")))
	assert.Equal(t, installments.StatusPaid, sale.Payments[0].Status)
	assert.Equal(t, installments.DateOf(fixedNow), sale.Payments[0].DueDate)

	assert.Equal(t, 7, repo.state.products[a].Quantity)
	assert.Equal(t, 8, repo.state.products[b].Quantity)
	require.Len(t, repo.state.movements, 2)
	assert.Equal(t, inventory.RefSale, repo.state.movements[0].RefModule)

	entries := repo.entriesOf(sale.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, finance.TypeIncome, entries[0].Type)
	assert.True(t, entries[0].Amount.Equal(dec("40")))
	assert.Equal(t, installments.StatusPaid, entries[0].Status)
	assert.Equal(t, sale.Payments[0].ID, *entries[0].PaymentID)

	_, err = svc.Convert(ctx, quote.ID, Settlement{})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestCreateCompletedDeferredInstallments(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	a := repo.seedProduct("A", "25", 10)

	sale, err := svc.Create(context.Background(), CreateSaleRequest{
		Status:     StatusCompleted,
		Items:      []ItemInput{{ProductID: a, Quantity: 4}},
		Settlement: &Settlement{PaymentMethod: "BOLETO", Installments: 3},
	})
	require.NoError(t, err)
	assert.Nil(t, sale.ValidUntil)
	require.Len(t, sale.Payments, 3)

	want := []string{"33.33", "33.33", "33.34"}
	dues := []time.Time{
		time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
	}
	for i, p := range sale.Payments {
		assert.Equal(t, want[i], p.Amount.StringFixed(2))
		assert.Equal(t, dues[i], p.DueDate)
		assert.Equal(t, installments.StatusPending, p.Status)
		assert.Equal(t, i, p.Seq)
	}
	assert.Len(t, repo.entriesOf(sale.ID), 3)
	assert.Equal(t, 6, repo.state.products[a].Quantity)
}

func TestConvertExpiredQuote(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	a := repo.seedProduct("A", "10", 10)
	b := repo.seedProduct("B", "5", 10)

	quote, err := svc.Create(ctx, quoteRequest(a, b))
	require.NoError(t, err)
	yesterday := installments.DateOf(fixedNow).AddDate(0, 0, -1)
	stored := repo.state.sales[quote.ID]
	stored.ValidUntil = &yesterday
	repo.state.sales[quote.ID] = stored

	_, err = svc.Convert(ctx, quote.ID, Settlement{})
	require.ErrorIs(t, err, shared.ErrQuoteExpired)
	assert.Equal(t, 10, repo.state.products[a].Quantity)
	assert.Empty(t, repo.state.payments)
	assert.Empty(t, repo.state.movements)
	assert.Equal(t, StatusQuote, repo.state.sales[quote.ID].Status)
}

func TestConvertOutOfStockMutatesNothing(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	a := repo.seedProduct("A", "10", 10)
	b := repo.seedProduct("B", "5", 1)

	quote, err := svc.Create(ctx, quoteRequest(a, b))
	require.NoError(t, err)

	_, err = svc.Convert(ctx, quote.ID, Settlement{})
	require.ErrorIs(t, err, shared.ErrOutOfStock)
	var oos *inventory.OutOfStockError
	require.True(t, errors.As(err, &oos))
	require.Len(t, oos.Shortfalls, 1)
	assert.Equal(t, b, oos.Shortfalls[0].ProductID)

	assert.Equal(t, 10, repo.state.products[a].Quantity)
	assert.Equal(t, 1, repo.state.products[b].Quantity)
	assert.Empty(t, repo.state.payments)
	assert.Empty(t, repo.state.entries)
}

func TestConvertConsumesCreditFirst(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	a := repo.seedProduct("A", "10", 10)
	b := repo.seedProduct("B", "5", 10)
	customer := repo.seedCustomer("Maria", "30", "20")

	req := quoteRequest(a, b)
	req.CustomerID = &customer
	quote, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Maria", quote.CustomerName)

	sale, err := svc.Convert(ctx, quote.ID, Settlement{PaymentMethod: "CARTAO_CREDITO", Installments: 2, CreditAmount: dec("35")})
	require.NoError(t, err)
	assert.Equal(t, "CARTAO_CREDITO", sale.PaymentMethod)
	assert.Equal(t, 2, sale.Installments)

	require.Len(t, sale.Payments, 3)
	assert.Equal(t, installments.MethodStoreCredit, sale.Payments[0].PaymentMethod)
	assert.Equal(t, installments.StatusPaid, sale.Payments[0].Status)
	assert.True(t, sale.Payments[0].Amount.Equal(dec("35")))
	assert.Equal(t, "2.50", sale.Payments[1].Amount.StringFixed(2))
	assert.Equal(t, "2.50", sale.Payments[2].Amount.StringFixed(2))

	assert.Equal(t, "0.00", repo.state.lots[0].Balance.StringFixed(2))
	assert.Equal(t, "15.00", repo.state.lots[1].Balance.StringFixed(2))
	assert.Len(t, repo.entriesOf(sale.ID), 2)
}

func TestCreditWithoutCustomerOrBalance(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	a := repo.seedProduct("A", "10", 10)
	b := repo.seedProduct("B", "5", 10)

	quote, err := svc.Create(ctx, quoteRequest(a, b))
	require.NoError(t, err)
	_, err = svc.Convert(ctx, quote.ID, Settlement{PaymentMethod: "CREDITO"})
	require.ErrorIs(t, err, shared.ErrMissingCustomer)

	customer := repo.seedCustomer("Joana", "10")
	req := quoteRequest(a, b)
	req.CustomerID = &customer
	quote, err = svc.Create(ctx, req)
	require.NoError(t, err)
	_, err = svc.Convert(ctx, quote.ID, Settlement{PaymentMethod: "CREDITO"})
	require.ErrorIs(t, err, shared.ErrInsufficientCredit)
	assert.Equal(t, 10, repo.state.products[a].Quantity)
	assert.Equal(t, "10.00", repo.state.lots[0].Balance.StringFixed(2))
}

func TestManualPaymentsSummarisedAsMixed(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	a := repo.seedProduct("A", "10", 10)

	sale, err := svc.Create(context.Background(), CreateSaleRequest{
		Status: StatusCompleted,
		Items:  []ItemInput{{ProductID: a, Quantity: 10}},
		Settlement: &Settlement{Payments: []PaymentInput{
			{Amount: dec("40"), PaymentMethod: "DINHEIRO"},
			{Amount: dec("60"), PaymentMethod: "BOLETO", Installments: 2, DueDate: "2025-02-15"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, string(installments.MethodMixedSummary), sale.PaymentMethod)
	assert.Equal(t, 3, sale.Installments)
	require.Len(t, sale.Payments, 3)
	assert.Equal(t, time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC), sale.Payments[2].DueDate)

	_, err = svc.Create(context.Background(), CreateSaleRequest{
		Status:     StatusCompleted,
		Items:      []ItemInput{{ProductID: a, Quantity: 1}},
		Settlement: &Settlement{Payments: []PaymentInput{{Amount: dec("9"), PaymentMethod: "PIX"}}},
	})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Equal(t, 0, repo.state.products[a].Quantity)
}

func TestCreateValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	a := repo.seedProduct("A", "10", 10)

	_, err := svc.Create(ctx, CreateSaleRequest{})
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Create(ctx, CreateSaleRequest{Items: []ItemInput{{ProductID: "ghost", Quantity: 1}}})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Create(ctx, CreateSaleRequest{Items: []ItemInput{{ProductID: a, Quantity: 1}}, DiscountType: "BOGUS"})
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Create(ctx, CreateSaleRequest{Status: StatusCancelled, Items: []ItemInput{{ProductID: a, Quantity: 1}}})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Empty(t, repo.state.sales)
}

func TestUpdateQuoteOnlyWhileQuote(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	a := repo.seedProduct("A", "10", 10)
	b := repo.seedProduct("B", "5", 10)

	quote, err := svc.Create(ctx, quoteRequest(a, b))
	require.NoError(t, err)

	price := dec("8")
	updated, err := svc.UpdateQuote(ctx, quote.ID, UpdateQuoteRequest{
		Items:         []ItemInput{{ProductID: a, Quantity: 5, Price: &price}},
		DiscountType:  "PERCENT",
		DiscountValue: dec("10"),
		Freight:       dec("4"),
	})
	require.NoError(t, err)
	assert.True(t, updated.Subtotal.Equal(dec("40")))
	assert.True(t, updated.Discount.Equal(dec("4")))
	assert.True(t, updated.Total.Equal(dec("40")))
	require.Len(t, repo.state.items[quote.ID], 1)

	_, err = svc.Convert(ctx, quote.ID, Settlement{})
	require.NoError(t, err)
	_, err = svc.UpdateQuote(ctx, quote.ID, UpdateQuoteRequest{Items: []ItemInput{{ProductID: a, Quantity: 1}}})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestCancelVoidsOpenReceivables(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	a := repo.seedProduct("A", "30", 10)

	sale, err := svc.Create(ctx, CreateSaleRequest{
		Status:     StatusCompleted,
		Items:      []ItemInput{{ProductID: a, Quantity: 1}},
		Settlement: &Settlement{PaymentMethod: "BOLETO", Installments: 3},
	})
	require.NoError(t, err)

	paid, err := svc.MarkPaymentPaid(ctx, sale.Payments[0].ID)
	require.NoError(t, err)
	assert.Equal(t, installments.StatusPaid, paid.Status)
	_, err = svc.MarkPaymentPaid(ctx, sale.Payments[0].ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	cancelled, err := svc.Cancel(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	payments, err := svc.Payments(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, installments.StatusPaid, payments[0].Status)
	assert.Equal(t, installments.StatusCancelled, payments[1].Status)
	assert.Equal(t, installments.StatusCancelled, payments[2].Status)

	statuses := map[installments.Status]int{}
	for _, e := range repo.entriesOf(sale.ID) {
		statuses[e.Status]++
	}
	assert.Equal(t, map[installments.Status]int{installments.StatusPaid: 1, installments.StatusCancelled: 2}, statuses)
	assert.Equal(t, 9, repo.state.products[a].Quantity)

	_, err = svc.Cancel(ctx, sale.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestDeleteAndSweepOverdue(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	a := repo.seedProduct("A", "30", 10)

	sale, err := svc.Create(ctx, CreateSaleRequest{
		Status:     StatusCompleted,
		Items:      []ItemInput{{ProductID: a, Quantity: 1}},
		Settlement: &Settlement{PaymentMethod: "BOLETO", Installments: 2},
	})
	require.NoError(t, err)

	svc.now = func() time.Time { return fixedNow.AddDate(0, 2, 0) }
	payments, entries, err := svc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), payments)
	linked := repo.entriesOf(sale.ID)
	require.NotEmpty(t, linked)
	assert.Equal(t, int64(len(linked)), entries)
	for _, e := range linked {
		assert.Equal(t, installments.StatusOverdue, e.Status)
	}

	require.NoError(t, svc.Delete(ctx, sale.ID))
	_, err = svc.Get(ctx, sale.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	_, err = svc.Payments(ctx, sale.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, sale.ID), shared.ErrNotFound)
}

type stubLocker struct {
	customers []string
}

func (l *stubLocker) Locked(ctx context.Context, customerID string, fn func(context.Context) error) error {
	l.customers = append(l.customers, customerID)
	return fn(ctx)
}

func TestCreditLockHeldOnlyWhenCreditUsed(t *testing.T) {
	repo := newMemoryRepo()
	locker := &stubLocker{}
	svc := NewService(repo, locker, nil, nil, Config{})
	svc.now = func() time.Time { return fixedNow }
	ctx := context.Background()
	a := repo.seedProduct("A", "10", 10)
	customer := repo.seedCustomer("Ana", "100")

	_, err := svc.Create(ctx, CreateSaleRequest{
		CustomerID: &customer,
		Status:     StatusCompleted,
		Items:      []ItemInput{{ProductID: a, Quantity: 1}},
		Settlement: &Settlement{PaymentMethod: "PIX"},
	})
	require.NoError(t, err)
	assert.Empty(t, locker.customers)

	_, err = svc.Create(ctx, CreateSaleRequest{
		CustomerID: &customer,
		Status:     StatusCompleted,
		Items:      []ItemInput{{ProductID: a, Quantity: 1}},
		Settlement: &Settlement{Payments: []PaymentInput{{Amount: dec("10"), PaymentMethod: "credito"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{customer}, locker.customers)
	assert.Equal(t, "90.00", repo.state.lots[0].Balance.StringFixed(2))
}

func TestHandlerConvertWithoutBody(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	a := repo.seedProduct("A", "10", 10)
	b := repo.seedProduct("B", "5", 10)
	quote, err := svc.Create(context.Background(), quoteRequest(a, b))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/sales", NewHandler(nil, svc, httpx.NewValidator()).MountRoutes)

	req := httptest.NewRequest(http.MethodPost, "/sales/"+quote.ID+"/convert", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"COMPLETED"`)

	req = httptest.NewRequest(http.MethodPost, "/sales/"+quote.ID+"/convert", strings.NewReader(`{}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestInactiveProductCannotBeSold(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	a := repo.seedProduct("A", "10", 10)
	b := repo.seedProduct("B", "5", 10)
	quote, err := svc.Create(ctx, quoteRequest(a, b))
	require.NoError(t, err)

	p := repo.state.products[b]
	p.Active = false
	repo.state.products[b] = p

	_, err = svc.Create(ctx, quoteRequest(a, b))
	require.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Len(t, repo.state.sales, 1)

	_, err = svc.UpdateQuote(ctx, quote.ID, UpdateQuoteRequest{Items: []ItemInput{{ProductID: b, Quantity: 1}}})
	require.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Equal(t, 10, repo.state.products[a].Quantity)
}

func TestHandlerRejectsMalformedIDs(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	r := chi.NewRouter()
	r.Route("/sales", NewHandler(nil, svc, httpx.NewValidator()).MountRoutes)

	cases := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodGet, "/sales/abc", ""},
		{http.MethodDelete, "/sales/abc", ""},
		{http.MethodPost, "/sales/abc/cancel", ""},
		{http.MethodPost, "/sales/payments/42/pay", ""},
		{http.MethodGet, "/sales?customer_id=42", ""},
		{http.MethodPost, "/sales", `{"items":[{"productId":"abc","quantity":1}]}`},
		{http.MethodPost, "/sales", `{"customerId":"abc","items":[{"productId":"` + uuid.NewString() + `","quantity":1}]}`},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%s %s", tc.method, tc.target)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCustomerPurchases(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	a := repo.seedProduct("A", "10", 10)
	ana := repo.seedCustomer("Ana")
	bia := repo.seedCustomer("Bia")

	sold, err := svc.Create(ctx, CreateSaleRequest{
		CustomerID: &ana,
		Status:     StatusCompleted,
		Items:      []ItemInput{{ProductID: a, Quantity: 1}},
		Settlement: &Settlement{PaymentMethod: "PIX"},
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateSaleRequest{CustomerID: &ana, Items: []ItemInput{{ProductID: a, Quantity: 1}}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateSaleRequest{
		CustomerID: &bia,
		Status:     StatusCompleted,
		Items:      []ItemInput{{ProductID: a, Quantity: 2}},
		Settlement: &Settlement{PaymentMethod: "PIX"},
	})
	require.NoError(t, err)

	purchases, err := svc.Purchases(ctx, ana, 0, 0)
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, sold.ID, purchases[0].ID)

	r := chi.NewRouter()
	r.Route("/customers", NewHandler(nil, svc, httpx.NewValidator()).MountCustomerRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/"+ana+"/purchases", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), sold.ID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/ana/purchases", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteRefusedWhenReturnsExist(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	a := repo.seedProduct("A", "10", 10)

	sale, err := svc.Create(ctx, CreateSaleRequest{
		Status:     StatusCompleted,
		Items:      []ItemInput{{ProductID: a, Quantity: 2}},
		Settlement: &Settlement{PaymentMethod: "PIX"},
	})
	require.NoError(t, err)
	repo.state.returns[sale.ID] = 1

	err = svc.Delete(ctx, sale.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
	_, err = svc.Get(ctx, sale.ID)
	require.NoError(t, err)
}

func TestSweepOverdueRollsBackTogether(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	a := repo.seedProduct("A", "30", 10)

	sale, err := svc.Create(ctx, CreateSaleRequest{
		Status:     StatusCompleted,
		Items:      []ItemInput{{ProductID: a, Quantity: 1}},
		Settlement: &Settlement{PaymentMethod: "BOLETO", Installments: 2},
	})
	require.NoError(t, err)

	repo.state.failOverdueEntries = errors.New("connection reset")
	svc.now = func() time.Time { return fixedNow.AddDate(0, 2, 0) }
	_, _, err = svc.SweepOverdue(ctx)
	require.Error(t, err)
	for _, p := range repo.paymentsOf(sale.ID) {
		assert.Equal(t, installments.StatusPending, p.Status)
	}

	repo.state.failOverdueEntries = nil
	payments, _, err := svc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), payments)
}
