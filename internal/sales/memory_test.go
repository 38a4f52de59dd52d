package sales

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/engffsantos/easyStock360/internal/credit"
	"github.com/engffsantos/easyStock360/internal/finance"
	"github.com/engffsantos/easyStock360/internal/installments"
	"github.com/engffsantos/easyStock360/internal/inventory"
	"github.com/engffsantos/easyStock360/internal/shared"
)

type memState struct {
	customers map[string]string
	products  map[string]inventory.Product
	movements []inventory.Movement
	sales     map[string]Sale
	items     map[string][]Item
	payments  []Payment
	entries   []finance.Entry
	lots      []credit.Lot
	returns   map[string]int

	failOverdueEntries error
}

func (s *memState) clone() *memState {
	out := &memState{
		customers: make(map[string]string, len(s.customers)),
		products:  make(map[string]inventory.Product, len(s.products)),
		movements: append([]inventory.Movement(nil), s.movements...),
		sales:     make(map[string]Sale, len(s.sales)),
		items:     make(map[string][]Item, len(s.items)),
		payments:  append([]Payment(nil), s.payments...),
		entries:   append([]finance.Entry(nil), s.entries...),
		lots:      append([]credit.Lot(nil), s.lots...),
		returns:   make(map[string]int, len(s.returns)),

		failOverdueEntries: s.failOverdueEntries,
	}
	for k, v := range s.returns {
		out.returns[k] = v
	}
	for k, v := range s.customers {
		out.customers[k] = v
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.sales {
		out.sales[k] = v
	}
	for k, v := range s.items {
		out.items[k] = append([]Item(nil), v...)
	}
	return out
}

// memoryRepo commits the working copy only when the callback succeeds.
type memoryRepo struct {
	state *memState
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{state: &memState{
		customers: map[string]string{},
		products:  map[string]inventory.Product{},
		sales:     map[string]Sale{},
		items:     map[string][]Item{},
		returns:   map[string]int{},
	}}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	work := r.state.clone()
	if err := fn(ctx, &memoryTx{s: work}); err != nil {
		return err
	}
	r.state = work
	return nil
}

func (r *memoryRepo) GetSale(ctx context.Context, id string) (Sale, error) {
	sale, ok := r.state.sales[id]
	if !ok {
		return Sale{}, shared.NotFoundf("sale %s", id)
	}
	sale.Items = append([]Item{}, r.state.items[id]...)
	sale.Payments = r.paymentsOf(id)
	return sale, nil
}

func (r *memoryRepo) ListSales(ctx context.Context, req ListSalesRequest) ([]Sale, error) {
	out := []Sale{}
	for _, s := range r.state.sales {
		if req.Status != "" && s.Status != req.Status {
			continue
		}
		if req.CustomerID != "" && (s.CustomerID == nil || *s.CustomerID != req.CustomerID) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *memoryRepo) ListPayments(ctx context.Context, saleID string) ([]Payment, error) {
	if _, ok := r.state.sales[saleID]; !ok {
		return nil, shared.NotFoundf("sale %s", saleID)
	}
	return r.paymentsOf(saleID), nil
}

func (r *memoryRepo) paymentsOf(saleID string) []Payment {
	out := []Payment{}
	for _, p := range r.state.payments {
		if p.SaleID == saleID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (r *memoryRepo) entriesOf(saleID string) []finance.Entry {
	out := []finance.Entry{}
	for _, e := range r.state.entries {
		if e.SaleID != nil && *e.SaleID == saleID {
			out = append(out, e)
		}
	}
	return out
}

type memoryTx struct {
	s *memState
}

// inventory

func (t *memoryTx) InsertProduct(ctx context.Context, p inventory.Product) error {
	t.s.products[p.ID] = p
	return nil
}

func (t *memoryTx) UpdateProduct(ctx context.Context, p inventory.Product) error {
	if _, ok := t.s.products[p.ID]; !ok {
		return shared.NotFoundf("product %s", p.ID)
	}
	t.s.products[p.ID] = p
	return nil
}

func (t *memoryTx) LockProducts(ctx context.Context, ids []string) (map[string]inventory.Product, error) {
	return t.LookupProducts(ctx, ids)
}

func (t *memoryTx) SetQuantity(ctx context.Context, productID string, quantity int) error {
	p, ok := t.s.products[productID]
	if !ok {
		return shared.NotFoundf("product %s", productID)
	}
	p.Quantity = quantity
	t.s.products[productID] = p
	return nil
}

func (t *memoryTx) InsertMovement(ctx context.Context, m inventory.Movement) error {
	m.ID = int64(len(t.s.movements) + 1)
	t.s.movements = append(t.s.movements, m)
	return nil
}

// finance

func (t *memoryTx) InsertEntry(ctx context.Context, e finance.Entry) error {
	t.s.entries = append(t.s.entries, e)
	return nil
}

func (t *memoryTx) LockEntry(ctx context.Context, id string) (finance.Entry, error) {
	for _, e := range t.s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return finance.Entry{}, shared.NotFoundf("entry %s", id)
}

func (t *memoryTx) SetEntryStatus(ctx context.Context, id string, status installments.Status) error {
	for i := range t.s.entries {
		if t.s.entries[i].ID == id {
			t.s.entries[i].Status = status
		}
	}
	return nil
}

func (t *memoryTx) DeleteEntry(ctx context.Context, id string) error {
	for i := range t.s.entries {
		if t.s.entries[i].ID == id {
			t.s.entries = append(t.s.entries[:i], t.s.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (t *memoryTx) CancelOpenSaleEntries(ctx context.Context, saleID string) (int64, error) {
	var n int64
	for i, e := range t.s.entries {
		if e.SaleID != nil && *e.SaleID == saleID && e.Type == finance.TypeIncome &&
			(e.Status == installments.StatusPending || e.Status == installments.StatusOverdue) {
			t.s.entries[i].Status = installments.StatusCancelled
			n++
		}
	}
	return n, nil
}

func (t *memoryTx) MarkPaymentEntryPaid(ctx context.Context, paymentID string) (int64, error) {
	var n int64
	for i, e := range t.s.entries {
		if e.PaymentID != nil && *e.PaymentID == paymentID {
			t.s.entries[i].Status = installments.StatusPaid
			n++
		}
	}
	return n, nil
}

func (t *memoryTx) MarkOverduePayments(ctx context.Context, today time.Time) (int64, error) {
	var n int64
	for i, p := range t.s.payments {
		if p.Status == installments.StatusPending && p.DueDate.Before(today) {
			t.s.payments[i].Status = installments.StatusOverdue
			n++
		}
	}
	return n, nil
}

func (t *memoryTx) MarkOverdueEntries(ctx context.Context, today time.Time) (int64, error) {
	if t.s.failOverdueEntries != nil {
		return 0, t.s.failOverdueEntries
	}
	var n int64
	for i, e := range t.s.entries {
		if e.Status == installments.StatusPending && e.DueDate.Before(today) {
			t.s.entries[i].Status = installments.StatusOverdue
			n++
		}
	}
	return n, nil
}

func (t *memoryTx) CancelOpenReturnEntries(ctx context.Context, returnID string) (int64, error) {
	var n int64
	for i, e := range t.s.entries {
		if e.ReturnID != nil && *e.ReturnID == returnID &&
			(e.Status == installments.StatusPending || e.Status == installments.StatusOverdue) {
			t.s.entries[i].Status = installments.StatusCancelled
			n++
		}
	}
	return n, nil
}

// credit

func (t *memoryTx) EnsureCustomer(ctx context.Context, customerID string) error {
	if _, ok := t.s.customers[customerID]; !ok {
		return shared.NotFoundf("customer %s", customerID)
	}
	return nil
}

func (t *memoryTx) LockLots(ctx context.Context, customerID string) ([]credit.Lot, error) {
	out := []credit.Lot{}
	for _, l := range t.s.lots {
		if l.CustomerID == customerID && l.Balance.IsPositive() {
			out = append(out, l)
		}
	}
	return out, nil
}

func (t *memoryTx) SetLotBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	for i := range t.s.lots {
		if t.s.lots[i].ID == id {
			t.s.lots[i].Balance = balance
			return nil
		}
	}
	return shared.NotFoundf("credit %s", id)
}

func (t *memoryTx) InsertLot(ctx context.Context, lot credit.Lot) error {
	t.s.lots = append(t.s.lots, lot)
	return nil
}

// sales

func (t *memoryTx) CustomerName(ctx context.Context, id string) (string, error) {
	name, ok := t.s.customers[id]
	if !ok {
		return "", shared.NotFoundf("customer %s", id)
	}
	return name, nil
}

func (t *memoryTx) LookupProducts(ctx context.Context, ids []string) (map[string]inventory.Product, error) {
	out := map[string]inventory.Product{}
	for _, id := range ids {
		if p, ok := t.s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (t *memoryTx) InsertSale(ctx context.Context, sale Sale) error {
	sale.Items, sale.Payments = nil, nil
	t.s.sales[sale.ID] = sale
	return nil
}

func (t *memoryTx) LockSale(ctx context.Context, id string) (Sale, error) {
	sale, ok := t.s.sales[id]
	if !ok {
		return Sale{}, shared.NotFoundf("sale %s", id)
	}
	return sale, nil
}

func (t *memoryTx) UpdateSale(ctx context.Context, sale Sale) error {
	if _, ok := t.s.sales[sale.ID]; !ok {
		return shared.NotFoundf("sale %s", sale.ID)
	}
	sale.Items, sale.Payments = nil, nil
	t.s.sales[sale.ID] = sale
	return nil
}

func (t *memoryTx) DeleteSale(ctx context.Context, id string) error {
	delete(t.s.sales, id)
	delete(t.s.items, id)
	_ = t.DeletePayments(ctx, id)
	return nil
}

func (t *memoryTx) CountReturns(ctx context.Context, saleID string) (int, error) {
	return t.s.returns[saleID], nil
}

func (t *memoryTx) ReplaceItems(ctx context.Context, saleID string, items []Item) error {
	t.s.items[saleID] = append([]Item(nil), items...)
	return nil
}

func (t *memoryTx) ListItems(ctx context.Context, saleID string) ([]Item, error) {
	return append([]Item(nil), t.s.items[saleID]...), nil
}

func (t *memoryTx) InsertPayment(ctx context.Context, p Payment) error {
	t.s.payments = append(t.s.payments, p)
	return nil
}

func (t *memoryTx) DeletePayments(ctx context.Context, saleID string) error {
	kept := t.s.payments[:0:0]
	for _, p := range t.s.payments {
		if p.SaleID != saleID {
			kept = append(kept, p)
		}
	}
	t.s.payments = kept
	return nil
}

func (t *memoryTx) LockPayment(ctx context.Context, id string) (Payment, error) {
	for _, p := range t.s.payments {
		if p.ID == id {
			return p, nil
		}
	}
	return Payment{}, shared.NotFoundf("payment %s", id)
}

func (t *memoryTx) SetPaymentStatus(ctx context.Context, id string, status installments.Status) error {
	for i := range t.s.payments {
		if t.s.payments[i].ID == id {
			t.s.payments[i].Status = status
		}
	}
	return nil
}

func (t *memoryTx) CancelOpenPayments(ctx context.Context, saleID string) (int64, error) {
	var n int64
	for i, p := range t.s.payments {
		if p.SaleID == saleID && (p.Status == installments.StatusPending || p.Status == installments.StatusOverdue) {
			t.s.payments[i].Status = installments.StatusCancelled
			n++
		}
	}
	return n, nil
}
