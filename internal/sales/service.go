package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/engffsantos/easyStock360/internal/credit"
	"github.com/engffsantos/easyStock360/internal/finance"
	"github.com/engffsantos/easyStock360/internal/installments"
	"github.com/engffsantos/easyStock360/internal/inventory"
	"github.com/engffsantos/easyStock360/internal/pricing"
	"github.com/engffsantos/easyStock360/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSale(ctx context.Context, id string) (Sale, error)
	ListSales(ctx context.Context, req ListSalesRequest) ([]Sale, error)
	ListPayments(ctx context.Context, saleID string) ([]Payment, error)
}

// CreditLocker serialises writers of a customer's credit lots.
type CreditLocker interface {
	Locked(ctx context.Context, customerID string, fn func(context.Context) error) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Config groups sale lifecycle settings.
type Config struct {
	QuoteValidityDays int
}

// Service provides business logic for the sale lifecycle.
type Service struct {
	repo    RepositoryPort
	credits CreditLocker
	audit   AuditPort
	metrics shared.OperationObserver
	cfg     Config
	now     func() time.Time
}

// NewService constructs a sales service. credits may be nil when no lock backend is configured.
func NewService(repo RepositoryPort, credits CreditLocker, audit AuditPort, metrics shared.OperationObserver, cfg Config) *Service {
	if cfg.QuoteValidityDays <= 0 {
		cfg.QuoteValidityDays = 10
	}
	return &Service{repo: repo, credits: credits, audit: audit, metrics: metrics, cfg: cfg, now: time.Now}
}

// ============================================================================
// SALE OPERATIONS
// ============================================================================

// Create registers a quote, or a completed sale settled immediately.
func (s *Service) Create(ctx context.Context, req CreateSaleRequest) (Sale, error) {
	if req.Status == "" {
		req.Status = StatusQuote
	}
	if req.Status != StatusQuote && req.Status != StatusCompleted {
		return Sale{}, shared.Invalidf("a sale is created as %s or %s", StatusQuote, StatusCompleted)
	}
	if len(req.Items) == 0 {
		return Sale{}, shared.Invalidf("sale without items")
	}
	discountType, err := pricing.ParseDiscountType(req.DiscountType)
	if err != nil {
		return Sale{}, err
	}
	customerID := normalizeID(req.CustomerID)
	if req.Status == StatusCompleted && req.Settlement == nil {
		req.Settlement = &Settlement{}
	}

	now := s.now().UTC()
	sale := Sale{
		ID:            uuid.NewString(),
		CustomerID:    customerID,
		Status:        StatusQuote,
		DiscountType:  discountType,
		DiscountValue: req.DiscountValue.Round(2),
		Freight:       req.Freight.Round(2),
		CreatedAt:     now,
		UpdatedAt:     now,
		Payments:      []Payment{},
	}
	if req.Status == StatusQuote {
		validUntil := installments.DateOf(now).AddDate(0, 0, s.cfg.QuoteValidityDays)
		sale.ValidUntil = &validUntil
	}

	err = s.withCreditLock(ctx, customerID, req.Settlement, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			if err := s.fill(ctx, tx, &sale, req.CustomerName, req.Items); err != nil {
				return err
			}
			if err := tx.InsertSale(ctx, sale); err != nil {
				return err
			}
			if err := tx.ReplaceItems(ctx, sale.ID, sale.Items); err != nil {
				return err
			}
			if req.Status == StatusCompleted {
				return s.settle(ctx, tx, &sale, *req.Settlement, now)
			}
			return nil
		})
	})
	if err != nil {
		return Sale{}, shared.Observe(s.metrics, "sales", "create", err)
	}
	s.record(ctx, "sale:create", sale.ID, map[string]any{"status": sale.Status, "total": sale.Total.StringFixed(2)})
	return sale, shared.Observe(s.metrics, "sales", "create", nil)
}

// UpdateQuote replaces the items and pricing inputs of a quote.
func (s *Service) UpdateQuote(ctx context.Context, id string, req UpdateQuoteRequest) (Sale, error) {
	if len(req.Items) == 0 {
		return Sale{}, shared.Invalidf("sale without items")
	}
	discountType, err := pricing.ParseDiscountType(req.DiscountType)
	if err != nil {
		return Sale{}, err
	}
	var sale Sale
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		sale, err = tx.LockSale(ctx, id)
		if err != nil {
			return err
		}
		if sale.Status != StatusQuote {
			return shared.InvalidStatef("only quotes can be edited, sale is %s", sale.Status)
		}
		sale.CustomerID = normalizeID(req.CustomerID)
		sale.DiscountType = discountType
		sale.DiscountValue = req.DiscountValue.Round(2)
		sale.Freight = req.Freight.Round(2)
		sale.UpdatedAt = s.now().UTC()
		if err := s.fill(ctx, tx, &sale, req.CustomerName, req.Items); err != nil {
			return err
		}
		if err := tx.ReplaceItems(ctx, sale.ID, sale.Items); err != nil {
			return err
		}
		return tx.UpdateSale(ctx, sale)
	})
	if err != nil {
		return Sale{}, shared.Observe(s.metrics, "sales", "update_quote", err)
	}
	s.record(ctx, "sale:update_quote", sale.ID, map[string]any{"total": sale.Total.StringFixed(2)})
	shared.Observe(s.metrics, "sales", "update_quote", nil)
	return s.repo.GetSale(ctx, id)
}

// Convert turns a valid quote into a completed sale.
func (s *Service) Convert(ctx context.Context, id string, st Settlement) (Sale, error) {
	current, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return Sale{}, err
	}
	var sale Sale
	now := s.now().UTC()
	err = s.withCreditLock(ctx, current.CustomerID, &st, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			var err error
			sale, err = tx.LockSale(ctx, id)
			if err != nil {
				return err
			}
			if sale.Status != StatusQuote {
				return shared.InvalidStatef("only quotes can be converted, sale is %s", sale.Status)
			}
			if sale.ValidUntil != nil && installments.DateOf(now).After(*sale.ValidUntil) {
				return fmt.Errorf("%w: quote was valid until %s", shared.ErrQuoteExpired, sale.ValidUntil.Format(time.DateOnly))
			}
			if sale.Items, err = tx.ListItems(ctx, id); err != nil {
				return err
			}
			return s.settle(ctx, tx, &sale, st, now)
		})
	})
	if err != nil {
		return Sale{}, shared.Observe(s.metrics, "sales", "convert", err)
	}
	s.record(ctx, "sale:convert", sale.ID, map[string]any{"payment_method": sale.PaymentMethod, "installments": sale.Installments, "total": sale.Total.StringFixed(2)})
	return sale, shared.Observe(s.metrics, "sales", "convert", nil)
}

// Cancel voids the open receivables of a completed sale. Stock is not returned.
func (s *Service) Cancel(ctx context.Context, id string) (Sale, error) {
	var sale Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		sale, err = tx.LockSale(ctx, id)
		if err != nil {
			return err
		}
		if sale.Status != StatusCompleted {
			return shared.InvalidStatef("only completed sales can be cancelled, sale is %s", sale.Status)
		}
		if _, err := tx.CancelOpenPayments(ctx, id); err != nil {
			return err
		}
		if _, err := tx.CancelOpenSaleEntries(ctx, id); err != nil {
			return err
		}
		sale.Status = StatusCancelled
		sale.UpdatedAt = s.now().UTC()
		return tx.UpdateSale(ctx, sale)
	})
	if err != nil {
		return Sale{}, shared.Observe(s.metrics, "sales", "cancel", err)
	}
	s.record(ctx, "sale:cancel", sale.ID, map[string]any{"total": sale.Total.StringFixed(2)})
	shared.Observe(s.metrics, "sales", "cancel", nil)
	return s.repo.GetSale(ctx, id)
}

// Delete removes a sale with its items and payments. Stock and entries are left untouched.
func (s *Service) Delete(ctx context.Context, id string) error {
	var status Status
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.LockSale(ctx, id)
		if err != nil {
			return err
		}
		status = sale.Status
		n, err := tx.CountReturns(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return shared.InvalidStatef("sale %s has %d return(s) and cannot be deleted", id, n)
		}
		return tx.DeleteSale(ctx, id)
	})
	if err != nil {
		return shared.Observe(s.metrics, "sales", "delete", err)
	}
	s.record(ctx, "sale:delete", id, map[string]any{"status": status})
	return shared.Observe(s.metrics, "sales", "delete", nil)
}

// Get returns a sale with items and payments.
func (s *Service) Get(ctx context.Context, id string) (Sale, error) {
	return s.repo.GetSale(ctx, id)
}

// List returns sales newest first.
func (s *Service) List(ctx context.Context, req ListSalesRequest) ([]Sale, error) {
	return s.repo.ListSales(ctx, req)
}

// Purchases returns the completed sales of one customer, newest first.
func (s *Service) Purchases(ctx context.Context, customerID string, limit, offset int) ([]Sale, error) {
	if customerID == "" {
		return nil, shared.Invalidf("customer required")
	}
	return s.repo.ListSales(ctx, ListSalesRequest{Status: StatusCompleted, CustomerID: customerID, Limit: limit, Offset: offset})
}

// ============================================================================
// PAYMENT OPERATIONS
// ============================================================================

// Payments returns the payment schedule of a sale.
func (s *Service) Payments(ctx context.Context, saleID string) ([]Payment, error) {
	return s.repo.ListPayments(ctx, saleID)
}

// MarkPaymentPaid settles one open installment together with its financial entry.
func (s *Service) MarkPaymentPaid(ctx context.Context, paymentID string) (Payment, error) {
	var payment Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		payment, err = tx.LockPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status != installments.StatusPending && payment.Status != installments.StatusOverdue {
			return shared.InvalidStatef("payment is %s", payment.Status)
		}
		payment.Status = installments.StatusPaid
		if err := tx.SetPaymentStatus(ctx, paymentID, payment.Status); err != nil {
			return err
		}
		_, err = tx.MarkPaymentEntryPaid(ctx, paymentID)
		return err
	})
	if err != nil {
		return Payment{}, shared.Observe(s.metrics, "sales", "mark_paid", err)
	}
	s.record(ctx, "sale:payment_paid", payment.SaleID, map[string]any{"payment_id": payment.ID, "amount": payment.Amount.StringFixed(2)})
	return payment, shared.Observe(s.metrics, "sales", "mark_paid", nil)
}

// SweepOverdue flags pending payments and financial entries whose due date is
// before today. Both tables move in one transaction.
func (s *Service) SweepOverdue(ctx context.Context) (payments, entries int64, err error) {
	today := installments.DateOf(s.now().UTC())
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		if payments, err = tx.MarkOverduePayments(ctx, today); err != nil {
			return err
		}
		entries, err = tx.MarkOverdueEntries(ctx, today)
		return err
	})
	if err != nil {
		return 0, 0, shared.Observe(s.metrics, "sales", "sweep_overdue", err)
	}
	return payments, entries, shared.Observe(s.metrics, "sales", "sweep_overdue", nil)
}

// ============================================================================
// HELPERS
// ============================================================================

// fill resolves the customer snapshot, snapshots product names and prices and prices the cart.
func (s *Service) fill(ctx context.Context, tx TxRepository, sale *Sale, customerName string, inputs []ItemInput) error {
	name := strings.TrimSpace(customerName)
	if sale.CustomerID != nil {
		resolved, err := tx.CustomerName(ctx, *sale.CustomerID)
		if err != nil {
			return err
		}
		name = resolved
	}
	if name == "" {
		name = DefaultCustomerName
	}
	sale.CustomerName = name

	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if in.ProductID == "" {
			return shared.Invalidf("item without product")
		}
		ids = append(ids, in.ProductID)
	}
	products, err := tx.LookupProducts(ctx, ids)
	if err != nil {
		return err
	}
	items := make([]Item, 0, len(inputs))
	lines := make([]pricing.Line, 0, len(inputs))
	for _, in := range inputs {
		product, ok := products[in.ProductID]
		if !ok {
			return shared.NotFoundf("product %s", in.ProductID)
		}
		if !product.Active {
			return shared.InvalidStatef("product %s is inactive", product.Name)
		}
		price := product.Price
		if in.Price != nil {
			price = in.Price.Round(2)
		}
		items = append(items, Item{SaleID: sale.ID, ProductID: in.ProductID, ProductName: product.Name, Quantity: in.Quantity, Price: price})
		lines = append(lines, pricing.Line{Price: price, Quantity: in.Quantity})
	}
	totals, err := pricing.Compute(lines, sale.DiscountType, sale.DiscountValue, sale.Freight)
	if err != nil {
		return err
	}
	sale.Items = items
	sale.Subtotal = totals.Subtotal
	sale.Discount = totals.Discount
	sale.Total = totals.Total
	return nil
}

// settle deducts stock, replaces the payment schedule, consumes credit and books receivables.
func (s *Service) settle(ctx context.Context, tx TxRepository, sale *Sale, st Settlement, now time.Time) error {
	anchor := installments.DateOf(now)
	p, err := planSettlement(sale.Total, st, anchor)
	if err != nil {
		return err
	}
	if p.credit.IsPositive() && sale.CustomerID == nil {
		return fmt.Errorf("%w: paying with credit requires a customer", shared.ErrMissingCustomer)
	}

	stock := make([]inventory.Item, 0, len(sale.Items))
	for _, it := range sale.Items {
		stock = append(stock, inventory.Item{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	ref := inventory.Ref{Module: inventory.RefSale, ID: sale.ID, Note: "Venda #" + finance.ShortID(sale.ID)}
	if _, err := inventory.Deduct(ctx, tx, stock, ref); err != nil {
		return err
	}
	if err := tx.DeletePayments(ctx, sale.ID); err != nil {
		return err
	}

	var payments []Payment
	if p.credit.IsPositive() {
		if _, err := credit.Liquidate(ctx, tx, *sale.CustomerID, p.credit); err != nil {
			return err
		}
		payments = append(payments, Payment{
			Amount:        p.credit,
			DueDate:       anchor,
			PaymentMethod: installments.MethodStoreCredit,
			Status:        installments.StatusPaid,
		})
	}
	for _, inst := range p.schedule {
		payments = append(payments, Payment{
			Amount:        inst.Amount,
			DueDate:       inst.DueDate,
			PaymentMethod: inst.Method,
			Status:        inst.Status,
		})
	}
	for i := range payments {
		payments[i].ID = uuid.NewString()
		payments[i].SaleID = sale.ID
		payments[i].Seq = i
		payments[i].CreatedAt = now
		if err := tx.InsertPayment(ctx, payments[i]); err != nil {
			return err
		}
		if payments[i].PaymentMethod == installments.MethodStoreCredit {
			continue
		}
		entry := finance.SaleReceipt(sale.ID, payments[i].ID, payments[i].Amount, payments[i].DueDate, payments[i].PaymentMethod, payments[i].Status, now)
		if err := tx.InsertEntry(ctx, entry); err != nil {
			return err
		}
	}

	sale.PaymentMethod, sale.Installments = p.summary()
	sale.Status = StatusCompleted
	sale.UpdatedAt = now
	if payments == nil {
		payments = []Payment{}
	}
	sale.Payments = payments
	return tx.UpdateSale(ctx, *sale)
}

// withCreditLock holds the customer's credit lock when st may consume credit.
func (s *Service) withCreditLock(ctx context.Context, customerID *string, st *Settlement, fn func(context.Context) error) error {
	if s.credits == nil || customerID == nil || st == nil || !usesCredit(*st) {
		return fn(ctx)
	}
	return s.credits.Locked(ctx, *customerID, fn)
}

func usesCredit(st Settlement) bool {
	if st.CreditAmount.IsPositive() {
		return true
	}
	if len(st.Payments) == 0 {
		m, err := installments.ParseMethod(st.PaymentMethod)
		return err == nil && m == installments.MethodStoreCredit
	}
	for _, p := range st.Payments {
		if m, err := installments.ParseMethod(p.PaymentMethod); err == nil && m == installments.MethodStoreCredit {
			return true
		}
	}
	return false
}

func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *Service) record(ctx context.Context, action, saleID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "sale", EntityID: saleID, Meta: meta})
}
