package returns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/engffsantos/easyStock360/internal/credit"
	"github.com/engffsantos/easyStock360/internal/finance"
	"github.com/engffsantos/easyStock360/internal/inventory"
	"github.com/engffsantos/easyStock360/internal/sales"
	"github.com/engffsantos/easyStock360/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetReturn(ctx context.Context, id string) (Return, error)
	ListReturns(ctx context.Context, filter ListFilter) ([]Return, error)
}

// SaleReader resolves the customer of a sale before its row is locked.
type SaleReader interface {
	GetSale(ctx context.Context, id string) (sales.Sale, error)
}

// CreditLocker serialises writers of a customer's credit lots.
type CreditLocker interface {
	Locked(ctx context.Context, customerID string, fn func(context.Context) error) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service executes returns against sales.
type Service struct {
	repo    RepositoryPort
	sales   SaleReader
	credits CreditLocker
	audit   AuditPort
	metrics shared.OperationObserver
	now     func() time.Time
}

// NewService builds Service. credits may be nil.
func NewService(repo RepositoryPort, sales SaleReader, credits CreditLocker, audit AuditPort, metrics shared.OperationObserver) *Service {
	return &Service{repo: repo, sales: sales, credits: credits, audit: audit, metrics: metrics, now: time.Now}
}

// Create validates the requested quantities against what is still returnable, restocks
// the items and either books a refund expense or mints store credit.
func (s *Service) Create(ctx context.Context, req CreateReturnRequest) (Return, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return Return{}, shared.Invalidf("returns: reason required")
	}
	if req.SaleID == "" {
		return Return{}, shared.Invalidf("returns: sale required")
	}
	if len(req.Items) == 0 {
		return Return{}, shared.Invalidf("returns: at least one item is required")
	}
	resolution, err := ParseResolution(req.Resolution)
	if err != nil {
		return Return{}, err
	}

	sale, err := s.sales.GetSale(ctx, req.SaleID)
	if err != nil {
		return Return{}, err
	}
	if resolution == ResolutionCredit && sale.CustomerID == nil {
		return Return{}, fmt.Errorf("%w: store credit requires a customer on the sale", shared.ErrMissingCustomer)
	}

	now := s.now().UTC()
	ret := Return{
		ID:         uuid.NewString(),
		SaleID:     req.SaleID,
		Reason:     reason,
		Resolution: resolution,
		Status:     StatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	run := func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			return s.execute(ctx, tx, &ret, req.Items, now)
		})
	}
	if resolution == ResolutionCredit && s.credits != nil {
		err = s.credits.Locked(ctx, *sale.CustomerID, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return Return{}, shared.Observe(s.metrics, "returns", "create", err)
	}
	s.record(ctx, "return:create", ret.ID, map[string]any{
		"sale_id":    ret.SaleID,
		"resolution": ret.Resolution,
		"total":      ret.Total.StringFixed(2),
	})
	return ret, shared.Observe(s.metrics, "returns", "create", nil)
}

func (s *Service) execute(ctx context.Context, tx TxRepository, ret *Return, inputs []ItemInput, now time.Time) error {
	sale, err := tx.LockSale(ctx, ret.SaleID)
	if err != nil {
		return err
	}
	if sale.Status == sales.StatusQuote {
		return shared.InvalidStatef("returns: sale %s is still a quote", sale.ID)
	}
	ret.CustomerID = sale.CustomerID
	if ret.Resolution == ResolutionCredit && sale.CustomerID == nil {
		return fmt.Errorf("%w: store credit requires a customer on the sale", shared.ErrMissingCustomer)
	}

	sold, err := tx.SoldLines(ctx, sale.ID)
	if err != nil {
		return err
	}
	returned, err := tx.ReturnedQuantities(ctx, sale.ID)
	if err != nil {
		return err
	}
	ret.Items, ret.Total, err = buildItems(ret.ID, inputs, sold, returned)
	if err != nil {
		return err
	}

	stock := make([]inventory.Item, 0, len(ret.Items))
	for _, it := range ret.Items {
		stock = append(stock, inventory.Item{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	ref := inventory.Ref{Module: inventory.RefReturn, ID: ret.ID, Note: "Devolução da venda #" + finance.ShortID(sale.ID)}
	if _, err := inventory.Restock(ctx, tx, stock, ref); err != nil {
		return err
	}

	if ret.Resolution == ResolutionCredit {
		ret.Status = StatusCompleted
	}
	if err := tx.InsertReturn(ctx, *ret); err != nil {
		return err
	}
	if !ret.Total.IsPositive() {
		return nil
	}
	switch ret.Resolution {
	case ResolutionRefund:
		return tx.InsertEntry(ctx, finance.ReturnRefund(sale.ID, ret.ID, ret.Total, now))
	case ResolutionCredit:
		returnID := ret.ID
		note := "Devolução da venda #" + finance.ShortID(sale.ID)
		_, err := credit.Issue(ctx, tx, *sale.CustomerID, &returnID, ret.Total, note, now)
		return err
	}
	return nil
}

// buildItems checks every line against the returnable quantity and prices the return.
// Repeated products are checked on their combined quantity.
func buildItems(returnID string, inputs []ItemInput, sold map[string]SoldLine, returned map[string]int) ([]Item, decimal.Decimal, error) {
	requested := map[string]int{}
	items := make([]Item, 0, len(inputs))
	total := decimal.Zero
	for _, in := range inputs {
		line, ok := sold[in.ProductID]
		if !ok {
			return nil, decimal.Zero, &InvalidQuantityError{ProductID: in.ProductID, MaxAllowed: 0}
		}
		allowed := line.Quantity - returned[in.ProductID] - requested[in.ProductID]
		if allowed < 0 {
			allowed = 0
		}
		if in.Quantity <= 0 || in.Quantity > allowed {
			return nil, decimal.Zero, &InvalidQuantityError{ProductID: in.ProductID, MaxAllowed: allowed}
		}
		requested[in.ProductID] += in.Quantity

		price := line.Price
		if in.Price != nil {
			if in.Price.IsNegative() {
				return nil, decimal.Zero, shared.Invalidf("returns: price must be >= 0")
			}
			price = in.Price.Round(2)
		}
		items = append(items, Item{
			ReturnID:    returnID,
			ProductID:   in.ProductID,
			ProductName: line.ProductName,
			Quantity:    in.Quantity,
			Price:       price,
		})
		total = total.Add(price.Mul(decimal.NewFromInt(int64(in.Quantity))))
	}
	return items, total.Round(2), nil
}

// UpdateStatus moves an open return to CONCLUIDA or CANCELADA. Cancelling takes the
// restocked units back out and voids the open refund entry.
func (s *Service) UpdateStatus(ctx context.Context, id string, raw string) (Return, error) {
	status, err := ParseStatus(raw)
	if err != nil {
		return Return{}, err
	}
	var (
		ret  Return
		from Status
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		ret, err = tx.LockReturn(ctx, id)
		if err != nil {
			return err
		}
		from = ret.Status
		if !CanTransition(ret.Status, status) {
			return shared.InvalidStatef("returns: cannot move from %s to %s", ret.Status, status)
		}
		if status == StatusCancelled {
			stock := make([]inventory.Item, 0, len(ret.Items))
			for _, it := range ret.Items {
				stock = append(stock, inventory.Item{ProductID: it.ProductID, Quantity: it.Quantity})
			}
			ref := inventory.Ref{Module: inventory.RefReturn, ID: ret.ID, Note: "Devolução cancelada"}
			if _, err := inventory.Deduct(ctx, tx, stock, ref); err != nil {
				return err
			}
			if _, err := tx.CancelOpenReturnEntries(ctx, ret.ID); err != nil {
				return err
			}
		}
		ret.Status = status
		ret.UpdatedAt = s.now().UTC()
		return tx.SetReturnStatus(ctx, ret)
	})
	if err != nil {
		return Return{}, shared.Observe(s.metrics, "returns", "update_status", err)
	}
	s.record(ctx, "return:update_status", ret.ID, map[string]any{"from": from, "to": ret.Status})
	return ret, shared.Observe(s.metrics, "returns", "update_status", nil)
}

// Get returns a return with its items.
func (s *Service) Get(ctx context.Context, id string) (Return, error) {
	return s.repo.GetReturn(ctx, id)
}

// List returns headers, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Return, error) {
	return s.repo.ListReturns(ctx, filter)
}

func (s *Service) record(ctx context.Context, action, returnID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "return", EntityID: returnID, Meta: meta})
}
