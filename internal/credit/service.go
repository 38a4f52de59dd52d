package credit

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/engffsantos/easyStock360/internal/platform/cache"
	"github.com/engffsantos/easyStock360/internal/shared"
)

// RepositoryPort abstracts lot persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListLots(ctx context.Context, customerID string) ([]Lot, error)
	SumBalance(ctx context.Context, customerID string) (decimal.Decimal, error)
	CustomerExists(ctx context.Context, customerID string) (bool, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service exposes the customer credit ledger.
type Service struct {
	repo    RepositoryPort
	cache   *cache.JSONCache
	locker  *cache.Locker
	audit   AuditPort
	metrics shared.OperationObserver
	now     func() time.Time
}

// NewService builds Service. cache and locker may be nil.
func NewService(repo RepositoryPort, balances *cache.JSONCache, locker *cache.Locker, audit AuditPort, metrics shared.OperationObserver) *Service {
	return &Service{repo: repo, cache: balances, locker: locker, audit: audit, metrics: metrics, now: time.Now}
}

// Balance returns the customer's available credit.
func (s *Service) Balance(ctx context.Context, customerID string) (decimal.Decimal, error) {
	if err := s.ensureCustomer(ctx, customerID); err != nil {
		return decimal.Zero, err
	}
	var balance decimal.Decimal
	err := s.cache.FetchJSON(ctx, shared.CustomerCreditCacheKey(customerID), &balance, func(ctx context.Context) (any, error) {
		return s.repo.SumBalance(ctx, customerID)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// Lots lists the customer's lots, oldest first.
func (s *Service) Lots(ctx context.Context, customerID string) ([]Lot, error) {
	if err := s.ensureCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.ListLots(ctx, customerID)
}

// Locked runs fn while holding the customer's credit lock and drops the cached balance afterwards.
// Every writer of a customer's lots goes through it.
func (s *Service) Locked(ctx context.Context, customerID string, fn func(context.Context) error) error {
	err := s.locker.WithLock(ctx, shared.CustomerCreditLockKey(customerID), fn)
	if err == nil {
		_ = s.cache.Invalidate(ctx, shared.CustomerCreditCacheKey(customerID))
	}
	return err
}

// Liquidate consumes credit FIFO outside of a sale.
func (s *Service) Liquidate(ctx context.Context, customerID string, amount decimal.Decimal) (Receipt, error) {
	if customerID == "" {
		return Receipt{}, shared.ErrMissingCustomer
	}
	var receipt Receipt
	err := s.Locked(ctx, customerID, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			if err := tx.EnsureCustomer(ctx, customerID); err != nil {
				return err
			}
			var err error
			receipt, err = Liquidate(ctx, tx, customerID, amount)
			return err
		})
	})
	if err != nil {
		return Receipt{}, shared.Observe(s.metrics, "credit", "liquidate", err)
	}
	s.record(ctx, "credit:liquidate", customerID, map[string]any{"amount": amount.StringFixed(2), "new_balance": receipt.NewBalance.StringFixed(2), "lots": len(receipt.Used)})
	return receipt, shared.Observe(s.metrics, "credit", "liquidate", nil)
}

// Grant mints an administrative lot.
func (s *Service) Grant(ctx context.Context, customerID string, input GrantInput) (Lot, error) {
	if customerID == "" {
		return Lot{}, shared.ErrMissingCustomer
	}
	note := strings.TrimSpace(input.Note)
	if note == "" {
		note = "Crédito manual"
	}
	var lot Lot
	err := s.Locked(ctx, customerID, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			if err := tx.EnsureCustomer(ctx, customerID); err != nil {
				return err
			}
			var err error
			lot, err = Issue(ctx, tx, customerID, nil, input.Amount, note, s.now().UTC())
			return err
		})
	})
	if err != nil {
		return Lot{}, shared.Observe(s.metrics, "credit", "grant", err)
	}
	s.record(ctx, "credit:grant", customerID, map[string]any{"credit_id": lot.ID, "amount": lot.Amount.StringFixed(2)})
	return lot, shared.Observe(s.metrics, "credit", "grant", nil)
}

func (s *Service) ensureCustomer(ctx context.Context, customerID string) error {
	if customerID == "" {
		return shared.ErrMissingCustomer
	}
	ok, err := s.repo.CustomerExists(ctx, customerID)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NotFoundf("customer %s", customerID)
	}
	return nil
}

func (s *Service) record(ctx context.Context, action, customerID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "customer_credit", EntityID: customerID, Meta: meta})
}
