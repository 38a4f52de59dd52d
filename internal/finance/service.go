package finance

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/engffsantos/easyStock360/internal/installments"
	"github.com/engffsantos/easyStock360/internal/shared"
)

// RepositoryPort defines data access methods for financial entries.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetEntry(ctx context.Context, id string) (Entry, error)
	ListEntries(ctx context.Context, filter ListFilter) ([]Entry, error)
}

// Service handles the financial entry lifecycle outside of sales and returns.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create registers a manual entry as PENDENTE.
func (s *Service) Create(ctx context.Context, input CreateEntryInput) (Entry, error) {
	if input.Type != TypeIncome && input.Type != TypeExpense {
		return Entry{}, shared.Invalidf("unknown entry type %q", input.Type)
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return Entry{}, shared.Invalidf("description required")
	}
	if !input.Amount.IsPositive() {
		return Entry{}, shared.Invalidf("amount must be positive")
	}
	due, err := time.Parse(time.DateOnly, input.DueDate)
	if err != nil {
		return Entry{}, shared.Invalidf("due date must be YYYY-MM-DD")
	}
	method, err := installments.ParseMethod(input.PaymentMethod)
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{
		ID:            uuid.NewString(),
		Type:          input.Type,
		Description:   description,
		Amount:        input.Amount.Round(2),
		DueDate:       due,
		PaymentMethod: method,
		Status:        installments.StatusPending,
		CreatedAt:     s.now().UTC(),
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.InsertEntry(ctx, entry)
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Get returns one entry.
func (s *Service) Get(ctx context.Context, id string) (Entry, error) {
	return s.repo.GetEntry(ctx, id)
}

// List returns entries matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	return s.repo.ListEntries(ctx, filter)
}

// MarkPaid settles an open entry. Entries mirroring a sale payment are settled through the sale.
func (s *Service) MarkPaid(ctx context.Context, id string) (Entry, error) {
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = tx.LockEntry(ctx, id)
		if err != nil {
			return err
		}
		if entry.PaymentID != nil {
			return shared.InvalidStatef("entry mirrors sale payment %s", *entry.PaymentID)
		}
		if entry.Status != installments.StatusPending && entry.Status != installments.StatusOverdue {
			return shared.InvalidStatef("entry is %s", entry.Status)
		}
		entry.Status = installments.StatusPaid
		return tx.SetEntryStatus(ctx, id, entry.Status)
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Delete removes an unpaid expense.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.LockEntry(ctx, id)
		if err != nil {
			return err
		}
		if entry.Type != TypeExpense {
			return shared.InvalidStatef("only expenses can be deleted")
		}
		if entry.Status == installments.StatusPaid {
			return shared.InvalidStatef("paid entries cannot be deleted")
		}
		return tx.DeleteEntry(ctx, id)
	})
}
