package customers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/engffsantos/easyStock360/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, shared.Invalidf("customer name required")
	}
	customer := Customer{
		ID:        uuid.NewString(),
		Name:      name,
		CPFCNPJ:   normalizeDocument(req.CPFCNPJ),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return &customer, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateCustomerRequest) (*Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, shared.Invalidf("customer name required")
	}
	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	customer.Name = name
	customer.CPFCNPJ = normalizeDocument(req.CPFCNPJ)
	customer.Email = strings.TrimSpace(req.Email)
	customer.Phone = strings.TrimSpace(req.Phone)
	customer.Address = strings.TrimSpace(req.Address)
	if err := s.repo.Update(ctx, *customer); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return customer, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	if id == "" {
		return nil, shared.Invalidf("customer id required")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, error) {
	req.Search = strings.TrimSpace(req.Search)
	return s.repo.List(ctx, req)
}

// normalizeDocument keeps only digits; blank documents are stored as NULL.
func normalizeDocument(doc *string) *string {
	if doc == nil {
		return nil
	}
	var b strings.Builder
	for _, r := range *doc {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	out := b.String()
	return &out
}
