package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/engffsantos/easyStock360/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetProduct(ctx context.Context, id string) (Product, error)
	GetProducts(ctx context.Context, ids []string) (map[string]Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates catalog and stock operations.
type Service struct {
	repo    RepositoryPort
	audit   AuditPort
	metrics shared.OperationObserver
	now     func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, metrics shared.OperationObserver) *Service {
	return &Service{repo: repo, audit: audit, metrics: metrics, now: time.Now}
}

// CreateProduct registers a product. Opening stock is posted as an adjustment movement.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.SKU = strings.TrimSpace(input.SKU)
	if input.Name == "" || input.SKU == "" {
		return Product{}, shared.Invalidf("inventory: name and sku required")
	}
	if input.Price.IsNegative() || input.Cost.IsNegative() {
		return Product{}, shared.Invalidf("inventory: price and cost must not be negative")
	}
	if input.Quantity < 0 || input.MinStock < 0 {
		return Product{}, shared.Invalidf("inventory: quantity and min stock must not be negative")
	}
	now := s.now().UTC()
	product := Product{
		ID:        uuid.NewString(),
		Name:      input.Name,
		SKU:       input.SKU,
		Brand:     strings.TrimSpace(input.Brand),
		Kind:      strings.TrimSpace(input.Kind),
		Price:     input.Price.Round(2),
		Cost:      input.Cost.Round(2),
		MinStock:  input.MinStock,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.InsertProduct(ctx, product); err != nil {
			return err
		}
		if input.Quantity == 0 {
			return nil
		}
		_, err := Restock(ctx, tx, []Item{{ProductID: product.ID, Quantity: input.Quantity}}, Ref{Module: RefAdjustment, ID: product.ID, Note: "opening stock"})
		return err
	})
	if err != nil {
		return Product{}, shared.Observe(s.metrics, "inventory", "create_product", err)
	}
	product.Quantity = input.Quantity
	s.record(ctx, "inventory:create_product", product.ID, map[string]any{"sku": product.SKU, "quantity": product.Quantity})
	return product, shared.Observe(s.metrics, "inventory", "create_product", nil)
}

// UpdateProduct edits catalog fields of an existing product.
func (s *Service) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.SKU = strings.TrimSpace(input.SKU)
	if id == "" {
		return Product{}, shared.Invalidf("inventory: product required")
	}
	if input.Name == "" || input.SKU == "" {
		return Product{}, shared.Invalidf("inventory: name and sku required")
	}
	if input.Price.IsNegative() || input.Cost.IsNegative() {
		return Product{}, shared.Invalidf("inventory: price and cost must not be negative")
	}
	if input.MinStock < 0 {
		return Product{}, shared.Invalidf("inventory: min stock must not be negative")
	}
	product, err := s.modify(ctx, id, func(p *Product) {
		p.Name = input.Name
		p.SKU = input.SKU
		p.Brand = strings.TrimSpace(input.Brand)
		p.Kind = strings.TrimSpace(input.Kind)
		p.Price = input.Price.Round(2)
		p.Cost = input.Cost.Round(2)
		p.MinStock = input.MinStock
		if input.Active != nil {
			p.Active = *input.Active
		}
	})
	if err != nil {
		return Product{}, shared.Observe(s.metrics, "inventory", "update_product", err)
	}
	s.record(ctx, "inventory:update_product", product.ID, map[string]any{"sku": product.SKU, "active": product.Active})
	return product, shared.Observe(s.metrics, "inventory", "update_product", nil)
}

// Deactivate hides a product from new sales. Its stock card and history stay intact.
func (s *Service) Deactivate(ctx context.Context, id string) (Product, error) {
	if id == "" {
		return Product{}, shared.Invalidf("inventory: product required")
	}
	product, err := s.modify(ctx, id, func(p *Product) { p.Active = false })
	if err != nil {
		return Product{}, shared.Observe(s.metrics, "inventory", "deactivate_product", err)
	}
	s.record(ctx, "inventory:deactivate_product", product.ID, map[string]any{"sku": product.SKU})
	return product, shared.Observe(s.metrics, "inventory", "deactivate_product", nil)
}

func (s *Service) modify(ctx context.Context, id string, apply func(*Product)) (Product, error) {
	var product Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockProducts(ctx, []string{id})
		if err != nil {
			return err
		}
		p, ok := locked[id]
		if !ok {
			return shared.NotFoundf("product %s", id)
		}
		apply(&p)
		p.UpdatedAt = s.now().UTC()
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		product = p
		return nil
	})
	return product, err
}

// GetProduct returns one product.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	if id == "" {
		return Product{}, shared.Invalidf("inventory: product required")
	}
	return s.repo.GetProduct(ctx, id)
}

// ListProducts lists the catalog.
func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.ListProducts(ctx, filter)
}

// CheckAvailability is a dry run of a deduction against unlocked rows.
func (s *Service) CheckAvailability(ctx context.Context, items []Item) ([]Shortfall, error) {
	order, wanted, err := aggregate(items)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.GetProducts(ctx, order)
	if err != nil {
		return nil, err
	}
	missing, err := shortfalls(order, wanted, products)
	if err != nil {
		return nil, err
	}
	if missing == nil {
		missing = []Shortfall{}
	}
	return missing, nil
}

// Adjust posts a manual stock correction which may be positive or negative.
func (s *Service) Adjust(ctx context.Context, input AdjustmentInput) (Movement, error) {
	if input.ProductID == "" {
		return Movement{}, shared.Invalidf("inventory: product required")
	}
	if input.Delta == 0 {
		return Movement{}, ErrInvalidQuantity
	}
	ref := Ref{Module: RefAdjustment, ID: input.ProductID, Note: strings.TrimSpace(input.Note)}
	items := []Item{{ProductID: input.ProductID, Quantity: abs(input.Delta)}}
	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var (
			movements []Movement
			err       error
		)
		if input.Delta > 0 {
			movements, err = Restock(ctx, tx, items, ref)
		} else {
			movements, err = Deduct(ctx, tx, items, ref)
		}
		if err != nil {
			return err
		}
		movement = movements[0]
		return nil
	})
	if err != nil {
		return Movement{}, shared.Observe(s.metrics, "inventory", "adjust", err)
	}
	s.record(ctx, "inventory:adjust", input.ProductID, map[string]any{"delta": input.Delta, "balance_after": movement.BalanceAfter, "note": ref.Note})
	return movement, shared.Observe(s.metrics, "inventory", "adjust", nil)
}

// Movements returns the stock card of one product.
func (s *Service) Movements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	if filter.ProductID == "" {
		return nil, shared.Invalidf("inventory: product required")
	}
	if _, err := s.repo.GetProduct(ctx, filter.ProductID); err != nil {
		return nil, err
	}
	return s.repo.ListMovements(ctx, filter)
}

func (s *Service) record(ctx context.Context, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "product",
		EntityID: entityID,
		Meta:     meta,
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
