package inventory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engffsantos/easyStock360/internal/platform/httpx"
	"github.com/engffsantos/easyStock360/internal/shared"
)

type memoryRepo struct {
	products  map[string]Product
	movements []Movement
	nextID    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[string]Product)}
}

// WithTx applies the callback on a copy and commits only when it succeeds.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := make(map[string]Product, len(r.products))
	for k, v := range r.products {
		snapshot[k] = v
	}
	movements := len(r.movements)
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.products = snapshot
		r.movements = r.movements[:movements]
		return err
	}
	return nil
}

func (r *memoryRepo) GetProduct(ctx context.Context, id string) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, shared.NotFoundf("product %s", id)
	}
	return p, nil
}

func (r *memoryRepo) GetProducts(ctx context.Context, ids []string) (map[string]Product, error) {
	out := make(map[string]Product)
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *memoryRepo) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	out := []Product{}
	for _, p := range r.products {
		if filter.LowStock && !p.LowStock() {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryRepo) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	out := []Movement{}
	for _, m := range r.movements {
		if m.ProductID == filter.ProductID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (tx *memoryTx) InsertProduct(ctx context.Context, p Product) error {
	for _, existing := range tx.repo.products {
		if existing.SKU == p.SKU {
			return shared.ErrConflict
		}
	}
	tx.repo.products[p.ID] = p
	return nil
}

func (tx *memoryTx) UpdateProduct(ctx context.Context, p Product) error {
	if _, ok := tx.repo.products[p.ID]; !ok {
		return shared.NotFoundf("product %s", p.ID)
	}
	tx.repo.products[p.ID] = p
	return nil
}

func (tx *memoryTx) LockProducts(ctx context.Context, ids []string) (map[string]Product, error) {
	return tx.repo.GetProducts(ctx, ids)
}

func (tx *memoryTx) SetQuantity(ctx context.Context, productID string, quantity int) error {
	p, ok := tx.repo.products[productID]
	if !ok {
		return shared.NotFoundf("product %s", productID)
	}
	p.Quantity = quantity
	tx.repo.products[productID] = p
	return nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, m Movement) error {
	tx.repo.nextID++
	m.ID = tx.repo.nextID
	tx.repo.movements = append(tx.repo.movements, m)
	return nil
}

func seedProduct(t *testing.T, svc *Service, name, sku string, qty int) Product {
	t.Helper()
	p, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:     name,
		SKU:      sku,
		Price:    decimal.RequireFromString("10.00"),
		Quantity: qty,
	})
	require.NoError(t, err)
	return p
}

func TestCreateProductPostsOpeningStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	p := seedProduct(t, svc, "Caneta", "CAN-01", 12)
	require.Equal(t, 12, repo.products[p.ID].Quantity)

	movements, err := svc.Movements(context.Background(), MovementFilter{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, 12, movements[0].Delta)
	assert.Equal(t, 12, movements[0].BalanceAfter)
	assert.Equal(t, RefAdjustment, movements[0].RefModule)

	_, err = svc.CreateProduct(context.Background(), CreateProductInput{Name: "Outra", SKU: "CAN-01", Price: decimal.Zero})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestDeductAllOrNothing(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	a := seedProduct(t, svc, "A", "A-1", 5)
	b := seedProduct(t, svc, "B", "B-1", 1)

	err := repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		_, err := Deduct(ctx, tx, []Item{{ProductID: a.ID, Quantity: 3}, {ProductID: b.ID, Quantity: 2}}, Ref{Module: RefSale, ID: "s1"})
		return err
	})
	require.ErrorIs(t, err, shared.ErrOutOfStock)

	var oos *OutOfStockError
	require.True(t, errors.As(err, &oos))
	require.Len(t, oos.Shortfalls, 1)
	assert.Equal(t, Shortfall{ProductID: b.ID, ProductName: "B", Available: 1, Requested: 2}, oos.Shortfalls[0])

	assert.Equal(t, 5, repo.products[a.ID].Quantity)
	assert.Equal(t, 1, repo.products[b.ID].Quantity)
}

func TestDeductAggregatesRepeatedProducts(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	a := seedProduct(t, svc, "A", "A-1", 5)

	err := repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		_, err := Deduct(ctx, tx, []Item{{ProductID: a.ID, Quantity: 3}, {ProductID: a.ID, Quantity: 3}}, Ref{Module: RefSale, ID: "s1"})
		return err
	})
	var oos *OutOfStockError
	require.True(t, errors.As(err, &oos))
	assert.Equal(t, 6, oos.Shortfalls[0].Requested)

	err = repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		movements, err := Deduct(ctx, tx, []Item{{ProductID: a.ID, Quantity: 2}, {ProductID: a.ID, Quantity: 3}}, Ref{Module: RefSale, ID: "s2"})
		require.Len(t, movements, 1)
		assert.Equal(t, -5, movements[0].Delta)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 0, repo.products[a.ID].Quantity)
}

func TestRestockAndUnknownProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	a := seedProduct(t, svc, "A", "A-1", 0)

	err := repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		_, err := Restock(ctx, tx, []Item{{ProductID: a.ID, Quantity: 4}}, Ref{Module: RefReturn, ID: "r1"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 4, repo.products[a.ID].Quantity)

	err = repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		_, err := Restock(ctx, tx, []Item{{ProductID: "missing", Quantity: 1}}, Ref{Module: RefReturn, ID: "r1"})
		return err
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCheckAvailabilityDryRun(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	a := seedProduct(t, svc, "A", "A-1", 2)

	missing, err := svc.CheckAvailability(ctx, []Item{{ProductID: a.ID, Quantity: 2}})
	require.NoError(t, err)
	assert.Empty(t, missing)

	missing, err = svc.CheckAvailability(ctx, []Item{{ProductID: a.ID, Quantity: 3}})
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, 2, missing[0].Available)
	assert.Equal(t, 2, repo.products[a.ID].Quantity)

	_, err = svc.CheckAvailability(ctx, []Item{{ProductID: a.ID, Quantity: 0}})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = svc.CheckAvailability(ctx, nil)
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestAdjustNegativeStockGuard(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	a := seedProduct(t, svc, "A", "A-1", 1)

	_, err := svc.Adjust(ctx, AdjustmentInput{ProductID: a.ID, Delta: -2, Note: "perda"})
	require.ErrorIs(t, err, shared.ErrOutOfStock)

	m, err := svc.Adjust(ctx, AdjustmentInput{ProductID: a.ID, Delta: -1, Note: "perda"})
	require.NoError(t, err)
	assert.Equal(t, 0, m.BalanceAfter)

	_, err = svc.Adjust(ctx, AdjustmentInput{ProductID: a.ID})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestUpdateProductKeepsStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	a := seedProduct(t, svc, "Caneta", "CAN-01", 7)
	seedProduct(t, svc, "Lapis", "LAP-01", 1)

	updated, err := svc.UpdateProduct(ctx, a.ID, UpdateProductInput{
		Name:     " Caneta Azul ",
		SKU:      "CAN-02",
		Price:    decimal.RequireFromString("12.345"),
		MinStock: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Caneta Azul", updated.Name)
	assert.Equal(t, "12.35", updated.Price.StringFixed(2))
	assert.Equal(t, 7, updated.Quantity)
	assert.True(t, updated.Active)
	assert.Equal(t, updated, repo.products[a.ID])

	_, err = svc.UpdateProduct(ctx, a.ID, UpdateProductInput{Name: "x", SKU: "y", Price: decimal.RequireFromString("-1")})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = svc.UpdateProduct(ctx, "missing", UpdateProductInput{Name: "x", SKU: "y"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeactivateProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	a := seedProduct(t, svc, "Caneta", "CAN-01", 3)

	p, err := svc.Deactivate(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, p.Active)
	assert.False(t, repo.products[a.ID].Active)
	assert.Equal(t, 3, repo.products[a.ID].Quantity)

	movements, err := svc.Movements(ctx, MovementFilter{ProductID: a.ID})
	require.NoError(t, err)
	assert.Len(t, movements, 1)

	active := true
	p, err = svc.UpdateProduct(ctx, a.ID, UpdateProductInput{Name: "Caneta", SKU: "CAN-01", Active: &active})
	require.NoError(t, err)
	assert.True(t, p.Active)

	_, err = svc.Deactivate(ctx, "missing")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProductRoutes(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	a := seedProduct(t, svc, "Caneta", "CAN-01", 3)

	r := chi.NewRouter()
	NewHandler(nil, svc, httpx.NewValidator()).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/availability", strings.NewReader(`{"items":[{"productId":"abc","quantity":1}]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/products/"+a.ID, strings.NewReader(`{"name":"Caneta Azul","sku":"CAN-01","price":"9.90","cost":"4.00","minStock":1}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Caneta Azul", repo.products[a.ID].Name)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/products/"+a.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, repo.products[a.ID].Active)
}
