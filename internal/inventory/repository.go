package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/engffsantos/easyStock360/internal/platform/db"
	"github.com/engffsantos/easyStock360/internal/shared"
)

// Repository persists catalog and stock data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the stock operations that must run inside a caller's transaction.
type TxRepository interface {
	InsertProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, p Product) error
	LockProducts(ctx context.Context, ids []string) (map[string]Product, error)
	SetQuantity(ctx context.Context, productID string, quantity int) error
	InsertMovement(ctx context.Context, m Movement) error
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository binds stock operations to an open transaction.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

// WithTx executes the callback inside repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewTxRepository(tx))
	})
}

const productColumns = `id, name, sku, brand, kind, price, cost, quantity, min_stock, active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Brand, &p.Kind, &p.Price, &p.Cost, &p.Quantity, &p.MinStock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func collectProducts(rows pgx.Rows) (map[string]Product, error) {
	defer rows.Close()
	products := make(map[string]Product)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

// GetProduct loads a product by id.
func (r *Repository) GetProduct(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.NotFoundf("product %s", id)
	}
	return p, err
}

// GetProducts loads the given products without locking them.
func (r *Repository) GetProducts(ctx context.Context, ids []string) (map[string]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// ListProducts returns catalog rows ordered by name.
func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products
WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR sku ILIKE '%' || $1 || '%')
  AND (NOT $2 OR active)
  AND (NOT $3 OR quantity <= min_stock)
ORDER BY name ASC, id ASC
LIMIT $4 OFFSET $5`, filter.Search, filter.ActiveOnly, filter.LowStock, limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ListMovements returns the stock card of a product, oldest first.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, delta, balance_after, ref_module, ref_id, note, created_at
FROM stock_movements
WHERE product_id=$1
ORDER BY created_at ASC, id ASC
LIMIT $2`, filter.ProductID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	movements := []Movement{}
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Delta, &m.BalanceAfter, &m.RefModule, &m.RefID, &m.Note, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r *txRepository) InsertProduct(ctx context.Context, p Product) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO products (id, name, sku, brand, kind, price, cost, quantity, min_stock, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)`, p.ID, p.Name, p.SKU, p.Brand, p.Kind, p.Price, p.Cost, p.Quantity, p.MinStock, p.Active, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", shared.TranslatePgError(err))
	}
	return nil
}

func (r *txRepository) UpdateProduct(ctx context.Context, p Product) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET name=$2, sku=$3, brand=$4, kind=$5, price=$6, cost=$7, min_stock=$8, active=$9, updated_at=$10
WHERE id=$1`, p.ID, p.Name, p.SKU, p.Brand, p.Kind, p.Price, p.Cost, p.MinStock, p.Active, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update product: %w", shared.TranslatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf("product %s", p.ID)
	}
	return nil
}

func (r *txRepository) LockProducts(ctx context.Context, ids []string) (map[string]Product, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (r *txRepository) SetQuantity(ctx context.Context, productID string, quantity int) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET quantity=$2, updated_at=NOW() WHERE id=$1`, productID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf("product %s", productID)
	}
	return nil
}

func (r *txRepository) InsertMovement(ctx context.Context, m Movement) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_movements (product_id, delta, balance_after, ref_module, ref_id, note, created_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW())`, m.ProductID, m.Delta, m.BalanceAfter, m.RefModule, m.RefID, m.Note)
	return err
}
