package returns

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/engffsantos/easyStock360/internal/credit"
	"github.com/engffsantos/easyStock360/internal/finance"
	"github.com/engffsantos/easyStock360/internal/inventory"
	"github.com/engffsantos/easyStock360/internal/platform/db"
	"github.com/engffsantos/easyStock360/internal/sales"
	"github.com/engffsantos/easyStock360/internal/shared"
)

// SaleRef is the part of a sale a return needs.
type SaleRef struct {
	ID         string
	CustomerID *string
	Status     sales.Status
}

// Repository persists returns in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository groups the writes of a return: restock, refund entry or credit lot, and the return rows.
type TxRepository interface {
	inventory.TxRepository
	finance.TxRepository
	credit.TxRepository

	LockSale(ctx context.Context, saleID string) (SaleRef, error)
	SoldLines(ctx context.Context, saleID string) (map[string]SoldLine, error)
	ReturnedQuantities(ctx context.Context, saleID string) (map[string]int, error)
	InsertReturn(ctx context.Context, ret Return) error
	LockReturn(ctx context.Context, id string) (Return, error)
	SetReturnStatus(ctx context.Context, ret Return) error
}

type (
	stockTx   = inventory.TxRepository
	financeTx = finance.TxRepository
	creditTx  = credit.TxRepository
)

type txRepo struct {
	stockTx
	financeTx
	creditTx
	tx pgx.Tx
}

// NewTxRepository binds return writes to tx.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepo{
		stockTx:   inventory.NewTxRepository(tx),
		financeTx: finance.NewTxRepository(tx),
		creditTx:  credit.NewTxRepository(tx),
		tx:        tx,
	}
}

// WithTx executes fn inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewTxRepository(tx))
	})
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const returnColumns = `id, sale_id, customer_id, reason, resolution, status, total, created_at, updated_at`

func scanReturn(row pgx.Row) (Return, error) {
	var ret Return
	err := row.Scan(&ret.ID, &ret.SaleID, &ret.CustomerID, &ret.Reason, &ret.Resolution, &ret.Status, &ret.Total, &ret.CreatedAt, &ret.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Return{}, shared.NotFoundf("return")
	}
	return ret, err
}

func listItems(ctx context.Context, q querier, returnID string) ([]Item, error) {
	rows, err := q.Query(ctx, `SELECT id, return_id, product_id, product_name, quantity, price
FROM return_items WHERE return_id=$1 ORDER BY id`, returnID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ReturnID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetReturn loads a return with its items.
func (r *Repository) GetReturn(ctx context.Context, id string) (Return, error) {
	ret, err := scanReturn(r.pool.QueryRow(ctx, `SELECT `+returnColumns+` FROM returns WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Return{}, shared.NotFoundf("return %s", id)
		}
		return Return{}, err
	}
	if ret.Items, err = listItems(ctx, r.pool, id); err != nil {
		return Return{}, err
	}
	return ret, nil
}

// ListReturns returns headers, newest first.
func (r *Repository) ListReturns(ctx context.Context, filter ListFilter) ([]Return, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	var saleID *string
	if filter.SaleID != "" {
		saleID = &filter.SaleID
	}
	rows, err := r.pool.Query(ctx, `SELECT `+returnColumns+` FROM returns
WHERE ($1::uuid IS NULL OR sale_id = $1::uuid)
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`, saleID, limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Return{}
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ret)
	}
	return out, rows.Err()
}

// ============================================================================
// TRANSACTIONAL WRITES
// ============================================================================

func (t *txRepo) LockSale(ctx context.Context, saleID string) (SaleRef, error) {
	var ref SaleRef
	err := t.tx.QueryRow(ctx, `SELECT id, customer_id, status FROM sales WHERE id=$1 FOR UPDATE`, saleID).
		Scan(&ref.ID, &ref.CustomerID, &ref.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return SaleRef{}, shared.NotFoundf("sale %s", saleID)
	}
	return ref, err
}

func (t *txRepo) SoldLines(ctx context.Context, saleID string) (map[string]SoldLine, error) {
	rows, err := t.tx.Query(ctx, `SELECT product_id, product_name, quantity, price FROM sale_items WHERE sale_id=$1 ORDER BY id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := map[string]SoldLine{}
	for rows.Next() {
		var l SoldLine
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Quantity, &l.Price); err != nil {
			return nil, err
		}
		if prev, ok := lines[l.ProductID]; ok {
			prev.Quantity += l.Quantity
			l = prev
		}
		lines[l.ProductID] = l
	}
	return lines, rows.Err()
}

func (t *txRepo) ReturnedQuantities(ctx context.Context, saleID string) (map[string]int, error) {
	rows, err := t.tx.Query(ctx, `SELECT ri.product_id, SUM(ri.quantity)
FROM return_items ri
JOIN returns r ON r.id = ri.return_id
WHERE r.sale_id=$1 AND r.status <> 'CANCELADA'
GROUP BY ri.product_id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var (
			productID string
			qty       int
		)
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, err
		}
		out[productID] = qty
	}
	return out, rows.Err()
}

func (t *txRepo) InsertReturn(ctx context.Context, ret Return) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO returns (id, sale_id, customer_id, reason, resolution, status, total, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		ret.ID, ret.SaleID, ret.CustomerID, ret.Reason, ret.Resolution, ret.Status, ret.Total, ret.CreatedAt, ret.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert return: %w", err)
	}
	batch := &pgx.Batch{}
	for _, it := range ret.Items {
		batch.Queue(`INSERT INTO return_items (return_id, product_id, product_name, quantity, price) VALUES ($1,$2,$3,$4,$5)`,
			ret.ID, it.ProductID, it.ProductName, it.Quantity, it.Price)
	}
	return t.tx.SendBatch(ctx, batch).Close()
}

func (t *txRepo) LockReturn(ctx context.Context, id string) (Return, error) {
	ret, err := scanReturn(t.tx.QueryRow(ctx, `SELECT `+returnColumns+` FROM returns WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Return{}, shared.NotFoundf("return %s", id)
		}
		return Return{}, err
	}
	if ret.Items, err = listItems(ctx, t.tx, id); err != nil {
		return Return{}, err
	}
	return ret, nil
}

func (t *txRepo) SetReturnStatus(ctx context.Context, ret Return) error {
	_, err := t.tx.Exec(ctx, `UPDATE returns SET status=$2, updated_at=$3 WHERE id=$1`, ret.ID, ret.Status, ret.UpdatedAt)
	return err
}
