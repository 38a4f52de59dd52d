package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/engffsantos/easyStock360/internal/credit"
	"github.com/engffsantos/easyStock360/internal/finance"
	"github.com/engffsantos/easyStock360/internal/installments"
	"github.com/engffsantos/easyStock360/internal/inventory"
	"github.com/engffsantos/easyStock360/internal/platform/db"
	"github.com/engffsantos/easyStock360/internal/shared"
)

// Repository provides PostgreSQL backed persistence for sales.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a sales repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository groups every write a sale mutation performs, stock, money and
// credit included, so they commit or roll back together.
type TxRepository interface {
	inventory.TxRepository
	finance.TxRepository
	credit.TxRepository

	CustomerName(ctx context.Context, id string) (string, error)
	LookupProducts(ctx context.Context, ids []string) (map[string]inventory.Product, error)

	InsertSale(ctx context.Context, sale Sale) error
	LockSale(ctx context.Context, id string) (Sale, error)
	UpdateSale(ctx context.Context, sale Sale) error
	DeleteSale(ctx context.Context, id string) error
	CountReturns(ctx context.Context, saleID string) (int, error)
	ReplaceItems(ctx context.Context, saleID string, items []Item) error
	ListItems(ctx context.Context, saleID string) ([]Item, error)

	InsertPayment(ctx context.Context, p Payment) error
	DeletePayments(ctx context.Context, saleID string) error
	LockPayment(ctx context.Context, id string) (Payment, error)
	SetPaymentStatus(ctx context.Context, id string, status installments.Status) error
	CancelOpenPayments(ctx context.Context, saleID string) (int64, error)
	MarkOverduePayments(ctx context.Context, today time.Time) (int64, error)
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

// NewTxRepository binds every sale write to tx.
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

// ============================================================================
// READS
// ============================================================================

const saleColumns = `id, customer_id, customer_name, status, subtotal, discount_type, discount_value, discount, freight, total,
payment_method, installments, valid_until, created_at, updated_at`

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.CustomerID, &s.CustomerName, &s.Status, &s.Subtotal, &s.DiscountType, &s.DiscountValue,
		&s.Discount, &s.Freight, &s.Total, &s.PaymentMethod, &s.Installments, &s.ValidUntil, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, shared.ErrNotFound
	}
	return s, err
}

func listItems(ctx context.Context, q querier, saleID string) ([]Item, error) {
	rows, err := q.Query(ctx, `SELECT id, sale_id, product_id, product_name, quantity, price FROM sale_items WHERE sale_id=$1 ORDER BY id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const paymentColumns = `id, sale_id, amount, due_date, payment_method, status, seq, created_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.SaleID, &p.Amount, &p.DueDate, &p.PaymentMethod, &p.Status, &p.Seq, &p.CreatedAt)
	return p, err
}

func listPayments(ctx context.Context, q querier, saleID string) ([]Payment, error) {
	rows, err := q.Query(ctx, `SELECT `+paymentColumns+` FROM sale_payments WHERE sale_id=$1 ORDER BY seq, due_date`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	payments := []Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// GetSale loads a sale with items and payments.
func (r *Repository) GetSale(ctx context.Context, id string) (Sale, error) {
	sale, err := scanSale(r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Sale{}, shared.NotFoundf("sale %s", id)
		}
		return Sale{}, err
	}
	if sale.Items, err = listItems(ctx, r.pool, id); err != nil {
		return Sale{}, err
	}
	if sale.Payments, err = listPayments(ctx, r.pool, id); err != nil {
		return Sale{}, err
	}
	return sale, nil
}

// ListSales returns sale headers, newest first.
func (r *Repository) ListSales(ctx context.Context, req ListSalesRequest) ([]Sale, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	var customerID *string
	if req.CustomerID != "" {
		customerID = &req.CustomerID
	}
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales
WHERE ($1 = '' OR status = $1)
  AND ($2::uuid IS NULL OR customer_id = $2::uuid)
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4`, string(req.Status), customerID, limit, req.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sales := []Sale{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// ListPayments returns the schedule of a sale.
func (r *Repository) ListPayments(ctx context.Context, saleID string) ([]Payment, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sales WHERE id=$1)`, saleID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NotFoundf("sale %s", saleID)
	}
	return listPayments(ctx, r.pool, saleID)
}

// MarkOverduePayments flags pending payments due before today.
func (t *txRepo) MarkOverduePayments(ctx context.Context, today time.Time) (int64, error) {
	tag, err := t.tx.Exec(ctx, `UPDATE sale_payments SET status='VENCIDO' WHERE status='PENDENTE' AND due_date < $1`, today)
	if err != nil {
		return 0, fmt.Errorf("mark overdue payments: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ============================================================================
// TRANSACTIONAL WRITES
// ============================================================================

func (t *txRepo) CustomerName(ctx context.Context, id string) (string, error) {
	var name string
	err := t.tx.QueryRow(ctx, `SELECT name FROM customers WHERE id=$1`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.NotFoundf("customer %s", id)
	}
	return name, err
}

func (t *txRepo) LookupProducts(ctx context.Context, ids []string) (map[string]inventory.Product, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, name, price, quantity, active FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := make(map[string]inventory.Product, len(ids))
	for rows.Next() {
		var p inventory.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Active); err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

func (t *txRepo) InsertSale(ctx context.Context, s Sale) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO sales (id, customer_id, customer_name, status, subtotal, discount_type, discount_value, discount,
freight, total, payment_method, installments, valid_until, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		s.ID, s.CustomerID, s.CustomerName, s.Status, s.Subtotal, s.DiscountType, s.DiscountValue, s.Discount,
		s.Freight, s.Total, s.PaymentMethod, s.Installments, s.ValidUntil, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func (t *txRepo) LockSale(ctx context.Context, id string) (Sale, error) {
	sale, err := scanSale(t.tx.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, shared.ErrNotFound) {
		return Sale{}, shared.NotFoundf("sale %s", id)
	}
	return sale, err
}

func (t *txRepo) UpdateSale(ctx context.Context, s Sale) error {
	_, err := t.tx.Exec(ctx, `UPDATE sales SET customer_id=$2, customer_name=$3, status=$4, subtotal=$5, discount_type=$6,
discount_value=$7, discount=$8, freight=$9, total=$10, payment_method=$11, installments=$12, valid_until=$13, updated_at=$14
WHERE id=$1`,
		s.ID, s.CustomerID, s.CustomerName, s.Status, s.Subtotal, s.DiscountType, s.DiscountValue, s.Discount,
		s.Freight, s.Total, s.PaymentMethod, s.Installments, s.ValidUntil, s.UpdatedAt)
	return err
}

func (t *txRepo) DeleteSale(ctx context.Context, id string) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM sales WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete sale: %w", shared.TranslatePgError(err))
	}
	return nil
}

func (t *txRepo) CountReturns(ctx context.Context, saleID string) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM returns WHERE sale_id=$1`, saleID).Scan(&n)
	return n, err
}

func (t *txRepo) ReplaceItems(ctx context.Context, saleID string, items []Item) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM sale_items WHERE sale_id=$1`, saleID); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`INSERT INTO sale_items (sale_id, product_id, product_name, quantity, price) VALUES ($1,$2,$3,$4,$5)`,
			saleID, it.ProductID, it.ProductName, it.Quantity, it.Price)
	}
	return t.tx.SendBatch(ctx, batch).Close()
}

func (t *txRepo) ListItems(ctx context.Context, saleID string) ([]Item, error) {
	return listItems(ctx, t.tx, saleID)
}

func (t *txRepo) InsertPayment(ctx context.Context, p Payment) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO sale_payments (id, sale_id, amount, due_date, payment_method, status, seq, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, p.ID, p.SaleID, p.Amount, p.DueDate, p.PaymentMethod, p.Status, p.Seq, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sale payment: %w", err)
	}
	return nil
}

func (t *txRepo) DeletePayments(ctx context.Context, saleID string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM sale_payments WHERE sale_id=$1`, saleID)
	return err
}

func (t *txRepo) LockPayment(ctx context.Context, id string) (Payment, error) {
	p, err := scanPayment(t.tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM sale_payments WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, shared.NotFoundf("payment %s", id)
	}
	return p, err
}

func (t *txRepo) SetPaymentStatus(ctx context.Context, id string, status installments.Status) error {
	_, err := t.tx.Exec(ctx, `UPDATE sale_payments SET status=$2 WHERE id=$1`, id, status)
	return err
}

func (t *txRepo) CancelOpenPayments(ctx context.Context, saleID string) (int64, error) {
	tag, err := t.tx.Exec(ctx, `UPDATE sale_payments SET status='CANCELADO' WHERE sale_id=$1 AND status IN ('PENDENTE','VENCIDO')`, saleID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
