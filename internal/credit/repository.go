package credit

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/engffsantos/easyStock360/internal/platform/db"
	"github.com/engffsantos/easyStock360/internal/shared"
)

// Repository persists credit lots.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository mutates lots inside a caller's transaction.
type TxRepository interface {
	EnsureCustomer(ctx context.Context, customerID string) error
	LockLots(ctx context.Context, customerID string) ([]Lot, error)
	SetLotBalance(ctx context.Context, id string, balance decimal.Decimal) error
	InsertLot(ctx context.Context, lot Lot) error
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository binds lot writes to an open transaction.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

// WithTx executes fn inside a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewTxRepository(tx))
	})
}

const lotColumns = `id, customer_id, return_id, amount, balance, note, created_at`

func collectLots(rows pgx.Rows) ([]Lot, error) {
	defer rows.Close()
	lots := []Lot{}
	for rows.Next() {
		var l Lot
		if err := rows.Scan(&l.ID, &l.CustomerID, &l.ReturnID, &l.Amount, &l.Balance, &l.Note, &l.CreatedAt); err != nil {
			return nil, err
		}
		lots = append(lots, l)
	}
	return lots, rows.Err()
}

// ListLots returns every lot of a customer, oldest first.
func (r *Repository) ListLots(ctx context.Context, customerID string) ([]Lot, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+lotColumns+` FROM customer_credits WHERE customer_id=$1 ORDER BY created_at ASC, seq ASC`, customerID)
	if err != nil {
		return nil, err
	}
	return collectLots(rows)
}

// SumBalance returns the available credit of a customer.
func (r *Repository) SumBalance(ctx context.Context, customerID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM customer_credits WHERE customer_id=$1`, customerID).Scan(&total)
	return total, err
}

// CustomerExists reports whether the customer row is present.
func (r *Repository) CustomerExists(ctx context.Context, customerID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id=$1)`, customerID).Scan(&exists)
	return exists, err
}

func (r *txRepository) EnsureCustomer(ctx context.Context, customerID string) error {
	var id string
	err := r.tx.QueryRow(ctx, `SELECT id FROM customers WHERE id=$1`, customerID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.NotFoundf("customer %s", customerID)
	}
	return err
}

func (r *txRepository) LockLots(ctx context.Context, customerID string) ([]Lot, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+lotColumns+` FROM customer_credits
WHERE customer_id=$1 AND balance > 0
ORDER BY created_at ASC, seq ASC
FOR UPDATE`, customerID)
	if err != nil {
		return nil, err
	}
	return collectLots(rows)
}

func (r *txRepository) SetLotBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	_, err := r.tx.Exec(ctx, `UPDATE customer_credits SET balance=$2 WHERE id=$1`, id, balance)
	return err
}

func (r *txRepository) InsertLot(ctx context.Context, lot Lot) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO customer_credits (id, customer_id, return_id, amount, balance, note, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, lot.ID, lot.CustomerID, lot.ReturnID, lot.Amount, lot.Balance, lot.Note, lot.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert credit lot: %w", err)
	}
	return nil
}
