package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/engffsantos/easyStock360/internal/installments"
	"github.com/engffsantos/easyStock360/internal/platform/db"
	"github.com/engffsantos/easyStock360/internal/shared"
)

// Repository provides PostgreSQL backed persistence for financial entries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository writes entries inside a caller's transaction.
type TxRepository interface {
	InsertEntry(ctx context.Context, e Entry) error
	LockEntry(ctx context.Context, id string) (Entry, error)
	SetEntryStatus(ctx context.Context, id string, status installments.Status) error
	DeleteEntry(ctx context.Context, id string) error
	CancelOpenSaleEntries(ctx context.Context, saleID string) (int64, error)
	MarkPaymentEntryPaid(ctx context.Context, paymentID string) (int64, error)
	CancelOpenReturnEntries(ctx context.Context, returnID string) (int64, error)
	MarkOverdueEntries(ctx context.Context, today time.Time) (int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository binds entry writes to an open transaction.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

// WithTx executes fn inside a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewTxRepository(tx))
	})
}

const entryColumns = `id, type, description, amount, due_date, payment_method, status, sale_id, payment_id, return_id, created_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Type, &e.Description, &e.Amount, &e.DueDate, &e.PaymentMethod, &e.Status, &e.SaleID, &e.PaymentID, &e.ReturnID, &e.CreatedAt)
	return e, err
}

// GetEntry returns an entry by id.
func (r *Repository) GetEntry(ctx context.Context, id string) (Entry, error) {
	e, err := scanEntry(r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM financial_entries WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, shared.NotFoundf("financial entry %s", id)
	}
	return e, err
}

// ListEntries returns entries ordered by due date.
func (r *Repository) ListEntries(ctx context.Context, filter ListFilter) ([]Entry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	var saleID *string
	if filter.SaleID != "" {
		saleID = &filter.SaleID
	}
	query := `SELECT ` + entryColumns + ` FROM financial_entries
WHERE ($1 = '' OR type = $1)
  AND ($2 = '' OR status = $2)
  AND ($3::uuid IS NULL OR sale_id = $3::uuid)
ORDER BY due_date ASC, created_at ASC
LIMIT $4`
	rows, err := r.pool.Query(ctx, query, string(filter.Type), string(filter.Status), saleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkOverdueEntries flags pending entries due before today.
func (r *txRepository) MarkOverdueEntries(ctx context.Context, today time.Time) (int64, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE financial_entries SET status='VENCIDO' WHERE status='PENDENTE' AND due_date < $1`, today)
	if err != nil {
		return 0, fmt.Errorf("mark overdue entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *txRepository) InsertEntry(ctx context.Context, e Entry) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO financial_entries (id, type, description, amount, due_date, payment_method, status, sale_id, payment_id, return_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.ID, e.Type, e.Description, e.Amount, e.DueDate, e.PaymentMethod, e.Status, e.SaleID, e.PaymentID, e.ReturnID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert financial entry: %w", err)
	}
	return nil
}

func (r *txRepository) LockEntry(ctx context.Context, id string) (Entry, error) {
	e, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM financial_entries WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, shared.NotFoundf("financial entry %s", id)
	}
	return e, err
}

func (r *txRepository) SetEntryStatus(ctx context.Context, id string, status installments.Status) error {
	_, err := r.tx.Exec(ctx, `UPDATE financial_entries SET status=$2 WHERE id=$1`, id, status)
	return err
}

func (r *txRepository) DeleteEntry(ctx context.Context, id string) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM financial_entries WHERE id=$1`, id)
	return err
}

func (r *txRepository) CancelOpenSaleEntries(ctx context.Context, saleID string) (int64, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE financial_entries SET status='CANCELADO'
WHERE sale_id=$1 AND type='RECEITA' AND status IN ('PENDENTE','VENCIDO')`, saleID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *txRepository) MarkPaymentEntryPaid(ctx context.Context, paymentID string) (int64, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE financial_entries SET status='PAGO'
WHERE payment_id=$1 AND status IN ('PENDENTE','VENCIDO')`, paymentID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *txRepository) CancelOpenReturnEntries(ctx context.Context, returnID string) (int64, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE financial_entries SET status='CANCELADO'
WHERE return_id=$1 AND status IN ('PENDENTE','VENCIDO')`, returnID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
