package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/engffsantos/easyStock360/internal/shared"
)

// Repository persists settings rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert creates the row; an existing key is a conflict.
func (r *Repository) Insert(ctx context.Context, s Settings) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO settings (key, company_name, cnpj, monthly_revenue_goal, updated_at)
VALUES ($1,$2,$3,$4,$5)`, s.Key, s.CompanyName, s.CNPJ, s.MonthlyRevenueGoal, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert settings: %w", shared.TranslatePgError(err))
	}
	return nil
}

// Get loads one row.
func (r *Repository) Get(ctx context.Context, key string) (Settings, error) {
	var s Settings
	err := r.pool.QueryRow(ctx, `SELECT key, company_name, cnpj, monthly_revenue_goal, updated_at FROM settings WHERE key=$1`, key).
		Scan(&s.Key, &s.CompanyName, &s.CNPJ, &s.MonthlyRevenueGoal, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, shared.NotFoundf("settings %q not initialised", key)
	}
	return s, err
}

// Update overwrites the editable fields of an existing row.
func (r *Repository) Update(ctx context.Context, s Settings) error {
	tag, err := r.pool.Exec(ctx, `UPDATE settings SET company_name=$2, cnpj=$3, monthly_revenue_goal=$4, updated_at=$5 WHERE key=$1`,
		s.Key, s.CompanyName, s.CNPJ, s.MonthlyRevenueGoal, s.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf("settings %q not initialised", s.Key)
	}
	return nil
}
