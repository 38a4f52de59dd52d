package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/engffsantos/easyStock360/internal/shared"
)

type Repository interface {
	Get(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context, req ListCustomersRequest) ([]Customer, error)
	Create(ctx context.Context, customer Customer) error
	Update(ctx context.Context, customer Customer) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const customerColumns = `id, name, cpf_cnpj, email, phone, address, created_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.CPFCNPJ, &c.Email, &c.Phone, &c.Address, &c.CreatedAt)
	return c, err
}

func (r *repository) Get(ctx context.Context, id string) (*Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFoundf("customer %s", id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, req ListCustomersRequest) ([]Customer, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers
WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR cpf_cnpj ILIKE '%' || $1 || '%')
ORDER BY name ASC
LIMIT $2 OFFSET $3`, req.Search, limit, req.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Customer) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO customers (id, name, cpf_cnpj, email, phone, address, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, c.ID, c.Name, c.CPFCNPJ, c.Email, c.Phone, c.Address, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert customer: %w", shared.TranslatePgError(err))
	}
	return nil
}

func (r *repository) Update(ctx context.Context, c Customer) error {
	tag, err := r.pool.Exec(ctx, `UPDATE customers SET name=$2, cpf_cnpj=$3, email=$4, phone=$5, address=$6 WHERE id=$1`,
		c.ID, c.Name, c.CPFCNPJ, c.Email, c.Phone, c.Address)
	if err != nil {
		return fmt.Errorf("update customer: %w", shared.TranslatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf("customer %s", c.ID)
	}
	return nil
}
