package repository

import (
	"context"
	"fmt"

	"booking-engine/internal/data/entity"
	"booking-engine/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type CustomerRepository interface {
	// Upsert creates the customer or refreshes the profile of the existing
	// row with the same (lower-cased) email, returning the stored row.
	Upsert(ctx context.Context, customer *entity.Customer) (*entity.Customer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
}

type customerRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewCustomerRepository(db database.Querier, log *zap.Logger) CustomerRepository {
	return &customerRepository{
		db:  db,
		log: log.With(zap.String("repository", "customer")),
	}
}

func (r *customerRepository) Upsert(ctx context.Context, customer *entity.Customer) (*entity.Customer, error) {
	query := `
		INSERT INTO customers (id, email, first_name, last_name, phone, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $6)
		ON CONFLICT (email) DO UPDATE SET
			first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), customers.first_name),
			last_name  = COALESCE(NULLIF(EXCLUDED.last_name, ''), customers.last_name),
			phone      = COALESCE(EXCLUDED.phone, customers.phone),
			updated_at = EXCLUDED.updated_at
		RETURNING id, email, first_name, last_name, phone, created_at, updated_at
	`

	var out entity.Customer
	err := r.db.QueryRow(ctx, query,
		customer.ID,
		customer.Email,
		customer.FirstName,
		customer.LastName,
		customer.Phone,
		customer.CreatedAt,
	).Scan(
		&out.ID,
		&out.Email,
		&out.FirstName,
		&out.LastName,
		&out.Phone,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to upsert customer", zap.Error(err))
		return nil, fmt.Errorf("upsert customer: %w", err)
	}

	return &out, nil
}

func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	query := `
		SELECT id, email, first_name, last_name, phone, created_at, updated_at
		FROM customers
		WHERE id = $1
	`

	var c entity.Customer
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Phone, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find customer by ID", zap.Error(err), zap.String("customer_id", id.String()))
		return nil, fmt.Errorf("find customer by ID %s: %w", id, err)
	}

	return &c, nil
}
