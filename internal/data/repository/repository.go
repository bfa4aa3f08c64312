package repository

import (
	"context"

	"booking-engine/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type Repository struct {
	Customer     CustomerRepository
	Catalog      CatalogRepository
	Promo        PromoRepository
	Booking      BookingRepository
	Reservation  ReservationRepository
	AddOnLine    AddOnLineRepository
	Payment      PaymentRepository
	WebhookEvent WebhookEventRepository
	AuditLog     AuditLogRepository
	Tx           Transactor
}

// Transactor runs fn against a Repository bound to a single transaction.
// fn returning an error rolls back every write made through tx.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *Repository) error) error
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := bind(db, log)
	repo.Tx = &pgTransactor{db: db, log: log, root: repo}
	return repo
}

func bind(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		Customer:     NewCustomerRepository(q, log),
		Catalog:      NewCatalogRepository(q, log),
		Promo:        NewPromoRepository(q, log),
		Booking:      NewBookingRepository(q, log),
		Reservation:  NewReservationRepository(q, log),
		AddOnLine:    NewAddOnLineRepository(q, log),
		Payment:      NewPaymentRepository(q, log),
		WebhookEvent: NewWebhookEventRepository(q, log),
		AuditLog:     NewAuditLogRepository(q, log),
	}
}

type pgTransactor struct {
	db   database.PgxIface
	log  *zap.Logger
	root *Repository
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(tx *Repository) error) error {
	return database.WithTx(ctx, t.db, func(tx pgx.Tx) error {
		txRepo := bind(tx, t.log)
		// audit sink may live outside postgres
		txRepo.AuditLog = t.root.AuditLog
		txRepo.Tx = nestedTransactor{repo: txRepo}
		return fn(txRepo)
	})
}

// nestedTransactor joins the transaction that is already open.
type nestedTransactor struct {
	repo *Repository
}

func (n nestedTransactor) WithinTx(_ context.Context, fn func(tx *Repository) error) error {
	return fn(n.repo)
}
