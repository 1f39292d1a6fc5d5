package payments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academia-erp/academia-erp/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) List(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error) {
	limit := req.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if req.Page > 1 {
		offset = (req.Page - 1) * limit
	}

	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM payments
		WHERE ($1::bigint IS NULL OR student_id = $1)
		  AND ($2::text IS NULL OR status = $2)`, req.StudentID, req.Status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, student_id, amount_cents, currency, status, reference, paid_at, created_at, updated_at
		FROM payments
		WHERE ($1::bigint IS NULL OR student_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`, req.StudentID, req.Status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.StudentID, &p.AmountCents, &p.Currency, &p.Status, &p.Reference, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (Payment, error) {
	var p Payment
	err := r.pool.QueryRow(ctx, `
		SELECT id, student_id, amount_cents, currency, status, reference, paid_at, created_at, updated_at
		FROM payments WHERE id = $1`, id).
		Scan(&p.ID, &p.StudentID, &p.AmountCents, &p.Currency, &p.Status, &p.Reference, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, httpx.ErrNotFound
		}
		return Payment{}, err
	}
	return p, nil
}

func (r *Repository) Create(ctx context.Context, req CreatePaymentRequest) (Payment, error) {
	var p Payment
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payments (student_id, amount_cents, currency, status, reference)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, student_id, amount_cents, currency, status, reference, paid_at, created_at, updated_at`,
		req.StudentID, req.AmountCents, req.Currency, StatusPending, req.Reference).
		Scan(&p.ID, &p.StudentID, &p.AmountCents, &p.Currency, &p.Status, &p.Reference, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}

// UpdateStatus transitions a payment. Completing a payment stamps paid_at.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) (Payment, error) {
	var p Payment
	err := r.pool.QueryRow(ctx, `
		UPDATE payments SET
			status     = $2,
			paid_at    = CASE WHEN $2 = 'completed' THEN NOW() ELSE paid_at END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING id, student_id, amount_cents, currency, status, reference, paid_at, created_at, updated_at`,
		id, status).
		Scan(&p.ID, &p.StudentID, &p.AmountCents, &p.Currency, &p.Status, &p.Reference, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, httpx.ErrNotFound
		}
		return Payment{}, err
	}
	return p, nil
}
