package students

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academia-erp/academia-erp/internal/platform/httpx"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns students matching the filters plus the total count.
func (r *Repository) List(ctx context.Context, req ListStudentsRequest) ([]Student, int, error) {
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
		SELECT COUNT(*) FROM students
		WHERE ($1::text IS NULL OR first_name ILIKE '%'||$1||'%' OR last_name ILIKE '%'||$1||'%' OR email ILIKE '%'||$1||'%')
		  AND ($2::text IS NULL OR group_name = $2)`, req.Search, req.Group).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, first_name, last_name, email, group_name, enrolled_at, is_active, created_at, updated_at
		FROM students
		WHERE ($1::text IS NULL OR first_name ILIKE '%'||$1||'%' OR last_name ILIKE '%'||$1||'%' OR email ILIKE '%'||$1||'%')
		  AND ($2::text IS NULL OR group_name = $2)
		ORDER BY last_name, first_name
		LIMIT $3 OFFSET $4`, req.Search, req.Group, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.UserID, &s.FirstName, &s.LastName, &s.Email, &s.GroupName, &s.EnrolledAt, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

// Get fetches a student by id.
func (r *Repository) Get(ctx context.Context, id int64) (Student, error) {
	var s Student
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, first_name, last_name, email, group_name, enrolled_at, is_active, created_at, updated_at
		FROM students WHERE id = $1`, id).
		Scan(&s.ID, &s.UserID, &s.FirstName, &s.LastName, &s.Email, &s.GroupName, &s.EnrolledAt, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Student{}, httpx.ErrNotFound
		}
		return Student{}, err
	}
	return s, nil
}

// Create inserts a new student record.
func (r *Repository) Create(ctx context.Context, req CreateStudentRequest) (Student, error) {
	var s Student
	err := r.pool.QueryRow(ctx, `
		INSERT INTO students (user_id, first_name, last_name, email, group_name, enrolled_at, is_active)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()), TRUE)
		RETURNING id, user_id, first_name, last_name, email, group_name, enrolled_at, is_active, created_at, updated_at`,
		req.UserID, req.FirstName, req.LastName, req.Email, req.GroupName, req.EnrolledAt).
		Scan(&s.ID, &s.UserID, &s.FirstName, &s.LastName, &s.Email, &s.GroupName, &s.EnrolledAt, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Student{}, fmt.Errorf("%w: email %s", httpx.ErrDuplicate, req.Email)
		}
		return Student{}, err
	}
	return s, nil
}

// Update applies partial changes to a student record.
func (r *Repository) Update(ctx context.Context, id int64, req UpdateStudentRequest) (Student, error) {
	var s Student
	err := r.pool.QueryRow(ctx, `
		UPDATE students SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			group_name = COALESCE($4, group_name),
			is_active  = COALESCE($5, is_active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING id, user_id, first_name, last_name, email, group_name, enrolled_at, is_active, created_at, updated_at`,
		id, req.FirstName, req.LastName, req.GroupName, req.IsActive).
		Scan(&s.ID, &s.UserID, &s.FirstName, &s.LastName, &s.Email, &s.GroupName, &s.EnrolledAt, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Student{}, httpx.ErrNotFound
		}
		return Student{}, err
	}
	return s, nil
}

// Delete removes a student record.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
