package courses

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

func (r *Repository) List(ctx context.Context, req ListCoursesRequest) ([]Course, int, error) {
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
		SELECT COUNT(*) FROM courses
		WHERE ($1::text IS NULL OR code ILIKE '%'||$1||'%' OR title ILIKE '%'||$1||'%')
		  AND ($2::bigint IS NULL OR teacher_id = $2)`, req.Search, req.TeacherID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, code, title, description, teacher_id, credits, is_active, created_at, updated_at
		FROM courses
		WHERE ($1::text IS NULL OR code ILIKE '%'||$1||'%' OR title ILIKE '%'||$1||'%')
		  AND ($2::bigint IS NULL OR teacher_id = $2)
		ORDER BY code
		LIMIT $3 OFFSET $4`, req.Search, req.TeacherID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Title, &c.Description, &c.TeacherID, &c.Credits, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (Course, error) {
	var c Course
	err := r.pool.QueryRow(ctx, `
		SELECT id, code, title, description, teacher_id, credits, is_active, created_at, updated_at
		FROM courses WHERE id = $1`, id).
		Scan(&c.ID, &c.Code, &c.Title, &c.Description, &c.TeacherID, &c.Credits, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Course{}, httpx.ErrNotFound
		}
		return Course{}, err
	}
	return c, nil
}

func (r *Repository) Create(ctx context.Context, req CreateCourseRequest) (Course, error) {
	var c Course
	err := r.pool.QueryRow(ctx, `
		INSERT INTO courses (code, title, description, teacher_id, credits, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, code, title, description, teacher_id, credits, is_active, created_at, updated_at`,
		req.Code, req.Title, req.Description, req.TeacherID, req.Credits).
		Scan(&c.ID, &c.Code, &c.Title, &c.Description, &c.TeacherID, &c.Credits, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Course{}, fmt.Errorf("%w: code %s", httpx.ErrDuplicate, req.Code)
		}
		return Course{}, err
	}
	return c, nil
}

func (r *Repository) Update(ctx context.Context, id int64, req UpdateCourseRequest) (Course, error) {
	var c Course
	err := r.pool.QueryRow(ctx, `
		UPDATE courses SET
			title       = COALESCE($2, title),
			description = COALESCE($3, description),
			credits     = COALESCE($4, credits),
			is_active   = COALESCE($5, is_active),
			updated_at  = NOW()
		WHERE id = $1
		RETURNING id, code, title, description, teacher_id, credits, is_active, created_at, updated_at`,
		id, req.Title, req.Description, req.Credits, req.IsActive).
		Scan(&c.ID, &c.Code, &c.Title, &c.Description, &c.TeacherID, &c.Credits, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Course{}, httpx.ErrNotFound
		}
		return Course{}, err
	}
	return c, nil
}
